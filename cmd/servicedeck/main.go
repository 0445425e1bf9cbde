package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prasanthmj/servicedeck/pkg/config"
	"github.com/prasanthmj/servicedeck/pkg/fetch"
	"github.com/prasanthmj/servicedeck/pkg/mail"
	"github.com/prasanthmj/servicedeck/pkg/pipeline"
)

func main() {
	// Parse command line flags
	var (
		dateStr        = flag.String("date", "", "Service date (YYYY-MM-DD), default is the coming Sunday")
		dryRun         = flag.Bool("dry-run", false, "Fetch and extract everything but do not touch the deck")
		allowHeuristic = flag.Bool("allow-heuristic-song", false, "Accept a song whose sections were recovered heuristically")
		cacheInfo      = flag.Bool("cache-info", false, "Show page cache information")
		clearCache     = flag.Bool("clear-cache", false, "Clear the page cache")
		debugMode      = flag.Bool("debug", false, "Enable debug mode")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Cache operations
	if *cacheInfo || *clearCache {
		if err := runCacheMode(cfg, *cacheInfo, *clearCache); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	date, err := resolveDate(*dateStr)
	if err != nil {
		log.Fatal(err)
	}

	if err := runBuild(cfg, date, *dryRun, *allowHeuristic, *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveDate parses the -date flag, defaulting to the coming Sunday
// (today, when today is a Sunday).
func resolveDate(dateStr string) (time.Time, error) {
	if dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid -date %q: %w", dateStr, err)
		}
		return date, nil
	}

	now := time.Now()
	daysAhead := (int(time.Sunday) - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, daysAhead), nil
}

// runBuild runs the full pipeline and handles reporting and notification.
func runBuild(cfg *config.Config, date time.Time, dryRun, allowHeuristic, debugMode bool) error {
	if debugMode {
		log.Printf("Building deck for %s (dry-run=%v)", date.Format("2006-01-02"), dryRun)
	}

	if err := cfg.ValidateForRun(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	p := pipeline.New(cfg)
	report, runErr := p.Run(ctx, pipeline.Options{
		Date:               date,
		DryRun:             dryRun,
		AllowHeuristicSong: allowHeuristic,
	})

	if err := report.Save(cfg.ReportFile); err != nil {
		log.Printf("Failed to save run report: %v", err)
	}

	notify(cfg, report, runErr)

	if runErr != nil {
		return runErr
	}

	fmt.Println(report.Summary())
	return nil
}

// notify mails the run outcome to the configured operator address.
// Notification failures are logged, never fatal.
func notify(cfg *config.Config, report *pipeline.RunReport, runErr error) {
	if cfg.NotifyAddress == "" {
		return
	}

	subject := fmt.Sprintf("Service deck %s ready", report.Date)
	body := report.Summary()
	if runErr != nil {
		subject = fmt.Sprintf("Service deck %s FAILED", report.Date)
		body = fmt.Sprintf("Run failed: %v\n\n%s", runErr, body)
	}

	if err := mail.NewNotifier(cfg).Send(subject, body); err != nil {
		log.Printf("Failed to send notification email: %v", err)
	}
}

// runCacheMode handles the cache inspection flags.
func runCacheMode(cfg *config.Config, cacheInfo, clearCache bool) error {
	cache := fetch.NewPageCache(cfg.CacheDir, cfg.CacheMaxSize)

	if clearCache {
		if err := cache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Cache cleared successfully")
		return nil
	}

	info, err := cache.Info()
	if err != nil {
		return fmt.Errorf("failed to get cache info: %w", err)
	}
	data, _ := json.MarshalIndent(info, "", "  ")
	fmt.Println(string(data))
	return nil
}
