package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Email account used to read the song email and send notifications
	EmailAddress  string
	EmailPassword string
	Provider      string // gmail, outlook, or custom

	// IMAP settings
	IMAPServer string
	IMAPPort   int

	// SMTP settings
	SMTPServer string
	SMTPPort   int

	// NotifyAddress receives run-outcome emails; empty disables them
	NotifyAddress string

	// Google Workspace settings
	CredentialsFile       string
	TemplateID            string // Slides template presentation
	ScheduleSpreadsheetID string
	ScheduleRange         string

	// Content sources; each format string takes one argument (hymn number
	// or URL-escaped scripture reference)
	HymnURLFormat      string
	ScriptureURLFormat string

	// Storage settings
	FilesRoot    string
	CacheMaxSize int64

	// Timing
	TimeoutSeconds   int
	Timeout          time.Duration
	FetchDelayMs     int
	FetchDelay       time.Duration
	SongLookbackDays int

	// Slide text sizing
	MinFontSize     float64
	DefaultFontSize float64
	LineSpacing     float64

	// Derived paths
	CacheDir   string
	ReportFile string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Provider:         "gmail",
		ScheduleRange:    "Schedule!A1:F200",
		FilesRoot:        "/tmp/servicedeck",
		CacheMaxSize:     10485760, // 10MB default
		TimeoutSeconds:   120,      // 2 minutes default
		FetchDelayMs:     1500,     // rate limit on the scripture host
		SongLookbackDays: 14,
		MinFontSize:      14,
		DefaultFontSize:  32,
		LineSpacing:      1.15,
	}

	// Email account settings (optional at startup; the song feature and
	// notifications need them)
	cfg.EmailAddress = os.Getenv("EMAIL_ADDRESS")
	cfg.EmailPassword = os.Getenv("EMAIL_APP_PASSWORD")
	cfg.NotifyAddress = os.Getenv("SERVICEDECK_NOTIFY_ADDRESS")

	if provider := os.Getenv("EMAIL_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}

	// Auto-configure for known providers
	switch cfg.Provider {
	case "gmail":
		cfg.IMAPServer = "imap.gmail.com"
		cfg.IMAPPort = 993
		cfg.SMTPServer = "smtp.gmail.com"
		cfg.SMTPPort = 587
	case "outlook":
		cfg.IMAPServer = "outlook.office365.com"
		cfg.IMAPPort = 993
		cfg.SMTPServer = "smtp-mail.outlook.com"
		cfg.SMTPPort = 587
	}

	// Override with explicit settings if provided
	if server := os.Getenv("EMAIL_IMAP_SERVER"); server != "" {
		cfg.IMAPServer = server
	}
	if port := os.Getenv("EMAIL_IMAP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_IMAP_PORT: %w", err)
		}
		cfg.IMAPPort = p
	}
	if server := os.Getenv("EMAIL_SMTP_SERVER"); server != "" {
		cfg.SMTPServer = server
	}
	if port := os.Getenv("EMAIL_SMTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = p
	}

	// Google Workspace settings
	cfg.CredentialsFile = os.Getenv("SERVICEDECK_CREDENTIALS_FILE")
	cfg.TemplateID = os.Getenv("SERVICEDECK_TEMPLATE_ID")
	cfg.ScheduleSpreadsheetID = os.Getenv("SERVICEDECK_SCHEDULE_SPREADSHEET")
	if r := os.Getenv("SERVICEDECK_SCHEDULE_RANGE"); r != "" {
		cfg.ScheduleRange = r
	}

	// Content sources
	cfg.HymnURLFormat = os.Getenv("SERVICEDECK_HYMN_URL_FORMAT")
	cfg.ScriptureURLFormat = os.Getenv("SERVICEDECK_SCRIPTURE_URL_FORMAT")

	// Storage settings
	if root := os.Getenv("SERVICEDECK_FILES_ROOT"); root != "" {
		cfg.FilesRoot = root
	}
	if size := os.Getenv("SERVICEDECK_CACHE_MAX_SIZE"); size != "" {
		s, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICEDECK_CACHE_MAX_SIZE: %w", err)
		}
		cfg.CacheMaxSize = s
	}

	// Timing
	if timeout := os.Getenv("SERVICEDECK_TIMEOUT_SECONDS"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICEDECK_TIMEOUT_SECONDS: %w", err)
		}
		cfg.TimeoutSeconds = t
	}
	if delay := os.Getenv("SERVICEDECK_FETCH_DELAY_MS"); delay != "" {
		d, err := strconv.Atoi(delay)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICEDECK_FETCH_DELAY_MS: %w", err)
		}
		cfg.FetchDelayMs = d
	}
	if days := os.Getenv("SERVICEDECK_SONG_LOOKBACK_DAYS"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICEDECK_SONG_LOOKBACK_DAYS: %w", err)
		}
		cfg.SongLookbackDays = d
	}

	// Slide text sizing
	if v := os.Getenv("SERVICEDECK_MIN_FONT_SIZE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICEDECK_MIN_FONT_SIZE: %w", err)
		}
		cfg.MinFontSize = f
	}
	if v := os.Getenv("SERVICEDECK_DEFAULT_FONT_SIZE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICEDECK_DEFAULT_FONT_SIZE: %w", err)
		}
		cfg.DefaultFontSize = f
	}
	if v := os.Getenv("SERVICEDECK_LINE_SPACING"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICEDECK_LINE_SPACING: %w", err)
		}
		cfg.LineSpacing = f
	}

	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	cfg.FetchDelay = time.Duration(cfg.FetchDelayMs) * time.Millisecond

	// Setup derived paths
	cfg.CacheDir = filepath.Join(cfg.FilesRoot, "pages")
	cfg.ReportFile = filepath.Join(cfg.FilesRoot, "last_run.yaml")

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", cfg.CacheDir, err)
	}

	return cfg, nil
}

// Validate checks settings that every run needs, regardless of which
// optional features are enabled.
func (c *Config) Validate() error {
	if c.CacheMaxSize <= 0 {
		return fmt.Errorf("invalid cache size")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid timeout")
	}
	if c.FetchDelayMs < 0 {
		return fmt.Errorf("invalid fetch delay")
	}
	if c.MinFontSize <= 0 || c.DefaultFontSize < c.MinFontSize {
		return fmt.Errorf("invalid font size bounds")
	}
	if c.LineSpacing <= 0 {
		return fmt.Errorf("invalid line spacing")
	}
	return nil
}

// ValidateForMail checks that email credentials are available for the song
// fetch and notifications.
func (c *Config) ValidateForMail() error {
	if c.EmailAddress == "" {
		return fmt.Errorf("email not configured: EMAIL_ADDRESS environment variable is required")
	}
	if c.EmailPassword == "" {
		return fmt.Errorf("email not configured: EMAIL_APP_PASSWORD environment variable is required")
	}
	if c.IMAPServer == "" || c.IMAPPort == 0 {
		return fmt.Errorf("IMAP server configuration is incomplete")
	}
	if c.SMTPServer == "" || c.SMTPPort == 0 {
		return fmt.Errorf("SMTP server configuration is incomplete")
	}
	return nil
}

// ValidateForRun checks everything a full deck build needs.
func (c *Config) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CredentialsFile == "" {
		return fmt.Errorf("SERVICEDECK_CREDENTIALS_FILE is required")
	}
	if c.TemplateID == "" {
		return fmt.Errorf("SERVICEDECK_TEMPLATE_ID is required")
	}
	if c.ScheduleSpreadsheetID == "" {
		return fmt.Errorf("SERVICEDECK_SCHEDULE_SPREADSHEET is required")
	}
	if c.HymnURLFormat == "" {
		return fmt.Errorf("SERVICEDECK_HYMN_URL_FORMAT is required")
	}
	return nil
}
