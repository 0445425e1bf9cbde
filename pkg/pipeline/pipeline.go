// Package pipeline runs one deck build end to end: schedule lookup, content
// fetches, extraction, template expansion, and the run report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/prasanthmj/servicedeck/pkg/config"
	"github.com/prasanthmj/servicedeck/pkg/deck"
	"github.com/prasanthmj/servicedeck/pkg/extract"
	"github.com/prasanthmj/servicedeck/pkg/fetch"
	"github.com/prasanthmj/servicedeck/pkg/mail"
	"github.com/prasanthmj/servicedeck/pkg/schedule"
)

// Marker tokens the slide template carries. The lyric markers are
// controlling anchors: a template without them aborts the run. The rest are
// leaf markers, logged and skipped when absent.
const (
	MarkerOpeningLyrics = "{{opening_lyrics}}"
	MarkerPraiseLyrics  = "{{praise_lyrics}}"
	MarkerSongLyrics    = "{{song_lyrics}}"
	MarkerOpeningTitle  = "{{opening_title}}"
	MarkerPraiseTitle   = "{{praise_title}}"
	MarkerSongTitle     = "{{song_title}}"
	MarkerScripture     = "{{scripture}}"
	MarkerScriptureRef  = "{{scripture_ref}}"
	MarkerSermon        = "{{sermon}}"
	MarkerDate          = "{{date}}"
)

// Options selects per-run behavior.
type Options struct {
	Date               time.Time
	DryRun             bool
	AllowHeuristicSong bool
}

// Pipeline builds one deck per Run call. The collaborator funcs exist so
// tests can run the whole flow against in-memory fakes.
type Pipeline struct {
	cfg *config.Config

	planFor   func(ctx context.Context, date time.Time) (*schedule.Plan, error)
	fetchPage func(ctx context.Context, url string) (string, error)
	fetchSong func(subjectContains string, since time.Time) (*mail.Message, error)
	openDeck  func(ctx context.Context, name string) (deck.Deck, string, error)
}

// New wires a pipeline against the real collaborators.
func New(cfg *config.Config) *Pipeline {
	p := &Pipeline{cfg: cfg}

	fetcher := fetch.NewClient(cfg.Timeout, cfg.FetchDelay, fetch.NewPageCache(cfg.CacheDir, cfg.CacheMaxSize))
	p.fetchPage = fetcher.Get

	p.planFor = func(ctx context.Context, date time.Time) (*schedule.Plan, error) {
		svc, err := schedule.NewService(ctx, cfg.CredentialsFile, cfg.ScheduleSpreadsheetID, cfg.ScheduleRange)
		if err != nil {
			return nil, err
		}
		return svc.PlanFor(ctx, date)
	}

	p.fetchSong = func(subjectContains string, since time.Time) (*mail.Message, error) {
		return mail.NewIMAPClient(cfg).FetchLatestMatching(subjectContains, since)
	}

	p.openDeck = func(ctx context.Context, name string) (deck.Deck, string, error) {
		id, err := deck.CopyTemplate(ctx, cfg.CredentialsFile, cfg.TemplateID, name)
		if err != nil {
			return nil, "", err
		}
		d, err := deck.NewGoogleDeck(ctx, cfg.CredentialsFile, id)
		if err != nil {
			return nil, "", err
		}
		return d, id, nil
	}

	return p
}

// Run builds the deck for opts.Date and returns the run report. A non-nil
// error means the run produced no usable deck; optional-feature degradation
// is reported through the report's warnings instead.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunReport, error) {
	report := &RunReport{Date: opts.Date.Format("2006-01-02")}

	plan, err := p.planFor(ctx, opts.Date)
	if err != nil {
		return report, fmt.Errorf("schedule lookup failed: %w", err)
	}

	// Two hymn lookups are mandatory: a fetch failure aborts the run
	opening, err := p.fetchHymn(ctx, plan.OpeningHymn)
	if err != nil {
		return report, fmt.Errorf("opening hymn %s: %w", plan.OpeningHymn, err)
	}
	praise, err := p.fetchHymn(ctx, plan.PraiseHymn)
	if err != nil {
		return report, fmt.Errorf("praise hymn %s: %w", plan.PraiseHymn, err)
	}
	report.OpeningTitle = opening.Title
	report.PraiseTitle = praise.Title

	scriptureBody, scriptureRefs := p.fetchScriptures(ctx, plan.ScriptureRefs, report)
	report.ScriptureRefs = plan.ScriptureRefs

	song := p.fetchSongEntity(plan, opts, report)
	if song != nil {
		report.SongTitle = song.Title
		report.SongStatus = string(song.Status)
		report.SongIncluded = true
	}

	openingBlocks := deck.Interleave(opening)
	praiseBlocks := deck.Interleave(praise)
	report.OpeningSlides = len(openingBlocks)
	report.PraiseSlides = len(praiseBlocks)

	if opts.DryRun {
		report.CompletedAt = time.Now()
		return report, nil
	}

	name := fmt.Sprintf("Service %s", opts.Date.Format("2006-01-02"))
	d, presentationID, err := p.openDeck(ctx, name)
	if err != nil {
		return report, fmt.Errorf("failed to prepare working deck: %w", err)
	}
	report.PresentationID = presentationID

	// Leaf markers first; missing ones degrade with a warning
	p.replaceLeaf(d, report, MarkerDate, opts.Date.Format("January 2, 2006"))
	p.replaceLeaf(d, report, MarkerOpeningTitle, opening.Title)
	p.replaceLeaf(d, report, MarkerPraiseTitle, praise.Title)
	p.replaceLeaf(d, report, MarkerScripture, scriptureBody)
	p.replaceLeaf(d, report, MarkerScriptureRef, scriptureRefs)
	p.replaceLeaf(d, report, MarkerSermon, plan.Sermon)

	autofit := deck.AutofitConfig{
		MinFontSize:     p.cfg.MinFontSize,
		DefaultFontSize: p.cfg.DefaultFontSize,
		LineSpacing:     p.cfg.LineSpacing,
	}

	// Controlling anchors: failure here leaves the deck unusable
	if _, err := deck.Expand(d, MarkerOpeningLyrics, openingBlocks, autofit); err != nil {
		return report, fmt.Errorf("opening lyrics expansion failed: %w", err)
	}
	if _, err := deck.Expand(d, MarkerPraiseLyrics, praiseBlocks, autofit); err != nil {
		return report, fmt.Errorf("praise lyrics expansion failed: %w", err)
	}

	p.expandSong(d, song, autofit, report)

	report.CompletedAt = time.Now()
	return report, nil
}

// fetchHymn retrieves and extracts one hymn page. Fetch failures propagate
// (mandatory source); parse failures recover to an empty document.
func (p *Pipeline) fetchHymn(ctx context.Context, number string) (extract.HymnDocument, error) {
	page, err := p.fetchPage(ctx, fmt.Sprintf(p.cfg.HymnURLFormat, number))
	if err != nil {
		return extract.HymnDocument{}, err
	}

	doc, err := extract.ExtractHymn(page)
	if err != nil {
		// Malformed but present input degrades, never aborts
		log.Printf("hymn %s: %v", number, err)
	}
	return doc, nil
}

// fetchScriptures retrieves each reference sequentially through the
// rate-limited client and composes the cleaned bodies with a single space.
// Every failure here degrades that passage to empty.
func (p *Pipeline) fetchScriptures(ctx context.Context, refs []string, report *RunReport) (body, labels string) {
	if p.cfg.ScriptureURLFormat == "" && len(refs) > 0 {
		report.warnf("scripture references configured but no scripture URL format set")
		return "", strings.Join(refs, ", ")
	}

	var bodies []string
	for _, ref := range refs {
		page, err := p.fetchPage(ctx, fmt.Sprintf(p.cfg.ScriptureURLFormat, url.QueryEscape(ref)))
		if err != nil {
			report.warnf("scripture %s: %v", ref, err)
			continue
		}
		passage, err := extract.ExtractScripture(page, ref)
		if err != nil {
			report.warnf("scripture %s: %v", ref, err)
			continue
		}
		if passage.Body != "" {
			bodies = append(bodies, passage.Body)
		}
	}
	return strings.Join(bodies, " "), strings.Join(refs, ", ")
}

// fetchSongEntity resolves the optional song feature. Any failure returns
// nil, which the expansion step treats as "song absent".
func (p *Pipeline) fetchSongEntity(plan *schedule.Plan, opts Options, report *RunReport) *extract.EmailSong {
	if plan.SongSubject == "" {
		return nil
	}
	if err := p.cfg.ValidateForMail(); err != nil {
		report.warnf("song email skipped: %v", err)
		return nil
	}

	since := opts.Date.AddDate(0, 0, -p.cfg.SongLookbackDays)
	msg, err := p.fetchSong(plan.SongSubject, since)
	if err != nil {
		report.warnf("song email fetch failed: %v", err)
		return nil
	}
	if msg == nil {
		report.warnf("no email matching subject %q since %s", plan.SongSubject, since.Format("2006-01-02"))
		return nil
	}

	body, rich := msg.BestBody()
	song, err := extract.ExtractSong(body, rich)
	if err != nil {
		report.warnf("song email unusable: %v", err)
		return nil
	}
	if song.Status == extract.SongHeuristic && !opts.AllowHeuristicSong {
		report.warnf("song segmentation was heuristic, skipping (use -allow-heuristic-song to accept)")
		return nil
	}
	return song
}

// expandSong fills the song anchors, or blanks them when no song made it
// through. A template without song anchors only warns: the feature is
// optional.
func (p *Pipeline) expandSong(d deck.Deck, song *extract.EmailSong, autofit deck.AutofitConfig, report *RunReport) {
	title := ""
	var blocks []extract.ContentBlock
	if song != nil {
		title = song.Title
		blocks = song.Sections
	}

	p.replaceLeaf(d, report, MarkerSongTitle, title)

	if _, err := deck.Expand(d, MarkerSongLyrics, blocks, autofit); err != nil {
		var te *deck.TemplateError
		if errors.As(err, &te) {
			report.warnf("no song lyrics anchor in template")
			return
		}
		report.warnf("song expansion failed: %v", err)
	} else if song != nil {
		report.SongSlides = len(blocks)
	}
}

// replaceLeaf substitutes one leaf marker, downgrading failures to
// warnings.
func (p *Pipeline) replaceLeaf(d deck.Deck, report *RunReport, marker, text string) {
	if _, err := d.ReplaceText(marker, text); err != nil {
		report.warnf("marker %s: %v", marker, err)
	}
}
