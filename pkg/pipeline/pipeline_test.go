package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prasanthmj/servicedeck/pkg/config"
	"github.com/prasanthmj/servicedeck/pkg/deck"
	"github.com/prasanthmj/servicedeck/pkg/fetch"
	"github.com/prasanthmj/servicedeck/pkg/mail"
	"github.com/prasanthmj/servicedeck/pkg/schedule"
)

// memUnit / memDeck implement the deck interfaces in memory.
type memUnit struct {
	id       string
	text     string
	height   float64
	fontSize float64
}

func (u *memUnit) ID() string                  { return u.id }
func (u *memUnit) Text() string                { return u.text }
func (u *memUnit) SetText(text string) error   { u.text = text; return nil }
func (u *memUnit) Height() float64             { return u.height }
func (u *memUnit) SetFontSize(p float64) error { u.fontSize = p; return nil }

type memDeck struct {
	units []*memUnit
	seq   int
}

func (d *memDeck) Units() ([]deck.Unit, error) {
	out := make([]deck.Unit, len(d.units))
	for i, u := range d.units {
		out[i] = u
	}
	return out, nil
}

func (d *memDeck) DuplicateUnit(anchor deck.Unit, index int) (deck.Unit, error) {
	src := anchor.(*memUnit)
	d.seq++
	dup := &memUnit{id: fmt.Sprintf("%s-%d", src.id, d.seq), text: src.text, height: src.height}
	if index < 0 || index > len(d.units) {
		index = len(d.units)
	}
	d.units = append(d.units, nil)
	copy(d.units[index+1:], d.units[index:])
	d.units[index] = dup
	return dup, nil
}

func (d *memDeck) ReplaceText(marker, text string) (int, error) {
	count := 0
	for _, u := range d.units {
		if strings.Contains(u.text, marker) {
			u.text = strings.ReplaceAll(u.text, marker, text)
			count++
		}
	}
	return count, nil
}

func (d *memDeck) texts() []string {
	var out []string
	for _, u := range d.units {
		out = append(out, u.text)
	}
	return out
}

func newMemDeck() *memDeck {
	return &memDeck{units: []*memUnit{
		{id: "cover", text: "Sunday Service {{date}}", height: 60},
		{id: "op-title", text: "{{opening_title}}", height: 60},
		{id: "op-lyrics", text: "{{opening_lyrics}}", height: 300},
		{id: "scripture", text: "{{scripture_ref}}\n{{scripture}}", height: 200},
		{id: "sermon", text: "{{sermon}}", height: 60},
		{id: "pr-title", text: "{{praise_title}}", height: 60},
		{id: "pr-lyrics", text: "{{praise_lyrics}}", height: 300},
		{id: "song-title", text: "{{song_title}}", height: 60},
		{id: "song-lyrics", text: "{{song_lyrics}}", height: 300},
	}}
}

func testConfig() *config.Config {
	return &config.Config{
		EmailAddress:       "svc@example.org",
		EmailPassword:      "pw",
		IMAPServer:         "imap.example.org",
		IMAPPort:           993,
		SMTPServer:         "smtp.example.org",
		SMTPPort:           587,
		HymnURLFormat:      "https://hymns.example.org/hymn/%s",
		ScriptureURLFormat: "https://passages.example.org/search?q=%s",
		SongLookbackDays:   14,
		MinFontSize:        14,
		DefaultFontSize:    32,
		LineSpacing:        1.15,
	}
}

const hymnPageFmt = `<h1 class="hymn-title">%s</h1><table>
<p>verse one line one<br>verse one line two</p>
<p>verse two line one<br>verse two line two</p>
</table>`

func testPlan() *schedule.Plan {
	return &schedule.Plan{
		OpeningHymn:   "120",
		PraiseHymn:    "305",
		ScriptureRefs: []string{"John 3:16"},
		SongSubject:   "Song of the Week",
		Sermon:        "Grace Alone",
	}
}

// newTestPipeline wires a pipeline against in-memory collaborators and
// returns the deck it will populate.
func newTestPipeline(cfg *config.Config, plan *schedule.Plan, msg *mail.Message) (*Pipeline, *memDeck) {
	d := newMemDeck()
	p := &Pipeline{cfg: cfg}
	p.planFor = func(ctx context.Context, date time.Time) (*schedule.Plan, error) {
		return plan, nil
	}
	p.fetchPage = func(ctx context.Context, u string) (string, error) {
		switch {
		case strings.Contains(u, "hymns.example.org/hymn/120"):
			return fmt.Sprintf(hymnPageFmt, "Amazing Grace"), nil
		case strings.Contains(u, "hymns.example.org/hymn/305"):
			return fmt.Sprintf(hymnPageFmt, "Blessed Assurance"), nil
		case strings.Contains(u, "passages.example.org"):
			return `<div class="passage-text"><sup class="versenum">16</sup>For God so loved the world</div>`, nil
		}
		return "", &fetch.FetchError{URL: u, Status: 404}
	}
	p.fetchSong = func(subject string, since time.Time) (*mail.Message, error) {
		return msg, nil
	}
	p.openDeck = func(ctx context.Context, name string) (deck.Deck, string, error) {
		return d, "pres-1", nil
	}
	return p, d
}

var serviceDate = time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

func TestRunFullDeck(t *testing.T) {
	msg := &mail.Message{
		Subject: "Song of the Week",
		Body:    "Way Maker\n\nYou are here\nmoving in our midst\n\nYou are Way Maker",
	}
	p, d := newTestPipeline(testConfig(), testPlan(), msg)

	report, err := p.Run(context.Background(), Options{Date: serviceDate})
	if err != nil {
		t.Fatalf("Unexpected run error: %v", err)
	}

	if report.PresentationID != "pres-1" {
		t.Errorf("Expected presentation ID recorded, got %q", report.PresentationID)
	}
	if report.OpeningTitle != "Amazing Grace" || report.PraiseTitle != "Blessed Assurance" {
		t.Errorf("Unexpected titles: %q / %q", report.OpeningTitle, report.PraiseTitle)
	}
	if report.OpeningSlides != 2 || report.PraiseSlides != 2 {
		t.Errorf("Expected 2 slides each, got %d / %d", report.OpeningSlides, report.PraiseSlides)
	}
	if !report.SongIncluded || report.SongTitle != "Way Maker" {
		t.Errorf("Expected song included, got %+v", report)
	}
	if report.SongSlides != 2 {
		t.Errorf("Expected 2 song slides, got %d", report.SongSlides)
	}

	texts := d.texts()
	joined := strings.Join(texts, "\n--\n")
	if strings.Contains(joined, "{{") {
		t.Errorf("Unreplaced marker left in deck:\n%s", joined)
	}
	if !strings.Contains(joined, "Sunday Service August 30, 2026") {
		t.Errorf("Date marker not replaced:\n%s", texts[0])
	}
	if !strings.Contains(joined, "16 For God so loved the world") {
		t.Error("Scripture body missing from deck")
	}
	if !strings.Contains(joined, "Grace Alone") {
		t.Error("Sermon marker not replaced")
	}

	// 9 template units + 1 opening dup + 1 praise dup + 1 song dup
	if len(texts) != 12 {
		t.Errorf("Expected 12 units after expansion, got %d", len(texts))
	}
}

func TestRunMandatoryHymnFetchAborts(t *testing.T) {
	plan := testPlan()
	plan.OpeningHymn = "999" // not served by the fake
	p, _ := newTestPipeline(testConfig(), plan, nil)

	_, err := p.Run(context.Background(), Options{Date: serviceDate})
	if err == nil {
		t.Fatal("Expected run abort on mandatory hymn fetch failure")
	}
	if !strings.Contains(err.Error(), "opening hymn") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRunScriptureFailureDegrades(t *testing.T) {
	cfg := testConfig()
	plan := testPlan()
	plan.SongSubject = ""
	p, d := newTestPipeline(cfg, plan, nil)

	orig := p.fetchPage
	p.fetchPage = func(ctx context.Context, u string) (string, error) {
		if strings.Contains(u, "passages.example.org") {
			return "", &fetch.FetchError{URL: u, Status: 503}
		}
		return orig(ctx, u)
	}

	report, err := p.Run(context.Background(), Options{Date: serviceDate})
	if err != nil {
		t.Fatalf("Scripture failure must not abort the run: %v", err)
	}
	if len(report.Warnings) == 0 {
		t.Error("Expected a degradation warning")
	}

	// The scripture marker is blanked, not left dangling
	joined := strings.Join(d.texts(), "\n")
	if strings.Contains(joined, "{{scripture}}") {
		t.Error("Scripture marker left unreplaced")
	}
}

func TestRunHeuristicSongSkippedByDefault(t *testing.T) {
	// No blank-line structure forces the heuristic stage
	msg := &mail.Message{
		Subject: "Song of the Week",
		Body:    "Build My Life worship song lyrics\nWorthy of every song\nWorthy of all praise\nChorus\nHoly there is none like You",
	}
	p, _ := newTestPipeline(testConfig(), testPlan(), msg)

	report, err := p.Run(context.Background(), Options{Date: serviceDate})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.SongIncluded {
		t.Error("Heuristic song must be skipped without the opt-in flag")
	}

	p2, _ := newTestPipeline(testConfig(), testPlan(), msg)
	report2, err := p2.Run(context.Background(), Options{Date: serviceDate, AllowHeuristicSong: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !report2.SongIncluded {
		t.Error("Expected heuristic song included with opt-in flag")
	}
	if report2.SongStatus != "heuristic" {
		t.Errorf("Expected heuristic status surfaced, got %q", report2.SongStatus)
	}
}

func TestRunMissingControllingAnchorAborts(t *testing.T) {
	plan := testPlan()
	plan.SongSubject = ""
	p, d := newTestPipeline(testConfig(), plan, nil)
	// Remove the opening lyrics anchor from the template
	d.units = append(d.units[:2], d.units[3:]...)

	_, err := p.Run(context.Background(), Options{Date: serviceDate})
	if err == nil {
		t.Fatal("Expected abort on missing controlling anchor")
	}
	if !strings.Contains(err.Error(), "opening lyrics") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRunMissingSongAnchorOnlyWarns(t *testing.T) {
	plan := testPlan()
	plan.SongSubject = ""
	p, d := newTestPipeline(testConfig(), plan, nil)
	// Template without song slides
	d.units = d.units[:7]

	report, err := p.Run(context.Background(), Options{Date: serviceDate})
	if err != nil {
		t.Fatalf("Missing optional anchor must not abort: %v", err)
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "song lyrics anchor") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected song anchor warning, got %v", report.Warnings)
	}
}

func TestRunDryRunSkipsDeck(t *testing.T) {
	plan := testPlan()
	plan.SongSubject = ""
	p, d := newTestPipeline(testConfig(), plan, nil)
	p.openDeck = func(ctx context.Context, name string) (deck.Deck, string, error) {
		t.Error("Dry run must not open a deck")
		return d, "", nil
	}

	report, err := p.Run(context.Background(), Options{Date: serviceDate, DryRun: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.OpeningSlides != 2 {
		t.Errorf("Expected extraction to still run, got %d slides", report.OpeningSlides)
	}
	if report.PresentationID != "" {
		t.Error("Dry run must not record a presentation")
	}
}

func TestReportSummary(t *testing.T) {
	r := &RunReport{
		Date: "2026-08-30", OpeningTitle: "Amazing Grace", OpeningSlides: 2,
		PraiseTitle: "Blessed Assurance", PraiseSlides: 3,
	}
	r.warnf("scripture %s: %v", "John 3:16", "timeout")

	s := r.Summary()
	if !strings.Contains(s, "Amazing Grace") || !strings.Contains(s, "1 warning") {
		t.Errorf("Unexpected summary: %s", s)
	}
}
