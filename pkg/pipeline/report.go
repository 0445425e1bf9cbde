package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunReport records what one run produced. It is written to the configured
// report file after every run and mailed to the operator as a summary.
type RunReport struct {
	Date           string    `yaml:"date"`
	PresentationID string    `yaml:"presentation_id,omitempty"`
	OpeningTitle   string    `yaml:"opening_title,omitempty"`
	OpeningSlides  int       `yaml:"opening_slides"`
	PraiseTitle    string    `yaml:"praise_title,omitempty"`
	PraiseSlides   int       `yaml:"praise_slides"`
	ScriptureRefs  []string  `yaml:"scripture_refs,omitempty"`
	SongIncluded   bool      `yaml:"song_included"`
	SongTitle      string    `yaml:"song_title,omitempty"`
	SongStatus     string    `yaml:"song_status,omitempty"`
	SongSlides     int       `yaml:"song_slides,omitempty"`
	Warnings       []string  `yaml:"warnings,omitempty"`
	CompletedAt    time.Time `yaml:"completed_at"`
}

func (r *RunReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Save writes the report to path.
func (r *RunReport) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

// Summary renders a short human-readable account for the notification
// email.
func (r *RunReport) Summary() string {
	s := fmt.Sprintf("Deck for %s: %q (%d slides), %q (%d slides)",
		r.Date, r.OpeningTitle, r.OpeningSlides, r.PraiseTitle, r.PraiseSlides)
	if r.SongIncluded {
		s += fmt.Sprintf(", song %q (%d slides)", r.SongTitle, r.SongSlides)
	}
	if len(r.ScriptureRefs) > 0 {
		s += fmt.Sprintf(", scripture: %v", r.ScriptureRefs)
	}
	if len(r.Warnings) > 0 {
		s += fmt.Sprintf(", %d warning(s)", len(r.Warnings))
		for _, w := range r.Warnings {
			s += "\n  - " + w
		}
	}
	return s
}
