// Package schedule resolves a service date to its plan row in the schedule
// spreadsheet: hymn numbers, scripture references, and the song email
// subject.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/prasanthmj/servicedeck/pkg/googleauth"
)

// MissingDataError reports a required schedule field that is absent for the
// requested service date.
type MissingDataError struct {
	Date  time.Time
	Field string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("schedule: no %s for service on %s", e.Field, e.Date.Format("2006-01-02"))
}

// Plan is one service's schedule row. OpeningHymn and PraiseHymn are
// mandatory; ScriptureRefs and SongSubject may be empty, degrading those
// features for the run.
type Plan struct {
	Date          time.Time `yaml:"date" json:"date"`
	OpeningHymn   string    `yaml:"opening_hymn" json:"opening_hymn"`
	PraiseHymn    string    `yaml:"praise_hymn" json:"praise_hymn"`
	ScriptureRefs []string  `yaml:"scripture_refs" json:"scripture_refs"`
	SongSubject   string    `yaml:"song_subject,omitempty" json:"song_subject,omitempty"`
	Sermon        string    `yaml:"sermon,omitempty" json:"sermon,omitempty"`
}

// Column titles expected in the schedule header row, matched
// case-insensitively.
const (
	colDate        = "date"
	colOpeningHymn = "opening hymn"
	colPraiseHymn  = "praise hymn"
	colScripture   = "scripture"
	colSongSubject = "song subject"
	colSermon      = "sermon"
)

// dateLayouts are the cell formats the schedule sheet has used over time.
var dateLayouts = []string{"1/2/2006", "2006-01-02", "Jan 2, 2006"}

// Service reads plans from a Google Sheet.
type Service struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewService opens the schedule spreadsheet.
func NewService(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*Service, error) {
	ts, err := googleauth.TokenSource(ctx, credentialsFile, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Service{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

// PlanFor returns the plan row for the given service date.
func (s *Service) PlanFor(ctx context.Context, date time.Time) (*Plan, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return buildPlan(resp.Values, date)
}

// buildPlan matches the date against the sheet rows. The first row is the
// header; its titles map columns to plan fields, so the sheet can reorder
// or add columns without breaking the lookup.
func buildPlan(rows [][]interface{}, date time.Time) (*Plan, error) {
	if len(rows) < 2 {
		return nil, &MissingDataError{Date: date, Field: "schedule rows"}
	}

	cols := map[string]int{}
	for i, cell := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(cellString(cell)))] = i
	}
	dateCol, ok := cols[colDate]
	if !ok {
		return nil, fmt.Errorf("schedule header has no date column")
	}
	col := func(name string) int {
		if i, ok := cols[name]; ok {
			return i
		}
		return -1
	}

	for _, row := range rows[1:] {
		cellDate, err := parseDate(cellAt(row, dateCol))
		if err != nil {
			continue
		}
		if !sameDay(cellDate, date) {
			continue
		}

		plan := &Plan{
			Date:        date,
			OpeningHymn: cellAt(row, col(colOpeningHymn)),
			PraiseHymn:  cellAt(row, col(colPraiseHymn)),
			SongSubject: cellAt(row, col(colSongSubject)),
			Sermon:      cellAt(row, col(colSermon)),
		}
		if refs := cellAt(row, col(colScripture)); refs != "" {
			plan.ScriptureRefs = splitRefs(refs)
		}

		// Hymn numbers are the one thing the run cannot proceed without
		if plan.OpeningHymn == "" {
			return nil, &MissingDataError{Date: date, Field: "opening hymn number"}
		}
		if plan.PraiseHymn == "" {
			return nil, &MissingDataError{Date: date, Field: "praise hymn number"}
		}
		return plan, nil
	}

	return nil, &MissingDataError{Date: date, Field: "schedule row"}
}

// splitRefs splits a scripture cell like "John 3:16-17; Psalm 23" into
// individual references.
func splitRefs(cell string) []string {
	var refs []string
	for _, r := range strings.Split(cell, ";") {
		r = strings.TrimSpace(r)
		if r != "" {
			refs = append(refs, r)
		}
	}
	return refs
}

func cellAt(row []interface{}, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(cellString(row[i]))
}

func cellString(cell interface{}) string {
	s, _ := cell.(string)
	return s
}

func parseDate(cell string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", cell)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
