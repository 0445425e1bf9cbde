package extract

import (
	"strings"
	"testing"
)

func TestExtractSongPlainBlankLines(t *testing.T) {
	body := "Way Maker\r\n\r\nYou are here, moving in our midst\r\nI worship You\r\n\r\nYou are Way Maker, Miracle Worker"
	song, err := ExtractSong(body, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if song.Title != "Way Maker" {
		t.Errorf("Expected title Way Maker, got %q", song.Title)
	}
	if song.Status != SongExact {
		t.Errorf("Expected exact status, got %s", song.Status)
	}
	if len(song.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(song.Sections))
	}
	if song.Sections[0].Text != "You are here, moving in our midst\nI worship You" {
		t.Errorf("Unexpected first section: %q", song.Sections[0].Text)
	}
	if song.Sections[0].Kind != KindParagraph {
		t.Errorf("Expected paragraph kind, got %s", song.Sections[0].Kind)
	}
}

func TestExtractSongWhitespaceOnlySeparatorLines(t *testing.T) {
	body := "Way Maker\n   \nYou are here, moving in our midst\nI worship You\n \nYou are Way Maker, Miracle Worker"
	song, err := ExtractSong(body, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if song.Status != SongExact {
		t.Errorf("Separator lines with spaces must stay blank-line splits, got %s", song.Status)
	}
	if song.Title != "Way Maker" {
		t.Errorf("Expected title Way Maker, got %q", song.Title)
	}
	if len(song.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(song.Sections))
	}
	if song.Sections[1].Text != "You are Way Maker, Miracle Worker" {
		t.Errorf("Unexpected second section: %q", song.Sections[1].Text)
	}
}

func TestExtractSongRichBody(t *testing.T) {
	body := `<div>Goodness of God</div><div><br></div><div>I love You Lord</div><div>Oh Your mercy never fails me</div><div><br></div><div>All my days</div>`
	song, err := ExtractSong(body, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if song.Title != "Goodness of God" {
		t.Errorf("Expected title Goodness of God, got %q", song.Title)
	}
	if song.Status != SongExact {
		t.Errorf("Rich body with clear breaks must not reach the heuristic stage, got %s", song.Status)
	}
	if len(song.Sections) < 1 {
		t.Fatal("Expected at least one section")
	}
}

func TestExtractSongHeuristicAnchors(t *testing.T) {
	body := "Build My Life worship song lyrics\nWorthy of every song we could ever sing\nWorthy of all the praise we could ever bring\nChorus\nHoly there is no one like You\nThere is none beside You"
	song, err := ExtractSong(body, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if song.Status != SongHeuristic {
		t.Errorf("Expected heuristic status, got %s", song.Status)
	}
	if song.Title != "Build My Life worship song" {
		t.Errorf("Expected first words as title, got %q", song.Title)
	}
	if len(song.Sections) != 2 {
		t.Fatalf("Expected 2 anchor-partitioned sections, got %d", len(song.Sections))
	}
	if !strings.HasPrefix(song.Sections[1].Text, "Chorus") {
		t.Errorf("Expected second section to start at anchor, got %q", song.Sections[1].Text)
	}
}

func TestExtractSongHeuristicChunking(t *testing.T) {
	lines := []string{
		"Ten Thousand Reasons bless the Lord",
		"line one of lyrics here",
		"line two of lyrics here",
		"line three of lyrics here",
		"line four of lyrics here",
		"line five of lyrics here",
	}
	song, err := ExtractSong(strings.Join(lines, "\n"), false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if song.Status != SongHeuristic {
		t.Errorf("Expected heuristic status, got %s", song.Status)
	}
	if song.Title == "" {
		t.Error("Expected non-empty title from heuristic stage")
	}
	if len(song.Sections) < 1 {
		t.Error("Expected at least one chunked section")
	}
}

func TestExtractSongFailsWithoutStructure(t *testing.T) {
	_, err := ExtractSong("too short", false)
	if err == nil {
		t.Fatal("Expected ParseError for unusable body")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("Expected *ParseError, got %T", err)
	}

	if _, err := ExtractSong("", false); err == nil {
		t.Error("Expected error for empty body")
	}
}
