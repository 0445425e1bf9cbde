package extract

import "testing"

const hymnPage = `<html><head><title>Hymn 202</title></head><body>
<h1 class="hymn-title main">Amazing&nbsp;Grace</h1>
<table class="lyrics">
<tr><td>
<p>Amazing grace, how sweet the sound,<br>That saved a wretch like me.</p>
<p>Refrain:<br>Praise God, praise God,<br>Praise God evermore.</p>
<p>&#8217;Twas grace that taught my heart to fear,<br>And grace my fears relieved.</p>
<p>202</p>
</td></tr>
</table>
<table><tr><td><p>Second table is ignored</p></td></tr></table>
</body></html>`

func TestExtractHymn(t *testing.T) {
	doc, err := ExtractHymn(hymnPage)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if doc.Title != "Amazing Grace" {
		t.Errorf("Expected title Amazing Grace, got %q", doc.Title)
	}

	if len(doc.Verses) != 2 {
		t.Fatalf("Expected 2 verses, got %d", len(doc.Verses))
	}
	if doc.Verses[0].Text != "Amazing grace, how sweet the sound,\nThat saved a wretch like me." {
		t.Errorf("Unexpected first verse: %q", doc.Verses[0].Text)
	}
	if doc.Verses[1].Text != "’Twas grace that taught my heart to fear,\nAnd grace my fears relieved." {
		t.Errorf("Unexpected second verse: %q", doc.Verses[1].Text)
	}

	if doc.Refrain == nil {
		t.Fatal("Expected refrain to be set")
	}
	if doc.Refrain.Kind != KindRefrain {
		t.Errorf("Expected refrain kind, got %s", doc.Refrain.Kind)
	}
	if doc.Refrain.Text != "Refrain:\nPraise God, praise God,\nPraise God evermore." {
		t.Errorf("Unexpected refrain text: %q", doc.Refrain.Text)
	}
}

func TestExtractHymnTrailingNumberDropped(t *testing.T) {
	doc, err := ExtractHymn(hymnPage)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, v := range doc.Verses {
		if v.Text == "202" {
			t.Error("Trailing page-number verse survived extraction")
		}
	}
}

func TestExtractHymnLastRefrainWins(t *testing.T) {
	page := `<h1 class="hymn-title">Two Refrains</h1><table>
<p>Verse one</p>
<p>Refrain: first chorus</p>
<p>Verse two</p>
<p>Refrain: second chorus</p>
</table>`
	doc, err := ExtractHymn(page)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc.Refrain == nil {
		t.Fatal("Expected refrain to be set")
	}
	if doc.Refrain.Text != "Refrain: second chorus" {
		t.Errorf("Expected last refrain to win, got %q", doc.Refrain.Text)
	}
	if len(doc.Verses) != 2 {
		t.Errorf("Expected 2 verses, got %d", len(doc.Verses))
	}
}

func TestExtractHymnMissingTable(t *testing.T) {
	doc, err := ExtractHymn(`<h1 class="hymn-title">Orphan Title</h1><p>no table here</p>`)
	if err == nil {
		t.Error("Expected ParseError for missing lyric table")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("Expected *ParseError, got %T", err)
	}
	if doc.Title != "Orphan Title" {
		t.Errorf("Expected best-effort title, got %q", doc.Title)
	}
	if len(doc.Verses) != 0 || doc.Refrain != nil {
		t.Error("Expected empty document on missing table")
	}
}

func TestExtractHymnFallbackTitle(t *testing.T) {
	doc, _ := ExtractHymn(`<h1 class="page-header">Not the semantic class</h1><table><p>v1</p><p>v2</p></table>`)
	if doc.Title != FallbackHymnTitle {
		t.Errorf("Expected fallback title, got %q", doc.Title)
	}
}

func TestExtractHymnSkipsEmptyBlocks(t *testing.T) {
	doc, err := ExtractHymn(`<table><p>   </p><p>real verse</p><p><em></em></p></table>`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(doc.Verses) != 1 {
		t.Fatalf("Expected 1 verse, got %d", len(doc.Verses))
	}
	if doc.Verses[0].Text != "real verse" {
		t.Errorf("Unexpected verse: %q", doc.Verses[0].Text)
	}
}
