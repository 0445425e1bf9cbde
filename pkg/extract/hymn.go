package extract

import (
	"regexp"
	"strings"

	"github.com/prasanthmj/servicedeck/pkg/htmlutil"
)

// FallbackHymnTitle is used when a hymn page carries no recognizable title
// heading. A missing title is a recoverable default, never an error.
const FallbackHymnTitle = "Untitled Hymn"

// brPlaceholder protects deliberate line breaks through whitespace
// normalization; it contains no whitespace and no markup characters.
const brPlaceholder = "\x00BR\x00"

var (
	hymnTableRe = regexp.MustCompile(`(?is)<table\b[^>]*>(.*?)</table\s*>`)
	hymnParaRe  = regexp.MustCompile(`(?is)<p\b[^>]*>(.*?)</p\s*>`)
	hymnTitleRe = regexp.MustCompile(`(?is)<h1\b[^>]*class="[^"]*hymn-title[^"]*"[^>]*>(.*?)</h1\s*>`)
	refrainWord = regexp.MustCompile(`(?i)\brefrain\b`)
	digitsOnly  = regexp.MustCompile(`^\d+$`)
)

// ExtractHymn parses one hymn page into a HymnDocument. The lyric region is
// the first table element; each paragraph inside it becomes a verse, except
// blocks containing the word "refrain", which become the document's refrain
// (last such block wins). A trailing digits-only verse is a pagination
// artifact and is dropped.
//
// ExtractHymn never fails hard: when the lyric region is missing it returns
// an empty document with a best-effort title alongside a ParseError.
func ExtractHymn(page string) (HymnDocument, error) {
	doc := HymnDocument{Title: extractHymnTitle(page)}

	m := hymnTableRe.FindStringSubmatch(page)
	if m == nil {
		return doc, &ParseError{Source: "hymn", Marker: "lyric table"}
	}

	order := 0
	for _, pm := range hymnParaRe.FindAllStringSubmatch(m[1], -1) {
		text := cleanHymnBlock(pm[1])
		if text == "" {
			continue
		}
		if refrainWord.MatchString(text) {
			// Last refrain-like block wins
			doc.Refrain = &ContentBlock{Kind: KindRefrain, Text: text, Order: order}
			order++
			continue
		}
		doc.Verses = append(doc.Verses, ContentBlock{Kind: KindVerse, Text: text, Order: order})
		order++
	}

	// A trailing digits-only verse is the page number bleeding into the table
	if n := len(doc.Verses); n > 0 && digitsOnly.MatchString(doc.Verses[n-1].Text) {
		doc.Verses = doc.Verses[:n-1]
	}

	return doc, nil
}

// cleanHymnBlock turns one paragraph's inner markup into final block text.
// Line breaks are swapped for a placeholder before stripping so whitespace
// collapsing cannot merge them, then restored as real newlines.
func cleanHymnBlock(inner string) string {
	s := htmlutil.ReplaceLineBreaks(inner, brPlaceholder)
	s = htmlutil.StripTags(s)
	s = htmlutil.DecodeEntities(s)
	s = strings.ReplaceAll(s, brPlaceholder, "\n")
	s = htmlutil.CollapseSpaces(s)
	return htmlutil.CollapseBlankLines(s)
}

func extractHymnTitle(page string) string {
	m := hymnTitleRe.FindStringSubmatch(page)
	if m == nil {
		return FallbackHymnTitle
	}
	title := strings.TrimSpace(htmlutil.DecodeEntities(htmlutil.StripTags(m[1])))
	if title == "" {
		return FallbackHymnTitle
	}
	return title
}
