package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prasanthmj/servicedeck/pkg/htmlutil"
)

var (
	passageOpenRe = regexp.MustCompile(`(?i)<div\b[^>]*class="[^"]*passage-text[^"]*"[^>]*>`)
	divTagRe      = regexp.MustCompile(`(?is)<(/?)div\b[^>]*>`)
	verseNumRe    = regexp.MustCompile(`(?is)<sup\b[^>]*class="[^"]*versenum[^"]*"[^>]*>(.*?)</sup\s*>`)
	superscriptRe = regexp.MustCompile(`(?is)<sup\b[^>]*>.*?</sup\s*>`)
	citationRe    = regexp.MustCompile(`\([A-Z]\)`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// ExtractScripture parses one passage query result into a ScripturePassage.
// Verse-number markers are protected with positional tokens before the
// markup strip and restored afterwards, so the count and left-to-right order
// of verse numbers always survive cleaning. A missing passage container
// yields an empty body alongside a ParseError.
func ExtractScripture(page, referenceLabel string) (ScripturePassage, error) {
	passage := ScripturePassage{ReferenceLabel: referenceLabel}

	loc := passageOpenRe.FindStringIndex(page)
	if loc == nil {
		return passage, &ParseError{Source: "scripture", Marker: "passage container"}
	}

	body := passageSlice(page[loc[1]:])

	// Protect verse numbers: each marker becomes a unique positional token,
	// its decoded inner text recorded in detection order.
	var numbers []string
	body = verseNumRe.ReplaceAllStringFunc(body, func(m string) string {
		inner := verseNumRe.FindStringSubmatch(m)[1]
		num := strings.TrimSpace(htmlutil.DecodeEntities(htmlutil.StripTags(inner)))
		numbers = append(numbers, num)
		return verseToken(len(numbers) - 1)
	})

	// Footnote and cross-reference superscripts carry no passage text
	body = superscriptRe.ReplaceAllString(body, "")
	body = htmlutil.StripTags(body)
	body = citationRe.ReplaceAllString(body, "")
	body = whitespaceRe.ReplaceAllString(body, " ")
	body = htmlutil.DecodeEntities(body)

	// Restore verse numbers in the same left-to-right order they were found
	for i, num := range numbers {
		body = strings.Replace(body, verseToken(i), num+" ", 1)
	}

	passage.Body = strings.TrimSpace(body)
	return passage, nil
}

// passageSlice returns the container's contents, found by walking div
// open/close tags until the nesting count returns to zero. Passages nest
// further containers, so cutting at the first generic close tag would
// truncate the text.
func passageSlice(s string) string {
	depth := 1
	for _, m := range divTagRe.FindAllStringSubmatchIndex(s, -1) {
		if m[3] > m[2] { // closing tag
			depth--
		} else {
			depth++
		}
		if depth == 0 {
			return s[:m[0]]
		}
	}
	// Unbalanced markup: take everything that is left
	return s
}

func verseToken(i int) string {
	return fmt.Sprintf("\x00V%d\x00", i)
}
