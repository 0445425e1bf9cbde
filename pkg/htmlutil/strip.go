package htmlutil

import (
	"regexp"
	"strings"
)

var (
	anchorRe    = regexp.MustCompile(`(?is)<a\b[^>]*>.*?</a\s*>`)
	lineBreakRe = regexp.MustCompile(`(?i)<br\s*/?\s*>`)
	spaceRunRe  = regexp.MustCompile(`[ \t]+`)
	blankLineRe = regexp.MustCompile(`\n\s*\n+`)
)

// StripTags removes markup from an HTML fragment: anchor elements go away
// entirely (link text included), line-break elements become a newline, and
// every remaining tag is dropped. Malformed tags are stripped through the
// next '>'; a trailing unclosed tag is dropped to the end of the input.
func StripTags(fragment string) string {
	s := anchorRe.ReplaceAllString(fragment, "")
	s = lineBreakRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(dropTags(s))
}

// ReplaceLineBreaks substitutes line-break elements with the given token.
// Extractors use a placeholder token here so later whitespace collapsing
// cannot merge deliberate breaks, then swap the token for real newlines.
func ReplaceLineBreaks(s, token string) string {
	return lineBreakRe.ReplaceAllString(s, token)
}

// dropTags removes every <...> span from s.
func dropTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for {
		open := strings.IndexByte(s, '<')
		if open < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:open])

		end := strings.IndexByte(s[open:], '>')
		if end < 0 {
			// Unclosed tag runs to the end of input
			break
		}
		s = s[open+end+1:]
	}

	return b.String()
}

// CollapseSpaces reduces runs of spaces and tabs to a single space and trims
// each line.
func CollapseSpaces(s string) string {
	s = spaceRunRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// CollapseBlankLines folds runs of blank lines into a single newline and
// trims the result.
func CollapseBlankLines(s string) string {
	return strings.TrimSpace(blankLineRe.ReplaceAllString(s, "\n"))
}
