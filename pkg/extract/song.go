package extract

import (
	"regexp"
	"strings"

	"github.com/k3a/html2text"

	"github.com/prasanthmj/servicedeck/pkg/htmlutil"
)

// Heuristic regrouping constants. These encode patterns observed in the
// song emails this system actually receives; the stage is best effort by
// nature and is reported as such through SongStatus.
const (
	titleWordCount = 5 // leading words taken as the title
	chunkLineCount = 4 // lines per section when no anchor phrase matches
)

// sectionAnchors are exact phrases that start a new section when the
// heuristic stage has to partition an unbroken body.
var sectionAnchors = []string{
	"Chorus",
	"Verse 2",
	"Verse 3",
	"Bridge",
}

// ExtractSong segments an email body into a titled, ordered list of lyric
// paragraphs. The stages form a fallback chain: structural rendering for
// rich bodies, blank-line splitting, then heuristic regrouping. A later
// stage only runs when the previous one yielded fewer than two non-empty
// sections. When no stage produces a title, extraction fails and the caller
// treats the song feature as absent for the run.
func ExtractSong(body string, rich bool) (*EmailSong, error) {
	text := strings.ReplaceAll(body, "\r\n", "\n")
	if rich {
		text = renderRichBody(text)
	}

	status := SongExact
	groups := splitOnBlankLines(text)
	if len(groups) < 2 {
		groups = regroupHeuristically(text)
		status = SongHeuristic
	}

	if len(groups) < 2 || groups[0] == "" {
		return nil, &ParseError{Source: "song", Marker: "title section"}
	}

	song := &EmailSong{Title: groups[0], Status: status}
	for i, g := range groups[1:] {
		song.Sections = append(song.Sections, ContentBlock{
			Kind:  KindParagraph,
			Text:  g,
			Order: i,
		})
	}
	return song, nil
}

// renderRichBody converts a rich body to text, keeping paragraph breaks.
// Block-level container transitions and double line breaks come out of the
// renderer as blank lines; single breaks stay line boundaries within a
// paragraph.
func renderRichBody(body string) string {
	text := html2text.HTML2Text(body)
	text = htmlutil.DecodeEntities(text)

	// Cap consecutive blank lines at one so the blank-line stage sees
	// paragraph boundaries, not formatting noise
	lines := strings.Split(text, "\n")
	var result []string
	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank == 1 {
				result = append(result, "")
			}
			continue
		}
		blank = 0
		result = append(result, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(result, "\n"))
}

// blankSepRe matches a paragraph separator: a line break followed by a
// line holding nothing but spaces or tabs. Plain-text emails routinely
// carry trailing whitespace on their "blank" lines.
var blankSepRe = regexp.MustCompile(`\n[ \t]*\n`)

// splitOnBlankLines splits text into trimmed groups separated by blank
// lines, dropping empty groups.
func splitOnBlankLines(text string) []string {
	var groups []string
	for _, g := range blankSepRe.Split(text, -1) {
		g = strings.TrimSpace(g)
		if g != "" {
			groups = append(groups, htmlutil.CollapseBlankLines(g))
		}
	}
	return groups
}

// regroupHeuristically handles bodies with no usable paragraph structure:
// the first few words become the title and the remaining lines are
// partitioned on known anchor phrases, or chunked into fixed-size groups
// when no anchor appears.
func regroupHeuristically(text string) []string {
	words := strings.Fields(text)
	if len(words) <= titleWordCount {
		return nil
	}

	title := strings.Join(words[:titleWordCount], " ")
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), strings.Join(words[:titleWordCount], " ")))
	if rest == "" {
		// Title consumed words across line breaks; fall back to raw remainder
		rest = strings.Join(words[titleWordCount:], " ")
	}

	lines := nonEmptyLines(rest)
	if len(lines) == 0 {
		return nil
	}

	groups := splitOnAnchors(lines)
	if len(groups) < 2 {
		groups = chunkLines(lines, chunkLineCount)
	}

	return append([]string{title}, groups...)
}

// splitOnAnchors partitions lines into groups, starting a new group at each
// line equal to a known anchor phrase.
func splitOnAnchors(lines []string) []string {
	var groups []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range lines {
		if isAnchorLine(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return groups
}

func isAnchorLine(line string) bool {
	for _, a := range sectionAnchors {
		if strings.EqualFold(strings.TrimSpace(line), a) {
			return true
		}
	}
	return false
}

// chunkLines groups lines into sections of at most n lines each.
func chunkLines(lines []string, n int) []string {
	var groups []string
	for start := 0; start < len(lines); start += n {
		end := start + n
		if end > len(lines) {
			end = len(lines)
		}
		groups = append(groups, strings.Join(lines[start:end], "\n"))
	}
	return groups
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
