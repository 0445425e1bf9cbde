package htmlutil

import (
	"strconv"
	"strings"
)

// namedEntities is the small set of named references the source pages
// actually use. Anything else is left verbatim.
var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": "\"",
	"apos": "'",
	"nbsp": " ",
}

// maxEntityLen bounds the scan for a terminating semicolon so a bare
// ampersand in prose never swallows the rest of the line.
const maxEntityLen = 12

// DecodeEntities replaces numeric character references (&#NNN; and &#xHHHH;)
// and the common named references with their literal characters. The scan is
// a single left-to-right pass, so already-decoded text passes through
// unchanged and a literal ampersand is never decoded twice.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i:min(len(s), i+maxEntityLen)], ';')
		if end <= 1 {
			// No reference here, keep the ampersand as-is
			b.WriteByte('&')
			i++
			continue
		}

		ref := s[i+1 : i+end] // between & and ;
		if decoded, ok := decodeRef(ref); ok {
			b.WriteString(decoded)
			i += end + 1
			continue
		}

		// Unrecognized reference stays verbatim
		b.WriteByte('&')
		i++
	}

	return b.String()
}

// decodeRef decodes the body of a single reference (without & and ;).
func decodeRef(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}

	if ref[0] == '#' {
		num := ref[1:]
		base := 10
		if len(num) > 1 && (num[0] == 'x' || num[0] == 'X') {
			num = num[1:]
			base = 16
		}
		n, err := strconv.ParseInt(num, base, 32)
		if err != nil || n <= 0 {
			return "", false
		}
		return string(rune(n)), true
	}

	if lit, ok := namedEntities[ref]; ok {
		return lit, true
	}
	return "", false
}
