package deck

import "strings"

// AutofitConfig bounds the sizer. LineSpacing is the multiplier applied to
// the font size per line of text.
type AutofitConfig struct {
	MinFontSize     float64
	DefaultFontSize float64
	LineSpacing     float64
}

// FitFontSize returns the largest font size, between cfg.MinFontSize and
// cfg.DefaultFontSize, whose estimated text height fits the container
// height. Height is estimated as size x spacing x line count; there is no
// access to rendered glyph metrics and no wrap simulation, so this is an
// intentional approximation. The minimum size is accepted even when the
// estimate still overflows.
func FitFontSize(text string, containerHeight float64, cfg AutofitConfig) float64 {
	lines := float64(lineCount(text))
	size := cfg.DefaultFontSize
	for size > cfg.MinFontSize && size*cfg.LineSpacing*lines > containerHeight {
		size--
	}
	if size < cfg.MinFontSize {
		size = cfg.MinFontSize
	}
	return size
}

func lineCount(text string) int {
	if text == "" {
		return 1
	}
	return strings.Count(text, "\n") + 1
}
