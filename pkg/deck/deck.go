// Package deck models the output presentation as a narrow container
// abstraction, so the expansion and sizing logic never depends on the
// concrete slide platform.
package deck

import (
	"fmt"
	"strings"
)

// Unit is one output slide's text container: current text, a fixed display
// height, and a settable font size.
type Unit interface {
	// ID identifies the unit within its deck.
	ID() string
	// Text returns the container's current text.
	Text() string
	// SetText replaces the container's text.
	SetText(text string) error
	// Height returns the container's fixed display height in points.
	// A non-positive height means the unit has no resolvable text region.
	Height() float64
	// SetFontSize applies a uniform font size to the container's text.
	SetFontSize(points float64) error
}

// Deck is the working presentation.
type Deck interface {
	// Units returns every unit in physical order.
	Units() ([]Unit, error)
	// DuplicateUnit copies the anchor, pre-populated with its current
	// text, and inserts the copy at the given position. Explicit
	// insert-at-index keeps expansion in forward block order without
	// re-locating the anchor after every copy.
	DuplicateUnit(anchor Unit, index int) (Unit, error)
	// ReplaceText performs deck-wide literal substring replacement of a
	// marker token, returning the number of units touched.
	ReplaceText(marker, text string) (int, error)
}

// TemplateError reports that a required anchor unit is absent from the
// working document. On a controlling anchor the run is unusable and aborts;
// on a leaf replacement marker callers log and skip.
type TemplateError struct {
	Marker string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template: no unit contains marker %q", e.Marker)
}

// FindAnchor locates the unit whose text contains the marker token, along
// with its physical index in the deck.
func FindAnchor(d Deck, marker string) (Unit, int, error) {
	units, err := d.Units()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan deck: %w", err)
	}
	for i, u := range units {
		if marker != "" && strings.Contains(u.Text(), marker) {
			return u, i, nil
		}
	}
	return nil, 0, &TemplateError{Marker: marker}
}
