package deck

import (
	"fmt"
	"strings"
)

// fakeUnit is an in-memory Unit for tests.
type fakeUnit struct {
	id       string
	text     string
	height   float64
	fontSize float64
}

func (u *fakeUnit) ID() string                  { return u.id }
func (u *fakeUnit) Text() string                { return u.text }
func (u *fakeUnit) SetText(text string) error   { u.text = text; return nil }
func (u *fakeUnit) Height() float64             { return u.height }
func (u *fakeUnit) SetFontSize(p float64) error { u.fontSize = p; return nil }

// fakeDeck is an in-memory Deck with insert-at-index duplication.
type fakeDeck struct {
	units []*fakeUnit
	seq   int
}

func (d *fakeDeck) Units() ([]Unit, error) {
	out := make([]Unit, len(d.units))
	for i, u := range d.units {
		out[i] = u
	}
	return out, nil
}

func (d *fakeDeck) DuplicateUnit(anchor Unit, index int) (Unit, error) {
	src, ok := anchor.(*fakeUnit)
	if !ok {
		return nil, fmt.Errorf("foreign unit %s", anchor.ID())
	}
	d.seq++
	dup := &fakeUnit{
		id:     fmt.Sprintf("%s-copy%d", src.id, d.seq),
		text:   src.text,
		height: src.height,
	}
	if index < 0 || index > len(d.units) {
		index = len(d.units)
	}
	d.units = append(d.units, nil)
	copy(d.units[index+1:], d.units[index:])
	d.units[index] = dup
	return dup, nil
}

func (d *fakeDeck) ReplaceText(marker, text string) (int, error) {
	count := 0
	for _, u := range d.units {
		if strings.Contains(u.text, marker) {
			u.text = strings.ReplaceAll(u.text, marker, text)
			count++
		}
	}
	return count, nil
}
