package deck

import (
	"fmt"
	"log"
	"regexp"

	"github.com/prasanthmj/servicedeck/pkg/extract"
)

var (
	refrainLabelRe = regexp.MustCompile(`(?i)\brefrain\b`)
	trailingNumRe  = regexp.MustCompile(`^\d+$`)
)

// Assignment pairs one output unit with the content block it displays.
type Assignment struct {
	Unit  Unit
	Block extract.ContentBlock
}

// ExpansionPlan is the ordered list of unit/block pairs produced by Expand.
// Its order always matches input block order.
type ExpansionPlan []Assignment

// Interleave builds the display block order for a hymn: after each verse
// except the last, a copy of the refrain is inserted when one exists. The
// refrain's "Refrain" label is bracketed for display.
func Interleave(doc extract.HymnDocument) []extract.ContentBlock {
	var blocks []extract.ContentBlock

	var refrain *extract.ContentBlock
	if doc.Refrain != nil {
		r := *doc.Refrain
		r.Text = refrainLabelRe.ReplaceAllString(r.Text, "[Refrain]")
		refrain = &r
	}

	for i, v := range doc.Verses {
		blocks = append(blocks, v)
		if refrain != nil && i < len(doc.Verses)-1 {
			blocks = append(blocks, *refrain)
		}
	}

	for i := range blocks {
		blocks[i].Order = i
	}
	return blocks
}

// Expand turns the anchor unit carrying the marker into one unit per
// content block. Blocks are assigned in forward order: the anchor takes the
// first block and each subsequent block goes into a fresh duplicate
// inserted at the next position, so the physical unit order always equals
// block order. Each unit is autofit against its own container height; a
// unit with no resolvable text region skips autofit only.
//
// A missing anchor aborts the whole expansion with a TemplateError.
func Expand(d Deck, marker string, blocks []extract.ContentBlock, cfg AutofitConfig) (ExpansionPlan, error) {
	// A stray page number surviving extraction must not become a slide
	if n := len(blocks); n > 0 && trailingNumRe.MatchString(blocks[n-1].Text) {
		blocks = blocks[:n-1]
	}

	anchor, anchorIndex, err := FindAnchor(d, marker)
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		// Nothing to show: blank the marker and leave the single unit
		if err := anchor.SetText(""); err != nil {
			return nil, fmt.Errorf("failed to clear anchor %s: %w", anchor.ID(), err)
		}
		return ExpansionPlan{}, nil
	}

	units := []Unit{anchor}
	for i := 1; i < len(blocks); i++ {
		u, err := d.DuplicateUnit(anchor, anchorIndex+i)
		if err != nil {
			return nil, fmt.Errorf("failed to duplicate anchor %s: %w", anchor.ID(), err)
		}
		units = append(units, u)
	}

	plan := make(ExpansionPlan, 0, len(blocks))
	for i, block := range blocks {
		u := units[i]
		if err := u.SetText(block.Text); err != nil {
			return nil, fmt.Errorf("failed to set text on unit %s: %w", u.ID(), err)
		}

		if u.Height() <= 0 {
			log.Printf("unit %s has no resolvable text region, skipping autofit", u.ID())
		} else {
			size := FitFontSize(block.Text, u.Height(), cfg)
			if err := u.SetFontSize(size); err != nil {
				log.Printf("failed to set font size on unit %s: %v", u.ID(), err)
			}
		}

		plan = append(plan, Assignment{Unit: u, Block: block})
	}

	return plan, nil
}
