package deck

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"

	"github.com/prasanthmj/servicedeck/pkg/googleauth"
)

const emuPerPoint = 12700

// GoogleDeck implements Deck over a Google Slides presentation. Each slide
// is one unit; its container is the first text-bearing shape on the slide.
type GoogleDeck struct {
	svc            *slides.Service
	presentationID string
	dupSeq         int
}

// NewGoogleDeck opens an existing presentation.
func NewGoogleDeck(ctx context.Context, credentialsFile, presentationID string) (*GoogleDeck, error) {
	ts, err := googleauth.TokenSource(ctx, credentialsFile, slides.PresentationsScope)
	if err != nil {
		return nil, err
	}
	svc, err := slides.NewService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to create slides service: %w", err)
	}
	return &GoogleDeck{svc: svc, presentationID: presentationID}, nil
}

// CopyTemplate copies the template presentation under a new name and
// returns the copy's presentation ID. The run works on the copy; the
// template is never written to.
func CopyTemplate(ctx context.Context, credentialsFile, templateID, name string) (string, error) {
	ts, err := googleauth.TokenSource(ctx, credentialsFile, drive.DriveFileScope)
	if err != nil {
		return "", err
	}
	svc, err := drive.NewService(ctx, ts)
	if err != nil {
		return "", fmt.Errorf("failed to create drive service: %w", err)
	}

	f, err := svc.Files.Copy(templateID, &drive.File{Name: name}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to copy template %s: %w", templateID, err)
	}
	return f.Id, nil
}

// Units returns one unit per slide, in presentation order. Slides without a
// text shape still appear, with an unresolvable (zero-height) container.
func (d *GoogleDeck) Units() ([]Unit, error) {
	p, err := d.svc.Presentations.Get(d.presentationID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation: %w", err)
	}

	var units []Unit
	for _, slide := range p.Slides {
		u := &googleUnit{deck: d, slideID: slide.ObjectId}
		if shape := firstTextShape(slide); shape != nil {
			u.shapeID = shape.ObjectId
			u.text = shapeText(shape)
			u.height = shapeHeightPt(shape)
		}
		units = append(units, u)
	}
	return units, nil
}

// DuplicateUnit copies the anchor slide and moves the copy to the given
// position. The platform duplicate lands right after the source slide, so
// the copy is repositioned in the same batch to give callers plain
// insert-at-index semantics.
func (d *GoogleDeck) DuplicateUnit(anchor Unit, index int) (Unit, error) {
	src, ok := anchor.(*googleUnit)
	if !ok {
		return nil, fmt.Errorf("unit %s does not belong to this deck", anchor.ID())
	}

	d.dupSeq++
	newSlideID := fmt.Sprintf("%s_copy_%d", src.slideID, d.dupSeq)
	ids := map[string]string{src.slideID: newSlideID}
	newShapeID := ""
	if src.shapeID != "" {
		newShapeID = fmt.Sprintf("%s_copy_%d", src.shapeID, d.dupSeq)
		ids[src.shapeID] = newShapeID
	}

	reqs := []*slides.Request{
		{
			DuplicateObject: &slides.DuplicateObjectRequest{
				ObjectId:  src.slideID,
				ObjectIds: ids,
			},
		},
		{
			UpdateSlidesPosition: &slides.UpdateSlidesPositionRequest{
				SlideObjectIds:  []string{newSlideID},
				InsertionIndex:  duplicateInsertionIndex(index),
				ForceSendFields: []string{"InsertionIndex"},
			},
		},
	}
	if err := d.batchUpdate(reqs); err != nil {
		return nil, fmt.Errorf("failed to duplicate slide %s: %w", src.slideID, err)
	}

	return &googleUnit{
		deck:    d,
		slideID: newSlideID,
		shapeID: newShapeID,
		text:    src.text,
		height:  src.height,
	}, nil
}

// ReplaceText substitutes every occurrence of the marker across the deck.
func (d *GoogleDeck) ReplaceText(marker, text string) (int, error) {
	req := &slides.Request{
		ReplaceAllText: &slides.ReplaceAllTextRequest{
			ContainsText: &slides.SubstringMatchCriteria{Text: marker, MatchCase: true},
			ReplaceText:  text,
		},
	}
	resp, err := d.svc.Presentations.BatchUpdate(d.presentationID, &slides.BatchUpdatePresentationRequest{
		Requests: []*slides.Request{req},
	}).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to replace marker %q: %w", marker, err)
	}

	count := 0
	for _, r := range resp.Replies {
		if r.ReplaceAllText != nil {
			count += int(r.ReplaceAllText.OccurrencesChanged)
		}
	}
	return count, nil
}

// duplicateInsertionIndex converts a target position into the insertion
// index UpdateSlidesPosition expects. The API counts positions in the
// arrangement before the moved slide is removed from its current one, and
// a fresh duplicate always sits at or before its target, so the move needs
// one position extra.
func duplicateInsertionIndex(target int) int64 {
	return int64(target) + 1
}

func (d *GoogleDeck) batchUpdate(reqs []*slides.Request) error {
	_, err := d.svc.Presentations.BatchUpdate(d.presentationID, &slides.BatchUpdatePresentationRequest{
		Requests: reqs,
	}).Do()
	return err
}

// googleUnit is one slide plus its text container.
type googleUnit struct {
	deck    *GoogleDeck
	slideID string
	shapeID string
	text    string
	height  float64
}

func (u *googleUnit) ID() string   { return u.slideID }
func (u *googleUnit) Text() string { return u.text }

func (u *googleUnit) SetText(text string) error {
	if u.shapeID == "" {
		return fmt.Errorf("slide %s has no text shape", u.slideID)
	}

	var reqs []*slides.Request
	if u.text != "" {
		reqs = append(reqs, &slides.Request{
			DeleteText: &slides.DeleteTextRequest{
				ObjectId:  u.shapeID,
				TextRange: &slides.Range{Type: "ALL"},
			},
		})
	}
	if text != "" {
		reqs = append(reqs, &slides.Request{
			InsertText: &slides.InsertTextRequest{
				ObjectId:       u.shapeID,
				Text:           text,
				InsertionIndex: 0,
			},
		})
	}
	if len(reqs) == 0 {
		return nil
	}

	if err := u.deck.batchUpdate(reqs); err != nil {
		return fmt.Errorf("failed to set text on slide %s: %w", u.slideID, err)
	}
	u.text = text
	return nil
}

func (u *googleUnit) Height() float64 {
	if u.shapeID == "" {
		return 0
	}
	return u.height
}

func (u *googleUnit) SetFontSize(points float64) error {
	if u.shapeID == "" {
		return fmt.Errorf("slide %s has no text shape", u.slideID)
	}

	req := &slides.Request{
		UpdateTextStyle: &slides.UpdateTextStyleRequest{
			ObjectId:  u.shapeID,
			Style:     &slides.TextStyle{FontSize: &slides.Dimension{Magnitude: points, Unit: "PT"}},
			TextRange: &slides.Range{Type: "ALL"},
			Fields:    "fontSize",
		},
	}
	if err := u.deck.batchUpdate([]*slides.Request{req}); err != nil {
		return fmt.Errorf("failed to set font size on slide %s: %w", u.slideID, err)
	}
	return nil
}

// firstTextShape returns the first shape on the slide that carries text.
func firstTextShape(slide *slides.Page) *slides.PageElement {
	for _, pe := range slide.PageElements {
		if pe.Shape != nil && pe.Shape.Text != nil && shapeText(pe) != "" {
			return pe
		}
	}
	// Fall back to any shape that can hold text
	for _, pe := range slide.PageElements {
		if pe.Shape != nil {
			return pe
		}
	}
	return nil
}

func shapeText(pe *slides.PageElement) string {
	if pe.Shape == nil || pe.Shape.Text == nil {
		return ""
	}
	var b strings.Builder
	for _, te := range pe.Shape.Text.TextElements {
		if te.TextRun != nil {
			b.WriteString(te.TextRun.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func shapeHeightPt(pe *slides.PageElement) float64 {
	if pe.Size == nil || pe.Size.Height == nil {
		return 0
	}
	h := pe.Size.Height.Magnitude
	if pe.Size.Height.Unit == "EMU" {
		h /= emuPerPoint
	}
	return h
}
