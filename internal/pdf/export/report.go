package export

import (
	"fmt"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// Report summarizes an export.
type Report struct {
	Pages    int `json:"pages"`
	Strokes  int `json:"strokes"`
	Images   int `json:"images"`
	Comments int `json:"comments"`

	// Skipped holds one PartialExport error per item that was not written.
	Skipped *pdferrors.Collection `json:"-"`
}

func newReport(pages int) *Report {
	return &Report{Pages: pages, Skipped: pdferrors.NewCollection()}
}

func (r *Report) add(page int, itemID, kind string, err error) {
	r.Skipped.Add(pdferrors.PartialExport("export "+kind, page, itemID, err))
}

// skipPage records every item of a page that cannot be written at all.
func (r *Report) skipPage(b *overlay.Bundle, page int) {
	cause := fmt.Errorf("%w: %d", overlay.ErrInvalidPage, page)
	for _, s := range b.StrokesByPage[page] {
		r.add(page, s.ID, "stroke", cause)
	}
	for _, img := range b.ImagesByPage[page] {
		r.add(page, img.ID, "image", cause)
	}
	for _, c := range b.Comments {
		if c.PageNumber == page {
			r.add(page, c.ID, "comment", cause)
		}
	}
}

// Complete reports whether every item was written.
func (r *Report) Complete() bool {
	return r.Skipped.Len() == 0
}

// Summary is a one-line human readable account.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d page(s): %d stroke(s), %d image(s), %d comment(s) written; %s",
		r.Pages, r.Strokes, r.Images, r.Comments, r.Skipped.Summary())
}
