// Package render produces page frames for the viewer shell: the page area at
// a zoom scale with the overlay composited on top, plus the coordinate
// mapper that belongs to it.
package render

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Letter is the page size assumed when no MediaBox can be resolved.
var Letter = PageSize{Width: 612, Height: 792}

// maxParentDepth bounds the walk up the page tree for inherited attributes.
const maxParentDepth = 10

// PageSize is a page's MediaBox size in PDF points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the read-only page geometry of a parsed document.
type Viewport struct {
	sizes []PageSize
}

// OpenViewport parses data and records the size of every page.
func OpenViewport(data []byte) (vp *Viewport, err error) {
	defer func() {
		if r := recover(); r != nil {
			vp, err = nil, fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	n := reader.NumPage()
	if n < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	vp = &Viewport{sizes: make([]PageSize, n)}
	for i := 1; i <= n; i++ {
		vp.sizes[i-1] = pageSize(reader.Page(i))
	}
	return vp, nil
}

// PageCount returns the number of pages.
func (v *Viewport) PageCount() int {
	return len(v.sizes)
}

// PageSize returns the size of a 1-based page.
func (v *Viewport) PageSize(page int) (PageSize, error) {
	if page < 1 || page > len(v.sizes) {
		return PageSize{}, fmt.Errorf("page %d out of range [1, %d]", page, len(v.sizes))
	}
	return v.sizes[page-1], nil
}

// pageSize resolves the MediaBox of a page, walking up to inherited values
// and falling back to Letter.
func pageSize(page pdf.Page) (size PageSize) {
	defer func() {
		if r := recover(); r != nil {
			size = Letter
		}
	}()

	current := page.V
	for i := 0; i < maxParentDepth && !current.IsNull(); i++ {
		if box, ok := parseBox(current.Key("MediaBox")); ok {
			return box
		}
		current = current.Key("Parent")
	}
	return Letter
}

func parseBox(v pdf.Value) (PageSize, bool) {
	if v.IsNull() || v.Kind() != pdf.Array || v.Len() != 4 {
		return PageSize{}, false
	}
	var c [4]float64
	for i := range c {
		item := v.Index(i)
		switch item.Kind() {
		case pdf.Integer:
			c[i] = float64(item.Int64())
		case pdf.Real:
			c[i] = item.Float64()
		default:
			return PageSize{}, false
		}
	}
	w, h := c[2]-c[0], c[3]-c[1]
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	if w == 0 || h == 0 {
		return PageSize{}, false
	}
	return PageSize{Width: w, Height: h}, true
}
