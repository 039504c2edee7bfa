package interaction

import (
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// gesture is created on pointer-down and dropped on commit or cancel.
type gesture struct {
	state    State
	page     int
	tool     Tool
	targetID string

	// start is the pointer position at pointer-down, in page units.
	start overlay.Point
	path  []overlay.Point

	// origin is the item position at pointer-down.
	origin     overlay.Point
	startWidth float64
	aspect     float64
	autoHeight bool

	image   overlay.PlacedImage
	comment overlay.CommentPin
	moved   bool
}

func (g *gesture) appendPoint(p overlay.Point) {
	g.path = append(g.path, p)
}

func (g *gesture) livePath() []overlay.Point {
	return append([]overlay.Point(nil), g.path...)
}

func (g *gesture) drag(p overlay.Point) (dx, dy float64) {
	dx, dy = p.X-g.start.X, p.Y-g.start.Y
	if dx != 0 || dy != 0 {
		g.moved = true
	}
	return dx, dy
}

// resize recomputes the image size from the horizontal delta, holding the
// aspect ratio captured at pointer-down.
func (g *gesture) resize(p overlay.Point) {
	dx, _ := g.drag(p)
	width := max(g.startWidth+dx, overlay.MinImageWidth)
	g.image.Width = width
	if g.autoHeight {
		g.image.Height = overlay.HeightAuto
	} else {
		g.image.Height = width * g.aspect
	}
}
