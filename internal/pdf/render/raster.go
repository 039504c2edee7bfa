package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// Pin geometry and colors, in page units.
const pinSize = 20.0

var (
	paper       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	pinOpen     = color.NRGBA{R: 255, G: 204, B: 0, A: 255}
	pinResolved = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
)

// Frame is one rendered page.
type Frame struct {
	Page   int
	Scale  float64
	Size   PageSize
	Mapper geometry.Mapper
	Image  *image.RGBA
}

// PNG encodes the frame.
func (f *Frame) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Overlay is what gets composited on a page.
type Overlay struct {
	Strokes  []overlay.Stroke
	Images   []overlay.PlacedImage
	Comments []overlay.CommentPin
}

// NewCanvas allocates a paper-white canvas for a page at scale.
func NewCanvas(size PageSize, scale float64) *image.RGBA {
	w := int(math.Ceil(size.Width * scale))
	h := int(math.Ceil(size.Height * scale))
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(paper), image.Point{}, xdraw.Src)
	return img
}

// Composite draws the overlay onto dst, which is a canvas at m.Scale.
// Images draw first, then strokes, then comment pins, matching the layer
// order of the viewer. Images that fail to decode are skipped.
func Composite(dst *image.RGBA, m geometry.Mapper, ov Overlay) {
	for _, img := range ov.Images {
		drawImage(dst, m, img)
	}
	for _, s := range ov.Strokes {
		drawStroke(dst, m, s)
	}
	for _, c := range ov.Comments {
		drawPin(dst, m, c)
	}
}

func drawImage(dst *image.RGBA, m geometry.Mapper, pi overlay.PlacedImage) bool {
	src, _, err := image.Decode(bytes.NewReader(pi.Source))
	if err != nil {
		return false
	}
	b := src.Bounds()
	w, h := pi.ResolvedSize(float64(b.Dx()), float64(b.Dy()))
	tl := m.ToCanvas(overlay.Point{X: pi.X, Y: pi.Y})
	br := m.ToCanvas(overlay.Point{X: pi.X + w, Y: pi.Y + h})
	r := image.Rect(int(tl.X), int(tl.Y), int(math.Ceil(br.X)), int(math.Ceil(br.Y)))
	xdraw.CatmullRom.Scale(dst, r, src, b, xdraw.Over, nil)
	return true
}

// drawStroke fills the union of one quad per segment and a disc-like
// octagon per point, which gives round joins and caps at stroke widths.
func drawStroke(dst *image.RGBA, m geometry.Mapper, s overlay.Stroke) {
	if len(s.Points) == 0 {
		return
	}
	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	hw := float32(s.StrokeWidth * m.Scale / 2)
	if hw <= 0 {
		hw = float32(overlay.DefaultStrokeWidth * m.Scale / 2)
	}

	pts := make([]geometry.Point, len(s.Points))
	for i, p := range s.Points {
		pts[i] = m.ToCanvas(p)
	}
	for i, p := range pts {
		octagon(r, float32(p.X), float32(p.Y), hw)
		if i == 0 {
			continue
		}
		segment(r, pts[i-1], p, hw)
	}
	r.Draw(dst, b, image.NewUniform(s.Color.NRGBA()), image.Point{})
}

func segment(r *vector.Rasterizer, a, b geometry.Point, hw float32) {
	dx, dy := float32(b.X-a.X), float32(b.Y-a.Y)
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	ax, ay := float32(a.X), float32(a.Y)
	bx, by := float32(b.X), float32(b.Y)
	r.MoveTo(ax+nx, ay+ny)
	r.LineTo(bx+nx, by+ny)
	r.LineTo(bx-nx, by-ny)
	r.LineTo(ax-nx, ay-ny)
	r.ClosePath()
}

// octagon winds the same way as segment so overlaps do not cancel.
func octagon(r *vector.Rasterizer, cx, cy, radius float32) {
	const n = 8
	for i := 0; i < n; i++ {
		theta := -2 * math.Pi * float64(i) / n
		x := cx + radius*float32(math.Cos(theta))
		y := cy + radius*float32(math.Sin(theta))
		if i == 0 {
			r.MoveTo(x, y)
		} else {
			r.LineTo(x, y)
		}
	}
	r.ClosePath()
}

func drawPin(dst *image.RGBA, m geometry.Mapper, c overlay.CommentPin) {
	tl := m.ToCanvas(overlay.Point{X: c.X, Y: c.Y})
	size := pinSize * m.Scale
	fill := pinOpen
	if c.Resolved {
		fill = pinResolved
	}
	r := image.Rect(int(tl.X), int(tl.Y), int(tl.X+size), int(tl.Y+size))
	xdraw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(fill), image.Point{}, xdraw.Over)
}
