// Package geometry converts coordinates between the three spaces an overlay
// passes through: screen (pointer events), canvas pixels (the rendered page
// bitmap at a zoom scale) and PDF page space (bottom-left origin, unscaled).
//
// Overlay items are stored in page units with a top-left origin, which is
// canvas pixel space divided by the render scale. The y-axis flip into PDF
// space happens exactly once, in CanvasToPDF, when the export pipeline takes
// over; nothing in the interactive model flips.
package geometry

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate. Its space depends on where it is used.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the on-screen bounding rectangle of the canvas element.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Mapper holds the geometry of one rendered (page, scale) pair.
type Mapper struct {
	CanvasWidth   float64 // backing pixel buffer width
	CanvasHeight  float64 // backing pixel buffer height
	DisplayWidth  float64 // CSS width the canvas is displayed at
	DisplayHeight float64 // CSS height the canvas is displayed at
	PageHeight    float64 // PDF page height in points
	Scale         float64 // render scale, canvas pixels per page unit
}

// NewMapper returns a mapper for a canvas displayed at its natural size.
func NewMapper(canvasWidth, canvasHeight, pageHeight, scale float64) Mapper {
	return Mapper{
		CanvasWidth:   canvasWidth,
		CanvasHeight:  canvasHeight,
		DisplayWidth:  canvasWidth,
		DisplayHeight: canvasHeight,
		PageHeight:    pageHeight,
		Scale:         scale,
	}
}

// Validate reports whether the mapper can be used for conversions.
func (m Mapper) Validate() error {
	if m.CanvasWidth <= 0 || m.CanvasHeight <= 0 {
		return fmt.Errorf("canvas size must be positive, got %gx%g", m.CanvasWidth, m.CanvasHeight)
	}
	if m.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", m.Scale)
	}
	return nil
}

// ScreenToCanvas maps a pointer position into canvas pixel space. The canvas
// may be CSS-scaled independently of its pixel buffer, so the offset within
// the bounding rect is multiplied by the pixel/display ratio.
func (m Mapper) ScreenToCanvas(pointerX, pointerY float64, bounds Rect) Point {
	sx, sy := 1.0, 1.0
	if bounds.Width > 0 {
		sx = m.CanvasWidth / bounds.Width
	}
	if bounds.Height > 0 {
		sy = m.CanvasHeight / bounds.Height
	}
	return Point{
		X: (pointerX - bounds.Left) * sx,
		Y: (pointerY - bounds.Top) * sy,
	}
}

// ToPage converts canvas pixels to scale-invariant page units (top-left origin).
func (m Mapper) ToPage(p Point) Point {
	s := m.scale()
	return Point{X: p.X / s, Y: p.Y / s}
}

// ToCanvas converts page units back to canvas pixels at the mapper's scale.
func (m Mapper) ToCanvas(p Point) Point {
	s := m.scale()
	return Point{X: p.X * s, Y: p.Y * s}
}

// ScreenToPage is ScreenToCanvas followed by ToPage.
func (m Mapper) ScreenToPage(pointerX, pointerY float64, bounds Rect) Point {
	return m.ToPage(m.ScreenToCanvas(pointerX, pointerY, bounds))
}

// Length converts a distance in canvas pixels to page units.
func (m Mapper) Length(px float64) float64 {
	return px / m.scale()
}

// Bounds returns the rect of a canvas displayed at (0,0) with the mapper's
// display size.
func (m Mapper) Bounds() Rect {
	return Rect{Width: m.DisplayWidth, Height: m.DisplayHeight}
}

func (m Mapper) scale() float64 {
	if m.Scale <= 0 {
		return 1
	}
	return m.Scale
}

// CanvasToPDF flips a top-left origin coordinate into PDF page space.
func CanvasToPDF(x, y, pageHeight float64) (float64, float64) {
	return x, pageHeight - y
}

// PDFToCanvas is the inverse of CanvasToPDF.
func PDFToCanvas(x, y, pageHeight float64) (float64, float64) {
	return x, pageHeight - y
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Hypot(dx, dy)
}

// Within reports whether b lies within radius of a without taking a root.
func Within(a, b Point, radius float64) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx+dy*dy <= radius*radius
}
