package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapper_ScreenToCanvas(t *testing.T) {
	tests := []struct {
		name   string
		mapper Mapper
		bounds Rect
		x, y   float64
		want   Point
	}{
		{
			name:   "natural_size",
			mapper: NewMapper(100, 100, 100, 1),
			bounds: Rect{Left: 10, Top: 20, Width: 100, Height: 100},
			x:      20, y: 30,
			want: Point{X: 10, Y: 10},
		},
		{
			name:   "css_scaled_down",
			mapper: NewMapper(1224, 1584, 792, 2),
			bounds: Rect{Left: 0, Top: 0, Width: 612, Height: 792},
			x:      100, y: 200,
			want: Point{X: 200, Y: 400},
		},
		{
			name:   "zero_bounds_falls_back_to_identity",
			mapper: NewMapper(100, 100, 100, 1),
			bounds: Rect{Left: 5, Top: 5},
			x:      15, y: 25,
			want: Point{X: 10, Y: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.mapper.ScreenToCanvas(tt.x, tt.y, tt.bounds)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestMapper_PageRoundTrip(t *testing.T) {
	for _, scale := range []float64{0.5, 0.8, 1, 1.25, 3} {
		m := NewMapper(612*scale, 792*scale, 792, scale)
		in := Point{X: 123.5, Y: 456.25}
		out := m.ToPage(m.ToCanvas(in))
		assert.InDelta(t, in.X, out.X, 1e-9, "scale %g", scale)
		assert.InDelta(t, in.Y, out.Y, 1e-9, "scale %g", scale)
	}
}

func TestMapper_ScreenToPageIsScaleInvariant(t *testing.T) {
	// The same physical spot on the page must map to the same page units
	// whatever zoom it was captured at.
	atOne := NewMapper(612, 792, 792, 1)
	atTwo := NewMapper(1224, 1584, 792, 2)

	p1 := atOne.ScreenToPage(100, 200, atOne.Bounds())
	p2 := atTwo.ScreenToPage(200, 400, atTwo.Bounds())

	assert.Equal(t, p1, p2)
	assert.Equal(t, Point{X: 100, Y: 200}, p1)
}

func TestCanvasToPDF_RoundTrip(t *testing.T) {
	const h = 792.0
	for y := 0.0; y <= h; y += 33 {
		px, py := CanvasToPDF(17, y, h)
		assert.Equal(t, 17.0, px)
		assert.Equal(t, h-y, py)

		cx, cy := PDFToCanvas(px, py, h)
		assert.Equal(t, 17.0, cx)
		assert.Equal(t, y, cy)
	}
}

func TestMapper_Validate(t *testing.T) {
	require.NoError(t, NewMapper(10, 10, 10, 1).Validate())
	assert.Error(t, NewMapper(0, 10, 10, 1).Validate())
	assert.Error(t, NewMapper(10, 10, 10, 0).Validate())
}

func TestWithin(t *testing.T) {
	a := Point{X: 50, Y: 50}
	assert.True(t, Within(a, Point{X: 53, Y: 54}, 5))
	assert.False(t, Within(a, Point{X: 50, Y: 56}, 5))
	assert.InDelta(t, 5.0, Distance(a, Point{X: 53, Y: 54}), 1e-9)
}

func TestZoom(t *testing.T) {
	assert.Equal(t, 1.25, ZoomIn(1))
	assert.Equal(t, MaxScale, ZoomIn(2.9))
	assert.Equal(t, 0.75, ZoomOut(1))
	assert.Equal(t, MinScale, ZoomOut(0.6))
	assert.InDelta(t, 1.5, FitToWidth(1, 918, 612), 1e-9)
	assert.Equal(t, 1.0, FitToWidth(1, 918, 0))
	assert.Equal(t, MaxScale, FitToWidth(1, 4000, 612))
	assert.Equal(t, MinScale, FitToWidth(1, 100, 612))
}
