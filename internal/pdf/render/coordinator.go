package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
)

// ErrSuperseded is returned by a render that finished after a newer render
// was requested. Its frame is discarded.
var ErrSuperseded = errors.New("render superseded by a newer request")

// Source provides page geometry and the overlay for a page.
type Source interface {
	PageSize(page int) (PageSize, error)
	Overlay(page int) Overlay
}

// Renderer draws one page at a scale.
type Renderer interface {
	Render(ctx context.Context, src Source, page int, scale float64) (*Frame, error)
}

// PageRenderer renders the page area from its MediaBox and composites the
// overlay. Page content itself is not rasterized.
type PageRenderer struct{}

func (PageRenderer) Render(ctx context.Context, src Source, page int, scale float64) (*Frame, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", scale)
	}
	size, err := src.PageSize(page)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas := NewCanvas(size, scale)
	b := canvas.Bounds()
	m := geometry.NewMapper(float64(b.Dx()), float64(b.Dy()), size.Height, scale)
	Composite(canvas, m, src.Overlay(page))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Frame{Page: page, Scale: scale, Size: size, Mapper: m, Image: canvas}, nil
}

// Hooks are called around a render. OnStart runs when a render is requested,
// OnApply when its frame is the latest one and OnFail when the latest render
// returned an error. All run under the coordinator lock, so OnApply of an old
// render never interleaves with the OnStart of a newer one.
type Hooks struct {
	OnStart func(page int)
	OnApply func(f *Frame) error
	OnFail  func(page int)
}

// Coordinator serializes render results: many renders may run at once but
// only the most recently requested one is applied.
type Coordinator struct {
	mu       sync.Mutex
	gen      uint64
	renderer Renderer
	hooks    Hooks
}

// NewCoordinator returns a coordinator using r.
func NewCoordinator(r Renderer, hooks Hooks) *Coordinator {
	if r == nil {
		r = PageRenderer{}
	}
	return &Coordinator{renderer: r, hooks: hooks}
}

// Render requests page at scale and blocks until it completes. It returns
// ErrSuperseded when a newer request was made in the meantime.
func (c *Coordinator) Render(ctx context.Context, src Source, page int, scale float64) (*Frame, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.hooks.OnStart != nil {
		c.hooks.OnStart(page)
	}
	c.mu.Unlock()

	frame, err := c.renderer.Render(ctx, src, page, scale)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		if c.hooks.OnFail != nil {
			c.hooks.OnFail(page)
		}
		return nil, err
	}
	if c.hooks.OnApply != nil {
		if err := c.hooks.OnApply(frame); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// Generation returns the number of renders requested so far.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}
