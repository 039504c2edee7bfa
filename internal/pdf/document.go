package pdf

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/phuslu/log"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/interaction"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/render"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

// DocumentOptions configures a document session.
type DocumentOptions struct {
	Name      string
	Store     store.Store
	Projector *export.Projector
	Renderer  render.Renderer
	Logger    *log.Logger

	// Highlighter defaults. Zero values keep the engine defaults.
	Color       string
	StrokeWidth float64
	Scale       float64
}

// Document is one open PDF: the original bytes, its overlay and the
// interaction engine editing it. Every committed change is mirrored to the
// store before the call that made it returns.
type Document struct {
	// mu serializes gestures and the persistence that follows them.
	mu sync.Mutex

	name        string
	fingerprint store.Fingerprint
	data        []byte
	viewport    *render.Viewport

	inspectOnce sync.Once
	inspection  *export.Inspection

	model     *overlay.Model
	engine    *interaction.Engine
	coord     *render.Coordinator
	store     store.Store
	projector *export.Projector
	logger    *log.Logger

	frameMu sync.Mutex
	frame   *render.Frame
	scale   float64
}

// OpenDocument parses data and restores the overlay saved under its
// fingerprint. A document that does not parse fails with an input error and
// no session is created. A store that cannot be read degrades to an empty
// overlay.
func OpenDocument(data []byte, opts DocumentOptions) (*Document, error) {
	if len(data) == 0 {
		return nil, pdferrors.Input("open", errors.New("PDF buffer is empty"))
	}
	vp, err := render.OpenViewport(data)
	if err != nil {
		return nil, pdferrors.Input("open", err)
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore(store.DefaultQuota, opts.Logger)
	}
	if opts.Projector == nil {
		opts.Projector = export.NewProjector(opts.Logger)
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	fp := store.FingerprintOf(data)
	d := &Document{
		name:        opts.Name,
		fingerprint: fp,
		data:        append([]byte(nil), data...),
		viewport:    vp,
		store:       opts.Store,
		projector:   opts.Projector,
		logger:      opts.Logger,
		scale:       opts.Scale,
	}

	d.model = overlay.NewModel(d.restore(), vp.PageCount())
	d.engine = interaction.NewEngine(d.model)
	if opts.Color != "" {
		if err := d.engine.SelectColor(opts.Color); err != nil {
			return nil, pdferrors.Input("open", fmt.Errorf("highlighter color: %w", err))
		}
	}
	if opts.StrokeWidth > 0 {
		if err := d.engine.SetStrokeWidth(opts.StrokeWidth); err != nil {
			return nil, pdferrors.Input("open", err)
		}
	}
	d.coord = render.NewCoordinator(opts.Renderer, render.Hooks{
		OnStart: func(int) { d.engine.Suspend() },
		OnApply: d.applyFrame,
		OnFail:  d.restoreFrame,
	})

	d.logger.Info().
		Str("fingerprint", fp.Short()).
		Str("name", d.name).
		Int("pages", vp.PageCount()).
		Msg("document opened")
	return d, nil
}

func (d *Document) restore() *overlay.Bundle {
	b, err := d.store.Load(d.fingerprint)
	if err != nil {
		d.logger.Warn().Err(err).Str("fingerprint", d.fingerprint.Short()).Msg("overlay store unavailable, starting empty")
		return overlay.NewBundle(string(d.fingerprint))
	}
	if err := b.Validate(d.viewport.PageCount()); err != nil {
		d.logger.Warn().Err(err).Str("fingerprint", d.fingerprint.Short()).Msg("discarding saved overlay that does not fit the document")
		return overlay.NewBundle(string(d.fingerprint))
	}
	b.Fingerprint = string(d.fingerprint)
	return b
}

func (d *Document) applyFrame(f *render.Frame) error {
	if err := d.engine.Resume(f.Page, f.Mapper); err != nil {
		return err
	}
	d.frameMu.Lock()
	d.frame = f
	d.scale = f.Scale
	d.frameMu.Unlock()
	return nil
}

// restoreFrame hands the last applied frame back to the engine after a
// failed render.
func (d *Document) restoreFrame(int) {
	d.frameMu.Lock()
	f := d.frame
	d.frameMu.Unlock()
	if f == nil {
		return
	}
	if err := d.engine.Resume(f.Page, f.Mapper); err != nil {
		d.logger.Warn().Err(err).Int("page", f.Page).Msg("failed to restore previous frame")
	}
}

// Fingerprint is the persistence key of the document.
func (d *Document) Fingerprint() store.Fingerprint {
	return d.fingerprint
}

// Name is the file name the document was opened from, if any.
func (d *Document) Name() string {
	return d.name
}

// TotalPages returns the page count.
func (d *Document) TotalPages() int {
	return d.viewport.PageCount()
}

// Engine exposes the interaction engine, for tool and color selection.
func (d *Document) Engine() *interaction.Engine {
	return d.engine
}

// Model exposes the overlay model for read access.
func (d *Document) Model() *overlay.Model {
	return d.model
}

// PageSize implements render.Source.
func (d *Document) PageSize(page int) (render.PageSize, error) {
	return d.viewport.PageSize(page)
}

// Overlay implements render.Source.
func (d *Document) Overlay(page int) render.Overlay {
	return render.Overlay{
		Strokes:  d.model.StrokesForPage(page),
		Images:   d.model.ImagesForPage(page),
		Comments: d.model.CommentsForPage(page),
	}
}

// Scale returns the scale of the most recently applied frame, or the
// configured default before the first render.
func (d *Document) Scale() float64 {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()
	return d.scale
}

// Frame returns the most recently applied frame, or nil.
func (d *Document) Frame() *render.Frame {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()
	return d.frame
}

// Render draws page at scale, which must lie within the zoom limits.
// Gestures are rejected from the moment the request is made until its frame
// is applied, or until the render fails and the previous frame is restored. A render overtaken by a newer
// request returns render.ErrSuperseded and changes nothing.
func (d *Document) Render(ctx context.Context, page int, scale float64) (*render.Frame, error) {
	if page < 1 || page > d.TotalPages() {
		return nil, pdferrors.TransientRender("render", page,
			fmt.Errorf("%w: %d (document has %d pages)", overlay.ErrInvalidPage, page, d.TotalPages()))
	}
	if math.IsNaN(scale) || scale < geometry.MinScale || scale > geometry.MaxScale {
		return nil, pdferrors.Input("render",
			fmt.Errorf("scale must be between %g and %g, got %g", geometry.MinScale, geometry.MaxScale, scale)).WithPage(page)
	}
	f, err := d.coord.Render(ctx, d, page, scale)
	if err != nil {
		if errors.Is(err, render.ErrSuperseded) {
			return nil, err
		}
		d.logger.Warn().Err(err).Int("page", page).Float64("scale", scale).Msg("page render failed")
		return nil, pdferrors.TransientRender("render", page, err)
	}
	return f, nil
}

// ZoomIn re-renders the current page one zoom step larger.
func (d *Document) ZoomIn(ctx context.Context) (*render.Frame, error) {
	return d.Render(ctx, d.engine.Page(), geometry.ZoomIn(d.Scale()))
}

// ZoomOut re-renders the current page one zoom step smaller.
func (d *Document) ZoomOut(ctx context.Context) (*render.Frame, error) {
	return d.Render(ctx, d.engine.Page(), geometry.ZoomOut(d.Scale()))
}

// FitToWidth re-renders the current page so it fills containerWidth.
func (d *Document) FitToWidth(ctx context.Context, containerWidth float64) (*render.Frame, error) {
	page := d.engine.Page()
	size, err := d.viewport.PageSize(page)
	if err != nil {
		return nil, pdferrors.TransientRender("fit to width", page, err)
	}
	return d.Render(ctx, page, geometry.FitToWidth(d.Scale(), containerWidth, size.Width))
}

// ApplyGesture feeds one pointer event to the engine. When the event
// commits a change, the overlay is saved before returning; a failed save is
// reported as a persistence error alongside the update, and the in-memory
// change stands.
func (d *Document) ApplyGesture(ev interaction.Event) (interaction.Update, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applyLocked(ev)
}

func (d *Document) applyLocked(ev interaction.Event) (interaction.Update, error) {
	u, err := d.engine.Handle(ev)
	if err != nil {
		return u, err
	}
	if u.Committed {
		return u, d.persistLocked(string(u.Kind))
	}
	return u, nil
}

// mutate runs fn and saves the overlay if fn reports a change.
func (d *Document) mutate(op string, fn func() (bool, error)) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	changed, err := fn()
	if err != nil || !changed {
		return changed, err
	}
	return true, d.persistLocked(op)
}

func (d *Document) persistLocked(op string) error {
	if err := d.store.Save(d.fingerprint, d.model.Snapshot()); err != nil {
		d.logger.Warn().Err(err).Str("fingerprint", d.fingerprint.Short()).Str("op", op).Msg("overlay not saved")
		return pdferrors.Persistence("save "+op, err)
	}
	d.logger.Debug().Str("fingerprint", d.fingerprint.Short()).Str("op", op).Msg("overlay saved")
	return nil
}

// Export bakes the current overlay into a copy of the original PDF.
func (d *Document) Export(ctx context.Context) ([]byte, *export.Report, error) {
	return d.projector.Project(ctx, d.data, d.model.Snapshot())
}

// DownloadOriginal returns the bytes the document was opened from.
func (d *Document) DownloadOriginal() []byte {
	return append([]byte(nil), d.data...)
}

// Conformance runs the PDF validator over the original bytes once and
// caches the result.
func (d *Document) Conformance() *export.Inspection {
	d.inspectOnce.Do(func() {
		d.inspection = export.Inspect(d.data)
	})
	return d.inspection
}

// Clear drops the saved overlay and empties the in-memory one. Any gesture
// or pending comment is abandoned.
func (d *Document) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine.Cancel()
	if err := d.store.Clear(d.fingerprint); err != nil {
		return pdferrors.Persistence("clear", err)
	}
	if err := d.model.Replace(overlay.NewBundle(string(d.fingerprint))); err != nil {
		return err
	}
	d.logger.Info().Str("fingerprint", d.fingerprint.Short()).Msg("overlay cleared")
	return nil
}

// Info summarizes the document and its overlay.
func (d *Document) Info() DocumentInfo {
	strokes, images, comments := d.model.Snapshot().Counts()
	info := DocumentInfo{
		Fingerprint: string(d.fingerprint),
		Name:        d.name,
		TotalPages:  d.TotalPages(),
		Strokes:     strokes,
		Images:      images,
		Comments:    comments,
	}
	if size, err := d.viewport.PageSize(1); err == nil {
		info.PageWidth, info.PageHeight = size.Width, size.Height
	}
	return info
}
