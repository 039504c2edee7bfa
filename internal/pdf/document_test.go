package pdf

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-annotator/internal/logging"
	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/interaction"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/pdftest"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/render"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

func openTestDocument(t *testing.T, pages int, st store.Store) *Document {
	t.Helper()
	if st == nil {
		st = store.NewMemoryStore(0, logging.Discard())
	}
	doc, err := OpenDocument(pdftest.Document(t, pages), DocumentOptions{
		Name:   "fixture.pdf",
		Store:  st,
		Logger: logging.Discard(),
	})
	require.NoError(t, err)
	return doc
}

func pt(x, y float64) overlay.Point {
	return overlay.Point{X: x, Y: y}
}

func TestOpenDocument_RejectsBadInput(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("this is not a PDF"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := OpenDocument(data, DocumentOptions{Logger: logging.Discard()})
			require.Error(t, err)
			assert.True(t, pdferrors.IsKind(err, pdferrors.KindInput))
		})
	}
}

func TestOpenDocument_Info(t *testing.T) {
	data := pdftest.Document(t, 3)
	doc := openTestDocument(t, 3, nil)

	assert.Equal(t, 3, doc.TotalPages())
	assert.Equal(t, store.FingerprintOf(data), doc.Fingerprint())
	assert.Equal(t, data, doc.DownloadOriginal())

	info := doc.Info()
	assert.Equal(t, "fixture.pdf", info.Name)
	assert.Equal(t, pdftest.LetterWidth, info.PageWidth)
	assert.Equal(t, pdftest.LetterHeight, info.PageHeight)
	assert.Zero(t, info.Strokes)
}

func TestDocument_GesturesNeedARender(t *testing.T) {
	doc := openTestDocument(t, 1, nil)

	_, err := doc.ApplyGesture(interaction.Event{Kind: interaction.PointerDown})
	assert.ErrorIs(t, err, interaction.ErrCanvasNotReady)

	_, err = doc.Render(context.Background(), 1, 1)
	require.NoError(t, err)
	require.NoError(t, doc.Engine().SetTool(interaction.ToolHighlighter))

	_, err = doc.ApplyGesture(interaction.Event{Kind: interaction.PointerDown, X: 0, Y: 0})
	require.NoError(t, err)
	u, err := doc.ApplyGesture(interaction.Event{Kind: interaction.PointerUp, X: 10, Y: 10})
	require.NoError(t, err)
	assert.True(t, u.Committed)
	require.NotNil(t, u.Stroke)
	assert.Equal(t, []overlay.Point{pt(0, 0), pt(10, 10)}, u.Stroke.Points)
}

func TestDocument_CommitIsPersisted(t *testing.T) {
	st := store.NewMemoryStore(0, logging.Discard())
	doc := openTestDocument(t, 2, st)

	_, err := doc.Highlight(context.Background(), 2, []overlay.Point{pt(10, 20), pt(30, 40)}, "", 0)
	require.NoError(t, err)

	saved, err := st.Load(doc.Fingerprint())
	require.NoError(t, err)
	require.Len(t, saved.StrokesByPage[2], 1)
	assert.Equal(t, doc.Model().StrokesForPage(2), saved.StrokesByPage[2])

	// Reopening the same bytes restores the overlay.
	again := openTestDocument(t, 2, st)
	assert.Equal(t, doc.Model().Snapshot().StrokesByPage, again.Model().Snapshot().StrokesByPage)
}

func TestDocument_PersistenceFailureKeepsChange(t *testing.T) {
	doc := openTestDocument(t, 1, store.NewMemoryStore(100, logging.Discard()))

	u, err := doc.Highlight(context.Background(), 1, []overlay.Point{pt(0, 0), pt(50, 50)}, "", 0)
	require.Error(t, err)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindPersistence))
	assert.ErrorIs(t, err, store.ErrStorageQuotaExceeded)
	assert.True(t, u.Committed)
	assert.Len(t, doc.Model().StrokesForPage(1), 1)
}

func TestDocument_IgnoresOverlayThatDoesNotFit(t *testing.T) {
	data := pdftest.Document(t, 1)
	st := store.NewMemoryStore(0, logging.Discard())
	b := overlay.NewBundle("")
	b.Comments = append(b.Comments, overlay.CommentPin{ID: "c", PageNumber: 5, Text: "far away"})
	require.NoError(t, st.Save(store.FingerprintOf(data), b))

	doc := openTestDocument(t, 1, st)
	assert.Empty(t, doc.Model().Comments())
}

func TestDocument_RenderErrors(t *testing.T) {
	doc := openTestDocument(t, 1, nil)
	ctx := context.Background()

	_, err := doc.Render(ctx, 2, 1)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindTransientRender))

	_, err = doc.Render(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, doc.Engine().Ready())

	for _, scale := range []float64{-1, 0, 0.25, 3.5, 40, 1e9, math.NaN(), math.Inf(1)} {
		_, err = doc.Render(ctx, 1, scale)
		assert.True(t, pdferrors.IsKind(err, pdferrors.KindInput), "scale %g: %v", scale, err)
		assert.True(t, doc.Engine().Ready(), "scale %g leaves the engine usable", scale)
		assert.Equal(t, 1.0, doc.Scale())
	}
}

// failingRenderer fails every render.
type failingRenderer struct{}

func (failingRenderer) Render(context.Context, render.Source, int, float64) (*render.Frame, error) {
	return nil, errors.New("rasterizer unavailable")
}

func TestDocument_FailedRenderRestoresFrame(t *testing.T) {
	doc := openTestDocument(t, 1, nil)
	ctx := context.Background()
	_, err := doc.Render(ctx, 1, 1)
	require.NoError(t, err)

	doc.coord = render.NewCoordinator(failingRenderer{}, render.Hooks{
		OnStart: func(int) { doc.engine.Suspend() },
		OnApply: doc.applyFrame,
		OnFail:  doc.restoreFrame,
	})
	_, err = doc.Render(ctx, 1, 2)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindTransientRender))
	assert.True(t, doc.Engine().Ready())
	assert.Equal(t, 1.0, doc.Scale())

	_, err = doc.Highlight(ctx, 1, []overlay.Point{pt(10, 10), pt(40, 10)}, "", 0)
	require.NoError(t, err)
}

// blockingRenderer holds renders of page 1 until released.
type blockingRenderer struct {
	started chan int
	release chan struct{}
}

func (b *blockingRenderer) Render(ctx context.Context, src render.Source, page int, scale float64) (*render.Frame, error) {
	b.started <- page
	if page == 1 {
		<-b.release
	}
	return render.PageRenderer{}.Render(ctx, src, page, scale)
}

func TestDocument_SupersededRenderIsDropped(t *testing.T) {
	br := &blockingRenderer{started: make(chan int, 2), release: make(chan struct{})}
	doc, err := OpenDocument(pdftest.Document(t, 2), DocumentOptions{Renderer: br, Logger: logging.Discard()})
	require.NoError(t, err)

	stale := make(chan error, 1)
	go func() {
		_, err := doc.Render(context.Background(), 1, 2)
		stale <- err
	}()
	require.Equal(t, 1, <-br.started)

	f, err := doc.Render(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, <-br.started)
	assert.Equal(t, 2, f.Page)

	close(br.release)
	assert.ErrorIs(t, <-stale, render.ErrSuperseded)
	assert.Equal(t, 2, doc.Engine().Page())
	assert.Equal(t, 1.0, doc.Scale())
	assert.True(t, doc.Engine().Ready())
}

func TestDocument_CoordinatesSurviveZoom(t *testing.T) {
	doc := openTestDocument(t, 1, nil)
	ctx := context.Background()

	_, err := doc.Render(ctx, 1, 1)
	require.NoError(t, err)
	f, err := doc.ZoomIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.25, f.Scale)

	_, err = doc.Highlight(ctx, 1, []overlay.Point{pt(100, 100), pt(200, 100)}, "", 0)
	require.NoError(t, err)

	f, err = doc.FitToWidth(ctx, 306)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f.Scale)

	strokes := doc.Model().StrokesForPage(1)
	require.Len(t, strokes, 1)
	assert.InDeltaSlice(t, []float64{100, 100, 200, 100},
		[]float64{strokes[0].Points[0].X, strokes[0].Points[0].Y, strokes[0].Points[1].X, strokes[0].Points[1].Y}, 1e-9)

	f, err = doc.ZoomOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f.Scale)
}

func TestDocument_ScriptedAnnotations(t *testing.T) {
	doc := openTestDocument(t, 2, nil)
	ctx := context.Background()

	u, err := doc.Highlight(ctx, 1, []overlay.Point{pt(10, 10), pt(60, 10)}, "rgba(0, 0, 255, 0.3)", 4)
	require.NoError(t, err)
	require.NotNil(t, u.Stroke)
	assert.Equal(t, overlay.Color{B: 255, A: 0.3}, u.Stroke.Color)
	assert.Equal(t, 4.0, u.Stroke.StrokeWidth)

	_, err = doc.Highlight(ctx, 1, []overlay.Point{pt(1, 1)}, "", 0)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindInput))
	_, err = doc.Highlight(ctx, 1, []overlay.Point{pt(1, 1), pt(2, 2)}, overlay.EraserColor, 0)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindInput))

	// Eraser radius is twice the width: 8 units.
	u, err = doc.Erase(ctx, 1, []overlay.Point{pt(35, 17)})
	require.NoError(t, err)
	assert.True(t, u.Committed)
	assert.Equal(t, 1, u.Removed)
	assert.Empty(t, doc.Model().StrokesForPage(1))

	img, err := doc.AddImage(2, pdftest.PNG(t, 40, 20, color.White), nil, overlay.Float(50), nil)
	require.NoError(t, err)
	assert.Equal(t, overlay.DefaultImageX, img.X)
	assert.Equal(t, 50.0, img.Y)

	_, err = doc.AddImage(2, []byte("GIF89a"), nil, nil, nil)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindInput))
	_, err = doc.AddImage(9, pdftest.PNG(t, 4, 4, color.White), nil, nil, nil)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindInput))

	u, err = doc.MoveImage(ctx, 2, img.ID, 10, 15)
	require.NoError(t, err)
	assert.Equal(t, interaction.CommitImageMove, u.Kind)
	moved, _ := doc.Model().Image(2, img.ID)
	assert.InDelta(t, 10, moved.X, 1e-9)
	assert.InDelta(t, 15, moved.Y, 1e-9)

	u, err = doc.ResizeImage(ctx, 2, img.ID, 80)
	require.NoError(t, err)
	assert.Equal(t, interaction.CommitImageResize, u.Kind)
	resized, _ := doc.Model().Image(2, img.ID)
	assert.InDelta(t, 80, resized.Width, 1e-9)
	assert.True(t, resized.IsAutoHeight())

	_, err = doc.MoveImage(ctx, 2, "missing", 0, 0)
	assert.Error(t, err)

	removed, err := doc.RemoveImage(2, img.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	pin, err := doc.AddComment(ctx, 1, "  looks wrong ", 100, 200)
	require.NoError(t, err)
	assert.Equal(t, "looks wrong", pin.Text)
	assert.Equal(t, pt(100, 200), pt(pin.X, pin.Y))
	assert.Equal(t, interaction.StateIdle, doc.Engine().State())

	_, err = doc.AddComment(ctx, 1, "   ", 1, 1)
	assert.True(t, pdferrors.IsKind(err, pdferrors.KindInput))

	u, err = doc.MoveComment(ctx, pin.ID, 150, 250)
	require.NoError(t, err)
	assert.Equal(t, interaction.CommitCommentMove, u.Kind)
	got, _ := doc.Model().Comment(pin.ID)
	assert.InDelta(t, 150, got.X, 1e-9)
	assert.InDelta(t, 250, got.Y, 1e-9)

	toggled, err := doc.ToggleComment(pin.ID)
	require.NoError(t, err)
	assert.True(t, toggled)
	got, _ = doc.Model().Comment(pin.ID)
	assert.True(t, got.Resolved)

	deleted, err := doc.DeleteComment(pin.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = doc.DeleteComment(pin.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDocument_ExportAndClear(t *testing.T) {
	st := store.NewMemoryStore(0, logging.Discard())
	doc := openTestDocument(t, 1, st)
	ctx := context.Background()

	_, err := doc.AddComment(ctx, 1, "note", 100, 200)
	require.NoError(t, err)

	out, report, err := doc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Comments)
	assert.True(t, report.Complete())

	n, err := api.PageCount(bytes.NewReader(out), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	insp := doc.Conformance()
	assert.True(t, insp.Readable)
	assert.Equal(t, 1, insp.Pages)

	require.NoError(t, doc.Clear())
	assert.Empty(t, doc.Model().Comments())
	keys, err := st.ListKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
