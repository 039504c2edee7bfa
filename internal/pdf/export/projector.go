// Package export bakes an overlay bundle into a copy of the original PDF.
//
// Strokes become stroked paths, images become image XObjects and comments
// become /Text annotations. The original page content is wrapped in q/Q so
// the overlay is drawn with the default graphics state, and the y-axis is
// flipped from the overlay's top-left origin into PDF space here and nowhere
// else.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/phuslu/log"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// CommentSize is the side of a comment annotation's Rect in points.
const CommentSize = 20.0

// StrokeOpacity is the constant and fill alpha of every exported stroke,
// whatever alpha the stroke's color carries.
const StrokeOpacity = 0.5

// CommentColor is the annotation color of comment pins.
var CommentColor = [3]float64{1, 0.8, 0}

var errTooFewPoints = errors.New("stroke needs at least two points")

var configOnce sync.Once

func configuration() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Projector writes overlays into PDFs.
type Projector struct {
	logger *log.Logger
}

// NewProjector returns a projector logging to logger.
func NewProjector(logger *log.Logger) *Projector {
	return &Projector{logger: logger}
}

// Project returns a copy of original with b drawn on top. Items that cannot
// be projected are recorded in the report and skipped; only an unreadable
// input fails the call.
func (p *Projector) Project(ctx context.Context, original []byte, b *overlay.Bundle) ([]byte, *Report, error) {
	pctx, err := api.ReadContext(bytes.NewReader(original), configuration())
	if err != nil {
		return nil, nil, pdferrors.Input("export", fmt.Errorf("failed to read PDF: %w", err))
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, nil, pdferrors.Input("export", fmt.Errorf("failed to count pages: %w", err))
	}
	if err := api.ValidateContext(pctx); err != nil {
		p.logger.Warn().Err(err).Msg("exporting a PDF that does not validate")
	}

	report := newReport(pctx.PageCount)
	if b == nil {
		b = overlay.NewBundle("")
	}

	for _, page := range overlayPages(b) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if page < 1 || page > pctx.PageCount {
			report.skipPage(b, page)
			continue
		}
		pp, err := openPage(pctx, page)
		if err != nil {
			report.skipPage(b, page)
			p.logger.Warn().Err(err).Int("page", page).Msg("skipping overlay of unreadable page")
			continue
		}
		before := *report
		p.projectPage(pp, b, page, report)
		if err := pp.finish(); err != nil {
			report.Strokes, report.Images, report.Comments = before.Strokes, before.Images, before.Comments
			report.skipPage(b, page)
			p.logger.Warn().Err(err).Int("page", page).Msg("failed to attach overlay to page")
		}
	}

	var out bytes.Buffer
	if err := api.WriteContext(pctx, &out); err != nil {
		return nil, nil, pdferrors.Input("export", fmt.Errorf("failed to write PDF: %w", err))
	}

	p.logger.Info().
		Int("pages", report.Pages).
		Int("strokes", report.Strokes).
		Int("images", report.Images).
		Int("comments", report.Comments).
		Int("skipped", report.Skipped.Len()).
		Msg("overlay exported")
	return out.Bytes(), report, nil
}

func (p *Projector) projectPage(pp *page, b *overlay.Bundle, n int, report *Report) {
	for _, img := range b.ImagesByPage[n] {
		if err := pp.addImage(img); err != nil {
			report.add(n, img.ID, "image", err)
			p.logger.Warn().Err(err).Int("page", n).Str("image", img.ID).Msg("skipping image")
			continue
		}
		report.Images++
	}
	for _, s := range b.StrokesByPage[n] {
		if err := pp.addStroke(s); err != nil {
			report.add(n, s.ID, "stroke", err)
			continue
		}
		report.Strokes++
	}
	for _, c := range b.Comments {
		if c.PageNumber != n {
			continue
		}
		if err := pp.addComment(c); err != nil {
			report.add(n, c.ID, "comment", err)
			continue
		}
		report.Comments++
	}
}

// overlayPages lists every page any item sits on, ascending.
func overlayPages(b *overlay.Bundle) []int {
	seen := map[int]bool{}
	for n, s := range b.StrokesByPage {
		if len(s) > 0 {
			seen[n] = true
		}
	}
	for n, i := range b.ImagesByPage {
		if len(i) > 0 {
			seen[n] = true
		}
	}
	for _, c := range b.Comments {
		seen[c.PageNumber] = true
	}
	pages := make([]int, 0, len(seen))
	for n := range seen {
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages
}

// page is one page being written to.
type page struct {
	ctx    *model.Context
	dict   types.Dict
	ref    *types.IndirectRef
	box    *types.Rectangle
	res    types.Dict
	xobj   types.Dict
	gs     types.Dict
	alphas map[float64]string
	annots types.Array
	body   contentBuilder
	images int
}

func openPage(ctx *model.Context, n int) (*page, error) {
	dict, ref, inh, err := ctx.PageDict(n, true)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, fmt.Errorf("page %d not found", n)
	}

	box := types.NewRectangle(0, 0, 612, 792)
	if inh != nil && inh.MediaBox != nil {
		box = inh.MediaBox
	}

	var inherited types.Dict
	if inh != nil {
		inherited = inh.Resources
	}
	if obj, found := dict.Find("Resources"); found {
		if d, err := ctx.DereferenceDict(obj); err == nil && d != nil {
			inherited = d
		}
	}
	res := copyDict(inherited)

	pp := &page{
		ctx:    ctx,
		dict:   dict,
		ref:    ref,
		box:    box,
		res:    res,
		xobj:   subDict(ctx, res, "XObject"),
		gs:     subDict(ctx, res, "ExtGState"),
		alphas: map[float64]string{},
	}

	if obj, found := dict.Find("Annots"); found {
		arr, err := ctx.DereferenceArray(obj)
		if err != nil {
			return nil, fmt.Errorf("page %d annotations: %w", n, err)
		}
		pp.annots = append(types.Array{}, arr...)
	}
	return pp, nil
}

func copyDict(d types.Dict) types.Dict {
	out := types.Dict{}
	for k, v := range d {
		out[k] = v
	}
	return out
}

// subDict returns a private copy of a resource category so that resources
// shared with other pages are never modified.
func subDict(ctx *model.Context, res types.Dict, key string) types.Dict {
	var d types.Dict
	if obj, found := res.Find(key); found {
		d, _ = ctx.DereferenceDict(obj)
	}
	out := copyDict(d)
	res[key] = out
	return out
}

func (pp *page) height() float64 {
	return pp.box.Height()
}

// toPDF converts a top-left origin overlay point to PDF user space.
func (pp *page) toPDF(pt overlay.Point) pdfPoint {
	x, y := geometry.CanvasToPDF(pt.X, pt.Y, pp.height())
	return pdfPoint{x: pp.box.LL.X + x, y: pp.box.LL.Y + y}
}

// uniqueName returns a resource name not yet used in d.
func uniqueName(d types.Dict, prefix string, n int) string {
	for {
		name := fmt.Sprintf("%s%d", prefix, n)
		if _, taken := d[name]; !taken {
			return name
		}
		n++
	}
}

func (pp *page) extGState(alpha float64) string {
	if name, ok := pp.alphas[alpha]; ok {
		return name
	}
	name := uniqueName(pp.gs, "GSOverlay", len(pp.alphas))
	pp.gs[name] = types.Dict{
		"Type": types.Name("ExtGState"),
		"CA":   types.Float(alpha),
		"ca":   types.Float(alpha),
	}
	pp.alphas[alpha] = name
	return name
}

func (pp *page) addStroke(s overlay.Stroke) error {
	if len(s.Points) == 0 {
		return overlay.ErrEmptyStroke
	}
	if len(s.Points) < 2 {
		return errTooFewPoints
	}
	pts := make([]pdfPoint, len(s.Points))
	for i, pt := range s.Points {
		pts[i] = pp.toPDF(pt)
	}
	width := s.StrokeWidth
	if width <= 0 {
		width = overlay.DefaultStrokeWidth
	}
	pp.body.stroke(pp.extGState(StrokeOpacity), s.Color, width, pts)
	return nil
}

func (pp *page) addImage(pi overlay.PlacedImage) error {
	if f := overlay.DetectFormat(pi.Source); f == overlay.FormatUnknown {
		return fmt.Errorf("unsupported image format")
	}
	ref, iw, ih, err := model.CreateImageResource(pp.ctx.XRefTable, bytes.NewReader(pi.Source))
	if err != nil {
		return fmt.Errorf("embed image: %w", err)
	}
	if iw <= 0 || ih <= 0 {
		return fmt.Errorf("image has no pixels")
	}

	w, h := pi.ResolvedSize(float64(iw), float64(ih))
	ll := pp.toPDF(overlay.Point{X: pi.X, Y: pi.Y + h})

	name := uniqueName(pp.xobj, "ImOverlay", pp.images)
	pp.images++
	pp.xobj[name] = *ref
	pp.body.image(name, ll.x, ll.y, w, h)
	return nil
}

func (pp *page) addComment(c overlay.CommentPin) error {
	if c.Text == "" {
		return overlay.ErrEmptyComment
	}
	ll := pp.toPDF(overlay.Point{X: c.X, Y: c.Y + CommentSize})
	annot := types.Dict{
		"Type":     types.Name("Annot"),
		"Subtype":  types.Name("Text"),
		"Rect":     types.NewNumberArray(ll.x, ll.y, ll.x+CommentSize, ll.y+CommentSize),
		"Contents": textString(c.Text),
		"Name":     types.Name("Comment"),
		"C":        types.NewNumberArray(CommentColor[0], CommentColor[1], CommentColor[2]),
		"Open":     types.Boolean(false),
	}
	if pp.ref != nil {
		annot["P"] = *pp.ref
	}
	ref, err := pp.ctx.IndRefForNewObject(annot)
	if err != nil {
		return err
	}
	pp.annots = append(pp.annots, *ref)
	return nil
}

// finish wraps the original content in q/Q, appends the overlay stream and
// installs the page's new resources and annotations.
func (pp *page) finish() error {
	xrt := pp.ctx.XRefTable
	contents := types.Array{}

	if obj, found := pp.dict.Find("Contents"); found {
		resolved, err := xrt.Dereference(obj)
		if err != nil {
			return fmt.Errorf("page contents: %w", err)
		}
		switch v := resolved.(type) {
		case types.Array:
			contents = append(contents, v...)
		case types.StreamDict:
			contents = append(contents, obj)
		}
	}

	if body := pp.body.bytes(); len(body) > 0 {
		open, err := newStream(xrt, []byte("q\n"), nil)
		if err != nil {
			return err
		}
		closeAndDraw, err := newStream(xrt, append([]byte("Q\n"), body...), nil)
		if err != nil {
			return err
		}
		contents = append(types.Array{*open}, contents...)
		contents = append(contents, *closeAndDraw)
		pp.dict["Contents"] = contents
	}

	pp.dict["Resources"] = pp.res
	if len(pp.annots) > 0 {
		pp.dict["Annots"] = pp.annots
	}
	return nil
}
