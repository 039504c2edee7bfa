package interaction

import (
	"fmt"
	"strings"
	"sync"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// EraserRadiusFactor scales the stroke width into the eraser hit radius.
const EraserRadiusFactor = 2.0

// Engine is the pointer state machine for one document.
type Engine struct {
	mu sync.Mutex

	model  *overlay.Model
	page   int
	mapper geometry.Mapper
	bounds geometry.Rect
	ready  bool

	tool  Tool
	color overlay.Color
	width float64

	g       *gesture
	pending *string
}

// NewEngine returns an idle, suspended engine. It accepts events once Resume
// has supplied the geometry of a rendered page.
func NewEngine(model *overlay.Model) *Engine {
	return &Engine{
		model: model,
		page:  1,
		color: overlay.DefaultHighlight,
		width: overlay.DefaultStrokeWidth,
	}
}

// Suspend blocks events while a render is in flight. An in-progress gesture
// is dropped without committing; a pending comment placement survives.
func (e *Engine) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
	e.g = nil
}

// Resume installs the geometry of the page that finished rendering. The
// canvas is assumed to be displayed at its natural size until SetBounds says
// otherwise.
func (e *Engine) Resume(page int, m geometry.Mapper) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page = page
	e.mapper = m
	e.bounds = m.Bounds()
	e.ready = true
	return nil
}

// SetBounds records where the canvas element sits on screen.
func (e *Engine) SetBounds(r geometry.Rect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bounds = r
}

// Ready reports whether events are accepted.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Page returns the page events apply to.
func (e *Engine) Page() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// State returns the current gesture state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	if e.g != nil {
		return e.g.state
	}
	if e.pending != nil {
		return StateAwaitingCommentPlacement
	}
	return StateIdle
}

// SetTool arms a tool. Changing tools mid-gesture is rejected.
func (e *Engine) SetTool(t Tool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.g != nil {
		return ErrGestureActive
	}
	e.tool = t
	return nil
}

// Tool returns the armed tool.
func (e *Engine) Tool() Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

// SelectColor arms the highlighter with a CSS color, or the eraser when the
// value is overlay.EraserColor.
func (e *Engine) SelectColor(value string) error {
	if strings.EqualFold(strings.TrimSpace(value), overlay.EraserColor) {
		return e.SetTool(ToolEraser)
	}
	c, err := overlay.ParseColor(value)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.g != nil {
		return ErrGestureActive
	}
	e.color = c
	e.tool = ToolHighlighter
	return nil
}

// SetStrokeWidth sets the highlighter width in page units.
func (e *Engine) SetStrokeWidth(w float64) error {
	if w <= 0 {
		return fmt.Errorf("stroke width must be positive, got %g", w)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width = w
	return nil
}

// EraserRadius is the hit radius of the eraser in page units.
func (e *Engine) EraserRadius() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width * EraserRadiusFactor
}

// BeginCommentPlacement stores comment text until the next click places it.
func (e *Engine) BeginCommentPlacement(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return overlay.ErrEmptyComment
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.g != nil {
		return ErrGestureActive
	}
	e.pending = &text
	return nil
}

// CancelCommentPlacement discards a pending comment. It reports whether one
// was pending.
func (e *Engine) CancelCommentPlacement() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	had := e.pending != nil
	e.pending = nil
	return had
}

// Cancel drops the active gesture and any pending comment without
// committing.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.g = nil
	e.pending = nil
}

// Handle feeds one pointer event through the state machine.
func (e *Engine) Handle(ev Event) (Update, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return Update{State: e.stateLocked()}, ErrCanvasNotReady
	}

	p := e.mapper.ScreenToPage(ev.X, ev.Y, e.bounds)

	switch ev.Kind {
	case PointerDown:
		return e.pointerDown(ev, p)
	case PointerMove:
		return e.pointerMove(p)
	case PointerUp:
		return e.pointerUp(p)
	case PointerLeave:
		return e.pointerLeave(p)
	default:
		return Update{State: e.stateLocked()}, fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

func (e *Engine) idle() Update {
	return Update{State: e.stateLocked(), Page: e.page}
}

func (e *Engine) pointerDown(ev Event, p overlay.Point) (Update, error) {
	if e.g != nil {
		return Update{State: e.g.state, Page: e.page}, ErrGestureActive
	}

	if e.pending != nil {
		return e.placeComment(p)
	}

	switch ev.Target {
	case TargetImageHandle:
		return e.beginResize(ev.TargetID, p), nil
	case TargetImageBody:
		if e.tool == ToolEraser {
			return e.deleteImage(ev.TargetID)
		}
		return e.beginImageDrag(ev.TargetID, p), nil
	case TargetCommentPin:
		return e.beginCommentDrag(ev.TargetID, p), nil
	}

	if e.tool == ToolNone {
		return e.idle(), nil
	}
	e.g = &gesture{
		state: StateActiveStroke,
		page:  e.page,
		tool:  e.tool,
		start: p,
		path:  []overlay.Point{p},
	}
	return Update{State: StateActiveStroke, Page: e.page, Path: e.g.livePath()}, nil
}

func (e *Engine) placeComment(p overlay.Point) (Update, error) {
	pin, err := e.model.AddComment(overlay.CommentPin{
		PageNumber: e.page,
		Text:       *e.pending,
		X:          p.X,
		Y:          p.Y,
	})
	if err != nil {
		return e.idle(), err
	}
	e.pending = nil
	return Update{
		State:     StateIdle,
		Committed: true,
		Kind:      CommitCommentPlaced,
		Page:      e.page,
		Comment:   &pin,
	}, nil
}

func (e *Engine) deleteImage(id string) (Update, error) {
	ok, err := e.model.RemoveImage(e.page, id)
	if err != nil || !ok {
		return e.idle(), err
	}
	return Update{State: StateIdle, Committed: true, Kind: CommitImageDelete, Page: e.page}, nil
}

func (e *Engine) beginImageDrag(id string, p overlay.Point) Update {
	img, ok := e.model.Image(e.page, id)
	if !ok {
		return e.idle()
	}
	e.g = &gesture{
		state:    StateDraggingImage,
		page:     e.page,
		targetID: id,
		start:    p,
		origin:   overlay.Point{X: img.X, Y: img.Y},
		image:    img,
	}
	return Update{State: StateDraggingImage, Page: e.page, Image: &img}
}

func (e *Engine) beginResize(id string, p overlay.Point) Update {
	img, ok := e.model.Image(e.page, id)
	if !ok {
		return e.idle()
	}
	nw, nh := naturalSize(img)
	w, h := img.ResolvedSize(nw, nh)
	e.g = &gesture{
		state:      StateResizingImage,
		page:       e.page,
		targetID:   id,
		start:      p,
		origin:     overlay.Point{X: img.X, Y: img.Y},
		startWidth: w,
		aspect:     h / w,
		autoHeight: img.IsAutoHeight(),
		image:      img,
	}
	return Update{State: StateResizingImage, Page: e.page, Image: &img}
}

func (e *Engine) beginCommentDrag(id string, p overlay.Point) Update {
	pin, ok := e.model.Comment(id)
	if !ok || pin.PageNumber != e.page {
		return e.idle()
	}
	e.g = &gesture{
		state:    StateDraggingComment,
		page:     e.page,
		targetID: id,
		start:    p,
		origin:   overlay.Point{X: pin.X, Y: pin.Y},
		comment:  pin,
	}
	return Update{State: StateDraggingComment, Page: e.page, Comment: &pin}
}

func (e *Engine) pointerMove(p overlay.Point) (Update, error) {
	g := e.g
	if g == nil {
		return e.idle(), nil
	}

	u := Update{State: g.state, Page: g.page}
	switch g.state {
	case StateActiveStroke:
		g.appendPoint(p)
		u.Path = g.livePath()
		if g.tool == ToolEraser {
			u.ErasePreview = e.model.StrokesNear(g.page, g.path, e.width*EraserRadiusFactor)
		}
	case StateDraggingImage:
		dx, dy := g.drag(p)
		g.image.X, g.image.Y = g.origin.X+dx, g.origin.Y+dy
		img := g.image
		u.Image = &img
	case StateResizingImage:
		g.resize(p)
		img := g.image
		u.Image = &img
	case StateDraggingComment:
		dx, dy := g.drag(p)
		g.comment.X, g.comment.Y = g.origin.X+dx, g.origin.Y+dy
		pin := g.comment
		u.Comment = &pin
	}
	return u, nil
}

func (e *Engine) pointerUp(p overlay.Point) (Update, error) {
	g := e.g
	if g == nil {
		return e.idle(), nil
	}
	if g.state == StateActiveStroke && p != g.path[len(g.path)-1] {
		g.appendPoint(p)
	}
	e.g = nil

	switch g.state {
	case StateActiveStroke:
		return e.commitPath(g)
	case StateDraggingImage:
		if !g.moved {
			return e.idle(), nil
		}
		ok, err := e.model.MoveOrResizeImage(g.page, g.targetID, overlay.ImagePatch{
			X: overlay.Float(g.image.X),
			Y: overlay.Float(g.image.Y),
		})
		return e.imageCommit(g, CommitImageMove, ok, err)
	case StateResizingImage:
		if !g.moved {
			return e.idle(), nil
		}
		ok, err := e.model.MoveOrResizeImage(g.page, g.targetID, overlay.ImagePatch{
			Width:  overlay.Float(g.image.Width),
			Height: overlay.Float(g.image.Height),
		})
		return e.imageCommit(g, CommitImageResize, ok, err)
	case StateDraggingComment:
		if !g.moved || !e.model.UpdateCommentPosition(g.targetID, g.comment.X, g.comment.Y) {
			return e.idle(), nil
		}
		pin, _ := e.model.Comment(g.targetID)
		return Update{State: e.stateLocked(), Committed: true, Kind: CommitCommentMove, Page: g.page, Comment: &pin}, nil
	}
	return e.idle(), nil
}

// pointerLeave ends a stroke like pointer-up does. Drags and resizes keep
// going until the pointer is released.
func (e *Engine) pointerLeave(p overlay.Point) (Update, error) {
	if e.g == nil || e.g.state != StateActiveStroke {
		return Update{State: e.stateLocked(), Page: e.page}, nil
	}
	return e.pointerUp(p)
}

func (e *Engine) commitPath(g *gesture) (Update, error) {
	if len(g.path) < 2 {
		return e.idle(), nil
	}

	if g.tool == ToolEraser {
		removed, err := e.model.EraseAlong(g.page, g.path, e.width*EraserRadiusFactor)
		if err != nil {
			return e.idle(), err
		}
		return Update{
			State:     e.stateLocked(),
			Committed: removed > 0,
			Kind:      CommitErase,
			Page:      g.page,
			Removed:   removed,
		}, nil
	}

	s, err := e.model.CommitStroke(g.page, overlay.Stroke{
		Points:      g.path,
		Color:       e.color,
		StrokeWidth: e.width,
	})
	if err != nil {
		return e.idle(), err
	}
	return Update{
		State:     e.stateLocked(),
		Committed: true,
		Kind:      CommitStroke,
		Page:      g.page,
		Stroke:    &s,
	}, nil
}

func (e *Engine) imageCommit(g *gesture, kind CommitKind, ok bool, err error) (Update, error) {
	if err != nil || !ok {
		return e.idle(), err
	}
	img, _ := e.model.Image(g.page, g.targetID)
	return Update{State: e.stateLocked(), Committed: true, Kind: kind, Page: g.page, Image: &img}, nil
}

func naturalSize(img overlay.PlacedImage) (float64, float64) {
	w, h, err := overlay.NaturalSize(img.Source)
	if err != nil {
		return 0, 0
	}
	return float64(w), float64(h)
}
