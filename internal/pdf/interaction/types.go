// Package interaction turns pointer events on a rendered page into committed
// overlay mutations. One Engine serves one pointer device; it keeps at most
// one gesture alive at a time and commits only on pointer-up, so nothing
// half-drawn ever reaches the overlay model or the store.
package interaction

import (
	"errors"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

var (
	// ErrGestureActive rejects a pointer-down that would start a gesture
	// while another one is still in progress.
	ErrGestureActive = errors.New("another gesture is already active")
	// ErrCanvasNotReady rejects events while the page is being re-rendered.
	ErrCanvasNotReady = errors.New("canvas is not ready")
)

// Tool is the armed drawing tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolHighlighter
	ToolEraser
)

func (t Tool) String() string {
	switch t {
	case ToolHighlighter:
		return "highlighter"
	case ToolEraser:
		return "eraser"
	default:
		return "none"
	}
}

// State is the engine's gesture state.
type State int

const (
	StateIdle State = iota
	StateActiveStroke
	StateDraggingImage
	StateResizingImage
	StateDraggingComment
	StateAwaitingCommentPlacement
)

func (s State) String() string {
	switch s {
	case StateActiveStroke:
		return "active_stroke"
	case StateDraggingImage:
		return "dragging_image"
	case StateResizingImage:
		return "resizing_image"
	case StateDraggingComment:
		return "dragging_comment"
	case StateAwaitingCommentPlacement:
		return "awaiting_comment_placement"
	default:
		return "idle"
	}
}

// EventKind is the pointer event type.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

// TargetKind identifies what the pointer went down on.
type TargetKind int

const (
	TargetCanvas TargetKind = iota
	TargetImageBody
	TargetImageHandle
	TargetCommentPin
)

// Event is one pointer event. X and Y are screen coordinates relative to the
// same origin as the canvas bounds given to the engine.
type Event struct {
	Kind     EventKind
	X        float64
	Y        float64
	Target   TargetKind
	TargetID string
}

// CommitKind names the mutation an Update committed.
type CommitKind string

const (
	CommitNone          CommitKind = ""
	CommitStroke        CommitKind = "stroke"
	CommitErase         CommitKind = "erase"
	CommitImageMove     CommitKind = "image_move"
	CommitImageResize   CommitKind = "image_resize"
	CommitImageDelete   CommitKind = "image_delete"
	CommitCommentMove   CommitKind = "comment_move"
	CommitCommentPlaced CommitKind = "comment_placed"
)

// Update reports what an event did. Committed is set when the overlay model
// changed; the remaining fields carry whatever the shell needs to redraw the
// in-progress gesture.
type Update struct {
	State     State
	Committed bool
	Kind      CommitKind
	Page      int

	// Path is the live stroke path in page units.
	Path []overlay.Point
	// ErasePreview lists the strokes the current eraser path would remove.
	ErasePreview []string
	// Removed counts strokes removed by a committed erase.
	Removed int

	Stroke  *overlay.Stroke
	Image   *overlay.PlacedImage
	Comment *overlay.CommentPin
}
