package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Kind classifies annotator failures by how far they propagate.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInput covers malformed PDF bytes and unsupported image payloads.
	KindInput
	// KindPersistence covers storage quota and serialization failures.
	KindPersistence
	// KindTransientRender covers a single page failing to render.
	KindTransientRender
	// KindPartialExport covers one overlay item failing to embed on export.
	KindPartialExport
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "INPUT"
	case KindPersistence:
		return "PERSISTENCE"
	case KindTransientRender:
		return "TRANSIENT_RENDER"
	case KindPartialExport:
		return "PARTIAL_EXPORT"
	default:
		return "UNKNOWN"
	}
}

// IsFatal reports whether an error of this kind ends the document session.
// Only input errors on the root document are fatal; everything else is
// isolated to the smallest unit.
func (k Kind) IsFatal() bool {
	return k == KindInput
}

// AnnotatorError carries the failure kind plus enough context to tell the
// user which page or item it concerns.
type AnnotatorError struct {
	Kind      Kind      `json:"kind"`
	Op        string    `json:"op"`
	Page      int       `json:"page,omitempty"`
	ItemID    string    `json:"item_id,omitempty"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface
func (e *AnnotatorError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	if e.Page > 0 {
		msg += fmt.Sprintf(" page %d", e.Page)
	}
	if e.ItemID != "" {
		msg += fmt.Sprintf(" item %s", e.ItemID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AnnotatorError) Unwrap() error {
	return e.Err
}

// WithPage adds page number information to an existing error
func (e *AnnotatorError) WithPage(page int) *AnnotatorError {
	e.Page = page
	return e
}

// WithItem adds the overlay item id to an existing error
func (e *AnnotatorError) WithItem(id string) *AnnotatorError {
	e.ItemID = id
	return e
}

// New creates an AnnotatorError of the given kind.
func New(kind Kind, op string, err error) *AnnotatorError {
	return &AnnotatorError{
		Kind:      kind,
		Op:        op,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Input wraps err as an input error.
func Input(op string, err error) *AnnotatorError {
	return New(KindInput, op, err)
}

// Persistence wraps err as a persistence error.
func Persistence(op string, err error) *AnnotatorError {
	return New(KindPersistence, op, err)
}

// TransientRender wraps err as a render error for one page.
func TransientRender(op string, page int, err error) *AnnotatorError {
	return New(KindTransientRender, op, err).WithPage(page)
}

// PartialExport wraps err as a per-item export failure.
func PartialExport(op string, page int, itemID string, err error) *AnnotatorError {
	return New(KindPartialExport, op, err).WithPage(page).WithItem(itemID)
}

// KindOf returns the kind of the first AnnotatorError in err's chain.
func KindOf(err error) Kind {
	var ae *AnnotatorError
	if stderrors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries an AnnotatorError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Collection accumulates isolated failures of a single operation, such as
// the per-item errors of one export run.
type Collection struct {
	Errors []*AnnotatorError `json:"errors"`
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{Errors: make([]*AnnotatorError, 0)}
}

// Add appends an error to the collection
func (c *Collection) Add(err *AnnotatorError) {
	c.Errors = append(c.Errors, err)
}

// Len returns the number of collected errors
func (c *Collection) Len() int {
	return len(c.Errors)
}

// ForPage returns the errors recorded for one page
func (c *Collection) ForPage(page int) []*AnnotatorError {
	out := make([]*AnnotatorError, 0)
	for _, err := range c.Errors {
		if err.Page == page {
			out = append(out, err)
		}
	}
	return out
}

// Err joins the collected errors, or returns nil when there are none.
func (c *Collection) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(c.Errors))
	for i, err := range c.Errors {
		errs[i] = err
	}
	return stderrors.Join(errs...)
}

// Summary returns a text summary of the collected errors
func (c *Collection) Summary() string {
	if len(c.Errors) == 0 {
		return "No errors"
	}
	return fmt.Sprintf("%d item(s) skipped", len(c.Errors))
}
