package overlay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
)

var (
	ErrInvalidPage  = errors.New("invalid page number")
	ErrEmptyStroke  = errors.New("stroke has no points")
	ErrEmptyComment = errors.New("comment text is empty")
	ErrEmptyImage   = errors.New("image payload is empty")
)

// ImagePatch carries the fields of a move or resize. Nil fields are left
// unchanged.
type ImagePatch struct {
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
}

// Model owns the Bundle of the open document. Every mutation goes through
// one of its methods under a single lock, so a caller mirroring the bundle
// after each call never observes a half-applied change.
//
// Mutators report whether the bundle changed. Unknown ids are a no-op, not
// an error; only page numbers outside [1, PageCount] are rejected.
type Model struct {
	mu        sync.RWMutex
	bundle    *Bundle
	pageCount int
	now       func() time.Time
}

// NewModel wraps b for a document with pageCount pages. A nil bundle starts
// empty.
func NewModel(b *Bundle, pageCount int) *Model {
	if b == nil {
		b = NewBundle("")
	}
	b = b.Clone()
	b.Normalize()
	return &Model{
		bundle:    b,
		pageCount: pageCount,
		now:       func() time.Time { return time.Now().UTC().Round(0) },
	}
}

// PageCount returns the number of pages of the document.
func (m *Model) PageCount() int {
	return m.pageCount
}

// Fingerprint returns the persistence key the bundle belongs to.
func (m *Model) Fingerprint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bundle.Fingerprint
}

// Snapshot returns a deep copy of the current bundle.
func (m *Model) Snapshot() *Bundle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bundle.Clone()
}

// Replace swaps in a new bundle, for example after the store was cleared.
func (m *Model) Replace(b *Bundle) error {
	if b == nil {
		return fmt.Errorf("bundle cannot be nil")
	}
	if err := b.Validate(m.pageCount); err != nil {
		return err
	}
	b = b.Clone()
	b.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundle = b
	return nil
}

func (m *Model) checkPage(page int) error {
	if page < 1 || (m.pageCount > 0 && page > m.pageCount) {
		return fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, page, m.pageCount)
	}
	return nil
}

func (m *Model) touch() {
	m.bundle.UpdatedAt = m.now()
}

// StrokesForPage returns the strokes of a page in insertion order.
func (m *Model) StrokesForPage(page int) []Stroke {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneStrokes(m.bundle.StrokesByPage[page])
}

// ImagesForPage returns the images of a page in insertion order.
func (m *Model) ImagesForPage(page int) []PlacedImage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneImages(m.bundle.ImagesByPage[page])
}

// CommentsForPage returns the comments anchored on a page in insertion order.
func (m *Model) CommentsForPage(page int) []CommentPin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CommentPin, 0)
	for _, c := range m.bundle.Comments {
		if c.PageNumber == page {
			out = append(out, c)
		}
	}
	return out
}

// Comments returns every comment of the document.
func (m *Model) Comments() []CommentPin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]CommentPin(nil), m.bundle.Comments...)
}

// Image looks up one image on a page.
func (m *Model) Image(page int, id string) (PlacedImage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, img := range m.bundle.ImagesByPage[page] {
		if img.ID == id {
			return img, true
		}
	}
	return PlacedImage{}, false
}

// Comment looks up one comment.
func (m *Model) Comment(id string) (CommentPin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.bundle.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return CommentPin{}, false
}

// CommitStroke appends a stroke to a page. Missing ids and timestamps are
// filled in; the stored stroke is returned.
func (m *Model) CommitStroke(page int, s Stroke) (Stroke, error) {
	if err := m.checkPage(page); err != nil {
		return Stroke{}, err
	}
	if len(s.Points) == 0 {
		return Stroke{}, ErrEmptyStroke
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s.PageNumber = page
	s.Points = append([]Point(nil), s.Points...)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = DefaultStrokeWidth
	}
	m.bundle.StrokesByPage[page] = append(m.bundle.StrokesByPage[page], s)
	m.touch()
	return s, nil
}

// EraseNear removes every stroke on the page with at least one point within
// radius of point, and returns how many were removed.
func (m *Model) EraseNear(page int, point Point, radius float64) (int, error) {
	return m.EraseAlong(page, []Point{point}, radius)
}

// EraseAlong is EraseNear applied to every point of an eraser path in one
// mutation.
func (m *Model) EraseAlong(page int, path []Point, radius float64) (int, error) {
	if err := m.checkPage(page); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	strokes := m.bundle.StrokesByPage[page]
	kept := make([]Stroke, 0, len(strokes))
	for _, s := range strokes {
		if !touches(s, path, radius) {
			kept = append(kept, s)
		}
	}
	removed := len(strokes) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if len(kept) == 0 {
		delete(m.bundle.StrokesByPage, page)
	} else {
		m.bundle.StrokesByPage[page] = kept
	}
	m.touch()
	return removed, nil
}

// StrokesNear returns the ids of strokes an eraser path would remove,
// without removing them.
func (m *Model) StrokesNear(page int, path []Point, radius float64) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0)
	for _, s := range m.bundle.StrokesByPage[page] {
		if touches(s, path, radius) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func touches(s Stroke, path []Point, radius float64) bool {
	for _, p := range path {
		for _, q := range s.Points {
			if geometry.Within(p, q, radius) {
				return true
			}
		}
	}
	return false
}

// UpsertImage adds an image to a page, or replaces the image with the same
// id.
func (m *Model) UpsertImage(page int, img PlacedImage) (PlacedImage, error) {
	if err := m.checkPage(page); err != nil {
		return PlacedImage{}, err
	}
	if len(img.Source) == 0 {
		return PlacedImage{}, ErrEmptyImage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	img.PageNumber = page
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.ScaleFactor <= 0 {
		img.ScaleFactor = 1
	}
	images := m.bundle.ImagesByPage[page]
	for i := range images {
		if images[i].ID == img.ID {
			images[i] = img
			m.touch()
			return img, nil
		}
	}
	m.bundle.ImagesByPage[page] = append(images, img)
	m.touch()
	return img, nil
}

// RemoveImage deletes an image from a page.
func (m *Model) RemoveImage(page int, id string) (bool, error) {
	if err := m.checkPage(page); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	images := m.bundle.ImagesByPage[page]
	for i := range images {
		if images[i].ID != id {
			continue
		}
		images = append(images[:i:i], images[i+1:]...)
		if len(images) == 0 {
			delete(m.bundle.ImagesByPage, page)
		} else {
			m.bundle.ImagesByPage[page] = images
		}
		m.touch()
		return true, nil
	}
	return false, nil
}

// MoveOrResizeImage applies a patch to one image. Widths below
// MinImageWidth are clamped.
func (m *Model) MoveOrResizeImage(page int, id string, patch ImagePatch) (bool, error) {
	if err := m.checkPage(page); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	images := m.bundle.ImagesByPage[page]
	for i := range images {
		if images[i].ID != id {
			continue
		}
		img := &images[i]
		if patch.X != nil {
			img.X = *patch.X
		}
		if patch.Y != nil {
			img.Y = *patch.Y
		}
		if patch.Width != nil {
			img.Width = max(*patch.Width, MinImageWidth)
		}
		if patch.Height != nil {
			img.Height = *patch.Height
		}
		m.touch()
		return true, nil
	}
	return false, nil
}

// AddComment appends a placed comment pin.
func (m *Model) AddComment(pin CommentPin) (CommentPin, error) {
	if err := m.checkPage(pin.PageNumber); err != nil {
		return CommentPin{}, err
	}
	pin.Text = strings.TrimSpace(pin.Text)
	if pin.Text == "" {
		return CommentPin{}, ErrEmptyComment
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if pin.ID == "" {
		pin.ID = uuid.NewString()
	}
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = m.now()
	}
	m.bundle.Comments = append(m.bundle.Comments, pin)
	m.touch()
	return pin, nil
}

// UpdateCommentPosition moves a comment pin.
func (m *Model) UpdateCommentPosition(id string, x, y float64) bool {
	return m.updateComment(id, func(c *CommentPin) {
		c.X, c.Y = x, y
	})
}

// ToggleResolved flips the resolved flag of a comment.
func (m *Model) ToggleResolved(id string) bool {
	return m.updateComment(id, func(c *CommentPin) {
		c.Resolved = !c.Resolved
	})
}

func (m *Model) updateComment(id string, fn func(*CommentPin)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bundle.Comments {
		if m.bundle.Comments[i].ID == id {
			fn(&m.bundle.Comments[i])
			m.touch()
			return true
		}
	}
	return false
}

// DeleteComment removes a comment.
func (m *Model) DeleteComment(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bundle.Comments {
		if m.bundle.Comments[i].ID == id {
			m.bundle.Comments = append(m.bundle.Comments[:i:i], m.bundle.Comments[i+1:]...)
			m.touch()
			return true
		}
	}
	return false
}

// Float returns a pointer to v, for building ImagePatch values.
func Float(v float64) *float64 {
	return &v
}
