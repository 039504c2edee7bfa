// Package overlay holds the annotation layer that sits on top of a PDF's
// native content: freehand strokes, placed images and comment pins, grouped
// per page, plus the single-owner Model through which they change.
package overlay

import (
	"fmt"
	"time"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/geometry"
)

// Point is a position in page units with a top-left origin.
type Point = geometry.Point

// HeightAuto marks a PlacedImage whose height follows the image's natural
// aspect ratio at the current width.
const HeightAuto = 0

// Defaults for newly created items.
const (
	DefaultStrokeWidth = 10.0
	DefaultImageX      = 100.0
	DefaultImageY      = 100.0
	MaxInitialWidth    = 300.0
	MinImageWidth      = 20.0
)

// Stroke is one committed freehand highlight. Strokes are never edited in
// place; erasing removes the whole stroke.
type Stroke struct {
	ID          string    `json:"id"`
	PageNumber  int       `json:"pageNumber"`
	Points      []Point   `json:"points"`
	Color       Color     `json:"color"`
	StrokeWidth float64   `json:"size"`
	CreatedAt   time.Time `json:"timestamp"`
}

// PlacedImage is a raster dropped onto a page.
type PlacedImage struct {
	ID          string  `json:"id"`
	PageNumber  int     `json:"pageNumber"`
	Source      []byte  `json:"src"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ScaleFactor float64 `json:"scale"`
}

// IsAutoHeight reports whether the height is derived from the aspect ratio.
func (img PlacedImage) IsAutoHeight() bool {
	return img.Height <= HeightAuto
}

// ResolvedSize returns the width and height to lay the image out with.
// Missing widths default to 100 units and an automatic height follows the
// intrinsic aspect ratio of naturalW x naturalH.
func (img PlacedImage) ResolvedSize(naturalW, naturalH float64) (float64, float64) {
	w := img.Width
	if w <= 0 {
		w = 100
	}
	h := img.Height
	if h <= 0 {
		if naturalW > 0 && naturalH > 0 {
			h = w * naturalH / naturalW
		} else {
			h = w
		}
	}
	return w, h
}

// CommentPin is a note anchored at a point on a page.
type CommentPin struct {
	ID         string    `json:"id"`
	PageNumber int       `json:"pageNumber"`
	Text       string    `json:"text"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Bundle is the complete overlay of one document. It is what gets persisted
// under the document fingerprint.
type Bundle struct {
	Fingerprint   string                `json:"fingerprint"`
	StrokesByPage map[int][]Stroke      `json:"annotations"`
	ImagesByPage  map[int][]PlacedImage `json:"images"`
	Comments      []CommentPin          `json:"comments"`
	UpdatedAt     time.Time             `json:"lastUpdated"`
}

// NewBundle returns an empty bundle for the given fingerprint.
func NewBundle(fingerprint string) *Bundle {
	return &Bundle{
		Fingerprint:   fingerprint,
		StrokesByPage: make(map[int][]Stroke),
		ImagesByPage:  make(map[int][]PlacedImage),
		Comments:      make([]CommentPin, 0),
	}
}

// Normalize replaces nil collections with empty ones and drops pages whose
// slices are empty, so that equal overlays compare equal.
func (b *Bundle) Normalize() {
	if b.StrokesByPage == nil {
		b.StrokesByPage = make(map[int][]Stroke)
	}
	if b.ImagesByPage == nil {
		b.ImagesByPage = make(map[int][]PlacedImage)
	}
	if b.Comments == nil {
		b.Comments = make([]CommentPin, 0)
	}
	for page, strokes := range b.StrokesByPage {
		if len(strokes) == 0 {
			delete(b.StrokesByPage, page)
		}
	}
	for page, images := range b.ImagesByPage {
		if len(images) == 0 {
			delete(b.ImagesByPage, page)
		}
	}
}

// IsEmpty reports whether the bundle has no overlay items.
func (b *Bundle) IsEmpty() bool {
	for _, s := range b.StrokesByPage {
		if len(s) > 0 {
			return false
		}
	}
	for _, i := range b.ImagesByPage {
		if len(i) > 0 {
			return false
		}
	}
	return len(b.Comments) == 0
}

// Counts returns the number of strokes, images and comments.
func (b *Bundle) Counts() (strokes, images, comments int) {
	for _, s := range b.StrokesByPage {
		strokes += len(s)
	}
	for _, i := range b.ImagesByPage {
		images += len(i)
	}
	return strokes, images, len(b.Comments)
}

// Validate checks that every item sits on a page in [1, pageCount].
func (b *Bundle) Validate(pageCount int) error {
	check := func(kind, id string, page int) error {
		if page < 1 || (pageCount > 0 && page > pageCount) {
			return fmt.Errorf("%s %s: %w: %d (document has %d pages)", kind, id, ErrInvalidPage, page, pageCount)
		}
		return nil
	}
	for page, strokes := range b.StrokesByPage {
		for _, s := range strokes {
			if s.PageNumber != page {
				return fmt.Errorf("stroke %s: filed under page %d but belongs to page %d", s.ID, page, s.PageNumber)
			}
			if err := check("stroke", s.ID, s.PageNumber); err != nil {
				return err
			}
		}
	}
	for page, images := range b.ImagesByPage {
		for _, img := range images {
			if img.PageNumber != page {
				return fmt.Errorf("image %s: filed under page %d but belongs to page %d", img.ID, page, img.PageNumber)
			}
			if err := check("image", img.ID, img.PageNumber); err != nil {
				return err
			}
		}
	}
	for _, c := range b.Comments {
		if err := check("comment", c.ID, c.PageNumber); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the bundle.
func (b *Bundle) Clone() *Bundle {
	out := &Bundle{
		Fingerprint:   b.Fingerprint,
		StrokesByPage: make(map[int][]Stroke, len(b.StrokesByPage)),
		ImagesByPage:  make(map[int][]PlacedImage, len(b.ImagesByPage)),
		Comments:      make([]CommentPin, len(b.Comments)),
		UpdatedAt:     b.UpdatedAt,
	}
	for page, strokes := range b.StrokesByPage {
		out.StrokesByPage[page] = cloneStrokes(strokes)
	}
	for page, images := range b.ImagesByPage {
		out.ImagesByPage[page] = cloneImages(images)
	}
	copy(out.Comments, b.Comments)
	return out
}

func cloneStrokes(in []Stroke) []Stroke {
	out := make([]Stroke, len(in))
	for i, s := range in {
		s.Points = append([]Point(nil), s.Points...)
		out[i] = s
	}
	return out
}

func cloneImages(in []PlacedImage) []PlacedImage {
	out := make([]PlacedImage, len(in))
	copy(out, in)
	return out
}
