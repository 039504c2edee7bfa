package pdf

import (
	"context"
	"errors"
	"fmt"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/interaction"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// The methods below drive the interaction engine with synthesized pointer
// events, for callers that think in page coordinates rather than screen
// positions. Each one holds the gesture lock for the whole sequence so that
// scripted and live gestures never interleave.

// ensurePage renders page at the current scale unless it is already the
// page the engine is bound to.
func (d *Document) ensurePage(ctx context.Context, page int) error {
	if d.engine.Ready() && d.engine.Page() == page {
		return nil
	}
	_, err := d.Render(ctx, page, d.Scale())
	return err
}

// screen converts a page point to the screen position the engine expects
// for the current frame.
func (d *Document) screen(p overlay.Point) (float64, float64) {
	f := d.Frame()
	c := f.Mapper.ToCanvas(p)
	return c.X, c.Y
}

func (d *Document) event(kind interaction.EventKind, p overlay.Point, target interaction.TargetKind, id string) interaction.Event {
	x, y := d.screen(p)
	return interaction.Event{Kind: kind, X: x, Y: y, Target: target, TargetID: id}
}

// drag plays down, one move per intermediate point, and up.
func (d *Document) drag(path []overlay.Point, target interaction.TargetKind, id string) (interaction.Update, error) {
	u, err := d.applyLocked(d.event(interaction.PointerDown, path[0], target, id))
	if err != nil {
		return u, err
	}
	for _, p := range path[1:] {
		if u, err = d.applyLocked(d.event(interaction.PointerMove, p, target, id)); err != nil {
			return u, err
		}
	}
	return d.applyLocked(d.event(interaction.PointerUp, path[len(path)-1], target, id))
}

// Highlight draws a stroke through points on page. An empty color or a
// non-positive width keeps the current setting.
func (d *Document) Highlight(ctx context.Context, page int, points []overlay.Point, color string, width float64) (interaction.Update, error) {
	if len(points) < 2 {
		return interaction.Update{}, pdferrors.Input("highlight", errors.New("a highlight needs at least two points"))
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(ctx, page); err != nil {
		return interaction.Update{}, err
	}
	if color == "" {
		if err := d.engine.SetTool(interaction.ToolHighlighter); err != nil {
			return interaction.Update{}, err
		}
	} else if err := d.engine.SelectColor(color); err != nil {
		return interaction.Update{}, pdferrors.Input("highlight", err)
	}
	if d.engine.Tool() != interaction.ToolHighlighter {
		return interaction.Update{}, pdferrors.Input("highlight", fmt.Errorf("color %q selects the eraser", color))
	}
	if width > 0 {
		if err := d.engine.SetStrokeWidth(width); err != nil {
			return interaction.Update{}, pdferrors.Input("highlight", err)
		}
	}
	return d.drag(points, interaction.TargetCanvas, "")
}

// Erase sweeps the eraser along points on page. A single point erases
// around that point.
func (d *Document) Erase(ctx context.Context, page int, points []overlay.Point) (interaction.Update, error) {
	if len(points) == 0 {
		return interaction.Update{}, pdferrors.Input("erase", errors.New("no eraser points given"))
	}
	if len(points) == 1 {
		points = []overlay.Point{points[0], points[0]}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(ctx, page); err != nil {
		return interaction.Update{}, err
	}
	if err := d.engine.SetTool(interaction.ToolEraser); err != nil {
		return interaction.Update{}, err
	}
	return d.drag(points, interaction.TargetCanvas, "")
}

// AddImage places an image on page. Nil position and width fall back to the
// drop defaults; the height always follows the aspect ratio.
func (d *Document) AddImage(page int, src []byte, x, y, width *float64) (overlay.PlacedImage, error) {
	if overlay.DetectFormat(src) == overlay.FormatUnknown {
		return overlay.PlacedImage{}, pdferrors.Input("add image", errors.New("only PNG and JPEG images are supported"))
	}
	img, err := overlay.NewPlacedImage(page, src)
	if err != nil {
		return overlay.PlacedImage{}, pdferrors.Input("add image", err)
	}
	if x != nil {
		img.X = *x
	}
	if y != nil {
		img.Y = *y
	}
	if width != nil {
		img.Width = max(*width, overlay.MinImageWidth)
	}

	var placed overlay.PlacedImage
	_, err = d.mutate("add_image", func() (bool, error) {
		var err error
		placed, err = d.model.UpsertImage(page, img)
		return err == nil, err
	})
	if errors.Is(err, overlay.ErrInvalidPage) {
		return placed, pdferrors.Input("add image", err)
	}
	return placed, err
}

// MoveImage drags an image so its top-left corner lands on (x, y).
func (d *Document) MoveImage(ctx context.Context, page int, id string, x, y float64) (interaction.Update, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(ctx, page); err != nil {
		return interaction.Update{}, err
	}
	img, ok := d.model.Image(page, id)
	if !ok {
		return interaction.Update{}, fmt.Errorf("image %s not found on page %d", id, page)
	}
	// A click on an image body with the eraser armed deletes it.
	if d.engine.Tool() == interaction.ToolEraser {
		if err := d.engine.SetTool(interaction.ToolNone); err != nil {
			return interaction.Update{}, err
		}
		defer func() { _ = d.engine.SetTool(interaction.ToolEraser) }()
	}
	from := overlay.Point{X: img.X, Y: img.Y}
	to := overlay.Point{X: x, Y: y}
	return d.drag([]overlay.Point{from, to}, interaction.TargetImageBody, id)
}

// ResizeImage drags an image's corner handle until it is width units wide.
func (d *Document) ResizeImage(ctx context.Context, page int, id string, width float64) (interaction.Update, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(ctx, page); err != nil {
		return interaction.Update{}, err
	}
	img, ok := d.model.Image(page, id)
	if !ok {
		return interaction.Update{}, fmt.Errorf("image %s not found on page %d", id, page)
	}
	nw, nh, _ := overlay.NaturalSize(img.Source)
	w, h := img.ResolvedSize(float64(nw), float64(nh))
	from := overlay.Point{X: img.X + w, Y: img.Y + h}
	to := overlay.Point{X: img.X + width, Y: from.Y}
	return d.drag([]overlay.Point{from, to}, interaction.TargetImageHandle, id)
}

// RemoveImage deletes an image from page.
func (d *Document) RemoveImage(page int, id string) (bool, error) {
	return d.mutate("remove_image", func() (bool, error) {
		return d.model.RemoveImage(page, id)
	})
}

// AddComment places a comment pin at (x, y) on page the way a user does:
// the text is captured first and the next click anchors it.
func (d *Document) AddComment(ctx context.Context, page int, text string, x, y float64) (overlay.CommentPin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(ctx, page); err != nil {
		return overlay.CommentPin{}, err
	}
	if err := d.engine.BeginCommentPlacement(text); err != nil {
		return overlay.CommentPin{}, pdferrors.Input("add comment", err)
	}
	p := overlay.Point{X: x, Y: y}
	u, err := d.applyLocked(d.event(interaction.PointerDown, p, interaction.TargetCanvas, ""))
	if u.Comment == nil {
		d.engine.CancelCommentPlacement()
		if err == nil {
			err = errors.New("comment was not placed")
		}
		return overlay.CommentPin{}, err
	}
	if _, upErr := d.applyLocked(d.event(interaction.PointerUp, p, interaction.TargetCanvas, "")); upErr != nil && err == nil {
		err = upErr
	}
	return *u.Comment, err
}

// MoveComment drags a comment pin to (x, y) on its page.
func (d *Document) MoveComment(ctx context.Context, id string, x, y float64) (interaction.Update, error) {
	pin, ok := d.model.Comment(id)
	if !ok {
		return interaction.Update{}, fmt.Errorf("comment %s not found", id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensurePage(ctx, pin.PageNumber); err != nil {
		return interaction.Update{}, err
	}
	from := overlay.Point{X: pin.X, Y: pin.Y}
	return d.drag([]overlay.Point{from, {X: x, Y: y}}, interaction.TargetCommentPin, id)
}

// ToggleComment flips a comment between open and resolved.
func (d *Document) ToggleComment(id string) (bool, error) {
	return d.mutate("toggle_comment", func() (bool, error) {
		return d.model.ToggleResolved(id), nil
	})
}

// DeleteComment removes a comment.
func (d *Document) DeleteComment(id string) (bool, error) {
	return d.mutate("delete_comment", func() (bool, error) {
		return d.model.DeleteComment(id), nil
	})
}
