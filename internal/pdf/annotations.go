package pdf

import (
	"context"
	"errors"
	"fmt"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/interaction"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/render"
)

// gestureResult turns an engine update into a tool result. A failed save
// is not fatal: the change stands in memory and is reported as a warning.
func gestureResult(doc *Document, u interaction.Update, err error) (*PDFGestureResult, error) {
	if err != nil && !pdferrors.IsKind(err, pdferrors.KindPersistence) {
		return nil, err
	}
	res := &PDFGestureResult{
		Fingerprint: string(doc.Fingerprint()),
		Page:        u.Page,
		Committed:   u.Committed,
		Kind:        string(u.Kind),
		Removed:     u.Removed,
	}
	switch {
	case u.Stroke != nil:
		res.ItemID = u.Stroke.ID
	case u.Image != nil:
		res.ItemID = u.Image.ID
	case u.Comment != nil:
		res.ItemID = u.Comment.ID
	}
	if err != nil {
		res.Warning = err.Error()
	}
	return res, nil
}

// RenderPage renders one page of an open document with its overlay. A zero
// scale keeps the document's current scale.
func (s *Service) RenderPage(ctx context.Context, req PDFRenderPageRequest) (*render.Frame, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	scale := req.Scale
	if scale == 0 {
		scale = doc.Scale()
	}
	return doc.Render(ctx, req.Page, scale)
}

// Highlight draws a freehand stroke.
func (s *Service) Highlight(ctx context.Context, req PDFHighlightRequest) (*PDFGestureResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	u, err := doc.Highlight(ctx, req.Page, req.Points, req.Color, req.Width)
	return gestureResult(doc, u, err)
}

// Erase sweeps the eraser along a path.
func (s *Service) Erase(ctx context.Context, req PDFEraseRequest) (*PDFGestureResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	u, err := doc.Erase(ctx, req.Page, req.Points)
	return gestureResult(doc, u, err)
}

// AddImage places an image read from the request payload or from a file in
// the configured directory.
func (s *Service) AddImage(_ context.Context, req PDFAddImageRequest) (*PDFGestureResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}

	var src []byte
	switch {
	case req.Data != "" && req.Path != "":
		return nil, pdferrors.Input("add image", errors.New("give either data or path, not both"))
	case req.Data != "":
		if src, err = overlay.DecodeDataURL(req.Data); err != nil {
			return nil, pdferrors.Input("add image", err)
		}
	case req.Path != "":
		if src, err = s.ReadImageFile(req.Path); err != nil {
			return nil, err
		}
	default:
		return nil, pdferrors.Input("add image", errors.New("data or path is required"))
	}

	img, err := doc.AddImage(req.Page, src, req.X, req.Y, req.Width)
	if err != nil && !pdferrors.IsKind(err, pdferrors.KindPersistence) {
		return nil, err
	}
	res := &PDFGestureResult{
		Fingerprint: string(doc.Fingerprint()),
		Page:        req.Page,
		Committed:   img.ID != "",
		Kind:        "image_add",
		ItemID:      img.ID,
	}
	if err != nil {
		res.Warning = err.Error()
	}
	return res, nil
}

// UpdateImage deletes, moves and then resizes an image, in that order of
// precedence. Moving takes the current position for an omitted coordinate.
func (s *Service) UpdateImage(ctx context.Context, req PDFImageRequest) (*PDFGestureResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, pdferrors.Input("update image", errors.New("image id is required"))
	}

	if req.Delete {
		removed, err := doc.RemoveImage(req.Page, req.ID)
		if err != nil && !pdferrors.IsKind(err, pdferrors.KindPersistence) {
			return nil, err
		}
		res := &PDFGestureResult{
			Fingerprint: string(doc.Fingerprint()),
			Page:        req.Page,
			Committed:   removed,
			Kind:        string(interaction.CommitImageDelete),
			ItemID:      req.ID,
		}
		if err != nil {
			res.Warning = err.Error()
		}
		return res, nil
	}

	img, ok := doc.Model().Image(req.Page, req.ID)
	if !ok {
		return nil, pdferrors.Input("update image", fmt.Errorf("image %s not found on page %d", req.ID, req.Page))
	}
	if req.X == nil && req.Y == nil && req.Width == nil {
		return nil, pdferrors.Input("update image", errors.New("nothing to update"))
	}

	var res *PDFGestureResult
	if req.X != nil || req.Y != nil {
		x, y := img.X, img.Y
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}
		u, err := doc.MoveImage(ctx, req.Page, req.ID, x, y)
		if res, err = gestureResult(doc, u, err); err != nil {
			return nil, err
		}
	}
	if req.Width != nil {
		u, err := doc.ResizeImage(ctx, req.Page, req.ID, *req.Width)
		resized, err := gestureResult(doc, u, err)
		if err != nil {
			return nil, err
		}
		if res != nil {
			resized.Committed = resized.Committed || res.Committed
			if resized.Warning == "" {
				resized.Warning = res.Warning
			}
		}
		res = resized
	}
	return res, nil
}

// AddComment places a comment pin.
func (s *Service) AddComment(ctx context.Context, req PDFAddCommentRequest) (*PDFGestureResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	pin, err := doc.AddComment(ctx, req.Page, req.Text, req.X, req.Y)
	if pin.ID == "" {
		return nil, err
	}
	return gestureResult(doc, interaction.Update{
		Committed: true,
		Kind:      interaction.CommitCommentPlaced,
		Page:      pin.PageNumber,
		Comment:   &pin,
	}, err)
}

// MoveComment drags a comment pin.
func (s *Service) MoveComment(ctx context.Context, req PDFMoveCommentRequest) (*PDFGestureResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	u, err := doc.MoveComment(ctx, req.ID, req.X, req.Y)
	if err != nil && !pdferrors.IsKind(err, pdferrors.KindPersistence) {
		return nil, pdferrors.Input("move comment", err)
	}
	return gestureResult(doc, u, err)
}

// ToggleComment flips a comment between open and resolved.
func (s *Service) ToggleComment(req PDFCommentRequest) (*PDFGestureResult, error) {
	return s.commentMutation(req, "comment_toggle", (*Document).ToggleComment)
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(req PDFCommentRequest) (*PDFGestureResult, error) {
	return s.commentMutation(req, "comment_delete", (*Document).DeleteComment)
}

func (s *Service) commentMutation(req PDFCommentRequest, kind string, fn func(*Document, string) (bool, error)) (*PDFGestureResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	pin, ok := doc.Model().Comment(req.ID)
	if !ok {
		return nil, pdferrors.Input(kind, fmt.Errorf("comment %s not found", req.ID))
	}
	changed, err := fn(doc, req.ID)
	if err != nil && !pdferrors.IsKind(err, pdferrors.KindPersistence) {
		return nil, err
	}
	res := &PDFGestureResult{
		Fingerprint: string(doc.Fingerprint()),
		Page:        pin.PageNumber,
		Committed:   changed,
		Kind:        kind,
		ItemID:      req.ID,
	}
	if err != nil {
		res.Warning = err.Error()
	}
	return res, nil
}
