package mcp

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf"
)

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func (s *Server) handlePDFOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return toolError(err)
	}

	doc, err := s.pdfService.OpenFile(pdf.PDFOpenRequest{Path: path})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatDocumentInfo(s.pdfService.Info(doc))), nil
}

func (s *Server) handlePDFRenderPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	page, err := requiredInt(request, "page")
	if err != nil {
		return toolError(err)
	}
	scale, err := optionalNumber(request, "scale")
	if err != nil {
		return toolError(err)
	}

	req := pdf.PDFRenderPageRequest{Fingerprint: fingerprint, Page: page}
	if scale != nil {
		req.Scale = *scale
	}
	frame, err := s.pdfService.RenderPage(ctx, req)
	if err != nil {
		return toolError(err)
	}
	png, err := frame.PNG()
	if err != nil {
		return toolError(err)
	}

	b := frame.Image.Bounds()
	text := fmt.Sprintf("Page %d at scale %g (%dx%d pixels, page %gx%g points)",
		frame.Page, frame.Scale, b.Dx(), b.Dy(), frame.Size.Width, frame.Size.Height)
	return mcp.NewToolResultImage(text, base64.StdEncoding.EncodeToString(png), "image/png"), nil
}

func (s *Server) handlePDFHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	page, err := requiredInt(request, "page")
	if err != nil {
		return toolError(err)
	}
	points, err := requiredPoints(request, "points")
	if err != nil {
		return toolError(err)
	}
	width, err := optionalNumber(request, "width")
	if err != nil {
		return toolError(err)
	}

	req := pdf.PDFHighlightRequest{
		Fingerprint: fingerprint,
		Page:        page,
		Points:      points,
		Color:       optionalString(request, "color"),
	}
	if width != nil {
		req.Width = *width
	}
	result, err := s.pdfService.Highlight(ctx, req)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Highlight", result)), nil
}

func (s *Server) handlePDFErase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	page, err := requiredInt(request, "page")
	if err != nil {
		return toolError(err)
	}
	points, err := requiredPoints(request, "points")
	if err != nil {
		return toolError(err)
	}

	result, err := s.pdfService.Erase(ctx, pdf.PDFEraseRequest{Fingerprint: fingerprint, Page: page, Points: points})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Erase", result)), nil
}

func (s *Server) handlePDFAddImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	page, err := requiredInt(request, "page")
	if err != nil {
		return toolError(err)
	}
	req := pdf.PDFAddImageRequest{
		Fingerprint: fingerprint,
		Page:        page,
		Data:        optionalString(request, "data"),
		Path:        optionalString(request, "path"),
	}
	if req.X, err = optionalNumber(request, "x"); err != nil {
		return toolError(err)
	}
	if req.Y, err = optionalNumber(request, "y"); err != nil {
		return toolError(err)
	}
	if req.Width, err = optionalNumber(request, "width"); err != nil {
		return toolError(err)
	}

	result, err := s.pdfService.AddImage(ctx, req)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Add image", result)), nil
}

func (s *Server) handlePDFUpdateImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	page, err := requiredInt(request, "page")
	if err != nil {
		return toolError(err)
	}
	id, err := request.RequireString("id")
	if err != nil {
		return toolError(err)
	}
	req := pdf.PDFImageRequest{
		Fingerprint: fingerprint,
		Page:        page,
		ID:          id,
		Delete:      optionalBool(request, "delete"),
	}
	if req.X, err = optionalNumber(request, "x"); err != nil {
		return toolError(err)
	}
	if req.Y, err = optionalNumber(request, "y"); err != nil {
		return toolError(err)
	}
	if req.Width, err = optionalNumber(request, "width"); err != nil {
		return toolError(err)
	}

	result, err := s.pdfService.UpdateImage(ctx, req)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Update image", result)), nil
}

func (s *Server) handlePDFAddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	page, err := requiredInt(request, "page")
	if err != nil {
		return toolError(err)
	}
	text, err := request.RequireString("text")
	if err != nil {
		return toolError(err)
	}
	x, err := requiredNumber(request, "x")
	if err != nil {
		return toolError(err)
	}
	y, err := requiredNumber(request, "y")
	if err != nil {
		return toolError(err)
	}

	result, err := s.pdfService.AddComment(ctx, pdf.PDFAddCommentRequest{
		Fingerprint: fingerprint, Page: page, Text: text, X: x, Y: y,
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Add comment", result)), nil
}

func (s *Server) handlePDFMoveComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	id, err := request.RequireString("id")
	if err != nil {
		return toolError(err)
	}
	x, err := requiredNumber(request, "x")
	if err != nil {
		return toolError(err)
	}
	y, err := requiredNumber(request, "y")
	if err != nil {
		return toolError(err)
	}

	result, err := s.pdfService.MoveComment(ctx, pdf.PDFMoveCommentRequest{Fingerprint: fingerprint, ID: id, X: x, Y: y})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Move comment", result)), nil
}

func (s *Server) commentRequest(request mcp.CallToolRequest) (pdf.PDFCommentRequest, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return pdf.PDFCommentRequest{}, err
	}
	id, err := request.RequireString("id")
	if err != nil {
		return pdf.PDFCommentRequest{}, err
	}
	return pdf.PDFCommentRequest{Fingerprint: fingerprint, ID: id}, nil
}

func (s *Server) handlePDFToggleComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := s.commentRequest(request)
	if err != nil {
		return toolError(err)
	}
	result, err := s.pdfService.ToggleComment(req)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Toggle comment", result)), nil
}

func (s *Server) handlePDFDeleteComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := s.commentRequest(request)
	if err != nil {
		return toolError(err)
	}
	result, err := s.pdfService.DeleteComment(req)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatGestureResult("Delete comment", result)), nil
}

func (s *Server) handlePDFListAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	page, err := optionalInt(request, "page")
	if err != nil {
		return toolError(err)
	}

	result, err := s.pdfService.ListAnnotations(pdf.PDFListAnnotationsRequest{Fingerprint: fingerprint, Page: page})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatListAnnotationsResult(result)), nil
}

func (s *Server) handlePDFClearAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}
	if err := s.pdfService.Clear(pdf.PDFClearAnnotationsRequest{Fingerprint: fingerprint}); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared all annotations for %s", fingerprint)), nil
}

func (s *Server) handlePDFListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := pdf.PDFListDocumentsRequest{
		Directory:       optionalString(request, "directory"),
		Query:           optionalString(request, "query"),
		WithAnnotations: optionalBool(request, "with_annotations"),
	}

	result, err := s.pdfService.ListDocuments(req)
	if err != nil {
		return toolError(err)
	}

	if result.TotalCount == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			text += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(s.formatListDocumentsResult(result)), nil
}

func (s *Server) handlePDFExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fingerprint, err := request.RequireString("fingerprint")
	if err != nil {
		return toolError(err)
	}

	result, err := s.pdfService.Export(ctx, pdf.PDFExportRequest{
		Fingerprint: fingerprint,
		OutputPath:  optionalString(request, "output_path"),
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatExportResult(result)), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, pdf.PDFServerInfoRequest{},
		s.config.ServerName, s.config.Version, s.config.StoreBackend)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}
