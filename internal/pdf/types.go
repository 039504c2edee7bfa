package pdf

import (
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	// Annotated is set when the store holds an overlay for the file's
	// content. Only computed when the listing asks for it.
	Annotated bool `json:"annotated,omitempty"`
}

// DocumentInfo describes an open document.
type DocumentInfo struct {
	Fingerprint string  `json:"fingerprint"`
	Name        string  `json:"name,omitempty"`
	Path        string  `json:"path,omitempty"`
	TotalPages  int     `json:"total_pages"`
	PageWidth   float64 `json:"page_width"`
	PageHeight  float64 `json:"page_height"`
	Strokes     int     `json:"strokes"`
	Images      int     `json:"images"`
	Comments    int     `json:"comments"`

	Conformance *export.Inspection `json:"conformance,omitempty"`
}

// Request Types

// PDFOpenRequest opens a PDF from the configured directory.
type PDFOpenRequest struct {
	Path string `json:"path"`
}

// PDFHighlightRequest draws a freehand highlight.
type PDFHighlightRequest struct {
	Fingerprint string          `json:"fingerprint"`
	Page        int             `json:"page"`
	Points      []overlay.Point `json:"points"`
	Color       string          `json:"color,omitempty"`
	Width       float64         `json:"width,omitempty"`
}

// PDFEraseRequest sweeps the eraser along a path.
type PDFEraseRequest struct {
	Fingerprint string          `json:"fingerprint"`
	Page        int             `json:"page"`
	Points      []overlay.Point `json:"points"`
}

// PDFAddImageRequest places a PNG or JPEG. Exactly one of Data (base64 or a
// data: URL) and Path must be set.
type PDFAddImageRequest struct {
	Fingerprint string   `json:"fingerprint"`
	Page        int      `json:"page"`
	Data        string   `json:"data,omitempty"`
	Path        string   `json:"path,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
}

// PDFImageRequest moves, resizes or deletes a placed image. Nil fields are
// left alone; Delete wins over everything else.
type PDFImageRequest struct {
	Fingerprint string   `json:"fingerprint"`
	Page        int      `json:"page"`
	ID          string   `json:"id"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Delete      bool     `json:"delete,omitempty"`
}

// PDFAddCommentRequest places a comment pin.
type PDFAddCommentRequest struct {
	Fingerprint string  `json:"fingerprint"`
	Page        int     `json:"page"`
	Text        string  `json:"text"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// PDFMoveCommentRequest drags a comment pin.
type PDFMoveCommentRequest struct {
	Fingerprint string  `json:"fingerprint"`
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// PDFCommentRequest names one comment.
type PDFCommentRequest struct {
	Fingerprint string `json:"fingerprint"`
	ID          string `json:"id"`
}

// PDFListAnnotationsRequest lists the overlay of a document, optionally for
// one page.
type PDFListAnnotationsRequest struct {
	Fingerprint string `json:"fingerprint"`
	Page        int    `json:"page,omitempty"`
}

// PDFClearAnnotationsRequest drops the saved overlay of a document. The
// document does not need to be open.
type PDFClearAnnotationsRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// PDFRenderPageRequest renders a page with its overlay.
type PDFRenderPageRequest struct {
	Fingerprint string  `json:"fingerprint"`
	Page        int     `json:"page"`
	Scale       float64 `json:"scale,omitempty"`
}

// PDFExportRequest bakes the overlay and writes the result. An empty
// OutputPath writes <name>-annotated.pdf next to the configured directory.
type PDFExportRequest struct {
	Fingerprint string `json:"fingerprint"`
	OutputPath  string `json:"output_path,omitempty"`
}

// PDFListDocumentsRequest lists PDFs in a directory.
type PDFListDocumentsRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
	// WithAnnotations fingerprints every match to flag the annotated ones.
	WithAnnotations bool `json:"with_annotations"`
}

// PDFServerInfoRequest represents a request to get server information and capabilities
type PDFServerInfoRequest struct {
	// No parameters needed for server info
}

// Response Types

// PDFGestureResult reports a scripted gesture.
type PDFGestureResult struct {
	Fingerprint string `json:"fingerprint"`
	Page        int    `json:"page"`
	Committed   bool   `json:"committed"`
	Kind        string `json:"kind,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	Removed     int    `json:"removed,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

// ImageSummary describes a placed image without its payload.
type ImageSummary struct {
	ID     string  `json:"id"`
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Format string  `json:"format"`
	Bytes  int     `json:"bytes"`
}

// StrokeSummary describes a stroke without its points.
type StrokeSummary struct {
	ID     string  `json:"id"`
	Page   int     `json:"page"`
	Points int     `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// PDFListAnnotationsResult lists an overlay.
type PDFListAnnotationsResult struct {
	Fingerprint string               `json:"fingerprint"`
	Page        int                  `json:"page,omitempty"`
	Strokes     []StrokeSummary      `json:"strokes"`
	Images      []ImageSummary       `json:"images"`
	Comments    []overlay.CommentPin `json:"comments"`
	UpdatedAt   string               `json:"updated_at,omitempty"`
}

// PDFExportResult reports a written export.
type PDFExportResult struct {
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Pages    int      `json:"pages"`
	Strokes  int      `json:"strokes"`
	Images   int      `json:"images"`
	Comments int      `json:"comments"`
	Skipped  []string `json:"skipped,omitempty"`
	Summary  string   `json:"summary"`
}

// PDFListDocumentsResult represents the result of a PDF search operation
type PDFListDocumentsResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	StoreBackend      string     `json:"store_backend"`
	SavedOverlays     int        `json:"saved_overlays"`
	OpenDocuments     []string   `json:"open_documents"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
	SupportedFormats  []string   `json:"supported_formats"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
