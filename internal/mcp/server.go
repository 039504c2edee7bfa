package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/a3tai/mcp-pdf-annotator/internal/config"
	"github.com/a3tai/mcp-pdf-annotator/internal/descriptions"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *log.Logger

	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // The tool set is fixed
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}

	s.registerTools()

	return s, nil
}

func describe(name string) mcp.ToolOption {
	return mcp.WithDescription(descriptions.GetToolDescription(name))
}

func fingerprintParam() mcp.ToolOption {
	return mcp.WithString("fingerprint",
		mcp.Required(),
		mcp.Description("Document fingerprint returned by pdf_open"),
	)
}

func pageParam() mcp.ToolOption {
	return mcp.WithNumber("page",
		mcp.Required(),
		mcp.Description("1-based page number"),
	)
}

func pointsParam(desc string) mcp.ToolOption {
	return mcp.WithArray("points",
		mcp.Required(),
		mcp.Description(desc),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"x": map[string]any{"type": "number"},
				"y": map[string]any{"type": "number"},
			},
			"required": []string{"x", "y"},
		}),
	)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("pdf_open",
		describe("pdf_open"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, relative to the configured directory or absolute inside it"),
		),
	), s.handlePDFOpen)

	s.mcpServer.AddTool(mcp.NewTool("pdf_render_page",
		describe("pdf_render_page"),
		fingerprintParam(),
		pageParam(),
		mcp.WithNumber("scale",
			mcp.Description("Render scale between 0.5 and 3 (default: the document's current scale)"),
		),
	), s.handlePDFRenderPage)

	s.mcpServer.AddTool(mcp.NewTool("pdf_highlight",
		describe("pdf_highlight"),
		fingerprintParam(),
		pageParam(),
		pointsParam("Stroke path in PDF points from the top-left corner, at least two points"),
		mcp.WithString("color",
			mcp.Description("CSS color, e.g. 'rgba(255, 255, 0, 0.5)' or '#ffcc00'"),
		),
		mcp.WithNumber("width",
			mcp.Description("Stroke width in PDF points"),
		),
	), s.handlePDFHighlight)

	s.mcpServer.AddTool(mcp.NewTool("pdf_erase",
		describe("pdf_erase"),
		fingerprintParam(),
		pageParam(),
		pointsParam("Eraser path in PDF points; a single point erases around it"),
	), s.handlePDFErase)

	s.mcpServer.AddTool(mcp.NewTool("pdf_add_image",
		describe("pdf_add_image"),
		fingerprintParam(),
		pageParam(),
		mcp.WithString("data",
			mcp.Description("Image as a data: URL or bare base64 (PNG or JPEG)"),
		),
		mcp.WithString("path",
			mcp.Description("Image file inside the configured directory"),
		),
		mcp.WithNumber("x", mcp.Description("Left edge in PDF points (default 100)")),
		mcp.WithNumber("y", mcp.Description("Top edge in PDF points from the top of the page (default 100)")),
		mcp.WithNumber("width", mcp.Description("Width in PDF points (default: natural width, at most 300)")),
	), s.handlePDFAddImage)

	s.mcpServer.AddTool(mcp.NewTool("pdf_update_image",
		describe("pdf_update_image"),
		fingerprintParam(),
		pageParam(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Image id")),
		mcp.WithNumber("x", mcp.Description("New left edge")),
		mcp.WithNumber("y", mcp.Description("New top edge")),
		mcp.WithNumber("width", mcp.Description("New width; the aspect ratio is kept")),
		mcp.WithBoolean("delete", mcp.Description("Delete the image")),
	), s.handlePDFUpdateImage)

	s.mcpServer.AddTool(mcp.NewTool("pdf_add_comment",
		describe("pdf_add_comment"),
		fingerprintParam(),
		pageParam(),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Pin position in PDF points from the left")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Pin position in PDF points from the top")),
	), s.handlePDFAddComment)

	s.mcpServer.AddTool(mcp.NewTool("pdf_move_comment",
		describe("pdf_move_comment"),
		fingerprintParam(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("New position in PDF points from the left")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("New position in PDF points from the top")),
	), s.handlePDFMoveComment)

	s.mcpServer.AddTool(mcp.NewTool("pdf_toggle_comment",
		describe("pdf_toggle_comment"),
		fingerprintParam(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
	), s.handlePDFToggleComment)

	s.mcpServer.AddTool(mcp.NewTool("pdf_delete_comment",
		describe("pdf_delete_comment"),
		fingerprintParam(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
	), s.handlePDFDeleteComment)

	s.mcpServer.AddTool(mcp.NewTool("pdf_list_annotations",
		describe("pdf_list_annotations"),
		fingerprintParam(),
		mcp.WithNumber("page", mcp.Description("Only list this page")),
	), s.handlePDFListAnnotations)

	s.mcpServer.AddTool(mcp.NewTool("pdf_clear_annotations",
		describe("pdf_clear_annotations"),
		fingerprintParam(),
	), s.handlePDFClearAnnotations)

	s.mcpServer.AddTool(mcp.NewTool("pdf_list_documents",
		describe("pdf_list_documents"),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
		mcp.WithBoolean("with_annotations",
			mcp.Description("Flag files that already have a saved overlay"),
		),
	), s.handlePDFListDocuments)

	s.mcpServer.AddTool(mcp.NewTool("pdf_export",
		describe("pdf_export"),
		fingerprintParam(),
		mcp.WithString("output_path",
			mcp.Description("Output .pdf path inside the configured directory (default <name>-annotated.pdf)"),
		),
	), s.handlePDFExport)

	s.mcpServer.AddTool(mcp.NewTool("pdf_server_info",
		describe("pdf_server_info"),
	), s.handlePDFServerInfo)
}

// Run starts the MCP server in the configured mode and blocks until ctx is
// cancelled or the transport fails.
func (s *Server) Run(ctx context.Context) error {
	switch {
	case s.config.IsServerMode():
		return s.runServerMode(ctx)
	case s.config.IsStdioMode():
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves MCP over standard I/O.
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Info().
		Str("directory", s.config.PDFDirectory).
		Str("store", s.config.StoreBackend).
		Msg("starting PDF annotator in stdio mode")

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, s.stdin, s.stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events.
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Str("directory", s.config.PDFDirectory).Msg("starting PDF annotator SSE server")
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		s.logger.Info().Msg("SSE server stopped")
		return nil
	}
}
