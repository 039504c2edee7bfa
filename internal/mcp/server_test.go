package mcp

import (
	"context"
	"encoding/base64"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-annotator/internal/config"
	"github.com/a3tai/mcp-pdf-annotator/internal/logging"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/pdftest"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

type handlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Mode:         "stdio",
		Host:         "127.0.0.1",
		Port:         8080,
		PDFDirectory: dir,
		Version:      "1.0.0",
		ServerName:   "test-server",
		LogLevel:     "info",
		MaxFileSize:  10 * 1024 * 1024,
		StoreBackend: "memory",
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := testConfig(dir)
	pdfService, err := pdf.NewService(pdf.ServiceOptions{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   dir,
		Store:       store.NewMemoryStore(0, logging.Discard()),
		Logger:      logging.Discard(),
	})
	if err != nil {
		t.Fatalf("Failed to create PDF service: %v", err)
	}
	t.Cleanup(func() { _ = pdfService.Close() })

	server, err := NewServer(cfg, pdfService, logging.Discard())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, dir
}

// writePDF writes a fixture document and returns its fingerprint.
func writePDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	data := pdftest.Document(t, pages)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return store.FingerprintOf(data).String()
}

func call(t *testing.T, h handlerFunc, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := h(context.Background(), request)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result == nil {
		t.Fatal("result should not be nil")
	}
	return result
}

// mustSucceed calls h and fails the test if the tool reported an error.
func mustSucceed(t *testing.T, h handlerFunc, args map[string]interface{}) string {
	t.Helper()
	result := call(t, h, args)
	text := extractTextFromResult(result)
	if result.IsError {
		t.Fatalf("tool returned error: %s", text)
	}
	return text
}

func mustFail(t *testing.T, h handlerFunc, args map[string]interface{}, want string) {
	t.Helper()
	result := call(t, h, args)
	text := extractTextFromResult(result)
	if !result.IsError {
		t.Fatalf("expected tool error, got: %s", text)
	}
	if !strings.Contains(text, want) {
		t.Errorf("error %q does not contain %q", text, want)
	}
}

var idPattern = regexp.MustCompile(`\(id: ([^)]+)\)`)

func itemID(t *testing.T, text string) string {
	t.Helper()
	m := idPattern.FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("no item id in %q", text)
	}
	return m[1]
}

func point(x, y float64) map[string]interface{} {
	return map[string]interface{}{"x": x, "y": y}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}

func extractImageFromResult(result *mcp.CallToolResult) (mcp.ImageContent, bool) {
	for _, content := range result.Content {
		if img, ok := content.(mcp.ImageContent); ok {
			return img, true
		}
		if img, ok := content.(*mcp.ImageContent); ok {
			return *img, true
		}
	}
	return mcp.ImageContent{}, false
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	pdfService, err := pdf.NewService(pdf.ServiceOptions{
		MaxFileSize: 1024 * 1024,
		Directory:   dir,
		Store:       store.NewMemoryStore(0, logging.Discard()),
	})
	if err != nil {
		t.Fatalf("Failed to create PDF service: %v", err)
	}

	serverMode := testConfig(dir)
	serverMode.Mode = "server"

	tests := []struct {
		name        string
		config      *config.Config
		service     *pdf.Service
		expectError bool
	}{
		{name: "valid stdio mode config", config: testConfig(dir), service: pdfService},
		{name: "valid server mode config", config: serverMode, service: pdfService},
		{name: "nil config", config: nil, service: pdfService, expectError: true},
		{name: "nil service", config: testConfig(dir), service: nil, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.config, tt.service, nil)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if server.config != tt.config {
				t.Error("server config not set correctly")
			}
			if server.pdfService != tt.service {
				t.Error("server pdfService not set correctly")
			}
			if server.mcpServer == nil {
				t.Error("mcpServer should be initialized")
			}
			if server.logger == nil {
				t.Error("logger should default when nil")
			}
		})
	}
}

func TestServer_HandlePDFOpen(t *testing.T) {
	server, dir := newTestServer(t)
	fp := writePDF(t, dir, "contract.pdf", 2)

	text := mustSucceed(t, server.handlePDFOpen, map[string]interface{}{"path": "contract.pdf"})
	for _, want := range []string{"contract.pdf", fp, "Pages: 2", "612x792", "No saved annotations"} {
		if !strings.Contains(text, want) {
			t.Errorf("open result missing %q:\n%s", want, text)
		}
	}

	mustFail(t, server.handlePDFOpen, map[string]interface{}{}, "path")
	mustFail(t, server.handlePDFOpen, map[string]interface{}{"path": "missing.pdf"}, "missing.pdf")
	mustFail(t, server.handlePDFOpen, map[string]interface{}{"path": "../outside.pdf"}, "security validation failed")
}

func TestServer_HandlePDFRenderPage(t *testing.T) {
	server, dir := newTestServer(t)
	fp := writePDF(t, dir, "contract.pdf", 2)
	mustSucceed(t, server.handlePDFOpen, map[string]interface{}{"path": "contract.pdf"})

	result := call(t, server.handlePDFRenderPage, map[string]interface{}{
		"fingerprint": fp,
		"page":        2.0,
		"scale":       0.5,
	})
	if result.IsError {
		t.Fatalf("render failed: %s", extractTextFromResult(result))
	}
	img, ok := extractImageFromResult(result)
	if !ok {
		t.Fatal("render result should carry an image")
	}
	if img.MIMEType != "image/png" {
		t.Errorf("MIMEType = %s, want image/png", img.MIMEType)
	}
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil || !strings.HasPrefix(string(raw), "\x89PNG") {
		t.Errorf("image data is not a base64 PNG (err=%v)", err)
	}

	mustFail(t, server.handlePDFRenderPage, map[string]interface{}{"fingerprint": fp, "page": 3.0}, "page")
	mustFail(t, server.handlePDFRenderPage, map[string]interface{}{"fingerprint": fp, "page": 1.0, "scale": 1e9}, "scale must be between")
	mustFail(t, server.handlePDFRenderPage, map[string]interface{}{"fingerprint": fp, "page": 1.0, "scale": -2.0}, "scale must be between")
	// The server still answers after rejected scales.
	if result := call(t, server.handlePDFRenderPage, map[string]interface{}{"fingerprint": fp, "page": 1.0}); result.IsError {
		t.Errorf("render after rejected scale failed: %s", extractTextFromResult(result))
	}
	mustFail(t, server.handlePDFRenderPage, map[string]interface{}{"fingerprint": fp, "page": 1.5}, "whole number")
	mustFail(t, server.handlePDFRenderPage, map[string]interface{}{"fingerprint": fp}, "page")
}

func TestServer_HighlightAndErase(t *testing.T) {
	server, dir := newTestServer(t)
	fp := writePDF(t, dir, "contract.pdf", 1)
	mustSucceed(t, server.handlePDFOpen, map[string]interface{}{"path": "contract.pdf"})

	text := mustSucceed(t, server.handlePDFHighlight, map[string]interface{}{
		"fingerprint": fp,
		"page":        1.0,
		"points":      []interface{}{point(72, 100), []interface{}{200.0, 100.0}},
		"color":       "#ff0000",
		"width":       6.0,
	})
	if !strings.Contains(text, "Highlight on page 1") {
		t.Errorf("unexpected highlight result: %s", text)
	}
	strokeID := itemID(t, text)

	listed := mustSucceed(t, server.handlePDFListAnnotations, map[string]interface{}{"fingerprint": fp})
	if !strings.Contains(listed, strokeID) || !strings.Contains(listed, "Strokes (1)") {
		t.Errorf("stroke not listed:\n%s", listed)
	}

	text = mustSucceed(t, server.handlePDFErase, map[string]interface{}{
		"fingerprint": fp,
		"page":        1.0,
		"points":      []interface{}{point(130, 100)},
	})
	if !strings.Contains(text, "Removed 1 stroke(s)") {
		t.Errorf("unexpected erase result: %s", text)
	}

	mustFail(t, server.handlePDFHighlight, map[string]interface{}{
		"fingerprint": fp, "page": 1.0, "points": "nope",
	}, "points must be an array")
	mustFail(t, server.handlePDFHighlight, map[string]interface{}{
		"fingerprint": fp, "page": 1.0, "points": []interface{}{[]interface{}{1.0}},
	}, "points[0]")
	mustFail(t, server.handlePDFHighlight, map[string]interface{}{
		"fingerprint": strings.Repeat("0", 64), "page": 1.0, "points": []interface{}{point(1, 1), point(2, 2)},
	}, "not open")
}

func TestServer_Images(t *testing.T) {
	server, dir := newTestServer(t)
	fp := writePDF(t, dir, "contract.pdf", 1)
	mustSucceed(t, server.handlePDFOpen, map[string]interface{}{"path": "contract.pdf"})

	png := pdftest.PNG(t, 40, 20, color.White)
	if err := os.WriteFile(filepath.Join(dir, "stamp.png"), png, 0o644); err != nil {
		t.Fatal(err)
	}

	text := mustSucceed(t, server.handlePDFAddImage, map[string]interface{}{
		"fingerprint": fp,
		"page":        1.0,
		"data":        "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		"x":           10.0,
		"y":           20.0,
	})
	first := itemID(t, text)

	text = mustSucceed(t, server.handlePDFAddImage, map[string]interface{}{
		"fingerprint": fp,
		"page":        1.0,
		"path":        "stamp.png",
	})
	second := itemID(t, text)
	if first == second {
		t.Fatal("image ids should be unique")
	}

	mustSucceed(t, server.handlePDFUpdateImage, map[string]interface{}{
		"fingerprint": fp,
		"page":        1.0,
		"id":          first,
		"x":           50.0,
		"width":       80.0,
	})
	listed := mustSucceed(t, server.handlePDFListAnnotations, map[string]interface{}{"fingerprint": fp, "page": 1.0})
	if !strings.Contains(listed, first+" page 1: png at (50, 20), 80x40 points") {
		t.Errorf("updated image not listed as expected:\n%s", listed)
	}

	mustSucceed(t, server.handlePDFUpdateImage, map[string]interface{}{
		"fingerprint": fp,
		"page":        1.0,
		"id":          second,
		"delete":      true,
	})
	listed = mustSucceed(t, server.handlePDFListAnnotations, map[string]interface{}{"fingerprint": fp})
	if strings.Contains(listed, second) || !strings.Contains(listed, "Images (1)") {
		t.Errorf("deleted image still listed:\n%s", listed)
	}

	mustFail(t, server.handlePDFAddImage, map[string]interface{}{"fingerprint": fp, "page": 1.0}, "data or path")
	mustFail(t, server.handlePDFUpdateImage, map[string]interface{}{
		"fingerprint": fp, "page": 1.0, "id": first,
	}, "nothing to update")
}

func TestServer_Comments(t *testing.T) {
	server, dir := newTestServer(t)
	fp := writePDF(t, dir, "contract.pdf", 2)
	mustSucceed(t, server.handlePDFOpen, map[string]interface{}{"path": "contract.pdf"})

	text := mustSucceed(t, server.handlePDFAddComment, map[string]interface{}{
		"fingerprint": fp,
		"page":        2.0,
		"text":        "  check the date  ",
		"x":           100.0,
		"y":           150.0,
	})
	id := itemID(t, text)

	mustSucceed(t, server.handlePDFMoveComment, map[string]interface{}{
		"fingerprint": fp, "id": id, "x": 120.0, "y": 160.0,
	})
	mustSucceed(t, server.handlePDFToggleComment, map[string]interface{}{"fingerprint": fp, "id": id})

	listed := mustSucceed(t, server.handlePDFListAnnotations, map[string]interface{}{"fingerprint": fp})
	if !strings.Contains(listed, id+" page 2 at (120, 160), resolved: check the date") {
		t.Errorf("comment not listed as expected:\n%s", listed)
	}

	mustSucceed(t, server.handlePDFDeleteComment, map[string]interface{}{"fingerprint": fp, "id": id})
	mustFail(t, server.handlePDFDeleteComment, map[string]interface{}{"fingerprint": fp, "id": id}, "not found")
	mustFail(t, server.handlePDFToggleComment, map[string]interface{}{"fingerprint": fp}, "id")
	mustFail(t, server.handlePDFAddComment, map[string]interface{}{
		"fingerprint": fp, "page": 1.0, "text": "   ", "x": 1.0, "y": 1.0,
	}, "comment")
	mustFail(t, server.handlePDFMoveComment, map[string]interface{}{
		"fingerprint": fp, "id": "nope", "x": 1.0,
	}, "y")
}

func TestServer_ExportAndClear(t *testing.T) {
	server, dir := newTestServer(t)
	fp := writePDF(t, dir, "contract.pdf", 1)
	mustSucceed(t, server.handlePDFOpen, map[string]interface{}{"path": "contract.pdf"})
	mustSucceed(t, server.handlePDFHighlight, map[string]interface{}{
		"fingerprint": fp,
		"page":        1.0,
		"points":      []interface{}{point(72, 100), point(200, 100)},
	})

	text := mustSucceed(t, server.handlePDFExport, map[string]interface{}{"fingerprint": fp})
	if !strings.Contains(text, "contract-annotated.pdf") || !strings.Contains(text, "1 stroke(s)") {
		t.Errorf("unexpected export result: %s", text)
	}
	if _, err := os.Stat(filepath.Join(dir, "contract-annotated.pdf")); err != nil {
		t.Errorf("export not written: %v", err)
	}

	mustFail(t, server.handlePDFExport, map[string]interface{}{"fingerprint": fp, "output_path": "out.txt"}, ".pdf")

	text = mustSucceed(t, server.handlePDFClearAnnotations, map[string]interface{}{"fingerprint": fp})
	if !strings.Contains(text, fp) {
		t.Errorf("unexpected clear result: %s", text)
	}
	listed := mustSucceed(t, server.handlePDFListAnnotations, map[string]interface{}{"fingerprint": fp})
	if !strings.Contains(listed, "No annotations") {
		t.Errorf("annotations survived clear:\n%s", listed)
	}
}

func TestServer_HandlePDFListDocuments(t *testing.T) {
	server, dir := newTestServer(t)
	writePDF(t, dir, "doc1.pdf", 1)
	writePDF(t, dir, "report.pdf", 2)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	text := mustSucceed(t, server.handlePDFListDocuments, map[string]interface{}{})
	if !strings.Contains(text, "Found 2 PDF file(s)") {
		t.Errorf("unexpected listing:\n%s", text)
	}

	text = mustSucceed(t, server.handlePDFListDocuments, map[string]interface{}{"query": "report"})
	if !strings.Contains(text, "report.pdf") || strings.Contains(text, "doc1.pdf") {
		t.Errorf("query not applied:\n%s", text)
	}

	text = mustSucceed(t, server.handlePDFListDocuments, map[string]interface{}{"query": "zzz"})
	if !strings.Contains(text, "No PDF files found") || !strings.Contains(text, "searched for: zzz") {
		t.Errorf("unexpected empty listing: %s", text)
	}

	mustFail(t, server.handlePDFListDocuments, map[string]interface{}{"directory": "../"}, "security validation failed")
}

func TestServer_HandlePDFServerInfo(t *testing.T) {
	server, dir := newTestServer(t)
	writePDF(t, dir, "contract.pdf", 1)

	text := mustSucceed(t, server.handlePDFServerInfo, map[string]interface{}{})
	for _, want := range []string{"test-server v1.0.0", "Annotation Store: memory", "contract.pdf", "pdf_highlight", "• png"} {
		if !strings.Contains(text, want) {
			t.Errorf("server info missing %q", want)
		}
	}
}
