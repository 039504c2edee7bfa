package pdf

import (
	"path/filepath"
	"strings"
	"testing"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/pdftest"
)

func TestValidator_ValidateFile(t *testing.T) {
	validator := NewValidator(1024)
	tempDir := t.TempDir()

	writeFiles(t, tempDir, map[string][]byte{
		"valid.pdf":    make([]byte, 512),
		"large.pdf":    make([]byte, 2048),
		"empty.pdf":    {},
		"notpdf.txt":   []byte("text"),
		"UPPER.PDF":    make([]byte, 10),
		"dir.pdf/x":    []byte("x"),
		"limit.pdf":    make([]byte, 1024),
		"nested/a.pdf": make([]byte, 1),
	})

	tests := []struct {
		name        string
		path        string
		expectError bool
		errorMsg    string
	}{
		{name: "valid file", path: "valid.pdf"},
		{name: "uppercase extension", path: "UPPER.PDF"},
		{name: "exactly at limit", path: "limit.pdf"},
		{name: "nested file", path: "nested/a.pdf"},
		{name: "too large", path: "large.pdf", expectError: true, errorMsg: "file too large"},
		{name: "empty", path: "empty.pdf", expectError: true, errorMsg: "file is empty"},
		{name: "wrong extension", path: "notpdf.txt", expectError: true, errorMsg: "not a PDF"},
		{name: "directory", path: "dir.pdf", expectError: true, errorMsg: "is a directory"},
		{name: "missing", path: "missing.pdf", expectError: true, errorMsg: "does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateFile(filepath.Join(tempDir, tt.path))
			if !tt.expectError {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}

	if err := validator.ValidateFile(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestValidator_ValidateBytes(t *testing.T) {
	doc := pdftest.Document(t, 2)
	validator := NewValidator(int64(len(doc)) + 64)

	vp, err := validator.ValidateBytes(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vp.PageCount() != 2 {
		t.Errorf("expected 2 pages, got %d", vp.PageCount())
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "no header", data: []byte("hello world")},
		{name: "header only", data: []byte("%PDF-1.7\n")},
		{name: "too large", data: append(append([]byte{}, doc...), make([]byte, 128)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateBytes(tt.data)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !pdferrors.IsKind(err, pdferrors.KindInput) {
				t.Errorf("expected an input error, got %v", err)
			}
		})
	}
}

func TestValidator_IsValidPDF(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, map[string][]byte{
		"real.pdf": pdftest.Document(t, 1),
		"fake.pdf": []byte("%PDF-1.4 but nothing else"),
	})
	validator := NewValidator(10 * 1024 * 1024)

	if !validator.IsValidPDF(filepath.Join(tempDir, "real.pdf")) {
		t.Error("expected real.pdf to be valid")
	}
	if validator.IsValidPDF(filepath.Join(tempDir, "fake.pdf")) {
		t.Error("expected fake.pdf to be invalid")
	}
	if validator.IsValidPDF(filepath.Join(tempDir, "absent.pdf")) {
		t.Error("expected a missing file to be invalid")
	}
}
