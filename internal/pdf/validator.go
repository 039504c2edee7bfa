package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/render"
)

var pdfHeader = []byte("%PDF-")

// headerWindow is how far into the buffer the header may start. Some
// producers emit a few junk bytes before it.
const headerWindow = 1024

// Validator checks PDF files and buffers before a session is opened.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that filePath names a readable, size-limited .pdf
// file without opening it.
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	return v.ValidateFileInfo(filePath, fileInfo)
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// ValidateBytes checks an in-memory PDF and returns its parsed viewport.
// Every failure is an input error: the buffer cannot back a session.
func (v *Validator) ValidateBytes(data []byte) (*render.Viewport, error) {
	if len(data) == 0 {
		return nil, pdferrors.Input("validate", fmt.Errorf("PDF buffer is empty"))
	}
	if int64(len(data)) > v.maxFileSize {
		return nil, pdferrors.Input("validate", fmt.Errorf("PDF too large: %d bytes (max: %d bytes)",
			len(data), v.maxFileSize))
	}
	window := data[:min(len(data), headerWindow)]
	if !bytes.Contains(window, pdfHeader) {
		return nil, pdferrors.Input("validate", fmt.Errorf("missing %%PDF- header"))
	}
	vp, err := render.OpenViewport(data)
	if err != nil {
		return nil, pdferrors.Input("validate", fmt.Errorf("invalid PDF: %w", err))
	}
	return vp, nil
}

// IsValidPDF reports whether the file passes ValidateFile and parses.
func (v *Validator) IsValidPDF(filePath string) bool {
	if v.ValidateFile(filePath) != nil {
		return false
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}
	_, err = v.ValidateBytes(data)
	return err == nil
}
