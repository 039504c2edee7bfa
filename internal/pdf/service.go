package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/phuslu/log"

	pdferrors "github.com/a3tai/mcp-pdf-annotator/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/export"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/render"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

// ErrNotOpen is returned for a fingerprint with no open session.
var ErrNotOpen = errors.New("document is not open")

// ServiceOptions configures a Service.
type ServiceOptions struct {
	MaxFileSize int64
	Directory   string
	Store       store.Store
	Logger      *log.Logger
	Renderer    render.Renderer

	// Highlighter defaults handed to every opened document.
	Color       string
	StrokeWidth float64
	Scale       float64
}

// Service owns the open document sessions and the components they share:
// the overlay store, the export projector and the directory sandbox.
type Service struct {
	maxFileSize   int64
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	store         store.Store
	projector     *export.Projector
	logger        *log.Logger
	docOptions    DocumentOptions

	mu   sync.RWMutex
	docs map[store.Fingerprint]*Document
	// paths remembers where each open document was read from.
	paths map[store.Fingerprint]string
}

// NewService creates a new PDF service with all components
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.MaxFileSize <= 0 {
		return nil, fmt.Errorf("maximum file size must be positive")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	validator := NewValidator(opts.MaxFileSize)
	projector := export.NewProjector(opts.Logger)
	return &Service{
		maxFileSize:   opts.MaxFileSize,
		validator:     validator,
		search:        NewSearch(validator, opts.Store),
		pathValidator: pathValidator,
		store:         opts.Store,
		projector:     projector,
		logger:        opts.Logger,
		docOptions: DocumentOptions{
			Store:       opts.Store,
			Projector:   projector,
			Renderer:    opts.Renderer,
			Logger:      opts.Logger,
			Color:       opts.Color,
			StrokeWidth: opts.StrokeWidth,
			Scale:       opts.Scale,
		},
		docs:  make(map[store.Fingerprint]*Document),
		paths: make(map[store.Fingerprint]string),
	}, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Directory returns the configured PDF directory.
func (s *Service) Directory() string {
	return s.pathValidator.Directory()
}

// OpenFile opens a PDF from the configured directory. Opening a file whose
// content is already open returns the existing session.
func (s *Service) OpenFile(req PDFOpenRequest) (*Document, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, pdferrors.Input("open", fmt.Errorf("security validation failed: %w", err))
	}
	if err := s.validator.ValidateFile(path); err != nil {
		return nil, pdferrors.Input("open", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdferrors.Input("open", fmt.Errorf("failed to read file: %w", err))
	}
	doc, err := s.OpenBytes(data, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.paths[doc.Fingerprint()] = path
	s.mu.Unlock()
	return doc, nil
}

// OpenBytes opens an in-memory PDF.
func (s *Service) OpenBytes(data []byte, name string) (*Document, error) {
	if _, err := s.validator.ValidateBytes(data); err != nil {
		return nil, err
	}
	fp := store.FingerprintOf(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[fp]; ok {
		return doc, nil
	}
	opts := s.docOptions
	opts.Name = name
	doc, err := OpenDocument(data, opts)
	if err != nil {
		return nil, err
	}
	s.docs[fp] = doc
	return doc, nil
}

// Document returns the open session for a fingerprint.
func (s *Service) Document(fingerprint string) (*Document, error) {
	fp, err := store.ParseFingerprint(fingerprint)
	if err != nil {
		return nil, pdferrors.Input("lookup", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[fp]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, fp.Short())
	}
	return doc, nil
}

// CloseDocument ends a session. The saved overlay is kept.
func (s *Service) CloseDocument(fingerprint string) bool {
	fp, err := store.ParseFingerprint(fingerprint)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[fp]
	delete(s.docs, fp)
	delete(s.paths, fp)
	return ok
}

// OpenDocuments returns the fingerprints of all open sessions, sorted.
func (s *Service) OpenDocuments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for fp := range s.docs {
		out = append(out, string(fp))
	}
	sort.Strings(out)
	return out
}

// Info describes an open document.
func (s *Service) Info(doc *Document) DocumentInfo {
	info := doc.Info()
	s.mu.RLock()
	info.Path = s.paths[doc.Fingerprint()]
	s.mu.RUnlock()
	info.Conformance = doc.Conformance()
	return info
}

// ListKeys returns the fingerprints with a saved overlay.
func (s *Service) ListKeys() ([]store.Fingerprint, error) {
	keys, err := s.store.ListKeys()
	if err != nil {
		return nil, pdferrors.Persistence("list keys", err)
	}
	return keys, nil
}

// Clear drops the saved overlay of a fingerprint. An open session is
// emptied as well.
func (s *Service) Clear(req PDFClearAnnotationsRequest) error {
	fp, err := store.ParseFingerprint(req.Fingerprint)
	if err != nil {
		return pdferrors.Input("clear", err)
	}
	s.mu.RLock()
	doc, open := s.docs[fp]
	s.mu.RUnlock()
	if open {
		return doc.Clear()
	}
	if err := s.store.Clear(fp); err != nil {
		return pdferrors.Persistence("clear", err)
	}
	s.logger.Info().Str("fingerprint", fp.Short()).Msg("saved overlay cleared")
	return nil
}

// ListAnnotations summarizes the overlay of an open document.
func (s *Service) ListAnnotations(req PDFListAnnotationsRequest) (*PDFListAnnotationsResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if req.Page < 0 || req.Page > doc.TotalPages() {
		return nil, pdferrors.Input("list annotations", fmt.Errorf("%w: %d", overlay.ErrInvalidPage, req.Page))
	}
	return summarize(doc.Model().Snapshot(), req.Page), nil
}

func summarize(b *overlay.Bundle, only int) *PDFListAnnotationsResult {
	res := &PDFListAnnotationsResult{
		Fingerprint: b.Fingerprint,
		Page:        only,
		Strokes:     make([]StrokeSummary, 0),
		Images:      make([]ImageSummary, 0),
		Comments:    make([]overlay.CommentPin, 0),
	}
	if !b.UpdatedAt.IsZero() {
		res.UpdatedAt = b.UpdatedAt.Format("2006-01-02 15:04:05")
	}
	for _, page := range sortedPages(b) {
		if only > 0 && page != only {
			continue
		}
		for _, st := range b.StrokesByPage[page] {
			res.Strokes = append(res.Strokes, StrokeSummary{
				ID: st.ID, Page: page, Points: len(st.Points), Color: st.Color.String(), Width: st.StrokeWidth,
			})
		}
		for _, img := range b.ImagesByPage[page] {
			nw, nh, _ := overlay.NaturalSize(img.Source)
			w, h := img.ResolvedSize(float64(nw), float64(nh))
			res.Images = append(res.Images, ImageSummary{
				ID: img.ID, Page: page, X: img.X, Y: img.Y, Width: w, Height: h,
				Format: string(overlay.DetectFormat(img.Source)), Bytes: len(img.Source),
			})
		}
	}
	for _, c := range b.Comments {
		if only == 0 || c.PageNumber == only {
			res.Comments = append(res.Comments, c)
		}
	}
	return res
}

func sortedPages(b *overlay.Bundle) []int {
	seen := map[int]bool{}
	for p := range b.StrokesByPage {
		seen[p] = true
	}
	for p := range b.ImagesByPage {
		seen[p] = true
	}
	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Export bakes the overlay of an open document and writes the result inside
// the configured directory.
func (s *Service) Export(ctx context.Context, req PDFExportRequest) (*PDFExportResult, error) {
	doc, err := s.Document(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	out := req.OutputPath
	if out == "" {
		out = annotatedName(doc)
	}
	path, err := s.pathValidator.Resolve(out)
	if err != nil {
		return nil, pdferrors.Input("export", fmt.Errorf("security validation failed: %w", err))
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return nil, pdferrors.Input("export", fmt.Errorf("output must be a .pdf file: %s", path))
	}

	data, report, err := doc.Export(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	directoryCache().Invalidate()

	res := &PDFExportResult{
		Path:     path,
		Size:     int64(len(data)),
		Pages:    report.Pages,
		Strokes:  report.Strokes,
		Images:   report.Images,
		Comments: report.Comments,
		Summary:  report.Summary(),
	}
	for _, e := range report.Skipped.Errors {
		res.Skipped = append(res.Skipped, e.Error())
	}
	return res, nil
}

func annotatedName(doc *Document) string {
	base := strings.TrimSuffix(doc.Name(), filepath.Ext(doc.Name()))
	if base == "" {
		base = doc.Fingerprint().Short()
	}
	return base + "-annotated.pdf"
}

// ListDocuments lists PDFs under the configured directory.
func (s *Service) ListDocuments(req PDFListDocumentsRequest) (*PDFListDocumentsResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.Directory()
	} else {
		dir, err := s.pathValidator.Resolve(req.Directory)
		if err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
		req.Directory = dir
	}
	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.search.SearchDirectory(req)
}

// ReadImageFile loads an image payload from the configured directory.
func (s *Service) ReadImageFile(path string) ([]byte, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, pdferrors.Input("read image", fmt.Errorf("security validation failed: %w", err))
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, pdferrors.Input("read image", err)
	}
	if info.Size() > s.maxFileSize {
		return nil, pdferrors.Input("read image", fmt.Errorf("image too large: %d bytes", info.Size()))
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, pdferrors.Input("read image", err)
	}
	return data, nil
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}
