package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/store"
)

// Search finds PDFs on disk and, on request, tells which of them already
// carry a saved overlay.
type Search struct {
	validator *Validator
	store     store.Store
}

// NewSearch creates a search over files accepted by validator. st may be
// nil, in which case annotation flags are never set.
func NewSearch(validator *Validator, st store.Store) *Search {
	return &Search{validator: validator, store: st}
}

// SearchDirectory walks req.Directory and returns the PDFs whose names
// match req.Query. Hidden directories are skipped and files that fail the
// size or extension checks are left out.
func (s *Search) SearchDirectory(req PDFListDocumentsRequest) (*PDFListDocumentsResult, error) {
	files, absDirectory, err := s.walk(req.Directory, 0, strings.ToLower(strings.TrimSpace(req.Query)))
	if err != nil {
		return nil, err
	}
	if req.WithAnnotations {
		s.flagAnnotated(files)
	}
	return &PDFListDocumentsResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   absDirectory,
		SearchQuery: req.Query,
	}, nil
}

// FindPDFsInDirectoryLimited finds PDF files in a directory with a limit on the number of results
func (s *Search) FindPDFsInDirectoryLimited(directory string, limit int) ([]FileInfo, error) {
	files, _, err := s.walk(directory, limit, "")
	return files, err
}

func (s *Search) walk(directory string, limit int, query string) ([]FileInfo, string, error) {
	if directory == "" {
		return nil, "", fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, "", fmt.Errorf("directory does not exist: %s", directory)
	}
	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve directory path: %w", err)
	}

	pdfFiles := make([]FileInfo, 0)
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Continue walking even if we encounter an error with a specific file
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if limit > 0 && len(pdfFiles) >= limit {
			return filepath.SkipAll
		}
		if !isPDFFile(d.Name()) || !matchesQuery(d.Name(), query) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil
		}
		pdfFiles = append(pdfFiles, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("error walking directory: %w", err)
	}
	return pdfFiles, absDirectory, nil
}

// flagAnnotated fingerprints each file and marks those with a saved
// overlay. Files that cannot be read are left unflagged.
func (s *Search) flagAnnotated(files []FileInfo) {
	if s.store == nil {
		return
	}
	keys, err := s.store.ListKeys()
	if err != nil || len(keys) == 0 {
		return
	}
	saved := make(map[store.Fingerprint]bool, len(keys))
	for _, k := range keys {
		saved[k] = true
	}
	for i := range files {
		data, err := os.ReadFile(files[i].Path)
		if err != nil {
			continue
		}
		files[i].Annotated = saved[store.FingerprintOf(data)]
	}
}

func isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// matchesQuery performs fuzzy matching on the filename: a substring match,
// or every query word contained in some filename word.
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}
	name := strings.TrimSuffix(strings.ToLower(filename), ".pdf")
	if strings.Contains(strings.ToLower(filename), query) {
		return true
	}

	words := splitIntoWords(name)
	for _, q := range splitIntoWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitIntoWords splits a string into words using common separators
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
