package pdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/a3tai/mcp-pdf-annotator/internal/descriptions"
	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

const (
	serverInfoFileLimit = 100
	serverInfoScanLimit = 3 * time.Second
	serverInfoCacheTTL  = time.Minute
)

// DirectoryCache provides TTL-based caching for directory listings.
type DirectoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached listing of path if it has not expired.
func (c *DirectoryCache) Get(path string) ([]FileInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[path]
	if !ok || c.now().Sub(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry.files, true
}

// Set stores the listing of path.
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{files: files, lastUpdate: c.now()}
}

// Invalidate forgets every listing, for example after an export wrote a
// new file.
func (c *DirectoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

var serverInfoCache = struct {
	once  sync.Once
	cache *DirectoryCache
}{}

func directoryCache() *DirectoryCache {
	serverInfoCache.once.Do(func() {
		serverInfoCache.cache = NewDirectoryCache(serverInfoCacheTTL)
	})
	return serverInfoCache.cache
}

// PDFServerInfo returns server information and usage guidance. The
// directory listing is bounded in size and time and cached briefly.
func (s *Service) PDFServerInfo(ctx context.Context, _ PDFServerInfoRequest, serverName, version, backend string) (*PDFServerInfoResult, error) {
	dir := s.pathValidator.Directory()

	contents, ok := directoryCache().Get(dir)
	if !ok {
		contents = s.scanDirectory(ctx, dir)
		directoryCache().Set(dir, contents)
	}

	saved := 0
	if keys, err := s.store.ListKeys(); err == nil {
		saved = len(keys)
	} else {
		s.logger.Warn().Err(err).Msg("cannot list saved overlays")
	}

	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       s.maxFileSize,
		StoreBackend:      backend,
		SavedOverlays:     saved,
		OpenDocuments:     s.OpenDocuments(),
		AvailableTools:    availableTools(),
		DirectoryContents: contents,
		UsageGuidance:     s.usageGuidance(),
		SupportedFormats:  []string{string(overlay.FormatPNG), string(overlay.FormatJPEG)},
	}, nil
}

func (s *Service) scanDirectory(ctx context.Context, dir string) []FileInfo {
	ctx, cancel := context.WithTimeout(ctx, serverInfoScanLimit)
	defer cancel()

	resultChan := make(chan []FileInfo, 1)
	go func() {
		files, err := s.search.FindPDFsInDirectoryLimited(dir, serverInfoFileLimit)
		if err != nil {
			files = []FileInfo{}
		}
		resultChan <- files
	}()

	select {
	case files := <-resultChan:
		return files
	case <-ctx.Done():
		return []FileInfo{}
	}
}

func availableTools() []ToolInfo {
	params := map[string]string{
		"pdf_open":              "path (required): PDF path, relative to the configured directory or absolute inside it",
		"pdf_render_page":       "fingerprint (required), page (required), scale (optional, default 1)",
		"pdf_highlight":         "fingerprint, page, points (required); color, width (optional)",
		"pdf_erase":             "fingerprint, page, points (required)",
		"pdf_add_image":         "fingerprint, page (required); data or path (one required); x, y, width (optional)",
		"pdf_update_image":      "fingerprint, page, id (required); x, y, width, delete (optional)",
		"pdf_add_comment":       "fingerprint, page, text, x, y (required)",
		"pdf_move_comment":      "fingerprint, id, x, y (required)",
		"pdf_toggle_comment":    "fingerprint, id (required)",
		"pdf_delete_comment":    "fingerprint, id (required)",
		"pdf_list_annotations":  "fingerprint (required), page (optional)",
		"pdf_clear_annotations": "fingerprint (required)",
		"pdf_list_documents":    "directory, query, with_annotations (optional)",
		"pdf_export":            "fingerprint (required), output_path (optional)",
		"pdf_server_info":       "No parameters required",
	}
	names := descriptions.GetAllToolNames()
	tools := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolInfo{
			Name:        name,
			Description: descriptions.GetToolDescription(name),
			Parameters:  params[name],
		})
	}
	return tools
}

func (s *Service) usageGuidance() string {
	return fmt.Sprintf(`PDF Annotator Usage Guide:

1. FIND AND OPEN:
   - Use 'pdf_list_documents' to find PDF files
   - Use 'pdf_open' to start a session; keep the returned fingerprint

2. LOOK:
   - Use 'pdf_render_page' to see a page with its overlay
   - Coordinates are PDF points from the top-left corner of the page

3. ANNOTATE:
   - 'pdf_highlight' and 'pdf_erase' for freehand strokes
   - 'pdf_add_image' and 'pdf_update_image' for images
   - 'pdf_add_comment', 'pdf_move_comment', 'pdf_toggle_comment', 'pdf_delete_comment' for notes
   - Every change is saved immediately under the document fingerprint

4. EXPORT:
   - Use 'pdf_export' to write an annotated copy; the original is never modified

IMPORTANT NOTES:
- Files must live in %s
- The server can handle files up to %dMB
- Only PNG and JPEG images can be placed`, s.pathValidator.Directory(), s.maxFileSize/(1024*1024))
}
