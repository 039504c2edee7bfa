// Package store persists overlay bundles keyed by document fingerprint.
//
// A Store never fails a load because of what it finds: an absent key and a
// payload that no longer decodes both come back as an empty bundle. Only
// backend I/O failures are reported, and even then an empty bundle is
// returned alongside the error so the session can continue unsaved.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phuslu/log"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// DefaultQuota mirrors the per-origin budget of browser local storage.
const DefaultQuota int64 = 5 << 20

var (
	// ErrStorageQuotaExceeded is returned by Save when the write would push
	// the store past its quota. Nothing is written in that case.
	ErrStorageQuotaExceeded = errors.New("storage quota exceeded")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

// Store is a fingerprint-keyed bundle repository.
type Store interface {
	// Save upserts the bundle under fp, overwriting any previous value.
	Save(fp Fingerprint, b *overlay.Bundle) error
	// Load returns the bundle saved under fp, or an empty one.
	Load(fp Fingerprint) (*overlay.Bundle, error)
	// Clear removes the bundle saved under fp. Clearing an absent key is not
	// an error.
	Clear(fp Fingerprint) error
	// ListKeys returns every fingerprint with a saved bundle, sorted.
	ListKeys() ([]Fingerprint, error)
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// New opens the named backend. dir is only used by the badger backend.
func New(backend, dir string, quota int64, logger *log.Logger) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(quota, logger), nil
	case BackendBadger:
		return OpenBadgerStore(dir, quota, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func encodeBundle(fp Fingerprint, b *overlay.Bundle) ([]byte, error) {
	if b == nil {
		b = overlay.NewBundle(string(fp))
	}
	out := b.Clone()
	out.Fingerprint = string(fp)
	out.Normalize()
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return data, nil
}

// decodeBundle never fails: a payload that does not decode yields an empty
// bundle and a warning.
func decodeBundle(fp Fingerprint, data []byte, logger *log.Logger) *overlay.Bundle {
	var b overlay.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		logger.Warn().Err(err).Str("fingerprint", fp.Short()).Msg("discarding corrupt overlay payload")
		return overlay.NewBundle(string(fp))
	}
	b.Fingerprint = string(fp)
	b.Normalize()
	return &b
}
