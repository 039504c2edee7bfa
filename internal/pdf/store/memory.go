package store

import (
	"sort"
	"sync"

	"github.com/phuslu/log"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// MemoryStore is a process-local store with a byte quota over keys and
// payloads, the same accounting browser local storage uses.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	used    int64
	quota   int64
	closed  bool
	logger  *log.Logger
}

// NewMemoryStore returns an empty store. A quota of zero or less selects
// DefaultQuota.
func NewMemoryStore(quota int64, logger *log.Logger) *MemoryStore {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &MemoryStore{
		entries: make(map[string][]byte),
		quota:   quota,
		logger:  logger,
	}
}

func (s *MemoryStore) Save(fp Fingerprint, b *overlay.Bundle) error {
	data, err := encodeBundle(fp, b)
	if err != nil {
		return err
	}
	return s.put(fp.Key(), data)
}

func (s *MemoryStore) put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	used := s.used
	if old, ok := s.entries[key]; ok {
		used -= int64(len(key) + len(old))
	}
	used += int64(len(key) + len(data))
	if used > s.quota {
		return ErrStorageQuotaExceeded
	}
	s.entries[key] = data
	s.used = used
	return nil
}

func (s *MemoryStore) Load(fp Fingerprint) (*overlay.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return overlay.NewBundle(string(fp)), ErrClosed
	}
	data, ok := s.entries[fp.Key()]
	if !ok {
		return overlay.NewBundle(string(fp)), nil
	}
	return decodeBundle(fp, data, s.logger), nil
}

func (s *MemoryStore) Clear(fp Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	key := fp.Key()
	if old, ok := s.entries[key]; ok {
		s.used -= int64(len(key) + len(old))
		delete(s.entries, key)
	}
	return nil
}

func (s *MemoryStore) ListKeys() ([]Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	keys := make([]Fingerprint, 0, len(s.entries))
	for key := range s.entries {
		if fp, ok := fingerprintFromKey(key); ok {
			keys = append(keys, fp)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Used returns the bytes currently counted against the quota.
func (s *MemoryStore) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// putRaw stores an arbitrary payload under fp. Tests use it to plant
// corrupt data.
func (s *MemoryStore) putRaw(fp Fingerprint, data []byte) error {
	return s.put(fp.Key(), data)
}
