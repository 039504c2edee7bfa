package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/phuslu/log"
	"github.com/timshannon/badgerhold/v4"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// bundleRecord is the persisted row. The bundle itself is kept as its JSON
// payload so that a payload written by an older layout can be detected and
// discarded without breaking the record decode.
type bundleRecord struct {
	Key       string `badgerhold:"key"`
	Payload   []byte
	UpdatedAt time.Time `badgerhold:"index"`
}

// BadgerStore is the durable backend, a badgerhold store in a directory.
type BadgerStore struct {
	mu     sync.Mutex
	db     *badgerhold.Store
	quota  int64
	logger *log.Logger
}

// OpenBadgerStore opens or creates the database in dir. A quota of zero or
// less disables the quota check.
func OpenBadgerStore(dir string, quota int64, logger *log.Logger) (*BadgerStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = badgerLogger{logger: logger}

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	logger.Debug().Str("dir", dir).Int64("quota", quota).Msg("badger store opened")

	return &BadgerStore{db: db, quota: quota, logger: logger}, nil
}

func (s *BadgerStore) Save(fp Fingerprint, b *overlay.Bundle) error {
	data, err := encodeBundle(fp, b)
	if err != nil {
		return err
	}
	return s.put(fp.Key(), data)
}

func (s *BadgerStore) put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	if s.quota > 0 {
		used, err := s.usedExcluding(key)
		if err != nil {
			return err
		}
		if used+int64(len(key)+len(data)) > s.quota {
			return ErrStorageQuotaExceeded
		}
	}

	rec := &bundleRecord{Key: key, Payload: data, UpdatedAt: time.Now().UTC()}
	if err := s.db.Upsert(key, rec); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

func (s *BadgerStore) usedExcluding(key string) (int64, error) {
	var recs []bundleRecord
	if err := s.db.Find(&recs, nil); err != nil {
		return 0, fmt.Errorf("failed to measure store usage: %w", err)
	}
	var used int64
	for _, r := range recs {
		if r.Key == key {
			continue
		}
		used += int64(len(r.Key) + len(r.Payload))
	}
	return used, nil
}

func (s *BadgerStore) Load(fp Fingerprint) (*overlay.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return overlay.NewBundle(string(fp)), ErrClosed
	}

	var rec bundleRecord
	err := s.db.Get(fp.Key(), &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return overlay.NewBundle(string(fp)), nil
	}
	if err != nil {
		return overlay.NewBundle(string(fp)), fmt.Errorf("failed to load overlay: %w", err)
	}
	return decodeBundle(fp, rec.Payload, s.logger), nil
}

func (s *BadgerStore) Clear(fp Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	err := s.db.Delete(fp.Key(), &bundleRecord{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to clear overlay: %w", err)
	}
	return nil
}

func (s *BadgerStore) ListKeys() ([]Fingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var recs []bundleRecord
	if err := s.db.Find(&recs, nil); err != nil {
		return nil, fmt.Errorf("failed to list overlays: %w", err)
	}
	keys := make([]Fingerprint, 0, len(recs))
	for _, r := range recs {
		if fp, ok := fingerprintFromKey(r.Key); ok {
			keys = append(keys, fp)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *BadgerStore) putRaw(fp Fingerprint, data []byte) error {
	return s.put(fp.Key(), data)
}

// badgerLogger routes badger's own messages into the phuslu logger.
type badgerLogger struct {
	logger *log.Logger
}

var _ badger.Logger = badgerLogger{}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msg(trimf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msg(trimf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msg(trimf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msg(trimf(format, args...))
}

func trimf(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
