package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyPrefix prefixes every persisted overlay key.
const KeyPrefix = "pdf_annotations_"

// Fingerprint is the lowercase hex SHA-256 digest of a document's bytes.
// It identifies the document across sessions independently of its file name.
type Fingerprint string

// FingerprintOf hashes the full document buffer.
func FingerprintOf(data []byte) Fingerprint {
	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// ParseFingerprint accepts exactly 64 lowercase hex characters.
func ParseFingerprint(s string) (Fingerprint, error) {
	if len(s) != sha256.Size*2 {
		return "", fmt.Errorf("fingerprint must be %d hex characters, got %d", sha256.Size*2, len(s))
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return "", fmt.Errorf("fingerprint contains non-lowercase-hex character %q", r)
		}
	}
	return Fingerprint(s), nil
}

// Key returns the storage key for the fingerprint.
func (f Fingerprint) Key() string {
	return KeyPrefix + string(f)
}

// Short returns the first 12 characters, for logs.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

func (f Fingerprint) String() string {
	return string(f)
}

func fingerprintFromKey(key string) (Fingerprint, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	fp, err := ParseFingerprint(strings.TrimPrefix(key, KeyPrefix))
	if err != nil {
		return "", false
	}
	return fp, true
}
