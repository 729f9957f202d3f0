// Package sha256 provides SHA-256 digests used to detect unchanged output files.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements archive.Hasher using SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Same reports whether two payloads share a digest.
func (h *Hasher) Same(a, b []byte) bool {
	return sha256.Sum256(a) == sha256.Sum256(b)
}
