package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates deterministic cache keys from request parameters.
//
// Contract:
// - Determinism: identical inputs must produce identical keys, regardless
//   of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for a tool request.
	Key(tool string, input any) (string, error)
}

// RequestKeyer fingerprints requests with SHA-256 over their JSON form.
// encoding/json emits map keys in sorted order, so the encoding is
// canonical for map-shaped inputs without extra normalization.
type RequestKeyer struct{}

// NewRequestKeyer creates a new request keyer.
func NewRequestKeyer() *RequestKeyer {
	return &RequestKeyer{}
}

// Key generates a deterministic cache key.
// Format: req:<tool>:<hash>, where hash is the first 16 hex characters of
// SHA-256 over the canonical JSON encoding of input.
func (k *RequestKeyer) Key(tool string, input any) (string, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to encode input: %w", err)
	}

	hash := sha256.Sum256(encoded)
	return fmt.Sprintf("req:%s:%s", tool, hex.EncodeToString(hash[:8])), nil
}

// Ensure RequestKeyer implements Keyer
var _ Keyer = (*RequestKeyer)(nil)
