package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"

	"dumpstats/internal/table"
)

// cacheKey is the serialized form of a (path, params) pair.
type cacheKey struct {
	Path   string       `json:"path"`
	Params table.Params `json:"params"`
}

// Key builds the cache key of a read. The path is made absolute and the
// params are serialized by encoding/json, which writes map keys in sorted
// order, so two params maps with the same contents always produce the same
// key. It returns the key text and its SHA-256 digest.
func Key(path string, params table.Params) (text string, digest string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if params == nil {
		params = table.Params{}
	}

	b, err := json.Marshal(cacheKey{Path: abs, Params: params})
	if err != nil {
		return "", "", fmt.Errorf("serializing read parameters: %w", err)
	}

	sum := sha256.Sum256(b)
	return string(b), hex.EncodeToString(sum[:]), nil
}
