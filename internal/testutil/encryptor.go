package testutil

import (
	"dumpstats/internal/cache"
	"dumpstats/internal/encryption"
)

// NewTestCipher creates a deterministic artifact cipher for testing.
func NewTestCipher() cache.Cipher {
	return encryption.NewTestCipher()
}
