package encryption

import (
	"fmt"

	"dumpstats/internal/cache"
	"dumpstats/internal/config"
)

// NewCipherFromConfig creates the artifact cipher for the configuration type.
// Type "none" (or empty) returns a nil Cipher: artifacts are stored as is.
func NewCipherFromConfig(cfg config.EncryptionConfig, passphrase PassphraseFunc) (cache.Cipher, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		c := NewAgeCipher(cfg, passphrase)
		if !c.IsConfigured() {
			return nil, fmt.Errorf("age encryption selected but no keys at %s; run 'dumpstats keys init'", cfg.PublicKeyPath)
		}
		return c, nil
	case "test":
		return NewTestCipher(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
