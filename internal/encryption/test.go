package encryption

import (
	"bytes"
	"fmt"
	"io"

	"dumpstats/internal/cache"
)

// testHeader marks artifacts written by TestCipher.
var testHeader = []byte("DSENC\x00\x00\x00")

// TestCipher is a deterministic stand-in for AgeCipher. It prepends a fixed
// 8-byte header on encryption and strips it on decryption, so encrypted
// artifacts differ from plaintext without needing keys.
type TestCipher struct{}

var _ cache.Cipher = (*TestCipher)(nil)

func NewTestCipher() *TestCipher {
	return &TestCipher{}
}

func (*TestCipher) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (*TestCipher) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
