package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"dumpstats/internal/table"
)

// Cipher encrypts and decrypts artifacts at rest.
type Cipher interface {
	Encrypt(r io.Reader, w io.Writer) error
	Decrypt(r io.Reader, w io.Writer) error
}

// encodeTable serializes t with gob, optionally zstd-compressing and
// encrypting the result.
func encodeTable(t *table.Table, compress bool, cipher Cipher) ([]byte, error) {
	var plain bytes.Buffer
	if compress {
		zw, err := zstd.NewWriter(&plain)
		if err != nil {
			return nil, fmt.Errorf("creating compressor: %w", err)
		}
		if err := gob.NewEncoder(zw).Encode(t); err != nil {
			zw.Close()
			return nil, fmt.Errorf("encoding table: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("finalizing compression: %w", err)
		}
	} else {
		if err := gob.NewEncoder(&plain).Encode(t); err != nil {
			return nil, fmt.Errorf("encoding table: %w", err)
		}
	}

	if cipher == nil {
		return plain.Bytes(), nil
	}

	var sealed bytes.Buffer
	if err := cipher.Encrypt(&plain, &sealed); err != nil {
		return nil, fmt.Errorf("encrypting artifact: %w", err)
	}
	return sealed.Bytes(), nil
}

// decodeTable reverses encodeTable.
func decodeTable(data []byte, compressed bool, cipher Cipher) (*table.Table, error) {
	if cipher != nil {
		var plain bytes.Buffer
		if err := cipher.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return nil, fmt.Errorf("decrypting artifact: %w", err)
		}
		data = plain.Bytes()
	}

	var r io.Reader = bytes.NewReader(data)
	if compressed {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating decompressor: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var t table.Table
	if err := gob.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}
	return &t, nil
}
