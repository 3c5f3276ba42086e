package cache

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"dumpstats/internal/table"
)

// xorCipher is a reversible cipher for exercising the encryption path.
type xorCipher struct{}

func (xorCipher) Encrypt(r io.Reader, w io.Writer) error { return xorCopy(r, w) }
func (xorCipher) Decrypt(r io.Reader, w io.Writer) error { return xorCopy(r, w) }

func xorCopy(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	for i := range data {
		data[i] ^= 0x5a
	}
	_, err = w.Write(data)
	return err
}

func sampleTable() *table.Table {
	t := table.New("timestamp", "os", "count", "private")
	t.Rows = [][]table.Value{
		{table.String("2021-01-01 00:10:00.000 UTC"), table.String("Linux"), table.Int(3), table.Bool(true)},
		{table.String("2021-01-03 12:00:00.000 UTC"), table.Null(), table.Float(1.5), table.Bool(false)},
		{table.Time(time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)), table.String("Windows"), table.Null(), table.Null()},
	}
	return t
}

func TestEncodeDecodeTable(t *testing.T) {
	tests := []struct {
		compress bool
		cipher   Cipher
	}{
		{compress: false, cipher: nil},
		{compress: true, cipher: nil},
		{compress: false, cipher: xorCipher{}},
		{compress: true, cipher: xorCipher{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("compress=%v/cipher=%v", tt.compress, tt.cipher != nil), func(t *testing.T) {
			want := sampleTable()

			data, err := encodeTable(want, tt.compress, tt.cipher)
			if err != nil {
				t.Fatalf("encodeTable() error = %v", err)
			}

			got, err := decodeTable(data, tt.compress, tt.cipher)
			if err != nil {
				t.Fatalf("decodeTable() error = %v", err)
			}

			if !reflect.DeepEqual(got.Columns, want.Columns) {
				t.Errorf("Columns = %v, want %v", got.Columns, want.Columns)
			}
			if got.Len() != want.Len() {
				t.Fatalf("Len() = %d, want %d", got.Len(), want.Len())
			}
			for i := range want.Rows {
				for j := range want.Rows[i] {
					g, w := got.Rows[i][j], want.Rows[i][j]
					if g.Kind != w.Kind || g.Key() != w.Key() {
						t.Errorf("cell[%d][%d] = %v, want %v", i, j, g, w)
					}
				}
			}
		})
	}
}

func TestDecodeTable_Garbage(t *testing.T) {
	if _, err := decodeTable([]byte("definitely not gob"), false, nil); err == nil {
		t.Error("decodeTable() expected error for garbage input")
	}

	data, err := encodeTable(sampleTable(), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decodeTable(data, false, nil); err == nil {
		t.Error("decodeTable() of compressed data without decompression expected error")
	}
	if !bytes.Equal(data[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Error("compressed artifact does not start with the zstd magic number")
	}
}
