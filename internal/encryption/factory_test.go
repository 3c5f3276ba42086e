package encryption

import (
	"path/filepath"
	"testing"

	"dumpstats/internal/config"
)

func TestNewCipherFromConfig(t *testing.T) {
	dir := t.TempDir()
	keys := config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "k.pub"),
		PrivateKeyPath: filepath.Join(dir, "k.key"),
	}

	tests := []struct {
		name    string
		typ     string
		setup   bool
		wantNil bool
		wantErr bool
	}{
		{name: "none", typ: "none", wantNil: true},
		{name: "empty means none", typ: "", wantNil: true},
		{name: "test", typ: "test"},
		{name: "age without keys", typ: "age", wantNil: true, wantErr: true},
		{name: "age with keys", typ: "age", setup: true},
		{name: "unknown", typ: "rot13", wantNil: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := keys
			cfg.Type = tt.typ
			if tt.setup {
				if err := NewAgeCipher(cfg, nil).Setup("pw"); err != nil {
					t.Fatalf("Setup() error = %v", err)
				}
			}

			got, err := NewCipherFromConfig(cfg, staticPassphrase("pw"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCipherFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewCipherFromConfig() nil = %v, want %v", got == nil, tt.wantNil)
			}
		})
	}
}
