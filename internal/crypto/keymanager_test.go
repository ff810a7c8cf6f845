package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptSecret(t *testing.T) {
	sealed, err := EncryptSecret("jwt-token", "hunter2")
	if err != nil {
		t.Fatalf("EncryptSecret() error = %v", err)
	}
	got, err := DecryptSecret(sealed, "hunter2")
	if err != nil {
		t.Fatalf("DecryptSecret() error = %v", err)
	}
	if got != "jwt-token" {
		t.Errorf("DecryptSecret() = %q, want jwt-token", got)
	}
	if _, err := DecryptSecret(sealed, "wrong"); err == nil {
		t.Error("DecryptSecret() with wrong password: error = nil")
	}
}

func TestEncryptSecretRejectsEmptyInput(t *testing.T) {
	if _, err := EncryptSecret("token", ""); err == nil {
		t.Error("empty password: error = nil")
	}
	if _, err := EncryptSecret("", "pw"); err == nil {
		t.Error("empty secret: error = nil")
	}
}

func TestLoadToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	sealed, err := EncryptSecret("from-file", "pw")
	if err != nil {
		t.Fatalf("EncryptSecret() error = %v", err)
	}
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     TokenConfig
		want    string
		wantErr error
	}{
		{"raw wins", TokenConfig{Token: " raw ", EncryptedPath: path, Password: "pw"}, "raw", nil},
		{"file", TokenConfig{EncryptedPath: path, Password: "pw"}, "from-file", nil},
		{"none", TokenConfig{}, "", ErrNoToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadToken(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadToken() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LoadToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
