package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcelohmariano/blade/internal/crypto"
)

func TestRunWritesDecryptableFile(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		password string
		stdin    string
	}{
		{name: "flags", token: "tok-1", password: "pw"},
		{name: "stdin", stdin: "tok-1\npw\n"},
		{name: "mixed", token: "tok-1", stdin: "pw\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BLADE_BLAZE_TOKEN", "")
			t.Setenv("BLADE_BLAZE_TOKEN_PASSWORD", "")
			out := filepath.Join(t.TempDir(), "token.enc")

			if err := run(out, tt.token, tt.password, strings.NewReader(tt.stdin)); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			got, err := crypto.DecryptSecret(data, "pw")
			if err != nil {
				t.Fatalf("DecryptSecret() error = %v", err)
			}
			if got != "tok-1" {
				t.Errorf("token = %q, want tok-1", got)
			}
		})
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	t.Setenv("BLADE_BLAZE_TOKEN", "")
	t.Setenv("BLADE_BLAZE_TOKEN_PASSWORD", "")
	out := filepath.Join(t.TempDir(), "token.enc")
	if err := run(out, "", "", strings.NewReader("")); err == nil {
		t.Fatal("run() error = nil, want empty value")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output written despite error: %v", err)
	}
}
