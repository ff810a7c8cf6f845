// Command tokencrypt encrypts a Blaze API token into the file read by
// blaze.encrypted_token_path.
//
// The token and password come from -token / -password, then the
// BLADE_BLAZE_TOKEN / BLADE_BLAZE_TOKEN_PASSWORD environment variables, and
// finally one line each on stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/marcelohmariano/blade/internal/crypto"
)

func main() {
	out := flag.String("out", "token.enc", "output file")
	token := flag.String("token", "", "API token to encrypt")
	password := flag.String("password", "", "encryption password")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*out, *token, *password, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "tokencrypt: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("encrypted token written to %s\n", *out)
}

func run(out, token, password string, stdin io.Reader) error {
	in := bufio.NewReader(stdin)
	var err error
	if token, err = value(token, "BLADE_BLAZE_TOKEN", in); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if password, err = value(password, "BLADE_BLAZE_TOKEN_PASSWORD", in); err != nil {
		return fmt.Errorf("password: %w", err)
	}

	data, err := crypto.EncryptSecret(token, password)
	if err != nil {
		return err
	}
	// The file must decrypt before it is written.
	if _, err := crypto.DecryptSecret(data, password); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	return os.WriteFile(out, data, 0o600)
}

func value(flagValue, env string, in *bufio.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err == nil || err == io.EOF {
			return "", fmt.Errorf("empty value (set a flag or %s)", env)
		}
		return "", err
	}
	return line, nil
}
