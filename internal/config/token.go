package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankittk/osboard/pkg/client"
)

// TokenPath returns <home>/protected/token.
func TokenPath(home string) string {
	return filepath.Join(home, "protected", "token")
}

// TokenFile is a client.TokenSource backed by OSBOARD_TOKEN or the token file.
type TokenFile struct {
	Home string
}

// Token returns the bearer token. A missing token yields client.ErrNoSession.
func (t TokenFile) Token() (string, error) {
	if v := strings.TrimSpace(os.Getenv("OSBOARD_TOKEN")); v != "" {
		return v, nil
	}
	b, err := os.ReadFile(TokenPath(t.Home))
	if errors.Is(err, os.ErrNotExist) {
		return "", client.ErrNoSession
	}
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", client.ErrNoSession
	}
	return tok, nil
}

// SaveToken writes the bearer token with owner-only permissions.
func SaveToken(home, token string) error {
	path := TokenPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.TrimSpace(token)+"\n"), 0o600)
}

// ClearToken removes the token file; the session expired.
func ClearToken(home string) error {
	err := os.Remove(TokenPath(home))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
