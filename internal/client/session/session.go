// Package session keeps the signed-in user's bearer token on disk.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSession = errors.New("not logged in")

func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "roamly", "id_token")
}

type Store struct {
	path string
	now  func() time.Time
}

func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Login persists token so later requests can present it.
func (s *Store) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0600)
}

func (s *Store) Token() (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoSession
		}
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// LoggedIn reports whether a token is stored and not past its expiry. The
// signature is the server's business; only the exp claim is read here.
func (s *Store) LoggedIn() bool {
	token, err := s.Token()
	if err != nil {
		return false
	}
	exp, err := expiry(token)
	if err != nil {
		return false
	}
	return exp.IsZero() || s.now().Before(exp)
}

func (s *Store) Logout() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func expiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}
