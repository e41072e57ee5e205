// internal/pkg/tokens/store.go
package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Pair holds the access/refresh token pair issued by the backend
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store persists the token pair to a local file, the equivalent of the
// browser's localStorage for a native client. An in-memory copy is kept so
// reads do not hit the filesystem on every request.
type Store struct {
	mu     sync.Mutex
	path   string
	pair   Pair
	loaded bool
}

// NewStore creates a token store backed by the given file path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// AccessToken returns the stored access token, or "" when signed out
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.pair.AccessToken
}

// RefreshToken returns the stored refresh token, or "" when signed out
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.pair.RefreshToken
}

// Save persists a new token pair
func (s *Store) Save(pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = pair
	s.loaded = true
	return s.write()
}

// SetAccessToken replaces only the access token, keeping the refresh token.
// Used after a successful refresh.
func (s *Store) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	s.pair.AccessToken = token
	return s.write()
}

// Clear removes the stored tokens, both in memory and on disk
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = Pair{}
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (s *Store) load() {
	if s.loaded {
		return
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var pair Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return
	}
	s.pair = pair
}

func (s *Store) write() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.Marshal(s.pair)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// ExpiresAt reads the expiry claim from a JWT without verifying its
// signature. The client has no signing key; verification happens on the
// server. The claim is only used to decide whether a refresh is needed
// before the next authenticated call.
func ExpiresAt(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return exp.Time, nil
}

// IsExpired reports whether a JWT has passed its expiry claim. Tokens that
// cannot be parsed are treated as expired.
func IsExpired(token string, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return !exp.After(now)
}
