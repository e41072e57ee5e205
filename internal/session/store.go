// internal/session/store.go
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/bookstore-storefront/internal/api"
	"github.com/your-org/bookstore-storefront/internal/pkg/tokens"
)

// User is the authenticated identity as reported by the backend
type User struct {
	Email     string  `json:"email"`
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	DOB       string  `json:"dob"`
	Role      string  `json:"role"`
	Address   Address `json:"address"`
}

// Address is the user's registered address
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.Firstname + " " + u.Lastname
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	DOB       string  `json:"dob"`
	Address   Address `json:"address"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store owns the current authenticated identity. The identity is exposed
// only as a value copy through Current; mutation happens exclusively through
// the auth operations below. Consumers that need to react to sign-in or
// sign-out register a subscriber.
type Store struct {
	mu      sync.RWMutex
	api     *api.Client
	tokens  *tokens.Store
	logger  *logrus.Entry
	current *User
	subs    []func(*User)
}

// NewStore creates the session store and hooks it into the transport so a
// 401 from any endpoint clears the stored tokens and signs the user out.
func NewStore(client *api.Client, tokenStore *tokens.Store, logger *logrus.Logger) *Store {
	s := &Store{
		api:    client,
		tokens: tokenStore,
		logger: logger.WithField("component", "session"),
	}
	client.SetUnauthorizedHandler(func() {
		if err := s.tokens.Clear(); err != nil {
			s.logger.WithError(err).Warn("Failed to clear tokens after 401")
		}
		s.setUser(nil)
	})
	return s
}

// Current returns a copy of the signed-in user, or nil when signed out
func (s *Store) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	user := *s.current
	return &user
}

// Subscribe registers a callback invoked after every identity change
func (s *Store) Subscribe(fn func(*User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Hydrate restores the session on startup. Without a stored token the user
// is simply signed out; with one, the profile is fetched, refreshing the
// access token first if it has already expired. A failed profile fetch
// clears the tokens rather than leaving a half-authenticated state.
func (s *Store) Hydrate(ctx context.Context) error {
	access := s.tokens.AccessToken()
	if access == "" {
		s.setUser(nil)
		return nil
	}

	if tokens.IsExpired(access, time.Now()) && s.tokens.RefreshToken() != "" {
		if err := s.Refresh(ctx); err != nil {
			s.logger.WithError(err).Info("Session refresh failed during hydrate")
			return nil
		}
	}

	var user User
	if err := s.api.Do(ctx, http.MethodGet, "/profile", nil, nil, &user); err != nil {
		s.logger.WithError(err).Info("Session hydrate failed, signing out")
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.logger.WithError(clearErr).Warn("Failed to clear tokens")
		}
		s.setUser(nil)
		return nil
	}

	s.setUser(&user)
	return nil
}

// Login authenticates with email/password, stores the issued token pair and
// loads the user profile
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}

	var resp authResponse
	if err := s.api.Do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	if err := s.tokens.Save(tokens.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}

	var user User
	if err := s.api.Do(ctx, http.MethodGet, "/profile", nil, nil, &user); err != nil {
		return nil, err
	}

	s.setUser(&user)
	return s.Current(), nil
}

// Register creates a new account. The user still has to log in afterwards.
func (s *Store) Register(ctx context.Context, req *RegisterRequest) error {
	return s.api.Do(ctx, http.MethodPost, "/auth/register", nil, req, nil)
}

// Logout notifies the backend and clears local session state. Local state
// is cleared even when the backend call fails.
func (s *Store) Logout(ctx context.Context) error {
	err := s.api.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)

	if clearErr := s.tokens.Clear(); clearErr != nil {
		s.logger.WithError(clearErr).Warn("Failed to clear tokens on logout")
	}
	s.setUser(nil)
	return err
}

// Refresh exchanges the refresh token for a new access token. On failure
// the stored tokens are cleared and the user is signed out.
func (s *Store) Refresh(ctx context.Context) error {
	body := map[string]string{"refresh_token": s.tokens.RefreshToken()}

	var resp authResponse
	if err := s.api.Do(ctx, http.MethodPost, "/auth/refresh", nil, body, &resp); err != nil {
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.logger.WithError(clearErr).Warn("Failed to clear tokens after refresh failure")
		}
		s.setUser(nil)
		return err
	}

	if err := s.tokens.SetAccessToken(resp.AccessToken); err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	return nil
}

// Verify confirms an email verification token
func (s *Store) Verify(ctx context.Context, token string) error {
	query := url.Values{"token": {token}}
	return s.api.Do(ctx, http.MethodGet, "/auth/verify", query, nil, nil)
}

// ForgetPassword requests a password reset email
func (s *Store) ForgetPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return s.api.Do(ctx, http.MethodPost, "/auth/forget-password", nil, body, nil)
}

// ResetPassword sets a new password using a reset token
func (s *Store) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return s.api.Do(ctx, http.MethodPost, "/auth/reset-password", nil, body, nil)
}

func (s *Store) setUser(user *User) {
	s.mu.Lock()
	s.current = user
	subs := make([]func(*User), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(user)
	}
}
