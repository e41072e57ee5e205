// internal/session/store_test.go
package session_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-storefront/internal/api"
	"github.com/your-org/bookstore-storefront/internal/apitest"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/pkg/logging"
	"github.com/your-org/bookstore-storefront/internal/pkg/tokens"
	"github.com/your-org/bookstore-storefront/internal/session"
)

func newSession(t *testing.T, server *apitest.Server) (*session.Store, *tokens.Store) {
	t.Helper()

	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: server.URL, Timeout: 5 * time.Second, PageLimit: 10},
		Logging: config.LoggingConfig{Level: "error"},
	}
	logger := logging.New(cfg)

	tokenStore := tokens.NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	client := api.NewClient(cfg, logger, tokenStore)
	return session.NewStore(client, tokenStore, logger), tokenStore
}

// signedToken mints a JWT with the given expiry. The signature is never
// verified client-side, only the exp claim is read.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestLoginStoresTokensAndUser(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, tokenStore := newSession(t, server)

	user, err := store.Login(context.Background(), apitest.Email, apitest.Password)
	require.NoError(t, err)
	assert.Equal(t, apitest.Email, user.Email)
	assert.Equal(t, "Avid Reader", user.FullName())
	assert.False(t, user.IsAdmin())

	assert.Equal(t, apitest.AccessToken, tokenStore.AccessToken())
	assert.Equal(t, apitest.RefreshToken, tokenStore.RefreshToken())
	require.NotNil(t, store.Current())
	assert.Equal(t, apitest.Email, store.Current().Email)
}

func TestLoginBadCredentials(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, tokenStore := newSession(t, server)

	_, err := store.Login(context.Background(), apitest.Email, "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnauthenticated))
	assert.Empty(t, tokenStore.AccessToken())
	assert.Nil(t, store.Current())
}

func TestHydrateWithoutTokensIsSignedOut(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, _ := newSession(t, server)

	require.NoError(t, store.Hydrate(context.Background()))
	assert.Nil(t, store.Current())
	// No request should have reached the backend
	assert.Empty(t, server.LastAuthHeader)
}

func TestHydrateRefreshesExpiredToken(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, tokenStore := newSession(t, server)

	// An expired access token plus a valid refresh token: hydrate must
	// refresh first, then load the profile
	require.NoError(t, tokenStore.Save(tokens.Pair{
		AccessToken:  signedToken(t, time.Now().Add(-time.Hour)),
		RefreshToken: apitest.RefreshToken,
	}))

	require.NoError(t, store.Hydrate(context.Background()))
	require.NotNil(t, store.Current())
	assert.Equal(t, apitest.Email, store.Current().Email)
	assert.Equal(t, apitest.AccessToken, tokenStore.AccessToken())
}

func TestHydrateSkipsRefreshWhenTokenIsFresh(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	server.RequireAuth = false

	store, tokenStore := newSession(t, server)

	fresh := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, tokenStore.Save(tokens.Pair{
		AccessToken:  fresh,
		RefreshToken: apitest.RefreshToken,
	}))

	require.NoError(t, store.Hydrate(context.Background()))
	require.NotNil(t, store.Current())
	// A refresh would have replaced the access token
	assert.Equal(t, fresh, tokenStore.AccessToken())
}

func TestHydrateClearsTokensOnProfileFailure(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, tokenStore := newSession(t, server)

	require.NoError(t, tokenStore.Save(tokens.Pair{
		AccessToken: signedToken(t, time.Now().Add(time.Hour)),
	}))

	// The backend rejects the unknown token with a 401
	require.NoError(t, store.Hydrate(context.Background()))
	assert.Nil(t, store.Current())
	assert.Empty(t, tokenStore.AccessToken())
}

func TestLogoutClearsLocalStateEvenOnBackendError(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, tokenStore := newSession(t, server)

	_, err := store.Login(context.Background(), apitest.Email, apitest.Password)
	require.NoError(t, err)

	server.FailNext(http.StatusInternalServerError, gin.H{"message": "boom"})
	err = store.Logout(context.Background())
	require.Error(t, err)

	assert.Nil(t, store.Current())
	assert.Empty(t, tokenStore.AccessToken())
	assert.Empty(t, tokenStore.RefreshToken())
}

func TestRefreshFailureSignsOut(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, tokenStore := newSession(t, server)

	require.NoError(t, tokenStore.Save(tokens.Pair{
		AccessToken:  apitest.AccessToken,
		RefreshToken: "stale-refresh-token",
	}))

	err := store.Refresh(context.Background())
	require.Error(t, err)
	assert.Empty(t, tokenStore.AccessToken())
	assert.Empty(t, tokenStore.RefreshToken())
	assert.Nil(t, store.Current())
}

func TestUnauthorizedResponseSignsOut(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, tokenStore := newSession(t, server)

	_, err := store.Login(context.Background(), apitest.Email, apitest.Password)
	require.NoError(t, err)
	require.NotNil(t, store.Current())

	// Any 401 mid-session tears the session down via the transport hook
	server.FailNext(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
	err = store.Verify(context.Background(), "whatever")
	require.Error(t, err)

	assert.Nil(t, store.Current())
	assert.Empty(t, tokenStore.AccessToken())
}

func TestRegisterConflict(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, _ := newSession(t, server)

	err := store.Register(context.Background(), &session.RegisterRequest{
		Firstname: "New",
		Lastname:  "Reader",
		Email:     apitest.Email, // already taken
		Password:  "secret123",
	})
	require.Error(t, err)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsConflict())
}

func TestSubscribersHearIdentityChanges(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, _ := newSession(t, server)

	var changes []*session.User
	store.Subscribe(func(u *session.User) {
		changes = append(changes, u)
	})

	_, err := store.Login(context.Background(), apitest.Email, apitest.Password)
	require.NoError(t, err)
	require.NoError(t, store.Logout(context.Background()))

	require.Len(t, changes, 2)
	assert.NotNil(t, changes[0])
	assert.Nil(t, changes[1])
}

func TestGuards(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	store, _ := newSession(t, server)

	t.Run("anonymous", func(t *testing.T) {
		decision := session.RequireAuth(store, "/checkout")
		assert.False(t, decision.Allowed)
		assert.Equal(t, "/login?returnUrl=%2Fcheckout", decision.RedirectTo)

		assert.True(t, session.RequireGuest(store).Allowed)

		admin := session.RequireAdmin(store, "/admin/orders")
		assert.False(t, admin.Allowed)
		assert.Equal(t, "/login?returnUrl=%2Fadmin%2Forders", admin.RedirectTo)
	})

	_, err := store.Login(context.Background(), apitest.Email, apitest.Password)
	require.NoError(t, err)

	t.Run("signed in as regular user", func(t *testing.T) {
		assert.True(t, session.RequireAuth(store, "/checkout").Allowed)

		guest := session.RequireGuest(store)
		assert.False(t, guest.Allowed)
		assert.Equal(t, "/", guest.RedirectTo)

		admin := session.RequireAdmin(store, "/admin/orders")
		assert.False(t, admin.Allowed)
		assert.Equal(t, "/", admin.RedirectTo)
	})
}
