// internal/api/client_test.go
package api_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/bookstore-storefront/internal/api"
	"github.com/your-org/bookstore-storefront/internal/apitest"
	"github.com/your-org/bookstore-storefront/internal/config"
	"github.com/your-org/bookstore-storefront/internal/pkg/logging"
	"github.com/your-org/bookstore-storefront/internal/pkg/tokens"
)

func newClient(t *testing.T, server *apitest.Server, signedIn bool) *api.Client {
	t.Helper()

	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: server.URL, Timeout: 5 * time.Second, PageLimit: 10},
		Logging: config.LoggingConfig{Level: "error"},
	}
	logger := logging.New(cfg)

	tokenStore := tokens.NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	if signedIn {
		require.NoError(t, tokenStore.Save(tokens.Pair{
			AccessToken:  apitest.AccessToken,
			RefreshToken: apitest.RefreshToken,
		}))
	}
	return api.NewClient(cfg, logger, tokenStore)
}

func TestAttachesAuthAndRequestID(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	client := newClient(t, server, true)

	var user struct {
		Email string `json:"email"`
	}
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/profile", nil, nil, &user))
	assert.Equal(t, apitest.Email, user.Email)

	assert.Equal(t, "Bearer "+apitest.AccessToken, server.LastAuthHeader)
	assert.NotEmpty(t, server.LastRequestID)
}

func TestNoAuthHeaderWhenSignedOut(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	server.RequireAuth = false
	client := newClient(t, server, false)

	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/profile", nil, nil, nil))
	assert.Empty(t, server.LastAuthHeader)
}

func TestUnauthorizedTriggersHandler(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	client := newClient(t, server, false)

	var fired bool
	client.SetUnauthorizedHandler(func() { fired = true })

	err := client.Do(context.Background(), http.MethodGet, "/profile", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnauthenticated))
	assert.True(t, fired)

	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid or expired token", apiErr.Message)
}

func TestValidationDetailsAreFlattened(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	client := newClient(t, server, true)

	server.FailNext(http.StatusBadRequest, gin.H{
		"message": "Validation failed",
		"details": []gin.H{
			{"message": "phone must start with 010, 011 or 012", "context": gin.H{"key": "phone"}},
			{"message": "zipCode must be numeric", "context": gin.H{"key": "zipCode"}},
		},
	})

	err := client.Do(context.Background(), http.MethodGet, "/profile", nil, nil, nil)
	require.Error(t, err)

	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsValidation())

	fields := api.Fields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "phone", fields[0].Field)
	assert.Equal(t, "zipCode", fields[1].Field)
	assert.Equal(t, "zipCode must be numeric", fields[1].Message)
}

func TestStringDetailsBecomeMessage(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	client := newClient(t, server, true)

	server.FailNext(http.StatusConflict, gin.H{"details": "Email already used"})

	err := client.Do(context.Background(), http.MethodGet, "/profile", nil, nil, nil)
	require.Error(t, err)

	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "Email already used", apiErr.Message)
}

func TestNonJSONErrorBodyFallsBackToStatusText(t *testing.T) {
	server := apitest.New()
	defer server.Close()
	client := newClient(t, server, true)

	// An error body the envelope decoder cannot parse still yields a
	// structured error with the HTTP status text
	server.FailNext(http.StatusBadGateway, nil)

	err := client.Do(context.Background(), http.MethodGet, "/profile", nil, nil, nil)
	require.Error(t, err)

	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestBookRefDecodesBothShapes(t *testing.T) {
	var bare api.BookRef
	require.NoError(t, bare.UnmarshalJSON([]byte(`"b1"`)))
	assert.Equal(t, "b1", bare.ID)
	assert.False(t, bare.Populated())

	var populated api.BookRef
	require.NoError(t, populated.UnmarshalJSON([]byte(`{"_id":"b1","book_title":"Dune","book_cover_url":"/covers/dune.jpg"}`)))
	assert.Equal(t, "b1", populated.ID)
	assert.Equal(t, "Dune", populated.Title)
	assert.True(t, populated.Populated())

	// Marshalling always emits the bare id the backend expects
	data, err := populated.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"b1"`, string(data))
}
