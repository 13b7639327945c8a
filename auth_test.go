package oekoboiler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T, baseURL string, clock *fakeClock) (*Authenticator, *TokenStore) {
	t.Helper()
	store := NewTokenStore()
	if clock != nil {
		store.now = clock.Now
	}
	auth := NewAuthenticator(baseURL,
		Credentials{Email: testEmail, Password: testPassword},
		DefaultApplication,
		store,
		&http.Client{Timeout: 5 * time.Second},
		zerolog.Nop(),
	)
	return auth, store
}

func TestAuthenticator_SignIn(t *testing.T) {
	f := newFakeAyla(t)
	clock := newFakeClock()
	auth, store := newTestAuthenticator(t, f.server.URL+"/users", clock)

	require.NoError(t, auth.SignIn(context.Background()))

	state := store.Snapshot()
	assert.Equal(t, "access-1", state.AccessToken)
	assert.Equal(t, "refresh-1", state.RefreshToken)
	assert.Equal(t, clock.Now().Add(86400*time.Second-time.Hour), state.ExpiresAt)

	f.mu.Lock()
	body := f.lastSignIn
	f.mu.Unlock()

	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "body must be wrapped in a user object: %v", body)
	assert.Equal(t, testEmail, user["email"])
	assert.Equal(t, testPassword, user["password"])

	app, ok := user["application"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, DefaultApplication.ID, app["app_id"])
	assert.Equal(t, DefaultApplication.Secret, app["app_secret"])
}

func TestAuthenticator_SignInRejected(t *testing.T) {
	f := newFakeAyla(t)
	f.update(func(f *fakeAyla) { f.signInStatus = http.StatusUnauthorized })
	auth, store := newTestAuthenticator(t, f.server.URL+"/users", nil)

	err := auth.SignIn(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.False(t, IsNetworkError(err))

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, opSignIn, authErr.Op)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, err.Error(), "Your email or password is incorrect.")
	assert.False(t, store.Active())
}

func TestAuthenticator_SignInNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	auth, store := newTestAuthenticator(t, url, nil)

	err := auth.SignIn(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.True(t, IsNetworkError(err))
	assert.False(t, store.Active())
}

func TestAuthenticator_SignInMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"expires_in": 3600})
	}))
	defer server.Close()

	auth, store := newTestAuthenticator(t, server.URL, nil)

	err := auth.SignIn(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.Contains(t, err.Error(), "access token")
	assert.False(t, store.Active())
}

func TestAuthenticator_SignInMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	auth, _ := newTestAuthenticator(t, server.URL, nil)

	err := auth.SignIn(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.Contains(t, err.Error(), "maintenance")
}

func TestAuthenticator_Refresh(t *testing.T) {
	f := newFakeAyla(t)
	clock := newFakeClock()
	auth, store := newTestAuthenticator(t, f.server.URL+"/users", clock)

	require.NoError(t, auth.SignIn(context.Background()))
	clock.Advance(24 * time.Hour)

	require.NoError(t, auth.Refresh(context.Background()))

	state := store.Snapshot()
	assert.Equal(t, "access-2", state.AccessToken)
	assert.Equal(t, "refresh-2", state.RefreshToken)
	assert.Equal(t, clock.Now().Add(23*time.Hour), state.ExpiresAt)

	f.mu.Lock()
	body, authHeader := f.lastRefresh, f.lastRefreshAu
	f.mu.Unlock()

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "refresh-1", user["refresh_token"])
	assert.Equal(t, "auth_token access-1", authHeader)
	assert.EqualValues(t, 1, f.signIns.Load())
	assert.EqualValues(t, 1, f.refreshes.Load())
}

func TestAuthenticator_RefreshRejectedResetsStore(t *testing.T) {
	f := newFakeAyla(t)
	auth, store := newTestAuthenticator(t, f.server.URL+"/users", nil)

	require.NoError(t, auth.SignIn(context.Background()))
	f.update(func(f *fakeAyla) { f.refreshStatus = http.StatusUnauthorized })

	err := auth.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, opRefresh, authErr.Op)
	assert.False(t, store.Active(), "rejected refresh token must force a new sign-in")
}

func TestAuthenticator_RefreshServerErrorKeepsStore(t *testing.T) {
	f := newFakeAyla(t)
	auth, store := newTestAuthenticator(t, f.server.URL+"/users", nil)

	require.NoError(t, auth.SignIn(context.Background()))
	f.update(func(f *fakeAyla) { f.refreshStatus = http.StatusBadGateway })

	err := auth.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.True(t, store.Active(), "transient failure keeps the refresh token for the next attempt")
	assert.Equal(t, "refresh-1", store.Snapshot().RefreshToken)
}
