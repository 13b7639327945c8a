package oekoboiler

import (
	"sync"
	"time"
)

// ExpiryMargin is subtracted from the lifetime the platform declares for an
// access token. A token is treated as expired this long before it really is.
const ExpiryMargin = time.Hour

// TokenState is a snapshot of the credentials held by a TokenStore.
type TokenState struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Active reports whether an access token has been acquired.
func (s TokenState) Active() bool {
	return s.AccessToken != ""
}

// ExpiredAt reports whether the token is expired at the given instant.
func (s TokenState) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TokenStore holds the access/refresh token pair for one client.
// It starts inactive and is only mutated by the Authenticator.
type TokenStore struct {
	state TokenState
	now   func() time.Time
	mu    sync.RWMutex
}

// NewTokenStore creates an empty (inactive) token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{now: time.Now}
}

// Active reports whether an access token is held.
func (s *TokenStore) Active() bool {
	return s.Snapshot().Active()
}

// Expired reports whether the held token has passed its (margin adjusted) expiry.
func (s *TokenStore) Expired() bool {
	return s.Snapshot().ExpiredAt(s.now())
}

// AccessToken returns the current access token, or "" if none is held.
func (s *TokenStore) AccessToken() string {
	return s.Snapshot().AccessToken
}

// Snapshot returns a copy of the current state.
func (s *TokenStore) Snapshot() TokenState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set installs a freshly issued token pair. expiresIn is the lifetime the
// platform declared for the access token.
func (s *TokenStore) Set(accessToken, refreshToken string, expiresIn time.Duration) TokenState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = TokenState{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.now().Add(expiresIn - ExpiryMargin),
	}
	return s.state
}

// Reset drops the held tokens, returning the store to its inactive state.
func (s *TokenStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = TokenState{}
}

// ResetIfCurrent drops the held tokens only if accessToken is still the one
// held. A token installed by a concurrent sign-in or refresh is kept. It
// reports whether the store was reset.
func (s *TokenStore) ResetIfCurrent(accessToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accessToken == "" || s.state.AccessToken != accessToken {
		return false
	}
	s.state = TokenState{}
	return true
}
