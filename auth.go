package oekoboiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultUserBaseURL is the Ayla Networks user service (EU field deployment).
	DefaultUserBaseURL = "https://user-field-eu.aylanetworks.com/users"

	signInPath  = "/sign_in.json"
	refreshPath = "/refresh_token.json"

	opSignIn  = "sign_in"
	opRefresh = "refresh"
)

// Credentials identify the Oekoboiler app user.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Application identifies the vendor app to the Ayla user service.
type Application struct {
	ID     string `json:"app_id"`
	Secret string `json:"app_secret"`
}

// DefaultApplication holds the credentials the Oekoboiler mobile app
// presents when signing in.
var DefaultApplication = Application{
	ID:     "Ob-Ng-id",
	Secret: "Ob-Y1Ngeac9TzrS0fIfDo6u-wAgWDs",
}

// TokenResponse is the body returned by the sign-in and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Role         string `json:"role,omitempty"`
}

type signInRequest struct {
	User struct {
		Credentials
		Application Application `json:"application"`
	} `json:"user"`
}

type refreshRequest struct {
	User struct {
		RefreshToken string `json:"refresh_token"`
	} `json:"user"`
}

// Authenticator exchanges credentials or a refresh token for a new token
// pair and installs it into a TokenStore.
type Authenticator struct {
	baseURL     string
	credentials Credentials
	application Application
	store       *TokenStore
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewAuthenticator creates an Authenticator for the given user service.
func NewAuthenticator(baseURL string, creds Credentials, app Application, store *TokenStore, httpClient *http.Client, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		baseURL:     baseURL,
		credentials: creds,
		application: app,
		store:       store,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// SignIn exchanges the user's credentials for a fresh token pair.
func (a *Authenticator) SignIn(ctx context.Context) error {
	var body signInRequest
	body.User.Credentials = a.credentials
	body.User.Application = a.application

	tokens, err := a.exchange(ctx, opSignIn, signInPath, body, "")
	if err != nil {
		a.logger.Warn().Err(err).Msg("token_sign_in")
		return err
	}

	state := a.install(tokens)
	a.logger.Info().Time("expires_at", state.ExpiresAt).Msg("token_sign_in")
	return nil
}

// Refresh exchanges the stored refresh token for a new token pair.
// If the platform rejects the refresh token the store is reset, so the next
// request signs in again. The error is returned either way.
func (a *Authenticator) Refresh(ctx context.Context) error {
	current := a.store.Snapshot()

	var body refreshRequest
	body.User.RefreshToken = current.RefreshToken

	tokens, err := a.exchange(ctx, opRefresh, refreshPath, body, current.AccessToken)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.rejected() {
			a.store.Reset()
			a.logger.Warn().Err(err).Msg("token_reset")
			return err
		}
		a.logger.Warn().Err(err).Msg("token_refresh")
		return err
	}

	state := a.install(tokens)
	a.logger.Info().Time("expires_at", state.ExpiresAt).Msg("token_refresh")
	return nil
}

func (a *Authenticator) install(tokens *TokenResponse) TokenState {
	return a.store.Set(tokens.AccessToken, tokens.RefreshToken, time.Duration(tokens.ExpiresIn)*time.Second)
}

// exchange posts a token request and decodes the token pair.
func (a *Authenticator) exchange(ctx context.Context, op, path string, body any, accessToken string) (*TokenResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &AuthError{Op: op, Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	url := a.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &AuthError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", authScheme+accessToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Op: op, Err: &NetworkError{Method: req.Method, URL: url, Err: err}}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{Op: op, Err: &NetworkError{Method: req.Method, URL: url, Err: err}}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(errorMessage(respBody))}
	}

	tokens, err := unmarshalResponse[TokenResponse](respBody, "token response")
	if err != nil {
		return nil, &AuthError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if tokens.AccessToken == "" {
		return nil, &AuthError{Op: op, StatusCode: resp.StatusCode, Err: errors.New("response did not contain an access token")}
	}

	return tokens, nil
}
