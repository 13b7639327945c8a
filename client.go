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
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the Ayla Networks device service (EU deployment).
	DefaultBaseURL = "https://ads-eu.aylanetworks.com/apiv1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	authScheme      = "auth_token "
	contentTypeJSON = "application/json; charset=utf-8"
)

// RetryConfig configures automatic retry behavior for transient failures.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3).
	MaxRetries int
	// InitialBackoff is the initial backoff duration (default: 100ms).
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration (default: 5s).
	MaxBackoff time.Duration
	// Multiplier is the backoff multiplier (default: 2.0).
	Multiplier float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
}

// Client is an Oekoboiler client talking to the Ayla Networks cloud.
// It is safe for concurrent use.
type Client struct {
	baseURL     string
	userBaseURL string
	credentials Credentials
	application Application
	httpClient  *http.Client
	retryConfig *RetryConfig
	cacheConfig *CacheConfig
	logger      zerolog.Logger
	clock       func() time.Time

	tokens     *TokenStore
	auth       *Authenticator
	tokenGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the device service.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithUserBaseURL sets a custom base URL for the user (sign-in) service.
func WithUserBaseURL(url string) Option {
	return func(c *Client) {
		c.userBaseURL = url
	}
}

// WithApplication overrides the vendor app credentials used to sign in.
func WithApplication(app Application) Option {
	return func(c *Client) {
		c.application = app
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout.
// This option can be applied in any order relative to other options.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithRetry enables automatic retry with the given configuration.
// Retries are attempted on rate limits (429), server errors (5xx), and timeouts.
// Signing in and refreshing are never retried.
func WithRetry(config *RetryConfig) Option {
	return func(c *Client) {
		c.retryConfig = config
	}
}

// WithClock sets the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.clock = now
		}
	}
}

// NewClient creates a new client for the given Oekoboiler app account.
// No network call is made until the first request.
func NewClient(email, password string, opts ...Option) (*Client, error) {
	if email == "" {
		return nil, ErrEmptyEmail
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	c := &Client{
		baseURL:     DefaultBaseURL,
		userBaseURL: DefaultUserBaseURL,
		credentials: Credentials{Email: email, Password: password},
		application: DefaultApplication,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: zerolog.Nop(),
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.tokens = NewTokenStore()
	c.tokens.now = c.clock
	c.auth = NewAuthenticator(c.userBaseURL, c.credentials, c.application, c.tokens, c.httpClient, c.logger)

	return c, nil
}

// do performs an authenticated HTTP request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", authScheme+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens.ResetIfCurrent(token) {
		// The platform revoked the token; the next request signs in again.
		c.logger.Warn().Str("path", path).Msg("token_reset")
	}
	if resp.StatusCode >= 400 {
		return nil, c.handleError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// handleError converts HTTP error responses to appropriate errors.
func (c *Client) handleError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{
			StatusCode: statusCode,
			Message:    errorMessage(body),
		}
	}
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.doWithRetry(ctx, http.MethodGet, path, nil)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.doWithRetry(ctx, http.MethodPost, path, body)
}

// doWithRetry performs a request with automatic retry on transient failures.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.retryConfig == nil {
		return c.do(ctx, method, path, body)
	}

	var lastErr error
	backoff := c.retryConfig.InitialBackoff

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		data, err := c.do(ctx, method, path, body)
		if err == nil {
			return data, nil
		}

		if !c.isRetryable(err) {
			return nil, err
		}

		lastErr = err
		c.logger.Debug().Err(err).Int("attempt", attempt+1).Str("path", path).Msg("api_retry")

		if attempt < c.retryConfig.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * c.retryConfig.Multiplier)
				if backoff > c.retryConfig.MaxBackoff {
					backoff = c.retryConfig.MaxBackoff
				}
			}
		}
	}

	return nil, lastErr
}

// isRetryable returns true if the error is a transient failure worth retrying.
// Authentication failures are surfaced immediately.
func (c *Client) isRetryable(err error) bool {
	if IsAuthenticationError(err) {
		return false
	}
	if IsRateLimited(err) {
		return true
	}
	if IsTimeout(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 && apiErr.StatusCode < 600
	}
	return false
}
