package oekoboiler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WithLogger configures a structured logger for the client.
// Token lifecycle events and property updates are logged through it.
//
// Example:
//
//	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
//	client, _ := oekoboiler.NewClient(email, password, oekoboiler.WithLogger(logger))
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// LoggingTransport wraps an http.RoundTripper and logs requests/responses.
// Each request is tagged with a generated request_id. Headers are never
// logged, so tokens and credentials stay out of the log.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger zerolog.Logger
}

// RoundTrip implements http.RoundTripper with logging.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	requestID := uuid.NewString()
	start := time.Now()

	t.Logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("api_request")

	resp, err := base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.Logger.Error().
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Dur("duration", duration).
			Err(err).
			Msg("api_error")
		return resp, err
	}

	level := zerolog.DebugLevel
	if resp.StatusCode >= 400 {
		level = zerolog.WarnLevel
	}
	if resp.StatusCode >= 500 {
		level = zerolog.ErrorLevel
	}

	t.Logger.WithLevel(level).
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("api_response")

	return resp, nil
}

// NewLoggingClient creates a client with request/response logging enabled.
// This is a convenience function that wraps the HTTP transport with logging.
//
// Example:
//
//	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
//	client, err := oekoboiler.NewLoggingClient(email, password, logger)
func NewLoggingClient(email, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	transport := &LoggingTransport{
		Base: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
		Logger: logger,
	}

	httpClient := &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	}

	allOpts := append([]Option{WithHTTPClient(httpClient), WithLogger(logger)}, opts...)

	return NewClient(email, password, allOpts...)
}
