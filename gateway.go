package oekoboiler

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenAction is what the gateway must do before a request can be sent.
type tokenAction int

const (
	actionNone tokenAction = iota
	actionSignIn
	actionRefresh
)

func (a tokenAction) String() string {
	switch a {
	case actionSignIn:
		return "sign_in"
	case actionRefresh:
		return "refresh"
	default:
		return "none"
	}
}

// nextTokenAction decides how to obtain a usable token from the current state.
func nextTokenAction(state TokenState, now time.Time) tokenAction {
	switch {
	case !state.Active():
		return actionSignIn
	case state.ExpiredAt(now):
		return actionRefresh
	default:
		return actionNone
	}
}

// tokenKey is the singleflight key shared by every token acquisition.
const tokenKey = "token"

// ensureToken returns an access token that is valid for the next request,
// signing in or refreshing first when needed. Concurrent callers share a
// single sign-in or refresh, and each caller waits only as long as its own
// context allows.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	state := c.tokens.Snapshot()
	if nextTokenAction(state, c.tokens.now()) == actionNone {
		return state.AccessToken, nil
	}

	// The shared work must outlive any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := c.tokenGroup.DoChan(tokenKey, func() (any, error) {
		// Re-check: another caller may have finished while we queued.
		state := c.tokens.Snapshot()
		switch nextTokenAction(state, c.tokens.now()) {
		case actionSignIn:
			if err := c.auth.SignIn(shared); err != nil {
				return "", err
			}
		case actionRefresh:
			if err := c.auth.Refresh(shared); err != nil {
				return "", err
			}
		default:
			return state.AccessToken, nil
		}
		return c.tokens.AccessToken(), nil
	})
	return c.awaitToken(ctx, ch)
}

// awaitToken waits for a shared token acquisition or the caller's context.
func (c *Client) awaitToken(ctx context.Context, ch <-chan singleflight.Result) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		token, _ := res.Val.(string)
		return token, nil
	}
}

// SignIn forces a sign-in with the client's credentials, replacing any held
// token. A sign-in or refresh already in flight is not joined; requests that
// need a token after this call wait for the new sign-in instead.
func (c *Client) SignIn(ctx context.Context) error {
	c.tokenGroup.Forget(tokenKey)
	shared := context.WithoutCancel(ctx)
	ch := c.tokenGroup.DoChan(tokenKey, func() (any, error) {
		if err := c.auth.SignIn(shared); err != nil {
			return "", err
		}
		return c.tokens.AccessToken(), nil
	})
	_, err := c.awaitToken(ctx, ch)
	return err
}

// ResetToken drops the held token so the next request signs in again.
func (c *Client) ResetToken() {
	c.tokens.Reset()
}

// TokenState returns a snapshot of the client's current token state.
func (c *Client) TokenState() TokenState {
	return c.tokens.Snapshot()
}
