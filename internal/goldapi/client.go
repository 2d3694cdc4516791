// Package goldapi is the client for the remote pricing/assets/auth API.
//
// All persistence and authentication live behind this API; the client only
// attaches the bearer token, detects authorization failures and decodes JSON.
package goldapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"goldtracker/internal/errors"
	"goldtracker/internal/logging"
)

// API endpoint paths.
const (
	epLogin          = "/auth/login"
	epRegister       = "/auth/register"
	epProfile        = "/auth/profile"
	epGoogle         = "/auth/google"
	epGoogleCallback = "/auth/google/callback"
	epPricesLatest   = "/gold/prices/latest"
	epPricesHistory  = "/gold/prices/history"
	epPricesByType   = "/gold/prices/type/%s"
	epAssets         = "/assets"
	epAsset          = "/assets/%s"
)

const defaultTimeout = 15 * time.Second

// TokenSource provides the current bearer token and its invalidation.
// Satisfied by *tokenstore.Store. The client reads tokens from the store,
// not from the session service, so calls work before the first CheckAuth.
type TokenSource interface {
	Read() string
	Clear() error
}

type tokenSourceKey struct{}

// WithTokenSource stores the per-request token source in the context.
func WithTokenSource(ctx context.Context, ts TokenSource) context.Context {
	return context.WithValue(ctx, tokenSourceKey{}, ts)
}

// TokenSourceFromContext retrieves the token source, or nil if absent.
func TokenSourceFromContext(ctx context.Context) TokenSource {
	ts, _ := ctx.Value(tokenSourceKey{}).(TokenSource)
	return ts
}

// Client provides methods for accessing the remote gold API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logging.Logger

	// onUnauthorized is invoked once per call that received a 401, after
	// the token store was cleared. The web layer uses it to force the
	// navigation to the login view.
	onUnauthorized func()
}

// NewClient creates a new API client.
func NewClient(baseURL string, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewSilent()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// OnUnauthorized registers the 401 hook.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one API request. The bearer token is attached iff requiresAuth
// and a token is present in the context's token source. There are no
// retries; every call is at-most-once from this layer.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body any, requiresAuth bool) (json.RawMessage, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s body: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tokens := TokenSourceFromContext(ctx)
	if requiresAuth && tokens != nil {
		if token := tokens.Read(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Network("the gold service could not be reached", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Network("reading the gold service response failed", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, c.invalidate(tokens, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.API(resp.StatusCode, apiMessage(resp, respBody))
	}

	return respBody, nil
}

// invalidate handles a 401: clear the persisted token, fire the navigation
// hook exactly once for this call, and fail with the session-expired kind.
// This is a deliberate hard invalidation, not a retry.
func (c *Client) invalidate(tokens TokenSource, endpoint string) error {
	c.log.Info().Str("endpoint", endpoint).Msg("unauthorized response, ending session")
	if tokens != nil {
		if err := tokens.Clear(); err != nil {
			c.log.Warn().Err(err).Msg("clearing token after 401 failed")
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return errors.SessionExpired()
}

// apiMessage extracts the server-supplied message from an error body, or
// falls back to the generic status text.
func apiMessage(resp *http.Response, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func decode[T any](raw json.RawMessage, what string) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("decoding %s: %w", what, err)
	}
	return v, nil
}
