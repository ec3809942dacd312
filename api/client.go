// Package api is the authenticated HTTP client core: verb methods against a
// configured base URL, bearer attachment from the session, and 401-triggered
// silent refresh-and-retry with a one-shot retry budget per request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/storyfield/go-client/session"
	"github.com/storyfield/go-client/storage"
)

// DefaultTimeout bounds every request, including the retried attempt.
const DefaultTimeout = 10 * time.Second

// KeyDeviceID is the storage key for the per-install device identifier.
const KeyDeviceID = "deviceID"

const (
	headerAuthorization = "Authorization"
	headerDeviceID      = "X-Device-ID"
)

// Refresher obtains a new access token after a 401. Implemented by
// refresh.Coordinator; the interface lives here so the client does not
// depend on any particular refresh contract.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Client sends JSON requests to the backend. Session state is read for the
// bearer token on every request but only mutated through the refresher or an
// explicit logout; requests themselves touch nothing but their own headers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Manager
	store      storage.Store
	refresher  Refresher
	log        zerolog.Logger

	deviceOnce sync.Once
	deviceID   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying transport (primarily for testing).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRefresher wires the 401 refresh coordinator. Without one, every 401 is
// terminal and forces a logout.
func WithRefresher(refresher Refresher) ClientOption {
	return func(c *Client) {
		c.refresher = refresher
	}
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Client against baseURL. The session manager and store
// are required: the session is the fast path for the bearer token, the store
// covers the window after a restart before Restore has run.
func NewClient(baseURL string, sess *session.Manager, store storage.Store, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}
	if sess == nil {
		return nil, errors.New("[NewClient] session manager is required")
	}
	if store == nil {
		return nil, errors.New("[NewClient] store is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		session:    sess,
		store:      store,
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// RequestOption mutates a single outgoing request.
type RequestOption func(*http.Request)

// WithHeader adds a header to one request.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// Get issues a GET and decodes the envelope payload into out (out may be nil).
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) (*Envelope, error) {
	return c.roundTrip(ctx, http.MethodGet, path, nil, out, opts)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) (*Envelope, error) {
	return c.roundTrip(ctx, http.MethodPost, path, body, out, opts)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) (*Envelope, error) {
	return c.roundTrip(ctx, http.MethodPut, path, body, out, opts)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) (*Envelope, error) {
	return c.roundTrip(ctx, http.MethodDelete, path, nil, out, opts)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, opts []RequestOption) (*Envelope, error) {
	resp, err := c.Do(ctx, method, path, body, opts...)
	if err != nil {
		return nil, err
	}

	envelope := &Envelope{}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, envelope); err != nil {
			return nil, fmt.Errorf("%s %s: decode response envelope: %w", method, path, err)
		}
	}
	if out != nil {
		if err := envelope.DecodeData(out); err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}
	return envelope, nil
}

// Response is the raw outcome of a successful (2xx) request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends one request. The body is marshaled once so a 401-triggered retry
// replays the exact same method, path and payload. Non-2xx statuses come
// back as *StatusError; transport failures come back wrapped and never
// trigger the refresh path.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode request body: %w", method, path, err)
		}
	}
	return c.send(ctx, method, path, payload, opts, "", 0)
}

// send carries an immutable per-attempt counter instead of marking the
// request object: attempt 0 is the original request, attempt 1 is the single
// allowed replay after a refresh.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, opts []RequestOption, overrideToken string, attempt int) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, payload, opts, overrideToken)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
	}

	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		Body:       respBody,
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return nil, statusErr
	}
	return c.handleUnauthorized(ctx, method, path, payload, opts, attempt, statusErr)
}

// handleUnauthorized is the loop-breaking 401 path: one refresh, one replay,
// then a forced logout when the chain cannot be recovered.
func (c *Client) handleUnauthorized(ctx context.Context, method, path string, payload []byte, opts []RequestOption, attempt int, statusErr *StatusError) (*Response, error) {
	if attempt > 0 || c.refresher == nil {
		c.log.Warn().Str("method", method).Str("path", path).Msg("unauthorized, forcing logout")
		c.session.Logout(ctx)
		return nil, statusErr
	}

	newToken, err := c.refresher.Refresh(ctx)
	if err != nil || newToken == "" {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("token refresh failed, forcing logout")
		c.session.Logout(ctx)
		return nil, statusErr
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("access token refreshed, replaying request")
	return c.send(ctx, method, path, payload, opts, newToken, attempt+1)
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte, opts []RequestOption, overrideToken string) (*http.Request, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if deviceID := c.loadDeviceID(ctx); deviceID != "" {
		req.Header.Set(headerDeviceID, deviceID)
	}

	// The token string is opaque and already carries its scheme prefix.
	token := overrideToken
	if token == "" {
		token = c.lookupToken(ctx)
	}
	if token != "" {
		req.Header.Set(headerAuthorization, token)
	}

	for _, opt := range opts {
		opt(req)
	}
	return req, nil
}

// lookupToken reads the session first and falls back to the store, which
// covers the narrow window after a restart before Restore has completed. A
// storage failure means the request simply goes out unauthenticated.
func (c *Client) lookupToken(ctx context.Context) string {
	if token := c.session.AccessToken(); token != "" {
		return token
	}

	var token string
	found, err := c.store.Get(ctx, session.KeyAccessToken, &token)
	if err != nil {
		c.log.Warn().Err(err).Msg("access token lookup failed, sending unauthenticated")
		return ""
	}
	if !found {
		return ""
	}
	return token
}

// loadDeviceID returns the per-install identifier, generating and persisting
// it on first use so the same device presents the same identity across runs.
func (c *Client) loadDeviceID(ctx context.Context) string {
	c.deviceOnce.Do(func() {
		var deviceID string
		found, err := c.store.Get(ctx, KeyDeviceID, &deviceID)
		if err == nil && found && deviceID != "" {
			c.deviceID = deviceID
			return
		}

		c.deviceID = uuid.NewString()
		if err := c.store.Set(ctx, KeyDeviceID, c.deviceID); err != nil {
			c.log.Warn().Err(err).Msg("device id persistence failed")
		}
	})
	return c.deviceID
}
