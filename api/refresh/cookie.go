package refresh

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/pkg/errors"
)

// refreshCookieName is the HTTP-only cookie the backend keeps the refresh
// credential in under the reissue contract.
const refreshCookieName = "refreshToken"

// CookieStrategy sends no body at all: the refresh credential is an
// HTTP-only cookie carried by the transport's jar, the new access token
// comes back in the Authorization response header, and a rotated refresh
// token may come back as a replacement cookie (persisted only as a
// confirmation copy).
type CookieStrategy struct {
	baseURL    string
	httpClient *http.Client
}

var _ Strategy = (*CookieStrategy)(nil)

// CookieOption configures a CookieStrategy.
type CookieOption func(*CookieStrategy)

// WithCookieHTTPClient replaces the bare transport. The client must carry a
// cookie jar or every reissue will fail.
func WithCookieHTTPClient(httpClient *http.Client) CookieOption {
	return func(s *CookieStrategy) {
		s.httpClient = httpClient
	}
}

// NewCookieStrategy creates the cookie-reissue refresh contract.
func NewCookieStrategy(baseURL string, options ...CookieOption) (*CookieStrategy, error) {
	if baseURL == "" {
		return nil, errors.New("[NewCookieStrategy] baseURL is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("[NewCookieStrategy] cookie jar: %w", err)
	}

	s := &CookieStrategy{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: refreshTimeout, Jar: jar},
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Refresh performs one reissue call. Never retried here.
func (s *CookieStrategy) Refresh(ctx context.Context) (TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+PathReissue, nil)
	if err != nil {
		return TokenPair{}, fmt.Errorf("build reissue request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("reissue call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenPair{}, fmt.Errorf("reissue call: unexpected status %d", resp.StatusCode)
	}

	accessToken := resp.Header.Get("Authorization")
	if accessToken == "" {
		return TokenPair{}, fmt.Errorf("reissue response has no access token header")
	}

	pair := TokenPair{AccessToken: accessToken}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == refreshCookieName && cookie.Value != "" {
			pair.RefreshToken = cookie.Value
			break
		}
	}
	return pair, nil
}
