package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/storyfield/go-client/api"
	"github.com/storyfield/go-client/session"
	"github.com/storyfield/go-client/storage"
)

// BearerStrategy sends the stored refresh token in the request body and
// expects a new access token (and a rotated refresh token) in the response
// envelope.
type BearerStrategy struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Manager
	store      storage.Store
}

var _ Strategy = (*BearerStrategy)(nil)

// BearerOption configures a BearerStrategy.
type BearerOption func(*BearerStrategy)

// WithBearerHTTPClient replaces the bare transport (primarily for testing).
func WithBearerHTTPClient(httpClient *http.Client) BearerOption {
	return func(s *BearerStrategy) {
		s.httpClient = httpClient
	}
}

// NewBearerStrategy creates the bearer-body refresh contract. The store is
// the fallback source for the refresh token before the session has restored.
func NewBearerStrategy(baseURL string, sess *session.Manager, store storage.Store, options ...BearerOption) (*BearerStrategy, error) {
	if baseURL == "" {
		return nil, errors.New("[NewBearerStrategy] baseURL is required")
	}
	if sess == nil {
		return nil, errors.New("[NewBearerStrategy] session manager is required")
	}
	if store == nil {
		return nil, errors.New("[NewBearerStrategy] store is required")
	}

	s := &BearerStrategy{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: bareHTTPClient(),
		session:    sess,
		store:      store,
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshData struct {
	Authorization string `json:"Authorization"`
	RefreshToken  string `json:"refreshToken"`
}

// Refresh performs one refresh call. Any failure is terminal for the calling
// request chain; the call is never retried here.
func (s *BearerStrategy) Refresh(ctx context.Context) (TokenPair, error) {
	refreshToken := s.session.RefreshToken()
	if refreshToken == "" {
		if _, err := s.store.Get(ctx, session.KeyRefreshToken, &refreshToken); err != nil {
			return TokenPair{}, fmt.Errorf("refresh token lookup: %w", err)
		}
	}
	if refreshToken == "" {
		return TokenPair{}, fmt.Errorf("no refresh token available")
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+PathRefresh, bytes.NewReader(payload))
	if err != nil {
		return TokenPair{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("refresh call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenPair{}, fmt.Errorf("read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenPair{}, fmt.Errorf("refresh call: unexpected status %d", resp.StatusCode)
	}

	envelope := api.Envelope{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	data := refreshData{}
	if err := envelope.DecodeData(&data); err != nil {
		return TokenPair{}, err
	}
	if data.Authorization == "" {
		return TokenPair{}, fmt.Errorf("refresh response has no access token")
	}

	return TokenPair{AccessToken: data.Authorization, RefreshToken: data.RefreshToken}, nil
}
