// Package auth exposes the caller-facing account operations: login, signup,
// logout, profile and email verification. It owns no state; outcomes land in
// the session manager.
package auth

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/storyfield/go-client/api"
	"github.com/storyfield/go-client/internal/utils"
	"github.com/storyfield/go-client/session"
)

// Service performs account operations through the authenticated API client.
type Service struct {
	client  *api.Client
	session *session.Manager
	log     zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates the auth Service.
func NewService(client *api.Client, sess *session.Manager, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] api client is required")
	}
	if sess == nil {
		return nil, errors.New("[NewService] session manager is required")
	}

	s := &Service{
		client:  client,
		session: sess,
		log:     zerolog.Nop(),
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Login authenticates with the backend and establishes the session. All
// three credentials must be present in the response; a partial response is
// an error, not a partial session.
func (s *Service) Login(ctx context.Context, creds Credentials) (*session.User, error) {
	data := loginData{}
	if _, err := s.client.Post(ctx, PathLogin, creds, &data); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if data.Authorization == "" || data.RefreshToken == "" || data.UserUUID == "" {
		return nil, fmt.Errorf("login: response is missing required credentials")
	}

	user := session.User{UUID: data.UserUUID}
	s.session.Login(ctx, data.Authorization, data.RefreshToken, user)
	return &user, nil
}

// Signup registers a new account. The account still needs email
// verification before it can log in.
func (s *Service) Signup(ctx context.Context, data SignupData) error {
	if _, err := s.client.Post(ctx, PathSignup, data, nil); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

// Logout tells the backend to revoke the refresh token, then clears the
// local session. The server call is best effort: local cleanup runs no
// matter what, and Logout never fails.
func (s *Service) Logout(ctx context.Context) {
	if refreshToken := s.session.RefreshToken(); refreshToken != "" {
		opts := []api.RequestOption{api.WithHeader(headerRefreshToken, refreshToken)}
		if _, err := s.client.Delete(ctx, PathLogout, nil, opts...); err != nil {
			s.log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
		}
	}

	s.session.Logout(ctx)
}

// Profile fetches the full identity of the logged-in user.
func (s *Service) Profile(ctx context.Context) (*session.User, error) {
	data := profileData{}
	if _, err := s.client.Get(ctx, PathProfile, &data); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	return &session.User{
		UUID:     data.UUID,
		Email:    utils.Value(data.Email),
		Username: utils.Value(data.Username),
	}, nil
}

// VerifyEmail redeems an email verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*Verification, error) {
	if token == "" {
		return nil, fmt.Errorf("verify email: token is required")
	}

	verification := Verification{}
	if _, err := s.client.Get(ctx, PathVerifyEmail+"/"+token, &verification); err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	return &verification, nil
}
