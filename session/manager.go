package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/storyfield/go-client/storage"
)

// Manager owns the session fields. Only its methods mutate them; the HTTP
// client and refresh coordinator never reach into the state directly.
//
// Mutations follow the silent-degradation policy: a failed mirror write is
// logged and the in-memory state stays authoritative, because the next login
// or refresh rewrites the mirror anyway.
type Manager struct {
	store   storage.Store
	log     zerolog.Logger
	nowFunc func() time.Time

	mu           sync.RWMutex
	status       Status
	accessToken  string
	refreshToken string
	user         *User
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for persistence failures.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithNowFunc sets the clock (primarily for testing token expiry).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a session Manager mirroring into store.
func NewManager(store storage.Store, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] store is required")
	}

	m := &Manager{
		store:   store,
		log:     zerolog.Nop(),
		nowFunc: time.Now,
		status:  StatusUnknown,
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// Login replaces the whole session with the given credentials and identity
// and mirrors them to the store. Calling it again overwrites the previous
// session.
func (m *Manager) Login(ctx context.Context, accessToken, refreshToken string, user User) {
	m.mu.Lock()
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	m.user = &user
	m.status = StatusAuthenticated
	m.mu.Unlock()

	m.persist(ctx, KeyAccessToken, accessToken)
	m.persist(ctx, KeyRefreshToken, refreshToken)
	m.persist(ctx, KeyUserUUID, user.UUID)
	if user.Email != "" || user.Username != "" {
		m.persist(ctx, KeyUserProfile, user)
	}
}

// UpdateAccessToken replaces only the access token, leaving the refresh
// token and user untouched. Used by the refresh coordinator.
func (m *Manager) UpdateAccessToken(ctx context.Context, newToken string) {
	m.mu.Lock()
	m.accessToken = newToken
	m.mu.Unlock()

	m.persist(ctx, KeyAccessToken, newToken)
}

// UpdateRefreshToken records a rotated refresh token.
func (m *Manager) UpdateRefreshToken(ctx context.Context, newToken string) {
	m.mu.Lock()
	m.refreshToken = newToken
	m.mu.Unlock()

	m.persist(ctx, KeyRefreshToken, newToken)
}

// Logout clears the session and removes every persisted session key. Safe to
// call when already logged out.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.user = nil
	m.status = StatusUnauthenticated
	m.mu.Unlock()

	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUserUUID, KeyUserProfile} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.log.Error().Err(err).Str("key", key).Msg("session key removal failed")
		}
	}
}

// Restore reconstructs the session from the store. It runs once at process
// start; a stored access token without a stored user identity is treated as
// not authenticated rather than a half-restored session. Restore never
// fails: any storage error leaves the session unauthenticated.
func (m *Manager) Restore(ctx context.Context) Status {
	m.mu.Lock()
	m.status = StatusRestoring
	m.mu.Unlock()

	var accessToken, refreshToken, userUUID string
	foundToken, err := m.store.Get(ctx, KeyAccessToken, &accessToken)
	if err != nil {
		m.log.Error().Err(err).Msg("session restore failed")
		return m.finishRestore(StatusUnauthenticated, "", "", nil)
	}
	if _, err := m.store.Get(ctx, KeyRefreshToken, &refreshToken); err != nil {
		m.log.Error().Err(err).Msg("refresh token restore failed")
	}
	foundUUID, err := m.store.Get(ctx, KeyUserUUID, &userUUID)
	if err != nil {
		m.log.Error().Err(err).Msg("session restore failed")
		return m.finishRestore(StatusUnauthenticated, "", "", nil)
	}

	if !foundToken || accessToken == "" || !foundUUID || userUUID == "" {
		return m.finishRestore(StatusUnauthenticated, "", "", nil)
	}

	user := &User{UUID: userUUID}
	var profile User
	if found, err := m.store.Get(ctx, KeyUserProfile, &profile); err == nil && found && profile.UUID == userUUID {
		user = &profile
	}

	return m.finishRestore(StatusAuthenticated, accessToken, refreshToken, user)
}

func (m *Manager) finishRestore(status Status, accessToken, refreshToken string, user *User) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	m.user = user
	return status
}

// Status returns the current state-machine position.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsAuthenticated reports whether the session holds a token and an identity.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status == StatusAuthenticated && m.accessToken != "" && m.user != nil
}

// AccessToken returns the current access token ("" when logged out).
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

// RefreshToken returns the current refresh token ("" when logged out).
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshToken
}

// User returns a copy of the current identity, or nil when logged out.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Snapshot returns a consistent read of the whole session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Status:          m.status,
		IsAuthenticated: m.status == StatusAuthenticated && m.accessToken != "" && m.user != nil,
		AccessToken:     m.accessToken,
		RefreshToken:    m.refreshToken,
	}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

func (m *Manager) persist(ctx context.Context, key string, value any) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.log.Error().Err(err).Str("key", key).Msg("session persistence failed")
	}
}
