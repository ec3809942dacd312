package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry peeks at the exp claim of the current access token
// without verifying its signature (verification is the backend's job; the
// client only wants to know whether a refresh is coming). Returns false when
// there is no token, the token is not a JWT, or it carries no expiry.
func (m *Manager) AccessTokenExpiry() (time.Time, bool) {
	return tokenExpiry(m.AccessToken())
}

// IsAccessTokenExpired reports whether the access token's exp claim is in
// the past. A token without a readable expiry is reported as not expired;
// the 401 path catches it either way.
func (m *Manager) IsAccessTokenExpired() bool {
	expiry, ok := m.AccessTokenExpiry()
	if !ok {
		return false
	}
	return m.nowFunc().After(expiry)
}

func tokenExpiry(token string) (time.Time, bool) {
	raw := strings.TrimSpace(strings.TrimPrefix(token, "Bearer"))
	if raw == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
