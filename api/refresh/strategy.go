// Package refresh obtains new access tokens after a 401. The refresh call
// goes through its own bare http.Client, never through the api.Client whose
// 401 handling invoked it; that separation is what keeps a rejected refresh
// from recursing into another refresh.
package refresh

import (
	"context"
	"net/http"
	"time"
)

// Paths for the two mutually exclusive backend refresh contracts.
const (
	PathRefresh = "/api/auth/refresh"
	PathReissue = "/api/auth/reissue"
)

// refreshTimeout bounds the refresh call itself.
const refreshTimeout = 10 * time.Second

// TokenPair is the outcome of a successful refresh. RefreshToken is empty
// when the backend did not rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Strategy is one backend refresh contract. Exactly one strategy is wired
// per client; the backend decides which, not runtime probing.
type Strategy interface {
	Refresh(ctx context.Context) (TokenPair, error)
}

func bareHTTPClient() *http.Client {
	return &http.Client{Timeout: refreshTimeout}
}
