package refresh

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/storyfield/go-client/session"
	"golang.org/x/sync/singleflight"
)

// Coordinator runs a Strategy and persists its outcome through the session
// manager. Concurrent 401s share one in-flight refresh call: with rotation
// enabled, independent refreshes would invalidate each other's tokens.
type Coordinator struct {
	strategy Strategy
	session  *session.Manager
	group    singleflight.Group
	log      zerolog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(log zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.log = log
	}
}

// NewCoordinator creates a Coordinator over one refresh strategy.
func NewCoordinator(strategy Strategy, sess *session.Manager, options ...CoordinatorOption) (*Coordinator, error) {
	if strategy == nil {
		return nil, errors.New("[NewCoordinator] strategy is required")
	}
	if sess == nil {
		return nil, errors.New("[NewCoordinator] session manager is required")
	}

	c := &Coordinator{
		strategy: strategy,
		session:  sess,
		log:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Refresh returns a fresh access token, updating the session on the way.
// Callers that were queued behind an in-flight refresh get that refresh's
// token without a second network call.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	token, err, shared := c.group.Do("refresh", func() (any, error) {
		pair, err := c.strategy.Refresh(ctx)
		if err != nil {
			return nil, err
		}

		c.session.UpdateAccessToken(ctx, pair.AccessToken)
		if pair.RefreshToken != "" {
			c.session.UpdateRefreshToken(ctx, pair.RefreshToken)
		}
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		c.log.Debug().Msg("refresh shared with concurrent request")
	}
	return token.(string), nil
}
