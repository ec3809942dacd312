package storage

import (
	"context"

	"github.com/rs/zerolog"
)

// failSoft decorates a Store with the total-operation contract: no operation
// ever returns an error. Failures are logged; Get degrades to "not found",
// the write operations degrade to no-ops. Losing a cached value must never
// take the caller down, since every value can be re-derived from the network.
type failSoft struct {
	inner Store
	log   zerolog.Logger
}

var _ Store = (*failSoft)(nil)

// NewFailSoft wraps store so that every operation is total.
func NewFailSoft(store Store, log zerolog.Logger) Store {
	return &failSoft{inner: store, log: log}
}

func (s *failSoft) Set(ctx context.Context, key string, value any) error {
	if err := s.inner.Set(ctx, key, value); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("storage set failed")
	}
	return nil
}

func (s *failSoft) Get(ctx context.Context, key string, out any) (bool, error) {
	found, err := s.inner.Get(ctx, key, out)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("storage get failed")
		return false, nil
	}
	return found, nil
}

func (s *failSoft) Remove(ctx context.Context, key string) error {
	if err := s.inner.Remove(ctx, key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("storage remove failed")
	}
	return nil
}

func (s *failSoft) Clear(ctx context.Context) error {
	if err := s.inner.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("storage clear failed")
	}
	return nil
}
