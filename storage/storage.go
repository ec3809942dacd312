// Package storage provides the device-local key-value store the session
// layer mirrors its state into. Values round-trip through JSON, so anything
// marshalable can be stored; callers always re-derive missing values from the
// network, which keeps the store advisory rather than authoritative.
package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// StoreType represents the type of key-value store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
)

// Store is the persistence contract. Get decodes the stored value into out
// and reports whether the key existed. Implementations may fail; callers that
// need the total fail-soft contract wrap a Store with NewFailSoft.
type Store interface {
	Set(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, out any) (bool, error)
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type storeConfig struct {
	redisClient *redis.Client
	fileDir     string
}

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

// WithRedisClient supplies the redis client for StoreTypeRedis.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithFileDir sets the directory StoreTypeFile keeps its files in.
func WithFileDir(dir string) StoreOption {
	return func(c *storeConfig) {
		c.fileDir = dir
	}
}

// NewStore creates a Store of the given type.
// Supports "memory", "file" and "redis" driver types.
// StoreTypeFile requires WithFileDir, StoreTypeRedis requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}

	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryStore(), nil

	case StoreTypeFile:
		if config.fileDir == "" {
			return nil, ErrInvalidConfig
		}
		return NewFileStore(config.fileDir)

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(config.redisClient), nil

	default:
		return nil, ErrInvalidStoreType
	}
}
