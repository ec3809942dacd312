package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for stored values
const redisKeyPrefix = "storyfield:"

// redisStore implements Store on redis. Intended for shared or headless
// deployments of the client; session values carry no TTL because token
// lifetime is owned by the backend, not the store.
type redisStore struct {
	client *redis.Client
}

var _ Store = (*redisStore)(nil)

// NewRedisStore creates a redis-backed Store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return ErrInvalidKey
	}
	val, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), val, 0).Err()
}

func (s *redisStore) Get(ctx context.Context, key string, out any) (bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return false, nil // Not found
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *redisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	}
	return iter.Err()
}

func (s *redisStore) key(key string) string {
	return redisKeyPrefix + key
}
