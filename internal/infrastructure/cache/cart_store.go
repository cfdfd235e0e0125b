package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCartStore keeps one cart blob per session. Every save refreshes the
// TTL, so a cart expires after ttl without activity.
type RedisCartStore struct {
	client *Client
	ttl    time.Duration
}

func NewRedisCartStore(client *Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func (s *RedisCartStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	blob, err := s.client.store.Get(ctx, CartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *RedisCartStore) Save(ctx context.Context, sessionID string, blob []byte) error {
	return s.client.store.Set(ctx, CartKey(sessionID), blob, s.ttl).Err()
}
