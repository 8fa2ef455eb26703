package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps counters as JSON strings with a TTL, shared by every instance.
type RedisStore struct {
	rdb redis.Cmdable
}

// NewRedisStore wraps a redis client (or cluster/ring) as a CounterStore.
func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Counter, bool, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Counter{}, false, nil
	}
	if err != nil {
		return Counter{}, false, fmt.Errorf("redis get: %w", err)
	}

	var c Counter
	if err := json.Unmarshal(raw, &c); err != nil {
		return Counter{}, false, fmt.Errorf("decode counter: %w", err)
	}
	return c, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, c Counter, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode counter: %w", err)
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
