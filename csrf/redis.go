// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csrf

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "postboard:csrf:"

// consumeScript deletes the key only if it still holds the presented token,
// so the comparison and the delete happen as one step on the server.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps tokens in Redis so several processes can share them.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects using a redis:// URL and pings the server.
// An empty prefix selects "postboard:csrf:". ttl == 0 stores keys without expiry.
func NewRedisStore(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStoreWithClient(rdb, prefix, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client. Close closes the client.
func NewRedisStoreWithClient(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(user string) string { return s.prefix + user }

func (s *RedisStore) Issue(ctx context.Context, user string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, s.key(user), token, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store csrf token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Consume(ctx context.Context, user, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := consumeScript.Run(ctx, s.rdb, []string{s.key(user)}, token).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume csrf token: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
