package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in redis with plain GET/SET.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects lazily to rawURL. A bare host such as "localhost"
// or "cache:6379" is accepted as well.
func NewRedisStore(rawURL string) (*RedisStore, error) {
	if strings.TrimSpace(rawURL) == "" {
		rawURL = "redis://localhost"
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "redis://" + rawURL
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts)), nil
}

func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(ctx, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return classify(ctx, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return classify(ctx, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// classify tags transport failures with ErrUnavailable. Error replies from
// the server mean the connection itself is fine.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		return fmt.Errorf("redis: %w", err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
