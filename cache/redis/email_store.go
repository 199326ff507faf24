package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pilab-dev/shadow-login/cache"
)

// EmailStore implements cache.EmailStore on Redis string keys with expiry.
type EmailStore struct {
	client *redis.Client
	prefix string
}

// NewEmailStore creates a new [EmailStore] instance.
func NewEmailStore(client *redis.Client, prefix string) *EmailStore {
	return &EmailStore{
		client: client,
		prefix: prefix,
	}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	return client, nil
}

func (s *EmailStore) redisKey(token string) string {
	return fmt.Sprintf("%s:email:%s", s.prefix, cache.HashToken(token))
}

// Get implements cache.EmailStore.Get. Redis errors count as a miss.
func (s *EmailStore) Get(ctx context.Context, token string) (string, bool) {
	email, err := s.client.Get(ctx, s.redisKey(token)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("redis email cache read failed")
		}
		return "", false
	}

	return email, true
}

// Set implements cache.EmailStore.Set.
func (s *EmailStore) Set(ctx context.Context, token, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.redisKey(token), email, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache email in redis: %w", err)
	}

	return nil
}

// Close closes the underlying client.
func (s *EmailStore) Close() error {
	return s.client.Close()
}

var _ cache.EmailStore = (*EmailStore)(nil)
