package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryEmailStore implements EmailStore using ttlcache.
type MemoryEmailStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemoryEmailStore creates an in-memory store whose entries expire after
// defaultTTL unless Set is given its own ttl.
func NewMemoryEmailStore(defaultTTL time.Duration) *MemoryEmailStore {
	c := ttlcache.New(
		ttlcache.WithTTL[string, string](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	go c.Start()

	return &MemoryEmailStore{cache: c}
}

// Get implements EmailStore.Get.
func (s *MemoryEmailStore) Get(_ context.Context, token string) (string, bool) {
	item := s.cache.Get(HashToken(token))
	if item == nil {
		return "", false
	}

	return item.Value(), true
}

// Set implements EmailStore.Set.
func (s *MemoryEmailStore) Set(_ context.Context, token, email string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	s.cache.Set(HashToken(token), email, ttl)

	return nil
}

// Len is the number of live entries.
func (s *MemoryEmailStore) Len() int {
	return s.cache.Len()
}

// Close stops the expiry loop.
func (s *MemoryEmailStore) Close() error {
	s.cache.Stop()

	return nil
}

var _ EmailStore = (*MemoryEmailStore)(nil)
