package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EmailStore caches provider email lookups keyed by access token hash.
type EmailStore interface {
	// Get returns the cached email for the token, if any.
	Get(ctx context.Context, token string) (string, bool)
	// Set caches the email for the token for ttl.
	Set(ctx context.Context, token, email string, ttl time.Duration) error
	Close() error
}

// HashToken returns the hex SHA-256 of a token. Raw tokens are never used as
// cache keys.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
