// Package cache holds the key-value store the user-aggregate read path
// caches into, behind a minimal byte-store interface so the HTTP paths do
// not care whether entries live in Redis or in process memory.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Provider is a byte store with per-entry TTLs. Implementations must be
// safe for concurrent use and byte-for-byte transparent: Get returns
// exactly the []byte previously passed to Set for the same key.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes a key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources held by the provider.
	Close(ctx context.Context) error
}

// UserKey builds the cache key for a user's aggregate. The "user:" keyspace
// is owned by the aggregate read path; nothing else writes under it.
func UserKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}
