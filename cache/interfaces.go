// Package cache provides the key/value stores used to cache news provider
// responses, plus the deterministic request key builder.
package cache

import (
	"context"
	"time"
)

// Getter reads cache entries.
type Getter interface {
	// Get returns the stored value and true if the key is present and not
	// expired. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// Setter writes cache entries.
type Setter interface {
	// Set stores value under key. A ttl <= 0 stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Deleter removes cache entries.
type Deleter interface {
	// Delete removes key and every key that starts with it.
	// Deleting nothing is not an error.
	Delete(ctx context.Context, keyOrPrefix string) error
}

// Purger is implemented by stores that keep expired entries until they are
// explicitly removed.
type Purger interface {
	// Purge drops expired entries and reports how many were removed.
	Purge(ctx context.Context) (int64, error)
}

// Store is the main interface that combines all cache operations.
// Implementations must be safe for concurrent use.
type Store interface {
	Getter
	Setter
	Deleter
}
