package storage

import (
	"context"
	"time"
)

// Storage is the durable key/value store behind the persistence gateway.
// Get returns ("", nil) when the key does not exist.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Key/value operations. A zero ttl means the value never expires.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
