package cache

import (
	"context"
	"time"
)

// Cache is the minimal surface the application needs: plain get/set for
// lookups and an atomic set-if-absent for idempotency keys.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)

	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// SetNX sets the key only when absent; reports whether it was set.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) bool

	Close() error
}
