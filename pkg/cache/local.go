package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type LocalConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

// LocalCache wraps go-cache for single-process deployments.
type LocalCache struct {
	c *gocache.Cache
}

func NewLocalCache(cfg LocalConfig) *LocalCache {
	if cfg.DefaultExpiration <= 0 {
		cfg.DefaultExpiration = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	return &LocalCache{c: gocache.New(cfg.DefaultExpiration, cfg.CleanupInterval)}
}

func (l *LocalCache) Get(_ context.Context, key string) (interface{}, bool) {
	return l.c.Get(key)
}

func (l *LocalCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	l.c.Set(key, value, expiration)
	return nil
}

func (l *LocalCache) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if err := l.c.Add(key, value, expiration); err != nil {
		return false, nil
	}
	return true, nil
}

func (l *LocalCache) Delete(_ context.Context, key string) error {
	l.c.Delete(key)
	return nil
}

func (l *LocalCache) Exists(_ context.Context, key string) bool {
	_, ok := l.c.Get(key)
	return ok
}

func (l *LocalCache) Close() error {
	l.c.Flush()
	return nil
}
