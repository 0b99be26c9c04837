package cache

type Config struct {
	Type  string // "local" or "redis"
	Redis RedisConfig
	Local LocalConfig
}

// New builds a cache for the configured type; anything unrecognized gets the
// local cache so the app still starts without redis.
func New(cfg Config) (Cache, error) {
	switch cfg.Type {
	case "redis":
		return NewRedisCache(cfg.Redis)
	default:
		return NewLocalCache(cfg.Local), nil
	}
}
