package config

import (
	"log"
	"os"
	"time"

	"EchoLegacy/pkg/logger"
	"EchoLegacy/pkg/util"
)

type ProviderConfig struct {
	Driver  string        `env:"VOICE_PROVIDER"` // "elevenlabs" or "stub"
	BaseURL string        `env:"VOICE_PROVIDER_BASE_URL"`
	APIKey  string        `env:"VOICE_PROVIDER_API_KEY"`
	ModelID string        `env:"VOICE_PROVIDER_MODEL_ID"`
	Timeout time.Duration `env:"VOICE_PROVIDER_TIMEOUT"`
}

type StorageConfig struct {
	Driver    string `env:"STORAGE_DRIVER"` // "minio" or "local"
	LocalPath string `env:"STORAGE_LOCAL_PATH"`
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`
}

type CacheConfig struct {
	Type          string `env:"CACHE_TYPE"` // "local" or "redis"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
}

type Config struct {
	Addr          string `env:"ADDR"`
	Mode          string `env:"MODE"`
	DBDriver      string `env:"DB_DRIVER"`
	DSN           string `env:"DSN"`
	APIPrefix     string `env:"API_PREFIX"`
	AuthPrefix    string `env:"AUTH_PREFIX"`
	SessionSecret string `env:"SESSION_SECRET"`
	RateLimit     string `env:"RATE_LIMIT"` // e.g. "100-M"

	OrphanSweepEnabled  bool   `env:"ORPHAN_SWEEP_ENABLED"`
	OrphanSweepSchedule string `env:"ORPHAN_SWEEP_SCHEDULE"` // cron expression

	Log      logger.LogConfig
	Provider ProviderConfig
	Storage  StorageConfig
	Cache    CacheConfig
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:          util.GetEnvDefault("ADDR", ":8080"),
		Mode:          util.GetEnvDefault("MODE", "debug"),
		DBDriver:      util.GetEnv("DB_DRIVER"),
		DSN:           util.GetEnv("DSN"),
		APIPrefix:     util.GetEnvDefault("API_PREFIX", "/api"),
		AuthPrefix:    util.GetEnvDefault("AUTH_PREFIX", "/api/auth"),
		SessionSecret: util.GetEnvDefault("SESSION_SECRET", "echo-legacy-dev-secret"),
		RateLimit:     util.GetEnvDefault("RATE_LIMIT", "120-M"),

		OrphanSweepEnabled:  util.GetBoolEnv("ORPHAN_SWEEP_ENABLED"),
		OrphanSweepSchedule: util.GetEnvDefault("ORPHAN_SWEEP_SCHEDULE", "@every 1h"),

		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Provider: ProviderConfig{
			Driver:  util.GetEnvDefault("VOICE_PROVIDER", "stub"),
			BaseURL: util.GetEnvDefault("VOICE_PROVIDER_BASE_URL", "https://api.elevenlabs.io"),
			APIKey:  util.GetEnv("VOICE_PROVIDER_API_KEY"),
			ModelID: util.GetEnvDefault("VOICE_PROVIDER_MODEL_ID", "eleven_multilingual_v2"),
			Timeout: util.GetDurationEnv("VOICE_PROVIDER_TIMEOUT"),
		},
		Storage: StorageConfig{
			Driver:    util.GetEnvDefault("STORAGE_DRIVER", "local"),
			LocalPath: util.GetEnvDefault("STORAGE_LOCAL_PATH", "data/audio"),
			Endpoint:  util.GetEnv("MINIO_ENDPOINT"),
			AccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
			SecretKey: util.GetEnv("MINIO_SECRET_KEY"),
			Bucket:    util.GetEnv("MINIO_BUCKET"),
			UseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
		},
		Cache: CacheConfig{
			Type:          util.GetEnvDefault("CACHE_TYPE", "local"),
			RedisAddr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: util.GetEnv("REDIS_PASSWORD"),
			RedisDB:       int(util.GetIntEnv("REDIS_DB")),
		},
	}
	return nil
}
