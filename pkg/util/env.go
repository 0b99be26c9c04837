package util

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv loads .env files for the given environment. A file specific to the
// environment (.env.production) wins over the shared .env; missing files are
// not an error because production often configures through real env vars.
func LoadEnv(env string) error {
	candidates := []string{fmt.Sprintf(".env.%s", env), ".env"}
	loaded := false
	for _, f := range candidates {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
		loaded = true
	}
	if !loaded {
		return fmt.Errorf("no .env file found for environment %q", env)
	}
	return nil
}

func GetEnv(key string) string {
	return os.Getenv(key)
}

func GetEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

// GetDurationEnv parses values like "30s" or "2m"; zero when unset or invalid.
func GetDurationEnv(key string) time.Duration {
	return cast.ToDuration(os.Getenv(key))
}
