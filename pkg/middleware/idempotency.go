package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"EchoLegacy/pkg/cache"

	"github.com/gin-gonic/gin"
)

type IdempotencyConfig struct {
	HeaderName string        // request header carrying the idempotency key
	TTL        time.Duration // rejection window for repeated keys
	Cache      cache.Cache
}

// Idempotency rejects a repeated mutating request within the TTL window.
// Without an explicit header the request body hash serves as the key, which
// catches double-submits from a stuttering client.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return func(c *gin.Context) {
		if cfg.Cache == nil {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			b, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(strings.NewReader(string(b)))
			h := sha256.Sum256(append([]byte(c.Request.URL.Path), b...))
			key = hex.EncodeToString(h[:])
		}
		set, err := cfg.Cache.SetNX(c.Request.Context(), "idem:"+key, 1, cfg.TTL)
		if err != nil {
			// Cache outage must not block user actions.
			c.Next()
			return
		}
		if !set {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()
	}
}
