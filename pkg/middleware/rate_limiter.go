package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig holds the limiter knobs.
//
// Rate uses ulule notation, e.g. "100-M" or "1000-H". SkipPaths are prefix
// matched so "/metrics" and "/health" stay unthrottled.
type RateLimiterConfig struct {
	Rate       string   `json:"rate"`
	SkipPaths  []string `json:"skip_paths"`
	AddHeaders bool     `json:"add_headers"`
}

var (
	rateLimitAllow = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_allow_total",
		Help: "Allowed requests by rate limiter",
	}, []string{"route"})
	rateLimitDeny = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_deny_total",
		Help: "Denied requests by rate limiter",
	}, []string{"route"})
)

// RateLimiter throttles by client IP with an in-memory store.
func RateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("120-M")
	}
	lim := limiter.New(memory.NewStore(), rate)

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		lctx, err := lim.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		}
		if lctx.Reached {
			rateLimitDeny.WithLabelValues(route).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		rateLimitAllow.WithLabelValues(route).Inc()
		c.Next()
	}
}
