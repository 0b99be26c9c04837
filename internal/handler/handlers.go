package handlers

import (
	"net/http"
	"time"

	"EchoLegacy/internal/voice"
	"EchoLegacy/pkg/cache"
	"EchoLegacy/pkg/config"
	apperrors "EchoLegacy/pkg/errors"
	"EchoLegacy/pkg/metrics"
	"EchoLegacy/pkg/middleware"
	"EchoLegacy/pkg/response"
	stores "EchoLegacy/pkg/storage"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handlers struct {
	db        *gorm.DB
	store     stores.Store
	lifecycle *voice.Controller
	synth     *voice.Synthesizer
	cache     cache.Cache
	log       *zap.Logger
}

func New(db *gorm.DB, store stores.Store, lifecycle *voice.Controller, synth *voice.Synthesizer, c cache.Cache, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{db: db, store: store, lifecycle: lifecycle, synth: synth, cache: c, log: log}
}

// RegisterRoutes wires the whole HTTP surface onto the engine.
func (h *Handlers) RegisterRoutes(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
	})
	r.Use(sessions.Sessions("echo_legacy_session", sessionStore))
	r.Use(metrics.Middleware())
	r.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		SkipPaths:  []string{"/health", "/metrics"},
		AddHeaders: true,
	}))

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group(cfg.AuthPrefix)
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	idem := middleware.Idempotency(middleware.IdempotencyConfig{Cache: h.cache})

	api := r.Group(cfg.APIPrefix, middleware.RequireLogin())
	{
		api.GET("/prompts", h.ListPrompts)

		api.GET("/profiles", h.ListProfiles)
		api.POST("/profiles", h.CreateProfile)
		api.GET("/profiles/:id", h.GetProfile)
		api.PUT("/profiles/:id", h.UpdateProfile)
		api.DELETE("/profiles/:id", h.DeleteProfile)

		api.GET("/profiles/:id/recordings", h.ListRecordings)
		api.PUT("/profiles/:id/recordings/:slot", idem, h.UploadRecording)
		api.DELETE("/profiles/:id/recordings/:slot", h.DeleteRecording)
		api.GET("/profiles/:id/recordings/:slot/audio", h.RecordingAudio)

		api.GET("/messages", h.ListMessages)
		api.POST("/messages", idem, h.CreateMessage)
		api.GET("/messages/:id", h.GetMessage)
		api.GET("/messages/:id/audio", h.MessageAudio)
		api.DELETE("/messages/:id", h.DeleteMessage)
	}
}

// respondError translates the application error taxonomy onto HTTP statuses.
// Not-found never reveals whether the resource exists under another owner.
func (h *Handlers) respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	switch code {
	case apperrors.CodeInvalidSlotIndex, apperrors.CodeEmptyContent, apperrors.CodeContentTooLong:
		response.FailWith(c, http.StatusBadRequest, code, err.Error())
	case apperrors.CodeNotFound:
		response.FailWith(c, http.StatusNotFound, code, err.Error())
	case apperrors.CodeVoiceNotReady:
		response.FailWith(c, http.StatusConflict, code, err.Error())
	case apperrors.CodeSynthesisFailed:
		response.FailWith(c, http.StatusBadGateway, code, err.Error())
	default:
		h.log.Error("internal error", zap.Error(err))
		response.FailWith(c, http.StatusInternalServerError, code, "internal error")
	}
}
