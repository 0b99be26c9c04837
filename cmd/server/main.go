package main

import (
	"log"
	"time"

	handlers "EchoLegacy/internal/handler"
	"EchoLegacy/internal/models"
	"EchoLegacy/internal/voice"
	"EchoLegacy/pkg/cache"
	"EchoLegacy/pkg/config"
	"EchoLegacy/pkg/logger"
	"EchoLegacy/pkg/scheduler"
	stores "EchoLegacy/pkg/storage"
	"EchoLegacy/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.NewDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("open database failed", zap.Error(err))
		return
	}
	if err := models.Migrate(db); err != nil {
		logger.Error("migration failed", zap.Error(err))
		return
	}

	store, err := stores.New(stores.Config{
		Driver:    cfg.Storage.Driver,
		LocalPath: cfg.Storage.LocalPath,
		Minio: stores.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		},
	})
	if err != nil {
		logger.Error("open audio store failed", zap.Error(err))
		return
	}

	appCache, err := cache.New(cache.Config{
		Type: cfg.Cache.Type,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		},
	})
	if err != nil {
		logger.Error("open cache failed", zap.Error(err))
		return
	}
	defer appCache.Close()

	var gateway voice.Gateway
	switch cfg.Provider.Driver {
	case "elevenlabs":
		gateway = voice.NewElevenLabsGateway(voice.ElevenLabsConfig{
			BaseURL: cfg.Provider.BaseURL,
			APIKey:  cfg.Provider.APIKey,
			ModelID: cfg.Provider.ModelID,
			Timeout: cfg.Provider.Timeout,
		})
	default:
		gateway = voice.NewStubGateway(logger.L())
	}

	lifecycle := voice.NewController(db, gateway, store, logger.L())
	synth := voice.NewSynthesizer(gateway, logger.L())

	if cfg.OrphanSweepEnabled {
		cr := scheduler.NewCron(time.Local)
		if _, err := cr.Add(cfg.OrphanSweepSchedule, lifecycle.SweepOrphans); err != nil {
			logger.Warn("orphan sweep not scheduled", zap.Error(err))
		} else {
			cr.Start()
			defer cr.Stop()
		}
	}

	gin.SetMode(cfg.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	h := handlers.New(db, store, lifecycle, synth, appCache, logger.L())
	h.RegisterRoutes(r, cfg)

	logger.Info("server starting", zap.String("addr", cfg.Addr))
	if err := r.Run(cfg.Addr); err != nil {
		logger.Error("server exited", zap.Error(err))
	}
}
