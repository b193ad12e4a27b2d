// Package main provides the API server entry point for the trust scanner service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trust-scanner/internal/api"
	"github.com/trust-scanner/internal/config"
	"github.com/trust-scanner/internal/logging"
	"github.com/trust-scanner/internal/normalizer"
	"github.com/trust-scanner/internal/service"
	"github.com/trust-scanner/internal/storage"
	"github.com/trust-scanner/internal/upstream"
	"github.com/trust-scanner/internal/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Analysis cache
	var cache storage.AnalysisCache
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisCache, err := storage.NewRedisCache(&cfg.Cache.Redis, cfg.Cache.TTL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		cache = redisCache
		logger.Info("Using Redis analysis cache")
	default:
		cache = storage.NewMemoryCache(cfg.Cache.TTL)
		logger.Info("Using in-memory analysis cache")
	}

	// Optional analysis history
	var history service.HistoryWriter
	if cfg.History.Enabled {
		postgres, err := storage.NewPostgresDB(&cfg.History.Postgres)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer postgres.Close()
		history = storage.NewHistoryRepository(postgres)
		logger.Info("Analysis history enabled")
	}

	provider := upstream.NewProviderClient(&cfg.Provider, logger)
	model := upstream.NewModelClient(&cfg.Model, logger)

	analysisService := service.NewAnalysisService(
		provider,
		model,
		normalizer.New(logger),
		validator.New(logger),
		cache,
		history,
		logger,
	)

	serverCfg := api.DefaultServerConfig(cfg.Server.Host, cfg.Server.Port)
	serverCfg.FreeTierRPS = cfg.RateLimit.FreeTier
	serverCfg.PaidTierRPS = cfg.RateLimit.PaidTier
	server := api.NewServer(serverCfg, analysisService, cfg.History.Enabled, logger)

	// Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutting down")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
		}
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}
}
