package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/cache"
	"github.com/aimerfeng/SkillSwap/internal/config"
	"github.com/aimerfeng/SkillSwap/internal/database"
	"github.com/aimerfeng/SkillSwap/internal/jobs"
	"github.com/aimerfeng/SkillSwap/internal/logging"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/aimerfeng/SkillSwap/internal/server"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/aimerfeng/SkillSwap/internal/store/memory"
	"github.com/aimerfeng/SkillSwap/internal/store/postgres"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logging.Setup(&cfg.Logging, cfg.Server.Env)

	log.Info().
		Str("env", cfg.Server.Env).
		Str("name", cfg.Server.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting SkillSwap API server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Prometheus metrics
	monitoring.Init()
	log.Info().Msg("Prometheus metrics initialized")

	var (
		st   store.Store
		pool jobs.PoolReporter
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		st = memory.New()
	default:
		if cfg.Database.MigrateOnStart {
			if err := database.RunMigrations(cfg.Database.URL); err != nil {
				log.Fatal().Err(err).Msg("Failed to run database migrations")
			}
		}
		db, err := database.New(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		st = postgres.New(db.Pool)
		pool = db
	}

	redis := cache.NewRedis(&cfg.Redis)
	defer redis.Close()

	// Start metrics server if enabled
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort)
	}

	// Create and start server
	srv := server.NewAPIServer(cfg, st, redis)

	scheduler := jobs.NewScheduler(&cfg.Jobs, srv.Exchanges(), pool)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job scheduler")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("url", cfg.Server.URL).
			Msg("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	scheduler.Stop()

	log.Info().Msg("Server exited gracefully")
}

func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())

	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info().
		Int("port", port).
		Msg("Prometheus metrics server listening")

	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server error")
	}
}
