package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/trade-ledger/internal/api"
	"github.com/ksred/trade-ledger/internal/config"
	"github.com/ksred/trade-ledger/internal/database"
	"github.com/ksred/trade-ledger/pkg/middleware"
)

// configureLogging enables pretty printing outside production and debug
// logging when DEBUG is set
func configureLogging(cfg *config.Config) {
	if !cfg.IsProduction() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trade ledger API with graceful shutdown support
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to initialize database")
	}

	if cfg.Database.SeedData {
		if _, err := database.Seed(db); err != nil {
			zlog.Fatal().Err(err).Msg("Failed to seed database")
		}
	}

	limiter := middleware.NewRateLimiter(middleware.Limits{
		TradesPerMinute: cfg.RateLimit.TradesPerMinute,
		ReadsPerMinute:  cfg.RateLimit.ReadsPerMinute,
		AdminPerMinute:  cfg.RateLimit.AdminPerMinute,
		Burst:           cfg.RateLimit.Burst,
	})
	limiterCtx, limiterCancel := context.WithCancel(context.Background())
	defer limiterCancel()

	go limiter.Run(limiterCtx)

	router := api.NewRouter(db, limiter)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zlog.Info().Str("addr", srv.Addr).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	zlog.Info().Msg("Server exiting")
}
