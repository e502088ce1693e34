package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/port-rates-service/internal/adapter/http"
	"github.com/couchcryptid/port-rates-service/internal/config"
	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/lookup"
	"github.com/couchcryptid/port-rates-service/internal/observability"
	"github.com/couchcryptid/port-rates-service/internal/store"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", "port-rates")
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}

	svc := lookup.New(
		domain.NewResolver(backend),
		domain.NewAggregator(backend, cfg.MinSamples),
		backend,
		logger,
		metrics,
		cfg.QueryTimeout,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger, metrics, httpadapter.Options{
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := backend.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
