package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fire-behavior-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/fire-behavior-service/internal/adapter/kafka"
	"github.com/couchcryptid/fire-behavior-service/internal/config"
	"github.com/couchcryptid/fire-behavior-service/internal/domain"
	"github.com/couchcryptid/fire-behavior-service/internal/observability"
	"github.com/couchcryptid/fire-behavior-service/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	defaults := domain.StandardDefaults(cfg.DefaultFMC, cfg.DefaultElapsedHours)
	logger.Info("prediction defaults",
		"fmc", defaults.FMC, "hours", defaults.Hours, "ffmc", defaults.FFMC,
		"pc", defaults.PC, "pdf", defaults.PDF, "cc", defaults.CC, "gfl", defaults.GFL)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(defaults, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// HTTP server. A listen failure cancels the pipeline too.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Prediction pipeline.
	g.Go(func() error {
		if err := p.Run(gctx); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		return nil
	})

	// Shutdown on signal or on the first component failure.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
		exitCode = 1
	}

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		stop()
		os.Exit(exitCode)
	}
}
