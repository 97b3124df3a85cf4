package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/roastline/api/internal/di"
	"github.com/roastline/api/internal/platform/config"
	"github.com/roastline/api/internal/platform/observability"
)

// The sweeper runs one stale-pending sweep and exits. It is intended to
// be invoked on a schedule (cron, systemd timer) alongside the API.
func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("sweeper")

	cfg, err := config.Load()
	if err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			logger.Fatal("configuration incomplete", zap.Strings("fields", validationErr.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	container, err := di.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to assemble dependencies", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("registry close error", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := container.Services.Sweep.SweepStalePending(ctx, cfg.Sweep.Threshold)
	if err != nil {
		logger.Fatal("sweep run failed", zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("run_id", report.RunID),
		zap.Int("updated_count", report.UpdatedCount),
		zap.Time("swept_at", report.SweptAt),
	}
	for _, sweepErr := range report.Errors {
		logger.Warn("order skipped during sweep",
			zap.String("run_id", report.RunID),
			zap.String("order_id", sweepErr.OrderID),
			zap.String("reason", sweepErr.Message),
		)
	}
	if len(report.Errors) > 0 {
		fields = append(fields, zap.Int("error_count", len(report.Errors)))
	}
	logger.Info("sweep completed", fields...)
}
