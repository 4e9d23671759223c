package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	appconfig "github.com/harborhealth/clinic-queue-platform/internal/config"
	"github.com/harborhealth/clinic-queue-platform/internal/followup"
	"github.com/harborhealth/clinic-queue-platform/internal/notify"
	"github.com/harborhealth/clinic-queue-platform/internal/observability/metrics"
	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting follow-up worker", "schedule", cfg.SweepSchedule)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := scheduling.NewStore(pool)
	followStore := followup.NewStore(pool)
	notifier := notify.FromConfig(ctx, cfg, logger)

	sweeper := followup.NewSweeper(followup.SweeperOptions{
		Store:        followStore,
		Appointments: store,
		Patients:     store,
		Notifier:     notifier,
		BatchSize:    cfg.SweepBatchSize,
		Retries:      cfg.DispatchRetries,
		Logger:       logger,
		Metrics:      metrics.NewFollowUpMetrics(nil),
	})

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		sweepCtx, sweepCancel := context.WithTimeout(ctx, time.Minute)
		defer sweepCancel()
		sent, err := sweeper.ProcessDue(sweepCtx)
		if err != nil {
			logger.Error("follow-up sweep failed", "error", err)
			return
		}
		if sent > 0 {
			logger.Info("follow-up sweep completed", "dispatched", sent)
		}
	}); err != nil {
		logger.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	c.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down follow-up worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	select {
	case <-c.Stop().Done():
		logger.Info("follow-up worker stopped")
	case <-doneCtx.Done():
		logger.Error("follow-up worker shutdown timed out", "error", doneCtx.Err())
	}
}
