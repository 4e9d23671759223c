package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborhealth/clinic-queue-platform/internal/agent"
	"github.com/harborhealth/clinic-queue-platform/internal/api/router"
	"github.com/harborhealth/clinic-queue-platform/internal/calendar"
	appconfig "github.com/harborhealth/clinic-queue-platform/internal/config"
	"github.com/harborhealth/clinic-queue-platform/internal/followup"
	"github.com/harborhealth/clinic-queue-platform/internal/notify"
	"github.com/harborhealth/clinic-queue-platform/internal/observability/metrics"
	"github.com/harborhealth/clinic-queue-platform/internal/payments"
	"github.com/harborhealth/clinic-queue-platform/internal/redact"
	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/internal/support"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// followUpAdapter bridges the follow-up scheduler into the scheduling
// service's narrower interface. Visits completed through the API default
// to SMS follow-ups.
type followUpAdapter struct {
	scheduler *followup.Scheduler
}

func (a *followUpAdapter) Schedule(ctx context.Context, appointmentID uuid.UUID) error {
	_, err := a.scheduler.Schedule(ctx, appointmentID, followup.ChannelSMS)
	return err
}

type paymentAdapter struct {
	gen payments.LinkGenerator
}

func (a *paymentAdapter) PaymentLink(ctx context.Context, appointmentID uuid.UUID, amountCents int) (string, error) {
	return a.gen.GenerateLink(ctx, appointmentID, amountCents)
}

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-queue-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The escalation service runs on database/sql for its tracing hooks.
	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql connection", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	schedMetrics := metrics.NewSchedulingMetrics(reg)
	followMetrics := metrics.NewFollowUpMetrics(reg)

	store := scheduling.NewStore(pool)
	prefs := scheduling.NewPrefsStore(redisClient)
	queueLock := scheduling.NewQueueLock(redisClient, cfg.SkipLockTimeout)

	payGen := payments.NewGenerator(payments.Config{
		BaseURL:         cfg.PaymentsBaseURL,
		APIKey:          cfg.PaymentsAPIKey,
		AllowLocalLinks: cfg.AllowLocalPayLinks,
	}, logger)

	followStore := followup.NewStore(pool)
	followScheduler := followup.NewScheduler(followStore, store, logger, followMetrics)

	svc := scheduling.NewService(scheduling.ServiceOptions{
		Store:           store,
		Prefs:           prefs,
		Lock:            queueLock,
		Payments:        &paymentAdapter{gen: payGen},
		Calendar:        calendar.NewStubSync(logger),
		FollowUps:       &followUpAdapter{scheduler: followScheduler},
		ConsultFeeCents: cfg.ConsultFeeCents,
		SlotDefaults: scheduling.SlotOptions{
			StartHour:   cfg.SlotStartHour,
			EndHour:     cfg.SlotEndHour,
			SlotMinutes: cfg.SlotMinutes,
		},
		Logger:  logger,
		Metrics: schedMetrics,
	})

	notifier := notify.FromConfig(ctx, cfg, logger)
	sweeper := followup.NewSweeper(followup.SweeperOptions{
		Store:        followStore,
		Appointments: store,
		Patients:     store,
		Notifier:     notifier,
		BatchSize:    cfg.SweepBatchSize,
		Retries:      cfg.DispatchRetries,
		Logger:       logger,
		Metrics:      followMetrics,
	})

	escalations := support.NewEscalationService(sqlDB, logger)
	redactor := redact.NewHTTPRedactor(cfg.RedactorURL, cfg.RedactorAPIKey, logger)
	replies := followup.NewReplyPipeline(store, redactor, followup.KeywordClassifier{}, escalations, logger, followMetrics)

	routerCfg := &router.Config{
		Logger:             logger,
		SchedulingHandler:  scheduling.NewHandler(svc, logger),
		FollowUpHandler:    followup.NewHandler(followStore, followScheduler, sweeper, replies, logger),
		AgentHandler:       agent.NewHandler(agent.New(svc, logger), logger),
		SupportHandler:     support.NewHandler(escalations, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Smaller deployments run the dispatch sweep inside the API process
	// instead of the dedicated worker binary.
	var sweepCron *cron.Cron
	if cfg.RunSweepInProcess {
		sweepCron = cron.New()
		if _, err := sweepCron.AddFunc(cfg.SweepSchedule, func() {
			if _, err := sweeper.ProcessDue(context.Background()); err != nil {
				logger.Error("follow-up sweep failed", "error", err)
			}
		}); err != nil {
			logger.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
			os.Exit(1)
		}
		sweepCron.Start()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	if sweepCron != nil {
		<-sweepCron.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
