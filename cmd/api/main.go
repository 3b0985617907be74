package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/havenmed/clinic-automation/internal/alerts"
	"github.com/havenmed/clinic-automation/internal/api/router"
	"github.com/havenmed/clinic-automation/internal/appointments"
	appconfig "github.com/havenmed/clinic-automation/internal/config"
	"github.com/havenmed/clinic-automation/internal/deterioration"
	"github.com/havenmed/clinic-automation/internal/http/handlers"
	"github.com/havenmed/clinic-automation/internal/inventory"
	"github.com/havenmed/clinic-automation/internal/jobs"
	"github.com/havenmed/clinic-automation/internal/noshow"
	"github.com/havenmed/clinic-automation/internal/notify"
	"github.com/havenmed/clinic-automation/internal/observability/metrics"
	"github.com/havenmed/clinic-automation/internal/slots"
	"github.com/havenmed/clinic-automation/internal/stagealerts"
	"github.com/havenmed/clinic-automation/internal/vitals"
	"github.com/havenmed/clinic-automation/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-automation engine",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The alert guard degrades open without Redis; the engine stays up.
		logger.Warn("redis unreachable, alert guard degrades open", "addr", cfg.RedisAddr, "error", err)
	}

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)

	// Stores
	appointmentStore := appointments.NewStore(pool)
	noShowStore := noshow.NewStore(pool)
	alertStore := alerts.NewStore(pool)
	vitalsStore := vitals.NewStore(pool)
	inventoryStore := inventory.NewStore(pool)
	jobStore := jobs.NewStore(pool)

	// Collaborators. Delivery goes through the messaging relay when one
	// is configured; the stub keeps notification paths exercised in dev.
	var notifier notify.Notifier = notify.NewStubNotifier(logger)
	if cfg.NotifyGatewayURL != "" {
		gateway := notify.NewGateway(cfg.NotifyGatewayURL, cfg.NotifyGatewayToken)
		notifier = notify.NewService(gateway, gateway, notify.NewPGContacts(pool), logger)
	}
	onCall := parseOnCall(cfg.OnCallStaffIDs, logger)
	guard := alerts.NewGuard(redisClient, cfg.AlertGuardTTL, logger)
	slotManager := slots.NewPGManager(pool)
	slotCoordinator := slots.NewCoordinator(slotManager, cfg.SlotReleaseBufferMinutes, logger)

	// Evaluators
	noShowEvaluator := noshow.NewEvaluator(appointmentStore, noShowStore, slotCoordinator, notifier, engineMetrics, logger)
	stageEvaluator := stagealerts.NewEvaluator(appointmentStore, alertStore, guard, notifier, engineMetrics,
		cfg.VitalsBufferMinutes, cfg.DoctorBufferMinutes, logger)
	deteriorationEvaluator := deterioration.NewEvaluator(vitalsStore, alertStore, guard, notifier, engineMetrics, onCall, logger)
	inventoryEvaluator := inventory.NewEvaluator(inventoryStore, alertStore, guard, engineMetrics, cfg.ReorderThreshold, logger)

	escalations := notify.NewEscalationFanout(notifier, onCall, logger)
	lifecycle := alerts.NewLifecycle(alertStore, escalations, guard, logger)

	// Runners
	newRunner := func(name string, fn jobs.JobFunc) *jobs.Runner {
		return jobs.NewRunner(name, fn, jobStore, engineMetrics, logger).
			WithTimeout(cfg.JobTimeout).
			WithUnhealthyAfter(cfg.UnhealthyAfterFailures)
	}
	noShowRunner := newRunner("no_show_sweep", func(ctx context.Context) (int, error) {
		return noShowEvaluator.Sweep(ctx, time.Now())
	})
	stageRunner := newRunner("stage_alert_sweep", func(ctx context.Context) (int, error) {
		return stageEvaluator.Sweep(ctx, time.Now())
	})
	deteriorationRunner := newRunner("deterioration_sweep", func(ctx context.Context) (int, error) {
		return deteriorationEvaluator.Sweep(ctx, time.Now())
	})
	inventoryRunner := newRunner("inventory_sweep", func(ctx context.Context) (int, error) {
		return inventoryEvaluator.Sweep(ctx, time.Now())
	})

	go schedule(ctx, noShowRunner, cfg.NoShowSweepInterval)
	go schedule(ctx, stageRunner, cfg.StageAlertSweepInterval)
	go schedule(ctx, deteriorationRunner, cfg.DeteriorationSweepInterval)
	go schedule(ctx, inventoryRunner, cfg.InventorySweepInterval)

	routerCfg := &router.Config{
		Logger:         logger,
		JobsHandler:    handlers.NewJobsHandler(logger, noShowRunner, stageRunner, deteriorationRunner, inventoryRunner),
		AlertsHandler:  handlers.NewAlertsHandler(alertStore, lifecycle, logger),
		ScoreHandler:   handlers.NewScoreHandler(vitalsStore, logger),
		NoShowHandler:  handlers.NewNoShowHandler(noShowEvaluator, noShowStore, logger),
		MetricsHandler: promhttp.Handler(),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
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

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// schedule drives one runner on a fixed cadence until shutdown.
func schedule(ctx context.Context, runner *jobs.Runner, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runner.Run(ctx)
		}
	}
}

func parseOnCall(raw []string, logger *logging.Logger) []uuid.UUID {
	var result []uuid.UUID
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			logger.Warn("ignoring malformed on-call staff id", "value", s)
			continue
		}
		result = append(result, id)
	}
	return result
}
