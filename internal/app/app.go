// Package app wires Components A-I together into the three long-running
// processes spec §5 describes: API, Worker, and Scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/maes-platform/compliance-core/internal/audit"
	"github.com/maes-platform/compliance-core/internal/api"
	"github.com/maes-platform/compliance-core/internal/config"
	"github.com/maes-platform/compliance-core/internal/httpserver"
	"github.com/maes-platform/compliance-core/internal/platform"
	"github.com/maes-platform/compliance-core/internal/store"
	"github.com/maes-platform/compliance-core/internal/telemetry"
	"github.com/maes-platform/compliance-core/pkg/assessment"
	"github.com/maes-platform/compliance-core/pkg/catalog"
	"github.com/maes-platform/compliance-core/pkg/comparator"
	"github.com/maes-platform/compliance-core/pkg/graphclient"
	"github.com/maes-platform/compliance-core/pkg/notify"
	"github.com/maes-platform/compliance-core/pkg/queue"
	"github.com/maes-platform/compliance-core/pkg/report"
	"github.com/maes-platform/compliance-core/pkg/scheduler"
	"github.com/maes-platform/compliance-core/pkg/worker"
)

// Run is the main application entry point. It reads config, connects to
// infrastructure, and starts the mode named by cfg.Mode: "api", "worker",
// "scheduler", or "migrate" (spec §5 "multiple independent processes").
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting compliance-core", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	if cfg.Mode == "migrate" {
		if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("migrations applied")
		return nil
	}

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisAddr(), cfg.RedisPassword)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry()

	s := store.New(db)
	cat := catalog.New(s)
	graphFactory := graphclient.NewFactory(cfg.DefaultCertKeyPath, cfg.DefaultCertPath)
	engine := assessment.New(s, cat, graphFactory, logger)
	q := queue.New(rdb)
	sched := scheduler.New(s, q, logger)
	comp := comparator.New(s)
	reportGen := report.New(s, cfg.ReportsDir, cfg.ChromeRemoteURL, logger)
	notifier := notify.New(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg, s, q, comp, reportGen, sched)
	case "worker":
		return runWorker(ctx, logger, q, s, engine, notifier, cfg.WorkerConcurrency, cfg.NotifyScoreThreshold)
	case "scheduler":
		return sched.Run(ctx)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry, s *store.Store, q *queue.Queue, comp *comparator.Comparator, reportGen *report.Generator, sched *scheduler.Scheduler) error {
	auditWriter := audit.NewWriter(db, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	srv := httpserver.NewServer(cfg, logger, db, rdb, metricsReg)

	apiHandler := api.New(s, q, comp, reportGen, sched, auditWriter, logger, cfg.ServiceAuthToken)
	srv.Router.Mount("/", apiHandler.Routes())

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runWorker(ctx context.Context, logger *slog.Logger, q *queue.Queue, s *store.Store, engine *assessment.Engine, notifier *notify.Notifier, concurrency int, scoreThreshold float64) error {
	pool := worker.New(q, s, engine, notifier, logger, concurrency, scoreThreshold)
	pool.Run(ctx)
	return nil
}
