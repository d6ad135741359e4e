package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/healthmonitor/internal/config"
	"github.com/hamed0406/healthmonitor/internal/health"
	"github.com/hamed0406/healthmonitor/internal/history"
	"github.com/hamed0406/healthmonitor/internal/httpapi"
	apimw "github.com/hamed0406/healthmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/healthmonitor/internal/logging"
	"github.com/hamed0406/healthmonitor/internal/metrics"
	"github.com/hamed0406/healthmonitor/internal/probe"
	"github.com/hamed0406/healthmonitor/internal/repo"
	"github.com/hamed0406/healthmonitor/internal/repo/memory"
	"github.com/hamed0406/healthmonitor/internal/repo/postgres"
	"github.com/hamed0406/healthmonitor/internal/scheduler"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	targets := []probe.Target{
		probe.FrontendTarget(cfg.FrontendURL),
		probe.BackendTarget(cfg.BackendURL),
		probe.DatastoreTarget(cfg.DatastoreURL, cfg.DatastoreKey),
	}
	for _, t := range targets {
		logger.Info("probe_target",
			zap.String("category", string(t.Category)),
			zap.String("url", t.URL),
			zap.Bool("configured", t.Configured()),
		)
	}
	hs := health.NewService(probe.NewMultiChecker(probe.NewHTTPChecker(), targets...), m)

	sched := scheduler.New(logger, hs, store, m, scheduler.Config{
		Interval:        cfg.CheckInterval,
		RetentionDays:   cfg.RetentionDays,
		PersistAttempts: cfg.RetryAttempts,
		PersistBackoff:  cfg.RetryBackoff,
	})
	sched.Start()
	defer sched.Stop()

	api := httpapi.NewServer(logger, hs, sched, history.NewService(store, hs.URL), reg)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sched.Stop()
	err = srv.Shutdown(shutdownCtx)
	err = multierr.Append(err, <-serveErr)
	logger.Info("shutdown_completed", zap.Error(err))
	return err
}

// openStore picks Postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.SnapshotStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("store_memory", zap.String("reason", "DATABASE_URL not set; history is lost on restart"))
		return memory.New(), func() {}, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	logger.Info("store_postgres")
	return pg, pg.Close, nil
}
