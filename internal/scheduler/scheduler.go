package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/healthmonitor/internal/domain"
	"github.com/hamed0406/healthmonitor/internal/metrics"
	"github.com/hamed0406/healthmonitor/internal/repo"
)

// Checker produces one aggregated snapshot across all categories.
type Checker interface {
	CheckAll(ctx context.Context) domain.Snapshot
}

type Config struct {
	Interval        time.Duration // capture cadence
	RetentionDays   int
	RetentionEvery  time.Duration // retention cadence, daily outside tests
	PersistAttempts int
	PersistBackoff  time.Duration
	CycleTimeout    time.Duration
}

const (
	DefaultInterval       = 5 * time.Minute
	DefaultRetentionEvery = 24 * time.Hour
	DefaultCycleTimeout   = time.Minute
)

// CronStatus is a best-effort view of the capture loop.
type CronStatus struct {
	IsRunning             bool       `json:"is_running"`
	IntervalMS            int64      `json:"interval_ms"`
	NextExecutionEstimate time.Time  `json:"next_execution_estimate"`
	RetentionDays         int        `json:"retention_days"`
	NextRetention         *time.Time `json:"next_retention,omitempty"`
}

// Scheduler owns two independent loops: capture (probe, aggregate, persist)
// and retention (sweep old records). It is either stopped or running.
type Scheduler struct {
	Logger  *zap.Logger
	Checker Checker
	Store   repo.SnapshotStore
	Metrics *metrics.Metrics
	Now     func() time.Time

	cfg Config

	mu          sync.Mutex
	cancel      context.CancelFunc
	cron        *cron.Cron
	retentionID cron.EntryID
}

func New(
	logger *zap.Logger,
	checker Checker,
	store repo.SnapshotStore,
	m *metrics.Metrics,
	cfg Config,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = domain.DefaultRetentionDays
	}
	if cfg.RetentionEvery <= 0 {
		cfg.RetentionEvery = DefaultRetentionEvery
	}
	if cfg.PersistAttempts < 1 {
		cfg.PersistAttempts = 1
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = DefaultCycleTimeout
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Scheduler{
		Logger:  logger,
		Checker: checker,
		Store:   store,
		Metrics: m,
		Now:     time.Now,
		cfg:     cfg,
	}
}

// Start launches both loops. Calling it while running restarts them, which
// also triggers a fresh immediate capture.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.stopLocked()
		s.Logger.Info("scheduler_restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.captureLoop(ctx)
	s.startRetentionLocked()

	s.Logger.Info("scheduler_started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("retention_days", s.cfg.RetentionDays),
		zap.Duration("retention_every", s.cfg.RetentionEvery),
	)
}

// Stop cancels both loops without waiting for an in-flight cycle, which may
// still finish and persist its snapshot.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.stopLocked()
	s.Logger.Info("scheduler_stopped")
}

func (s *Scheduler) stopLocked() {
	s.cancel()
	s.cancel = nil
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

func (s *Scheduler) Status() CronStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := CronStatus{
		IsRunning:             s.cancel != nil,
		IntervalMS:            s.cfg.Interval.Milliseconds(),
		NextExecutionEstimate: s.Now().Add(s.cfg.Interval).UTC(),
		RetentionDays:         s.cfg.RetentionDays,
	}
	if s.cron != nil {
		if e := s.cron.Entry(s.retentionID); e.Valid() && !e.Next.IsZero() {
			next := e.Next.UTC()
			st.NextRetention = &next
		}
	}
	return st
}

// RunNow runs one capture cycle synchronously. Unlike the background loop it
// reports failures to the caller.
func (s *Scheduler) RunNow(ctx context.Context) (domain.Snapshot, error) {
	snap, err := s.capture(ctx)
	if err != nil {
		s.Metrics.CaptureCycles.WithLabelValues("failed").Inc()
		s.Logger.Warn("manual_check_failed", zap.Error(err))
		return snap, err
	}
	s.Metrics.CaptureCycles.WithLabelValues("persisted").Inc()
	s.Logger.Info("manual_check_completed", zap.String("status", string(snap.OverallStatus)))
	return snap, nil
}

// captureLoop does an immediate pass, then runs each tick until ctx is cancelled.
func (s *Scheduler) captureLoop(ctx context.Context) {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	if ctx.Err() != nil {
		return
	}
	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("capture_loop_stopped")
			return
		case <-t.C:
			// a tick and a stop can be ready together
			if ctx.Err() != nil {
				return
			}
			s.cycle(ctx)
		}
	}
}

// cycle never propagates: errors and panics are logged and the loop goes on.
func (s *Scheduler) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.Metrics.CaptureCycles.WithLabelValues("failed").Inc()
			s.Logger.Error("capture_panic", zap.Any("panic", r))
		}
	}()

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CycleTimeout)
	defer cancel()

	snap, err := s.capture(cctx)
	if err != nil {
		s.Metrics.CaptureCycles.WithLabelValues("failed").Inc()
		s.Logger.Warn("capture_failed", zap.Error(err))
		return
	}
	s.Metrics.CaptureCycles.WithLabelValues("persisted").Inc()
	s.Logger.Info("capture_completed",
		zap.String("status", string(snap.OverallStatus)),
		zap.Time("timestamp", snap.Timestamp),
	)
}

func (s *Scheduler) capture(ctx context.Context) (domain.Snapshot, error) {
	snap := s.Checker.CheckAll(ctx)
	for _, pr := range snap.Services {
		s.Logger.Debug("probe_checked",
			zap.String("category", string(pr.Category)),
			zap.String("status", string(pr.Status)),
			zap.Int64("latency_ms", pr.LatencyMS),
			zap.String("error", pr.Error),
		)
	}
	if err := s.persist(ctx, &snap); err != nil {
		return snap, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return snap, nil
}

func (s *Scheduler) persist(ctx context.Context, snap *domain.Snapshot) error {
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(s.cfg.PersistAttempts)),
		retry.Delay(s.cfg.PersistBackoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		_, err := s.Store.Insert(ctx, snap)
		return err
	})
}
