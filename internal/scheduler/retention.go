package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

const sweepTimeout = time.Minute

func (s *Scheduler) startRetentionLocked() {
	l := cronLogger{s.Logger.Sugar()}
	c := cron.New(cron.WithLocation(time.UTC), cron.WithLogger(l), cron.WithChain(cron.Recover(l)))
	s.retentionID = c.Schedule(cron.Every(s.cfg.RetentionEvery), cron.FuncJob(s.retentionJob))
	c.Start()
	s.cron = c
}

func (s *Scheduler) retentionJob() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		s.Logger.Warn("retention_failed", zap.Error(err))
	}
}

// Sweep deletes every record created more than RetentionDays ago.
func (s *Scheduler) Sweep(ctx context.Context) (int64, error) {
	cutoff := domain.RetentionPolicy{DaysToKeep: s.cfg.RetentionDays}.Cutoff(s.Now())
	n, err := s.Store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.Metrics.RetentionErrors.Inc()
		return 0, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	s.Metrics.RetentionDeleted.Add(float64(n))
	s.Logger.Info("retention_completed",
		zap.Int64("deleted", n),
		zap.Time("cutoff", cutoff),
		zap.Int("retention_days", s.cfg.RetentionDays),
	)
	return n, nil
}

// cronLogger routes cron's own logging into zap. Cron's info lines fire on
// every wake-up, so they go to debug.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
