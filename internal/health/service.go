package health

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/healthmonitor/internal/domain"
	"github.com/hamed0406/healthmonitor/internal/metrics"
	"github.com/hamed0406/healthmonitor/internal/probe"
)

type Service struct {
	Probes  *probe.MultiChecker
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewService(p *probe.MultiChecker, m *metrics.Metrics) *Service {
	return &Service{Probes: p, Metrics: m, Now: time.Now}
}

// CheckAll probes every category concurrently and aggregates the results.
func (s *Service) CheckAll(ctx context.Context) domain.Snapshot {
	return s.snapshot(s.Probes.Run(ctx))
}

// CheckCategory probes a single category.
func (s *Service) CheckCategory(ctx context.Context, c domain.Category) (domain.Snapshot, error) {
	t, ok := s.Probes.Target(c)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, c)
	}
	return s.snapshot([]domain.ProbeResult{s.Probes.CheckOne(ctx, t)}), nil
}

// URL returns the configured address of a category, if any.
func (s *Service) URL(c domain.Category) string {
	t, _ := s.Probes.Target(c)
	return t.URL
}

func (s *Service) snapshot(results []domain.ProbeResult) domain.Snapshot {
	snap := domain.Snapshot{
		Timestamp:     s.Now().UTC(),
		OverallStatus: Aggregate(results),
		Services:      make(map[domain.Category]domain.ProbeResult, len(results)),
	}
	for _, r := range results {
		snap.Services[r.Category] = r
	}
	s.Metrics.ObserveSnapshot(snap)
	return snap
}
