package probe

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

// MultiChecker probes every target concurrently and waits for all of them.
// Branches never fail the group, so one slow or broken target cannot cut the
// others short.
type MultiChecker struct {
	Checker Checker
	Targets []Target
}

func NewMultiChecker(c Checker, targets ...Target) *MultiChecker {
	return &MultiChecker{Checker: c, Targets: targets}
}

// Run returns one result per target, in target order.
func (m *MultiChecker) Run(ctx context.Context) []domain.ProbeResult {
	results := make([]domain.ProbeResult, len(m.Targets))
	var g errgroup.Group
	for i, t := range m.Targets {
		i, t := i, t
		g.Go(func() error {
			results[i] = m.checkOne(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Target returns the configured target for c.
func (m *MultiChecker) Target(c domain.Category) (Target, bool) {
	for _, t := range m.Targets {
		if t.Category == c {
			return t, true
		}
	}
	return Target{}, false
}

// CheckOne probes a single target with the same containment as Run.
func (m *MultiChecker) CheckOne(ctx context.Context, t Target) domain.ProbeResult {
	return m.checkOne(ctx, t)
}

func (m *MultiChecker) checkOne(ctx context.Context, t Target) (out domain.ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.ProbeResult{
				Category: t.Category,
				Status:   domain.StatusDown,
				Error:    domain.ReasonUnknown,
			}
		}
	}()
	return m.Checker.Check(ctx, t)
}
