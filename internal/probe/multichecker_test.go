package probe

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

// scripted returns a fixed result per category after an optional delay.
type scripted struct {
	delay map[domain.Category]time.Duration
	out   map[domain.Category]domain.ProbeResult
	panic domain.Category
}

func (s *scripted) Check(ctx context.Context, t Target) domain.ProbeResult {
	if t.Category == s.panic {
		panic("checker blew up")
	}
	time.Sleep(s.delay[t.Category])
	return s.out[t.Category]
}

func TestMultiChecker_RunsConcurrentlyInTargetOrder(t *testing.T) {
	chk := &scripted{
		delay: map[domain.Category]time.Duration{
			domain.Frontend:  120 * time.Millisecond,
			domain.Backend:   10 * time.Millisecond,
			domain.Datastore: 120 * time.Millisecond,
		},
		out: map[domain.Category]domain.ProbeResult{
			domain.Frontend:  {Category: domain.Frontend, Status: domain.StatusOK},
			domain.Backend:   {Category: domain.Backend, Status: domain.StatusDegraded},
			domain.Datastore: {Category: domain.Datastore, Status: domain.StatusDown, Error: domain.ReasonTimeout},
		},
	}
	m := NewMultiChecker(chk, FrontendTarget("a"), BackendTarget("b"), DatastoreTarget("c", "k"))

	start := time.Now()
	got := m.Run(context.Background())
	elapsed := time.Since(start)

	if len(got) != 3 {
		t.Fatalf("want 3 results, got %d", len(got))
	}
	for i, c := range domain.Categories {
		if got[i].Category != c {
			t.Fatalf("result %d: want %s got %s", i, c, got[i].Category)
		}
	}
	// bounded by the slowest branch, not the sum
	if elapsed >= 230*time.Millisecond {
		t.Fatalf("probes did not run concurrently: %v", elapsed)
	}
}

func TestMultiChecker_PanicIsContained(t *testing.T) {
	chk := &scripted{
		panic: domain.Backend,
		out: map[domain.Category]domain.ProbeResult{
			domain.Frontend: {Category: domain.Frontend, Status: domain.StatusOK},
		},
	}
	m := NewMultiChecker(chk, FrontendTarget("a"), BackendTarget("b"))

	got := m.Run(context.Background())
	if got[0].Status != domain.StatusOK {
		t.Fatalf("healthy branch affected: %+v", got[0])
	}
	if got[1].Status != domain.StatusDown || got[1].Error != domain.ReasonUnknown {
		t.Fatalf("want contained down/unknown, got %+v", got[1])
	}
}

func TestMultiChecker_Target(t *testing.T) {
	m := NewMultiChecker(NewHTTPChecker(), FrontendTarget("https://f.example.com"))
	if tgt, ok := m.Target(domain.Frontend); !ok || tgt.URL != "https://f.example.com" {
		t.Fatalf("lookup failed: %+v %v", tgt, ok)
	}
	if _, ok := m.Target(domain.Datastore); ok {
		t.Fatalf("unexpected datastore target")
	}
}
