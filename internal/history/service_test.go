package history

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/hamed0406/healthmonitor/internal/domain"
	"github.com/hamed0406/healthmonitor/internal/repo/memory"
)

var testNow = time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)

func result(c domain.Category, s domain.Status, ms int64) domain.ProbeResult {
	return domain.ProbeResult{Category: c, Status: s, LatencyMS: ms}
}

func seed(t *testing.T, m *memory.Store, at time.Time, overall domain.Status, rs ...domain.ProbeResult) {
	t.Helper()
	m.Clock = func() time.Time { return at }
	snap := &domain.Snapshot{Timestamp: at, OverallStatus: overall, Services: map[domain.Category]domain.ProbeResult{}}
	for _, r := range rs {
		snap.Services[r.Category] = r
	}
	if _, err := m.Insert(context.Background(), snap); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func newTestService(m *memory.Store) *Service {
	s := NewService(m, func(c domain.Category) string { return "https://" + string(c) + ".example" })
	s.Now = func() time.Time { return testNow }
	return s
}

func TestStatistics_Reduction(t *testing.T) {
	m := memory.New()
	seed(t, m, testNow.Add(-3*time.Hour), domain.StatusOK,
		result(domain.Backend, domain.StatusOK, 100),
		result(domain.Frontend, domain.StatusOK, 40),
		result(domain.Datastore, domain.StatusAbsent, 0))
	seed(t, m, testNow.Add(-2*time.Hour), domain.StatusDegraded,
		result(domain.Backend, domain.StatusDegraded, 2500),
		result(domain.Frontend, domain.StatusOK, 60),
		result(domain.Datastore, domain.StatusAbsent, 0))
	seed(t, m, testNow.Add(-1*time.Hour), domain.StatusDown,
		result(domain.Backend, domain.StatusDown, 0),
		result(domain.Frontend, domain.StatusOK, 50))
	// outside a one-day window
	seed(t, m, testNow.AddDate(0, 0, -3), domain.StatusDown, result(domain.Backend, domain.StatusDown, 0))

	st, err := newTestService(m).Statistics(context.Background(), LastDays(1), "")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if st.TotalChecks != 3 {
		t.Fatalf("total = %d", st.TotalChecks)
	}
	if st.StatusCounts != (domain.StatusCounts{OK: 1, Degraded: 1, Down: 1}) {
		t.Fatalf("counts = %+v", st.StatusCounts)
	}

	be := st.Services[domain.Backend]
	if be.AvgResponseTime != 866.67 || be.UptimePercent != 33.33 || be.PresentChecks != 3 || be.AbsentChecks != 0 {
		t.Fatalf("backend = %+v", be)
	}
	if be.URL != "https://backend.example" {
		t.Fatalf("backend url = %q", be.URL)
	}

	fe := st.Services[domain.Frontend]
	if fe.AvgResponseTime != 50 || fe.UptimePercent != 100 {
		t.Fatalf("frontend = %+v", fe)
	}

	ds := st.Services[domain.Datastore]
	if ds.AvgResponseTime != 0 || ds.UptimePercent != 0 || ds.PresentChecks != 0 || ds.AbsentChecks != 3 {
		t.Fatalf("datastore = %+v", ds)
	}
}

func TestStatistics_EmptyWindow(t *testing.T) {
	st, err := newTestService(memory.New()).Statistics(context.Background(), LastDays(7), "")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if st.TotalChecks != 0 || len(st.Services) != len(domain.Categories) {
		t.Fatalf("unexpected stats: %+v", st)
	}
	for c, cs := range st.Services {
		if cs.UptimePercent != 0 || cs.AvgResponseTime != 0 {
			t.Fatalf("%s: %+v", c, cs)
		}
	}
}

func TestStatistics_FilterLimitsCategoriesNotRecords(t *testing.T) {
	m := memory.New()
	seed(t, m, testNow.Add(-time.Hour), domain.StatusOK, result(domain.Frontend, domain.StatusOK, 10))
	seed(t, m, testNow.Add(-time.Minute), domain.StatusDown, result(domain.Backend, domain.StatusDown, 0))

	st, err := newTestService(m).Statistics(context.Background(), LastDays(1), domain.Frontend)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if st.TotalChecks != 2 || len(st.Services) != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if fe := st.Services[domain.Frontend]; fe.UptimePercent != 50 || fe.AbsentChecks != 1 {
		t.Fatalf("frontend = %+v", fe)
	}
}

func TestStatistics_Idempotent(t *testing.T) {
	m := memory.New()
	seed(t, m, testNow.Add(-time.Hour), domain.StatusDegraded,
		result(domain.Backend, domain.StatusDegraded, 2100),
		result(domain.Frontend, domain.StatusOK, 33))
	svc := newTestService(m)

	a, err := svc.Statistics(context.Background(), LastDays(3), "")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	b, _ := svc.Statistics(context.Background(), LastDays(3), "")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("statistics differ between runs:\n%+v\n%+v", a, b)
	}
}

func TestStatistics_InvalidWindow(t *testing.T) {
	_, err := newTestService(memory.New()).Statistics(context.Background(), Range(1, 5), "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestHistory_OrderAndFilter(t *testing.T) {
	m := memory.New()
	// inserted out of order
	seed(t, m, testNow.Add(-time.Hour), domain.StatusOK,
		result(domain.Backend, domain.StatusOK, 2), result(domain.Frontend, domain.StatusOK, 1))
	seed(t, m, testNow.Add(-2*time.Hour), domain.StatusOK,
		result(domain.Backend, domain.StatusOK, 4), result(domain.Frontend, domain.StatusOK, 3))

	svc := newTestService(m)
	recs, err := svc.History(context.Background(), LastDays(1), domain.Backend)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 2 || !recs[0].CreatedAt.Before(recs[1].CreatedAt) {
		t.Fatalf("records not ascending: %+v", recs)
	}
	for _, r := range recs {
		if _, ok := r.Services[domain.Frontend]; ok || len(r.Services) != 1 {
			t.Fatalf("filter leaked other categories: %+v", r.Services)
		}
	}

	all, _ := svc.History(context.Background(), LastDays(1), "")
	if len(all[0].Services) != 2 {
		t.Fatalf("unfiltered history lost data: %+v", all[0].Services)
	}
}

func TestHistory_DayAndRange(t *testing.T) {
	m := memory.New()
	seed(t, m, testNow.AddDate(0, 0, -1), domain.StatusOK)
	seed(t, m, testNow.AddDate(0, 0, -5), domain.StatusOK)
	seed(t, m, testNow.AddDate(0, 0, -10), domain.StatusOK)
	svc := newTestService(m)

	day, err := svc.History(context.Background(), Day(1), "")
	if err != nil || len(day) != 1 {
		t.Fatalf("Day(1): %d records, err %v", len(day), err)
	}
	rng, err := svc.History(context.Background(), Range(7, 1), "")
	if err != nil || len(rng) != 2 {
		t.Fatalf("Range(7,1): %d records, err %v", len(rng), err)
	}
}

func TestHistory_CallerMutationDoesNotRewriteStore(t *testing.T) {
	m := memory.New()
	seed(t, m, testNow.Add(-time.Hour), domain.StatusOK,
		result(domain.Backend, domain.StatusOK, 5), result(domain.Frontend, domain.StatusOK, 7))
	svc := newTestService(m)

	recs, err := svc.History(context.Background(), LastDays(1), "")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	delete(recs[0].Services, domain.Backend)

	again, _ := svc.History(context.Background(), LastDays(1), "")
	if len(again[0].Services) != 2 {
		t.Fatalf("stored history lost data: %+v", again[0].Services)
	}
}

type brokenReader struct{}

func (brokenReader) QueryRange(context.Context, time.Time, time.Time) ([]domain.Record, error) {
	return nil, errors.New("connection reset")
}

func TestHistory_StoreFailure(t *testing.T) {
	svc := NewService(brokenReader{}, nil)
	if _, err := svc.History(context.Background(), LastDays(1), ""); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
}
