package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	records []domain.Record

	// Clock stamps CreatedAt on insert; tests override it.
	Clock func() time.Time
}

func New() *Store {
	return &Store{
		records: make([]domain.Record, 0, 128),
		Clock:   time.Now,
	}
}

func (m *Store) Insert(ctx context.Context, s *domain.Snapshot) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := domain.Record{
		ID:            uuid.NewString(),
		Timestamp:     s.Timestamp,
		OverallStatus: s.OverallStatus,
		Services:      make(map[domain.Category]domain.ProbeResult, len(s.Services)),
		CreatedAt:     m.Clock().UTC(),
	}
	maps.Copy(rec.Services, s.Services)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)

	// callers get their own map; stored records are never mutated
	out := rec
	out.Services = maps.Clone(rec.Services)
	return &out, nil
}

func (m *Store) QueryRange(ctx context.Context, start, end time.Time) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Record, 0)
	for _, r := range m.records {
		if r.CreatedAt.Before(start) || r.CreatedAt.After(end) {
			continue
		}
		r.Services = maps.Clone(r.Services)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var n int64
	for _, r := range m.records {
		if r.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n, nil
}

// Len reports how many records are stored.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
