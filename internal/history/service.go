package history

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/hamed0406/healthmonitor/internal/domain"
	"github.com/hamed0406/healthmonitor/internal/repo"
)

// Service answers read-only questions over persisted snapshots.
type Service struct {
	Store repo.SnapshotReader
	// URLs reports the configured address of a category for statistics output.
	URLs     func(domain.Category) string
	Now      func() time.Time
	Location *time.Location
}

func NewService(store repo.SnapshotReader, urls func(domain.Category) string) *Service {
	return &Service{Store: store, URLs: urls, Now: time.Now, Location: time.UTC}
}

// History returns the records of the window, oldest first. A non-empty filter
// keeps only that category's data in each record.
func (s *Service) History(ctx context.Context, w Window, filter domain.Category) ([]domain.Record, error) {
	recs, err := s.records(ctx, w)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return recs, nil
	}
	out := make([]domain.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Only(filter)
	}
	return out, nil
}

// Statistics reduces the records of the window. The filter limits which
// categories are reported, not which records are counted.
func (s *Service) Statistics(ctx context.Context, w Window, filter domain.Category) (domain.Statistics, error) {
	if err := w.Validate(); err != nil {
		return domain.Statistics{}, err
	}
	start, end := w.Resolve(s.Now(), s.Location)
	recs, err := s.query(ctx, start, end)
	if err != nil {
		return domain.Statistics{}, err
	}

	cats := domain.Categories
	if filter != "" {
		cats = []domain.Category{filter}
	}

	st := Summarize(recs, cats, s.url)
	st.Start, st.End = start, end
	return st, nil
}

func (s *Service) records(ctx context.Context, w Window) ([]domain.Record, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	start, end := w.Resolve(s.Now(), s.Location)
	return s.query(ctx, start, end)
}

func (s *Service) query(ctx context.Context, start, end time.Time) ([]domain.Record, error) {
	recs, err := s.Store.QueryRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s..%s: %w", domain.ErrPersistence,
			start.Format(time.RFC3339), end.Format(time.RFC3339), err)
	}
	return recs, nil
}

func (s *Service) url(c domain.Category) string {
	if s.URLs == nil {
		return ""
	}
	return s.URLs(c)
}

// Summarize computes window statistics for the given categories.
func Summarize(recs []domain.Record, cats []domain.Category, url func(domain.Category) string) domain.Statistics {
	st := domain.Statistics{
		TotalChecks: len(recs),
		Services:    make(map[domain.Category]domain.CategoryStats, len(cats)),
	}
	for _, r := range recs {
		switch r.OverallStatus {
		case domain.StatusOK:
			st.StatusCounts.OK++
		case domain.StatusDegraded:
			st.StatusCounts.Degraded++
		case domain.StatusDown:
			st.StatusCounts.Down++
		}
	}

	for _, c := range cats {
		var (
			latencies stats.Float64Data
			okCount   int
			cs        domain.CategoryStats
		)
		for _, r := range recs {
			pr, ok := r.Services[c]
			if !ok || pr.Status == domain.StatusAbsent {
				cs.AbsentChecks++
				continue
			}
			cs.PresentChecks++
			latencies = append(latencies, float64(pr.LatencyMS))
			if pr.Status == domain.StatusOK {
				okCount++
			}
		}
		if len(latencies) > 0 {
			mean, _ := stats.Mean(latencies)
			cs.AvgResponseTime = round2(mean)
		}
		if len(recs) > 0 {
			cs.UptimePercent = round2(float64(okCount) / float64(len(recs)) * 100)
		}
		if url != nil {
			cs.URL = url(c)
		}
		st.Services[c] = cs
	}
	return st
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
