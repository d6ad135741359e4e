package health

import "github.com/hamed0406/healthmonitor/internal/domain"

// Aggregate reduces probe results to one overall status with precedence
// down > degraded > ok. Absent results are ignored; with nothing left the
// verdict is ok, since nothing observed is failing.
func Aggregate(results []domain.ProbeResult) domain.Status {
	overall := domain.StatusOK
	for _, r := range results {
		switch r.Status {
		case domain.StatusDown:
			return domain.StatusDown
		case domain.StatusDegraded:
			overall = domain.StatusDegraded
		}
	}
	return overall
}
