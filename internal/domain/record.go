package domain

import "time"

// Record is a persisted Snapshot. Records are append-only and removed only by
// the retention sweep.
type Record struct {
	ID            string                   `json:"id"`
	Timestamp     time.Time                `json:"timestamp"`
	OverallStatus Status                   `json:"overall_status"`
	Services      map[Category]ProbeResult `json:"services"`
	CreatedAt     time.Time                `json:"created_at"`
}

// Only returns a copy of the record carrying just the given category's data.
func (r Record) Only(c Category) Record {
	out := r
	out.Services = make(map[Category]ProbeResult, 1)
	if pr, ok := r.Services[c]; ok {
		out.Services[c] = pr
	}
	return out
}

type StatusCounts struct {
	OK       int `json:"ok"`
	Degraded int `json:"degraded"`
	Down     int `json:"down"`
}

type CategoryStats struct {
	URL             string  `json:"url,omitempty"`
	AvgResponseTime float64 `json:"avg_response_time_ms"`
	UptimePercent   float64 `json:"uptime_percent"`
	PresentChecks   int     `json:"present_checks"`
	AbsentChecks    int     `json:"absent_checks"`
}

// Statistics summarises the records of one window. It is derived on demand and
// never persisted.
type Statistics struct {
	TotalChecks  int                        `json:"total_checks"`
	StatusCounts StatusCounts               `json:"status_counts"`
	Services     map[Category]CategoryStats `json:"services"`
	Start        time.Time                  `json:"start"`
	End          time.Time                  `json:"end"`
}
