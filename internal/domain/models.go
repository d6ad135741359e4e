package domain

import (
	"fmt"
	"time"
)

type Category string

const (
	Frontend  Category = "frontend"
	Backend   Category = "backend"
	Datastore Category = "datastore"
)

// Categories lists every monitored category in display order.
var Categories = []Category{Frontend, Backend, Datastore}

// ParseCategory accepts only the three fixed categories.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case Frontend, Backend, Datastore:
		return c, nil
	}
	return "", fmt.Errorf("%w: filter must be one of: frontend, backend, datastore", ErrValidation)
}

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
	// StatusAbsent marks a category with no configuration. It is excluded from
	// aggregation and from per-category averages.
	StatusAbsent Status = "absent"
)

// ProbeResult is the outcome of one probe attempt against one category.
type ProbeResult struct {
	Category  Category `json:"category"`
	Status    Status   `json:"status"`
	LatencyMS int64    `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
}

// Snapshot is the aggregated result of one full check cycle.
type Snapshot struct {
	Timestamp     time.Time                `json:"timestamp"`
	OverallStatus Status                   `json:"status"`
	Services      map[Category]ProbeResult `json:"services"`
}

// RetentionPolicy controls which records the retention sweep may delete.
type RetentionPolicy struct {
	DaysToKeep int
}

const DefaultRetentionDays = 30

// Cutoff returns the instant before which records are eligible for deletion.
func (p RetentionPolicy) Cutoff(now time.Time) time.Time {
	days := p.DaysToKeep
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return now.AddDate(0, 0, -days)
}
