package repo

import (
	"context"
	"time"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

// Ports (interfaces); memory and Postgres adapters implement them.

type SnapshotWriter interface {
	// Insert appends s and returns the stored record.
	Insert(ctx context.Context, s *domain.Snapshot) (*domain.Record, error)
}

type SnapshotReader interface {
	// QueryRange returns records with start <= CreatedAt <= end, oldest first.
	QueryRange(ctx context.Context, start, end time.Time) ([]domain.Record, error)
}

type SnapshotSweeper interface {
	// DeleteOlderThan removes records with CreatedAt < cutoff and reports how many.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type SnapshotStore interface {
	SnapshotWriter
	SnapshotReader
	SnapshotSweeper
}
