package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/healthmonitor/internal/domain"
	"github.com/hamed0406/healthmonitor/internal/repo"
)

var _ repo.SnapshotStore = (*Store)(nil)

// SchemaSQL creates the flattened health_checks table: one row per snapshot,
// one status/response_time/error column triple per category.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS health_checks (
  id                      UUID PRIMARY KEY,
  timestamp               TIMESTAMPTZ NOT NULL,
  overall_status          TEXT NOT NULL,
  frontend_status         TEXT NOT NULL,
  frontend_response_time  BIGINT NOT NULL DEFAULT 0,
  frontend_error          TEXT NULL,
  backend_status          TEXT NOT NULL,
  backend_response_time   BIGINT NOT NULL DEFAULT 0,
  backend_error           TEXT NULL,
  datastore_status        TEXT NOT NULL,
  datastore_response_time BIGINT NOT NULL DEFAULT 0,
  datastore_error         TEXT NULL,
  created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_health_checks_created_at ON health_checks (created_at);
`

const undefinedTable = "42P01"

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema verifies health_checks exists and creates it when it does not.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `SELECT id FROM health_checks LIMIT 1`)
	if err == nil {
		s.log.Info("schema_ok", zap.String("table", "health_checks"))
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != undefinedTable {
		return fmt.Errorf("check schema: %w", err)
	}
	s.log.Warn("schema_missing", zap.String("table", "health_checks"))
	if _, err := s.pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	s.log.Info("schema_created", zap.String("table", "health_checks"))
	return nil
}

func (s *Store) Insert(ctx context.Context, snap *domain.Snapshot) (*domain.Record, error) {
	rec := domain.Record{
		ID:            uuid.NewString(),
		Timestamp:     snap.Timestamp,
		OverallStatus: snap.OverallStatus,
		Services:      make(map[domain.Category]domain.ProbeResult, len(domain.Categories)),
	}
	args := []any{rec.ID, rec.Timestamp, string(rec.OverallStatus)}
	for _, c := range domain.Categories {
		pr, ok := snap.Services[c]
		if !ok {
			pr = domain.ProbeResult{Category: c, Status: domain.StatusAbsent}
		}
		rec.Services[c] = pr
		args = append(args, string(pr.Status), pr.LatencyMS, nullable(pr.Error))
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO health_checks
		   (id, timestamp, overall_status,
		    frontend_status, frontend_response_time, frontend_error,
		    backend_status, backend_response_time, backend_error,
		    datastore_status, datastore_response_time, datastore_error)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING created_at`,
		args...,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert health check: %w", err)
	}
	return &rec, nil
}

func (s *Store) QueryRange(ctx context.Context, start, end time.Time) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, timestamp, overall_status,
       frontend_status, frontend_response_time, frontend_error,
       backend_status, backend_response_time, backend_error,
       datastore_status, datastore_response_time, datastore_error,
       created_at
  FROM health_checks
 WHERE created_at >= $1 AND created_at <= $2
 ORDER BY created_at ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query health checks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Record, 0)
	for rows.Next() {
		var (
			rec     domain.Record
			overall string
			status  [3]string
			latency [3]int64
			errText [3]*string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &overall,
			&status[0], &latency[0], &errText[0],
			&status[1], &latency[1], &errText[1],
			&status[2], &latency[2], &errText[2],
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan health check: %w", err)
		}
		rec.OverallStatus = domain.Status(overall)
		rec.Services = make(map[domain.Category]domain.ProbeResult, len(domain.Categories))
		for i, c := range domain.Categories {
			pr := domain.ProbeResult{Category: c, Status: domain.Status(status[i]), LatencyMS: latency[i]}
			if errText[i] != nil {
				pr.Error = *errText[i]
			}
			rec.Services[c] = pr
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM health_checks WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old health checks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
