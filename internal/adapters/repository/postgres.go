package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okian/robusta/internal/domain/engine"
	"github.com/okian/robusta/internal/domain/model"
	"github.com/okian/robusta/pkg/metrics"
)

const postgresStoreName = "postgres"

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps assessments in the assessments table. Ranking columns
// are stored alongside the full JSONB document.
type PostgresStore struct {
	db DB
}

// NewPostgresStore wraps an open pool. The schema must already be migrated.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, a engine.Assessment) error { //nolint:gocritic // hugeParam: stored by value
	defer observe(postgresStoreName, "save", time.Now())
	if err := validateSave(&a); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("save %q: encode: %w", a.ID, err)
	}

	const query = `
		INSERT INTO assessments (id, grade, cupping_score, defect_pct, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			grade = EXCLUDED.grade,
			cupping_score = EXCLUDED.cupping_score,
			defect_pct = EXCLUDED.defect_pct,
			created_at = EXCLUDED.created_at,
			payload = EXCLUDED.payload
	`
	if _, err := s.db.Exec(ctx, query, a.ID, string(a.Grade), a.CuppingScore, a.DefectPct, a.CreatedAt, payload); err != nil {
		metrics.RecordRepositoryError(postgresStoreName, "save")
		return fmt.Errorf("save %q: %w", a.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (engine.Assessment, error) {
	defer observe(postgresStoreName, "get", time.Now())
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM assessments WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engine.Assessment{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
		}
		metrics.RecordRepositoryError(postgresStoreName, "get")
		return engine.Assessment{}, fmt.Errorf("get %q: %w", id, err)
	}

	var a engine.Assessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return engine.Assessment{}, fmt.Errorf("get %q: decode: %w", id, err)
	}
	return a, nil
}

func (s *PostgresStore) Top(ctx context.Context, n int) ([]Entry, error) {
	defer observe(postgresStoreName, "top", time.Now())
	if n <= 0 {
		return nil, fmt.Errorf("top %d: %w", n, ErrInvalidLimit)
	}

	const query = `
		SELECT id, grade, cupping_score, defect_pct, created_at
		FROM assessments
		ORDER BY cupping_score DESC, id ASC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, n)
	if err != nil {
		metrics.RecordRepositoryError(postgresStoreName, "top")
		return nil, fmt.Errorf("top %d: %w", n, err)
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var (
			e     Entry
			grade string
		)
		if err := rows.Scan(&e.ID, &grade, &e.CuppingScore, &e.DefectPct, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("top %d: scan: %w", n, err)
		}
		e.Grade = model.Grade(grade)
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top %d: %w", n, err)
	}
	return out, nil
}

func (s *PostgresStore) Distribution(ctx context.Context) ([]GradeStats, error) {
	defer observe(postgresStoreName, "distribution", time.Now())
	const query = `
		SELECT grade, COUNT(*), SUM(cupping_score), SUM(defect_pct)
		FROM assessments
		GROUP BY grade
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		metrics.RecordRepositoryError(postgresStoreName, "distribution")
		return nil, fmt.Errorf("distribution: %w", err)
	}
	defer rows.Close()

	acc := statsAccumulator{}
	for rows.Next() {
		var (
			grade              string
			count              int
			cupping, defectPct float64
		)
		if err := rows.Scan(&grade, &count, &cupping, &defectPct); err != nil {
			return nil, fmt.Errorf("distribution: scan: %w", err)
		}
		acc.add(model.Grade(grade), count, cupping, defectPct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distribution: %w", err)
	}
	return acc.stats(), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&n); err != nil {
		metrics.RecordRepositoryError(postgresStoreName, "count")
		return 0, fmt.Errorf("count: %w", err)
	}
	metrics.UpdateRepositoryRecords(n)
	return n, nil
}
