package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dwporter/dwporter/internal/config"
	"github.com/dwporter/dwporter/pkg/models"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// Connect opens the history database pool and verifies the connection.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool, mainly for tests.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// RecordJob upserts the job summary. Recording is idempotent so a retry after
// a partial failure cannot duplicate rows.
func (s *PostgresStore) RecordJob(ctx context.Context, job *models.MigrationJob) error {
	query := `
		INSERT INTO migration_history (
			job_id, status, source_type, target_catalog, target_schema,
			model_id, dry_run, total_objects, completed_objects,
			failed_objects, skipped_objects, start_time, end_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_objects = EXCLUDED.completed_objects,
			failed_objects = EXCLUDED.failed_objects,
			skipped_objects = EXCLUDED.skipped_objects,
			end_time = EXCLUDED.end_time`

	_, err := s.pool.Exec(ctx, query,
		job.JobID, job.Status, job.SourceType, job.TargetCatalog, job.TargetSchema,
		job.ModelID, job.DryRun, job.TotalObjects, job.CompletedObjects,
		job.FailedObjects, job.SkippedObjects, job.StartTime, job.EndTime,
	)
	if err != nil {
		return fmt.Errorf("failed to record migration history: %w", err)
	}
	return nil
}

// ListJobs returns the most recent summaries, newest first.
func (s *PostgresStore) ListJobs(ctx context.Context, limit int) ([]JobSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT job_id, status, source_type, target_catalog, target_schema,
		       model_id, dry_run, total_objects, completed_objects,
		       failed_objects, skipped_objects, start_time, end_time, created_at
		FROM migration_history
		ORDER BY start_time DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list migration history: %w", err)
	}
	defer rows.Close()

	summaries := []JobSummary{}
	for rows.Next() {
		var j JobSummary
		if err := rows.Scan(
			&j.JobID, &j.Status, &j.SourceType, &j.TargetCatalog, &j.TargetSchema,
			&j.ModelID, &j.DryRun, &j.TotalObjects, &j.CompletedObjects,
			&j.FailedObjects, &j.SkippedObjects, &j.StartTime, &j.EndTime, &j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		summaries = append(summaries, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return summaries, nil
}

// GetJob fetches one summary by job id.
func (s *PostgresStore) GetJob(ctx context.Context, jobID uuid.UUID) (*JobSummary, error) {
	query := `
		SELECT job_id, status, source_type, target_catalog, target_schema,
		       model_id, dry_run, total_objects, completed_objects,
		       failed_objects, skipped_objects, start_time, end_time, created_at
		FROM migration_history
		WHERE job_id = $1`

	var j JobSummary
	err := s.pool.QueryRow(ctx, query, jobID).Scan(
		&j.JobID, &j.Status, &j.SourceType, &j.TargetCatalog, &j.TargetSchema,
		&j.ModelID, &j.DryRun, &j.TotalObjects, &j.CompletedObjects,
		&j.FailedObjects, &j.SkippedObjects, &j.StartTime, &j.EndTime, &j.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history row: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
