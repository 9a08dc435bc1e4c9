// Package history persists summaries of finished migration jobs. Live job
// state stays in process memory; only terminal outcomes land here.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dwporter/dwporter/pkg/models"
)

// ErrNotFound is returned when a history row does not exist.
var ErrNotFound = errors.New("history record not found")

// JobSummary is one row of the migration history.
type JobSummary struct {
	JobID            uuid.UUID  `json:"job_id"`
	Status           string     `json:"status"`
	SourceType       string     `json:"source_type"`
	TargetCatalog    string     `json:"target_catalog"`
	TargetSchema     string     `json:"target_schema"`
	ModelID          string     `json:"model_id"`
	DryRun           bool       `json:"dry_run"`
	TotalObjects     int        `json:"total_objects"`
	CompletedObjects int        `json:"completed_objects"`
	FailedObjects    int        `json:"failed_objects"`
	SkippedObjects   int        `json:"skipped_objects"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Store is the persistence interface for migration history.
type Store interface {
	RecordJob(ctx context.Context, job *models.MigrationJob) error
	ListJobs(ctx context.Context, limit int) ([]JobSummary, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*JobSummary, error)
	Ping(ctx context.Context) error
	Close()
}
