package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dwporter/dwporter/internal/warehouse"
	"github.com/dwporter/dwporter/pkg/models"
	"github.com/google/uuid"
)

// HistoryRecorder persists a summary of a finished job. Implemented by the
// history store; nil disables recording.
type HistoryRecorder interface {
	RecordJob(ctx context.Context, job *models.MigrationJob) error
}

// Runner executes migration jobs in the background, one goroutine per job.
// All state flows through the Store; the runner itself is stateless between
// objects, which is what makes cancellation at object boundaries safe.
type Runner struct {
	store       *Store
	translator  models.Translator
	executor    warehouse.Executor
	history     HistoryRecorder
	callTimeout time.Duration
}

// NewRunner wires a runner. history may be nil. callTimeout bounds each
// individual translate or execute call, not the job as a whole.
func NewRunner(store *Store, translator models.Translator, executor warehouse.Executor, history HistoryRecorder, callTimeout time.Duration) *Runner {
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &Runner{
		store:       store,
		translator:  translator,
		executor:    executor,
		history:     history,
		callTimeout: callTimeout,
	}
}

// StartParams carries the job-level settings of one migration run.
type StartParams struct {
	SourceType    string
	TargetCatalog string
	TargetSchema  string
	ModelID       string
	DryRun        bool
}

// Start registers a new job and launches its worker goroutine. It returns as
// soon as the job record exists; callers poll or stream for progress.
func (r *Runner) Start(objects []models.SchemaObject, p StartParams) (uuid.UUID, error) {
	jobID := uuid.New()
	ordered := orderObjects(objects)

	if err := r.store.Create(CreateParams{
		JobID:         jobID,
		TotalObjects:  len(ordered),
		SourceType:    p.SourceType,
		TargetCatalog: p.TargetCatalog,
		TargetSchema:  p.TargetSchema,
		ModelID:       p.ModelID,
		DryRun:        p.DryRun,
	}); err != nil {
		return uuid.Nil, fmt.Errorf("failed to register migration job: %w", err)
	}

	r.store.AppendLog(jobID, models.LogLevelInfo,
		fmt.Sprintf("Starting migration of %d objects from %s to %s.%s",
			len(ordered), p.SourceType, p.TargetCatalog, p.TargetSchema))

	go r.run(jobID, ordered, p)

	slog.Info("migration job started",
		"job_id", jobID,
		"source_type", p.SourceType,
		"total_objects", len(ordered),
		"dry_run", p.DryRun,
	)
	return jobID, nil
}

// orderObjects fixes the processing order: tables first, then views, then
// procedures, preserving input order within each category. Views tend to
// reference tables and procedures reference both.
func orderObjects(objects []models.SchemaObject) []models.SchemaObject {
	ordered := make([]models.SchemaObject, 0, len(objects))
	for _, typ := range []string{models.ObjectTypeTable, models.ObjectTypeView, models.ObjectTypeProcedure} {
		for _, obj := range objects {
			if obj.Type == typ {
				ordered = append(ordered, obj)
			}
		}
	}
	return ordered
}

func (r *Runner) run(jobID uuid.UUID, objects []models.SchemaObject, p StartParams) {
	ctx := context.Background()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in migration worker", "job_id", jobID, "panic", rec)
			r.store.AppendLog(jobID, models.LogLevelError,
				fmt.Sprintf("Migration aborted by internal error: %v", rec))
			r.store.Complete(jobID, models.JobStatusFailed)
			r.recordHistory(ctx, jobID)
		}
	}()

	total := len(objects)
	for i, obj := range objects {
		status, err := r.store.Status(jobID)
		if err != nil {
			// Job was deleted mid-run. Nothing left to report to.
			slog.Warn("migration job disappeared mid-run", "job_id", jobID)
			return
		}
		if status == models.JobStatusCancelled {
			slog.Info("migration job cancelled", "job_id", jobID, "processed", i, "total", total)
			r.store.AppendLog(jobID, models.LogLevelWarning,
				fmt.Sprintf("Migration cancelled after %d of %d objects", i, total))
			r.recordHistory(ctx, jobID)
			return
		}
		if models.IsTerminalStatus(status) {
			return
		}

		name := obj.QualifiedName()
		r.store.Update(jobID, WithCurrentObject(name))
		r.store.AppendLog(jobID, models.LogLevelInfo,
			fmt.Sprintf("Processing %s %s (%d/%d)", strings.ToLower(obj.Type), name, i+1, total))

		if strings.TrimSpace(obj.SourceSQL) == "" {
			reason := "No source SQL available"
			r.store.AppendResult(jobID, models.ObjectResult{
				ObjectName: name,
				ObjectType: obj.Type,
				Status:     models.ObjectStatusSkipped,
				Error:      &reason,
				Timestamp:  time.Now().UTC(),
			})
			r.store.Update(jobID, IncrementSkipped())
			r.store.AppendLog(jobID, models.LogLevelWarning,
				fmt.Sprintf("Skipped %s: no source SQL available", name))
			continue
		}

		started := time.Now()
		result, err := r.translate(ctx, obj, p)
		if err != nil {
			r.failObject(jobID, obj, started, fmt.Sprintf("translation failed: %v", err))
			continue
		}

		if p.DryRun {
			r.succeedObject(jobID, obj, started)
			continue
		}

		if obj.Type == models.ObjectTypeProcedure {
			// Procedures need manual conversion review before they can run on
			// the target, so the translation is recorded but not applied.
			r.store.AppendLog(jobID, models.LogLevelWarning,
				fmt.Sprintf("Translated %s but did not apply it: procedures are not executed automatically", name))
			r.succeedObject(jobID, obj, started)
			continue
		}

		if err := r.execute(ctx, result.TranslatedSQL); err != nil {
			r.failObject(jobID, obj, started, fmt.Sprintf("execution failed: %v", err))
			continue
		}
		r.succeedObject(jobID, obj, started)
	}

	if status, err := r.store.Status(jobID); err == nil && status == models.JobStatusRunning {
		if snap, err := r.store.Snapshot(jobID); err == nil {
			r.store.AppendLog(jobID, models.LogLevelInfo,
				fmt.Sprintf("Migration finished: %d succeeded, %d failed, %d skipped of %d",
					snap.CompletedObjects, snap.FailedObjects, snap.SkippedObjects, snap.TotalObjects))
		}
		r.store.Complete(jobID, models.JobStatusCompleted)
		slog.Info("migration job completed", "job_id", jobID, "total_objects", total)
	}
	r.recordHistory(ctx, jobID)
}

func (r *Runner) translate(ctx context.Context, obj models.SchemaObject, p StartParams) (models.TranslationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.translator.Translate(callCtx, models.TranslationRequest{
		SourceSystem:  p.SourceType,
		SourceSQL:     obj.SourceSQL,
		ModelID:       p.ModelID,
		TargetCatalog: p.TargetCatalog,
		TargetSchema:  p.TargetSchema,
	})
}

func (r *Runner) execute(ctx context.Context, statement string) error {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.executor.Execute(callCtx, statement)
}

func (r *Runner) succeedObject(jobID uuid.UUID, obj models.SchemaObject, started time.Time) {
	elapsed := time.Since(started).Milliseconds()
	r.store.AppendResult(jobID, models.ObjectResult{
		ObjectName:      obj.QualifiedName(),
		ObjectType:      obj.Type,
		Status:          models.ObjectStatusSuccess,
		ExecutionTimeMS: &elapsed,
		Timestamp:       time.Now().UTC(),
	})
	r.store.Update(jobID, IncrementCompleted())
}

func (r *Runner) failObject(jobID uuid.UUID, obj models.SchemaObject, started time.Time, reason string) {
	elapsed := time.Since(started).Milliseconds()
	name := obj.QualifiedName()
	r.store.AppendResult(jobID, models.ObjectResult{
		ObjectName:      name,
		ObjectType:      obj.Type,
		Status:          models.ObjectStatusError,
		Error:           &reason,
		ExecutionTimeMS: &elapsed,
		Timestamp:       time.Now().UTC(),
	})
	r.store.Update(jobID, IncrementFailed())
	r.store.AppendLog(jobID, models.LogLevelError,
		fmt.Sprintf("Failed to migrate %s: %s", name, reason))
}

func (r *Runner) recordHistory(ctx context.Context, jobID uuid.UUID) {
	if r.history == nil {
		return
	}
	snap, err := r.store.Snapshot(jobID)
	if err != nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := r.history.RecordJob(recordCtx, snap); err != nil {
		slog.Warn("failed to record migration history", "job_id", jobID, "error", err)
	}
}
