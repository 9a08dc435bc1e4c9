// Package handler contains the HTTP handlers for the migration API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/migration"
	"github.com/dwporter/dwporter/pkg/models"
)

// Starter launches migration jobs. Implemented by migration.Runner.
type Starter interface {
	Start(objects []models.SchemaObject, p migration.StartParams) (uuid.UUID, error)
}

type startMigrationRequest struct {
	SourceType    string                `json:"source_type"`
	TargetCatalog string                `json:"target_catalog"`
	TargetSchema  string                `json:"target_schema"`
	ModelID       string                `json:"model_id"`
	DryRun        bool                  `json:"dry_run"`
	Objects       []models.SchemaObject `json:"objects"`
}

// NewStartMigrationHandler accepts a migration request, registers the job,
// and returns 202 immediately; progress is observed via polling or SSE.
func NewStartMigrationHandler(starter Starter, defaultModel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startMigrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.SourceType == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "source_type is required", nil)
			return
		}
		for i := range req.Objects {
			req.Objects[i].Type = strings.ToUpper(req.Objects[i].Type)
			switch req.Objects[i].Type {
			case models.ObjectTypeTable, models.ObjectTypeView, models.ObjectTypeProcedure:
			default:
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"object type must be TABLE, VIEW, or PROCEDURE",
					map[string]string{"object": req.Objects[i].Name, "type": req.Objects[i].Type})
				return
			}
			if req.Objects[i].Name == "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "every object needs a name", nil)
				return
			}
		}

		if req.TargetCatalog == "" {
			req.TargetCatalog = "main"
		}
		if req.TargetSchema == "" {
			req.TargetSchema = "default"
		}
		if req.ModelID == "" {
			req.ModelID = defaultModel
		}

		jobID, err := starter.Start(req.Objects, migration.StartParams{
			SourceType:    req.SourceType,
			TargetCatalog: req.TargetCatalog,
			TargetSchema:  req.TargetSchema,
			ModelID:       req.ModelID,
			DryRun:        req.DryRun,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "START_FAILED", "Failed to start migration", nil)
			return
		}

		response.Accepted(w, map[string]any{
			"job_id":        jobID,
			"status":        models.JobStatusRunning,
			"total_objects": len(req.Objects),
		})
	}
}

// jobIDFromRequest parses the {jobID} route parameter. A malformed id is
// reported as not found rather than leaking parse details.
func jobIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "jobID")
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such migration job",
			map[string]string{"job_id": raw})
		return uuid.Nil, false
	}
	return id, true
}

// NewGetMigrationHandler returns the full job snapshot including logs and
// per-object results.
func NewGetMigrationHandler(store *migration.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDFromRequest(w, r)
		if !ok {
			return
		}
		job, err := store.Snapshot(id)
		if errors.Is(err, migration.ErrJobNotFound) {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such migration job",
				map[string]string{"job_id": id.String()})
			return
		}
		response.JSON(w, job)
	}
}

type jobSummary struct {
	JobID              uuid.UUID  `json:"job_id"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	TotalObjects       int        `json:"total_objects"`
	CompletedObjects   int        `json:"completed_objects"`
	FailedObjects      int        `json:"failed_objects"`
	SkippedObjects     int        `json:"skipped_objects"`
	SourceType         string     `json:"source_type"`
	TargetCatalog      string     `json:"target_catalog"`
	TargetSchema       string     `json:"target_schema"`
	DryRun             bool       `json:"dry_run"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	LogCount           int        `json:"log_count"`
	ResultCount        int        `json:"result_count"`
}

// NewListMigrationsHandler lists every in-memory job as a summary; logs and
// results are reduced to counts to keep the payload small.
func NewListMigrationsHandler(store *migration.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs := store.List()
		summaries := make([]jobSummary, 0, len(jobs))
		for _, job := range jobs {
			summaries = append(summaries, jobSummary{
				JobID:              job.JobID,
				Status:             job.Status,
				ProgressPercentage: job.ProgressPercentage,
				TotalObjects:       job.TotalObjects,
				CompletedObjects:   job.CompletedObjects,
				FailedObjects:      job.FailedObjects,
				SkippedObjects:     job.SkippedObjects,
				SourceType:         job.SourceType,
				TargetCatalog:      job.TargetCatalog,
				TargetSchema:       job.TargetSchema,
				DryRun:             job.DryRun,
				StartTime:          job.StartTime,
				EndTime:            job.EndTime,
				LogCount:           len(job.Logs),
				ResultCount:        len(job.ObjectResults),
			})
		}
		response.Collection(w, summaries, len(summaries))
	}
}

// NewCancelMigrationHandler requests cooperative cancellation. The object in
// flight finishes first; remaining objects are never attempted.
func NewCancelMigrationHandler(store *migration.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDFromRequest(w, r)
		if !ok {
			return
		}
		status, err := store.Cancel(id)
		switch {
		case errors.Is(err, migration.ErrJobNotFound):
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such migration job",
				map[string]string{"job_id": id.String()})
		case errors.Is(err, migration.ErrJobNotRunning):
			response.Error(w, http.StatusConflict, "JOB_NOT_RUNNING", "Job is not running",
				map[string]string{"job_id": id.String(), "status": status})
		default:
			response.JSON(w, map[string]string{
				"job_id": id.String(),
				"status": status,
			})
		}
	}
}

// NewDeleteMigrationHandler removes the job record regardless of status.
func NewDeleteMigrationHandler(store *migration.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDFromRequest(w, r)
		if !ok {
			return
		}
		if err := store.Delete(id); errors.Is(err, migration.ErrJobNotFound) {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No such migration job",
				map[string]string{"job_id": id.String()})
			return
		}
		response.JSON(w, map[string]any{
			"job_id":  id.String(),
			"deleted": true,
		})
	}
}
