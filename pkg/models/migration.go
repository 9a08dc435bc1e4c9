// Package models contains shared data models used across the dwporter codebase.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job statuses. A job is created directly into running; pending exists only
// for the instant between allocation and dispatch.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// IsTerminalStatus reports whether a job status permits no further transition.
func IsTerminalStatus(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Per-object migration outcomes.
const (
	ObjectStatusSuccess = "success"
	ObjectStatusError   = "error"
	ObjectStatusSkipped = "skipped"
)

// Job log levels.
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// LogEntry is one line of a job's activity log. Informational only; nothing
// reads it back to drive control flow.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// ObjectResult records the outcome of migrating a single schema object.
type ObjectResult struct {
	ObjectName      string    `json:"object_name"`
	ObjectType      string    `json:"object_type"`
	Status          string    `json:"status"`
	Error           *string   `json:"error,omitempty"`
	ExecutionTimeMS *int64    `json:"execution_time_ms,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// MigrationJob is the live state of one migration run. Records are owned by
// the in-memory job store for the lifetime of the process; everything handed
// to observers is a copy.
type MigrationJob struct {
	JobID              uuid.UUID  `json:"job_id"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	TotalObjects       int        `json:"total_objects"`
	CompletedObjects   int        `json:"completed_objects"`
	FailedObjects      int        `json:"failed_objects"`
	SkippedObjects     int        `json:"skipped_objects"`
	CurrentObject      string     `json:"current_object,omitempty"`
	SourceType         string     `json:"source_type"`
	TargetCatalog      string     `json:"target_catalog"`
	TargetSchema       string     `json:"target_schema"`
	ModelID            string     `json:"model_id"`
	DryRun             bool       `json:"dry_run"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`

	// EstimatedTimeRemaining is in whole seconds; nil until at least one
	// object has finished processing.
	EstimatedTimeRemaining *int `json:"estimated_time_remaining,omitempty"`

	Logs          []LogEntry     `json:"logs"`
	ObjectResults []ObjectResult `json:"object_results"`

	// EvictedLogs counts entries dropped from the front of Logs after the
	// ring filled; EvictedLogs+len(Logs) is the total ever appended. Stream
	// watermarks are measured against that total, not the slice length.
	EvictedLogs int `json:"-"`
}

// Clone returns a deep copy of the job so observers can work on it without
// holding the job's lock.
func (j *MigrationJob) Clone() *MigrationJob {
	c := *j
	if j.EndTime != nil {
		t := *j.EndTime
		c.EndTime = &t
	}
	if j.EstimatedTimeRemaining != nil {
		v := *j.EstimatedTimeRemaining
		c.EstimatedTimeRemaining = &v
	}
	c.Logs = append([]LogEntry(nil), j.Logs...)
	c.ObjectResults = append([]ObjectResult(nil), j.ObjectResults...)
	return &c
}

// Schema object types, in the order they are migrated.
const (
	ObjectTypeTable     = "TABLE"
	ObjectTypeView      = "VIEW"
	ObjectTypeProcedure = "PROCEDURE"
)

// SchemaObject is one table, view, or procedure definition to migrate.
type SchemaObject struct {
	Type      string `json:"type"`
	Schema    string `json:"schema"`
	Name      string `json:"name"`
	SourceSQL string `json:"source_sql"`
}

// QualifiedName returns schema.name, or just the name when no schema is set.
func (o SchemaObject) QualifiedName() string {
	if o.Schema == "" {
		return o.Name
	}
	return fmt.Sprintf("%s.%s", o.Schema, o.Name)
}
