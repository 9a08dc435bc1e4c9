package migration

import (
	"context"
	"time"

	"github.com/dwporter/dwporter/pkg/models"
	"github.com/google/uuid"
)

// DefaultStreamInterval is how often a stream consumer polls the job record.
const DefaultStreamInterval = 500 * time.Millisecond

// Frame is one progress event delivered to a stream consumer. NewLogs and
// NewResults carry only entries the consumer has not seen yet.
type Frame struct {
	JobID                  string                `json:"job_id,omitempty"`
	Status                 string                `json:"status,omitempty"`
	ProgressPercentage     int                   `json:"progress_percentage"`
	TotalObjects           int                   `json:"total_objects"`
	CompletedObjects       int                   `json:"completed_objects"`
	FailedObjects          int                   `json:"failed_objects"`
	SkippedObjects         int                   `json:"skipped_objects"`
	CurrentObject          string                `json:"current_object,omitempty"`
	EstimatedTimeRemaining *int                  `json:"estimated_time_remaining,omitempty"`
	NewLogs                []models.LogEntry     `json:"new_logs,omitempty"`
	NewResults             []models.ObjectResult `json:"new_results,omitempty"`
	StartTime              *time.Time            `json:"start_time,omitempty"`
	EndTime                *time.Time            `json:"end_time,omitempty"`
	Complete               bool                  `json:"complete,omitempty"`
	Error                  string                `json:"error,omitempty"`
}

// Stream polls the job at the given interval and emits one frame per poll
// until the job reaches a terminal status, the job disappears, or ctx is
// cancelled. Each consumer keeps its own log and result watermarks, so two
// consumers of the same job each see every entry exactly once. The channel is
// closed when the stream ends; an unknown job id yields a single error frame.
func (s *Store) Stream(ctx context.Context, jobID uuid.UUID, interval time.Duration) <-chan Frame {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	frames := make(chan Frame)

	go func() {
		defer close(frames)

		var sentLogs, sentResults int
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			snap, err := s.Snapshot(jobID)
			if err != nil {
				send(ctx, frames, Frame{Error: "Job not found"})
				return
			}

			frame := Frame{
				JobID:                  snap.JobID.String(),
				Status:                 snap.Status,
				ProgressPercentage:     snap.ProgressPercentage,
				TotalObjects:           snap.TotalObjects,
				CompletedObjects:       snap.CompletedObjects,
				FailedObjects:          snap.FailedObjects,
				SkippedObjects:         snap.SkippedObjects,
				CurrentObject:          snap.CurrentObject,
				EstimatedTimeRemaining: snap.EstimatedTimeRemaining,
			}
			// sentLogs counts every entry ever delivered, measured against
			// the job's total-appended count so a full ring cannot stall
			// the stream. A consumer more than a whole ring behind has
			// lost the evicted entries for good and resumes at the oldest
			// one still held.
			if sentLogs < snap.EvictedLogs {
				sentLogs = snap.EvictedLogs
			}
			frame.NewLogs = snap.Logs[sentLogs-snap.EvictedLogs:]
			frame.NewResults = snap.ObjectResults[sentResults:]

			if !send(ctx, frames, frame) {
				return
			}
			sentLogs = snap.EvictedLogs + len(snap.Logs)
			sentResults = len(snap.ObjectResults)

			if models.IsTerminalStatus(snap.Status) {
				send(ctx, frames, Frame{
					JobID:              snap.JobID.String(),
					Status:             snap.Status,
					ProgressPercentage: snap.ProgressPercentage,
					TotalObjects:       snap.TotalObjects,
					CompletedObjects:   snap.CompletedObjects,
					FailedObjects:      snap.FailedObjects,
					SkippedObjects:     snap.SkippedObjects,
					StartTime:          &snap.StartTime,
					EndTime:            snap.EndTime,
					Complete:           true,
				})
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return frames
}

func send(ctx context.Context, frames chan<- Frame, f Frame) bool {
	select {
	case frames <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
