// Package migration holds the live state and execution machinery for
// schema migration jobs. Job records live in process memory only; a restart
// loses them. Finished runs are summarized to the history store separately.
package migration

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dwporter/dwporter/pkg/models"
	"github.com/google/uuid"
)

// maxLogEntries bounds each job's log to the most recent entries so
// long-running jobs cannot grow memory without limit.
const maxLogEntries = 1000

var (
	ErrJobNotFound = errors.New("migration job not found")
	ErrJobExists   = errors.New("migration job already exists")

	// ErrJobNotRunning is returned by Cancel when the job has already
	// reached a terminal status.
	ErrJobNotRunning = errors.New("migration job is not running")
)

// Store is the in-memory table of migration jobs. Each job has its own lock,
// created lazily on first reference, so unrelated jobs never contend. The
// store mutex guards only the two maps (insert, lookup, delete).
type Store struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*models.MigrationJob
	locks map[uuid.UUID]*sync.Mutex
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{
		jobs:  make(map[uuid.UUID]*models.MigrationJob),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// jobLock returns the per-job lock, creating it on first reference. Only
// Create goes through here; every other path uses jobLockIfExists so probes
// of unknown ids never grow the lock map.
func (s *Store) jobLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// jobLockIfExists returns the job's lock only when the record is present.
// The record can still vanish between this call and acquiring the lock, so
// callers re-check with lookup after locking.
func (s *Store) jobLockIfExists(id uuid.UUID) (*sync.Mutex, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return nil, false
	}
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l, true
}

// lookup fetches the live record. Callers must hold the job's lock.
func (s *Store) lookup(id uuid.UUID) (*models.MigrationJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// CreateParams seeds a new job record.
type CreateParams struct {
	JobID         uuid.UUID
	TotalObjects  int
	SourceType    string
	TargetCatalog string
	TargetSchema  string
	ModelID       string
	DryRun        bool
}

// Create inserts a new job directly into running state with all counters
// zero. Fails only when the id is already present.
func (s *Store) Create(p CreateParams) error {
	lock := s.jobLock(p.JobID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[p.JobID]; ok {
		return ErrJobExists
	}
	s.jobs[p.JobID] = &models.MigrationJob{
		JobID:         p.JobID,
		Status:        models.JobStatusRunning,
		TotalObjects:  p.TotalObjects,
		SourceType:    p.SourceType,
		TargetCatalog: p.TargetCatalog,
		TargetSchema:  p.TargetSchema,
		ModelID:       p.ModelID,
		DryRun:        p.DryRun,
		StartTime:     time.Now().UTC(),
		Logs:          []models.LogEntry{},
		ObjectResults: []models.ObjectResult{},
	}
	return nil
}

type updateParams struct {
	currentObject  *string
	completedDelta int
	failedDelta    int
	skippedDelta   int
}

// UpdateOption mutates selected fields of a job record.
type UpdateOption func(*updateParams)

// WithCurrentObject sets the name of the object being processed; pass the
// empty string to clear it.
func WithCurrentObject(name string) UpdateOption {
	return func(p *updateParams) { p.currentObject = &name }
}

func IncrementCompleted() UpdateOption {
	return func(p *updateParams) { p.completedDelta++ }
}

func IncrementFailed() UpdateOption {
	return func(p *updateParams) { p.failedDelta++ }
}

func IncrementSkipped() UpdateOption {
	return func(p *updateParams) { p.skippedDelta++ }
}

// Update applies the given options under the job's lock, recomputing derived
// progress fields whenever a counter moved. A missing id is a no-op: a writer
// that raced a delete simply loses the update.
func (s *Store) Update(id uuid.UUID, opts ...UpdateOption) {
	params := &updateParams{}
	for _, opt := range opts {
		opt(params)
	}

	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return
	}
	lock.Lock()
	defer lock.Unlock()

	job, ok := s.lookup(id)
	if !ok {
		return
	}
	if params.currentObject != nil {
		job.CurrentObject = *params.currentObject
	}
	if params.completedDelta != 0 || params.failedDelta != 0 || params.skippedDelta != 0 {
		job.CompletedObjects += params.completedDelta
		job.FailedObjects += params.failedDelta
		job.SkippedObjects += params.skippedDelta
		// An in-flight object may finish after cancellation; its counter
		// still lands, but forced terminal progress stays at 100.
		if !models.IsTerminalStatus(job.Status) {
			recomputeProgress(job)
		}
	}
}

// recomputeProgress derives progress percentage and the remaining-time
// estimate from the counters. Skipped objects count as processed so a job
// with empty definitions still shows honest progress. Callers hold the lock.
func recomputeProgress(job *models.MigrationJob) {
	processed := job.CompletedObjects + job.FailedObjects + job.SkippedObjects
	if job.TotalObjects > 0 {
		job.ProgressPercentage = processed * 100 / job.TotalObjects
		// 100 belongs to terminal records only; Complete sets it when the
		// status flips. Without the cap a snapshot taken between the last
		// counter update and Complete would read 100 while still running.
		if job.ProgressPercentage > 99 {
			job.ProgressPercentage = 99
		}
	} else {
		job.ProgressPercentage = 0
	}
	if processed > 0 {
		elapsed := time.Since(job.StartTime).Seconds()
		remaining := job.TotalObjects - processed
		eta := int(elapsed / float64(processed) * float64(remaining))
		job.EstimatedTimeRemaining = &eta
	}
}

// AppendLog pushes a log entry, evicting the oldest once the ring is full.
// Evictions are counted so stream watermarks survive the ring wrapping.
func (s *Store) AppendLog(id uuid.UUID, level, message string) {
	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return
	}
	lock.Lock()
	defer lock.Unlock()

	job, ok := s.lookup(id)
	if !ok {
		return
	}
	job.Logs = append(job.Logs, models.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	})
	if over := len(job.Logs) - maxLogEntries; over > 0 {
		job.Logs = job.Logs[over:]
		job.EvictedLogs += over
	}
}

// AppendResult records the outcome of one processed object.
func (s *Store) AppendResult(id uuid.UUID, result models.ObjectResult) {
	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return
	}
	lock.Lock()
	defer lock.Unlock()

	job, ok := s.lookup(id)
	if !ok {
		return
	}
	job.ObjectResults = append(job.ObjectResults, result)
}

// Complete moves the job into the given terminal status, stamping end time
// exactly once and forcing progress to 100. Calling it on a job that is
// already terminal is a no-op, which keeps terminal states absorbing.
func (s *Store) Complete(id uuid.UUID, status string) {
	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return
	}
	lock.Lock()
	defer lock.Unlock()
	s.completeLocked(id, status)
}

func (s *Store) completeLocked(id uuid.UUID, status string) {
	job, ok := s.lookup(id)
	if !ok || models.IsTerminalStatus(job.Status) {
		return
	}
	now := time.Now().UTC()
	job.Status = status
	job.EndTime = &now
	job.ProgressPercentage = 100
	zero := 0
	job.EstimatedTimeRemaining = &zero
	job.CurrentObject = ""
}

// Status returns the job's current status under its lock.
func (s *Store) Status(id uuid.UUID) (string, error) {
	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return "", ErrJobNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	job, ok := s.lookup(id)
	if !ok {
		return "", ErrJobNotFound
	}
	return job.Status, nil
}

// Snapshot returns a deep copy of the record so observers never share memory
// with the writer.
func (s *Store) Snapshot(id uuid.UUID) (*models.MigrationJob, error) {
	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return nil, ErrJobNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	job, ok := s.lookup(id)
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Cancel moves a running job to cancelled. The background runner notices the
// status at its next object boundary; the object in flight finishes first.
// Returns the current status alongside ErrJobNotRunning when the job has
// already reached a terminal state.
func (s *Store) Cancel(id uuid.UUID) (string, error) {
	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return "", ErrJobNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	job, ok := s.lookup(id)
	if !ok {
		return "", ErrJobNotFound
	}
	if job.Status != models.JobStatusRunning {
		return job.Status, ErrJobNotRunning
	}
	s.completeLocked(id, models.JobStatusCancelled)
	return models.JobStatusCancelled, nil
}

// Delete removes the record and its lock entry regardless of status.
// Streamers mid-poll observe the missing id and emit their not-found frame.
func (s *Store) Delete(id uuid.UUID) error {
	lock, ok := s.jobLockIfExists(id)
	if !ok {
		return ErrJobNotFound
	}
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	delete(s.locks, id)
	return nil
}

// List returns point-in-time copies of every job, most recently started
// first.
func (s *Store) List() []*models.MigrationJob {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	jobs := make([]*models.MigrationJob, 0, len(ids))
	for _, id := range ids {
		if snap, err := s.Snapshot(id); err == nil {
			jobs = append(jobs, snap)
		}
	}
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].StartTime.After(jobs[k].StartTime)
	})
	return jobs
}
