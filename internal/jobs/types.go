package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/smsledger/internal/pipeline"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeScan represents a fetch-parse-store scan over a message window.
	JobTypeScan JobType = "scan"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ScanJob represents a scan of the message source over one window.
// A zero window means the last WindowDays days at the time the job runs.
type ScanJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	WindowStart time.Time `json:"window_start,omitzero"`
	WindowEnd   time.Time `json:"window_end,omitzero"`
	WindowDays  int       `json:"window_days,omitempty"`

	// ScanRunID is the id of the last scan run this job started.
	ScanRunID string               `json:"scan_run_id,omitempty"`
	Result    *pipeline.ScanResult `json:"result,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Type returns the job type.
func (j *ScanJob) Type() JobType { return JobTypeScan }

// Window resolves the job's window against now.
func (j *ScanJob) Window(now time.Time) pipeline.Window {
	if j.WindowStart.IsZero() && j.WindowEnd.IsZero() {
		return pipeline.LastDays(now, j.WindowDays)
	}
	return pipeline.Window{Start: j.WindowStart, End: j.WindowEnd}
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishScan publishes a scan job.
	PublishScan(ctx context.Context, job *ScanJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error is retried unless it is
// marked with Permanent.
type JobHandler func(ctx context.Context, job *ScanJob) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ScanJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ScanJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ScanJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}

// ErrJobNotFound is returned by JobStore lookups of an unknown id.
var ErrJobNotFound = errors.New("job not found")

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or any error it wraps, was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
