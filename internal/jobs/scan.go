package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/pipeline"
)

// Scanner runs one scan; *pipeline.Pipeline implements it.
type Scanner interface {
	Scan(ctx context.Context, window pipeline.Window, store pipeline.Store) (*pipeline.ScanResult, error)
}

var _ Scanner = (*pipeline.Pipeline)(nil)

// NewScanHandler returns a JobHandler that runs job's window through scanner
// into store. Denied access and invalid windows are not retried.
func NewScanHandler(scanner Scanner, store pipeline.Store, now func() time.Time) JobHandler {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, job *ScanJob) error {
		window := job.Window(now())
		ctx = logger.WithContext(ctx, logger.WithFields(logger.FromContext(ctx), map[string]any{
			"job_id": job.JobID,
		}))

		result, err := scanner.Scan(ctx, window, store)
		if err != nil {
			if errors.Is(err, pipeline.ErrPermissionDenied) || errors.Is(err, pipeline.ErrInvalidWindow) {
				return Permanent(err)
			}
			return err
		}
		job.ScanRunID = result.RunID
		job.Result = result
		return nil
	}
}
