package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/pipeline"
)

// StartScanRun inserts run into scan_runs with its RUNNING status. DML is used
// instead of streaming so the row can be updated right away.
func (r *Repository) StartScanRun(ctx context.Context, run *domain.ScanRun) error {
	err := r.runDML(ctx, fmt.Sprintf(`
		INSERT %s (
			scan_run_id,
			window_start,
			window_end,
			started_ts,
			status
		)
		VALUES (
			@scan_run_id,
			@window_start,
			@window_end,
			@started_ts,
			@status
		)
	`, r.fq(scanRunsTable)), []bigquery.QueryParameter{
		{Name: "scan_run_id", Value: run.ID},
		{Name: "window_start", Value: run.WindowStart},
		{Name: "window_end", Value: run.WindowEnd},
		{Name: "started_ts", Value: run.StartedAt},
		{Name: "status", Value: string(run.Status)},
	})
	if err != nil {
		return fmt.Errorf("StartScanRun: %w", err)
	}
	return nil
}

// MarkScanRunFailed sets status=FAILED, finished_ts and error_message.
func (r *Repository) MarkScanRunFailed(ctx context.Context, runID string, scanErr error) {
	err := r.runDML(ctx, fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE scan_run_id = @scan_run_id
	`, r.fq(scanRunsTable)), []bigquery.QueryParameter{
		{Name: "status", Value: string(domain.ScanStatusFailed)},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: pipeline.TruncateError(scanErr)},
		{Name: "scan_run_id", Value: runID},
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("scan_run_id", runID).
			Msg("MarkScanRunFailed: update failed")
	}
}

// MarkScanRunSucceeded sets status=SUCCESS, finished_ts and the run counters,
// and clears error_message.
func (r *Repository) MarkScanRunSucceeded(ctx context.Context, runID string, stats domain.ScanStats) error {
	err := r.runDML(ctx, fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    messages = @messages,
		    transactions = @transactions,
		    accounts = @accounts,
		    skipped = @skipped
		WHERE scan_run_id = @scan_run_id
	`, r.fq(scanRunsTable)), []bigquery.QueryParameter{
		{Name: "status", Value: string(domain.ScanStatusSuccess)},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "messages", Value: stats.Messages},
		{Name: "transactions", Value: stats.Transactions},
		{Name: "accounts", Value: stats.Accounts},
		{Name: "skipped", Value: stats.Skipped},
		{Name: "scan_run_id", Value: runID},
	})
	if err != nil {
		return fmt.Errorf("MarkScanRunSucceeded: %w", err)
	}
	return nil
}
