package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

type ScanRunRow struct {
	ScanRunID    string                 `bigquery:"scan_run_id"` // REQUIRED
	WindowStart  time.Time              `bigquery:"window_start"`
	WindowEnd    time.Time              `bigquery:"window_end"`
	StartedTS    time.Time              `bigquery:"started_ts"`
	FinishedTS   bigquery.NullTimestamp `bigquery:"finished_ts"`
	Status       string                 `bigquery:"status"` // RUNNING | SUCCESS | FAILED
	ErrorMessage bigquery.NullString    `bigquery:"error_message"`

	Messages     bigquery.NullInt64 `bigquery:"messages"`
	Transactions bigquery.NullInt64 `bigquery:"transactions"`
	Accounts     bigquery.NullInt64 `bigquery:"accounts"`
	Skipped      bigquery.NullInt64 `bigquery:"skipped"`
}
