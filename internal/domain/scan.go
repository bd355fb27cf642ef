package domain

import "time"

// ScanStatus is the lifecycle state of a ScanRun.
type ScanStatus string

const (
	ScanStatusRunning ScanStatus = "RUNNING"
	ScanStatusSuccess ScanStatus = "SUCCESS"
	ScanStatusFailed  ScanStatus = "FAILED"
)

// ScanRun records one fetch-parse-store pass over a message window.
type ScanRun struct {
	ID           string     `json:"id"`
	WindowStart  time.Time  `json:"window_start"`
	WindowEnd    time.Time  `json:"window_end"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       ScanStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Stats        ScanStats  `json:"stats"`
}

// ScanStats counts what a scan run produced.
type ScanStats struct {
	Messages     int `json:"messages"`
	Transactions int `json:"transactions"`
	Accounts     int `json:"accounts"`
	Skipped      int `json:"skipped"`
}
