package pipeline

import "errors"

// ErrPermissionDenied is returned when the permission gate refuses read
// access. Nothing is fetched in that case.
var ErrPermissionDenied = errors.New("read access to messages denied")

// ErrInvalidWindow is returned for a window whose end precedes its start.
var ErrInvalidWindow = errors.New("invalid scan window")

// SourceUnavailableError reports that the message source rejected a batch
// fetch. The caller may retry the whole call.
type SourceUnavailableError struct {
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return "message source unavailable: " + e.Err.Error()
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
