package pipeline

import (
	"fmt"
	"time"
)

// Window is the inclusive date range a parse, detection or scan covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the window of the given number of days ending at now.
func LastDays(now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}

// Validate rejects zero and inverted windows.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidWindow)
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow, w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// Filter is the inbox filter handed to the MessageSource for this window.
func (w Window) Filter() Filter {
	return Filter{
		Box:           InboxBox,
		MinDateMillis: w.Start.UnixMilli(),
		MaxDateMillis: w.End.UnixMilli(),
	}
}
