package domain

import (
	"errors"
	"fmt"
)

// ErrNoActiveSession is returned by save when no test record exists.
var ErrNoActiveSession = errors.New("axleweigh: no active test session")

// ErrSchedulerClosed is returned for commands submitted after shutdown.
var ErrSchedulerClosed = errors.New("axleweigh: scheduler closed")

// ExportError wraps an I/O failure while writing a report or CSV export.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
