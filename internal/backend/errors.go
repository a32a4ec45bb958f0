package backend

import (
	"github.com/hyp3rd/ewrap"
)

// Common errors for the backend package.
var (
	// ErrCorruptRecord is returned when a queued record fails structural validation.
	ErrCorruptRecord = ewrap.New("corrupt transit record")

	// ErrWorkerStopped is returned when an operation reaches a stopped worker.
	ErrWorkerStopped = ewrap.New("backend worker is stopped")

	// ErrFlushTimeout is returned when a flush operation times out.
	ErrFlushTimeout = ewrap.New("flush timed out")
)
