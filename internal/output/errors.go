package output

import (
	"github.com/hyp3rd/ewrap"
)

// Common errors for the output package.
var (
	// ErrSinkClosed is returned when attempting to write to a closed sink.
	ErrSinkClosed = ewrap.New("sink is closed")

	// ErrNoSinks is returned when a MultiSink is built without any valid sink.
	ErrNoSinks = ewrap.New("at least one sink is required")

	// ErrInvalidCompression is returned when an invalid compression algorithm is selected.
	ErrInvalidCompression = ewrap.New("invalid compression algorithm")

	// ErrCompressionFailed is returned when a compression operation fails.
	ErrCompressionFailed = ewrap.New("compression failed")
)
