package constants

import "time"

type (
	// OutputType represents the destination of formatted log output.
	OutputType string
	// TimeFormat represents the rendering of event timestamps.
	TimeFormat string
)

const (
	// Output types.

	// LogOutputStdout represents the standard output stream.
	LogOutputStdout OutputType = "stdout"
	// LogOutputStderr represents the standard error stream.
	LogOutputStderr OutputType = "stderr"
	// LogOutputFile represents a file output.
	LogOutputFile OutputType = "file"
	// LogOutputDiscard represents an output that drops everything written to it.
	LogOutputDiscard OutputType = "discard"

	// Time formats.

	// TimeFormatUnix represents the Unix timestamp format in seconds.
	TimeFormatUnix TimeFormat = "unix"
	// TimeFormatUnixMs represents the Unix timestamp format in milliseconds.
	TimeFormatUnixMs TimeFormat = "unix_ms"
	// TimeFormatRFC3339 represents the RFC3339 timestamp format.
	TimeFormatRFC3339 TimeFormat = "rfc3339"
	// TimeFormatDefault represents the default timestamp format with
	// nanosecond precision.
	TimeFormatDefault TimeFormat = "default"
)

// IsValid returns true if the given OutputType is a valid output type, and false otherwise.
func (o OutputType) IsValid() bool {
	switch o {
	case LogOutputStdout, LogOutputStderr, LogOutputFile, LogOutputDiscard:
		return true
	default:
		return false
	}
}

// String returns the string representation of the OutputType.
func (o OutputType) String() string {
	return string(o)
}

// IsValid returns true if the given TimeFormat is a valid time format, and false otherwise.
func (t TimeFormat) IsValid() bool {
	switch t {
	case TimeFormatUnix, TimeFormatUnixMs, TimeFormatRFC3339, TimeFormatDefault:
		return true
	default:
		return false
	}
}

// String returns the string representation of the TimeFormat.
func (t TimeFormat) String() string {
	return string(t)
}

// Layout returns the time layout for layout-based formats. The Unix
// formats render as integers and have no layout, so they return "".
func (t TimeFormat) Layout() string {
	switch t {
	case TimeFormatRFC3339:
		return time.RFC3339
	case TimeFormatDefault:
		return "2006-01-02 15:04:05.000000000"
	default:
		return ""
	}
}
