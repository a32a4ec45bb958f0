// Package constants provides fixed values shared across the transit
// logging system. These constants define environment names, context
// keys, wire headers, and output settings so that the frontend, the
// backend worker, and the middleware packages agree on them.
package constants

import "time"

const (
	// NonProductionEnvironment is the environment name for non-production environments.
	NonProductionEnvironment = "development"
	// DefaultTimeout is the default timeout for flush and shutdown operations.
	DefaultTimeout = 5 * time.Second
)

const (
	// TraceHeader is the default HTTP header for trace identifiers.
	TraceHeader = "X-Trace-ID"
	// RequestHeader is the default HTTP header for request identifiers.
	RequestHeader = "X-Request-ID"
)
