package transit

// Numeric severity levels carried in encoded records. The frontend Level
// type shares these values, so records decode without translation.
const (
	LevelTrace uint8 = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// Canonical level names indexed by numeric value.
//
//nolint:gochecknoglobals // static lookup table.
var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// LevelString returns the canonical name of a numeric level, or "UNKNOWN"
// for values outside the known range.
func LevelString(level uint8) string {
	if int(level) < len(levelNames) {
		return levelNames[level]
	}

	return "UNKNOWN"
}
