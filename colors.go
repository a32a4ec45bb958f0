package transitlog

// ANSI escape sequences understood by the text formatter. Exported so
// callers can assemble custom LevelColors tables for ColorConfig.
//
//nolint:revive // the escape values speak for themselves.
const (
	Black   = "\x1b[30m"
	Red     = "\x1b[31m"
	Green   = "\x1b[32m"
	Yellow  = "\x1b[33m"
	Blue    = "\x1b[34m"
	Magenta = "\x1b[35m"
	Cyan    = "\x1b[36m"
	White   = "\x1b[37m"

	BoldBlack   = "\x1b[30;1m"
	BoldRed     = "\x1b[31;1m"
	BoldGreen   = "\x1b[32;1m"
	BoldYellow  = "\x1b[33;1m"
	BoldBlue    = "\x1b[34;1m"
	BoldMagenta = "\x1b[35;1m"
	BoldCyan    = "\x1b[36;1m"
	BoldWhite   = "\x1b[37;1m"

	// Reset returns the terminal to its default attributes.
	Reset = "\x1b[0m"
)

// ColorConfig controls colored console output. Colors apply only to the
// text formatter, and only when the sink reports a capable terminal or
// ForceTTY overrides the detection.
type ColorConfig struct {
	// Enable turns colored output on.
	Enable bool
	// ForceTTY colors the output even when the writer is not a terminal.
	ForceTTY bool
	// LevelColors overrides the escape sequence emitted per level. A nil
	// map selects DefaultLevelColors.
	LevelColors map[Level]string
}

// DefaultColorConfig enables colors with the built-in palette.
func DefaultColorConfig() ColorConfig {
	return ColorConfig{
		Enable:      true,
		ForceTTY:    true,
		LevelColors: DefaultLevelColors(),
	}
}

// DefaultLevelColors returns the palette used when ColorConfig.LevelColors
// is nil.
func DefaultLevelColors() map[Level]string {
	return map[Level]string{
		TraceLevel: Magenta,
		DebugLevel: Blue,
		InfoLevel:  Green,
		WarnLevel:  Yellow,
		ErrorLevel: Red,
		FatalLevel: BoldRed,
	}
}

// levelColorCodes converts the configured palette to the wire-level keys
// the backend formatter works with. Missing tables fall back to the
// defaults.
func (c ColorConfig) levelColorCodes() map[uint8]string {
	colors := c.LevelColors
	if colors == nil {
		colors = DefaultLevelColors()
	}

	codes := make(map[uint8]string, len(colors))
	for level, code := range colors {
		codes[uint8(level)] = code
	}

	return codes
}
