package transitlog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog/internal/constants"
	"github.com/hyp3rd/transitlog/internal/utils"
)

const (
	// DefaultLevel is the default logging level.
	DefaultLevel = InfoLevel
	// DefaultTimeFormat is the default timestamp rendering.
	DefaultTimeFormat = constants.TimeFormatRFC3339
	// DefaultQueueCapacity is the default transit queue capacity in bytes.
	DefaultQueueCapacity = 128 * 1024
	// DefaultTransitCapacity is the default initial capacity of the
	// backend staging ring, in events.
	DefaultTransitCapacity = 128
	// DefaultTransitDecayPeriod is how long staging occupancy must stay
	// at or below half capacity before the ring decays toward demand.
	DefaultTransitDecayPeriod = 10 * time.Second
	// DefaultFormatPoolCapacity is the default format buffer pool size.
	DefaultFormatPoolCapacity = 2
	// DefaultPollInterval is the default backend park interval between
	// polls of an empty queue.
	DefaultPollInterval = 500 * time.Microsecond
	// DefaultFlushTimeout is the deadline Sync applies to its flush.
	DefaultFlushTimeout = constants.DefaultTimeout
	// LogFilePermissions are the default file permissions for log files.
	LogFilePermissions = 0o666
	// DefaultMaxFileSizeMB is the default maximum size in MB for log files before rotation.
	DefaultMaxFileSizeMB = 100
	// DefaultCompression determines if log files are compressed by default.
	DefaultCompression = true
)

// OverflowStrategy defines how the producer side behaves when the
// transit queue has no room for a new entry.
type OverflowStrategy uint8

const (
	// OverflowDropNewest drops the incoming log entry when the queue is full.
	OverflowDropNewest OverflowStrategy = iota
	// OverflowBlock blocks the caller until the backend frees space.
	OverflowBlock
)

// IsValid reports whether the strategy value is recognised.
func (s OverflowStrategy) IsValid() bool {
	switch s {
	case OverflowDropNewest, OverflowBlock:
		return true
	default:
		return false
	}
}

// FileConfig holds configuration specific to file-based logging.
type FileConfig struct {
	// Path is the path to the log file
	Path string
	// MaxSizeBytes is the max size in bytes before rotation (0 = no rotation).
	MaxSizeBytes int64
	// Compress determines if rotated files should be compressed.
	Compress bool
	// MaxBackups is the maximum number of backup files to retain (0 = no limit).
	MaxBackups int
	// FileMode sets the permissions for new log files.
	FileMode os.FileMode
	// CompressionLevel sets the gzip compression level (-1=default, 1=best speed, 9=best compression).
	CompressionLevel int
}

// ContextExtractor transforms a context into structured fields.
type ContextExtractor func(ctx context.Context) []Field

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum level to log.
	Level Level
	// Name is the logger name attached to every entry. Optional.
	Name string
	// Output is where the logs will be written.
	Output io.Writer
	// TimeFormat specifies the rendering of timestamps.
	TimeFormat constants.TimeFormat
	// DisableTimestamp disables timestamp in log entries.
	DisableTimestamp bool
	// EnableJSON enables JSON output format.
	EnableJSON bool
	// FormatterName selects a registered formatter by name. When set it
	// takes precedence over EnableJSON.
	FormatterName string
	// QueueCapacity sets the transit queue capacity in bytes, rounded
	// up to a power of two. An entry can never exceed this size.
	QueueCapacity int
	// OverflowStrategy controls producer behavior when the queue is full.
	OverflowStrategy OverflowStrategy
	// DropHandler is invoked with the level and message of every entry
	// dropped on overflow. Optional.
	DropHandler func(Level, string)
	// TransitCapacity sets the initial capacity of the backend staging
	// ring, rounded up to a power of two.
	TransitCapacity int
	// TransitDecayPeriod controls how quickly the staging ring decays
	// back toward demand after a burst. Zero disables decay.
	TransitDecayPeriod time.Duration
	// FormatPoolCapacity sets the initial format buffer pool size.
	FormatPoolCapacity int
	// PollInterval sets the backend park interval between polls.
	PollInterval time.Duration
	// FlushTimeout is the deadline Sync applies to its flush.
	FlushTimeout time.Duration
	// MetricsInterval is how often backend metrics snapshots are
	// emitted to the registered handlers. Zero disables emission.
	MetricsInterval time.Duration
	// ErrorHandler receives internal backend failures. A logging
	// library must not log its own errors; this hook is the outlet.
	ErrorHandler func(error)
	// ExitFunc is called by Fatal after flushing. Defaults to os.Exit.
	ExitFunc func(int)
	// AdditionalFields adds these fields to all log entries.
	AdditionalFields []Field
	// Color configuration.
	Color ColorConfig
	// File configures file output settings when using file output.
	File FileConfig
	// FilePath is a convenience field for simple file output configuration.
	FilePath string
	// FileMaxSize is a convenience field for simple rotation configuration (in bytes).
	FileMaxSize int64
	// FileCompress is a convenience field for simple compression configuration.
	FileCompress bool
	// ContextExtractors apply additional enrichment from context values.
	ContextExtractors []ContextExtractor
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		// Set a default output destination (os.Stdout)
		Output:             os.Stdout,
		Level:              DefaultLevel,
		TimeFormat:         DefaultTimeFormat,
		EnableJSON:         false,
		QueueCapacity:      DefaultQueueCapacity,
		OverflowStrategy:   OverflowDropNewest,
		TransitCapacity:    DefaultTransitCapacity,
		TransitDecayPeriod: DefaultTransitDecayPeriod,
		FormatPoolCapacity: DefaultFormatPoolCapacity,
		PollInterval:       DefaultPollInterval,
		FlushTimeout:       DefaultFlushTimeout,
		AdditionalFields:   make([]Field, 0),
		Color:              DefaultColorConfig(),
		File: FileConfig{
			MaxSizeBytes:     DefaultMaxFileSizeMB * 1024 * 1024,
			Compress:         DefaultCompression,
			FileMode:         LogFilePermissions,
			CompressionLevel: -1, // Default compression level
		},
		FilePath:          "",
		FileMaxSize:       0,
		FileCompress:      false,
		ContextExtractors: nil,
	}
}

// ProductionConfig returns a configuration optimized for production environments.
// It enables JSON output, disables colors, and sets reasonable defaults for production use.
func ProductionConfig() Config {
	config := DefaultConfig()
	config.EnableJSON = true
	config.Color.Enable = false

	return config
}

// DevelopmentConfig returns a configuration optimized for development environments.
// It enables colors, text output, and sets a lower log level for more verbose output.
func DevelopmentConfig() Config {
	config := DefaultConfig()
	config.EnableJSON = false
	config.Color.Enable = true
	config.Level = DebugLevel
	config.TimeFormat = constants.TimeFormatDefault

	return config
}

// SetOutput sets the output destination for the logger. It accepts "stdout", "stderr",
// "discard", or a file path as input. If a file path is provided, it will create the
// file if it doesn't exist and open it in append mode. The function returns the
// io.Writer for the selected output and any error that occurred.
func SetOutput(output string) (io.Writer, error) {
	// Normalize the input to lowercase for case-insensitive comparison
	switch strings.ToLower(output) {
	case constants.LogOutputStdout.String():
		return os.Stdout, nil
	case constants.LogOutputStderr.String():
		return os.Stderr, nil
	case constants.LogOutputDiscard.String():
		return io.Discard, nil
	default:
		path := filepath.Clean(output)

		if path == "" {
			return nil, ewrap.New("output path cannot be empty")
		}

		if !filepath.IsAbs(path) {
			securePath, err := utils.SecurePath(path)
			if err != nil {
				return nil, ewrap.Wrap(err, "invalid output path")
			}

			path = securePath
		}

		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
		if err != nil {
			return nil, ewrap.Wrapf(err, "failed to open log file %s", path)
		}

		return file, nil
	}
}
