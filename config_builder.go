package transitlog

import (
	"io"
	"os"
	"time"

	"github.com/hyp3rd/transitlog/internal/constants"
)

// ConfigBuilder provides a fluent API for constructing logger configurations.
// It allows for more readable and chainable configuration setup.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new builder with sensible defaults.
// This is the entry point for the fluent configuration API.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: DefaultConfig(),
	}
}

// WithOutput sets the output destination.
// Example: builder.WithOutput(os.Stderr).
func (b *ConfigBuilder) WithOutput(output io.Writer) *ConfigBuilder {
	b.config.Output = output

	return b
}

// WithConsoleOutput configures the logger to write to the console (stdout).
// This is a convenience method for WithOutput(os.Stdout).
func (b *ConfigBuilder) WithConsoleOutput() *ConfigBuilder {
	b.config.Output = os.Stdout

	return b
}

// WithFileOutput configures the logger to write to a file.
// The file will be created if it doesn't exist, and appended to if it does.
// Example: builder.WithFileOutput("/var/log/my_app.log").
func (b *ConfigBuilder) WithFileOutput(path string) *ConfigBuilder {
	// The actual file sink is created when the logger starts.
	b.config.File.Path = path

	return b
}

// WithName sets the logger name attached to every entry.
// Example: builder.WithName("checkout").
func (b *ConfigBuilder) WithName(name string) *ConfigBuilder {
	b.config.Name = name

	return b
}

// WithLevel sets the logging level.
// Example: builder.WithLevel(transitlog.DebugLevel).
func (b *ConfigBuilder) WithLevel(level Level) *ConfigBuilder {
	b.config.Level = level

	return b
}

// WithDebugLevel is a convenience method for WithLevel(DebugLevel).
func (b *ConfigBuilder) WithDebugLevel() *ConfigBuilder {
	return b.WithLevel(DebugLevel)
}

// WithInfoLevel is a convenience method for WithLevel(InfoLevel).
func (b *ConfigBuilder) WithInfoLevel() *ConfigBuilder {
	return b.WithLevel(InfoLevel)
}

// WithTimeFormat sets the timestamp rendering.
// Example: builder.WithTimeFormat(constants.TimeFormatUnix).
func (b *ConfigBuilder) WithTimeFormat(format constants.TimeFormat) *ConfigBuilder {
	b.config.TimeFormat = format

	return b
}

// WithNoTimestamp disables timestamp output in log entries.
func (b *ConfigBuilder) WithNoTimestamp() *ConfigBuilder {
	b.config.DisableTimestamp = true

	return b
}

// WithJSONFormat enables JSON formatting for log entries.
// Example: builder.WithJSONFormat(true).
func (b *ConfigBuilder) WithJSONFormat(enable bool) *ConfigBuilder {
	b.config.EnableJSON = enable

	return b
}

// WithFormatterName selects a formatter by name from the registry.
// It takes precedence over WithJSONFormat when set.
func (b *ConfigBuilder) WithFormatterName(name string) *ConfigBuilder {
	b.config.FormatterName = name

	return b
}

// WithColors enables or disables color output.
// Example: builder.WithColors(true).
func (b *ConfigBuilder) WithColors(enable bool) *ConfigBuilder {
	b.config.Color.Enable = enable

	return b
}

// WithForceColors forces color output even when not writing to a terminal.
// Example: builder.WithForceColors(true).
func (b *ConfigBuilder) WithForceColors(force bool) *ConfigBuilder {
	b.config.Color.ForceTTY = force

	return b
}

// WithQueueCapacity sets the transit queue capacity in bytes.
// Example: builder.WithQueueCapacity(256 * 1024).
func (b *ConfigBuilder) WithQueueCapacity(capacity int) *ConfigBuilder {
	b.config.QueueCapacity = capacity

	return b
}

// WithOverflowStrategy sets the behaviour when the transit queue is full.
func (b *ConfigBuilder) WithOverflowStrategy(strategy OverflowStrategy) *ConfigBuilder {
	b.config.OverflowStrategy = strategy

	return b
}

// WithDropHandler sets the handler invoked when an entry is dropped on overflow.
func (b *ConfigBuilder) WithDropHandler(handler func(Level, string)) *ConfigBuilder {
	b.config.DropHandler = handler

	return b
}

// WithTransitCapacity sets the initial capacity of the backend staging ring.
// Example: builder.WithTransitCapacity(256).
func (b *ConfigBuilder) WithTransitCapacity(capacity int) *ConfigBuilder {
	b.config.TransitCapacity = capacity

	return b
}

// WithDecayPeriod controls how quickly the staging ring decays back
// toward demand after a burst. Zero disables decay.
func (b *ConfigBuilder) WithDecayPeriod(period time.Duration) *ConfigBuilder {
	b.config.TransitDecayPeriod = period

	return b
}

// WithFlushTimeout sets the deadline Sync applies to its flush.
func (b *ConfigBuilder) WithFlushTimeout(timeout time.Duration) *ConfigBuilder {
	b.config.FlushTimeout = timeout

	return b
}

// WithMetricsInterval enables periodic backend metrics emission.
// Example: builder.WithMetricsInterval(30 * time.Second).
func (b *ConfigBuilder) WithMetricsInterval(interval time.Duration) *ConfigBuilder {
	b.config.MetricsInterval = interval

	return b
}

// WithErrorHandler sets the handler that receives internal backend failures.
func (b *ConfigBuilder) WithErrorHandler(handler func(error)) *ConfigBuilder {
	b.config.ErrorHandler = handler

	return b
}

// WithContextExtractor appends a context extractor used to enrich log fields.
func (b *ConfigBuilder) WithContextExtractor(extractor ContextExtractor) *ConfigBuilder {
	if extractor != nil {
		b.config.ContextExtractors = append(b.config.ContextExtractors, extractor)
	}

	return b
}

// WithContextExtractors appends multiple context extractors.
func (b *ConfigBuilder) WithContextExtractors(extractors ...ContextExtractor) *ConfigBuilder {
	for _, extractor := range extractors {
		b.WithContextExtractor(extractor)
	}

	return b
}

// WithField adds a field to the log entries.
// Example: builder.WithField("version", "1.0.0").
func (b *ConfigBuilder) WithField(key string, value any) *ConfigBuilder {
	b.config.AdditionalFields = append(b.config.AdditionalFields, Field{
		Key:   key,
		Value: value,
	})

	return b
}

// WithFields adds multiple fields to the log entries.
// Example: builder.WithFields([]Field{{Key: "version", Value: "1.0.0"}}).
func (b *ConfigBuilder) WithFields(fields []Field) *ConfigBuilder {
	b.config.AdditionalFields = append(b.config.AdditionalFields, fields...)

	return b
}

// WithFileRotation configures log file rotation.
// Example: builder.WithFileRotation(100*1024*1024, true).
func (b *ConfigBuilder) WithFileRotation(maxSizeBytes int64, compress bool) *ConfigBuilder {
	b.config.File.MaxSizeBytes = maxSizeBytes
	b.config.File.Compress = compress

	return b
}

// WithFileCompression configures compression level for rotated files
// Level values:
// -1 = Default compression (good compromise between speed and compression)
// 0 = No compression
// 1 = Best speed
// 9 = Best compression
// Example: builder.WithFileCompression(1) // Fast compression.
func (b *ConfigBuilder) WithFileCompression(level int) *ConfigBuilder {
	b.config.File.CompressionLevel = level

	return b
}

// WithFileRetention limits how many rotated files are kept.
// Example: builder.WithFileRetention(10) // Keep at most 10 backups.
func (b *ConfigBuilder) WithFileRetention(maxFiles int) *ConfigBuilder {
	b.config.File.MaxBackups = maxFiles

	return b
}

// WithLocalDefaults configures the logger with sensible defaults for local development.
// This enables debug level, colorized output, and text (non-JSON) format.
func (b *ConfigBuilder) WithLocalDefaults() *ConfigBuilder {
	return b.
		WithDebugLevel().
		WithColors(true).
		WithJSONFormat(false).
		WithTimeFormat(constants.TimeFormatDefault)
}

// WithDevelopmentDefaults configures the logger with sensible defaults for development.
// This enables debug level, no colors, and JSON format.
func (b *ConfigBuilder) WithDevelopmentDefaults() *ConfigBuilder {
	return b.
		WithDebugLevel().
		WithColors(false).
		WithJSONFormat(true)
}

// WithProductionDefaults configures the logger with sensible defaults for production.
// This enables info level, no colors, JSON format, and blocking overflow
// so nothing is lost under pressure.
func (b *ConfigBuilder) WithProductionDefaults() *ConfigBuilder {
	return b.
		WithInfoLevel().
		WithColors(false).
		WithJSONFormat(true).
		WithOverflowStrategy(OverflowBlock)
}

// Build creates a Config object from the builder.
func (b *ConfigBuilder) Build() *Config {
	config := b.config

	return &config
}
