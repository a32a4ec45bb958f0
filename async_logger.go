package transitlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/trickstertwo/xclock"

	"github.com/hyp3rd/transitlog/internal/backend"
	"github.com/hyp3rd/transitlog/internal/output"
	"github.com/hyp3rd/transitlog/internal/spsc"
	"github.com/hyp3rd/transitlog/internal/transit"
)

// Errors returned by logger lifecycle operations.
var (
	// ErrLoggerClosed is returned when an operation reaches a closed logger.
	ErrLoggerClosed = ewrap.New("logger is closed")
	// ErrFlushTimeout is returned when a flush misses its deadline.
	ErrFlushTimeout = ewrap.New("flush timed out")
)

// AsyncLogger is the Logger implementation backed by the transit
// pipeline: callers encode entries into a bounded SPSC byte queue and a
// single backend worker decodes, formats, and writes them. Derived
// loggers returned by the With methods share the pipeline and carry
// their bound fields pre-rendered, so the hot path only encodes.
type AsyncLogger struct {
	core  *loggerCore
	bound []transit.Field
}

// Compile-time interface check.
var _ Logger = (*AsyncLogger)(nil)

// loggerCore is the shared engine behind a family of derived loggers.
type loggerCore struct {
	config Config
	level  atomic.Int32

	queue  *spsc.BoundedQueue
	worker *backend.Worker
	sink   output.Sink

	// producerMu serializes encode+commit so any number of goroutines
	// present as the queue's single producer. closed is guarded by it.
	producerMu sync.Mutex
	closed     bool

	enqueued atomic.Uint64
	dropped  atomic.Uint64
	flushes  atomic.Uint64
}

// New creates an AsyncLogger from the given configuration and starts
// its backend worker. Callers own the returned logger and must Close it
// to release the output.
func New(cfg Config) (*AsyncLogger, error) {
	applyConfigDefaults(&cfg)

	if !cfg.OverflowStrategy.IsValid() {
		return nil, ewrap.New("invalid overflow strategy")
	}

	sink, err := buildSink(&cfg)
	if err != nil {
		return nil, ewrap.Wrap(err, "building log sink")
	}

	formatter, err := buildFormatter(&cfg, sink)
	if err != nil {
		return nil, ewrap.Wrap(err, "building formatter")
	}

	core := &loggerCore{
		config: cfg,
		queue:  spsc.NewBoundedQueue(cfg.QueueCapacity, 0),
		sink:   sink,
	}
	core.level.Store(int32(cfg.Level))

	workerCfg := backend.Config{
		Queue:              core.queue,
		Sink:               sink,
		Formatter:          formatter,
		TransitCapacity:    cfg.TransitCapacity,
		TransitDecayPeriod: cfg.TransitDecayPeriod,
		FormatPoolCapacity: cfg.FormatPoolCapacity,
		PollInterval:       cfg.PollInterval,
		MetricsInterval:    cfg.MetricsInterval,
		ErrorHandler:       cfg.ErrorHandler,
	}

	if cfg.MetricsInterval > 0 {
		workerCfg.MetricsReporter = core.reportMetrics
	}

	worker, err := backend.NewWorker(workerCfg)
	if err != nil {
		return nil, ewrap.Wrap(err, "building backend worker")
	}

	core.worker = worker

	logger := &AsyncLogger{
		core:  core,
		bound: appendRendered(nil, cfg.AdditionalFields),
	}

	worker.Start()

	return logger, nil
}

func applyConfigDefaults(cfg *Config) {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}

	if cfg.TransitCapacity <= 0 {
		cfg.TransitCapacity = DefaultTransitCapacity
	}

	if cfg.FormatPoolCapacity <= 0 {
		cfg.FormatPoolCapacity = DefaultFormatPoolCapacity
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = DefaultFlushTimeout
	}

	if !cfg.TimeFormat.IsValid() {
		cfg.TimeFormat = DefaultTimeFormat
	}
}

// buildSink resolves the configured output into a sink. File settings
// win over the Output writer; a nil Output falls back to stdout.
func buildSink(cfg *Config) (output.Sink, error) {
	fileCfg := cfg.File

	if cfg.FilePath != "" {
		fileCfg.Path = cfg.FilePath

		if cfg.FileMaxSize > 0 {
			fileCfg.MaxSizeBytes = cfg.FileMaxSize
		}

		if cfg.FileCompress {
			fileCfg.Compress = true
		}
	}

	if fileCfg.Path != "" {
		fileSink, err := output.NewFileSink(output.FileSinkConfig{
			Path:       fileCfg.Path,
			MaxSize:    fileCfg.MaxSizeBytes,
			MaxBackups: fileCfg.MaxBackups,
			Compress:   fileCfg.Compress,
			FileMode:   fileCfg.FileMode,
			CompressionConfig: &output.CompressionConfig{
				Algorithm:      output.GzipCompression,
				Level:          fileCfg.CompressionLevel,
				DeleteOriginal: true,
				Extension:      ".gz",
			},
			ErrorHandler: cfg.ErrorHandler,
		})
		if err != nil {
			return nil, err
		}

		return fileSink, nil
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	return output.NewConsoleSink(writer, consoleColorMode(cfg.Color)), nil
}

func consoleColorMode(color ColorConfig) output.ColorMode {
	switch {
	case !color.Enable:
		return output.ColorModeNever
	case color.ForceTTY:
		return output.ColorModeAlways
	default:
		return output.ColorModeAuto
	}
}

// buildFormatter resolves the formatter name and constructs it with the
// color decision already made: colors apply only to the text formatter,
// and only when the sink can show them.
func buildFormatter(cfg *Config, sink output.Sink) (backend.Formatter, error) {
	name := cfg.FormatterName
	if name == "" {
		if cfg.EnableJSON {
			name = backend.JSONFormatterName
		} else {
			name = backend.TextFormatterName
		}
	}

	factory, err := backend.DefaultFormatterRegistry().Get(name)
	if err != nil {
		return nil, err
	}

	enableColors := cfg.Color.Enable && name == backend.TextFormatterName
	if enableColors {
		if console, ok := sink.(*output.ConsoleSink); ok {
			enableColors = console.SupportsColor()
		} else {
			enableColors = false
		}
	}

	return factory(backend.FormatterOptions{
		TimeFormat:       cfg.TimeFormat,
		DisableTimestamp: cfg.DisableTimestamp,
		EnableColors:     enableColors,
		LevelColors:      cfg.Color.levelColorCodes(),
	}), nil
}

// Trace logs a message at the Trace level.
func (l *AsyncLogger) Trace(msg string) { l.log(TraceLevel, msg) }

// Debug logs a message at the Debug level.
func (l *AsyncLogger) Debug(msg string) { l.log(DebugLevel, msg) }

// Info logs a message at the Info level.
func (l *AsyncLogger) Info(msg string) { l.log(InfoLevel, msg) }

// Warn logs a message at the Warn level.
func (l *AsyncLogger) Warn(msg string) { l.log(WarnLevel, msg) }

// Error logs a message at the Error level.
func (l *AsyncLogger) Error(msg string) { l.log(ErrorLevel, msg) }

// Fatal logs a message at the Fatal level, flushes, and exits.
func (l *AsyncLogger) Fatal(msg string) {
	l.log(FatalLevel, msg)
	l.core.exit()
}

// Tracef logs a formatted message at the Trace level.
func (l *AsyncLogger) Tracef(format string, args ...any) { l.logf(TraceLevel, format, args...) }

// Debugf logs a formatted message at the Debug level.
func (l *AsyncLogger) Debugf(format string, args ...any) { l.logf(DebugLevel, format, args...) }

// Infof logs a formatted message at the Info level.
func (l *AsyncLogger) Infof(format string, args ...any) { l.logf(InfoLevel, format, args...) }

// Warnf logs a formatted message at the Warn level.
func (l *AsyncLogger) Warnf(format string, args ...any) { l.logf(WarnLevel, format, args...) }

// Errorf logs a formatted message at the Error level.
func (l *AsyncLogger) Errorf(format string, args ...any) { l.logf(ErrorLevel, format, args...) }

// Fatalf logs a formatted message at the Fatal level, flushes, and exits.
func (l *AsyncLogger) Fatalf(format string, args ...any) {
	l.logf(FatalLevel, format, args...)
	l.core.exit()
}

func (l *AsyncLogger) log(level Level, msg string) {
	if !l.core.enabled(level) {
		return
	}

	l.core.enqueue(xclock.Now().UnixNano(), level, msg, l.bound)
}

func (l *AsyncLogger) logf(level Level, format string, args ...any) {
	if !l.core.enabled(level) {
		return
	}

	l.core.enqueue(xclock.Now().UnixNano(), level, fmt.Sprintf(format, args...), l.bound)
}

// WithContext returns a logger enriched with fields extracted from the
// context: the built-in context keys first, then the globally
// registered extractors, then the ones from the configuration.
func (l *AsyncLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	extractors := make([]ContextExtractor, 0, 2+len(l.core.config.ContextExtractors))
	extractors = append(extractors, DefaultContextExtractor)
	extractors = append(extractors, GlobalContextExtractors()...)
	extractors = append(extractors, l.core.config.ContextExtractors...)

	fields := ApplyContextExtractors(ctx, extractors...)
	if len(fields) == 0 {
		return l
	}

	return l.WithFields(fields...)
}

// WithFields returns a logger with the given fields bound to every
// entry it logs. Values are rendered once, here, not per entry.
func (l *AsyncLogger) WithFields(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}

	bound := make([]transit.Field, 0, len(l.bound)+len(fields))
	bound = append(bound, l.bound...)
	bound = appendRendered(bound, fields)

	return &AsyncLogger{core: l.core, bound: bound}
}

// WithField returns a logger with a single additional bound field.
func (l *AsyncLogger) WithField(key string, value any) Logger {
	return l.WithFields(Field{Key: key, Value: value})
}

// WithError returns a logger with the error bound under the "error"
// key. A nil error returns the logger unchanged.
func (l *AsyncLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}

	return l.WithFields(Field{Key: "error", Value: err})
}

// GetLevel returns the current logging level.
func (l *AsyncLogger) GetLevel() Level {
	return Level(l.core.level.Load())
}

// SetLevel sets the logging level.
func (l *AsyncLogger) SetLevel(level Level) {
	if !level.IsValid() {
		return
	}

	l.core.level.Store(int32(level))
}

// Flush blocks until everything logged before the call has been
// written, honoring the context deadline when one is set and the
// configured FlushTimeout otherwise.
func (l *AsyncLogger) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ewrap.Wrap(err, "flush aborted")
	}

	timeout := l.core.config.FlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	err := l.core.worker.Flush(timeout)

	switch {
	case err == nil:
		l.core.flushes.Add(1)

		return nil
	case errors.Is(err, backend.ErrFlushTimeout):
		return ErrFlushTimeout
	case errors.Is(err, backend.ErrWorkerStopped):
		return ErrLoggerClosed
	default:
		return err
	}
}

// Sync ensures all logs are written, using the configured FlushTimeout.
func (l *AsyncLogger) Sync() error {
	ctx, cancel := context.WithTimeout(context.Background(), l.core.config.FlushTimeout)
	defer cancel()

	return l.Flush(ctx)
}

// RequestBufferShrink asks the backend to return its staging ring to
// the initial capacity once it drains. Advisory and non-blocking.
func (l *AsyncLogger) RequestBufferShrink() {
	l.core.worker.RequestShrink()
}

// Close flushes everything still buffered, stops the backend worker,
// and closes the sink. Safe to call more than once.
func (l *AsyncLogger) Close() error {
	return l.core.close()
}

// GetConfig returns a copy of the current logger configuration.
func (l *AsyncLogger) GetConfig() *Config {
	cfg := l.core.config

	return &cfg
}

// Metrics returns a snapshot of the pipeline's counters.
func (l *AsyncLogger) Metrics() BackendMetrics {
	return l.core.snapshotMetrics()
}

func (c *loggerCore) enabled(level Level) bool {
	return level.IsValid() && level >= Level(c.level.Load())
}

// enqueue renders the entry into the queue under the producer mutex.
// The timestamp is captured by the caller so queueing pressure never
// skews it.
func (c *loggerCore) enqueue(nanos int64, level Level, msg string, bound []transit.Field) {
	c.producerMu.Lock()
	defer c.producerMu.Unlock()

	if c.closed {
		return
	}

	size := backend.EncodedSize(c.config.Name, msg, bound)

	// An entry larger than the whole queue can never be written.
	if size > c.queue.Capacity() {
		c.drop(level, msg)

		return
	}

	region := c.queue.PrepareWrite(size)

	if region == nil && c.config.OverflowStrategy == OverflowBlock {
		region = c.awaitSpace(size)
	}

	if region == nil {
		c.drop(level, msg)

		return
	}

	written := backend.EncodeEvent(region, nanos, uint8(level), c.config.Name, msg, bound)
	c.queue.FinishAndCommitWrite(written)
	c.enqueued.Add(1)
}

// awaitSpace blocks until the backend frees enough queue space. The
// worker keeps draining while we hold the producer mutex, and Close
// also queues on that mutex, so the wait always terminates.
func (c *loggerCore) awaitSpace(size int) []byte {
	for {
		time.Sleep(c.config.PollInterval)

		if region := c.queue.PrepareWrite(size); region != nil {
			return region
		}
	}
}

func (c *loggerCore) drop(level Level, msg string) {
	c.dropped.Add(1)

	if c.config.DropHandler != nil {
		c.config.DropHandler(level, msg)
	}
}

func (c *loggerCore) close() error {
	c.producerMu.Lock()

	if c.closed {
		c.producerMu.Unlock()

		return nil
	}

	c.closed = true
	c.producerMu.Unlock()

	// Stop drains everything already queued before returning.
	c.worker.Stop()

	if err := c.sink.Close(); err != nil {
		return ewrap.Wrap(err, "closing sink")
	}

	return nil
}

// exit flushes and terminates the process. Fatal paths come through
// here so tests can intercept the exit.
func (c *loggerCore) exit() {
	//nolint:errcheck // the process is going down; the flush is best effort.
	_ = c.worker.Flush(c.config.FlushTimeout)

	exitFunc := c.config.ExitFunc
	if exitFunc == nil {
		exitFunc = os.Exit
	}

	exitFunc(1)
}

// reportMetrics runs on the worker goroutine every MetricsInterval.
func (c *loggerCore) reportMetrics(workerMetrics backend.Metrics) {
	EmitBackendMetrics(context.Background(), c.buildMetrics(workerMetrics))
}

func (c *loggerCore) snapshotMetrics() BackendMetrics {
	return c.buildMetrics(c.worker.Metrics())
}

func (c *loggerCore) buildMetrics(workerMetrics backend.Metrics) BackendMetrics {
	return BackendMetrics{
		Enqueued:     c.enqueued.Load(),
		Dropped:      c.dropped.Load(),
		Flushes:      c.flushes.Load(),
		Decoded:      workerMetrics.Decoded,
		Written:      workerMetrics.Written,
		Corrupted:    workerMetrics.Corrupted,
		FormatErrors: workerMetrics.FormatErrors,
		WriteErrors:  workerMetrics.WriteErrors,
		RingSize:     workerMetrics.RingSize,
		RingCapacity: workerMetrics.RingCapacity,
		PoolCapacity: workerMetrics.PoolCapacity,
	}
}

// appendRendered renders fields to their wire form and appends them.
func appendRendered(dst []transit.Field, fields []Field) []transit.Field {
	for _, field := range fields {
		dst = append(dst, transit.Field{Key: field.Key, Value: renderValue(field.Value)})
	}

	return dst
}
