package transitlog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickstertwo/xclock"

	"github.com/hyp3rd/transitlog/internal/constants"
)

// gatedWriter blocks every Write until released, pinning the backend
// worker so tests can fill the transit queue deterministically.
type gatedWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	release chan struct{}
	once    sync.Once
}

func newGatedWriter() *gatedWriter {
	return &gatedWriter{release: make(chan struct{})}
}

func (w *gatedWriter) Write(p []byte) (int, error) {
	<-w.release

	w.mu.Lock()
	defer w.mu.Unlock()

	return w.buf.Write(p)
}

func (w *gatedWriter) open() {
	w.once.Do(func() { close(w.release) })
}

func (w *gatedWriter) contents() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.buf.String()
}

func newTestConfig(out *bytes.Buffer) Config {
	cfg := DefaultConfig()
	cfg.Output = out
	cfg.DisableTimestamp = true
	cfg.Color.Enable = false

	return cfg
}

func newTestLogger(t *testing.T, cfg Config) *AsyncLogger {
	t.Helper()

	logger, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })

	return logger
}

func TestNewValidation(t *testing.T) {
	t.Run("invalid overflow strategy", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OverflowStrategy = OverflowStrategy(42)

		logger, err := New(cfg)
		require.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "overflow strategy")
	})

	t.Run("unknown formatter", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FormatterName = "does-not-exist"

		logger, err := New(cfg)
		require.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "not registered")
	})
}

func TestNewAppliesDefaults(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, Config{Output: &buf})

	cfg := logger.GetConfig()
	assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, DefaultTransitCapacity, cfg.TransitCapacity)
	assert.Equal(t, DefaultFormatPoolCapacity, cfg.FormatPoolCapacity)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultFlushTimeout, cfg.FlushTimeout)
	assert.Equal(t, DefaultTimeFormat, cfg.TimeFormat)
}

func TestAsyncLoggerWritesEntries(t *testing.T) {
	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.Name = "api"
	logger := newTestLogger(t, cfg)

	logger.Info("service started")
	logger.Warnf("slow response: %dms", 150)
	require.NoError(t, logger.Flush(context.Background()))

	want := "[ INFO] [api] service started\n" +
		"[ WARN] [api] slow response: 150ms\n"
	assert.Equal(t, want, buf.String())
}

func TestAsyncLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.EnableJSON = true
	logger := newTestLogger(t, cfg)

	logger.WithField("status", 200).Info("handled")
	require.NoError(t, logger.Flush(context.Background()))

	assert.Equal(t, `{"severity":"INFO","message":"handled","status":"200"}`+"\n", buf.String())
}

func TestAsyncLoggerFrozenTimestamp(t *testing.T) {
	old := xclock.Default()
	defer xclock.SetDefault(old)

	ft := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	xclock.SetDefault(xclock.NewFrozen(ft))

	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.DisableTimestamp = false
	cfg.TimeFormat = constants.TimeFormatUnix
	logger := newTestLogger(t, cfg)

	logger.Info("frozen")
	require.NoError(t, logger.Flush(context.Background()))

	assert.Equal(t, "1705314645 [ INFO] frozen\n", buf.String())
}

func TestAsyncLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.Level = ErrorLevel
	logger := newTestLogger(t, cfg)

	logger.Trace("skip")
	logger.Debug("skip")
	logger.Info("skip")
	logger.Warn("skip")
	logger.Error("keep")
	require.NoError(t, logger.Flush(context.Background()))

	assert.Equal(t, "[ERROR] keep\n", buf.String())
	assert.Equal(t, ErrorLevel, logger.GetLevel())

	logger.SetLevel(TraceLevel)
	logger.Trace("now visible")
	require.NoError(t, logger.Flush(context.Background()))

	assert.Contains(t, buf.String(), "[TRACE] now visible\n")
}

func TestAsyncLoggerSetLevelRejectsInvalid(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	logger.SetLevel(Level(99))
	assert.Equal(t, InfoLevel, logger.GetLevel())
}

func TestAsyncLoggerBoundFields(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	derived := logger.WithFields(Str("region", "eu"), Int("shard", 3))
	derived.Info("rebalanced")

	derived.WithField("attempt", 2).Warn("retrying")
	derived.WithError(assert.AnError).Error("failed")

	require.NoError(t, logger.Flush(context.Background()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[ INFO] rebalanced {region=eu, shard=3}", lines[0])
	assert.Equal(t, "[ WARN] retrying {region=eu, shard=3, attempt=2}", lines[1])
	assert.Equal(t, "[ERROR] failed {region=eu, shard=3, error="+assert.AnError.Error()+"}", lines[2])
}

func TestAsyncLoggerWithErrorNil(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	assert.Same(t, Logger(logger), logger.WithError(nil))
}

func TestAsyncLoggerAdditionalFields(t *testing.T) {
	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.AdditionalFields = []Field{Str("version", "1.2.3")}
	logger := newTestLogger(t, cfg)

	logger.Info("boot")
	require.NoError(t, logger.Flush(context.Background()))

	assert.Equal(t, "[ INFO] boot {version=1.2.3}\n", buf.String())
}

func TestAsyncLoggerWithContext(t *testing.T) {
	ClearContextExtractors()
	t.Cleanup(ClearContextExtractors)

	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	ctx := context.WithValue(context.Background(), constants.TraceKey{}, "t-123")
	logger.WithContext(ctx).Info("handled")

	require.NoError(t, logger.Flush(context.Background()))
	assert.Equal(t, "[ INFO] handled {trace_id=t-123}\n", buf.String())
}

func TestAsyncLoggerWithContextNoValues(t *testing.T) {
	ClearContextExtractors()
	t.Cleanup(ClearContextExtractors)

	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	assert.Same(t, Logger(logger), logger.WithContext(context.Background()))
}

func TestAsyncLoggerColors(t *testing.T) {
	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.Color = ColorConfig{Enable: true, ForceTTY: true}
	logger := newTestLogger(t, cfg)

	logger.Info("tinted")
	require.NoError(t, logger.Flush(context.Background()))

	assert.Equal(t, Green+"[ INFO] tinted"+Reset+"\n", buf.String())
}

func TestAsyncLoggerDropsWhenQueueFull(t *testing.T) {
	out := newGatedWriter()
	defer out.open()

	var droppedMsgs []string

	cfg := DefaultConfig()
	cfg.Output = out
	cfg.DisableTimestamp = true
	cfg.Color.Enable = false
	cfg.QueueCapacity = 1024
	cfg.DropHandler = func(level Level, msg string) {
		assert.Equal(t, InfoLevel, level)
		droppedMsgs = append(droppedMsgs, msg)
	}

	logger := newTestLogger(t, cfg)

	// The worker blocks writing the first entry; the rest pile up in
	// the queue until it overflows.
	for i := 0; i < 500 && logger.Metrics().Dropped == 0; i++ {
		logger.Info("fill entry")
	}

	metrics := logger.Metrics()
	require.NotZero(t, metrics.Dropped, "queue never overflowed")
	require.NotEmpty(t, droppedMsgs)
	assert.Equal(t, "fill entry", droppedMsgs[0])

	out.open()
	require.NoError(t, logger.Flush(context.Background()))
	assert.Contains(t, out.contents(), "[ INFO] fill entry\n")
}

func TestAsyncLoggerDropsOversizedEntry(t *testing.T) {
	var buf bytes.Buffer

	var dropped []string

	cfg := newTestConfig(&buf)
	cfg.QueueCapacity = 1024
	cfg.DropHandler = func(_ Level, msg string) { dropped = append(dropped, msg) }
	logger := newTestLogger(t, cfg)

	huge := strings.Repeat("x", 5000)
	logger.Info(huge)
	require.NoError(t, logger.Flush(context.Background()))

	require.Len(t, dropped, 1)
	assert.Equal(t, huge, dropped[0])
	assert.Empty(t, buf.String())
	assert.Equal(t, uint64(1), logger.Metrics().Dropped)
}

func TestAsyncLoggerBlockStrategy(t *testing.T) {
	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.QueueCapacity = 64
	cfg.OverflowStrategy = OverflowBlock
	logger := newTestLogger(t, cfg)

	const total = 100
	for i := range total {
		logger.Infof("entry %d", i)
	}

	require.NoError(t, logger.Flush(context.Background()))

	metrics := logger.Metrics()
	assert.Equal(t, uint64(total), metrics.Enqueued)
	assert.Zero(t, metrics.Dropped)
	assert.Equal(t, total, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "[ INFO] entry 99\n")
}

func TestAsyncLoggerRingGrowsAndShrinks(t *testing.T) {
	out := newGatedWriter()
	defer out.open()

	cfg := DefaultConfig()
	cfg.Output = out
	cfg.DisableTimestamp = true
	cfg.Color.Enable = false
	cfg.TransitCapacity = 2
	cfg.TransitDecayPeriod = 0

	logger := newTestLogger(t, cfg)

	// Pin the worker on the first entry, stage a burst behind it, then
	// release: the drain grows the staging ring well past its initial
	// capacity.
	for i := range 33 {
		logger.Infof("burst %d", i)
	}

	out.open()
	require.NoError(t, logger.Flush(context.Background()))
	assert.GreaterOrEqual(t, logger.Metrics().RingCapacity, 16)

	logger.RequestBufferShrink()
	require.NoError(t, logger.Flush(context.Background()))
	assert.Equal(t, 2, logger.Metrics().RingCapacity)
}

func TestAsyncLoggerFatalUsesExitFunc(t *testing.T) {
	var buf bytes.Buffer

	exitCode := -1

	cfg := newTestConfig(&buf)
	cfg.ExitFunc = func(code int) { exitCode = code }
	logger := newTestLogger(t, cfg)

	logger.Fatal("unrecoverable")

	assert.Equal(t, 1, exitCode)
	assert.Equal(t, "[FATAL] unrecoverable\n", buf.String())
}

func TestAsyncLoggerFlush(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	logger.Info("one")
	require.NoError(t, logger.Flush(context.Background()))
	assert.Equal(t, "[ INFO] one\n", buf.String())

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.Error(t, logger.Flush(ctx))
	})
}

func TestAsyncLoggerSync(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	logger.Info("synced")
	require.NoError(t, logger.Sync())
	assert.Equal(t, "[ INFO] synced\n", buf.String())
}

func TestAsyncLoggerCloseDrainsPending(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	for i := range 10 {
		logger.Infof("pending %d", i)
	}

	require.NoError(t, logger.Close())
	assert.Equal(t, 10, strings.Count(buf.String(), "\n"))
}

func TestAsyncLoggerCloseIdempotent(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	// Logging after close is silently discarded.
	logger.Info("after close")
	assert.Empty(t, buf.String())

	err := logger.Flush(context.Background())
	require.ErrorIs(t, err, ErrLoggerClosed)
}

func TestAsyncLoggerMetrics(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	logger.Info("one")
	logger.Info("two")
	logger.Info("three")
	require.NoError(t, logger.Flush(context.Background()))

	metrics := logger.Metrics()
	assert.Equal(t, uint64(3), metrics.Enqueued)
	assert.Equal(t, uint64(3), metrics.Decoded)
	assert.Equal(t, uint64(3), metrics.Written)
	assert.Zero(t, metrics.Dropped)
	assert.Zero(t, metrics.Corrupted)
	assert.Equal(t, uint64(1), metrics.Flushes)
	assert.Positive(t, metrics.RingCapacity)
	assert.Positive(t, metrics.PoolCapacity)
}

func TestAsyncLoggerMetricsEmission(t *testing.T) {
	ClearMetricsHandlers()
	t.Cleanup(ClearMetricsHandlers)

	var (
		mu        sync.Mutex
		snapshots []BackendMetrics
	)

	RegisterMetricsHandler(func(_ context.Context, metrics BackendMetrics) {
		mu.Lock()
		defer mu.Unlock()

		snapshots = append(snapshots, metrics)
	})

	var buf bytes.Buffer

	cfg := newTestConfig(&buf)
	cfg.MetricsInterval = time.Nanosecond
	logger := newTestLogger(t, cfg)

	logger.Info("observed")

	assert.Eventually(t, func() bool {
		if err := logger.Flush(context.Background()); err != nil {
			return false
		}

		mu.Lock()
		defer mu.Unlock()

		return len(snapshots) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, snapshots)
	assert.Equal(t, uint64(1), snapshots[len(snapshots)-1].Enqueued)
}

func TestAsyncLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.DisableTimestamp = true
	cfg.Color.Enable = false

	logger := newTestLogger(t, cfg)

	logger.Info("to disk")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[ INFO] to disk\n", string(data))
}

func TestAsyncLoggerDerivedShareCore(t *testing.T) {
	var buf bytes.Buffer

	logger := newTestLogger(t, newTestConfig(&buf))

	derived := logger.WithField("k", "v")
	derived.(*AsyncLogger).SetLevel(ErrorLevel)

	assert.Equal(t, ErrorLevel, logger.GetLevel())
}
