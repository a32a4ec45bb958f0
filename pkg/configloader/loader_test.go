package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/transitlog"
)

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_LEVEL", "error")
	t.Setenv("APP_ENABLE_JSON", "true")
	t.Setenv("APP_TIME_FORMAT", "unix_ms")
	t.Setenv("APP_QUEUE_CAPACITY", "2048")
	t.Setenv("APP_OVERFLOW_STRATEGY", "block")
	t.Setenv("APP_TRANSIT_CAPACITY", "64")
	t.Setenv("APP_FLUSH_TIMEOUT", "10s")
	t.Setenv("APP_COLOR_ENABLE", "false")
	t.Setenv("APP_COLOR_FORCE_TTY", "false")
	t.Setenv("APP_FILE_PATH", "logs/app.log")
	t.Setenv("APP_FILE_MAX_SIZE", "40960")
	t.Setenv("APP_FILE_COMPRESS", "false")

	cfg, err := FromEnv("app")
	require.NoError(t, err)

	require.Equal(t, transitlog.ErrorLevel, cfg.Level)
	require.True(t, cfg.EnableJSON)
	require.Equal(t, "unix_ms", cfg.TimeFormat.String())
	require.Equal(t, 2048, cfg.QueueCapacity)
	require.Equal(t, transitlog.OverflowBlock, cfg.OverflowStrategy)
	require.Equal(t, 64, cfg.TransitCapacity)
	require.Equal(t, 10*time.Second, cfg.FlushTimeout)
	require.False(t, cfg.Color.Enable)
	require.False(t, cfg.Color.ForceTTY)
	require.Equal(t, "logs/app.log", cfg.File.Path)
	require.Equal(t, int64(40960), cfg.File.MaxSizeBytes)
	require.False(t, cfg.File.Compress)
}

func TestFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	configData := []byte(`
level: debug
name: checkout
enable_json: false
disable_timestamp: true
formatter: text
queue_capacity: 4096
overflow_strategy: block
transit_capacity: 32
transit_decay_period: 30s
flush_timeout: 2s
metrics_interval: 1m
color:
  enable: false
  force_tty: false
file:
  path: service.log
  max_size: 1048576
  compress: true
  max_backups: 5
  compression_level: 9
`)

	err := os.WriteFile(configPath, configData, 0o600)
	require.NoError(t, err)

	t.Setenv("TRANSITLOG_LEVEL", "warn")
	t.Setenv("TRANSITLOG_ENABLE_JSON", "true")

	cfg, err := FromFile(configPath)
	require.NoError(t, err)

	require.Equal(t, transitlog.WarnLevel, cfg.Level)
	require.True(t, cfg.EnableJSON)
	require.Equal(t, "checkout", cfg.Name)
	require.True(t, cfg.DisableTimestamp)
	require.Equal(t, "text", cfg.FormatterName)
	require.Equal(t, 4096, cfg.QueueCapacity)
	require.Equal(t, transitlog.OverflowBlock, cfg.OverflowStrategy)
	require.Equal(t, 32, cfg.TransitCapacity)
	require.Equal(t, 30*time.Second, cfg.TransitDecayPeriod)
	require.Equal(t, 2*time.Second, cfg.FlushTimeout)
	require.Equal(t, time.Minute, cfg.MetricsInterval)
	require.False(t, cfg.Color.Enable)
	require.False(t, cfg.Color.ForceTTY)
	require.Equal(t, "service.log", cfg.File.Path)
	require.Equal(t, int64(1048576), cfg.File.MaxSizeBytes)
	require.True(t, cfg.File.Compress)
	require.Equal(t, 5, cfg.File.MaxBackups)
	require.Equal(t, 9, cfg.File.CompressionLevel)
}

func TestFromYAMLDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("name: api\n"))
	require.NoError(t, err)

	require.Equal(t, "api", cfg.Name)
	require.Equal(t, transitlog.DefaultLevel, cfg.Level)
	require.Same(t, os.Stdout, cfg.Output)
	require.Equal(t, transitlog.DefaultTimeFormat, cfg.TimeFormat)
	require.False(t, cfg.EnableJSON)
	require.Equal(t, transitlog.DefaultQueueCapacity, cfg.QueueCapacity)
	require.Equal(t, transitlog.OverflowDropNewest, cfg.OverflowStrategy)
	require.Equal(t, transitlog.DefaultTransitCapacity, cfg.TransitCapacity)
	require.Equal(t, transitlog.DefaultTransitDecayPeriod, cfg.TransitDecayPeriod)
	require.Equal(t, transitlog.DefaultFormatPoolCapacity, cfg.FormatPoolCapacity)
	require.Equal(t, transitlog.DefaultPollInterval, cfg.PollInterval)
	require.Equal(t, transitlog.DefaultFlushTimeout, cfg.FlushTimeout)
	require.Zero(t, cfg.MetricsInterval)
	require.True(t, cfg.Color.Enable)
	require.True(t, cfg.Color.ForceTTY)
	require.Equal(t, int64(104857600), cfg.File.MaxSizeBytes)
	require.True(t, cfg.File.Compress)
	require.Equal(t, -1, cfg.File.CompressionLevel)
}

func TestFromYAMLInvalidOverflowStrategy(t *testing.T) {
	data := []byte(`
overflow_strategy: invalid
`)

	_, err := FromYAML(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overflow strategy")
}

func TestFromYAMLInvalidLevel(t *testing.T) {
	data := []byte(`
level: shout
`)

	_, err := FromYAML(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log level")
}

func TestFromYAMLInvalidTimeFormat(t *testing.T) {
	data := []byte(`
time_format: iso9000
`)

	_, err := FromYAML(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown time format")
}

func TestFromYAMLValidationError(t *testing.T) {
	data := []byte(`
queue_capacity: -1
`)

	_, err := FromYAML(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "queue_capacity")
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read configuration file")
}
