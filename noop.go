package transitlog

import (
	"context"
)

// NoopLogger discards everything. It stands in wherever a Logger is
// required but output is unwanted, such as tests and disabled
// components.
type NoopLogger struct {
	level Level
}

// NewNoop returns a Logger that discards all entries.
func NewNoop() Logger {
	return &NoopLogger{level: InfoLevel}
}

var _ Logger = (*NoopLogger)(nil)

// Trace discards the message.
func (*NoopLogger) Trace(_ string) {}

// Debug discards the message.
func (*NoopLogger) Debug(_ string) {}

// Info discards the message.
func (*NoopLogger) Info(_ string) {}

// Warn discards the message.
func (*NoopLogger) Warn(_ string) {}

// Error discards the message.
func (*NoopLogger) Error(_ string) {}

// Fatal discards the message without exiting.
func (*NoopLogger) Fatal(_ string) {}

// Tracef discards the message.
func (*NoopLogger) Tracef(_ string, _ ...any) {}

// Debugf discards the message.
func (*NoopLogger) Debugf(_ string, _ ...any) {}

// Infof discards the message.
func (*NoopLogger) Infof(_ string, _ ...any) {}

// Warnf discards the message.
func (*NoopLogger) Warnf(_ string, _ ...any) {}

// Errorf discards the message.
func (*NoopLogger) Errorf(_ string, _ ...any) {}

// Fatalf discards the message without exiting.
func (*NoopLogger) Fatalf(_ string, _ ...any) {}

// WithContext returns the logger unchanged.
func (l *NoopLogger) WithContext(_ context.Context) Logger { return l }

// WithFields returns the logger unchanged.
func (l *NoopLogger) WithFields(_ ...Field) Logger { return l }

// WithField returns the logger unchanged.
func (l *NoopLogger) WithField(_ string, _ any) Logger { return l }

// WithError returns the logger unchanged.
func (l *NoopLogger) WithError(_ error) Logger { return l }

// GetLevel returns the stored level.
func (l *NoopLogger) GetLevel() Level { return l.level }

// SetLevel stores the level. It has no filtering effect since nothing
// is emitted anyway.
func (l *NoopLogger) SetLevel(level Level) { l.level = level }

// Flush reports success immediately.
func (*NoopLogger) Flush(_ context.Context) error { return nil }

// Sync reports success immediately.
func (*NoopLogger) Sync() error { return nil }

// RequestBufferShrink does nothing.
func (*NoopLogger) RequestBufferShrink() {}

// Close does nothing.
func (*NoopLogger) Close() error { return nil }

// GetConfig returns a minimal config carrying the stored level.
func (l *NoopLogger) GetConfig() *Config {
	return &Config{Level: l.level}
}
