package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSink_Write(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := NewConsoleSink(buf, ColorModeNever)

	payload := []byte("2026-01-05 12:00:00 INFO ready\n")
	n, err := sink.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf.Bytes(), "the sink must not alter the payload")
}

func TestConsoleSink_SupportsColor(t *testing.T) {
	tests := []struct {
		name     string
		mode     ColorMode
		expected bool
	}{
		{
			name:     "always",
			mode:     ColorModeAlways,
			expected: true,
		},
		{
			name:     "never",
			mode:     ColorModeNever,
			expected: false,
		},
		{
			name: "auto on a plain buffer",
			mode: ColorModeAuto,
			// A bytes.Buffer is not a terminal.
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewConsoleSink(&bytes.Buffer{}, tt.mode)
			assert.Equal(t, tt.expected, sink.SupportsColor())
		})
	}
}

func TestConsoleSink_SyncAndClose(t *testing.T) {
	cb := &closableBuffer{Buffer: bytes.NewBuffer(nil)}
	sink := NewConsoleSink(cb, ColorModeNever)

	require.NoError(t, sink.Sync())
	assert.True(t, cb.synced)

	require.NoError(t, sink.Close())
	assert.True(t, cb.closed)
}

func TestConsoleSink_NilWriterDefaultsToStdout(t *testing.T) {
	sink := NewConsoleSink(nil, ColorModeAuto)

	// Stdout must survive Sync and Close untouched.
	require.NoError(t, sink.Sync())
	require.NoError(t, sink.Close())
}
