package transitlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{FatalLevel, "FATAL"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestLevelIsValid(t *testing.T) {
	for level := TraceLevel; level <= FatalLevel; level++ {
		assert.True(t, level.IsValid(), "level %d should be valid", level)
	}

	assert.False(t, Level(6).IsValid())
	assert.False(t, Level(255).IsValid())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		want        Level
		wantErr     bool
		errContains string
	}{
		{
			name:  "trace level",
			level: "trace",
			want:  TraceLevel,
		},
		{
			name:  "debug level",
			level: "DEBUG",
			want:  DebugLevel,
		},
		{
			name:  "info level",
			level: "info",
			want:  InfoLevel,
		},
		{
			name:  "warn level",
			level: "Warn",
			want:  WarnLevel,
		},
		{
			name:  "warning alias",
			level: "warning",
			want:  WarnLevel,
		},
		{
			name:  "error level",
			level: "ERROR",
			want:  ErrorLevel,
		},
		{
			name:  "fatal level",
			level: "Fatal",
			want:  FatalLevel,
		},
		{
			name:        "invalid level",
			level:       "invalid",
			wantErr:     true,
			errContains: "invalid log level",
		},
		{
			name:        "empty level",
			level:       "",
			wantErr:     true,
			errContains: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.level)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevelRoundTrip(t *testing.T) {
	for level := TraceLevel; level <= FatalLevel; level++ {
		parsed, err := ParseLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}
}
