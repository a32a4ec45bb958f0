package transitlog

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/transitlog/internal/constants"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, os.Stdout, config.Output)
	assert.Equal(t, DefaultLevel, config.Level)
	assert.Equal(t, DefaultTimeFormat, config.TimeFormat)
	assert.False(t, config.EnableJSON)
	assert.Equal(t, DefaultQueueCapacity, config.QueueCapacity)
	assert.Equal(t, OverflowDropNewest, config.OverflowStrategy)
	assert.Equal(t, DefaultTransitCapacity, config.TransitCapacity)
	assert.Equal(t, DefaultTransitDecayPeriod, config.TransitDecayPeriod)
	assert.Equal(t, DefaultFormatPoolCapacity, config.FormatPoolCapacity)
	assert.Empty(t, config.AdditionalFields)
}

func TestProductionConfig(t *testing.T) {
	config := ProductionConfig()

	assert.True(t, config.EnableJSON)
	assert.False(t, config.Color.Enable)
	assert.Equal(t, DefaultLevel, config.Level)
}

func TestDevelopmentConfig(t *testing.T) {
	config := DevelopmentConfig()

	assert.False(t, config.EnableJSON)
	assert.True(t, config.Color.Enable)
	assert.Equal(t, DebugLevel, config.Level)
	assert.Equal(t, constants.TimeFormatDefault, config.TimeFormat)
}

func TestOverflowStrategyIsValid(t *testing.T) {
	assert.True(t, OverflowDropNewest.IsValid())
	assert.True(t, OverflowBlock.IsValid())
	assert.False(t, OverflowStrategy(200).IsValid())
}

func TestSetOutput(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantWriter  io.Writer
		wantErr     bool
		cleanup     func()
		setupFile   bool
		permissions os.FileMode
	}{
		{
			name:       "stdout output",
			output:     "stdout",
			wantWriter: os.Stdout,
			wantErr:    false,
		},
		{
			name:       "stderr output",
			output:     "STDERR",
			wantWriter: os.Stderr,
			wantErr:    false,
		},
		{
			name:       "discard output",
			output:     "discard",
			wantWriter: io.Discard,
			wantErr:    false,
		},
		{
			name:        "valid file path",
			output:      filepath.Join(os.TempDir(), "test.log"),
			wantErr:     false,
			setupFile:   true,
			permissions: 0o644, // This is correct - represents real-world permissions
			cleanup: func() {
				os.Remove(filepath.Join(os.TempDir(), "test.log"))
			},
		},
		{
			name:    "invalid file path",
			output:  "/nonexistent/directory/test.log",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cleanup != nil {
				defer tt.cleanup()
			}

			writer, err := SetOutput(tt.output)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, writer)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, writer)

			if tt.wantWriter != nil {
				assert.Equal(t, tt.wantWriter, writer)
			}

			if tt.setupFile {
				file, ok := writer.(*os.File)
				require.True(t, ok)

				info, err := file.Stat()
				require.NoError(t, err)
				assert.Equal(t, tt.permissions, info.Mode().Perm())
				file.Close()
			}
		})
	}
}
