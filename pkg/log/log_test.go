package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger "github.com/hyp3rd/transitlog"
	"github.com/hyp3rd/transitlog/internal/constants"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		environment  string
		service      string
		wantLevel    logger.Level
		wantJSON     bool
		wantBlocking bool
	}{
		{
			name:        "non-production environment",
			environment: constants.NonProductionEnvironment,
			service:     "test-service",
			wantLevel:   logger.DebugLevel,
			wantJSON:    false,
		},
		{
			name:         "production environment",
			environment:  "production",
			service:      "test-service",
			wantLevel:    logger.InfoLevel,
			wantJSON:     true,
			wantBlocking: true,
		},
		{
			name:         "empty environment",
			environment:  "",
			service:      "test-service",
			wantLevel:    logger.InfoLevel,
			wantJSON:     true,
			wantBlocking: true,
		},
		{
			name:        "empty service name",
			environment: constants.NonProductionEnvironment,
			service:     "",
			wantLevel:   logger.DebugLevel,
			wantJSON:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.environment, tt.service)
			require.NoError(t, err)
			require.NotNil(t, log)

			t.Cleanup(func() {
				_ = log.Close()
			})

			config := log.GetConfig()
			assert.Equal(t, tt.wantLevel, config.Level)
			assert.Equal(t, tt.wantJSON, config.EnableJSON)

			if tt.wantBlocking {
				assert.Equal(t, logger.OverflowBlock, config.OverflowStrategy)
			} else {
				assert.Equal(t, logger.OverflowDropNewest, config.OverflowStrategy)
			}

			// Verify additional fields
			var foundService, foundEnv bool

			for _, field := range config.AdditionalFields {
				switch field.Key {
				case "service":
					assert.Equal(t, tt.service, field.Value)

					foundService = true
				case "environment":
					assert.Equal(t, tt.environment, field.Value)

					foundEnv = true
				}
			}

			assert.True(t, foundService, "service field should be present")
			assert.True(t, foundEnv, "environment field should be present")
		})
	}
}
