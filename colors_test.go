package transitlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLevelColors(t *testing.T) {
	expected := map[Level]string{
		TraceLevel: Magenta,
		DebugLevel: Blue,
		InfoLevel:  Green,
		WarnLevel:  Yellow,
		ErrorLevel: Red,
		FatalLevel: BoldRed,
	}

	assert.Equal(t, expected, DefaultLevelColors())
}

func TestDefaultColorConfig(t *testing.T) {
	config := DefaultColorConfig()

	assert.True(t, config.Enable)
	assert.True(t, config.ForceTTY)
	assert.Equal(t, DefaultLevelColors(), config.LevelColors)
}

func TestLevelColorCodes(t *testing.T) {
	config := ColorConfig{
		LevelColors: map[Level]string{
			InfoLevel:  Green,
			ErrorLevel: BoldRed,
		},
	}

	codes := config.levelColorCodes()

	assert.Equal(t, Green, codes[uint8(InfoLevel)])
	assert.Equal(t, BoldRed, codes[uint8(ErrorLevel)])
	assert.Len(t, codes, 2)
}

func TestLevelColorCodesDefaults(t *testing.T) {
	codes := ColorConfig{}.levelColorCodes()

	assert.Len(t, codes, 6)
	assert.Equal(t, Green, codes[uint8(InfoLevel)])
}

func TestColorConstants(t *testing.T) {
	palette := []string{
		Black, Red, Green, Yellow, Blue, Magenta, Cyan, White,
		BoldBlack, BoldRed, BoldGreen, BoldYellow, BoldBlue, BoldMagenta, BoldCyan, BoldWhite,
	}

	for _, code := range palette {
		assert.True(t, strings.HasPrefix(code, "\x1b["), "code %q must be an ANSI escape", code)
		assert.True(t, strings.HasSuffix(code, "m"), "code %q must end the SGR sequence", code)
	}

	assert.Equal(t, "\x1b[0m", Reset)
}
