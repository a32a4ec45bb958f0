package backend

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/hyp3rd/transitlog/internal/constants"
	"github.com/hyp3rd/transitlog/internal/transit"
)

// Bytes below the ASCII printable range are written as \u escapes.
const asciiControlStart = 32

// JSONFormatter renders events as single-line JSON objects:
//
//	{"time":"2024-01-15T10:30:45Z","severity":"INFO","logger":"server","message":"request served","status":"200"}
//
// Field values arrive pre-rendered as strings and are emitted as JSON
// strings. The default time format renders as RFC 3339; the unix
// formats render as bare integers.
type JSONFormatter struct {
	timeFormat       constants.TimeFormat
	layout           string
	disableTimestamp bool
}

// NewJSONFormatter creates a JSON formatter from options. Color options
// are ignored; structured output stays uncolored.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	timeFormat := opts.TimeFormat
	if !timeFormat.IsValid() || timeFormat == constants.TimeFormatDefault {
		timeFormat = constants.TimeFormatRFC3339
	}

	return &JSONFormatter{
		timeFormat:       timeFormat,
		layout:           timeFormat.Layout(),
		disableTimestamp: opts.DisableTimestamp,
	}
}

// Format renders event into buf as a newline-terminated JSON object.
func (f *JSONFormatter) Format(event *transit.Event, buf *bytes.Buffer) error {
	buf.WriteByte('{')

	if !f.disableTimestamp {
		buf.WriteString(`"time":`)
		f.appendTime(buf, event.Timestamp)
		buf.WriteByte(',')
	}

	buf.WriteString(`"severity":`)
	jsonEscapeString(buf, transit.LevelString(event.Level))

	if event.Logger != "" {
		buf.WriteString(`,"logger":`)
		jsonEscapeString(buf, event.Logger)
	}

	buf.WriteString(`,"message":`)
	jsonEscapeString(buf, event.Message)

	for _, field := range event.Fields {
		buf.WriteByte(',')
		jsonEscapeString(buf, field.Key)
		buf.WriteByte(':')
		jsonEscapeString(buf, field.Value)
	}

	buf.WriteByte('}')
	buf.WriteByte('\n')

	return nil
}

//nolint:exhaustive // the layout-based formats share the default branch.
func (f *JSONFormatter) appendTime(buf *bytes.Buffer, ts time.Time) {
	var scratch [timestampScratchSize]byte

	switch f.timeFormat {
	case constants.TimeFormatUnix:
		buf.Write(strconv.AppendInt(scratch[:0], ts.Unix(), 10))
	case constants.TimeFormatUnixMs:
		buf.Write(strconv.AppendInt(scratch[:0], ts.UnixMilli(), 10))
	default:
		buf.WriteByte('"')
		buf.Write(ts.AppendFormat(scratch[:0], f.layout))
		buf.WriteByte('"')
	}
}

// jsonEscapeString writes s as a quoted JSON string. Clean spans are
// copied in batches between escapes instead of byte by byte. Valid
// multi-byte UTF-8 passes through untouched; invalid sequences are
// replaced with the � replacement character.
func jsonEscapeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')

	start := 0

	for i := 0; i < len(s); {
		if c := s[i]; c < utf8.RuneSelf {
			if !needsEscaping(c) {
				i++

				continue
			}

			buf.WriteString(s[start:i])
			writeEscapedChar(buf, c)

			i++
			start = i

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString(s[start:i])
			buf.WriteString(`�`)

			i++
			start = i

			continue
		}

		i += size
	}

	buf.WriteString(s[start:])
	buf.WriteByte('"')
}

func needsEscaping(c byte) bool {
	return c == '"' || c == '\\' || c < asciiControlStart
}

func writeEscapedChar(buf *bytes.Buffer, c byte) {
	switch c {
	case '"':
		buf.WriteString(`\"`)
	case '\\':
		buf.WriteString(`\\`)
	case '\b':
		buf.WriteString(`\b`)
	case '\f':
		buf.WriteString(`\f`)
	case '\n':
		buf.WriteString(`\n`)
	case '\r':
		buf.WriteString(`\r`)
	case '\t':
		buf.WriteString(`\t`)
	default:
		fmt.Fprintf(buf, `\u%04x`, c)
	}
}
