package backend

import (
	"bytes"
	"strconv"

	"github.com/hyp3rd/transitlog/internal/constants"
	"github.com/hyp3rd/transitlog/internal/transit"
)

// charactersPadding is the width the level name is padded to inside its
// brackets, sized for the longest built-in name.
const charactersPadding = 5

// ansiReset returns the terminal to its default rendition after a
// colored line.
const ansiReset = "\x1b[0m"

// timestampScratchSize comfortably holds any rendered timestamp.
const timestampScratchSize = 64

// TextFormatter renders events as human-readable lines:
//
//	2024-01-15 10:30:45.123456789 [ INFO] [server] request served {method=GET, status=200}
//
// When colors are enabled the whole line is wrapped in the ANSI
// sequence assigned to the event's level.
type TextFormatter struct {
	timeFormat       constants.TimeFormat
	layout           string
	disableTimestamp bool
	enableColors     bool
	levelColors      map[uint8]string
}

// NewTextFormatter creates a text formatter from options. An invalid
// time format falls back to the default layout.
func NewTextFormatter(opts FormatterOptions) *TextFormatter {
	timeFormat := opts.TimeFormat
	if !timeFormat.IsValid() {
		timeFormat = constants.TimeFormatDefault
	}

	return &TextFormatter{
		timeFormat:       timeFormat,
		layout:           timeFormat.Layout(),
		disableTimestamp: opts.DisableTimestamp,
		enableColors:     opts.EnableColors,
		levelColors:      opts.LevelColors,
	}
}

// Format renders event into buf as a single newline-terminated line.
func (f *TextFormatter) Format(event *transit.Event, buf *bytes.Buffer) error {
	colored := false

	if f.enableColors {
		if color := f.levelColors[event.Level]; color != "" {
			buf.WriteString(color)

			colored = true
		}
	}

	if !f.disableTimestamp {
		f.appendTimestamp(buf, event)
		buf.WriteByte(' ')
	}

	appendPaddedLevel(buf, transit.LevelString(event.Level))

	if event.Logger != "" {
		buf.WriteByte('[')
		buf.WriteString(event.Logger)
		buf.WriteByte(']')
		buf.WriteByte(' ')
	}

	buf.WriteString(event.Message)
	appendFields(buf, event.Fields)

	if colored {
		buf.WriteString(ansiReset)
	}

	buf.WriteByte('\n')

	return nil
}

// appendTimestamp renders the event time per the configured format
// without allocating for the common layouts.
//
//nolint:exhaustive // the layout-based formats share the default branch.
func (f *TextFormatter) appendTimestamp(buf *bytes.Buffer, event *transit.Event) {
	var scratch [timestampScratchSize]byte

	switch f.timeFormat {
	case constants.TimeFormatUnix:
		buf.Write(strconv.AppendInt(scratch[:0], event.Timestamp.Unix(), 10))
	case constants.TimeFormatUnixMs:
		buf.Write(strconv.AppendInt(scratch[:0], event.Timestamp.UnixMilli(), 10))
	default:
		buf.Write(event.Timestamp.AppendFormat(scratch[:0], f.layout))
	}
}

// appendPaddedLevel writes the level name right-aligned to the padding
// width inside brackets, "[ INFO] ".
func appendPaddedLevel(buf *bytes.Buffer, level string) {
	buf.WriteByte('[')

	for i := len(level); i < charactersPadding; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString(level)
	buf.WriteByte(']')
	buf.WriteByte(' ')
}

// appendFields renders the structured fields as " {k=v, k=v}". Values
// arrive pre-rendered as strings and are written raw; the text format
// makes no escaping promises.
func appendFields(buf *bytes.Buffer, fields []transit.Field) {
	if len(fields) == 0 {
		return
	}

	buf.WriteString(" {")

	for i, field := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}

		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.WriteString(field.Value)
	}

	buf.WriteByte('}')
}
