// Package backend implements the consumer side of the transit pipeline:
// the wire codec for queued records, the formatter registry, and the
// worker goroutine that drains the queue, stages decoded events in the
// transit ring, and renders them through pooled format buffers into the
// configured sink.
package backend

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog/internal/transit"
)

// Wire layout of a queued record, little-endian throughout:
//
//	[4] total record length, prefix included
//	[8] timestamp, unix nanoseconds
//	[1] level
//	[2] logger name length  [n] logger name
//	[4] message length      [n] message
//	[2] field count
//	per field: [2] key length [n] key, [4] value length [n] value
const (
	recordPrefixSize  = 4
	timestampSize     = 8
	levelSize         = 1
	loggerLenSize     = 2
	messageLenSize    = 4
	fieldCountSize    = 2
	fieldKeyLenSize   = 2
	fieldValueLenSize = 4

	// minRecordSize is a record with an empty logger name, an empty
	// message, and no fields.
	minRecordSize = recordPrefixSize + timestampSize + levelSize +
		loggerLenSize + messageLenSize + fieldCountSize
)

// Limits imposed by the length prefixes. Oversized inputs are truncated
// at encode time rather than rejected, so a pathological message still
// produces a log line.
const (
	maxLoggerNameLen = math.MaxUint16
	maxMessageLen    = math.MaxUint32
	maxFieldCount    = math.MaxUint16
	maxFieldKeyLen   = math.MaxUint16
	maxFieldValueLen = math.MaxUint32
)

// EncodedSize reports the exact number of bytes EncodeEvent will write
// for the given inputs, truncation included. Producers reserve queue
// space with it before encoding.
func EncodedSize(loggerName, message string, fields []transit.Field) int {
	size := minRecordSize
	size += min(len(loggerName), maxLoggerNameLen)
	size += min(len(message), maxMessageLen)

	if len(fields) > maxFieldCount {
		fields = fields[:maxFieldCount]
	}

	for _, field := range fields {
		size += fieldKeyLenSize + min(len(field.Key), maxFieldKeyLen)
		size += fieldValueLenSize + min(len(field.Value), maxFieldValueLen)
	}

	return size
}

// EncodeEvent serializes one record into dst and returns the number of
// bytes written. dst must be at least EncodedSize bytes for the same
// inputs; the producer encodes straight into the region reserved from
// the queue.
//
//nolint:gosec // every length is truncated to its prefix limit before conversion.
func EncodeEvent(dst []byte, timestamp int64, level uint8, loggerName, message string, fields []transit.Field) int {
	loggerName = truncate(loggerName, maxLoggerNameLen)
	message = truncate(message, maxMessageLen)

	if len(fields) > maxFieldCount {
		fields = fields[:maxFieldCount]
	}

	offset := recordPrefixSize

	binary.LittleEndian.PutUint64(dst[offset:], uint64(timestamp))
	offset += timestampSize

	dst[offset] = level
	offset += levelSize

	binary.LittleEndian.PutUint16(dst[offset:], uint16(len(loggerName)))
	offset += loggerLenSize
	offset += copy(dst[offset:], loggerName)

	binary.LittleEndian.PutUint32(dst[offset:], uint32(len(message)))
	offset += messageLenSize
	offset += copy(dst[offset:], message)

	binary.LittleEndian.PutUint16(dst[offset:], uint16(len(fields)))
	offset += fieldCountSize

	for _, field := range fields {
		key := truncate(field.Key, maxFieldKeyLen)
		value := truncate(field.Value, maxFieldValueLen)

		binary.LittleEndian.PutUint16(dst[offset:], uint16(len(key)))
		offset += fieldKeyLenSize
		offset += copy(dst[offset:], key)

		binary.LittleEndian.PutUint32(dst[offset:], uint32(len(value)))
		offset += fieldValueLenSize
		offset += copy(dst[offset:], value)
	}

	binary.LittleEndian.PutUint32(dst, uint32(offset))

	return offset
}

// RecordSize reads the length prefix of the next record in region and
// validates it against the region bounds. The returned size includes
// the prefix itself.
func RecordSize(region []byte) (int, error) {
	if len(region) < recordPrefixSize {
		return 0, ewrap.Wrap(ErrCorruptRecord, "region shorter than the length prefix").
			WithMetadata("region_size", len(region))
	}

	total := int(binary.LittleEndian.Uint32(region))
	if total < minRecordSize || total > len(region) {
		return 0, ewrap.Wrap(ErrCorruptRecord, "record length out of bounds").
			WithMetadata("record_size", total).
			WithMetadata("region_size", len(region))
	}

	return total, nil
}

// DecodeEvent deserializes one record into event. The record slice must
// span exactly the bytes reported by RecordSize. All strings are copied
// out, so the record region may be released as soon as the call
// returns. event is reset first and left reset on error.
func DecodeEvent(record []byte, event *transit.Event) error {
	event.Reset()

	if len(record) < minRecordSize {
		return ewrap.Wrap(ErrCorruptRecord, "record shorter than the fixed header").
			WithMetadata("record_size", len(record))
	}

	if total := int(binary.LittleEndian.Uint32(record)); total != len(record) {
		return ewrap.Wrap(ErrCorruptRecord, "length prefix does not match the record").
			WithMetadata("prefix", total).
			WithMetadata("record_size", len(record))
	}

	offset := recordPrefixSize

	nanos := int64(binary.LittleEndian.Uint64(record[offset:]))
	offset += timestampSize

	level := record[offset]
	offset += levelSize

	loggerName, offset, err := readString16(record, offset)
	if err != nil {
		return ewrap.Wrap(err, "decoding logger name")
	}

	message, offset, err := readString32(record, offset)
	if err != nil {
		return ewrap.Wrap(err, "decoding message")
	}

	if offset+fieldCountSize > len(record) {
		return ewrap.Wrap(ErrCorruptRecord, "field count out of bounds").
			WithMetadata("offset", offset)
	}

	fieldCount := int(binary.LittleEndian.Uint16(record[offset:]))
	offset += fieldCountSize

	for i := 0; i < fieldCount; i++ {
		var key, value string

		key, offset, err = readString16(record, offset)
		if err != nil {
			event.Reset()

			return ewrap.Wrapf(err, "decoding key of field %d", i)
		}

		value, offset, err = readString32(record, offset)
		if err != nil {
			event.Reset()

			return ewrap.Wrapf(err, "decoding value of field %d", i)
		}

		event.Fields = append(event.Fields, transit.Field{Key: key, Value: value})
	}

	if offset != len(record) {
		event.Reset()

		return ewrap.Wrap(ErrCorruptRecord, "trailing bytes after the last field").
			WithMetadata("offset", offset).
			WithMetadata("record_size", len(record))
	}

	event.Timestamp = time.Unix(0, nanos)
	event.Level = level
	event.Logger = loggerName
	event.Message = message

	return nil
}

// truncate caps s at limit bytes. Truncation may split a multi-byte
// rune; the formatters escape whatever comes out, so a torn rune
// degrades to replacement output instead of corrupting the record.
func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}

	return s
}

// readString16 reads a [2]length-prefixed string starting at offset and
// returns the copied string and the offset past it.
func readString16(record []byte, offset int) (string, int, error) {
	if offset+loggerLenSize > len(record) {
		return "", 0, ewrap.Wrap(ErrCorruptRecord, "string length prefix out of bounds").
			WithMetadata("offset", offset)
	}

	length := int(binary.LittleEndian.Uint16(record[offset:]))
	offset += loggerLenSize

	if offset+length > len(record) {
		return "", 0, ewrap.Wrap(ErrCorruptRecord, "string body out of bounds").
			WithMetadata("offset", offset).
			WithMetadata("length", length)
	}

	return string(record[offset : offset+length]), offset + length, nil
}

// readString32 reads a [4]length-prefixed string starting at offset and
// returns the copied string and the offset past it.
func readString32(record []byte, offset int) (string, int, error) {
	if offset+messageLenSize > len(record) {
		return "", 0, ewrap.Wrap(ErrCorruptRecord, "string length prefix out of bounds").
			WithMetadata("offset", offset)
	}

	length := int(binary.LittleEndian.Uint32(record[offset:]))
	offset += messageLenSize

	if length < 0 || offset+length > len(record) {
		return "", 0, ewrap.Wrap(ErrCorruptRecord, "string body out of bounds").
			WithMetadata("offset", offset).
			WithMetadata("length", length)
	}

	return string(record[offset : offset+length]), offset + length, nil
}
