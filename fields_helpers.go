package transitlog

import (
	"fmt"
	"strconv"
	"time"
)

// Str creates a Field with a string value.
func Str(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a Field with a boolean value.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Int creates a Field with an int value.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates a Field with an int64 value.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Uint64 creates a Field with an uint64 value.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a Field with a float64 value.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a Field with a time.Duration value.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time creates a Field with a time.Time value.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Error creates a Field from an error. Nil errors are ignored.
func Error(key string, err error) Field {
	var val any
	if err != nil {
		val = err
	}

	return Field{Key: key, Value: val}
}

// Any creates a Field with an arbitrary value.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// renderValue converts a field value into the string form that crosses
// the transit queue. Values must be rendered before they are enqueued:
// once the producing goroutine returns, pointers it owned are no longer
// safe to follow. Common scalar kinds render with strconv; anything
// else falls back to fmt.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
