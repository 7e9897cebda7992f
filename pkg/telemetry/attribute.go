package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

var (
	errNilValue         = errors.New("nil attribute value")
	errUnsupportedValue = errors.New("unsupported attribute value")
)

// Attribute is a key/value fact destined for a span.
//
// Value may be a string, bool, any integer or float type, a fmt.Stringer, a
// value produced by JSON, or nil. Nil values are skipped. Values that cannot
// be converted are dropped on their own without affecting other attributes.
type Attribute struct {
	Key   string
	Value any
}

// Attr is shorthand for Attribute{Key: key, Value: value}.
func Attr(key string, value any) Attribute {
	return Attribute{Key: key, Value: value}
}

// jsonValue defers JSON encoding to attachment time, so a value that cannot
// be encoded costs only its own attribute.
type jsonValue struct {
	v any
}

// JSON wraps v to be attached as its JSON encoding.
func JSON(v any) any {
	return jsonValue{v: v}
}

// keyValue converts a to an OpenTelemetry attribute.
func (a Attribute) keyValue() (attribute.KeyValue, error) {
	if a.Key == "" {
		return attribute.KeyValue{}, errors.New("empty attribute key")
	}
	k := attribute.Key(a.Key)

	switch v := a.Value.(type) {
	case nil:
		return attribute.KeyValue{}, errNilValue
	case string:
		return k.String(v), nil
	case bool:
		return k.Bool(v), nil
	case int:
		return k.Int(v), nil
	case int8:
		return k.Int64(int64(v)), nil
	case int16:
		return k.Int64(int64(v)), nil
	case int32:
		return k.Int64(int64(v)), nil
	case int64:
		return k.Int64(v), nil
	case uint8:
		return k.Int64(int64(v)), nil
	case uint16:
		return k.Int64(int64(v)), nil
	case uint32:
		return k.Int64(int64(v)), nil
	case uint:
		return unsignedKeyValue(k, uint64(v)), nil
	case uint64:
		return unsignedKeyValue(k, v), nil
	case uintptr:
		return unsignedKeyValue(k, uint64(v)), nil
	case float32:
		return k.Float64(float64(v)), nil
	case float64:
		return k.Float64(v), nil
	case []string:
		return k.StringSlice(v), nil
	case jsonValue:
		if v.v == nil {
			return attribute.KeyValue{}, errNilValue
		}
		b, err := json.Marshal(v.v)
		if err != nil {
			return attribute.KeyValue{}, fmt.Errorf("encode %s: %w", a.Key, err)
		}
		return k.String(string(b)), nil
	case fmt.Stringer:
		return k.String(v.String()), nil
	default:
		return attribute.KeyValue{}, fmt.Errorf("%w %T for %s", errUnsupportedValue, a.Value, a.Key)
	}
}

// unsignedKeyValue stores v as an int64 when it fits and as its decimal
// string otherwise.
func unsignedKeyValue(k attribute.Key, v uint64) attribute.KeyValue {
	if v > math.MaxInt64 {
		return k.String(strconv.FormatUint(v, 10))
	}
	return k.Int64(int64(v))
}
