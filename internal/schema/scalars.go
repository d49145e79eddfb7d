package schema

import (
	"fmt"
	"strconv"
	"time"
)

// SerializeDateTime coerces v into an ISO-8601 string. It never fails:
// values that cannot be interpreted as a point in time serialize to nil.
func SerializeDateTime(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case string:
		if parsed := ParseDateTime(t); parsed != nil {
			return parsed.(time.Time).UTC().Format(time.RFC3339)
		}
		return nil
	case int64:
		return time.Unix(t, 0).UTC().Format(time.RFC3339)
	case int:
		return time.Unix(int64(t), 0).UTC().Format(time.RFC3339)
	case float64:
		return time.Unix(int64(t), 0).UTC().Format(time.RFC3339)
	default:
		return nil
	}
}

// ParseDateTime parses a string or numeric literal into a time.Time.
// Unparseable input yields nil, never an error.
func ParseDateTime(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
		// Numeric strings are treated as unix seconds.
		if secs, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
		return nil
	case int64:
		return time.Unix(t, 0).UTC()
	case int:
		return time.Unix(int64(t), 0).UTC()
	case float64:
		return time.Unix(int64(t), 0).UTC()
	default:
		return nil
	}
}

// SerializeLeaf serializes a scalar or enum value to a JSON-safe Go value
// for the named leaf type. Enums and unknown scalar names pass through as-is;
// the JSON scalar passes every value through unchanged.
func SerializeLeaf(typeName string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typeName {
	case ScalarString, ScalarID:
		switch s := v.(type) {
		case string:
			return s, nil
		case fmt.Stringer:
			return s.String(), nil
		default:
			return fmt.Sprint(v), nil
		}
	case ScalarInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		case float32:
			if n == float32(int64(n)) {
				return int64(n), nil
			}
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		default:
			return nil, fmt.Errorf("Int cannot represent value: %v", v)
		}
	case ScalarFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("Float cannot represent value: %v", v)
		}
	case ScalarBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent value: %v", v)
	case ScalarDateTime:
		return SerializeDateTime(v), nil
	case ScalarJSON:
		return v, nil
	default:
		// Enum values and custom leaves pass through; enums resolve to their
		// symbolic name when the value is already a string.
		return v, nil
	}
}
