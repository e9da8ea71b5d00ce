package ir

import (
	"fmt"
	"math"
	"slices"
	"time"
	"unicode/utf16"
)

// Value is a sealed interface over the literal values a query may bind.
// Only Null, String, Int, Float, Bool and Time implement it.
type Value interface {
	irValue()

	// Type returns the semantic type of the literal.
	Type() Type

	// Go returns the value handed to the database driver.
	Go() any
}

// Null is the SQL null literal.
type Null struct{}

func (Null) irValue() {}
func (Null) Type() Type { return TypeAny }
func (Null) Go() any { return nil }

// String is a text literal.
type String string

func (String) irValue() {}
func (String) Type() Type { return TypeString }
func (v String) Go() any { return string(v) }

// Int is an integer literal. All integer widths normalize to int64.
type Int int64

func (Int) irValue() {}
func (Int) Type() Type { return TypeInt }
func (v Int) Go() any { return int64(v) }

// Float is a floating point literal. NaN and infinities are rejected by FromGo.
type Float float64

func (Float) irValue() {}
func (Float) Type() Type { return TypeFloat }
func (v Float) Go() any { return float64(v) }

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue() {}
func (Bool) Type() Type { return TypeBool }
func (v Bool) Go() any { return bool(v) }

// Time is a timestamp literal, kept in UTC.
type Time struct {
	T time.Time
}

func (Time) irValue() {}
func (Time) Type() Type { return TypeTime }
func (v Time) Go() any { return v.T }

// FromGo normalizes a Go value into a Value.
// Pointers are dereferenced; a nil pointer is Null.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case float32:
		return floatValue(float64(val))
	case float64:
		return floatValue(val)
	case time.Time:
		return Time{T: val.UTC()}, nil
	case *string:
		if val == nil {
			return Null{}, nil
		}
		return String(*val), nil
	case *int:
		if val == nil {
			return Null{}, nil
		}
		return Int(*val), nil
	case *int64:
		if val == nil {
			return Null{}, nil
		}
		return Int(*val), nil
	case *float64:
		if val == nil {
			return Null{}, nil
		}
		return floatValue(*val)
	case *bool:
		if val == nil {
			return Null{}, nil
		}
		return Bool(*val), nil
	case *time.Time:
		if val == nil {
			return Null{}, nil
		}
		return Time{T: val.UTC()}, nil
	default:
		return nil, fmt.Errorf("unsupported literal type %T", v)
	}
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v is not a valid literal", f)
	}
	return Float(f), nil
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces a different order
// for characters outside the BMP.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
