package value

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Value is a sealed interface representing the dynamic value types.
// Only Null, Bool, Number, String, Array and Object implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents SQL/JSON null.
// Using an explicit type keeps nil out of trees built from Values.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Number holds the natural textual form of a JSON number ("30", "-1.5", "1e21").
// Use Int, Uint, Float or ParseNumber to construct one.
type Number string

func (Number) value() {}

// String represents a string value.
type String string

func (String) value() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Int creates a Number from an integer.
func Int(n int64) Number {
	return Number(strconv.FormatInt(n, 10))
}

// Uint creates a Number from an unsigned integer.
func Uint(n uint64) Number {
	return Number(strconv.FormatUint(n, 10))
}

// Float creates a Number from a float using the shortest decimal form that
// round-trips. Whole floats render without a fractional part (30.0 -> "30").
// NaN and infinities have no JSON or SQL literal and become Null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null{}
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return Number(trimExponent(strconv.FormatFloat(f, 'e', -1, 64)))
	}
	return Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// trimExponent rewrites Go's "1e+21" / "1e-07" exponent into "1e21" / "1e-7".
func trimExponent(s string) string {
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := ""
	switch {
	case strings.HasPrefix(exp, "+"):
		exp = exp[1:]
	case strings.HasPrefix(exp, "-"):
		sign, exp = "-", exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mantissa + "e" + sign + exp
}

// ParseNumber validates s as a JSON number literal and returns it unchanged.
func ParseNumber(s string) (Number, error) {
	if !isNumberLiteral(s) {
		return "", fmt.Errorf("invalid number literal %q", s)
	}
	return Number(s), nil
}

// Int64 parses the number as an int64.
func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// Float64 parses the number as a float64.
func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// isNumberLiteral reports whether s follows the JSON number grammar.
func isNumberLiteral(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		if i >= len(s) || !isDigit(s[i]) {
			return false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= len(s) || !isDigit(s[i]) {
			return false
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Of converts a Go value to a Value.
//
// Supported inputs: nil, Value, bool, all integer kinds, float32/float64,
// string, json.Number, []any, []string and map[string]any. Plain maps have no
// order, so their keys are sorted before building the Object; use NewObject
// when order matters.
func Of(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		return Uint(uint64(val)), nil
	case uint8:
		return Uint(uint64(val)), nil
	case uint16:
		return Uint(uint64(val)), nil
	case uint32:
		return Uint(uint64(val)), nil
	case uint64:
		return Uint(val), nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return ParseNumber(string(val))
	case []string:
		arr := make(Array, len(val))
		for i, s := range val {
			arr[i] = String(s)
		}
		return arr, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := Of(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		obj := make(Object, 0, len(val))
		for _, k := range keys {
			conv, err := Of(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj = append(obj, Pair{Key: k, Value: conv})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MustOf is like Of but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustOf(v any) Value {
	conv, err := Of(v)
	if err != nil {
		panic(err)
	}
	return conv
}
