package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolveField extracts a value from a record using dot-separated path
// segments. Absence is a first-class result: the walk returns nil the moment
// a segment is missing or the current value is not a mapping.
func ResolveField(data map[string]any, path string) any {
	var value any = data
	for _, key := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value = m[key]
	}
	return value
}

// toFloat attempts numeric coercion. Booleans coerce to 1/0 and numeric
// strings parse; anything else reports failure.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case nil:
		return 0, false
	default:
		return 0, false
	}
}

// isNumber reports whether v is a native numeric or boolean value, without
// the string parsing toFloat allows. Equality must not treat "35" and 35 as
// the same value.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, bool:
		return true
	default:
		return false
	}
}

// valuesEqual is the structural equality used by equals/in. Two absent
// values are equal; native numerics compare numerically so the JSON float64
// decoding of an integer literal still matches.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) && isNumber(b) {
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return fa == fb
	}
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		return sa == sb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// formatValue stringifies a resolved value for grid bucket matching and
// trace output. Integral floats render without a trailing fraction so an
// age of 35 matches a cell keyed "35". Absence renders empty and therefore
// never matches a cell.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
