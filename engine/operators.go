package engine

import (
	"strings"

	"github.com/insurestp/insurestp/internal/logger"
)

// evalOperator applies one leaf operator to a resolved value and its
// operand(s). Every operator is total: absent values, coercion failures and
// unknown operators all degrade to false so a partially matching proposal
// never aborts evaluation. Unknown operators are a configuration defect and
// are logged as such.
func evalOperator(op Operator, resolved, value, value2 any) bool {
	switch op {
	case OpEquals:
		return valuesEqual(resolved, value)
	case OpNotEquals:
		return !valuesEqual(resolved, value)
	case OpGreaterThan:
		a, aok := toFloat(resolved)
		b, bok := toFloat(value)
		return aok && bok && a > b
	case OpLessThan:
		a, aok := toFloat(resolved)
		b, bok := toFloat(value)
		return aok && bok && a < b
	case OpGreaterThanOrEqual:
		a, aok := toFloat(resolved)
		b, bok := toFloat(value)
		return aok && bok && a >= b
	case OpLessThanOrEqual:
		a, aok := toFloat(resolved)
		b, bok := toFloat(value)
		return aok && bok && a <= b
	case OpIn:
		return isMember(resolved, value)
	case OpNotIn:
		return !isMember(resolved, value)
	case OpBetween:
		a, aok := toFloat(resolved)
		lo, lok := toFloat(value)
		hi, hok := toFloat(value2)
		return aok && lok && hok && lo <= a && a <= hi
	case OpContains:
		a, b := formatValue(resolved), formatValue(value)
		if a == "" || b == "" {
			return false
		}
		return strings.Contains(strings.ToLower(a), strings.ToLower(b))
	case OpStartsWith:
		a, b := formatValue(resolved), formatValue(value)
		if a == "" || b == "" {
			return false
		}
		return strings.HasPrefix(strings.ToLower(a), strings.ToLower(b))
	case OpIsEmpty:
		return isEmptyValue(resolved)
	case OpIsNotEmpty:
		return !isEmptyValue(resolved)
	default:
		logger.Warn("unknown operator", "operator", string(op))
		return false
	}
}

// isMember tests list membership. A non-list operand degrades to scalar
// equality so `in` with a single value behaves like equals.
func isMember(v, list any) bool {
	items, ok := list.([]any)
	if !ok {
		return valuesEqual(v, list)
	}
	for _, item := range items {
		if valuesEqual(v, item) {
			return true
		}
	}
	return false
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
