package engine

import "time"

// ruleApplicable decides whether a rule is in scope for this evaluation.
// All four gates must hold: enabled, inside the effective window, product
// set empty or matching, case-type set empty or containing the context's
// case type as of this moment. Non-applicable rules are skipped entirely
// and leave no trace.
//
// Effective bounds are RFC 3339 strings; empty bounds are open-ended.
func ruleApplicable(rule *Rule, product ProductType, current CaseType, now time.Time) bool {
	if !rule.IsEnabled {
		return false
	}

	if rule.EffectiveFrom != "" && compareBound(now, rule.EffectiveFrom) < 0 {
		return false
	}
	if rule.EffectiveTo != "" && compareBound(now, rule.EffectiveTo) > 0 {
		return false
	}

	if len(rule.Products) > 0 && !containsProduct(rule.Products, product) {
		return false
	}

	if len(rule.CaseTypes) > 0 && !containsCaseType(rule.CaseTypes, current) {
		return false
	}

	return true
}

// compareBound orders the current instant against an authored effective
// bound: -1 before, 0 at, 1 after. Bounds that parse as RFC 3339 compare
// as instants, so "+00:00" and "Z" offsets agree; anything else falls back
// to a lexical comparison against the formatted instant.
func compareBound(now time.Time, bound string) int {
	if t, err := time.Parse(time.RFC3339, bound); err == nil {
		switch {
		case now.Before(t):
			return -1
		case now.After(t):
			return 1
		}
		return 0
	}
	instant := now.UTC().Format(time.RFC3339)
	switch {
	case instant < bound:
		return -1
	case instant > bound:
		return 1
	}
	return 0
}

func containsProduct(products []ProductType, p ProductType) bool {
	for _, candidate := range products {
		if candidate == p {
			return true
		}
	}
	return false
}

func containsCaseType(caseTypes []CaseType, c CaseType) bool {
	for _, candidate := range caseTypes {
		if candidate == c {
			return true
		}
	}
	return false
}
