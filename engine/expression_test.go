package engine

import "testing"

func TestNewEvaluator(t *testing.T) {
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() failed: %v", err)
	}
	if e == nil {
		t.Fatal("NewEvaluator() should return a non-nil evaluator")
	}
}

func TestExpressionResult(t *testing.T) {
	e, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() failed: %v", err)
	}

	proposal := Proposal{
		"applicant_age": 30.0,
		"is_smoker":     false,
		"sum_assured":   2_000_000.0,
	}

	testCases := []struct {
		name       string
		expression string
		want       bool
	}{
		{"simple boolean", `true`, true},
		{"field comparison", `proposal.applicant_age >= 18.0`, true},
		{"boolean logic", `proposal.applicant_age >= 18.0 && !proposal.is_smoker`, true},
		{"arithmetic", `proposal.sum_assured * 0.01 > 50000.0`, false},
		{"false condition", `proposal.applicant_age > 65.0`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := &Rule{ID: "expr-" + tc.name, Version: 1, Expression: tc.expression}
			if got := e.expressionResult(rule, proposal); got != tc.want {
				t.Errorf("expressionResult(%q) = %v, want %v", tc.expression, got, tc.want)
			}
		})
	}
}

func TestExpressionResultCompileErrorDegradesToFalse(t *testing.T) {
	e, _ := NewEvaluator()

	rule := &Rule{ID: "bad", Version: 1, Expression: `this is not CEL (((`}
	if e.expressionResult(rule, Proposal{}) {
		t.Error("invalid expression should evaluate false, not error out")
	}
}

func TestExpressionResultRuntimeErrorDegradesToFalse(t *testing.T) {
	e, _ := NewEvaluator()

	// References a field absent from the proposal map
	rule := &Rule{ID: "missing", Version: 1, Expression: `proposal.nonexistent > 10.0`}
	if e.expressionResult(rule, Proposal{"applicant_age": 30.0}) {
		t.Error("runtime evaluation error should degrade to false")
	}
}

func TestExpressionResultNonBooleanIsFalse(t *testing.T) {
	e, _ := NewEvaluator()

	rule := &Rule{ID: "nonbool", Version: 1, Expression: `proposal.applicant_age`}
	if e.expressionResult(rule, Proposal{"applicant_age": 30.0}) {
		t.Error("non-boolean expression result should be treated as false")
	}
}

func TestExpressionProgramCachedPerVersion(t *testing.T) {
	e, _ := NewEvaluator()

	rule := &Rule{ID: "cached", Version: 1, Expression: `proposal.applicant_age >= 18.0`}

	if !e.expressionResult(rule, Proposal{"applicant_age": 20.0}) {
		t.Fatal("first evaluation should succeed")
	}
	if _, ok := e.programs["cached#1"]; !ok {
		t.Error("compiled program should be cached under id#version")
	}

	// A version bump must not serve the stale program.
	rule.Version = 2
	rule.Expression = `proposal.applicant_age >= 65.0`
	if e.expressionResult(rule, Proposal{"applicant_age": 20.0}) {
		t.Error("updated expression should be recompiled, not served from cache")
	}
}
