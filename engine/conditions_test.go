package engine

import (
	"encoding/json"
	"testing"
)

func leafNode(field string, op Operator, value any) ConditionNode {
	return ConditionNode{Leaf: &Condition{Field: field, Operator: op, Value: value}}
}

func TestEvaluateGroupEmptyIsTrue(t *testing.T) {
	group := &ConditionGroup{LogicalOperator: LogicalAnd}
	if !evaluateGroup(group, Proposal{}, nil) {
		t.Error("empty group should be vacuously true")
	}

	group.IsNegated = true
	if !evaluateGroup(group, Proposal{}, nil) {
		t.Error("empty group stays true regardless of negation")
	}
}

func TestEvaluateGroupAnd(t *testing.T) {
	group := &ConditionGroup{
		LogicalOperator: LogicalAnd,
		Conditions: []ConditionNode{
			leafNode("applicant_age", OpGreaterThanOrEqual, 18),
			leafNode("is_smoker", OpEquals, false),
		},
	}

	proposal := Proposal{"applicant_age": 30.0, "is_smoker": false}
	if !evaluateGroup(group, proposal, nil) {
		t.Error("AND group with all true children should be true")
	}

	proposal["is_smoker"] = true
	if evaluateGroup(group, proposal, nil) {
		t.Error("AND group with one false child should be false")
	}
}

func TestEvaluateGroupOr(t *testing.T) {
	group := &ConditionGroup{
		LogicalOperator: LogicalOr,
		Conditions: []ConditionNode{
			leafNode("applicant_income", OpIsEmpty, nil),
			leafNode("applicant_income", OpLessThanOrEqual, 0),
		},
	}

	if !evaluateGroup(group, Proposal{}, nil) {
		t.Error("OR group should be true when income is absent")
	}
	if !evaluateGroup(group, Proposal{"applicant_income": 0.0}, nil) {
		t.Error("OR group should be true when income is zero")
	}
	if evaluateGroup(group, Proposal{"applicant_income": 500000.0}, nil) {
		t.Error("OR group should be false when income is valid")
	}
}

func TestEvaluateGroupNegationAppliesToCombination(t *testing.T) {
	group := &ConditionGroup{
		LogicalOperator: LogicalAnd,
		IsNegated:       true,
		Conditions: []ConditionNode{
			leafNode("is_smoker", OpEquals, true),
		},
	}

	if !evaluateGroup(group, Proposal{"is_smoker": false}, nil) {
		t.Error("negated false combination should be true")
	}
	if evaluateGroup(group, Proposal{"is_smoker": true}, nil) {
		t.Error("negated true combination should be false")
	}
}

func TestEvaluateGroupNested(t *testing.T) {
	// age >= 18 AND (occupation_risk == "high" OR is_smoker == true)
	group := &ConditionGroup{
		LogicalOperator: LogicalAnd,
		Conditions: []ConditionNode{
			leafNode("applicant_age", OpGreaterThanOrEqual, 18),
			{Group: &ConditionGroup{
				LogicalOperator: LogicalOr,
				Conditions: []ConditionNode{
					leafNode("occupation_risk", OpEquals, "high"),
					leafNode("is_smoker", OpEquals, true),
				},
			}},
		},
	}

	testCases := []struct {
		name     string
		proposal Proposal
		want     bool
	}{
		{"adult smoker", Proposal{"applicant_age": 30.0, "is_smoker": true}, true},
		{"adult high risk occupation", Proposal{"applicant_age": 30.0, "occupation_risk": "high", "is_smoker": false}, true},
		{"adult low risk", Proposal{"applicant_age": 30.0, "occupation_risk": "low", "is_smoker": false}, false},
		{"minor smoker", Proposal{"applicant_age": 16.0, "is_smoker": true}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := evaluateGroup(group, tc.proposal, nil); got != tc.want {
				t.Errorf("evaluateGroup() = %v, want %v", got, tc.want)
			}
		})
	}
}

// All leaves must land in the trace even when an AND already failed, so the
// trace explains the whole tree, not just a prefix.
func TestEvaluateGroupTracesEveryLeaf(t *testing.T) {
	group := &ConditionGroup{
		LogicalOperator: LogicalAnd,
		Conditions: []ConditionNode{
			leafNode("applicant_age", OpGreaterThan, 100),
			leafNode("is_smoker", OpEquals, false),
		},
	}

	var trace []ConditionResult
	evaluateGroup(group, Proposal{"applicant_age": 30.0, "is_smoker": false}, &trace)

	if len(trace) != 2 {
		t.Fatalf("trace has %d entries, want 2", len(trace))
	}
	if trace[0].Field != "applicant_age" || trace[0].Result {
		t.Errorf("first trace entry = %+v, want applicant_age=false", trace[0])
	}
	if trace[1].Field != "is_smoker" || !trace[1].Result {
		t.Errorf("second trace entry = %+v, want is_smoker=true", trace[1])
	}
}

// A nested group contributes its own combined truth value to the trace,
// after its leaves, so the trace shows every child of every group.
func TestEvaluateGroupTracesNestedGroupResult(t *testing.T) {
	group := &ConditionGroup{
		LogicalOperator: LogicalAnd,
		Conditions: []ConditionNode{
			leafNode("applicant_age", OpGreaterThan, 18),
			{Group: &ConditionGroup{
				LogicalOperator: LogicalOr,
				Conditions: []ConditionNode{
					leafNode("is_smoker", OpEquals, true),
					leafNode("bmi", OpGreaterThan, 30),
				},
			}},
		},
	}

	var trace []ConditionResult
	got := evaluateGroup(group, Proposal{"applicant_age": 40.0, "is_smoker": false, "bmi": 22.0}, &trace)

	if got {
		t.Error("evaluateGroup() = true, want false (inner OR has no true child)")
	}
	if len(trace) != 4 {
		t.Fatalf("trace has %d entries, want 3 leaves + 1 group", len(trace))
	}
	if trace[0].Field != "applicant_age" || !trace[0].Result {
		t.Errorf("first entry = %+v, want applicant_age=true", trace[0])
	}
	group2 := trace[3]
	if group2.Field != "" || group2.LogicalOperator != LogicalOr || group2.Result {
		t.Errorf("group entry = %+v, want OR combined result false after its leaves", group2)
	}
}

func TestCollectInputs(t *testing.T) {
	group := &ConditionGroup{
		LogicalOperator: LogicalAnd,
		Conditions: []ConditionNode{
			leafNode("applicant_age", OpGreaterThan, 18),
			{Group: &ConditionGroup{
				Conditions: []ConditionNode{
					leafNode("applicant.address.pincode", OpStartsWith, "400"),
				},
			}},
		},
	}

	proposal := Proposal{
		"applicant_age": 30.0,
		"applicant": map[string]any{
			"address": map[string]any{"pincode": "400001"},
		},
	}

	inputs := make(map[string]any)
	collectInputs(group, proposal, inputs)

	if inputs["applicant_age"] != 30.0 {
		t.Errorf("inputs[applicant_age] = %v, want 30", inputs["applicant_age"])
	}
	if inputs["applicant.address.pincode"] != "400001" {
		t.Errorf("inputs[applicant.address.pincode] = %v, want 400001", inputs["applicant.address.pincode"])
	}
}

func TestConditionNodeUnmarshalDiscrimination(t *testing.T) {
	raw := `{
		"logical_operator": "AND",
		"conditions": [
			{"field": "applicant_age", "operator": "greater_than", "value": 18},
			{
				"logicalOperator": "OR",
				"conditions": [
					{"field": "is_smoker", "operator": "equals", "value": true}
				],
				"isNegated": true
			}
		]
	}`

	var group ConditionGroup
	if err := json.Unmarshal([]byte(raw), &group); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(group.Conditions) != 2 {
		t.Fatalf("got %d conditions, want 2", len(group.Conditions))
	}
	if group.Conditions[0].Leaf == nil {
		t.Fatal("first condition should be a leaf")
	}
	if group.Conditions[0].Leaf.Field != "applicant_age" {
		t.Errorf("leaf field = %q, want applicant_age", group.Conditions[0].Leaf.Field)
	}
	nested := group.Conditions[1].Group
	if nested == nil {
		t.Fatal("second condition should be a nested group")
	}
	if nested.LogicalOperator != LogicalOr {
		t.Errorf("nested operator = %q, want OR (camelCase key)", nested.LogicalOperator)
	}
	if !nested.IsNegated {
		t.Error("nested group should pick up camelCase isNegated")
	}
}

func TestConditionGroupDefaultsToAnd(t *testing.T) {
	raw := `{"conditions": [{"field": "x", "operator": "is_empty"}]}`

	var group ConditionGroup
	if err := json.Unmarshal([]byte(raw), &group); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if group.LogicalOperator != LogicalAnd {
		t.Errorf("missing logical operator should default to AND, got %q", group.LogicalOperator)
	}
}

func TestConditionNodeMarshalRoundTrip(t *testing.T) {
	group := ConditionGroup{
		LogicalOperator: LogicalOr,
		Conditions: []ConditionNode{
			leafNode("premium", OpIsEmpty, nil),
			{Group: &ConditionGroup{
				LogicalOperator: LogicalAnd,
				Conditions:      []ConditionNode{leafNode("premium", OpLessThanOrEqual, 0)},
			}},
		},
	}

	data, err := json.Marshal(group)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded ConditionGroup
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Conditions[0].Leaf == nil || decoded.Conditions[1].Group == nil {
		t.Error("round trip should preserve leaf/group shapes")
	}
}
