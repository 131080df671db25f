package engine

// ConditionResult records one condition outcome inside a rule's tree, in
// evaluation order. Leaves carry Field and Operator; a nested group's
// combined result carries LogicalOperator instead, emitted after the
// group's own leaves.
type ConditionResult struct {
	Field           string          `json:"field,omitempty"`
	Operator        Operator        `json:"operator,omitempty"`
	LogicalOperator LogicalOperator `json:"logical_operator,omitempty"`
	Result          bool            `json:"result"`
}

// evaluateGroup recursively evaluates a condition tree. An empty group is
// vacuously true. Every child is evaluated unconditionally — no
// short-circuiting — so each leaf's truth value lands in the trace. Negation
// inverts the combined result, never the children.
func evaluateGroup(group *ConditionGroup, data Proposal, trace *[]ConditionResult) bool {
	if len(group.Conditions) == 0 {
		return true
	}

	results := make([]bool, 0, len(group.Conditions))
	for _, node := range group.Conditions {
		switch {
		case node.Group != nil:
			r := evaluateGroup(node.Group, data, trace)
			if trace != nil {
				*trace = append(*trace, ConditionResult{
					LogicalOperator: node.Group.LogicalOperator,
					Result:          r,
				})
			}
			results = append(results, r)
		case node.Leaf != nil:
			r := evalOperator(node.Leaf.Operator, ResolveField(data, node.Leaf.Field), node.Leaf.Value, node.Leaf.Value2)
			if trace != nil {
				*trace = append(*trace, ConditionResult{
					Field:    node.Leaf.Field,
					Operator: node.Leaf.Operator,
					Result:   r,
				})
			}
			results = append(results, r)
		}
	}

	var combined bool
	if group.LogicalOperator == LogicalOr {
		combined = false
		for _, r := range results {
			if r {
				combined = true
				break
			}
		}
	} else {
		combined = true
		for _, r := range results {
			if !r {
				combined = false
				break
			}
		}
	}

	if group.IsNegated {
		return !combined
	}
	return combined
}

// collectInputs gathers the proposal values examined by every leaf in the
// tree, keyed by field path, for the execution trace.
func collectInputs(group *ConditionGroup, data Proposal, into map[string]any) {
	for _, node := range group.Conditions {
		switch {
		case node.Group != nil:
			collectInputs(node.Group, data, into)
		case node.Leaf != nil:
			into[node.Leaf.Field] = ResolveField(data, node.Leaf.Field)
		}
	}
}
