package engine

// decisionContext is the mutable state threaded through one evaluation.
// Exactly one exists per Evaluate call; it is never shared across
// concurrent evaluations.
type decisionContext struct {
	stpDecision      string
	caseType         CaseType
	reasonFlag       ReasonFlag
	score            int
	triggeredRules   []string
	validationErrors []string
	reasonCodes      []string
	reasonMessages   []string
}

func newDecisionContext() *decisionContext {
	return &decisionContext{
		stpDecision:      DecisionPass,
		caseType:         CaseNormal,
		reasonFlag:       ReasonFlagPassSkip,
		triggeredRules:   []string{},
		validationErrors: []string{},
		reasonCodes:      []string{},
		reasonMessages:   []string{},
	}
}

// applyAction merges a triggered rule's action into the context. Later
// rules overwrite earlier case-type choices; score impacts accumulate;
// reason codes and messages are appended and deduplicated at assembly time.
// Validation rules additionally surface their message as a validation error.
func (dc *decisionContext) applyAction(ruleName string, category RuleCategory, action RuleAction) {
	dc.triggeredRules = append(dc.triggeredRules, ruleName)

	if action.Decision == DecisionFail {
		dc.stpDecision = DecisionFail
		dc.reasonFlag = ReasonFlagFailPrint
	}
	if action.IsHardStop {
		dc.caseType = CaseDirectFail
	}
	if action.CaseType != nil {
		dc.caseType = *action.CaseType
	}
	if action.ScoreImpact != nil {
		dc.score += *action.ScoreImpact
	}
	if action.ReasonCode != "" {
		dc.reasonCodes = append(dc.reasonCodes, action.ReasonCode)
	}
	if action.ReasonMessage != "" {
		dc.reasonMessages = append(dc.reasonMessages, action.ReasonMessage)
		if category == CategoryValidation {
			dc.validationErrors = append(dc.validationErrors, action.ReasonMessage)
		}
	}
}

// dedupe preserves first-occurrence order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
