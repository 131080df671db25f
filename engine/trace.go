package engine

// StageStatus is the terminal state of a stage after orchestration.
type StageStatus string

const (
	StagePassed  StageStatus = "passed"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// RuleExecutionTrace records one applicable rule's evaluation: the inputs
// examined, each leaf predicate's result, whether the rule triggered, and
// the action applied (nil when not triggered).
type RuleExecutionTrace struct {
	RuleID           string            `json:"rule_id"`
	RuleName         string            `json:"rule_name"`
	Category         RuleCategory      `json:"category"`
	StageID          string            `json:"stage_id,omitempty"`
	Triggered        bool              `json:"triggered"`
	InputValues      map[string]any    `json:"input_values"`
	ConditionResults []ConditionResult `json:"condition_results,omitempty"`
	ConditionResult  bool              `json:"condition_result"`
	ActionApplied    *RuleAction       `json:"action_applied,omitempty"`
	ExecutionTimeMs  float64           `json:"execution_time_ms"`
}

// StageExecutionTrace records one stage's final state and the rule traces
// produced within it. Skipped stages carry an empty rule list.
type StageExecutionTrace struct {
	StageID        string               `json:"stage_id"`
	StageName      string               `json:"stage_name"`
	ExecutionOrder int                  `json:"execution_order"`
	Status         StageStatus          `json:"status"`
	StopOnFail     bool                 `json:"stop_on_fail"`
	Rules          []RuleExecutionTrace `json:"rules"`
}

// EvaluationResult is the complete outcome of evaluating one proposal:
// the decision fields plus the full execution trace.
type EvaluationResult struct {
	ProposalID       string                `json:"proposal_id"`
	STPDecision      string                `json:"stp_decision"`
	CaseType         CaseType              `json:"case_type"`
	CaseTypeLabel    string                `json:"case_type_label"`
	ReasonFlag       ReasonFlag            `json:"reason_flag"`
	ScorecardValue   int                   `json:"scorecard_value"`
	TriggeredRules   []string              `json:"triggered_rules"`
	ValidationErrors []string              `json:"validation_errors"`
	ReasonCodes      []string              `json:"reason_codes"`
	ReasonMessages   []string              `json:"reason_messages"`
	RuleTrace        []RuleExecutionTrace  `json:"rule_trace"`
	StageTrace       []StageExecutionTrace `json:"stage_trace"`
	EvaluationTimeMs float64               `json:"evaluation_time_ms"`
	EvaluatedAt      string                `json:"evaluated_at"`
}
