package engine

import (
	"math"
	"sort"
	"time"
)

// UnassignedStageID names the implicit pseudo-stage that collects rules
// without a stage reference (or with an unknown one). It always executes
// last and cannot halt the pipeline.
const UnassignedStageID = "unassigned"

// Evaluate runs one proposal through a configuration snapshot and returns
// the decision plus the full execution trace. It is a pure function of its
// inputs apart from the expression-program cache: the snapshot is read-only
// and all mutable state lives in a per-call decision context, so callers
// may fan proposals out across goroutines against one shared snapshot.
//
// Stages execute in ascending execution order (ties broken by ID), each
// running its applicable rules in ascending priority. A failed stage with
// StopOnFail halts the sequence: every later stage is traced as skipped and
// the scorecard and grid steps, which close the sequence, do not run.
func (e *Evaluator) Evaluate(proposal Proposal, snap *Snapshot) *EvaluationResult {
	start := time.Now()
	now := start

	product := ProductType(formatValue(proposal["product_type"]))
	dc := newDecisionContext()

	stages, rulesByStage := planStages(snap)

	ruleTrace := []RuleExecutionTrace{}
	stageTrace := make([]StageExecutionTrace, 0, len(stages))
	halted := false

	for _, stage := range stages {
		entry := StageExecutionTrace{
			StageID:        stage.ID,
			StageName:      stage.Name,
			ExecutionOrder: stage.ExecutionOrder,
			StopOnFail:     stage.StopOnFail,
			Rules:          []RuleExecutionTrace{},
		}

		if halted || !stage.IsEnabled {
			entry.Status = StageSkipped
			stageTrace = append(stageTrace, entry)
			continue
		}

		failed := false
		for _, rule := range rulesByStage[stage.ID] {
			if !ruleApplicable(rule, product, dc.caseType, now) {
				continue
			}

			trace := e.runRule(rule, proposal, dc)
			entry.Rules = append(entry.Rules, trace)
			ruleTrace = append(ruleTrace, trace)

			if trace.Triggered && (rule.Action.IsHardStop || rule.Action.Decision == DecisionFail) {
				failed = true
			}
		}

		if failed {
			entry.Status = StageFailed
			if stage.StopOnFail {
				halted = true
			}
		} else {
			entry.Status = StagePassed
		}
		stageTrace = append(stageTrace, entry)
	}

	if !halted {
		for _, sc := range snap.Scorecards {
			if sc.IsEnabled && sc.Product == product {
				applyScorecard(dc, sc, proposal)
			}
		}
		for _, grid := range snap.Grids {
			if !grid.IsEnabled {
				continue
			}
			if len(grid.Products) > 0 && !containsProduct(grid.Products, product) {
				continue
			}
			applyGrid(dc, grid, proposal)
		}
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000

	return &EvaluationResult{
		ProposalID:       formatValue(proposal["proposal_id"]),
		STPDecision:      dc.stpDecision,
		CaseType:         dc.caseType,
		CaseTypeLabel:    dc.caseType.Label(),
		ReasonFlag:       dc.reasonFlag,
		ScorecardValue:   dc.score,
		TriggeredRules:   dc.triggeredRules,
		ValidationErrors: dc.validationErrors,
		ReasonCodes:      dedupe(dc.reasonCodes),
		ReasonMessages:   dedupe(dc.reasonMessages),
		RuleTrace:        ruleTrace,
		StageTrace:       stageTrace,
		EvaluationTimeMs: math.Round(elapsed*100) / 100,
		EvaluatedAt:      now.UTC().Format(time.RFC3339),
	}
}

// runRule evaluates one applicable rule and, if it triggers, merges its
// action into the decision context.
func (e *Evaluator) runRule(rule *Rule, proposal Proposal, dc *decisionContext) RuleExecutionTrace {
	ruleStart := time.Now()

	inputs := make(map[string]any)
	collectInputs(&rule.ConditionGroup, proposal, inputs)

	var conditionResults []ConditionResult
	var triggered bool
	if rule.Expression != "" {
		triggered = e.expressionResult(rule, proposal)
	} else {
		triggered = evaluateGroup(&rule.ConditionGroup, proposal, &conditionResults)
	}

	trace := RuleExecutionTrace{
		RuleID:           rule.ID,
		RuleName:         rule.Name,
		Category:         rule.Category,
		StageID:          rule.StageID,
		Triggered:        triggered,
		InputValues:      inputs,
		ConditionResults: conditionResults,
		ConditionResult:  triggered,
		ExecutionTimeMs:  float64(time.Since(ruleStart).Microseconds()) / 1000,
	}

	if triggered {
		action := rule.Action
		trace.ActionApplied = &action
		dc.applyAction(rule.Name, rule.Category, rule.Action)
	}

	return trace
}

// planStages orders the snapshot's stages and buckets rules per stage.
// Rules referencing no stage, or an unknown one, fall into the unassigned
// pseudo-stage appended at the end; it is emitted only when non-empty.
// Within a stage, rules run in ascending priority with snapshot order
// preserved for equal priorities — never storage iteration order.
func planStages(snap *Snapshot) ([]*Stage, map[string][]*Rule) {
	stages := make([]*Stage, len(snap.Stages))
	copy(stages, snap.Stages)
	sort.SliceStable(stages, func(i, j int) bool {
		if stages[i].ExecutionOrder != stages[j].ExecutionOrder {
			return stages[i].ExecutionOrder < stages[j].ExecutionOrder
		}
		return stages[i].ID < stages[j].ID
	})

	known := make(map[string]struct{}, len(stages))
	for _, s := range stages {
		known[s.ID] = struct{}{}
	}

	rules := make([]*Rule, len(snap.Rules))
	copy(rules, snap.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	byStage := make(map[string][]*Rule)
	for _, r := range rules {
		stageID := r.StageID
		if _, ok := known[stageID]; !ok {
			stageID = UnassignedStageID
		}
		byStage[stageID] = append(byStage[stageID], r)
	}

	if len(byStage[UnassignedStageID]) > 0 {
		// Ordered after every configured stage so the trace reads in
		// execution order.
		order := 0
		if len(stages) > 0 {
			order = stages[len(stages)-1].ExecutionOrder + 1
		}
		stages = append(stages, &Stage{
			ID:             UnassignedStageID,
			Name:           "Unassigned",
			ExecutionOrder: order,
			IsEnabled:      true,
			StopOnFail:     false,
		})
	}

	return stages, byStage
}
