package engine

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/insurestp/insurestp/internal/logger"
)

// expressionCostLimit bounds CEL evaluation so a runaway authored
// expression cannot exhaust the process.
const expressionCostLimit = 1_000_000

// Evaluator runs proposals through a configuration snapshot. It owns the
// CEL environment for expression rules and a compiled-program cache keyed
// by rule ID and version; both are safe for concurrent use, so one
// Evaluator serves any number of parallel evaluations.
type Evaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewEvaluator creates an evaluator with a CEL environment exposing the
// proposal as a single dynamic variable.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(cel.Variable("proposal", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// expressionResult evaluates a rule's CEL expression against the proposal.
// Compile and evaluation failures are configuration defects: they are
// logged and the rule evaluates false. Non-boolean results are false.
func (e *Evaluator) expressionResult(rule *Rule, proposal Proposal) bool {
	prog, err := e.program(rule)
	if err != nil {
		logger.Warn("expression rule failed to compile", "rule", rule.ID, "error", err)
		return false
	}

	out, _, err := prog.Eval(map[string]any{"proposal": map[string]any(proposal)})
	if err != nil {
		logger.Warn("expression rule evaluation error", "rule", rule.ID, "error", err)
		return false
	}

	matched, ok := out.Value().(bool)
	return ok && matched
}

// program returns the compiled program for a rule, compiling lazily. The
// cache key includes the rule version so an updated expression is
// recompiled rather than served stale.
func (e *Evaluator) program(rule *Rule) (cel.Program, error) {
	key := rule.ID + "#" + strconv.Itoa(rule.Version)

	e.mu.RLock()
	prog, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := e.env.Program(ast, cel.CostLimit(expressionCostLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	e.mu.Lock()
	e.programs[key] = prog
	e.mu.Unlock()

	return prog, nil
}
