package engine

import (
	"encoding/json"
	"time"
)

// Proposal is the flat/nested applicant+policy record a single evaluation
// runs against. Values are whatever the JSON decoder produced.
type Proposal map[string]any

// RuleCategory buckets rules by the concern they address.
type RuleCategory string

const (
	CategorySTPDecision    RuleCategory = "stp_decision"
	CategoryCaseType       RuleCategory = "case_type"
	CategoryReasonFlag     RuleCategory = "reason_flag"
	CategoryScorecard      RuleCategory = "scorecard"
	CategoryIncomeSAGrid   RuleCategory = "income_sa_grid"
	CategoryBMIGrid        RuleCategory = "bmi_grid"
	CategoryOccupation     RuleCategory = "occupation"
	CategoryAgentChannel   RuleCategory = "agent_channel"
	CategoryAddressPincode RuleCategory = "address_pincode"
	CategoryValidation     RuleCategory = "validation"
)

// Operator identifies a leaf predicate comparison.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
	OpBetween            Operator = "between"
	OpContains           Operator = "contains"
	OpStartsWith         Operator = "starts_with"
	OpIsEmpty            Operator = "is_empty"
	OpIsNotEmpty         Operator = "is_not_empty"
)

// LogicalOperator combines the children of a condition group.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// CaseType classifies how a proposal is routed after evaluation. The numeric
// values are wire-level and consumed by downstream policy systems.
type CaseType int

const (
	CaseNormal       CaseType = 0
	CaseDirectAccept CaseType = 1
	CaseDirectFail   CaseType = -1
	CaseGCRP         CaseType = 3
)

// Label returns the display name for a case type.
func (c CaseType) Label() string {
	switch c {
	case CaseNormal:
		return "Normal Case"
	case CaseDirectAccept:
		return "Direct Accept"
	case CaseDirectFail:
		return "Direct Fail"
	case CaseGCRP:
		return "GCRP Case"
	default:
		return "Unknown"
	}
}

// ReasonFlag signals whether failure reasons should be surfaced downstream.
type ReasonFlag int

const (
	ReasonFlagFailPrint   ReasonFlag = 1
	ReasonFlagPassSkip    ReasonFlag = 0
	ReasonFlagNotProvided ReasonFlag = -1
)

// ProductType identifies the insurance product family.
type ProductType string

const (
	ProductTermLife  ProductType = "term_life"
	ProductEndowment ProductType = "endowment"
	ProductULIP      ProductType = "ulip"
)

// STP decision verdicts.
const (
	DecisionPass = "PASS"
	DecisionFail = "FAIL"
)

// Condition is a leaf predicate: field path, operator and literal operand(s).
// Value2 is only meaningful for the between operator.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
	Value2   any      `json:"value2,omitempty"`
}

// ConditionNode is the tagged union of a leaf Condition and a nested
// ConditionGroup. Exactly one of the two is non-nil.
type ConditionNode struct {
	Leaf  *Condition
	Group *ConditionGroup
}

// UnmarshalJSON discriminates by shape: any object carrying a conditions
// list or a logical operator key is a group, everything else is a leaf.
// Both snake_case and camelCase group keys are accepted on input.
func (n *ConditionNode) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	_, hasConditions := probe["conditions"]
	_, hasLogical := probe["logical_operator"]
	_, hasLogicalCamel := probe["logicalOperator"]

	if hasConditions || hasLogical || hasLogicalCamel {
		var g ConditionGroup
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		n.Group = &g
		n.Leaf = nil
		return nil
	}

	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	n.Leaf = &c
	n.Group = nil
	return nil
}

// MarshalJSON writes whichever side of the union is populated.
func (n ConditionNode) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	return json.Marshal(n.Leaf)
}

// ConditionGroup combines leaves and nested groups with AND/OR and optional
// negation. An empty group is vacuously true.
type ConditionGroup struct {
	LogicalOperator LogicalOperator `json:"logical_operator"`
	Conditions      []ConditionNode `json:"conditions"`
	IsNegated       bool            `json:"is_negated"`
}

// UnmarshalJSON accepts both snake_case (canonical) and camelCase keys, the
// latter produced by older authoring tools.
func (g *ConditionGroup) UnmarshalJSON(data []byte) error {
	type alias struct {
		LogicalOperator      LogicalOperator `json:"logical_operator"`
		LogicalOperatorCamel LogicalOperator `json:"logicalOperator"`
		Conditions           []ConditionNode `json:"conditions"`
		IsNegated            bool            `json:"is_negated"`
		IsNegatedCamel       bool            `json:"isNegated"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	g.LogicalOperator = a.LogicalOperator
	if g.LogicalOperator == "" {
		g.LogicalOperator = a.LogicalOperatorCamel
	}
	if g.LogicalOperator == "" {
		g.LogicalOperator = LogicalAnd
	}
	g.Conditions = a.Conditions
	g.IsNegated = a.IsNegated || a.IsNegatedCamel
	return nil
}

// RuleAction describes the effect of a triggered rule on the decision
// context. Pointer fields distinguish "absent" from a zero value.
type RuleAction struct {
	Decision      string    `json:"decision,omitempty"`
	ScoreImpact   *int      `json:"score_impact,omitempty"`
	CaseType      *CaseType `json:"case_type,omitempty"`
	ReasonCode    string    `json:"reason_code,omitempty"`
	ReasonMessage string    `json:"reason_message,omitempty"`
	IsHardStop    bool      `json:"is_hard_stop,omitempty"`
}

// Rule is one externally authored decision rule. A rule triggers when its
// condition group (or, if set, its CEL expression) evaluates true against
// the proposal. EffectiveFrom/To are RFC 3339 strings compared lexically;
// empty means open-ended.
type Rule struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Category       RuleCategory   `json:"category"`
	StageID        string         `json:"stage_id,omitempty"`
	ConditionGroup ConditionGroup `json:"condition_group"`
	Expression     string         `json:"expression,omitempty"`
	Action         RuleAction     `json:"action"`
	Priority       int            `json:"priority"`
	IsEnabled      bool           `json:"is_enabled"`
	EffectiveFrom  string         `json:"effective_from,omitempty"`
	EffectiveTo    string         `json:"effective_to,omitempty"`
	Products       []ProductType  `json:"products"`
	CaseTypes      []CaseType     `json:"case_types"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Stage is an ordered bucket of rules with its own pass/fail/skip outcome.
// Lower ExecutionOrder runs earlier; ties are broken by ID.
type Stage struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	ExecutionOrder int       `json:"execution_order"`
	StopOnFail     bool      `json:"stop_on_fail"`
	Color          string    `json:"color,omitempty"`
	IsEnabled      bool      `json:"is_enabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Band maps a closed numeric interval to a score contribution. A nil bound
// is open (-inf / +inf).
type Band struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Score float64  `json:"score"`
	Label string   `json:"label,omitempty"`
}

// ScorecardParameter scores one proposal field through an ordered band
// table; the first containing band wins.
type ScorecardParameter struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Field  string  `json:"field"`
	Weight float64 `json:"weight"`
	Bands  []Band  `json:"bands"`
}

// Scorecard is a weighted band table bound to one product, with thresholds
// that can shift the case type once its parameters are summed.
type Scorecard struct {
	ID                    string               `json:"id"`
	Name                  string               `json:"name"`
	Description           string               `json:"description,omitempty"`
	Product               ProductType          `json:"product"`
	Parameters            []ScorecardParameter `json:"parameters"`
	ThresholdDirectAccept int                  `json:"threshold_direct_accept"`
	ThresholdNormal       int                  `json:"threshold_normal"`
	ThresholdRefer        int                  `json:"threshold_refer"`
	IsEnabled             bool                 `json:"is_enabled"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// Grid outcome cell results.
const (
	GridAccept  = "ACCEPT"
	GridRefer   = "REFER"
	GridDecline = "DECLINE"
)

// GridCell maps one (row, col) bucket pair to an outcome. Bucket values are
// opaque strings matched exactly.
type GridCell struct {
	RowValue    string `json:"row_value"`
	ColValue    string `json:"col_value"`
	Result      string `json:"result"`
	ScoreImpact int    `json:"score_impact,omitempty"`
}

// Grid is a two-dimensional bucket lookup table. Row/Col labels are for the
// authoring UI only and are never evaluated.
type Grid struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	GridType    string        `json:"grid_type"`
	RowField    string        `json:"row_field"`
	ColField    string        `json:"col_field"`
	RowLabels   []string      `json:"row_labels"`
	ColLabels   []string      `json:"col_labels"`
	Cells       []GridCell    `json:"cells"`
	Products    []ProductType `json:"products"`
	IsEnabled   bool          `json:"is_enabled"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Product is a sellable insurance product definition. The engine only reads
// its type; the limits are enforced by authored validation rules.
type Product struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	ProductType   ProductType `json:"product_type"`
	Description   string      `json:"description,omitempty"`
	MinAge        int         `json:"min_age"`
	MaxAge        int         `json:"max_age"`
	MinSumAssured int         `json:"min_sum_assured"`
	MaxSumAssured int         `json:"max_sum_assured"`
	MinPremium    int         `json:"min_premium"`
	IsEnabled     bool        `json:"is_enabled"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Snapshot is one read-only view of the full decision configuration. A
// single snapshot may be shared by any number of concurrent evaluations.
type Snapshot struct {
	Rules      []*Rule
	Stages     []*Stage
	Scorecards []*Scorecard
	Grids      []*Grid
}
