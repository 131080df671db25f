// Package store provides persistence for the underwriting configuration
// (rules, stages, scorecards, grids, products) and for evaluation history
// and audit trails. Two implementations exist: an in-memory store for tests
// and single-node development, and a PostgreSQL store for production.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/insurestp/insurestp/engine"
)

// ErrNotFound is returned when a lookup misses. Callers that need to map it
// to a 404 should test with errors.Is.
var ErrNotFound = errors.New("not found")

// RuleFilter narrows rule listings. Zero values mean "no constraint".
// Search matches case-insensitively against name and description.
type RuleFilter struct {
	Category    engine.RuleCategory
	Product     engine.ProductType
	StageID     string
	EnabledOnly bool
	Search      string
}

// RuleStore manages rule persistence and retrieval.
type RuleStore interface {
	AddRule(ctx context.Context, rule *engine.Rule) error
	GetRule(ctx context.Context, id string) (*engine.Rule, error)
	ListRules(ctx context.Context, filter RuleFilter) ([]*engine.Rule, error)
	UpdateRule(ctx context.Context, rule *engine.Rule) error
	ToggleRule(ctx context.Context, id string) (*engine.Rule, error)
	DeleteRule(ctx context.Context, id string) error
}

// StageStore manages execution stage persistence.
type StageStore interface {
	AddStage(ctx context.Context, stage *engine.Stage) error
	GetStage(ctx context.Context, id string) (*engine.Stage, error)
	ListStages(ctx context.Context) ([]*engine.Stage, error)
	UpdateStage(ctx context.Context, stage *engine.Stage) error
	DeleteStage(ctx context.Context, id string) error
}

// ScorecardStore manages scorecard persistence.
type ScorecardStore interface {
	AddScorecard(ctx context.Context, sc *engine.Scorecard) error
	GetScorecard(ctx context.Context, id string) (*engine.Scorecard, error)
	ListScorecards(ctx context.Context) ([]*engine.Scorecard, error)
	UpdateScorecard(ctx context.Context, sc *engine.Scorecard) error
	DeleteScorecard(ctx context.Context, id string) error
}

// GridStore manages grid persistence.
type GridStore interface {
	AddGrid(ctx context.Context, grid *engine.Grid) error
	GetGrid(ctx context.Context, id string) (*engine.Grid, error)
	ListGrids(ctx context.Context) ([]*engine.Grid, error)
	UpdateGrid(ctx context.Context, grid *engine.Grid) error
	DeleteGrid(ctx context.Context, id string) error
}

// ProductStore manages product persistence.
type ProductStore interface {
	AddProduct(ctx context.Context, p *engine.Product) error
	GetProduct(ctx context.Context, id string) (*engine.Product, error)
	ListProducts(ctx context.Context) ([]*engine.Product, error)
	UpdateProduct(ctx context.Context, p *engine.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// EvaluationRecord is one persisted evaluation outcome, kept for history
// and dashboard statistics.
type EvaluationRecord struct {
	ID         string                   `json:"id"`
	ProposalID string                   `json:"proposal_id"`
	Product    engine.ProductType       `json:"product"`
	Result     *engine.EvaluationResult `json:"result"`
	CreatedAt  time.Time                `json:"created_at"`
}

// EvaluationFilter narrows evaluation history listings. Zero values mean
// "no constraint"; a non-positive limit falls back to a store default.
type EvaluationFilter struct {
	Decision string
	Limit    int
}

// EvaluationStore keeps evaluation history, newest first.
type EvaluationStore interface {
	AddEvaluation(ctx context.Context, rec *EvaluationRecord) error
	GetEvaluation(ctx context.Context, id string) (*EvaluationRecord, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]*EvaluationRecord, error)
}

// AuditEntry records one mutation of the configuration. PerformedBy
// defaults to "system" when the writer does not attribute the change.
type AuditEntry struct {
	ID          string         `json:"id"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	EntityName  string         `json:"entity_name,omitempty"`
	Action      string         `json:"action"`
	Changes     map[string]any `json:"changes,omitempty"`
	PerformedBy string         `json:"performed_by"`
	PerformedAt time.Time      `json:"performed_at"`
}

// AuditFilter narrows audit trail listings. Zero values mean "no
// constraint".
type AuditFilter struct {
	EntityType string
	Action     string
	Limit      int
}

// AuditStore keeps the configuration audit trail, newest first.
type AuditStore interface {
	AddAudit(ctx context.Context, entry *AuditEntry) error
	ListAudits(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error)
}

// Stores aggregates every store the server needs behind one value so
// handlers take a single dependency.
type Stores interface {
	RuleStore
	StageStore
	ScorecardStore
	GridStore
	ProductStore
	EvaluationStore
	AuditStore
}

// LoadSnapshot reads the full decision configuration from a Stores value.
// It is the single source snapshot caches rebuild from.
func LoadSnapshot(ctx context.Context, s Stores) (*engine.Snapshot, error) {
	rules, err := s.ListRules(ctx, RuleFilter{EnabledOnly: true})
	if err != nil {
		return nil, err
	}
	stages, err := s.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	scorecards, err := s.ListScorecards(ctx)
	if err != nil {
		return nil, err
	}
	grids, err := s.ListGrids(ctx)
	if err != nil {
		return nil, err
	}
	return &engine.Snapshot{
		Rules:      rules,
		Stages:     stages,
		Scorecards: scorecards,
		Grids:      grids,
	}, nil
}
