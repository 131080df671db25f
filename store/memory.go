package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insurestp/insurestp/engine"
)

// Memory implements Stores with in-process maps. Thread-safe with an
// RWMutex. Listings preserve insertion order so snapshot construction is
// deterministic, which matters for equal-priority rules and for scorecard
// ordering.
type Memory struct {
	mu sync.RWMutex

	rules     map[string]*engine.Rule
	ruleOrder []string

	stages     map[string]*engine.Stage
	stageOrder []string

	scorecards     map[string]*engine.Scorecard
	scorecardOrder []string

	grids     map[string]*engine.Grid
	gridOrder []string

	products     map[string]*engine.Product
	productOrder []string

	evaluations []*EvaluationRecord
	audits      []*AuditEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		rules:      make(map[string]*engine.Rule),
		stages:     make(map[string]*engine.Stage),
		scorecards: make(map[string]*engine.Scorecard),
		grids:      make(map[string]*engine.Grid),
		products:   make(map[string]*engine.Product),
	}
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// ---- rules ----

func (m *Memory) AddRule(ctx context.Context, rule *engine.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if _, exists := m.rules[rule.ID]; exists {
		return fmt.Errorf("rule with ID %s already exists", rule.ID)
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if rule.Version == 0 {
		rule.Version = 1
	}
	m.rules[rule.ID] = rule
	m.ruleOrder = append(m.ruleOrder, rule.ID)
	return nil
}

func (m *Memory) GetRule(ctx context.Context, id string) (*engine.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rule, exists := m.rules[id]
	if !exists {
		return nil, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	return rule, nil
}

func (m *Memory) ListRules(ctx context.Context, filter RuleFilter) ([]*engine.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []*engine.Rule{}
	for _, id := range m.ruleOrder {
		rule := m.rules[id]
		if filter.EnabledOnly && !rule.IsEnabled {
			continue
		}
		if filter.Category != "" && rule.Category != filter.Category {
			continue
		}
		if filter.StageID != "" && rule.StageID != filter.StageID {
			continue
		}
		if filter.Product != "" && len(rule.Products) > 0 && !hasProduct(rule.Products, filter.Product) {
			continue
		}
		if filter.Search != "" && !ruleMatchesSearch(rule, filter.Search) {
			continue
		}
		matched = append(matched, rule)
	}
	return matched, nil
}

func (m *Memory) UpdateRule(ctx context.Context, rule *engine.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.rules[rule.ID]
	if !exists {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrNotFound)
	}

	// Preserve original CreatedAt, bump the version so cached expression
	// programs recompile.
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	rule.Version = existing.Version + 1
	m.rules[rule.ID] = rule
	return nil
}

func (m *Memory) ToggleRule(ctx context.Context, id string) (*engine.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, exists := m.rules[id]
	if !exists {
		return nil, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	rule.IsEnabled = !rule.IsEnabled
	rule.UpdatedAt = time.Now().UTC()
	return rule, nil
}

func (m *Memory) DeleteRule(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rules[id]; !exists {
		return fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	delete(m.rules, id)
	m.ruleOrder = removeID(m.ruleOrder, id)
	return nil
}

func ruleMatchesSearch(rule *engine.Rule, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(rule.Name), needle) ||
		strings.Contains(strings.ToLower(rule.Description), needle)
}

func hasProduct(products []engine.ProductType, p engine.ProductType) bool {
	for _, v := range products {
		if v == p {
			return true
		}
	}
	return false
}

// ---- stages ----

func (m *Memory) AddStage(ctx context.Context, stage *engine.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}
	if _, exists := m.stages[stage.ID]; exists {
		return fmt.Errorf("stage with ID %s already exists", stage.ID)
	}

	now := time.Now().UTC()
	stage.CreatedAt = now
	stage.UpdatedAt = now
	m.stages[stage.ID] = stage
	m.stageOrder = append(m.stageOrder, stage.ID)
	return nil
}

func (m *Memory) GetStage(ctx context.Context, id string) (*engine.Stage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stage, exists := m.stages[id]
	if !exists {
		return nil, fmt.Errorf("stage %s: %w", id, ErrNotFound)
	}
	return stage, nil
}

func (m *Memory) ListStages(ctx context.Context) ([]*engine.Stage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stages := make([]*engine.Stage, 0, len(m.stageOrder))
	for _, id := range m.stageOrder {
		stages = append(stages, m.stages[id])
	}
	return stages, nil
}

func (m *Memory) UpdateStage(ctx context.Context, stage *engine.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.stages[stage.ID]
	if !exists {
		return fmt.Errorf("stage %s: %w", stage.ID, ErrNotFound)
	}
	stage.CreatedAt = existing.CreatedAt
	stage.UpdatedAt = time.Now().UTC()
	m.stages[stage.ID] = stage
	return nil
}

func (m *Memory) DeleteStage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stages[id]; !exists {
		return fmt.Errorf("stage %s: %w", id, ErrNotFound)
	}
	delete(m.stages, id)
	m.stageOrder = removeID(m.stageOrder, id)
	return nil
}

// ---- scorecards ----

func (m *Memory) AddScorecard(ctx context.Context, sc *engine.Scorecard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if _, exists := m.scorecards[sc.ID]; exists {
		return fmt.Errorf("scorecard with ID %s already exists", sc.ID)
	}

	now := time.Now().UTC()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	m.scorecards[sc.ID] = sc
	m.scorecardOrder = append(m.scorecardOrder, sc.ID)
	return nil
}

func (m *Memory) GetScorecard(ctx context.Context, id string) (*engine.Scorecard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, exists := m.scorecards[id]
	if !exists {
		return nil, fmt.Errorf("scorecard %s: %w", id, ErrNotFound)
	}
	return sc, nil
}

func (m *Memory) ListScorecards(ctx context.Context) ([]*engine.Scorecard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scorecards := make([]*engine.Scorecard, 0, len(m.scorecardOrder))
	for _, id := range m.scorecardOrder {
		scorecards = append(scorecards, m.scorecards[id])
	}
	return scorecards, nil
}

func (m *Memory) UpdateScorecard(ctx context.Context, sc *engine.Scorecard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.scorecards[sc.ID]
	if !exists {
		return fmt.Errorf("scorecard %s: %w", sc.ID, ErrNotFound)
	}
	sc.CreatedAt = existing.CreatedAt
	sc.UpdatedAt = time.Now().UTC()
	m.scorecards[sc.ID] = sc
	return nil
}

func (m *Memory) DeleteScorecard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.scorecards[id]; !exists {
		return fmt.Errorf("scorecard %s: %w", id, ErrNotFound)
	}
	delete(m.scorecards, id)
	m.scorecardOrder = removeID(m.scorecardOrder, id)
	return nil
}

// ---- grids ----

func (m *Memory) AddGrid(ctx context.Context, grid *engine.Grid) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if grid.ID == "" {
		grid.ID = uuid.NewString()
	}
	if _, exists := m.grids[grid.ID]; exists {
		return fmt.Errorf("grid with ID %s already exists", grid.ID)
	}

	now := time.Now().UTC()
	grid.CreatedAt = now
	grid.UpdatedAt = now
	m.grids[grid.ID] = grid
	m.gridOrder = append(m.gridOrder, grid.ID)
	return nil
}

func (m *Memory) GetGrid(ctx context.Context, id string) (*engine.Grid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	grid, exists := m.grids[id]
	if !exists {
		return nil, fmt.Errorf("grid %s: %w", id, ErrNotFound)
	}
	return grid, nil
}

func (m *Memory) ListGrids(ctx context.Context) ([]*engine.Grid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	grids := make([]*engine.Grid, 0, len(m.gridOrder))
	for _, id := range m.gridOrder {
		grids = append(grids, m.grids[id])
	}
	return grids, nil
}

func (m *Memory) UpdateGrid(ctx context.Context, grid *engine.Grid) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.grids[grid.ID]
	if !exists {
		return fmt.Errorf("grid %s: %w", grid.ID, ErrNotFound)
	}
	grid.CreatedAt = existing.CreatedAt
	grid.UpdatedAt = time.Now().UTC()
	m.grids[grid.ID] = grid
	return nil
}

func (m *Memory) DeleteGrid(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.grids[id]; !exists {
		return fmt.Errorf("grid %s: %w", id, ErrNotFound)
	}
	delete(m.grids, id)
	m.gridOrder = removeID(m.gridOrder, id)
	return nil
}

// ---- products ----

func (m *Memory) AddProduct(ctx context.Context, p *engine.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := m.products[p.ID]; exists {
		return fmt.Errorf("product with ID %s already exists", p.ID)
	}

	p.CreatedAt = time.Now().UTC()
	m.products[p.ID] = p
	m.productOrder = append(m.productOrder, p.ID)
	return nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*engine.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.products[id]
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *Memory) ListProducts(ctx context.Context) ([]*engine.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]*engine.Product, 0, len(m.productOrder))
	for _, id := range m.productOrder {
		products = append(products, m.products[id])
	}
	return products, nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p *engine.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.products[p.ID]
	if !exists {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	p.CreatedAt = existing.CreatedAt
	m.products[p.ID] = p
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[id]; !exists {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(m.products, id)
	m.productOrder = removeID(m.productOrder, id)
	return nil
}

// ---- evaluations ----

func (m *Memory) AddEvaluation(ctx context.Context, rec *EvaluationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()
	m.evaluations = append(m.evaluations, rec)
	return nil
}

func (m *Memory) GetEvaluation(ctx context.Context, id string) (*EvaluationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.evaluations {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
}

func (m *Memory) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]*EvaluationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Newest first
	out := []*EvaluationRecord{}
	for i := len(m.evaluations) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		rec := m.evaluations[i]
		if filter.Decision != "" && (rec.Result == nil || rec.Result.STPDecision != filter.Decision) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ---- audit ----

func (m *Memory) AddAudit(ctx context.Context, entry *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.PerformedBy == "" {
		entry.PerformedBy = "system"
	}
	entry.PerformedAt = time.Now().UTC()
	m.audits = append(m.audits, entry)
	return nil
}

func (m *Memory) ListAudits(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*AuditEntry{}
	for i := len(m.audits) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		entry := m.audits[i]
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
