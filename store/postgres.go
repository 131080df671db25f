package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/insurestp/insurestp/engine"
)

// Postgres implements Stores backed by PostgreSQL. Structured sub-documents
// (condition groups, actions, scorecard parameters, grid cells, evaluation
// results) are stored as JSONB; product and case-type sets use native
// arrays.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed store around an open connection
// pool. The schema is managed by the migrate command, not here.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return data, nil
}

func productStrings(products []engine.ProductType) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = string(p)
	}
	return out
}

func toProducts(values []string) []engine.ProductType {
	out := make([]engine.ProductType, len(values))
	for i, v := range values {
		out[i] = engine.ProductType(v)
	}
	return out
}

func caseTypeInts(caseTypes []engine.CaseType) []int64 {
	out := make([]int64, len(caseTypes))
	for i, c := range caseTypes {
		out[i] = int64(c)
	}
	return out
}

func toCaseTypes(values []int64) []engine.CaseType {
	out := make([]engine.CaseType, len(values))
	for i, v := range values {
		out[i] = engine.CaseType(v)
	}
	return out
}

// ---- rules ----

const ruleColumns = `id, name, description, category, stage_id, condition_group, expression,
	action, priority, is_enabled, effective_from, effective_to, products, case_types,
	version, created_at, updated_at`

func (s *Postgres) AddRule(ctx context.Context, rule *engine.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if rule.Version == 0 {
		rule.Version = 1
	}

	conditionGroup, err := marshalJSON(rule.ConditionGroup)
	if err != nil {
		return err
	}
	action, err := marshalJSON(rule.Action)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, rule.ID, rule.Name, rule.Description, rule.Category, rule.StageID,
		conditionGroup, rule.Expression, action, rule.Priority, rule.IsEnabled,
		rule.EffectiveFrom, rule.EffectiveTo,
		pq.Array(productStrings(rule.Products)), pq.Array(caseTypeInts(rule.CaseTypes)),
		rule.Version, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

func scanRule(row interface{ Scan(...any) error }) (*engine.Rule, error) {
	var (
		rule           engine.Rule
		conditionGroup []byte
		action         []byte
		products       []string
		caseTypes      []int64
	)
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Category, &rule.StageID,
		&conditionGroup, &rule.Expression, &action, &rule.Priority, &rule.IsEnabled,
		&rule.EffectiveFrom, &rule.EffectiveTo,
		pq.Array(&products), pq.Array(&caseTypes),
		&rule.Version, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(conditionGroup, &rule.ConditionGroup); err != nil {
		return nil, fmt.Errorf("failed to decode condition group: %w", err)
	}
	if err := json.Unmarshal(action, &rule.Action); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}
	rule.Products = toProducts(products)
	rule.CaseTypes = toCaseTypes(caseTypes)
	return &rule, nil
}

func (s *Postgres) GetRule(ctx context.Context, id string) (*engine.Rule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

func (s *Postgres) ListRules(ctx context.Context, filter RuleFilter) ([]*engine.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE 1=1`
	args := []any{}

	if filter.EnabledOnly {
		query += ` AND is_enabled = true`
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.StageID != "" {
		args = append(args, filter.StageID)
		query += fmt.Sprintf(` AND stage_id = $%d`, len(args))
	}
	if filter.Product != "" {
		args = append(args, string(filter.Product))
		query += fmt.Sprintf(` AND (products = '{}' OR $%d = ANY(products))`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rulesList := []*engine.Rule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rulesList = append(rulesList, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rulesList, nil
}

func (s *Postgres) UpdateRule(ctx context.Context, rule *engine.Rule) error {
	conditionGroup, err := marshalJSON(rule.ConditionGroup)
	if err != nil {
		return err
	}
	action, err := marshalJSON(rule.Action)
	if err != nil {
		return err
	}
	rule.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules
		SET name = $1, description = $2, category = $3, stage_id = $4,
			condition_group = $5, expression = $6, action = $7, priority = $8,
			is_enabled = $9, effective_from = $10, effective_to = $11,
			products = $12, case_types = $13, version = version + 1, updated_at = $14
		WHERE id = $15
	`, rule.Name, rule.Description, rule.Category, rule.StageID,
		conditionGroup, rule.Expression, action, rule.Priority,
		rule.IsEnabled, rule.EffectiveFrom, rule.EffectiveTo,
		pq.Array(productStrings(rule.Products)), pq.Array(caseTypeInts(rule.CaseTypes)),
		rule.UpdatedAt, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return requireRow(result, fmt.Sprintf("rule %s", rule.ID))
}

func (s *Postgres) ToggleRule(ctx context.Context, id string) (*engine.Rule, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rules SET is_enabled = NOT is_enabled, updated_at = $1 WHERE id = $2
	`, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle rule: %w", err)
	}
	return s.GetRule(ctx, id)
}

func (s *Postgres) DeleteRule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return requireRow(result, fmt.Sprintf("rule %s", id))
}

func requireRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// ---- stages ----

func (s *Postgres) AddStage(ctx context.Context, stage *engine.Stage) error {
	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stage.CreatedAt = now
	stage.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stages (id, name, description, execution_order, stop_on_fail, color,
			is_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, stage.ID, stage.Name, stage.Description, stage.ExecutionOrder, stage.StopOnFail,
		stage.Color, stage.IsEnabled, stage.CreatedAt, stage.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stage: %w", err)
	}
	return nil
}

func (s *Postgres) GetStage(ctx context.Context, id string) (*engine.Stage, error) {
	var stage engine.Stage
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, execution_order, stop_on_fail, color,
			is_enabled, created_at, updated_at
		FROM stages WHERE id = $1
	`, id).Scan(&stage.ID, &stage.Name, &stage.Description, &stage.ExecutionOrder,
		&stage.StopOnFail, &stage.Color, &stage.IsEnabled, &stage.CreatedAt, &stage.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stage %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	return &stage, nil
}

func (s *Postgres) ListStages(ctx context.Context) ([]*engine.Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, execution_order, stop_on_fail, color,
			is_enabled, created_at, updated_at
		FROM stages ORDER BY execution_order ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	stages := []*engine.Stage{}
	for rows.Next() {
		var stage engine.Stage
		if err := rows.Scan(&stage.ID, &stage.Name, &stage.Description, &stage.ExecutionOrder,
			&stage.StopOnFail, &stage.Color, &stage.IsEnabled, &stage.CreatedAt, &stage.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, &stage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stages: %w", err)
	}
	return stages, nil
}

func (s *Postgres) UpdateStage(ctx context.Context, stage *engine.Stage) error {
	stage.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE stages
		SET name = $1, description = $2, execution_order = $3, stop_on_fail = $4,
			color = $5, is_enabled = $6, updated_at = $7
		WHERE id = $8
	`, stage.Name, stage.Description, stage.ExecutionOrder, stage.StopOnFail,
		stage.Color, stage.IsEnabled, stage.UpdatedAt, stage.ID)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	return requireRow(result, fmt.Sprintf("stage %s", stage.ID))
}

func (s *Postgres) DeleteStage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stage: %w", err)
	}
	return requireRow(result, fmt.Sprintf("stage %s", id))
}

// ---- scorecards ----

func (s *Postgres) AddScorecard(ctx context.Context, sc *engine.Scorecard) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sc.CreatedAt = now
	sc.UpdatedAt = now

	parameters, err := marshalJSON(sc.Parameters)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scorecards (id, name, description, product, parameters,
			threshold_direct_accept, threshold_normal, threshold_refer,
			is_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sc.ID, sc.Name, sc.Description, sc.Product, parameters,
		sc.ThresholdDirectAccept, sc.ThresholdNormal, sc.ThresholdRefer,
		sc.IsEnabled, sc.CreatedAt, sc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert scorecard: %w", err)
	}
	return nil
}

func scanScorecard(row interface{ Scan(...any) error }) (*engine.Scorecard, error) {
	var (
		sc         engine.Scorecard
		parameters []byte
	)
	err := row.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.Product, &parameters,
		&sc.ThresholdDirectAccept, &sc.ThresholdNormal, &sc.ThresholdRefer,
		&sc.IsEnabled, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parameters, &sc.Parameters); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return &sc, nil
}

func (s *Postgres) GetScorecard(ctx context.Context, id string) (*engine.Scorecard, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, product, parameters,
			threshold_direct_accept, threshold_normal, threshold_refer,
			is_enabled, created_at, updated_at
		FROM scorecards WHERE id = $1
	`, id)
	sc, err := scanScorecard(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scorecard %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scorecard: %w", err)
	}
	return sc, nil
}

func (s *Postgres) ListScorecards(ctx context.Context) ([]*engine.Scorecard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, product, parameters,
			threshold_direct_accept, threshold_normal, threshold_refer,
			is_enabled, created_at, updated_at
		FROM scorecards ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scorecards: %w", err)
	}
	defer rows.Close()

	scorecards := []*engine.Scorecard{}
	for rows.Next() {
		sc, err := scanScorecard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scorecard: %w", err)
		}
		scorecards = append(scorecards, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scorecards: %w", err)
	}
	return scorecards, nil
}

func (s *Postgres) UpdateScorecard(ctx context.Context, sc *engine.Scorecard) error {
	parameters, err := marshalJSON(sc.Parameters)
	if err != nil {
		return err
	}
	sc.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE scorecards
		SET name = $1, description = $2, product = $3, parameters = $4,
			threshold_direct_accept = $5, threshold_normal = $6, threshold_refer = $7,
			is_enabled = $8, updated_at = $9
		WHERE id = $10
	`, sc.Name, sc.Description, sc.Product, parameters,
		sc.ThresholdDirectAccept, sc.ThresholdNormal, sc.ThresholdRefer,
		sc.IsEnabled, sc.UpdatedAt, sc.ID)
	if err != nil {
		return fmt.Errorf("failed to update scorecard: %w", err)
	}
	return requireRow(result, fmt.Sprintf("scorecard %s", sc.ID))
}

func (s *Postgres) DeleteScorecard(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scorecards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scorecard: %w", err)
	}
	return requireRow(result, fmt.Sprintf("scorecard %s", id))
}

// ---- grids ----

func (s *Postgres) AddGrid(ctx context.Context, grid *engine.Grid) error {
	if grid.ID == "" {
		grid.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grid.CreatedAt = now
	grid.UpdatedAt = now

	cells, err := marshalJSON(grid.Cells)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grids (id, name, description, grid_type, row_field, col_field,
			row_labels, col_labels, cells, products, is_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, grid.ID, grid.Name, grid.Description, grid.GridType, grid.RowField, grid.ColField,
		pq.Array(grid.RowLabels), pq.Array(grid.ColLabels), cells,
		pq.Array(productStrings(grid.Products)), grid.IsEnabled, grid.CreatedAt, grid.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert grid: %w", err)
	}
	return nil
}

func scanGrid(row interface{ Scan(...any) error }) (*engine.Grid, error) {
	var (
		grid     engine.Grid
		cells    []byte
		products []string
	)
	err := row.Scan(&grid.ID, &grid.Name, &grid.Description, &grid.GridType,
		&grid.RowField, &grid.ColField,
		pq.Array(&grid.RowLabels), pq.Array(&grid.ColLabels), &cells,
		pq.Array(&products), &grid.IsEnabled, &grid.CreatedAt, &grid.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cells, &grid.Cells); err != nil {
		return nil, fmt.Errorf("failed to decode cells: %w", err)
	}
	grid.Products = toProducts(products)
	return &grid, nil
}

func (s *Postgres) GetGrid(ctx context.Context, id string) (*engine.Grid, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, grid_type, row_field, col_field,
			row_labels, col_labels, cells, products, is_enabled, created_at, updated_at
		FROM grids WHERE id = $1
	`, id)
	grid, err := scanGrid(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("grid %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grid: %w", err)
	}
	return grid, nil
}

func (s *Postgres) ListGrids(ctx context.Context) ([]*engine.Grid, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, grid_type, row_field, col_field,
			row_labels, col_labels, cells, products, is_enabled, created_at, updated_at
		FROM grids ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list grids: %w", err)
	}
	defer rows.Close()

	grids := []*engine.Grid{}
	for rows.Next() {
		grid, err := scanGrid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grid: %w", err)
		}
		grids = append(grids, grid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grids: %w", err)
	}
	return grids, nil
}

func (s *Postgres) UpdateGrid(ctx context.Context, grid *engine.Grid) error {
	cells, err := marshalJSON(grid.Cells)
	if err != nil {
		return err
	}
	grid.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE grids
		SET name = $1, description = $2, grid_type = $3, row_field = $4, col_field = $5,
			row_labels = $6, col_labels = $7, cells = $8, products = $9,
			is_enabled = $10, updated_at = $11
		WHERE id = $12
	`, grid.Name, grid.Description, grid.GridType, grid.RowField, grid.ColField,
		pq.Array(grid.RowLabels), pq.Array(grid.ColLabels), cells,
		pq.Array(productStrings(grid.Products)), grid.IsEnabled, grid.UpdatedAt, grid.ID)
	if err != nil {
		return fmt.Errorf("failed to update grid: %w", err)
	}
	return requireRow(result, fmt.Sprintf("grid %s", grid.ID))
}

func (s *Postgres) DeleteGrid(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM grids WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grid: %w", err)
	}
	return requireRow(result, fmt.Sprintf("grid %s", id))
}

// ---- products ----

func (s *Postgres) AddProduct(ctx context.Context, p *engine.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, code, name, product_type, description,
			min_age, max_age, min_sum_assured, max_sum_assured, min_premium,
			is_enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.Code, p.Name, p.ProductType, p.Description,
		p.MinAge, p.MaxAge, p.MinSumAssured, p.MaxSumAssured, p.MinPremium,
		p.IsEnabled, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (s *Postgres) GetProduct(ctx context.Context, id string) (*engine.Product, error) {
	var p engine.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, product_type, description,
			min_age, max_age, min_sum_assured, max_sum_assured, min_premium,
			is_enabled, created_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Code, &p.Name, &p.ProductType, &p.Description,
		&p.MinAge, &p.MaxAge, &p.MinSumAssured, &p.MaxSumAssured, &p.MinPremium,
		&p.IsEnabled, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *Postgres) ListProducts(ctx context.Context) ([]*engine.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, product_type, description,
			min_age, max_age, min_sum_assured, max_sum_assured, min_premium,
			is_enabled, created_at
		FROM products ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*engine.Product{}
	for rows.Next() {
		var p engine.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.ProductType, &p.Description,
			&p.MinAge, &p.MaxAge, &p.MinSumAssured, &p.MaxSumAssured, &p.MinPremium,
			&p.IsEnabled, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (s *Postgres) UpdateProduct(ctx context.Context, p *engine.Product) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET code = $1, name = $2, product_type = $3, description = $4,
			min_age = $5, max_age = $6, min_sum_assured = $7, max_sum_assured = $8,
			min_premium = $9, is_enabled = $10
		WHERE id = $11
	`, p.Code, p.Name, p.ProductType, p.Description,
		p.MinAge, p.MaxAge, p.MinSumAssured, p.MaxSumAssured,
		p.MinPremium, p.IsEnabled, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireRow(result, fmt.Sprintf("product %s", p.ID))
}

func (s *Postgres) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRow(result, fmt.Sprintf("product %s", id))
}

// ---- evaluations ----

func (s *Postgres) AddEvaluation(ctx context.Context, rec *EvaluationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()

	result, err := marshalJSON(rec.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluations (id, proposal_id, product, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.ProposalID, rec.Product, result, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

func (s *Postgres) GetEvaluation(ctx context.Context, id string) (*EvaluationRecord, error) {
	var (
		rec    EvaluationRecord
		result []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, proposal_id, product, result, created_at
		FROM evaluations WHERE id = $1
	`, id).Scan(&rec.ID, &rec.ProposalID, &rec.Product, &result, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &rec, nil
}

func (s *Postgres) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]*EvaluationRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, proposal_id, product, result, created_at FROM evaluations WHERE 1=1`
	args := []any{}
	if filter.Decision != "" {
		args = append(args, filter.Decision)
		query += fmt.Sprintf(` AND result->>'stp_decision' = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	records := []*EvaluationRecord{}
	for rows.Next() {
		var (
			rec    EvaluationRecord
			result []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ProposalID, &rec.Product, &result, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		if err := json.Unmarshal(result, &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluations: %w", err)
	}
	return records, nil
}

// ---- audit ----

func (s *Postgres) AddAudit(ctx context.Context, entry *AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.PerformedBy == "" {
		entry.PerformedBy = "system"
	}
	entry.PerformedAt = time.Now().UTC()

	changes := entry.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	encoded, err := marshalJSON(changes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, entity_type, entity_id, entity_name, action,
			changes, performed_by, performed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.EntityType, entry.EntityID, entry.EntityName, entry.Action,
		encoded, entry.PerformedBy, entry.PerformedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (s *Postgres) ListAudits(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, entity_type, entity_id, entity_name, action,
		changes, performed_by, performed_at FROM audit_logs WHERE 1=1`
	args := []any{}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(` AND entity_type = $%d`, len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(` AND action = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY performed_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*AuditEntry{}
	for rows.Next() {
		var (
			entry   AuditEntry
			changes []byte
		)
		if err := rows.Scan(&entry.ID, &entry.EntityType, &entry.EntityID,
			&entry.EntityName, &entry.Action, &changes,
			&entry.PerformedBy, &entry.PerformedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode audit changes: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return entries, nil
}
