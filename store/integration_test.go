//go:build integration
// +build integration

package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/insurestp/insurestp/engine"
	"github.com/insurestp/insurestp/store"

	_ "github.com/lib/pq"
)

// setupTestDB creates a PostgreSQL container and returns a connection
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "insurestp_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=test password=test dbname=insurestp_test sslmode=disable", host, port.Port())

	// Wait for connection to be available
	var db *sql.DB
	for i := 0; i < 30; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	migrationSQL, err := os.ReadFile(filepath.Join("..", "migrations", "0001_init.up.sql"))
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}
	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgresContainer.Terminate(ctx)
	}

	return db, cleanup
}

func sampleRule(name string) *engine.Rule {
	return &engine.Rule{
		Name:     name,
		Category: engine.CategorySTPDecision,
		ConditionGroup: engine.ConditionGroup{
			LogicalOperator: engine.LogicalAnd,
			Conditions: []engine.ConditionNode{
				{Leaf: &engine.Condition{Field: "sum_assured", Operator: engine.OpGreaterThan, Value: 10_000_000}},
			},
		},
		Action:    engine.RuleAction{Decision: engine.DecisionFail, ReasonCode: "STP001", ReasonMessage: "over the limit"},
		Priority:  20,
		IsEnabled: true,
		Products:  []engine.ProductType{engine.ProductTermLife},
		CaseTypes: []engine.CaseType{},
	}
}

func TestPostgresRuleCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := store.NewPostgres(db)
	ctx := context.Background()

	rule := sampleRule("integration rule")
	if err := s.AddRule(ctx, rule); err != nil {
		t.Fatalf("AddRule failed: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("AddRule should assign an ID")
	}

	got, err := s.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if got.Name != "integration rule" {
		t.Errorf("Name = %q", got.Name)
	}
	// The condition tree round-trips through JSONB.
	if len(got.ConditionGroup.Conditions) != 1 || got.ConditionGroup.Conditions[0].Leaf == nil {
		t.Fatalf("condition group did not survive the round trip: %+v", got.ConditionGroup)
	}
	if got.ConditionGroup.Conditions[0].Leaf.Field != "sum_assured" {
		t.Errorf("leaf field = %q", got.ConditionGroup.Conditions[0].Leaf.Field)
	}
	if got.Action.ReasonCode != "STP001" {
		t.Errorf("action reason code = %q", got.Action.ReasonCode)
	}
	if len(got.Products) != 1 || got.Products[0] != engine.ProductTermLife {
		t.Errorf("products = %v", got.Products)
	}

	got.Name = "renamed"
	if err := s.UpdateRule(ctx, got); err != nil {
		t.Fatalf("UpdateRule failed: %v", err)
	}
	updated, err := s.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetRule after update failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2 after one update", updated.Version)
	}

	toggled, err := s.ToggleRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("ToggleRule failed: %v", err)
	}
	if toggled.IsEnabled {
		t.Error("toggle should have disabled the rule")
	}

	if err := s.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("DeleteRule failed: %v", err)
	}
	if _, err := s.GetRule(ctx, rule.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetRule after delete should wrap ErrNotFound, got %v", err)
	}
}

func TestPostgresRuleListFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := store.NewPostgres(db)
	ctx := context.Background()

	enabled := sampleRule("enabled")
	disabled := sampleRule("disabled")
	disabled.IsEnabled = false
	everyProduct := sampleRule("all products")
	everyProduct.Products = []engine.ProductType{}

	for _, r := range []*engine.Rule{enabled, disabled, everyProduct} {
		if err := s.AddRule(ctx, r); err != nil {
			t.Fatalf("AddRule(%s) failed: %v", r.Name, err)
		}
	}

	got, err := s.ListRules(ctx, store.RuleFilter{EnabledOnly: true})
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("enabled-only listing returned %d rules, want 2", len(got))
	}

	// Empty products array means the rule applies to every product.
	got, err = s.ListRules(ctx, store.RuleFilter{Product: engine.ProductULIP})
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "all products" {
		t.Errorf("product filter returned %d rules, want just the unrestricted one", len(got))
	}
}

func TestPostgresScorecardAndGridRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := store.NewPostgres(db)
	ctx := context.Background()

	lo, hi := 18.0, 30.0
	sc := &engine.Scorecard{
		Name:    "Term Life Scorecard",
		Product: engine.ProductTermLife,
		Parameters: []engine.ScorecardParameter{
			{Name: "Age Band", Field: "applicant_age", Weight: 1.0,
				Bands: []engine.Band{{Min: &lo, Max: &hi, Score: 20, Label: "18-30"}}},
		},
		ThresholdDirectAccept: 80,
		ThresholdNormal:       50,
		ThresholdRefer:        30,
		IsEnabled:             true,
	}
	if err := s.AddScorecard(ctx, sc); err != nil {
		t.Fatalf("AddScorecard failed: %v", err)
	}
	gotSC, err := s.GetScorecard(ctx, sc.ID)
	if err != nil {
		t.Fatalf("GetScorecard failed: %v", err)
	}
	if len(gotSC.Parameters) != 1 || len(gotSC.Parameters[0].Bands) != 1 {
		t.Fatalf("scorecard parameters did not survive the round trip: %+v", gotSC.Parameters)
	}
	if gotSC.Parameters[0].Bands[0].Score != 20 {
		t.Errorf("band score = %v", gotSC.Parameters[0].Bands[0].Score)
	}

	grid := &engine.Grid{
		Name:      "BMI Risk Grid",
		GridType:  "bmi",
		RowField:  "bmi",
		ColField:  "applicant_age",
		RowLabels: []string{"<18.5", "18.5-25"},
		ColLabels: []string{"18-30"},
		Cells: []engine.GridCell{
			{RowValue: "18.5-25", ColValue: "18-30", Result: engine.GridAccept, ScoreImpact: 10},
		},
		Products:  []engine.ProductType{engine.ProductTermLife},
		IsEnabled: true,
	}
	if err := s.AddGrid(ctx, grid); err != nil {
		t.Fatalf("AddGrid failed: %v", err)
	}
	gotGrid, err := s.GetGrid(ctx, grid.ID)
	if err != nil {
		t.Fatalf("GetGrid failed: %v", err)
	}
	if len(gotGrid.Cells) != 1 || gotGrid.Cells[0].Result != engine.GridAccept {
		t.Fatalf("grid cells did not survive the round trip: %+v", gotGrid.Cells)
	}
	if len(gotGrid.RowLabels) != 2 {
		t.Errorf("row labels = %v", gotGrid.RowLabels)
	}
}

func TestPostgresEvaluationHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := store.NewPostgres(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := &store.EvaluationRecord{
			ProposalID: fmt.Sprintf("p-%d", i),
			Product:    engine.ProductTermLife,
			Result:     &engine.EvaluationResult{ProposalID: fmt.Sprintf("p-%d", i), STPDecision: engine.DecisionPass},
		}
		if err := s.AddEvaluation(ctx, rec); err != nil {
			t.Fatalf("AddEvaluation failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond) // Ensure different timestamps
	}

	recs, err := s.ListEvaluations(ctx, store.EvaluationFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListEvaluations failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ListEvaluations returned %d records, want 2", len(recs))
	}
	if recs[0].ProposalID != "p-2" {
		t.Errorf("first record = %q, want the newest p-2", recs[0].ProposalID)
	}
	if recs[0].Result == nil || recs[0].Result.STPDecision != engine.DecisionPass {
		t.Error("result payload did not survive the JSONB round trip")
	}
}

func TestPostgresAuditTrail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := store.NewPostgres(db)
	ctx := context.Background()

	entry := &store.AuditEntry{
		EntityType: "rule",
		EntityID:   "r1",
		EntityName: "Age Check",
		Action:     "toggle",
		Changes:    map[string]any{"is_enabled": true},
	}
	if err := s.AddAudit(ctx, entry); err != nil {
		t.Fatalf("AddAudit failed: %v", err)
	}

	entries, err := s.ListAudits(ctx, store.AuditFilter{EntityType: "rule"})
	if err != nil {
		t.Fatalf("ListAudits failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ListAudits returned %d entries, want 1", len(entries))
	}
	got := entries[0]
	if got.EntityName != "Age Check" {
		t.Errorf("entity_name = %q", got.EntityName)
	}
	if got.PerformedBy != "system" {
		t.Errorf("performed_by = %q, want the system default", got.PerformedBy)
	}
	if got.PerformedAt.IsZero() {
		t.Error("performed_at was not stamped")
	}
	if v, ok := got.Changes["is_enabled"].(bool); !ok || !v {
		t.Errorf("changes did not survive the JSONB round trip: %v", got.Changes)
	}
}

func TestPostgresLoadSnapshot(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := store.NewPostgres(db)
	ctx := context.Background()

	stage := &engine.Stage{Name: "Validation", ExecutionOrder: 10, StopOnFail: true, IsEnabled: true}
	if err := s.AddStage(ctx, stage); err != nil {
		t.Fatalf("AddStage failed: %v", err)
	}

	rule := sampleRule("staged")
	rule.StageID = stage.ID
	if err := s.AddRule(ctx, rule); err != nil {
		t.Fatalf("AddRule failed: %v", err)
	}
	off := sampleRule("off")
	off.IsEnabled = false
	if err := s.AddRule(ctx, off); err != nil {
		t.Fatalf("AddRule failed: %v", err)
	}

	snap, err := store.LoadSnapshot(ctx, s)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(snap.Rules) != 1 {
		t.Errorf("snapshot has %d rules, want 1 enabled", len(snap.Rules))
	}
	if len(snap.Stages) != 1 {
		t.Errorf("snapshot has %d stages, want 1", len(snap.Stages))
	}

	// The loaded configuration is directly evaluable.
	e, err := engine.NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	result := e.Evaluate(engine.Proposal{
		"proposal_id":  "p-snap",
		"product_type": "term_life",
		"sum_assured":  20_000_000.0,
	}, snap)
	if result.STPDecision != engine.DecisionFail {
		t.Errorf("stp_decision = %q, want FAIL from the persisted rule", result.STPDecision)
	}
}
