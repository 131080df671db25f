package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/insurestp/insurestp/engine"
	"github.com/insurestp/insurestp/internal/logger"
	"github.com/insurestp/insurestp/seed"
	"github.com/insurestp/insurestp/store"
)

// batchConcurrency bounds how many proposals a batch request evaluates in
// parallel.
const batchConcurrency = 8

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// audit records a configuration mutation. Failures are logged, never
// surfaced to the caller.
// audit records a configuration mutation. Changes are attributed to
// "system" until the API carries authenticated callers.
func (s *Server) audit(r *http.Request, entityType, entityID, entityName, action string, changes map[string]any) {
	err := s.stores.AddAudit(r.Context(), &store.AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		EntityName: entityName,
		Action:     action,
		Changes:    changes,
	})
	if err != nil {
		logger.Error("failed to write audit entry", "entity", entityType, "id", entityID, "error", err)
	}
}

// ---- evaluation ----

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var proposal engine.Proposal
	if err := json.NewDecoder(r.Body).Decode(&proposal); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(proposal) == 0 {
		respondError(w, http.StatusBadRequest, "proposal is required", nil)
		return
	}

	snap, err := s.cache.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load configuration", err)
		return
	}

	start := time.Now()
	result := s.evaluator.Evaluate(proposal, snap)
	s.metrics.RecordEvaluation(result.STPDecision, result.CaseTypeLabel,
		len(result.TriggeredRules), time.Since(start))

	s.recordEvaluation(r, proposal, result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Proposals []engine.Proposal `json:"proposals"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Proposals) == 0 {
		respondError(w, http.StatusBadRequest, "proposals are required", nil)
		return
	}

	snap, err := s.cache.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load configuration", err)
		return
	}

	results := make([]*engine.EvaluationResult, len(req.Proposals))
	g, _ := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)
	for i, proposal := range req.Proposals {
		i, proposal := i, proposal
		g.Go(func() error {
			start := time.Now()
			result := s.evaluator.Evaluate(proposal, snap)
			s.metrics.RecordEvaluation(result.STPDecision, result.CaseTypeLabel,
				len(result.TriggeredRules), time.Since(start))
			results[i] = result
			return nil
		})
	}
	g.Wait()

	for i, result := range results {
		s.recordEvaluation(r, req.Proposals[i], result)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) recordEvaluation(r *http.Request, proposal engine.Proposal, result *engine.EvaluationResult) {
	product, _ := proposal["product_type"].(string)
	err := s.stores.AddEvaluation(r.Context(), &store.EvaluationRecord{
		ProposalID: result.ProposalID,
		Product:    engine.ProductType(product),
		Result:     result,
	})
	if err != nil {
		logger.Error("failed to persist evaluation", "proposal", result.ProposalID, "error", err)
	}
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	filter := store.EvaluationFilter{
		Decision: r.URL.Query().Get("decision"),
		Limit:    queryLimit(r, 50),
	}
	records, err := s.stores.ListEvaluations(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list evaluations", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"evaluations": records})
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.stores.GetEvaluation(r.Context(), chi.URLParam(r, "evaluationId"))
	if err != nil {
		respondError(w, statusFor(err), "evaluation not found", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// maxAuditLimit caps audit listings regardless of the requested limit.
const maxAuditLimit = 500

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50)
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	q := r.URL.Query()
	filter := store.AuditFilter{
		EntityType: q.Get("entity_type"),
		Action:     q.Get("action"),
		Limit:      limit,
	}
	entries, err := s.stores.ListAudits(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list audit logs", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"audit_logs": entries})
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rules, err := s.stores.ListRules(ctx, store.RuleFilter{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load rules", err)
		return
	}
	enabledRules := 0
	for _, rule := range rules {
		if rule.IsEnabled {
			enabledRules++
		}
	}

	scorecards, err := s.stores.ListScorecards(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load scorecards", err)
		return
	}
	grids, err := s.stores.ListGrids(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load grids", err)
		return
	}
	products, err := s.stores.ListProducts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load products", err)
		return
	}

	recent, err := s.stores.ListEvaluations(ctx, store.EvaluationFilter{Limit: 10})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load evaluations", err)
		return
	}

	stpPass, stpFail := 0, 0
	caseTypes := map[string]int{}
	for _, rec := range recent {
		if rec.Result == nil {
			continue
		}
		if rec.Result.STPDecision == engine.DecisionPass {
			stpPass++
		} else {
			stpFail++
		}
		caseTypes[rec.Result.CaseTypeLabel]++
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"total_rules":            len(rules),
		"enabled_rules":          enabledRules,
		"total_scorecards":       len(scorecards),
		"total_grids":            len(grids),
		"total_products":         len(products),
		"stp_pass_count":         stpPass,
		"stp_fail_count":         stpFail,
		"case_type_distribution": caseTypes,
		"recent_evaluations":     recent,
	})
}

// ---- seed ----

// clearConfiguration removes all existing rules, stages, scorecards, grids
// and products so that seeding replaces rather than accumulates.
func (s *Server) clearConfiguration(ctx context.Context) error {
	rules, err := s.stores.ListRules(ctx, store.RuleFilter{})
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if err := s.stores.DeleteRule(ctx, rule.ID); err != nil {
			return err
		}
	}
	stages, err := s.stores.ListStages(ctx)
	if err != nil {
		return err
	}
	for _, stage := range stages {
		if err := s.stores.DeleteStage(ctx, stage.ID); err != nil {
			return err
		}
	}
	scorecards, err := s.stores.ListScorecards(ctx)
	if err != nil {
		return err
	}
	for _, sc := range scorecards {
		if err := s.stores.DeleteScorecard(ctx, sc.ID); err != nil {
			return err
		}
	}
	grids, err := s.stores.ListGrids(ctx)
	if err != nil {
		return err
	}
	for _, grid := range grids {
		if err := s.stores.DeleteGrid(ctx, grid.ID); err != nil {
			return err
		}
	}
	products, err := s.stores.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := s.stores.DeleteProduct(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := seed.New()

	if err := s.clearConfiguration(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear existing configuration", err)
		return
	}

	for _, p := range data.Products {
		if err := s.stores.AddProduct(ctx, p); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to seed products", err)
			return
		}
	}
	for _, stage := range data.Stages {
		if err := s.stores.AddStage(ctx, stage); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to seed stages", err)
			return
		}
	}
	for _, rule := range data.Rules {
		if err := s.stores.AddRule(ctx, rule); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to seed rules", err)
			return
		}
	}
	for _, sc := range data.Scorecards {
		if err := s.stores.AddScorecard(ctx, sc); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to seed scorecards", err)
			return
		}
	}
	for _, grid := range data.Grids {
		if err := s.stores.AddGrid(ctx, grid); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to seed grids", err)
			return
		}
	}

	s.cache.Invalidate()
	s.audit(r, "configuration", "", "reference configuration", "seed", map[string]any{
		"rules":      len(data.Rules),
		"stages":     len(data.Stages),
		"scorecards": len(data.Scorecards),
		"grids":      len(data.Grids),
		"products":   len(data.Products),
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "Sample data seeded successfully",
		"products":   len(data.Products),
		"stages":     len(data.Stages),
		"rules":      len(data.Rules),
		"scorecards": len(data.Scorecards),
		"grids":      len(data.Grids),
	})
}

// ---- rules ----

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RuleFilter{
		Category:    engine.RuleCategory(q.Get("category")),
		Product:     engine.ProductType(q.Get("product")),
		StageID:     q.Get("stage_id"),
		EnabledOnly: q.Get("enabled") == "true",
		Search:      q.Get("search"),
	}
	rules, err := s.stores.ListRules(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule engine.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if rule.Name == "" || rule.Category == "" {
		respondError(w, http.StatusBadRequest, "name and category are required", nil)
		return
	}

	if err := s.stores.AddRule(r.Context(), &rule); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create rule", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "rule", rule.ID, rule.Name, "create", nil)
	respondJSON(w, http.StatusCreated, &rule)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.stores.GetRule(r.Context(), chi.URLParam(r, "ruleId"))
	if err != nil {
		respondError(w, statusFor(err), "rule not found", err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var rule engine.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rule.ID = chi.URLParam(r, "ruleId")

	if err := s.stores.UpdateRule(r.Context(), &rule); err != nil {
		respondError(w, statusFor(err), "failed to update rule", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "rule", rule.ID, rule.Name, "update", nil)
	respondJSON(w, http.StatusOK, &rule)
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ruleId")
	rule, err := s.stores.ToggleRule(r.Context(), id)
	if err != nil {
		respondError(w, statusFor(err), "failed to toggle rule", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "rule", id, rule.Name, "toggle", map[string]any{"is_enabled": rule.IsEnabled})
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ruleId")
	if err := s.stores.DeleteRule(r.Context(), id); err != nil {
		respondError(w, statusFor(err), "failed to delete rule", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "rule", id, "", "delete", nil)
	w.WriteHeader(http.StatusNoContent)
}

// ---- stages ----

// stageWithRuleCount decorates a stage listing entry with the number of
// rules currently assigned to it.
type stageWithRuleCount struct {
	*engine.Stage
	RuleCount int `json:"rule_count"`
}

func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	stages, err := s.stores.ListStages(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list stages", err)
		return
	}
	rules, err := s.stores.ListRules(r.Context(), store.RuleFilter{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count rules", err)
		return
	}
	counts := make(map[string]int)
	for _, rule := range rules {
		counts[rule.StageID]++
	}

	out := make([]stageWithRuleCount, 0, len(stages))
	for _, stage := range stages {
		out = append(out, stageWithRuleCount{Stage: stage, RuleCount: counts[stage.ID]})
	}
	respondJSON(w, http.StatusOK, map[string]any{"stages": out})
}

func (s *Server) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	var stage engine.Stage
	if err := json.NewDecoder(r.Body).Decode(&stage); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if stage.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	if err := s.stores.AddStage(r.Context(), &stage); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create stage", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "stage", stage.ID, stage.Name, "create", nil)
	respondJSON(w, http.StatusCreated, &stage)
}

func (s *Server) handleGetStage(w http.ResponseWriter, r *http.Request) {
	stage, err := s.stores.GetStage(r.Context(), chi.URLParam(r, "stageId"))
	if err != nil {
		respondError(w, statusFor(err), "stage not found", err)
		return
	}
	respondJSON(w, http.StatusOK, stage)
}

func (s *Server) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	var stage engine.Stage
	if err := json.NewDecoder(r.Body).Decode(&stage); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	stage.ID = chi.URLParam(r, "stageId")

	if err := s.stores.UpdateStage(r.Context(), &stage); err != nil {
		respondError(w, statusFor(err), "failed to update stage", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "stage", stage.ID, stage.Name, "update", nil)
	respondJSON(w, http.StatusOK, &stage)
}

func (s *Server) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stageId")
	if err := s.stores.DeleteStage(r.Context(), id); err != nil {
		respondError(w, statusFor(err), "failed to delete stage", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "stage", id, "", "delete", nil)
	w.WriteHeader(http.StatusNoContent)
}

// ---- scorecards ----

func (s *Server) handleListScorecards(w http.ResponseWriter, r *http.Request) {
	scorecards, err := s.stores.ListScorecards(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list scorecards", err)
		return
	}
	if product := r.URL.Query().Get("product"); product != "" {
		filtered := make([]*engine.Scorecard, 0, len(scorecards))
		for _, sc := range scorecards {
			if sc.Product == engine.ProductType(product) {
				filtered = append(filtered, sc)
			}
		}
		scorecards = filtered
	}
	respondJSON(w, http.StatusOK, map[string]any{"scorecards": scorecards})
}

func (s *Server) handleCreateScorecard(w http.ResponseWriter, r *http.Request) {
	var sc engine.Scorecard
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if sc.Name == "" || sc.Product == "" {
		respondError(w, http.StatusBadRequest, "name and product are required", nil)
		return
	}

	if err := s.stores.AddScorecard(r.Context(), &sc); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create scorecard", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "scorecard", sc.ID, sc.Name, "create", nil)
	respondJSON(w, http.StatusCreated, &sc)
}

func (s *Server) handleGetScorecard(w http.ResponseWriter, r *http.Request) {
	sc, err := s.stores.GetScorecard(r.Context(), chi.URLParam(r, "scorecardId"))
	if err != nil {
		respondError(w, statusFor(err), "scorecard not found", err)
		return
	}
	respondJSON(w, http.StatusOK, sc)
}

func (s *Server) handleUpdateScorecard(w http.ResponseWriter, r *http.Request) {
	var sc engine.Scorecard
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	sc.ID = chi.URLParam(r, "scorecardId")

	if err := s.stores.UpdateScorecard(r.Context(), &sc); err != nil {
		respondError(w, statusFor(err), "failed to update scorecard", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "scorecard", sc.ID, sc.Name, "update", nil)
	respondJSON(w, http.StatusOK, &sc)
}

func (s *Server) handleDeleteScorecard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scorecardId")
	if err := s.stores.DeleteScorecard(r.Context(), id); err != nil {
		respondError(w, statusFor(err), "failed to delete scorecard", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "scorecard", id, "", "delete", nil)
	w.WriteHeader(http.StatusNoContent)
}

// ---- grids ----

func (s *Server) handleListGrids(w http.ResponseWriter, r *http.Request) {
	grids, err := s.stores.ListGrids(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list grids", err)
		return
	}
	if gridType := r.URL.Query().Get("grid_type"); gridType != "" {
		filtered := make([]*engine.Grid, 0, len(grids))
		for _, grid := range grids {
			if grid.GridType == gridType {
				filtered = append(filtered, grid)
			}
		}
		grids = filtered
	}
	respondJSON(w, http.StatusOK, map[string]any{"grids": grids})
}

func (s *Server) handleCreateGrid(w http.ResponseWriter, r *http.Request) {
	var grid engine.Grid
	if err := json.NewDecoder(r.Body).Decode(&grid); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if grid.Name == "" || grid.RowField == "" || grid.ColField == "" {
		respondError(w, http.StatusBadRequest, "name, row_field and col_field are required", nil)
		return
	}

	if err := s.stores.AddGrid(r.Context(), &grid); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create grid", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "grid", grid.ID, grid.Name, "create", nil)
	respondJSON(w, http.StatusCreated, &grid)
}

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	grid, err := s.stores.GetGrid(r.Context(), chi.URLParam(r, "gridId"))
	if err != nil {
		respondError(w, statusFor(err), "grid not found", err)
		return
	}
	respondJSON(w, http.StatusOK, grid)
}

func (s *Server) handleUpdateGrid(w http.ResponseWriter, r *http.Request) {
	var grid engine.Grid
	if err := json.NewDecoder(r.Body).Decode(&grid); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	grid.ID = chi.URLParam(r, "gridId")

	if err := s.stores.UpdateGrid(r.Context(), &grid); err != nil {
		respondError(w, statusFor(err), "failed to update grid", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "grid", grid.ID, grid.Name, "update", nil)
	respondJSON(w, http.StatusOK, &grid)
}

func (s *Server) handleDeleteGrid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "gridId")
	if err := s.stores.DeleteGrid(r.Context(), id); err != nil {
		respondError(w, statusFor(err), "failed to delete grid", err)
		return
	}
	s.cache.Invalidate()
	s.audit(r, "grid", id, "", "delete", nil)
	w.WriteHeader(http.StatusNoContent)
}

// ---- products ----

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.stores.ListProducts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list products", err)
		return
	}
	if productType := r.URL.Query().Get("product_type"); productType != "" {
		filtered := make([]*engine.Product, 0, len(products))
		for _, p := range products {
			if p.ProductType == engine.ProductType(productType) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p engine.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if p.Code == "" || p.Name == "" {
		respondError(w, http.StatusBadRequest, "code and name are required", nil)
		return
	}

	if err := s.stores.AddProduct(r.Context(), &p); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create product", err)
		return
	}
	s.audit(r, "product", p.ID, p.Name, "create", map[string]any{"code": p.Code})
	respondJSON(w, http.StatusCreated, &p)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.stores.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, statusFor(err), "product not found", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p engine.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if p.Code == "" || p.Name == "" {
		respondError(w, http.StatusBadRequest, "code and name are required", nil)
		return
	}
	p.ID = chi.URLParam(r, "productId")

	if err := s.stores.UpdateProduct(r.Context(), &p); err != nil {
		respondError(w, statusFor(err), "failed to update product", err)
		return
	}
	s.audit(r, "product", p.ID, p.Name, "update", nil)
	respondJSON(w, http.StatusOK, &p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	if err := s.stores.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, statusFor(err), "failed to delete product", err)
		return
	}
	s.audit(r, "product", id, "", "delete", nil)
	w.WriteHeader(http.StatusNoContent)
}
