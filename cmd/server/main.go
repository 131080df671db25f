package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insurestp/insurestp/engine"
	"github.com/insurestp/insurestp/internal/logger"
	"github.com/insurestp/insurestp/internal/metrics"
	"github.com/insurestp/insurestp/store"
)

// Server wires the stores, the snapshot cache and the evaluator behind the
// HTTP API.
type Server struct {
	db        *sql.DB
	stores    store.Stores
	cache     *store.SnapshotCache
	evaluator *engine.Evaluator
	metrics   *metrics.Metrics
	router    *chi.Mux
}

// NewServer assembles a server around the given stores. db may be nil when
// running against the in-memory store; the health check then skips the ping.
// m may be nil to disable metrics.
func NewServer(stores store.Stores, db *sql.DB, m *metrics.Metrics) (*Server, error) {
	evaluator, err := engine.NewEvaluator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:        db,
		stores:    stores,
		cache:     store.NewSnapshotCache(stores, store.DefaultSnapshotCacheConfig(), m),
		evaluator: evaluator,
		metrics:   m,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", s.handleHealth)
	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/seed", s.handleSeed)

	r.Route("/api/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Get("/{ruleId}", s.handleGetRule)
		r.Put("/{ruleId}", s.handleUpdateRule)
		r.Delete("/{ruleId}", s.handleDeleteRule)
		r.Post("/{ruleId}/toggle", s.handleToggleRule)
		r.Patch("/{ruleId}/toggle", s.handleToggleRule)
	})

	r.Route("/api/stages", func(r chi.Router) {
		r.Get("/", s.handleListStages)
		r.Post("/", s.handleCreateStage)
		r.Get("/{stageId}", s.handleGetStage)
		r.Put("/{stageId}", s.handleUpdateStage)
		r.Delete("/{stageId}", s.handleDeleteStage)
	})

	r.Route("/api/scorecards", func(r chi.Router) {
		r.Get("/", s.handleListScorecards)
		r.Post("/", s.handleCreateScorecard)
		r.Get("/{scorecardId}", s.handleGetScorecard)
		r.Put("/{scorecardId}", s.handleUpdateScorecard)
		r.Delete("/{scorecardId}", s.handleDeleteScorecard)
	})

	r.Route("/api/grids", func(r chi.Router) {
		r.Get("/", s.handleListGrids)
		r.Post("/", s.handleCreateGrid)
		r.Get("/{gridId}", s.handleGetGrid)
		r.Put("/{gridId}", s.handleUpdateGrid)
		r.Delete("/{gridId}", s.handleDeleteGrid)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Post("/", s.handleCreateProduct)
		r.Get("/{productId}", s.handleGetProduct)
		r.Put("/{productId}", s.handleUpdateProduct)
		r.Delete("/{productId}", s.handleDeleteProduct)
	})

	r.Post("/api/underwriting/evaluate", s.handleEvaluate)
	r.Post("/api/underwriting/evaluate-batch", s.handleEvaluateBatch)
	r.Get("/api/evaluations", s.handleListEvaluations)
	r.Get("/api/evaluations/{evaluationId}", s.handleGetEvaluation)
	r.Get("/api/audit-logs", s.handleListAudits)
	r.Get("/api/dashboard/stats", s.handleDashboardStats)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Fatal("failed to open database", "error", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	server, err := NewServer(store.NewPostgres(db), db, metrics.New())
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
