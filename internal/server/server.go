// Package server exposes the validators, the scorer and the run store over
// HTTP for callers that integrate with the decision engine directly instead
// of going through workbooks.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/leadops/enrich-cli/internal/config"
	"github.com/leadops/enrich-cli/internal/model"
	"github.com/leadops/enrich-cli/internal/phone"
	"github.com/leadops/enrich-cli/internal/pipeline"
	"github.com/leadops/enrich-cli/internal/priority"
	"github.com/leadops/enrich-cli/internal/scoring"
	"github.com/leadops/enrich-cli/internal/store"
	"github.com/leadops/enrich-cli/internal/taxid"
)

// Server wires the decision components to HTTP handlers. The store is
// optional; run endpoints return 503 without one.
type Server struct {
	taxID      *taxid.Validator
	phone      *phone.Validator
	classifier *priority.Classifier
	scorer     *scoring.Engine
	pipe       *pipeline.Pipeline
	store      store.Store
}

// New builds a Server from a rule set.
func New(rules *config.RuleSet, pipe *pipeline.Pipeline, st store.Store) (*Server, error) {
	tv, err := taxid.New(rules.TaxID)
	if err != nil {
		return nil, err
	}
	return &Server{
		taxID:      tv,
		phone:      phone.New(rules.Phone),
		classifier: priority.New(rules.Priority),
		scorer:     scoring.New(rules.Scoring),
		pipe:       pipe,
		store:      st,
	}, nil
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate/tax-id", s.handleValidateTaxID)
		r.Post("/validate/phone", s.handleValidatePhone)
		r.Post("/score", s.handleScore)
		r.Post("/enrich", s.handleEnrich)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type validateRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleValidateTaxID(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.taxID.Validate(req.Value))
}

func (s *Server) handleValidatePhone(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.phone.Validate(req.Value))
}

// scoreResponse pairs the numeric scores with the priority tier so a single
// call answers both questions.
type scoreResponse struct {
	scoring.Result
	Priority int `json:"priority"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Result:   s.scorer.Score(lead),
		Priority: s.classifier.Classify(lead),
	})
}

type enrichRequest struct {
	Leads []model.Lead `json:"leads"`
}

type enrichResponse struct {
	RunID  string           `json:"run_id,omitempty"`
	Leads  []model.Lead     `json:"leads"`
	Result *model.RunResult `json:"result"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Leads) == 0 {
		writeError(w, http.StatusBadRequest, "leads is required")
		return
	}

	ctx := r.Context()
	var runID string
	if s.store != nil {
		run, err := s.store.CreateRun(ctx, "api")
		if err != nil {
			zap.L().Error("server: create run", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create run failed")
			return
		}
		runID = run.ID
	}

	enriched, results, runResult := s.pipe.Run(ctx, runID, req.Leads)

	if s.store != nil {
		if err := s.store.SaveLeadResults(ctx, results); err != nil {
			zap.L().Error("server: save lead results", zap.Error(err))
		}
		if err := s.store.UpdateRunResult(ctx, runID, runResult); err != nil {
			zap.L().Error("server: update run result", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, enrichResponse{
		RunID:  runID,
		Leads:  enriched,
		Result: runResult,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	filter := store.RunFilter{
		Status:    model.RunStatus(r.URL.Query().Get("status")),
		InputFile: r.URL.Query().Get("input_file"),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
