package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/brain"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// ScreeningHandler serves on-demand screening runs
// ⭐ SSOT: 篩選 API handler 只在這裡
type ScreeningHandler struct {
	runner  Runner
	timeout time.Duration
	logger  *logger.Logger
}

// NewScreeningHandler creates a new screening handler
func NewScreeningHandler(runner Runner, log *logger.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		runner:  runner,
		timeout: 2 * time.Minute,
		logger:  log,
	}
}

// ScreeningResponse is the JSON body of a screening run
type ScreeningResponse struct {
	RunID      string                         `json:"run_id"`
	AsOf       string                         `json:"as_of"`
	Candidates []contracts.Candidate          `json:"candidates"`
	Outcomes   map[string]int                 `json:"outcomes"`
	Excluded   map[string]int                 `json:"excluded"`
	Quality    *contracts.DataQualitySnapshot `json:"quality"`
	Stages     []contracts.StageResult        `json:"stages"`
	DurationMs int64                          `json:"duration_ms"`
}

// GetScreening runs the pipeline without delivering the report
// GET /api/screening?date=YYYY-MM-DD
func (h *ScreeningHandler) GetScreening(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDate(r, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.runner.Run(ctx, brain.RunConfig{AsOf: asOf, DryRun: true})
	if err != nil {
		h.logger.WithError(err).Error("Screening run failed")
		if errors.Is(err, contracts.ErrInputUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "Market data unavailable for the requested date")
			return
		}
		respondError(w, http.StatusInternalServerError, "Screening run failed")
		return
	}

	resp := ScreeningResponse{
		RunID:      result.RunID,
		AsOf:       result.AsOf.Format(panel.DateLayout),
		Candidates: result.Candidates(),
		Quality:    result.QualitySnapshot,
		Stages:     result.Stages,
		DurationMs: result.Duration.Milliseconds(),
	}
	if resp.Candidates == nil {
		resp.Candidates = []contracts.Candidate{}
	}
	if result.Screening != nil {
		resp.Outcomes = result.Screening.Counts()
	}
	if result.Universe != nil {
		resp.Excluded = result.Universe.ExclusionCounts()
	}

	respondJSON(w, http.StatusOK, resp)
}
