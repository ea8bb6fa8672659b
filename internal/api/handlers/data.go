package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data/collector"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// Collector refreshes stored market data
type Collector interface {
	CollectPrices(ctx context.Context, months []time.Time, cfg collector.Config) ([]collector.FetchResult, error)
	CollectRevenue(ctx context.Context, month time.Time) (int, error)
}

// DataHandler handles data-related API endpoints
// ⭐ SSOT: 資料 API handler 只在這裡
type DataHandler struct {
	source    contracts.PanelSource
	gate      contracts.QualityGate
	collector Collector
	workers   int
	logger    *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(
	source contracts.PanelSource,
	gate contracts.QualityGate,
	col Collector,
	workers int,
	log *logger.Logger,
) *DataHandler {
	return &DataHandler{
		source:    source,
		gate:      gate,
		collector: col,
		workers:   workers,
		logger:    log,
	}
}

// GetQuality returns the quality snapshot of the stored panels
// GET /api/data/quality?date=YYYY-MM-DD
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf, err := parseDate(r, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}

	panels, err := h.source.Load(ctx, asOf)
	if err == nil {
		var snapshot *contracts.DataQualitySnapshot
		if snapshot, err = h.gate.Check(ctx, panels); err == nil {
			respondJSON(w, http.StatusOK, snapshot)
			return
		}
	}

	h.logger.WithError(err).Error("Failed to check data quality")
	if errors.Is(err, contracts.ErrInputUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "Market data unavailable")
		return
	}
	respondError(w, http.StatusInternalServerError, "Failed to check data quality")
}

// CollectRequest represents a data collection request
type CollectRequest struct {
	Type   string `json:"type"`   // "all", "prices", "revenue"
	Date   string `json:"date"`   // Optional: as-of date (YYYY-MM-DD), default today
	Months int    `json:"months"` // Optional: price months to backfill, default 1
}

// CollectResponse represents a data collection response
type CollectResponse struct {
	Status      string `json:"status"`
	Type        string `json:"type"`
	PriceRows   int    `json:"price_rows"`
	FailedCodes int    `json:"failed_codes"`
	RevenueRows int    `json:"revenue_rows"`
	Message     string `json:"message,omitempty"`
}

// Collect triggers data collection synchronously
// POST /api/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Type == "" {
		req.Type = "all"
	}
	if req.Type != "all" && req.Type != "prices" && req.Type != "revenue" {
		respondError(w, http.StatusBadRequest, "Invalid type (expected all, prices or revenue)")
		return
	}

	asOf := time.Now()
	if req.Date != "" {
		d, err := time.Parse(panel.DateLayout, req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
		asOf = d
	}

	resp := CollectResponse{Status: "ok", Type: req.Type}

	if req.Type == "all" || req.Type == "revenue" {
		rows, err := h.collector.CollectRevenue(ctx, s0_data.LatestPublishedMonth(asOf))
		if err != nil {
			h.logger.WithError(err).Error("Revenue collection failed")
			respondError(w, http.StatusBadGateway, "Revenue collection failed")
			return
		}
		resp.RevenueRows = rows
	}

	if req.Type == "all" || req.Type == "prices" {
		results, err := h.collector.CollectPrices(ctx, collector.Months(asOf, req.Months), collector.Config{Workers: h.workers})
		if err != nil {
			h.logger.WithError(err).Error("Price collection failed")
			respondError(w, http.StatusBadGateway, "Price collection failed")
			return
		}
		for _, res := range results {
			resp.PriceRows += res.PriceCount
			if res.Error != nil {
				resp.FailedCodes++
			}
		}
		if resp.FailedCodes > 0 {
			resp.Status = "partial"
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
