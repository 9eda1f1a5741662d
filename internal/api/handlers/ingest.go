package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/ingest"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/tradingday"
)

// IngestRunner executes one ingestion run for a trading date.
type IngestRunner interface {
	Run(ctx context.Context, date time.Time) (*ingest.RunResult, error)
}

// IngestHandler handles manual ingestion triggers
type IngestHandler struct {
	runner  IngestRunner
	timeout time.Duration
	logger  *logger.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(runner IngestRunner, timeout time.Duration, log *logger.Logger) *IngestHandler {
	return &IngestHandler{runner: runner, timeout: timeout, logger: log}
}

// IngestRequest optionally pins the run to a specific trading date.
type IngestRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to the last closed trading day
}

// TriggerIngest runs ingestion synchronously for one trading date
// POST /api/ingest
func (h *IngestHandler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	date := tradingday.Previous(time.Now())

	if r.Body != nil && r.ContentLength != 0 {
		var req IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Date != "" {
			parsed, err := tradingday.Parse(req.Date)
			if err != nil {
				respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
				return
			}
			date = parsed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.runner.Run(ctx, date)
	if err != nil {
		if errors.Is(err, contracts.ErrAllTickersFailed) {
			h.logger.WithError(err).Error("Ingestion run failed for every ticker")
			respondError(w, http.StatusBadGateway, "All watchlist tickers failed to fetch")
			return
		}
		h.logger.WithError(err).Error("Ingestion run failed")
		respondError(w, http.StatusInternalServerError, "Ingestion run failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
