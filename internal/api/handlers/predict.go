package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/tradingday"
)

// Forecaster produces next-day forecasts for the watchlist.
type Forecaster interface {
	Predict(ctx context.Context, asOf time.Time) (*contracts.PredictionSet, error)
}

// PredictHandler handles forecast API endpoints
type PredictHandler struct {
	engine Forecaster
	logger *logger.Logger
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(engine Forecaster, log *logger.Logger) *PredictHandler {
	return &PredictHandler{engine: engine, logger: log}
}

// PredictResponse is the predict endpoint payload.
type PredictResponse struct {
	AsOf        string                 `json:"asof"`
	Predictions []contracts.Prediction `json:"predictions"`
}

// GetPredictions returns next-day forecasts for all scoreable tickers
// GET /api/predict
func (h *PredictHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf := tradingday.Previous(time.Now())
	set, err := h.engine.Predict(ctx, asOf)
	if err != nil {
		var loadErr *contracts.ModelLoadError
		if errors.As(err, &loadErr) {
			h.logger.WithError(err).Error("Model artifact unavailable")
			respondError(w, http.StatusServiceUnavailable, "Model artifact unavailable")
			return
		}
		h.logger.WithError(err).Error("Prediction request failed")
		respondError(w, http.StatusInternalServerError, "Failed to compute predictions")
		return
	}

	// Partial result sets are fine, but a response with no predictions
	// at all means nothing could be scored.
	if len(set.Predictions) == 0 {
		h.logger.Warn("No tickers could be scored")
		respondError(w, http.StatusNotFound, contracts.ErrNoData.Error())
		return
	}

	respondJSON(w, http.StatusOK, PredictResponse{
		AsOf:        tradingday.Format(set.AsOf),
		Predictions: set.Predictions,
	})
}
