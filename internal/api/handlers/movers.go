package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/movers"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/tradingday"
)

// MoversQuery answers trailing-window top-mover queries.
type MoversQuery interface {
	DefaultDays(days int) int
	Recent(ctx context.Context, until time.Time, days int) ([]contracts.TopMover, error)
}

// MoversHandler handles top-mover API endpoints
type MoversHandler struct {
	service MoversQuery
	logger  *logger.Logger
}

// NewMoversHandler creates a new movers handler
func NewMoversHandler(service MoversQuery, log *logger.Logger) *MoversHandler {
	return &MoversHandler{service: service, logger: log}
}

// MoverItem is the wire form of one top-mover record.
type MoverItem struct {
	Date          string  `json:"date"`
	Ticker        string  `json:"ticker"`
	PercentChange float64 `json:"percent_change"`
	ClosePrice    float64 `json:"close_price"`
}

// MoversResponse is the movers endpoint payload.
type MoversResponse struct {
	Days  int         `json:"days"`
	Items []MoverItem `json:"items"`
}

// GetMovers returns the trailing top-mover window, most recent first
// GET /api/movers?days=N
func (h *MoversHandler) GetMovers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > movers.MaxWindowDays {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("days must be an integer between 1 and %d", movers.MaxWindowDays))
			return
		}
		days = parsed
	}
	days = h.service.DefaultDays(days)

	until := tradingday.Previous(time.Now())
	records, err := h.service.Recent(ctx, until, days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query top movers")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve top movers")
		return
	}

	items := make([]MoverItem, 0, len(records))
	for _, rec := range records {
		items = append(items, MoverItem{
			Date:          tradingday.Format(rec.Date),
			Ticker:        rec.Ticker,
			PercentChange: rec.PercentChange,
			ClosePrice:    rec.Close,
		})
	}

	respondJSON(w, http.StatusOK, MoversResponse{Days: days, Items: items})
}
