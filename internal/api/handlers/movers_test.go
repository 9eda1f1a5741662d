package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
)

type stubMoversQuery struct {
	records []contracts.TopMover
	err     error
	days    int
}

func (s *stubMoversQuery) DefaultDays(days int) int {
	if days <= 0 {
		return 30
	}
	return days
}

func (s *stubMoversQuery) Recent(_ context.Context, _ time.Time, days int) ([]contracts.TopMover, error) {
	s.days = days
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestGetMovers_ReturnsItems(t *testing.T) {
	query := &stubMoversQuery{records: []contracts.TopMover{
		{
			Date:          time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Ticker:        "NVDA",
			PercentChange: -4.125,
			Close:         690.30,
		},
	}}
	h := NewMoversHandler(query, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/movers", nil)
	rec := httptest.NewRecorder()
	h.GetMovers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MoversResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.Days)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "2024-03-15", resp.Items[0].Date)
	assert.Equal(t, "NVDA", resp.Items[0].Ticker)
	assert.InDelta(t, -4.125, resp.Items[0].PercentChange, 1e-9)
	assert.InDelta(t, 690.30, resp.Items[0].ClosePrice, 1e-9)
}

func TestGetMovers_CustomDays(t *testing.T) {
	query := &stubMoversQuery{}
	h := NewMoversHandler(query, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/movers?days=7", nil)
	rec := httptest.NewRecorder()
	h.GetMovers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, query.days)
}

func TestGetMovers_InvalidDays(t *testing.T) {
	h := NewMoversHandler(&stubMoversQuery{}, logger.NewNop())

	for _, raw := range []string{"abc", "0", "-3", "9999"} {
		req := httptest.NewRequest(http.MethodGet, "/api/movers?days="+raw, nil)
		rec := httptest.NewRecorder()
		h.GetMovers(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", raw)
	}
}

func TestGetMovers_EmptyWindow(t *testing.T) {
	query := &stubMoversQuery{records: []contracts.TopMover{}}
	h := NewMoversHandler(query, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/movers", nil)
	rec := httptest.NewRecorder()
	h.GetMovers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp MoversResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestGetMovers_StoreFailure(t *testing.T) {
	query := &stubMoversQuery{err: errors.New("pool exhausted")}
	h := NewMoversHandler(query, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/movers", nil)
	rec := httptest.NewRecorder()
	h.GetMovers(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
