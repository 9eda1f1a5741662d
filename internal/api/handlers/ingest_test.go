package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/ingest"
	"github.com/wonny/movers/pkg/logger"
)

type stubRunner struct {
	result *ingest.RunResult
	err    error
	ranFor time.Time
}

func (s *stubRunner) Run(_ context.Context, date time.Time) (*ingest.RunResult, error) {
	s.ranFor = date
	if s.err != nil {
		return s.result, s.err
	}
	if s.result == nil {
		s.result = &ingest.RunResult{Date: date, State: ingest.StatePersisted}
	}
	return s.result, nil
}

func TestTriggerIngest_DefaultsToLastTradingDay(t *testing.T) {
	runner := &stubRunner{}
	h := NewIngestHandler(runner, time.Minute, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
	rec := httptest.NewRecorder()
	h.TriggerIngest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, runner.ranFor.IsZero())

	var result ingest.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, ingest.StatePersisted, result.State)
}

func TestTriggerIngest_ExplicitDate(t *testing.T) {
	runner := &stubRunner{}
	h := NewIngestHandler(runner, time.Minute, logger.NewNop())

	body := strings.NewReader(`{"date": "2024-03-15"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	rec := httptest.NewRecorder()
	h.TriggerIngest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), runner.ranFor)
}

func TestTriggerIngest_BadDate(t *testing.T) {
	h := NewIngestHandler(&stubRunner{}, time.Minute, logger.NewNop())

	body := strings.NewReader(`{"date": "03/15/2024"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	rec := httptest.NewRecorder()
	h.TriggerIngest(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerIngest_AllTickersFailed(t *testing.T) {
	runner := &stubRunner{
		result: &ingest.RunResult{State: ingest.StateFailed},
		err:    contracts.ErrAllTickersFailed,
	}
	h := NewIngestHandler(runner, time.Minute, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
	rec := httptest.NewRecorder()
	h.TriggerIngest(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
