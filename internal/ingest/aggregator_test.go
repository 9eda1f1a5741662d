package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
)

type fakeMarket struct {
	mu       sync.Mutex
	bars     map[string]*contracts.Bar
	errs     map[string]error
	failures map[string]int // transient failures before success
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		bars:     make(map[string]*contracts.Bar),
		errs:     make(map[string]error),
		failures: make(map[string]int),
	}
}

func (m *fakeMarket) DailyBar(_ context.Context, ticker string, _ time.Time) (*contracts.Bar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := m.failures[ticker]; n > 0 {
		m.failures[ticker] = n - 1
		return nil, &contracts.ProviderError{Ticker: ticker, Err: errors.New("transient")}
	}
	if err, ok := m.errs[ticker]; ok {
		return nil, err
	}
	bar, ok := m.bars[ticker]
	if !ok {
		return nil, &contracts.ProviderError{Ticker: ticker, Err: contracts.ErrNoData}
	}
	return bar, nil
}

type fakeObservationRepo struct {
	mu   sync.Mutex
	rows map[string]*contracts.Observation // ticker|date
}

func newFakeObservationRepo() *fakeObservationRepo {
	return &fakeObservationRepo{rows: make(map[string]*contracts.Observation)}
}

func obsKey(ticker string, date time.Time) string {
	return fmt.Sprintf("%s|%s", ticker, date.Format("2006-01-02"))
}

func (r *fakeObservationRepo) Upsert(_ context.Context, obs *contracts.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *obs
	r.rows[obsKey(obs.Ticker, obs.Date)] = &cp
	return nil
}

func (r *fakeObservationRepo) LatestBefore(_ context.Context, ticker string, date time.Time) (*contracts.Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *contracts.Observation
	for _, obs := range r.rows {
		if obs.Ticker != ticker || !obs.Date.Before(date) {
			continue
		}
		if latest == nil || obs.Date.After(latest.Date) {
			latest = obs
		}
	}
	return latest, nil
}

func (r *fakeObservationRepo) Window(_ context.Context, ticker string, from, to time.Time) ([]contracts.Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contracts.Observation, 0)
	for _, obs := range r.rows {
		if obs.Ticker == ticker && !obs.Date.Before(from) && !obs.Date.After(to) {
			out = append(out, *obs)
		}
	}
	return out, nil
}

type fakeMoverRepo struct {
	mu   sync.Mutex
	rows map[string]*contracts.TopMover // date
}

func newFakeMoverRepo() *fakeMoverRepo {
	return &fakeMoverRepo{rows: make(map[string]*contracts.TopMover)}
}

func (r *fakeMoverRepo) Upsert(_ context.Context, mover *contracts.TopMover) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *mover
	r.rows[mover.Date.Format("2006-01-02")] = &cp
	return nil
}

func (r *fakeMoverRepo) Range(_ context.Context, from, to time.Time) ([]contracts.TopMover, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contracts.TopMover, 0)
	for _, mover := range r.rows {
		if !mover.Date.Before(from) && !mover.Date.After(to) {
			out = append(out, *mover)
		}
	}
	return out, nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func bar(ticker string, close float64) *contracts.Bar {
	return &contracts.Bar{
		Ticker: ticker,
		Open:   close * 0.99,
		High:   close * 1.01,
		Low:    close * 0.98,
		Close:  close,
		Volume: 1_000_000,
		VWAP:   close * 0.995,
	}
}

func newTestAggregator(market *fakeMarket, obs *fakeObservationRepo, movers *fakeMoverRepo, watchlist []string) *Aggregator {
	agg := NewAggregator(market, obs, movers, watchlist, nil, zerolog.Nop())
	agg.retryDelay = time.Millisecond
	return agg
}

func seedObservation(t *testing.T, repo *fakeObservationRepo, ticker string, date time.Time, close float64) {
	t.Helper()
	err := repo.Upsert(context.Background(), &contracts.Observation{
		Ticker: ticker,
		Date:   date,
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: 1,
	})
	require.NoError(t, err)
}

func TestRun_PercentChangeFromPriorClose(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()

	seedObservation(t, obsRepo, "NVDA", day("2024-03-14"), 720.00)
	market.bars["NVDA"] = bar("NVDA", 690.30)

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"NVDA"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.NoError(t, err)
	assert.Equal(t, StatePersisted, result.State)
	require.NotNil(t, result.TopMover)
	assert.Equal(t, "NVDA", result.TopMover.Ticker)
	assert.InDelta(t, -4.125, result.TopMover.PercentChange, 1e-9)

	stored := obsRepo.rows[obsKey("NVDA", day("2024-03-15"))]
	require.NotNil(t, stored)
	require.NotNil(t, stored.PercentChange)
	assert.InDelta(t, -4.125, *stored.PercentChange, 1e-9)
}

func TestRun_SelectsLargestAbsoluteMove(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()
	prior := day("2024-03-14")

	// AAPL +2%, MSFT -5%, TSLA +4%. The largest magnitude wins even
	// though it is a loss.
	seedObservation(t, obsRepo, "AAPL", prior, 100)
	seedObservation(t, obsRepo, "MSFT", prior, 100)
	seedObservation(t, obsRepo, "TSLA", prior, 100)
	market.bars["AAPL"] = bar("AAPL", 102)
	market.bars["MSFT"] = bar("MSFT", 95)
	market.bars["TSLA"] = bar("TSLA", 104)

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL", "MSFT", "TSLA"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.NoError(t, err)
	require.NotNil(t, result.TopMover)
	assert.Equal(t, "MSFT", result.TopMover.Ticker)
	assert.InDelta(t, -5.0, result.TopMover.PercentChange, 1e-9)
}

func TestRun_TieBrokenByAscendingTicker(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()
	prior := day("2024-03-14")

	// MSFT -3% and AMZN +3% tie on magnitude.
	seedObservation(t, obsRepo, "MSFT", prior, 100)
	seedObservation(t, obsRepo, "AMZN", prior, 100)
	market.bars["MSFT"] = bar("MSFT", 97)
	market.bars["AMZN"] = bar("AMZN", 103)

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"MSFT", "AMZN"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.NoError(t, err)
	require.NotNil(t, result.TopMover)
	assert.Equal(t, "AMZN", result.TopMover.Ticker)
}

func TestRun_FirstObservationIneligible(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()

	// GOOGL has no history at all; AAPL moved only slightly but is the
	// only eligible ticker.
	seedObservation(t, obsRepo, "AAPL", day("2024-03-14"), 100)
	market.bars["AAPL"] = bar("AAPL", 100.1)
	market.bars["GOOGL"] = bar("GOOGL", 9999)

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL", "GOOGL"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.NoError(t, err)
	require.NotNil(t, result.TopMover)
	assert.Equal(t, "AAPL", result.TopMover.Ticker)

	googl := obsRepo.rows[obsKey("GOOGL", day("2024-03-15"))]
	require.NotNil(t, googl)
	assert.Nil(t, googl.PercentChange)
}

func TestRun_AllFirstObservationsPersistsWithoutMover(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()

	market.bars["AAPL"] = bar("AAPL", 100)
	market.bars["MSFT"] = bar("MSFT", 200)

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL", "MSFT"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.NoError(t, err)
	assert.Equal(t, StatePersisted, result.State)
	assert.Nil(t, result.TopMover)
	assert.Equal(t, 2, result.Stored)
	assert.Empty(t, moverRepo.rows)
}

func TestRun_PartialFailureStillPersists(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()
	prior := day("2024-03-14")

	seedObservation(t, obsRepo, "AAPL", prior, 100)
	market.bars["AAPL"] = bar("AAPL", 103)
	market.errs["TSLA"] = &contracts.ProviderError{Ticker: "TSLA", Err: errors.New("upstream 503")}

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL", "TSLA"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.NoError(t, err)
	assert.Equal(t, StatePersisted, result.State)
	require.NotNil(t, result.TopMover)
	assert.Equal(t, "AAPL", result.TopMover.Ticker)
	assert.Equal(t, []string{"TSLA"}, result.Failed)
}

func TestRun_AllTickersFailed(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()

	market.errs["AAPL"] = errors.New("timeout")
	market.errs["MSFT"] = errors.New("timeout")

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL", "MSFT"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.ErrorIs(t, err, contracts.ErrAllTickersFailed)
	assert.Equal(t, StateFailed, result.State)
	assert.Nil(t, result.TopMover)
	assert.Empty(t, moverRepo.rows)
	assert.Equal(t, []string{"AAPL", "MSFT"}, result.Failed)
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()
	prior := day("2024-03-14")

	seedObservation(t, obsRepo, "AAPL", prior, 100)
	seedObservation(t, obsRepo, "MSFT", prior, 100)
	market.bars["AAPL"] = bar("AAPL", 105)
	market.bars["MSFT"] = bar("MSFT", 101)

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL", "MSFT"})

	first, err := agg.Run(context.Background(), day("2024-03-15"))
	require.NoError(t, err)
	second, err := agg.Run(context.Background(), day("2024-03-15"))
	require.NoError(t, err)

	assert.Equal(t, first.TopMover.Ticker, second.TopMover.Ticker)
	assert.InDelta(t, first.TopMover.PercentChange, second.TopMover.PercentChange, 1e-9)

	// One observation row per ticker per date, one mover per date.
	assert.Len(t, obsRepo.rows, 4)
	assert.Len(t, moverRepo.rows, 1)
}

func TestRun_CancelledContextSkipsSelection(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()

	seedObservation(t, obsRepo, "AAPL", day("2024-03-14"), 100)
	market.bars["AAPL"] = bar("AAPL", 110)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL"})
	result, err := agg.Run(ctx, day("2024-03-15"))

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, result.State)
	assert.Empty(t, moverRepo.rows)
}

func TestRun_RetriesTransientFetchFailure(t *testing.T) {
	market := newFakeMarket()
	obsRepo := newFakeObservationRepo()
	moverRepo := newFakeMoverRepo()

	seedObservation(t, obsRepo, "AAPL", day("2024-03-14"), 100)
	market.bars["AAPL"] = bar("AAPL", 104)
	market.failures["AAPL"] = 2

	agg := newTestAggregator(market, obsRepo, moverRepo, []string{"AAPL"})
	result, err := agg.Run(context.Background(), day("2024-03-15"))

	require.NoError(t, err)
	assert.Equal(t, StatePersisted, result.State)
	require.NotNil(t, result.TopMover)
	assert.Equal(t, "AAPL", result.TopMover.Ticker)
}

func TestSelectTopMover_Empty(t *testing.T) {
	assert.Nil(t, selectTopMover(nil))

	pct := 1.0
	eligible := []tickerResult{
		{Ticker: "AAPL"},
		{Ticker: "MSFT", PercentChange: &pct, Close: 100},
	}
	winner := selectTopMover(eligible)
	require.NotNil(t, winner)
	assert.Equal(t, "MSFT", winner.Ticker)
}
