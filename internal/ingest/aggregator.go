// Package ingest turns raw per-ticker daily bars into stored observations
// and the canonical per-date top-mover record.
package ingest

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/metrics"
)

// RunState tracks the lifecycle of one ingestion run.
type RunState string

const (
	StatePending     RunState = "PENDING"
	StateFetching    RunState = "FETCHING"
	StateAggregating RunState = "AGGREGATING"
	StatePersisted   RunState = "PERSISTED"
	StateFailed      RunState = "FAILED"
)

// fetchRetries bounds per-ticker retry attempts within a run.
const fetchRetries = 3

// Aggregator orchestrates one ingestion run: concurrent per-ticker fetches,
// observation upserts, and deterministic top-mover selection.
type Aggregator struct {
	market       contracts.MarketData
	observations contracts.ObservationRepository
	movers       contracts.TopMoverRepository
	watchlist    []string
	retryDelay   time.Duration
	recorder     *metrics.Recorder // optional
	log          zerolog.Logger
}

// NewAggregator creates a new ingestion aggregator. recorder may be nil.
func NewAggregator(
	market contracts.MarketData,
	observations contracts.ObservationRepository,
	movers contracts.TopMoverRepository,
	watchlist []string,
	recorder *metrics.Recorder,
	log zerolog.Logger,
) *Aggregator {
	return &Aggregator{
		market:       market,
		observations: observations,
		movers:       movers,
		watchlist:    watchlist,
		retryDelay:   500 * time.Millisecond,
		recorder:     recorder,
		log:          log.With().Str("component", "ingest").Logger(),
	}
}

// tickerResult is one ticker's outcome within a run.
type tickerResult struct {
	Ticker        string
	PercentChange *float64
	Close         float64
	Err           error
}

// RunResult summarizes one ingestion run.
type RunResult struct {
	Date     time.Time           `json:"date"`
	State    RunState            `json:"state"`
	TopMover *contracts.TopMover `json:"top_mover,omitempty"`
	Stored   int                 `json:"stored"`
	Failed   []string            `json:"failed,omitempty"`
}

// Run executes the ingestion pipeline for one target trading date. The date
// is always explicit; the aggregator never reads the wall clock.
//
// A fetch failure for one ticker does not abort the run. When every ticker
// fails, no top mover is written and the run reports failure. On context
// cancellation or timeout, already-persisted observations remain but
// top-mover selection is skipped rather than computed over a partial set.
func (a *Aggregator) Run(ctx context.Context, date time.Time) (*RunResult, error) {
	result := &RunResult{Date: date, State: StatePending}

	a.log.Info().
		Str("date", date.Format("2006-01-02")).
		Int("watchlist", len(a.watchlist)).
		Msg("ingestion run started")

	// Fetch phase: one worker per ticker, join barrier before selection.
	result.State = StateFetching
	resultCh := make(chan tickerResult, len(a.watchlist))

	var wg sync.WaitGroup
	for _, ticker := range a.watchlist {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			resultCh <- a.processTicker(ctx, ticker, date)
		}(ticker)
	}
	wg.Wait()
	close(resultCh)

	var settled []tickerResult
	for r := range resultCh {
		if r.Err != nil {
			result.Failed = append(result.Failed, r.Ticker)
			continue
		}
		settled = append(settled, r)
		result.Stored++
	}
	sort.Strings(result.Failed)

	// A cancelled or timed-out run must not select a top mover from
	// whatever subset happened to finish.
	if err := ctx.Err(); err != nil {
		result.State = StateFailed
		a.recordRun("failed")
		a.log.Warn().Err(err).Msg("ingestion run cancelled, top-mover selection skipped")
		return result, err
	}

	if len(settled) == 0 {
		result.State = StateFailed
		a.recordRun("failed")
		a.log.Error().
			Strs("failed", result.Failed).
			Msg("every watchlist ticker failed to fetch")
		return result, contracts.ErrAllTickersFailed
	}

	// Selection phase.
	result.State = StateAggregating
	winner := selectTopMover(settled)
	if winner == nil {
		// Every successful ticker was a first observation; there is
		// nothing eligible to rank for this date.
		result.State = StatePersisted
		a.recordRun("persisted")
		a.log.Info().Int("stored", result.Stored).
			Msg("no ticker with defined percent change, no top mover written")
		return result, nil
	}

	mover := &contracts.TopMover{
		Date:          date,
		Ticker:        winner.Ticker,
		PercentChange: *winner.PercentChange,
		Close:         winner.Close,
	}
	if err := a.movers.Upsert(ctx, mover); err != nil {
		result.State = StateFailed
		a.recordRun("failed")
		a.log.Error().Err(err).Msg("failed to persist top mover")
		return result, err
	}

	result.State = StatePersisted
	result.TopMover = mover
	a.recordRun("persisted")

	a.log.Info().
		Str("ticker", mover.Ticker).
		Float64("percent_change", mover.PercentChange).
		Int("stored", result.Stored).
		Strs("failed", result.Failed).
		Msg("ingestion run persisted")

	return result, nil
}

// processTicker fetches one ticker's bar with bounded retry, derives its
// percent change from the most recent prior stored observation, and upserts
// the observation.
func (a *Aggregator) processTicker(ctx context.Context, ticker string, date time.Time) tickerResult {
	bar, err := a.fetchWithRetry(ctx, ticker, date)
	if err != nil {
		if a.recorder != nil {
			a.recorder.FetchError(ticker)
		}
		a.log.Warn().Err(err).Str("ticker", ticker).Msg("ticker skipped for run")
		return tickerResult{Ticker: ticker, Err: err}
	}

	obs := &contracts.Observation{
		Ticker: bar.Ticker,
		Date:   date,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
		VWAP:   bar.VWAP,
	}

	prev, err := a.observations.LatestBefore(ctx, ticker, date)
	if err != nil {
		return tickerResult{Ticker: ticker, Err: err}
	}
	if prev != nil && prev.Close > 0 {
		pct := (bar.Close - prev.Close) / prev.Close * 100
		obs.PercentChange = &pct
		if a.recorder != nil {
			a.recorder.PercentChange(ticker, pct)
		}
	}
	// A first observation keeps PercentChange nil: unavailable, not zero,
	// and ineligible for top-mover selection.

	if err := a.observations.Upsert(ctx, obs); err != nil {
		return tickerResult{Ticker: ticker, Err: err}
	}

	return tickerResult{
		Ticker:        obs.Ticker,
		PercentChange: obs.PercentChange,
		Close:         obs.Close,
	}
}

// fetchWithRetry retries provider fetches with doubling delay.
func (a *Aggregator) fetchWithRetry(ctx context.Context, ticker string, date time.Time) (*contracts.Bar, error) {
	delay := a.retryDelay
	var lastErr error

	for attempt := 0; attempt < fetchRetries; attempt++ {
		bar, err := a.market.DailyBar(ctx, ticker, date)
		if err == nil {
			return bar, nil
		}
		lastErr = err

		if attempt == fetchRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, lastErr
}

// selectTopMover returns the settled ticker with maximal absolute percent
// change, ties broken by ascending ticker symbol. Tickers without a defined
// percent change are ineligible. Returns nil when nothing is eligible.
func selectTopMover(settled []tickerResult) *tickerResult {
	var best *tickerResult
	for i := range settled {
		r := &settled[i]
		if r.PercentChange == nil {
			continue
		}
		if best == nil {
			best = r
			continue
		}

		abs, bestAbs := math.Abs(*r.PercentChange), math.Abs(*best.PercentChange)
		if abs > bestAbs || (abs == bestAbs && r.Ticker < best.Ticker) {
			best = r
		}
	}
	return best
}

func (a *Aggregator) recordRun(outcome string) {
	if a.recorder != nil {
		a.recorder.IngestRun(outcome)
	}
}
