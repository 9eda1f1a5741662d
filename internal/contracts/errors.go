package contracts

import (
	"errors"
	"fmt"
	"time"
)

// Run-scoped and request-scoped failures propagate to the caller as a single
// outcome; ticker-scoped failures are contained and reported as exclusions.
var (
	// ErrAllTickersFailed: every watchlist fetch failed for an ingestion
	// run. No top mover is written; prior dates stay untouched.
	ErrAllTickersFailed = errors.New("all watchlist tickers failed to fetch")

	// ErrInsufficientHistory: a ticker lacks the minimum stored history
	// for feature building. Non-fatal, the ticker is excluded.
	ErrInsufficientHistory = errors.New("insufficient stored history")

	// ErrNoData: a query found no usable data at all.
	ErrNoData = errors.New("no data available")

	// ErrIncompleteFeatures: one or more feature values are undefined for
	// the latest trading day. Non-fatal, the ticker is excluded.
	ErrIncompleteFeatures = errors.New("incomplete feature values for latest day")
)

// ProviderError wraps a market-data fetch failure for one ticker.
type ProviderError struct {
	Ticker string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider fetch failed for %s: %v", e.Ticker, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a feature set that does not line up with the
// model artifact's expected feature list. This is a configuration-level
// problem; the ticker is excluded rather than scored with defaults.
type SchemaMismatchError struct {
	Ticker  string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch for %s: missing %v", e.Ticker, e.Missing)
}

// ModelLoadError reports a missing or corrupt classifier artifact. Fatal for
// the entire prediction request.
type ModelLoadError struct {
	Location string
	Err      error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("model artifact load failed from %s: %v", e.Location, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// MalformedRecordError reports a stored observation that failed shape
// validation on read. The row is skipped and logged.
type MalformedRecordError struct {
	Ticker string
	Date   time.Time
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed stored record %s@%s: %s",
		e.Ticker, e.Date.Format("2006-01-02"), e.Reason)
}
