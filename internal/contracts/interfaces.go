package contracts

import (
	"context"
	"time"
)

// MarketData fetches daily bars from the external market-data collaborator.
type MarketData interface {
	// DailyBar returns the bar for one ticker on one trading date.
	DailyBar(ctx context.Context, ticker string, date time.Time) (*Bar, error)
}

// ObservationRepository is the history store for per-ticker daily
// observations. Upsert has per-key overwrite semantics on (ticker, date).
type ObservationRepository interface {
	Upsert(ctx context.Context, obs *Observation) error

	// LatestBefore returns the most recent observation for a ticker
	// strictly before the given date, or nil when none exists.
	LatestBefore(ctx context.Context, ticker string, date time.Time) (*Observation, error)

	// Window returns observations for a ticker with date in [from, to],
	// ordered by date ascending. Malformed rows are skipped.
	Window(ctx context.Context, ticker string, from, to time.Time) ([]Observation, error)
}

// TopMoverRepository is the history store for per-date top-mover records.
// Upsert has per-key overwrite semantics on date.
type TopMoverRepository interface {
	Upsert(ctx context.Context, mover *TopMover) error

	// Range returns top movers with date in [from, to], ordered by date
	// descending. An empty range yields an empty slice, not an error.
	Range(ctx context.Context, from, to time.Time) ([]TopMover, error)
}
