package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/movers/internal/contracts"
)

// Compile-time interface check
var _ contracts.TopMoverRepository = (*TopMoverRepository)(nil)

// TopMoverRepository persists the per-date top-mover record.
type TopMoverRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewTopMoverRepository creates a new top-mover repository
func NewTopMoverRepository(pool *pgxpool.Pool, log zerolog.Logger) *TopMoverRepository {
	return &TopMoverRepository{
		pool: pool,
		log:  log.With().Str("component", "store.movers").Logger(),
	}
}

// Upsert saves the top mover for a date, overwriting any prior value for
// that date. Reruns with identical input converge to the same row.
func (r *TopMoverRepository) Upsert(ctx context.Context, mover *contracts.TopMover) error {
	query := `
		INSERT INTO daily_top_movers (trade_date, ticker, percent_change, close_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trade_date) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			percent_change = EXCLUDED.percent_change,
			close_price = EXCLUDED.close_price
	`

	_, err := r.pool.Exec(ctx, query,
		mover.Date, mover.Ticker, mover.PercentChange, mover.Close,
	)
	return err
}

// Range retrieves top movers with date in [from, to], most recent first.
// No rows in range is an empty slice, not an error.
func (r *TopMoverRepository) Range(ctx context.Context, from, to time.Time) ([]contracts.TopMover, error) {
	query := `
		SELECT trade_date, ticker, percent_change, close_price
		FROM daily_top_movers
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date DESC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movers := []contracts.TopMover{}
	for rows.Next() {
		var m contracts.TopMover
		if err := rows.Scan(&m.Date, &m.Ticker, &m.PercentChange, &m.Close); err != nil {
			return nil, err
		}
		movers = append(movers, m)
	}
	return movers, rows.Err()
}
