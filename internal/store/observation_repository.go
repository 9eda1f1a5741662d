package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/movers/internal/contracts"
)

// Compile-time interface check
var _ contracts.ObservationRepository = (*ObservationRepository)(nil)

// ObservationRepository persists per-ticker daily observations.
type ObservationRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(pool *pgxpool.Pool, log zerolog.Logger) *ObservationRepository {
	return &ObservationRepository{
		pool: pool,
		log:  log.With().Str("component", "store.observations").Logger(),
	}
}

// Upsert saves a single observation. Rewrites for the same (ticker, date)
// overwrite the earlier row; last successful write wins.
func (r *ObservationRepository) Upsert(ctx context.Context, obs *contracts.Observation) error {
	query := `
		INSERT INTO ticker_observations
			(ticker, trade_date, open_price, high_price, low_price, close_price, volume, vwap, percent_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			vwap = EXCLUDED.vwap,
			percent_change = EXCLUDED.percent_change
	`

	_, err := r.pool.Exec(ctx, query,
		obs.Ticker, obs.Date, obs.Open, obs.High, obs.Low, obs.Close,
		obs.Volume, obs.VWAP, obs.PercentChange,
	)
	return err
}

// LatestBefore retrieves the most recent observation for a ticker strictly
// before the given date, or nil when the ticker has no prior history.
func (r *ObservationRepository) LatestBefore(ctx context.Context, ticker string, date time.Time) (*contracts.Observation, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume, vwap, percent_change
		FROM ticker_observations
		WHERE ticker = $1 AND trade_date < $2
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var o contracts.Observation
	err := r.pool.QueryRow(ctx, query, ticker, date).Scan(
		&o.Ticker, &o.Date, &o.Open, &o.High, &o.Low, &o.Close, &o.Volume, &o.VWAP, &o.PercentChange,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Window retrieves observations for a ticker within [from, to], date
// ascending. Rows failing shape validation are skipped and logged, never
// fatal for the query.
func (r *ObservationRepository) Window(ctx context.Context, ticker string, from, to time.Time) ([]contracts.Observation, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume, vwap, percent_change
		FROM ticker_observations
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []contracts.Observation
	for rows.Next() {
		var o contracts.Observation
		if err := rows.Scan(&o.Ticker, &o.Date, &o.Open, &o.High, &o.Low, &o.Close,
			&o.Volume, &o.VWAP, &o.PercentChange); err != nil {
			return nil, err
		}

		if verr := o.Validate(); verr != nil {
			r.log.Warn().Err(verr).
				Str("ticker", o.Ticker).
				Str("date", o.Date.Format("2006-01-02")).
				Msg("skipping malformed stored observation")
			continue
		}

		observations = append(observations, o)
	}
	return observations, rows.Err()
}
