package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the history tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS ticker_observations (
			ticker         TEXT             NOT NULL,
			trade_date     DATE             NOT NULL,
			open_price     DOUBLE PRECISION NOT NULL,
			high_price     DOUBLE PRECISION NOT NULL,
			low_price      DOUBLE PRECISION NOT NULL,
			close_price    DOUBLE PRECISION NOT NULL,
			volume         BIGINT           NOT NULL,
			vwap           DOUBLE PRECISION NOT NULL DEFAULT 0,
			percent_change DOUBLE PRECISION,
			PRIMARY KEY (ticker, trade_date)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_top_movers (
			trade_date     DATE             PRIMARY KEY,
			ticker         TEXT             NOT NULL,
			percent_change DOUBLE PRECISION NOT NULL,
			close_price    DOUBLE PRECISION NOT NULL
		)`,
	}

	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
