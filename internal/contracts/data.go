package contracts

import (
	"fmt"
	"time"
)

// Bar is a single daily OHLCV bar as returned by the market-data provider.
type Bar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	VWAP   float64   `json:"vwap"`
}

// Observation is one stored per-ticker daily record. Uniquely keyed by
// (ticker, date). PercentChange is derived from the most recent prior stored
// observation for the ticker and is nil when no prior observation exists.
type Observation struct {
	Ticker        string    `json:"ticker"`
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        int64     `json:"volume"`
	VWAP          float64   `json:"vwap"`
	PercentChange *float64  `json:"percent_change,omitempty"`
}

// Validate performs basic shape validation on a stored observation. Rows that
// fail are skipped on read rather than aborting the surrounding query.
func (o *Observation) Validate() error {
	if o.Ticker == "" {
		return &MalformedRecordError{Ticker: o.Ticker, Date: o.Date, Reason: "empty ticker"}
	}
	if o.Date.IsZero() {
		return &MalformedRecordError{Ticker: o.Ticker, Date: o.Date, Reason: "zero date"}
	}
	if o.Close <= 0 {
		return &MalformedRecordError{
			Ticker: o.Ticker,
			Date:   o.Date,
			Reason: fmt.Sprintf("non-positive close %v", o.Close),
		}
	}
	if o.Volume < 0 {
		return &MalformedRecordError{
			Ticker: o.Ticker,
			Date:   o.Date,
			Reason: fmt.Sprintf("negative volume %d", o.Volume),
		}
	}
	return nil
}

// TopMover is the canonical per-date record of the watchlist ticker with the
// largest-magnitude percent change. Exactly one row per date.
type TopMover struct {
	Date          time.Time `json:"date"`
	Ticker        string    `json:"ticker"`
	PercentChange float64   `json:"percent_change"`
	Close         float64   `json:"close_price"`
}
