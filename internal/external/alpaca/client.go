// Package alpaca wraps the Alpaca market-data API behind the
// contracts.MarketData interface.
package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/config"
)

// Compile-time interface check
var _ contracts.MarketData = (*Client)(nil)

// Client fetches daily bars from the Alpaca market-data API. Calls are rate
// limited and routed through a circuit breaker so a degraded provider fails
// fast instead of exhausting the ingestion run's time budget.
type Client struct {
	md      *marketdata.Client
	feed    marketdata.Feed
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a new Alpaca market-data client from config.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
	}
	if cfg.Alpaca.DataURL != "" {
		opts.BaseURL = cfg.Alpaca.DataURL
	}

	feed := marketdata.IEX
	if strings.EqualFold(cfg.Alpaca.Feed, "sip") {
		feed = marketdata.SIP
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "alpaca-marketdata",
		MaxRequests: 2,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		md:      marketdata.NewClient(opts),
		feed:    feed,
		// Alpaca free tier allows 200 req/min
		limiter: rate.NewLimiter(rate.Limit(3), 5),
		breaker: breaker,
		log:     log.With().Str("component", "alpaca").Logger(),
	}
}

// DailyBar returns the daily OHLCV bar for one ticker on one trading date.
// A missing bar (market holiday, unknown symbol) is a provider error.
func (c *Client) DailyBar(ctx context.Context, ticker string, date time.Time) (*contracts.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &contracts.ProviderError{Ticker: ticker, Err: err}
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Second)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return c.md.GetBars(ticker, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      c.feed,
		})
	})
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).
			Str("date", start.Format("2006-01-02")).
			Msg("daily bar fetch failed")
		return nil, &contracts.ProviderError{Ticker: ticker, Err: err}
	}

	bars := result.([]marketdata.Bar)
	if len(bars) == 0 {
		return nil, &contracts.ProviderError{
			Ticker: ticker,
			Err:    fmt.Errorf("no bar for %s", start.Format("2006-01-02")),
		}
	}

	// The request window spans a single session; take the first bar.
	ab := bars[0]
	bar := &contracts.Bar{
		Ticker: strings.ToUpper(ticker),
		Date:   start,
		Open:   ab.Open,
		High:   ab.High,
		Low:    ab.Low,
		Close:  ab.Close,
		Volume: int64(ab.Volume),
		VWAP:   ab.VWAP,
	}

	c.log.Debug().Str("ticker", bar.Ticker).
		Float64("close", bar.Close).
		Int64("volume", bar.Volume).
		Msg("fetched daily bar")

	return bar, nil
}
