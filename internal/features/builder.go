package features

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/movers/internal/contracts"
)

// Builder assembles one latest-day feature vector per ticker, ordered by
// the model artifact's feature list.
type Builder struct {
	observations contracts.ObservationRepository
	lookbackDays int
	minHistory   int
	log          zerolog.Logger
}

func NewBuilder(observations contracts.ObservationRepository, lookbackDays, minHistory int, log zerolog.Logger) *Builder {
	return &Builder{
		observations: observations,
		lookbackDays: lookbackDays,
		minHistory:   minHistory,
		log:          log.With().Str("component", "features").Logger(),
	}
}

// Build loads the ticker's trailing observation window ending at asOf and
// produces the latest day's feature vector in featureNames order, plus the
// full frame backing the explanation step.
//
// A short window returns contracts.ErrInsufficientHistory. A feature name
// the builder cannot produce returns a SchemaMismatchError listing every
// unknown name. A known feature that is NaN or infinite on the latest day
// returns contracts.ErrIncompleteFeatures.
func (b *Builder) Build(ctx context.Context, ticker string, asOf time.Time, featureNames []string) (*contracts.FeatureVector, *Frame, error) {
	from := asOf.AddDate(0, 0, -b.lookbackDays)
	window, err := b.observations.Window(ctx, ticker, from, asOf)
	if err != nil {
		return nil, nil, err
	}
	if len(window) < b.minHistory {
		b.log.Debug().
			Str("ticker", ticker).
			Int("rows", len(window)).
			Int("required", b.minHistory).
			Msg("window below minimum history")
		return nil, nil, contracts.ErrInsufficientHistory
	}

	sort.Slice(window, func(i, j int) bool { return window[i].Date.Before(window[j].Date) })

	frame := NewFrame(ticker, window)

	values := make([]float64, len(featureNames))
	var missing []string
	incomplete := false

	for i, name := range featureNames {
		if strings.HasPrefix(name, "ticker_") {
			if name == "ticker_"+ticker {
				values[i] = 1
			}
			continue
		}

		v, ok := frame.Latest(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			incomplete = true
			continue
		}
		values[i] = v
	}

	if len(missing) > 0 {
		return nil, nil, &contracts.SchemaMismatchError{Ticker: ticker, Missing: missing}
	}
	if incomplete {
		return nil, nil, contracts.ErrIncompleteFeatures
	}

	return &contracts.FeatureVector{
		Ticker: ticker,
		Date:   frame.Dates[frame.Len()-1],
		Names:  featureNames,
		Values: values,
	}, frame, nil
}
