package predictor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/features"
	"github.com/wonny/movers/pkg/metrics"
)

// vectorBuilder builds one ticker's latest-day feature vector.
type vectorBuilder interface {
	Build(ctx context.Context, ticker string, asOf time.Time, featureNames []string) (*contracts.FeatureVector, *features.Frame, error)
}

// Engine scores every watchlist ticker concurrently. A failed model load is
// fatal for the whole request; per-ticker problems only exclude that ticker.
type Engine struct {
	loader       *Loader
	builder      vectorBuilder
	watchlist    []string
	scoreTimeout time.Duration
	recorder     *metrics.Recorder // optional
	log          zerolog.Logger
}

func NewEngine(
	loader *Loader,
	builder vectorBuilder,
	watchlist []string,
	scoreTimeout time.Duration,
	recorder *metrics.Recorder,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		loader:       loader,
		builder:      builder,
		watchlist:    watchlist,
		scoreTimeout: scoreTimeout,
		recorder:     recorder,
		log:          log.With().Str("component", "predictor").Logger(),
	}
}

// Predict produces next-day forecasts for all scoreable watchlist tickers
// as of the given date. Predictions keep watchlist order; excluded tickers
// are absent from the result.
func (e *Engine) Predict(ctx context.Context, asOf time.Time) (*contracts.PredictionSet, error) {
	model, err := e.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	explainer, err := NewExplainer(model.FeatureNames, model.Importances)
	if err != nil {
		return nil, &contracts.ModelLoadError{Location: e.loader.location, Err: err}
	}

	slots := make([]*contracts.Prediction, len(e.watchlist))

	var wg sync.WaitGroup
	for i, ticker := range e.watchlist {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			slots[i] = e.scoreTicker(ctx, model, explainer, ticker, asOf)
		}(i, ticker)
	}
	wg.Wait()

	set := &contracts.PredictionSet{
		AsOf:        asOf,
		Predictions: make([]contracts.Prediction, 0, len(e.watchlist)),
	}
	for _, p := range slots {
		if p != nil {
			set.Predictions = append(set.Predictions, *p)
		}
	}
	return set, nil
}

// scoreTicker runs one ticker's pipeline under its own deadline. Every
// failure path returns nil so the ticker is excluded rather than failing
// the request.
func (e *Engine) scoreTicker(ctx context.Context, model *Model, explainer *Explainer, ticker string, asOf time.Time) *contracts.Prediction {
	tctx, cancel := context.WithTimeout(ctx, e.scoreTimeout)
	defer cancel()

	vec, frame, err := e.builder.Build(tctx, ticker, asOf, model.FeatureNames)
	if err != nil {
		e.logExclusion(ticker, err)
		return nil
	}

	probUp, err := model.ProbUp(vec.Values)
	if err != nil {
		e.log.Error().Err(err).Str("ticker", ticker).Msg("scoring failed, ticker excluded")
		return nil
	}

	predUp, confidence, err := Normalize(probUp)
	if err != nil {
		e.log.Error().Err(err).Str("ticker", ticker).Msg("unusable probability, ticker excluded")
		return nil
	}

	if e.recorder != nil {
		e.recorder.Prediction(predUp)
	}

	return &contracts.Prediction{
		Ticker:     ticker,
		PredUp:     predUp,
		ProbUp:     probUp,
		Confidence: confidence,
		Why:        explainer.Explain(frame),
	}
}

func (e *Engine) logExclusion(ticker string, err error) {
	var mismatch *contracts.SchemaMismatchError
	switch {
	case errors.Is(err, contracts.ErrInsufficientHistory):
		e.log.Info().Str("ticker", ticker).Msg("not enough stored history, ticker excluded")
	case errors.Is(err, contracts.ErrIncompleteFeatures):
		e.log.Info().Str("ticker", ticker).Msg("missing feature values for latest day, ticker excluded")
	case errors.As(err, &mismatch):
		e.log.Error().Err(err).Str("ticker", ticker).Msg("feature schema mismatch, check deployed artifact")
	case errors.Is(err, context.DeadlineExceeded):
		e.log.Warn().Str("ticker", ticker).Msg("scoring deadline exceeded, ticker excluded")
	default:
		e.log.Error().Err(err).Str("ticker", ticker).Msg("feature build failed, ticker excluded")
	}
}
