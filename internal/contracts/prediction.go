package contracts

import "time"

// FeatureVector holds the ordered indicator values for one ticker as of one
// date. Order is fixed by the model artifact's feature-name list; length and
// order must match the artifact exactly or scoring is refused.
type FeatureVector struct {
	Ticker string
	Date   time.Time
	Names  []string
	Values []float64
}

// Prediction is one ticker's next-day forecast. Confidence is the normalized
// probability of the predicted direction and is always in [0.5, 1.0].
type Prediction struct {
	Ticker     string  `json:"ticker"`
	PredUp     bool    `json:"pred_up"`
	ProbUp     float64 `json:"prob_up"`
	Confidence float64 `json:"confidence"`
	Why        string  `json:"why"`
}

// PredictionSet is the full predict response. Tickers excluded for
// insufficient history, schema mismatch, or scoring timeout are simply
// absent.
type PredictionSet struct {
	AsOf        time.Time    `json:"asof"`
	Predictions []Prediction `json:"predictions"`
}
