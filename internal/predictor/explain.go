package predictor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wonny/movers/internal/features"
)

// phrases maps every explainable indicator to a short UI-friendly label.
// The map must cover the full artifact feature list minus raw price fields
// and ticker one-hots; NewExplainer enforces that at construction.
var phrases = map[string]string{
	"return_1d":  "short-term momentum",
	"return_5d":  "5-day momentum",
	"return_10d": "10-day momentum",

	"ma_5":          "5-day average level",
	"ma_20":         "20-day average level",
	"price_to_ma5":  "price vs 5-day average",
	"price_to_ma20": "price vs 20-day average",

	"volatility_5d":  "recent volatility",
	"volatility_10d": "10-day volatility",
	"daily_range":    "intraday price range",

	"volume_ma_20": "20-day average volume",
	"volume_ratio": "unusual trading volume",

	"rsi_14":        "RSI level",
	"close_to_vwap": "close vs VWAP",

	"day_of_week": "day-of-week pattern",
}

// rawFields are carried in the artifact but never surfaced in explanations.
var rawFields = map[string]bool{
	"open": true, "high": true, "low": true,
	"close": true, "volume": true, "vwap": true,
}

const fallbackWhy = "Based on recent price and volume patterns."

// minExplainRows is the shortest frame an explanation will reason over.
const minExplainRows = 10

func explainable(name string) bool {
	return !rawFields[name] && !strings.HasPrefix(name, "ticker_")
}

// Explainer ranks indicator unusualness weighted by model importance and
// renders a one-sentence reason.
type Explainer struct {
	names       []string
	importances []float64
}

// NewExplainer validates that every explainable artifact feature has a
// phrase and returns a ready explainer. A missing phrase is a deploy-time
// mistake and refuses construction rather than degrading silently.
func NewExplainer(featureNames []string, importances []float64) (*Explainer, error) {
	var missing []string
	for _, name := range featureNames {
		if explainable(name) {
			if _, ok := phrases[name]; !ok {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no explanation phrase for features %v", missing)
	}
	return &Explainer{names: featureNames, importances: importances}, nil
}

type contribution struct {
	score float64
	name  string
	z     float64
}

// Explain scores each explainable feature by importance times the absolute
// z-score of its latest value against its own window, then phrases the top
// two. Frames too short to estimate a distribution get the generic reason.
func (e *Explainer) Explain(frame *features.Frame) string {
	if frame == nil || frame.Len() < minExplainRows {
		return fallbackWhy
	}

	var scores []contribution
	for i, name := range e.names {
		if !explainable(name) {
			continue
		}
		series, ok := frame.Column(name)
		if !ok {
			continue
		}
		mean, std, ok := features.SeriesStats(series)
		if !ok {
			continue
		}

		last := series[len(series)-1]
		z := 0.0
		if !math.IsNaN(last) && !math.IsInf(last, 0) {
			z = (last - mean) / std
		}
		imp := 0.0
		if i < len(e.importances) {
			imp = e.importances[i]
		}
		scores = append(scores, contribution{score: math.Abs(z) * imp, name: name, z: z})
	}

	if len(scores) == 0 {
		return fallbackWhy
	}

	// Stable so tied scores keep artifact feature order and the rendered
	// sentence is reproducible for identical inputs.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	top := scores
	if len(top) > 2 {
		top = top[:2]
	}

	parts := make([]string, 0, 2)
	for _, c := range top {
		direction := "high"
		if c.z < 0 {
			direction = "low"
		}
		parts = append(parts, direction+" "+phrases[c.name])
	}

	if len(parts) == 1 {
		return fmt.Sprintf("Driven mainly by %s.", parts[0])
	}
	return fmt.Sprintf("Driven mainly by %s and %s.", parts[0], parts[1])
}
