package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus collectors for the service.
type Recorder struct {
	ingestRuns     *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	tickerPctChg   *prometheus.GaugeVec
	predictions    *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder. Collectors register on the
// default registry, so construct it at most once per process.
func New() *Recorder {
	return &Recorder{
		ingestRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "movers_ingest_runs_total",
				Help: "Total ingestion runs by outcome",
			},
			[]string{"outcome"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "movers_fetch_errors_total",
				Help: "Market data fetch failures per ticker",
			},
			[]string{"ticker"},
		),
		tickerPctChg: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "movers_last_percent_change",
				Help: "Last ingested percent change per ticker",
			},
			[]string{"ticker"},
		),
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "movers_predictions_total",
				Help: "Prediction results served by direction",
			},
			[]string{"direction"},
		),
		requestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "movers_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
	}
}

// IngestRun records an ingestion run outcome ("persisted" or "failed").
func (r *Recorder) IngestRun(outcome string) {
	r.ingestRuns.WithLabelValues(outcome).Inc()
}

// FetchError records a market data fetch failure for a ticker.
func (r *Recorder) FetchError(ticker string) {
	r.fetchErrors.WithLabelValues(ticker).Inc()
}

// PercentChange records the last ingested percent change for a ticker.
func (r *Recorder) PercentChange(ticker string, pct float64) {
	r.tickerPctChg.WithLabelValues(ticker).Set(pct)
}

// Prediction records a served prediction ("up" or "down").
func (r *Recorder) Prediction(up bool) {
	direction := "down"
	if up {
		direction = "up"
	}
	r.predictions.WithLabelValues(direction).Inc()
}

// RequestDuration records the latency of an HTTP request.
func (r *Recorder) RequestDuration(path string, d time.Duration) {
	r.requestLatency.WithLabelValues(path).Observe(d.Seconds())
}
