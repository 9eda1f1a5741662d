// Package features derives model input vectors from stored daily
// observations. Indicator math must match the training pipeline exactly:
// rolling windows emit NaN until filled, and undefined values stay NaN
// instead of being imputed.
package features

import (
	"math"
	"time"

	"github.com/wonny/movers/internal/contracts"
)

var nan = math.NaN()

// Frame holds aligned per-day series for one ticker, oldest first. Raw
// columns come straight from observations; derived columns are computed
// on construction.
type Frame struct {
	Ticker string
	Dates  []time.Time
	cols   map[string][]float64
}

// NewFrame computes all raw and derived columns for a date-ascending
// observation window.
func NewFrame(ticker string, obs []contracts.Observation) *Frame {
	n := len(obs)
	f := &Frame{
		Ticker: ticker,
		Dates:  make([]time.Time, n),
		cols:   make(map[string][]float64, 24),
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	vwap := make([]float64, n)

	for i, o := range obs {
		f.Dates[i] = o.Date
		open[i] = o.Open
		high[i] = o.High
		low[i] = o.Low
		closes[i] = o.Close
		volume[i] = float64(o.Volume)
		if o.VWAP > 0 {
			vwap[i] = o.VWAP
		} else {
			vwap[i] = nan
		}
	}

	f.cols["open"] = open
	f.cols["high"] = high
	f.cols["low"] = low
	f.cols["close"] = closes
	f.cols["volume"] = volume
	f.cols["vwap"] = vwap

	f.cols["return_1d"] = pctChange(closes, 1)
	f.cols["return_5d"] = pctChange(closes, 5)
	f.cols["return_10d"] = pctChange(closes, 10)

	ma5 := rollingMean(closes, 5)
	ma20 := rollingMean(closes, 20)
	f.cols["ma_5"] = ma5
	f.cols["ma_20"] = ma20
	f.cols["price_to_ma5"] = divide(closes, ma5)
	f.cols["price_to_ma20"] = divide(closes, ma20)

	ret1 := f.cols["return_1d"]
	f.cols["volatility_5d"] = rollingStd(ret1, 5)
	f.cols["volatility_10d"] = rollingStd(ret1, 10)

	volMA20 := rollingMean(volume, 20)
	f.cols["volume_ma_20"] = volMA20
	f.cols["volume_ratio"] = divide(volume, volMA20)

	f.cols["rsi_14"] = rsi(closes, 14)

	dailyRange := make([]float64, n)
	closeToVWAP := make([]float64, n)
	dayOfWeek := make([]float64, n)
	for i := range obs {
		dailyRange[i] = (high[i] - low[i]) / open[i]
		closeToVWAP[i] = closes[i] / vwap[i]
		// Monday=0 through Sunday=6.
		dayOfWeek[i] = float64((int(f.Dates[i].Weekday()) + 6) % 7)
	}
	f.cols["daily_range"] = dailyRange
	f.cols["close_to_vwap"] = closeToVWAP
	f.cols["day_of_week"] = dayOfWeek

	return f
}

// Len returns the number of rows in the frame.
func (f *Frame) Len() int { return len(f.Dates) }

// Column returns the full series for a column name.
func (f *Frame) Column(name string) ([]float64, bool) {
	s, ok := f.cols[name]
	return s, ok
}

// Latest returns the last value of a column.
func (f *Frame) Latest(name string) (float64, bool) {
	s, ok := f.cols[name]
	if !ok || len(s) == 0 {
		return nan, false
	}
	return s[len(s)-1], true
}

// pctChange returns the lagged relative change series: NaN for the first
// lag rows.
func pctChange(values []float64, lag int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < lag || values[i-lag] == 0 {
			out[i] = nan
			continue
		}
		out[i] = (values[i] - values[i-lag]) / values[i-lag]
	}
	return out
}

// rollingMean computes a trailing mean with a full-window requirement: the
// first window-1 rows, and any window containing a NaN, are NaN.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = nan
			continue
		}
		sum, bad := 0.0, false
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				bad = true
				break
			}
			sum += values[j]
		}
		if bad {
			out[i] = nan
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd computes a trailing sample standard deviation (n-1 divisor)
// with the same full-window requirement as rollingMean.
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	means := rollingMean(values, window)
	for i := range values {
		if math.IsNaN(means[i]) || window < 2 {
			out[i] = nan
			continue
		}
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - means[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

func divide(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] / b[i]
	}
	return out
}

// rsi computes the simple rolling-mean RSI. When the window has gains but
// no losses the value saturates at 100; a flat window is undefined.
func rsi(closes []float64, period int) []float64 {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	gains[0], losses[0] = nan, nan
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)

	out := make([]float64, n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
			out[i] = nan
		case l == 0 && g == 0:
			out[i] = nan
		case l == 0:
			out[i] = 100
		default:
			rs := g / l
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// SeriesStats returns the mean and sample standard deviation of the finite
// values in a series. ok is false when fewer than two finite values exist
// or the deviation is zero.
func SeriesStats(values []float64) (mean, std float64, ok bool) {
	var finite []float64
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) < 2 {
		return 0, 0, false
	}
	sum := 0.0
	for _, v := range finite {
		sum += v
	}
	mean = sum / float64(len(finite))
	ss := 0.0
	for _, v := range finite {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(finite)-1))
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return mean, std, false
	}
	return mean, std, true
}
