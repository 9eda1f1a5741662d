// Package tradingday resolves US equity trading dates. The pipeline itself
// always takes an explicit target date; only the scheduled trigger uses the
// wall clock, through this package.
package tradingday

import "time"

// newYork is the exchange timezone; falls back to fixed ET offset when the
// tz database is unavailable.
var newYork = mustLoadNY()

func mustLoadNY() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("ET", -5*60*60)
	}
	return loc
}

// Previous returns the last fully-closed US trading day before the given
// reference time, evaluated in New York time. Weekends map back to Friday;
// exchange holidays are not modeled.
func Previous(reference time.Time) time.Time {
	ny := reference.In(newYork)
	d := time.Date(ny.Year(), ny.Month(), ny.Day(), 0, 0, 0, 0, time.UTC)

	switch d.Weekday() {
	case time.Monday:
		return d.AddDate(0, 0, -3) // previous Friday
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	default:
		return d.AddDate(0, 0, -1)
	}
}

// Normalize truncates a time to its UTC calendar date. Observation and
// top-mover keys are dates, never instants.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Format renders a date in the ISO-8601 form used across the API and store.
func Format(t time.Time) string {
	return t.Format("2006-01-02")
}

// Parse parses an ISO-8601 date string.
func Parse(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
