package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validObservation() *Observation {
	return &Observation{
		Ticker: "AAPL",
		Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Open:   170.00,
		High:   172.50,
		Low:    169.10,
		Close:  171.20,
		Volume: 52_000_000,
		VWAP:   170.95,
	}
}

func TestObservationValidate(t *testing.T) {
	assert.NoError(t, validObservation().Validate())
}

func TestObservationValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Observation)
	}{
		{"empty ticker", func(o *Observation) { o.Ticker = "" }},
		{"zero date", func(o *Observation) { o.Date = time.Time{} }},
		{"zero close", func(o *Observation) { o.Close = 0 }},
		{"negative close", func(o *Observation) { o.Close = -3.5 }},
		{"negative volume", func(o *Observation) { o.Volume = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := validObservation()
			tt.mutate(obs)

			err := obs.Validate()
			require.Error(t, err)

			var malformed *MalformedRecordError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := ErrNoData
	err := &ProviderError{Ticker: "TSLA", Err: inner}

	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "TSLA")
}
