package tradingday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrevious(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		want string
	}{
		{
			name: "wednesday returns tuesday",
			ref:  time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC),
			want: "2026-08-25",
		},
		{
			name: "monday returns previous friday",
			ref:  time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC),
			want: "2026-08-21",
		},
		{
			name: "saturday returns friday",
			ref:  time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC),
			want: "2026-08-28",
		},
		{
			name: "sunday returns friday",
			ref:  time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC),
			want: "2026-08-28",
		},
		{
			// 01:00 UTC Tuesday is still Monday evening in New York,
			// so the previous session is Friday's.
			name: "utc early tuesday is ny monday",
			ref:  time.Date(2026, 8, 25, 1, 0, 0, 0, time.UTC),
			want: "2026-08-21",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Previous(tt.ref)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestNormalize(t *testing.T) {
	ts := time.Date(2026, 8, 26, 17, 45, 12, 999, time.UTC)
	norm := Normalize(ts)
	assert.Equal(t, "2026-08-26", Format(norm))

	h, m, s := norm.Clock()
	assert.Zero(t, h)
	assert.Zero(t, m)
	assert.Zero(t, s)
}

func TestParseRoundTrip(t *testing.T) {
	d, err := Parse("2026-02-14")
	assert.NoError(t, err)
	assert.Equal(t, "2026-02-14", Format(d))

	_, err = Parse("14/02/2026")
	assert.Error(t, err)
}
