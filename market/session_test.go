package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifySession(t *testing.T) {
	t.Parallel()

	at := func(h, m int) int64 {
		return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC).Unix()
	}

	tests := []struct {
		ts   int64
		want Session
	}{
		{at(0, 0), SessionAsian},
		{at(7, 59), SessionAsian},
		{at(8, 0), SessionLondon},
		{at(12, 59), SessionLondon},
		{at(13, 0), SessionNYAM},
		{at(14, 0), SessionNYAM},
		{at(16, 0), SessionNYPM},
		{at(20, 59), SessionNYPM},
		{at(21, 0), SessionOffHour},
		{at(22, 0), SessionOffHour},
		{at(23, 59), SessionOffHour},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySession(tt.ts), time.Unix(tt.ts, 0).UTC().String())
	}
}

func TestSessionForHourIsTotal(t *testing.T) {
	t.Parallel()

	seen := map[Session]int{}
	for h := 0; h < 24; h++ {
		seen[SessionForHour(h)]++
	}
	assert.Len(t, seen, len(Sessions()))
	assert.Equal(t, 8, seen[SessionAsian])
	assert.Equal(t, 5, seen[SessionLondon])
	assert.Equal(t, 3, seen[SessionNYAM])
	assert.Equal(t, 5, seen[SessionNYPM])
	assert.Equal(t, 3, seen[SessionOffHour])
}

func TestClassifySessionIgnoresLocalZone(t *testing.T) {
	t.Parallel()

	// 14:00 UTC is 09:00 in New York; the bucket is always taken in UTC.
	ny := time.FixedZone("EST", -5*60*60)
	ts := time.Date(2024, 1, 10, 9, 0, 0, 0, ny).Unix()
	assert.Equal(t, SessionNYAM, ClassifySession(ts))
}
