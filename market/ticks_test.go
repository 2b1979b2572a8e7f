package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTicks(t *testing.T) {
	t.Parallel()

	up := Bar{Open: 1.10, High: 1.20, Low: 1.05, Close: 1.15}
	down := Bar{Open: 1.15, High: 1.20, Low: 1.05, Close: 1.10}
	flat := Bar{Open: 1.10, High: 1.12, Low: 1.08, Close: 1.10}

	tests := []struct {
		name      string
		bar       Bar
		synthetic bool
		want      []float64
	}{
		{"synthetic up bar dips first", up, true, []float64{1.10, 1.05, 1.20, 1.15}},
		{"synthetic down bar spikes first", down, true, []float64{1.15, 1.20, 1.05, 1.10}},
		{"synthetic flat close counts as up", flat, true, []float64{1.10, 1.08, 1.12, 1.10}},
		{"plain up bar", up, false, []float64{1.10, 1.20, 1.05, 1.15}},
		{"plain down bar", down, false, []float64{1.15, 1.20, 1.05, 1.10}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExpandTicks(tt.bar, tt.synthetic))
		})
	}
}

func TestBarShape(t *testing.T) {
	t.Parallel()

	assert.True(t, Bar{Open: 1.10, Close: 1.15}.Bullish())
	assert.True(t, Bar{Open: 1.10, Close: 1.10}.Bullish())
	assert.False(t, Bar{Open: 1.15, Close: 1.10}.Bullish())
	assert.InDelta(t, 0.15, Bar{High: 1.20, Low: 1.05}.Range(), 1e-12)
}
