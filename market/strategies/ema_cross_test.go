package strategies

import (
	"testing"

	"github.com/rustyeddy/tradelab/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: int64(1700000000 + i*3600), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

// vShape warms up flat, falls, rallies hard, then sells off hard.
func vShape() []float64 {
	closes := make([]float64, 0, 120)
	for i := 0; i < 40; i++ {
		closes = append(closes, 1.0000)
	}
	p := 1.0000
	for i := 0; i < 20; i++ {
		p -= 0.0002
		closes = append(closes, p)
	}
	for i := 0; i < 30; i++ {
		p += 0.0003
		closes = append(closes, p)
	}
	for i := 0; i < 30; i++ {
		p -= 0.0003
		closes = append(closes, p)
	}
	return closes
}

func newCross(t *testing.T, cfg EMACrossConfig) *EMACross {
	t.Helper()
	x, err := NewEMACross(cfg)
	require.NoError(t, err)
	return x
}

func TestEMACross_WarmupNoSignals(t *testing.T) {
	t.Parallel()
	x := newCross(t, EMACrossConfig{FastPeriod: 3, SlowPeriod: 5})

	sigs := Generate(x, barsFromCloses([]float64{1.0000, 1.0001, 1.0002, 1.0003}))
	assert.Empty(t, sigs)
}

func TestEMACross_CrossUpThenDown(t *testing.T) {
	t.Parallel()
	x := newCross(t, EMACrossConfig{FastPeriod: 3, SlowPeriod: 5})

	sigs := Generate(x, barsFromCloses(vShape()))
	require.GreaterOrEqual(t, len(sigs), 2)

	assert.Equal(t, market.Long, sigs[0].Side, "first signal is the cross up after the baseline")
	assert.Equal(t, market.Short, sigs[len(sigs)-1].Side)
	for i := 1; i < len(sigs); i++ {
		assert.NotEqual(t, sigs[i-1].Side, sigs[i].Side, "crosses alternate")
		assert.Less(t, sigs[i-1].Time, sigs[i].Time)
	}
	assert.Equal(t, "EMA_CROSS(3,5)", sigs[0].Strategy)
	assert.Equal(t, "fast EMA crossed above slow EMA", sigs[0].Reason)
}

func TestEMACross_GenerateIsRepeatable(t *testing.T) {
	t.Parallel()
	x := newCross(t, EMACrossConfig{FastPeriod: 3, SlowPeriod: 5})
	bars := barsFromCloses(vShape())

	assert.Equal(t, Generate(x, bars), Generate(x, bars))
}

func TestEMACross_MinSpreadSuppressesNoise(t *testing.T) {
	t.Parallel()
	x := newCross(t, EMACrossConfig{FastPeriod: 3, SlowPeriod: 5, MinSpread: 1})

	assert.Empty(t, Generate(x, barsFromCloses(vShape())))
}

func TestNewEMACrossRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []EMACrossConfig{
		{FastPeriod: 0, SlowPeriod: 5},
		{FastPeriod: 5, SlowPeriod: 5},
		{FastPeriod: 9, SlowPeriod: 5},
		{FastPeriod: 3, SlowPeriod: 5, MinSpread: -1},
	}
	for _, cfg := range tests {
		_, err := NewEMACross(cfg)
		assert.Error(t, err, "%+v", cfg)
	}
}

func TestActionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BUY", Buy.String())
	assert.Equal(t, "SELL", Sell.String())
	assert.Equal(t, "HOLD", Hold.String())
}
