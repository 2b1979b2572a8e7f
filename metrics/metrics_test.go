package metrics

import (
	"math"
	"reflect"
	"testing"

	"github.com/rustyeddy/tradelab/market"
	"github.com/rustyeddy/tradelab/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closed(pnl float64) sim.Trade {
	status := sim.StatusClosedTP
	if pnl <= 0 {
		status = sim.StatusClosedSL
	}
	return sim.Trade{PnL: pnl, Status: status, Killzone: market.SessionLondon}
}

func assertFinite(t *testing.T, s Snapshot) {
	t.Helper()
	v := reflect.ValueOf(s)
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.Float64 {
			continue
		}
		x := f.Float()
		assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "%s = %v", v.Type().Field(i).Name, x)
	}
}

func TestCalculateEmpty(t *testing.T) {
	t.Parallel()

	s := Calculate(nil, nil, 100000)
	assertFinite(t, s)
	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.SharpeRatio)
	assert.Zero(t, s.SQN)
	assert.Zero(t, s.MaxDrawdown)
	assert.Zero(t, s.Expectancy)
	assert.Zero(t, s.ProfitPerHour)
	assert.Equal(t, 100000.0, s.FinalBalance)
	assert.Empty(t, s.EquityCurve)
	assert.Len(t, s.SessionDistribution, 5)
}

func TestCalculateZeroInitialBalance(t *testing.T) {
	t.Parallel()

	s := Calculate([]sim.Trade{closed(10), closed(-5)}, []sim.EquityPoint{{Time: 1, Value: 0}}, 0)
	assertFinite(t, s)
	assert.Zero(t, s.SharpeRatio)
	assert.Zero(t, s.ReturnPct)
}

func TestCalculateWinRateAndProfitFactor(t *testing.T) {
	t.Parallel()

	var trades []sim.Trade
	for i := 0; i < 6; i++ {
		trades = append(trades, closed(100))
	}
	for i := 0; i < 4; i++ {
		trades = append(trades, closed(-50))
	}

	s := Calculate(trades, nil, 100000)
	assertFinite(t, s)
	assert.Equal(t, 10, s.TotalTrades)
	assert.Equal(t, 6, s.WinningTrades)
	assert.Equal(t, 4, s.LosingTrades)
	assert.InDelta(t, 60.0, s.WinRate, 1e-9)
	assert.InDelta(t, 400.0, s.NetProfit, 1e-9)
	assert.InDelta(t, 600.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 200.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 3.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 100.0, s.AvgWin, 1e-9)
	assert.InDelta(t, -50.0, s.AvgLoss, 1e-9)
	assert.InDelta(t, 40.0, s.Expectancy, 1e-9)
	assert.Equal(t, 6, s.MaxConsecutiveWins)
	assert.Equal(t, 4, s.MaxConsecutiveLosses)
	assert.Equal(t, 10, s.SessionDistribution[market.SessionLondon])
	assert.InDelta(t, 100400.0, s.FinalBalance, 1e-9)
	assert.InDelta(t, 0.4, s.ReturnPct, 1e-9)
}

func TestProfitFactorWithoutLosses(t *testing.T) {
	t.Parallel()

	s := Calculate([]sim.Trade{closed(120), closed(30)}, nil, 1000)
	assert.InDelta(t, 150.0, s.ProfitFactor, 1e-9)
	assert.Zero(t, s.AvgLoss)
	assert.Zero(t, s.MaxConsecutiveLosses)
}

func TestOpenTradesAreIgnored(t *testing.T) {
	t.Parallel()

	trades := []sim.Trade{
		closed(100),
		{PnL: 0, Status: sim.StatusOpen, Killzone: market.SessionAsian, MAE: -500},
	}
	s := Calculate(trades, nil, 1000)
	assert.Equal(t, 1, s.TotalTrades)
	assert.Zero(t, s.SessionDistribution[market.SessionAsian])
	assert.Zero(t, s.AvgMAE)
}

func TestSharpeAndSQN(t *testing.T) {
	t.Parallel()

	s := Calculate([]sim.Trade{closed(100), closed(-50)}, nil, 1000)
	// returns 0.1 and -0.05: mean 0.025, population std 0.075
	want := 0.025 / 0.075 * math.Sqrt2
	assert.InDelta(t, want, s.SharpeRatio, 1e-9)
	assert.InDelta(t, 25.0, s.Expectancy, 1e-9)
	assert.InDelta(t, math.Sqrt2*25/(0.075*1000), s.SQN, 1e-9)
}

func TestSQNWithZeroDeviationUsesUnitDenominator(t *testing.T) {
	t.Parallel()

	s := Calculate([]sim.Trade{closed(10), closed(10), closed(10), closed(10)}, nil, 1000)
	assert.Zero(t, s.SharpeRatio)
	assert.InDelta(t, 2*10.0, s.SQN, 1e-9)
}

func TestConstantReturnsHaveNoDeviation(t *testing.T) {
	t.Parallel()

	trades := make([]sim.Trade, 10)
	for i := range trades {
		trades[i] = closed(10)
	}
	s := Calculate(trades, nil, 100000)
	assert.Zero(t, s.SharpeRatio)
	assert.InDelta(t, math.Sqrt(10)*10, s.SQN, 1e-9)

	mean, std := meanStd([]float64{1e-4, 1e-4, 1e-4, 1e-4, 1e-4, 1e-4, 1e-4})
	assert.InDelta(t, 1e-4, mean, 1e-18)
	assert.Zero(t, std)
}

func TestStreaksFollowStorageOrder(t *testing.T) {
	t.Parallel()

	pnls := []float64{10, 10, -1, 10, 10, 10, 0, -3, -2, 10}
	var trades []sim.Trade
	for _, p := range pnls {
		trades = append(trades, closed(p))
	}
	s := Calculate(trades, nil, 1000)
	assert.Equal(t, 3, s.MaxConsecutiveWins)
	assert.Equal(t, 3, s.MaxConsecutiveLosses, "a zero pnl counts as a loss")
}

func TestDurationsAndAverages(t *testing.T) {
	t.Parallel()

	trades := []sim.Trade{
		{PnL: 300, Status: sim.StatusClosedTP, DurationSeconds: 7200, Pips: 30, RiskReward: 2, MAE: -50, MFE: 320, Killzone: market.SessionNYAM},
		{PnL: -100, Status: sim.StatusClosedSL, DurationSeconds: 3600, Pips: -10, RiskReward: 2, MAE: -100, MFE: 20, Killzone: market.SessionAsian},
		{PnL: 0, Status: sim.StatusClosedManual, DurationSeconds: 0, Pips: 0, RiskReward: 1, Killzone: market.SessionNYAM},
	}
	s := Calculate(trades, nil, 10000)

	assert.InDelta(t, 3600.0, s.AvgTradeDuration, 1e-9)
	assert.InDelta(t, 7200.0, s.AvgTimeToWin, 1e-9)
	assert.InDelta(t, 1800.0, s.AvgTimeToLoss, 1e-9)
	assert.InDelta(t, 200.0/3, s.ProfitPerHour, 1e-9)
	assert.InDelta(t, 20.0, s.TotalPips, 1e-9)
	assert.InDelta(t, 20.0/3, s.AvgPips, 1e-9)
	assert.InDelta(t, 5.0/3, s.AvgRiskReward, 1e-9)
	assert.InDelta(t, -50.0, s.AvgMAE, 1e-9)
	assert.InDelta(t, 340.0/3, s.AvgMFE, 1e-9)

	assert.Equal(t, map[market.Session]int{
		market.SessionAsian:   1,
		market.SessionLondon:  0,
		market.SessionNYAM:    2,
		market.SessionNYPM:    0,
		market.SessionOffHour: 0,
	}, s.SessionDistribution)
}

func TestDrawdownAndRecovery(t *testing.T) {
	t.Parallel()

	curve := []sim.EquityPoint{
		{Time: 0, Value: 100000},
		{Time: 3600, Value: 90000},
		{Time: 7200, Value: 95000},
		{Time: 10800, Value: 110000},
	}
	s := Calculate(nil, curve, 100000)

	assert.InDelta(t, 10.0, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 10000.0, s.MaxDrawdownAbs, 1e-9)
	assert.Equal(t, 1, s.RecoveryCount)
	assert.InDelta(t, 2.0, s.AvgRecoveryTime, 1e-9)
	assert.Equal(t, curve, s.EquityCurve)
}

func TestDrawdownCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		initial    float64
		values     []float64
		wantPct    float64
		recoveries int
	}{
		{"never below peak", 100, []float64{100, 110, 120}, 0, 0},
		{"never recovers", 100, []float64{100, 80, 90}, 20, 0},
		{"touching the peak is not a recovery", 100, []float64{90, 100, 95}, 10, 0},
		{"two recoveries", 100, []float64{90, 101, 50, 102}, 50.495049504950494, 2},
		{"peak seeded from first point", 0, []float64{200, 150, 210}, 25, 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var curve []sim.EquityPoint
			for i, v := range tt.values {
				curve = append(curve, sim.EquityPoint{Time: int64(i) * 3600, Value: v})
			}
			s := Calculate(nil, curve, tt.initial)
			assert.InDelta(t, tt.wantPct, s.MaxDrawdown, 1e-9)
			assert.Equal(t, tt.recoveries, s.RecoveryCount)
			assertFinite(t, s)
		})
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	t.Parallel()

	trades := []sim.Trade{closed(100), closed(-40), closed(75)}
	curve := []sim.EquityPoint{{Time: 1, Value: 1000}, {Time: 2, Value: 960}, {Time: 3, Value: 1135}}

	a := Calculate(trades, curve, 1000)
	b := Calculate(trades, curve, 1000)
	require.Equal(t, a, b)

	a.EquityCurve[0].Value = -1
	assert.Equal(t, 1000.0, curve[0].Value, "snapshot must not alias the input curve")
}
