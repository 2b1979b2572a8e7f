package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	open := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	closeT := time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC)

	result := FormatTradeOrg(sampleTrade("RUN1", "trade-12345678-abcd", open, closeT, 250))

	assert.Contains(t, result, "*** Trade: LONG CLOSED_TP (678-abcd)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: trade-12345678-abcd")
	assert.Contains(t, result, ":RUN_ID: RUN1")
	assert.Contains(t, result, ":ENTRY_PRICE: 1.08500")
	assert.Contains(t, result, ":EXIT_PRICE: 1.09100")
	assert.Contains(t, result, ":OPEN_TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":CLOSE_TIME: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":PNL: 250.00")
	assert.Contains(t, result, ":MAE: -120.50")
	assert.Contains(t, result, ":KILLZONE: London")
	assert.Contains(t, result, ":SETUP: breakout")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "**** Thesis")
	assert.Contains(t, result, "**** Execution")
	assert.Contains(t, result, "**** Review")
}

func TestFormatTradeOrgOptionalFields(t *testing.T) {
	t.Parallel()

	tr := sampleTrade("", "short", time.Now(), time.Now(), -500)
	tr.Setup = ""
	result := FormatTradeOrg(tr)

	assert.Contains(t, result, "(short)")
	assert.Contains(t, result, ":PNL: -500.00")
	assert.NotContains(t, result, ":RUN_ID:")
	assert.NotContains(t, result, ":SETUP:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	open := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	trades := []TradeRecord{
		sampleTrade("R", "trade-001", open, open.Add(3*time.Hour), 200),
		sampleTrade("R", "trade-002", open, open.Add(5*time.Hour), -100),
	}

	result := FormatTradesOrg(trades)
	assert.Contains(t, result, "trade-001")
	assert.Contains(t, result, "trade-002")
	assert.Len(t, strings.Split(result, "\n\n\n"), 2)

	assert.Empty(t, FormatTradesOrg(nil))
	assert.NotContains(t, FormatTradesOrg(trades[:1]), "\n\n\n")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ulid keeps the random tail", "01HQ3V9K7XG2M4N8P6R5T0W1YZ", "R5T0W1YZ"},
		{"exactly eight", "12345678", "12345678"},
		{"short id unchanged", "abc", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, shortID(tt.input))
		})
	}
}

func TestBacktestRunRenderOrg(t *testing.T) {
	t.Parallel()

	run := BacktestRun{
		RunID:        "RUN1",
		Created:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Timeframe:    "H1",
		Instrument:   "EUR_USD",
		Strategy:     "silver-bullet",
		RiskPct:      0.01,
		SLMult:       1,
		TPMult:       2,
		Start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Trades:       10,
		Wins:         6,
		Losses:       4,
		StartBalance: 100000,
		EndBalance:   100400,
		NetPL:        400,
		WinRate:      60,
		ProfitFactor: 3,
		EquityChart:  "equity.html",
		Notes:        []string{"London carried the edge"},
		NextActions:  []string{"widen targets"},
	}

	out, err := run.RenderOrg()
	require.NoError(t, err)

	assert.Contains(t, out, "* BACKTEST: silver-bullet EUR_USD H1")
	assert.Contains(t, out, ":START_DATE:  2024-01-01")
	assert.Contains(t, out, ":WIN_RATE:    60.00")
	assert.Contains(t, out, ":CREATED:     [2024-06-01 Sat 12:00]")
	assert.Contains(t, out, "| Risk per Trade % | 1.00 |")
	assert.Contains(t, out, "[[file:equity.html]]")
	assert.Contains(t, out, "- London carried the edge")
	assert.Contains(t, out, "- [ ] widen targets")
}

func TestBacktestRunRenderOrgPlaceholders(t *testing.T) {
	t.Parallel()

	out, err := (&BacktestRun{}).RenderOrg()
	require.NoError(t, err)
	assert.Contains(t, out, "(strategy?)")
	assert.Contains(t, out, "(run-id?)")
	assert.Contains(t, out, "(timeframe?)")
	assert.NotContains(t, out, "** Observations")
}

func TestWriteBacktestOrg(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.org")
	run := BacktestRun{RunID: "RUN1", Strategy: "fvg", OrgPath: path}
	require.NoError(t, run.WriteBacktestOrg())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "* BACKTEST: fvg")

	assert.Error(t, (&BacktestRun{}).WriteBacktestOrg())
}
