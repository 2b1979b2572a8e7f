package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(runID, tradeID string, open, close time.Time, pnl float64) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    tradeID,
		Side:       "LONG",
		Size:       166666.67,
		EntryPrice: 1.0850,
		ExitPrice:  1.0910,
		SL:         1.0790,
		TP:         1.0970,
		OpenTime:   open,
		CloseTime:  close,
		PnL:        pnl,
		Pips:       60,
		MAE:        -120.5,
		MFE:        1050.25,
		Status:     "CLOSED_TP",
		Killzone:   "London",
		Setup:      "breakout",
	}
}
