package cli

import (
	"fmt"

	"github.com/rustyeddy/tradelab/config"
	"github.com/rustyeddy/tradelab/journal"
	"github.com/rustyeddy/tradelab/market"
)

// loadInputs reads the bar file and, when given, the signal file.
func loadInputs(barsPath, signalsPath string) ([]market.Bar, []market.Signal, error) {
	if barsPath == "" {
		return nil, nil, fmt.Errorf("--bars is required")
	}
	bars, err := market.LoadBarsCSV(barsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load bars: %w", err)
	}
	if signalsPath == "" {
		return bars, nil, nil
	}
	signals, err := market.LoadSignals(signalsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load signals: %w", err)
	}
	return bars, signals, nil
}

// openJournal opens the journal named by the config. The journal is nil for
// type none. The SQLite handle is only set for sqlite, which also stores run
// summaries.
func openJournal(jc config.JournalConfig) (journal.Journal, *journal.SQLite, error) {
	switch jc.Type {
	case "", "none":
		return nil, nil, nil
	case "csv":
		cj, err := journal.NewCSV(jc.TradesFile, jc.EquityFile)
		if err != nil {
			return nil, nil, err
		}
		return cj, nil, nil
	case "sqlite":
		db, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}
