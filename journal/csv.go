package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader  = []string{"run_id", "trade_id", "side", "size", "entry_price", "exit_price", "sl", "tp", "open_time", "close_time", "pnl", "pips", "mae", "mfe", "status", "killzone", "setup"}
	equityHeader = []string{"run_id", "time", "equity"}
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", tradesPath, err)
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		_ = tf.Close()
		return nil, fmt.Errorf("journal: create %s: %w", equityPath, err)
	}

	j := &CSVJournal{trades: csv.NewWriter(tf), equity: csv.NewWriter(ef), tf: tf, ef: ef}
	if err := j.write(j.trades, tradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.equity, equityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return fmt.Errorf("journal: write csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("journal: flush csv: %w", err)
	}
	return nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.write(j.trades, []string{
		t.RunID,
		t.TradeID,
		t.Side,
		f(t.Size),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.SL),
		f(t.TP),
		ts(t.OpenTime),
		ts(t.CloseTime),
		f(t.PnL),
		f(t.Pips),
		f(t.MAE),
		f(t.MFE),
		t.Status,
		t.Killzone,
		t.Setup,
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.write(j.equity, []string{e.RunID, ts(e.Time), f(e.Equity)})
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	err := j.trades.Error()
	if eerr := j.equity.Error(); err == nil {
		err = eerr
	}
	if cerr := j.tf.Close(); err == nil {
		err = cerr
	}
	if cerr := j.ef.Close(); err == nil {
		err = cerr
	}
	return err
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
