package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a backtest run id is unknown.
var ErrRunNotFound = errors.New("journal: backtest run not found")

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO trades
		(run_id, trade_id, side, size, entry_price, exit_price, sl, tp, open_time, close_time,
		 pnl, pips, mae, mfe, status, killzone, setup)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Side, t.Size, t.EntryPrice, t.ExitPrice, t.SL, t.TP, t.OpenTime, t.CloseTime,
		t.PnL, t.Pips, t.MAE, t.MFE, t.Status, t.Killzone, t.Setup,
	)
	if err != nil {
		return fmt.Errorf("journal: record trade %s: %w", t.TradeID, err)
	}
	return nil
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`INSERT INTO equity (run_id, time, equity) VALUES (?, ?, ?)`, e.RunID, e.Time, e.Equity)
	if err != nil {
		return fmt.Errorf("journal: record equity: %w", err)
	}
	return nil
}

// RecordBacktest stores (or replaces) a run summary.
func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	created := r.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, strategy, instrument, timeframe, dataset, config,
		 risk_pct, sl_mult, tp_mult, start_time, end_time,
		 trades, wins, losses, start_balance, end_balance,
		 net_pl, return_pct, win_rate, profit_factor, max_dd_pct, sharpe, sqn, expectancy,
		 git_commit, org_path, equity_chart, notes, next_actions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, created, r.Strategy, r.Instrument, r.Timeframe, r.Dataset, r.Config,
		r.RiskPct, r.SLMult, r.TPMult, r.Start, r.End,
		r.Trades, r.Wins, r.Losses, r.StartBalance, r.EndBalance,
		r.NetPL, r.ReturnPct, r.WinRate, r.ProfitFactor, r.MaxDDPct, r.Sharpe, r.SQN, r.Expectancy,
		r.GitCommit, r.OrgPath, r.EquityChart, strings.Join(r.Notes, "\n"), strings.Join(r.NextActions, "\n"),
	)
	if err != nil {
		return fmt.Errorf("journal: record backtest %s: %w", r.RunID, err)
	}
	return nil
}

func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	var (
		r           BacktestRun
		notes, next string
		start, end  sql.NullTime
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, strategy, instrument, timeframe, dataset, config,
		       risk_pct, sl_mult, tp_mult, start_time, end_time,
		       trades, wins, losses, start_balance, end_balance,
		       net_pl, return_pct, win_rate, profit_factor, max_dd_pct, sharpe, sqn, expectancy,
		       git_commit, org_path, equity_chart, notes, next_actions
		FROM backtest_runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Instrument, &r.Timeframe, &r.Dataset, &r.Config,
		&r.RiskPct, &r.SLMult, &r.TPMult, &start, &end,
		&r.Trades, &r.Wins, &r.Losses, &r.StartBalance, &r.EndBalance,
		&r.NetPL, &r.ReturnPct, &r.WinRate, &r.ProfitFactor, &r.MaxDDPct, &r.Sharpe, &r.SQN, &r.Expectancy,
		&r.GitCommit, &r.OrgPath, &r.EquityChart, &notes, &next,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return BacktestRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return BacktestRun{}, fmt.Errorf("journal: get backtest %s: %w", runID, err)
	}
	r.Start, r.End = start.Time, end.Time
	r.Notes = splitLines(notes)
	r.NextActions = splitLines(next)
	return r, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ExportBacktestOrg loads a run and its trades and returns the Org report.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	org, err := r.RenderOrg()
	if err != nil {
		return "", err
	}
	if len(trades) > 0 {
		org += "\n** Trades\n" + FormatTradesOrg(trades) + "\n"
	}
	return org, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
