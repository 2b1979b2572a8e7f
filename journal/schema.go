package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	side TEXT NOT NULL,
	size REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	sl REAL NOT NULL,
	tp REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME,
	pnl REAL NOT NULL,
	pips REAL NOT NULL,
	mae REAL NOT NULL,
	mfe REAL NOT NULL,
	status TEXT NOT NULL,
	killzone TEXT NOT NULL,
	setup TEXT NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);

CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	instrument TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config BLOB,
	risk_pct REAL NOT NULL,
	sl_mult REAL NOT NULL,
	tp_mult REAL NOT NULL,
	start_time DATETIME,
	end_time DATETIME,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	start_balance REAL NOT NULL,
	end_balance REAL NOT NULL,
	net_pl REAL NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	sharpe REAL NOT NULL,
	sqn REAL NOT NULL,
	expectancy REAL NOT NULL,
	git_commit TEXT NOT NULL,
	org_path TEXT NOT NULL,
	equity_chart TEXT NOT NULL,
	notes TEXT NOT NULL,
	next_actions TEXT NOT NULL
);
`
