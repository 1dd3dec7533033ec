package journal

// Schema is executed on every open. CREATE IF NOT EXISTS keeps it
// idempotent, so one database file can collect any number of runs.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	params TEXT NOT NULL,
	initial_equity REAL NOT NULL,
	final_equity REAL NOT NULL,
	net_profit REAL NOT NULL,
	return_pct REAL NOT NULL,
	cagr REAL NOT NULL,
	sharpe REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trades INTEGER NOT NULL,
	win_rate REAL,
	profit_factor REAL,
	avg_r REAL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	side TEXT NOT NULL,
	qty REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_time DATETIME NOT NULL,
	exit_price REAL NOT NULL,
	stop_at_exit REAL NOT NULL,
	pnl REAL NOT NULL,
	r REAL NOT NULL,
	mae REAL NOT NULL,
	mfe REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	equity REAL NOT NULL,
	drawdown REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`
