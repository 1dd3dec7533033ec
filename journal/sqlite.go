package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores runs, trades and equity marks in a single database file and
// answers the queries in query.go.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, symbol, start_time, end_time, bars, params,
		 initial_equity, final_equity, net_profit, return_pct,
		 cagr, sharpe, max_drawdown, trades, win_rate, profit_factor, avg_r)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Symbol, r.Start, r.End, r.Bars, r.Params,
		r.InitialEquity, r.FinalEquity, r.NetProfit, r.ReturnPct,
		r.CAGR, r.Sharpe, r.MaxDrawdown, r.Trades,
		r.WinRate, r.ProfitFactor, r.AvgR,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, seq, side, qty, entry_time, entry_price, exit_time, exit_price,
		 stop_at_exit, pnl, r, mae, mfe, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Side, t.Qty, t.EntryTime, t.EntryPrice,
		t.ExitTime, t.ExitPrice, t.StopAtExit, t.PnL, t.R, t.MAE, t.MFE, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityMark) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, equity, drawdown)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.Time, e.Equity, e.Drawdown,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
