package journal

import (
	"database/sql"
	"fmt"
)

const runColumns = `run_id, created, symbol, start_time, end_time, bars, params,
	initial_equity, final_equity, net_profit, return_pct,
	cagr, sharpe, max_drawdown, trades, win_rate, profit_factor, avg_r`

func scanRun(row interface{ Scan(dest ...any) error }) (RunRecord, error) {
	var rec RunRecord
	err := row.Scan(
		&rec.RunID, &rec.Created, &rec.Symbol, &rec.Start, &rec.End,
		&rec.Bars, &rec.Params,
		&rec.InitialEquity, &rec.FinalEquity, &rec.NetProfit, &rec.ReturnPct,
		&rec.CAGR, &rec.Sharpe, &rec.MaxDrawdown, &rec.Trades,
		&rec.WinRate, &rec.ProfitFactor, &rec.AvgR,
	)
	return rec, err
}

// GetRun returns a single run row by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("journal: run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns every run, oldest first. ULIDs sort by creation time so
// ordering by run_id is chronological.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns the trades of one run in execution order.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, seq, side, qty, entry_time, entry_price, exit_time, exit_price,
		       stop_at_exit, pnl, r, mae, mfe, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Seq, &rec.Side, &rec.Qty,
			&rec.EntryTime, &rec.EntryPrice, &rec.ExitTime, &rec.ExitPrice,
			&rec.StopAtExit, &rec.PnL, &rec.R, &rec.MAE, &rec.MFE, &rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns the equity marks of one run, oldest first.
func (j *SQLite) ListEquity(runID string) ([]EquityMark, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, equity, drawdown
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityMark
	for rows.Next() {
		var rec EquityMark
		if err := rows.Scan(&rec.RunID, &rec.Time, &rec.Equity, &rec.Drawdown); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
