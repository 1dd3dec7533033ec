package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSV writes runs.csv, trades.csv and equity.csv under one directory. It is
// append-only and implements Journal; use SQLite when you need queries.
type CSV struct {
	runs, trades, equity *csv.Writer
	rf, tf, ef           *os.File
}

// NewCSV creates dir if needed and opens the three files with their headers
// already written, so even a run with no trades leaves valid CSVs behind.
func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	rf, err := os.Create(filepath.Join(dir, "runs.csv"))
	if err != nil {
		return nil, err
	}
	tf, err := os.Create(filepath.Join(dir, "trades.csv"))
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(filepath.Join(dir, "equity.csv"))
	if err != nil {
		return nil, err
	}

	rw := csv.NewWriter(rf)
	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := rw.Write([]string{
		"run_id", "created", "symbol", "start_time", "end_time", "bars",
		"initial_equity", "final_equity", "net_profit", "return_pct",
		"cagr", "sharpe", "max_drawdown", "trades",
		"win_rate", "profit_factor", "avg_r", "params",
	}); err != nil {
		return nil, err
	}
	if err := tw.Write([]string{
		"run_id", "seq", "side", "qty", "entry_time", "entry_price",
		"exit_time", "exit_price", "stop_at_exit", "pnl", "r", "mae", "mfe", "reason",
	}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"run_id", "time", "equity", "drawdown"}); err != nil {
		return nil, err
	}

	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSV{rw, tw, ew, rf, tf, ef}, nil
}

func (j *CSV) RecordRun(r RunRecord) error {
	if err := j.runs.Write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Symbol,
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		strconv.Itoa(r.Bars),
		f(r.InitialEquity),
		f(r.FinalEquity),
		f(r.NetProfit),
		f(r.ReturnPct),
		f(r.CAGR),
		f(r.Sharpe),
		f(r.MaxDrawdown),
		strconv.Itoa(r.Trades),
		opt(r.WinRate),
		opt(r.ProfitFactor),
		opt(r.AvgR),
		string(r.Params),
	}); err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write([]string{
		t.RunID,
		strconv.Itoa(t.Seq),
		t.Side,
		f(t.Qty),
		t.EntryTime.Format(time.RFC3339),
		f(t.EntryPrice),
		t.ExitTime.Format(time.RFC3339),
		f(t.ExitPrice),
		f(t.StopAtExit),
		f(t.PnL),
		f(t.R),
		f(t.MAE),
		f(t.MFE),
		t.Reason,
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquityMark) error {
	if err := j.equity.Write([]string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Equity),
		f(e.Drawdown),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.rf.Close(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// opt renders a nullable statistic, empty when undefined.
func opt(x *float64) string {
	if x == nil {
		return ""
	}
	return f(*x)
}
