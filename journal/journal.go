// Package journal persists backtest results. One run is one engine
// invocation: a row of parameters and headline statistics, the trades it
// produced, and its realized-equity curve. SQLite is the queryable sink,
// CSV the flat export; both speak the same record types.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/fractal/sim"
)

// RunRecord is one simulator invocation over one dataset. Params holds the
// full parameter set as JSON so a run can be replayed exactly. Pointer
// fields mirror the undefined statistics and land as NULL in SQLite.
type RunRecord struct {
	RunID   string // ULID, sorts by creation time
	Created time.Time
	Symbol  string
	Start   time.Time
	End     time.Time
	Bars    int
	Params  []byte

	InitialEquity float64
	FinalEquity   float64
	NetProfit     float64
	ReturnPct     float64
	CAGR          float64
	Sharpe        float64
	MaxDrawdown   float64
	Trades        int
	WinRate       *float64
	ProfitFactor  *float64
	AvgR          *float64
}

// TradeRecord is one closed trade, keyed by run and ordered by Seq.
type TradeRecord struct {
	RunID      string
	Seq        int
	Side       string
	Qty        float64
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	StopAtExit float64
	PnL        float64
	R          float64
	MAE        float64
	MFE        float64
	Reason     string
}

// EquityMark is one realized-equity sample with its drawdown from the
// running peak.
type EquityMark struct {
	RunID    string
	Time     time.Time
	Equity   float64
	Drawdown float64
}

// Journal is a sink for backtest results. Implementations must tolerate
// records arriving in run, trades, equity order.
type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityMark) error
	Close() error
}

// NewRunRecord flattens one engine result into a run row. Start, End and
// Bars come from the equity curve, which carries one point per bar.
func NewRunRecord(runID, symbol string, p sim.Params, perf sim.Performance) (RunRecord, error) {
	if len(perf.Equity) == 0 {
		return RunRecord{}, errors.New("journal: performance has no equity curve")
	}

	blob, err := json.Marshal(p)
	if err != nil {
		return RunRecord{}, fmt.Errorf("journal: encode params: %w", err)
	}

	final := perf.Equity[len(perf.Equity)-1].Value
	net := final - p.InitialEquity

	return RunRecord{
		RunID:   runID,
		Created: time.Now().UTC(),
		Symbol:  symbol,
		Start:   perf.Equity[0].Time,
		End:     perf.Equity[len(perf.Equity)-1].Time,
		Bars:    len(perf.Equity),
		Params:  blob,

		InitialEquity: p.InitialEquity,
		FinalEquity:   final,
		NetProfit:     net,
		ReturnPct:     net / p.InitialEquity * 100,
		CAGR:          perf.Stats.CAGR,
		Sharpe:        perf.Stats.Sharpe,
		MaxDrawdown:   perf.Stats.MaxDrawdown,
		Trades:        perf.Stats.Trades,
		WinRate:       perf.Stats.WinRate,
		ProfitFactor:  perf.Stats.ProfitFactor,
		AvgR:          perf.Stats.AvgR,
	}, nil
}

// TradeRecords converts an engine trade list, preserving order through Seq.
func TradeRecords(runID string, trades []sim.Trade) []TradeRecord {
	out := make([]TradeRecord, len(trades))
	for i, t := range trades {
		out[i] = TradeRecord{
			RunID:      runID,
			Seq:        i,
			Side:       t.Side.String(),
			Qty:        t.Qty,
			EntryTime:  t.EntryTime,
			EntryPrice: t.EntryPrice,
			ExitTime:   t.ExitTime,
			ExitPrice:  t.ExitPrice,
			StopAtExit: t.StopAtExit,
			PnL:        t.PnL,
			R:          t.R,
			MAE:        t.MAE,
			MFE:        t.MFE,
			Reason:     string(t.Reason),
		}
	}
	return out
}

// EquityMarks zips the index-aligned equity and drawdown curves into marks.
func EquityMarks(runID string, perf sim.Performance) []EquityMark {
	out := make([]EquityMark, len(perf.Equity))
	for i, pt := range perf.Equity {
		out[i] = EquityMark{
			RunID:    runID,
			Time:     pt.Time,
			Equity:   pt.Value,
			Drawdown: perf.Drawdown[i].Value,
		}
	}
	return out
}

// Record writes a complete run to j: the run row, then every trade, then
// every equity mark. It stops at the first error.
func Record(j Journal, runID, symbol string, p sim.Params, perf sim.Performance) error {
	run, err := NewRunRecord(runID, symbol, p, perf)
	if err != nil {
		return err
	}
	if err := j.RecordRun(run); err != nil {
		return fmt.Errorf("journal: record run %s: %w", runID, err)
	}
	for _, t := range TradeRecords(runID, perf.Trades) {
		if err := j.RecordTrade(t); err != nil {
			return fmt.Errorf("journal: record trade %d of run %s: %w", t.Seq, runID, err)
		}
	}
	for _, e := range EquityMarks(runID, perf) {
		if err := j.RecordEquity(e); err != nil {
			return fmt.Errorf("journal: record equity mark of run %s: %w", runID, err)
		}
	}
	return nil
}
