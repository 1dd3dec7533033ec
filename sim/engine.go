// Package sim is the event-driven backtest core: one asset, one position
// slot, signals read from the previous bar, fills at the current bar's open.
// A run is a pure function of (series, params) and is deterministic.
package sim

import (
	"math"
	"time"

	"github.com/rustyeddy/fractal/market"
	"github.com/rustyeddy/fractal/signal"
)

// riskEpsilon guards the R-multiple division. Entries with non-positive
// risk-per-share are skipped outright, so this only matters for extreme
// float underflow.
const riskEpsilon = 1e-9

// State is the simulation state carried from bar to bar: current equity and
// the open position, nil when flat. Each step returns a new State and leaves
// its input untouched, so the engine can be driven and inspected bar by bar.
type State struct {
	Equity float64
	Pos    *Position
}

type Engine struct {
	params Params
	bars   []market.Bar
	sig    *signal.Signals

	trades []Trade
	equity []Point
}

// Run simulates p over series and returns the performance record. The series
// and parameters are validated up front; a partial run is never produced.
func Run(series market.Series, p Params) (*Performance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sig, err := signal.Build(series, p.signalConfig())
	if err != nil {
		return nil, err
	}
	e := &Engine{params: p, bars: series.Bars, sig: sig}
	return e.run(), nil
}

func (e *Engine) run() *Performance {
	st := State{Equity: e.params.InitialEquity}

	// The first bar has no prior signal to act on, so stepping starts at 1.
	// Each bar is marked with the equity carried out of the previous bar
	// before this bar's price action applies.
	for i := 1; i < len(e.bars); i++ {
		e.mark(e.bars[i-1].Time, st.Equity)
		st = e.step(st, i)
	}
	e.mark(e.bars[len(e.bars)-1].Time, st.Equity)

	perf := &Performance{
		Equity:   e.equity,
		Drawdown: drawdown(e.equity),
		Trades:   e.trades,
		Open:     st.Pos,
	}
	perf.Stats = computeStats(perf.Equity, perf.Drawdown, perf.Trades)
	return perf
}

// step advances the simulation across bar i. Exits are evaluated before
// entries, and a slot freed by an exit may be refilled on the same bar.
func (e *Engine) step(st State, i int) State {
	if st.Pos != nil {
		st = e.updateOpen(st, i)
	}
	if st.Pos == nil {
		st = e.tryEnter(st, i)
	}
	return st
}

// updateOpen advances the open position across bar i: extremes first, then
// the chandelier stop, then the exit rules.
func (e *Engine) updateOpen(st State, i int) State {
	bar := e.bars[i]
	pos := *st.Pos

	if bar.High > pos.HighSeen {
		pos.HighSeen = bar.High
	}
	if bar.Low < pos.LowSeen {
		pos.LowSeen = bar.Low
	}

	// The chandelier hangs off the best close since entry. It only ever
	// tightens: a lower recomputation never replaces the held stop.
	atr := e.sig.ATR[i]
	switch pos.Side {
	case Long:
		if bar.Close > pos.FavClose {
			pos.FavClose = bar.Close
		}
		chand := pos.FavClose - e.params.ATRTrailMult*atr
		if pos.Trail == nil || chand > *pos.Trail {
			pos.Trail = &chand
		}
	case Short:
		if bar.Close < pos.FavClose {
			pos.FavClose = bar.Close
		}
		chand := pos.FavClose + e.params.ATRTrailMult*atr
		if pos.Trail == nil || chand < *pos.Trail {
			pos.Trail = &chand
		}
	}

	exitPx, reason, hit := checkExit(pos, bar)
	if !hit {
		st.Pos = &pos
		return st
	}
	return e.closePosition(st, pos, bar.Time, exitPx, reason)
}

// tryEnter evaluates yesterday's signal against today's open. Longs have
// priority; shorts are only considered when enabled and no long fired.
func (e *Engine) tryEnter(st State, i int) State {
	prev := i - 1
	c := e.bars[prev].Close
	ema := e.sig.EMA[prev]

	if lvl, ok := e.sig.EffectiveLong(prev); ok && c > ema && c > lvl {
		return e.openPosition(st, i, Long)
	}
	if e.params.UseShort {
		if lvl, ok := e.sig.EffectiveShort(prev); ok && c < ema && c < lvl {
			return e.openPosition(st, i, Short)
		}
	}
	return st
}

// openPosition fills at bar i's open and sizes off the gap to the initial
// stop: the opposing native breakout level when one exists, otherwise an ATR
// multiple from entry. Entries whose stop is not strictly protective, or
// that size below one unit, are skipped.
func (e *Engine) openPosition(st State, i int, side Side) State {
	prev := i - 1
	entry := e.params.fill(e.bars[i].Open, float64(side))

	var stop float64
	switch side {
	case Long:
		if lvl, ok := e.sig.Short(prev); ok {
			stop = lvl
		} else {
			stop = entry - e.params.ATRStopMult*e.sig.ATR[prev]
		}
	case Short:
		if lvl, ok := e.sig.Long(prev); ok {
			stop = lvl
		} else {
			stop = entry + e.params.ATRStopMult*e.sig.ATR[prev]
		}
	}

	riskPS := float64(side) * (entry - stop)
	if riskPS <= 0 {
		return st
	}
	qty := math.Floor(st.Equity * e.params.RiskPerTrade / riskPS)
	if qty < 1 {
		return st
	}

	var tp *float64
	if e.params.TakeProfitR != nil {
		t := entry + float64(side)*(*e.params.TakeProfitR)*riskPS
		tp = &t
	}

	st.Pos = &Position{
		Side:        side,
		Qty:         qty,
		EntryTime:   e.bars[i].Time,
		EntryPrice:  entry,
		InitialStop: stop,
		RiskPS:      riskPS,
		TakeProfit:  tp,
		FavClose:    entry,
		HighSeen:    entry,
		LowSeen:     entry,
	}
	return st
}

// closePosition books the exit fill, realizes PnL into equity, and appends
// the trade record.
func (e *Engine) closePosition(st State, pos Position, t time.Time, rawExit float64, reason Reason) State {
	fill := e.params.fill(rawExit, -float64(pos.Side))

	denom := pos.RiskPS
	if denom < riskEpsilon {
		denom = riskEpsilon
	}
	perShare := float64(pos.Side) * (fill - pos.EntryPrice)
	pnl := perShare * pos.Qty

	var mae, mfe float64
	if pos.Side == Long {
		mfe = (pos.HighSeen - pos.EntryPrice) / denom
		mae = (pos.LowSeen - pos.EntryPrice) / denom
	} else {
		mfe = (pos.EntryPrice - pos.LowSeen) / denom
		mae = (pos.EntryPrice - pos.HighSeen) / denom
	}

	st.Equity += pnl
	st.Pos = nil
	e.trades = append(e.trades, Trade{
		EntryTime:   pos.EntryTime,
		ExitTime:    t,
		Side:        pos.Side,
		Qty:         pos.Qty,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   fill,
		InitialStop: pos.InitialStop,
		StopAtExit:  pos.effectiveStop(),
		PnL:         pnl,
		R:           perShare / denom,
		MAE:         mae,
		MFE:         mfe,
		Reason:      reason,
	})
	return st
}

func (e *Engine) mark(t time.Time, equity float64) {
	e.equity = append(e.equity, Point{Time: t, Value: equity})
}
