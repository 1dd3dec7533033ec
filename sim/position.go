package sim

import (
	"math"
	"time"

	"github.com/rustyeddy/fractal/market"
)

type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Reason records which exit rule closed a trade.
type Reason string

const (
	ReasonStop      Reason = "stop"       // effective stop inside the bar's range
	ReasonTarget    Reason = "target"     // take-profit inside the bar's range
	ReasonGapStop   Reason = "gap_stop"   // bar gapped through the stop, filled at the bar extreme
	ReasonGapTarget Reason = "gap_target" // bar gapped through the target, filled at the target
)

// Position is the single open-position slot. Quantities are whole units held
// as float64 so PnL math stays in one type.
type Position struct {
	Side        Side
	Qty         float64
	EntryTime   time.Time
	EntryPrice  float64 // cost-adjusted fill
	InitialStop float64
	RiskPS      float64 // |entry - initial stop|

	// Trail is the chandelier stop, nil until the first post-entry bar.
	Trail *float64

	// TakeProfit is the fixed target price, nil when the strategy runs
	// without one.
	TakeProfit *float64

	// FavClose is the most favorable close since entry and anchors the
	// chandelier stop. HighSeen/LowSeen track the intrabar extremes for
	// excursion stats. All three start at the entry fill.
	FavClose float64
	HighSeen float64
	LowSeen  float64
}

// effectiveStop is the tighter of the initial and trailing stops, on the
// protective side for the position's direction.
func (p Position) effectiveStop() float64 {
	if p.Trail == nil {
		return p.InitialStop
	}
	if p.Side == Long {
		return math.Max(p.InitialStop, *p.Trail)
	}
	return math.Min(p.InitialStop, *p.Trail)
}

// Trade is the immutable record of one round-trip, created at exit.
type Trade struct {
	EntryTime   time.Time `json:"entry_time"`
	ExitTime    time.Time `json:"exit_time"`
	Side        Side      `json:"side"`
	Qty         float64   `json:"qty"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	InitialStop float64   `json:"initial_stop"`
	StopAtExit  float64   `json:"stop_at_exit"`
	PnL         float64   `json:"pnl"`
	R           float64   `json:"r"`

	// MAE and MFE are the worst and best intrabar excursions while the
	// trade was open, in R.
	MAE float64 `json:"mae"`
	MFE float64 `json:"mfe"`

	Reason Reason `json:"reason"`
}

// checkExit applies the exit rules to an open position, in priority order:
// effective stop inside the bar's range, take-profit inside the range, a gap
// through the stop (worst-case fill at the bar extreme), a gap through the
// target (filled at the target). At most one exit fires per bar. The returned
// price is raw; the caller applies costs.
func checkExit(p Position, b market.Bar) (exitPx float64, reason Reason, hit bool) {
	stop := p.effectiveStop()
	tp := p.TakeProfit

	switch p.Side {
	case Long:
		if b.Low <= stop && stop <= b.High {
			return stop, ReasonStop, true
		}
		if tp != nil && b.Low <= *tp && *tp <= b.High {
			return *tp, ReasonTarget, true
		}
		if b.Low < stop {
			return b.Low, ReasonGapStop, true
		}
		if tp != nil && b.High > *tp {
			return *tp, ReasonGapTarget, true
		}
	case Short:
		if b.Low <= stop && stop <= b.High {
			return stop, ReasonStop, true
		}
		if tp != nil && b.Low <= *tp && *tp <= b.High {
			return *tp, ReasonTarget, true
		}
		if b.High > stop {
			return b.High, ReasonGapStop, true
		}
		if tp != nil && b.Low < *tp {
			return *tp, ReasonGapTarget, true
		}
	}
	return 0, "", false
}
