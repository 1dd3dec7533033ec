// Package signal assembles the per-bar inputs the engine trades from: trend
// EMA, ATR, and fractal breakout levels with optional higher-timeframe
// confirmation. Everything is index-aligned to the native series and strictly
// causal.
package signal

import (
	"github.com/rustyeddy/fractal/indicators"
	"github.com/rustyeddy/fractal/market"
	"github.com/rustyeddy/fractal/structure"
)

// Config is the slice of the strategy parameters the builder needs.
type Config struct {
	LeftBars  int
	RightBars int
	Lookback  int
	EMAPeriod int
	ATRPeriod int
	UseHTF    bool
	HTFRule   market.Rule
}

// Signals is the per-bar signal table for one series.
type Signals struct {
	EMA []float64
	ATR []float64

	// Marks carries the confirmed fractal table so callers (order-block
	// detection, rendering) don't recompute it.
	Marks structure.Marks

	long    []structure.Level
	short   []structure.Level
	htfHigh []structure.Level
	htfLow  []structure.Level
}

// Build computes the signal table for s. The series is validated first, so a
// table is either complete or not produced at all.
func Build(s market.Series, cfg Config) (*Signals, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := &Signals{
		EMA:   indicators.EMASeries(s.Closes(), cfg.EMAPeriod),
		ATR:   indicators.ATRSeries(s.Bars, cfg.ATRPeriod),
		Marks: structure.Detect(s, cfg.LeftBars, cfg.RightBars),
	}
	out.long = out.Marks.RollingHigh(cfg.Lookback)
	out.short = out.Marks.RollingLow(cfg.Lookback)
	out.htfHigh = make([]structure.Level, s.Len())
	out.htfLow = make([]structure.Level, s.Len())

	if cfg.UseHTF {
		rule, err := market.ParseRule(string(cfg.HTFRule))
		if err != nil {
			return nil, err
		}
		htf, err := market.Resample(s, rule)
		if err != nil {
			return nil, err
		}
		hm := structure.Detect(htf, cfg.LeftBars, cfg.RightBars)
		out.htfHigh = mapForward(s, htf, hm.Bear, hm.High)
		out.htfLow = mapForward(s, htf, hm.Bull, hm.Low)
	}
	return out, nil
}

func (s *Signals) Len() int { return len(s.EMA) }

// Long returns the native long breakout level at bar i: the greatest
// confirmed fractal high within the lookback window.
func (s *Signals) Long(i int) (float64, bool) {
	lv := s.long[i]
	return lv.Price, lv.OK
}

// Short returns the native short breakout level at bar i.
func (s *Signals) Short(i int) (float64, bool) {
	lv := s.short[i]
	return lv.Price, lv.OK
}

// HTFHigh returns the mapped higher-timeframe pivot-high level at bar i.
func (s *Signals) HTFHigh(i int) (float64, bool) {
	lv := s.htfHigh[i]
	return lv.Price, lv.OK
}

// HTFLow returns the mapped higher-timeframe pivot-low level at bar i.
func (s *Signals) HTFLow(i int) (float64, bool) {
	lv := s.htfLow[i]
	return lv.Price, lv.OK
}

// EffectiveLong is the entry trigger for longs at bar i: the native level,
// strengthened to the higher-timeframe level when that is stricter. Absent
// whenever the native level is absent — the HTF never creates a level alone.
func (s *Signals) EffectiveLong(i int) (float64, bool) {
	lv := s.long[i]
	if !lv.OK {
		return 0, false
	}
	price := lv.Price
	if h := s.htfHigh[i]; h.OK && h.Price > price {
		price = h.Price
	}
	return price, true
}

// EffectiveShort mirrors EffectiveLong for shorts: the lesser of the native
// and mapped levels.
func (s *Signals) EffectiveShort(i int) (float64, bool) {
	lv := s.short[i]
	if !lv.OK {
		return 0, false
	}
	price := lv.Price
	if h := s.htfLow[i]; h.OK && h.Price < price {
		price = h.Price
	}
	return price, true
}

// mapForward projects confirmed HTF marks onto the native timeline with
// last-known-at-or-before semantics: a level fixed at coarse time T is seen
// by every native bar from T until the next coarse mark of the same kind.
// Coarse bar times are exclusive bucket ends, so "at T" is already strictly
// after all the data that produced the mark.
func mapForward(native, htf market.Series, flags []bool, prices []float64) []structure.Level {
	out := make([]structure.Level, native.Len())

	var cur structure.Level
	j := 0
	for i, b := range native.Bars {
		for j < htf.Len() && !htf.Bars[j].Time.After(b.Time) {
			if flags[j] {
				cur = structure.Level{Price: prices[j], OK: true}
			}
			j++
		}
		out[i] = cur
	}
	return out
}
