// Package structure detects structural price features: confirmed fractal
// pivots and order-block zones. Everything here is strictly causal — a
// feature reported at bar i is computable from bars at or before i.
package structure

import (
	"time"

	"github.com/rustyeddy/fractal/market"
)

// Level is an optional price level: OK reports whether Price is meaningful.
type Level struct {
	Price float64
	OK    bool
}

// Pivot is one confirmed fractal in list form.
type Pivot struct {
	Index     int       // bar index of the pivot extreme
	Confirmed int       // bar index where the pivot became usable (Index + right)
	Time      time.Time // time of the pivot bar
	Price     float64   // the pivot bar's high (Bear) or low (Bull)
	Bear      bool      // pivot high when true, pivot low otherwise
}

// Marks is the per-bar fractal table, index-aligned to the source bars.
//
// A true flag at bar i means a pivot became CONFIRMED at i: the pivot extreme
// itself sits `right` bars earlier and the paired price is that pivot bar's
// extreme, which is fully known by bar i.
type Marks struct {
	Bear []bool    // confirmed bearish fractal (pivot high) at this bar
	High []float64 // pivot high, meaningful only where Bear is true

	Bull []bool    // confirmed bullish fractal (pivot low) at this bar
	Low  []float64 // pivot low, meaningful only where Bull is true

	Pivots []Pivot
}

// Detect finds confirmed fractal pivots with the given window arms.
//
// Bar i is a raw bearish fractal when its high strictly exceeds every high in
// the left window [i-left, i-1] and the right window [i+1, i+right]; ties
// never qualify. A raw mark only becomes knowable once its right window has
// closed, so the confirmed mark is emitted at bar i+right — this shift is the
// non-repainting guarantee the rest of the system depends on. Bullish
// fractals are symmetric on lows. Bars within left of the start or right of
// the end are never marked. Arms below one bar produce no marks.
func Detect(s market.Series, left, right int) Marks {
	n := s.Len()
	m := Marks{
		Bear: make([]bool, n),
		High: make([]float64, n),
		Bull: make([]bool, n),
		Low:  make([]float64, n),
	}
	if left < 1 || right < 1 {
		return m
	}

	for i := left; i < n-right; i++ {
		hi := s.Bars[i].High
		lo := s.Bars[i].Low

		isTop, isBottom := true, true
		for j := i - left; j <= i+right; j++ {
			if j == i {
				continue
			}
			if s.Bars[j].High >= hi {
				isTop = false
			}
			if s.Bars[j].Low <= lo {
				isBottom = false
			}
			if !isTop && !isBottom {
				break
			}
		}

		at := i + right
		if isTop {
			m.Bear[at] = true
			m.High[at] = hi
			m.Pivots = append(m.Pivots, Pivot{Index: i, Confirmed: at, Time: s.Bars[i].Time, Price: hi, Bear: true})
		}
		if isBottom {
			m.Bull[at] = true
			m.Low[at] = lo
			m.Pivots = append(m.Pivots, Pivot{Index: i, Confirmed: at, Time: s.Bars[i].Time, Price: lo, Bear: false})
		}
	}
	return m
}

// RollingHigh returns, per bar, the greatest confirmed fractal high over the
// lookback window ending at that bar (inclusive), absent when the window
// holds no confirmed high. This is the raw long-breakout reference.
func (m Marks) RollingHigh(lookback int) []Level {
	out := make([]Level, len(m.Bear))
	for i := range out {
		lo := i - lookback + 1
		if lo < 0 {
			lo = 0
		}
		var best Level
		for j := lo; j <= i; j++ {
			if m.Bear[j] && (!best.OK || m.High[j] > best.Price) {
				best = Level{Price: m.High[j], OK: true}
			}
		}
		out[i] = best
	}
	return out
}

// RollingLow is RollingHigh's mirror over confirmed fractal lows.
func (m Marks) RollingLow(lookback int) []Level {
	out := make([]Level, len(m.Bull))
	for i := range out {
		lo := i - lookback + 1
		if lo < 0 {
			lo = 0
		}
		var best Level
		for j := lo; j <= i; j++ {
			if m.Bull[j] && (!best.OK || m.Low[j] < best.Price) {
				best = Level{Price: m.Low[j], OK: true}
			}
		}
		out[i] = best
	}
	return out
}
