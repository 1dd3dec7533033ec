package structure

import (
	"math"
	"time"

	"github.com/rustyeddy/fractal/market"
)

// Zone is an order-block price zone: the full low/high range of the defining
// candle, flagged bullish (demand) or bearish (supply).
type Zone struct {
	Index       int       // bar index of the defining candle
	ConfirmedAt int       // bar index where the impulse window completed
	Time        time.Time // time of the defining candle
	Low         float64
	High        float64
	Bullish     bool
}

// OrderBlockConfig tunes FindOrderBlocks: ImpulseBars is how many bars the
// structural break may take after the candidate candle, MinBodyRatio the
// minimum |close−open|/(high−low) for the candidate's body, and Lookback the
// window for the fractal structure reference. Start from
// DefaultOrderBlockConfig; the zero value finds nothing.
type OrderBlockConfig struct {
	ImpulseBars  int     `yaml:"impulse_bars" json:"impulse_bars"`
	MinBodyRatio float64 `yaml:"min_body_ratio" json:"min_body_ratio"`
	Lookback     int     `yaml:"lookback" json:"lookback"`
}

func DefaultOrderBlockConfig() OrderBlockConfig {
	return OrderBlockConfig{
		ImpulseBars:  3,
		MinBodyRatio: 0.3,
		Lookback:     20,
	}
}

// FindOrderBlocks scans for "last opposite candle before a structural break"
// zones. A bullish order block is a bearish-bodied candle (close < open) with
// body/range ≥ MinBodyRatio where some close within the next ImpulseBars bars
// breaks above the rolling confirmed fractal high as of the candle; bearish
// order blocks are symmetric: bullish-bodied candles before a break below the
// rolling fractal low. Candles with zero range, or with no fractal reference
// in the lookback window, never qualify. The final ImpulseBars bars cannot
// complete an impulse and are not scanned.
func FindOrderBlocks(s market.Series, m Marks, cfg OrderBlockConfig) []Zone {
	n := s.Len()
	if n == 0 || cfg.ImpulseBars < 1 {
		return nil
	}

	fh := m.RollingHigh(cfg.Lookback)
	fl := m.RollingLow(cfg.Lookback)

	var zones []Zone
	for i := 0; i+cfg.ImpulseBars < n; i++ {
		b := s.Bars[i]
		rng := b.High - b.Low
		if rng <= 0 {
			continue
		}
		if math.Abs(b.Close-b.Open)/rng < cfg.MinBodyRatio {
			continue
		}

		switch {
		case b.Close < b.Open: // bearish body: candidate demand zone
			if fh[i].OK && maxClose(s.Bars[i+1:i+1+cfg.ImpulseBars]) > fh[i].Price {
				zones = append(zones, Zone{
					Index: i, ConfirmedAt: i + cfg.ImpulseBars, Time: b.Time,
					Low: b.Low, High: b.High, Bullish: true,
				})
			}
		case b.Close > b.Open: // bullish body: candidate supply zone
			if fl[i].OK && minClose(s.Bars[i+1:i+1+cfg.ImpulseBars]) < fl[i].Price {
				zones = append(zones, Zone{
					Index: i, ConfirmedAt: i + cfg.ImpulseBars, Time: b.Time,
					Low: b.Low, High: b.High, Bullish: false,
				})
			}
		}
	}
	return zones
}

// ZoneFilter is the post-hoc admission test for trade entries: an entry is
// admitted when its fill price falls within [Low−Tol, High+Tol] of a zone
// whose defining candle sits within the trailing Window bars ending at the
// entry bar, inclusive. Either zone kind admits either trade side — zones act
// as price memory, not as a directional signal. The filter only ever REMOVES
// trades; it never creates them.
type ZoneFilter struct {
	Zones  []Zone
	Window int
	Tol    float64
}

// Admits reports whether an entry at bar barIdx with the given fill price
// interacts with a recent zone.
func (f ZoneFilter) Admits(barIdx int, price float64) bool {
	for _, z := range f.Zones {
		if z.Index > barIdx || barIdx-z.Index >= f.Window {
			continue
		}
		if price >= z.Low-f.Tol && price <= z.High+f.Tol {
			return true
		}
	}
	return false
}

// DefaultTolerance is the admission band used by the research workflow this
// engine replays: 2% of the sample standard deviation of the close column.
// Fewer than two closes yield zero.
func DefaultTolerance(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	var sum float64
	for _, c := range closes {
		sum += c
	}
	mean := sum / float64(len(closes))

	var ss float64
	for _, c := range closes {
		d := c - mean
		ss += d * d
	}
	return 0.02 * math.Sqrt(ss/float64(len(closes)-1))
}

func maxClose(bars []market.Bar) float64 {
	best := math.Inf(-1)
	for _, b := range bars {
		if b.Close > best {
			best = b.Close
		}
	}
	return best
}

func minClose(bars []market.Bar) float64 {
	best := math.Inf(1)
	for _, b := range bars {
		if b.Close < best {
			best = b.Close
		}
	}
	return best
}
