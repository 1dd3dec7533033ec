package market

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar is a single OHLC observation. Volume is optional; Series.HasVolume
// records whether the source data carried it.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an ordered-by-time run of bars for one instrument. It is treated
// as read-only by everything downstream, so a single Series can back any
// number of concurrent simulations.
type Series struct {
	Symbol    string
	Bars      []Bar
	HasVolume bool
}

func (s Series) Len() int { return len(s.Bars) }

// Closes returns the close column as a fresh slice.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Start and End return the first and last bar timestamps. Both are zero for
// an empty series.
func (s Series) Start() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Time
}

func (s Series) End() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Time
}

// Validate checks the invariants the simulator relies on: at least one bar,
// strictly increasing non-zero timestamps, and finite prices. Body
// containment (high above open/close, low below) is assumed from the data
// source and deliberately not enforced.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("market: series %q has no bars", s.Symbol)
	}

	var prev time.Time
	for i, b := range s.Bars {
		if b.Time.IsZero() {
			return fmt.Errorf("market: bar %d has a zero timestamp", i)
		}
		if i > 0 && !b.Time.After(prev) {
			return fmt.Errorf("market: bar %d time %s does not advance past %s",
				i, b.Time.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("market: bar %d (%s) has a non-finite price",
					i, b.Time.Format(time.RFC3339))
			}
		}
		prev = b.Time
	}
	return nil
}

// SortDedupe orders bars by time and keeps the last row seen for any
// duplicated timestamp, so overlapping exports of the same range merge to the
// freshest values. The slice is compacted in place.
func SortDedupe(bars []Bar) []Bar {
	if len(bars) < 2 {
		return bars
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
