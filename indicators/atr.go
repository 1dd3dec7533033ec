package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/fractal/market"
)

// ATR is a streaming average true range with Wilder smoothing (factor
// 1/period). True range is max(|high−low|, |high−prevClose|, |low−prevClose|);
// the first bar has no previous close and uses high−low, which also seeds the
// smoothed value.
type ATR struct {
	period    int
	alpha     float64
	value     float64
	prevClose float64
	count     int
}

// NewATR returns a streaming ATR with the given period.
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
		alpha:  1.0 / float64(period),
	}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int { return 1 }

func (a *ATR) Reset() {
	a.value = 0
	a.prevClose = 0
	a.count = 0
}

func (a *ATR) Update(b market.Bar) {
	tr := math.Abs(b.High - b.Low)
	if a.count > 0 {
		tr = math.Max(tr, math.Max(math.Abs(b.High-a.prevClose), math.Abs(b.Low-a.prevClose)))
	}

	a.count++
	if a.count == 1 {
		a.value = tr
	} else {
		a.value += a.alpha * (tr - a.value)
	}
	a.prevClose = b.Close
}

func (a *ATR) Ready() bool { return a.count >= 1 }

func (a *ATR) Value() float64 { return a.value }

// ATRSeries computes the ATR of bars in one pass, index-aligned to the input.
// Like EMASeries it drives the streaming type directly.
func ATRSeries(bars []market.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	a := NewATR(period)
	for i, b := range bars {
		a.Update(b)
		out[i] = a.Value()
	}
	return out
}
