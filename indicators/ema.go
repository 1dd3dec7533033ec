package indicators

import (
	"fmt"

	"github.com/rustyeddy/fractal/market"
)

// EMA is a streaming exponential moving average over bar closes with
// smoothing factor 2/(span+1). The first observation seeds the average
// directly, so the value is defined from the very first update — there is no
// warm-up gap beyond index 0.
type EMA struct {
	span  int
	alpha float64
	value float64
	count int
}

// NewEMA returns a streaming EMA with the given span.
func NewEMA(span int) *EMA {
	return &EMA{
		span:  span,
		alpha: 2.0 / float64(span+1),
	}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.span)
}

func (e *EMA) Warmup() int { return 1 }

func (e *EMA) Reset() {
	e.value = 0
	e.count = 0
}

func (e *EMA) Update(b market.Bar) {
	e.count++
	if e.count == 1 {
		e.value = b.Close
		return
	}
	e.value += e.alpha * (b.Close - e.value)
}

func (e *EMA) Ready() bool { return e.count >= 1 }

func (e *EMA) Value() float64 { return e.value }

// EMASeries computes the EMA of a value column in one pass, index-aligned to
// the input. It drives the streaming type, so batch and streaming results are
// identical by construction.
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	e := NewEMA(span)
	for i, v := range values {
		e.Update(market.Bar{Close: v})
		out[i] = e.Value()
	}
	return out
}
