// Package indicators provides the streaming technical indicators the signal
// layer consumes: exponential moving average and Wilder's average true range.
package indicators

import "github.com/rustyeddy/fractal/market"

// Indicator computes a single streaming value from closed bars.
//
// Implementations are deterministic — the same bars in the same order always
// produce the same value — which is what lets the batch helpers be defined as
// plain loops over the streaming types with bit-identical results.
type Indicator interface {
	// Name returns a stable identifier like "EMA(50)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current indicator value. Callers should check Ready();
	// before the first update it returns 0.
	Value() float64
}
