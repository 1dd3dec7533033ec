package sim

import (
	"sort"
	"time"

	"github.com/rustyeddy/fractal/market"
)

// AdmitTrades returns the trades whose entry passes admit, which receives the
// entry bar index within bars and the cost-adjusted entry price. This is how
// the order-block filter re-judges completed trades: it only ever removes
// trades, never creates them.
func AdmitTrades(bars []market.Bar, trades []Trade, admit func(barIdx int, entry float64) bool) []Trade {
	out := make([]Trade, 0, len(trades))
	for _, t := range trades {
		idx := barIndex(bars, t.EntryTime)
		if idx >= 0 && admit(idx, t.EntryPrice) {
			out = append(out, t)
		}
	}
	return out
}

// barIndex finds the bar whose Time equals t, -1 if absent. Entries are
// always filled on a bar, so a miss means trades and bars are from different
// runs.
func barIndex(bars []market.Bar, t time.Time) int {
	i := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(t) })
	if i < len(bars) && bars[i].Time.Equal(t) {
		return i
	}
	return -1
}
