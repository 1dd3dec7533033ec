package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fractal/market"
)

func TestAdmitTrades(t *testing.T) {
	t.Parallel()

	var bars []market.Bar
	for i := 0; i < 6; i++ {
		bars = append(bars, bar(i, 10, 11, 9, 10))
	}
	trades := []Trade{
		{EntryTime: bars[1].Time, EntryPrice: 10.5},
		{EntryTime: bars[3].Time, EntryPrice: 10.6},
		{EntryTime: bars[4].Time, EntryPrice: 10.7},
	}

	kept := AdmitTrades(bars, trades, func(idx int, entry float64) bool {
		return idx == 3
	})
	require.Len(t, kept, 1)
	assert.Equal(t, 10.6, kept[0].EntryPrice)

	all := AdmitTrades(bars, trades, func(int, float64) bool { return true })
	assert.Equal(t, trades, all)

	none := AdmitTrades(bars, trades, func(int, float64) bool { return false })
	assert.Empty(t, none)
}

func TestAdmitTradesDropsUnknownEntryTimes(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{bar(0, 10, 11, 9, 10), bar(1, 10, 11, 9, 10)}
	stray := []Trade{{EntryTime: day0.AddDate(0, 0, 30), EntryPrice: 10}}

	kept := AdmitTrades(bars, stray, func(int, float64) bool { return true })
	assert.Empty(t, kept)
}
