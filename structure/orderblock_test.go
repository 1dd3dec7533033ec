package structure

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fractal/market"
)

// obFixture builds ten bars where bar 2 is a pivot high (15, confirmed at
// bar 4) and bar 5 is a bearish-bodied candle whose following closes break
// above that level — a bullish order block.
func obFixture() market.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(i int, o, h, l, c float64) market.Bar {
		return market.Bar{Time: base.AddDate(0, 0, i), Open: o, High: h, Low: l, Close: c}
	}
	return market.Series{Symbol: "TEST", Bars: []market.Bar{
		mk(0, 9, 10, 8, 9),
		mk(1, 10, 11, 9, 10),
		mk(2, 12, 15, 11, 13),
		mk(3, 11, 12, 10, 11),
		mk(4, 11, 11.8, 10, 11),
		mk(5, 12, 12.5, 9.5, 10), // bearish body, ratio (12-10)/(12.5-9.5) = 2/3
		mk(6, 12.5, 13.5, 12, 13),
		mk(7, 13, 16.5, 13, 16), // close 16 breaks the 15 reference
		mk(8, 15, 15.5, 13.5, 14),
		mk(9, 14, 14.5, 13, 14),
	}}
}

func TestFindOrderBlocksBullish(t *testing.T) {
	t.Parallel()

	s := obFixture()
	m := Detect(s, 2, 2)
	require.True(t, m.Bear[4], "fixture needs the confirmed pivot high")

	zones := FindOrderBlocks(s, m, DefaultOrderBlockConfig())
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, 5, z.Index)
	assert.Equal(t, 8, z.ConfirmedAt)
	assert.Equal(t, s.Bars[5].Time, z.Time)
	assert.Equal(t, 9.5, z.Low)
	assert.Equal(t, 12.5, z.High)
	assert.True(t, z.Bullish)
}

func TestFindOrderBlocksNeedsStructureReference(t *testing.T) {
	t.Parallel()

	// same candles but no fractal marks at all: nothing can break structure
	s := obFixture()
	empty := Marks{
		Bear: make([]bool, s.Len()), High: make([]float64, s.Len()),
		Bull: make([]bool, s.Len()), Low: make([]float64, s.Len()),
	}
	assert.Empty(t, FindOrderBlocks(s, empty, DefaultOrderBlockConfig()))
}

func TestFindOrderBlocksSkipsDegenerateCandles(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []market.Bar
	for i := 0; i < 8; i++ {
		// zero-range candles: body ratio is undefined, never a candidate
		bars = append(bars, market.Bar{Time: base.AddDate(0, 0, i), Open: 10, High: 10, Low: 10, Close: 10})
	}
	s := market.Series{Bars: bars}
	assert.Empty(t, FindOrderBlocks(s, Detect(s, 2, 2), DefaultOrderBlockConfig()))
}

func TestZoneFilterAdmits(t *testing.T) {
	t.Parallel()

	f := ZoneFilter{
		Zones:  []Zone{{Index: 10, Low: 100, High: 105, Bullish: true}},
		Window: 5,
		Tol:    1,
	}

	assert.True(t, f.Admits(12, 99.5), "inside the band below the zone low")
	assert.True(t, f.Admits(10, 105.9), "same bar as the defining candle")
	assert.True(t, f.Admits(14, 102), "last bar of the window")
	assert.False(t, f.Admits(15, 102), "window is exclusive past five bars")
	assert.False(t, f.Admits(9, 102), "zones never admit entries before they exist")
	assert.False(t, f.Admits(12, 106.5), "outside the band")
}

func TestDefaultTolerance(t *testing.T) {
	t.Parallel()

	got := DefaultTolerance([]float64{1, 2, 3, 4, 5})
	assert.InDelta(t, 0.02*math.Sqrt(2.5), got, 1e-12)

	assert.Equal(t, 0.0, DefaultTolerance(nil))
	assert.Equal(t, 0.0, DefaultTolerance([]float64{7}))
}
