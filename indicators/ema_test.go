package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fractal/market"
)

func TestEMASeedsFromFirstObservation(t *testing.T) {
	t.Parallel()

	e := NewEMA(50)
	assert.Equal(t, "EMA(50)", e.Name())
	assert.Equal(t, 1, e.Warmup())
	assert.False(t, e.Ready())
	assert.Equal(t, 0.0, e.Value())

	e.Update(market.Bar{Close: 123.45})
	assert.True(t, e.Ready())
	assert.Equal(t, 123.45, e.Value())
}

func TestEMARecurrence(t *testing.T) {
	t.Parallel()

	// span 3 -> alpha 0.5, easy to follow by hand
	got := EMASeries([]float64{2, 4, 8}, 3)
	assert.Equal(t, []float64{2, 3, 5.5}, got)
}

func TestEMAStreamingMatchesBatch(t *testing.T) {
	t.Parallel()

	values := []float64{100, 101.5, 99.25, 103, 102.8, 97.1, 104.4, 105, 104.2, 108.9}
	batch := EMASeries(values, 5)

	e := NewEMA(5)
	for i, v := range values {
		e.Update(market.Bar{Close: v})
		// bit-identical, not merely close
		assert.Equal(t, batch[i], e.Value(), "index %d", i)
	}
}

func TestEMAReset(t *testing.T) {
	t.Parallel()

	e := NewEMA(3)
	e.Update(market.Bar{Close: 10})
	e.Update(market.Bar{Close: 20})
	require.True(t, e.Ready())

	e.Reset()
	assert.False(t, e.Ready())
	assert.Equal(t, 0.0, e.Value())

	e.Update(market.Bar{Close: 7})
	assert.Equal(t, 7.0, e.Value())
}
