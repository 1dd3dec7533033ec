package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		want Rule
	}{
		{"W", Weekly},
		{"w", Weekly},
		{"M", Monthly},
		{"d", Daily},
		{"4h", Rule("4h0m0s")},
		{"4H", Rule("4h0m0s")},
		{"90m", Rule("1h30m0s")},
	} {
		got, err := ParseRule(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "x", "-2h", "0s", "weekly"} {
		_, err := ParseRule(bad)
		assert.Error(t, err, bad)
	}
}

func TestResampleWeekly(t *testing.T) {
	t.Parallel()

	// 2024-01-01 is a Monday.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var bars []Bar
	for i, c := range []float64{10, 12, 11, 14, 13} { // Mon..Fri week one
		bars = append(bars, Bar{
			Time: base.AddDate(0, 0, i),
			Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 100,
		})
	}
	for i, c := range []float64{15, 16, 14.5} { // Mon..Wed week two
		bars = append(bars, Bar{
			Time: base.AddDate(0, 0, 7+i),
			Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 100,
		})
	}
	s := Series{Symbol: "TEST", Bars: bars, HasVolume: true}
	require.NoError(t, s.Validate())

	htf, err := Resample(s, Weekly)
	require.NoError(t, err)
	require.Equal(t, 2, htf.Len())

	w1, w2 := htf.Bars[0], htf.Bars[1]
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), w1.Time)
	assert.Equal(t, 9.5, w1.Open)
	assert.Equal(t, 15.0, w1.High)
	assert.Equal(t, 9.0, w1.Low)
	assert.Equal(t, 13.0, w1.Close)
	assert.Equal(t, 500.0, w1.Volume)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), w2.Time)
	assert.Equal(t, 14.5, w2.Close)

	// Labels are exclusive right edges: the last bar of week one precedes its
	// label, and the Monday bar at exactly that label belongs to week two.
	assert.True(t, s.Bars[4].Time.Before(w1.Time))
	assert.False(t, s.Bars[5].Time.Before(w1.Time))
	assert.Equal(t, 14.5, w2.Open) // week two opens with the Monday bar
}

func TestResampleMonthlyYearBoundary(t *testing.T) {
	t.Parallel()

	bars := []Bar{
		flatBar(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), 100),
		flatBar(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 101),
		flatBar(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), 102),
	}
	htf, err := Resample(Series{Bars: bars}, Monthly)
	require.NoError(t, err)
	require.Equal(t, 2, htf.Len())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), htf.Bars[0].Time)
	assert.Equal(t, 101.0, htf.Bars[0].Close)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), htf.Bars[1].Time)
}

func TestResampleDuration(t *testing.T) {
	t.Parallel()

	rule, err := ParseRule("4h")
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var bars []Bar
	for i := 0; i < 8; i++ {
		bars = append(bars, flatBar(base.Add(time.Duration(i)*time.Hour), float64(i)))
	}
	htf, err := Resample(Series{Bars: bars}, rule)
	require.NoError(t, err)
	require.Equal(t, 2, htf.Len())
	assert.Equal(t, base.Add(4*time.Hour), htf.Bars[0].Time)
	assert.Equal(t, 3.0, htf.Bars[0].Close)
	assert.Equal(t, base.Add(8*time.Hour), htf.Bars[1].Time)
	assert.Equal(t, 7.0, htf.Bars[1].Close)
}

func TestResampleRejectsUnsortedInput(t *testing.T) {
	t.Parallel()

	bars := []Bar{
		flatBar(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 1),
		flatBar(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2),
	}
	_, err := Resample(Series{Bars: bars}, Monthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in time order")
}

func TestResampleEmpty(t *testing.T) {
	t.Parallel()

	out, err := Resample(Series{}, Weekly)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}
