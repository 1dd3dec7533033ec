package journal

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fractal/sim"
)

func ptr(x float64) *float64 { return &x }

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// testPerformance is a small hand-built result: two days up, one day down,
// one winning long and one losing short.
func testPerformance() (sim.Params, sim.Performance) {
	p := sim.DefaultParams()
	p.InitialEquity = 10_000

	perf := sim.Performance{
		Equity: []sim.Point{
			{Time: day(0), Value: 10_000},
			{Time: day(1), Value: 10_500},
			{Time: day(2), Value: 10_200},
		},
		Drawdown: []sim.Point{
			{Time: day(0), Value: 0},
			{Time: day(1), Value: 0},
			{Time: day(2), Value: -300.0 / 10_500},
		},
		Stats: sim.Stats{
			EndEquity:    10_200,
			CAGR:         0.5,
			Sharpe:       1.2,
			MaxDrawdown:  -300.0 / 10_500,
			Trades:       2,
			WinRate:      ptr(0.5),
			ProfitFactor: ptr(500.0 / 300.0),
			AvgR:         ptr(0.25),
		},
		Trades: []sim.Trade{
			{
				EntryTime: day(0), ExitTime: day(1),
				Side: sim.Long, Qty: 10,
				EntryPrice: 100, ExitPrice: 150,
				InitialStop: 95, StopAtExit: 120,
				PnL: 500, R: 1.5, MAE: -0.1, MFE: 1.8,
				Reason: sim.ReasonStop,
			},
			{
				EntryTime: day(1), ExitTime: day(2),
				Side: sim.Short, Qty: 5,
				EntryPrice: 150, ExitPrice: 210,
				InitialStop: 210, StopAtExit: 210,
				PnL: -300, R: -1, MAE: -1, MFE: 0.2,
				Reason: sim.ReasonGapStop,
			},
		},
	}
	return p, perf
}

func TestNewRunRecord(t *testing.T) {
	t.Parallel()

	p, perf := testPerformance()

	rec, err := NewRunRecord("RUN1", "SPY", p, perf)
	require.NoError(t, err)

	assert.Equal(t, "RUN1", rec.RunID)
	assert.Equal(t, "SPY", rec.Symbol)
	assert.True(t, rec.Start.Equal(day(0)))
	assert.True(t, rec.End.Equal(day(2)))
	assert.Equal(t, 3, rec.Bars)
	assert.False(t, rec.Created.IsZero())

	assert.Equal(t, 10_000.0, rec.InitialEquity)
	assert.Equal(t, 10_200.0, rec.FinalEquity)
	assert.InDelta(t, 200.0, rec.NetProfit, 1e-9)
	assert.InDelta(t, 2.0, rec.ReturnPct, 1e-9)
	assert.Equal(t, 2, rec.Trades)
	require.NotNil(t, rec.WinRate)
	assert.InDelta(t, 0.5, *rec.WinRate, 1e-12)

	// The params blob must replay to the same parameter set.
	var back sim.Params
	require.NoError(t, json.Unmarshal(rec.Params, &back))
	assert.Equal(t, p, back)
}

func TestNewRunRecordEmptyPerformance(t *testing.T) {
	t.Parallel()

	_, err := NewRunRecord("RUN1", "SPY", sim.DefaultParams(), sim.Performance{})
	assert.Error(t, err)
}

func TestTradeRecords(t *testing.T) {
	t.Parallel()

	_, perf := testPerformance()

	recs := TradeRecords("RUN1", perf.Trades)
	require.Len(t, recs, 2)

	assert.Equal(t, "RUN1", recs[0].RunID)
	assert.Equal(t, 0, recs[0].Seq)
	assert.Equal(t, "long", recs[0].Side)
	assert.Equal(t, "stop", recs[0].Reason)
	assert.Equal(t, 500.0, recs[0].PnL)

	assert.Equal(t, 1, recs[1].Seq)
	assert.Equal(t, "short", recs[1].Side)
	assert.Equal(t, "gap_stop", recs[1].Reason)
	assert.Equal(t, -1.0, recs[1].R)
}

func TestEquityMarks(t *testing.T) {
	t.Parallel()

	_, perf := testPerformance()

	marks := EquityMarks("RUN1", perf)
	require.Len(t, marks, 3)

	assert.True(t, marks[1].Time.Equal(day(1)))
	assert.Equal(t, 10_500.0, marks[1].Equity)
	assert.Equal(t, 0.0, marks[1].Drawdown)
	assert.InDelta(t, -300.0/10_500, marks[2].Drawdown, 1e-12)
}

func TestRecordWritesEverything(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewSQLite(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	p, perf := testPerformance()
	require.NoError(t, Record(j, "RUN1", "SPY", p, perf))

	run, err := j.GetRun("RUN1")
	require.NoError(t, err)
	assert.Equal(t, "SPY", run.Symbol)

	trades, err := j.ListTrades("RUN1")
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	marks, err := j.ListEquity("RUN1")
	require.NoError(t, err)
	assert.Len(t, marks, 3)
}
