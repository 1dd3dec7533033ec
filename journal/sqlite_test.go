package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func testRun(runID string) RunRecord {
	return RunRecord{
		RunID:   runID,
		Created: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Symbol:  "SPY",
		Start:   day(0),
		End:     day(2),
		Bars:    3,
		Params:  []byte(`{"lookback":20}`),

		InitialEquity: 10_000,
		FinalEquity:   10_200,
		NetProfit:     200,
		ReturnPct:     2,
		CAGR:          0.5,
		Sharpe:        1.2,
		MaxDrawdown:   -0.03,
		Trades:        2,
		WinRate:       ptr(0.5),
		ProfitFactor:  ptr(1.6),
		AvgR:          ptr(0.25),
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	want := testRun("01HRUN")
	require.NoError(t, j.RecordRun(want))

	got, err := j.GetRun("01HRUN")
	require.NoError(t, err)

	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, got.Created.Equal(want.Created))
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.True(t, got.Start.Equal(want.Start))
	assert.True(t, got.End.Equal(want.End))
	assert.Equal(t, want.Bars, got.Bars)
	assert.JSONEq(t, string(want.Params), string(got.Params))

	assert.InDelta(t, want.InitialEquity, got.InitialEquity, 1e-9)
	assert.InDelta(t, want.FinalEquity, got.FinalEquity, 1e-9)
	assert.InDelta(t, want.NetProfit, got.NetProfit, 1e-9)
	assert.InDelta(t, want.ReturnPct, got.ReturnPct, 1e-9)
	assert.InDelta(t, want.CAGR, got.CAGR, 1e-9)
	assert.InDelta(t, want.Sharpe, got.Sharpe, 1e-9)
	assert.InDelta(t, want.MaxDrawdown, got.MaxDrawdown, 1e-9)
	assert.Equal(t, want.Trades, got.Trades)
	require.NotNil(t, got.WinRate)
	assert.InDelta(t, 0.5, *got.WinRate, 1e-12)
	require.NotNil(t, got.ProfitFactor)
	assert.InDelta(t, 1.6, *got.ProfitFactor, 1e-12)
	require.NotNil(t, got.AvgR)
	assert.InDelta(t, 0.25, *got.AvgR, 1e-12)
}

func TestSQLiteNullStats(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	run := testRun("01HNULL")
	run.Trades = 0
	run.WinRate = nil
	run.ProfitFactor = nil
	run.AvgR = nil
	require.NoError(t, j.RecordRun(run))

	got, err := j.GetRun("01HNULL")
	require.NoError(t, err)

	assert.Nil(t, got.WinRate)
	assert.Nil(t, got.ProfitFactor)
	assert.Nil(t, got.AvgR)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	_, err := j.GetRun("NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteListRunsChronological(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	// ULIDs embed the creation time, so lexical order is time order.
	// Insert out of order and expect them back sorted.
	require.NoError(t, j.RecordRun(testRun("01B")))
	require.NoError(t, j.RecordRun(testRun("01A")))
	require.NoError(t, j.RecordRun(testRun("01C")))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, "01A", runs[0].RunID)
	assert.Equal(t, "01B", runs[1].RunID)
	assert.Equal(t, "01C", runs[2].RunID)
}

func TestSQLiteTradesRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	recs := []TradeRecord{
		{
			RunID: "R", Seq: 0, Side: "long", Qty: 10,
			EntryTime: day(0), EntryPrice: 100,
			ExitTime: day(1), ExitPrice: 150,
			StopAtExit: 120, PnL: 500, R: 1.5, MAE: -0.1, MFE: 1.8,
			Reason: "stop",
		},
		{
			RunID: "R", Seq: 1, Side: "short", Qty: 5,
			EntryTime: day(1), EntryPrice: 150,
			ExitTime: day(2), ExitPrice: 210,
			StopAtExit: 210, PnL: -300, R: -1, MAE: -1, MFE: 0.2,
			Reason: "gap_stop",
		},
	}
	for _, rec := range recs {
		require.NoError(t, j.RecordTrade(rec))
	}
	// A trade from another run must not leak into the listing.
	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID: "OTHER", Seq: 0, Side: "long", Qty: 1,
		EntryTime: day(0), ExitTime: day(1), Reason: "target",
	}))

	got, err := j.ListTrades("R")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].Seq)
	assert.Equal(t, "long", got[0].Side)
	assert.InDelta(t, 500.0, got[0].PnL, 1e-9)
	assert.True(t, got[0].EntryTime.Equal(day(0)))
	assert.True(t, got[0].ExitTime.Equal(day(1)))

	assert.Equal(t, 1, got[1].Seq)
	assert.Equal(t, "gap_stop", got[1].Reason)
	assert.InDelta(t, -1.0, got[1].R, 1e-12)
}

func TestSQLiteEquityRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	for i, eq := range []float64{10_000, 10_500, 10_200} {
		require.NoError(t, j.RecordEquity(EquityMark{
			RunID: "R", Time: day(i), Equity: eq, Drawdown: 0,
		}))
	}

	got, err := j.ListEquity("R")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, got[0].Time.Equal(day(0)))
	assert.InDelta(t, 10_000.0, got[0].Equity, 1e-9)
	assert.InDelta(t, 10_200.0, got[2].Equity, 1e-9)
}

func TestSQLiteDuplicateRunRejected(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RecordRun(testRun("DUP")))
	assert.Error(t, j.RecordRun(testRun("DUP")))
}
