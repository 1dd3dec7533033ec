package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)
	assert.NoError(t, j.Close())

	runs := readCSV(t, filepath.Join(dir, "runs.csv"))
	require.Len(t, runs, 1)
	assert.Equal(t, "run_id", runs[0][0])
	assert.Equal(t, "params", runs[0][len(runs[0])-1])

	trades := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Len(t, trades, 1)
	wantTrades := []string{
		"run_id", "seq", "side", "qty", "entry_time", "entry_price",
		"exit_time", "exit_price", "stop_at_exit", "pnl", "r", "mae", "mfe", "reason",
	}
	assert.Equal(t, wantTrades, trades[0])

	equity := readCSV(t, filepath.Join(dir, "equity.csv"))
	require.Len(t, equity, 1)
	assert.Equal(t, []string{"run_id", "time", "equity", "drawdown"}, equity[0])
}

func TestCSVCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	j, err := NewCSV(dir)
	require.NoError(t, err)
	assert.NoError(t, j.Close())

	_, err = os.Stat(filepath.Join(dir, "runs.csv"))
	assert.NoError(t, err)
}

func TestCSVRecordTrade(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)

	err = j.RecordTrade(TradeRecord{
		RunID: "R1", Seq: 0, Side: "long", Qty: 10,
		EntryTime: day(0), EntryPrice: 100.5,
		ExitTime: day(1), ExitPrice: 150.25,
		StopAtExit: 120, PnL: 497.5, R: 1.5, MAE: -0.1, MFE: 1.8,
		Reason: "stop",
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	rows := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "R1", row[0])
	assert.Equal(t, "0", row[1])
	assert.Equal(t, "long", row[2])
	assert.Equal(t, "10.000000", row[3])
	assert.Equal(t, "2024-01-01T00:00:00Z", row[4])
	assert.Equal(t, "100.500000", row[5])
	assert.Equal(t, "stop", row[13])
}

func TestCSVRecordRunOptionalStats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)

	run := testRun("R1")
	run.WinRate = nil
	run.ProfitFactor = nil
	run.AvgR = nil
	require.NoError(t, j.RecordRun(run))
	require.NoError(t, j.Close())

	rows := readCSV(t, filepath.Join(dir, "runs.csv"))
	require.Len(t, rows, 2)

	header, row := rows[0], rows[1]
	byName := map[string]string{}
	for i, name := range header {
		byName[name] = row[i]
	}

	assert.Equal(t, "R1", byName["run_id"])
	assert.Equal(t, "3", byName["bars"])
	assert.Equal(t, "", byName["win_rate"])
	assert.Equal(t, "", byName["profit_factor"])
	assert.Equal(t, "", byName["avg_r"])
	assert.Equal(t, `{"lookback":20}`, byName["params"])
}

func TestCSVRecordEquity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)

	require.NoError(t, j.RecordEquity(EquityMark{
		RunID: "R1", Time: day(1), Equity: 10_500, Drawdown: -0.05,
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, filepath.Join(dir, "equity.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"R1", "2024-01-02T00:00:00Z", "10500.000000", "-0.050000"}, rows[1])
}
