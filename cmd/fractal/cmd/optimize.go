package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fractal/config"
	"github.com/rustyeddy/fractal/journal"
	"github.com/rustyeddy/fractal/market"
	"github.com/rustyeddy/fractal/optimize"
	"github.com/rustyeddy/fractal/pkg/id"
	"github.com/rustyeddy/fractal/sim"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search strategy parameters over a bar file",
	Long: `Optimize runs one backtest per parameter combination and ranks the
results by a score statistic (Sharpe by default).

The grid comes from the config file's grid section when one is given;
otherwise the built-in daily preset sweeps lookback, EMA period, stop and
trail multiples, and the pivot window (432 combinations).

Examples:
  fractal optimize --data spy.csv
  fractal optimize --data spy.csv --use-htf --score cagr --results grid.csv
  fractal optimize --config research.yaml --workers 4 --budget 30s`,
	RunE: runOptimize,
}

var (
	optConfigPath string
	optDataPath   string
	optSymbol     string
	optScore      string
	optWorkers    int
	optBudget     time.Duration
	optUseHTF     bool
	optResults    string
	optDBPath     string
	optCSVDir     string
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	optimizeCmd.Flags().StringVarP(&optDataPath, "data", "d", "", "path to bar CSV (plain, .gz or .xz)")
	optimizeCmd.Flags().StringVar(&optSymbol, "symbol", "", "symbol tag for reports (default: data file name)")
	optimizeCmd.Flags().StringVar(&optScore, "score", sim.ScoreSharpe, "statistic to rank combinations by")
	optimizeCmd.Flags().IntVar(&optWorkers, "workers", 0, "concurrent backtests (0 = one per CPU)")
	optimizeCmd.Flags().DurationVar(&optBudget, "budget", 0, "wall-clock budget per combination (0 = none)")
	optimizeCmd.Flags().BoolVar(&optUseHTF, "use-htf", false, "confirm breakouts on the higher timeframe")
	optimizeCmd.Flags().StringVar(&optResults, "results", "", "write the full results table to this CSV")
	optimizeCmd.Flags().StringVar(&optDBPath, "db", "", "journal the best run to this SQLite file")
	optimizeCmd.Flags().StringVar(&optCSVDir, "csv-dir", "", "journal the best run as CSVs under this directory")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(optConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dataPath := cfg.Data.Path
	if optDataPath != "" {
		dataPath = optDataPath
	}
	if dataPath == "" {
		return fmt.Errorf("no bar data: pass --data or set data.path in the config")
	}

	base := optimize.DailyBase()
	axes := optimize.DailyPreset()
	if optConfigPath != "" {
		base = cfg.Strategy
		if !cfg.Grid.Empty() {
			axes = cfg.Grid.Axes()
		}
	}
	if cmd.Flags().Changed("use-htf") {
		base.UseHTF = optUseHTF
	}

	series, err := market.LoadCSV(dataPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if optSymbol != "" {
		series.Symbol = optSymbol
	} else if cfg.Data.Symbol != "" {
		series.Symbol = cfg.Data.Symbol
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	res, err := optimize.Search(context.Background(), series, base, axes, optimize.Options{
		ScoreKey: optScore,
		Workers:  optWorkers,
		Budget:   optBudget,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	var failed int
	for _, r := range res.Rows {
		if r.Err != nil {
			failed++
		}
	}

	fmt.Println("==================================================")
	fmt.Println(" Parameter Sweep")
	fmt.Println("==================================================")
	fmt.Printf("Sweep ID:      %s\n", res.SweepID)
	fmt.Printf("Symbol:        %s\n", series.Symbol)
	fmt.Printf("Combinations:  %d\n", len(res.Rows))
	fmt.Printf("Failed:        %d\n", failed)
	fmt.Printf("Score:         %s\n", res.ScoreKey)
	fmt.Printf("Elapsed:       %s\n", res.Elapsed.Round(time.Millisecond))

	if optResults != "" {
		if err := writeResultsCSV(optResults, axes, res); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Printf("Results:       %s\n", optResults)
	}

	if res.Best == nil {
		fmt.Println("\nNo combination produced a score.")
		return nil
	}

	fmt.Println()
	fmt.Println("Best Combination")
	fmt.Println("--------------------------------------------------")
	for i, ax := range axes {
		fmt.Printf("%-15s%s\n", ax.Name+":", res.Best.Labels[i])
	}
	fmt.Printf("%-15s%.4f\n", res.ScoreKey+":", res.Best.Score)
	fmt.Println()

	printPerformance(os.Stdout, series, res.Best.Params, res.BestPerf)

	jc := cfg.Journal
	if optDBPath != "" {
		jc = config.JournalConfig{Type: "sqlite", DBPath: optDBPath}
	} else if optCSVDir != "" {
		jc = config.JournalConfig{Type: "csv", CSVDir: optCSVDir}
	}
	j, err := openJournal(jc)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j == nil {
		return nil
	}
	defer j.Close()

	runID := id.New()
	if err := journal.Record(j, runID, series.Symbol, res.Best.Params, *res.BestPerf); err != nil {
		return err
	}

	fmt.Println()
	if jc.Type == "sqlite" {
		fmt.Printf("Best run %s journaled to %s\n", runID, jc.DBPath)
	} else {
		fmt.Printf("Best run %s journaled under %s\n", runID, jc.CSVDir)
	}
	return nil
}

// writeResultsCSV dumps every row in enumeration order: one column per axis,
// then the statistics, then the error text for failed combinations.
func writeResultsCSV(path string, axes []optimize.Axis, res *optimize.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, 0, len(axes)+10)
	for _, ax := range axes {
		header = append(header, ax.Name)
	}
	header = append(header, "end_equity", "cagr", "sharpe", "max_drawdown",
		"trades", "win_rate", "profit_factor", "avg_r", res.ScoreKey, "error")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range res.Rows {
		rec := append([]string(nil), r.Labels...)
		if r.Err != nil {
			rec = append(rec, "", "", "", "", "", "", "", "", "", r.Err.Error())
		} else {
			rec = append(rec,
				g(r.Stats.EndEquity),
				g(r.Stats.CAGR),
				g(r.Stats.Sharpe),
				g(r.Stats.MaxDrawdown),
				strconv.Itoa(r.Stats.Trades),
				optG(r.Stats.WinRate),
				optG(r.Stats.ProfitFactor),
				optG(r.Stats.AvgR),
				g(r.Score),
				"")
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func g(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func optG(x *float64) string {
	if x == nil {
		return ""
	}
	return g(*x)
}
