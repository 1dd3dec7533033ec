package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fractal/config"
	"github.com/rustyeddy/fractal/journal"
	"github.com/rustyeddy/fractal/market"
	"github.com/rustyeddy/fractal/pkg/id"
	"github.com/rustyeddy/fractal/sim"
	"github.com/rustyeddy/fractal/structure"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Backtest the strategy over a bar file",
	Long: `Run one backtest of the fractal-breakout strategy over an OHLC CSV file.

Parameters start from the built-in daily defaults, a config file replaces
them wholesale, and any flag set explicitly wins over both.

Examples:
  fractal run --data spy.csv
  fractal run --data spy.csv.gz --ema 100 --lookback 40 --use-htf --htf-rule W
  fractal run --config research.yaml --db runs.sqlite
  fractal run --data spy.csv --ob-filter`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDataPath   string
	runSymbol     string

	runLeft     int
	runRight    int
	runLookback int
	runEMA      int
	runATR      int
	runATRStop  float64
	runATRTrail float64
	runRisk     float64
	runSlipBPS  float64
	runCommBPS  float64
	runTPR      float64
	runUseHTF   bool
	runHTFRule  string
	runNoShort  bool
	runEquity   float64

	runDBPath string
	runCSVDir string

	runOBFilter   bool
	runOBImpulse  int
	runOBBody     float64
	runOBLookback int
	runOBWindow   int
)

func init() {
	rootCmd.AddCommand(runCmd)

	def := sim.DefaultParams()
	ob := structure.DefaultOrderBlockConfig()

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVarP(&runDataPath, "data", "d", "", "path to bar CSV (plain, .gz or .xz)")
	runCmd.Flags().StringVar(&runSymbol, "symbol", "", "symbol tag for reports (default: data file name)")

	runCmd.Flags().IntVar(&runLeft, "left", def.LeftBars, "bars left of a fractal pivot")
	runCmd.Flags().IntVar(&runRight, "right", def.RightBars, "bars right of a fractal pivot (confirmation delay)")
	runCmd.Flags().IntVar(&runLookback, "lookback", def.Lookback, "breakout level lookback in bars")
	runCmd.Flags().IntVar(&runEMA, "ema", def.EMAPeriod, "trend filter EMA period")
	runCmd.Flags().IntVar(&runATR, "atr", def.ATRPeriod, "ATR period")
	runCmd.Flags().Float64Var(&runATRStop, "atr-stop", def.ATRStopMult, "ATR multiple for the initial stop")
	runCmd.Flags().Float64Var(&runATRTrail, "atr-trail", def.ATRTrailMult, "ATR multiple for the chandelier trail")
	runCmd.Flags().Float64Var(&runRisk, "risk", def.RiskPerTrade, "fraction of equity risked per trade")
	runCmd.Flags().Float64Var(&runSlipBPS, "slip-bps", def.SlippageBPS, "slippage per fill in basis points")
	runCmd.Flags().Float64Var(&runCommBPS, "comm-bps", def.CommissionBPS, "commission per fill in basis points")
	runCmd.Flags().Float64Var(&runTPR, "tp-r", 0, "fixed take-profit in R (0 = none)")
	runCmd.Flags().BoolVar(&runUseHTF, "use-htf", def.UseHTF, "confirm breakouts on a higher timeframe")
	runCmd.Flags().StringVar(&runHTFRule, "htf-rule", string(def.HTFRule), "higher timeframe rule (W, M, D or a duration like 4h)")
	runCmd.Flags().BoolVar(&runNoShort, "no-short", !def.UseShort, "disable short entries")
	runCmd.Flags().Float64Var(&runEquity, "equity", def.InitialEquity, "starting equity")

	runCmd.Flags().StringVar(&runDBPath, "db", "", "journal the run to this SQLite file")
	runCmd.Flags().StringVar(&runCSVDir, "csv-dir", "", "journal the run as CSVs under this directory")

	runCmd.Flags().BoolVar(&runOBFilter, "ob-filter", false, "re-judge trades against order-block zones")
	runCmd.Flags().IntVar(&runOBImpulse, "ob-impulse", ob.ImpulseBars, "bars the structural break may take")
	runCmd.Flags().Float64Var(&runOBBody, "ob-body", ob.MinBodyRatio, "minimum candle body/range ratio")
	runCmd.Flags().IntVar(&runOBLookback, "ob-lookback", ob.Lookback, "fractal structure lookback for zone detection")
	runCmd.Flags().IntVar(&runOBWindow, "ob-window", 5, "trailing bars a zone stays admissible")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dataPath := cfg.Data.Path
	if runDataPath != "" {
		dataPath = runDataPath
	}
	if dataPath == "" {
		return fmt.Errorf("no bar data: pass --data or set data.path in the config")
	}

	p := cfg.Strategy
	applyStrategyFlags(cmd, &p)

	series, err := market.LoadCSV(dataPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if runSymbol != "" {
		series.Symbol = runSymbol
	} else if cfg.Data.Symbol != "" {
		series.Symbol = cfg.Data.Symbol
	}

	perf, err := sim.Run(series, p)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printPerformance(os.Stdout, series, p, perf)

	if runOBFilter {
		printOrderBlockFilter(os.Stdout, series, p, perf)
	}

	jc := cfg.Journal
	if runDBPath != "" {
		jc = config.JournalConfig{Type: "sqlite", DBPath: runDBPath}
	} else if runCSVDir != "" {
		jc = config.JournalConfig{Type: "csv", CSVDir: runCSVDir}
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
	if err := journal.Record(j, runID, series.Symbol, p, *perf); err != nil {
		return err
	}

	fmt.Println()
	if jc.Type == "sqlite" {
		fmt.Printf("Run %s journaled to %s\n", runID, jc.DBPath)
	} else {
		fmt.Printf("Run %s journaled under %s\n", runID, jc.CSVDir)
	}
	return nil
}

// applyStrategyFlags lays explicitly-set flags over p, so a config file
// provides the baseline and flags win where given.
func applyStrategyFlags(cmd *cobra.Command, p *sim.Params) {
	fl := cmd.Flags()
	if fl.Changed("left") {
		p.LeftBars = runLeft
	}
	if fl.Changed("right") {
		p.RightBars = runRight
	}
	if fl.Changed("lookback") {
		p.Lookback = runLookback
	}
	if fl.Changed("ema") {
		p.EMAPeriod = runEMA
	}
	if fl.Changed("atr") {
		p.ATRPeriod = runATR
	}
	if fl.Changed("atr-stop") {
		p.ATRStopMult = runATRStop
	}
	if fl.Changed("atr-trail") {
		p.ATRTrailMult = runATRTrail
	}
	if fl.Changed("risk") {
		p.RiskPerTrade = runRisk
	}
	if fl.Changed("slip-bps") {
		p.SlippageBPS = runSlipBPS
	}
	if fl.Changed("comm-bps") {
		p.CommissionBPS = runCommBPS
	}
	if fl.Changed("tp-r") {
		if runTPR > 0 {
			p.TakeProfitR = &runTPR
		} else {
			p.TakeProfitR = nil
		}
	}
	if fl.Changed("use-htf") {
		p.UseHTF = runUseHTF
	}
	if fl.Changed("htf-rule") {
		p.HTFRule = market.Rule(runHTFRule)
	}
	if fl.Changed("no-short") {
		p.UseShort = !runNoShort
	}
	if fl.Changed("equity") {
		p.InitialEquity = runEquity
	}
}

// printOrderBlockFilter re-judges completed trades against order-block zones
// and prints the statistics of the admitted subset. The filter only removes
// trades; the journaled run is always the unfiltered one.
func printOrderBlockFilter(w io.Writer, series market.Series, p sim.Params, perf *sim.Performance) {
	marks := structure.Detect(series, p.LeftBars, p.RightBars)
	zones := structure.FindOrderBlocks(series, marks, structure.OrderBlockConfig{
		ImpulseBars:  runOBImpulse,
		MinBodyRatio: runOBBody,
		Lookback:     runOBLookback,
	})

	var bull, bear int
	for _, z := range zones {
		if z.Bullish {
			bull++
		} else {
			bear++
		}
	}

	filter := structure.ZoneFilter{
		Zones:  zones,
		Window: runOBWindow,
		Tol:    structure.DefaultTolerance(series.Closes()),
	}
	kept := sim.AdmitTrades(series.Bars, perf.Trades, filter.Admits)
	sum := sim.SummarizeTrades(kept)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Order-Block Filter")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Zones:         %d bullish / %d bearish\n", bull, bear)
	fmt.Fprintf(w, "Admitted:      %d of %d trades\n", sum.Count, len(perf.Trades))
	fmt.Fprintf(w, "Win Rate:      %s\n", statPct(sum.WinRate))
	fmt.Fprintf(w, "Profit Factor: %s\n", stat(sum.ProfitFactor))
	fmt.Fprintf(w, "Average R:     %s\n", stat(sum.AvgR))
	fmt.Fprintf(w, "Total P/L:     %.2f\n", sum.TotalPnL)
}
