package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fractal/config"
	"github.com/rustyeddy/fractal/journal"
)

var rootCmd = &cobra.Command{
	Use:   "fractal",
	Short: "A deterministic fractal-breakout backtester and parameter research tool",
	Long: `Fractal backtests a fractal-breakout trading strategy over OHLC bar data.

It provides tools for:
  - Backtesting the strategy against historical bars (CSV, .gz, .xz)
  - Brute-force parameter optimization with a parallel grid search
  - Recording runs, trades and equity curves to SQLite or CSV
  - Filtering entries through order-block zones
  - Querying recorded runs and exporting Org-mode reports

Complete documentation is available at https://github.com/rustyeddy/fractal`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
}

// newLogger returns the CLI logger: a no-op unless --verbose is set, so the
// summary output stays clean by default.
func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopmentConfig().Build()
}

// loadConfig reads path when one is given, otherwise starts from defaults so
// every setting can come from flags alone.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

// openJournal builds the results sink named by jc, nil when journaling is
// disabled.
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "":
		return nil, nil
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "csv":
		return journal.NewCSV(jc.CSVDir)
	}
	return nil, fmt.Errorf("unknown journal type %q", jc.Type)
}
