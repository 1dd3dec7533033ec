package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fractal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest runs",
	Long: `Query and display backtest records from a SQLite journal.

Subcommands:
  runs   - List recorded runs
  show   - Render one run as an Org-mode report
  trades - List the trades of one run

Examples:
  fractal journal runs --db runs.sqlite
  fractal journal show 01J8ZQ6M9T --db runs.sqlite
  fractal journal trades 01J8ZQ6M9T --db runs.sqlite`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Render one run as an Org-mode report",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalTradesCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./fractal.sqlite", "path to SQLite journal DB")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-26s  %-10s  %-10s  %-10s  %6s  %6s  %10s  %7s\n",
		"RUN ID", "SYMBOL", "START", "END", "BARS", "TRADES", "NET P/L", "SHARPE")
	for _, r := range runs {
		fmt.Printf("%-26s  %-10s  %-10s  %-10s  %6d  %6d  %10.2f  %7.2f\n",
			r.RunID, r.Symbol,
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
			r.Bars, r.Trades, r.NetProfit, r.Sharpe)
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	report, err := j.ExportOrg(args[0])
	if err != nil {
		return fmt.Errorf("export run: %w", err)
	}

	fmt.Println(report)
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	trades, err := j.ListTrades(args[0])
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("No trades recorded for this run.")
		return nil
	}

	fmt.Printf("%4s  %-5s  %8s  %-10s  %10s  %-10s  %10s  %10s  %6s  %-10s\n",
		"SEQ", "SIDE", "QTY", "ENTRY", "PRICE", "EXIT", "PRICE", "P/L", "R", "REASON")
	for _, t := range trades {
		fmt.Printf("%4d  %-5s  %8.0f  %-10s  %10.4f  %-10s  %10.4f  %10.2f  %6.2f  %-10s\n",
			t.Seq, t.Side, t.Qty,
			t.EntryTime.Format("2006-01-02"), t.EntryPrice,
			t.ExitTime.Format("2006-01-02"), t.ExitPrice,
			t.PnL, t.R, t.Reason)
	}
	return nil
}
