package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/fractal/market"
	"github.com/rustyeddy/fractal/sim"
)

// printPerformance renders one run the way the research notebooks did: a
// banner, the configuration, trade statistics, and account performance.
func printPerformance(w io.Writer, series market.Series, p sim.Params, perf *sim.Performance) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Symbol:        %s\n", series.Symbol)
	fmt.Fprintf(w, "Bars:          %d\n", series.Len())
	fmt.Fprintf(w, "Start:         %s\n", series.Start().Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", series.End().Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Strategy Configuration")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Pivot Window:  %d left / %d right\n", p.LeftBars, p.RightBars)
	fmt.Fprintf(w, "Lookback:      %d bars\n", p.Lookback)
	fmt.Fprintf(w, "Trend EMA:     %d\n", p.EMAPeriod)
	fmt.Fprintf(w, "ATR:           %d (stop x%.1f, trail x%.1f)\n", p.ATRPeriod, p.ATRStopMult, p.ATRTrailMult)
	fmt.Fprintf(w, "Risk/Trade:    %.2f%%\n", p.RiskPerTrade*100)
	fmt.Fprintf(w, "Costs:         %.1f bps slippage + %.1f bps commission\n", p.SlippageBPS, p.CommissionBPS)
	if p.TakeProfitR != nil {
		fmt.Fprintf(w, "Take Profit:   %.1fR\n", *p.TakeProfitR)
	}
	if p.UseHTF {
		fmt.Fprintf(w, "HTF Confirm:   %s\n", p.HTFRule)
	}
	fmt.Fprintf(w, "Shorts:        %v\n", p.UseShort)

	sum := sim.SummarizeTrades(perf.Trades)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", sum.Count)
	fmt.Fprintf(w, "Wins:          %d\n", sum.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", sum.Count-sum.Wins)
	fmt.Fprintf(w, "Win Rate:      %s\n", statPct(perf.Stats.WinRate))
	fmt.Fprintf(w, "Profit Factor: %s\n", stat(perf.Stats.ProfitFactor))
	fmt.Fprintf(w, "Average R:     %s\n", stat(perf.Stats.AvgR))

	first := perf.Equity[0].Value
	last := perf.Equity[len(perf.Equity)-1].Value
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %.2f\n", first)
	fmt.Fprintf(w, "End Equity:    %.2f\n", last)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", last-first)
	fmt.Fprintf(w, "Return:        %.2f%%\n", (last/first-1)*100)
	fmt.Fprintf(w, "CAGR:          %.2f%%\n", perf.Stats.CAGR*100)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", perf.Stats.Sharpe)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", perf.Stats.MaxDrawdown*100)

	if pos := perf.Open; pos != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Open Position: %s %.0f from %s at %.4f (not marked into equity)\n",
			pos.Side, pos.Qty, pos.EntryTime.Format("2006-01-02"), pos.EntryPrice)
	}
}

func stat(x *float64) string {
	if x == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*x, 'f', 2, 64)
}

func statPct(x *float64) string {
	if x == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*x*100, 'f', 2, 64) + "%"
}
