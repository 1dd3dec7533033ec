package journal

import (
	"bytes"
	"strconv"
	"text/template"
)

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"stat": func(x *float64) string {
		if x == nil {
			return "n/a"
		}
		return strconv.FormatFloat(*x, 'f', 2, 64)
	},
	"statPct": func(x *float64) string {
		if x == nil {
			return "n/a"
		}
		return strconv.FormatFloat(*x*100.0, 'f', 2, 64) + "%"
	},
	"shortID": shortID,
}

var runOrgTmpl = template.Must(template.New("run").Funcs(orgFuncs).Parse(runOrgTemplate))

type orgData struct {
	Run    RunRecord
	Trades []TradeRecord
	Wins   int
	Losses int
}

// RunOrg renders one run and its trades as an Org-mode subtree, ready to be
// refiled into a trading log.
func RunOrg(run RunRecord, trades []TradeRecord) (string, error) {
	data := orgData{Run: run, Trades: trades}
	for _, t := range trades {
		if t.PnL > 0 {
			data.Wins++
		}
	}
	data.Losses = len(trades) - data.Wins

	buf := new(bytes.Buffer)
	if err := runOrgTmpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportOrg loads a stored run and renders its Org report.
func (j *SQLite) ExportOrg(runID string) (string, error) {
	run, err := j.GetRun(runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTrades(runID)
	if err != nil {
		return "", err
	}
	return RunOrg(run, trades)
}

// shortID truncates an ID to something that fits a heading.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

const runOrgTemplate = `* BACKTEST: {{.Run.Symbol}} {{.Run.Start.Format "2006-01-02"}}..{{.Run.End.Format "2006-01-02"}} ({{shortID .Run.RunID}})
:PROPERTIES:
:RUN_ID:      {{.Run.RunID}}
:SYMBOL:      {{.Run.Symbol}}
:START_DATE:  {{.Run.Start.Format "2006-01-02"}}
:END_DATE:    {{.Run.End.Format "2006-01-02"}}
:BARS:        {{.Run.Bars}}
:START_EQ:    {{printf "%.2f" .Run.InitialEquity}}
:END_EQ:      {{printf "%.2f" .Run.FinalEquity}}
:NET_PL:      {{printf "%.2f" .Run.NetProfit}}
:RETURN_PCT:  {{printf "%.2f" .Run.ReturnPct}}
:CAGR_PCT:    {{printf "%.2f" (mul100 .Run.CAGR)}}
:SHARPE:      {{printf "%.2f" .Run.Sharpe}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .Run.MaxDrawdown)}}
:TRADES:      {{.Run.Trades}}
:WIN_RATE:    {{statPct .Run.WinRate}}
:PROFIT_FAC:  {{stat .Run.ProfitFactor}}
:AVG_R:       {{stat .Run.AvgR}}
:CREATED:     [{{.Run.Created.Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
#+begin_src json
{{printf "%s" .Run.Params}}
#+end_src

** Performance Summary
- Net P/L:       *{{printf "%.2f" .Run.NetProfit}}*
- Return:        *{{printf "%.2f" .Run.ReturnPct}}%*
- CAGR:          *{{printf "%.2f" (mul100 .Run.CAGR)}}%*
- Sharpe:        *{{printf "%.2f" .Run.Sharpe}}*
- Max Drawdown:  *{{printf "%.2f" (mul100 .Run.MaxDrawdown)}}%*
- Win Rate:      *{{statPct .Run.WinRate}}*
- Profit Factor: *{{stat .Run.ProfitFactor}}*
- Average R:     *{{stat .Run.AvgR}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{len .Trades}} |

{{- if .Trades }}

** Trades
| # | Side | Qty | Entry | Price | Exit | Price | P/L | R | Reason |
|---+------+-----+-------+-------+------+-------+-----+---+--------|
{{- range .Trades }}
| {{.Seq}} | {{.Side}} | {{printf "%.0f" .Qty}} | {{.EntryTime.Format "2006-01-02"}} | {{printf "%.4f" .EntryPrice}} | {{.ExitTime.Format "2006-01-02"}} | {{printf "%.4f" .ExitPrice}} | {{printf "%.2f" .PnL}} | {{printf "%.2f" .R}} | {{.Reason}} |
{{- end }}
{{- end }}
`
