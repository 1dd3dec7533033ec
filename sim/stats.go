package sim

import (
	"math"
	"time"
)

// Point is one sample of a time-indexed curve.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Performance is everything one run produces. Equity and Drawdown are
// index-aligned, one point per bar. Open carries a position still held at
// the end of the data; its unrealized PnL is not part of the final equity,
// which reflects realized trades only.
type Performance struct {
	Equity   []Point
	Drawdown []Point
	Stats    Stats
	Trades   []Trade
	Open     *Position
}

// Stats is the summary statistics block for one run. Pointer fields are nil
// when the statistic is undefined (no trades, no losing trades).
type Stats struct {
	EndEquity    float64  `json:"end_equity"`
	CAGR         float64  `json:"cagr"`
	Sharpe       float64  `json:"sharpe"`
	MaxDrawdown  float64  `json:"max_drawdown"`
	Trades       int      `json:"trades"`
	WinRate      *float64 `json:"win_rate"`
	ProfitFactor *float64 `json:"profit_factor"`
	AvgR         *float64 `json:"avg_r"`
}

// Score keys accepted by Stats.Score and the optimizer.
const (
	ScoreSharpe       = "sharpe"
	ScoreCAGR         = "cagr"
	ScoreEndEquity    = "end_equity"
	ScoreMaxDrawdown  = "max_drawdown"
	ScoreTrades       = "trades"
	ScoreWinRate      = "win_rate"
	ScoreProfitFactor = "profit_factor"
	ScoreAvgR         = "avg_r"
)

// ValidScoreKey reports whether key names a statistic Score understands.
func ValidScoreKey(key string) bool {
	switch key {
	case ScoreSharpe, ScoreCAGR, ScoreEndEquity, ScoreMaxDrawdown, ScoreTrades,
		ScoreWinRate, ScoreProfitFactor, ScoreAvgR:
		return true
	}
	return false
}

// Score returns the named statistic for ranking runs. ok is false when the
// statistic is undefined for this run or the key is unknown. Every key ranks
// higher-is-better; max_drawdown works because drawdowns are negative.
func (s Stats) Score(key string) (value float64, ok bool) {
	switch key {
	case ScoreSharpe:
		return s.Sharpe, true
	case ScoreCAGR:
		return s.CAGR, true
	case ScoreEndEquity:
		return s.EndEquity, true
	case ScoreMaxDrawdown:
		return s.MaxDrawdown, true
	case ScoreTrades:
		return float64(s.Trades), true
	case ScoreWinRate:
		if s.WinRate == nil {
			return 0, false
		}
		return *s.WinRate, true
	case ScoreProfitFactor:
		if s.ProfitFactor == nil {
			return 0, false
		}
		return *s.ProfitFactor, true
	case ScoreAvgR:
		if s.AvgR == nil {
			return 0, false
		}
		return *s.AvgR, true
	}
	return 0, false
}

// TradeSummary aggregates the trade-level statistics that survive filtering.
type TradeSummary struct {
	Count        int
	Wins         int
	TotalPnL     float64
	WinRate      *float64
	ProfitFactor *float64
	AvgR         *float64
}

// SummarizeTrades computes win rate, profit factor, and average R over a
// trade list. Callers that admit only a subset of trades (order-block
// filtering) use it to restate the trade-level stats for the subset.
func SummarizeTrades(trades []Trade) TradeSummary {
	sum := TradeSummary{Count: len(trades)}
	if sum.Count == 0 {
		return sum
	}

	var grossWin, grossLoss, rTotal float64
	for _, t := range trades {
		sum.TotalPnL += t.PnL
		if t.PnL > 0 {
			sum.Wins++
			grossWin += t.PnL
		} else {
			grossLoss += t.PnL
		}
		rTotal += t.R
	}

	wr := float64(sum.Wins) / float64(sum.Count)
	sum.WinRate = &wr
	if grossLoss != 0 {
		pf := grossWin / math.Abs(grossLoss)
		sum.ProfitFactor = &pf
	}
	avg := rTotal / float64(sum.Count)
	sum.AvgR = &avg
	return sum
}

func computeStats(equity, dd []Point, trades []Trade) Stats {
	s := Stats{Trades: len(trades)}

	if n := len(equity); n > 0 {
		s.EndEquity = equity[n-1].Value
		s.CAGR = cagr(equity[0], equity[n-1])
		s.Sharpe = sharpe(equity)
	}
	for _, p := range dd {
		if p.Value < s.MaxDrawdown {
			s.MaxDrawdown = p.Value
		}
	}

	sum := SummarizeTrades(trades)
	s.WinRate = sum.WinRate
	s.ProfitFactor = sum.ProfitFactor
	s.AvgR = sum.AvgR
	return s
}

// drawdown converts an equity curve into fractional drawdown from the
// running peak. Values are never positive.
func drawdown(equity []Point) []Point {
	out := make([]Point, len(equity))
	high := math.Inf(-1)
	for i, p := range equity {
		if p.Value > high {
			high = p.Value
		}
		out[i] = Point{Time: p.Time, Value: (p.Value - high) / high}
	}
	return out
}

// cagr annualizes first-to-last equity growth by elapsed calendar days,
// floored at one day so single-day runs stay defined.
func cagr(first, last Point) float64 {
	if first.Value <= 0 || last.Value <= 0 {
		return 0
	}
	days := int(last.Time.Sub(first.Time).Hours() / 24)
	if days < 1 {
		days = 1
	}
	years := float64(days) / 365.25
	return math.Pow(last.Value/first.Value, 1/years) - 1
}

// sharpe is the annualized mean-over-stdev of bar-over-bar equity returns.
// The first bar contributes a zero return, matching a curve that starts from
// rest. Zero when the returns have no spread.
func sharpe(equity []Point) float64 {
	if len(equity) < 2 {
		return 0
	}
	rets := make([]float64, 1, len(equity))
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, equity[i].Value/prev-1)
	}
	sd := sampleStd(rets)
	if sd == 0 {
		return 0
	}
	return mean(rets) / sd * math.Sqrt(252)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation, zero when fewer than two samples.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
