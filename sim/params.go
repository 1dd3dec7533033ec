package sim

import (
	"fmt"

	"github.com/rustyeddy/fractal/market"
	"github.com/rustyeddy/fractal/signal"
)

// Params is the full strategy configuration for one backtest run. It is
// treated as an immutable value: pass it by value, copy it to vary it.
type Params struct {
	LeftBars  int `yaml:"left_bars" json:"left_bars"`
	RightBars int `yaml:"right_bars" json:"right_bars"`
	Lookback  int `yaml:"lookback" json:"lookback"`
	EMAPeriod int `yaml:"ema_period" json:"ema_period"`
	ATRPeriod int `yaml:"atr_period" json:"atr_period"`

	ATRStopMult  float64 `yaml:"atr_stop_mult" json:"atr_stop_mult"`
	ATRTrailMult float64 `yaml:"atr_trail_mult" json:"atr_trail_mult"`

	// RiskPerTrade is the fraction of current equity risked between entry
	// and initial stop.
	RiskPerTrade  float64 `yaml:"risk_per_trade" json:"risk_per_trade"`
	SlippageBPS   float64 `yaml:"slippage_bps" json:"slippage_bps"`
	CommissionBPS float64 `yaml:"commission_bps" json:"commission_bps"`

	// TakeProfitR, when set, places a fixed target at that many R from
	// entry. Nil means no fixed target.
	TakeProfitR *float64 `yaml:"take_profit_r,omitempty" json:"take_profit_r,omitempty"`

	UseHTF  bool        `yaml:"use_htf" json:"use_htf"`
	HTFRule market.Rule `yaml:"htf_rule" json:"htf_rule"`

	UseShort bool `yaml:"use_short" json:"use_short"`

	InitialEquity float64 `yaml:"initial_equity" json:"initial_equity"`
}

// DefaultParams returns the daily-bars baseline configuration.
func DefaultParams() Params {
	return Params{
		LeftBars:      2,
		RightBars:     2,
		Lookback:      20,
		EMAPeriod:     50,
		ATRPeriod:     14,
		ATRStopMult:   2.0,
		ATRTrailMult:  3.0,
		RiskPerTrade:  0.01,
		SlippageBPS:   2.0,
		CommissionBPS: 10.0,
		UseHTF:        true,
		HTFRule:       market.Weekly,
		UseShort:      true,
		InitialEquity: 100_000,
	}
}

// Validate rejects configurations the engine cannot run. It is called once
// per run before any simulation starts.
func (p Params) Validate() error {
	switch {
	case p.LeftBars < 1:
		return fmt.Errorf("sim: left_bars must be positive, got %d", p.LeftBars)
	case p.RightBars < 1:
		return fmt.Errorf("sim: right_bars must be positive, got %d", p.RightBars)
	case p.Lookback < 1:
		return fmt.Errorf("sim: lookback must be positive, got %d", p.Lookback)
	case p.EMAPeriod < 1:
		return fmt.Errorf("sim: ema_period must be positive, got %d", p.EMAPeriod)
	case p.ATRPeriod < 1:
		return fmt.Errorf("sim: atr_period must be positive, got %d", p.ATRPeriod)
	case p.ATRStopMult <= 0:
		return fmt.Errorf("sim: atr_stop_mult must be positive, got %g", p.ATRStopMult)
	case p.ATRTrailMult <= 0:
		return fmt.Errorf("sim: atr_trail_mult must be positive, got %g", p.ATRTrailMult)
	case p.RiskPerTrade < 0 || p.RiskPerTrade > 1:
		return fmt.Errorf("sim: risk_per_trade must be within [0, 1], got %g", p.RiskPerTrade)
	case p.SlippageBPS < 0:
		return fmt.Errorf("sim: slippage_bps must not be negative, got %g", p.SlippageBPS)
	case p.CommissionBPS < 0:
		return fmt.Errorf("sim: commission_bps must not be negative, got %g", p.CommissionBPS)
	case p.InitialEquity <= 0:
		return fmt.Errorf("sim: initial_equity must be positive, got %g", p.InitialEquity)
	}
	if p.TakeProfitR != nil && *p.TakeProfitR <= 0 {
		return fmt.Errorf("sim: take_profit_r must be positive, got %g", *p.TakeProfitR)
	}
	if p.UseHTF {
		if _, err := market.ParseRule(string(p.HTFRule)); err != nil {
			return fmt.Errorf("sim: %w", err)
		}
	}
	return nil
}

// fill applies slippage and commission against the trader. dir is +1 for a
// buy-direction fill and -1 for a sell-direction fill.
func (p Params) fill(price, dir float64) float64 {
	return price + dir*price*(p.SlippageBPS+p.CommissionBPS)/10000
}

func (p Params) signalConfig() signal.Config {
	return signal.Config{
		LeftBars:  p.LeftBars,
		RightBars: p.RightBars,
		Lookback:  p.Lookback,
		EMAPeriod: p.EMAPeriod,
		ATRPeriod: p.ATRPeriod,
		UseHTF:    p.UseHTF,
		HTFRule:   p.HTFRule,
	}
}
