// Package optimize runs brute-force parameter sweeps over the simulator:
// a cartesian product of axis values, one independent backtest per
// combination, best combination picked by a score statistic.
package optimize

import (
	"strconv"

	"github.com/rustyeddy/fractal/sim"
)

// Setting is one value on one axis: a label for reporting and an Apply that
// writes the value into a parameter copy.
type Setting struct {
	Label string
	Apply func(*sim.Params)
}

// Axis is an ordered list of settings for one parameter. Axis order and
// setting order together fix the enumeration order of the sweep, so results
// are reproducible run to run.
type Axis struct {
	Name     string
	Settings []Setting
}

// Ints builds an axis over integer values.
func Ints(name string, set func(*sim.Params, int), values ...int) Axis {
	ax := Axis{Name: name}
	for _, v := range values {
		v := v
		ax.Settings = append(ax.Settings, Setting{
			Label: strconv.Itoa(v),
			Apply: func(p *sim.Params) { set(p, v) },
		})
	}
	return ax
}

// Floats builds an axis over float values.
func Floats(name string, set func(*sim.Params, float64), values ...float64) Axis {
	ax := Axis{Name: name}
	for _, v := range values {
		v := v
		ax.Settings = append(ax.Settings, Setting{
			Label: strconv.FormatFloat(v, 'g', -1, 64),
			Apply: func(p *sim.Params) { set(p, v) },
		})
	}
	return ax
}

// DailyPreset is the stock sweep for daily bars: 432 combinations over the
// structure and stop parameters.
func DailyPreset() []Axis {
	return []Axis{
		Ints("lookback", func(p *sim.Params, v int) { p.Lookback = v }, 10, 20, 40),
		Ints("ema_period", func(p *sim.Params, v int) { p.EMAPeriod = v }, 34, 50, 100, 200),
		Floats("atr_stop_mult", func(p *sim.Params, v float64) { p.ATRStopMult = v }, 1.5, 2, 2.5),
		Floats("atr_trail_mult", func(p *sim.Params, v float64) { p.ATRTrailMult = v }, 2, 3, 4),
		Ints("left_bars", func(p *sim.Params, v int) { p.LeftBars = v }, 2, 3),
		Ints("right_bars", func(p *sim.Params, v int) { p.RightBars = v }, 2, 3),
	}
}

// DailyBase is the baseline the daily preset sweeps around. Slippage is wider
// than the single-run default because daily fills often gap, and HTF
// confirmation starts off so the sweep measures the native signal.
func DailyBase() sim.Params {
	p := sim.DefaultParams()
	p.SlippageBPS = 5
	p.UseHTF = false
	return p
}
