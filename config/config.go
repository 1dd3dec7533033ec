// Package config loads run and sweep configuration from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fractal/optimize"
	"github.com/rustyeddy/fractal/sim"
)

// Config is the complete file-driven setup for one run or sweep. Strategy
// fields left out of the file keep their defaults because loading starts
// from Default().
type Config struct {
	Data     DataConfig    `json:"data" yaml:"data"`
	Strategy sim.Params    `json:"strategy" yaml:"strategy"`
	Grid     GridConfig    `json:"grid,omitempty" yaml:"grid,omitempty"`
	Journal  JournalConfig `json:"journal,omitempty" yaml:"journal,omitempty"`
}

// DataConfig names the bar source: a CSV path (plain, .gz or .xz) and the
// symbol tag recorded with journaled runs.
type DataConfig struct {
	Path   string `json:"path" yaml:"path"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// JournalConfig selects where results go. An empty Type disables journaling.
type JournalConfig struct {
	Type   string `json:"type,omitempty" yaml:"type,omitempty"` // "sqlite" or "csv"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	CSVDir string `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty"`
}

// GridConfig declares sweep axes as explicit value lists. Empty lists are
// skipped, so a file only names the parameters it actually sweeps.
type GridConfig struct {
	Lookback     []int     `json:"lookback,omitempty" yaml:"lookback,omitempty"`
	EMAPeriod    []int     `json:"ema_period,omitempty" yaml:"ema_period,omitempty"`
	ATRPeriod    []int     `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`
	ATRStopMult  []float64 `json:"atr_stop_mult,omitempty" yaml:"atr_stop_mult,omitempty"`
	ATRTrailMult []float64 `json:"atr_trail_mult,omitempty" yaml:"atr_trail_mult,omitempty"`
	LeftBars     []int     `json:"left_bars,omitempty" yaml:"left_bars,omitempty"`
	RightBars    []int     `json:"right_bars,omitempty" yaml:"right_bars,omitempty"`
	RiskPerTrade []float64 `json:"risk_per_trade,omitempty" yaml:"risk_per_trade,omitempty"`
	TakeProfitR  []float64 `json:"take_profit_r,omitempty" yaml:"take_profit_r,omitempty"`
}

// Empty reports whether no axis has any values.
func (g GridConfig) Empty() bool {
	return len(g.Lookback) == 0 && len(g.EMAPeriod) == 0 && len(g.ATRPeriod) == 0 &&
		len(g.ATRStopMult) == 0 && len(g.ATRTrailMult) == 0 &&
		len(g.LeftBars) == 0 && len(g.RightBars) == 0 &&
		len(g.RiskPerTrade) == 0 && len(g.TakeProfitR) == 0
}

// Axes converts the declared value lists into sweep axes. Axis order is
// fixed here so the same file always enumerates combinations the same way.
func (g GridConfig) Axes() []optimize.Axis {
	var axes []optimize.Axis

	if len(g.Lookback) > 0 {
		axes = append(axes, optimize.Ints("lookback",
			func(p *sim.Params, v int) { p.Lookback = v }, g.Lookback...))
	}
	if len(g.EMAPeriod) > 0 {
		axes = append(axes, optimize.Ints("ema_period",
			func(p *sim.Params, v int) { p.EMAPeriod = v }, g.EMAPeriod...))
	}
	if len(g.ATRPeriod) > 0 {
		axes = append(axes, optimize.Ints("atr_period",
			func(p *sim.Params, v int) { p.ATRPeriod = v }, g.ATRPeriod...))
	}
	if len(g.ATRStopMult) > 0 {
		axes = append(axes, optimize.Floats("atr_stop_mult",
			func(p *sim.Params, v float64) { p.ATRStopMult = v }, g.ATRStopMult...))
	}
	if len(g.ATRTrailMult) > 0 {
		axes = append(axes, optimize.Floats("atr_trail_mult",
			func(p *sim.Params, v float64) { p.ATRTrailMult = v }, g.ATRTrailMult...))
	}
	if len(g.LeftBars) > 0 {
		axes = append(axes, optimize.Ints("left_bars",
			func(p *sim.Params, v int) { p.LeftBars = v }, g.LeftBars...))
	}
	if len(g.RightBars) > 0 {
		axes = append(axes, optimize.Ints("right_bars",
			func(p *sim.Params, v int) { p.RightBars = v }, g.RightBars...))
	}
	if len(g.RiskPerTrade) > 0 {
		axes = append(axes, optimize.Floats("risk_per_trade",
			func(p *sim.Params, v float64) { p.RiskPerTrade = v }, g.RiskPerTrade...))
	}
	if len(g.TakeProfitR) > 0 {
		axes = append(axes, optimize.Floats("take_profit_r",
			func(p *sim.Params, v float64) { p.TakeProfitR = &v }, g.TakeProfitR...))
	}

	return axes
}

// Default returns the baseline configuration: default strategy parameters,
// no grid, no journal.
func Default() *Config {
	return &Config{
		Strategy: sim.DefaultParams(),
	}
}

// LoadFromFile reads a configuration file, YAML first with a JSON fallback,
// layered over Default() so omitted fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()

	if yerr := yaml.Unmarshal(data, cfg); yerr != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("config: parse %s (tried YAML and JSON): %w", path, yerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

// Validate checks the cross-field constraints. Strategy parameters validate
// through sim.Params.
func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	switch c.Journal.Type {
	case "":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("config: journal db_path required for sqlite")
		}
	case "csv":
		if c.Journal.CSVDir == "" {
			return fmt.Errorf("config: journal csv_dir required for csv")
		}
	default:
		return fmt.Errorf("config: journal type must be sqlite or csv, got %q", c.Journal.Type)
	}

	return nil
}
