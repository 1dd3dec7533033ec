package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rustyeddy/fractal/market"
	"github.com/rustyeddy/fractal/sim"
)

// Options tunes a sweep. The zero value is usable: Sharpe scoring, one
// worker per CPU, no per-run budget, no logging.
type Options struct {
	// ScoreKey selects the statistic runs are ranked by.
	ScoreKey string

	// Workers caps the number of concurrent backtests.
	Workers int

	// Budget is a wall-clock limit per combination. A run that finishes
	// over budget is recorded as errored and excluded from best-selection.
	Budget time.Duration

	Logger *zap.Logger
}

// Row is the outcome of one combination. Combo holds the setting index per
// axis; Labels the matching human-readable values. Err is set when the run
// failed, exceeded the budget, or was cancelled, and such rows never win
// best-selection.
type Row struct {
	Combo  []int
	Labels []string
	Params sim.Params

	Stats   sim.Stats
	Score   float64
	Scored  bool
	Err     error
	Elapsed time.Duration
}

// Result is the full sweep outcome: every row in enumeration order, plus the
// winning row and its re-derived performance record.
type Result struct {
	SweepID  string
	ScoreKey string
	Rows     []Row
	Best     *Row
	BestPerf *sim.Performance
	Elapsed  time.Duration
}

// Search runs one backtest per combination of axes over series, starting
// from base. Rows are written to disjoint pre-allocated slots, so worker
// count never changes the result. Ties keep the earlier combination in
// enumeration order (last axis varies fastest). A cancelled context marks
// the remaining rows and returns the partial result with ctx's error.
func Search(ctx context.Context, series market.Series, base sim.Params, axes []Axis, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	key := opts.ScoreKey
	if key == "" {
		key = sim.ScoreSharpe
	}
	if !sim.ValidScoreKey(key) {
		return nil, fmt.Errorf("optimize: unknown score key %q", key)
	}

	total := 1
	for _, ax := range axes {
		if len(ax.Settings) == 0 {
			return nil, fmt.Errorf("optimize: axis %q has no settings", ax.Name)
		}
		total *= len(ax.Settings)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}

	res := &Result{
		SweepID:  uuid.NewString(),
		ScoreKey: key,
		Rows:     make([]Row, total),
	}

	// Enumerate every combination up front as an odometer over the axes.
	combo := make([]int, len(axes))
	for i := 0; i < total; i++ {
		p := base
		labels := make([]string, len(axes))
		for j, ax := range axes {
			s := ax.Settings[combo[j]]
			s.Apply(&p)
			labels[j] = s.Label
		}
		res.Rows[i] = Row{Combo: append([]int(nil), combo...), Labels: labels, Params: p}

		for j := len(axes) - 1; j >= 0; j-- {
			combo[j]++
			if combo[j] < len(axes[j].Settings) {
				break
			}
			combo[j] = 0
		}
	}

	log.Info("parameter sweep started",
		zap.String("sweep_id", res.SweepID),
		zap.String("symbol", series.Symbol),
		zap.Int("combinations", total),
		zap.Int("workers", workers),
		zap.String("score_key", key))

	start := time.Now()
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					res.Rows[i].Err = err
					continue
				}
				runCombo(series, &res.Rows[i], key, opts.Budget)
			}
		}()
	}

	sent := total
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			sent = i
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	for i := sent; i < total; i++ {
		if res.Rows[i].Err == nil {
			res.Rows[i].Err = ctx.Err()
		}
	}

	var failed int
	for i := range res.Rows {
		r := &res.Rows[i]
		if r.Err != nil {
			failed++
			log.Warn("combination failed",
				zap.Strings("labels", r.Labels), zap.Error(r.Err))
			continue
		}
		if !r.Scored {
			continue
		}
		if res.Best == nil || r.Score > res.Best.Score {
			res.Best = r
		}
	}

	// Re-run the winner so the caller gets its full performance record
	// without every row having to retain one.
	if res.Best != nil && ctx.Err() == nil {
		perf, err := sim.Run(series, res.Best.Params)
		if err != nil {
			return res, fmt.Errorf("optimize: re-run best combination: %w", err)
		}
		res.BestPerf = perf
	}

	res.Elapsed = time.Since(start)
	fields := []zap.Field{
		zap.String("sweep_id", res.SweepID),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("failed", failed),
	}
	if res.Best != nil {
		fields = append(fields,
			zap.Strings("best", res.Best.Labels),
			zap.Float64("best_score", res.Best.Score))
	}
	log.Info("parameter sweep finished", fields...)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// runCombo executes one combination into its row slot.
func runCombo(series market.Series, row *Row, key string, budget time.Duration) {
	t0 := time.Now()
	perf, err := sim.Run(series, row.Params)
	row.Elapsed = time.Since(t0)

	if err != nil {
		row.Err = err
		return
	}
	if budget > 0 && row.Elapsed > budget {
		row.Err = fmt.Errorf("optimize: run took %s, budget %s",
			row.Elapsed.Round(time.Microsecond), budget)
		return
	}
	row.Stats = perf.Stats
	row.Score, row.Scored = perf.Stats.Score(key)
}
