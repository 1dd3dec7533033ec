package market

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Rule selects a resampling bucket size: calendar-based Weekly/Monthly/Daily,
// or any fixed time.Duration expression such as "4h".
type Rule string

const (
	Daily   Rule = "D"
	Weekly  Rule = "W"
	Monthly Rule = "M"
)

// ParseRule normalizes and validates a rule string. Single letters are
// case-insensitive; anything else must parse as a positive Go duration
// ("4h", "90m", ...).
func ParseRule(s string) (Rule, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D":
		return Daily, nil
	case "W":
		return Weekly, nil
	case "M":
		return Monthly, nil
	}
	d, err := time.ParseDuration(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", fmt.Errorf("market: rule %q is not W, M, D or a duration", s)
	}
	if d <= 0 {
		return "", fmt.Errorf("market: rule %q has a non-positive duration", s)
	}
	return Rule(d.String()), nil
}

// bucketEnd returns the exclusive right edge of the bucket containing t: the
// first instant that is NOT part of the bucket. Resampled bars are labeled
// with this edge, so a native bar at or after the label sits strictly after
// every bar aggregated into the bucket and the higher-timeframe mapping
// cannot look ahead. Weeks start Monday 00:00 UTC; months and days follow the
// UTC calendar; duration buckets align to the Unix epoch.
func (r Rule) bucketEnd(t time.Time) (time.Time, error) {
	u := t.UTC()
	switch r {
	case Weekly:
		day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
		return monday.AddDate(0, 0, 7), nil
	case Monthly:
		return time.Date(u.Year(), u.Month()+1, 1, 0, 0, 0, 0, time.UTC), nil
	case Daily:
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1), nil
	}
	d, err := time.ParseDuration(string(r))
	if err != nil || d <= 0 {
		return time.Time{}, fmt.Errorf("market: invalid resample rule %q", r)
	}
	return u.Truncate(d).Add(d), nil
}

// Resample aggregates s into coarser bars: open=first, high=max, low=min,
// close=last, volume summed. Each output bar's Time is its bucket's exclusive
// right edge. Buckets containing no input bars do not appear. The input must
// already be in time order (Validate enforces that for loaded data).
func Resample(s Series, rule Rule) (Series, error) {
	out := Series{Symbol: s.Symbol, HasVolume: s.HasVolume}

	for _, b := range s.Bars {
		end, err := rule.bucketEnd(b.Time)
		if err != nil {
			return Series{}, err
		}

		if n := len(out.Bars); n > 0 {
			agg := &out.Bars[n-1]
			if agg.Time.Equal(end) {
				agg.High = math.Max(agg.High, b.High)
				agg.Low = math.Min(agg.Low, b.Low)
				agg.Close = b.Close
				agg.Volume += b.Volume
				continue
			}
			if end.Before(agg.Time) {
				return Series{}, fmt.Errorf("market: resample input not in time order at %s", b.Time.Format(time.RFC3339))
			}
		}
		out.Bars = append(out.Bars, Bar{
			Time: end, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}
	return out, nil
}
