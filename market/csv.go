package market

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// timeLayouts are tried in order when parsing the date column. Layouts
// without a zone are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseBarTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// LoadCSV reads an OHLC bar file into a Series. The first row must be a
// header naming date (or time/timestamp/datetime), open, high, low and close
// columns, case-insensitively; a volume column is picked up when present.
// Files ending in .gz or .xz are decompressed transparently. Rows are sorted
// by time with keep-last de-duplication, then validated, so a Series returned
// without error is ready for simulation.
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("market: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return Series{}, fmt.Errorf("market: %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case ".xz":
		zr, err := xz.NewReader(f)
		if err != nil {
			return Series{}, fmt.Errorf("market: %s: %w", path, err)
		}
		r = zr
	}

	s, err := ReadCSV(r)
	if err != nil {
		return Series{}, err
	}
	s.Symbol = symbolFromPath(path)
	return s, nil
}

// ReadCSV parses bar rows from r. Split out from LoadCSV so tests and callers
// holding in-memory data can use the same parser.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Series{}, fmt.Errorf("market: reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	timeIdx, ok := findColumn(cols, "date", "time", "timestamp", "datetime")
	if !ok {
		return Series{}, fmt.Errorf("market: no date column in header %v", header)
	}

	var open, high, low, clos int
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{"open", &open}, {"high", &high}, {"low", &low}, {"close", &clos},
	} {
		i, ok := cols[c.name]
		if !ok {
			return Series{}, fmt.Errorf("market: required column %q missing from header %v", c.name, header)
		}
		*c.dst = i
	}
	volIdx, hasVol := cols["volume"]

	var bars []Bar
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return Series{}, fmt.Errorf("market: line %d: %w", line, err)
		}

		t, err := parseBarTime(rec[timeIdx])
		if err != nil {
			return Series{}, fmt.Errorf("market: line %d: %w", line, err)
		}
		b := Bar{Time: t}
		for _, c := range []struct {
			idx int
			dst *float64
		}{
			{open, &b.Open}, {high, &b.High}, {low, &b.Low}, {clos, &b.Close},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[c.idx]), 64)
			if err != nil {
				return Series{}, fmt.Errorf("market: line %d: %w", line, err)
			}
			*c.dst = v
		}
		if hasVol {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[volIdx]), 64)
			if err != nil {
				return Series{}, fmt.Errorf("market: line %d: %w", line, err)
			}
			b.Volume = v
		}
		bars = append(bars, b)
	}

	s := Series{Bars: SortDedupe(bars), HasVolume: hasVol}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

func findColumn(cols map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".xz", ".gz", ".csv"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
