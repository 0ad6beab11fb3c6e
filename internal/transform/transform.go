// Package transform implements stateless operators on reading series.
// Each operator is a pure function that takes readings and returns a new
// slice; no side effects, no I/O.
package transform

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/derickschaefer/hws/internal/model"
)

// ─── Resample ─────────────────────────────────────────────────────────────────

// ResampleFreq is the target frequency for resampling.
type ResampleFreq string

const (
	ResampleWeekly    ResampleFreq = "weekly"
	ResampleMonthly   ResampleFreq = "monthly"
	ResampleQuarterly ResampleFreq = "quarterly"
	ResampleAnnual    ResampleFreq = "annual"
)

// ResampleMethod is the aggregation method for resampling.
type ResampleMethod string

const (
	ResampleMean ResampleMethod = "mean"
	ResampleLast ResampleMethod = "last"
	ResampleMin  ResampleMethod = "min"
	ResampleMax  ResampleMethod = "max"
)

// Resample aggregates daily readings to a lower frequency. Readings are
// grouped by period; missing fills are skipped, and a period with no fill
// at all yields a missing reading dated at the period start.
func Resample(rs []model.Reading, freq ResampleFreq, method ResampleMethod) ([]model.Reading, error) {
	if len(rs) == 0 {
		return nil, fmt.Errorf("resample: empty input")
	}
	switch freq {
	case ResampleWeekly, ResampleMonthly, ResampleQuarterly, ResampleAnnual:
	default:
		return nil, fmt.Errorf("resample: unknown frequency %q (use weekly, monthly, quarterly, annual)", freq)
	}

	groups := make(map[string][]float64)
	starts := make(map[string]time.Time)
	for _, r := range rs {
		key, start := periodKey(r.Date, freq)
		if !r.IsMissing() {
			groups[key] = append(groups[key], r.Fill)
		}
		if _, ok := starts[key]; !ok {
			starts[key] = start
		}
	}

	keys := make([]string, 0, len(starts))
	for k := range starts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.Reading, 0, len(keys))
	for _, k := range keys {
		vals := groups[k]
		val := math.NaN()
		if len(vals) > 0 {
			switch method {
			case ResampleMean:
				val = stat.Mean(vals, nil)
			case ResampleLast:
				val = vals[len(vals)-1]
			case ResampleMin:
				val = floats.Min(vals)
			case ResampleMax:
				val = floats.Max(vals)
			default:
				return nil, fmt.Errorf("resample: unknown method %q (use mean, last, min, max)", method)
			}
		}
		out = append(out, reading(starts[k], val))
	}
	return out, nil
}

// periodKey returns a sortable key and canonical start date for a period.
// Weeks start on Monday and are keyed by ISO week.
func periodKey(t time.Time, freq ResampleFreq) (string, time.Time) {
	switch freq {
	case ResampleWeekly:
		offset := (int(t.Weekday()) + 6) % 7
		start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
		y, w := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w), start
	case ResampleQuarterly:
		q := (t.Month()-1)/3 + 1
		start := time.Date(t.Year(), time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%04d-Q%d", t.Year(), q), start
	case ResampleAnnual:
		start := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%04d", t.Year()), start
	default:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%04d-%02d", t.Year(), t.Month()), start
	}
}

// ─── Filter ───────────────────────────────────────────────────────────────────

// FilterOptions describes a date/fill filter predicate.
type FilterOptions struct {
	After       time.Time // keep readings dated after After (zero = no lower bound)
	Before      time.Time // keep readings dated before Before (zero = no upper bound)
	MinFill     float64   // keep fills >= MinFill (NaN = no lower bound)
	MaxFill     float64   // keep fills <= MaxFill (NaN = no upper bound)
	DropMissing bool
}

// Filter returns readings matching all criteria in opts.
func Filter(rs []model.Reading, opts FilterOptions) []model.Reading {
	out := make([]model.Reading, 0, len(rs))
	for _, r := range rs {
		if !opts.After.IsZero() && !r.Date.After(opts.After) {
			continue
		}
		if !opts.Before.IsZero() && !r.Date.Before(opts.Before) {
			continue
		}
		if r.IsMissing() {
			if opts.DropMissing {
				continue
			}
		} else {
			if !math.IsNaN(opts.MinFill) && r.Fill < opts.MinFill {
				continue
			}
			if !math.IsNaN(opts.MaxFill) && r.Fill > opts.MaxFill {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// ─── Difference ───────────────────────────────────────────────────────────────

// Diff returns the change in fill from one reading to the next, i.e. the net
// inflow between consecutive dates. Missing neighbours give a missing change.
func Diff(rs []model.Reading) ([]model.Reading, error) {
	if len(rs) < 2 {
		return nil, fmt.Errorf("diff: need at least 2 readings, got %d", len(rs))
	}
	out := make([]model.Reading, 0, len(rs)-1)
	for i := 1; i < len(rs); i++ {
		val := math.NaN()
		if !rs[i].IsMissing() && !rs[i-1].IsMissing() {
			val = rs[i].Fill - rs[i-1].Fill
		}
		out = append(out, reading(rs[i].Date, val))
	}
	return out, nil
}

// ─── Percent of capacity ──────────────────────────────────────────────────────

// Percent converts fills into percent of the reservoir capacity.
func Percent(rs []model.Reading, capacityHm3 float64) ([]model.Reading, error) {
	if capacityHm3 <= 0 {
		return nil, fmt.Errorf("percent: capacity must be > 0, got %g", capacityHm3)
	}
	out := make([]model.Reading, len(rs))
	for i, r := range rs {
		out[i] = reading(r.Date, r.Percent(capacityHm3))
	}
	return out, nil
}

// ─── Rolling Window ───────────────────────────────────────────────────────────

// RollStat selects the statistic for rolling window computation.
type RollStat string

const (
	RollMean RollStat = "mean"
	RollStd  RollStat = "std"
	RollMin  RollStat = "min"
	RollMax  RollStat = "max"
)

// Roll computes a rolling window statistic. The window holds the current
// reading and the (window-1) preceding ones. Missing fills are skipped; a
// window with fewer than minPeriods fills yields a missing reading.
func Roll(rs []model.Reading, window, minPeriods int, st RollStat) ([]model.Reading, error) {
	if window < 1 {
		return nil, fmt.Errorf("roll: window must be >= 1, got %d", window)
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	if minPeriods > window {
		return nil, fmt.Errorf("roll: min-periods (%d) cannot exceed window (%d)", minPeriods, window)
	}
	switch st {
	case RollMean, RollStd, RollMin, RollMax:
	default:
		return nil, fmt.Errorf("roll: unknown stat %q (use mean, std, min, max)", st)
	}

	out := make([]model.Reading, len(rs))
	vals := make([]float64, 0, window)
	for i, r := range rs {
		vals = vals[:0]
		for _, w := range rs[max(0, i-window+1) : i+1] {
			if !w.IsMissing() {
				vals = append(vals, w.Fill)
			}
		}

		val := math.NaN()
		if len(vals) >= minPeriods {
			switch st {
			case RollMean:
				val = stat.Mean(vals, nil)
			case RollStd:
				val = 0
				if len(vals) > 1 {
					val = stat.StdDev(vals, nil)
				}
			case RollMin:
				val = floats.Min(vals)
			case RollMax:
				val = floats.Max(vals)
			}
		}
		out[i] = reading(r.Date, val)
	}
	return out, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func reading(date time.Time, v float64) model.Reading {
	raw := "."
	if !math.IsNaN(v) {
		raw = fmt.Sprintf("%g", v)
	}
	return model.Reading{Date: date, Fill: v, FillRaw: raw}
}
