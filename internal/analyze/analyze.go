// Package analyze computes statistical summaries and trend analysis over
// reading series. All functions are pure; no I/O.
package analyze

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/derickschaefer/hws/internal/model"
)

// ─── Summary ──────────────────────────────────────────────────────────────────

// Summary holds descriptive statistics for a reservoir's fill history.
type Summary struct {
	ReservoirID string    `json:"reservoir_id"`
	Count       int       `json:"count"`       // total readings
	Missing     int       `json:"missing"`     // missing fills
	MissingPct  float64   `json:"missing_pct"` // percent missing
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Mean        float64   `json:"mean"`
	Std         float64   `json:"std"`
	Min         float64   `json:"min"`
	MinDate     time.Time `json:"min_date"`
	P25         float64   `json:"p25"`
	Median      float64   `json:"median"`
	P75         float64   `json:"p75"`
	Max         float64   `json:"max"`
	MaxDate     time.Time `json:"max_date"`
	Skew        float64   `json:"skew"`
	First       float64   `json:"first"`        // first non-missing fill
	Last        float64   `json:"last"`         // last non-missing fill
	Change      float64   `json:"change"`       // Last - First
	LastPercent float64   `json:"last_percent"` // Last as percent of capacity, NaN if unknown
}

// Summarize computes descriptive statistics over rs. Missing fills are
// counted but excluded from all numeric statistics. capacityHm3 may be 0
// when unknown.
func Summarize(id string, rs []model.Reading, capacityHm3 float64) Summary {
	s := Summary{ReservoirID: id, Count: len(rs)}
	nan := math.NaN()
	s.Mean, s.Std, s.Min, s.Max, s.Median, s.P25, s.P75 = nan, nan, nan, nan, nan, nan, nan
	s.Skew, s.First, s.Last, s.Change, s.LastPercent = nan, nan, nan, nan, nan
	if len(rs) == 0 {
		return s
	}
	s.From, s.To = rs[0].Date, rs[len(rs)-1].Date

	var vals []float64
	for _, r := range rs {
		if r.IsMissing() {
			s.Missing++
			continue
		}
		if len(vals) == 0 || r.Fill < s.Min {
			s.Min, s.MinDate = r.Fill, r.Date
		}
		if len(vals) == 0 || r.Fill > s.Max {
			s.Max, s.MaxDate = r.Fill, r.Date
		}
		vals = append(vals, r.Fill)
	}
	s.MissingPct = float64(s.Missing) / float64(s.Count) * 100
	if len(vals) == 0 {
		return s
	}

	s.Mean = stat.Mean(vals, nil)
	s.Std = 0
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	s.Skew = 0
	if len(vals) > 2 && s.Std > 0 {
		s.Skew = stat.Skew(vals, nil)
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.P25 = percentile(sorted, 25)
	s.Median = percentile(sorted, 50)
	s.P75 = percentile(sorted, 75)

	s.First, s.Last = vals[0], vals[len(vals)-1]
	s.Change = s.Last - s.First
	if capacityHm3 > 0 {
		s.LastPercent = s.Last / capacityHm3 * 100
	}
	return s
}

// ─── Trend ────────────────────────────────────────────────────────────────────

// TrendMethod selects the regression algorithm.
type TrendMethod string

const (
	TrendLinear   TrendMethod = "linear"
	TrendTheilSen TrendMethod = "theil-sen"
)

// TrendResult holds the output of a trend analysis.
type TrendResult struct {
	ReservoirID  string      `json:"reservoir_id"`
	Method       TrendMethod `json:"method"`
	Slope        float64     `json:"slope"` // hm³ per day
	Intercept    float64     `json:"intercept"`
	R2           float64     `json:"r2"`
	Direction    string      `json:"direction"`      // "up", "down", "flat"
	SlopePerYear float64     `json:"slope_per_year"` // slope * 365.25
}

// Trend fits a trend line to the readings. X values are days since the
// first non-missing reading.
func Trend(id string, rs []model.Reading, method TrendMethod) (TrendResult, error) {
	tr := TrendResult{ReservoirID: id, Method: method}

	var xs, ys []float64
	var t0 time.Time
	for _, r := range rs {
		if r.IsMissing() {
			continue
		}
		if len(xs) == 0 {
			t0 = r.Date
		}
		xs = append(xs, r.Date.Sub(t0).Hours()/24)
		ys = append(ys, r.Fill)
	}
	if len(xs) < 2 {
		return tr, fmt.Errorf("trend: need at least 2 non-missing readings, got %d", len(xs))
	}

	var err error
	switch method {
	case TrendTheilSen:
		tr.Slope = theilSenSlope(xs, ys)
		tr.Intercept = stat.Mean(ys, nil) - tr.Slope*stat.Mean(xs, nil)
	case TrendLinear, "":
		tr.Method = TrendLinear
		tr.Slope, tr.Intercept, err = leastSquares(xs, ys)
		if err != nil {
			return tr, err
		}
	default:
		return tr, fmt.Errorf("trend: unknown method %q (use linear, theil-sen)", method)
	}

	tr.R2 = 1
	if stat.Variance(ys, nil) > 0 {
		tr.R2 = stat.RSquared(xs, ys, nil, tr.Intercept, tr.Slope)
	}
	tr.SlopePerYear = tr.Slope * 365.25

	switch {
	case tr.SlopePerYear > 0.01:
		tr.Direction = "up"
	case tr.SlopePerYear < -0.01:
		tr.Direction = "down"
	default:
		tr.Direction = "flat"
	}
	return tr, nil
}

// leastSquares solves [x 1]·[slope intercept]ᵀ = y by QR decomposition.
func leastSquares(xs, ys []float64) (slope, intercept float64, err error) {
	n := len(xs)
	a := mat.NewDense(n, 2, nil)
	b := mat.NewVecDense(n, ys)
	for i, x := range xs {
		a.Set(i, 0, x)
		a.Set(i, 1, 1)
	}

	var qr mat.QR
	qr.Factorize(a)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, b); err != nil {
		return 0, 0, fmt.Errorf("trend: readings span a single day: %w", err)
	}
	return params.AtVec(0), params.AtVec(1), nil
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func theilSenSlope(xs, ys []float64) float64 {
	var slopes []float64
	for i := range xs {
		for j := i + 1; j < len(xs); j++ {
			dx := xs[j] - xs[i]
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (ys[j]-ys[i])/dx)
		}
	}
	if len(slopes) == 0 {
		return 0
	}
	sort.Float64s(slopes)
	return percentile(slopes, 50)
}
