package analyze_test

import (
	"math"
	"testing"
	"time"

	"github.com/derickschaefer/hws/internal/analyze"
	"github.com/derickschaefer/hws/internal/model"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// daily builds one reading per day starting 2023-01-01.
func daily(fills ...float64) []model.Reading {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Reading, len(fills))
	for i, f := range fills {
		out[i] = model.Reading{Date: start.AddDate(0, 0, i), Fill: f}
	}
	return out
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ─── Summarize ────────────────────────────────────────────────────────────────

func TestSummarizeBasic(t *testing.T) {
	s := analyze.Summarize("OKER", daily(10, 20, math.NaN(), 30, 40), 50)

	if s.Count != 5 || s.Missing != 1 || s.MissingPct != 20 {
		t.Errorf("counts: %d/%d/%g", s.Count, s.Missing, s.MissingPct)
	}
	if s.Mean != 25 {
		t.Errorf("mean: expected 25, got %g", s.Mean)
	}
	if !approxEqual(s.Std, math.Sqrt(500.0/3), 1e-9) {
		t.Errorf("std: got %g", s.Std)
	}
	if s.Min != 10 || s.Max != 40 {
		t.Errorf("min/max: %g/%g", s.Min, s.Max)
	}
	if s.MinDate.Day() != 1 || s.MaxDate.Day() != 5 {
		t.Errorf("min/max dates: %v/%v", s.MinDate, s.MaxDate)
	}
	if s.Median != 25 || s.P25 != 17.5 || s.P75 != 32.5 {
		t.Errorf("quartiles: %g/%g/%g", s.P25, s.Median, s.P75)
	}
	if s.First != 10 || s.Last != 40 || s.Change != 30 {
		t.Errorf("first/last/change: %g/%g/%g", s.First, s.Last, s.Change)
	}
	if s.LastPercent != 80 {
		t.Errorf("last percent: expected 80, got %g", s.LastPercent)
	}
	if s.Skew != 0 {
		t.Errorf("symmetric data should have zero skew, got %g", s.Skew)
	}
	if s.From.Day() != 1 || s.To.Day() != 5 {
		t.Errorf("span: %v – %v", s.From, s.To)
	}
}

func TestSummarizeSkewSign(t *testing.T) {
	s := analyze.Summarize("X", daily(1, 1, 1, 1, 10), 0)
	if !(s.Skew > 0) {
		t.Errorf("right tail should give positive skew, got %g", s.Skew)
	}
	if !math.IsNaN(s.LastPercent) {
		t.Errorf("unknown capacity should give NaN percent, got %g", s.LastPercent)
	}
}

func TestSummarizeEmptyAndAllMissing(t *testing.T) {
	s := analyze.Summarize("X", nil, 10)
	if s.Count != 0 || !math.IsNaN(s.Mean) {
		t.Errorf("empty: %+v", s)
	}
	s = analyze.Summarize("X", daily(math.NaN(), math.NaN()), 10)
	if s.Missing != 2 || s.MissingPct != 100 || !math.IsNaN(s.Mean) || !math.IsNaN(s.Min) {
		t.Errorf("all missing: %+v", s)
	}
}

func TestSummarizeSingleValue(t *testing.T) {
	s := analyze.Summarize("X", daily(7), 0)
	if s.Mean != 7 || s.Std != 0 || s.Median != 7 || s.Skew != 0 || s.Change != 0 {
		t.Errorf("single: %+v", s)
	}
}

// ─── Trend ────────────────────────────────────────────────────────────────────

func TestTrendLinear(t *testing.T) {
	tr, err := analyze.Trend("OKER", daily(10, 12, 14, math.NaN(), 18), analyze.TrendLinear)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if !approxEqual(tr.Slope, 2, 1e-9) || !approxEqual(tr.Intercept, 10, 1e-9) {
		t.Errorf("fit: slope %g intercept %g", tr.Slope, tr.Intercept)
	}
	if !approxEqual(tr.R2, 1, 1e-9) {
		t.Errorf("R2: expected 1, got %g", tr.R2)
	}
	if tr.Direction != "up" || !approxEqual(tr.SlopePerYear, 2*365.25, 1e-6) {
		t.Errorf("direction %q, per year %g", tr.Direction, tr.SlopePerYear)
	}
}

func TestTrendDownAndFlat(t *testing.T) {
	tr, err := analyze.Trend("X", daily(9, 6, 3), analyze.TrendLinear)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Direction != "down" {
		t.Errorf("expected down, got %q", tr.Direction)
	}
	tr, err = analyze.Trend("X", daily(5, 5, 5), analyze.TrendLinear)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Direction != "flat" || tr.R2 != 1 {
		t.Errorf("flat: %+v", tr)
	}
}

func TestTrendTheilSenRobustToOutlier(t *testing.T) {
	rs := daily(1, 2, 3, 4, 100, 6, 7)
	ts, err := analyze.Trend("X", rs, analyze.TrendTheilSen)
	if err != nil {
		t.Fatal(err)
	}
	ols, err := analyze.Trend("X", rs, analyze.TrendLinear)
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(ts.Slope, 1, 1e-9) {
		t.Errorf("theil-sen slope: expected 1, got %g", ts.Slope)
	}
	if math.Abs(ols.Slope-1) <= math.Abs(ts.Slope-1) {
		t.Errorf("OLS (%g) should be pulled further by the outlier than Theil-Sen (%g)", ols.Slope, ts.Slope)
	}
	if ts.R2 > 1 {
		t.Errorf("R2 out of range: %g", ts.R2)
	}
}

func TestTrendErrors(t *testing.T) {
	if _, err := analyze.Trend("X", daily(1, math.NaN()), analyze.TrendLinear); err == nil {
		t.Error("expected error for too few readings")
	}
	if _, err := analyze.Trend("X", daily(1, 2), "cubic"); err == nil {
		t.Error("expected error for unknown method")
	}
	same := []model.Reading{
		{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Fill: 1},
		{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Fill: 2},
	}
	if _, err := analyze.Trend("X", same, analyze.TrendLinear); err == nil {
		t.Error("expected error when all readings share a date")
	}
}
