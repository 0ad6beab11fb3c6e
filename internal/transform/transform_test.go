package transform_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/transform"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// dailyFrom builds one reading per day starting at start.
func dailyFrom(start string, fills ...float64) []model.Reading {
	d := date(start)
	out := make([]model.Reading, len(fills))
	for i, f := range fills {
		out[i] = model.Reading{Date: d.AddDate(0, 0, i), Fill: f}
	}
	return out
}

func fills(rs []model.Reading) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Fill
	}
	return out
}

func dates(rs []model.Reading) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Date.Format("2006-01-02")
	}
	return out
}

var nanEqual = cmpopts.EquateNaNs()
var approx = cmpopts.EquateApprox(0, 1e-9)

// ─── Resample ─────────────────────────────────────────────────────────────────

func TestResampleMonthly(t *testing.T) {
	rs := append(dailyFrom("2023-01-30", 10, 20), dailyFrom("2023-02-01", 30, 40, math.NaN())...)
	tests := []struct {
		method transform.ResampleMethod
		want   []float64
	}{
		{transform.ResampleMean, []float64{15, 35}},
		{transform.ResampleLast, []float64{20, 40}},
		{transform.ResampleMin, []float64{10, 30}},
		{transform.ResampleMax, []float64{20, 40}},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			got, err := transform.Resample(rs, transform.ResampleMonthly, tt.method)
			if err != nil {
				t.Fatalf("Resample: %v", err)
			}
			if diff := cmp.Diff(tt.want, fills(got)); diff != "" {
				t.Errorf("fills (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"2023-01-01", "2023-02-01"}, dates(got)); diff != "" {
				t.Errorf("dates (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResampleWeeklyStartsMonday(t *testing.T) {
	// 2023-01-01 is a Sunday.
	got, err := transform.Resample(dailyFrom("2023-01-01", 1, 2, 3), transform.ResampleWeekly, transform.ResampleMean)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if diff := cmp.Diff([]string{"2022-12-26", "2023-01-02"}, dates(got)); diff != "" {
		t.Errorf("dates (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2.5}, fills(got)); diff != "" {
		t.Errorf("fills (-want +got):\n%s", diff)
	}
}

func TestResampleQuarterlyAndAnnual(t *testing.T) {
	rs := []model.Reading{
		{Date: date("2022-02-10"), Fill: 1},
		{Date: date("2022-05-10"), Fill: 2},
		{Date: date("2023-11-10"), Fill: 3},
	}
	q, err := transform.Resample(rs, transform.ResampleQuarterly, transform.ResampleLast)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2022-01-01", "2022-04-01", "2023-10-01"}, dates(q)); diff != "" {
		t.Errorf("quarterly (-want +got):\n%s", diff)
	}
	a, err := transform.Resample(rs, transform.ResampleAnnual, transform.ResampleMax)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{2, 3}, fills(a)); diff != "" {
		t.Errorf("annual (-want +got):\n%s", diff)
	}
}

func TestResampleAllMissingPeriod(t *testing.T) {
	got, err := transform.Resample(dailyFrom("2023-03-01", math.NaN()), transform.ResampleMonthly, transform.ResampleMean)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].IsMissing() || got[0].FillRaw != "." {
		t.Errorf("expected one missing reading, got %+v", got)
	}
}

func TestResampleErrors(t *testing.T) {
	if _, err := transform.Resample(nil, transform.ResampleMonthly, transform.ResampleMean); err == nil {
		t.Error("expected error for empty input")
	}
	rs := dailyFrom("2023-01-01", 1)
	if _, err := transform.Resample(rs, "hourly", transform.ResampleMean); err == nil {
		t.Error("expected error for unknown frequency")
	}
	if _, err := transform.Resample(rs, transform.ResampleMonthly, "median"); err == nil {
		t.Error("expected error for unknown method")
	}
}

// ─── Filter ───────────────────────────────────────────────────────────────────

func TestFilter(t *testing.T) {
	rs := dailyFrom("2023-01-01", 10, math.NaN(), 30, 40, 50)
	noBounds := transform.FilterOptions{MinFill: math.NaN(), MaxFill: math.NaN()}

	tests := []struct {
		name string
		opts transform.FilterOptions
		want []string
	}{
		{"none", noBounds, []string{"2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04", "2023-01-05"}},
		{"after", transform.FilterOptions{After: date("2023-01-03"), MinFill: math.NaN(), MaxFill: math.NaN()}, []string{"2023-01-04", "2023-01-05"}},
		{"before", transform.FilterOptions{Before: date("2023-01-02"), MinFill: math.NaN(), MaxFill: math.NaN()}, []string{"2023-01-01"}},
		{"fill range keeps missing", transform.FilterOptions{MinFill: 25, MaxFill: 45}, []string{"2023-01-02", "2023-01-03", "2023-01-04"}},
		{"drop missing", transform.FilterOptions{MinFill: 25, MaxFill: 45, DropMissing: true}, []string{"2023-01-03", "2023-01-04"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, dates(transform.Filter(rs, tt.opts))); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

// ─── Diff / Percent ───────────────────────────────────────────────────────────

func TestDiff(t *testing.T) {
	got, err := transform.Diff(dailyFrom("2023-01-01", 10, 12, math.NaN(), 9))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{2, math.NaN(), math.NaN()}, fills(got), nanEqual); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !got[0].Date.Equal(date("2023-01-02")) {
		t.Errorf("diff should carry the later date, got %v", got[0].Date)
	}
	if _, err := transform.Diff(dailyFrom("2023-01-01", 1)); err == nil {
		t.Error("expected error for a single reading")
	}
}

func TestPercent(t *testing.T) {
	got, err := transform.Percent(dailyFrom("2023-01-01", 25, math.NaN()), 50)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{50, math.NaN()}, fills(got), nanEqual); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := transform.Percent(nil, 0); err == nil {
		t.Error("expected error for zero capacity")
	}
}

// ─── Roll ─────────────────────────────────────────────────────────────────────

func TestRoll(t *testing.T) {
	rs := dailyFrom("2023-01-01", 1, 2, 3, math.NaN(), 5)
	tests := []struct {
		stat       transform.RollStat
		minPeriods int
		want       []float64
	}{
		{transform.RollMean, 1, []float64{1, 1.5, 2.5, 3, 5}},
		{transform.RollMin, 1, []float64{1, 1, 2, 3, 5}},
		{transform.RollMax, 2, []float64{math.NaN(), 2, 3, math.NaN(), math.NaN()}},
		{transform.RollStd, 1, []float64{0, math.Sqrt(0.5), math.Sqrt(0.5), 0, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.stat), func(t *testing.T) {
			got, err := transform.Roll(rs, 2, tt.minPeriods, tt.stat)
			if err != nil {
				t.Fatalf("Roll: %v", err)
			}
			if diff := cmp.Diff(tt.want, fills(got), nanEqual, approx); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRollErrors(t *testing.T) {
	rs := dailyFrom("2023-01-01", 1, 2)
	if _, err := transform.Roll(rs, 0, 1, transform.RollMean); err == nil {
		t.Error("expected error for window 0")
	}
	if _, err := transform.Roll(rs, 2, 3, transform.RollMean); err == nil {
		t.Error("expected error for min-periods > window")
	}
	if _, err := transform.Roll(rs, 2, 1, "median"); err == nil {
		t.Error("expected error for unknown stat")
	}
}
