package chart_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/hws/internal/chart"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/rangectl"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daily builds one reading per day starting at start.
func daily(start time.Time, fills ...float64) []model.Reading {
	out := make([]model.Reading, len(fills))
	for i, f := range fills {
		out[i] = model.Reading{Date: start.AddDate(0, 0, i), Fill: f}
	}
	return out
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// ─── Plot ─────────────────────────────────────────────────────────────────────

func TestPlotBasic(t *testing.T) {
	rs := daily(day(2023, 1, 1), 30, 31, 33, 32, 35, 36, 34, 33, 31, 30)
	var buf strings.Builder
	if err := chart.Plot(&buf, "OKER", rs, chart.PlotOptions{Width: 60, Height: 8}); err != nil {
		t.Fatalf("Plot: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "OKER  (2023-01-01 to 2023-01-10)") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "└") {
		t.Error("missing bottom axis")
	}
	if got := len(lines(out)); got != 8+3 {
		t.Errorf("expected %d lines, got %d:\n%s", 8+3, got, out)
	}
}

func TestPlotWindowFiltersReadings(t *testing.T) {
	rs := daily(day(2023, 1, 1), 10, 20, 30, 40, 50)
	var buf strings.Builder
	err := chart.Plot(&buf, "OKER", rs, chart.PlotOptions{
		Width: 40, Height: 6,
		From: day(2023, 1, 2), To: day(2023, 1, 3),
	})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "2023-01-02 to 2023-01-03") {
		t.Errorf("window not in header:\n%s", out)
	}
	// y extent follows the visible readings only
	if !strings.Contains(out, "30.0┤") || !strings.Contains(out, "20.0┤") {
		t.Errorf("expected ticks 20..30:\n%s", out)
	}
	if strings.Contains(out, "50") {
		t.Errorf("reading outside the window leaked into the plot:\n%s", out)
	}
}

func TestPlotYWindowClips(t *testing.T) {
	rs := daily(day(2023, 1, 1), 10, 20, 30, 40, 50)
	var buf strings.Builder
	if err := chart.Plot(&buf, "OKER", rs, chart.PlotOptions{Width: 40, Height: 6, YMin: 20, YMax: 40}); err != nil {
		t.Fatalf("Plot: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "▲") || !strings.Contains(out, "▼") {
		t.Errorf("expected clip markers:\n%s", out)
	}
}

func TestPlotErrors(t *testing.T) {
	var buf strings.Builder
	if err := chart.Plot(&buf, "X", nil, chart.PlotOptions{}); err == nil {
		t.Error("expected error for no readings")
	}
	rs := daily(day(2023, 1, 1), math.NaN(), math.NaN())
	if err := chart.Plot(&buf, "X", rs, chart.PlotOptions{}); err == nil {
		t.Error("expected error for all-missing readings")
	}
	rs = daily(day(2023, 1, 1), 1, 2)
	if err := chart.Plot(&buf, "X", rs, chart.PlotOptions{From: day(2023, 2, 1), To: day(2023, 1, 1)}); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestPlotGapsStayEmpty(t *testing.T) {
	rs := []model.Reading{
		{Date: day(2023, 1, 1), Fill: 5},
		{Date: day(2023, 1, 31), Fill: 5},
	}
	var buf strings.Builder
	if err := chart.Plot(&buf, "X", rs, chart.PlotOptions{Width: 40, Height: 4, Title: "Sparse"}); err != nil {
		t.Fatalf("Plot: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Sparse") {
		t.Errorf("title override ignored:\n%s", out)
	}
	if n := strings.Count(out, "·"); n != 2 {
		t.Errorf("expected 2 isolated points, got %d:\n%s", n, out)
	}
}

// ─── Bar ──────────────────────────────────────────────────────────────────────

func TestBar(t *testing.T) {
	items := []chart.BarItem{
		{Label: "Oker", Value: 80},
		{Label: "Soese", Value: 40},
		{Label: "Ecker", Value: math.NaN()},
	}
	var buf strings.Builder
	if err := chart.Bar(&buf, "Fill", items, chart.BarOptions{Width: 34, Max: 100, Unit: "%"}); err != nil {
		t.Fatalf("Bar: %v", err)
	}
	ls := lines(buf.String())
	if len(ls) != 4 || ls[0] != "Fill" {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	oker := strings.Count(ls[1], "█")
	soese := strings.Count(ls[2], "█")
	if oker != 2*soese {
		t.Errorf("bars not proportional: %d vs %d", oker, soese)
	}
	if strings.Contains(ls[3], "█") || !strings.Contains(ls[3], ".%") {
		t.Errorf("missing value should render empty: %q", ls[3])
	}
	if strings.Index(ls[1], "80") != strings.Index(ls[2], "40") {
		t.Errorf("value columns misaligned:\n%s", buf.String())
	}
}

func TestBarEmpty(t *testing.T) {
	var buf strings.Builder
	if err := chart.Bar(&buf, "", nil, chart.BarOptions{}); err == nil {
		t.Error("expected error")
	}
}

// ─── Strip ────────────────────────────────────────────────────────────────────

func TestStrip(t *testing.T) {
	cs := rangectl.NewControlSet()
	cs.SetLowerLimit(0)
	cs.SetUpperLimit(100)
	cs.SetRangeLengthAt(50, 100)

	var buf strings.Builder
	chart.Strip(&buf, "x", cs, 12)
	ls := lines(buf.String())
	if len(ls) != 4 {
		t.Fatalf("expected 4 lines:\n%s", buf.String())
	}
	if !strings.HasPrefix(ls[1], "lower  ├●─────────┤") {
		t.Errorf("lower: %q", ls[1])
	}
	if !strings.HasPrefix(ls[2], "range  ├─────█████┤") {
		t.Errorf("range: %q", ls[2])
	}
	if !strings.HasPrefix(ls[3], "upper  ├─────────●┤") {
		t.Errorf("upper: %q", ls[3])
	}
}

func TestStripHidden(t *testing.T) {
	cs := rangectl.NewControlSet()
	cs.SetVisible(false)
	var buf strings.Builder
	chart.Strip(&buf, "x", cs, 20)
	if buf.Len() != 0 {
		t.Errorf("hidden set rendered:\n%s", buf.String())
	}
}
