package cmd

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/chartrange"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/util"
)

// elevenDays returns OKER readings for 2023-01-01..11 with fills 10..20.
// The third reading is missing.
func elevenDays() *model.LevelSeries {
	s := &model.LevelSeries{ReservoirID: "OKER"}
	for i := 0; i < 11; i++ {
		r := model.Reading{Date: axis.Date(2023, time.January, 1+i), Fill: float64(10 + i)}
		if i == 2 {
			r.Fill = util.ParseFill(".")
		}
		s.Readings = append(s.Readings, r)
	}
	return s
}

func newTestView(t *testing.T) *levelView {
	t.Helper()
	lv, err := newLevelView(elevenDays(), chartrange.HControlsBottom, chartrange.VControlsLeft)
	if err != nil {
		t.Fatalf("newLevelView: %v", err)
	}
	t.Cleanup(lv.close)
	return lv
}

func assertLimits(t *testing.T, name string, w chartrange.Window, lo, hi float64) {
	t.Helper()
	gotLo, gotHi := w.Limits()
	if !near(gotLo, lo) || !near(gotHi, hi) {
		t.Errorf("%s limits = [%.3f, %.3f], want [%.3f, %.3f]", name, gotLo, gotHi, lo, hi)
	}
}

func near(a, b float64) bool { return a-b < 1e-6 && b-a < 1e-6 }

func TestLevelViewFitsBothAxes(t *testing.T) {
	lv := newTestView(t)

	from, to := lv.xAxis.Bounds()
	if !from.Equal(axis.Date(2023, time.January, 1)) || !to.Equal(axis.Date(2023, time.January, 11)) {
		t.Errorf("date axis = %s..%s", from, to)
	}
	lo, hi := lv.yAxis.Bounds()
	if lo != 10 || hi != 20 {
		t.Errorf("fill axis = %v..%v, want 10..20", lo, hi)
	}
	assertLimits(t, "x", lv.pane.XWindow(), 0, 100)
	assertLimits(t, "y", lv.pane.YWindow(), 0, 100)
}

func TestWindowFlagsMoveAxes(t *testing.T) {
	lv := newTestView(t)

	if err := (windowFlags{lower: 50, lowerSet: true}).apply(lv.pane.XWindow()); err != nil {
		t.Fatal(err)
	}
	if err := (windowFlags{lower: 50, lowerSet: true}).apply(lv.pane.YWindow()); err != nil {
		t.Fatal(err)
	}
	if from, _ := lv.xAxis.Bounds(); !from.Equal(axis.Date(2023, time.January, 6)) {
		t.Errorf("date lower = %s, want 2023-01-06", from)
	}
	if lo, _ := lv.yAxis.Bounds(); lo != 15 {
		t.Errorf("fill lower = %v, want 15", lo)
	}
	// The hidden sets follow the shown ones.
	if got := lv.pane.Top.LowerLimit(); !near(got, 50) {
		t.Errorf("top lower = %v, want 50", got)
	}
}

func TestWindowFlagsWriteLeadingSideFirst(t *testing.T) {
	lv := newTestView(t)
	x := lv.pane.XWindow()

	if err := (windowFlags{lower: 0, upper: 10, lowerSet: true, upperSet: true}).apply(x); err != nil {
		t.Fatal(err)
	}
	assertLimits(t, "x", x, 0, 10)

	// Jumping past the current upper limit must not clamp the lower one.
	if err := (windowFlags{lower: 80, upper: 90, lowerSet: true, upperSet: true}).apply(x); err != nil {
		t.Fatal(err)
	}
	assertLimits(t, "x", x, 80, 90)
}

func TestWindowFlagsClampOutOfRange(t *testing.T) {
	lv := newTestView(t)
	x := lv.pane.XWindow()

	if err := (windowFlags{lower: -20, upper: 250, lowerSet: true, upperSet: true}).apply(x); err != nil {
		t.Fatal(err)
	}
	assertLimits(t, "x", x, 0, 100)

	if err := (windowFlags{lower: 150, lowerSet: true}).apply(x); err != nil {
		t.Fatal(err)
	}
	assertLimits(t, "x", x, 100, 100)
}

func TestWindowFlagsRejectBadInput(t *testing.T) {
	lv := newTestView(t)
	for _, f := range []windowFlags{
		{lower: math.NaN(), lowerSet: true},
		{position: math.NaN(), posSet: true},
		{lower: 60, upper: 40, lowerSet: true, upperSet: true},
	} {
		if err := f.apply(lv.pane.XWindow()); err == nil {
			t.Errorf("apply(%+v): expected error", f)
		}
	}
	assertLimits(t, "x", lv.pane.XWindow(), 0, 100)
}

func TestLevelViewAddExtendsScale(t *testing.T) {
	lv := newTestView(t)
	_ = (windowFlags{lower: 50, lowerSet: true}).apply(lv.pane.XWindow())
	_ = (windowFlags{lower: 50, lowerSet: true}).apply(lv.pane.YWindow())

	lv.add(model.Reading{Date: axis.Date(2023, time.January, 21), Fill: 30})

	// The window keeps its dates and fills; the scale now spans Jan 1..21
	// and 10..30.
	assertLimits(t, "x", lv.pane.XWindow(), 25, 50)
	assertLimits(t, "y", lv.pane.YWindow(), 25, 50)
	if n := len(lv.series.Readings); n != 12 {
		t.Errorf("readings = %d, want 12", n)
	}

	// Same date replaces.
	lv.add(model.Reading{Date: axis.Date(2023, time.January, 21), Fill: 25})
	if n := len(lv.series.Readings); n != 12 {
		t.Errorf("readings after replace = %d, want 12", n)
	}
}

func TestViewRoundTrip(t *testing.T) {
	lv := newTestView(t)
	_ = (windowFlags{lower: 20, upper: 70, lowerSet: true, upperSet: true}).apply(lv.pane.XWindow())
	_ = (windowFlags{lower: 10, upper: 60, lowerSet: true, upperSet: true}).apply(lv.pane.YWindow())
	v := lv.toView("spring")
	if v.ReservoirID != "OKER" || !near(v.XLower, 20) || !near(v.YUpper, 60) {
		t.Fatalf("toView = %+v", v)
	}

	other := newTestView(t)
	if err := other.applyView(v); err != nil {
		t.Fatalf("applyView: %v", err)
	}
	assertLimits(t, "x", other.pane.XWindow(), 20, 70)
	assertLimits(t, "y", other.pane.YWindow(), 10, 60)
}

func TestRunViewLoop(t *testing.T) {
	lv := newTestView(t)
	var saved []model.View
	loop := viewLoop{
		width:  60,
		height: 6,
		save:   func(v model.View) error { saved = append(saved, v); return nil },
	}

	in := strings.NewReader("l 50\nbogus\nz+\nyu 80\ns half\nq\nl 10\n")
	var out bytes.Buffer
	if err := runViewLoop(in, &out, lv, loop); err != nil {
		t.Fatalf("runViewLoop: %v", err)
	}

	// l 50 then z+ halves [50, 100] around 75: [62.5, 87.5] snapped to
	// whole days of the ten-day range.
	assertLimits(t, "x", lv.pane.XWindow(), 60, 90)
	_, yu := lv.pane.YWindow().Limits()
	if !near(yu, 80) {
		t.Errorf("y upper = %v, want 80", yu)
	}
	if len(saved) != 1 || saved[0].Name != "half" {
		t.Fatalf("saved = %+v", saved)
	}

	got := out.String()
	for _, want := range []string{"OKER", "lower  ├", `unknown command "bogus"`, `Saved view "half"`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRunViewLoopAddPersists(t *testing.T) {
	lv := newTestView(t)
	var stored []model.Reading
	loop := viewLoop{
		width:   60,
		height:  6,
		persist: func(r model.Reading) error { stored = append(stored, r); return nil },
	}
	in := strings.NewReader("a 2023-01-12 21.5\na tomorrow 1\n")
	var out bytes.Buffer
	if err := runViewLoop(in, &out, lv, loop); err != nil {
		t.Fatalf("runViewLoop: %v", err)
	}
	if len(stored) != 1 || stored[0].Fill != 21.5 {
		t.Fatalf("stored = %+v", stored)
	}
	if _, to := lv.xAxis.Bounds(); !to.Equal(axis.Date(2023, time.January, 11)) {
		t.Errorf("window end moved to %s", to)
	}
	if !strings.Contains(out.String(), "error:") {
		t.Error("bad date should print an error")
	}
}
