package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/chart"
	"github.com/derickschaefer/hws/internal/chartrange"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/observable"
	"github.com/derickschaefer/hws/internal/util"
)

// levelView is a reservoir fill chart with range controls on both axes.
// The date axis starts unset and the fill axis auto-ranging, so both are
// fitted to the readings when the pane first sees them.
type levelView struct {
	series *model.LevelSeries
	xAxis  *axis.Axis[time.Time]
	yAxis  *axis.Axis[float64]
	data   *observable.List[chartrange.Series]
	pane   *chartrange.Pane
}

func newLevelView(series *model.LevelSeries, h chartrange.HControls, v chartrange.VControls) (*levelView, error) {
	lv := &levelView{
		series: series,
		xAxis:  axis.NewDateAxis(time.Time{}, time.Time{}),
		yAxis:  axis.NewAutoNumberAxis(),
	}
	lv.data = observable.NewList(lv.chartSeries())
	pane, err := chartrange.NewPane(chartrange.Chart{
		X:    chartrange.DateAxis(lv.xAxis),
		Y:    chartrange.NumberAxis(lv.yAxis),
		Data: lv.data,
	}, chartrange.WithHControls(h), chartrange.WithVControls(v))
	if err != nil {
		return nil, fmt.Errorf("building chart: %w", err)
	}
	lv.pane = pane
	return lv, nil
}

// chartSeries converts the readings to chart points. Missing fills are
// left out so they do not pull the fill range.
func (lv *levelView) chartSeries() chartrange.Series {
	s := chartrange.Series{Name: lv.series.ReservoirID}
	for _, r := range lv.series.Readings {
		if r.IsMissing() {
			continue
		}
		s.Points = append(s.Points, chartrange.Point{X: r.Date, Y: r.Fill})
	}
	return s
}

// windowFlags are the percent settings for one axis. Only the fields whose
// flag was given are applied.
type windowFlags struct {
	lower, upper, position     float64
	lowerSet, upperSet, posSet bool
}

// apply moves w to the requested limits. Percents outside [0, 100] are
// clamped. When both limits are given the side that moves away from the
// current window is written first so the window never inverts in between.
func (f windowFlags) apply(w chartrange.Window) error {
	for _, p := range []struct {
		set bool
		v   *float64
		n   string
	}{{f.lowerSet, &f.lower, "lower"}, {f.upperSet, &f.upper, "upper"}, {f.posSet, &f.position, "position"}} {
		if !p.set {
			continue
		}
		if math.IsNaN(*p.v) {
			return fmt.Errorf("%s limit is not a number", p.n)
		}
		*p.v = util.ClampPercent(*p.v)
	}
	if f.lowerSet && f.upperSet && f.lower > f.upper {
		return fmt.Errorf("lower limit %.4g above upper limit %.4g", f.lower, f.upper)
	}
	_, curUpper := w.Limits()
	switch {
	case f.lowerSet && f.upperSet && f.lower > curUpper:
		w.SetUpperLimit(f.upper)
		w.SetLowerLimit(f.lower)
	default:
		if f.lowerSet {
			w.SetLowerLimit(f.lower)
		}
		if f.upperSet {
			w.SetUpperLimit(f.upper)
		}
	}
	if f.posSet {
		w.MoveLimits(f.position)
	}
	return nil
}

// render draws the visible window followed by the shown control strips.
func (lv *levelView) render(w io.Writer, width, height int, title string) error {
	from, to := lv.xAxis.Bounds()
	ymin, ymax := lv.yAxis.Bounds()
	if err := chart.Plot(w, lv.series.ReservoirID, lv.series.Readings, chart.PlotOptions{
		Width:  width,
		Height: height,
		Title:  title,
		From:   from,
		To:     to,
		YMin:   ymin,
		YMax:   ymax,
	}); err != nil {
		return err
	}
	p := lv.pane
	xcs := p.XWindow().ControlSet()
	ycs := p.YWindow().ControlSet()
	chart.Strip(w, fmt.Sprintf("dates  %s … %s", from.Format("2006-01-02"), to.Format("2006-01-02")), xcs, width)
	chart.Strip(w, fmt.Sprintf("fill   %s … %s hm³", formatFloatShort(ymin), formatFloatShort(ymax)), ycs, width)
	return nil
}

// add inserts or replaces the reading for r.Date and republishes the
// chart data, which re-fits the percent scale of both axes.
func (lv *levelView) add(r model.Reading) {
	rs := lv.series.Readings
	i := sort.Search(len(rs), func(i int) bool { return !rs[i].Date.Before(r.Date) })
	if i < len(rs) && rs[i].Date.Equal(r.Date) {
		rs[i] = r
	} else {
		rs = append(rs, model.Reading{})
		copy(rs[i+1:], rs[i:])
		rs[i] = r
	}
	lv.series.Readings = rs
	lv.data.SetAll(lv.chartSeries())
}

// toView captures the current window under name.
func (lv *levelView) toView(name string) model.View {
	xl, xu := lv.pane.XWindow().Limits()
	yl, yu := lv.pane.YWindow().Limits()
	return model.View{
		Name:        name,
		ReservoirID: lv.series.ReservoirID,
		XLower:      xl,
		XUpper:      xu,
		YLower:      yl,
		YUpper:      yu,
		SavedAt:     time.Now().UTC(),
	}
}

// applyView restores a saved window.
func (lv *levelView) applyView(v model.View) error {
	if err := (windowFlags{lower: v.XLower, upper: v.XUpper, lowerSet: true, upperSet: true}).apply(lv.pane.XWindow()); err != nil {
		return fmt.Errorf("view %s: %w", v.Name, err)
	}
	if err := (windowFlags{lower: v.YLower, upper: v.YUpper, lowerSet: true, upperSet: true}).apply(lv.pane.YWindow()); err != nil {
		return fmt.Errorf("view %s: %w", v.Name, err)
	}
	return nil
}

func (lv *levelView) close() { lv.pane.Dispose() }

func formatFloatShort(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
