// Package chartrange attaches range control sets to a chart. A Pane picks a
// converter for each axis from the axis kind, links the horizontal control
// sets to X and the vertical ones to Y, and keeps the converters fed with
// the values plotted in the chart.
package chartrange

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/observable"
)

// ErrUnsupportedAxis is returned when an axis spec has no converter.
var ErrUnsupportedAxis = errors.New("unsupported axis")

// AxisSpec names one chart axis. Kind selects which of the axis fields is
// set; the others stay nil.
type AxisSpec struct {
	Kind     axis.Kind
	Number   *axis.Axis[float64]
	Date     *axis.Axis[time.Time]
	Category *axis.CategoryAxis
}

// NumberAxis wraps a numeric axis.
func NumberAxis(a *axis.Axis[float64]) AxisSpec { return AxisSpec{Kind: axis.KindNumber, Number: a} }

// DateAxis wraps a date axis.
func DateAxis(a *axis.Axis[time.Time]) AxisSpec { return AxisSpec{Kind: axis.KindDate, Date: a} }

// CategoryAxis wraps a category axis.
func CategoryAxis(a *axis.CategoryAxis) AxisSpec {
	return AxisSpec{Kind: axis.KindCategory, Category: a}
}

func (s AxisSpec) validate(name string) error {
	ok := false
	switch s.Kind {
	case axis.KindNumber:
		ok = s.Number != nil
	case axis.KindDate:
		ok = s.Date != nil
	case axis.KindCategory:
		ok = s.Category != nil
	}
	if !ok {
		return fmt.Errorf("%s axis (%s): %w", name, s.Kind, ErrUnsupportedAxis)
	}
	return nil
}

// Extra lets a data point contribute its own values to the range instead of
// its X and Y, e.g. the low and high of a band.
type Extra interface {
	XValues() []any
	YValues() []any
}

// Point is one plotted value. X and Y hold float64, time.Time or string
// depending on the axis kind.
type Point struct {
	X, Y  any
	Extra Extra
}

// Series is a named run of points.
type Series struct {
	Name   string
	Points []Point
}

// Chart is the content of a Pane.
type Chart struct {
	X, Y AxisSpec
	Data *observable.List[Series]
}

// Band is an Extra spanning [Low, High] on the Y axis at one X value.
type Band struct {
	X         any
	Low, High float64
}

func (b Band) XValues() []any { return []any{b.X} }
func (b Band) YValues() []any { return []any{b.Low, b.High} }

// Values collects the distinct X and Y values across all series, in first
// seen order. Points with an Extra contribute its values instead. NaN and
// nil values are dropped.
func Values(series []Series) (xs, ys []any) {
	xseen := make(map[any]bool)
	yseen := make(map[any]bool)
	add := func(out []any, seen map[any]bool, v any) []any {
		if v == nil {
			return out
		}
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			return out
		}
		if seen[v] {
			return out
		}
		seen[v] = true
		return append(out, v)
	}
	for _, s := range series {
		for _, p := range s.Points {
			if p.Extra != nil {
				for _, v := range p.Extra.XValues() {
					xs = add(xs, xseen, v)
				}
				for _, v := range p.Extra.YValues() {
					ys = add(ys, yseen, v)
				}
				continue
			}
			xs = add(xs, xseen, p.X)
			ys = add(ys, yseen, p.Y)
		}
	}
	return xs, ys
}
