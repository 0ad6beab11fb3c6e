// Package rangectl keeps range control sets and chart axes in step.
//
// A ControlSet is three scrollbars over the fixed percent scale [0, 100]: a
// lower limit, an upper limit and a range bar whose thumb length is the
// visible span. A Converter maps those percents onto one axis domain
// (numbers, dates or categories) and propagates changes both ways: moving a
// scrollbar rewrites the axis bounds, rewriting the axis bounds moves every
// linked scrollbar. Everything here is single-threaded; callers own the
// goroutine.
package rangectl

import (
	"math"

	"github.com/derickschaefer/hws/internal/observable"
)

// Percent scale of every scrollbar.
const (
	MinPercent = 0.0
	MaxPercent = 100.0
)

// Initial state of a fresh control set: full window, half-length range thumb.
const (
	initialLower = MinPercent
	initialRange = 50.0
	initialUpper = MaxPercent
)

// Scrollbar is a single slider on the percent scale.
type Scrollbar struct {
	Value         *observable.Value[float64]
	VisibleAmount *observable.Value[float64]
	visible       bool
	managed       bool
}

func newScrollbar(value, visibleAmount float64) *Scrollbar {
	return &Scrollbar{
		Value:         observable.NewValue(value),
		VisibleAmount: observable.NewValue(visibleAmount),
		visible:       true,
		managed:       true,
	}
}

// Visible reports whether the scrollbar is shown.
func (s *Scrollbar) Visible() bool { return s.visible }

// Managed reports whether the scrollbar takes part in layout.
func (s *Scrollbar) Managed() bool { return s.managed }

// ControlSet groups the lower-limit, upper-limit and range scrollbars that
// drive one axis.
type ControlSet struct {
	Lower *Scrollbar
	Range *Scrollbar
	Upper *Scrollbar

	subs []observable.Subscription
}

// NewControlSet returns a control set showing the full window.
func NewControlSet() *ControlSet {
	return &ControlSet{
		Lower: newScrollbar(initialLower, 1),
		Range: newScrollbar(MinPercent, initialRange),
		Upper: newScrollbar(initialUpper, 1),
	}
}

// LowerLimit returns the lower-limit percent.
func (c *ControlSet) LowerLimit() float64 { return c.Lower.Value.Get() }

// UpperLimit returns the upper-limit percent.
func (c *ControlSet) UpperLimit() float64 { return c.Upper.Value.Get() }

// RangePosition returns the range thumb position.
func (c *ControlSet) RangePosition() float64 { return c.Range.Value.Get() }

// RangeLength returns the range thumb length.
func (c *ControlSet) RangeLength() float64 { return c.Range.VisibleAmount.Get() }

// SetLowerLimit moves the lower-limit scrollbar, clamped to [0, 100]. NaN is
// ignored, as by every setter below.
func (c *ControlSet) SetLowerLimit(p float64) {
	if math.IsNaN(p) {
		return
	}
	c.Lower.Value.Set(clampPercent(p))
}

// SetUpperLimit moves the upper-limit scrollbar, clamped to [0, 100].
func (c *ControlSet) SetUpperLimit(p float64) {
	if math.IsNaN(p) {
		return
	}
	c.Upper.Value.Set(clampPercent(p))
}

// SetRangePosition moves the range thumb, clamped to [0, 100].
func (c *ControlSet) SetRangePosition(p float64) {
	if math.IsNaN(p) {
		return
	}
	c.Range.Value.Set(clampPercent(p))
}

// SetRangeLength resizes the range thumb, clamped to [0, 100].
func (c *ControlSet) SetRangeLength(l float64) {
	if math.IsNaN(l) {
		return
	}
	c.Range.VisibleAmount.Set(clampPercent(l))
}

// SetRangeLengthAndPosition resizes the range thumb to l and places it so
// that its position mirrors the current lower limit:
//
//	position = 100 / (100 - l) * lowerLimit
//
// The position is 0 when the lower limit is 0 or the thumb spans the whole
// scale. On low-resolution axes the result can exceed 100; it is written
// unclamped.
func (c *ControlSet) SetRangeLengthAndPosition(l float64) {
	if math.IsNaN(l) {
		return
	}
	l = clampPercent(l)
	pos := 0.0
	if low := c.LowerLimit(); low > 0 && l < MaxPercent {
		pos = MaxPercent / (MaxPercent - l) * low
	}
	c.Range.VisibleAmount.Set(l)
	c.Range.Value.Set(pos)
}

// SetRangeLengthAt resizes the range thumb to l and puts it at pos. Both
// are clamped to [0, 100]. Converters with their own position mapping use
// it instead of SetRangeLengthAndPosition.
func (c *ControlSet) SetRangeLengthAt(l, pos float64) {
	if math.IsNaN(l) || math.IsNaN(pos) {
		return
	}
	c.Range.VisibleAmount.Set(clampPercent(l))
	c.Range.Value.Set(clampPercent(pos))
}

// MoveLimits shifts both limits so the window keeps its length and starts at
//
//	low = (100 - rangeLength) / 100 * pos
//
// The limit on the leading side is moved first so lower never passes upper
// on the way.
func (c *ControlSet) MoveLimits(pos float64) {
	if math.IsNaN(pos) {
		return
	}
	l := c.RangeLength()
	low := (MaxPercent - l) / MaxPercent * pos
	if low > c.LowerLimit() {
		c.SetUpperLimit(low + l)
		c.SetLowerLimit(low)
		return
	}
	c.SetLowerLimit(low)
	c.SetUpperLimit(low + l)
}

// OnLowerLimit registers fn for lower-limit changes.
func (c *ControlSet) OnLowerLimit(fn observable.ChangeFunc[float64]) observable.Subscription {
	return c.track(c.Lower.Value.Subscribe(fn))
}

// OnUpperLimit registers fn for upper-limit changes.
func (c *ControlSet) OnUpperLimit(fn observable.ChangeFunc[float64]) observable.Subscription {
	return c.track(c.Upper.Value.Subscribe(fn))
}

// OnRangePosition registers fn for range thumb moves.
func (c *ControlSet) OnRangePosition(fn observable.ChangeFunc[float64]) observable.Subscription {
	return c.track(c.Range.Value.Subscribe(fn))
}

func (c *ControlSet) track(s observable.Subscription) observable.Subscription {
	c.subs = append(c.subs, s)
	return s
}

// RemoveAllListeners detaches every listener registered through the On*
// methods.
func (c *ControlSet) RemoveAllListeners() {
	for _, s := range c.subs {
		s.Unsubscribe()
	}
	c.subs = nil
}

// SetVisible shows or hides all three scrollbars. Hidden scrollbars also
// leave the layout.
func (c *ControlSet) SetVisible(v bool) {
	for _, s := range []*Scrollbar{c.Lower, c.Range, c.Upper} {
		s.visible = v
		s.managed = v
	}
}

// Visible reports whether the set is shown.
func (c *ControlSet) Visible() bool { return c.Range.visible }

func clampPercent(p float64) float64 {
	switch {
	case p < MinPercent:
		return MinPercent
	case p > MaxPercent:
		return MaxPercent
	}
	return p
}
