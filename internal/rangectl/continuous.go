package rangectl

import (
	"gonum.org/v1/gonum/floats"

	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/observable"
)

// continuous is the converter logic shared by number and date axes. Axis
// values are projected onto float64 with toFloat, percent math runs there,
// and fromFloat maps back (snapping dates to whole days).
type continuous[T axis.Bound] struct {
	axis      *axis.Axis[T]
	min, max  T
	toFloat   func(T) float64
	fromFloat func(float64) T
	// valid reports whether a data value takes part in the extent.
	valid     func(T) bool

	// fit is set while the axis window was not chosen by anyone: the first
	// non-empty data replaces the range instead of widening it, and the axis
	// is moved onto the data.
	fit bool
	// muted silences control listeners while the converter rewrites the
	// control sets itself.
	muted bool

	links    links
	axisSubs []observable.Subscription
	trace    tracer
}

func (c *continuous[T]) init() {
	c.axisSubs = []observable.Subscription{
		c.axis.Lower.Subscribe(c.onAxisLower),
		c.axis.Upper.Subscribe(c.onAxisUpper),
	}
}

// Axis returns the driven axis.
func (c *continuous[T]) Axis() *axis.Axis[T] { return c.axis }

// Extent returns the full range [min, max] the percent scale covers.
func (c *continuous[T]) Extent() (T, T) { return c.min, c.max }

// Percent maps an axis value onto the percent scale.
func (c *continuous[T]) Percent(v T) float64 {
	return ToPercent(c.toFloat(v), c.toFloat(c.min), c.toFloat(c.max))
}

// Value maps a percent back onto the axis domain.
func (c *continuous[T]) Value(p float64) T {
	return c.fromFloat(FromPercent(p, c.toFloat(c.min), c.toFloat(c.max)))
}

func (c *continuous[T]) rangeLength() float64 {
	lo, hi := c.axis.Bounds()
	return Range(c.toFloat(lo), c.toFloat(hi), c.toFloat(c.min), c.toFloat(c.max))
}

// UpdateData recomputes [min, max] from values. Without data the axis window
// is the range. With data the range is the data extent, widened so the
// current axis window always stays on the percent scale.
func (c *continuous[T]) UpdateData(values []T) {
	c.muted = true
	defer func() { c.muted = false }()

	var fs []float64
	for _, v := range values {
		if c.valid(v) {
			fs = append(fs, c.toFloat(v))
		}
	}
	alo, ahi := c.axis.Bounds()
	lo, hi := c.toFloat(alo), c.toFloat(ahi)
	if len(fs) > 0 {
		dlo, dhi := floats.Min(fs), floats.Max(fs)
		if c.fit {
			lo, hi = dlo, dhi
		} else {
			lo, hi = min(dlo, lo), max(dhi, hi)
		}
	}
	c.min, c.max = c.fromFloat(lo), c.fromFloat(hi)
	if c.fit && len(fs) > 0 {
		c.fit = false
		c.setAxis(c.min, c.max)
	}
	c.links.each(c.sync)
}

// setAxis moves the axis window, writing the leading bound first so the
// window is never inverted in between.
func (c *continuous[T]) setAxis(lo, hi T) {
	if c.toFloat(lo) > c.toFloat(c.axis.Upper.Get()) {
		c.axis.Upper.Set(hi)
		c.axis.Lower.Set(lo)
		return
	}
	c.axis.Lower.Set(lo)
	c.axis.Upper.Set(hi)
}

// Link attaches cs and brings it in line with the axis.
func (c *continuous[T]) Link(cs *ControlSet) {
	if c.links.has(cs) {
		c.sync(cs)
		return
	}
	c.sync(cs)
	c.links.add(cs,
		cs.OnLowerLimit(func(old, new float64) { c.onControlLower(cs, old, new) }),
		cs.OnUpperLimit(func(old, new float64) { c.onControlUpper(cs, old, new) }),
		cs.OnRangePosition(func(old, new float64) { c.onRange(cs, old, new) }),
	)
}

// Unlink detaches cs.
func (c *continuous[T]) Unlink(cs *ControlSet) { c.links.remove(cs) }

// Close detaches all control sets and the axis listeners.
func (c *continuous[T]) Close() {
	c.links.clear()
	for _, s := range c.axisSubs {
		s.Unsubscribe()
	}
	c.axisSubs = nil
}

func (c *continuous[T]) sync(cs *ControlSet) {
	muted := c.muted
	c.muted = true
	defer func() { c.muted = muted }()

	lo, hi := c.axis.Bounds()
	cs.SetUpperLimit(c.Percent(hi))
	cs.SetLowerLimit(c.Percent(lo))
	cs.SetRangeLengthAndPosition(c.rangeLength())
}

// ─── Control → axis ───────────────────────────────────────────────────────────

func (c *continuous[T]) onControlLower(cs *ControlSet, old, new float64) {
	if c.muted || settled(old, new) {
		return
	}
	defer c.trace.enter("control lower", old, new)()

	v := c.Value(new)
	clamped := false
	if hi := c.axis.Upper.Get(); c.toFloat(v) > c.toFloat(hi) {
		v, clamped = hi, true
	}
	if !NearlyEqual(c.toFloat(v), c.toFloat(c.axis.Lower.Get())) {
		c.axis.Lower.Set(v)
	}
	if clamped {
		cs.SetLowerLimit(c.Percent(c.axis.Lower.Get()))
	}
	cs.SetRangeLengthAndPosition(c.rangeLength())
}

func (c *continuous[T]) onControlUpper(cs *ControlSet, old, new float64) {
	if c.muted || settled(old, new) {
		return
	}
	defer c.trace.enter("control upper", old, new)()

	v := c.Value(new)
	clamped := false
	if lo := c.axis.Lower.Get(); c.toFloat(v) < c.toFloat(lo) {
		v, clamped = lo, true
	}
	if !NearlyEqual(c.toFloat(v), c.toFloat(c.axis.Upper.Get())) {
		c.axis.Upper.Set(v)
	}
	if clamped {
		cs.SetUpperLimit(c.Percent(c.axis.Upper.Get()))
	}
	cs.SetRangeLengthAndPosition(c.rangeLength())
}

func (c *continuous[T]) onRange(cs *ControlSet, old, new float64) {
	if c.muted || settled(old, new) {
		return
	}
	defer c.trace.enter("control range", old, new)()
	cs.MoveLimits(new)
}

// ─── Axis → control ───────────────────────────────────────────────────────────

// onAxisLower keeps the lower bound inside [min, max] and at or below the
// upper bound, then broadcasts its percent to every linked set.
func (c *continuous[T]) onAxisLower(old, new T) {
	if c.unchanged(old, new) {
		return
	}
	if !c.valid(new) {
		c.restore(c.axis.Lower, old)
		return
	}
	defer c.trace.enter("axis lower", old, new)()

	v := c.clampToRange(new)
	if hi := c.axis.Upper.Get(); c.toFloat(v) > c.toFloat(hi) {
		v = hi
	}
	if v != new {
		c.axis.Lower.Set(v)
	}
	p := c.Percent(v)
	c.links.each(func(cs *ControlSet) { cs.SetLowerLimit(p) })
}

// onAxisUpper mirrors onAxisLower.
func (c *continuous[T]) onAxisUpper(old, new T) {
	if c.unchanged(old, new) {
		return
	}
	if !c.valid(new) {
		c.restore(c.axis.Upper, old)
		return
	}
	defer c.trace.enter("axis upper", old, new)()

	v := c.clampToRange(new)
	if lo := c.axis.Lower.Get(); c.toFloat(v) < c.toFloat(lo) {
		v = lo
	}
	if v != new {
		c.axis.Upper.Set(v)
	}
	p := c.Percent(v)
	c.links.each(func(cs *ControlSet) { cs.SetUpperLimit(p) })
}

// restore puts back the previous bound after an invalid write. Nothing is
// restored when the previous bound was invalid as well.
func (c *continuous[T]) restore(bound *observable.Value[T], old T) {
	if c.valid(old) {
		bound.Set(old)
	}
}

func (c *continuous[T]) unchanged(old, new T) bool {
	return c.valid(old) && c.valid(new) && NearlyEqual(c.toFloat(old), c.toFloat(new))
}

// clampToRange pins v to [min, max] and normalises it to the axis grid.
func (c *continuous[T]) clampToRange(v T) T {
	f := c.toFloat(v)
	switch {
	case f < c.toFloat(c.min):
		return c.min
	case f > c.toFloat(c.max):
		return c.max
	}
	return c.fromFloat(f)
}
