package rangectl

import (
	"math"
	"slices"

	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/observable"
)

// CategoryConverter drives a category axis. It owns the full category list
// and an inclusive [lower, upper] index window; the axis shows the window's
// sub-list. Category i of n sits at percent i*100/(n-1).
type CategoryConverter struct {
	axis     *axis.CategoryAxis
	universe []string
	lower    *observable.Value[int]
	upper    *observable.Value[int]

	muted   bool
	links   links
	ownSubs []observable.Subscription
	trace   tracer
}

var _ Converter[string] = (*CategoryConverter)(nil)

// NewCategoryConverter takes control of a. The axis's current categories
// become the full list and the window spans all of them.
func NewCategoryConverter(a *axis.CategoryAxis) *CategoryConverter {
	c := &CategoryConverter{
		axis:     a,
		universe: a.Categories.Items(),
		trace:    tracer{name: "category"},
	}
	c.lower = observable.NewValue(0)
	c.upper = observable.NewValue(max(len(c.universe)-1, 0))
	c.ownSubs = []observable.Subscription{
		c.lower.Subscribe(c.onLowerBound),
		c.upper.Subscribe(c.onUpperBound),
	}
	return c
}

// Axis returns the driven axis.
func (c *CategoryConverter) Axis() *axis.CategoryAxis { return c.axis }

// Categories returns a copy of the full category list.
func (c *CategoryConverter) Categories() []string { return slices.Clone(c.universe) }

// IndexOf returns the position of cat in the full list, or -1.
func (c *CategoryConverter) IndexOf(cat string) int { return slices.Index(c.universe, cat) }

// LowerBound returns the first visible index.
func (c *CategoryConverter) LowerBound() int { return c.lower.Get() }

// UpperBound returns the last visible index.
func (c *CategoryConverter) UpperBound() int { return c.upper.Get() }

// SetLowerBound moves the first visible index. Out-of-range indices are
// clamped to the list, and an index past the upper bound snaps to it.
func (c *CategoryConverter) SetLowerBound(i int) {
	i = c.clampIndex(i)
	if up := c.upper.Get(); i > up {
		i = up
	}
	c.lower.Set(i)
}

// SetUpperBound moves the last visible index, clamped like SetLowerBound.
func (c *CategoryConverter) SetUpperBound(i int) {
	i = c.clampIndex(i)
	if lo := c.lower.Get(); i < lo {
		i = lo
	}
	c.upper.Set(i)
}

// UpdateData replaces the full list and resets the window to all of it.
func (c *CategoryConverter) UpdateData(values []string) {
	c.muted = true
	defer func() { c.muted = false }()

	c.universe = slices.Clone(values)
	c.axis.Categories.SetAll(c.universe...)
	c.lower.Set(0)
	c.upper.Set(max(len(c.universe)-1, 0))
	c.reslice()
	c.links.each(c.sync)
}

// Link attaches cs and brings it in line with the window.
func (c *CategoryConverter) Link(cs *ControlSet) {
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
func (c *CategoryConverter) Unlink(cs *ControlSet) { c.links.remove(cs) }

// Close detaches all control sets and the bound listeners.
func (c *CategoryConverter) Close() {
	c.links.clear()
	for _, s := range c.ownSubs {
		s.Unsubscribe()
	}
	c.ownSubs = nil
}

// Percent maps index i onto the percent scale. The first category is always
// 0 and the last always 100.
func (c *CategoryConverter) Percent(i int) float64 {
	n := len(c.universe)
	switch {
	case i <= 0 || n <= 1:
		return MinPercent
	case i >= n-1:
		return MaxPercent
	}
	return float64(i) * MaxPercent / float64(n-1)
}

// Index maps a percent onto the nearest category index.
func (c *CategoryConverter) Index(p float64) int {
	n := len(c.universe)
	if n <= 1 {
		return 0
	}
	step := MaxPercent / float64(n-1)
	return c.clampIndex(int(math.Round(p / step)))
}

func (c *CategoryConverter) rangeLength() float64 {
	n := len(c.universe)
	if n == 0 {
		return MaxPercent
	}
	visible := c.upper.Get() - c.lower.Get() + 1
	return MaxPercent * float64(visible) / float64(n)
}

func (c *CategoryConverter) clampIndex(i int) int {
	last := len(c.universe) - 1
	switch {
	case i < 0 || last < 0:
		return 0
	case i > last:
		return last
	}
	return i
}

func (c *CategoryConverter) sync(cs *ControlSet) {
	muted := c.muted
	c.muted = true
	defer func() { c.muted = muted }()

	if len(c.universe) == 0 {
		cs.SetUpperLimit(MaxPercent)
		cs.SetLowerLimit(MinPercent)
		cs.SetRangeLengthAt(MaxPercent, MinPercent)
		return
	}
	cs.SetUpperLimit(c.Percent(c.upper.Get()))
	cs.SetLowerLimit(c.Percent(c.lower.Get()))
	c.pushRange(cs)
}

// pushRange sizes the range thumb to the visible share of the list and
// places it by how far the window has slid:
//
//	position = 100 * lower / (n - 1 - width)
//
// onRange inverts exactly this mapping, so a thumb at 100 always shows the
// last categories.
func (c *CategoryConverter) pushRange(cs *ControlSet) {
	pos := MinPercent
	if slack := c.slack(); slack > 0 {
		pos = MaxPercent * float64(c.lower.Get()) / float64(slack)
	}
	cs.SetRangeLengthAt(c.rangeLength(), pos)
}

// slack is the number of positions the window can slide.
func (c *CategoryConverter) slack() int {
	return len(c.universe) - 1 - (c.upper.Get() - c.lower.Get())
}

// reslice shows the window's sub-list on the axis.
func (c *CategoryConverter) reslice() {
	var visible []string
	if len(c.universe) > 0 {
		lo, hi := c.clampIndex(c.lower.Get()), c.clampIndex(c.upper.Get())
		if lo <= hi {
			visible = c.universe[lo : hi+1]
		}
	}
	if slices.Equal(visible, c.axis.Categories.Items()) {
		return
	}
	c.axis.Categories.SetAll(visible...)
}

// setWindow moves both bounds, leading side first.
func (c *CategoryConverter) setWindow(lo, hi int) {
	if lo > c.lower.Get() {
		c.SetUpperBound(hi)
		c.SetLowerBound(lo)
		return
	}
	c.SetLowerBound(lo)
	c.SetUpperBound(hi)
}

// ─── Window → control ─────────────────────────────────────────────────────────

func (c *CategoryConverter) onLowerBound(old, new int) {
	defer c.trace.enter("lower bound", old, new)()
	p := c.Percent(new)
	c.links.each(func(cs *ControlSet) { cs.SetLowerLimit(p) })
	c.reslice()
}

func (c *CategoryConverter) onUpperBound(old, new int) {
	defer c.trace.enter("upper bound", old, new)()
	p := c.Percent(new)
	c.links.each(func(cs *ControlSet) { cs.SetUpperLimit(p) })
	c.reslice()
}

// ─── Control → window ─────────────────────────────────────────────────────────

func (c *CategoryConverter) onControlLower(cs *ControlSet, old, new float64) {
	if c.muted || settled(old, new) {
		return
	}
	defer c.trace.enter("control lower", old, new)()

	i := c.Index(new)
	clamped := false
	if up := c.upper.Get(); i > up {
		i, clamped = up, true
	}
	if i != c.lower.Get() {
		c.lower.Set(i)
	} else if clamped {
		cs.SetLowerLimit(c.Percent(i))
	}
	c.pushRange(cs)
}

func (c *CategoryConverter) onControlUpper(cs *ControlSet, old, new float64) {
	if c.muted || settled(old, new) {
		return
	}
	defer c.trace.enter("control upper", old, new)()

	i := c.Index(new)
	clamped := false
	if lo := c.lower.Get(); i < lo {
		i, clamped = lo, true
	}
	if i != c.upper.Get() {
		c.upper.Set(i)
	} else if clamped {
		cs.SetUpperLimit(c.Percent(i))
	}
	c.pushRange(cs)
}

// onRange slides the window to the start index matching pos, keeping its
// width.
func (c *CategoryConverter) onRange(cs *ControlSet, old, new float64) {
	if c.muted || settled(old, new) {
		return
	}
	defer c.trace.enter("control range", old, new)()

	slack := c.slack()
	if len(c.universe) == 0 || slack <= 0 {
		return
	}
	width := c.upper.Get() - c.lower.Get()
	lo := int(math.Round(new / MaxPercent * float64(slack)))
	lo = min(max(lo, 0), slack)
	c.setWindow(lo, lo+width)
}
