// Package axis defines the chart axes a range converter drives. An axis
// exposes its visible window as observable bounds; whoever draws the chart
// reads those bounds, and the converters keep them in step with the range
// control sets.
package axis

import (
	"fmt"
	"time"

	"github.com/derickschaefer/hws/internal/observable"
)

// Kind tags the domain of an axis.
type Kind int

const (
	KindNumber Kind = iota
	KindDate
	KindCategory
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindCategory:
		return "category"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Bound is the set of types a continuous axis can be bounded by.
type Bound interface {
	float64 | time.Time
}

// Axis is a continuous axis with an observable [Lower, Upper] window.
// While AutoRanging is true the drawing side is free to pick its own bounds;
// converters switch it off before taking control.
type Axis[T Bound] struct {
	Lower       *observable.Value[T]
	Upper       *observable.Value[T]
	AutoRanging *observable.Value[bool]
	kind        Kind
}

func newAxis[T Bound](kind Kind, lower, upper T, auto bool) *Axis[T] {
	return &Axis[T]{
		Lower:       observable.NewValue(lower),
		Upper:       observable.NewValue(upper),
		AutoRanging: observable.NewValue(auto),
		kind:        kind,
	}
}

// NewNumberAxis returns a numeric axis showing [lower, upper].
func NewNumberAxis(lower, upper float64) *Axis[float64] {
	return newAxis(KindNumber, lower, upper, false)
}

// NewAutoNumberAxis returns an auto-ranging numeric axis with the default
// window [0, 100].
func NewAutoNumberAxis() *Axis[float64] {
	return newAxis[float64](KindNumber, 0, 100, true)
}

// NewDateAxis returns a date axis. A zero time means the bound is not set
// yet. Bounds are normalised to midnight UTC.
func NewDateAxis(lower, upper time.Time) *Axis[time.Time] {
	return newAxis(KindDate, Day(lower), Day(upper), false)
}

// Kind reports the axis domain.
func (a *Axis[T]) Kind() Kind { return a.kind }

// Bounds returns the current window.
func (a *Axis[T]) Bounds() (T, T) { return a.Lower.Get(), a.Upper.Get() }

// ─── Category axis ────────────────────────────────────────────────────────────

// CategoryAxis shows an ordered list of category labels. The visible window
// is the list itself: a converter narrows it to a contiguous sub-range.
type CategoryAxis struct {
	Categories *observable.List[string]
}

// NewCategoryAxis returns an axis showing cats.
func NewCategoryAxis(cats ...string) *CategoryAxis {
	return &CategoryAxis{Categories: observable.NewList(cats...)}
}

// Kind reports KindCategory.
func (c *CategoryAxis) Kind() Kind { return KindCategory }

// IndexOf returns the position of cat in the visible categories, or -1.
func (c *CategoryAxis) IndexOf(cat string) int {
	for i, s := range c.Categories.Items() {
		if s == cat {
			return i
		}
	}
	return -1
}

// ─── Calendar dates ───────────────────────────────────────────────────────────

const secondsPerDay = 24 * 60 * 60

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar day at midnight UTC. The zero time is
// returned unchanged.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return FromEpochDay(EpochDay(t))
}

// EpochDay returns the number of days between 1970-01-01 and t's calendar
// day, taken in t's own location.
func EpochDay(t time.Time) int64 {
	y, m, d := t.Date()
	s := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	if s < 0 && s%secondsPerDay != 0 {
		return s/secondsPerDay - 1
	}
	return s / secondsPerDay
}

// FromEpochDay is the inverse of EpochDay.
func FromEpochDay(day int64) time.Time {
	return time.Unix(day*secondsPerDay, 0).UTC()
}
