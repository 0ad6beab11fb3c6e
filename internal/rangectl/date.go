package rangectl

import (
	"math"
	"time"

	"github.com/derickschaefer/hws/internal/axis"
)

// DateConverter drives a calendar-date axis. Percent math runs on epoch
// days; percents map back to the nearest whole day.
type DateConverter struct {
	*continuous[time.Time]
}

var _ Converter[time.Time] = (*DateConverter)(nil)

// DateOption configures a DateConverter.
type DateOption func(*dateOptions)

type dateOptions struct {
	now func() time.Time
}

// WithClock sets the clock used to pick the default window.
func WithClock(now func() time.Time) DateOption {
	return func(o *dateOptions) { o.now = now }
}

// NewDateConverter takes control of a. When the axis has no window yet it is
// given January 1 to December 31 of the current year, and will be fitted to
// the first non-empty data. An auto-ranging axis is treated the same way.
func NewDateConverter(a *axis.Axis[time.Time], opts ...DateOption) *DateConverter {
	o := dateOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &continuous[time.Time]{
		axis:      a,
		toFloat:   func(t time.Time) float64 { return float64(axis.EpochDay(t)) },
		fromFloat: func(f float64) time.Time { return axis.FromEpochDay(int64(math.Round(f))) },
		valid:     func(t time.Time) bool { return !t.IsZero() },
		trace:     tracer{name: "date"},
	}

	lo, hi := a.Bounds()
	if lo.IsZero() || hi.IsZero() || a.AutoRanging.Get() {
		c.fit = true
		a.AutoRanging.Set(false)
	}
	if lo.IsZero() || hi.IsZero() {
		y := o.now().Year()
		lo, hi = axis.Date(y, time.January, 1), axis.Date(y, time.December, 31)
	}
	c.min, c.max = lo, hi
	c.setAxis(lo, hi)
	c.init()
	return &DateConverter{continuous: c}
}
