package rangectl

import (
	"math"

	"github.com/derickschaefer/hws/internal/axis"
)

// NumberConverter drives a numeric axis.
type NumberConverter struct {
	*continuous[float64]
}

var _ Converter[float64] = (*NumberConverter)(nil)

// NewNumberConverter takes control of a. The initial range is the axis
// window. An auto-ranging axis is switched to manual ranging and will be
// fitted to the first non-empty data.
func NewNumberConverter(a *axis.Axis[float64]) *NumberConverter {
	c := &continuous[float64]{
		axis:      a,
		toFloat:   func(v float64) float64 { return v },
		fromFloat: func(f float64) float64 { return f },
		valid:     func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) },
		trace:     tracer{name: "number"},
	}
	c.min, c.max = a.Bounds()
	if a.AutoRanging.Get() {
		c.fit = true
		a.AutoRanging.Set(false)
	}
	c.init()
	return &NumberConverter{continuous: c}
}
