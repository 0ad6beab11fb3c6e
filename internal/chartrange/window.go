package chartrange

import (
	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/rangectl"
)

// Window is the percent-level view of one axis: the visible part of the
// full range, expressed on the [0, 100] scale of its control set.
type Window interface {
	Kind() axis.Kind
	ControlSet() *rangectl.ControlSet
	// Limits returns the lower and upper percents.
	Limits() (float64, float64)
	SetLowerLimit(p float64)
	SetUpperLimit(p float64)
	// MoveLimits slides the window, keeping its length.
	MoveLimits(pos float64)
	// Zoom scales the window length by factor around its centre.
	Zoom(factor float64)
}

type window struct {
	kind axis.Kind
	cs   *rangectl.ControlSet
}

func (w window) Kind() axis.Kind                  { return w.kind }
func (w window) ControlSet() *rangectl.ControlSet { return w.cs }

func (w window) Limits() (float64, float64) { return w.cs.LowerLimit(), w.cs.UpperLimit() }

func (w window) SetLowerLimit(p float64) { w.cs.SetLowerLimit(p) }
func (w window) SetUpperLimit(p float64) { w.cs.SetUpperLimit(p) }

// MoveLimits goes through the range thumb so the converter sees the move
// the same way it sees a drag.
func (w window) MoveLimits(pos float64) { w.cs.SetRangePosition(pos) }

func (w window) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	lo, hi := w.Limits()
	mid := (lo + hi) / 2
	half := (hi - lo) * factor / 2
	if factor < 1 {
		w.cs.SetLowerLimit(mid - half)
		w.cs.SetUpperLimit(mid + half)
		return
	}
	w.cs.SetUpperLimit(mid + half)
	w.cs.SetLowerLimit(mid - half)
}
