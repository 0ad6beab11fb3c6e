package rangectl

import (
	"log/slog"
	"math"

	"github.com/derickschaefer/hws/internal/observable"
)

// Converter keeps one axis and any number of control sets in step.
type Converter[T any] interface {
	// UpdateData recomputes the full range from the chart data plotted on
	// the axis, then re-syncs every linked control set.
	UpdateData(values []T)
	// Link attaches cs. Linking an already linked set only re-syncs it.
	Link(cs *ControlSet)
	// Unlink detaches cs. Unknown sets are ignored.
	Unlink(cs *ControlSet)
	// Close detaches every control set and stops listening to the axis.
	Close()
}

// Epsilon is the tolerance below which two percents or axis values are the
// same. It stops the axis/control feedback loop from oscillating on float
// noise.
const Epsilon = 1e-6

// NearlyEqual reports whether |a-b| <= Epsilon.
func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// settled reports whether a control listener has nothing to do: the percent
// did not really move, or the new percent is NaN.
func settled(old, new float64) bool {
	return NearlyEqual(old, new) || math.IsNaN(new)
}

// AreEqual is NearlyEqual over optional values: two nils are equal, a nil
// never equals a value.
func AreEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return NearlyEqual(*a, *b)
}

// ToPercent maps v from [min, max] onto the percent scale. A degenerate
// range maps everything to 0.
func ToPercent(v, min, max float64) float64 {
	if NearlyEqual(max, min) {
		return MinPercent
	}
	return (v - min) / (max - min) * MaxPercent
}

// FromPercent is the inverse of ToPercent.
func FromPercent(p, min, max float64) float64 {
	return p/MaxPercent*(max-min) + min
}

// Range returns the range thumb length for a window [lower, upper] inside
// [min, max]. A degenerate range is shown as a full-length thumb.
func Range(lower, upper, min, max float64) float64 {
	if NearlyEqual(max, min) {
		return MaxPercent
	}
	return MaxPercent * (upper - lower) / (max - min)
}

// ─── Links ────────────────────────────────────────────────────────────────────

// links tracks the control sets a converter drives, in link order, with the
// subscriptions it installed on each.
type links struct {
	sets []*ControlSet
	subs map[*ControlSet][]observable.Subscription
}

func (l *links) has(cs *ControlSet) bool {
	_, ok := l.subs[cs]
	return ok
}

func (l *links) add(cs *ControlSet, subs ...observable.Subscription) {
	if l.subs == nil {
		l.subs = make(map[*ControlSet][]observable.Subscription)
	}
	l.sets = append(l.sets, cs)
	l.subs[cs] = subs
}

func (l *links) remove(cs *ControlSet) {
	subs, ok := l.subs[cs]
	if !ok {
		return
	}
	for _, s := range subs {
		s.Unsubscribe()
	}
	delete(l.subs, cs)
	for i, s := range l.sets {
		if s == cs {
			l.sets = append(l.sets[:i:i], l.sets[i+1:]...)
			break
		}
	}
}

func (l *links) clear() {
	for _, cs := range append([]*ControlSet(nil), l.sets...) {
		l.remove(cs)
	}
}

// each calls fn on a snapshot of the linked sets.
func (l *links) each(fn func(*ControlSet)) {
	for _, cs := range append([]*ControlSet(nil), l.sets...) {
		fn(cs)
	}
}

// ─── Listener trace ───────────────────────────────────────────────────────────

var logger *slog.Logger

// SetLogger routes listener trace records to l. A nil logger falls back to
// slog.Default().
func SetLogger(l *slog.Logger) { logger = l }

func traceLogger() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// tracer records listener entries with their nesting depth.
type tracer struct {
	name  string
	depth int
}

// enter logs one listener call and returns the matching exit.
func (t *tracer) enter(listener string, old, new any) func() {
	traceLogger().Debug("range listener",
		"converter", t.name,
		"listener", listener,
		"depth", t.depth,
		"old", old,
		"new", new,
	)
	t.depth++
	return func() { t.depth-- }
}
