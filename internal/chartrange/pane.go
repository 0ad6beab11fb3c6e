package chartrange

import (
	"log/slog"
	"time"

	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/observable"
	"github.com/derickschaefer/hws/internal/rangectl"
)

// HControls selects which horizontal control set is shown.
type HControls int

const (
	HControlsBottom HControls = iota
	HControlsTop
	HControlsOff
)

// VControls selects which vertical control set is shown.
type VControls int

const (
	VControlsLeft VControls = iota
	VControlsRight
	VControlsOff
)

// Option configures a Pane.
type Option func(*Pane)

// WithHControls sets the horizontal controls policy.
func WithHControls(h HControls) Option { return func(p *Pane) { p.hpolicy = h } }

// WithVControls sets the vertical controls policy.
func WithVControls(v VControls) Option { return func(p *Pane) { p.vpolicy = v } }

// WithFit sets the fit-to-width and fit-to-height layout flags.
func WithFit(width, height bool) Option {
	return func(p *Pane) { p.FitToWidth, p.FitToHeight = width, height }
}

// WithDateOptions passes opts to every date converter the pane creates.
func WithDateOptions(opts ...rangectl.DateOption) Option {
	return func(p *Pane) { p.dateOpts = opts }
}

// Pane owns four control sets around a chart: top and bottom drive the X
// axis, left and right drive the Y axis.
type Pane struct {
	Top, Bottom, Left, Right *rangectl.ControlSet

	// FitToWidth and FitToHeight ask the renderer to stretch the chart.
	FitToWidth, FitToHeight bool

	hpolicy  HControls
	vpolicy  VControls
	dateOpts []rangectl.DateOption

	chart   Chart
	x, y    *binding
	dataSub observable.Subscription
}

// NewPane attaches control sets to chart.
func NewPane(chart Chart, opts ...Option) (*Pane, error) {
	p := &Pane{
		Top:    rangectl.NewControlSet(),
		Bottom: rangectl.NewControlSet(),
		Left:   rangectl.NewControlSet(),
		Right:  rangectl.NewControlSet(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.SetHControls(p.hpolicy)
	p.SetVControls(p.vpolicy)
	if err := p.SetContent(chart); err != nil {
		return nil, err
	}
	return p, nil
}

// Content returns the current chart.
func (p *Pane) Content() Chart { return p.chart }

// SetContent swaps the chart. Converters and listeners of the previous
// chart are detached first. An unsupported axis leaves the pane unchanged.
func (p *Pane) SetContent(chart Chart) error {
	if err := chart.X.validate("x"); err != nil {
		return err
	}
	if err := chart.Y.validate("y"); err != nil {
		return err
	}
	p.detach()

	p.chart = chart
	p.x = newBinding(chart.X, p.dateOpts)
	p.y = newBinding(chart.Y, p.dateOpts)
	if chart.Data != nil {
		p.refresh()
		p.dataSub = chart.Data.Subscribe(func(observable.Change[Series]) { p.refresh() })
	}
	p.x.link(p.Top, p.Bottom)
	p.y.link(p.Left, p.Right)
	return nil
}

// Dispose detaches every converter and listener.
func (p *Pane) Dispose() {
	p.detach()
	p.chart = Chart{}
}

func (p *Pane) detach() {
	p.dataSub.Unsubscribe()
	p.dataSub = observable.Subscription{}
	if p.x != nil {
		p.x.close()
	}
	if p.y != nil {
		p.y.close()
	}
	p.x, p.y = nil, nil
	for _, cs := range []*rangectl.ControlSet{p.Top, p.Bottom, p.Left, p.Right} {
		cs.RemoveAllListeners()
	}
}

// refresh re-extracts the plotted values and hands them to both converters.
func (p *Pane) refresh() {
	xs, ys := Values(p.chart.Data.Items())
	slog.Debug("chart data changed", "x_values", len(xs), "y_values", len(ys))
	p.x.update(xs)
	p.y.update(ys)
}

// SetHControls shows the horizontal control set selected by h.
func (p *Pane) SetHControls(h HControls) {
	p.hpolicy = h
	p.Top.SetVisible(h == HControlsTop)
	p.Bottom.SetVisible(h == HControlsBottom)
}

// SetVControls shows the vertical control set selected by v.
func (p *Pane) SetVControls(v VControls) {
	p.vpolicy = v
	p.Left.SetVisible(v == VControlsLeft)
	p.Right.SetVisible(v == VControlsRight)
}

// HControls returns the horizontal controls policy.
func (p *Pane) HControls() HControls { return p.hpolicy }

// VControls returns the vertical controls policy.
func (p *Pane) VControls() VControls { return p.vpolicy }

// XWindow returns the X axis window as seen through the shown horizontal
// control set (bottom when the controls are off).
func (p *Pane) XWindow() Window {
	cs := p.Bottom
	if p.hpolicy == HControlsTop {
		cs = p.Top
	}
	return window{kind: p.chart.X.Kind, cs: cs}
}

// YWindow returns the Y axis window as seen through the shown vertical
// control set (left when the controls are off).
func (p *Pane) YWindow() Window {
	cs := p.Left
	if p.vpolicy == VControlsRight {
		cs = p.Right
	}
	return window{kind: p.chart.Y.Kind, cs: cs}
}

// ─── Converter binding ────────────────────────────────────────────────────────

type linker interface {
	Link(*rangectl.ControlSet)
	Close()
}

// binding hides the converter's element type from the pane.
type binding struct {
	conv   linker
	update func([]any)
}

// newBinding builds the converter for a validated spec.
func newBinding(spec AxisSpec, dateOpts []rangectl.DateOption) *binding {
	switch spec.Kind {
	case axis.KindNumber:
		c := rangectl.NewNumberConverter(spec.Number)
		return &binding{conv: c, update: func(vs []any) { c.UpdateData(floatsOf(vs)) }}
	case axis.KindDate:
		c := rangectl.NewDateConverter(spec.Date, dateOpts...)
		return &binding{conv: c, update: func(vs []any) { c.UpdateData(datesOf(vs)) }}
	default:
		c := rangectl.NewCategoryConverter(spec.Category)
		return &binding{conv: c, update: func(vs []any) { c.UpdateData(stringsOf(vs)) }}
	}
}

func (b *binding) link(sets ...*rangectl.ControlSet) {
	for _, cs := range sets {
		b.conv.Link(cs)
	}
}

func (b *binding) close() { b.conv.Close() }

func floatsOf(vs []any) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case float32:
			out = append(out, float64(n))
		case int:
			out = append(out, float64(n))
		case int64:
			out = append(out, float64(n))
		}
	}
	return out
}

func datesOf(vs []any) []time.Time {
	out := make([]time.Time, 0, len(vs))
	for _, v := range vs {
		if t, ok := v.(time.Time); ok {
			out = append(out, t)
		}
	}
	return out
}

func stringsOf(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
