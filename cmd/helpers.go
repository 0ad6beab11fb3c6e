package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/hws/internal/app"
	"github.com/derickschaefer/hws/internal/chartrange"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/render"
	"github.com/derickschaefer/hws/internal/rangectl"
	"github.com/derickschaefer/hws/internal/util"
)

// normaliseIDs upper-cases all reservoir IDs and removes duplicates while
// preserving order.
func normaliseIDs(ids []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns the writer selected by --out. Without --out it
// passes def through and the returned closer is a no-op.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// parseHControls maps a --hcontrols value to a pane policy.
func parseHControls(s string) (chartrange.HControls, error) {
	switch strings.ToLower(s) {
	case "", "bottom":
		return chartrange.HControlsBottom, nil
	case "top":
		return chartrange.HControlsTop, nil
	case "off", "none":
		return chartrange.HControlsOff, nil
	}
	return 0, fmt.Errorf("invalid horizontal controls %q (use bottom, top or off)", s)
}

// parseVControls maps a --vcontrols value to a pane policy.
func parseVControls(s string) (chartrange.VControls, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return chartrange.VControlsLeft, nil
	case "right":
		return chartrange.VControlsRight, nil
	case "off", "none":
		return chartrange.VControlsOff, nil
	}
	return 0, fmt.Errorf("invalid vertical controls %q (use left, right or off)", s)
}

// controlTable lists the state of every control set of a pane.
func controlTable(p *chartrange.Pane) model.Table {
	t := model.Table{
		Title:   "Range controls",
		Columns: []string{"Side", "Visible", "Lower", "Upper", "Position", "Length"},
	}
	row := func(side string, cs *rangectl.ControlSet) {
		t.Rows = append(t.Rows, []string{
			side,
			fmt.Sprintf("%t", cs.Visible()),
			util.FormatPercent(cs.LowerLimit()),
			util.FormatPercent(cs.UpperLimit()),
			util.FormatPercent(cs.RangePosition()),
			util.FormatPercent(cs.RangeLength()),
		})
	}
	row("top", p.Top)
	row("bottom", p.Bottom)
	row("left", p.Left)
	row("right", p.Right)
	return t
}

// loadSeries reads the stored readings of id and attaches the reservoir
// metadata when the catalogue has it.
func loadSeries(deps *app.Deps, id string) (*model.LevelSeries, error) {
	if err := deps.RequireStore(); err != nil {
		return nil, err
	}
	data, ok, err := deps.Store.GetLevels(id)
	if err != nil {
		return nil, fmt.Errorf("reading levels: %w", err)
	}
	if !ok || len(data.Readings) == 0 {
		return nil, fmt.Errorf("no stored levels for %s\n\n  Use: hws fetch %s --store", id, id)
	}
	if r, found, err := deps.Store.GetReservoir(id); err == nil && found {
		data.Reservoir = &r
	}
	return &data, nil
}

// capacityOf returns the capacity of the series' reservoir, 0 if unknown.
func capacityOf(s *model.LevelSeries) float64 {
	if s == nil || s.Reservoir == nil {
		return 0
	}
	return s.Reservoir.CapacityHm3
}

// ─── Result builders ──────────────────────────────────────────────────────────

func buildReservoirResult(command string, rs []model.Reservoir) *model.Result {
	return &model.Result{
		Kind:        model.KindReservoir,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        rs,
		Stats:       model.ResultStats{Items: len(rs)},
	}
}

func buildLevelResult(command string, data *model.LevelSeries) *model.Result {
	return &model.Result{
		Kind:        model.KindLevelSeries,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Stats:       model.ResultStats{Items: len(data.Readings)},
	}
}

func buildViewResult(command string, vs []model.View) *model.Result {
	return &model.Result{
		Kind:        model.KindView,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        vs,
		Stats:       model.ResultStats{Items: len(vs)},
	}
}

func buildTableResult(command string, t model.Table) *model.Result {
	return &model.Result{
		Kind:        model.KindTable,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        t,
		Stats:       model.ResultStats{Items: len(t.Rows)},
	}
}

func buildReportResult(command, title, body string) *model.Result {
	return &model.Result{
		Kind:        model.KindReport,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        model.Report{Title: title, Body: body},
	}
}

// emit renders result to the --out target and prints the footer.
func emit(stdout io.Writer, deps *app.Deps, result *model.Result) error {
	w, closeFn, err := outputWriter(stdout)
	if err != nil {
		return err
	}
	if err := render.Render(w, result, resolveFormat(deps.Config.Format)); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	render.PrintFooter(stdout, result, deps.Config.Verbose)
	return nil
}
