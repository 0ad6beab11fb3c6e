package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/app"
	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/chart"
	"github.com/derickschaefer/hws/internal/chartrange"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/observable"
	"github.com/derickschaefer/hws/internal/pipeline"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render reservoir levels as ASCII charts with range controls",
	Long: `Chart commands draw the part of the data selected by the range controls.

Every axis has a control set with a lower limit, an upper limit and a range
thumb, each on a 0–100 % scale of the full data range. The --lower, --upper
and --position flags move the horizontal set; --y-lower, --y-upper and
--y-position move the vertical one. The control strips are printed under
the chart unless --hcontrols/--vcontrols is off.

Pipeline examples:
  hws levels get OKER --format jsonl | hws chart plot --lower 75
  hws levels get OKER --format jsonl | hws transform resample --freq monthly | hws chart plot`,
}

// addWindowFlags registers the percent flags for both axes on c.
func addWindowFlags(c *cobra.Command) {
	f := c.Flags()
	f.Float64("lower", 0, "horizontal lower limit, percent of the date range")
	f.Float64("upper", 100, "horizontal upper limit, percent of the date range")
	f.Float64("position", 0, "horizontal range thumb position, percent")
	f.Float64("y-lower", 0, "vertical lower limit, percent of the fill range")
	f.Float64("y-upper", 100, "vertical upper limit, percent of the fill range")
	f.Float64("y-position", 0, "vertical range thumb position, percent")
}

// readWindowFlags returns the horizontal and vertical settings given on
// the command line.
func readWindowFlags(c *cobra.Command) (x, y windowFlags) {
	f := c.Flags()
	get := func(name string) (float64, bool) {
		v, _ := f.GetFloat64(name)
		return v, f.Changed(name)
	}
	x.lower, x.lowerSet = get("lower")
	x.upper, x.upperSet = get("upper")
	x.position, x.posSet = get("position")
	y.lower, y.lowerSet = get("y-lower")
	y.upper, y.upperSet = get("y-upper")
	y.position, y.posSet = get("y-position")
	return x, y
}

// panePolicies resolves the controls placement from config.
func panePolicies(deps *app.Deps) (chartrange.HControls, chartrange.VControls, error) {
	h, err := parseHControls(deps.Config.HControls)
	if err != nil {
		return 0, 0, err
	}
	v, err := parseVControls(deps.Config.VControls)
	if err != nil {
		return 0, 0, err
	}
	return h, v, nil
}

// ─── chart plot ──────────────────────────────────────────────────────────────

var (
	chartPlotTitle    string
	chartPlotControls bool
)

var chartPlotCmd = &cobra.Command{
	Use:   "plot [RESERVOIR_ID]",
	Short: "Line chart of fill levels inside the selected window",
	Long: `Renders a line chart with Y-axis tick labels and X-axis date labels.

With a reservoir ID the readings come from the local database; without one
JSONL readings are read from stdin. The date axis is fitted to the readings
and the fill axis to their extent before the window flags are applied.

Missing readings appear as gaps in the curve, not zeros. Values outside the
fill window are clipped and marked with ▲ or ▼.`,
	Example: `  hws chart plot OKER
  hws chart plot OKER --lower 50 --upper 100
  hws chart plot OKER --lower 0 --upper 10 --position 90
  hws chart plot OKER --y-lower 25 --vcontrols right
  hws levels get OKER --format jsonl | hws chart plot --title "Oker dam"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var series *model.LevelSeries
		if len(args) == 1 {
			series, err = loadSeries(deps, normaliseIDs(args)[0])
			if err != nil {
				return err
			}
		} else {
			all, err := pipeline.ReadReadings(os.Stdin, "series")
			if err != nil {
				return err
			}
			series = &all[0]
		}

		h, v, err := panePolicies(deps)
		if err != nil {
			return err
		}
		lv, err := newLevelView(series, h, v)
		if err != nil {
			return err
		}
		defer lv.close()

		xf, yf := readWindowFlags(cmd)
		if err := xf.apply(lv.pane.XWindow()); err != nil {
			return fmt.Errorf("horizontal window: %w", err)
		}
		if err := yf.apply(lv.pane.YWindow()); err != nil {
			return fmt.Errorf("vertical window: %w", err)
		}

		if chartPlotControls {
			result := buildTableResult("chart plot "+series.ReservoirID, controlTable(lv.pane))
			return emit(cmd.OutOrStdout(), deps, result)
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()
		return lv.render(w, deps.Config.Width, deps.Config.Height, chartPlotTitle)
	},
}

// ─── chart bar ───────────────────────────────────────────────────────────────

var chartBarCmd = &cobra.Command{
	Use:   "bar [RESERVOIR_ID...]",
	Short: "Latest fill percent per reservoir, one bar per reservoir",
	Long: `Renders one bar per reservoir showing the latest fill as a percent of
capacity. Reservoirs without a known capacity are skipped.

The reservoirs form a category axis: --lower and --upper select a
contiguous slice of them (0 = first, 100 = last) and --position slides that
slice. --y-upper sets the bar scale as a percent of full capacity.`,
	Example: `  hws chart bar
  hws chart bar OKER SOESE ECKER GRANE
  hws chart bar --lower 0 --upper 50
  hws chart bar --lower 0 --upper 25 --position 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		ids := normaliseIDs(args)
		if len(ids) == 0 {
			ids, err = deps.Store.ListLevelIDs()
			if err != nil {
				return fmt.Errorf("reading store: %w", err)
			}
		}

		var warnings []string
		series := chartrange.Series{Name: "fill"}
		for _, id := range ids {
			data, err := loadSeries(deps, id)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", id, firstLine(err)))
				continue
			}
			pct, ok := latestPercent(data)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s: no capacity or fill", id))
				continue
			}
			series.Points = append(series.Points, chartrange.Point{X: id, Y: pct})
		}
		if len(series.Points) == 0 {
			return fmt.Errorf("no reservoir has both a capacity and a fill reading")
		}

		h, v, err := panePolicies(deps)
		if err != nil {
			return err
		}
		cats := axis.NewCategoryAxis()
		yAxis := axis.NewNumberAxis(0, 100)
		pane, err := chartrange.NewPane(chartrange.Chart{
			X:    chartrange.CategoryAxis(cats),
			Y:    chartrange.NumberAxis(yAxis),
			Data: observable.NewList(series),
		}, chartrange.WithHControls(h), chartrange.WithVControls(v))
		if err != nil {
			return err
		}
		defer pane.Dispose()

		xf, yf := readWindowFlags(cmd)
		if err := xf.apply(pane.XWindow()); err != nil {
			return fmt.Errorf("horizontal window: %w", err)
		}
		if err := yf.apply(pane.YWindow()); err != nil {
			return fmt.Errorf("vertical window: %w", err)
		}

		byID := make(map[string]float64, len(series.Points))
		for _, p := range series.Points {
			byID[p.X.(string)] = p.Y.(float64)
		}
		var items []chart.BarItem
		for _, id := range cats.Categories.Items() {
			items = append(items, chart.BarItem{Label: id, Value: byID[id]})
		}
		_, ymax := yAxis.Bounds()

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := chart.Bar(w, "Fill (% of capacity)", items, chart.BarOptions{
			Width: deps.Config.Width,
			Max:   ymax,
			Unit:  "%",
		}); err != nil {
			return err
		}
		chart.Strip(w, "reservoirs", pane.XWindow().ControlSet(), deps.Config.Width)
		chart.Strip(w, "scale", pane.YWindow().ControlSet(), deps.Config.Width)
		for _, warn := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠  %s\n", warn)
		}
		return nil
	},
}

// latestPercent returns the last non-missing fill as percent of capacity.
func latestPercent(s *model.LevelSeries) (float64, bool) {
	capacity := capacityOf(s)
	for i := len(s.Readings) - 1; i >= 0; i-- {
		if r := s.Readings[i]; !r.IsMissing() {
			p := r.Percent(capacity)
			return p, capacity > 0
		}
	}
	return 0, false
}

func firstLine(err error) string {
	s, _, _ := strings.Cut(err.Error(), "\n")
	return s
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartPlotCmd)
	chartCmd.AddCommand(chartBarCmd)

	addWindowFlags(chartPlotCmd)
	addWindowFlags(chartBarCmd)

	chartPlotCmd.Flags().StringVar(&chartPlotTitle, "title", "",
		"chart title (default: reservoir ID)")
	chartPlotCmd.Flags().BoolVar(&chartPlotControls, "controls", false,
		"print the state of all four control sets instead of the chart")
}
