package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/analyze"
	"github.com/derickschaefer/hws/internal/app"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/pipeline"
	"github.com/derickschaefer/hws/internal/util"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Statistics over a reservoir's fill history",
	Long: `Analyze commands read the readings of a stored reservoir, or JSONL
readings from stdin when no ID is given.

  hws analyze summary OKER
  hws levels get OKER --format jsonl | hws transform resample --freq annual | hws analyze trend`,
}

// analyzeInput returns the series named by args, or the first series on
// stdin.
func analyzeInput(deps *app.Deps, args []string) (*model.LevelSeries, error) {
	if len(args) == 1 {
		return loadSeries(deps, normaliseIDs(args)[0])
	}
	all, err := pipeline.ReadReadings(os.Stdin, "series")
	if err != nil {
		return nil, err
	}
	s := &all[0]
	if deps.RequireStore() == nil {
		if r, ok, err := deps.Store.GetReservoir(s.ReservoirID); err == nil && ok {
			s.Reservoir = &r
		}
	}
	return s, nil
}

// ─── analyze summary ──────────────────────────────────────────────────────────

var analyzeSummaryCmd = &cobra.Command{
	Use:   "summary [RESERVOIR_ID]",
	Short: "Descriptive statistics: count, mean, std, min, max, median, skew",
	Example: `  hws analyze summary OKER
  hws levels get OKER --format jsonl | hws transform filter --after 2020-01-01 | hws analyze summary`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		series, err := analyzeInput(deps, args)
		if err != nil {
			return err
		}
		s := analyze.Summarize(series.ReservoirID, series.Readings, capacityOf(series))

		t := model.Table{
			Title:   "Summary " + s.ReservoirID,
			Columns: []string{"Stat", "Value"},
			Rows: [][]string{
				{"reservoir_id", s.ReservoirID},
				{"count", fmt.Sprintf("%d", s.Count)},
				{"missing", fmt.Sprintf("%d (%.1f%%)", s.Missing, s.MissingPct)},
				{"from", util.FormatDate(s.From)},
				{"to", util.FormatDate(s.To)},
				{"mean", fmtStat(s.Mean)},
				{"std", fmtStat(s.Std)},
				{"min", fmtStat(s.Min) + " on " + util.FormatDate(s.MinDate)},
				{"p25", fmtStat(s.P25)},
				{"median", fmtStat(s.Median)},
				{"p75", fmtStat(s.P75)},
				{"max", fmtStat(s.Max) + " on " + util.FormatDate(s.MaxDate)},
				{"skew", fmtStat(s.Skew)},
				{"first", fmtStat(s.First)},
				{"last", fmtStat(s.Last)},
				{"change", fmtStat(s.Change)},
				{"last_percent", fmtStatPct(s.LastPercent)},
			},
		}
		return emit(cmd.OutOrStdout(), deps, buildTableResult("analyze summary "+s.ReservoirID, t))
	},
}

// ─── analyze trend ────────────────────────────────────────────────────────────

var analyzeTrendMethod string

var analyzeTrendCmd = &cobra.Command{
	Use:   "trend [RESERVOIR_ID]",
	Short: "Fit a trend line: slope, intercept, R², direction",
	Example: `  hws analyze trend OKER
  hws analyze trend OKER --method theil-sen`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		series, err := analyzeInput(deps, args)
		if err != nil {
			return err
		}
		tr, err := analyze.Trend(series.ReservoirID, series.Readings, analyze.TrendMethod(analyzeTrendMethod))
		if err != nil {
			return err
		}

		t := model.Table{
			Title:   "Trend " + tr.ReservoirID,
			Columns: []string{"Stat", "Value"},
			Rows: [][]string{
				{"reservoir_id", tr.ReservoirID},
				{"method", string(tr.Method)},
				{"direction", tr.Direction},
				{"slope_per_day", fmt.Sprintf("%.6f", tr.Slope)},
				{"slope_per_year", fmt.Sprintf("%.4f", tr.SlopePerYear)},
				{"intercept", fmt.Sprintf("%.4f", tr.Intercept)},
				{"r2", fmt.Sprintf("%.4f", tr.R2)},
			},
		}
		return emit(cmd.OutOrStdout(), deps, buildTableResult("analyze trend "+tr.ReservoirID, t))
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.AddCommand(analyzeSummaryCmd)
	analyzeCmd.AddCommand(analyzeTrendCmd)

	analyzeTrendCmd.Flags().StringVar(&analyzeTrendMethod, "method", "linear",
		"regression method: linear|theil-sen")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func fmtStat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return fmt.Sprintf("%.4f", v)
}

func fmtStatPct(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return fmt.Sprintf("%.2f%%", v)
}
