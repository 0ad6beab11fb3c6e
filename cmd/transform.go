package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/pipeline"
	"github.com/derickschaefer/hws/internal/render"
	"github.com/derickschaefer/hws/internal/transform"
	"github.com/derickschaefer/hws/internal/util"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform reading series (reads JSONL from stdin)",
	Long: `Transform operators read JSONL readings from stdin and write to stdout.
Input may hold several reservoirs; each is transformed on its own.

Pipeline example:
  hws levels get OKER --format jsonl | hws transform resample --freq monthly
  hws levels get OKER --format jsonl | hws transform diff | hws analyze summary`,
}

// transformEach applies fn to every series read from stdin and writes the
// results.
func transformEach(cmd *cobra.Command, fn func(model.LevelSeries) ([]model.Reading, error)) error {
	all, err := pipeline.ReadReadings(os.Stdin, "series")
	if err != nil {
		return err
	}
	out := make([]model.LevelSeries, 0, len(all))
	for _, s := range all {
		rs, err := fn(s)
		if err != nil {
			return fmt.Errorf("%s: %w", s.ReservoirID, err)
		}
		out = append(out, model.LevelSeries{ReservoirID: s.ReservoirID, Reservoir: s.Reservoir, Readings: rs})
	}
	return writeTransformOutput(cmd, out)
}

// ─── resample ─────────────────────────────────────────────────────────────────

var (
	transformResampleFreq   string
	transformResampleMethod string
)

var transformResampleCmd = &cobra.Command{
	Use:   "resample",
	Short: "Aggregate daily readings to weekly, monthly, quarterly or annual",
	Example: `  hws levels get OKER --format jsonl | hws transform resample --freq monthly
  hws levels get OKER --format jsonl | hws transform resample --freq annual --method min`,
	RunE: func(cmd *cobra.Command, args []string) error {
		freq := transform.ResampleFreq(transformResampleFreq)
		method := transform.ResampleMethod(transformResampleMethod)
		return transformEach(cmd, func(s model.LevelSeries) ([]model.Reading, error) {
			return transform.Resample(s.Readings, freq, method)
		})
	},
}

// ─── filter ───────────────────────────────────────────────────────────────────

var (
	transformFilterAfter       string
	transformFilterBefore      string
	transformFilterMin         float64
	transformFilterMax         float64
	transformFilterDropMissing bool
)

var transformFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep readings by date and fill",
	Example: `  hws levels get OKER --format jsonl | hws transform filter --after 2020-01-01
  hws levels get OKER --format jsonl | hws transform filter --max 20 --drop-missing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := transform.FilterOptions{
			MinFill:     math.NaN(),
			MaxFill:     math.NaN(),
			DropMissing: transformFilterDropMissing,
		}
		var err error
		if transformFilterAfter != "" {
			if opts.After, err = util.ParseDate(transformFilterAfter); err != nil {
				return fmt.Errorf("--after: %w", err)
			}
		}
		if transformFilterBefore != "" {
			if opts.Before, err = util.ParseDate(transformFilterBefore); err != nil {
				return fmt.Errorf("--before: %w", err)
			}
		}
		if cmd.Flags().Changed("min") {
			opts.MinFill = transformFilterMin
		}
		if cmd.Flags().Changed("max") {
			opts.MaxFill = transformFilterMax
		}
		return transformEach(cmd, func(s model.LevelSeries) ([]model.Reading, error) {
			return transform.Filter(s.Readings, opts), nil
		})
	},
}

// ─── diff ─────────────────────────────────────────────────────────────────────

var transformDiffCmd = &cobra.Command{
	Use:     "diff",
	Short:   "Day-to-day change in fill: v[t] - v[t-1]",
	Example: `  hws levels get OKER --format jsonl | hws transform diff`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transformEach(cmd, func(s model.LevelSeries) ([]model.Reading, error) {
			return transform.Diff(s.Readings)
		})
	},
}

// ─── percent ──────────────────────────────────────────────────────────────────

var transformPercentCapacity float64

var transformPercentCmd = &cobra.Command{
	Use:   "percent",
	Short: "Fill as percent of capacity",
	Long: `Converts fills to percent of capacity. Without --capacity the capacity is
looked up in the local catalogue by reservoir ID.`,
	Example: `  hws levels get OKER --format jsonl | hws transform percent
  hws levels get OKER --format jsonl | hws transform percent --capacity 47.4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lookup := func(id string) (float64, error) {
			if transformPercentCapacity > 0 {
				return transformPercentCapacity, nil
			}
			deps, err := buildDeps()
			if err != nil {
				return 0, err
			}
			defer deps.Close()
			if err := deps.RequireStore(); err != nil {
				return 0, err
			}
			r, ok, err := deps.Store.GetReservoir(id)
			if err != nil {
				return 0, err
			}
			if !ok || r.CapacityHm3 <= 0 {
				return 0, fmt.Errorf("no capacity known; use --capacity or hws reservoir add %s --capacity <hm³>", id)
			}
			return r.CapacityHm3, nil
		}
		return transformEach(cmd, func(s model.LevelSeries) ([]model.Reading, error) {
			capacity, err := lookup(s.ReservoirID)
			if err != nil {
				return nil, err
			}
			return transform.Percent(s.Readings, capacity)
		})
	},
}

// ─── roll ─────────────────────────────────────────────────────────────────────

var (
	transformRollWindow     int
	transformRollMinPeriods int
	transformRollStat       string
)

var transformRollCmd = &cobra.Command{
	Use:   "roll",
	Short: "Rolling window statistic: mean, std, min or max",
	Example: `  hws levels get OKER --format jsonl | hws transform roll --window 30
  hws levels get OKER --format jsonl | hws transform roll --stat min --window 365 --min-periods 300`,
	RunE: func(cmd *cobra.Command, args []string) error {
		minPeriods := transformRollMinPeriods
		if minPeriods <= 0 {
			minPeriods = transformRollWindow
		}
		return transformEach(cmd, func(s model.LevelSeries) ([]model.Reading, error) {
			return transform.Roll(s.Readings, transformRollWindow, minPeriods, transform.RollStat(transformRollStat))
		})
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.AddCommand(transformResampleCmd)
	transformCmd.AddCommand(transformFilterCmd)
	transformCmd.AddCommand(transformDiffCmd)
	transformCmd.AddCommand(transformPercentCmd)
	transformCmd.AddCommand(transformRollCmd)

	transformResampleCmd.Flags().StringVar(&transformResampleFreq, "freq", "monthly", "target frequency: weekly|monthly|quarterly|annual")
	transformResampleCmd.Flags().StringVar(&transformResampleMethod, "method", "mean", "aggregation method: mean|last|min|max")

	transformFilterCmd.Flags().StringVar(&transformFilterAfter, "after", "", "keep readings dated after YYYY-MM-DD")
	transformFilterCmd.Flags().StringVar(&transformFilterBefore, "before", "", "keep readings dated before YYYY-MM-DD")
	transformFilterCmd.Flags().Float64Var(&transformFilterMin, "min", 0, "keep fills >= min")
	transformFilterCmd.Flags().Float64Var(&transformFilterMax, "max", 0, "keep fills <= max")
	transformFilterCmd.Flags().BoolVar(&transformFilterDropMissing, "drop-missing", false, "drop missing readings")

	transformPercentCmd.Flags().Float64Var(&transformPercentCapacity, "capacity", 0, "capacity in hm³")

	transformRollCmd.Flags().IntVar(&transformRollWindow, "window", 7, "window size in readings")
	transformRollCmd.Flags().IntVar(&transformRollMinPeriods, "min-periods", 0, "minimum fills per window (default: window)")
	transformRollCmd.Flags().StringVar(&transformRollStat, "stat", "mean", "statistic: mean|std|min|max")
}

// writeTransformOutput writes series to stdout in JSONL (pipeline) or table
// (terminal).
func writeTransformOutput(cmd *cobra.Command, series []model.LevelSeries) error {
	format := resolveFormat("")
	// If no explicit format and stdout is a terminal, use table
	if globalFlags.Format == "" {
		if pipeline.IsTTY() {
			format = render.FormatTable
		} else {
			format = render.FormatJSONL
		}
	}

	w, closeFn, err := outputWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeFn()

	for i := range series {
		if format == render.FormatJSONL {
			if err := pipeline.WriteJSONL(w, series[i].ReservoirID, series[i].Readings); err != nil {
				return err
			}
			continue
		}
		if err := render.Render(w, buildLevelResult("transform", &series[i]), format); err != nil {
			return err
		}
	}
	return nil
}
