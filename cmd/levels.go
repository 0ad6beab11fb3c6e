package cmd

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/pipeline"
	"github.com/derickschaefer/hws/internal/transform"
	"github.com/derickschaefer/hws/internal/util"
	"github.com/derickschaefer/hws/internal/xlsximport"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Import and read stored fill levels",
	Long: `Fill levels are daily readings in hm³. They reach the local database through
'hws fetch --store' or 'hws levels import'.`,
}

// ─── levels import ────────────────────────────────────────────────────────────

var levelsImportID string

var levelsImportCmd = &cobra.Command{
	Use:   "import <FILE>",
	Short: "Import readings from a JSONL file or an Excel workbook",
	Long: `Imports readings into the local database, merging them with what is there.
A reading for a date that is already stored replaces it.

JSONL files hold one reading per line:
  {"reservoir_id":"OKER","date":"2024-01-01","fill_hm3":38.2}

Excel workbooks (.xlsx) hold one sheet per reservoir, named after its ID,
with a date and a fill column. A sheet named "Reservoirs" is read as the
catalogue (ID | Name | Capacity).`,
	Example: `  hws levels import harz-2024.xlsx
  hws levels import oker.jsonl
  hws levels import readings.jsonl --id OKER`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		path := args[0]
		var (
			levels     []model.LevelSeries
			reservoirs []model.Reservoir
			warnings   []string
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx", ".xlsm":
			wb, err := xlsximport.Import(path)
			if err != nil {
				return err
			}
			levels, reservoirs, warnings = wb.Levels, wb.Reservoirs, wb.Skipped
		default:
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()
			fallback := strings.ToUpper(strings.TrimSpace(levelsImportID))
			levels, err = pipeline.ReadReadings(f, fallback)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		for _, r := range reservoirs {
			if err := deps.Store.PutReservoir(r); err != nil {
				return fmt.Errorf("storing %s: %w", r.ID, err)
			}
		}
		total := 0
		for _, l := range levels {
			n, err := deps.Store.PutLevels(l)
			if err != nil {
				return fmt.Errorf("storing %s: %w", l.ReservoirID, err)
			}
			total += len(l.Readings)
			if deps.Config.Verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d readings, %d stored in total\n",
					l.ReservoirID, len(l.Readings), n)
			}
		}

		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d readings for %d reservoirs", total, len(levels))
			if len(reservoirs) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " and %d catalogue entries", len(reservoirs))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			for _, w := range warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "  ⚠  skipped %s\n", w)
			}
		}
		return nil
	},
}

// ─── levels get ───────────────────────────────────────────────────────────────

var (
	levelsGetStart string
	levelsGetEnd   string
)

var levelsGetCmd = &cobra.Command{
	Use:   "get <RESERVOIR_ID>",
	Short: "Read stored readings for a reservoir",
	Example: `  hws levels get OKER
  hws levels get OKER --start 2023-01-01 --format csv
  hws levels get OKER --format jsonl | hws chart plot`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := normaliseIDs(args)[0]

		var opts transform.FilterOptions
		opts.MinFill, opts.MaxFill = math.NaN(), math.NaN()
		if levelsGetStart != "" {
			t, err := util.ParseDate(levelsGetStart)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			opts.After = t.AddDate(0, 0, -1)
		}
		if levelsGetEnd != "" {
			t, err := util.ParseDate(levelsGetEnd)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			opts.Before = t.AddDate(0, 0, 1)
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		data, err := loadSeries(deps, id)
		if err != nil {
			return err
		}
		data.Readings = transform.Filter(data.Readings, opts)

		result := buildLevelResult("levels get "+id, data)
		result.Stats.CacheHit = true
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(levelsCmd)
	levelsCmd.AddCommand(levelsImportCmd)
	levelsCmd.AddCommand(levelsGetCmd)

	levelsImportCmd.Flags().StringVar(&levelsImportID, "id", "",
		"reservoir ID for JSONL lines that carry none")
	levelsGetCmd.Flags().StringVar(&levelsGetStart, "start", "", "first date (YYYY-MM-DD)")
	levelsGetCmd.Flags().StringVar(&levelsGetEnd, "end", "", "last date (YYYY-MM-DD)")
}
