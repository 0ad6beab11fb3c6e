package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/model"
)

var reservoirCmd = &cobra.Command{
	Use:     "reservoir",
	Aliases: []string{"res"},
	Short:   "Manage the reservoir catalogue",
	Long: `The catalogue holds the name, river, region and capacity of each reservoir.
Capacity is needed to show fills as a percent.

reservoir sync  — load the catalogue from the feed
reservoir add   — add or update one reservoir by hand
reservoir list  — list the catalogue
reservoir get   — show one or more reservoirs`,
}

// ─── reservoir sync ───────────────────────────────────────────────────────────

var reservoirSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load the reservoir catalogue from the feed into the local database",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		rs, err := deps.Client.GetReservoirs(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range rs {
			if err := deps.Store.PutReservoir(r); err != nil {
				return fmt.Errorf("storing %s: %w", r.ID, err)
			}
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %d reservoirs to %s (%dms)\n",
				len(rs), deps.Store.Path(), time.Since(start).Milliseconds())
		}
		return nil
	},
}

// ─── reservoir add ────────────────────────────────────────────────────────────

var (
	resAddName     string
	resAddRiver    string
	resAddRegion   string
	resAddCapacity float64
)

var reservoirAddCmd = &cobra.Command{
	Use:   "add <RESERVOIR_ID>",
	Short: "Add or update a reservoir in the catalogue",
	Example: `  hws reservoir add OKER --name Okertalsperre --river Oker --capacity 47.4
  hws reservoir add GRANE --capacity 46.4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := normaliseIDs(args)[0]
		if resAddCapacity < 0 {
			return fmt.Errorf("capacity must not be negative")
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		r, _, err := deps.Store.GetReservoir(id)
		if err != nil {
			return fmt.Errorf("reading catalogue: %w", err)
		}
		r.ID = id
		f := cmd.Flags()
		if f.Changed("name") {
			r.Name = resAddName
		}
		if f.Changed("river") {
			r.River = resAddRiver
		}
		if f.Changed("region") {
			r.Region = resAddRegion
		}
		if f.Changed("capacity") {
			r.CapacityHm3 = resAddCapacity
		}
		if r.Name == "" {
			r.Name = id
		}
		if err := deps.Store.PutReservoir(r); err != nil {
			return fmt.Errorf("storing %s: %w", id, err)
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %s (%s)\n", r.ID, r.Name)
		}
		return nil
	},
}

// ─── reservoir list ───────────────────────────────────────────────────────────

var reservoirListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reservoir catalogue",
	Example: `  hws reservoir list
  hws reservoir list --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		rs, err := deps.Store.ListReservoirs()
		if err != nil {
			return fmt.Errorf("reading catalogue: %w", err)
		}
		if len(rs) == 0 && resolveFormat(deps.Config.Format) == "table" {
			fmt.Fprintln(cmd.OutOrStdout(), "No reservoirs in local database.")
			fmt.Fprintln(cmd.OutOrStdout(), "  Use: hws reservoir sync")
			return nil
		}
		sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })

		result := buildReservoirResult("reservoir list", rs)
		result.Stats.CacheHit = true
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// ─── reservoir get ────────────────────────────────────────────────────────────

var reservoirGetCmd = &cobra.Command{
	Use:   "get <RESERVOIR_ID...>",
	Short: "Show catalogue entries",
	Args:  cobra.MinimumNArgs(1),
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
		var rs []model.Reservoir
		var missing []string
		for _, id := range ids {
			r, ok, err := deps.Store.GetReservoir(id)
			if err != nil {
				return fmt.Errorf("reading %s: %w", id, err)
			}
			if !ok {
				missing = append(missing, id)
				continue
			}
			rs = append(rs, r)
		}
		if len(rs) == 0 {
			return fmt.Errorf("not in catalogue: %s", strings.Join(missing, ", "))
		}
		result := buildReservoirResult("reservoir get "+strings.Join(ids, " "), rs)
		result.Stats.CacheHit = true
		for _, id := range missing {
			result.Warnings = append(result.Warnings, id+": not in catalogue")
		}
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(reservoirCmd)
	reservoirCmd.AddCommand(reservoirSyncCmd)
	reservoirCmd.AddCommand(reservoirAddCmd)
	reservoirCmd.AddCommand(reservoirListCmd)
	reservoirCmd.AddCommand(reservoirGetCmd)

	reservoirAddCmd.Flags().StringVar(&resAddName, "name", "", "display name (default: the ID)")
	reservoirAddCmd.Flags().StringVar(&resAddRiver, "river", "", "dammed river")
	reservoirAddCmd.Flags().StringVar(&resAddRegion, "region", "", "region")
	reservoirAddCmd.Flags().Float64Var(&resAddCapacity, "capacity", 0, "storage capacity in hm³")
}
