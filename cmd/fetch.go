package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/hws/internal/app"
	"github.com/derickschaefer/hws/internal/feed"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/render"
	"github.com/derickschaefer/hws/internal/util"
)

var (
	fetchStore bool
	fetchStart string
	fetchEnd   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <RESERVOIR_ID...>",
	Short: "Download daily fill levels from the feed",
	Long: `Downloads the readings of one or more reservoirs from the feed, up to
--concurrency requests at a time and at most --rate requests per second.

Use --store to merge the readings into the local database; without it they
are printed. A reservoir that fails is reported and the others continue.`,
	Example: `  hws fetch OKER
  hws fetch OKER SOESE ECKER --store
  hws fetch OKER --start 2024-01-01 --format csv --out oker.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range []struct{ flag, v string }{{"--start", fetchStart}, {"--end", fetchEnd}} {
			if d.v == "" {
				continue
			}
			if _, err := util.ParseDate(d.v); err != nil {
				return fmt.Errorf("%s: %w", d.flag, err)
			}
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		ids := normaliseIDs(args)
		datas, fetchErr := batchGetLevels(cmd.Context(), deps, ids, feed.LevelOptions{Start: fetchStart, End: fetchEnd})

		var warnings []string
		var me *util.MultiError
		if errors.As(fetchErr, &me) {
			for _, e := range me.Errors {
				warnings = append(warnings, e.Error())
			}
		}
		if len(datas) == 0 {
			if fetchErr != nil {
				return fetchErr
			}
			return fmt.Errorf("no readings fetched")
		}

		if fetchStore {
			if err := deps.RequireStore(); err != nil {
				return err
			}
			stored := 0
			for _, d := range datas {
				if _, err := deps.Store.PutLevels(*d); err != nil {
					warnings = append(warnings, fmt.Sprintf("storing %s: %v", d.ReservoirID, err))
					continue
				}
				stored++
			}
			if !deps.Config.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %d/%d reservoirs to %s\n",
					stored, len(ids), deps.Config.DBPath)
				for _, w := range warnings {
					fmt.Fprintf(cmd.OutOrStdout(), "  ⚠  %s\n", w)
				}
			}
			return nil
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()

		format := resolveFormat(deps.Config.Format)
		for _, d := range datas {
			result := buildLevelResult(fmt.Sprintf("fetch %s", d.ReservoirID), d)
			result.Stats.DurationMs = time.Since(start).Milliseconds()
			if err := render.Render(w, result, format); err != nil {
				return err
			}
		}
		render.PrintFooter(cmd.ErrOrStderr(), &model.Result{Warnings: warnings}, false)
		return nil
	},
}

// batchGetLevels fetches readings for ids concurrently, at most
// Config.Concurrency at a time. Results keep the order of ids; failures are
// collected into a *util.MultiError and do not cancel the other requests.
func batchGetLevels(ctx context.Context, deps *app.Deps, ids []string, opts feed.LevelOptions) ([]*model.LevelSeries, error) {
	concurrency := deps.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]*model.LevelSeries, len(ids))
	var (
		mu   sync.Mutex
		errs util.MultiError
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			data, err := deps.Client.GetLevels(gctx, id, opts)
			if err != nil {
				mu.Lock()
				errs.Add(fmt.Errorf("%s: %w", id, err))
				mu.Unlock()
				return nil
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*model.LevelSeries, 0, len(ids))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, errs.Err()
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchStore, "store", false, "merge the readings into the local database")
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "first date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "last date (YYYY-MM-DD)")
}
