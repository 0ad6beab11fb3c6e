package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/chartrange"
	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/render"
	"github.com/derickschaefer/hws/internal/store"
	"github.com/derickschaefer/hws/internal/util"
)

var viewCmd = &cobra.Command{
	Use:   "view <RESERVOIR_ID>",
	Short: "Move the chart window interactively and save named views",
	Long: `Opens a reservoir chart and reads commands from stdin, redrawing after each:

  l <pct>        horizontal lower limit        yl <pct>   vertical lower limit
  u <pct>        horizontal upper limit        yu <pct>   vertical upper limit
  p <pct>        horizontal range position     yp <pct>   vertical range position
  z+ / z-        zoom dates in / out           yz+ / yz-  zoom fill in / out
  a <date> <v>   add a reading (stored)        c          show control state
  s <name>       save the window as a view     o <name>   open a saved view
  h              help                          q          quit

Adding a reading extends the percent scale; the current window keeps its
dates and fill bounds.`,
	Example: `  hws view OKER
  hws view OKER --open drought-2018
  printf 'l 80\ns recent\nq\n' | hws view OKER`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		id := normaliseIDs(args)[0]
		series, err := loadSeries(deps, id)
		if err != nil {
			return err
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

		if viewOpen != "" {
			saved, err := getView(deps.Store, viewOpen)
			if err != nil {
				return err
			}
			if err := lv.applyView(saved); err != nil {
				return err
			}
		}

		persist := func(r model.Reading) error {
			_, err := deps.Store.PutLevels(model.LevelSeries{ReservoirID: id, Readings: []model.Reading{r}})
			return err
		}
		return runViewLoop(cmd.InOrStdin(), cmd.OutOrStdout(), lv, viewLoop{
			width:   deps.Config.Width,
			height:  deps.Config.Height,
			save:    deps.Store.PutView,
			open:    func(name string) (model.View, error) { return getView(deps.Store, name) },
			persist: persist,
		})
	},
}

// getView reads a saved view, naming it in the not-found error.
func getView(s *store.Store, name string) (model.View, error) {
	v, ok, err := s.GetView(name)
	if err != nil {
		return model.View{}, fmt.Errorf("reading view: %w", err)
	}
	if !ok {
		return model.View{}, fmt.Errorf("view %q: %w", name, store.ErrNotFound)
	}
	return v, nil
}

// ─── Interactive loop ─────────────────────────────────────────────────────────

// viewLoop holds the loop's size and persistence hooks. Nil hooks disable
// the matching commands.
type viewLoop struct {
	width, height int
	save          func(model.View) error
	open          func(name string) (model.View, error)
	persist       func(model.Reading) error
}

var errQuit = errors.New("quit")

// runViewLoop draws lv, then applies one command per input line and
// redraws. It returns at end of input or on "q". Bad commands print an
// error and the loop goes on.
func runViewLoop(in io.Reader, out io.Writer, lv *levelView, loop viewLoop) error {
	loop.draw(out, lv)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		redraw, err := loop.exec(out, lv, fields)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if redraw {
			loop.draw(out, lv)
		}
	}
	return sc.Err()
}

// draw renders lv. An empty window is reported, not fatal, so the user can
// move it back.
func (loop viewLoop) draw(out io.Writer, lv *levelView) {
	if err := lv.render(out, loop.width, loop.height, ""); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
}

// exec runs one command and reports whether the chart changed.
func (loop viewLoop) exec(out io.Writer, lv *levelView, fields []string) (bool, error) {
	op, rest := fields[0], fields[1:]
	x, y := lv.pane.XWindow(), lv.pane.YWindow()

	switch op {
	case "q", "quit", "exit":
		return false, errQuit
	case "h", "help", "?":
		fmt.Fprintln(out, "l|u|p <pct>  yl|yu|yp <pct>  z+|z-  yz+|yz-  a <date> <fill>  c  s <name>  o <name>  q")
		return false, nil
	case "l", "u", "p", "yl", "yu", "yp":
		if len(rest) != 1 {
			return false, fmt.Errorf("%s needs one percent", op)
		}
		pct, err := util.ParsePercent(rest[0])
		if err != nil {
			return false, err
		}
		w := x
		if strings.HasPrefix(op, "y") {
			w = y
			op = op[1:]
		}
		setOne(w, op, pct)
		return true, nil
	case "z+":
		x.Zoom(0.5)
		return true, nil
	case "z-":
		x.Zoom(2)
		return true, nil
	case "yz+":
		y.Zoom(0.5)
		return true, nil
	case "yz-":
		y.Zoom(2)
		return true, nil
	case "c":
		return false, render.Render(out, buildTableResult("view", controlTable(lv.pane)), render.FormatTable)
	case "a":
		if len(rest) != 2 {
			return false, fmt.Errorf("a needs a date and a fill")
		}
		date, err := util.ParseDate(rest[0])
		if err != nil {
			return false, err
		}
		r := model.Reading{Date: date, Fill: util.ParseFill(rest[1]), FillRaw: rest[1]}
		if loop.persist != nil {
			if err := loop.persist(r); err != nil {
				return false, fmt.Errorf("storing reading: %w", err)
			}
		}
		lv.add(r)
		return true, nil
	case "s":
		if len(rest) != 1 || loop.save == nil {
			return false, fmt.Errorf("s needs a view name")
		}
		v := lv.toView(rest[0])
		if err := loop.save(v); err != nil {
			return false, fmt.Errorf("saving view: %w", err)
		}
		fmt.Fprintf(out, "✓ Saved view %q\n", v.Name)
		return false, nil
	case "o":
		if len(rest) != 1 || loop.open == nil {
			return false, fmt.Errorf("o needs a view name")
		}
		v, err := loop.open(rest[0])
		if err != nil {
			return false, err
		}
		return true, lv.applyView(v)
	}
	return false, fmt.Errorf("unknown command %q (h for help)", op)
}

func setOne(w chartrange.Window, op string, pct float64) {
	switch op {
	case "l":
		w.SetLowerLimit(pct)
	case "u":
		w.SetUpperLimit(pct)
	case "p":
		w.MoveLimits(pct)
	}
}

// ─── view save / list / show / delete ─────────────────────────────────────────

var viewSaveCmd = &cobra.Command{
	Use:   "save <NAME> <RESERVOIR_ID>",
	Short: "Save a chart window under a name",
	Example: `  hws view save drought-2018 OKER --lower 60 --upper 70
  hws view save full OKER`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		name := strings.TrimSpace(args[0])
		if name == "" {
			return fmt.Errorf("view name must not be empty")
		}
		series, err := loadSeries(deps, normaliseIDs(args[1:])[0])
		if err != nil {
			return err
		}
		lv, err := newLevelView(series, chartrange.HControlsBottom, chartrange.VControlsLeft)
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
		v := lv.toView(name)
		if err := deps.Store.PutView(v); err != nil {
			return fmt.Errorf("saving view: %w", err)
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved view %q (%s, dates %s–%s, fill %s–%s)\n",
				v.Name, v.ReservoirID,
				util.FormatPercent(v.XLower), util.FormatPercent(v.XUpper),
				util.FormatPercent(v.YLower), util.FormatPercent(v.YUpper))
		}
		return nil
	},
}

var viewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
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
		views, err := deps.Store.ListViews()
		if err != nil {
			return fmt.Errorf("reading views: %w", err)
		}
		if len(views) == 0 && resolveFormat(deps.Config.Format) == render.FormatTable {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved views.")
			fmt.Fprintln(cmd.OutOrStdout(), "  Use: hws view save <NAME> <ID> --lower <pct> --upper <pct>")
			return nil
		}
		result := buildViewResult("view list", views)
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		return render.RenderTo(globalFlags.Out, result, resolveFormat(deps.Config.Format))
	},
}

var viewShowCmd = &cobra.Command{
	Use:   "show <NAME>",
	Short: "Render a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		saved, err := getView(deps.Store, args[0])
		if err != nil {
			return err
		}
		series, err := loadSeries(deps, saved.ReservoirID)
		if err != nil {
			return err
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
		if err := lv.applyView(saved); err != nil {
			return err
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()
		return lv.render(w, deps.Config.Width, deps.Config.Height, saved.Name)
	},
}

var viewDeleteCmd = &cobra.Command{
	Use:   "delete <NAME>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		if err := deps.Store.DeleteView(args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("view %q: %w", args[0], err)
			}
			return fmt.Errorf("deleting view: %w", err)
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted view %q\n", args[0])
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

var viewOpen string

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.AddCommand(viewSaveCmd)
	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewShowCmd)
	viewCmd.AddCommand(viewDeleteCmd)

	viewCmd.Flags().StringVar(&viewOpen, "open", "", "start from a saved view")
	addWindowFlags(viewSaveCmd)
}
