// Package render converts Result values into human-readable or machine-parseable
// output. Each result kind is first flattened into a header and rows; the
// format functions then lay those rows out.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/pipeline"
	"github.com/derickschaefer/hws/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
)

// Formats lists every accepted --format value.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	case FormatTable, "":
		return renderTable(w, result)
	default:
		return fmt.Errorf("unknown format %q (use one of %s)", format, strings.Join(Formats, ", "))
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── Flattening ───────────────────────────────────────────────────────────────

// grid is the flattened, format-independent form of a result.
type grid struct {
	title   string
	header  []string
	rows    [][]string
	numeric []bool // right-align these columns in tables
}

// flatten turns the typed payload into a grid. ok is false for payloads
// without a tabular form.
func flatten(result *model.Result) (g grid, ok bool) {
	switch d := result.Data.(type) {
	case *model.Reservoir:
		return reservoirGrid([]model.Reservoir{*d}), true
	case []model.Reservoir:
		return reservoirGrid(d), true
	case *model.LevelSeries:
		return levelGrid(d), true
	case *model.View:
		return viewGrid([]model.View{*d}), true
	case []model.View:
		return viewGrid(d), true
	case *model.Table:
		return grid{title: d.Title, header: d.Columns, rows: d.Rows}, true
	case model.Table:
		return grid{title: d.Title, header: d.Columns, rows: d.Rows}, true
	}
	return grid{}, false
}

func reservoirGrid(rs []model.Reservoir) grid {
	g := grid{
		header:  []string{"ID", "NAME", "RIVER", "REGION", "CAPACITY (hm³)", "UPDATED"},
		numeric: []bool{false, false, false, false, true, false},
	}
	for _, r := range rs {
		g.rows = append(g.rows, []string{
			r.ID, r.Name, r.River, r.Region,
			formatValue(r.CapacityHm3),
			util.FormatDate(r.UpdatedAt),
		})
	}
	return g
}

func levelGrid(s *model.LevelSeries) grid {
	capacity := 0.0
	if s.Reservoir != nil {
		capacity = s.Reservoir.CapacityHm3
	}
	g := grid{
		header:  []string{"RESERVOIR", "DATE", "FILL (hm³)", "PERCENT"},
		numeric: []bool{false, false, true, true},
	}
	for _, r := range s.Readings {
		pct := "."
		if p := r.Percent(capacity); !math.IsNaN(p) {
			pct = fmt.Sprintf("%.1f%%", p)
		}
		g.rows = append(g.rows, []string{s.ReservoirID, util.FormatDate(r.Date), formatValue(r.Fill), pct})
	}
	return g
}

func viewGrid(vs []model.View) grid {
	g := grid{
		header:  []string{"NAME", "RESERVOIR", "X LOWER", "X UPPER", "Y LOWER", "Y UPPER", "SAVED"},
		numeric: []bool{false, false, true, true, true, true, false},
	}
	for _, v := range vs {
		g.rows = append(g.rows, []string{
			v.Name, v.ReservoirID,
			util.FormatPercent(v.XLower), util.FormatPercent(v.XUpper),
			util.FormatPercent(v.YLower), util.FormatPercent(v.YUpper),
			v.SavedAt.Format(time.RFC3339),
		})
	}
	return g
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one record per line: readings for level series,
// elements for slices, the payload itself otherwise.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch d := result.Data.(type) {
	case *model.LevelSeries:
		return pipeline.WriteJSONL(w, d.ReservoirID, d.Readings)
	case []model.Reservoir:
		for _, r := range d {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	case []model.View:
		for _, v := range d {
			if err := enc.Encode(v); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	if rep, ok := report(result); ok {
		if rep.Title != "" {
			fmt.Fprintln(w, rep.Title)
		}
		_, err := io.WriteString(w, rep.Body)
		return err
	}
	g, ok := flatten(result)
	if !ok {
		return renderJSON(w, result)
	}
	if g.title != "" {
		fmt.Fprintln(w, g.title)
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(g.header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	if len(g.numeric) == len(g.header) {
		align := make([]int, len(g.numeric))
		for i, num := range g.numeric {
			align[i] = tablewriter.ALIGN_LEFT
			if num {
				align[i] = tablewriter.ALIGN_RIGHT
			}
		}
		tw.SetColumnAlignment(align)
	}
	tw.SetAutoWrapText(false)
	tw.AppendBulk(g.rows)
	tw.Render()
	return nil
}

func report(result *model.Result) (*model.Report, bool) {
	switch d := result.Data.(type) {
	case *model.Report:
		return d, true
	case model.Report:
		return &d, true
	}
	return nil, false
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	if g, ok := flatten(result); ok {
		_ = cw.Write(csvHeader(g.header))
		for _, row := range g.rows {
			_ = cw.Write(row)
		}
	} else {
		// Fallback: serialize as JSON on a single line
		b, err := json.Marshal(result.Data)
		if err != nil {
			return err
		}
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

// csvHeader lower-cases table headers into snake_case column names.
func csvHeader(h []string) []string {
	out := make([]string, len(h))
	for i, s := range h {
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, " (hm³)", "_hm3")
		out[i] = strings.ReplaceAll(s, " ", "_")
	}
	return out
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	if rep, ok := report(result); ok {
		if rep.Title != "" {
			fmt.Fprintf(w, "### %s\n\n", mdEscape(rep.Title))
		}
		fmt.Fprintf(w, "```\n%s```\n", rep.Body)
		return nil
	}
	g, ok := flatten(result)
	if !ok {
		return renderJSON(w, result)
	}
	if g.title != "" {
		fmt.Fprintf(w, "### %s\n\n", mdEscape(g.title))
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(g.header, " | "))
	fmt.Fprintf(w, "|%s\n", strings.Repeat("----|", len(g.header)))
	for _, row := range g.rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = mdEscape(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "live"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatValue formats a fill or capacity for display.
// Always shows at least one decimal place (e.g. 4.0, not 4).
// Missing values (NaN) render as ".".
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	s := strings.TrimRight(fmt.Sprintf("%.6f", v), "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
