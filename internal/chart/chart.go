// Package chart provides ASCII terminal rendering for reservoir charts.
// Three renderers are available:
//
//   - Plot: line chart of readings inside a date window and an optional
//     fill window, as selected by the range controls
//   - Bar: horizontal bar chart, one bar per category label
//   - Strip: the three scrollbars of a range control set
//
// Missing readings render as gaps, not zeros.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/derickschaefer/hws/internal/model"
)

// ─── Plot ─────────────────────────────────────────────────────────────────────

// PlotOptions controls line chart rendering.
type PlotOptions struct {
	// Width is the total character width of the chart (including Y-axis label).
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Height is the number of data rows in the chart body.
	// If 0, defaults to 12.
	Height int
	// Title overrides the default title (reservoir id).
	Title string
	// From and To bound the visible date window. Zero values use the
	// first and last reading.
	From, To time.Time
	// YMin and YMax bound the visible fill window. Both zero means the
	// extent of the visible readings.
	YMin, YMax float64
}

// Plot renders the readings that fall inside the window to w. Columns are
// laid out by date, so gaps in the data stay gaps in the chart.
func Plot(w io.Writer, id string, readings []model.Reading, opts PlotOptions) error {
	width := opts.Width
	if width <= 0 {
		width = termWidth()
	}
	height := opts.Height
	if height <= 0 {
		height = 12
	}
	title := opts.Title
	if title == "" {
		title = id
	}
	if len(readings) == 0 {
		return fmt.Errorf("chart plot: no readings for %s", id)
	}

	from, to := opts.From, opts.To
	if from.IsZero() {
		from = readings[0].Date
	}
	if to.IsZero() {
		to = readings[len(readings)-1].Date
	}
	if to.Before(from) {
		return fmt.Errorf("chart plot: window %s – %s is inverted", fmtDay(from), fmtDay(to))
	}

	var visible []model.Reading
	for _, r := range readings {
		if !r.Date.Before(from) && !r.Date.After(to) && !r.IsMissing() {
			visible = append(visible, r)
		}
	}
	if len(visible) == 0 {
		return fmt.Errorf("chart plot: no readings between %s and %s", fmtDay(from), fmtDay(to))
	}

	minVal, maxVal := opts.YMin, opts.YMax
	if minVal == 0 && maxVal == 0 {
		minVal, maxVal = extent(visible)
	}

	ticks := yTicks(minVal, maxVal, height)
	yLabelWidth := 0
	for _, t := range ticks {
		if l := len(formatFloat(t)); l > yLabelWidth {
			yLabelWidth = l
		}
	}
	plotWidth := width - yLabelWidth - 2
	if plotWidth < 10 {
		plotWidth = 10
	}

	cols := bucketByDate(visible, from, to, plotWidth)
	grid := buildGrid(cols, minVal, maxVal, height)

	fmt.Fprintf(w, "%s  (%s to %s)\n", title, fmtDay(from), fmtDay(to))
	for row := 0; row < height; row++ {
		label := ""
		for _, t := range ticks {
			if math.Abs(rowForValue(t, minVal, maxVal, height)-float64(row)) < 0.5 {
				label = formatFloat(t)
				break
			}
		}
		axisCh := "┤"
		if label == "" {
			axisCh = " "
		}
		fmt.Fprintf(w, "%*s%s%s\n", yLabelWidth, label, axisCh, string(grid[row]))
	}
	fmt.Fprintf(w, "%s└%s\n", strings.Repeat(" ", yLabelWidth), strings.Repeat("─", plotWidth))
	fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", yLabelWidth), xAxisLabels(from, to, plotWidth))
	return nil
}

// extent returns the min and max fill of readings, none of which is missing.
func extent(rs []model.Reading) (float64, float64) {
	lo, hi := rs[0].Fill, rs[0].Fill
	for _, r := range rs[1:] {
		lo = math.Min(lo, r.Fill)
		hi = math.Max(hi, r.Fill)
	}
	return lo, hi
}

// bucketByDate places each reading in the column of its date and averages
// readings sharing a column. Empty columns are NaN.
func bucketByDate(rs []model.Reading, from, to time.Time, n int) []float64 {
	sums := make([]float64, n)
	counts := make([]int, n)
	span := to.Sub(from).Hours()
	for _, r := range rs {
		col := 0
		if span > 0 {
			col = int(math.Round(r.Date.Sub(from).Hours() / span * float64(n-1)))
		}
		sums[col] += r.Fill
		counts[col]++
	}
	cols := make([]float64, n)
	for i := range cols {
		if counts[i] == 0 {
			cols[i] = math.NaN()
		} else {
			cols[i] = sums[i] / float64(counts[i])
		}
	}
	return cols
}

// ─── Grid building ────────────────────────────────────────────────────────────

// rowForValue returns the float row index (0=top=max) for a given value.
func rowForValue(v, minVal, maxVal float64, height int) float64 {
	if maxVal == minVal {
		return float64(height) / 2
	}
	return (maxVal - v) / (maxVal - minVal) * float64(height-1)
}

// buildGrid renders columns into a height×width rune grid. Values outside
// [minVal, maxVal] are clipped to the edge rows and marked with ▲ or ▼.
func buildGrid(cols []float64, minVal, maxVal float64, height int) [][]rune {
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", len(cols)))
	}

	rowOf := make([]int, len(cols))
	for col, v := range cols {
		if math.IsNaN(v) {
			rowOf[col] = -1
			continue
		}
		r := int(math.Round(rowForValue(v, minVal, maxVal, height)))
		switch {
		case r < 0:
			rowOf[col] = -2
		case r >= height:
			rowOf[col] = -3
		default:
			rowOf[col] = r
		}
	}

	prev := -1
	for col, r := range rowOf {
		switch r {
		case -1:
			prev = -1
			continue
		case -2:
			grid[0][col] = '▲'
			prev = -1
			continue
		case -3:
			grid[height-1][col] = '▼'
			prev = -1
			continue
		}
		next := -1
		if col+1 < len(rowOf) && rowOf[col+1] >= 0 {
			next = rowOf[col+1]
		}
		grid[r][col] = glyph(prev, r, next)

		// vertical connector from the previous column's row
		if prev >= 0 && prev != r {
			lo, hi := min(prev, r), max(prev, r)
			for fill := lo + 1; fill < hi; fill++ {
				if grid[fill][col] == ' ' {
					grid[fill][col] = '│'
				}
			}
		}
		prev = r
	}
	return grid
}

// glyph picks the character at row r given the neighbouring rows (-1 = gap).
func glyph(prev, r, next int) rune {
	switch {
	case prev < 0 && next < 0:
		return '·'
	case (prev < 0 || prev == r) && (next < 0 || next == r):
		return '─'
	case next > r && (prev < 0 || prev <= r):
		return '╭'
	case next >= 0 && next < r && (prev < 0 || prev >= r):
		return '╰'
	case prev >= 0 && prev < r:
		return '╮'
	case prev > r:
		return '╯'
	default:
		return '─'
	}
}

// ─── Axis helpers ─────────────────────────────────────────────────────────────

// yTicks returns 3–4 evenly-spaced tick values for the Y axis.
func yTicks(minVal, maxVal float64, height int) []float64 {
	if maxVal == minVal {
		return []float64{minVal}
	}
	nTicks := 4
	if height <= 6 {
		nTicks = 3
	}
	ticks := make([]float64, nTicks)
	for i := range ticks {
		ticks[i] = minVal + float64(i)*(maxVal-minVal)/float64(nTicks-1)
	}
	return ticks
}

// xAxisLabels builds a padded string with start, middle and end dates.
func xAxisLabels(from, to time.Time, plotWidth int) string {
	startLabel := fmtDay(from)
	endLabel := fmtDay(to)
	midLabel := fmtDay(from.Add(to.Sub(from) / 2))

	buf := []rune(strings.Repeat(" ", plotWidth))
	writeAt(buf, 0, startLabel)
	if plotWidth >= 3*len(midLabel)+2 {
		writeAt(buf, plotWidth/2-len(midLabel)/2, midLabel)
	}
	writeAt(buf, plotWidth-len(endLabel), endLabel)
	return string(buf)
}

func writeAt(buf []rune, pos int, s string) {
	for i, ch := range s {
		if pos+i >= 0 && pos+i < len(buf) {
			buf[pos+i] = ch
		}
	}
}

// ─── Utilities ────────────────────────────────────────────────────────────────

func fmtDay(t time.Time) string { return t.Format("2006-01-02") }

// formatFloat formats a float for axis labels: no unnecessary trailing zeros,
// at least one decimal place, compact notation for large numbers.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	abs := math.Abs(v)
	var s string
	switch {
	case abs == 0:
		return "0"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "K"
	case abs >= 100:
		s = strconv.FormatFloat(v, 'f', 1, 64)
	case abs >= 1:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	default:
		s = strconv.FormatFloat(v, 'f', 4, 64)
	}
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
