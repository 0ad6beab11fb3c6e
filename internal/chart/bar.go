package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

// BarItem is one labelled bar.
type BarItem struct {
	Label string
	Value float64 // NaN renders as an empty bar marked "."
}

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Max is the value of a full-width bar. If 0, the largest value is used.
	Max float64
	// Unit is appended to value labels, e.g. "%".
	Unit string
}

// Bar renders one bar per item, in item order. Bars start at zero;
// negative values render as empty bars.
//
//	Okertalsperre   81.2%  ████████████████
//	Eckertalsperre  64.0%  ████████████
func Bar(w io.Writer, title string, items []BarItem, opts BarOptions) error {
	if len(items) == 0 {
		return fmt.Errorf("chart bar: no categories to render")
	}
	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}

	maxVal := opts.Max
	labelWidth, valWidth := 0, 0
	for _, it := range items {
		labelWidth = max(labelWidth, utf8.RuneCountInString(it.Label))
		valWidth = max(valWidth, len(formatFloat(it.Value)+opts.Unit))
		if opts.Max == 0 && !math.IsNaN(it.Value) {
			maxVal = math.Max(maxVal, it.Value)
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barAreaWidth := totalWidth - labelWidth - valWidth - 4
	if barAreaWidth < 4 {
		barAreaWidth = 4
	}

	if title != "" {
		fmt.Fprintln(w, title)
	}
	for _, it := range items {
		bar := ""
		if !math.IsNaN(it.Value) && it.Value > 0 {
			n := int(math.Round(it.Value / maxVal * float64(barAreaWidth)))
			bar = strings.Repeat("█", min(max(n, 1), barAreaWidth))
		}
		pad := labelWidth - utf8.RuneCountInString(it.Label)
		fmt.Fprintf(w, "%s%s  %*s  %s\n",
			it.Label, strings.Repeat(" ", pad),
			valWidth, formatFloat(it.Value)+opts.Unit,
			bar,
		)
	}
	return nil
}
