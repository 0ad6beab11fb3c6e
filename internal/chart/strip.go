package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/derickschaefer/hws/internal/rangectl"
)

// Strip renders the three scrollbars of cs as text tracks of the given
// width. A hidden control set renders nothing.
//
//	lower  ├──●─────────────────┤   10.0%
//	range  ├──█████████████─────┤  pos 12.5%  len 62.5%
//	upper  ├──────────────●─────┤   72.5%
func Strip(w io.Writer, name string, cs *rangectl.ControlSet, width int) {
	if !cs.Visible() {
		return
	}
	if width < 8 {
		width = 8
	}
	track := width - 2

	if name != "" {
		fmt.Fprintln(w, name)
	}
	fmt.Fprintf(w, "lower  ├%s┤  %6.1f%%\n", knob(cs.LowerLimit(), track), cs.LowerLimit())
	fmt.Fprintf(w, "range  ├%s┤  pos %.1f%%  len %.1f%%\n",
		thumb(cs.RangePosition(), cs.RangeLength(), track), cs.RangePosition(), cs.RangeLength())
	fmt.Fprintf(w, "upper  ├%s┤  %6.1f%%\n", knob(cs.UpperLimit(), track), cs.UpperLimit())
}

// knob draws a track with a single marker at percent p.
func knob(p float64, n int) string {
	buf := []rune(strings.Repeat("─", n))
	buf[int(math.Round(p/100*float64(n-1)))] = '●'
	return string(buf)
}

// thumb draws a track with a block of length l (percent of the track)
// whose start sits at pos percent of the free space.
func thumb(pos, l float64, n int) string {
	size := int(math.Round(l / 100 * float64(n)))
	size = min(max(size, 1), n)
	start := int(math.Round(pos / 100 * float64(n-size)))
	buf := []rune(strings.Repeat("─", n))
	for i := start; i < start+size && i < n; i++ {
		buf[i] = '█'
	}
	return string(buf)
}
