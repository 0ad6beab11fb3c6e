// Package pipeline reads and writes reading streams in JSONL, the format
// used on stdin/stdout, by the level feed and by `hws levels import`.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/util"
)

type row struct {
	ReservoirID string      `json:"reservoir_id"`
	Date        string      `json:"date"`
	Fill        interface{} `json:"fill_hm3"`
	FillRaw     string      `json:"fill_raw"`
}

// ReadReadings reads JSONL records from r and groups them by reservoir.
// Each line must be a JSON object with at least "date" and "fill_hm3".
// Lines without a reservoir_id belong to the most recent id seen, or to
// fallbackID before any id appears. Groups keep first-seen order.
func ReadReadings(r io.Reader, fallbackID string) ([]model.LevelSeries, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var out []model.LevelSeries
	index := make(map[string]int)
	current := fallbackID

	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var rec row
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}
		if rec.ReservoirID != "" {
			current = rec.ReservoirID
		}
		if current == "" {
			return nil, fmt.Errorf("line %d: no reservoir_id", lineNum)
		}

		date, err := util.ParseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		fill, raw, err := parseFill(rec.Fill, rec.FillRaw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		i, ok := index[current]
		if !ok {
			i = len(out)
			index[current] = i
			out = append(out, model.LevelSeries{ReservoirID: current})
		}
		out[i].Readings = append(out[i].Readings, model.Reading{Date: date, Fill: fill, FillRaw: raw})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no readings read from input (is stdin empty?)")
	}
	return out, nil
}

// parseFill accepts null (missing), a number, or a numeric string.
func parseFill(v interface{}, raw string) (float64, string, error) {
	switch v := v.(type) {
	case nil:
		if raw == "" {
			raw = "."
		}
		return math.NaN(), raw, nil
	case float64:
		if raw == "" {
			raw = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return v, raw, nil
	case string:
		f := util.ParseFill(v)
		if math.IsNaN(f) && strings.TrimSpace(v) != "" && strings.TrimSpace(v) != "." {
			return 0, "", fmt.Errorf("unexpected fill value %q", v)
		}
		if raw == "" {
			raw = v
		}
		return f, raw, nil
	default:
		return 0, "", fmt.Errorf("unexpected fill type %T", v)
	}
}

// WriteJSONL writes readings as JSONL to w, one record per line.
func WriteJSONL(w io.Writer, reservoirID string, readings []model.Reading) error {
	enc := json.NewEncoder(w)
	for _, r := range readings {
		var fill interface{}
		if !r.IsMissing() {
			fill = r.Fill
		}
		rec := map[string]interface{}{
			"reservoir_id": reservoirID,
			"date":         util.FormatDate(r.Date),
			"fill_hm3":     fill,
			"fill_raw":     r.FillRaw,
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
