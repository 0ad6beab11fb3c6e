package pipeline_test

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/pipeline"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// jsonl joins lines with newlines and appends a trailing newline.
func jsonl(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func mkreading(year, month, day int, fill float64, raw string) model.Reading {
	return model.Reading{
		Date:    time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
		Fill:    fill,
		FillRaw: raw,
	}
}

// ─── ReadReadings ─────────────────────────────────────────────────────────────

func TestReadBasic(t *testing.T) {
	input := jsonl(
		`{"reservoir_id":"OKER","date":"2023-01-01","fill_hm3":30.5}`,
		`{"reservoir_id":"OKER","date":"2023-01-02","fill_hm3":31}`,
	)
	series, err := pipeline.ReadReadings(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 1 || series[0].ReservoirID != "OKER" {
		t.Fatalf("unexpected grouping: %+v", series)
	}
	rs := series[0].Readings
	if len(rs) != 2 || rs[0].Fill != 30.5 || rs[1].Fill != 31 {
		t.Fatalf("unexpected readings: %+v", rs)
	}
	if rs[0].FillRaw != "30.5" {
		t.Errorf("FillRaw: got %q", rs[0].FillRaw)
	}
}

func TestReadMissingValues(t *testing.T) {
	input := jsonl(
		`{"date":"2023-01-01","fill_hm3":null}`,
		`{"date":"2023-01-02","fill_hm3":"."}`,
		`{"date":"2023-01-03","fill_hm3":"12,5"}`,
	)
	series, err := pipeline.ReadReadings(strings.NewReader(input), "ECKER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rs := series[0].Readings
	if series[0].ReservoirID != "ECKER" {
		t.Errorf("fallback id not used: %q", series[0].ReservoirID)
	}
	if !rs[0].IsMissing() || !rs[1].IsMissing() {
		t.Error("null and \".\" should be missing")
	}
	if rs[0].FillRaw != "." {
		t.Errorf("missing FillRaw: got %q", rs[0].FillRaw)
	}
	if rs[2].Fill != 12.5 {
		t.Errorf("comma decimal: got %g", rs[2].Fill)
	}
}

func TestReadGroupsByReservoir(t *testing.T) {
	input := jsonl(
		`{"reservoir_id":"OKER","date":"2023-01-01","fill_hm3":1}`,
		`{"reservoir_id":"SOESE","date":"2023-01-01","fill_hm3":2}`,
		`{"date":"2023-01-02","fill_hm3":3}`,
		`// comment`,
		``,
		`{"reservoir_id":"OKER","date":"2023-01-02","fill_hm3":4}`,
	)
	series, err := pipeline.ReadReadings(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(series))
	}
	if series[0].ReservoirID != "OKER" || len(series[0].Readings) != 2 {
		t.Errorf("OKER group: %+v", series[0])
	}
	if series[1].ReservoirID != "SOESE" || len(series[1].Readings) != 2 {
		t.Errorf("SOESE group should own the id-less line: %+v", series[1])
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad json", jsonl(`{not json}`), "line 1"},
		{"bad date", jsonl(`{"reservoir_id":"A","date":"01/02/2023","fill_hm3":1}`), "invalid date"},
		{"bad string", jsonl(`{"reservoir_id":"A","date":"2023-01-01","fill_hm3":"lots"}`), "unexpected fill value"},
		{"bad type", jsonl(`{"reservoir_id":"A","date":"2023-01-01","fill_hm3":true}`), "unexpected fill type"},
		{"no id", jsonl(`{"date":"2023-01-01","fill_hm3":1}`), "no reservoir_id"},
		{"empty", "", "no readings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.ReadReadings(strings.NewReader(tt.input), "")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

// ─── WriteJSONL ───────────────────────────────────────────────────────────────

func TestWriteThenRead(t *testing.T) {
	readings := []model.Reading{
		mkreading(2023, 3, 1, 40.25, "40.25"),
		mkreading(2023, 3, 2, math.NaN(), "."),
	}
	var buf bytes.Buffer
	if err := pipeline.WriteJSONL(&buf, "OKER", readings); err != nil {
		t.Fatalf("WriteJSONL: %v", err)
	}
	lines := nonEmptyLines(buf.String())
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], `"fill_hm3":null`) {
		t.Errorf("missing fill should be null: %s", lines[1])
	}

	series, err := pipeline.ReadReadings(&buf, "")
	if err != nil {
		t.Fatalf("ReadReadings: %v", err)
	}
	got := series[0].Readings
	if got[0].Fill != 40.25 || !got[0].Date.Equal(readings[0].Date) {
		t.Errorf("first reading: %+v", got[0])
	}
	if !got[1].IsMissing() {
		t.Error("second reading should be missing")
	}
}
