package pipeline_test

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/derickschaefer/hws/internal/model"
	"github.com/derickschaefer/hws/internal/pipeline"
)

// tenYears builds a decade of daily readings with every 50th one missing.
func tenYears() []model.Reading {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	rs := make([]model.Reading, 3653)
	for i := range rs {
		v := 30 + 10*math.Sin(float64(i)/58.1)
		if i%50 == 0 {
			v = math.NaN()
		}
		rs[i] = model.Reading{Date: start.AddDate(0, 0, i), Fill: v}
	}
	return rs
}

// ─── JSONL pipeline round-trip ────────────────────────────────────────────────
// WriteJSONL → ReadReadings: hot path for every pipeline command.

func BenchmarkWriteJSONL(b *testing.B) {
	rs := tenYears()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := pipeline.WriteJSONL(&buf, "OKER", rs); err != nil {
			b.Fatal(err)
		}
		b.SetBytes(int64(buf.Len()))
	}
}

func BenchmarkJSONLRoundTrip(b *testing.B) {
	rs := tenYears()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := pipeline.WriteJSONL(&buf, "OKER", rs); err != nil {
			b.Fatal(err)
		}
		b.SetBytes(int64(buf.Len()))
		if _, err := pipeline.ReadReadings(&buf, ""); err != nil {
			b.Fatal(err)
		}
	}
}
