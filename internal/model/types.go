// Package model defines the canonical data types used throughout hws.
// These types are the single source of truth for reservoirs, their fill
// level readings, saved chart views and the result envelope that every
// command returns.
package model

import (
	"encoding/json"
	"math"
	"time"
)

// ─── Reservoir Types ──────────────────────────────────────────────────────────

// Reservoir describes one monitored reservoir.
type Reservoir struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	River       string    `json:"river,omitempty"`
	Region      string    `json:"region,omitempty"`
	CapacityHm3 float64   `json:"capacity_hm3"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Reading is a single daily fill level.
// Fill is NaN when the raw value is "." or empty (missing data).
// FillRaw preserves the original string from the source.
type Reading struct {
	Date    time.Time `json:"date"`
	Fill    float64   `json:"fill_hm3"`
	FillRaw string    `json:"fill_raw"`
}

// IsMissing returns true if the fill value is NaN (missing data).
func (r Reading) IsMissing() bool {
	return math.IsNaN(r.Fill)
}

// MarshalJSON encodes a missing fill as null; encoding/json rejects NaN.
func (r Reading) MarshalJSON() ([]byte, error) {
	type wire struct {
		Date    string   `json:"date"`
		Fill    *float64 `json:"fill_hm3"`
		FillRaw string   `json:"fill_raw,omitempty"`
	}
	w := wire{Date: r.Date.Format("2006-01-02"), FillRaw: r.FillRaw}
	if !r.IsMissing() {
		f := r.Fill
		w.Fill = &f
	}
	return json.Marshal(w)
}

// Percent returns the fill as a share of capacity, or NaN when either side
// is unknown.
func (r Reading) Percent(capacityHm3 float64) float64 {
	if r.IsMissing() || capacityHm3 <= 0 {
		return math.NaN()
	}
	return r.Fill / capacityHm3 * 100
}

// LevelSeries bundles readings with optional reservoir metadata.
type LevelSeries struct {
	ReservoirID string     `json:"reservoir_id"`
	Reservoir   *Reservoir `json:"reservoir,omitempty"`
	Readings    []Reading  `json:"readings"`
}

// ─── Chart Views ──────────────────────────────────────────────────────────────

// View is a saved chart window: a reservoir and the percent limits of the
// horizontal (date) and vertical (fill) control sets.
type View struct {
	Name        string    `json:"name"`
	ReservoirID string    `json:"reservoir_id"`
	XLower      float64   `json:"x_lower"`
	XUpper      float64   `json:"x_upper"`
	YLower      float64   `json:"y_lower"`
	YUpper      float64   `json:"y_upper"`
	SavedAt     time.Time `json:"saved_at"`
}

// ─── Generic Tables ───────────────────────────────────────────────────────────

// Table is a pre-formatted grid for results that have no dedicated type:
// statistics, store stats, control-set state.
type Table struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Report is free text, such as a rendered chart.
type Report struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance and cache metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit"`
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindReservoir   = "reservoir"
	KindLevelSeries = "level_series"
	KindView        = "view"
	KindTable       = "table"
	KindReport      = "report"
)
