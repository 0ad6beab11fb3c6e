// Package util provides shared helpers: date and fill parsing, value
// formatting, and error aggregation.
package util

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ─── Date Parsing ─────────────────────────────────────────────────────────────

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a time.Time (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a time.Time as YYYY-MM-DD. The zero time formats as "-".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

// ─── Fill Parsing ─────────────────────────────────────────────────────────────

// ParseFill parses a fill level in hm³. Missing values ("", ".", "-", "n/a")
// and unparseable input yield NaN. A comma decimal separator is accepted.
func ParseFill(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", ".", "-", "n/a", "na":
		return math.NaN()
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParsePercent parses a percentage as used by the range controls. Values
// outside [0,100] are clamped; text that is not a number is an error.
func ParsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid percentage %q", s)
	}
	return ClampPercent(v), nil
}

// ClampPercent pins v to [0,100].
func ClampPercent(v float64) float64 {
	return min(max(v, 0), 100)
}

// FormatValue formats a float64 for display, showing "." for NaN.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPercent formats a control percentage with one decimal.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// ─── Error Helpers ────────────────────────────────────────────────────────────

// MultiError collects multiple errors and presents them as one.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Is reports whether any collected error matches target.
func (m *MultiError) Is(target error) bool {
	for _, e := range m.Errors {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}
