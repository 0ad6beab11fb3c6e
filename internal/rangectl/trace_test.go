package rangectl_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/derickschaefer/hws/internal/rangectl"
)

func TestSetLogger_TracesListeners(t *testing.T) {
	var buf bytes.Buffer
	rangectl.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { rangectl.SetLogger(nil) })

	_, _, cs := linkedNumber(t, 0, 100, nil)
	cs.SetLowerLimit(40)

	out := buf.String()
	for _, want := range []string{
		`msg="range listener"`,
		`listener="control lower"`,
		`listener="axis lower"`,
		"depth=0",
		"depth=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
}

func TestSetLogger_QuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	rangectl.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { rangectl.SetLogger(nil) })

	_, _, cs := linkedNumber(t, 0, 100, nil)
	cs.SetLowerLimit(40)
	if buf.Len() != 0 {
		t.Errorf("unexpected trace output:\n%s", buf.String())
	}
}
