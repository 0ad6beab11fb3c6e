package rangectl_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/derickschaefer/hws/internal/axis"
	"github.com/derickschaefer/hws/internal/rangectl"
)

var sampleCategories = []string{
	"Category 5", "Category 1", "Category 2", "Category 4", "Category 6",
	"Category 7", "Category 8", "Category 9", "Category 3",
}

func linkedCategory(t *testing.T, cats []string) (*axis.CategoryAxis, *rangectl.CategoryConverter, *rangectl.ControlSet) {
	t.Helper()
	a := axis.NewCategoryAxis()
	c := rangectl.NewCategoryConverter(a)
	c.UpdateData(cats)
	cs := rangectl.NewControlSet()
	c.Link(cs)
	t.Cleanup(c.Close)
	return a, c, cs
}

// ─── Index → percent ──────────────────────────────────────────────────────────

func TestCategory_LowerBoundToPercent(t *testing.T) {
	cases := []struct {
		cat         string
		wantIndex   int
		wantPercent float64
	}{
		{"Category 5", 0, 0},
		{"Category 6", 4, 50},
		{"Category 3", 8, 100},
	}
	for _, tc := range cases {
		t.Run(tc.cat, func(t *testing.T) {
			_, c, cs := linkedCategory(t, sampleCategories)
			c.SetLowerBound(c.IndexOf(tc.cat))
			if c.LowerBound() != tc.wantIndex {
				t.Errorf("LowerBound() = %d, want %d", c.LowerBound(), tc.wantIndex)
			}
			assertNear(t, "lower limit", cs.LowerLimit(), tc.wantPercent)
		})
	}
}

func TestCategory_UpperBoundToPercent(t *testing.T) {
	cases := []struct {
		cat         string
		wantIndex   int
		wantPercent float64
	}{
		{"Category 5", 0, 0},
		{"Category 6", 4, 50},
		{"Category 3", 8, 100},
	}
	for _, tc := range cases {
		t.Run(tc.cat, func(t *testing.T) {
			_, c, cs := linkedCategory(t, sampleCategories)
			c.SetUpperBound(c.IndexOf(tc.cat))
			if c.UpperBound() != tc.wantIndex {
				t.Errorf("UpperBound() = %d, want %d", c.UpperBound(), tc.wantIndex)
			}
			assertNear(t, "upper limit", cs.UpperLimit(), tc.wantPercent)
		})
	}
}

// ─── Percent → index ──────────────────────────────────────────────────────────

func TestCategory_LowerPercentToIndex(t *testing.T) {
	_, c, cs := linkedCategory(t, sampleCategories)
	for _, tc := range []struct {
		percent float64
		want    int
	}{{0, 0}, {50, 4}, {100, 8}} {
		cs.SetLowerLimit(tc.percent)
		if c.LowerBound() != tc.want {
			t.Errorf("lower limit %v: LowerBound() = %d, want %d", tc.percent, c.LowerBound(), tc.want)
		}
	}
}

func TestCategory_UpperPercentToIndex(t *testing.T) {
	_, c, cs := linkedCategory(t, sampleCategories)
	for _, tc := range []struct {
		percent float64
		want    int
	}{{0, 0}, {50, 4}, {100, 8}} {
		cs.SetUpperLimit(tc.percent)
		if c.UpperBound() != tc.want {
			t.Errorf("upper limit %v: UpperBound() = %d, want %d", tc.percent, c.UpperBound(), tc.want)
		}
	}
}

// ─── Edge cases ───────────────────────────────────────────────────────────────

func TestCategory_OutOfRangeIndexIsClamped(t *testing.T) {
	_, c, _ := linkedCategory(t, sampleCategories)
	c.SetLowerBound(10)
	if c.LowerBound() != 8 {
		t.Errorf("LowerBound() = %d, want 8", c.LowerBound())
	}
	c.SetLowerBound(-3)
	if c.LowerBound() != 0 {
		t.Errorf("LowerBound() = %d, want 0", c.LowerBound())
	}
}

func TestCategory_Empty(t *testing.T) {
	_, c, cs := linkedCategory(t, nil)
	c.SetLowerBound(c.IndexOf("Category 5"))
	if c.LowerBound() != 0 {
		t.Errorf("LowerBound() = %d, want 0", c.LowerBound())
	}
	assertNear(t, "lower limit", cs.LowerLimit(), 0)
	assertNear(t, "upper limit", cs.UpperLimit(), 100)
	assertNear(t, "range length", cs.RangeLength(), 100)
}

func TestCategory_SingleElement(t *testing.T) {
	_, c, cs := linkedCategory(t, []string{"Category 5"})
	c.SetLowerBound(c.IndexOf("Category 5"))
	if c.LowerBound() != 0 {
		t.Errorf("LowerBound() = %d, want 0", c.LowerBound())
	}
	assertNear(t, "lower limit", cs.LowerLimit(), 0)
}

func TestCategory_LowerCannotPassUpper(t *testing.T) {
	_, c, cs := linkedCategory(t, sampleCategories)
	c.SetUpperBound(3)
	c.SetLowerBound(6)
	if c.LowerBound() != 3 {
		t.Errorf("LowerBound() = %d, want 3", c.LowerBound())
	}

	cs.SetLowerLimit(90)
	if c.LowerBound() != 3 {
		t.Errorf("after control move LowerBound() = %d, want 3", c.LowerBound())
	}
	assertNear(t, "lower limit", cs.LowerLimit(), c.Percent(3))
}

// ─── Axis window ──────────────────────────────────────────────────────────────

func TestCategory_AxisShowsWindow(t *testing.T) {
	a, c, _ := linkedCategory(t, sampleCategories)
	c.SetUpperBound(5)
	c.SetLowerBound(2)

	want := []string{"Category 2", "Category 4", "Category 6", "Category 7"}
	if diff := cmp.Diff(want, a.Categories.Items()); diff != "" {
		t.Errorf("visible categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sampleCategories, c.Categories()); diff != "" {
		t.Errorf("full list mismatch (-want +got):\n%s", diff)
	}
}

func TestCategory_RangeSlidesWindow(t *testing.T) {
	a, c, cs := linkedCategory(t, sampleCategories)
	c.SetUpperBound(2)

	cs.SetRangePosition(100)
	if c.LowerBound() != 6 || c.UpperBound() != 8 {
		t.Errorf("window = [%d, %d], want [6, 8]", c.LowerBound(), c.UpperBound())
	}
	want := []string{"Category 8", "Category 9", "Category 3"}
	if diff := cmp.Diff(want, a.Categories.Items()); diff != "" {
		t.Errorf("visible categories mismatch (-want +got):\n%s", diff)
	}
}

func TestCategory_UpdateDataResetsWindow(t *testing.T) {
	a, c, cs := linkedCategory(t, sampleCategories)
	c.SetLowerBound(4)
	c.UpdateData([]string{"x", "y"})

	if c.LowerBound() != 0 || c.UpperBound() != 1 {
		t.Errorf("window = [%d, %d], want [0, 1]", c.LowerBound(), c.UpperBound())
	}
	if diff := cmp.Diff([]string{"x", "y"}, a.Categories.Items()); diff != "" {
		t.Errorf("visible categories mismatch (-want +got):\n%s", diff)
	}
	assertNear(t, "lower limit", cs.LowerLimit(), 0)
	assertNear(t, "upper limit", cs.UpperLimit(), 100)
}
