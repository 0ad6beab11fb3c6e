package observable_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/derickschaefer/hws/internal/observable"
)

func TestValue_SetNotifies(t *testing.T) {
	v := observable.NewValue(1.0)
	var got [][2]float64
	v.Subscribe(func(old, new float64) { got = append(got, [2]float64{old, new}) })

	v.Set(2)
	v.Set(2) // equal write is silent
	v.Set(5)

	want := [][2]float64{{1, 2}, {2, 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_Unsubscribe(t *testing.T) {
	v := observable.NewValue("a")
	calls := 0
	sub := v.Subscribe(func(_, _ string) { calls++ })
	v.Set("b")
	sub.Unsubscribe()
	sub.Unsubscribe()
	v.Set("c")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if v.Listeners() != 0 {
		t.Errorf("Listeners() = %d, want 0", v.Listeners())
	}
}

func TestValue_NestedWrite(t *testing.T) {
	v := observable.NewValue(0)
	var seen []int
	v.Subscribe(func(_, n int) {
		seen = append(seen, n)
		if n > 10 {
			v.Set(10)
		}
	})
	v.Set(42)
	if v.Get() != 10 {
		t.Errorf("Get() = %d, want 10", v.Get())
	}
	if diff := cmp.Diff([]int{42, 10}, seen); diff != "" {
		t.Errorf("seen mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_UnsubscribeDuringDispatch(t *testing.T) {
	v := observable.NewValue(0)
	var second observable.Subscription
	calls := 0
	v.Subscribe(func(_, _ int) { second.Unsubscribe() })
	second = v.Subscribe(func(_, _ int) { calls++ })
	v.Set(1)
	if calls != 0 {
		t.Errorf("removed listener ran %d times", calls)
	}
}

func TestList_Changes(t *testing.T) {
	l := observable.NewList("a", "b")
	var changes []observable.Change[string]
	l.Subscribe(func(c observable.Change[string]) { changes = append(changes, c) })

	l.Append("c")
	l.RemoveAt(0)
	l.SetAll("x")

	want := []observable.Change[string]{
		{Added: []string{"c"}},
		{Removed: []string{"a"}},
		{Added: []string{"x"}, Removed: []string{"b", "c"}},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x"}, l.Items()); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}
