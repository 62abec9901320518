package coord

import (
	"fmt"
	"testing"
)

func TestVisibleThreshold(t *testing.T) {
	tests := []struct {
		name    string
		entries []Visibility
		want    []string
	}{
		{"none", nil, []string{}},
		{"below threshold", []Visibility{{"a", 0.5}, {"b", 0.5}}, []string{}},
		{"one crosses", []Visibility{{"a", 0.15}, {"b", 0.85}}, []string{"b"}},
		{"ordered by fraction", []Visibility{{"a", 0.9}, {"b", 1.0}}, []string{"b", "a"}},
		{"ties keep render order", []Visibility{{"a", 1.0}, {"b", 1.0}}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visible(tt.entries, DefaultThreshold)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestElectsMostVisible(t *testing.T) {
	c := New(nil)
	var got []Election
	c.Subscribe(func(e Election) { got = append(got, e) })

	if !c.OnVisibilityChanged([]string{"b", "a"}) {
		t.Fatal("first election should change active id")
	}
	if c.ActiveID() != "b" {
		t.Errorf("ActiveID() = %q, want b", c.ActiveID())
	}
	if len(got) != 1 || got[0].Prev != "" || got[0].Next != "b" || got[0].Cold {
		t.Errorf("unexpected elections: %+v", got)
	}
}

func TestRedundantElectionSuppressed(t *testing.T) {
	c := New(nil)
	calls := 0
	c.Subscribe(func(Election) { calls++ })

	c.OnVisibilityChanged([]string{"a"})
	if c.OnVisibilityChanged([]string{"a", "b"}) {
		t.Error("re-electing the active item must report no change")
	}
	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

func TestEmptyVisibilityKeepsActive(t *testing.T) {
	c := New(nil)
	c.OnVisibilityChanged([]string{"a"})
	if c.OnVisibilityChanged(nil) {
		t.Error("empty visibility should not change the election")
	}
	if c.ActiveID() != "a" {
		t.Errorf("ActiveID() = %q, want a", c.ActiveID())
	}
}

func TestMountColdStart(t *testing.T) {
	c := New(nil)
	var got Election
	c.Subscribe(func(e Election) { got = e })

	if !c.Mount([]string{"x", "y"}) {
		t.Fatal("cold start should elect the first item")
	}
	if c.ActiveID() != "x" || !got.Cold {
		t.Errorf("active=%q cold=%v", c.ActiveID(), got.Cold)
	}

	if c.Mount([]string{"y", "x"}) {
		t.Error("mount must not override a still-loaded election")
	}

	if !c.Mount([]string{"z"}) {
		t.Error("mount should re-elect when the active item is gone")
	}
	if c.ActiveID() != "z" {
		t.Errorf("ActiveID() = %q, want z", c.ActiveID())
	}

	if !c.Mount(nil) || c.ActiveID() != "" {
		t.Error("mounting an empty list should clear the election")
	}
}

func TestElectionsResolveInOrder(t *testing.T) {
	c := New(nil)
	var trail []string
	c.Subscribe(func(e Election) {
		trail = append(trail, e.Prev+">"+e.Next)
	})

	for _, frame := range [][]string{{"a"}, {}, {"b"}, {"b"}, {"c", "b"}} {
		c.OnVisibilityChanged(frame)
	}
	want := "[>a a>b b>c]"
	if fmt.Sprint(trail) != want {
		t.Errorf("trail = %v, want %s", trail, want)
	}
}
