package model

import "testing"

func TestCountersAdd(t *testing.T) {
	var c Counters
	c.Add(CounterLikes, 2)
	c.Add(CounterViews, 1)
	c.Add(Counter("bogus"), 10)

	if c.Likes != 2 {
		t.Errorf("Likes = %d, want 2", c.Likes)
	}
	if c.Views != 1 {
		t.Errorf("Views = %d, want 1", c.Views)
	}
	if c.Comments != 0 || c.Shares != 0 {
		t.Errorf("unexpected counters changed: %+v", c)
	}
}

func TestLocationFilterSortsByDistance(t *testing.T) {
	here := &Coordinate{Lat: 1, Lon: 2}
	tests := []struct {
		name string
		f    LocationFilter
		want bool
	}{
		{"disabled", LocationFilter{Enabled: false, Coordinate: here, Sort: SortDistance}, false},
		{"no coordinate", LocationFilter{Enabled: true, Sort: SortDistance}, false},
		{"recency", LocationFilter{Enabled: true, Coordinate: here, Sort: SortRecency}, false},
		{"distance", LocationFilter{Enabled: true, Coordinate: here, Sort: SortDistance}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.SortsByDistance(); got != tt.want {
				t.Errorf("SortsByDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocationFilterEqual(t *testing.T) {
	a := LocationFilter{Enabled: true, Coordinate: &Coordinate{Lat: 1, Lon: 1}, Sort: SortDistance}
	b := LocationFilter{Enabled: true, Coordinate: &Coordinate{Lat: 1, Lon: 1}, Sort: SortDistance}
	if !a.Equal(b) {
		t.Error("filters with equal coordinates should be equal")
	}
	b.Coordinate = &Coordinate{Lat: 2, Lon: 1}
	if a.Equal(b) {
		t.Error("filters with different coordinates should differ")
	}
	b.Coordinate = nil
	if a.Equal(b) {
		t.Error("nil vs non-nil coordinate should differ")
	}
}

func TestCoordinateValid(t *testing.T) {
	if !(Coordinate{Lat: 45, Lon: -120}).Valid() {
		t.Error("expected valid coordinate")
	}
	if (Coordinate{Lat: 91, Lon: 0}).Valid() {
		t.Error("latitude 91 should be invalid")
	}
}
