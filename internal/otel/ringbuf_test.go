package otel

import (
	"fmt"
	"sync"
	"testing"
)

// scroll pushes one election per item id, oldest first.
func scroll(r *RingBuffer, ids ...string) {
	for _, id := range ids {
		r.Push(Event{Kind: KindElect, ItemID: id, To: id})
	}
}

func ids(evs []Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.ItemID
	}
	return out
}

func TestRingOrderAndEviction(t *testing.T) {
	tests := []struct {
		name string
		size int
		push []string
		want []string
	}{
		{"empty", 4, nil, []string{}},
		{"partial", 4, []string{"a", "b"}, []string{"a", "b"}},
		{"full", 3, []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"wrapped", 3, []string{"a", "b", "c", "d", "e"}, []string{"c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRingBuffer(tt.size)
			scroll(r, tt.push...)
			got := ids(r.Snapshot())
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Snapshot() = %v, want %v", got, tt.want)
			}
			if r.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
		})
	}
}

func TestDefaultSize(t *testing.T) {
	if got := NewRingBuffer(0).Cap(); got != DefaultRingSize {
		t.Errorf("Cap() = %d, want %d", got, DefaultRingSize)
	}
}

func TestLastElections(t *testing.T) {
	r := NewRingBuffer(4)
	scroll(r, "a", "b", "c", "d", "e", "f")

	if got := ids(r.Last(2)); fmt.Sprint(got) != "[e f]" {
		t.Errorf("Last(2) = %v", got)
	}
	if got := r.Last(10); len(got) != 4 {
		t.Errorf("Last(10) len = %d, want 4", len(got))
	}
	if r.Last(0) != nil {
		t.Error("Last(0) should be nil")
	}
}

func TestSubsystemSplitsPlaybackFromFeed(t *testing.T) {
	r := NewRingBuffer(8)
	r.Push(Event{Kind: KindFetchStart, ReqID: 1})
	r.Push(Event{Kind: KindMount, ItemID: "a"})
	r.Push(Event{Kind: KindTransition, ItemID: "a", From: "loading", To: "ready"})
	r.Push(Event{Kind: KindFetchComplete, ReqID: 1})

	play := r.Subsystem("playback")
	if len(play) != 2 || play[1].To != "ready" {
		t.Errorf("Subsystem(playback) = %+v", play)
	}
	if feed := r.Subsystem("feed"); len(feed) != 2 {
		t.Errorf("Subsystem(feed) len = %d, want 2", len(feed))
	}
	if got := r.Subsystem("play"); len(got) != 0 {
		t.Errorf("prefix must match a whole component, got %d", len(got))
	}
}

func TestStatsCountsHolds(t *testing.T) {
	r := NewRingBuffer(8)
	r.Push(Event{Kind: KindHoldBegin, ItemID: "a"})
	r.Push(Event{Kind: KindHoldEnd, ItemID: "a"})
	r.Push(Event{Kind: KindHoldBegin, ItemID: "b"})

	stats := r.Stats()
	if stats[KindHoldBegin] != 2 || stats[KindHoldEnd] != 1 || len(stats) != 2 {
		t.Errorf("Stats() = %v", stats)
	}
}

func TestExtraIsCopied(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"gen": 1}
	r.Push(Event{Kind: KindMount, Extra: extra})
	extra["gen"] = 2

	if got := r.Snapshot()[0].Extra["gen"]; got != 1 {
		t.Errorf("ring Extra aliased caller map: %v", got)
	}
}

func TestConcurrentPushAndRead(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for s := 0; s < 4; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Push(Event{Kind: KindTransition, ItemID: fmt.Sprintf("r%d", s)})
				_ = r.Stats()
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("Len() = %d, want 64", r.Len())
	}
}
