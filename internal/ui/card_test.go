package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/playback"
)

func TestRenderCardHeight(t *testing.T) {
	km := 2.345
	it := model.FeedItem{
		ID: "r1", AuthorName: "Marco", Specialty: "fade", DistanceKm: &km,
		Caption:  strings.Repeat("skin fade with a hard part ", 10),
		Counters: model.Counters{Likes: 1200, Views: 3_400_000},
	}
	for _, height := range []int{1, 2, 4, 10, 24} {
		lines := renderCard(cardView{Item: it, Mounted: true}, 40, height)
		if len(lines) != height {
			t.Errorf("height %d: got %d lines", height, len(lines))
		}
	}

	joined := strings.Join(renderCard(cardView{Item: it}, 80, 12), "\n")
	for _, want := range []string{"@Marco", "fade", "2.3 km away", "♥ 1.2k", "▷ 3.4M", "…"} {
		if !strings.Contains(joined, want) {
			t.Errorf("card missing %q:\n%s", want, joined)
		}
	}
}

func TestScreenLabel(t *testing.T) {
	tests := []struct {
		name string
		view cardView
		want string
	}{
		{"unmounted with poster", cardView{Item: model.FeedItem{PosterURL: "p.jpg"}}, "[poster]"},
		{"unmounted", cardView{}, ""},
		{"loading", cardView{Mounted: true, Spinner: "*"}, "* loading"},
		{"playing", cardView{Mounted: true, Snap: playback.Snapshot{State: playback.StatePlaying}}, "▶ playing"},
		{"held", cardView{Mounted: true, Snap: playback.Snapshot{State: playback.StatePaused, Held: true}}, "❚❚ held"},
		{"muted", cardView{Mounted: true, Snap: playback.Snapshot{State: playback.StateReady, Muted: true}}, "🔇"},
		{"buffering", cardView{Mounted: true, Spinner: "*", Snap: playback.Snapshot{State: playback.StatePlaying, Buffering: true}}, "* "},
		{"error", cardView{Mounted: true, Snap: playback.Snapshot{State: playback.StateError, Reason: "404"}}, "⚠ 404"},
		{"error without reason", cardView{Mounted: true, Snap: playback.Snapshot{State: playback.StateError}}, "media error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := screenLabel(tt.view)
			if tt.want == "" && got != "" {
				t.Errorf("screenLabel() = %q, want empty", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("screenLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSliceViewport(t *testing.T) {
	card := func(i int) []string {
		return []string{string(rune('a' + i)), string(rune('a'+i)) + "2", string(rune('a'+i)) + "3"}
	}

	got := sliceViewport(card, 2, 0, 3)
	if strings.Join(got, ",") != "a,a2,a3" {
		t.Errorf("offset 0 = %v", got)
	}
	got = sliceViewport(card, 2, 2, 3)
	if strings.Join(got, ",") != "a3,b,b2" {
		t.Errorf("offset 2 = %v", got)
	}
	got = sliceViewport(card, 2, 5, 3)
	if strings.Join(got, ",") != "b3,," {
		t.Errorf("past the last card = %v", got)
	}
}

func TestCompact(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1200: "1.2k", 3_400_000: "3.4M"}
	for n, want := range tests {
		if got := compact(n); got != want {
			t.Errorf("compact(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	if got := formatDistance(0.5); got != "500 m away" {
		t.Errorf("formatDistance(0.5) = %q", got)
	}
	if got := formatDistance(12.34); got != "12.3 km away" {
		t.Errorf("formatDistance(12.34) = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{3 * time.Minute, "3m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("navalha", 10); got != "navalha" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncateRunes("degradê baixo", 8); got != "degradê…" {
		t.Errorf("truncateRunes = %q", got)
	}
	if got := truncateRunes("abc", 1); got != "a" {
		t.Errorf("truncateRunes(1) = %q", got)
	}
}
