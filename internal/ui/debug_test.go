package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/reelcut/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	if got := debugOverlay(nil, nil, 80, 24); got != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", got)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	now := time.Now()
	ring.Push(otel.Event{Kind: otel.KindFetchStart, Time: now})
	ring.Push(otel.Event{Kind: otel.KindFetchComplete, Time: now})
	ring.Push(otel.Event{Kind: otel.KindFetchError, Time: now})
	ring.Push(otel.Event{Kind: otel.KindElect, Time: now})
	ring.Push(otel.Event{Kind: otel.KindHoldBegin, Time: now})

	result := debugOverlay(ring, []string{"a"}, 100, 40)

	for _, want := range []string{"Feed & Playback", "1 started, 1 complete, 1 errors", "Elections:  1", "1 begun, 0 ended", "Playing:    a", "5 / 64 events"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindTransition, Time: time.Now(), ItemID: "reel-1", From: "ready", To: "playing"})
	ring.Push(otel.Event{Kind: otel.KindFetchError, Time: time.Now(), ReqID: 7, Err: "timeout"})

	result := debugOverlay(ring, nil, 100, 40)

	for _, want := range []string{"Recent Events", "item:reel-1", "ready→playing", "req:7", "ERR:timeout", "Playing:    none"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayFitsHeight(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindElect, Time: time.Now()})
	}
	height := 15
	result := debugOverlay(ring, nil, 80, height)
	if lines := strings.Count(result, "\n") + 1; lines > height {
		t.Errorf("overlay is %d lines, want <= %d", lines, height)
	}
}

func TestDebugStatusBar(t *testing.T) {
	if !strings.Contains(debugStatusBar(80), "[DEBUG]") {
		t.Error("status bar should show [DEBUG]")
	}
}
