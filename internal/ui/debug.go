package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/reelcut/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing feed and playback stats and
// recent events. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, playing []string, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Feed & Playback"))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d started, %d complete, %d errors, %d stale",
		stats[otel.KindFetchStart], stats[otel.KindFetchComplete], stats[otel.KindFetchError], stats[otel.KindFetchStale]))
	lines = append(lines, fmt.Sprintf("  Elections:  %d", stats[otel.KindElect]))
	lines = append(lines, fmt.Sprintf("  Playback:   %d transitions, %d media errors",
		stats[otel.KindTransition], stats[otel.KindMediaError]))
	lines = append(lines, fmt.Sprintf("  Holds:      %d begun, %d ended",
		stats[otel.KindHoldBegin], stats[otel.KindHoldEnd]))
	lines = append(lines, fmt.Sprintf("  Playing:    %s", playingList(playing)))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-22s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.ItemID != "" {
			line += "  item:" + truncateRunes(e.ItemID, 10)
		}
		if e.ReqID != 0 {
			line += fmt.Sprintf("  req:%d", e.ReqID)
		}
		if e.From != "" || e.To != "" {
			line += fmt.Sprintf("  %s→%s", e.From, e.To)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 30)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(96, width-4)
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func playingList(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
