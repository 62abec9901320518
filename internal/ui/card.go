package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/playback"
)

// cardView is everything needed to draw one item.
type cardView struct {
	Item     model.FeedItem
	Active   bool
	Mounted  bool
	Snap     playback.Snapshot
	Spinner  string
	Progress string // rendered progress bar, active item only
}

// renderCard draws an item as exactly height lines of width columns.
func renderCard(c cardView, width, height int) []string {
	if height <= 0 {
		return nil
	}

	author := c.Item.AuthorName
	if author == "" {
		author = c.Item.AuthorID
	}
	header := CardAuthor.Render("@" + author)
	if c.Item.Specialty != "" {
		header += SpecialtyBadge.Render(c.Item.Specialty)
	}
	if c.Item.DistanceKm != nil {
		header += Distance.Render(formatDistance(*c.Item.DistanceKm))
	}

	footer := []string{
		CardCaption.Render(truncateRunes(c.Item.Caption, max(width-2, 1))),
		Counters.Render(formatCounters(c.Item.Counters)),
	}
	if c.Progress != "" {
		footer = append(footer, " "+c.Progress)
	}

	// header + screen + footer
	screenHeight := height - 1 - len(footer)
	var lines []string
	lines = append(lines, header)
	if screenHeight >= 3 {
		style := Screen
		if c.Active {
			style = ActiveScreen
		}
		screen := style.
			Width(max(width-2, 1)).
			Height(screenHeight - 2).
			Render(screenLabel(c))
		lines = append(lines, strings.Split(screen, "\n")...)
	} else if screenHeight > 0 {
		lines = append(lines, screenLabel(c))
	}
	lines = append(lines, footer...)
	return fitLines(lines, width, height)
}

// screenLabel describes the playback surface.
func screenLabel(c cardView) string {
	if !c.Mounted {
		if c.Item.HasPoster() {
			return PausedBadge.Render("[poster]")
		}
		return ""
	}

	var label string
	switch c.Snap.State {
	case playback.StateError:
		reason := c.Snap.Reason
		if reason == "" {
			reason = "media error"
		}
		return MediaErrorBadge.Render("⚠ " + reason)
	case playback.StatePlaying:
		label = PlayingBadge.Render("▶ playing")
	case playback.StatePaused:
		label = PausedBadge.Render("❚❚ paused")
		if c.Snap.Held {
			label = PausedBadge.Render("❚❚ held")
		}
	case playback.StateReady:
		label = PausedBadge.Render("● ready")
	default:
		label = PausedBadge.Render("loading")
	}
	if c.Snap.ShowSpinner() {
		label = c.Spinner + " " + label
	}
	if c.Snap.Muted {
		label += PausedBadge.Render("  🔇")
	}
	return label
}

// fitLines pads or cuts lines to exactly height entries, each truncated to
// width cells.
func fitLines(lines []string, width, height int) []string {
	out := make([]string, height)
	for i := range out {
		if i < len(lines) {
			line := lines[i]
			if lipgloss.Width(line) > width {
				line = lipgloss.NewStyle().MaxWidth(width).Render(line)
			}
			out[i] = line
		}
	}
	return out
}

// sliceViewport cuts rows [offset, offset+height) out of the stacked cards.
// Card i occupies rows [i*height, (i+1)*height).
func sliceViewport(cards func(i int) []string, n, offset, height int) []string {
	if height <= 0 {
		return nil
	}
	out := make([]string, 0, height)
	for row := offset; row < offset+height; row++ {
		i := row / height
		if row < 0 || i >= n {
			out = append(out, "")
			continue
		}
		out = append(out, cards(i)[row%height])
	}
	return out
}

func formatCounters(c model.Counters) string {
	return fmt.Sprintf("♥ %s   💬 %s   ↗ %s   ▷ %s",
		compact(c.Likes), compact(c.Comments), compact(c.Shares), compact(c.Views))
}

// compact formats a count as 999, 1.2k or 3.4M.
func compact(n int64) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
}

func formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m away", int(km*1000))
	}
	return fmt.Sprintf("%.1f km away", km)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// truncateRunes shortens s to maxLen runes, adding "…" if truncated.
func truncateRunes(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-1]) + "…"
}
