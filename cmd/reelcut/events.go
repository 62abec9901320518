package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const followPoll = 100 * time.Millisecond

// eventRecord mirrors otel.Event for decoding. Kept separate so the viewer
// still reads logs written by other versions.
type eventRecord struct {
	Time      time.Time `json:"t"`
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Comp      string    `json:"comp"`
	SessionID string    `json:"session_id"`
	ReqID     uint64    `json:"req"`
	ItemID    string    `json:"item"`
	Page      int       `json:"page"`
	DurMs     float64   `json:"dur_ms"`
	Count     int       `json:"count"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Err       string    `json:"err"`
	Msg       string    `json:"msg"`
}

// eventFilter selects events for display. Zero fields match everything.
type eventFilter struct {
	Kind  string // prefix
	Level string // minimum
	Comp  string
	Item  string
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.Kind != "" && !strings.HasPrefix(ev.Kind, f.Kind) {
		return false
	}
	if f.Level != "" && levelRank(ev.Level) < levelRank(f.Level) {
		return false
	}
	if f.Comp != "" && ev.Comp != f.Comp {
		return false
	}
	if f.Item != "" && ev.ItemID != f.Item {
		return false
	}
	return true
}

func newEventsCmd(load loader) *cobra.Command {
	var tail int
	var follow, rawJSON bool
	var filter eventFilter

	cmd := &cobra.Command{
		Use:   "events",
		Short: "JSONL event log viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logPath := eventLogPath(cfg)
			f, err := os.Open(logPath)
			if err != nil {
				return fmt.Errorf("event log not found at %s (run reelcut play first): %w", logPath, err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			for _, l := range readTailLines(f, tail, filter.match) {
				fmt.Fprintln(out, formatEvent(l.ev, l.raw, rawJSON))
			}
			if !follow {
				return nil
			}
			return followEvents(cmd.Context(), f, out, filter.match, rawJSON)
		},
	}

	cmd.Flags().IntVarP(&tail, "tail", "n", 50, "number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow mode (like tail -f)")
	cmd.Flags().StringVar(&filter.Kind, "kind", "", "filter by event kind prefix (e.g. 'playback')")
	cmd.Flags().StringVar(&filter.Level, "level", "", "minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&filter.Comp, "comp", "", "filter by component name")
	cmd.Flags().StringVar(&filter.Item, "item", "", "filter by item id")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "output raw JSON lines")
	return cmd
}

func formatEvent(ev eventRecord, raw []byte, rawJSON bool) string {
	if rawJSON {
		return string(raw)
	}
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-8s] %-24s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}
	if ev.ItemID != "" {
		parts = append(parts, "item="+ev.ItemID)
	}
	if ev.ReqID > 0 {
		parts = append(parts, fmt.Sprintf("req=%d page=%d", ev.ReqID, ev.Page))
	}
	if ev.From != "" || ev.To != "" {
		parts = append(parts, ev.From+"->"+ev.To)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

// followEvents prints matching lines appended after the current offset
// until ctx is done.
func followEvents(ctx context.Context, r io.Reader, out io.Writer, match func(eventRecord) bool, rawJSON bool) error {
	reader := bufio.NewReader(r)
	var pending []byte
	for {
		chunk, err := reader.ReadBytes('\n')
		pending = append(pending, chunk...)
		if errors.Is(err, io.EOF) {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(followPoll):
			}
			continue
		}
		if err != nil {
			return err
		}

		line := trimLine(pending)
		pending = nil
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if match(ev) {
			fmt.Fprintln(out, formatEvent(ev, line, rawJSON))
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 || n <= 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// scanner reuses its buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
