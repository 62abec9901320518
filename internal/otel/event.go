// Package otel provides structured observability for reelcut.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer keeps recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"strings"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Feed pager
	KindFetchStart    EventKind = "feed.fetch_start"
	KindFetchComplete EventKind = "feed.fetch_complete"
	KindFetchError    EventKind = "feed.fetch_error"
	KindFetchStale    EventKind = "feed.fetch_stale"
	KindFetchSkipped  EventKind = "feed.fetch_skipped"
	KindResort        EventKind = "feed.resort"
	KindCounterBump   EventKind = "feed.counter_bump"

	// Active-item coordinator
	KindElect EventKind = "coord.elect"

	// Playback
	KindTransition    EventKind = "playback.transition"
	KindMediaError    EventKind = "playback.media_error"
	KindListenerPanic EventKind = "playback.listener_panic"
	KindMount         EventKind = "playback.mount"
	KindUnmount       EventKind = "playback.unmount"

	// Hold gesture
	KindHoldBegin EventKind = "gesture.hold_begin"
	KindHoldEnd   EventKind = "gesture.hold_end"

	// Geolocation
	KindGeoResolved    EventKind = "geo.resolved"
	KindGeoUnavailable EventKind = "geo.unavailable"

	// UI
	KindKeyPress EventKind = "ui.key"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Message tracing (REELCUT_TRACE)
	KindMsgReceived EventKind = "trace.msg_received"
	KindMsgHandled  EventKind = "trace.msg_handled"
)

// Component is the kind prefix before the first dot: "feed" for
// feed.fetch_start.
func (k EventKind) Component() string {
	comp, _, _ := strings.Cut(string(k), ".")
	return comp
}

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "feed", "coord", "playback", "gesture", "geo", "ui"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	ReqID     uint64         `json:"req,omitempty"`        // pager request id
	ItemID    string         `json:"item,omitempty"`
	Page      int            `json:"page,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	From      string         `json:"from,omitempty"` // state transitions
	To        string         `json:"to,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
