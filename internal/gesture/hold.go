// Package gesture implements the press-and-hold override for one rendered
// item: holding the pointer down for the threshold suspends playback,
// releasing lifts the suspension.
package gesture

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/reelcut/internal/otel"
)

// DefaultThreshold is how long a press must last to become a hold.
const DefaultThreshold = time.Second

// Target is the playback session a hold acts on.
type Target interface {
	Hold()
	Release()
	Active() bool
}

// Elapsed is delivered when an armed hold timer fires. Gen identifies the
// arming; a disarmed or re-armed timer's message is ignored.
type Elapsed struct {
	ItemID string
	Gen    uint64
}

// Ticker schedules fn after d and delivers its message. tea.Tick in
// production.
type Ticker func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Handler is the hold gesture state for one item. NOT safe for concurrent
// use: presses and timer messages all arrive on the UI loop.
type Handler struct {
	itemID    string
	target    Target
	threshold time.Duration
	now       func() time.Time
	tick      Ticker
	onBegin   func(itemID string)
	onEnd     func(itemID string)
	log       *otel.Logger

	gen          uint64
	pressed      bool
	pendingSince time.Time
	holding      bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.threshold = d
		}
	}
}

// WithClock replaces time.Now and tea.Tick, for deterministic tests.
func WithClock(now func() time.Time, tick Ticker) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
		if tick != nil {
			h.tick = tick
		}
	}
}

// WithCallbacks sets the hold-begin and hold-end notifications.
func WithCallbacks(begin, end func(itemID string)) Option {
	return func(h *Handler) {
		h.onBegin = begin
		h.onEnd = end
	}
}

// WithLogger attaches an event logger.
func WithLogger(l *otel.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// New creates a Handler for itemID acting on target.
func New(itemID string, target Target, opts ...Option) *Handler {
	h := &Handler{
		itemID:    itemID,
		target:    target,
		threshold: DefaultThreshold,
		now:       time.Now,
		tick:      tea.Tick,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ItemID returns the item this handler belongs to.
func (h *Handler) ItemID() string {
	return h.itemID
}

// Holding reports whether a hold is in effect.
func (h *Handler) Holding() bool {
	return h.holding
}

// PendingSince returns when the current press started, if one is armed.
func (h *Handler) PendingSince() (time.Time, bool) {
	if !h.pressed || h.holding {
		return time.Time{}, false
	}
	return h.pendingSince, true
}

// PressStart arms the hold timer, disarming any previous one.
func (h *Handler) PressStart() tea.Cmd {
	h.gen++
	gen := h.gen
	h.pressed = true
	h.pendingSince = h.now()

	id := h.itemID
	return h.tick(h.threshold, func(time.Time) tea.Msg {
		return Elapsed{ItemID: id, Gen: gen}
	})
}

// HandleElapsed turns a live timer into a hold. It fires only while the
// pointer is still down, the full threshold has passed and the item is the
// active one. Reports whether a hold began.
func (h *Handler) HandleElapsed(msg Elapsed) bool {
	if msg.ItemID != h.itemID || msg.Gen != h.gen {
		return false
	}
	if !h.pressed || h.holding {
		return false
	}
	if h.now().Sub(h.pendingSince) < h.threshold {
		return false
	}
	if h.target == nil || !h.target.Active() {
		return false
	}

	h.holding = true
	h.target.Hold()
	h.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindHoldBegin, Comp: "gesture", ItemID: h.itemID, Dur: h.now().Sub(h.pendingSince)})
	if h.onBegin != nil {
		h.onBegin(h.itemID)
	}
	return true
}

// PressEnd disarms the timer and ends a hold in effect.
func (h *Handler) PressEnd() {
	h.gen++
	h.pressed = false
	if !h.holding {
		return
	}
	h.holding = false
	held := h.now().Sub(h.pendingSince)
	h.target.Release()
	h.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindHoldEnd, Comp: "gesture", ItemID: h.itemID, Dur: held})
	if h.onEnd != nil {
		h.onEnd(h.itemID)
	}
}

// Stop is called on unmount. It invalidates any armed timer so a late
// message cannot act on a destroyed session. No callbacks fire.
func (h *Handler) Stop() {
	h.gen++
	h.pressed = false
	h.holding = false
}
