// Package coord elects the single active feed item from viewport visibility.
//
// The Coordinator is the only writer of the active id. Listeners run
// synchronously inside each election, so every playback transition caused by
// one election has finished before the next visibility event is processed.
package coord

import (
	"github.com/abelbrown/reelcut/internal/otel"
)

// Election describes a change of the active item. Prev or Next may be "".
type Election struct {
	Prev string
	Next string
	// Cold is true for the mount-time default election.
	Cold bool
}

// Coordinator owns ActiveItemState. NOT safe for concurrent use: it lives on
// the UI event loop.
type Coordinator struct {
	activeID  string
	listeners []func(Election)
	log       *otel.Logger
}

// New creates a Coordinator with no active item. The logger may be nil.
func New(log *otel.Logger) *Coordinator {
	return &Coordinator{log: log}
}

// ActiveID returns the elected item id, or "" when none.
func (c *Coordinator) ActiveID() string {
	return c.activeID
}

// Subscribe registers fn to be called on every effective election.
func (c *Coordinator) Subscribe(fn func(Election)) {
	c.listeners = append(c.listeners, fn)
}

// OnVisibilityChanged takes the visible item ids ordered by visible
// fraction, most visible first, and elects the first one if it differs from
// the current active id. An empty list keeps the current election: during a
// fast scroll no item crosses the threshold and the old item stays active
// until a new one does. Reports whether the active id changed.
func (c *Coordinator) OnVisibilityChanged(visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	return c.elect(visible[0], false)
}

// Mount performs the cold-start election: when nothing is elected, or the
// elected item is no longer loaded, the first loaded item becomes active
// without waiting for a visibility event. An empty list clears the election.
func (c *Coordinator) Mount(loaded []string) bool {
	if len(loaded) == 0 {
		return c.elect("", true)
	}
	if c.activeID != "" {
		for _, id := range loaded {
			if id == c.activeID {
				return false
			}
		}
	}
	return c.elect(loaded[0], true)
}

func (c *Coordinator) elect(id string, cold bool) bool {
	if id == c.activeID {
		return false
	}
	e := Election{Prev: c.activeID, Next: id, Cold: cold}
	c.activeID = id

	msg := "visibility"
	if cold {
		msg = "cold start"
	}
	c.log.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindElect, Comp: "coord",
		ItemID: id, From: e.Prev, To: e.Next, Msg: msg,
	})

	for _, fn := range c.listeners {
		fn(e)
	}
	return true
}
