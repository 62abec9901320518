package playback

import (
	"sort"
	"sync"

	"github.com/abelbrown/reelcut/internal/gesture"
	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/otel"
)

// Slot is one rendered item instance: its session and hold gesture.
// Gen distinguishes successive mounts of the same item id.
type Slot struct {
	Item    model.FeedItem
	Gen     uint64
	Session *Session
	Hold    *gesture.Handler
}

// releaser is implemented by players holding resources beyond a mount.
type releaser interface {
	Release()
}

// PlayerFactory builds the media element for an item.
type PlayerFactory func(item model.FeedItem) Player

// Registry mounts a Slot for each item in the rendered window and fans the
// active id out to the sessions. Slot bookkeeping runs on the UI loop; the
// playing set is guarded separately because transitions may be reported from
// any goroutine that drives a session.
type Registry struct {
	slots      map[string]*Slot
	newPlayer  PlayerFactory
	startMuted bool
	holdOpts   []gesture.Option
	listener   Listener
	log        *otel.Logger
	activeID   string
	gen        uint64

	pmu     sync.Mutex
	playing map[string]struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStartMuted mounts new sessions muted.
func WithStartMuted(muted bool) RegistryOption {
	return func(r *Registry) { r.startMuted = muted }
}

// WithHoldOptions passes options to every mounted hold handler.
func WithHoldOptions(opts ...gesture.Option) RegistryOption {
	return func(r *Registry) { r.holdOpts = append(r.holdOpts, opts...) }
}

// WithListener forwards every session transition to fn (fire-and-forget).
func WithListener(fn Listener) RegistryOption {
	return func(r *Registry) { r.listener = fn }
}

// WithRegistryLogger attaches an event logger.
func WithRegistryLogger(l *otel.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(newPlayer PlayerFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		slots:     make(map[string]*Slot),
		newPlayer: newPlayer,
		playing:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync makes the mounted set equal to window: items that left are unmounted,
// new items are mounted. Returns the newly mounted slots in window order.
func (r *Registry) Sync(window []model.FeedItem) []*Slot {
	keep := make(map[string]struct{}, len(window))
	for _, it := range window {
		keep[it.ID] = struct{}{}
	}
	for id := range r.slots {
		if _, ok := keep[id]; !ok {
			r.Unmount(id)
		}
	}

	var mounted []*Slot
	for _, it := range window {
		if _, ok := r.slots[it.ID]; ok {
			continue
		}
		mounted = append(mounted, r.mount(it))
	}
	return mounted
}

func (r *Registry) mount(item model.FeedItem) *Slot {
	r.gen++
	var player Player
	if r.newPlayer != nil {
		player = r.newPlayer(item)
	}
	sess := NewSession(item.ID, player, r.startMuted, r.onTransition, r.log)
	slot := &Slot{
		Item:    item,
		Gen:     r.gen,
		Session: sess,
		Hold:    gesture.New(item.ID, sess, r.holdOpts...),
	}
	r.slots[item.ID] = slot
	if item.ID == r.activeID {
		sess.SetActive(true)
	}
	r.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMount, Comp: "playback", ItemID: item.ID, Count: int(slot.Gen)})
	return slot
}

// Unmount destroys the slot for id: the hold timer is invalidated and the
// session is suspended.
func (r *Registry) Unmount(id string) {
	slot, ok := r.slots[id]
	if !ok {
		return
	}
	delete(r.slots, id)
	slot.Hold.Stop()
	slot.Session.SetActive(false)
	if rel, ok := slot.Session.player.(releaser); ok {
		rel.Release()
	}

	r.pmu.Lock()
	delete(r.playing, id)
	r.pmu.Unlock()
	r.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindUnmount, Comp: "playback", ItemID: id})
}

// SetActive routes an election to the sessions: the previously active one is
// deactivated before the new one is activated, so at most one plays.
func (r *Registry) SetActive(id string) {
	prev := r.activeID
	r.activeID = id
	if prev == id {
		return
	}
	if slot, ok := r.slots[prev]; ok {
		slot.Session.SetActive(false)
	}
	if slot, ok := r.slots[id]; ok {
		slot.Session.SetActive(true)
	}
}

// ActiveID returns the id last routed by SetActive.
func (r *Registry) ActiveID() string {
	return r.activeID
}

// Slot returns the mounted slot for id.
func (r *Registry) Slot(id string) (*Slot, bool) {
	s, ok := r.slots[id]
	return s, ok
}

// Live reports whether (id, gen) still names a mounted slot. Results of
// async work started for an earlier mount are dropped with this check.
func (r *Registry) Live(id string, gen uint64) (*Slot, bool) {
	s, ok := r.slots[id]
	if !ok || s.Gen != gen {
		return nil, false
	}
	return s, true
}

// Len returns the number of mounted slots.
func (r *Registry) Len() int {
	return len(r.slots)
}

// Playing returns the ids whose sessions are currently playing, sorted.
func (r *Registry) Playing() []string {
	r.pmu.Lock()
	defer r.pmu.Unlock()
	ids := make([]string, 0, len(r.playing))
	for id := range r.playing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close unmounts every slot.
func (r *Registry) Close() {
	for id := range r.slots {
		r.Unmount(id)
	}
}

func (r *Registry) onTransition(tr Transition) {
	r.pmu.Lock()
	if tr.To == StatePlaying {
		r.playing[tr.ItemID] = struct{}{}
	} else {
		delete(r.playing, tr.ItemID)
	}
	r.pmu.Unlock()

	if r.listener != nil {
		r.listener(tr)
	}
}
