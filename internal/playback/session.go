// Package playback implements the per-item playback state machine and the
// registry that mounts one session per rendered item.
//
// A session plays iff it is in a playable state, its item is the active one
// and no hold is in effect. Play/pause is never toggled independently: the
// coordinator's election (SetActive) and the hold gesture (Hold/Release) both
// feed the same transition function, serialized by the session mutex.
package playback

import (
	"fmt"
	"sync"

	"github.com/abelbrown/reelcut/internal/otel"
)

// State is the playback state of one session.
type State int

const (
	StateLoading State = iota
	StateReady
	StatePlaying
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition is delivered to the listener after every state change.
type Transition struct {
	ItemID string
	From   State
	To     State
	Cause  string
}

// Listener receives transitions. It runs outside the session lock; a panic
// is recovered and logged.
type Listener func(Transition)

// Snapshot is a copy of a session's observable state.
type Snapshot struct {
	State     State
	Buffering bool
	Muted     bool
	Active    bool
	Held      bool
	Reason    string // media error reason when State == StateError
}

// ShowSpinner reports whether a loading indicator is due.
func (s Snapshot) ShowSpinner() bool {
	return s.State == StateLoading || s.Buffering
}

// Session is the playback state machine for one rendered item.
type Session struct {
	mu        sync.Mutex
	itemID    string
	player    Player
	listener  Listener
	log       *otel.Logger
	state     State
	buffering bool
	muted     bool
	active    bool
	held      bool
	reason    string
}

// NewSession creates a session in StateLoading. listener and log may be nil.
func NewSession(itemID string, player Player, muted bool, listener Listener, log *otel.Logger) *Session {
	s := &Session{
		itemID:   itemID,
		player:   player,
		listener: listener,
		log:      log,
		muted:    muted,
	}
	if player != nil {
		_ = player.SetMuted(muted)
	}
	return s
}

// ItemID returns the id of the item this session plays.
func (s *Session) ItemID() string {
	return s.itemID
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:     s.state,
		Buffering: s.buffering,
		Muted:     s.muted,
		Active:    s.active,
		Held:      s.held,
		Reason:    s.reason,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the session's item is the elected one.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive applies the coordinator's election for this item.
func (s *Session) SetActive(active bool) {
	cause := "deactivated"
	if active {
		cause = "activated"
	}
	s.mutate(cause, func() {
		s.active = active
	})
}

// Hold suspends playback regardless of the election.
func (s *Session) Hold() {
	s.mutate("hold", func() {
		s.held = true
	})
}

// Release lifts a hold. Playback resumes only if the item is still the
// active one; otherwise the session stays paused.
func (s *Session) Release() {
	s.mutate("release", func() {
		s.held = false
	})
}

// Handle applies a media event.
func (s *Session) Handle(ev Event) {
	switch ev := ev.(type) {
	case Ready:
		s.mutate("media ready", func() {
			if s.state == StateLoading {
				s.state = StateReady
			}
		})
	case BufferingStarted:
		s.mutate("buffering", func() {
			if s.state != StateError {
				s.buffering = true
			}
		})
	case BufferingStopped:
		s.mutate("buffered", func() {
			s.buffering = false
		})
	case Failed:
		s.mutate("media error", func() {
			s.fail(ev.Reason)
		})
	case Ended:
		s.mutate("ended", func() {
			if s.state == StatePlaying && s.player != nil {
				if err := s.player.Rewind(); err != nil {
					s.fail("rewind: " + err.Error())
				}
			}
		})
	}
}

// ToggleMute flips the mute flag and returns the new value. Never changes
// state.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	if s.player != nil {
		_ = s.player.SetMuted(s.muted)
	}
	return s.muted
}

// mutate is the single serialization point. It applies fn, then settles
// play/pause from (state, active, held), and notifies once per change.
func (s *Session) mutate(cause string, fn func()) {
	s.mu.Lock()
	from := s.state
	fn()
	s.settle()
	to := s.state
	s.mu.Unlock()

	if from != to {
		s.notify(Transition{ItemID: s.itemID, From: from, To: to, Cause: cause})
	}
}

// settle derives play/pause. Caller holds s.mu.
func (s *Session) settle() {
	wantPlay := s.active && !s.held
	switch {
	case wantPlay && (s.state == StateReady || s.state == StatePaused):
		if s.player != nil {
			if err := s.player.Play(); err != nil {
				s.fail("play: " + err.Error())
				return
			}
		}
		s.state = StatePlaying
	case !wantPlay && s.state == StatePlaying:
		if s.player != nil {
			if err := s.player.Pause(); err != nil {
				s.fail("pause: " + err.Error())
				return
			}
		}
		s.state = StatePaused
	}
}

// fail moves to StateError. Caller holds s.mu.
func (s *Session) fail(reason string) {
	s.state = StateError
	s.buffering = false
	s.reason = reason
	s.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindMediaError, Comp: "playback", ItemID: s.itemID, Err: reason})
}

func (s *Session) notify(tr Transition) {
	s.log.Emit(otel.Event{
		Level: otel.LevelDebug, Kind: otel.KindTransition, Comp: "playback",
		ItemID: tr.ItemID, From: tr.From.String(), To: tr.To.String(), Msg: tr.Cause,
	})
	if s.listener == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindListenerPanic, Comp: "playback", ItemID: tr.ItemID, Err: fmt.Sprint(r)})
		}
	}()
	s.listener(tr)
}
