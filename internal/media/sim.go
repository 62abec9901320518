package media

import (
	"errors"
	"sync"
	"time"

	"github.com/abelbrown/reelcut/internal/playback"
)

// DefaultDuration is used for items that carry no duration.
const DefaultDuration = 15 * time.Second

// ErrReleased is returned by a Sim after Release.
var ErrReleased = errors.New("player released")

// Sim is a clocked stand-in for a video element. Its position advances in
// wall time while playing; Poll reports Ended once the position reaches the
// duration.
type Sim struct {
	mu       sync.Mutex
	duration time.Duration
	now      func() time.Time
	playing  bool
	since    time.Time
	offset   time.Duration
	muted    bool
	ended    bool
	released bool
}

// NewSim creates a paused player at position zero. now may be nil.
func NewSim(duration time.Duration, now func() time.Time) *Sim {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if now == nil {
		now = time.Now
	}
	return &Sim{duration: duration, now: now}
}

func (s *Sim) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	if !s.playing {
		s.playing = true
		s.since = s.now()
	}
	return nil
}

func (s *Sim) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	if s.playing {
		s.offset = s.position()
		s.playing = false
	}
	return nil
}

// Rewind seeks to zero, keeping the play/pause state.
func (s *Sim) Rewind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	s.offset = 0
	s.since = s.now()
	s.ended = false
	return nil
}

func (s *Sim) SetMuted(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	return nil
}

// Muted reports the mute flag.
func (s *Sim) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Playing reports whether the clock is running.
func (s *Sim) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Position returns the current playback position, capped at the duration.
func (s *Sim) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position()
}

// Duration returns the media length.
func (s *Sim) Duration() time.Duration {
	return s.duration
}

// Progress returns Position/Duration in [0, 1].
func (s *Sim) Progress() float64 {
	return float64(s.Position()) / float64(s.duration)
}

// Poll returns playback.Ended the first time the end is reached while
// playing, and nil otherwise. Called on each animation frame.
func (s *Sim) Poll() playback.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || s.ended || s.released {
		return nil
	}
	if s.position() >= s.duration {
		s.ended = true
		return playback.Ended{}
	}
	return nil
}

// Release stops the clock. Later Play, Pause and Rewind calls fail.
func (s *Sim) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.offset = s.position()
	}
	s.playing = false
	s.released = true
}

// position is the unclamped clock reading capped at duration. Caller holds s.mu.
func (s *Sim) position() time.Duration {
	pos := s.offset
	if s.playing {
		pos += s.now().Sub(s.since)
	}
	return min(pos, s.duration)
}
