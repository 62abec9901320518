package otel

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/reelcut/internal/logging"
)

// queueSize bounds the number of encoded events waiting for the writer.
const queueSize = 4096

// queued pairs the encoded line with its Event; the ring keeps Dur, which
// the line drops.
type queued struct {
	line []byte
	ev   Event
}

// Logger appends events to a JSONL sink from a single writer goroutine.
//
// Only the writer goroutine touches w. mu guards ring. A nil *Logger
// discards everything, so pager, sessions and handlers take one optionally.
type Logger struct {
	mu      sync.Mutex
	ring    *RingBuffer
	run     string
	queue   chan queued
	w       io.Writer
	dropped atomic.Uint64
	closed  atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// NewLogger starts a Logger writing to w. Close flushes it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		run:   uuid.NewString(),
		queue: make(chan queued, queueSize),
		w:     w,
		done:  make(chan struct{}),
	}
	go l.write()
	return l
}

// NewNullLogger discards lines but still feeds an attached ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) write() {
	defer close(l.done)
	for q := range l.queue {
		if _, err := l.w.Write(q.line); err != nil {
			l.dropped.Add(1)
		}
		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()
		if ring != nil {
			ring.Push(q.ev)
		}
	}
}

// Emit stamps e with the time, the run id and, when Comp is empty, the
// component named by the kind prefix, then queues it. A full queue or a
// closed logger counts the event as dropped instead of blocking the UI.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	// Close may win the race after the check above.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Comp == "" {
		e.Comp = e.Kind.Component()
	}
	e.SessionID = l.run

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	select {
	case l.queue <- queued{line: append(line, '\n'), ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Lifecycle records a process start or stop marker.
func (l *Logger) Lifecycle(kind EventKind, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Msg: msg})
}

// SetRingBuffer mirrors every written event into rb for the debug overlay.
func (l *Logger) SetRingBuffer(rb *RingBuffer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ring = rb
	l.mu.Unlock()
}

// SessionID is the run id stamped on every event.
func (l *Logger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.run
}

func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close drains the queue and stops the writer. Safe to call twice.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.queue)
		<-l.done
		if n := l.dropped.Load(); n > 0 {
			logging.Warn("events dropped", "count", n, "session", l.run)
		}
	})
}
