package otel

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// traceEnabled is set once at package init from REELCUT_TRACE.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("REELCUT_TRACE") != "")
}

// TraceEnabled reports whether REELCUT_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}

// TraceMsg records a message entering the UI loop and returns a func that
// records its completion with the handling duration. No-op unless tracing
// is enabled.
func TraceMsg(l *Logger, msg any) func() {
	if !TraceEnabled() || l == nil {
		return func() {}
	}
	name := fmt.Sprintf("%T", msg)
	start := time.Now()
	l.Emit(Event{Level: LevelDebug, Kind: KindMsgReceived, Comp: "ui", Msg: name})
	return func() {
		l.Emit(Event{Level: LevelDebug, Kind: KindMsgHandled, Comp: "ui", Msg: name, Dur: time.Since(start)})
	}
}
