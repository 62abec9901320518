package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelbrown/reelcut/internal/playback"
)

func TestProbeHEAD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Type", "video/mp4")
	}))
	defer srv.Close()

	ev := NewProber(time.Second).Probe(context.Background(), srv.URL+"/a.mp4")
	if _, ok := ev.(playback.Ready); !ok {
		t.Errorf("Probe = %#v, want Ready", ev)
	}
}

func TestProbeFallsBackToRangedGET(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotRange = r.Header.Get("Range")
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("#"))
	}))
	defer srv.Close()

	ev := NewProber(time.Second).Probe(context.Background(), srv.URL+"/master.m3u8")
	if _, ok := ev.(playback.Ready); !ok {
		t.Errorf("Probe = %#v, want Ready", ev)
	}
	if gotRange != "bytes=0-0" {
		t.Errorf("Range = %q", gotRange)
	}
}

func TestProbeFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.mp4":
			w.WriteHeader(http.StatusNotFound)
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		locator string
		reason  string
	}{
		{"empty", "", "no media locator"},
		{"404", srv.URL + "/missing.mp4", "HTTP 404"},
		{"html", srv.URL + "/page", "not a video: text/html; charset=utf-8"},
		{"scheme", "rtsp://cam/1", "unsupported scheme rtsp"},
		{"missing file", filepath.Join(t.TempDir(), "nope.mp4"), ""},
	}
	p := NewProber(time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := p.Probe(context.Background(), tt.locator)
			f, ok := ev.(playback.Failed)
			if !ok {
				t.Fatalf("Probe = %#v, want Failed", ev)
			}
			if tt.reason != "" && f.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", f.Reason, tt.reason)
			}
		})
	}
}

func TestProbeLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}
	p := NewProber(time.Second)
	for _, loc := range []string{path, "file://" + path} {
		if _, ok := p.Probe(context.Background(), loc).(playback.Ready); !ok {
			t.Errorf("Probe(%q) not ready", loc)
		}
	}
}

func TestProbeCmdCarriesGeneration(t *testing.T) {
	msg := ProbeCmd(context.Background(), NewProber(time.Second), "a", 7, "")()
	probed, ok := msg.(Probed)
	if !ok || probed.ItemID != "a" || probed.Gen != 7 {
		t.Fatalf("msg = %#v", msg)
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSimClock(t *testing.T) {
	clk := &clock{t: time.Unix(100, 0)}
	s := NewSim(10*time.Second, clk.now)

	clk.advance(3 * time.Second)
	if s.Position() != 0 {
		t.Error("paused player advanced")
	}

	s.Play()
	clk.advance(4 * time.Second)
	s.Pause()
	clk.advance(time.Minute)
	if got := s.Position(); got != 4*time.Second {
		t.Errorf("Position() = %v, want 4s", got)
	}
	if p := s.Progress(); p != 0.4 {
		t.Errorf("Progress() = %v, want 0.4", p)
	}
}

func TestSimEndedOnce(t *testing.T) {
	clk := &clock{t: time.Unix(100, 0)}
	s := NewSim(2*time.Second, clk.now)
	s.Play()

	clk.advance(time.Second)
	if s.Poll() != nil {
		t.Fatal("ended early")
	}
	clk.advance(2 * time.Second)
	if _, ok := s.Poll().(playback.Ended); !ok {
		t.Fatal("expected Ended")
	}
	if s.Poll() != nil {
		t.Error("Ended reported twice")
	}

	s.Rewind()
	if s.Position() != 0 || !s.Playing() {
		t.Errorf("after rewind: position %v playing %v", s.Position(), s.Playing())
	}
	clk.advance(2 * time.Second)
	if _, ok := s.Poll().(playback.Ended); !ok {
		t.Error("expected Ended after looping")
	}
}

func TestSimDrivesSessionLoop(t *testing.T) {
	clk := &clock{t: time.Unix(100, 0)}
	sim := NewSim(time.Second, clk.now)
	sess := playback.NewSession("a", sim, true, nil, nil)
	sess.Handle(playback.Ready{})
	sess.SetActive(true)

	if !sim.Muted() || !sim.Playing() {
		t.Fatal("session did not start the sim muted")
	}
	clk.advance(2 * time.Second)
	if ev := sim.Poll(); ev != nil {
		sess.Handle(ev)
	}
	if sim.Position() != 0 || sess.State() != playback.StatePlaying {
		t.Errorf("loop failed: position %v state %s", sim.Position(), sess.State())
	}
}

func TestSimRelease(t *testing.T) {
	s := NewSim(0, nil)
	if s.Duration() != DefaultDuration {
		t.Errorf("Duration() = %v", s.Duration())
	}
	s.Release()
	if err := s.Play(); err != ErrReleased {
		t.Errorf("Play after release = %v", err)
	}
}
