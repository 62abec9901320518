// Package media provides the terminal's media element: a probe that turns a
// locator into a Ready or Failed event, and a simulated clocked player.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/reelcut/internal/playback"
)

// Probed is delivered when a probe finishes. Gen is the registry mount
// generation the probe was started for.
type Probed struct {
	ItemID string
	Gen    uint64
	Event  playback.Event
	Took   time.Duration
}

// Checker turns a locator into playback.Ready or playback.Failed.
type Checker interface {
	Probe(ctx context.Context, locator string) playback.Event
}

// ProbeCmd runs c off the event loop and delivers Probed.
func ProbeCmd(ctx context.Context, c Checker, itemID string, gen uint64, locator string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ev := c.Probe(ctx, locator)
		return Probed{ItemID: itemID, Gen: gen, Event: ev, Took: time.Since(start)}
	}
}

// Prober checks that a media locator is reachable and looks like video.
type Prober struct {
	client *http.Client
}

// NewProber creates a prober whose requests time out after timeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{client: &http.Client{Timeout: timeout}}
}

// Probe returns playback.Ready or playback.Failed. HTTP locators are checked
// with HEAD, falling back to a one-byte ranged GET when HEAD is refused.
// file URLs and bare paths are checked on disk.
func (p *Prober) Probe(ctx context.Context, locator string) playback.Event {
	if locator == "" {
		return playback.Failed{Reason: "no media locator"}
	}
	u, err := url.Parse(locator)
	if err != nil {
		return playback.Failed{Reason: fmt.Sprintf("bad locator: %v", err)}
	}

	switch u.Scheme {
	case "http", "https":
		return p.probeHTTP(ctx, locator)
	case "file", "":
		if _, err := os.Stat(u.Path); err != nil {
			return playback.Failed{Reason: err.Error()}
		}
		return playback.Ready{}
	default:
		return playback.Failed{Reason: "unsupported scheme " + u.Scheme}
	}
}

func (p *Prober) probeHTTP(ctx context.Context, locator string) playback.Event {
	resp, err := p.do(ctx, http.MethodHead, locator, false)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		resp, err = p.do(ctx, http.MethodGet, locator, true)
	}
	if err != nil {
		return playback.Failed{Reason: err.Error()}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return playback.Failed{Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if ct := resp.Header.Get("Content-Type"); !playableType(ct) {
		return playback.Failed{Reason: "not a video: " + ct}
	}
	return playback.Ready{}
}

func (p *Prober) do(ctx context.Context, method, locator string, ranged bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "reelcut/1.0")
	if ranged {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	resp.Body.Close()
	return resp, nil
}

// playableType accepts video types, HLS playlists and unlabelled bytes.
func playableType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "video/"):
		return true
	case mediaType == "application/vnd.apple.mpegurl",
		mediaType == "application/x-mpegurl",
		mediaType == "application/octet-stream":
		return true
	}
	return false
}
