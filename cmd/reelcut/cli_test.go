package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/reelcut/internal/model"
)

// runCLI executes the root command in-process against an isolated config.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.json")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points the sqlite source and the log directory into a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("REELCUT_SOURCE", "sqlite")
	t.Setenv("REELCUT_SOURCE_DSN", filepath.Join(dir, "data", "feed.db"))
	t.Setenv("REELCUT_LOG_DIR", filepath.Join(dir, "logs"))
	return dir
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.Contains(out, "reelcut version "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestSeedThenPage(t *testing.T) {
	dir := isolate(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	first := filepath.Join(dir, "a.json")
	writeJSON(t, first, []model.FeedItem{
		{ID: "fade-1", MediaURL: "https://cdn.test/1.mp4", AuthorName: "Marco", Specialty: "fade", Caption: "low fade", CreatedAt: base},
		{ID: "beard-1", MediaURL: "https://cdn.test/2.mp4", AuthorName: "Ana", Specialty: "beard", CreatedAt: base.Add(time.Minute)},
	})
	second := filepath.Join(dir, "b.json")
	writeJSON(t, second, []model.FeedItem{
		{MediaURL: "https://cdn.test/3.mp4", AuthorName: "Joao", Specialty: "fade", CreatedAt: base.Add(2 * time.Minute)},
	})

	out, err := runCLI(t, "seed", first, second)
	if err != nil {
		t.Fatalf("seed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 3 of 3 items") {
		t.Errorf("seed output = %q", out)
	}

	out, err = runCLI(t, "seed", first)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if !strings.Contains(out, "Imported 0 of 2 items") {
		t.Errorf("duplicates should be skipped, got %q", out)
	}

	out, err = runCLI(t, "page", "--json", "--specialty", "fade")
	if err != nil {
		t.Fatalf("page: %v\n%s", err, out)
	}
	var items []model.FeedItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("page output is not JSON: %v\n%s", err, out)
	}
	if len(items) != 2 {
		t.Fatalf("got %d fade items, want 2", len(items))
	}
	if _, err := uuid.Parse(items[0].ID); err != nil {
		t.Errorf("newest item id %q should be a generated UUID", items[0].ID)
	}
	if items[1].ID != "fade-1" {
		t.Errorf("items[1].ID = %q, want fade-1", items[1].ID)
	}

	out, err = runCLI(t, "page")
	if err != nil {
		t.Fatalf("page table: %v", err)
	}
	if !strings.Contains(out, "@Marco") || !strings.Contains(out, "low fade") {
		t.Errorf("table output missing rows:\n%s", out)
	}

	out, err = runCLI(t, "page", "3")
	if err != nil || !strings.Contains(out, "Page 3 is empty") {
		t.Errorf("page 3 = %q, %v", out, err)
	}
}

func TestSeedRejectsBadInput(t *testing.T) {
	dir := isolate(t)

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "seed", bad); err == nil {
		t.Error("malformed file should fail")
	}

	noMedia := filepath.Join(dir, "nomedia.json")
	writeJSON(t, noMedia, []model.FeedItem{{ID: "x"}})
	if _, err := runCLI(t, "seed", noMedia); err == nil {
		t.Error("item without media_url should fail")
	}

	if _, err := runCLI(t, "seed", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestSeedNeedsWritableSource(t *testing.T) {
	isolate(t)
	t.Setenv("REELCUT_SOURCE", "http")
	t.Setenv("REELCUT_SOURCE_URL", "http://127.0.0.1:1/feed")

	dir := t.TempDir()
	file := filepath.Join(dir, "a.json")
	writeJSON(t, file, []model.FeedItem{{ID: "a", MediaURL: "x.mp4"}})

	_, err := runCLI(t, "seed", file)
	if err == nil || !strings.Contains(err.Error(), "sqlite or postgres") {
		t.Errorf("err = %v", err)
	}
}

func TestPageRejectsBadIndex(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "page", "-1"); err == nil {
		t.Error("negative index should fail")
	}
}

func TestEventsFilters(t *testing.T) {
	dir := isolate(t)
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		t.Fatal(err)
	}
	lines := []string{
		`{"t":"2026-04-01T09:00:00Z","level":"info","kind":"feed.fetch_start","comp":"feed","req":1}`,
		`{"t":"2026-04-01T09:00:01Z","level":"info","kind":"coord.elect","comp":"coord","item":"r1","to":"r1","msg":"cold start"}`,
		`not json`,
		`{"t":"2026-04-01T09:00:02Z","level":"warn","kind":"playback.media_error","comp":"playback","item":"r2","err":"HTTP 404"}`,
		`{"t":"2026-04-01T09:00:03Z","level":"debug","kind":"playback.transition","comp":"playback","item":"r1","from":"ready","to":"playing"}`,
	}
	path := filepath.Join(logDir, "reelcut.events.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"all", nil, []string{"feed.fetch_start", "coord.elect", "err=HTTP 404", "ready->playing"}, nil},
		{"kind prefix", []string{"--kind", "playback"}, []string{"playback.media_error", "playback.transition"}, []string{"coord.elect"}},
		{"min level", []string{"--level", "warn"}, []string{"err=HTTP 404"}, []string{"feed.fetch_start", "ready->playing"}},
		{"item", []string{"--item", "r1"}, []string{"cold start", "ready->playing"}, []string{"HTTP 404"}},
		{"tail", []string{"-n", "1"}, []string{"playback.transition"}, []string{"coord.elect"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, append([]string{"events"}, tt.args...)...)
			if err != nil {
				t.Fatalf("events: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in:\n%s", w, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("unexpected %q in:\n%s", nw, out)
				}
			}
		})
	}
}

func TestEventsMissingLog(t *testing.T) {
	isolate(t)
	_, err := runCLI(t, "events")
	if err == nil || !strings.Contains(err.Error(), "event log not found") {
		t.Errorf("err = %v", err)
	}
}
