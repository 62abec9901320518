package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC))
	if got != "reelcut-2026-10-19.log" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestInitWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "test"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("page loaded", "page", 0, "items", 8)
	Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName(time.Now())))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"reelcut started", "page loaded", "items=8", "reelcut shutting down"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q:\n%s", want, data)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	Info("x")
	Debug("x")
	Warn("x")
	Error("x")
	if WithPrefix("feed") != nil {
		t.Error("WithPrefix on nil logger should be nil")
	}
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() { Logger = nil }()

	WithPrefix("geo").Warn("lookup failed")
	if !strings.Contains(buf.String(), "geo") || !strings.Contains(buf.String(), "lookup failed") {
		t.Errorf("output = %q", buf.String())
	}
}
