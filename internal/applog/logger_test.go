package applog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newFileLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatal(err)
	}
	l := &Logger{file: f, enabled: true}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelDebug,
		"bogus":   LevelDebug,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelThresholdFiltersLines(t *testing.T) {
	l, path := newFileLogger(t)
	l.SetLevel(LevelWarn)

	l.Debug("suppressed debug")
	l.Info("suppressed info")
	l.Warn("kept warn")
	l.Error("kept error")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "suppressed") {
		t.Errorf("lines below the threshold written:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] kept warn") || !strings.Contains(out, "[ERROR] kept error") {
		t.Errorf("lines at or above the threshold missing:\n%s", out)
	}
}

func TestDefaultLevelKeepsDebug(t *testing.T) {
	l, path := newFileLogger(t)

	l.Debug("first debug line", "k", "v")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[DEBUG] first debug line k=v") {
		t.Errorf("debug line missing at default level:\n%s", data)
	}
}
