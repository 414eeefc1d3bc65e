package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_WritesServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "signald", slog.LevelInfo)
	l.Debug("hidden")
	l.Info("evaluated", "points", 15)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at info level, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["service"] != "signald" || rec["msg"] != "evaluated" || rec["points"] != float64(15) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRunID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if id := RunID(ctx); id != "" {
		t.Errorf("expected empty run id, got %q", id)
	}
	if attrs := LogWithRun(ctx); attrs != nil {
		t.Errorf("expected nil attrs without run id, got %v", attrs)
	}

	ctx = WithRunID(ctx, "BTC-1")
	if id := RunID(ctx); id != "BTC-1" {
		t.Errorf("expected 'BTC-1', got %q", id)
	}
	if attrs := LogWithRun(ctx); len(attrs) != 1 {
		t.Errorf("expected one attr, got %v", attrs)
	}
}

func TestNewRunID(t *testing.T) {
	id := NewRunID("BTC")
	if !strings.HasPrefix(id, "BTC-") || len(id) != len("BTC-")+8 {
		t.Errorf("unexpected run id %s", id)
	}
	if other := NewRunID("BTC"); other == id {
		t.Errorf("run ids must differ, got %s twice", id)
	}
}
