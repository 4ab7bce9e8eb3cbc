package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(slog.NewTextHandler(out, &slog.HandlerOptions{Level: LevelTrace}))

	l.Info("hello", "n", 1)
	if !bytes.Contains(out.Bytes(), []byte("hello")) {
		t.Errorf("expected output to contain message, got %q", out.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("n=1")) {
		t.Errorf("expected output to contain attr, got %q", out.String())
	}
}

func TestLoggerWith(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(slog.NewTextHandler(out, &slog.HandlerOptions{Level: LevelTrace}))
	child := l.With("component", "registry")
	child.Warn("eviction")

	if !bytes.Contains(out.Bytes(), []byte("component=registry")) {
		t.Errorf("expected bound attr in output, got %q", out.String())
	}
}

func TestJSONHandlerEmitsDebug(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: LevelTrace}))
	l.Debug("hi there")

	var rec map[string]any
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if rec["msg"] != "hi there" {
		t.Errorf("msg = %v, want %q", rec["msg"], "hi there")
	}
}

func BenchmarkLoggerInfo(b *testing.B) {
	l := NewLogger(slog.NewTextHandler(io.Discard, nil))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Info("This is a message", "foo", i, "bonk", "a string with text")
	}
}
