package logging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogServiceLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogServiceLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Info("consume started", LogFields{"channel_id": "abc"})
	if out := buf.String(); !strings.Contains(out, "consume started") || !strings.Contains(out, "channel_id=abc") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.Error("setup failed", fmt.Errorf("dial refused"), LogFields{"attempt": 3})
	if out := buf.String(); !strings.Contains(out, "dial refused") || !strings.Contains(out, "attempt=3") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.With(LogFields{"driver": "amqp"}).Warn("poll error", nil)
	if out := buf.String(); !strings.Contains(out, "driver=amqp") {
		t.Fatalf("expected With fields to persist, got: %s", out)
	}
}

func TestNewSlogServiceLoggerPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil logger")
		}
	}()
	NewSlogServiceLogger(nil)
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	// Must not panic and With must keep returning a usable logger.
	logger.With(LogFields{"k": "v"}).Info("ignored", nil)
	logger.Debug("ignored", nil)
	logger.Warn("ignored", nil)
	logger.Error("ignored", fmt.Errorf("boom"), nil)
}

type recordingEntry struct {
	fields map[string]any
	err    error
	lines  *[]string
}

func (r recordingEntry) log(level string, args ...any) {
	*r.lines = append(*r.lines, fmt.Sprintf("%s %v fields=%v err=%v", level, args, r.fields, r.err))
}

func (r recordingEntry) Error(args ...any) { r.log("error", args...) }
func (r recordingEntry) Warn(args ...any)  { r.log("warn", args...) }
func (r recordingEntry) Info(args ...any)  { r.log("info", args...) }
func (r recordingEntry) Debug(args ...any) { r.log("debug", args...) }

func (r recordingEntry) WithError(err error) recordingEntry {
	clone := r.clone()
	clone.err = err
	return clone
}

func (r recordingEntry) WithField(key string, value any) recordingEntry {
	clone := r.clone()
	clone.fields[key] = value
	return clone
}

func (r recordingEntry) clone() recordingEntry {
	fields := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		fields[k] = v
	}
	return recordingEntry{fields: fields, err: r.err, lines: r.lines}
}

func TestEntryServiceLogger(t *testing.T) {
	var lines []string
	entry := recordingEntry{fields: map[string]any{}, lines: &lines}
	logger := NewEntryServiceLogger(entry)

	logger.Info("hello", LogFields{"k": "v"})
	logger.Error("bad", fmt.Errorf("boom"), nil)

	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "k:v") && !strings.Contains(lines[0], "map[k:v]") {
		t.Errorf("expected field in first line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "boom") {
		t.Errorf("expected error in second line, got %q", lines[1])
	}
}

func TestLoggerContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogServiceLogger(slog.New(slog.NewTextHandler(buf, nil)))

	ctx := IntoContext(context.Background(), logger)
	FromContext(ctx).Info("from context", nil)
	if !strings.Contains(buf.String(), "from context") {
		t.Fatalf("expected stored logger to be used, got %s", buf.String())
	}

	// Missing logger falls back to nop.
	FromContext(context.Background()).Info("ignored", nil)
}
