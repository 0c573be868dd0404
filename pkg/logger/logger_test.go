package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithJobState(ctx, "job-1", "uploading")

	log.Error(ctx, "boom", errors.New("boom"))

	for _, field := range []string{"\"request_id\"", "\"job_id\"", "\"job_state\"", "\"stack\""} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Fatalf("expected %s in entry=%s", field, buf.String())
		}
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})
	log.Warn(context.Background(), "quiet")
	if bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("did not expect stack when warn stack disabled")
	}

	buf.Reset()
	log = New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "loud")
	if !bytes.Contains(buf.Bytes(), []byte("\"stack\"")) {
		t.Fatalf("expected stack when warn stack enabled")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	ctx := log.WithField(context.Background(), "k", "v")
	log.Info(ctx, "ignored")
	log.Error(ctx, "ignored", errors.New("x"))
}

func TestRequestIDReadableFromContext(t *testing.T) {
	log := Nop()
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	ctx := log.WithRequestID(context.Background(), "req-9")
	ctx = log.WithField(ctx, "k", "v")
	if got := RequestID(ctx); got != "req-9" {
		t.Fatalf("expected req-9, got %q", got)
	}
}

func TestConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Format: FormatConsole, Output: buf})
	log.Info(context.Background(), "hello")
	if bytes.HasPrefix(bytes.TrimSpace(buf.Bytes()), []byte("{")) {
		t.Fatalf("expected console output, got %s", buf.String())
	}
}
