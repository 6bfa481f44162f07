// Package logger builds the process-wide *slog.Logger, grounded on the
// teacher's packages/server/pkg/logger/mocklogger test double: production
// code threads a concrete *slog.Logger through constructors rather than
// reaching for a package-level global, and tests substitute a handler
// that records what was logged instead of asserting against stdout.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// New returns the production logger: JSON lines on stdout, level
// configurable so a degraded device or a dropped tick can be dialed from
// Info to Debug without a redeploy.
func New(level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Discard returns a logger that drops everything, for tests that don't
// assert on log output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RecordingHandler is a slog.Handler that stores every record it
// receives, mirroring the teacher's MockHandler
// (packages/server/pkg/logger/mocklogger/mocklogger.go) for tests that
// need to assert a warning was actually logged (e.g. a dropped
// overlapping tick, a degraded device).
type RecordingHandler struct {
	mu       sync.Mutex
	Messages []string
	Levels   []slog.Level
}

func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Messages = append(h.Messages, r.Message)
	h.Levels = append(h.Levels, r.Level)
	return nil
}

func (h *RecordingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *RecordingHandler) WithGroup(_ string) slog.Handler      { return h }

// Has reports whether message was logged at any level, for tests that
// only care that a particular warning fired.
func (h *RecordingHandler) Has(message string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.Messages {
		if m == message {
			return true
		}
	}
	return false
}

// NewRecording returns a logger backed by a fresh RecordingHandler the
// caller can inspect after the call under test.
func NewRecording() (*slog.Logger, *RecordingHandler) {
	h := &RecordingHandler{}
	return slog.New(h), h
}
