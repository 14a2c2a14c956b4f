// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log call. Attrs include those bound with
// Logger.With.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// CaptureHandler is a slog.Handler that records every call in memory.
// Handlers derived with WithAttrs or WithGroup share the same records.
type CaptureHandler struct {
	store *logStore
	attrs []slog.Attr
	group string
	t     testing.TB
}

// NewCaptureHandler returns an empty handler. When t is non-nil every
// record is echoed with t.Logf.
func NewCaptureHandler(t testing.TB) *CaptureHandler {
	return &CaptureHandler{store: &logStore{}, t: t}
}

// NewTestLogger returns a logger writing to a new CaptureHandler.
func NewTestLogger(t testing.TB) (*slog.Logger, *CaptureHandler) {
	h := NewCaptureHandler(t)
	return slog.New(h), h
}

// Enabled reports true for every level.
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.key(a.Key)] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.store.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &next
}

// WithGroup implements slog.Handler. Keys logged under a group are
// prefixed "group.".
func (h *CaptureHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.key(name)
	return &next
}

func (h *CaptureHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// Records returns a copy of everything captured so far.
func (h *CaptureHandler) Records() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return append([]LogRecord(nil), h.store.records...)
}

// RecordsAt returns the records logged at level.
func (h *CaptureHandler) RecordsAt(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first record whose message contains msg.
func (h *CaptureHandler) Find(msg string) (LogRecord, bool) {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, msg) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// ContainsMessage reports whether any record's message contains msg.
func (h *CaptureHandler) ContainsMessage(msg string) bool {
	_, ok := h.Find(msg)
	return ok
}

// Reset drops the captured records.
func (h *CaptureHandler) Reset() {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.records = nil
}
