package testsupport

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogRecord is a captured log entry with its attributes flattened to strings.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that keeps every record for assertions.
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewLogRecorder returns a debug-level logger backed by a recorder.
func NewLogRecorder() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{mu: &sync.Mutex{}, records: &[]LogRecord{}}
	return slog.New(rec), rec
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	entry := LogRecord{Level: record.Level, Message: record.Message, Attrs: map[string]string{}}
	for _, a := range r.attrs {
		entry.Attrs[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.String()
		return true
	})
	r.mu.Lock()
	*r.records = append(*r.records, entry)
	r.mu.Unlock()
	return nil
}

func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *r
	clone.attrs = append(append([]slog.Attr(nil), r.attrs...), attrs...)
	return &clone
}

func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of everything captured so far.
func (r *LogRecorder) Records() []LogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogRecord(nil), *r.records...)
}

// Find returns the first record at level whose message contains substr.
func (r *LogRecorder) Find(level slog.Level, substr string) (LogRecord, bool) {
	for _, rec := range r.Records() {
		if rec.Level == level && strings.Contains(rec.Message, substr) {
			return rec, true
		}
	}
	return LogRecord{}, false
}

// Count returns how many records were logged at level.
func (r *LogRecorder) Count(level slog.Level) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Level == level {
			n++
		}
	}
	return n
}
