package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// infoFieldLimit caps the fields printed under an info or warning line; the
// rest stay in the run log.
const infoFieldLimit = 6

// headerKeys are folded into the line header instead of listed below it.
var headerKeys = []string{FieldComponent, FieldUnit, FieldPage}

// fileOnlyKeys are left to the JSON run log.
var fileOnlyKeys = []string{FieldRunID, FieldBucket}

// fieldOrder lists the keys shown first under a line.
var fieldOrder = []string{
	FieldAlert,
	FieldEventType,
	FieldDecisionType,
	"decision_result",
	"decision_reason",
	"error",
	FieldErrorHint,
	FieldImpact,
}

type field struct {
	key   string
	value slog.Value
}

// consoleHandler prints one header line per record followed by an indented
// list of its fields:
//
//	14:02:11 WARN [normalize] Lincoln Elementary p.12 – classifier failed
//	    - event_type: focus_fallback
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := make([]field, 0, record.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields = appendField(fields, h.groups, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.groups, a)
		return true
	})
	fields = lastWins(fields)

	header := map[string]string{}
	verbose := record.Level < slog.LevelInfo
	listed := fields[:0:0]
	for _, f := range fields {
		if slices.Contains(headerKeys, f.key) {
			header[f.key] = attrString(f.value)
			if !verbose {
				continue
			}
		}
		if !verbose && slices.Contains(fileOnlyKeys, f.key) {
			continue
		}
		listed = append(listed, f)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s", formatTimestamp(ts), levelLabel(record.Level))
	if c := header[FieldComponent]; c != "" {
		fmt.Fprintf(&buf, " [%s]", c)
	}
	if u := header[FieldUnit]; u != "" {
		fmt.Fprintf(&buf, " %s", u)
	}
	if p := header[FieldPage]; p != "" {
		fmt.Fprintf(&buf, " p.%s", p)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	fmt.Fprintf(&buf, " – %s", msg)
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')

	more := 0
	if !verbose {
		listed = prioritize(listed)
		if len(listed) > infoFieldLimit {
			more = len(listed) - infoFieldLimit
			listed = listed[:infoFieldLimit]
		}
	}
	for _, f := range listed {
		fmt.Fprintf(&buf, "    - %s: %s\n", f.key, formatValue(f.value))
	}
	switch {
	case more == 1:
		buf.WriteString("    + 1 more field in log file\n")
	case more > 1:
		fmt.Fprintf(&buf, "    + %d more fields in log file\n", more)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(slices.Clip(h.attrs), attrs...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(slices.Clip(h.groups), name)
	return &next
}

// prioritize moves the keys in fieldOrder to the front, keeping the relative
// order of everything else.
func prioritize(fields []field) []field {
	rank := func(f field) int {
		if i := slices.Index(fieldOrder, f.key); i >= 0 {
			return i
		}
		return len(fieldOrder)
	}
	out := slices.Clone(fields)
	slices.SortStableFunc(out, func(a, b field) int { return rank(a) - rank(b) })
	return out
}

// lastWins drops earlier fields whose key is repeated, keeping the position
// of the first occurrence and the value of the last.
func lastWins(fields []field) []field {
	pos := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := pos[f.key]; ok {
			out[i].value = f.value
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func appendField(dst []field, groups []string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(slices.Clip(groups), a.Key)
		}
		for _, child := range a.Value.Group() {
			dst = appendField(dst, groups, child)
		}
		return dst
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(dst, field{key: key, value: a.Value})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
