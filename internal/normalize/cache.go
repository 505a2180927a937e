package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lisaguthrie/sipdashboard/internal/fileutil"
	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/services"
	"github.com/lisaguthrie/sipdashboard/internal/textutil"
)

// SnapshotName is the cache snapshot file written beside the outputs.
const SnapshotName = "normalization_cache.json"

// FocusGroup is the normalized target of a goal.
type FocusGroup struct {
	FocusGrades       string `json:"focus_grades"`
	FocusStudentGroup string `json:"focus_student_group"`
}

// DefaultFocusGroup is used whenever a goal cannot be classified.
func DefaultFocusGroup() FocusGroup {
	return FocusGroup{FocusGrades: goals.DefaultFocusGrades, FocusStudentGroup: goals.DefaultStudentGroup}
}

// Kind separates focus entries from summary entries.
type Kind string

const (
	KindFocus   Kind = "focus"
	KindSummary Kind = "summary"
)

// Source records where a cached value came from.
type Source string

const (
	SourceClassifier     Source = "classifier"
	SourcePreviousOutput Source = "previous_output"
)

// Entry is one cached classification.
type Entry struct {
	Key      string      `json:"key"`
	Kind     Kind        `json:"kind"`
	Unit     string      `json:"unit"`
	Focus    *FocusGroup `json:"focus,omitempty"`
	Summary  string      `json:"summary,omitempty"`
	Source   Source      `json:"source"`
	CachedAt time.Time   `json:"cached_at"`
}

// Validate reports an entry that cannot serve a lookup.
func (e Entry) Validate() error {
	switch {
	case strings.TrimSpace(e.Key) == "":
		return errors.New("entry has no key")
	case e.Kind == KindFocus && (e.Focus == nil || e.Focus.FocusGrades == "" || e.Focus.FocusStudentGroup == ""):
		return errors.New("focus entry is missing focus_grades or focus_student_group")
	case e.Kind == KindSummary && strings.TrimSpace(e.Summary) == "":
		return errors.New("summary entry is empty")
	case e.Kind != KindFocus && e.Kind != KindSummary:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
	return nil
}

// FocusKey fingerprints the inputs of a focus classification.
func FocusKey(unit, focusGroup, focusArea, outcome string) string {
	return fingerprint(KindFocus, unit, focusGroup, focusArea, outcome)
}

// SummaryKey fingerprints the inputs of a summary. items are the strategy
// lines the summary is built from.
func SummaryKey(unit, outcome string, items []string) string {
	return fingerprint(KindSummary, append([]string{unit, outcome}, items...)...)
}

func fingerprint(kind Kind, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0x1f})
		h.Write([]byte(strings.ToLower(textutil.Clean(p))))
	}
	return string(kind) + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

// CacheStats summarizes cache contents.
type CacheStats struct {
	Total    int            `json:"total"`
	Focus    int            `json:"focus"`
	Summary  int            `json:"summary"`
	BySource map[Source]int `json:"by_source"`
}

// Cache is the normalization cache. Lookups and stores are safe for
// concurrent use; the snapshot is written only by Save.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
	loaded  bool
}

// NewCache loads the snapshot at path. A missing snapshot yields an empty
// cache; malformed entries are skipped and count as misses.
func NewCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "normcache")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if path == "" {
		return c
	}
	if err := c.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load normalization cache", "normcache_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `sipdash cache clear` to reset the snapshot"),
			logging.String(logging.FieldImpact, "goals will be reclassified"),
		)
	}
	return c
}

// Path returns the snapshot location.
func (c *Cache) Path() string {
	return c.path
}

// Loaded reports whether a snapshot file existed when the cache was opened.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Lookup returns the entry for key.
func (c *Cache) Lookup(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Store records entry in memory. Invalid entries are rejected.
func (c *Cache) Store(entry Entry) error {
	if err := entry.Validate(); err != nil {
		return services.Wrap(services.ErrCacheEntry, entry.Unit, "cache store", "", err)
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	c.mu.Lock()
	c.entries[entry.Key] = entry
	c.mu.Unlock()
	return nil
}

// List returns entries ordered by unit, kind, then key.
func (c *Cache) List() []Entry {
	c.mu.RLock()
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Key < b.Key
	})
	return entries
}

// Count returns the number of entries.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats counts entries by kind and source.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := CacheStats{Total: len(c.entries), BySource: map[Source]int{}}
	for _, e := range c.entries {
		switch e.Kind {
		case KindFocus:
			stats.Focus++
		case KindSummary:
			stats.Summary++
		}
		stats.BySource[e.Source]++
	}
	return stats
}

// Clear drops every entry and persists the empty snapshot, so the next run
// neither hits nor reseeds from previous output.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
	if err := c.Save(); err != nil {
		return err
	}
	c.logger.Debug("cleared normalization cache")
	return nil
}

// Save writes the snapshot atomically. It is a no-op without a path.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(c.List(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	c.loaded = true
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	skipped := 0
	for i, item := range raw {
		var entry Entry
		if err := json.Unmarshal(item, &entry); err == nil {
			err = entry.Validate()
			if err == nil {
				c.entries[entry.Key] = entry
				continue
			}
		}
		skipped++
		c.logger.Debug("skipped malformed cache entry", logging.Int("index", i))
	}
	if skipped > 0 {
		logging.WarnWithContext(c.logger, "malformed cache entries ignored", "normcache_entry_invalid",
			logging.Int("skipped", skipped),
			logging.Error(services.Wrap(services.ErrCacheEntry, "", "cache load", fmt.Sprintf("%d malformed entries", skipped), nil)),
			logging.String(logging.FieldErrorHint, "the affected goals are reclassified"),
			logging.String(logging.FieldImpact, "extra classifier calls"),
		)
	}
	return nil
}
