package normalize_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/normalize"
	"github.com/lisaguthrie/sipdashboard/internal/testsupport"
)

func focusEntry(unit string) normalize.Entry {
	return normalize.Entry{
		Key:    normalize.FocusKey(unit, "K-5", "Math", "60%"),
		Kind:   normalize.KindFocus,
		Unit:   unit,
		Focus:  &normalize.FocusGroup{FocusGrades: "Grades 3-5", FocusStudentGroup: "ML"},
		Source: normalize.SourceClassifier,
	}
}

func TestCacheSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), normalize.SnapshotName)
	cache := normalize.NewCache(path, nil)
	if cache.Loaded() {
		t.Fatalf("missing snapshot should not count as loaded")
	}
	if err := cache.Store(focusEntry("Lincoln Elementary")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := cache.Store(normalize.Entry{Key: "summary:abc", Kind: normalize.KindSummary, Unit: "Adams Middle", Summary: "Adams will...", Source: normalize.SourceClassifier}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := cache.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := normalize.NewCache(path, nil)
	if !reloaded.Loaded() || reloaded.Count() != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", reloaded.Count())
	}
	list := reloaded.List()
	if list[0].Unit != "Adams Middle" || list[1].Unit != "Lincoln Elementary" {
		t.Fatalf("unexpected order %+v", list)
	}
	stats := reloaded.Stats()
	if stats.Focus != 1 || stats.Summary != 1 || stats.BySource[normalize.SourceClassifier] != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCacheRejectsInvalidEntries(t *testing.T) {
	cache := normalize.NewCache("", nil)
	bad := focusEntry("X")
	bad.Focus = &normalize.FocusGroup{FocusGrades: "All Grades"}
	if err := cache.Store(bad); err == nil {
		t.Fatalf("expected error for incomplete focus entry")
	}
	if err := cache.Store(normalize.Entry{Kind: normalize.KindSummary, Summary: "x"}); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestMalformedSnapshotEntriesAreMisses(t *testing.T) {
	path := filepath.Join(t.TempDir(), normalize.SnapshotName)
	good := focusEntry("Lincoln Elementary")
	testsupport.WriteJSON(t, path, []any{
		good,
		map[string]any{"key": "focus:broken", "kind": "focus", "unit": "Lincoln Elementary"},
		"not an object",
		map[string]any{"key": "x", "kind": "mystery", "summary": "?"},
	})
	logger, rec := testsupport.NewLogRecorder()
	cache := normalize.NewCache(path, logger)
	if cache.Count() != 1 {
		t.Fatalf("expected only the valid entry, got %d", cache.Count())
	}
	if _, ok := cache.Lookup(good.Key); !ok {
		t.Fatalf("valid entry missing")
	}
	record, ok := rec.Find(slog.LevelWarn, "malformed cache entries")
	if !ok || record.Attrs["skipped"] != "3" {
		t.Fatalf("expected warning about 3 skipped entries, got %+v", rec.Records())
	}
}

func TestUnparseableSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), normalize.SnapshotName)
	testsupport.WriteFile(t, path, []byte("{not json"))
	cache := normalize.NewCache(path, nil)
	if cache.Count() != 0 {
		t.Fatalf("expected empty cache")
	}
}

func TestClearPersistsEmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), normalize.SnapshotName)
	cache := normalize.NewCache(path, nil)
	if err := cache.Store(focusEntry("X")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if string(data) != "[]\n" {
		t.Fatalf("unexpected snapshot %q", data)
	}
	if !normalize.NewCache(path, nil).Loaded() {
		t.Fatalf("cleared snapshot should still count as loaded")
	}
}

func TestSeedFromOutputMakesPreviousValuesHits(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "schools.json")
	testsupport.WriteJSON(t, previous, []any{
		goals.School{Name: "Lincoln Elementary", Level: "Elementary School", Goals: []goals.Goal{{
			Area:                 goals.AreaMath,
			FocusGrades:          "Grades 3-5",
			FocusStudentGroup:    "ML",
			FocusGroup:           "3rd-5th multilingual learners",
			FocusArea:            "Math",
			Outcome:              "60%",
			Strategies:           strategies,
			StrategiesSummarized: "Lincoln runs number talks.",
		}}},
		map[string]any{"level": "High School"},
	})

	cache := normalize.NewCache(filepath.Join(dir, normalize.SnapshotName), nil)
	added, err := cache.SeedFromOutput(previous)
	if err != nil {
		t.Fatalf("SeedFromOutput: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 entries, got %d", added)
	}

	stub := &stubClassifier{reply: "unused"}
	n := normalize.New(cache, stub, nil, nil)
	focus := n.NormalizeFocusGroup(context.Background(), "Lincoln Elementary", "Elementary School", "3rd-5th multilingual learners", "Math", "60%", true)
	if focus.FocusStudentGroup != "ML" {
		t.Fatalf("expected previous value, got %+v", focus)
	}
	summary := n.SummarizeStrategies(context.Background(), "Lincoln Elementary", "60%", strategies, "", true)
	if summary != "Lincoln runs number talks." {
		t.Fatalf("expected previous summary, got %q", summary)
	}
	if stub.calls() != 0 {
		t.Fatalf("expected no classifier calls, got %d", stub.calls())
	}
}

func TestSeedKeepsExistingEntries(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "schools.json")
	testsupport.WriteJSON(t, previous, []goals.School{{Name: "X", Goals: []goals.Goal{{
		FocusGrades: "K-5", FocusStudentGroup: "Low Income", FocusGroup: "K-5", FocusArea: "Math", Outcome: "60%",
	}}}})
	cache := normalize.NewCache("", nil)
	existing := focusEntry("X")
	if err := cache.Store(existing); err != nil {
		t.Fatalf("Store: %v", err)
	}
	added, err := cache.SeedFromOutput(previous)
	if err != nil {
		t.Fatalf("SeedFromOutput: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected existing focus entry to win and empty summary to be skipped, added %d", added)
	}
	got, _ := cache.Lookup(existing.Key)
	if got.Focus.FocusStudentGroup != "ML" {
		t.Fatalf("existing entry overwritten: %+v", got.Focus)
	}
}

func TestSeedSkipsOfflineDefaults(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "schools.json")
	testsupport.WriteJSON(t, previous, []goals.School{{Name: "Lincoln Elementary", Goals: []goals.Goal{{
		FocusGrades:          goals.DefaultFocusGrades,
		FocusStudentGroup:    goals.DefaultStudentGroup,
		FocusGroup:           "3rd-5th multilingual learners",
		FocusArea:            "Math",
		Outcome:              "60%",
		Strategies:           strategies,
		StrategiesSummarized: normalize.FallbackSummary(strategies, ""),
	}}}})
	cache := normalize.NewCache("", nil)
	added, err := cache.SeedFromOutput(previous)
	if err != nil {
		t.Fatalf("SeedFromOutput: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected defaults to stay out of the cache, added %d", added)
	}

	stub := &stubClassifier{reply: "Lincoln runs number talks."}
	n := normalize.New(cache, stub, nil, nil)
	if got := n.SummarizeStrategies(context.Background(), "Lincoln Elementary", "60%", strategies, "", true); got != "Lincoln runs number talks." {
		t.Fatalf("expected a fresh summary, got %q", got)
	}
	if stub.calls() != 1 {
		t.Fatalf("expected 1 classifier call, got %d", stub.calls())
	}
}

func TestSeedFromMissingOutput(t *testing.T) {
	added, err := normalize.NewCache("", nil).SeedFromOutput(filepath.Join(t.TempDir(), "schools.json"))
	if err != nil || added != 0 {
		t.Fatalf("expected no-op, got %d, %v", added, err)
	}
}
