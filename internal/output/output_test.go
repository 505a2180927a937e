package output_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/normalize"
	"github.com/lisaguthrie/sipdashboard/internal/output"
)

func sampleSchools() []goals.School {
	return []goals.School{
		{
			Name:  "Lincoln Elementary",
			Level: "Elementary School",
			Goals: []goals.Goal{
				{
					Area:              goals.AreaMath,
					FocusGrades:       "3-5",
					FocusStudentGroup: "All Students",
					FocusArea:         "Number sense",
					Outcome:           "80% of students meet standard",
					CurrentData:       "62% met standard",
					Strategies: []goals.Strategy{
						{Action: "Daily number talks", Measures: "Walkthroughs"},
						{Action: "Math PLCs", Measures: "PLC notes"},
					},
				},
				{
					Area:              goals.AreaSEL,
					FocusGrades:       "All Grades",
					FocusStudentGroup: "All Students",
					Outcome:           "Belonging rises to 85%",
					RawStrategies:     "Advisory lessons & family nights",
				},
			},
		},
		{
			Name:  "Rose Hill Middle",
			Level: "Middle School",
			Goals: []goals.Goal{
				{Area: goals.AreaELA, FocusGrades: "6", FocusStudentGroup: "ML", Outcome: "Reading growth"},
			},
		},
	}
}

func TestFlattenBlockShape(t *testing.T) {
	got := string(output.Flatten(sampleSchools()[:1]))
	want := `School: Lincoln Elementary (Elementary School)
Goal #1 (Math, 3-5, All Students): 80% of students meet standard
Focus Area: Number sense
Current Data: 62% met standard
Strategies:
 * Action: Daily number talks
   Measures: Walkthroughs
 * Action: Math PLCs
   Measures: PLC notes

School: Lincoln Elementary (Elementary School)
Goal #2 (SEL, All Grades, All Students): Belonging rises to 85%
Focus Area: 
Current Data: 
Strategies:
 * Action: Advisory lessons & family nights
   Measures: 

`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flattened output mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenAttribution(t *testing.T) {
	schools := sampleSchools()
	blocks := strings.Split(strings.TrimSuffix(string(output.Flatten(schools)), "\n\n"), "\n\n")

	var expected []string
	for _, school := range schools {
		for range school.Goals {
			expected = append(expected, "School: "+school.Name+" ("+school.Level+")")
		}
	}
	if len(blocks) != len(expected) {
		t.Fatalf("expected %d blocks, got %d", len(expected), len(blocks))
	}
	for i, block := range blocks {
		first := strings.SplitN(block, "\n", 2)[0]
		if first != expected[i] {
			t.Fatalf("block %d attributed to %q, want %q", i, first, expected[i])
		}
	}
}

func TestBlockMatchesFlatten(t *testing.T) {
	schools := sampleSchools()
	block := output.Block(schools[1], 1, schools[1].Goals[0])
	if !strings.HasPrefix(block, "School: Rose Hill Middle (Middle School)\nGoal #1 (ELA, 6, ML): Reading growth") {
		t.Fatalf("unexpected block:\n%s", block)
	}
	if strings.HasSuffix(block, "\n") {
		t.Fatalf("expected block without trailing newline, got %q", block)
	}
}

func TestEncodeSchoolsFormat(t *testing.T) {
	data, err := output.EncodeSchools(sampleSchools())
	if err != nil {
		t.Fatalf("EncodeSchools: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "[\n  {\n    \"name\": \"Lincoln Elementary\",") {
		t.Fatalf("unexpected prefix:\n%s", text[:80])
	}
	if !strings.HasSuffix(text, "]\n") {
		t.Fatal("expected trailing newline")
	}
	if !strings.Contains(text, "lessons & family") {
		t.Fatal("expected ampersand to stay unescaped")
	}
	if !strings.Contains(text, `"strategies": []`) {
		t.Fatal("expected empty strategies to render as []")
	}
	if strings.Contains(text, "Notes") || strings.Contains(text, "Bucket") {
		t.Fatal("internal fields leaked into output")
	}
}

func TestCommitWritesArtifactsAndReportsChanges(t *testing.T) {
	dir := t.TempDir()
	writer := output.NewWriter(dir, logging.NewNop())
	cache := normalize.NewCache(filepath.Join(dir, normalize.SnapshotName), logging.NewNop())
	if err := cache.Store(normalize.Entry{
		Key:     normalize.SummaryKey("Lincoln Elementary", "80%", []string{"a | b"}),
		Kind:    normalize.KindSummary,
		Unit:    "Lincoln Elementary",
		Summary: "Number talks.",
		Source:  normalize.SourceClassifier,
	}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	first, err := writer.Commit(context.Background(), sampleSchools(), cache)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if first.Schools.Unchanged || first.Flattened.Unchanged {
		t.Fatal("first commit should report new files")
	}
	if first.Cache == nil || first.Cache.Bytes == 0 {
		t.Fatalf("expected cache artifact, got %+v", first.Cache)
	}

	loaded, err := output.ReadSchools(writer.SchoolsPath())
	if err != nil {
		t.Fatalf("ReadSchools: %v", err)
	}
	if diff := cmp.Diff(sampleSchools()[1], loaded[1], cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	second, err := writer.Commit(context.Background(), sampleSchools(), cache)
	if err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	if !second.Schools.Unchanged || !second.Flattened.Unchanged || !second.Cache.Unchanged {
		t.Fatalf("expected unchanged artifacts, got %+v", second)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestLockIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	lock, err := output.AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := output.AcquireLock(dir); !errors.Is(err, output.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := output.AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = again.Release()
}
