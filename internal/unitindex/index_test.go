package unitindex_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lisaguthrie/sipdashboard/internal/services"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

func TestParseOrdersByBucket(t *testing.T) {
	input := `{
		"high": [{"school": "Eastlake High School", "start": 1, "end": 9}],
		"elementary": [
			{"school": "Lincoln  Elementary", "start": 9, "end": 16},
			{"school": "Adams Elementary", "start": 17, "end": 22}
		],
		"preschool": [{"school": "Little Ones", "start": 1, "end": 2}]
	}`
	idx, err := unitindex.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []unitindex.Entry{
		{Name: "Lincoln Elementary", Bucket: "elementary", Start: 9, End: 16},
		{Name: "Adams Elementary", Bucket: "elementary", Start: 17, End: 22},
		{Name: "Eastlake High School", Bucket: "high", Start: 1, End: 9},
	}
	if diff := cmp.Diff(want, idx.Entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"preschool"}, idx.Ignored); diff != "" {
		t.Fatalf("ignored mismatch (-want +got):\n%s", diff)
	}
	if got := idx.Entries[0].Level(); got != "Elementary School" {
		t.Fatalf("Level() = %q", got)
	}
	if got := idx.Entries[0].Pages(); got != 8 {
		t.Fatalf("Pages() = %d, want 8", got)
	}
}

func TestLoadMissingFileIsIndexError(t *testing.T) {
	_, err := unitindex.Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, services.ErrIndex) {
		t.Fatalf("expected ErrIndex, got %v", err)
	}
	if services.Classify(err) != services.OutcomeFatal {
		t.Fatalf("expected fatal outcome for %v", err)
	}
}

func TestLoadMalformedFileIsIndexError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	if err := os.WriteFile(path, []byte(`{"elementary": [`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := unitindex.Load(path); !errors.Is(err, services.ErrIndex) {
		t.Fatalf("expected ErrIndex, got %v", err)
	}
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   unitindex.Entry
		wantErr bool
	}{
		{"valid", unitindex.Entry{Name: "Lincoln", Bucket: "elementary", Start: 9, End: 16}, false},
		{"single page", unitindex.Entry{Name: "Lincoln", Bucket: "elementary", Start: 9, End: 9}, false},
		{"no name", unitindex.Entry{Bucket: "elementary", Start: 1, End: 2}, true},
		{"zero start", unitindex.Entry{Name: "Lincoln", Start: 0, End: 2}, true},
		{"inverted", unitindex.Entry{Name: "Lincoln", Start: 5, End: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.entry.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	idx := &unitindex.Index{Entries: []unitindex.Entry{{Name: "Lincoln Elementary", Bucket: "elementary", Start: 1, End: 2}}}
	if _, ok := idx.Lookup("lincoln   elementary"); !ok {
		t.Fatal("expected case-insensitive match")
	}
	if _, ok := idx.Lookup("Lincoln Middle"); ok {
		t.Fatal("unexpected match")
	}
}

func TestMarshalJSONRoundTripsOnDiskForm(t *testing.T) {
	idx := &unitindex.Index{Entries: []unitindex.Entry{{Name: "Adams Middle", Bucket: "middle", Start: 3, End: 7}}}
	data, err := json.Marshal(idx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"elementary":[],"high":[],"middle":[{"school":"Adams Middle","start":3,"end":7}]}`
	if string(data) != want {
		t.Fatalf("got %s\nwant %s", data, want)
	}
}

func TestParseText(t *testing.T) {
	input := `Table of Contents
Appendix: Elementary School Improvement Plans
Lincoln Elementary pp. 9-16
Adams Elementary pp.17 - 22
Appendix: High School Improvement Plans
Eastlake High School pp. 1-9
Appendix: Option School Improvement Plans
Stray Academy pp. 4-5
`
	idx, err := unitindex.ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	want := []unitindex.Entry{
		{Name: "Lincoln Elementary", Bucket: "elementary", Start: 9, End: 16},
		{Name: "Adams Elementary", Bucket: "elementary", Start: 17, End: 22},
		{Name: "Eastlake High School", Bucket: "high", Start: 1, End: 9},
	}
	if diff := cmp.Diff(want, idx.Entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}
