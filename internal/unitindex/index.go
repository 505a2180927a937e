package unitindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lisaguthrie/sipdashboard/internal/services"
)

// Buckets lists the index buckets in processing order.
var Buckets = []string{"elementary", "middle", "high"}

// Entry locates one unit's section within its bucket's report.
type Entry struct {
	Name   string
	Bucket string
	Start  int
	End    int
}

// Level returns the display level derived from the entry's bucket.
func (e Entry) Level() string {
	return LevelLabel(e.Bucket)
}

// Pages returns the number of pages in the entry's range.
func (e Entry) Pages() int {
	if e.End < e.Start {
		return 0
	}
	return e.End - e.Start + 1
}

// Validate reports an unusable page range or name.
func (e Entry) Validate() error {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("%s entry has no school name", e.Bucket)
	case e.Start < 1:
		return fmt.Errorf("%s: start page %d must be at least 1", e.Name, e.Start)
	case e.End < e.Start:
		return fmt.Errorf("%s: end page %d precedes start page %d", e.Name, e.End, e.Start)
	}
	return nil
}

// LevelLabel maps a bucket key to its display level, e.g. "middle" to "Middle School".
func LevelLabel(bucket string) string {
	bucket = strings.ToLower(strings.TrimSpace(bucket))
	if bucket == "" {
		return ""
	}
	return cases.Title(language.English).String(bucket) + " School"
}

// Index is the ordered set of units for a run: bucket order first, then the
// order entries appear within each bucket.
type Index struct {
	Entries []Entry
	// Ignored lists bucket keys present in the source that are not known buckets.
	Ignored []string
}

type rawEntry struct {
	School string `json:"school"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Load reads the JSON unit index at path. Any failure is fatal to a run and is
// tagged with services.ErrIndex.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIndex, "", "load index", path, err)
	}
	idx, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrIndex, "", "parse index", path, err)
	}
	return idx, nil
}

// Parse decodes the JSON unit index form.
func Parse(r io.Reader) (*Index, error) {
	var raw map[string][]rawEntry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode unit index: %w", err)
	}
	idx := &Index{}
	for key := range raw {
		if !slices.Contains(Buckets, strings.ToLower(key)) {
			idx.Ignored = append(idx.Ignored, key)
		}
	}
	sort.Strings(idx.Ignored)
	for _, bucket := range Buckets {
		for _, item := range bucketEntries(raw, bucket) {
			idx.Entries = append(idx.Entries, Entry{
				Name:   strings.Join(strings.Fields(item.School), " "),
				Bucket: bucket,
				Start:  item.Start,
				End:    item.End,
			})
		}
	}
	return idx, nil
}

func bucketEntries(raw map[string][]rawEntry, bucket string) []rawEntry {
	if entries, ok := raw[bucket]; ok {
		return entries
	}
	for key, entries := range raw {
		if strings.EqualFold(key, bucket) {
			return entries
		}
	}
	return nil
}

// Len returns the number of units.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

// Bucket returns the entries of one bucket in index order.
func (idx *Index) Bucket(bucket string) []Entry {
	var out []Entry
	for _, e := range idx.Entries {
		if e.Bucket == bucket {
			out = append(out, e)
		}
	}
	return out
}

// Lookup finds a unit by case-insensitive name.
func (idx *Index) Lookup(name string) (Entry, bool) {
	name = strings.Join(strings.Fields(name), " ")
	for _, e := range idx.Entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// MarshalJSON encodes the index in its on-disk form with every known bucket present.
func (idx *Index) MarshalJSON() ([]byte, error) {
	out := make(map[string][]rawEntry, len(Buckets))
	for _, bucket := range Buckets {
		out[bucket] = []rawEntry{}
	}
	for _, e := range idx.Entries {
		out[e.Bucket] = append(out[e.Bucket], rawEntry{School: e.Name, Start: e.Start, End: e.End})
	}
	return json.Marshal(out)
}
