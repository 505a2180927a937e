package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/pagegrid"
)

// IndexEntry is one school in an on-disk unit index.
type IndexEntry struct {
	School string `json:"school"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// WriteJSON marshals v with indentation into path, creating parent directories.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	WriteFile(t, path, data)
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteIndex writes a unit index keyed by bucket to path.
func WriteIndex(t testing.TB, path string, buckets map[string][]IndexEntry) {
	t.Helper()
	WriteJSON(t, path, buckets)
}

// WriteGrid writes a page-grid dump for pages to path.
func WriteGrid(t testing.TB, path string, pages ...pagegrid.Page) {
	t.Helper()
	WriteJSON(t, path, pagegrid.Document{Source: filepath.Base(path), Pages: pages})
}
