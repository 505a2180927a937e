package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/goalstore"
)

// MustOpenGoalStore exports schools into a temp goals.db and opens it. The
// store is closed when the test ends.
func MustOpenGoalStore(t testing.TB, schools []goals.School) *goalstore.Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), goalstore.FileName)
	if _, err := goalstore.Export(ctx, path, schools); err != nil {
		t.Fatalf("export goal store: %v", err)
	}
	store, err := goalstore.Open(ctx, path)
	if err != nil {
		t.Fatalf("open goal store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
