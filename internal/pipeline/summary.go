package pipeline

import (
	"sort"
	"time"

	"github.com/lisaguthrie/sipdashboard/internal/normalize"
	"github.com/lisaguthrie/sipdashboard/internal/output"
)

// Status is the outcome of one unit.
type Status string

const (
	// StatusExtracted means every goal row-set closed on its sentinel.
	StatusExtracted Status = "extracted"
	// StatusPartial means the unit was kept with structural warnings.
	StatusPartial Status = "partial"
	// StatusFailed means the unit produced no record.
	StatusFailed Status = "failed"
)

// UnitResult summarizes one unit.
type UnitResult struct {
	Unit     string   `json:"unit"`
	Bucket   string   `json:"bucket"`
	Status   Status   `json:"status"`
	Goals    int      `json:"goals"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Summary describes a finished run.
type Summary struct {
	RunID    string          `json:"run_id"`
	Started  time.Time       `json:"started"`
	Duration time.Duration   `json:"duration"`
	Online   bool            `json:"online"`
	Units    []UnitResult    `json:"units"`
	Stats    normalize.Stats `json:"normalization"`
	Seeded   int             `json:"seeded_cache_entries"`
	Report   output.Report   `json:"artifacts"`
	Stored   int             `json:"stored_goals"`
}

// Extracted returns the names of units that produced a record, sorted.
func (s Summary) Extracted() []string {
	return s.names(func(u UnitResult) bool { return u.Status != StatusFailed })
}

// Failed returns the names of units that produced no record, sorted.
func (s Summary) Failed() []string {
	return s.names(func(u UnitResult) bool { return u.Status == StatusFailed })
}

// Partial returns the names of units kept with warnings, sorted.
func (s Summary) Partial() []string {
	return s.names(func(u UnitResult) bool { return u.Status == StatusPartial })
}

func (s Summary) names(keep func(UnitResult) bool) []string {
	out := []string{}
	for _, u := range s.Units {
		if keep(u) {
			out = append(out, u.Unit)
		}
	}
	sort.Strings(out)
	return out
}
