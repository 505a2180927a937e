package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/services"
)

// SeedFromOutput stores the classified fields of a previous structured output
// as cache entries. Entries already in the cache win. Schools or goals that
// cannot serve a lookup are skipped and logged. It returns the number of
// entries added.
func (c *Cache) SeedFromOutput(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read previous output: %w", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, services.Wrap(services.ErrCacheEntry, "", "seed cache", "previous output is not a JSON array", err)
	}

	added, skipped := 0, 0
	for _, item := range raw {
		var school goals.School
		if err := json.Unmarshal(item, &school); err != nil || strings.TrimSpace(school.Name) == "" {
			skipped++
			continue
		}
		for _, g := range school.Goals {
			for _, entry := range seedEntries(school.Name, g) {
				if _, exists := c.Lookup(entry.Key); exists {
					continue
				}
				if err := c.Store(entry); err != nil {
					skipped++
					continue
				}
				added++
			}
		}
	}
	if skipped > 0 {
		logging.WarnWithContext(c.logger, "previous output entries ignored", "normcache_seed_invalid",
			logging.Int("skipped", skipped),
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "the affected goals are reclassified"),
			logging.String(logging.FieldImpact, "extra classifier calls"),
		)
	}
	c.logger.Debug("seeded normalization cache from previous output",
		logging.Int("added", added),
		logging.String("path", path),
	)
	return added, nil
}

// seedEntries skips values that match the offline defaults, so a goal that
// fell back in the previous run is classified again.
func seedEntries(unit string, g goals.Goal) []Entry {
	var entries []Entry
	focus := FocusGroup{FocusGrades: g.FocusGrades, FocusStudentGroup: g.FocusStudentGroup}
	if focus != DefaultFocusGroup() {
		entries = append(entries, Entry{
			Key:    FocusKey(unit, g.FocusGroup, g.FocusArea, g.Outcome),
			Kind:   KindFocus,
			Unit:   unit,
			Focus:  &focus,
			Source: SourcePreviousOutput,
		})
	}
	if g.StrategiesSummarized != FallbackSummary(g.Strategies, g.RawStrategies) {
		entries = append(entries, Entry{
			Key:     SummaryKey(unit, g.Outcome, SummaryItems(g.Strategies, g.RawStrategies)),
			Kind:    KindSummary,
			Unit:    unit,
			Summary: g.StrategiesSummarized,
			Source:  SourcePreviousOutput,
		})
	}
	return entries
}
