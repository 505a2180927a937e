package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/services"
	"github.com/lisaguthrie/sipdashboard/internal/textutil"
)

// Classifier answers one instruction-plus-request exchange with text.
type Classifier interface {
	Classify(ctx context.Context, system, user string) (string, error)
}

// Stats counts normalization decisions for the run summary.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Calls    int64 `json:"calls"`
	Failures int64 `json:"failures"`
}

// Normalizer applies the cache-then-classifier policy.
type Normalizer struct {
	cache   *Cache
	focus   Classifier
	summary Classifier
	logger  *slog.Logger
	flight  singleflight.Group

	hits, misses, calls, failures atomic.Int64
}

// New builds a normalizer. summary may be nil to reuse focus. With a nil
// focus classifier every miss falls back to defaults.
func New(cache *Cache, focus, summary Classifier, logger *slog.Logger) *Normalizer {
	if cache == nil {
		cache = NewCache("", logger)
	}
	if summary == nil {
		summary = focus
	}
	return &Normalizer{
		cache:   cache,
		focus:   focus,
		summary: summary,
		logger:  logging.NewComponentLogger(logger, "normalize"),
	}
}

// Cache returns the backing cache.
func (n *Normalizer) Cache() *Cache {
	return n.cache
}

// Stats returns the decision counters so far.
func (n *Normalizer) Stats() Stats {
	return Stats{
		Hits:     n.hits.Load(),
		Misses:   n.misses.Load(),
		Calls:    n.calls.Load(),
		Failures: n.failures.Load(),
	}
}

// Normalize fills the focus and summary fields of every goal of school.
func (n *Normalizer) Normalize(ctx context.Context, school *goals.School, allowNetwork bool) {
	for i := range school.Goals {
		g := &school.Goals[i]
		focus := n.NormalizeFocusGroup(ctx, school.Name, school.Level, g.FocusGroup, g.FocusArea, g.Outcome, allowNetwork)
		g.FocusGrades = focus.FocusGrades
		g.FocusStudentGroup = focus.FocusStudentGroup
		g.StrategiesSummarized = n.SummarizeStrategies(ctx, school.Name, g.Outcome, g.Strategies, g.RawStrategies, allowNetwork)
	}
}

// NormalizeFocusGroup returns the focus grades and student group for a goal.
func (n *Normalizer) NormalizeFocusGroup(ctx context.Context, unit, level, focusGroup, focusArea, outcome string, allowNetwork bool) FocusGroup {
	logger := logging.WithContext(ctx, n.logger)
	key := FocusKey(unit, focusGroup, focusArea, outcome)
	if entry, ok := n.cache.Lookup(key); ok && entry.Kind == KindFocus && entry.Focus != nil {
		n.hits.Add(1)
		logger.Debug("focus group from cache",
			logging.Args(logging.DecisionAttrs("focus_group", "cache_hit", string(entry.Source))...)...)
		return *entry.Focus
	}
	n.misses.Add(1)
	if !allowNetwork || n.focus == nil {
		logger.Debug("focus group defaulted",
			logging.Args(logging.DecisionAttrs("focus_group", "default", "offline")...)...)
		return DefaultFocusGroup()
	}

	v, err, _ := n.flight.Do(key, func() (any, error) {
		n.calls.Add(1)
		text, err := n.focus.Classify(ctx, FocusInstructions, FocusUserMessage(unit, level, focusGroup, focusArea, outcome))
		if err != nil {
			return nil, classifierError(unit, "classify focus group", err)
		}
		focus, err := ParseFocusResponse(text)
		if err != nil {
			return nil, classifierError(unit, "parse focus response", err)
		}
		if err := n.cache.Store(Entry{Key: key, Kind: KindFocus, Unit: unit, Focus: &focus, Source: SourceClassifier}); err != nil {
			logger.Debug("focus result not cached", logging.Error(err))
		}
		return focus, nil
	})
	if err != nil {
		n.failures.Add(1)
		logging.WarnWithContext(logger, "focus classification failed; using defaults", "classifier_failed",
			logging.Error(err),
			logging.String("focus_group", textutil.Truncate(focusGroup, 60)),
			logging.String(logging.FieldErrorHint, "run `sipdash doctor` to check classifier credentials"),
			logging.String(logging.FieldImpact, "goal reported as All Grades / All Students"),
		)
		return DefaultFocusGroup()
	}
	return v.(FocusGroup)
}

// SummarizeStrategies returns a short narrative of a goal's actions.
func (n *Normalizer) SummarizeStrategies(ctx context.Context, unit, outcome string, strategies []goals.Strategy, raw string, allowNetwork bool) string {
	logger := logging.WithContext(ctx, n.logger)
	items := SummaryItems(strategies, raw)
	key := SummaryKey(unit, outcome, items)
	if entry, ok := n.cache.Lookup(key); ok && entry.Kind == KindSummary {
		n.hits.Add(1)
		logger.Debug("summary from cache",
			logging.Args(logging.DecisionAttrs("summary", "cache_hit", string(entry.Source))...)...)
		return entry.Summary
	}
	n.misses.Add(1)
	fallback := FallbackSummary(strategies, raw)
	if !allowNetwork || n.summary == nil {
		logger.Debug("summary defaulted",
			logging.Args(logging.DecisionAttrs("summary", "default", "offline")...)...)
		return fallback
	}

	var payload any = strategies
	if len(strategies) == 0 {
		payload = nonEmpty(raw)
	}
	v, err, _ := n.flight.Do(key, func() (any, error) {
		n.calls.Add(1)
		text, err := n.summary.Classify(ctx, SummaryInstructions, SummaryUserMessage(unit, outcome, payload))
		if err != nil {
			return nil, classifierError(unit, "summarize strategies", err)
		}
		summary := textutil.Clean(stripFence(text))
		if summary == "" {
			return nil, classifierError(unit, "summarize strategies", errors.New("empty summary"))
		}
		if err := n.cache.Store(Entry{Key: key, Kind: KindSummary, Unit: unit, Summary: summary, Source: SourceClassifier}); err != nil {
			logger.Debug("summary not cached", logging.Error(err))
		}
		return summary, nil
	})
	if err != nil {
		n.failures.Add(1)
		logging.WarnWithContext(logger, "strategy summary failed; using action list", "classifier_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `sipdash doctor` to check classifier credentials"),
			logging.String(logging.FieldImpact, "summary replaced by the joined action list"),
		)
		return fallback
	}
	return v.(string)
}

// SummaryItems are the strategy lines a summary is keyed on: one line per
// action, or the raw strategy text when there are no actions.
func SummaryItems(strategies []goals.Strategy, raw string) []string {
	items := make([]string, 0, len(strategies))
	for _, s := range strategies {
		items = append(items, s.Action+" | "+s.Measures)
	}
	if len(items) == 0 {
		return nonEmpty(raw)
	}
	return items
}

// FallbackSummary joins the actions with "; ", falling back to the raw
// strategy text and then to NotIdentified.
func FallbackSummary(strategies []goals.Strategy, raw string) string {
	actions := make([]string, 0, len(strategies))
	for _, s := range strategies {
		if a := textutil.Clean(s.Action); a != "" {
			actions = append(actions, a)
		}
	}
	if len(actions) > 0 {
		return strings.Join(actions, "; ")
	}
	if r := textutil.Clean(raw); r != "" {
		return r
	}
	return NotIdentified
}

// ParseFocusResponse extracts the JSON object from a focus reply. Missing
// fields take their defaults; the categories themselves are not checked.
func ParseFocusResponse(text string) (FocusGroup, error) {
	text = stripFence(text)
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return FocusGroup{}, fmt.Errorf("no JSON object in response %q", textutil.Truncate(text, 80))
	}
	var focus FocusGroup
	if err := json.Unmarshal([]byte(text[start:end+1]), &focus); err != nil {
		return FocusGroup{}, fmt.Errorf("decode focus response: %w", err)
	}
	focus.FocusGrades = textutil.Clean(focus.FocusGrades)
	focus.FocusStudentGroup = textutil.Clean(focus.FocusStudentGroup)
	if focus.FocusGrades == "" && focus.FocusStudentGroup == "" {
		return FocusGroup{}, errors.New("focus response has neither field")
	}
	def := DefaultFocusGroup()
	if focus.FocusGrades == "" {
		focus.FocusGrades = def.FocusGrades
	}
	if focus.FocusStudentGroup == "" {
		focus.FocusStudentGroup = def.FocusStudentGroup
	}
	return focus, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func nonEmpty(raw string) []string {
	if r := textutil.Clean(raw); r != "" {
		return []string{r}
	}
	return []string{}
}

func classifierError(unit, op string, err error) error {
	if errors.Is(err, services.ErrClassifier) {
		return err
	}
	return services.Wrap(services.ErrClassifier, unit, op, "", err)
}
