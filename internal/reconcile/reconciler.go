package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/pagegrid"
	"github.com/lisaguthrie/sipdashboard/internal/services"
	"github.com/lisaguthrie/sipdashboard/internal/textutil"
)

// DefaultMaxGoals is the number of goals a report may carry.
const DefaultMaxGoals = 3

// Range is the inclusive page range of one unit.
type Range struct {
	Unit  string
	Start int
	End   int
}

// Validate checks that the range is non-empty and 1-indexed.
func (r Range) Validate() error {
	if r.Start < 1 || r.End < r.Start {
		return fmt.Errorf("invalid page range %d-%d", r.Start, r.End)
	}
	return nil
}

// Options configure a Reconciler.
type Options struct {
	Labels   Labels
	MaxGoals int
	// StartMarkers and EndMarkers bound the goals section when page text is
	// available. The page carrying an end marker is not scanned.
	StartMarkers []string
	EndMarkers   []string
	// VerifyUnitName skips a unit whose name appears on no page of its range.
	VerifyUnitName bool
}

// Result is the outcome of reconciling one unit.
type Result struct {
	RowSets []GoalRowSet
	// FirstPage and LastPage bound the pages actually scanned.
	FirstPage int
	LastPage  int
	// Discarded counts goal headers seen after the cap was reached.
	Discarded int
	// Warnings carry structural problems, each wrapping services.ErrStructural.
	Warnings []error
}

// Partial reports whether any row-set was closed without its sentinel.
func (r Result) Partial() bool {
	return len(r.Warnings) > 0
}

// Reconciler turns page grids into goal row-sets.
type Reconciler struct {
	opts   Options
	logger *slog.Logger
}

// New builds a reconciler, filling unset options with defaults.
func New(opts Options, logger *slog.Logger) *Reconciler {
	if len(opts.Labels.Sentinels) == 0 {
		opts.Labels = DefaultLabels()
	}
	if opts.MaxGoals <= 0 {
		opts.MaxGoals = DefaultMaxGoals
	}
	return &Reconciler{opts: opts, logger: logging.NewComponentLogger(logger, "reconcile")}
}

// Reconcile scans the pages of rng in order and returns the goal row-sets
// found there. A unit whose name cannot be verified yields an error wrapping
// services.ErrUnitNotFound. Unreadable pages are logged and skipped.
func (r *Reconciler) Reconcile(ctx context.Context, rng Range, provider pagegrid.Provider) (Result, error) {
	if err := rng.Validate(); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, rng.Unit, "reconcile", "", err)
	}
	if provider == nil {
		return Result{}, services.Wrap(services.ErrValidation, rng.Unit, "reconcile", "no page source", nil)
	}
	logger := logging.WithContext(ctx, r.logger)

	first, last, err := r.section(ctx, rng, provider, logger)
	if err != nil {
		return Result{}, err
	}

	m := &machine{
		labels:   r.opts.Labels,
		maxGoals: r.opts.MaxGoals,
		unit:     rng.Unit,
		logger:   logger,
	}
	scanned := first
	for page := first; page <= last; page++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		blocks, err := provider.PageTables(ctx, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			logging.WarnWithContext(logger, "page tables unreadable; page skipped", "page_read_failed",
				logging.Int(logging.FieldPage, page),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-run the table extractor for this report"),
			)
			continue
		}
		scanned = page
		m.beginPage(page)
		for _, row := range linearize(blocks) {
			m.step(row)
		}
		if m.capped {
			break
		}
	}
	m.finish()

	res := Result{
		RowSets:   m.closed,
		FirstPage: first,
		LastPage:  scanned,
		Discarded: m.discarded,
		Warnings:  m.warnings,
	}
	logger.Debug("reconcile complete",
		logging.Int("goals", len(res.RowSets)),
		logging.Int("first_page", res.FirstPage),
		logging.Int("last_page", res.LastPage),
		logging.Bool("partial", res.Partial()),
	)
	return res, nil
}

// section narrows rng to the goals section using page text when the
// provider has it. Without text the whole range is scanned.
func (r *Reconciler) section(ctx context.Context, rng Range, provider pagegrid.Provider, logger *slog.Logger) (int, int, error) {
	tp, ok := provider.(pagegrid.TextProvider)
	if !ok {
		return rng.Start, rng.End, nil
	}
	texts := make([]string, 0, rng.End-rng.Start+1)
	for page := rng.Start; page <= rng.End; page++ {
		text, err := tp.PageText(ctx, page)
		if errors.Is(err, pagegrid.ErrNoText) {
			return rng.Start, rng.End, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, 0, ctxErr
			}
			logger.Debug("page text unreadable", logging.Int(logging.FieldPage, page), logging.Error(err))
		}
		texts = append(texts, strings.ToLower(textutil.Clean(text)))
	}

	if r.opts.VerifyUnitName && strings.TrimSpace(rng.Unit) != "" {
		name := strings.ToLower(textutil.Clean(rng.Unit))
		at := -1
		for i, text := range texts {
			if strings.Contains(text, name) {
				at = i
				break
			}
		}
		if at < 0 {
			return 0, 0, services.Wrap(services.ErrUnitNotFound, rng.Unit, "verify unit",
				fmt.Sprintf("name not found on pages %d-%d", rng.Start, rng.End), nil)
		}
		if at > 0 {
			logger.Debug("unit name first found after start page", logging.Int(logging.FieldPage, rng.Start+at))
		}
	}

	start := 0
	if len(r.opts.StartMarkers) > 0 {
		start = -1
		for i, text := range texts {
			if containsAny(text, r.opts.StartMarkers) {
				start = i
				break
			}
		}
		if start < 0 {
			logging.WarnWithContext(logger, "goals section marker not found; scanning whole range", "section_marker_missing",
				logging.String("markers", strings.Join(r.opts.StartMarkers, ", ")),
				logging.String(logging.FieldErrorHint, "check extraction.start_markers against the report text"),
				logging.String(logging.FieldImpact, "rows outside the goals section may be scanned"),
			)
			start = 0
		}
	}
	end := len(texts) - 1
	for i := start + 1; i < len(texts); i++ {
		if containsAny(texts[i], r.opts.EndMarkers) {
			end = i - 1
			break
		}
	}
	return rng.Start + start, rng.Start + end, nil
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}
