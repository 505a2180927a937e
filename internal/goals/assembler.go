package goals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/reconcile"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

// headerPrefixes mark rows of the nested table that repeat a label instead of
// carrying an action.
var headerPrefixes = []string{"priority", "focus", "desired", "current", "strategy", "timeline", "method(s)"}

// Assembler builds school records from reconciled row-sets.
type Assembler struct {
	maxGoals int
	logger   *slog.Logger
}

// NewAssembler returns an assembler that keeps at most maxGoals goals per school.
func NewAssembler(maxGoals int, logger *slog.Logger) *Assembler {
	if maxGoals <= 0 {
		maxGoals = reconcile.DefaultMaxGoals
	}
	return &Assembler{maxGoals: maxGoals, logger: logging.NewComponentLogger(logger, "goals")}
}

// Assemble turns the row-sets of one unit into a School. Only the first
// maxGoals row-sets are used. Fewer goals than that is logged, not an error.
func (a *Assembler) Assemble(ctx context.Context, entry unitindex.Entry, sets []reconcile.GoalRowSet) School {
	logger := logging.WithContext(ctx, a.logger)
	school := School{
		Name:   entry.Name,
		Level:  entry.Level(),
		Bucket: entry.Bucket,
		Goals:  make([]Goal, 0, min(len(sets), a.maxGoals)),
	}
	if len(sets) > a.maxGoals {
		logger.Debug("extra row-sets dropped", logging.Int("row_sets", len(sets)), logging.Int("limit", a.maxGoals))
		sets = sets[:a.maxGoals]
	}
	for i, rs := range sets {
		goal := a.goal(rs)
		if len(goal.Strategies) == 0 {
			logging.WarnWithContext(logger, "goal has no action table; keeping raw strategy text", "strategies_missing",
				logging.Int("goal", i+1),
				logging.String("area", string(goal.Area)),
				logging.Int("first_page", rs.FirstPage),
				logging.String(logging.FieldErrorHint, "check the strategy cell of this goal in the report"),
				logging.String(logging.FieldImpact, "summary built from raw strategy text"),
			)
			goal.Notes = append(goal.Notes, "no action table found")
		}
		school.Goals = append(school.Goals, goal)
	}
	if n := len(school.Goals); n < a.maxGoals {
		logging.WarnWithContext(logger, fmt.Sprintf("only found %d goals", n), "goals_short",
			logging.Int("goals", n),
			logging.Int("expected", a.maxGoals),
			logging.String(logging.FieldErrorHint, "verify the unit's page range in the index"),
			logging.String(logging.FieldImpact, "school reported with fewer goals"),
		)
	}
	return school
}

func (a *Assembler) goal(rs reconcile.GoalRowSet) Goal {
	goal := Goal{
		Area:              ParseArea(rs.Value(reconcile.FieldArea)),
		FocusGrades:       DefaultFocusGrades,
		FocusStudentGroup: DefaultStudentGroup,
		FocusArea:         rs.Value(reconcile.FieldFocusArea),
		FocusGroup:        rs.Value(reconcile.FieldFocusGroup),
		Outcome:           rs.Value(reconcile.FieldOutcome),
		CurrentData:       rs.Value(reconcile.FieldCurrentData),
		Strategies:        Strategies(rs.Embedded),
		Notes:             append([]string(nil), rs.Degraded...),
	}
	if strings.Contains(strings.ToLower(rs.SentinelLabel), "engage") {
		goal.EngagementStrategies = rs.Sentinel
	}
	if len(goal.Strategies) == 0 {
		goal.RawStrategies = rs.RawStrategies
	}
	return goal
}

// Strategies converts nested table rows into strategies, skipping blank rows
// and rows that repeat a label.
func Strategies(rows []reconcile.EmbeddedRow) []Strategy {
	out := make([]Strategy, 0, len(rows))
	for _, row := range rows {
		action := row.Action()
		if row.Blank() || headerLike(action) {
			continue
		}
		out = append(out, Strategy{Action: action, Measures: row.Measures()})
	}
	return out
}

func headerLike(action string) bool {
	lower := strings.ToLower(action)
	if lower == "action" {
		return true
	}
	for _, p := range headerPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
