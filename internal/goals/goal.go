package goals

import (
	"fmt"
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/textutil"
)

const (
	// DefaultFocusGrades and DefaultStudentGroup stand in until a goal is normalized.
	DefaultFocusGrades  = "All Grades"
	DefaultStudentGroup = "All Students"
)

// Strategy is one action and how its implementation is measured.
type Strategy struct {
	Action   string `json:"action"`
	Measures string `json:"measures"`
}

// Goal is one improvement goal of a school.
type Goal struct {
	Area                 Area       `json:"area"`
	FocusGrades          string     `json:"focus_grades"`
	FocusStudentGroup    string     `json:"focus_student_group"`
	FocusArea            string     `json:"focus_area"`
	FocusGroup           string     `json:"focus_group"`
	Outcome              string     `json:"outcome"`
	CurrentData          string     `json:"currentdata"`
	Strategies           []Strategy `json:"strategies"`
	StrategiesSummarized string     `json:"strategies_summarized"`
	EngagementStrategies string     `json:"engagement_strategies"`
	// RawStrategies keeps the strategy cell text when no action table was found.
	RawStrategies string `json:"raw_strategies,omitempty"`

	// Notes record degraded reconciliation for this goal. They are not exported.
	Notes []string `json:"-"`
}

// Actions returns the action text of each strategy.
func (g Goal) Actions() []string {
	out := make([]string, 0, len(g.Strategies))
	for _, s := range g.Strategies {
		if s.Action != "" {
			out = append(out, s.Action)
		}
	}
	return out
}

// School is one unit's extracted record.
type School struct {
	Name  string `json:"name"`
	Level string `json:"level"`
	Goals []Goal `json:"goals"`

	// Bucket is the index bucket the school came from.
	Bucket string `json:"-"`
}

// GoalID builds a stable identifier such as
// "lincoln-elementary-elementary-school-goal-1-math". n is 1-based.
func GoalID(school School, n int, goal Goal) string {
	return strings.Join([]string{
		textutil.Slug(school.Name),
		textutil.Slug(school.Level),
		fmt.Sprintf("goal-%d", n),
		textutil.Slug(string(goal.Area)),
	}, "-")
}
