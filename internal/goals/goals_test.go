package goals_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/reconcile"
	"github.com/lisaguthrie/sipdashboard/internal/testsupport"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

var lincoln = unitindex.Entry{Name: "Lincoln Elementary", Bucket: "elementary", Start: 5, End: 8}

func rowSet(area string, actions ...string) reconcile.GoalRowSet {
	rs := reconcile.GoalRowSet{
		Header: "Priority #1",
		Metadata: []reconcile.MetadataRow{
			{Field: reconcile.FieldArea, Label: "Priority Area", Value: area},
			{Field: reconcile.FieldFocusGroup, Label: "Focus Grade Level(s)", Value: "Grades 3-5"},
			{Field: reconcile.FieldCurrentData, Label: "Current Data", Value: "45% met standard"},
			{Field: reconcile.FieldFocusArea, Label: "Focus Area", Value: area + " proficiency"},
			{Field: reconcile.FieldOutcome, Label: "Desired Outcome", Value: "60% by 2026"},
			{Field: reconcile.FieldStrategy, Label: "Strategy to Address Priority", Value: "raw text"},
		},
		SentinelLabel: "Strategy to Engage Families",
		Sentinel:      "Family nights",
		Closed:        reconcile.CloseSentinel,
	}
	for _, a := range actions {
		rs.Embedded = append(rs.Embedded, reconcile.EmbeddedRow{Cells: []string{a, a + " log"}})
	}
	return rs
}

func TestParseArea(t *testing.T) {
	cases := map[string]goals.Area{
		"Mathematics":                       goals.AreaMath,
		"Algebra readiness":                 goals.AreaMath,
		"ELA":                               goals.AreaELA,
		"English Language Arts":             goals.AreaELA,
		"Reading and Writing":               goals.AreaELA,
		"SEL / Belonging":                   goals.AreaSEL,
		"Attendance":                        goals.AreaSEL,
		"Relationships":                     goals.AreaOther,
		"Systems thinking":                  goals.AreaOther,
		"Self-selected reading":             goals.AreaELA,
		"STEM":                              goals.AreaScience,
		"Science":                           goals.AreaScience,
		"Ninth Grade On-Track":              goals.AreaNinthGrade,
		"9th grade success":                 goals.AreaNinthGrade,
		"Graduation Rate":                   goals.AreaGraduation,
		"Postsecondary readiness":           goals.AreaGraduation,
		"":                                  goals.AreaOther,
		"Family engagement":                 goals.AreaOther,
		"Math and literacy across contents": goals.AreaMath,
	}
	for text, want := range cases {
		if got := goals.ParseArea(text); got != want {
			t.Errorf("ParseArea(%q) = %q, want %q", text, got, want)
		}
		if !want.Valid() {
			t.Errorf("%q should be valid", want)
		}
	}
	if goals.Area("History").Valid() {
		t.Fatalf("unexpected valid area")
	}
}

func TestAssembleThreeGoals(t *testing.T) {
	logger, rec := testsupport.NewLogRecorder()
	a := goals.NewAssembler(3, logger)
	school := a.Assemble(context.Background(), lincoln, []reconcile.GoalRowSet{
		rowSet("Math", "Number talks"),
		rowSet("ELA", "Guided reading"),
		rowSet("Social Emotional Learning", "Morning meetings"),
	})
	if school.Name != "Lincoln Elementary" || school.Level != "Elementary School" || school.Bucket != "elementary" {
		t.Fatalf("unexpected school header %+v", school)
	}
	var areas []goals.Area
	for _, g := range school.Goals {
		areas = append(areas, g.Area)
	}
	if diff := cmp.Diff([]goals.Area{goals.AreaMath, goals.AreaELA, goals.AreaSEL}, areas); diff != "" {
		t.Fatalf("areas mismatch (-want +got):\n%s", diff)
	}
	first := school.Goals[0]
	want := goals.Goal{
		Area:                 goals.AreaMath,
		FocusGrades:          goals.DefaultFocusGrades,
		FocusStudentGroup:    goals.DefaultStudentGroup,
		FocusArea:            "Math proficiency",
		FocusGroup:           "Grades 3-5",
		Outcome:              "60% by 2026",
		CurrentData:          "45% met standard",
		Strategies:           []goals.Strategy{{Action: "Number talks", Measures: "Number talks log"}},
		EngagementStrategies: "Family nights",
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("goal mismatch (-want +got):\n%s", diff)
	}
	if rec.Count(slog.LevelWarn) != 0 {
		t.Fatalf("expected no warnings, got %+v", rec.Records())
	}
}

func TestAssembleFewerGoalsWarns(t *testing.T) {
	logger, rec := testsupport.NewLogRecorder()
	school := goals.NewAssembler(3, logger).Assemble(context.Background(), lincoln, []reconcile.GoalRowSet{
		rowSet("Math", "Number talks"),
		rowSet("ELA", "Guided reading"),
	})
	if len(school.Goals) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(school.Goals))
	}
	record, ok := rec.Find(slog.LevelWarn, "only found 2 goals")
	if !ok {
		t.Fatalf("expected short-goal warning, got %+v", rec.Records())
	}
	if record.Attrs["event_type"] != "goals_short" || record.Attrs["error_hint"] == "" || record.Attrs["impact"] == "" {
		t.Fatalf("warning missing context fields: %+v", record.Attrs)
	}
}

func TestAssembleCapsGoals(t *testing.T) {
	sets := []reconcile.GoalRowSet{rowSet("Math", "a"), rowSet("ELA", "b"), rowSet("SEL", "c"), rowSet("Science", "d")}
	school := goals.NewAssembler(3, nil).Assemble(context.Background(), lincoln, sets)
	if len(school.Goals) != 3 {
		t.Fatalf("expected 3 goals, got %d", len(school.Goals))
	}
}

func TestAssembleKeepsRawStrategiesWithoutTable(t *testing.T) {
	logger, rec := testsupport.NewLogRecorder()
	rs := rowSet("Math")
	rs.Closed = reconcile.CloseRangeExhausted
	rs.Degraded = []string{"closed by range_exhausted on page 8 without sentinel"}
	rs.SentinelLabel, rs.Sentinel = "", ""
	school := goals.NewAssembler(1, logger).Assemble(context.Background(), lincoln, []reconcile.GoalRowSet{rs})
	g := school.Goals[0]
	if g.RawStrategies != "raw text" {
		t.Fatalf("expected raw strategies, got %q", g.RawStrategies)
	}
	if g.Strategies == nil || len(g.Strategies) != 0 {
		t.Fatalf("expected empty non-nil strategies, got %#v", g.Strategies)
	}
	if g.EngagementStrategies != "" {
		t.Fatalf("unexpected engagement strategies %q", g.EngagementStrategies)
	}
	if len(g.Notes) != 2 {
		t.Fatalf("expected degraded notes, got %v", g.Notes)
	}
	if _, ok := rec.Find(slog.LevelWarn, "no action table"); !ok {
		t.Fatalf("expected degraded warning")
	}
}

func TestTimelineSentinelIsNotEngagement(t *testing.T) {
	rs := rowSet("Math", "a")
	rs.SentinelLabel, rs.Sentinel = "Timeline for Focus Area", "2025-26"
	school := goals.NewAssembler(1, nil).Assemble(context.Background(), lincoln, []reconcile.GoalRowSet{rs})
	if school.Goals[0].EngagementStrategies != "" {
		t.Fatalf("timeline value leaked into engagement strategies")
	}
}

func TestStrategiesSkipBlankAndHeaderRows(t *testing.T) {
	rows := []reconcile.EmbeddedRow{
		{Cells: []string{"Action", "Measure of Fidelity"}},
		{Cells: []string{"", ""}},
		{Cells: []string{"Method(s)", "x"}},
		{Cells: []string{"Number talks", "Walkthrough", "weekly"}},
		{Cells: []string{"Exit tickets"}},
	}
	got := goals.Strategies(rows)
	want := []goals.Strategy{
		{Action: "Number talks", Measures: "Walkthrough weekly"},
		{Action: "Exit tickets"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("strategies mismatch (-want +got):\n%s", diff)
	}
}

func TestGoalJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(goals.School{Name: "X", Level: "High School", Goals: []goals.Goal{{Area: goals.AreaOther, Strategies: []goals.Strategy{}}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	for _, key := range []string{
		`"name"`, `"level"`, `"goals"`, `"area"`, `"focus_grades"`, `"focus_student_group"`, `"focus_area"`,
		`"focus_group"`, `"outcome"`, `"currentdata"`, `"strategies":[]`, `"strategies_summarized"`, `"engagement_strategies"`,
	} {
		if !strings.Contains(text, key) {
			t.Fatalf("missing %s in %s", key, text)
		}
	}
	for _, hidden := range []string{"raw_strategies", "Notes", "Bucket"} {
		if strings.Contains(text, hidden) {
			t.Fatalf("unexpected %s in %s", hidden, text)
		}
	}
}

func TestGoalID(t *testing.T) {
	school := goals.School{Name: "St. Mary's Elementary", Level: "Elementary School"}
	got := goals.GoalID(school, 2, goals.Goal{Area: goals.AreaNinthGrade})
	if got != "st-marys-elementary-elementary-school-goal-2-9th-grade-success" {
		t.Fatalf("unexpected id %q", got)
	}
}
