package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotIdentified is the summary used when a goal lists no actions at all.
const NotIdentified = "Actions not identified. Check SIP document manually."

// SummaryInstructions are sent unchanged with every summary request.
const SummaryInstructions = `You summarize the actions a school plans to take toward one improvement goal for a school improvement plan dashboard.

Write a single paragraph of 2-3 sentences. Base it only on the actions and measures you are given, and weave multiple actions into one narrative. Reply with the paragraph alone: no headers, no lists, no other text.

If no actions or measures are given, reply exactly: "` + NotIdentified + `"`

type focusExample struct {
	unit, level, focusGroup, focusArea, outcome string
	grades, group                               string
}

var focusExamples = []focusExample{
	{
		"Benjamin Franklin Elementary School", "Elementary School", "K-5",
		"Family & Staff Opportunities to Participate/Engage the School and Staff Sense of Belonging",
		"Increased opportunities for families to provide voice and feedback while also participating in school-based decision-making and governance. Additionally, we will have an explicit focus on increasing sense of belonging amongst our staff members.",
		"All Grades", "All Students",
	},
	{
		"Helen Keller Elementary School", "Elementary School", "K-5",
		"Elevating Parent Voice of Black Students through Family Engagement",
		"By June 2026, 80% of Black/Black-Hispanic/Black two or more races students at Keller will demonstrate growth in social-emotional competencies related to belonging, self-efficacy, and school connectedness, as measured by SEL survey indicators, Panorama SEL data, and behavioral data (office referrals, proactive check-ins, attendance).",
		"All Grades", "Race/Ethnicity",
	},
	{
		"Lakeview Elementary School", "Elementary School", "K-5", "Reading and Literacy",
		"Close proficiency gap that currently exists between K/1st and 2-5 low-income students as measured by Fastbridge assessment (early reading for K-1 and aReading for 2-5).",
		"All Grades", "Low Income",
	},
	{
		"Horace Mann Elementary School", "Elementary School", "Grades 3 through 5", "Self-regulation and sense of belonging",
		"Increase in the percent of students who incorporate self-regulation strategies regularly and self-report that they are using these strategies on the Spring 2026 Panorama survey.",
		"Grades 3-5", "All Students",
	},
	{
		"Timberline Middle School", "Middle School", "", "6th - 8th Grade", "",
		"All Grades", "All Students",
	},
	{
		"Explorer Community Elementary School", "Elementary School", "1st", "Phonics and Phonemic Awareness",
		"By spring 2026, 100% of students will demonstrate growth, or maintain minimal risk, on the FastBridge early reading assessment.",
		"Grade 1", "All Students",
	},
	{
		"Kamiakin Middle School", "Middle School",
		"Subgroup of 8th graders who had a C- or below in 7+ Math last year Subgroup of 6th and 7th graders who received a 1 or a 2 on the SBA last year",
		"Algebra", "All students meeting standard in Algebra - passing grade in Algebra by 8th grade.",
		"All Grades", "All Students",
	},
}

// FocusInstructions are sent unchanged with every focus request.
var FocusInstructions = buildFocusInstructions()

func buildFocusInstructions() string {
	var b strings.Builder
	b.WriteString(`You are normalizing educational focus group and focus area descriptions for a school improvement plan dashboard.

Given a school's name, level, focus group, focus area, and desired outcome, decide which grades and which student group the goal targets.
Use "All Grades" for focus_grades when the goal covers every grade the school serves (PK-5 or K-5 for elementary, 6-8 for middle, 9-12 for high) or names no particular grades. Otherwise name the grades, for example "Grade 1" or "Grades 3-5".
focus_student_group is one of "Low Income", "ML", "Special Education" (IEP, 504, or both), "Race/Ethnicity", or "All Students" when the goal covers all students or names no particular group.

Reply with a JSON object with exactly two fields, focus_grades and focus_student_group.
`)
	for i, ex := range focusExamples {
		out := promptJSON(FocusGroup{FocusGrades: ex.grades, FocusStudentGroup: ex.group})
		fmt.Fprintf(&b, "\nExample #%d:\n<input>\n%s\n</input>\n<output>\n%s\n</output>\n",
			i+1, FocusUserMessage(ex.unit, ex.level, ex.focusGroup, ex.focusArea, ex.outcome), out)
	}
	return b.String()
}

type focusInput struct {
	SchoolName  string `json:"school_name"`
	SchoolLevel string `json:"school_level"`
	FocusGroup  string `json:"focus_group"`
	FocusArea   string `json:"focus_area"`
	Outcome     string `json:"outcome"`
}

// FocusUserMessage renders the per-goal focus request.
func FocusUserMessage(unit, level, focusGroup, focusArea, outcome string) string {
	return promptJSON(focusInput{
		SchoolName:  unit,
		SchoolLevel: level,
		FocusGroup:  focusGroup,
		FocusArea:   focusArea,
		Outcome:     outcome,
	})
}

// SummaryUserMessage renders the per-goal summary request. items are either
// strategies or, when a goal has none, its raw strategy text.
func SummaryUserMessage(unit, outcome string, items any) string {
	return fmt.Sprintf("School: %s\nDesired outcome: %q\n\nActions and measures:\n%s\n", unit, outcome, promptJSON(items))
}

// promptJSON renders v as indented JSON without HTML escaping.
func promptJSON(v any) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(b.String(), "\n")
}
