package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
)

// EncodeSchools renders schools as a 2-space indented JSON array with a
// trailing newline. Nil goal and strategy lists render as empty arrays.
func EncodeSchools(schools []goals.School) ([]byte, error) {
	out := make([]goals.School, len(schools))
	for i, school := range schools {
		out[i] = school
		gs := make([]goals.Goal, len(school.Goals))
		for j, g := range school.Goals {
			if g.Strategies == nil {
				g.Strategies = []goals.Strategy{}
			}
			gs[j] = g
		}
		out[i].Goals = gs
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode schools: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadSchools loads a schools.json written by a previous run.
func ReadSchools(path string) ([]goals.School, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var schools []goals.School
	if err := json.Unmarshal(data, &schools); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return schools, nil
}

// Flatten renders one self-contained block per goal. Every block restates
// its school on the first line so each block can be attributed on its own.
func Flatten(schools []goals.School) []byte {
	var b strings.Builder
	for _, school := range schools {
		for i, g := range school.Goals {
			writeBlock(&b, school, i+1, g)
		}
	}
	return []byte(b.String())
}

// Block renders the flattened block for goal n (1-based) of school.
func Block(school goals.School, n int, g goals.Goal) string {
	var b strings.Builder
	writeBlock(&b, school, n, g)
	return strings.TrimSuffix(b.String(), "\n\n")
}

func writeBlock(b *strings.Builder, school goals.School, n int, g goals.Goal) {
	fmt.Fprintf(b, "School: %s (%s)\n", school.Name, school.Level)
	fmt.Fprintf(b, "Goal #%d (%s, %s, %s): %s\n", n, g.Area, g.FocusGrades, g.FocusStudentGroup, g.Outcome)
	fmt.Fprintf(b, "Focus Area: %s\n", g.FocusArea)
	fmt.Fprintf(b, "Current Data: %s\n", g.CurrentData)
	b.WriteString("Strategies:\n")
	strategies := g.Strategies
	if len(strategies) == 0 && g.RawStrategies != "" {
		strategies = []goals.Strategy{{Action: g.RawStrategies}}
	}
	for _, s := range strategies {
		fmt.Fprintf(b, " * Action: %s\n", s.Action)
		fmt.Fprintf(b, "   Measures: %s\n", s.Measures)
	}
	b.WriteString("\n")
}
