package reconcile

import (
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/textutil"
)

// Role classifies a row for the state machine.
type Role int

const (
	RoleOther Role = iota
	// RoleHeader opens a goal ("Priority #1 ..." alone in its row).
	RoleHeader
	// RoleMetadata is a labeled outer-table field such as "Priority Area".
	RoleMetadata
	// RoleEmbeddedStart is the Action / Measure of Fidelity header of the nested table.
	RoleEmbeddedStart
	// RoleEmbeddedRow is one action and its measures.
	RoleEmbeddedRow
	// RoleContinuation has an empty label cell and text after it.
	RoleContinuation
	// RoleSentinel closes the open goal.
	RoleSentinel
)

func (r Role) String() string {
	switch r {
	case RoleHeader:
		return "header"
	case RoleMetadata:
		return "metadata"
	case RoleEmbeddedStart:
		return "embedded_start"
	case RoleEmbeddedRow:
		return "embedded_row"
	case RoleContinuation:
		return "continuation"
	case RoleSentinel:
		return "sentinel"
	default:
		return "other"
	}
}

// Field names the goal attribute a metadata row carries.
type Field string

const (
	FieldNone        Field = ""
	FieldArea        Field = "area"
	FieldFocusGroup  Field = "focus_group"
	FieldCurrentData Field = "currentdata"
	FieldFocusArea   Field = "focus_area"
	FieldOutcome     Field = "outcome"
	// FieldStrategy is the "Strategy to Address Priority" row that hosts the nested table.
	FieldStrategy Field = "strategy"
)

// metadataLabels are checked in order, so more specific labels must precede
// labels they contain ("current data supporting focus area" before "focus area").
var metadataLabels = []struct {
	match string
	field Field
}{
	{"current data", FieldCurrentData},
	{"data and rationale", FieldCurrentData},
	{"priority area", FieldArea},
	{"focus grade", FieldFocusGroup},
	{"student group", FieldFocusGroup},
	{"focus area", FieldFocusArea},
	{"outcome", FieldOutcome},
	{"strategy to address", FieldStrategy},
}

const (
	embeddedActionLabel  = "action"
	embeddedMeasureLabel = "measure of fidelity"
)

// Classification is the outcome of Labels.Classify.
type Classification struct {
	Role  Role
	Field Field
}

// RowContext is what the classifier needs to know about a row's position.
type RowContext struct {
	// Nested is set for rows spliced in from a table nested in an outer cell.
	Nested bool
	// InEmbedded is set while the state machine is inside a nested table.
	InEmbedded bool
}

// Labels holds the match strings used for classification. Matching is
// case-insensitive substring matching on the whitespace-collapsed label cell.
type Labels struct {
	Sentinels []string
}

// DefaultSentinels close a goal at the engagement strategy row, or at the
// timeline row for reports that omit it.
var DefaultSentinels = []string{"strategy to engage", "timeline for focus"}

// DefaultLabels returns the stock label set.
func DefaultLabels() Labels {
	return Labels{Sentinels: append([]string(nil), DefaultSentinels...)}
}

// Classify assigns a role to a row of cells.
func (l Labels) Classify(cells []string, rc RowContext) Classification {
	label, value := splitRow(cells)
	if label == "" && value == "" {
		return Classification{Role: RoleOther}
	}
	lower := strings.ToLower(label)

	if isEmbeddedHeader(lower, value) {
		return Classification{Role: RoleEmbeddedStart}
	}
	if rc.Nested {
		return Classification{Role: RoleEmbeddedRow}
	}
	if isGoalHeader(lower, value) {
		return Classification{Role: RoleHeader}
	}
	if label == "" {
		return Classification{Role: RoleContinuation}
	}
	if l.isSentinel(lower) {
		return Classification{Role: RoleSentinel}
	}
	for _, m := range metadataLabels {
		if strings.Contains(lower, m.match) {
			return Classification{Role: RoleMetadata, Field: m.field}
		}
	}
	if rc.InEmbedded {
		return Classification{Role: RoleEmbeddedRow}
	}
	return Classification{Role: RoleOther}
}

// IsSentinel reports whether a label cell matches a sentinel label.
func (l Labels) IsSentinel(label string) bool {
	return l.isSentinel(strings.ToLower(textutil.Clean(label)))
}

func (l Labels) isSentinel(lower string) bool {
	for _, s := range l.Sentinels {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func isEmbeddedHeader(lowerLabel, value string) bool {
	return strings.HasPrefix(lowerLabel, embeddedActionLabel) &&
		strings.Contains(strings.ToLower(value), embeddedMeasureLabel)
}

func isGoalHeader(lowerLabel, value string) bool {
	return value == "" && strings.HasPrefix(lowerLabel, "priority") && !strings.Contains(lowerLabel, "priority area")
}

// isHostRow reports whether a row is the outer cell that hosts the nested table.
func isHostRow(cells []string) bool {
	label, _ := splitRow(cells)
	return strings.Contains(strings.ToLower(label), "strategy to address")
}

// isOpenerRow reports a row whose label cell is empty and whose remaining cells carry text.
func isOpenerRow(cells []string) bool {
	label, value := splitRow(cells)
	return label == "" && value != ""
}

// splitRow returns the cleaned label cell and the cleaned remainder of the row.
func splitRow(cells []string) (string, string) {
	if len(cells) == 0 {
		return "", ""
	}
	return textutil.Clean(cells[0]), textutil.Join(cells[1:]...)
}
