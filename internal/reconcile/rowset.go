package reconcile

import "github.com/lisaguthrie/sipdashboard/internal/textutil"

// CloseReason records why a row-set was closed.
type CloseReason string

const (
	CloseSentinel       CloseReason = "sentinel"
	CloseRangeExhausted CloseReason = "range_exhausted"
	CloseNextHeader     CloseReason = "next_header"
)

// MetadataRow is a labeled outer-table field.
type MetadataRow struct {
	Field Field  `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
	Page  int    `json:"page"`
}

// EmbeddedRow is one row of the nested Action / Measure table. Cells are
// whitespace-collapsed; the first cell is the action.
type EmbeddedRow struct {
	Cells []string `json:"cells"`
	Page  int      `json:"page"`
}

// Action returns the first cell.
func (r EmbeddedRow) Action() string {
	if len(r.Cells) == 0 {
		return ""
	}
	return r.Cells[0]
}

// Measures returns the cells after the action joined into one string.
func (r EmbeddedRow) Measures() string {
	if len(r.Cells) < 2 {
		return ""
	}
	return textutil.Join(r.Cells[1:]...)
}

// Blank reports whether every cell is empty.
func (r EmbeddedRow) Blank() bool {
	for _, c := range r.Cells {
		if c != "" {
			return false
		}
	}
	return true
}

// GoalRowSet is every row that belongs to one goal, in document order.
type GoalRowSet struct {
	Header   string        `json:"header"`
	Metadata []MetadataRow `json:"metadata"`
	Embedded []EmbeddedRow `json:"embedded"`
	// RawStrategies is the flattened text of the strategy host cell plus any
	// continuation text appended to it before the nested table began.
	RawStrategies string `json:"raw_strategies,omitempty"`
	// SentinelLabel and Sentinel are the label and value of the closing row.
	SentinelLabel string `json:"sentinel_label,omitempty"`
	Sentinel      string `json:"sentinel,omitempty"`
	FirstPage     int    `json:"first_page"`
	LastPage      int    `json:"last_page"`
	// ContinuationPages lists pages where the nested table resumed.
	ContinuationPages []int `json:"continuation_pages,omitempty"`
	// SplitRows counts rows merged across a page break.
	SplitRows int         `json:"split_rows,omitempty"`
	Closed    CloseReason `json:"closed"`
	Degraded  []string    `json:"degraded,omitempty"`
}

// Value returns the first metadata value for field.
func (g GoalRowSet) Value(field Field) string {
	for _, m := range g.Metadata {
		if m.Field == field {
			return m.Value
		}
	}
	return ""
}

// HasEmbedded reports whether the nested table contributed any rows.
func (g GoalRowSet) HasEmbedded() bool {
	return len(g.Embedded) > 0
}

// Complete reports whether the row-set was closed by its sentinel.
func (g GoalRowSet) Complete() bool {
	return g.Closed == CloseSentinel
}

func newEmbeddedRow(cells []string, page int) EmbeddedRow {
	cleaned := make([]string, len(cells))
	for i, c := range cells {
		cleaned[i] = textutil.Clean(c)
	}
	return EmbeddedRow{Cells: cleaned, Page: page}
}

// mergeSplit folds the tail of a row broken across a page into the row it
// continues, cell by cell.
func mergeSplit(prev *EmbeddedRow, tail EmbeddedRow) {
	for len(prev.Cells) < len(tail.Cells) {
		prev.Cells = append(prev.Cells, "")
	}
	for i, c := range tail.Cells {
		prev.Cells[i] = textutil.Join(prev.Cells[i], c)
	}
}
