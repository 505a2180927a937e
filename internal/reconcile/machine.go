package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/services"
	"github.com/lisaguthrie/sipdashboard/internal/textutil"
)

type state int

const (
	stateSeekingHeader state = iota
	stateInOuterTable
	stateInEmbeddedTable
	stateContinuationPending
)

func (s state) String() string {
	switch s {
	case stateInOuterTable:
		return "in_outer_table"
	case stateInEmbeddedTable:
		return "in_embedded_table"
	case stateContinuationPending:
		return "continuation_pending"
	default:
		return "seeking_header"
	}
}

type machine struct {
	labels   Labels
	maxGoals int
	unit     string
	logger   *slog.Logger

	state state
	open  *GoalRowSet
	// hosted is set once the strategy host row is seen and until nested rows arrive.
	hosted bool
	// splitCheck is set for the first nested row after a page break.
	splitCheck bool

	closed    []GoalRowSet
	warnings  []error
	capped    bool
	discarded int
	page      int
}

func (m *machine) beginPage(page int) {
	m.page = page
	if m.open == nil {
		return
	}
	if m.state == stateInEmbeddedTable || (m.state == stateInOuterTable && m.hosted) {
		m.state = stateContinuationPending
	}
}

func (m *machine) step(row Row) {
	embedded := m.state == stateInEmbeddedTable || m.state == stateContinuationPending
	cls := m.labels.Classify(row.Cells, RowContext{Nested: row.Nested, InEmbedded: embedded})

	if m.capped {
		if cls.Role == RoleHeader {
			m.discarded++
		}
		return
	}
	// A label already recorded for this goal cannot start a new field while
	// the nested table is open; it is an action that happens to share words.
	if cls.Role == RoleMetadata && embedded && m.open != nil && m.open.Value(cls.Field) != "" {
		cls = Classification{Role: RoleEmbeddedRow}
	}

	switch cls.Role {
	case RoleHeader:
		m.header(row)
	case RoleMetadata:
		m.metadata(row, cls.Field)
	case RoleEmbeddedStart:
		if m.open == nil {
			m.ignore(row, cls.Role)
			return
		}
		m.splitCheck = m.state == stateContinuationPending
		if m.splitCheck {
			m.resume(row.Page)
		}
		m.state = stateInEmbeddedTable
		m.hosted = false
		m.touch(row.Page)
	case RoleEmbeddedRow:
		m.embeddedRow(row)
	case RoleContinuation:
		m.continuation(row)
	case RoleSentinel:
		if m.open == nil {
			m.ignore(row, cls.Role)
			return
		}
		label, value := splitRow(row.Cells)
		m.open.SentinelLabel = label
		m.open.Sentinel = value
		m.touch(row.Page)
		m.close(CloseSentinel)
	default:
		if m.state == stateContinuationPending && !blank(row.Cells) {
			// The nested table ended with the previous page.
			m.state = stateInOuterTable
			m.hosted = false
		}
	}
}

func (m *machine) header(row Row) {
	if m.open != nil {
		m.forceClose(CloseNextHeader)
		if m.capped {
			m.discarded++
			return
		}
	}
	m.open = &GoalRowSet{
		Header:    textutil.Join(row.Cells...),
		FirstPage: row.Page,
		LastPage:  row.Page,
	}
	m.state = stateInOuterTable
	m.hosted = false
	m.splitCheck = false
	m.logger.Debug("goal row-set opened",
		logging.String("goal", m.open.Header),
		logging.Int(logging.FieldPage, row.Page),
	)
}

func (m *machine) metadata(row Row, field Field) {
	if m.open == nil {
		m.ignore(row, RoleMetadata)
		return
	}
	label, value := splitRow(row.Cells)
	m.open.Metadata = append(m.open.Metadata, MetadataRow{Field: field, Label: label, Value: value, Page: row.Page})
	m.hosted = field == FieldStrategy
	if m.hosted {
		m.open.RawStrategies = value
	}
	m.state = stateInOuterTable
	m.splitCheck = false
	m.touch(row.Page)
}

func (m *machine) embeddedRow(row Row) {
	if m.open == nil {
		m.ignore(row, RoleEmbeddedRow)
		return
	}
	er := newEmbeddedRow(row.Cells, row.Page)
	if er.Blank() {
		return
	}
	if m.state == stateContinuationPending {
		m.resume(row.Page)
	}
	n := len(m.open.Embedded)
	if m.splitCheck && n > 0 && (er.Action() == "" || er.Measures() == "") {
		mergeSplit(&m.open.Embedded[n-1], er)
		m.open.SplitRows++
		m.splitCheck = false
		m.touch(row.Page)
		m.logger.Debug("split row merged across page break",
			logging.Args(append(logging.DecisionAttrs("split_row", "merged", "first continued row has an empty cell"),
				logging.Int(logging.FieldPage, row.Page))...)...,
		)
		return
	}
	m.splitCheck = false
	m.open.Embedded = append(m.open.Embedded, er)
	m.state = stateInEmbeddedTable
	m.hosted = false
	m.touch(row.Page)
}

func (m *machine) continuation(row Row) {
	if m.open == nil {
		m.ignore(row, RoleContinuation)
		return
	}
	_, value := splitRow(row.Cells)
	switch {
	case m.state == stateContinuationPending:
		// The opener row flattens the nested rows that follow it.
		m.resume(row.Page)
	case m.state == stateInOuterTable && m.hosted:
		m.open.RawStrategies = textutil.Join(m.open.RawStrategies, value)
	case m.state == stateInOuterTable && row.FirstOnPage && len(m.open.Metadata) > 0:
		last := &m.open.Metadata[len(m.open.Metadata)-1]
		last.Value = textutil.Join(last.Value, value)
	default:
		m.ignore(row, RoleContinuation)
		return
	}
	m.touch(row.Page)
}

func (m *machine) resume(page int) {
	m.state = stateInEmbeddedTable
	m.splitCheck = true
	m.hosted = false
	if n := len(m.open.ContinuationPages); n == 0 || m.open.ContinuationPages[n-1] != page {
		m.open.ContinuationPages = append(m.open.ContinuationPages, page)
	}
	m.logger.Debug("embedded table continues on next page",
		logging.Args(append(logging.DecisionAttrs("continuation", "resumed", "page opened inside nested table"),
			logging.Int(logging.FieldPage, page))...)...,
	)
}

func (m *machine) close(reason CloseReason) {
	rs := *m.open
	rs.Closed = reason
	m.closed = append(m.closed, rs)
	m.open = nil
	m.state = stateSeekingHeader
	m.hosted = false
	m.splitCheck = false
	if len(m.closed) >= m.maxGoals {
		m.capped = true
	}
	m.logger.Debug("goal row-set closed",
		logging.String("goal", rs.Header),
		logging.String("reason", string(reason)),
		logging.Int("first_page", rs.FirstPage),
		logging.Int("last_page", rs.LastPage),
	)
}

// forceClose closes the open row-set without a sentinel and records why.
func (m *machine) forceClose(reason CloseReason) {
	note := fmt.Sprintf("closed by %s on page %d without sentinel", reason, m.page)
	m.open.Degraded = append(m.open.Degraded, note)
	m.warnings = append(m.warnings, services.Wrap(services.ErrStructural, m.unit, "reconcile",
		fmt.Sprintf("goal %q %s", m.open.Header, note), nil))
	logging.WarnWithContext(m.logger, "goal closed without sentinel", "goal_incomplete",
		logging.String("goal", m.open.Header),
		logging.String("reason", string(reason)),
		logging.Int(logging.FieldPage, m.page),
		logging.String(logging.FieldErrorHint, "check extraction.sentinel_labels and the unit's page range"),
		logging.String(logging.FieldImpact, "goal built from the rows found before the break"),
	)
	m.close(reason)
}

func (m *machine) finish() {
	if m.open != nil {
		m.forceClose(CloseRangeExhausted)
	}
	if m.discarded > 0 {
		logging.WarnWithContext(m.logger, "goals beyond the limit discarded", "goals_discarded",
			logging.Int("discarded", m.discarded),
			logging.Int("limit", m.maxGoals),
			logging.String(logging.FieldErrorHint, "raise extraction.max_goals if the report carries more goals"),
			logging.String(logging.FieldImpact, "only the first goals are reported"),
		)
	}
}

func (m *machine) touch(page int) {
	if page > m.open.LastPage {
		m.open.LastPage = page
	}
}

func (m *machine) ignore(row Row, role Role) {
	m.logger.Debug("row outside a goal ignored",
		logging.String("role", role.String()),
		logging.String("state", m.state.String()),
		logging.Int(logging.FieldPage, row.Page),
	)
}

func blank(cells []string) bool {
	for _, c := range cells {
		if textutil.Clean(c) != "" {
			return false
		}
	}
	return true
}
