package reconcile

import (
	"slices"
	"strings"

	"github.com/lisaguthrie/sipdashboard/internal/pagegrid"
)

// Row is one table row in reading order.
type Row struct {
	Cells []string
	Page  int
	// Nested is set when the row belongs to a table nested inside an outer cell.
	Nested bool
	// FirstOnPage marks the first outer row of a page.
	FirstOnPage bool
}

// linearize flattens a page's blocks into a single row stream.
//
// Extractors report a nested table as its own block after the outer table,
// while the outer table already carries the rows that follow it (including
// the sentinel). Nested blocks are therefore spliced in directly after the
// row that hosts them: the "Strategy to Address Priority" row, or on a
// continuation page the leading row with an empty label cell. On such a
// page the first nested block continues the open goal: it follows the
// opener unless a host row precedes the page's first goal header. Later
// nested blocks claim successive host rows; extra nested blocks follow the
// previously spliced rows.
func linearize(blocks []pagegrid.Block) []Row {
	var (
		rows      []Row
		hosts     []int
		nextHost  int
		opener    bool
		ownHosts  int
		pastGoals bool
	)
	openerAt, lastSplice := -1, -1
	if len(blocks) > 0 && len(blocks[0].Rows) > 0 {
		opener = isOpenerRow(blocks[0].Rows[0])
	}

	for bi, block := range blocks {
		if len(block.Rows) == 0 {
			continue
		}
		headed := startsEmbedded(block)
		if bi > 0 && (headed || (bi == 1 && opener)) {
			nested := make([]Row, 0, len(block.Rows))
			for _, cells := range block.Rows {
				nested = append(nested, Row{Cells: cells, Page: block.Page, Nested: true})
			}
			at := len(rows)
			switch {
			case openerAt >= 0 && bi == 1 && (!headed || ownHosts == 0):
				at = openerAt + 1
				openerAt = -1
			case nextHost < len(hosts):
				at = hosts[nextHost] + 1
				nextHost++
			case lastSplice >= 0:
				at = lastSplice + 1
			}
			rows = slices.Insert(rows, at, nested...)
			for i := range hosts {
				if hosts[i] >= at {
					hosts[i] += len(nested)
				}
			}
			if openerAt >= at {
				openerAt += len(nested)
			}
			lastSplice = at + len(nested) - 1
			continue
		}
		for ri, cells := range block.Rows {
			first := bi == 0 && ri == 0
			rows = append(rows, Row{Cells: cells, Page: block.Page, FirstOnPage: first})
			switch {
			case first && opener:
				openerAt = len(rows) - 1
			case isHostRow(cells):
				hosts = append(hosts, len(rows)-1)
				if !pastGoals {
					ownHosts++
				}
			default:
				label, value := splitRow(cells)
				if isGoalHeader(strings.ToLower(label), value) {
					pastGoals = true
				}
			}
		}
	}
	return rows
}

func startsEmbedded(block pagegrid.Block) bool {
	label, value := splitRow(block.Rows[0])
	return isEmbeddedHeader(strings.ToLower(label), value)
}
