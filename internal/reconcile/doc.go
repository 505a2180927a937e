// Package reconcile groups the table rows of a unit's pages into goal
// row-sets.
//
// School improvement reports lay each goal out as an outer two-column table
// whose "Strategy to Address Priority" cell holds a nested Action/Measure
// table. Page breaks can fall anywhere: inside the nested table (a clean
// continuation) or even inside one of its rows (a split row). The reconciler
// walks pages strictly in order, splices nested tables back into the outer
// row stream, classifies every row into a Role, and drives a small state
// machine that opens a row-set at each "Priority" header and closes it at a
// sentinel row (the engagement strategy row by default) or when the unit's
// page range runs out.
package reconcile
