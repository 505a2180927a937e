// Package unitindex loads the unit index: which schools exist, which index
// bucket (elementary, middle, high) each belongs to, and the inclusive,
// 1-indexed page range of each school's section in its bucket's report.
//
// The index is read once per run and never mutated. ParseText converts the
// district's plain-text table of contents into the same structure.
package unitindex
