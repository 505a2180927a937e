// Package goals holds the extracted school and goal records and the
// assembler that builds them from reconciled row-sets.
package goals
