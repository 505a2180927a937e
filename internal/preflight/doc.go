// Package preflight provides readiness checks for the inputs, output
// directories, and classifier that an extraction run depends on.
//
// The CLI "sipdash doctor" command runs RunAll and prints each Result. The
// "sipdash index check" command uses CheckPDFRanges on its own. Checks for
// optional inputs are skipped when the config does not name them.
package preflight
