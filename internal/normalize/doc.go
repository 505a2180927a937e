// Package normalize fills the classifier-derived fields of each goal: the
// normalized focus grades and student group, and the strategy summary.
//
// Every lookup goes through a cache keyed by a fingerprint of the inputs. A
// miss calls the classifier only when network use is allowed; any failure
// falls back to fixed defaults so a run never fails on the classifier.
package normalize
