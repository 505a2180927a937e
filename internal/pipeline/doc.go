// Package pipeline runs one extraction pass: load the unit index, reconcile
// and assemble every unit in parallel, normalize the goals, and commit the
// artifacts once the whole pass is done.
//
// Units run on an errgroup bounded by extraction.workers. A unit's failure
// (or panic) is recorded in the run summary and never stops the others;
// only a missing index, an unusable configuration, or a held output lock
// fail the run. The normalization cache is loaded once before the pass,
// seeded from the previous schools.json when no snapshot exists, and saved
// with the other artifacts.
package pipeline
