// Package output renders and commits the run artifacts in the output
// directory: the structured schools.json, the flattened goals.txt used for
// retrieval, and the normalization cache snapshot.
//
// Every artifact is rendered fully in memory and written through
// fileutil.WriteFileAtomic, so an interrupted run leaves the previous
// artifacts intact. A flock on .sipdash.lock keeps two runs from committing
// into the same directory at once.
package output
