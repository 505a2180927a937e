// Package textutil provides the text helpers shared by the extraction pipeline.
//
// Clean and Join normalize cell text emitted by the table extractor so split
// cells merge without doubled whitespace. Slug builds goal identifiers.
//
// Index implements the lexical goal search behind `sipdash search`: each goal
// block becomes a term-count Fingerprint, weighted by inverse document
// frequency across all stored goals and compared by cosine similarity.
package textutil
