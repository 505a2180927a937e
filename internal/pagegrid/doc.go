// Package pagegrid supplies page-indexed table grids to the reconciler.
//
// The grids come from an external table extractor; this package never reads
// document geometry itself. Provider is the only contract the reconciler
// needs. FileProvider reads the extractor's JSON or YAML dump lazily and
// shares it between every unit of a bucket; MemoryProvider backs tests.
// PageCount reads a source PDF's length so index page ranges can be checked.
package pagegrid
