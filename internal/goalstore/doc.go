// Package goalstore exports extracted goals to a SQLite database (goals.db)
// and answers filtered lexical searches over it.
//
// The database is rebuilt from scratch on every export: rows go into a temp
// file beside the target, which is renamed into place once complete. Each
// goal row carries its flattened block text, and Search ranks those blocks
// by TF-IDF cosine similarity against the query. IDF weights come from every
// goal in the store so scores do not shift with the filter.
//
// Schema changes bump schemaVersion; an old database is rejected by Open
// and replaced by the next export.
package goalstore
