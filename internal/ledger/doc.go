// Package ledger records pipeline runs and their per-file outcomes in SQLite.
//
// Each invocation of the pipeline (or of a single stage command) opens a run
// identified by a UUID. Every file a stage touches becomes an item row with
// its input, output, status, and error text, so `subtitler status` can show
// what happened without re-reading logs.
//
// The database is a history, not a work queue: nothing is resumed from it.
// Schema changes bump schemaVersion; users delete ledger.db to adopt them.
package ledger
