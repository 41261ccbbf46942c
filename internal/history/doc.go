// Package history persists completed batch runs in a local SQLite database.
//
// The store records one row per run plus one row per processed item, and
// serves the CLI's history and stats views. History is advisory: a failure to
// record a run never fails the run itself.
package history
