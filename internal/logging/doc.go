// Package logging builds the slog loggers used across funbatch.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for log collection. Attr helpers keep call sites terse and the
// component field is rendered as a message prefix in console output.
package logging
