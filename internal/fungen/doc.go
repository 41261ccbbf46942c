// Package fungen wraps the external FunGen command-line tool.
//
// The client builds deterministic argument vectors, runs the tool as a child
// process under a bounded wait, and classifies outcomes: clean exit, non-zero
// exit with a bounded stderr excerpt, spawn failure, or timeout. Failed
// generations are never retried.
package fungen
