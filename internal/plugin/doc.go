// Package plugin implements the Stash plugin task protocol.
//
// Stash launches the binary with a JSON document on stdin describing the
// server connection, task arguments, and plugin settings. The runner maps
// that document onto a batch, single-scene, hook, or install task and writes
// exactly one JSON document to stdout: an output payload or an error string.
package plugin
