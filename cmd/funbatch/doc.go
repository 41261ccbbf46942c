// Command funbatch generates .funscript sidecars for a Stash library by
// driving the external FunGen tool, either from the command line or as a
// Stash plugin task.
package main
