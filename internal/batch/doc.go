// Package batch coordinates funscript generation across a set of library
// items.
//
// The coordinator enumerates items from Stash, applies the sidecar skip gate,
// fans work out to a bounded worker pool, and classifies each item as skipped,
// succeeded, failed, or errored. Item failures never abort the run; only
// configuration problems and single-item lookups failing are fatal.
package batch
