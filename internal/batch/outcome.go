package batch

import (
	"time"

	"funbatch/internal/stash"
)

// ShouldGenerate is the skip gate: an existing sidecar suppresses generation
// unless overwrite is on. Pure and total; callers resolve the sidecar check at
// decision time.
func ShouldGenerate(hasSidecar, overwrite bool) bool {
	return overwrite || !hasSidecar
}

// Outcome classifies what happened to one item.
type Outcome string

const (
	// OutcomeSkipped means a sidecar already existed and overwrite was off.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeSucceeded means the tool exited cleanly and the sidecar was placed.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means the tool ran and exited non-zero.
	OutcomeFailed Outcome = "failed"
	// OutcomeErrored means the item could not be processed: spawn failure,
	// timeout, or a missing or unplaceable sidecar after a clean exit.
	OutcomeErrored Outcome = "errored"
)

// ItemResult is the recorded fate of one library item.
type ItemResult struct {
	Scene       stash.Scene
	Outcome     Outcome
	ExitCode    *int
	Detail      string
	SidecarPath string
	Duration    time.Duration
}

// Summary aggregates one run. Items appear in enumeration order regardless of
// worker completion order.
type Summary struct {
	RunID       string
	Scope       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Items       []ItemResult
	Interrupted bool
}

// Count returns how many items ended with the given outcome.
func (s *Summary) Count(outcome Outcome) int {
	count := 0
	for _, item := range s.Items {
		if item.Outcome == outcome {
			count++
		}
	}
	return count
}

// Total returns how many items were processed.
func (s *Summary) Total() int {
	return len(s.Items)
}

// Duration returns the wall-clock span of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
