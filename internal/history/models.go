package history

import "time"

// Run is one recorded batch run with its aggregated counts.
type Run struct {
	ID         string
	Scope      string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Skipped    int
	Succeeded  int
	Failed     int
	Errored    int
}

// Duration returns the wall-clock span of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Item is one processed library item within a run.
type Item struct {
	RunID       string
	SceneID     string
	VideoPath   string
	Outcome     string
	ExitCode    *int
	Detail      string
	SidecarPath string
	Duration    time.Duration
}

// Stats aggregates counts across all recorded runs.
type Stats struct {
	Runs      int
	Items     int
	Skipped   int
	Succeeded int
	Failed    int
	Errored   int
}
