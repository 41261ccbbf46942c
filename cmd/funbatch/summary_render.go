package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"

	"funbatch/internal/batch"
)

const (
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

type summaryPayload struct {
	RunID       string               `json:"run_id"`
	Scope       string               `json:"scope"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Interrupted bool                 `json:"interrupted,omitempty"`
	Skipped     int                  `json:"skipped"`
	Succeeded   int                  `json:"succeeded"`
	Failed      int                  `json:"failed"`
	Errored     int                  `json:"errored"`
	Items       []summaryItemPayload `json:"items"`
}

type summaryItemPayload struct {
	SceneID     string `json:"scene_id"`
	VideoPath   string `json:"video_path"`
	Outcome     string `json:"outcome"`
	ExitCode    *int   `json:"exit_code,omitempty"`
	Detail      string `json:"detail,omitempty"`
	SidecarPath string `json:"sidecar_path,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

func newSummaryPayload(summary *batch.Summary) summaryPayload {
	payload := summaryPayload{
		RunID:       summary.RunID,
		Scope:       summary.Scope,
		StartedAt:   summary.StartedAt,
		FinishedAt:  summary.FinishedAt,
		Interrupted: summary.Interrupted,
		Skipped:     summary.Count(batch.OutcomeSkipped),
		Succeeded:   summary.Count(batch.OutcomeSucceeded),
		Failed:      summary.Count(batch.OutcomeFailed),
		Errored:     summary.Count(batch.OutcomeErrored),
	}
	for _, item := range summary.Items {
		payload.Items = append(payload.Items, summaryItemPayload{
			SceneID:     item.Scene.ID,
			VideoPath:   item.Scene.Path,
			Outcome:     string(item.Outcome),
			ExitCode:    item.ExitCode,
			Detail:      item.Detail,
			SidecarPath: item.SidecarPath,
			DurationMS:  item.Duration.Milliseconds(),
		})
	}
	return payload
}

func renderSummary(w io.Writer, summary *batch.Summary) {
	colorize := shouldColorize(w)

	rows := make([][]string, 0, len(summary.Items))
	for _, item := range summary.Items {
		detail := item.Detail
		if item.Outcome == batch.OutcomeSucceeded {
			detail = item.SidecarPath
		}
		rows = append(rows, []string{
			item.Scene.ID,
			filepath.Base(item.Scene.Path),
			outcomeLabel(item.Outcome, colorize),
			formatDuration(item.Duration),
			truncate(detail, 60),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable([]string{"Scene", "Video", "Outcome", "Time", "Detail"}, rows, 3))
	}

	fmt.Fprintf(w, "Run %s (%s): %d items in %s - %d skipped, %d succeeded, %d failed, %d errored\n",
		summary.RunID,
		summary.Scope,
		summary.Total(),
		formatDuration(summary.Duration()),
		summary.Count(batch.OutcomeSkipped),
		summary.Count(batch.OutcomeSucceeded),
		summary.Count(batch.OutcomeFailed),
		summary.Count(batch.OutcomeErrored))
	if summary.Interrupted {
		fmt.Fprintln(w, "Run was interrupted; remaining items were not attempted.")
	}
}

func outcomeLabel(outcome batch.Outcome, colorize bool) string {
	label := string(outcome)
	if !colorize {
		return label
	}
	switch outcome {
	case batch.OutcomeSucceeded:
		return ansiGreen + label + ansiReset
	case batch.OutcomeFailed, batch.OutcomeErrored:
		return ansiRed + label + ansiReset
	case batch.OutcomeSkipped:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
