package batch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"funbatch/internal/config"
	"funbatch/internal/fungen"
	"funbatch/internal/history"
	"funbatch/internal/logging"
	"funbatch/internal/services"
	"funbatch/internal/sidecar"
	"funbatch/internal/stash"
)

// Coordinator runs funscript generation over a scope of library items.
type Coordinator struct {
	library   stash.Library
	generator fungen.Generator
	placer    sidecar.Placer
	store     *history.Store
	logger    *slog.Logger
	lock      *flock.Flock
	lockPath  string
	workers   int
	overwrite bool

	now      func() time.Time
	newRunID func() string
}

// NewCoordinator constructs a coordinator with initialized dependencies. The
// history store is optional; a nil store disables run recording.
func NewCoordinator(cfg *config.Config, library stash.Library, generator fungen.Generator, store *history.Store, logger *slog.Logger) (*Coordinator, error) {
	if cfg == nil || library == nil || generator == nil {
		return nil, errors.New("coordinator requires config, library, and generator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrIO, "batch", "ensure directories", cfg.Paths.LogDir, err)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "funbatch.lock")
	return &Coordinator{
		library:   library,
		generator: generator,
		placer: sidecar.Placer{
			OutputDir: cfg.FunGen.OutputDir,
			NoCopy:    cfg.FunGen.NoCopy,
		},
		store:     store,
		logger:    logger.With(logging.Component("batch")),
		lock:      flock.New(lockPath),
		lockPath:  lockPath,
		workers:   cfg.Batch.Workers,
		overwrite: cfg.FunGen.Overwrite,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}, nil
}

// Run processes every item the scope selects and returns a summary. Item
// failures are recorded in the summary, not returned as errors; Run itself
// fails only for configuration problems, lock contention, enumeration
// failures, and a single-scene scope that matches nothing.
func (c *Coordinator) Run(ctx context.Context, scope Scope) (*Summary, error) {
	if err := c.generator.Preflight(); err != nil {
		return nil, err
	}

	ok, err := c.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "batch", "acquire lock", c.lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "batch", "acquire lock",
			"another funbatch run is already in progress", nil)
	}
	defer func() {
		if unlockErr := c.lock.Unlock(); unlockErr != nil {
			c.logger.Warn("failed to release run lock", logging.Error(unlockErr))
		}
	}()

	scenes, err := c.selectScenes(ctx, scope)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:     c.newRunID(),
		Scope:     scope.Label(),
		StartedAt: c.now(),
	}
	c.logger.Info("run started",
		logging.String("run_id", summary.RunID),
		logging.String("scope", scope.String()),
		logging.Int("items", len(scenes)),
		logging.Int("workers", c.workers))

	results := c.process(ctx, scenes)
	summary.Items = results
	summary.FinishedAt = c.now()
	summary.Interrupted = ctx.Err() != nil

	c.logger.Info("run finished",
		logging.String("run_id", summary.RunID),
		logging.Int("skipped", summary.Count(OutcomeSkipped)),
		logging.Int("succeeded", summary.Count(OutcomeSucceeded)),
		logging.Int("failed", summary.Count(OutcomeFailed)),
		logging.Int("errored", summary.Count(OutcomeErrored)),
		logging.Duration("duration", summary.Duration()))

	c.record(summary)
	return summary, nil
}

func (c *Coordinator) selectScenes(ctx context.Context, scope Scope) ([]stash.Scene, error) {
	if scope.IsSingle() {
		scene, err := c.library.FindScene(ctx, scope.SceneID())
		if err != nil {
			return nil, err
		}
		return []stash.Scene{scene}, nil
	}
	return c.library.AllScenes(ctx)
}

// process fans items out to a bounded worker pool. Results land at the item's
// enumeration index so summaries stay in library order; items never dispatched
// because the context was cancelled are dropped from the summary.
func (c *Coordinator) process(ctx context.Context, scenes []stash.Scene) []ItemResult {
	workers := c.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(scenes) {
		workers = len(scenes)
	}
	if len(scenes) == 0 {
		return nil
	}

	results := make([]ItemResult, len(scenes))
	processed := make([]bool, len(scenes))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// The dispatch select can hand a job over in the same instant
				// the context is cancelled; drop it here so no new process
				// starts after cancellation.
				if ctx.Err() != nil {
					continue
				}
				results[idx] = c.processItem(ctx, scenes[idx])
				processed[idx] = true
			}
		}()
	}

dispatch:
	for idx := range scenes {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	kept := make([]ItemResult, 0, len(scenes))
	for idx := range results {
		if processed[idx] {
			kept = append(kept, results[idx])
		}
	}
	return kept
}

func (c *Coordinator) processItem(ctx context.Context, scene stash.Scene) ItemResult {
	start := c.now()
	item := ItemResult{Scene: scene}

	// The gate checks the filesystem at decision time, not enumeration time,
	// so sidecars written earlier in the same run are honored.
	if !ShouldGenerate(scene.HasSidecar(), c.overwrite) {
		item.Outcome = OutcomeSkipped
		item.SidecarPath = scene.SidecarPath()
		c.logger.Info("sidecar exists, skipping",
			logging.String("scene", scene.ID),
			logging.String("video", scene.Path))
		return item
	}

	result, err := c.generator.Generate(ctx, scene.Path)
	item.Duration = c.now().Sub(start)
	if err != nil {
		item.Outcome = OutcomeErrored
		item.Detail = err.Error()
		c.logger.Warn("generation errored",
			logging.String("scene", scene.ID),
			logging.String("video", scene.Path),
			logging.Error(err))
		return item
	}
	if !result.Succeeded() {
		code := result.ExitCode
		item.Outcome = OutcomeFailed
		item.ExitCode = &code
		item.Detail = result.StderrExcerpt
		c.logger.Warn("generation failed",
			logging.String("scene", scene.ID),
			logging.String("video", scene.Path),
			logging.Int("exit_code", result.ExitCode))
		return item
	}

	placed, err := c.placer.Place(scene.Path)
	if err != nil {
		item.Outcome = OutcomeErrored
		item.Detail = err.Error()
		c.logger.Warn("sidecar placement failed",
			logging.String("scene", scene.ID),
			logging.String("video", scene.Path),
			logging.Error(err))
		return item
	}

	item.Outcome = OutcomeSucceeded
	item.SidecarPath = placed
	c.logger.Info("sidecar generated",
		logging.String("scene", scene.ID),
		logging.String("sidecar", placed),
		logging.Duration("duration", item.Duration))
	return item
}

// record persists the run. History is advisory: failures are logged and the
// summary is still returned. Recording runs on a fresh context so a cancelled
// run is still written.
func (c *Coordinator) record(summary *Summary) {
	if c.store == nil {
		return
	}

	run := history.Run{
		ID:         summary.RunID,
		Scope:      summary.Scope,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Total:      summary.Total(),
		Skipped:    summary.Count(OutcomeSkipped),
		Succeeded:  summary.Count(OutcomeSucceeded),
		Failed:     summary.Count(OutcomeFailed),
		Errored:    summary.Count(OutcomeErrored),
	}
	items := make([]history.Item, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, history.Item{
			SceneID:     item.Scene.ID,
			VideoPath:   item.Scene.Path,
			Outcome:     string(item.Outcome),
			ExitCode:    item.ExitCode,
			Detail:      item.Detail,
			SidecarPath: item.SidecarPath,
			Duration:    item.Duration,
		})
	}

	recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.store.RecordRun(recordCtx, run, items); err != nil {
		c.logger.Warn("failed to record run history",
			logging.String("run_id", summary.RunID),
			logging.Error(err))
	}
}
