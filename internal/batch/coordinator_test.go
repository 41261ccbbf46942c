package batch_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"funbatch/internal/batch"
	"funbatch/internal/fungen"
	"funbatch/internal/services"
	"funbatch/internal/stash"
	"funbatch/internal/testsupport"
)

type fakeLibrary struct {
	scenes []stash.Scene
	err    error
}

func (f *fakeLibrary) FindScene(ctx context.Context, id int) (stash.Scene, error) {
	if f.err != nil {
		return stash.Scene{}, f.err
	}
	for _, scene := range f.scenes {
		if scene.ID == strconv.Itoa(id) {
			return scene, nil
		}
	}
	return stash.Scene{}, services.Wrap(services.ErrNotFound, "stash", "find scene", strconv.Itoa(id), nil)
}

func (f *fakeLibrary) AllScenes(ctx context.Context) ([]stash.Scene, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scenes, nil
}

type fakeGenerator struct {
	preflightErr error
	generate     func(ctx context.Context, videoPath string) (fungen.Result, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeGenerator) Preflight() error {
	return f.preflightErr
}

func (f *fakeGenerator) Generate(ctx context.Context, videoPath string) (fungen.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, videoPath)
	f.mu.Unlock()
	if f.generate != nil {
		return f.generate(ctx, videoPath)
	}
	return fungen.Result{}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// writingGenerator simulates the tool placing the script next to the video.
func writingGenerator(t *testing.T) *fakeGenerator {
	t.Helper()
	return &fakeGenerator{
		generate: func(ctx context.Context, videoPath string) (fungen.Result, error) {
			testsupport.WriteFile(t, stash.SidecarPathFor(videoPath), `{"actions":[]}`)
			return fungen.Result{}, nil
		},
	}
}

func TestRunClassifiesMixedOutcomes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mediaDir := t.TempDir()

	skippedVideo := filepath.Join(mediaDir, "a.mp4")
	successVideo := filepath.Join(mediaDir, "b.mp4")
	failedVideo := filepath.Join(mediaDir, "c.mp4")
	testsupport.WriteFile(t, stash.SidecarPathFor(skippedVideo), "{}")

	library := &fakeLibrary{scenes: []stash.Scene{
		{ID: "1", Path: skippedVideo},
		{ID: "2", Path: successVideo},
		{ID: "3", Path: failedVideo},
	}}
	generator := &fakeGenerator{
		generate: func(ctx context.Context, videoPath string) (fungen.Result, error) {
			if videoPath == failedVideo {
				return fungen.Result{ExitCode: 2, StderrExcerpt: "tracking lost"}, nil
			}
			testsupport.WriteFile(t, stash.SidecarPathFor(videoPath), "{}")
			return fungen.Result{}, nil
		},
	}

	coordinator, err := batch.NewCoordinator(cfg, library, generator, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	summary, err := coordinator.Run(context.Background(), batch.All())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total() != 3 {
		t.Fatalf("expected 3 items, got %d", summary.Total())
	}
	if summary.RunID == "" {
		t.Fatal("expected a run id")
	}
	if got := summary.Count(batch.OutcomeSkipped); got != 1 {
		t.Fatalf("expected 1 skipped, got %d", got)
	}
	if got := summary.Count(batch.OutcomeSucceeded); got != 1 {
		t.Fatalf("expected 1 succeeded, got %d", got)
	}
	if got := summary.Count(batch.OutcomeFailed); got != 1 {
		t.Fatalf("expected 1 failed, got %d", got)
	}

	// Summary preserves enumeration order regardless of completion order.
	if summary.Items[0].Scene.ID != "1" || summary.Items[1].Scene.ID != "2" || summary.Items[2].Scene.ID != "3" {
		t.Fatalf("unexpected item order: %+v", summary.Items)
	}
	failed := summary.Items[2]
	if failed.ExitCode == nil || *failed.ExitCode != 2 || failed.Detail != "tracking lost" {
		t.Fatalf("unexpected failed item: %+v", failed)
	}
	if generator.callCount() != 2 {
		t.Fatalf("skipped item must not invoke the tool, got %d calls", generator.callCount())
	}
}

func TestRunSingleScene(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	library := &fakeLibrary{scenes: []stash.Scene{{ID: "42", Path: video}}}
	generator := writingGenerator(t)

	coordinator, err := batch.NewCoordinator(cfg, library, generator, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	summary, err := coordinator.Run(context.Background(), batch.Single(42))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total() != 1 || summary.Items[0].Outcome != batch.OutcomeSucceeded {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Scope != "scene:42" {
		t.Fatalf("unexpected scope label: %q", summary.Scope)
	}
}

func TestRunSingleSceneNotFoundIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	coordinator, err := batch.NewCoordinator(cfg, &fakeLibrary{}, &fakeGenerator{}, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	_, err = coordinator.Run(context.Background(), batch.Single(999))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunPreflightFailureAbortsBeforeEnumeration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	library := &fakeLibrary{err: errors.New("library must not be consulted")}
	generator := &fakeGenerator{
		preflightErr: services.Wrap(services.ErrConfiguration, "fungen", "preflight", "entrypoint not found", nil),
	}

	coordinator, err := batch.NewCoordinator(cfg, library, generator, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	_, err = coordinator.Run(context.Background(), batch.All())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRunRefusesConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	coordinator, err := batch.NewCoordinator(cfg, &fakeLibrary{}, &fakeGenerator{}, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	other := flock.New(filepath.Join(cfg.Paths.LogDir, "funbatch.lock"))
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("take lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = other.Unlock() }()

	_, err = coordinator.Run(context.Background(), batch.All())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for held lock, got %v", err)
	}
}

func TestRunOverwriteRegeneratesExistingSidecar(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.FunGen.Overwrite = true
	video := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, stash.SidecarPathFor(video), "{}")

	library := &fakeLibrary{scenes: []stash.Scene{{ID: "1", Path: video}}}
	generator := writingGenerator(t)

	coordinator, err := batch.NewCoordinator(cfg, library, generator, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	summary, err := coordinator.Run(context.Background(), batch.All())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Items[0].Outcome != batch.OutcomeSucceeded {
		t.Fatalf("expected regeneration, got %+v", summary.Items[0])
	}
	if generator.callCount() != 1 {
		t.Fatalf("expected tool invocation despite existing sidecar, got %d", generator.callCount())
	}
}

func TestRunMissingSidecarAfterCleanExitIsErrored(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	library := &fakeLibrary{scenes: []stash.Scene{{ID: "1", Path: video}}}
	// Clean exit but no script written anywhere.
	generator := &fakeGenerator{}

	coordinator, err := batch.NewCoordinator(cfg, library, generator, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	summary, err := coordinator.Run(context.Background(), batch.All())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Items[0].Outcome != batch.OutcomeErrored {
		t.Fatalf("expected errored item, got %+v", summary.Items[0])
	}
}

func TestRunCancellationStopsDispatch(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1))
	mediaDir := t.TempDir()
	library := &fakeLibrary{scenes: []stash.Scene{
		{ID: "1", Path: filepath.Join(mediaDir, "a.mp4")},
		{ID: "2", Path: filepath.Join(mediaDir, "b.mp4")},
		{ID: "3", Path: filepath.Join(mediaDir, "c.mp4")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	generator := &fakeGenerator{
		generate: func(ctx context.Context, videoPath string) (fungen.Result, error) {
			cancel()
			testsupport.WriteFile(t, stash.SidecarPathFor(videoPath), "{}")
			return fungen.Result{}, nil
		},
	}

	coordinator, err := batch.NewCoordinator(cfg, library, generator, nil, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	summary, err := coordinator.Run(ctx, batch.All())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Interrupted {
		t.Fatal("expected interrupted summary")
	}
	if summary.Total() >= 3 {
		t.Fatalf("expected dispatch to stop early, got %d items", summary.Total())
	}
	if summary.Count(batch.OutcomeSucceeded) == 0 {
		t.Fatal("completed outcomes must be retained")
	}
}

func TestRunCancellationDispatchesNothingNew(t *testing.T) {
	// When cancellation lands while a worker is already blocked waiting for
	// the next job, the dispatch select sees both cases ready. Repeat the run
	// to cover both orderings; no iteration may start a second item.
	for i := 0; i < 30; i++ {
		cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1))
		mediaDir := t.TempDir()
		scenes := make([]stash.Scene, 0, 10)
		for n := 1; n <= 10; n++ {
			scenes = append(scenes, stash.Scene{
				ID:   strconv.Itoa(n),
				Path: filepath.Join(mediaDir, "clip"+strconv.Itoa(n)+".mp4"),
			})
		}
		library := &fakeLibrary{scenes: scenes}

		ctx, cancel := context.WithCancel(context.Background())
		generator := &fakeGenerator{
			generate: func(ctx context.Context, videoPath string) (fungen.Result, error) {
				cancel()
				testsupport.WriteFile(t, stash.SidecarPathFor(videoPath), "{}")
				return fungen.Result{}, nil
			},
		}

		coordinator, err := batch.NewCoordinator(cfg, library, generator, nil, nil)
		if err != nil {
			t.Fatalf("NewCoordinator: %v", err)
		}
		summary, err := coordinator.Run(ctx, batch.All())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got := generator.callCount(); got != 1 {
			t.Fatalf("tool invoked %d times after cancellation, want 1", got)
		}
		if summary.Total() != 1 {
			t.Fatalf("expected only the in-flight item in the summary, got %d", summary.Total())
		}
		if !summary.Interrupted {
			t.Fatal("expected interrupted summary")
		}
	}
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	video := filepath.Join(t.TempDir(), "clip.mp4")
	library := &fakeLibrary{scenes: []stash.Scene{{ID: "7", Path: video}}}
	generator := writingGenerator(t)

	coordinator, err := batch.NewCoordinator(cfg, library, generator, store, nil)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	summary, err := coordinator.Run(context.Background(), batch.All())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	recorded, ok, err := store.LatestRun(context.Background())
	if err != nil || !ok {
		t.Fatalf("LatestRun: ok=%v err=%v", ok, err)
	}
	if recorded.ID != summary.RunID || recorded.Succeeded != 1 || recorded.Total != 1 {
		t.Fatalf("unexpected recorded run: %+v", recorded)
	}
	items, err := store.RunItems(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("RunItems: %v", err)
	}
	if len(items) != 1 || items[0].SceneID != "7" || items[0].Outcome != "succeeded" {
		t.Fatalf("unexpected recorded items: %+v", items)
	}
}
