package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"funbatch/internal/batch"
	"funbatch/internal/config"
	"funbatch/internal/fungen"
	"funbatch/internal/history"
	"funbatch/internal/install"
	"funbatch/internal/logging"
	"funbatch/internal/stash"
)

// Runner executes one plugin task: read the stdin document, run the requested
// scope, write the result document to stdout. Task failures become an error
// payload on stdout, not a process error; Stash treats a non-JSON exit as a
// crashed plugin.
type Runner struct {
	base   *config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer

	runBatch   func(ctx context.Context, cfg *config.Config, scope batch.Scope) (*batch.Summary, error)
	runInstall func(ctx context.Context, cfg *config.Config) (install.Result, error)
}

// NewRunner constructs a runner over the given streams. The base config
// supplies defaults that the stdin document overrides per task.
func NewRunner(base *config.Config, logger *slog.Logger, stdin io.Reader, stdout io.Writer) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		base:   base,
		logger: logger.With(logging.Component("plugin")),
		stdin:  stdin,
		stdout: stdout,
	}
	r.runBatch = r.defaultRunBatch
	r.runInstall = defaultRunInstall
	return r
}

// Run executes the task described on stdin.
func (r *Runner) Run(ctx context.Context) error {
	in, err := ReadInput(r.stdin)
	if err != nil {
		return writeError(r.stdout, err.Error())
	}

	cfg := r.effectiveConfig(in)
	scope := in.Scope()
	r.logger.Info("plugin task started",
		logging.String("scope", scope),
		logging.String("server", cfg.Stash.URL))

	if scope == "install" {
		result, err := r.runInstall(ctx, cfg)
		if err != nil {
			return writeError(r.stdout, err.Error())
		}
		return writeResult(r.stdout, InstallReport{
			Installed: true,
			Message:   fmt.Sprintf("%s FunGen at %s", result.Action, result.Dir),
		})
	}

	if cfg.FunGen.Path == "" {
		return writeError(r.stdout, "missing required arg: fungen_path")
	}

	var batchScope batch.Scope
	switch scope {
	case "scene", "hook":
		id, ok := in.TargetSceneID()
		if !ok {
			return writeError(r.stdout, "missing scene id for scope "+scope)
		}
		batchScope = batch.Single(id)
	default:
		batchScope = batch.All()
	}

	summary, err := r.runBatch(ctx, cfg, batchScope)
	if err != nil {
		return writeError(r.stdout, err.Error())
	}
	return writeResult(r.stdout, BatchReport{
		Processed: summary.Count(batch.OutcomeSucceeded),
		Skipped:   summary.Count(batch.OutcomeSkipped),
		Failed:    summary.Count(batch.OutcomeFailed) + summary.Count(batch.OutcomeErrored),
	})
}

// effectiveConfig layers the stdin document over the base config: task args
// win over plugin settings, which win over the config file.
func (r *Runner) effectiveConfig(in Input) *config.Config {
	cfg := config.Default()
	if r.base != nil {
		cfg = *r.base
	} else if expanded, err := config.ExpandPath(cfg.Paths.LogDir); err == nil {
		// Default paths carry a literal "~" until Load normalizes them.
		cfg.Paths.LogDir = expanded
	}

	cfg.Stash.URL = in.ServerURL()
	if cookie := in.ServerConnection.SessionCookie; cookie.Name != "" && cookie.Value != "" {
		cfg.Stash.SessionCookieName = cookie.Name
		cfg.Stash.SessionCookieValue = cookie.Value
	}

	if python := firstNonEmpty(in.Args.PythonPath, in.Settings.PythonPath); python != "" {
		cfg.FunGen.Python = python
	}
	if path := firstNonEmpty(in.Args.FunGenPath, in.Settings.FunGenPath); path != "" {
		cfg.FunGen.Path = in.ExpandPluginDir(path)
	}
	if in.Args.Mode != "" {
		cfg.FunGen.Mode = in.Args.Mode
	}
	if in.Args.ODMode != "" {
		cfg.FunGen.ODMode = in.Args.ODMode
	}
	if in.Args.Overwrite {
		cfg.FunGen.Overwrite = true
	}
	if in.Args.NoAutotune {
		cfg.FunGen.NoAutotune = true
	}
	if in.Args.NoCopy {
		cfg.FunGen.NoCopy = true
	}
	if len(in.Args.ExtraArgs) > 0 {
		cfg.FunGen.ExtraArgs = []string(in.Args.ExtraArgs)
	}

	if in.Args.InstallDir != "" {
		cfg.Install.Dir = in.ExpandPluginDir(in.Args.InstallDir)
	}
	if repo := firstNonEmpty(in.Args.FunGenRepo, in.Settings.FunGenRepo); repo != "" {
		cfg.Install.Repo = repo
	}
	if ref := firstNonEmpty(in.Args.FunGenRef, in.Settings.FunGenRef); ref != "" {
		cfg.Install.Ref = ref
	}

	return &cfg
}

func (r *Runner) defaultRunBatch(ctx context.Context, cfg *config.Config, scope batch.Scope) (*batch.Summary, error) {
	library, err := stash.New(cfg.Stash.URL,
		stash.WithHTTPClient(&http.Client{Timeout: cfg.StashTimeout()}),
		stash.WithAPIKey(cfg.Stash.APIKey),
		stash.WithSessionCookie(cfg.Stash.SessionCookieName, cfg.Stash.SessionCookieValue),
		stash.WithPageSize(cfg.Stash.PageSize),
	)
	if err != nil {
		return nil, err
	}
	generator, err := fungen.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg)
	if err != nil {
		r.logger.Warn("history unavailable", logging.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	coordinator, err := batch.NewCoordinator(cfg, library, generator, store, r.logger)
	if err != nil {
		return nil, err
	}
	return coordinator.Run(ctx, scope)
}

func defaultRunInstall(ctx context.Context, cfg *config.Config) (install.Result, error) {
	installer, err := install.New(cfg)
	if err != nil {
		return install.Result{}, err
	}
	return installer.Install(ctx)
}
