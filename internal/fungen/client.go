package fungen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"funbatch/internal/config"
	"funbatch/internal/services"
)

var commandContext = exec.CommandContext

// Generator defines the behaviour the batch coordinator needs from the
// external funscript tool.
type Generator interface {
	Preflight() error
	Generate(ctx context.Context, videoPath string) (Result, error)
}

// Result captures the outcome of one tool invocation. A non-zero ExitCode
// means the tool ran and reported failure; spawn problems and timeouts are
// returned as errors instead.
type Result struct {
	ExitCode      int
	StderrExcerpt string
}

// Succeeded reports whether the tool exited cleanly.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Option configures the CLI client.
type Option func(*CLI)

// WithPython overrides the python interpreter used to run FunGen.
func WithPython(python string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(python) != "" {
			c.python = strings.TrimSpace(python)
		}
	}
}

// WithMode sets the generation mode flag passed through to FunGen.
func WithMode(mode string) Option {
	return func(c *CLI) {
		c.mode = strings.TrimSpace(mode)
	}
}

// WithODMode sets the object-detection mode flag passed through to FunGen.
func WithODMode(odMode string) Option {
	return func(c *CLI) {
		c.odMode = strings.TrimSpace(odMode)
	}
}

// WithOverwrite makes FunGen regenerate scripts that already exist.
func WithOverwrite(overwrite bool) Option {
	return func(c *CLI) {
		c.overwrite = overwrite
	}
}

// WithNoAutotune disables FunGen's autotune pass.
func WithNoAutotune(noAutotune bool) Option {
	return func(c *CLI) {
		c.noAutotune = noAutotune
	}
}

// WithNoCopy tells FunGen not to copy the script next to the video itself.
func WithNoCopy(noCopy bool) Option {
	return func(c *CLI) {
		c.noCopy = noCopy
	}
}

// WithExtraArgs appends opaque pass-through arguments. They are forwarded
// verbatim so FunGen's flag surface can evolve independently of funbatch.
func WithExtraArgs(args []string) Option {
	return func(c *CLI) {
		c.extraArgs = append([]string(nil), args...)
	}
}

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithStderrExcerptLimit bounds the captured stderr tail used in reports.
func WithStderrExcerptLimit(limit int) Option {
	return func(c *CLI) {
		if limit > 0 {
			c.stderrLimit = limit
		}
	}
}

// CLI wraps the FunGen command-line tool.
type CLI struct {
	path        string
	python      string
	mode        string
	odMode      string
	overwrite   bool
	noAutotune  bool
	noCopy      bool
	extraArgs   []string
	timeout     time.Duration
	stderrLimit int
}

// New constructs a FunGen client. Path may point at the FunGen checkout
// directory or directly at the entrypoint script.
func New(path string, opts ...Option) (*CLI, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "fungen", "new client", "fungen.path required", nil)
	}
	cli := &CLI{
		path:        path,
		python:      "python3",
		odMode:      "current",
		stderrLimit: 2000,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// Entrypoint resolves the script FunGen is started with: a .py path is used
// as-is, anything else is treated as the checkout directory.
func (c *CLI) Entrypoint() string {
	if strings.HasSuffix(c.path, ".py") {
		return c.path
	}
	return filepath.Join(c.path, "main.py")
}

// Preflight verifies the entrypoint exists before any item is attempted, so a
// bad path fails the run fast instead of failing every item.
func (c *CLI) Preflight() error {
	entrypoint := c.Entrypoint()
	info, err := os.Stat(entrypoint)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "fungen", "preflight",
				"entrypoint not found: "+entrypoint, nil)
		}
		return services.Wrap(services.ErrConfiguration, "fungen", "preflight", entrypoint, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "fungen", "preflight",
			"entrypoint is a directory: "+entrypoint, nil)
	}
	return nil
}

// BuildArgs maps a video path into the argument vector passed to the python
// interpreter. The mapping is deterministic: entrypoint, video, the configured
// flags, then the pass-through arguments verbatim.
func (c *CLI) BuildArgs(videoPath string) []string {
	args := []string{c.Entrypoint(), videoPath}
	if c.mode != "" {
		args = append(args, "--mode", c.mode)
	}
	if c.odMode != "" {
		args = append(args, "--od-mode", c.odMode)
	}
	if c.overwrite {
		args = append(args, "--overwrite")
	}
	if c.noAutotune {
		args = append(args, "--no-autotune")
	}
	if c.noCopy {
		args = append(args, "--no-copy")
	}
	args = append(args, c.extraArgs...)
	return args
}

// Generate runs FunGen for a single video and classifies the outcome. The call
// blocks until the tool exits or the timeout elapses; on timeout the process
// is killed and an ErrTimeout-tagged error is returned. The tool is never
// retried here — a flaky generation is reported, not masked.
func (c *CLI) Generate(ctx context.Context, videoPath string) (Result, error) {
	if strings.TrimSpace(videoPath) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "fungen", "generate", "video path required", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := commandContext(runCtx, c.python, c.BuildArgs(videoPath)...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return Result{ExitCode: 0}, nil
	}

	if runCtx.Err() != nil {
		marker := services.ErrTimeout
		if errors.Is(runCtx.Err(), context.Canceled) {
			marker = services.ErrExternalTool
		}
		return Result{}, services.Wrap(marker, "fungen", "generate", videoPath, runCtx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{
			ExitCode:      exitErr.ExitCode(),
			StderrExcerpt: excerpt(stderr.String(), stdout.String(), c.stderrLimit),
		}, nil
	}

	// Spawn failure: interpreter missing, permission denied, and similar.
	return Result{}, services.Wrap(services.ErrExternalTool, "fungen", "spawn", c.python, err)
}

// excerpt returns the trailing portion of stderr (falling back to stdout)
// bounded to limit bytes, for inclusion in per-item reports.
func excerpt(stderr, stdout string, limit int) string {
	text := strings.TrimSpace(stderr)
	if text == "" {
		text = strings.TrimSpace(stdout)
	}
	if text == "" {
		return "unknown error"
	}
	if limit > 0 && len(text) > limit {
		cut := len(text) - limit
		// Never split a multi-byte rune at the cut point.
		for cut < len(text) && !utf8.RuneStart(text[cut]) {
			cut++
		}
		text = text[cut:]
	}
	return text
}

// NewFromConfig constructs a client from resolved configuration.
func NewFromConfig(cfg *config.Config) (*CLI, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "fungen", "new client", "config required", nil)
	}
	return New(cfg.FunGen.Path,
		WithPython(cfg.FunGen.Python),
		WithMode(cfg.FunGen.Mode),
		WithODMode(cfg.FunGen.ODMode),
		WithOverwrite(cfg.FunGen.Overwrite),
		WithNoAutotune(cfg.FunGen.NoAutotune),
		WithNoCopy(cfg.FunGen.NoCopy),
		WithExtraArgs(cfg.FunGen.ExtraArgs),
		WithTimeout(cfg.GenerationTimeout()),
		WithStderrExcerptLimit(cfg.Batch.StderrExcerptLimit),
	)
}

var _ Generator = (*CLI)(nil)
