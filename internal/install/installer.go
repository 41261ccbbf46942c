package install

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"funbatch/internal/config"
	"funbatch/internal/services"
)

var commandContext = exec.CommandContext

// Action describes what the installer did to the checkout.
type Action string

const (
	ActionCloned  Action = "cloned"
	ActionUpdated Action = "updated"
)

// Result reports a completed install.
type Result struct {
	Action Action
	Dir    string
	Ref    string
}

// Installer manages the FunGen checkout with git: fresh clones, fast-forward
// updates, and optional ref pinning.
type Installer struct {
	git  string
	repo string
	ref  string
	dir  string
}

// New constructs an installer from resolved configuration.
func New(cfg *config.Config) (*Installer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "install", "new installer", "config required", nil)
	}
	repo := strings.TrimSpace(cfg.Install.Repo)
	dir := strings.TrimSpace(cfg.Install.Dir)
	if repo == "" {
		return nil, services.Wrap(services.ErrConfiguration, "install", "new installer", "install.repo required", nil)
	}
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "install", "new installer", "install.dir required", nil)
	}
	return &Installer{
		git:  cfg.GitBinary(),
		repo: repo,
		ref:  strings.TrimSpace(cfg.Install.Ref),
		dir:  dir,
	}, nil
}

// Install clones the repository when no checkout exists, otherwise updates the
// existing checkout with a fast-forward pull. When a ref is configured it is
// checked out afterwards in both cases.
func (i *Installer) Install(ctx context.Context) (Result, error) {
	result := Result{Dir: i.dir, Ref: i.ref}

	if i.checkoutExists() {
		result.Action = ActionUpdated
		if err := i.run(ctx, "pull", "-C", i.dir, "pull", "--ff-only"); err != nil {
			return Result{}, err
		}
	} else {
		result.Action = ActionCloned
		if err := os.MkdirAll(filepath.Dir(i.dir), 0o755); err != nil {
			return Result{}, services.Wrap(services.ErrIO, "install", "prepare directory", i.dir, err)
		}
		if err := i.run(ctx, "clone", "clone", i.repo, i.dir); err != nil {
			return Result{}, err
		}
	}

	if i.ref != "" {
		if err := i.run(ctx, "checkout", "-C", i.dir, "checkout", i.ref); err != nil {
			return Result{}, err
		}
	}

	return result, nil
}

func (i *Installer) checkoutExists() bool {
	info, err := os.Stat(filepath.Join(i.dir, ".git"))
	return err == nil && info.IsDir()
}

func (i *Installer) run(ctx context.Context, operation string, args ...string) error {
	cmd := commandContext(ctx, i.git, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "git " + operation + " failed"
		}
		return services.Wrap(services.ErrExternalTool, "install", "git "+operation, message, err)
	}
	return nil
}
