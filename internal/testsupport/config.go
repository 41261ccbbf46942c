package testsupport

import (
	"path/filepath"
	"testing"

	"funbatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.FunGen.Path = filepath.Join(base, "fungen")
	cfg.FunGen.OutputDir = filepath.Join(base, "output")
	cfg.Install.Dir = filepath.Join(base, "fungen")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithStashURL overrides the Stash server URL on the test config.
func WithStashURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Stash.URL = url
	}
}

// WithWorkers overrides the batch worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Batch.Workers = workers
	}
}
