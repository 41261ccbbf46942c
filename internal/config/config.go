package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// LogDir also holds the run history database and the run lock file.
	LogDir string `toml:"log_dir"`
}

// Stash contains connection settings for the Stash library server.
type Stash struct {
	URL                string `toml:"url"`
	APIKey             string `toml:"api_key"`
	SessionCookieName  string `toml:"session_cookie_name"`
	SessionCookieValue string `toml:"session_cookie_value"`
	RequestTimeout     int    `toml:"request_timeout"`
	PageSize           int    `toml:"page_size"`
}

// FunGen contains settings for the external funscript generator.
type FunGen struct {
	// Path points at the FunGen checkout or directly at its entrypoint script.
	Path       string   `toml:"path"`
	Python     string   `toml:"python"`
	Mode       string   `toml:"mode"`
	ODMode     string   `toml:"od_mode"`
	ExtraArgs  []string `toml:"extra_args"`
	Overwrite  bool     `toml:"overwrite"`
	NoAutotune bool     `toml:"no_autotune"`
	NoCopy     bool     `toml:"no_copy"`
	// OutputDir is where FunGen drops scripts when it does not write them next
	// to the video. Empty means the tool places them adjacent to the source.
	OutputDir      string `toml:"output_dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Install contains settings for the FunGen install task only; the generation
// core never reads them.
type Install struct {
	Repo string `toml:"repo"`
	Ref  string `toml:"ref"`
	Dir  string `toml:"dir"`
}

// Batch contains settings for the run coordinator.
type Batch struct {
	Workers            int `toml:"workers"`
	StderrExcerptLimit int `toml:"stderr_excerpt_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for funbatch.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Stash   Stash   `toml:"stash"`
	FunGen  FunGen  `toml:"fungen"`
	Install Install `toml:"install"`
	Batch   Batch   `toml:"batch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/funbatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("funbatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories funbatch needs at runtime.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// StashTimeout returns the request timeout for library queries.
func (c *Config) StashTimeout() time.Duration {
	return time.Duration(c.Stash.RequestTimeout) * time.Second
}

// GenerationTimeout returns the per-item timeout for the external tool.
// Zero means the tool may run unbounded.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.FunGen.TimeoutSeconds) * time.Second
}

// GitBinary returns the git executable name used by the install task.
func (c *Config) GitBinary() string {
	return "git"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
