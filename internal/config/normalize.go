package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStash(); err != nil {
		return err
	}
	if err := c.normalizeFunGen(); err != nil {
		return err
	}
	if err := c.normalizeInstall(); err != nil {
		return err
	}
	c.normalizeBatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStash() error {
	c.Stash.URL = strings.TrimRight(strings.TrimSpace(c.Stash.URL), "/")
	if c.Stash.URL == "" {
		c.Stash.URL = defaultStashURL
	}
	c.Stash.APIKey = strings.TrimSpace(c.Stash.APIKey)
	if c.Stash.APIKey == "" {
		if value, ok := os.LookupEnv("STASH_API_KEY"); ok {
			c.Stash.APIKey = strings.TrimSpace(value)
		}
	}
	c.Stash.SessionCookieName = strings.TrimSpace(c.Stash.SessionCookieName)
	if c.Stash.SessionCookieName == "" {
		c.Stash.SessionCookieName = defaultSessionCookieName
	}
	if c.Stash.RequestTimeout <= 0 {
		c.Stash.RequestTimeout = defaultStashTimeout
	}
	if c.Stash.PageSize <= 0 {
		c.Stash.PageSize = defaultStashPageSize
	}
	return nil
}

func (c *Config) normalizeFunGen() error {
	var err error
	c.FunGen.Path = strings.TrimSpace(c.FunGen.Path)
	if c.FunGen.Path != "" {
		if c.FunGen.Path, err = expandPath(c.FunGen.Path); err != nil {
			return fmt.Errorf("fungen.path: %w", err)
		}
	}
	c.FunGen.Python = strings.TrimSpace(c.FunGen.Python)
	if c.FunGen.Python == "" {
		c.FunGen.Python = defaultPython
	}
	c.FunGen.Mode = strings.TrimSpace(c.FunGen.Mode)
	c.FunGen.ODMode = strings.TrimSpace(c.FunGen.ODMode)
	if c.FunGen.ODMode == "" {
		c.FunGen.ODMode = defaultODMode
	}
	c.FunGen.OutputDir = strings.TrimSpace(c.FunGen.OutputDir)
	if c.FunGen.OutputDir != "" {
		if c.FunGen.OutputDir, err = expandPath(c.FunGen.OutputDir); err != nil {
			return fmt.Errorf("fungen.output_dir: %w", err)
		}
	}
	if c.FunGen.TimeoutSeconds < 0 {
		c.FunGen.TimeoutSeconds = 0
	}
	args := make([]string, 0, len(c.FunGen.ExtraArgs))
	for _, arg := range c.FunGen.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.FunGen.ExtraArgs = args
	return nil
}

func (c *Config) normalizeInstall() error {
	var err error
	c.Install.Repo = strings.TrimSpace(c.Install.Repo)
	c.Install.Ref = strings.TrimSpace(c.Install.Ref)
	c.Install.Dir = strings.TrimSpace(c.Install.Dir)
	if c.Install.Dir != "" {
		if c.Install.Dir, err = expandPath(c.Install.Dir); err != nil {
			return fmt.Errorf("install.dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeBatch() {
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaultWorkers
	}
	if c.Batch.StderrExcerptLimit <= 0 {
		c.Batch.StderrExcerptLimit = defaultStderrExcerptLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
