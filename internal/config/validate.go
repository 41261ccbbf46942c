package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. The FunGen path is deliberately
// not required here: the install task runs without one, and generation runs
// verify it during preflight so the failure carries run context.
func (c *Config) Validate() error {
	if err := c.validateStash(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStash() error {
	if strings.TrimSpace(c.Stash.URL) == "" {
		return errors.New("stash.url must be set")
	}
	parsed, err := url.Parse(c.Stash.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("stash.url %q is not a valid URL", c.Stash.URL)
	}
	if c.Stash.RequestTimeout <= 0 {
		return errors.New("stash.request_timeout must be positive")
	}
	if c.Stash.PageSize <= 0 {
		return errors.New("stash.page_size must be positive")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers <= 0 {
		return errors.New("batch.workers must be positive")
	}
	if c.Batch.StderrExcerptLimit <= 0 {
		return errors.New("batch.stderr_excerpt_limit must be positive")
	}
	return nil
}
