package main

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"funbatch/internal/config"
	"funbatch/internal/fungen"
	"funbatch/internal/history"
	"funbatch/internal/logging"
	"funbatch/internal/stash"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the CLI logger on stderr so stdout stays reserved for
// command output and the plugin protocol.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// newLibrary builds a Stash client from the resolved config.
func (c *commandContext) newLibrary() (stash.Library, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return stash.New(cfg.Stash.URL,
		stash.WithHTTPClient(&http.Client{Timeout: cfg.StashTimeout()}),
		stash.WithAPIKey(cfg.Stash.APIKey),
		stash.WithSessionCookie(cfg.Stash.SessionCookieName, cfg.Stash.SessionCookieValue),
		stash.WithPageSize(cfg.Stash.PageSize),
	)
}

func (c *commandContext) newGenerator() (*fungen.CLI, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return fungen.NewFromConfig(cfg)
}

func (c *commandContext) openStore() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
