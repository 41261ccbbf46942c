package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"funbatch/internal/plugin"
)

func newPluginCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "plugin",
		Short:  "Run as a Stash plugin task (JSON protocol on stdin/stdout)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			runner := plugin.NewRunner(cfg, logger, os.Stdin, cmd.OutOrStdout())
			return runner.Run(signalCtx)
		},
	}
}
