package main

import (
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"funbatch/internal/batch"
	"funbatch/internal/logging"
)

func newRunCommand(cctx *commandContext) *cobra.Command {
	var overwrite bool
	var workers int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate funscripts for every scene in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyRunFlags(cctx, cmd, overwrite, workers)
			return executeRun(cctx, cmd, batch.All(), jsonOut)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate scripts that already exist")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent generations (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run summary as JSON")
	return cmd
}

func newSceneCommand(cctx *commandContext) *cobra.Command {
	var overwrite bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scene <id>",
		Short: "Generate a funscript for a single scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			applyRunFlags(cctx, cmd, overwrite, 0)
			return executeRun(cctx, cmd, batch.Single(id), jsonOut)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate the script even if it already exists")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run summary as JSON")
	return cmd
}

func applyRunFlags(cctx *commandContext, cmd *cobra.Command, overwrite bool, workers int) {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return
	}
	if cmd.Flags().Changed("overwrite") {
		cfg.FunGen.Overwrite = overwrite
	}
	if workers > 0 {
		cfg.Batch.Workers = workers
	}
}

func executeRun(cctx *commandContext, cmd *cobra.Command, scope batch.Scope, jsonOut bool) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cctx.ensureLogger()
	if err != nil {
		return err
	}
	library, err := cctx.newLibrary()
	if err != nil {
		return err
	}
	generator, err := cctx.newGenerator()
	if err != nil {
		return err
	}

	store, err := cctx.openStore()
	if err != nil {
		logger.Warn("history unavailable", logging.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	coordinator, err := batch.NewCoordinator(cfg, library, generator, store, logger)
	if err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	summary, err := coordinator.Run(signalCtx, scope)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd, newSummaryPayload(summary))
	}
	renderSummary(cmd.OutOrStdout(), summary)
	return nil
}
