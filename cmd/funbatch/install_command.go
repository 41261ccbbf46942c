package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"funbatch/internal/install"
)

func newInstallCommand(cctx *commandContext) *cobra.Command {
	var repo string
	var ref string
	var dir string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Clone or update the FunGen checkout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			if repo != "" {
				cfg.Install.Repo = repo
			}
			if ref != "" {
				cfg.Install.Ref = ref
			}
			if dir != "" {
				cfg.Install.Dir = dir
			}

			installer, err := install.New(cfg)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := installer.Install(signalCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s FunGen at %s\n", result.Action, result.Dir)
			if result.Ref != "" {
				fmt.Fprintf(out, "Checked out %s\n", result.Ref)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository URL (default from config)")
	cmd.Flags().StringVar(&ref, "ref", "", "Branch, tag, or commit to check out")
	cmd.Flags().StringVar(&dir, "dir", "", "Checkout directory (default from config)")
	return cmd
}
