package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytpub/internal/config"
	"ytpub/internal/daemon"
	"ytpub/internal/queue"
	"ytpub/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the upload daemon in the foreground",
		Long:  "Acquires the instance lock, scans the inbox on an interval, and uploads queued asset folders until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemon.Run(cmd.Context(), cfg, daemon.Options{LogLevel: ctx.logLevel()})
		},
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Scan the inbox and upload pending items once",
		Long:  "Performs a single scan-and-drain pass without starting the daemon loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemon.RunOnce(cmd.Context(), cfg, daemon.Options{LogLevel: ctx.logLevel()})
		},
	}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the inbox and enqueue complete asset folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				scanner := workflow.NewScanner(cfg, store, nil)
				summary, err := scanner.Scan(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, skip := range summary.Skipped {
					fmt.Fprintf(out, "skipped %s: %s\n", skip.Dir, skip.Reason)
				}
				for _, item := range summary.Added {
					fmt.Fprintf(out, "queued #%d %s\n", item.ID, item.FolderPath)
				}
				fmt.Fprintf(out, "%d queued, %d already queued, %d skipped\n",
					len(summary.Added), summary.AlreadyQueued, len(summary.Skipped))
				return nil
			})
		},
	}
}
