package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytpub/internal/config"
	"ytpub/internal/preflight"
	"ytpub/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and queue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				results := preflight.RunAll(cmd.Context(), cfg)
				rows := make([][]string, 0, len(results))
				for _, result := range results {
					status := "FAIL"
					if result.Passed {
						status = "OK"
					}
					rows = append(rows, []string{result.Name, status, result.Detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Check", "Status", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Queue: %d pending, %d uploading, %d completed, %d failed, %d review\n",
					health.Pending, health.Uploading, health.Completed, health.Failed, health.Review)
				fmt.Fprintln(out, "Database: "+store.Path())
				fmt.Fprintln(out, "Ready: "+yesNo(preflight.AllPassed(results)))
				return nil
			})
		},
	}
}
