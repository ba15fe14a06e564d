package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytpub/internal/config"
	"ytpub/internal/fileutil"
)

// newCleanCommand empties a working directory without deleting the directory
// itself. Defaults to the archive directory.
func newCleanCommand(ctx *commandContext) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the contents of a working directory",
		Long:  "Removes the direct children of the target directory (default: the archive directory). The directory itself is kept; a missing directory is a no-op.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dir := resolveCleanTarget(cfg, target)
			if dir == "" {
				return fmt.Errorf("no directory to clean; configure archive_dir or pass --dir")
			}

			results, err := fileutil.ClearDirectory(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			removed := 0
			for _, result := range results {
				if result.Err != nil {
					fmt.Fprintf(out, "failed %s: %v\n", result.Name, result.Err)
					continue
				}
				if result.Removed {
					removed++
				}
			}
			fmt.Fprintf(out, "Removed %d entries from %s\n", removed, dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "dir", "", "Directory to clean (defaults to the archive directory)")
	return cmd
}

func resolveCleanTarget(cfg *config.Config, flag string) string {
	if trimmed := strings.TrimSpace(flag); trimmed != "" {
		expanded, err := config.ExpandPath(trimmed)
		if err != nil {
			return trimmed
		}
		return expanded
	}
	return strings.TrimSpace(cfg.Paths.ArchiveDir)
}
