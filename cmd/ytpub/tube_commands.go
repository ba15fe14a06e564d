package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ytpub/internal/tube"
)

// newPlaylistCommand lists the video IDs of a playlist. Lookup failures are
// printed as diagnostics rather than returned, so scripts iterating playlists
// keep going.
func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "playlist <playlist-id-or-url>",
		Short: "List video IDs in a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := ctx.authenticatedClient(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := tube.NewYouTubeService(cmd.Context(), client)
			if err != nil {
				return err
			}

			lister := tube.NewLister(svc, nil)
			ids, err := lister.PlaylistVideoIDs(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "playlist lookup failed: %v\n", err)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d video(s)\n", len(ids))
			return nil
		},
	}
}

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "captions <video-id>",
		Short: "Download the caption text for an owned video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := ctx.authenticatedClient(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := tube.NewYouTubeService(cmd.Context(), client)
			if err != nil {
				return err
			}

			captions := tube.NewCaptions(svc, nil)
			text, err := captions.Fetch(cmd.Context(), args[0], lang)
			if err != nil {
				if errors.Is(err, tube.ErrCaptionsDisabled) {
					return fmt.Errorf("captions are disabled for video %s", args[0])
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Caption track language (default: first available)")
	return cmd
}
