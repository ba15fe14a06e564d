package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytpub/internal/auth"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage YouTube OAuth credentials",
	}

	authCmd.AddCommand(newAuthLoginCommand(ctx))
	authCmd.AddCommand(newAuthStatusCommand(ctx))

	return authCmd
}

// newAuthLoginCommand runs the paste-the-code consent flow and stores the
// resulting refresh token.
func newAuthLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize ytpub against a YouTube channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			oauthCfg, err := auth.LoadOAuthConfig(cfg.YouTube.ClientSecretPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Open the following URL in a browser and approve access:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, auth.AuthCodeURL(oauthCfg))
			fmt.Fprintln(out)
			fmt.Fprint(out, "Paste the authorization code here: ")

			reader := bufio.NewReader(cmd.InOrStdin())
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			tokens := auth.NewTokenStore(cfg.YouTube.TokenPath)
			if err := auth.Exchange(cmd.Context(), oauthCfg, tokens, code); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token saved to %s\n", tokens.Path())
			return nil
		},
	}
}

func newAuthStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored credential state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			secretOK := false
			if _, err := auth.LoadOAuthConfig(cfg.YouTube.ClientSecretPath); err == nil {
				secretOK = true
			}
			tokens := auth.NewTokenStore(cfg.YouTube.TokenPath)

			fmt.Fprintf(out, "Client secret: %s (valid: %s)\n", cfg.YouTube.ClientSecretPath, yesNo(secretOK))
			fmt.Fprintf(out, "Token: %s (present: %s)\n", tokens.Path(), yesNo(tokens.Exists()))
			if !tokens.Exists() {
				fmt.Fprintln(out, "Run 'ytpub auth login' to authorize")
			}
			return nil
		},
	}
}
