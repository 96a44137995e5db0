package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mapping-editor/internal/auth"
	"mapping-editor/internal/config"
)

var (
	tokenSubject string
	tokenRoles   []string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token signed with the configured secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		tok, err := auth.GenerateAccessToken(tokenSubject, tokenRoles, cfg.JWTSecret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "editor", "token subject")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "roles", []string{"editor"}, "token roles")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "token lifetime")
}
