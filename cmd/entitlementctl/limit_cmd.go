package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"entitlement-gateway/middleware/entitlement/application"
	"entitlement-gateway/middleware/entitlement/domain"
)

func limitCmd(f *rootFlags) *cobra.Command {
	var (
		authenticated bool
		tier          string
	)
	cmd := &cobra.Command{
		Use:   "limit",
		Short: "Show how many products a visitor may see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.entitlements()
			if err != nil {
				return err
			}
			g := application.Gate{Config: cfg}
			t := domain.ParseTier(tier)
			note := ""
			if authenticated && t != "" && !t.Known() {
				note = " (unknown tier, free-tier limit applies)"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d%s\n", g.ProductDisplayLimit(authenticated, t), note)
			return err
		},
	}
	cmd.Flags().BoolVar(&authenticated, "authenticated", false, "visitor is signed in")
	cmd.Flags().StringVar(&tier, "tier", string(domain.TierFree), "subscription tier")
	return cmd
}
