package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quotekit/quotekit/internal/config"
	"github.com/quotekit/quotekit/internal/servicekey"
)

func hashKeyCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-key",
		Short: "Generate a service API key and its bcrypt hash",
		Long: `Generate a random service API key. Give the raw key to the calling service
and set SERVICE_KEY_HASH on the server to the printed hash. The raw key is
shown once and cannot be recovered from the hash.

The bcrypt cost defaults to BCRYPT_COST (12 when unset).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("cost") {
				keyCfg, err := config.LoadServiceKey()
				if err != nil {
					return fmt.Errorf("loading service key configuration: %w", err)
				}
				cost = keyCfg.BcryptCost
			}

			raw, hash, err := servicekey.Generate(cost)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "key:  %s\n", raw)
			fmt.Fprintf(out, "hash: %s\n", hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 12, "bcrypt cost (default: $BCRYPT_COST)")

	return cmd
}
