package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quotekit/quotekit/internal/founding"
	"github.com/quotekit/quotekit/internal/pricing"
	"github.com/quotekit/quotekit/internal/seed"
)

func seedCmd() *cobra.Command {
	var (
		file     string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load pricing tables from a YAML file",
		Long: `Upsert price matrix rows, zones, seasonal rates and bundle tiers from a
YAML file, and pre-register founding member emails. Rows not named in the
file are left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := seed.Load(file)
			if err != nil {
				var verr *seed.ValidationError
				if errors.As(err, &verr) {
					for _, fe := range verr.Errors {
						slog.Error("invalid seed field", "field", fe.Field, "message", fe.Message)
					}
				}
				return err
			}
			if validate {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", file)
				return nil
			}

			db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := seed.Apply(cmd.Context(), f,
				pricing.NewPostgresRepository(db.Pool()),
				founding.NewPostgresRepository(db.Pool()),
			)
			if err != nil {
				return err
			}

			slog.Info("seed applied",
				"entries", res.Entries,
				"zones", res.Zones,
				"seasonalRates", res.SeasonalRates,
				"bundleTiers", res.BundleTiers,
				"foundingMembers", res.FoundingMembers,
				"skippedMembers", res.SkippedMembers,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the seed YAML file")
	cmd.Flags().BoolVar(&validate, "validate", false, "validate the file without touching the database")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
