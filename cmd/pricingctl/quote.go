package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quotekit/quotekit/internal/pricing"
)

type quoteFlags struct {
	size        string
	scope       string
	zip         string
	rush        bool
	seasonal    bool
	bundledWith []string
	rooms       string
	hours       string
	sqft        string
	ceiling     bool
}

func quoteCmd() *cobra.Command {
	var qf quoteFlags

	cmd := &cobra.Command{
		Use:   "quote <serviceType>",
		Short: "Compute a quote against the live pricing tables",
		Long: `Compute a price quote for one service without going through the HTTP API.
Omitting --seasonal applies the seasonal rate for the current month; pass
--seasonal=false to suppress it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := qf.options(cmd.Flags())
			if err != nil {
				return err
			}

			db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			engine := pricing.NewEngine(pricing.NewPostgresRepository(db.Pool()))

			if qf.ceiling {
				c, err := engine.GetGuaranteedCeiling(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "quote %s: %s ceiling %s valid until %s\n",
					c.QuoteID, c.ServiceType, c.Ceiling.StringFixed(2), c.ValidUntil.Format("2006-01-02 15:04 MST"))
				return nil
			}

			q, err := engine.GetQuote(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printQuote(cmd.OutOrStdout(), q)
		},
	}

	f := cmd.Flags()
	f.StringVar(&qf.size, "size", "", "size category")
	f.StringVar(&qf.scope, "scope", "", "scope level")
	f.StringVar(&qf.zip, "zip", "", "customer zip code")
	f.BoolVar(&qf.rush, "rush", false, "apply the rush multiplier")
	f.BoolVar(&qf.seasonal, "seasonal", false, "force the seasonal rate on or off")
	f.StringSliceVar(&qf.bundledWith, "bundled-with", nil, "other services booked together")
	f.StringVar(&qf.rooms, "rooms", "", "room count for per_room services")
	f.StringVar(&qf.hours, "hours", "", "hours for hourly services")
	f.StringVar(&qf.sqft, "sqft", "", "square feet for per_sqft services")
	f.BoolVar(&qf.ceiling, "ceiling", false, "issue a guaranteed ceiling quote instead")

	return cmd
}

func (qf quoteFlags) options(flags *pflag.FlagSet) (pricing.QuoteOptions, error) {
	opts := pricing.QuoteOptions{
		Size:        qf.size,
		Scope:       qf.scope,
		Zip:         qf.zip,
		IsRush:      qf.rush,
		BundledWith: qf.bundledWith,
	}
	if flags.Changed("seasonal") {
		v := qf.seasonal
		opts.IsSeasonal = &v
	}

	var err error
	if opts.Rooms, err = parseQuantity("rooms", qf.rooms); err != nil {
		return opts, err
	}
	if opts.Hours, err = parseQuantity("hours", qf.hours); err != nil {
		return opts, err
	}
	if opts.Sqft, err = parseQuantity("sqft", qf.sqft); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseQuantity(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is not a number", name, raw)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("--%s must not be negative", name)
	}
	return &d, nil
}

func printQuote(w io.Writer, q *pricing.QuoteResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "service\t%s\n", q.ServiceType)
	fmt.Fprintf(tw, "base rate\t%s / %s\n", q.BaseRate.StringFixed(2), q.Unit)
	fmt.Fprintf(tw, "base price\t%s\n", q.Breakdown.BasePrice.StringFixed(2))
	for _, m := range q.AppliedMultipliers {
		line := fmt.Sprintf("  %s\tx%s", m.Name, m.Factor.String())
		if m.Reason != "" {
			line += "\t" + m.Reason
		}
		fmt.Fprintln(tw, line)
	}
	fmt.Fprintf(tw, "estimate\t%s - %s\n", q.LowEstimate.StringFixed(2), q.HighEstimate.StringFixed(2))
	fmt.Fprintf(tw, "ceiling\t%s\n", q.GuaranteedCeiling.StringFixed(2))
	return tw.Flush()
}
