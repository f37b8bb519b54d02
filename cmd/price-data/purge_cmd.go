package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/modules/marketdata/services"
)

type purgeOptions struct {
	all     bool
	product string
	from    string
	to      string
	by      string
}

func newPurgeCmd() *cobra.Command {
	var opts purgeOptions

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored price records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "delete every record")
	cmd.Flags().StringVar(&opts.product, "product", "", "delete records for one product code")
	cmd.Flags().StringVar(&opts.from, "from", "", "delete records from this date (YYYY-MM-DD, requires --to)")
	cmd.Flags().StringVar(&opts.to, "to", "", "delete records up to this date (YYYY-MM-DD, requires --from)")
	cmd.Flags().StringVar(&opts.by, "by", "cli", "operator recorded on the purge event")

	return cmd
}

func runPurge(cmd *cobra.Command, opts purgeOptions) error {
	modes := 0
	if opts.all {
		modes++
	}
	if opts.product != "" {
		modes++
	}
	if opts.from != "" || opts.to != "" {
		modes++
	}
	if modes != 1 {
		return withCode(exitUsage, fmt.Errorf("specify exactly one of --all, --product, or --from/--to"))
	}

	ctx, app, cleanup, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	prices := app.Service(services.MarketPriceService{}).(*services.MarketPriceService)

	var removed int64
	switch {
	case opts.all:
		removed, err = prices.DeleteAll(ctx, opts.by)
	case opts.product != "":
		removed, err = prices.DeleteByProduct(ctx, strings.ToUpper(strings.TrimSpace(opts.product)), opts.by)
	default:
		from, parseErr := time.Parse("2006-01-02", opts.from)
		if parseErr != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --from date: %w", parseErr))
		}
		to, parseErr := time.Parse("2006-01-02", opts.to)
		if parseErr != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --to date: %w", parseErr))
		}
		removed, err = prices.DeleteByDateRange(ctx, &marketprice.DeleteRangeDTO{From: from, To: to}, opts.by)
	}
	if err != nil {
		return withCode(exitDB, err)
	}

	fmt.Printf("removed %d records\n", removed)
	return nil
}
