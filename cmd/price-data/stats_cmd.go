package main

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/petroflow/petroflow/modules/marketdata/services"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored price records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd)
		},
	}
}

type productStats struct {
	Records  int    `json:"records"`
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

func runStats(cmd *cobra.Command) error {
	ctx, app, cleanup, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	prices := app.Service(services.MarketPriceService{}).(*services.MarketPriceService)
	records, err := prices.GetAll(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}

	perProduct := map[string]*productStats{}
	for _, record := range records {
		day := record.PriceDate.Format("2006-01-02")
		stats, ok := perProduct[record.ProductCode]
		if !ok {
			perProduct[record.ProductCode] = &productStats{Records: 1, Earliest: day, Latest: day}
			continue
		}
		stats.Records++
		if day < stats.Earliest {
			stats.Earliest = day
		}
		if day > stats.Latest {
			stats.Latest = day
		}
	}

	codes := make([]string, 0, len(perProduct))
	for code := range perProduct {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := struct {
		Total    int                      `json:"total"`
		Products map[string]*productStats `json:"products"`
		Order    []string                 `json:"productOrder"`
	}{Total: len(records), Products: perProduct, Order: codes}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
