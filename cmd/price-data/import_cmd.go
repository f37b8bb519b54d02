package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/modules/marketdata/infrastructure/feeds"
	"github.com/petroflow/petroflow/modules/marketdata/services"
)

type importOptions struct {
	file      string
	kind      string
	overwrite bool
	by        string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a price feed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "path to the feed file (required)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "feed kind: spot-spreadsheet, futures-settlement-spreadsheet, unified-csv, historical-csv")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "purge all existing records before importing")
	cmd.Flags().StringVar(&opts.by, "by", "", "operator recorded on imported rows (defaults to the OS user)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	if _, err := feeds.ParseFeedKind(opts.kind); err != nil {
		return withCode(exitUsage, err)
	}

	content, err := os.ReadFile(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("read feed file: %w", err))
	}

	by := strings.TrimSpace(opts.by)
	if by == "" {
		if u, err := user.Current(); err == nil {
			by = u.Username
		} else {
			by = "cli"
		}
	}

	ctx, app, cleanup, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	importer := app.Service(services.PriceImportService{}).(*services.PriceImportService)
	dto := &marketprice.ImportUploadDTO{
		FileName:   filepath.Base(opts.file),
		FeedKind:   opts.kind,
		ImportedBy: by,
		Overwrite:  opts.overwrite,
		Content:    content,
	}
	if errs, ok := dto.Ok(ctx); !ok {
		return withCode(exitValidation, errs)
	}

	result, err := importer.Import(ctx, dto)
	if err != nil {
		return withCode(exitDB, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return withCode(exitDB, err)
	}
	if !result.Success {
		return withCode(exitValidation, fmt.Errorf("import finished with %d errors", len(result.Errors)))
	}
	return nil
}
