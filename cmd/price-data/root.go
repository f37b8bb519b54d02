package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/petroflow/petroflow/modules"
	"github.com/petroflow/petroflow/pkg/application"
	"github.com/petroflow/petroflow/pkg/composables"
	"github.com/petroflow/petroflow/pkg/configuration"
	"github.com/petroflow/petroflow/pkg/eventbus"
	"github.com/petroflow/petroflow/pkg/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "price-data",
		Short:         "Market price data import and maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newPurgeCmd())
	cmd.AddCommand(newStatsCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

// bootstrap loads configuration, connects the pool, registers the modules
// and applies the schema. The returned context carries the pool for the
// repository layer; the caller owns the cleanup function.
func bootstrap(ctx context.Context) (context.Context, application.Application, func(), error) {
	conf := configuration.Use()
	logger := logging.ConsoleLogger(conf.LogrusLogLevel())

	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		return nil, nil, nil, withCode(exitDB, fmt.Errorf("connect: %w", err))
	}

	app := application.New(pool, logger, eventbus.NewEventPublisher(logger))
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		pool.Close()
		return nil, nil, nil, withCode(exitUsage, fmt.Errorf("load modules: %w", err))
	}
	if err := app.Migrations().Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, withCode(exitDB, fmt.Errorf("apply schema: %w", err))
	}

	return composables.WithPool(ctx, pool), app, pool.Close, nil
}
