package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petroflow/petroflow/modules"
	"github.com/petroflow/petroflow/pkg/application"
	"github.com/petroflow/petroflow/pkg/configuration"
	"github.com/petroflow/petroflow/pkg/eventbus"
	"github.com/petroflow/petroflow/pkg/middleware"
	"github.com/petroflow/petroflow/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(pool, logger, eventbus.NewEventPublisher(logger))
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	if err := app.Migrations().Apply(ctx, pool); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	app.RegisterMiddleware(
		middleware.ProvidePool(pool),
		middleware.RequestLogger(logger),
	)

	srv := server.NewHTTPServer(app)
	router := srv.Router()
	if conf.Prometheus.Enabled {
		router.Handle(conf.Prometheus.Path, promhttp.Handler())
	}

	logger.Infof("listening on %s", conf.SocketAddress)
	if err := srv.Serve(conf.SocketAddress, router); err != nil {
		panic(err)
	}
}
