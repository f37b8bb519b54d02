package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"reflect"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/petroflow/petroflow/pkg/eventbus"
)

// Module is a self-contained feature area that registers its services,
// controllers and schema with the application.
type Module interface {
	Name() string
	Register(app Application) error
}

// Controller registers HTTP routes on the shared router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

type Application interface {
	DB() *pgxpool.Pool
	Logger() *logrus.Logger
	EventPublisher() eventbus.EventBus

	RegisterServices(services ...any)
	Service(service any) any

	RegisterControllers(controllers ...Controller)
	Controllers() []Controller

	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	Middleware() []mux.MiddlewareFunc

	Migrations() *MigrationRegistry
}

func New(pool *pgxpool.Pool, logger *logrus.Logger, publisher eventbus.EventBus) Application {
	return &application{
		pool:       pool,
		logger:     logger,
		publisher:  publisher,
		services:   map[reflect.Type]any{},
		migrations: &MigrationRegistry{},
	}
}

type application struct {
	pool        *pgxpool.Pool
	logger      *logrus.Logger
	publisher   eventbus.EventBus
	services    map[reflect.Type]any
	controllers []Controller
	middleware  []mux.MiddlewareFunc
	migrations  *MigrationRegistry
}

func (a *application) DB() *pgxpool.Pool                 { return a.pool }
func (a *application) Logger() *logrus.Logger            { return a.logger }
func (a *application) EventPublisher() eventbus.EventBus { return a.publisher }

func (a *application) RegisterServices(services ...any) {
	for _, svc := range services {
		t := reflect.TypeOf(svc)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		a.services[t] = svc
	}
}

// Service resolves a registered service by example value, e.g.
// app.Service(services.PriceImportService{}).
func (a *application) Service(service any) any {
	t := reflect.TypeOf(service)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	svc, ok := a.services[t]
	if !ok {
		panic(fmt.Sprintf("service %s is not registered", t.Name()))
	}
	return svc
}

func (a *application) RegisterControllers(controllers ...Controller) {
	a.controllers = append(a.controllers, controllers...)
}

func (a *application) Controllers() []Controller {
	return a.controllers
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

func (a *application) Migrations() *MigrationRegistry {
	return a.migrations
}

// MigrationRegistry collects embedded schema files from modules and can apply
// them in lexical order. Schema files are idempotent (CREATE ... IF NOT
// EXISTS) so re-applying on boot is safe.
type MigrationRegistry struct {
	schemas []*embed.FS
}

func (m *MigrationRegistry) RegisterSchema(fsys *embed.FS) {
	m.schemas = append(m.schemas, fsys)
}

func (m *MigrationRegistry) CollectSchema() ([]string, error) {
	var files []string
	var contents = map[string]string{}
	for _, fsys := range m.schemas {
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".sql") {
				return nil
			}
			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				return err
			}
			files = append(files, path)
			contents[path] = string(data)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, contents[f])
	}
	return out, nil
}

func (m *MigrationRegistry) Apply(ctx context.Context, pool *pgxpool.Pool) error {
	stmts, err := m.CollectSchema()
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
