package marketdata

import (
	"embed"

	"github.com/petroflow/petroflow/modules/marketdata/domain/classification"
	"github.com/petroflow/petroflow/modules/marketdata/infrastructure/persistence"
	"github.com/petroflow/petroflow/modules/marketdata/presentation/controllers"
	"github.com/petroflow/petroflow/modules/marketdata/services"
	"github.com/petroflow/petroflow/pkg/application"
	"github.com/petroflow/petroflow/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/marketdata-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	conf := configuration.Use()
	importCfg, err := services.ImportConfigFromOptions(conf.Import, conf.MaxUploadSize)
	if err != nil {
		return err
	}

	ruleSet := classification.DefaultRuleSet()
	if conf.Import.RulesPath != "" {
		ruleSet, err = classification.LoadRuleSetFile(conf.Import.RulesPath)
		if err != nil {
			return err
		}
	}

	repo := persistence.NewMarketPriceRepository()
	uow := services.NewPgUnitOfWork()

	app.RegisterServices(
		services.NewMarketPriceService(repo, uow, app.EventPublisher()),
		services.NewPriceImportService(
			repo,
			uow,
			classification.NewClassifier(ruleSet),
			app.EventPublisher(),
			app.Logger(),
			importCfg,
		),
	)

	app.RegisterControllers(
		controllers.NewMarketPriceController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "marketdata"
}
