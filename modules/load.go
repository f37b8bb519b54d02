package modules

import (
	"github.com/petroflow/petroflow/modules/marketdata"
	"github.com/petroflow/petroflow/pkg/application"
)

var BuiltInModules = []application.Module{
	marketdata.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range append(BuiltInModules, externalModules...) {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
