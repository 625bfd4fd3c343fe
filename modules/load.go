package modules

import (
	"github.com/munigov/munigov-sdk/modules/roster"
	"github.com/munigov/munigov-sdk/pkg/application"
)

var BuiltInModules = []application.Module{
	roster.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	modules := append(BuiltInModules, externalModules...)
	return application.Load(app, modules...)
}
