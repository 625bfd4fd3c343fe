package roster

import (
	"embed"

	"github.com/munigov/munigov-sdk/modules/roster/infrastructure/persistence"
	"github.com/munigov/munigov-sdk/modules/roster/presentation/controllers"
	"github.com/munigov/munigov-sdk/modules/roster/services"
	"github.com/munigov/munigov-sdk/pkg/application"
	"github.com/munigov/munigov-sdk/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/roster-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterSchema(&migrationFiles)

	opts := configuration.Use().RosterImport
	key := services.NameIdentityKey
	if opts.IdentityKey == "email" {
		key = services.EmailIdentityKey
	}

	app.RegisterServices(
		services.NewRosterImportService(services.Config{
			Officials:   persistence.NewOfficialRepository(),
			Units:       persistence.NewUnitRepository(),
			Terms:       persistence.NewTermRepository(),
			IdentityKey: key,
			Publisher:   app.EventPublisher(),
			MaxRows:     opts.MaxRows,
			MaxRetries:  opts.MaxRetries,
		}),
	)

	app.RegisterControllers(
		controllers.NewRosterImportAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "roster"
}
