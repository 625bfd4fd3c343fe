package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/munigov/munigov-sdk/modules"
	"github.com/munigov/munigov-sdk/pkg/application"
	"github.com/munigov/munigov-sdk/pkg/configuration"
	"github.com/munigov/munigov-sdk/pkg/eventbus"
	"github.com/munigov/munigov-sdk/pkg/schema"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := configuration.Use().Logger()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		return withCode(exitDB, fmt.Errorf("load modules: %w", err))
	}

	if err := schema.Apply(ctx, pool, app.Schemas()); err != nil {
		return withCode(exitDB, err)
	}
	logger.Info("schema applied")
	return nil
}
