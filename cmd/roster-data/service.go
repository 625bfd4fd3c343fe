package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/munigov/munigov-sdk/modules/roster/infrastructure/persistence"
	"github.com/munigov/munigov-sdk/modules/roster/services"
	"github.com/munigov/munigov-sdk/pkg/composables"
	"github.com/munigov/munigov-sdk/pkg/configuration"
)

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, configuration.Use().Database.Opts)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("connect to database: %w", err))
	}
	return pool, nil
}

func commandContext(ctx context.Context, pool *pgxpool.Pool) context.Context {
	logger := configuration.Use().Logger()
	ctx = composables.WithPool(ctx, pool)
	return composables.WithLogger(ctx, logrus.NewEntry(logger))
}

func newImportService() *services.RosterImportService {
	opts := configuration.Use().RosterImport
	key := services.NameIdentityKey
	if opts.IdentityKey == "email" {
		key = services.EmailIdentityKey
	}
	return services.NewRosterImportService(services.Config{
		Officials:   persistence.NewOfficialRepository(),
		Units:       persistence.NewUnitRepository(),
		Terms:       persistence.NewTermRepository(),
		IdentityKey: key,
		MaxRows:     opts.MaxRows,
		MaxRetries:  opts.MaxRetries,
	})
}

func openRosterFile(path string) (io.ReadCloser, services.Format, error) {
	format, ok := services.DetectFormat("", path)
	if !ok {
		return nil, "", withCode(exitUsage, fmt.Errorf("unsupported file type %q (expected .csv or .xlsx)", path))
	}
	f, err := os.Open(strings.TrimSpace(path))
	if err != nil {
		return nil, "", withCode(exitUsage, fmt.Errorf("open %s: %w", path, err))
	}
	return f, format, nil
}
