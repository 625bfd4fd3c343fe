package schema

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Apply executes every embedded *.sql file against the pool, in lexical
// order within each filesystem. Files are idempotent DDL (CREATE ... IF NOT
// EXISTS), so reapplying is safe.
func Apply(ctx context.Context, pool *pgxpool.Pool, schemas []*embed.FS) error {
	for _, schemaFS := range schemas {
		err := fs.WalkDir(schemaFS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(p, ".sql") {
				return nil
			}
			content, err := schemaFS.ReadFile(p)
			if err != nil {
				return errors.Wrapf(err, "failed to read schema file %s", p)
			}
			if _, err := pool.Exec(ctx, string(content)); err != nil {
				return errors.Wrapf(err, "failed to apply schema file %s", path.Base(p))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
