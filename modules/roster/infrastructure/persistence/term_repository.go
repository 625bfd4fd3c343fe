package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/term"
	"github.com/munigov/munigov-sdk/pkg/composables"
)

type pgTermRepository struct{}

func NewTermRepository() term.Repository {
	return &pgTermRepository{}
}

func (r *pgTermRepository) GetByID(ctx context.Context, id uuid.UUID) (term.Term, error) {
	return r.getOne(ctx, `
		SELECT id, label, starts_on, ends_on, active
		FROM terms
		WHERE id = $1
	`, id)
}

func (r *pgTermRepository) GetActive(ctx context.Context) (term.Term, error) {
	return r.getOne(ctx, `
		SELECT id, label, starts_on, ends_on, active
		FROM terms
		WHERE active
		ORDER BY starts_on DESC
		LIMIT 1
	`)
}

func (r *pgTermRepository) getOne(ctx context.Context, sql string, args ...any) (term.Term, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return term.Term{}, errors.Wrap(err, "failed to get transaction")
	}

	var (
		id               uuid.UUID
		label            string
		startsOn, endsOn time.Time
		active           bool
	)
	err = tx.QueryRow(ctx, sql, args...).Scan(&id, &label, &startsOn, &endsOn, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return term.Term{}, term.ErrNotFound
		}
		return term.Term{}, errors.Wrap(err, "failed to get term")
	}
	return term.Hydrate(id, label, startsOn, endsOn, active), nil
}
