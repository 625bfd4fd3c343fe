package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/unit"
	"github.com/munigov/munigov-sdk/pkg/composables"
)

type pgUnitRepository struct{}

func NewUnitRepository() unit.Repository {
	return &pgUnitRepository{}
}

func (r *pgUnitRepository) GetAll(ctx context.Context) ([]unit.Unit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, `
		SELECT id, code, name, created_at, updated_at
		FROM units
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query units")
	}
	defer rows.Close()

	var out []unit.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating units")
	}
	return out, nil
}

func (r *pgUnitRepository) GetByID(ctx context.Context, id uuid.UUID) (unit.Unit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return unit.Unit{}, errors.Wrap(err, "failed to get transaction")
	}

	row := tx.QueryRow(ctx, `
		SELECT id, code, name, created_at, updated_at
		FROM units
		WHERE id = $1
	`, id)

	u, err := scanUnit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return unit.Unit{}, unit.ErrNotFound
		}
		return unit.Unit{}, errors.Wrap(err, "failed to get unit")
	}
	return u, nil
}

func scanUnit(row pgx.Row) (unit.Unit, error) {
	var (
		id                   uuid.UUID
		code, name           string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &code, &name, &createdAt, &updatedAt); err != nil {
		return unit.Unit{}, err
	}
	return unit.Hydrate(id, code, name, createdAt, updatedAt), nil
}
