package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/munigov/munigov-sdk/modules/roster/domain/aggregates/official"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
	"github.com/munigov/munigov-sdk/pkg/composables"
)

type pgOfficialRepository struct{}

func NewOfficialRepository() official.Repository {
	return &pgOfficialRepository{}
}

const officialColumns = `
	id,
	term_id,
	unit_id,
	position,
	first_name,
	last_name,
	COALESCE(middle_name, ''),
	COALESCE(suffix, ''),
	COALESCE(email, ''),
	status,
	created_at,
	updated_at
`

func (r *pgOfficialRepository) GetByTerm(ctx context.Context, termID uuid.UUID) ([]official.Official, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, `
		SELECT `+officialColumns+`
		FROM officials
		WHERE term_id = $1
		ORDER BY created_at ASC, id ASC
	`, termID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query officials")
	}
	defer rows.Close()

	var out []official.Official
	for rows.Next() {
		o, err := scanOfficial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating officials")
	}
	return out, nil
}

func (r *pgOfficialRepository) ActiveSeatCounts(ctx context.Context, termID uuid.UUID) (map[official.SeatKey]int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, `
		SELECT unit_id, position, COUNT(*)
		FROM officials
		WHERE term_id = $1 AND status = 'active'
		GROUP BY unit_id, position
	`, termID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query seat counts")
	}
	defer rows.Close()

	counts := make(map[official.SeatKey]int)
	for rows.Next() {
		var (
			unitID uuid.UUID
			pos    string
			n      int
		)
		if err := rows.Scan(&unitID, &pos, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan seat count")
		}
		counts[official.SeatKey{UnitID: unitID, Position: position.Position(pos)}] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating seat counts")
	}
	return counts, nil
}

func (r *pgOfficialRepository) Create(ctx context.Context, o official.Official) (official.Official, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return official.Official{}, errors.Wrap(err, "failed to get transaction")
	}

	ident := o.Identity()
	row := tx.QueryRow(ctx, `
		INSERT INTO officials (
			term_id,
			unit_id,
			position,
			first_name,
			last_name,
			middle_name,
			suffix,
			email,
			status,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, now(), now())
		RETURNING `+officialColumns+`
	`,
		o.TermID(),
		o.UnitID(),
		string(o.Position()),
		ident.FirstName,
		ident.LastName,
		ident.MiddleName,
		ident.Suffix,
		ident.Email,
		string(o.Status()),
	)

	created, err := scanOfficial(row)
	if err != nil {
		if isUniqueViolation(err) {
			return official.Official{}, official.ErrDuplicate
		}
		return official.Official{}, errors.Wrap(err, "failed to create official")
	}
	return created, nil
}

func (r *pgOfficialRepository) UpdateIdentity(ctx context.Context, id uuid.UUID, ident official.Identity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE officials
		SET first_name = $2,
			last_name = $3,
			middle_name = NULLIF($4, ''),
			suffix = NULLIF($5, ''),
			email = NULLIF($6, ''),
			updated_at = now()
		WHERE id = $1
	`, id, ident.FirstName, ident.LastName, ident.MiddleName, ident.Suffix, ident.Email)
	if err != nil {
		return errors.Wrap(err, "failed to update official")
	}
	if tag.RowsAffected() == 0 {
		return official.ErrNotFound
	}
	return nil
}

func (r *pgOfficialRepository) Restore(ctx context.Context, id uuid.UUID, ident official.Identity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE officials
		SET status = 'active',
			first_name = $2,
			last_name = $3,
			middle_name = NULLIF($4, ''),
			suffix = NULLIF($5, ''),
			email = NULLIF($6, ''),
			updated_at = now()
		WHERE id = $1 AND status = 'inactive'
	`, id, ident.FirstName, ident.LastName, ident.MiddleName, ident.Suffix, ident.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return official.ErrDuplicate
		}
		return errors.Wrap(err, "failed to restore official")
	}
	if tag.RowsAffected() == 0 {
		return official.ErrNotFound
	}
	return nil
}

func scanOfficial(row pgx.Row) (official.Official, error) {
	var (
		id, termID, unitID   uuid.UUID
		pos, status          string
		ident                official.Identity
		createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&id,
		&termID,
		&unitID,
		&pos,
		&ident.FirstName,
		&ident.LastName,
		&ident.MiddleName,
		&ident.Suffix,
		&ident.Email,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return official.Official{}, err
	}
	return official.Hydrate(
		id, termID, unitID,
		position.Position(pos),
		ident,
		official.Status(status),
		createdAt, updatedAt,
	), nil
}
