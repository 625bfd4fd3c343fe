package official

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = gerrors.New("official not found")
	ErrDuplicate = gerrors.New("official already exists")
)

type Repository interface {
	// GetByTerm returns every official of the term, active and inactive,
	// ordered by creation time.
	GetByTerm(ctx context.Context, termID uuid.UUID) ([]Official, error)
	// ActiveSeatCounts returns, per (unit, position), the number of active
	// officials currently occupying seats in the term.
	ActiveSeatCounts(ctx context.Context, termID uuid.UUID) (map[SeatKey]int, error)
	Create(ctx context.Context, o Official) (Official, error)
	// UpdateIdentity overwrites the mutable person fields in place; the
	// record's status and assignment are untouched.
	UpdateIdentity(ctx context.Context, id uuid.UUID, ident Identity) error
	// Restore flips an inactive record back to active and overwrites its
	// mutable person fields.
	Restore(ctx context.Context, id uuid.UUID, ident Identity) error
}
