package unit

import (
	"context"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = gerrors.New("unit not found")

// Unit is the smallest administrative division an official is assigned to.
type Unit struct {
	id        uuid.UUID
	code      string
	name      string
	createdAt time.Time
	updatedAt time.Time
}

func New(code, name string) Unit {
	return Unit{
		code: strings.TrimSpace(code),
		name: strings.TrimSpace(name),
	}
}

func Hydrate(id uuid.UUID, code, name string, createdAt, updatedAt time.Time) Unit {
	return Unit{
		id:        id,
		code:      strings.TrimSpace(code),
		name:      strings.TrimSpace(name),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (u Unit) ID() uuid.UUID        { return u.id }
func (u Unit) Code() string         { return u.code }
func (u Unit) Name() string         { return u.name }
func (u Unit) CreatedAt() time.Time { return u.createdAt }
func (u Unit) UpdatedAt() time.Time { return u.updatedAt }
func (u Unit) IsZero() bool         { return u.id == uuid.Nil && u.code == "" }

type Repository interface {
	GetAll(ctx context.Context) ([]Unit, error)
	GetByID(ctx context.Context, id uuid.UUID) (Unit, error)
}
