package term

import (
	"context"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = gerrors.New("term not found")

// Term is a time-boxed administrative period to which officials and seat
// limits are scoped.
type Term struct {
	id       uuid.UUID
	label    string
	startsOn time.Time
	endsOn   time.Time
	active   bool
}

func Hydrate(id uuid.UUID, label string, startsOn, endsOn time.Time, active bool) Term {
	return Term{
		id:       id,
		label:    strings.TrimSpace(label),
		startsOn: startsOn,
		endsOn:   endsOn,
		active:   active,
	}
}

func (t Term) ID() uuid.UUID       { return t.id }
func (t Term) Label() string       { return t.label }
func (t Term) StartsOn() time.Time { return t.startsOn }
func (t Term) EndsOn() time.Time   { return t.endsOn }
func (t Term) Active() bool        { return t.active }
func (t Term) IsZero() bool        { return t.id == uuid.Nil }

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Term, error)
	GetActive(ctx context.Context) (Term, error)
}
