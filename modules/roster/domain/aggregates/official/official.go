package official

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Identity holds the mutable person fields of an official. Position, unit
// and term are assignment fields and change only through dedicated flows.
type Identity struct {
	FirstName  string
	LastName   string
	MiddleName string
	Suffix     string
	Email      string
}

func (i Identity) normalized() Identity {
	return Identity{
		FirstName:  strings.TrimSpace(i.FirstName),
		LastName:   strings.TrimSpace(i.LastName),
		MiddleName: strings.TrimSpace(i.MiddleName),
		Suffix:     strings.TrimSpace(i.Suffix),
		Email:      strings.TrimSpace(i.Email),
	}
}

// Official is an officer's persisted record for one term and unit. The
// engine never hard-deletes: deactivation flips the status to inactive and
// restore flips it back.
type Official struct {
	id        uuid.UUID
	termID    uuid.UUID
	unitID    uuid.UUID
	position  position.Position
	identity  Identity
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

func New(termID, unitID uuid.UUID, pos position.Position, ident Identity) Official {
	return Official{
		termID:   termID,
		unitID:   unitID,
		position: pos,
		identity: ident.normalized(),
		status:   StatusActive,
	}
}

func Hydrate(
	id, termID, unitID uuid.UUID,
	pos position.Position,
	ident Identity,
	status Status,
	createdAt, updatedAt time.Time,
) Official {
	return Official{
		id:        id,
		termID:    termID,
		unitID:    unitID,
		position:  pos,
		identity:  ident.normalized(),
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (o Official) ID() uuid.UUID               { return o.id }
func (o Official) TermID() uuid.UUID           { return o.termID }
func (o Official) UnitID() uuid.UUID           { return o.unitID }
func (o Official) Position() position.Position { return o.position }
func (o Official) Identity() Identity          { return o.identity }
func (o Official) FirstName() string           { return o.identity.FirstName }
func (o Official) LastName() string            { return o.identity.LastName }
func (o Official) MiddleName() string          { return o.identity.MiddleName }
func (o Official) Suffix() string              { return o.identity.Suffix }
func (o Official) Email() string               { return o.identity.Email }
func (o Official) Status() Status              { return o.status }
func (o Official) IsActive() bool              { return o.status == StatusActive }
func (o Official) CreatedAt() time.Time        { return o.createdAt }
func (o Official) UpdatedAt() time.Time        { return o.updatedAt }
func (o Official) IsZero() bool                { return o.id == uuid.Nil }

// SeatKey identifies one capacity ledger bucket within a term.
type SeatKey struct {
	UnitID   uuid.UUID
	Position position.Position
}

func (o Official) SeatKey() SeatKey {
	return SeatKey{UnitID: o.unitID, Position: o.position}
}
