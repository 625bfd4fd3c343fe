package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munigov/munigov-sdk/modules/roster/domain/aggregates/official"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/term"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/unit"
	"github.com/munigov/munigov-sdk/pkg/eventbus"
)

type fakeOfficialRepo struct {
	byID  map[uuid.UUID]official.Official
	order []uuid.UUID
}

func newFakeOfficialRepo(existing ...official.Official) *fakeOfficialRepo {
	r := &fakeOfficialRepo{byID: map[uuid.UUID]official.Official{}}
	for _, o := range existing {
		r.byID[o.ID()] = o
		r.order = append(r.order, o.ID())
	}
	return r
}

func (r *fakeOfficialRepo) GetByTerm(_ context.Context, termID uuid.UUID) ([]official.Official, error) {
	var out []official.Official
	for _, id := range r.order {
		if o := r.byID[id]; o.TermID() == termID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOfficialRepo) ActiveSeatCounts(_ context.Context, termID uuid.UUID) (map[official.SeatKey]int, error) {
	counts := map[official.SeatKey]int{}
	for _, id := range r.order {
		if o := r.byID[id]; o.TermID() == termID && o.IsActive() {
			counts[o.SeatKey()]++
		}
	}
	return counts, nil
}

func (r *fakeOfficialRepo) Create(_ context.Context, o official.Official) (official.Official, error) {
	now := time.Now()
	created := official.Hydrate(
		uuid.New(), o.TermID(), o.UnitID(), o.Position(),
		o.Identity(), official.StatusActive, now, now,
	)
	r.byID[created.ID()] = created
	r.order = append(r.order, created.ID())
	return created, nil
}

func (r *fakeOfficialRepo) UpdateIdentity(_ context.Context, id uuid.UUID, ident official.Identity) error {
	o, ok := r.byID[id]
	if !ok {
		return official.ErrNotFound
	}
	r.byID[id] = official.Hydrate(
		o.ID(), o.TermID(), o.UnitID(), o.Position(),
		ident, o.Status(), o.CreatedAt(), time.Now(),
	)
	return nil
}

func (r *fakeOfficialRepo) Restore(_ context.Context, id uuid.UUID, ident official.Identity) error {
	o, ok := r.byID[id]
	if !ok || o.IsActive() {
		return official.ErrNotFound
	}
	r.byID[id] = official.Hydrate(
		o.ID(), o.TermID(), o.UnitID(), o.Position(),
		ident, official.StatusActive, o.CreatedAt(), time.Now(),
	)
	return nil
}

func (r *fakeOfficialRepo) active() []official.Official {
	var out []official.Official
	for _, id := range r.order {
		if o := r.byID[id]; o.IsActive() {
			out = append(out, o)
		}
	}
	return out
}

type fakeUnitRepo struct{ units []unit.Unit }

func (r *fakeUnitRepo) GetAll(context.Context) ([]unit.Unit, error) { return r.units, nil }

func (r *fakeUnitRepo) GetByID(_ context.Context, id uuid.UUID) (unit.Unit, error) {
	for _, u := range r.units {
		if u.ID() == id {
			return u, nil
		}
	}
	return unit.Unit{}, unit.ErrNotFound
}

type fakeTermRepo struct{ term term.Term }

func (r *fakeTermRepo) GetByID(_ context.Context, id uuid.UUID) (term.Term, error) {
	if r.term.ID() != id {
		return term.Term{}, term.ErrNotFound
	}
	return r.term, nil
}

func (r *fakeTermRepo) GetActive(context.Context) (term.Term, error) { return r.term, nil }

type importFixture struct {
	service   *RosterImportService
	officials *fakeOfficialRepo
	termID    uuid.UUID
	unit      unit.Unit
	events    []ImportCompletedEvent
}

func newImportFixture(t *testing.T, existing ...official.Official) *importFixture {
	t.Helper()
	now := time.Now()
	u := unit.Hydrate(uuid.New(), "N-01", "North District", now, now)
	tm := term.Hydrate(uuid.New(), "2026-2028", now, now.AddDate(2, 0, 0), true)

	for i, o := range existing {
		existing[i] = official.Hydrate(
			o.ID(), tm.ID(), u.ID(), o.Position(),
			o.Identity(), o.Status(), o.CreatedAt(), o.UpdatedAt(),
		)
	}
	officials := newFakeOfficialRepo(existing...)

	fx := &importFixture{officials: officials, termID: tm.ID(), unit: u}
	publisher := eventbus.NewEventPublisher(logrus.New())
	publisher.Subscribe(func(e ImportCompletedEvent) {
		fx.events = append(fx.events, e)
	})

	svc := NewRosterImportService(Config{
		Officials: officials,
		Units:     &fakeUnitRepo{units: []unit.Unit{u}},
		Terms:     &fakeTermRepo{term: tm},
		Publisher: publisher,
	})
	passthrough := func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	svc.inTx = passthrough
	svc.inSerializableTx = passthrough
	fx.service = svc
	return fx
}

func inactiveOfficial(pos position.Position, first, last string) official.Official {
	now := time.Now()
	return official.Hydrate(
		uuid.New(), uuid.Nil, uuid.Nil, pos,
		official.Identity{FirstName: first, LastName: last},
		official.StatusInactive, now, now,
	)
}

func activeOfficial(pos position.Position, first, last string) official.Official {
	now := time.Now()
	return official.Hydrate(
		uuid.New(), uuid.Nil, uuid.Nil, pos,
		official.Identity{FirstName: first, LastName: last},
		official.StatusActive, now, now,
	)
}

func rosterFile(rows ...string) ImportInput {
	file := "first_name,last_name,position,unit\n" + strings.Join(rows, "\n") + "\n"
	return ImportInput{File: strings.NewReader(file), Format: FormatCSV}
}

func TestValidate_DuplicateRowIsNotCapacityExceeded(t *testing.T) {
	fx := newImportFixture(t)
	input := rosterFile("Ada,Lund,Secretary,N-01", "Ada,Lund,Secretary,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Validate(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.TotalRecords)
	assert.Equal(t, 1, report.Summary.ValidRecords)
	assert.Equal(t, 1, report.Summary.InvalidRecords)
	assert.Equal(t, 2, report.Summary.DuplicateInFile)

	first, second := report.Rows[0], report.Rows[1]
	assert.Equal(t, RowValid, first.Status)
	assert.True(t, first.Duplicate.IsPrimaryInFile)

	require.Equal(t, RowInvalid, second.Status)
	require.Len(t, second.Issues, 1)
	assert.Equal(t, IssueDuplicateInFile, second.Issues[0].Code)
}

func TestValidate_CapacityAgainstFilledSeats(t *testing.T) {
	fx := newImportFixture(t, activeOfficial(position.Secretary, "Old", "Holder"))
	input := rosterFile("Ada,Lund,Secretary,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Validate(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, RowInvalid, report.Rows[0].Status)
	assert.Equal(t, IssueCapacityExceeded, report.Rows[0].Issues[0].Code)
}

func TestValidate_IsIdempotent(t *testing.T) {
	fx := newImportFixture(t, activeOfficial(position.Treasurer, "Old", "Holder"))
	toInput := func() ImportInput {
		input := rosterFile("Ada,Lund,Secretary,N-01", "Bo,Reyes,Treasurer,N-01")
		input.TermID = fx.termID
		return input
	}

	first, err := fx.service.Validate(context.Background(), toInput())
	require.NoError(t, err)
	second, err := fx.service.Validate(context.Background(), toInput())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidate_UnknownTerm(t *testing.T) {
	fx := newImportFixture(t)
	input := rosterFile("Ada,Lund,Secretary,N-01")
	input.TermID = uuid.New()

	_, err := fx.service.Validate(context.Background(), input)
	require.ErrorIs(t, err, term.ErrNotFound)
}

func TestImport_CreatesAndSkipsInFileDuplicate(t *testing.T) {
	fx := newImportFixture(t)
	input := rosterFile("Ada,Lund,Secretary,N-01", "Ada,Lund,Secretary,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Created)
	assert.Equal(t, 1, report.Summary.Skipped)
	assert.Equal(t, 0, report.Summary.Failed)
	assert.Equal(t, ActionCreated, report.Rows[0].Action)
	assert.Equal(t, ActionSkipped, report.Rows[1].Action)
	assert.Contains(t, report.Rows[1].Message, "duplicates row 2")

	require.Len(t, fx.officials.active(), 1)
	assert.Equal(t, "Ada", fx.officials.active()[0].FirstName())
}

func TestImport_SkipStrategyIsANoOpOnPersistedState(t *testing.T) {
	fx := newImportFixture(t,
		activeOfficial(position.Secretary, "Ada", "Lund"),
		inactiveOfficial(position.Treasurer, "Bo", "Reyes"),
	)
	input := rosterFile("Ada,Lund,Secretary,N-01", "Bo,Reyes,Treasurer,N-01")
	input.TermID = fx.termID

	before := make(map[uuid.UUID]official.Official, len(fx.officials.byID))
	for id, o := range fx.officials.byID {
		before[id] = o
	}

	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Skipped)
	assert.Equal(t, 0, report.Summary.Updated)
	assert.Equal(t, 0, report.Summary.Restored)
	assert.Equal(t, before, fx.officials.byID)
}

func TestImport_UpdateOverwritesActiveMatch(t *testing.T) {
	existing := activeOfficial(position.Secretary, "Ada", "Lund")
	fx := newImportFixture(t, existing)
	input := ImportInput{
		File: strings.NewReader(
			"first_name,last_name,position,unit,email\nAda,Lund,Secretary,N-01,ada@example.org\n",
		),
		Format: FormatCSV,
		TermID: fx.termID,
	}

	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategyUpdate})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Updated)

	updated := fx.officials.byID[existing.ID()]
	assert.Equal(t, "ada@example.org", updated.Email())
	assert.True(t, updated.IsActive())
	assert.Equal(t, position.Secretary, updated.Position())
}

func TestImport_UpdateLeavesInactiveMatchInactive(t *testing.T) {
	existing := inactiveOfficial(position.Treasurer, "Bo", "Reyes")
	fx := newImportFixture(t, existing)
	input := rosterFile("Bo,Reyes,Treasurer,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategyUpdate})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Updated)
	assert.False(t, fx.officials.byID[existing.ID()].IsActive())
}

func TestImport_RestoreFlipsInactiveAndConsumesSeat(t *testing.T) {
	existing := inactiveOfficial(position.Treasurer, "Bo", "Reyes")
	fx := newImportFixture(t, existing)
	input := rosterFile("Bo,Reyes,Treasurer,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategyRestore})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Restored)
	assert.Equal(t, ActionRestored, report.Rows[0].Action)
	assert.True(t, fx.officials.byID[existing.ID()].IsActive())

	counts, err := fx.officials.ActiveSeatCounts(context.Background(), fx.termID)
	require.NoError(t, err)
	key := official.SeatKey{UnitID: fx.unit.ID(), Position: position.Treasurer}
	assert.Equal(t, 1, counts[key])
}

func TestImport_RestoreBlockedWhenSeatIsTaken(t *testing.T) {
	existing := inactiveOfficial(position.Secretary, "Bo", "Reyes")
	fx := newImportFixture(t, existing, activeOfficial(position.Secretary, "Ada", "Lund"))
	input := rosterFile("Bo,Reyes,Secretary,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategyRestore})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, ActionFailed, report.Rows[0].Action)
	assert.Contains(t, report.Rows[0].Message, "Secretary")
	assert.False(t, fx.officials.byID[existing.ID()].IsActive())
}

func TestImport_CapacityFailureIsRowLevel(t *testing.T) {
	fx := newImportFixture(t)
	input := rosterFile("Ada,Lund,Secretary,N-01", "Bo,Reyes,Secretary,N-01", "Cy,Nold,Treasurer,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.NoError(t, err)

	assert.Equal(t, ActionCreated, report.Rows[0].Action)
	assert.Equal(t, ActionFailed, report.Rows[1].Action)
	assert.Equal(t, ActionCreated, report.Rows[2].Action)
	assert.Equal(t, 2, report.Summary.Created)
	assert.Equal(t, 1, report.Summary.Failed)
	require.Len(t, fx.officials.active(), 2)
}

func TestImport_FailsFastOnDirtyBatch(t *testing.T) {
	fx := newImportFixture(t)
	input := rosterFile("Ada,Lund,Sheriff,N-01", "Bo,Reyes,Treasurer,N-01")
	input.TermID = fx.termID

	_, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.ErrorIs(t, err, ErrBatchNotClean)
	assert.Empty(t, fx.officials.active())
}

func TestImport_AllowPartialReportsDirtyRowsAsFailed(t *testing.T) {
	fx := newImportFixture(t)
	input := rosterFile("Ada,Lund,Sheriff,N-01", "Bo,Reyes,Treasurer,N-01")
	input.TermID = fx.termID

	report, err := fx.service.Import(context.Background(), input, ImportOptions{
		Strategy:     StrategySkip,
		AllowPartial: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ActionFailed, report.Rows[0].Action)
	assert.Contains(t, report.Rows[0].Message, "Sheriff")
	assert.Equal(t, ActionCreated, report.Rows[1].Action)
	require.Len(t, fx.officials.active(), 1)
}

func TestImport_RetainedAssignmentMessage(t *testing.T) {
	now := time.Now()
	fx := newImportFixture(t)
	other := unit.Hydrate(uuid.New(), "S-02", "South District", now, now)
	fx.service.units = &fakeUnitRepo{units: []unit.Unit{fx.unit, other}}
	fx.service.key = EmailIdentityKey

	existing := official.Hydrate(
		uuid.New(), fx.termID, other.ID(), position.Councilor,
		official.Identity{FirstName: "Ada", LastName: "Lund", Email: "ada@example.org"},
		official.StatusActive, now, now,
	)
	fx.officials.byID[existing.ID()] = existing
	fx.officials.order = append(fx.officials.order, existing.ID())

	input := ImportInput{
		File: strings.NewReader(
			"first_name,last_name,position,unit,email\nAda,Lund,Secretary,N-01,ada@example.org\n",
		),
		Format: FormatCSV,
		TermID: fx.termID,
	}
	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategyUpdate})
	require.NoError(t, err)

	require.Equal(t, ActionUpdated, report.Rows[0].Action)
	assert.Contains(t, report.Rows[0].Message, "existing assignment retained")

	updated := fx.officials.byID[existing.ID()]
	assert.Equal(t, position.Councilor, updated.Position())
	assert.Equal(t, other.ID(), updated.UnitID())
}

func TestImport_PublishesCompletionEvent(t *testing.T) {
	fx := newImportFixture(t)
	input := rosterFile("Ada,Lund,Secretary,N-01")
	input.TermID = fx.termID

	_, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.NoError(t, err)

	require.Len(t, fx.events, 1)
	assert.Equal(t, fx.termID, fx.events[0].TermID)
	assert.Equal(t, 1, fx.events[0].Summary.Created)
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestImport_RetriesOnSerializationConflict(t *testing.T) {
	fx := newImportFixture(t)
	attempts := 0
	inner := fx.service.inSerializableTx
	fx.service.inSerializableTx = func(ctx context.Context, fn func(context.Context) error) error {
		attempts++
		if attempts < 3 {
			return serializationFailure()
		}
		return inner(ctx, fn)
	}

	input := rosterFile("Ada,Lund,Secretary,N-01")
	input.TermID = fx.termID
	report, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, report.Summary.Created)
}

func TestImport_ConflictAfterRetryBudget(t *testing.T) {
	fx := newImportFixture(t)
	attempts := 0
	fx.service.inSerializableTx = func(context.Context, func(context.Context) error) error {
		attempts++
		return serializationFailure()
	}

	input := rosterFile("Ada,Lund,Secretary,N-01")
	input.TermID = fx.termID
	_, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.ErrorIs(t, err, ErrImportConflict)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, fx.officials.active())
}

func TestImport_NonRetryableErrorSurfaces(t *testing.T) {
	fx := newImportFixture(t)
	fx.service.inSerializableTx = func(context.Context, func(context.Context) error) error {
		return &pgconn.PgError{Code: "53300", Message: "too many connections"}
	}

	input := rosterFile("Ada,Lund,Secretary,N-01")
	input.TermID = fx.termID
	_, err := fx.service.Import(context.Background(), input, ImportOptions{Strategy: StrategySkip})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrImportConflict)
}
