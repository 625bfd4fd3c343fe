package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munigov/munigov-sdk/modules/roster/domain/aggregates/official"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
)

func candidate(number int, first, last string, unitID uuid.UUID, pos position.Position) *CandidateRow {
	return &CandidateRow{
		RowNumber: number,
		FirstName: first,
		LastName:  last,
		Position:  pos,
		UnitID:    unitID,
		Status:    RowValid,
	}
}

func persistedOfficial(termID, unitID uuid.UUID, pos position.Position, first, last string, status official.Status) official.Official {
	now := time.Now()
	return official.Hydrate(
		uuid.New(), termID, unitID, pos,
		official.Identity{FirstName: first, LastName: last},
		status, now, now,
	)
}

func TestDetectDuplicates_InFilePrimaryKeepsSeat(t *testing.T) {
	unitID := uuid.New()
	rows := []*CandidateRow{
		candidate(2, "Ada", "Lund", unitID, position.Secretary),
		candidate(3, "ADA", "lund", unitID, position.Secretary),
		candidate(4, "Bo", "Reyes", unitID, position.Secretary),
	}
	detectDuplicates(rows, nil, NameIdentityKey)

	require.True(t, rows[0].Duplicate.InFile)
	require.True(t, rows[0].Duplicate.IsPrimaryInFile)
	assert.True(t, rows[0].Valid())

	require.True(t, rows[1].Duplicate.InFile)
	assert.False(t, rows[1].Duplicate.IsPrimaryInFile)
	assert.False(t, rows[1].Valid())
	require.NotEmpty(t, rows[1].Issues)
	assert.Equal(t, IssueDuplicateInFile, rows[1].Issues[0].Code)
	assert.Equal(t, 2, rows[1].primaryRow)

	assert.False(t, rows[2].Duplicate.InFile)
}

func TestDetectDuplicates_IndependentDBSources(t *testing.T) {
	termID := uuid.New()
	unitID := uuid.New()
	existing := []official.Official{
		persistedOfficial(termID, unitID, position.Secretary, "Ada", "Lund", official.StatusActive),
		persistedOfficial(termID, unitID, position.Treasurer, "Bo", "Reyes", official.StatusInactive),
	}
	rows := []*CandidateRow{
		candidate(2, "ada", "lund", unitID, position.Secretary),
		candidate(3, "bo", "reyes", unitID, position.Treasurer),
		candidate(4, "Cy", "Nold", unitID, position.Chairperson),
	}
	detectDuplicates(rows, existing, NameIdentityKey)

	assert.True(t, rows[0].Duplicate.InDBActive)
	assert.False(t, rows[0].Duplicate.InDBInactive)
	assert.True(t, rows[0].Valid(), "a persisted match alone never invalidates")

	assert.True(t, rows[1].Duplicate.InDBInactive)
	assert.False(t, rows[1].Duplicate.InDBActive)

	assert.False(t, rows[2].Duplicate.InDBActive)
	assert.False(t, rows[2].Duplicate.InDBInactive)
}

func TestDetectDuplicates_DifferentUnitIsNotADuplicate(t *testing.T) {
	unitA, unitB := uuid.New(), uuid.New()
	rows := []*CandidateRow{
		candidate(2, "Ada", "Lund", unitA, position.Secretary),
		candidate(3, "Ada", "Lund", unitB, position.Secretary),
	}
	detectDuplicates(rows, nil, NameIdentityKey)
	assert.False(t, rows[0].Duplicate.InFile)
	assert.False(t, rows[1].Duplicate.InFile)
}

func TestDetectDuplicates_SkipsUnresolvedRows(t *testing.T) {
	rows := []*CandidateRow{
		candidate(2, "Ada", "Lund", uuid.Nil, position.Secretary),
		candidate(3, "Ada", "Lund", uuid.Nil, position.Secretary),
	}
	detectDuplicates(rows, nil, NameIdentityKey)
	assert.False(t, rows[1].Duplicate.InFile)
}

func TestEmailIdentityKey(t *testing.T) {
	unitA, unitB := uuid.New(), uuid.New()
	rows := []*CandidateRow{
		candidate(2, "Ada", "Lund", unitA, position.Secretary),
		candidate(3, "A.", "Lundqvist", unitB, position.Councilor),
	}
	rows[0].Email = "Ada@Example.org"
	rows[1].Email = "ada@example.org"
	detectDuplicates(rows, nil, EmailIdentityKey)

	assert.True(t, rows[1].Duplicate.InFile)
	assert.Equal(t, 2, rows[1].primaryRow)
}

func TestEmailIdentityKey_FallsBackToNameKey(t *testing.T) {
	unitID := uuid.New()
	a := EmailIdentityKey("Ada", "Lund", unitID, position.Secretary, "")
	b := NameIdentityKey("ada", "LUND", unitID, position.Secretary, "")
	assert.Equal(t, b, a)
}
