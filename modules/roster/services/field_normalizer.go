package services

import (
	"strings"

	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/unit"
	"github.com/munigov/munigov-sdk/pkg/constants"
)

// unitIndex resolves a raw unit reference (code or name) to a known unit.
type unitIndex struct {
	byCode map[string]unit.Unit
	byName map[string]unit.Unit
}

func newUnitIndex(units []unit.Unit) *unitIndex {
	ix := &unitIndex{
		byCode: make(map[string]unit.Unit, len(units)),
		byName: make(map[string]unit.Unit, len(units)),
	}
	for _, u := range units {
		ix.byCode[foldKey(u.Code())] = u
		ix.byName[foldKey(u.Name())] = u
	}
	return ix
}

func (ix *unitIndex) resolve(ref string) (unit.Unit, bool) {
	key := foldKey(ref)
	if u, ok := ix.byCode[key]; ok {
		return u, true
	}
	u, ok := ix.byName[key]
	return u, ok
}

// normalizeRow turns one raw record into a typed candidate row. Validation
// issues are appended, not thrown: a row with issues is marked invalid but
// still flows through duplicate detection and reporting.
func normalizeRow(raw rawRow, units *unitIndex) *CandidateRow {
	row := &CandidateRow{
		RowNumber:     raw.number,
		Raw:           raw.fields,
		FirstName:     strings.TrimSpace(raw.fields[colFirstName]),
		LastName:      strings.TrimSpace(raw.fields[colLastName]),
		MiddleName:    strings.TrimSpace(raw.fields[colMiddleName]),
		Suffix:        strings.TrimSpace(raw.fields[colSuffix]),
		Email:         strings.TrimSpace(raw.fields[colEmail]),
		PositionLabel: strings.TrimSpace(raw.fields[colPosition]),
		UnitRef:       strings.TrimSpace(raw.fields[colUnit]),
		Status:        RowValid,
	}

	if row.FirstName == "" {
		row.Invalidate(IssueMissingField, "first name is required")
	}
	if row.LastName == "" {
		row.Invalidate(IssueMissingField, "last name is required")
	}

	if row.PositionLabel == "" {
		row.Invalidate(IssueMissingField, "position is required")
	} else if pos, ok := position.Parse(row.PositionLabel); ok {
		row.Position = pos
	} else {
		row.Invalidate(IssueUnknownPosition, "unknown position %q", row.PositionLabel)
	}

	if row.UnitRef == "" {
		row.Invalidate(IssueMissingField, "unit is required")
	} else if u, ok := units.resolve(row.UnitRef); ok {
		row.UnitID = u.ID()
		row.UnitName = u.Name()
	} else {
		row.Invalidate(IssueUnknownUnit, "unit %q does not match any known unit", row.UnitRef)
	}

	if row.Email != "" {
		if err := constants.Validate.Var(row.Email, "email"); err != nil {
			row.Invalidate(IssueInvalidEmail, "invalid email %q", row.Email)
		}
	}

	return row
}
