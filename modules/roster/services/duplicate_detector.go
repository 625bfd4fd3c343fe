package services

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/munigov/munigov-sdk/modules/roster/domain/aggregates/official"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
)

// foldKey case-folds for identity comparison. A Caser is stateful, so a
// fresh one is used per call rather than sharing one across requests.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// IdentityKeyFunc derives the string under which two records are considered
// the same officer. Detection is keyed on it, so swapping the function swaps
// the notion of identity for the whole pipeline.
type IdentityKeyFunc func(first, last string, unitID uuid.UUID, pos position.Position, email string) string

// NameIdentityKey matches on case-folded name plus assignment. Two officers
// with the same name in different units or positions are distinct.
func NameIdentityKey(first, last string, unitID uuid.UUID, pos position.Position, _ string) string {
	return strings.Join([]string{foldKey(first), foldKey(last), unitID.String(), string(pos)}, "|")
}

// EmailIdentityKey matches on case-folded email when present, falling back to
// the name key for rows without one.
func EmailIdentityKey(first, last string, unitID uuid.UUID, pos position.Position, email string) string {
	if e := foldKey(email); e != "" {
		return "email|" + e
	}
	return NameIdentityKey(first, last, unitID, pos, email)
}

func (f IdentityKeyFunc) forRow(row *CandidateRow) string {
	return f(row.FirstName, row.LastName, row.UnitID, row.Position, row.Email)
}

func (f IdentityKeyFunc) forOfficial(o official.Official) string {
	return f(o.FirstName(), o.LastName(), o.UnitID(), o.Position(), o.Email())
}

// detectDuplicates classifies every row against the three duplicate sources:
// earlier rows of the same file, active persisted records, and inactive
// persisted records. The flags are set independently and rows are never
// rejected here. Only rows with resolved position and unit participate, since
// the identity key is undefined without them.
func detectDuplicates(rows []*CandidateRow, existing []official.Official, key IdentityKeyFunc) {
	active := make(map[string]*official.Official)
	inactive := make(map[string]*official.Official)
	for i := range existing {
		o := existing[i]
		if o.IsActive() {
			active[key.forOfficial(o)] = &existing[i]
		} else {
			// The earliest inactive match wins when several share a key.
			k := key.forOfficial(o)
			if _, ok := inactive[k]; !ok {
				inactive[k] = &existing[i]
			}
		}
	}

	firstSeen := make(map[string]*CandidateRow, len(rows))
	for _, row := range rows {
		if row.Position == "" || row.UnitID == uuid.Nil {
			continue
		}
		k := key.forRow(row)

		if primary, ok := firstSeen[k]; ok {
			primary.Duplicate.InFile = true
			primary.Duplicate.IsPrimaryInFile = true
			row.Duplicate.InFile = true
			row.primaryRow = primary.RowNumber
			row.Invalidate(IssueDuplicateInFile, "duplicates row %d", primary.RowNumber)
		} else {
			firstSeen[k] = row
		}

		if match, ok := active[k]; ok {
			row.Duplicate.InDBActive = true
			row.activeMatch = match
		}
		if match, ok := inactive[k]; ok {
			row.Duplicate.InDBInactive = true
			row.inactiveMatch = match
		}
	}
}
