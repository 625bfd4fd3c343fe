package services

import (
	"github.com/munigov/munigov-sdk/modules/roster/domain/aggregates/official"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
)

// capacityLedger tracks seat occupancy per (unit, position) bucket for one
// term. filled counts active persisted records; claimed counts seats taken by
// earlier rows of the current batch.
type capacityLedger struct {
	plan    position.SeatPlan
	filled  map[official.SeatKey]int
	claimed map[official.SeatKey]int
}

func newCapacityLedger(plan position.SeatPlan, filled map[official.SeatKey]int) *capacityLedger {
	l := &capacityLedger{
		plan:    plan,
		filled:  make(map[official.SeatKey]int, len(filled)),
		claimed: make(map[official.SeatKey]int),
	}
	for k, v := range filled {
		l.filled[k] = v
	}
	return l
}

func (l *capacityLedger) max(key official.SeatKey) int {
	return l.plan.Max(key.Position)
}

func (l *capacityLedger) occupied(key official.SeatKey) int {
	return l.filled[key] + l.claimed[key]
}

// claim takes one seat in the row's bucket. It fails without side effects
// when the bucket is full, so later rows still see an accurate count.
func (l *capacityLedger) claim(key official.SeatKey) bool {
	if l.occupied(key) >= l.max(key) {
		return false
	}
	l.claimed[key]++
	return true
}

// wouldClaimSeat reports whether the row, if accepted, takes a new seat.
// Rows matching an active record reuse the seat that record already holds.
// Rows matching only an inactive record take a seat when the caller intends
// to restore them; during validation that intent is unknown and the
// conservative answer is yes.
func wouldClaimSeat(row *CandidateRow, claimInactiveDups bool) bool {
	if row.Duplicate.InDBActive {
		return false
	}
	if row.Duplicate.InDBInactive {
		return claimInactiveDups
	}
	return true
}

// checkCapacity walks rows in file order and claims seats as it goes, so an
// earlier row filling the last seat invalidates every later row of the same
// bucket. Invalid rows claim nothing.
func checkCapacity(rows []*CandidateRow, ledger *capacityLedger, claimInactiveDups bool) {
	for _, row := range rows {
		if !row.Valid() {
			continue
		}
		if !wouldClaimSeat(row, claimInactiveDups) {
			continue
		}
		key := row.seatKey()
		if !ledger.claim(key) {
			row.Invalidate(
				IssueCapacityExceeded,
				"no remaining %s seat in %s (%d of %d filled)",
				row.Position, row.UnitName, ledger.occupied(key), ledger.max(key),
			)
		}
	}
}
