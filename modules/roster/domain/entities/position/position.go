package position

import "strings"

// Position is one of the fixed officer positions a roster row can claim.
type Position string

const (
	Chairperson Position = "Chairperson"
	Secretary   Position = "Secretary"
	Treasurer   Position = "Treasurer"
	Councilor   Position = "Councilor"
)

func All() []Position {
	return []Position{Chairperson, Secretary, Treasurer, Councilor}
}

// Parse matches a label case-insensitively against the fixed enum.
func Parse(label string) (Position, bool) {
	needle := strings.TrimSpace(label)
	for _, p := range All() {
		if strings.EqualFold(needle, string(p)) {
			return p, true
		}
	}
	return "", false
}

// SeatPlan maps a position to the maximum number of simultaneously active
// officials per unit and term. It is process-wide static configuration,
// injected rather than read from a global so tests can exercise alternative
// limits.
type SeatPlan map[Position]int

func DefaultSeatPlan() SeatPlan {
	return SeatPlan{
		Chairperson: 1,
		Secretary:   1,
		Treasurer:   1,
		Councilor:   7,
	}
}

func (s SeatPlan) Max(p Position) int {
	return s[p]
}
