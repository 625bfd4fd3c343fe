package services

import (
	"time"

	"github.com/google/uuid"
)

// ImportCompletedEvent is published on the internal bus after an import
// transaction commits.
type ImportCompletedEvent struct {
	TermID      uuid.UUID
	Strategy    Strategy
	Summary     ImportSummary
	CompletedAt time.Time
}
