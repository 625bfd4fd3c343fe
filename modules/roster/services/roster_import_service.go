package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/munigov/munigov-sdk/modules/roster/domain/aggregates/official"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/term"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/unit"
	"github.com/munigov/munigov-sdk/pkg/composables"
	"github.com/munigov/munigov-sdk/pkg/eventbus"
)

// ImportInput carries one uploaded roster file scoped to a governing term.
type ImportInput struct {
	File   io.Reader
	Format Format
	TermID uuid.UUID
}

type ImportOptions struct {
	Strategy Strategy
	// AllowPartial lets an import proceed when the batch still carries
	// validation issues; rows with issues are reported as failed instead of
	// aborting the whole call.
	AllowPartial bool
}

type Config struct {
	Officials   official.Repository
	Units       unit.Repository
	Terms       term.Repository
	SeatPlan    position.SeatPlan
	IdentityKey IdentityKeyFunc
	Publisher   eventbus.EventBus
	MaxRows     int
	MaxRetries  int
}

// RosterImportService drives the two-phase roster pipeline: a read-only
// Validate pass producing a row-by-row report, and an Import pass that
// re-runs the same checks inside a serializable transaction and reconciles
// the batch against persisted records.
type RosterImportService struct {
	officials  official.Repository
	units      unit.Repository
	terms      term.Repository
	plan       position.SeatPlan
	key        IdentityKeyFunc
	publisher  eventbus.EventBus
	maxRows    int
	maxRetries int

	// Transaction runners, swappable in tests where no pool is available.
	inTx             func(context.Context, func(context.Context) error) error
	inSerializableTx func(context.Context, func(context.Context) error) error
}

func NewRosterImportService(cfg Config) *RosterImportService {
	s := &RosterImportService{
		officials:  cfg.Officials,
		units:      cfg.Units,
		terms:      cfg.Terms,
		plan:       cfg.SeatPlan,
		key:        cfg.IdentityKey,
		publisher:  cfg.Publisher,
		maxRows:    cfg.MaxRows,
		maxRetries: cfg.MaxRetries,
	}
	if s.plan == nil {
		s.plan = position.DefaultSeatPlan()
	}
	if s.key == nil {
		s.key = NameIdentityKey
	}
	if s.maxRows <= 0 {
		s.maxRows = 5000
	}
	if s.maxRetries <= 0 {
		s.maxRetries = 3
	}
	s.inTx = composables.InTx
	s.inSerializableTx = composables.InSerializableTx
	return s
}

// Validate parses the file and reports every row's issues and duplicate
// flags without touching persisted state. The call is idempotent: repeating
// it against unchanged persisted state yields the same report.
func (s *RosterImportService) Validate(ctx context.Context, input ImportInput) (*ValidationReport, error) {
	raw, err := parseRecords(input.File, input.Format, s.maxRows)
	if err != nil {
		return nil, err
	}
	if _, err := s.terms.GetByID(ctx, input.TermID); err != nil {
		return nil, err
	}
	var report *ValidationReport
	err = s.inTx(ctx, func(txCtx context.Context) error {
		rows, err := s.runChecks(txCtx, raw, input.TermID, true)
		if err != nil {
			return err
		}
		report = buildValidationReport(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Import reconciles the batch inside one serializable transaction. On a
// serialization conflict the whole transaction is retried with fresh reads,
// bounded by the configured attempt count.
func (s *RosterImportService) Import(ctx context.Context, input ImportInput, opts ImportOptions) (*ImportReport, error) {
	buf, err := io.ReadAll(input.File)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read import file")
	}
	raw, err := parseRecords(bytes.NewReader(buf), input.Format, s.maxRows)
	if err != nil {
		return nil, err
	}
	if _, err := s.terms.GetByID(ctx, input.TermID); err != nil {
		return nil, err
	}

	logger := composables.UseLogger(ctx)
	var report *ImportReport
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = s.inSerializableTx(ctx, func(txCtx context.Context) error {
			r, txErr := s.importTx(txCtx, raw, input.TermID, opts)
			if txErr != nil {
				return txErr
			}
			report = r
			return nil
		})
		if err == nil {
			break
		}
		if !isRetryableConflict(err) {
			return nil, err
		}
		rosterImportRetries.Inc()
		logger.WithField("attempt", attempt+1).WithError(err).Warn("roster import conflicted, retrying")
	}
	if err != nil {
		rosterImportConflicts.Inc()
		return nil, errors.Wrapf(ErrImportConflict, "%d attempts exhausted", s.maxRetries)
	}

	recordImportOutcome(report.Summary)
	if s.publisher != nil {
		s.publisher.Publish(ImportCompletedEvent{
			TermID:      input.TermID,
			Strategy:    opts.Strategy,
			Summary:     report.Summary,
			CompletedAt: time.Now(),
		})
	}
	return report, nil
}

// runChecks executes normalization, duplicate detection and, optionally,
// the order-sensitive capacity walk against current persisted state.
func (s *RosterImportService) runChecks(ctx context.Context, raw []rawRow, termID uuid.UUID, withCapacity bool) ([]*CandidateRow, error) {
	units, err := s.units.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	index := newUnitIndex(units)

	rows := make([]*CandidateRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, normalizeRow(r, index))
	}

	existing, err := s.officials.GetByTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	detectDuplicates(rows, existing, s.key)

	if withCapacity {
		ledger, err := s.seatLedger(ctx, termID)
		if err != nil {
			return nil, err
		}
		// Validation cannot know the import strategy yet, so an inactive
		// match is conservatively assumed to claim a seat.
		checkCapacity(rows, ledger, true)
	}
	return rows, nil
}

func (s *RosterImportService) seatLedger(ctx context.Context, termID uuid.UUID) (*capacityLedger, error) {
	filled, err := s.officials.ActiveSeatCounts(ctx, termID)
	if err != nil {
		return nil, err
	}
	return newCapacityLedger(s.plan, filled), nil
}

// importTx is one reconciliation attempt. Reads and per-row writes all run
// on the transaction carried in ctx, so a retry starts from a clean slate.
func (s *RosterImportService) importTx(ctx context.Context, raw []rawRow, termID uuid.UUID, opts ImportOptions) (*ImportReport, error) {
	rows, err := s.runChecks(ctx, raw, termID, false)
	if err != nil {
		return nil, err
	}

	if !opts.AllowPartial {
		dirty := 0
		for _, row := range rows {
			if row.HasIssueOtherThan(IssueDuplicateInFile) {
				dirty++
			}
		}
		if dirty > 0 {
			return nil, errors.Wrapf(ErrBatchNotClean, "%d rows have validation issues", dirty)
		}
	}

	ledger, err := s.seatLedger(ctx, termID)
	if err != nil {
		return nil, err
	}

	report := newImportReport(len(rows), opts.Strategy)
	for _, row := range rows {
		action, message, err := s.reconcileRow(ctx, row, termID, opts.Strategy, ledger)
		if err != nil {
			return nil, err
		}
		report.add(row, action, message)
	}
	return report, nil
}

// reconcileRow decides and applies one row's persisted effect. The decision
// order is fixed: structural issues, then in-file duplicates, then matches
// against persisted records, then a plain create. Capacity is re-claimed
// from the transaction's own ledger, so a row failing the seat check is
// downgraded to failed without aborting the batch.
func (s *RosterImportService) reconcileRow(
	ctx context.Context,
	row *CandidateRow,
	termID uuid.UUID,
	strategy Strategy,
	ledger *capacityLedger,
) (ImportAction, string, error) {
	if row.HasIssueOtherThan(IssueDuplicateInFile) {
		return ActionFailed, firstIssueMessage(row), nil
	}
	if row.Duplicate.InFile && !row.Duplicate.IsPrimaryInFile {
		return ActionSkipped, fmt.Sprintf("duplicates row %d", row.primaryRow), nil
	}

	if row.Duplicate.InDBActive {
		switch strategy {
		case StrategyUpdate, StrategyRestore:
			if err := s.officials.UpdateIdentity(ctx, row.activeMatch.ID(), row.Identity()); err != nil {
				return "", "", err
			}
			return ActionUpdated, retainedAssignmentNote(row, *row.activeMatch), nil
		default:
			return ActionSkipped, "matches an active record", nil
		}
	}

	if row.Duplicate.InDBInactive {
		switch strategy {
		case StrategyUpdate:
			// Update never reactivates; the record stays inactive.
			if err := s.officials.UpdateIdentity(ctx, row.inactiveMatch.ID(), row.Identity()); err != nil {
				return "", "", err
			}
			return ActionUpdated, retainedAssignmentNote(row, *row.inactiveMatch), nil
		case StrategyRestore:
			if !ledger.claim(row.seatKey()) {
				return ActionFailed, capacityMessage(row, ledger), nil
			}
			if err := s.officials.Restore(ctx, row.inactiveMatch.ID(), row.Identity()); err != nil {
				return "", "", err
			}
			return ActionRestored, retainedAssignmentNote(row, *row.inactiveMatch), nil
		default:
			return ActionSkipped, "matches an inactive record", nil
		}
	}

	if !ledger.claim(row.seatKey()) {
		return ActionFailed, capacityMessage(row, ledger), nil
	}
	created := official.New(termID, row.UnitID, row.Position, row.Identity())
	if _, err := s.officials.Create(ctx, created); err != nil {
		return "", "", err
	}
	return ActionCreated, "", nil
}

func firstIssueMessage(row *CandidateRow) string {
	for _, issue := range row.Issues {
		if issue.Code != IssueDuplicateInFile {
			return issue.Message
		}
	}
	return "row is invalid"
}

func capacityMessage(row *CandidateRow, ledger *capacityLedger) string {
	key := row.seatKey()
	return fmt.Sprintf(
		"no remaining %s seat in %s (%d of %d filled)",
		row.Position, row.UnitName, ledger.occupied(key), ledger.max(key),
	)
}

// retainedAssignmentNote flags rows whose file says one assignment while the
// matched record holds another. The persisted assignment wins; reassignment
// goes through a dedicated flow with its own capacity check.
func retainedAssignmentNote(row *CandidateRow, match official.Official) string {
	if match.UnitID() == row.UnitID && match.Position() == row.Position {
		return ""
	}
	return fmt.Sprintf(
		"existing assignment retained (%s in unit %s)",
		match.Position(), match.UnitID(),
	)
}
