package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/munigov/munigov-sdk/modules/roster/domain/aggregates/official"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/position"
)

// Strategy is the caller-chosen policy governing how rows matching existing
// persisted records are handled during import.
type Strategy string

const (
	StrategySkip    Strategy = "skip"
	StrategyUpdate  Strategy = "update"
	StrategyRestore Strategy = "restore"
)

func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategySkip:
		return StrategySkip, true
	case StrategyUpdate:
		return StrategyUpdate, true
	case StrategyRestore:
		return StrategyRestore, true
	}
	return "", false
}

type RowStatus string

const (
	RowValid   RowStatus = "valid"
	RowInvalid RowStatus = "invalid"
)

type IssueCode string

const (
	IssueMissingField     IssueCode = "missing_field"
	IssueUnknownPosition  IssueCode = "unknown_position"
	IssueUnknownUnit      IssueCode = "unknown_unit"
	IssueInvalidEmail     IssueCode = "invalid_email"
	IssueDuplicateInFile  IssueCode = "duplicate_in_file"
	IssueCapacityExceeded IssueCode = "capacity_exceeded"
)

type Issue struct {
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
}

// DuplicateFlags classifies a row against the three duplicate sources. The
// flags are independent: a row may be flagged on more than one axis.
type DuplicateFlags struct {
	InFile          bool `json:"inFile"`
	IsPrimaryInFile bool `json:"isPrimaryInFile"`
	InDBActive      bool `json:"inDbActive"`
	InDBInactive    bool `json:"inDbInactive"`
}

// CandidateRow is one input record through its lifecycle. It is rebuilt from
// the file on every validate or import call and never persisted itself.
type CandidateRow struct {
	RowNumber int
	Raw       map[string]string

	FirstName  string
	LastName   string
	MiddleName string
	Suffix     string
	Email      string

	PositionLabel string
	Position      position.Position
	UnitRef       string
	UnitID        uuid.UUID
	UnitName      string

	Status    RowStatus
	Issues    []Issue
	Duplicate DuplicateFlags

	// primaryRow is the row number of the first occurrence when InFile is set.
	primaryRow int

	activeMatch   *official.Official
	inactiveMatch *official.Official
}

func (r *CandidateRow) Valid() bool {
	return r.Status == RowValid
}

func (r *CandidateRow) Invalidate(code IssueCode, format string, args ...any) {
	r.Status = RowInvalid
	r.Issues = append(r.Issues, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
}

// HasIssueOtherThan reports whether the row carries any issue besides the
// given code.
func (r *CandidateRow) HasIssueOtherThan(code IssueCode) bool {
	for _, issue := range r.Issues {
		if issue.Code != code {
			return true
		}
	}
	return false
}

func (r *CandidateRow) Identity() official.Identity {
	return official.Identity{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		MiddleName: r.MiddleName,
		Suffix:     r.Suffix,
		Email:      r.Email,
	}
}

func (r *CandidateRow) seatKey() official.SeatKey {
	return official.SeatKey{UnitID: r.UnitID, Position: r.Position}
}

// NormalizedFields is the report-facing view of a row's normalized values.
type NormalizedFields struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	MiddleName string `json:"middleName,omitempty"`
	Suffix     string `json:"suffix,omitempty"`
	Email      string `json:"email,omitempty"`
	Position   string `json:"position"`
	Unit       string `json:"unit"`
}

func (r *CandidateRow) normalizedFields() NormalizedFields {
	return NormalizedFields{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		MiddleName: r.MiddleName,
		Suffix:     r.Suffix,
		Email:      r.Email,
		Position:   string(r.Position),
		Unit:       r.UnitRef,
	}
}

type ValidationSummary struct {
	TotalRecords          int `json:"totalRecords"`
	ValidRecords          int `json:"validRecords"`
	InvalidRecords        int `json:"invalidRecords"`
	DuplicateRecords      int `json:"duplicateRecords"`
	DuplicateInFile       int `json:"duplicateInFile"`
	DuplicateInDBActive   int `json:"duplicateInDbActive"`
	DuplicateInDBInactive int `json:"duplicateInDbInactive"`
}

type ValidationRow struct {
	RowNumber        int              `json:"rowNumber"`
	Status           RowStatus        `json:"status"`
	Issues           []Issue          `json:"issues"`
	Normalized       NormalizedFields `json:"normalized"`
	ResolvedUnitName string           `json:"resolvedUnitName,omitempty"`
	Duplicate        DuplicateFlags   `json:"duplicate"`
}

type ValidationReport struct {
	Summary ValidationSummary `json:"summary"`
	Rows    []ValidationRow   `json:"rows"`
}

type ImportAction string

const (
	ActionCreated  ImportAction = "created"
	ActionUpdated  ImportAction = "updated"
	ActionRestored ImportAction = "restored"
	ActionSkipped  ImportAction = "skipped"
	ActionFailed   ImportAction = "failed"
)

type ImportSummary struct {
	Total             int      `json:"total"`
	Created           int      `json:"created"`
	Updated           int      `json:"updated"`
	Restored          int      `json:"restored"`
	Skipped           int      `json:"skipped"`
	Failed            int      `json:"failed"`
	DuplicateStrategy Strategy `json:"duplicateStrategy"`
}

type ImportRow struct {
	RowNumber int              `json:"rowNumber"`
	Action    ImportAction     `json:"action"`
	Message   string           `json:"message,omitempty"`
	Data      NormalizedFields `json:"data"`
}

type ImportReport struct {
	Summary ImportSummary `json:"summary"`
	Rows    []ImportRow   `json:"rows"`
}
