/*
store.go - Persistence interfaces for calculation results

PURPOSE:
  The calculator is pure; whatever it produces is persisted by the caller
  through these interfaces. Breakdowns and reconciliation runs are the audit
  trail of what was paid and why.

APPEND-ONLY CONTRACT:
  - Breakdowns are appended, never updated or deleted
  - A breakdown id is derived from its inputs, so recording the same
    calculation twice is detected as a duplicate
  - Corrections are new calculations with different inputs

IMPLEMENTATIONS:
  - store/sqlite: SQLite via database/sql
  - store/memory: In-memory, for tests
*/
package pay

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// BREAKDOWN STORE - Audit log of calculations (append-only)
// =============================================================================

// BreakdownRecord is one recorded calculation.
type BreakdownRecord struct {
	Breakdown  PayBreakdown
	Source     string // "calculate", "simulate", "reconcile", "timesheet"
	RecordedAt time.Time
}

// BreakdownFilter narrows a breakdown query. Zero fields match everything.
type BreakdownFilter struct {
	StaffID award.StaffID
	From    *award.Date // shift start date, inclusive
	To      *award.Date // shift start date, inclusive
	Limit   int
}

// Matches returns true if the record passes the filter.
func (f BreakdownFilter) Matches(rec BreakdownRecord) bool {
	if f.StaffID != "" && rec.Breakdown.StaffID != f.StaffID {
		return false
	}
	date := rec.Breakdown.Date()
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

// BreakdownStore persists breakdowns.
// IMPORTANT: append-only. No Update, no Delete.
type BreakdownStore interface {
	// AppendBreakdown stores one record. award.ErrDuplicateBreakdown if the id exists.
	AppendBreakdown(ctx context.Context, rec BreakdownRecord) error

	// AppendBreakdowns stores records atomically: all or none.
	AppendBreakdowns(ctx context.Context, recs []BreakdownRecord) error

	BreakdownExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetBreakdown(ctx context.Context, id uuid.UUID) (BreakdownRecord, error)

	// ListBreakdowns returns matching records ordered by shift start.
	ListBreakdowns(ctx context.Context, filter BreakdownFilter) ([]BreakdownRecord, error)
}

// =============================================================================
// TIMESHEET STORE - Worked shifts supplied by the roster
// =============================================================================

// TimesheetStore persists worked shifts per staff member.
type TimesheetStore interface {
	// SaveShift stores or replaces a shift by its ID.
	SaveShift(ctx context.Context, staffID award.StaffID, shift Shift) error

	// ShiftsInRange returns shifts starting in [from, to], ordered by start.
	ShiftsInRange(ctx context.Context, staffID award.StaffID, from, to award.Date) ([]Shift, error)
}

// =============================================================================
// RUN STORE - Reconciliation runs
// =============================================================================

// RunRecord is a stored reconciliation.
type RunRecord struct {
	ID        uuid.UUID
	AwardID   award.AwardID
	StaffID   award.StaffID
	Period    award.Period
	Report    ReconciliationReport
	CreatedAt time.Time
}

// RunStore persists reconciliation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id uuid.UUID) (RunRecord, error)
	ListRuns(ctx context.Context, staffID award.StaffID) ([]RunRecord, error)

	// RunExists reports whether the staff member's period was already reconciled.
	RunExists(ctx context.Context, staffID award.StaffID, period award.Period) (bool, error)
}
