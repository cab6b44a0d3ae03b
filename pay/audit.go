/*
audit.go - Append-only breakdown log

PURPOSE:
  The AuditLog is the record of every pay breakdown the service produced.
  It wraps a BreakdownStore with the idempotency check: a breakdown id is a
  hash of the calculation's inputs, so a retried request produces the same id
  and is rejected rather than recorded twice.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: no update, no delete
  2. IDEMPOTENT: the same calculation is recorded at most once
  3. ATOMIC BATCHES: a simulated or reconciled batch is recorded whole or not at all
*/
package pay

import (
	"context"

	"github.com/google/uuid"
	"github.com/warp/award-engine/award"
)

// AuditLog records breakdowns.
type AuditLog struct {
	Store BreakdownStore
}

func NewAuditLog(store BreakdownStore) *AuditLog {
	return &AuditLog{Store: store}
}

// Record appends one breakdown. Returns award.ErrDuplicateBreakdown if it was
// already recorded.
func (l *AuditLog) Record(ctx context.Context, rec BreakdownRecord) error {
	exists, err := l.Store.BreakdownExists(ctx, rec.Breakdown.ID)
	if err != nil {
		return err
	}
	if exists {
		return award.ErrDuplicateBreakdown
	}
	return l.Store.AppendBreakdown(ctx, rec)
}

// RecordNew appends the records not yet in the log, atomically, and returns
// how many were new. Duplicates inside the batch are collapsed.
func (l *AuditLog) RecordNew(ctx context.Context, recs []BreakdownRecord) (int, error) {
	seen := make(map[uuid.UUID]bool, len(recs))
	var fresh []BreakdownRecord
	for _, rec := range recs {
		id := rec.Breakdown.ID
		if seen[id] {
			continue
		}
		seen[id] = true

		exists, err := l.Store.BreakdownExists(ctx, id)
		if err != nil {
			return 0, err
		}
		if !exists {
			fresh = append(fresh, rec)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := l.Store.AppendBreakdowns(ctx, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}

// History returns recorded breakdowns matching the filter.
func (l *AuditLog) History(ctx context.Context, filter BreakdownFilter) ([]BreakdownRecord, error) {
	return l.Store.ListBreakdowns(ctx, filter)
}
