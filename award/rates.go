/*
rates.go - Effective-dated pay rate repository

PURPOSE:
  Resolves the pay rate in force for a classification on a date. Each
  (classification, rate type) owns an append-only interval list sorted by
  EffectiveFrom; lookups binary-search it for the row whose
  [EffectiveFrom, EffectiveTo) interval contains the date.

INVARIANTS (checked by NewRateHistory):
  - Ranges never overlap
  - Exactly one row is open-ended (EffectiveTo == nil) and it is the latest
  - Every closed row ends after it starts

SUPERSEDING:
  An FWC Annual Wage Review never edits a row. Supersede closes the current
  row on the day the new rate starts and appends the new row, returning a new
  history. The old history value is left untouched so calculations already
  holding it keep a consistent view.

EXAMPLE:
  table, _ := NewRateTable(rows)
  rate, err := table.Resolve("cs-3.1", RateOrdinary, NewDate(2024, 7, 14))
  if errors.Is(err, ErrRateNotFound) {
      // classification misconfigured; the calculation must abort
  }
*/
package award

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// PayRate is one row of a classification's rate history.
type PayRate struct {
	ClassificationID ClassificationID
	RateType         RateType
	HourlyRate       decimal.Decimal
	EffectiveFrom    Date
	EffectiveTo      *Date // nil = current
	Version          int
}

// Contains returns true if asOf falls in [EffectiveFrom, EffectiveTo).
func (r PayRate) Contains(asOf Date) bool {
	if asOf.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || asOf.Before(*r.EffectiveTo)
}

// Current returns true for the open-ended row.
func (r PayRate) Current() bool { return r.EffectiveTo == nil }

// =============================================================================
// RATE HISTORY - One interval list
// =============================================================================

// RateHistory is the sorted, validated history of one (classification, rate type).
type RateHistory struct {
	classificationID ClassificationID
	rateType         RateType
	rows             []PayRate
}

// NewRateHistory validates and sorts rows that all share one classification
// and rate type.
func NewRateHistory(rows []PayRate) (RateHistory, error) {
	if len(rows) == 0 {
		return RateHistory{}, &ConfigurationError{Reason: "rate history is empty"}
	}

	sorted := make([]PayRate, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})

	h := RateHistory{
		classificationID: sorted[0].ClassificationID,
		rateType:         sorted[0].RateType,
		rows:             sorted,
	}
	if err := h.validate(); err != nil {
		return RateHistory{}, err
	}
	return h, nil
}

func (h RateHistory) validate() error {
	fail := func(at Date, reason string) error {
		return &ConfigurationError{ClassificationID: h.classificationID, Date: at, Reason: reason}
	}

	open := 0
	for i, row := range h.rows {
		if row.ClassificationID != h.classificationID || row.RateType != h.rateType {
			return fail(row.EffectiveFrom, "rate history mixes classifications or rate types")
		}
		if !row.HourlyRate.IsPositive() {
			return fail(row.EffectiveFrom, "hourly rate must be positive")
		}
		if row.EffectiveTo != nil && !row.EffectiveTo.After(row.EffectiveFrom) {
			return fail(row.EffectiveFrom, "rate row ends before it starts")
		}
		if row.Current() {
			open++
			if i != len(h.rows)-1 {
				return fail(row.EffectiveFrom, "open-ended rate row is not the latest row")
			}
		}
		if i > 0 {
			prev := h.rows[i-1]
			if !prev.EffectiveFrom.Before(row.EffectiveFrom) {
				return fail(row.EffectiveFrom, "two rate rows start on the same date")
			}
			if prev.EffectiveTo == nil || prev.EffectiveTo.After(row.EffectiveFrom) {
				return fail(row.EffectiveFrom, "rate rows overlap")
			}
			if prev.EffectiveTo.Before(row.EffectiveFrom) {
				return fail(row.EffectiveFrom, fmt.Sprintf("rate history has a gap from %s", *prev.EffectiveTo))
			}
		}
	}
	if open != 1 {
		return fail(Date{}, fmt.Sprintf("rate history has %d current rows, want exactly 1", open))
	}
	return nil
}

// Resolve returns the row containing asOf.
func (h RateHistory) Resolve(asOf Date) (PayRate, bool) {
	// First row starting after asOf; the candidate is the one before it.
	idx := sort.Search(len(h.rows), func(i int) bool {
		return h.rows[i].EffectiveFrom.After(asOf)
	}) - 1
	if idx < 0 || !h.rows[idx].Contains(asOf) {
		return PayRate{}, false
	}
	return h.rows[idx], true
}

// Current returns the open-ended row.
func (h RateHistory) Current() PayRate {
	return h.rows[len(h.rows)-1]
}

// Rows returns a copy of the history, oldest first.
func (h RateHistory) Rows() []PayRate {
	out := make([]PayRate, len(h.rows))
	copy(out, h.rows)
	return out
}

// Supersede returns a new history where the current row is closed on
// next.EffectiveFrom and next becomes current.
func (h RateHistory) Supersede(next PayRate) (RateHistory, error) {
	current := h.Current()
	if next.ClassificationID == "" {
		next.ClassificationID = h.classificationID
	}
	if next.RateType == "" {
		next.RateType = h.rateType
	}
	if next.EffectiveTo != nil {
		return RateHistory{}, &ConfigurationError{
			ClassificationID: h.classificationID,
			Date:             next.EffectiveFrom,
			Reason:           "superseding rate must be open-ended",
		}
	}
	if !next.EffectiveFrom.After(current.EffectiveFrom) {
		return RateHistory{}, &ConfigurationError{
			ClassificationID: h.classificationID,
			Date:             next.EffectiveFrom,
			Reason:           "superseding rate must start after the current rate " + current.EffectiveFrom.String(),
		}
	}
	if next.Version == 0 {
		next.Version = current.Version + 1
	}

	rows := h.Rows()
	closedAt := next.EffectiveFrom
	rows[len(rows)-1].EffectiveTo = &closedAt
	rows = append(rows, next)
	return NewRateHistory(rows)
}

// =============================================================================
// RATE TABLE - Every history of an award
// =============================================================================

type rateKey struct {
	classificationID ClassificationID
	rateType         RateType
}

// RateTable indexes rate histories by classification and rate type.
type RateTable struct {
	histories map[rateKey]RateHistory
}

// NewRateTable groups rows into histories and validates each one.
func NewRateTable(rows []PayRate) (*RateTable, error) {
	grouped := make(map[rateKey][]PayRate)
	for _, row := range rows {
		if row.ClassificationID == "" {
			return nil, &ConfigurationError{Reason: "rate row has no classification"}
		}
		if row.RateType == "" {
			row.RateType = RateOrdinary
		}
		key := rateKey{row.ClassificationID, row.RateType}
		grouped[key] = append(grouped[key], row)
	}

	t := &RateTable{histories: make(map[rateKey]RateHistory, len(grouped))}
	for key, group := range grouped {
		h, err := NewRateHistory(group)
		if err != nil {
			return nil, err
		}
		t.histories[key] = h
	}
	return t, nil
}

// Resolve returns the rate in force for the classification on asOf.
func (t *RateTable) Resolve(classificationID ClassificationID, rateType RateType, asOf Date) (PayRate, error) {
	h, ok := t.histories[rateKey{classificationID, rateType}]
	if ok {
		if rate, found := h.Resolve(asOf); found {
			return rate, nil
		}
	}
	return PayRate{}, &RateNotFoundError{ClassificationID: classificationID, RateType: rateType, AsOf: asOf}
}

// History returns the history for a classification and rate type.
func (t *RateTable) History(classificationID ClassificationID, rateType RateType) (RateHistory, bool) {
	h, ok := t.histories[rateKey{classificationID, rateType}]
	return h, ok
}

// Rows returns every row in the table ordered by classification, rate type, date.
func (t *RateTable) Rows() []PayRate {
	var out []PayRate
	for _, h := range t.histories {
		out = append(out, h.rows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ClassificationID != b.ClassificationID {
			return a.ClassificationID < b.ClassificationID
		}
		if a.RateType != b.RateType {
			return a.RateType < b.RateType
		}
		return a.EffectiveFrom.Before(b.EffectiveFrom)
	})
	return out
}

// Supersede returns a new table with next appended to its history.
func (t *RateTable) Supersede(next PayRate) (*RateTable, error) {
	if next.RateType == "" {
		next.RateType = RateOrdinary
	}
	key := rateKey{next.ClassificationID, next.RateType}

	updated := make(map[rateKey]RateHistory, len(t.histories)+1)
	for k, h := range t.histories {
		updated[k] = h
	}

	h, ok := t.histories[key]
	if !ok {
		// First row of a new series.
		if next.Version == 0 {
			next.Version = 1
		}
		created, err := NewRateHistory([]PayRate{next})
		if err != nil {
			return nil, err
		}
		updated[key] = created
		return &RateTable{histories: updated}, nil
	}

	superseded, err := h.Supersede(next)
	if err != nil {
		return nil, err
	}
	updated[key] = superseded
	return &RateTable{histories: updated}, nil
}
