/*
store.go - Configuration store interface

PURPOSE:
  Defines the boundary between the pure engine and wherever award
  configuration, staff records and rate overrides are kept. The engine itself
  never calls a store; the orchestration layer (api, scheduler) loads a
  Snapshot from it once per batch and hands the snapshot to the calculator.

VERSIONING CONTRACT:
  - SaveAward adds a version; an existing (award, version) is never rewritten
  - SupersedeRate closes the current rate row and appends the next one
  - Overrides are appended; a changed arrangement is a new override with a
    later EffectiveFrom

IMPLEMENTATIONS:
  - store/sqlite: SQLite via database/sql
  - store/memory: In-memory, for tests
*/
package award

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STAFF - Staff record held by the configuration store
// =============================================================================

// Staff is a staff member's award coverage.
type Staff struct {
	ID               StaffID
	Name             string
	AwardID          AwardID
	ClassificationID ClassificationID
	EmploymentType   EmploymentType
	Qualifications   []string
	Designations     []string
	ExperienceMonths int
}

// Context builds the calculation input for the staff member on a date,
// attaching the override active on that date (if any).
func (s Staff) Context(overrides []RateOverride, on Date) StaffContext {
	return StaffContext{
		StaffID:          s.ID,
		ClassificationID: s.ClassificationID,
		EmploymentType:   s.EmploymentType,
		Qualifications:   s.Qualifications,
		Designations:     s.Designations,
		ExperienceMonths: s.ExperienceMonths,
		Override:         ActiveOverride(overrides, on),
	}
}

// ActiveOverride returns the override in force on a date. When several are
// active the one with the latest EffectiveFrom wins.
func ActiveOverride(overrides []RateOverride, on Date) *RateOverride {
	var best *RateOverride
	for i := range overrides {
		o := overrides[i]
		if !o.ActiveOn(on) {
			continue
		}
		if best == nil || o.EffectiveFrom.After(best.EffectiveFrom) {
			cp := o
			best = &cp
		}
	}
	return best
}

// SalaryFor returns the salary payable over a pay period under an annualised
// salary override.
func SalaryFor(o RateOverride, periodType PeriodType) decimal.Decimal {
	n := periodType.PeriodsPerYear()
	if o.Type != OverrideAnnualSalary || n == 0 {
		return decimal.Zero
	}
	return o.Value.Div(decimal.NewFromInt(int64(n)))
}

// =============================================================================
// CONFIG STORE
// =============================================================================

// ConfigStore persists awards, rates, staff and overrides.
type ConfigStore interface {
	// SaveAward stores a new award version. Fails if the version exists.
	SaveAward(ctx context.Context, def Definition) error

	// AwardVersions returns every version of an award, oldest first, each
	// carrying the award's full rate history. ErrAwardNotFound if unknown.
	AwardVersions(ctx context.Context, id AwardID) ([]Definition, error)

	// ListAwards returns the latest version header of every award.
	ListAwards(ctx context.Context) ([]Award, error)

	// SupersedeRate closes the current row of the rate series and appends next.
	SupersedeRate(ctx context.Context, awardID AwardID, next PayRate) error

	SaveStaff(ctx context.Context, staff Staff) error
	GetStaff(ctx context.Context, id StaffID) (Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)

	// SaveOverride appends an approved override.
	SaveOverride(ctx context.Context, o RateOverride) error
	Overrides(ctx context.Context, staffID StaffID) ([]RateOverride, error)
}

// LoadLibrary reads every version of an award from a store.
func LoadLibrary(ctx context.Context, store ConfigStore, id AwardID) (*Library, error) {
	defs, err := store.AwardVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildLibrary(defs)
}

// =============================================================================
// RATE ROWS - Shared by store implementations
// =============================================================================

// MergeRateRows adds the incoming rows whose series and start date are not yet
// present and validates the result. Stores keep one rate history per award
// that every version shares.
func MergeRateRows(existing, incoming []PayRate) ([]PayRate, error) {
	type rowKey struct {
		class ClassificationID
		rt    RateType
		from  string
	}
	keyOf := func(r PayRate) rowKey {
		rt := r.RateType
		if rt == "" {
			rt = RateOrdinary
		}
		return rowKey{r.ClassificationID, rt, r.EffectiveFrom.String()}
	}

	seen := make(map[rowKey]bool, len(existing))
	out := append([]PayRate(nil), existing...)
	for _, r := range existing {
		seen[keyOf(r)] = true
	}
	for _, r := range incoming {
		if seen[keyOf(r)] {
			continue
		}
		seen[keyOf(r)] = true
		out = append(out, r)
	}

	table, err := NewRateTable(out)
	if err != nil {
		return nil, err
	}
	return table.Rows(), nil
}

// VersionRates returns the rows of the classifications def defines.
func VersionRates(def Definition, rows []PayRate) []PayRate {
	known := make(map[ClassificationID]bool, len(def.Classifications))
	for _, c := range def.Classifications {
		known[c.ID] = true
	}
	var out []PayRate
	for _, r := range rows {
		if known[r.ClassificationID] {
			out = append(out, r)
		}
	}
	return out
}
