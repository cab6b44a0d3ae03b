/*
override.go - Approved rate overrides and absorption

OVERRIDE TYPES:
  custom_hourly_rate  The value replaces the award base rate. It must be at
                      least the award rate on the day it is applied.
  annualised_salary   The award rate stays the measure of entitlement; the
                      salary's hourly equivalent over a standard week must be
                      at least the award rate. Pay is reconciled per period.

FLOOR:
  A value below the floor is a BelowAwardFloorError. It is never clamped: an
  approver has to fix the arrangement.

ABSORPTION:
  Applied by the calculator after overtime allocation. The first N overtime
  hours of the week are re-priced at the ordinary rate and the removed
  differential is reported as Absorbed, outside the breakdown total.
*/
package pay

import (
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// ApplyOverride returns the base rate to price a day with. floor is the award
// rate resolved for that day; weeklyHours converts salaries to hourly.
func ApplyOverride(floor award.PayRate, asOf award.Date, o *award.RateOverride, weeklyHours decimal.Decimal) (decimal.Decimal, error) {
	if o == nil || !o.ActiveOn(asOf) {
		return floor.HourlyRate, nil
	}
	if !o.Approved() {
		return decimal.Zero, &award.ValidationError{Field: "override", Reason: "override " + string(o.ID) + " is not approved"}
	}

	switch o.Type {
	case award.OverrideCustomRate:
		if o.Value.LessThan(floor.HourlyRate) {
			return decimal.Zero, floorError(o, floor, asOf, o.Value)
		}
		return o.Value, nil

	case award.OverrideAnnualSalary:
		hourly := award.HourlyEquivalent(o.Value, weeklyHours)
		if hourly.LessThan(floor.HourlyRate) {
			return decimal.Zero, floorError(o, floor, asOf, hourly)
		}
		return floor.HourlyRate, nil

	default:
		return decimal.Zero, &award.ValidationError{Field: "override", Reason: "unknown override type " + string(o.Type)}
	}
}

func floorError(o *award.RateOverride, floor award.PayRate, asOf award.Date, value decimal.Decimal) error {
	return &award.BelowAwardFloorError{
		OverrideID:       o.ID,
		StaffID:          o.StaffID,
		ClassificationID: floor.ClassificationID,
		Date:             asOf,
		Value:            value,
		Floor:            floor.HourlyRate,
	}
}

// ValidateOverride checks an override at approval time: well-formed, approved
// and not below the award floor on its EffectiveFrom date.
func ValidateOverride(snap *award.Snapshot, staff award.StaffContext, o award.RateOverride) error {
	switch {
	case !o.Type.Valid():
		return &award.ValidationError{Field: "override.type", Reason: "unknown override type " + string(o.Type)}
	case !o.Value.IsPositive():
		return &award.ValidationError{Field: "override.value", Reason: "must be positive"}
	case o.EffectiveFrom.IsZero():
		return &award.ValidationError{Field: "override.effective_from", Reason: "required"}
	case o.EffectiveTo != nil && !o.EffectiveTo.After(o.EffectiveFrom):
		return &award.ValidationError{Field: "override.effective_to", Reason: "must be after effective_from"}
	case o.StaffID != "" && staff.StaffID != "" && o.StaffID != staff.StaffID:
		return &award.ValidationError{Field: "override.staff_id", Reason: "override belongs to another staff member"}
	}
	if o.Absorption != nil && !o.Absorption.OvertimeHours.IsPositive() {
		return &award.ValidationError{Field: "override.absorption", Reason: "absorbed overtime hours must be positive"}
	}

	floor, err := snap.Rates().Resolve(staff.ClassificationID, award.RateOrdinary, o.EffectiveFrom)
	if err != nil {
		return err
	}
	weekly := snap.Overtime().For(staff.EmploymentType).WeeklyHours
	_, err = ApplyOverride(floor, o.EffectiveFrom, &o, weekly)
	return err
}

// =============================================================================
// ABSORPTION
// =============================================================================

// absorptionBudget is how many overtime hours this shift may still absorb.
func absorptionBudget(o *award.RateOverride, prior PriorHours) decimal.Decimal {
	if o == nil || o.Absorption == nil {
		return decimal.Zero
	}
	return positive(o.Absorption.OvertimeHours.Sub(prior.AbsorbedOvertime))
}
