/*
Package award holds the configuration model of a Modern Award and the
effective-dated rate repository the pay engine reads from.

PURPOSE:
  Everything in this package is a read-only value object supplied by the
  configuration store: awards, classifications, versioned pay rates, penalty
  and allowance rules, overtime thresholds and rate overrides. The pay package
  composes them into a pay breakdown; nothing here performs I/O.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: type-safe ids so award, classification and rule ids never mix
  - Closed enumerations: employment types, penalty types, loading modes,
    allowance triggers, frequencies and override types
  - Decimal helpers: hours, rates and money always use decimal.Decimal

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, rounding only at currency output
  2. Closed sets: every enum has a Valid() check and is matched exhaustively
  3. Versioning: configuration is superseded, never edited in place

SEE ALSO:
  - award.go: Award, Classification and rule definitions
  - rates.go: Effective-dated rate lookup
  - snapshot.go: Immutable configuration bundle used by one calculation batch
*/
package award

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AwardID string
type ClassificationID string
type RuleID string
type StaffID string
type OverrideID string

// =============================================================================
// EMPLOYMENT TYPE
// =============================================================================

type EmploymentType string

const (
	FullTime EmploymentType = "full_time"
	PartTime EmploymentType = "part_time"
	Casual   EmploymentType = "casual"
)

func (e EmploymentType) Valid() bool {
	switch e {
	case FullTime, PartTime, Casual:
		return true
	}
	return false
}

// RateType distinguishes parallel rate series for one classification.
type RateType string

const (
	RateOrdinary RateType = "ordinary" // Minimum hourly rate
	RateJunior   RateType = "junior"   // Junior percentage rates, where the award has them
)

// =============================================================================
// PENALTIES
// =============================================================================

type PenaltyType string

const (
	PenaltySaturday      PenaltyType = "saturday"
	PenaltySunday        PenaltyType = "sunday"
	PenaltyPublicHoliday PenaltyType = "public_holiday"
	PenaltyEvening       PenaltyType = "evening"
	PenaltyNight         PenaltyType = "night"
	PenaltyEarlyMorning  PenaltyType = "early_morning"
)

// PenaltyTypes lists every penalty type in resolution order: day-based first.
var PenaltyTypes = []PenaltyType{
	PenaltySaturday, PenaltySunday, PenaltyPublicHoliday,
	PenaltyEvening, PenaltyNight, PenaltyEarlyMorning,
}

func (p PenaltyType) Valid() bool {
	switch p {
	case PenaltySaturday, PenaltySunday, PenaltyPublicHoliday,
		PenaltyEvening, PenaltyNight, PenaltyEarlyMorning:
		return true
	}
	return false
}

// DayBased reports whether the penalty is keyed on the day type rather than the clock.
func (p PenaltyType) DayBased() bool {
	switch p {
	case PenaltySaturday, PenaltySunday, PenaltyPublicHoliday:
		return true
	default:
		return false
	}
}

// DayType returns the day type a day-based penalty applies to.
func (p PenaltyType) DayType() (DayType, bool) {
	switch p {
	case PenaltySaturday:
		return DaySaturday, true
	case PenaltySunday:
		return DaySunday, true
	case PenaltyPublicHoliday:
		return DayPublicHoliday, true
	default:
		return "", false
	}
}

type LoadingType string

const (
	// LoadingReplace: the multiplier replaces the base (highest replace wins)
	LoadingReplace LoadingType = "replace"
	// LoadingCompound: the multiplier applies on top of the replace rate in effect
	LoadingCompound LoadingType = "compound"
)

func (l LoadingType) Valid() bool { return l == LoadingReplace || l == LoadingCompound }

// =============================================================================
// ALLOWANCES
// =============================================================================

type AllowanceTrigger string

const (
	TriggerEveryShift       AllowanceTrigger = "every_shift"       // Always applies
	TriggerShiftDuration    AllowanceTrigger = "shift_duration"    // Paid hours >= threshold
	TriggerSpreadOfHours    AllowanceTrigger = "spread_of_hours"   // First start to last finish >= threshold
	TriggerSplitShift       AllowanceTrigger = "split_shift"       // Unpaid gaps longer than the split gap >= threshold
	TriggerOvertimeDuration AllowanceTrigger = "overtime_duration" // Overtime hours in the shift >= threshold
	TriggerQualification    AllowanceTrigger = "qualification"     // Staff holds Condition
	TriggerDesignation      AllowanceTrigger = "designation"       // Staff carries designation Condition
)

func (t AllowanceTrigger) Valid() bool {
	switch t {
	case TriggerEveryShift, TriggerShiftDuration, TriggerSpreadOfHours, TriggerSplitShift,
		TriggerOvertimeDuration, TriggerQualification, TriggerDesignation:
		return true
	}
	return false
}

type Frequency string

const (
	PerShift      Frequency = "per_shift"
	PerHour       Frequency = "per_hour"
	PerOccurrence Frequency = "per_occurrence"
)

func (f Frequency) Valid() bool {
	switch f {
	case PerShift, PerHour, PerOccurrence:
		return true
	}
	return false
}

// =============================================================================
// OVERRIDES
// =============================================================================

type OverrideType string

const (
	// OverrideCustomRate replaces the award base rate with an above-award hourly rate.
	OverrideCustomRate OverrideType = "custom_hourly_rate"
	// OverrideAnnualSalary pays an annualised salary reconciled against award entitlement.
	OverrideAnnualSalary OverrideType = "annualised_salary"
)

func (o OverrideType) Valid() bool { return o == OverrideCustomRate || o == OverrideAnnualSalary }

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

const (
	HourPlaces  int32 = 4
	RatePlaces  int32 = 4
	MoneyPlaces int32 = 2
)

var (
	One     = decimal.NewFromInt(1)
	secsHr  = decimal.NewFromInt(3600)
	weeksYr = decimal.NewFromInt(52)
)

func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Hours converts a duration to decimal hours at 4dp.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secsHr).Round(HourPlaces)
}

// Duration converts decimal hours back to a duration, truncated to the second.
func Duration(hours decimal.Decimal) time.Duration {
	return time.Duration(hours.Mul(secsHr).IntPart()) * time.Second
}

// RoundMoney rounds half away from zero to the cent.
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyPlaces) }

// HourlyEquivalent converts an annual salary into an hourly rate over a standard week.
func HourlyEquivalent(annual, weeklyHours decimal.Decimal) decimal.Decimal {
	if !weeklyHours.IsPositive() {
		return decimal.Zero
	}
	return annual.Div(weeksYr.Mul(weeklyHours))
}
