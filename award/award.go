/*
award.go - Award, classification and rule definitions

PURPOSE:
  Defines the rules that govern how a shift is paid under a Modern Award:
  classifications and their prerequisites, penalty rules, allowance rules,
  overtime thresholds and approved rate overrides. An Award version is the
  contract between the Fair Work Commission and the employer for a period.

KEY CONCEPTS:
  - Award: identity plus a version and the date that version takes effect
  - Classification: a pay grade; rates hang off it in the RateTable
  - PenaltyRule: day-based (saturday/sunday/public holiday) or time-based
    (evening/night/early morning) multiplier, replace or compound
  - AllowanceRule: a triggered payment with stacking and exclusion groups
  - OvertimeConfig: daily/weekly thresholds and tier multipliers, optionally
    varied per employment type
  - RateOverride: an approved above-award arrangement for one staff member

VERSIONING:
  Awards are never edited in place. An FWC variation produces a new Version
  with a later EffectiveFrom; the Library (snapshot.go) selects the version
  in force on a date.

EXAMPLE:
  rule := PenaltyRule{
      ID:             "sun-perm",
      Type:           PenaltySunday,
      EmploymentType: FullTime,
      Multiplier:     decimal.RequireFromString("1.75"),
      Loading:        LoadingReplace,
  }
*/
package award

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AWARD & CLASSIFICATION
// =============================================================================

// Award identifies one version of a Modern Award.
type Award struct {
	ID            AwardID
	Name          string
	Industry      string
	Version       int
	EffectiveFrom Date
	TimeZone      string // IANA zone used to read shift clocks; empty = shift's own zone
}

// Classification is a pay grade within an award.
type Classification struct {
	ID      ClassificationID
	AwardID AwardID
	Level   string
	Name    string

	// Employment types this classification can be engaged under (empty = all)
	EmploymentTypes []EmploymentType

	// Prerequisites the staff member must meet
	Qualifications      []string
	MinExperienceMonths int
}

// Allows returns true if the classification can be worked under the employment type.
func (c Classification) Allows(et EmploymentType) bool {
	if len(c.EmploymentTypes) == 0 {
		return true
	}
	for _, allowed := range c.EmploymentTypes {
		if allowed == et {
			return true
		}
	}
	return false
}

// =============================================================================
// PENALTY RULES
// =============================================================================

// PenaltyRule is one penalty rate clause.
type PenaltyRule struct {
	ID             RuleID
	Type           PenaltyType
	EmploymentType EmploymentType // Empty = applies to every employment type
	Multiplier     decimal.Decimal
	Loading        LoadingType

	// Window limits the clock hours the rule covers. Required for time-based
	// penalties, optional for day-based ones.
	Window *TimeWindow

	// Days limits a time-based rule to some day types (empty = every day).
	Days []DayType

	// Priority breaks multiplier ties between replace rules (higher wins)
	Priority int
}

// AppliesTo returns true if the rule covers the employment type.
func (r PenaltyRule) AppliesTo(et EmploymentType) bool {
	return r.EmploymentType == "" || r.EmploymentType == et
}

// AppliesOn returns true if the rule covers the day type.
func (r PenaltyRule) AppliesOn(day DayType) bool {
	if want, ok := r.Type.DayType(); ok {
		return want == day
	}
	if len(r.Days) == 0 {
		return true
	}
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Validate checks the rule in isolation.
func (r PenaltyRule) Validate(awardID AwardID) error {
	fail := func(reason string) error {
		return &ConfigurationError{AwardID: awardID, RuleID: r.ID, Reason: reason}
	}
	if !r.Type.Valid() {
		return fail(fmt.Sprintf("unknown penalty type %q", r.Type))
	}
	if !r.Loading.Valid() {
		return fail(fmt.Sprintf("unknown loading type %q", r.Loading))
	}
	if r.EmploymentType != "" && !r.EmploymentType.Valid() {
		return fail(fmt.Sprintf("unknown employment type %q", r.EmploymentType))
	}
	if r.Multiplier.LessThan(One) {
		return fail("penalty multiplier must be at least 1.0")
	}
	if !r.Type.DayBased() && r.Window == nil {
		return fail("time-based penalty requires a time window")
	}
	if r.Window != nil && r.Window.Start == r.Window.End {
		return fail("penalty time window is empty")
	}
	for _, d := range r.Days {
		if !d.Valid() {
			return fail(fmt.Sprintf("unknown day type %q", d))
		}
	}
	return nil
}

// =============================================================================
// ALLOWANCE RULES
// =============================================================================

// AllowanceRule is one allowance clause.
type AllowanceRule struct {
	ID        RuleID
	Name      string
	Trigger   AllowanceTrigger
	Threshold decimal.Decimal // Hours for duration triggers, count for split shifts
	Condition string          // Qualification or designation name
	Amount    decimal.Decimal
	Frequency Frequency

	// Stackable allowances always apply. Non-stackable ones compete inside
	// their ExclusionGroup and only the highest Priority survives.
	Stackable      bool
	ExclusionGroup string
	Priority       int

	// Employment types eligible (empty = all)
	EmploymentTypes []EmploymentType
}

// AppliesTo returns true if the employment type is eligible.
func (r AllowanceRule) AppliesTo(et EmploymentType) bool {
	if len(r.EmploymentTypes) == 0 {
		return true
	}
	for _, allowed := range r.EmploymentTypes {
		if allowed == et {
			return true
		}
	}
	return false
}

// Validate checks the rule in isolation.
func (r AllowanceRule) Validate(awardID AwardID) error {
	fail := func(reason string) error {
		return &ConfigurationError{AwardID: awardID, RuleID: r.ID, Reason: reason}
	}
	if !r.Trigger.Valid() {
		return fail(fmt.Sprintf("unknown allowance trigger %q", r.Trigger))
	}
	if !r.Frequency.Valid() {
		return fail(fmt.Sprintf("unknown allowance frequency %q", r.Frequency))
	}
	if r.Amount.IsNegative() {
		return fail("allowance amount cannot be negative")
	}
	if r.Threshold.IsNegative() {
		return fail("allowance threshold cannot be negative")
	}
	switch r.Trigger {
	case TriggerQualification, TriggerDesignation:
		if r.Condition == "" {
			return fail("qualification and designation allowances need a condition")
		}
	}
	return nil
}

// =============================================================================
// OVERTIME
// =============================================================================

// OvertimeThresholds configures the overtime allocator for one employment type.
type OvertimeThresholds struct {
	DailyHours  decimal.Decimal // Hours per day before overtime
	WeeklyHours decimal.Decimal // Ordinary hours per week before overtime
	Tier1Hours  decimal.Decimal // Overtime hours per day paid at Tier1Multiplier

	Tier1Multiplier decimal.Decimal
	Tier2Multiplier decimal.Decimal

	// DayMultipliers replaces the tier multiplier for overtime worked on a day
	// type (e.g. Sunday overtime at 200%).
	DayMultipliers map[DayType]decimal.Decimal

	WeekStart time.Weekday
}

// Validate checks thresholds before allocation.
func (t OvertimeThresholds) Validate() error {
	switch {
	case !t.DailyHours.IsPositive():
		return &ConfigurationError{Reason: "overtime daily threshold must be positive"}
	case !t.WeeklyHours.IsPositive():
		return &ConfigurationError{Reason: "overtime weekly threshold must be positive"}
	case t.Tier1Hours.IsNegative():
		return &ConfigurationError{Reason: "overtime tier-1 hours cannot be negative"}
	case t.Tier1Multiplier.LessThan(One) || t.Tier2Multiplier.LessThan(One):
		return &ConfigurationError{Reason: "overtime multipliers must be at least 1.0"}
	}
	for day, m := range t.DayMultipliers {
		if !day.Valid() || m.LessThan(One) {
			return &ConfigurationError{Reason: fmt.Sprintf("invalid overtime multiplier for %s", day)}
		}
	}
	return nil
}

// MultiplierFor returns the overtime multiplier for a tier on a day type.
func (t OvertimeThresholds) MultiplierFor(tier int, day DayType) decimal.Decimal {
	if m, ok := t.DayMultipliers[day]; ok {
		return m
	}
	if tier == 1 {
		return t.Tier1Multiplier
	}
	return t.Tier2Multiplier
}

// OvertimeConfig holds the award's overtime settings.
type OvertimeConfig struct {
	Default          OvertimeThresholds
	ByEmploymentType map[EmploymentType]OvertimeThresholds

	// CasualLoadingOnOvertime adds the casual loading beside overtime multipliers.
	CasualLoadingOnOvertime bool
}

// For returns the thresholds for an employment type.
func (c OvertimeConfig) For(et EmploymentType) OvertimeThresholds {
	if t, ok := c.ByEmploymentType[et]; ok {
		return t
	}
	return c.Default
}

// =============================================================================
// RATE OVERRIDES
// =============================================================================

// RateOverride is an approved individual arrangement for one staff member.
type RateOverride struct {
	ID            OverrideID
	StaffID       StaffID
	Type          OverrideType
	Value         decimal.Decimal // Hourly rate, or annual salary for OverrideAnnualSalary
	EffectiveFrom Date
	EffectiveTo   *Date // nil = open-ended
	Absorption    *Absorption
	ApprovedBy    string
	ApprovedAt    time.Time
}

// Absorption is a clause stating the arrangement already pays for some overtime.
type Absorption struct {
	OvertimeHours decimal.Decimal // Overtime hours per week absorbed
	Description   string
}

// ActiveOn returns true if the override covers the date [EffectiveFrom, EffectiveTo).
func (o RateOverride) ActiveOn(d Date) bool {
	if d.Before(o.EffectiveFrom) {
		return false
	}
	return o.EffectiveTo == nil || d.Before(*o.EffectiveTo)
}

// Approved returns true once an approver has signed off.
func (o RateOverride) Approved() bool { return o.ApprovedBy != "" }

// =============================================================================
// STAFF CONTEXT - Who is being paid
// =============================================================================

// StaffContext is the staff-side input to a calculation.
type StaffContext struct {
	StaffID          StaffID
	ClassificationID ClassificationID
	EmploymentType   EmploymentType
	Qualifications   []string
	Designations     []string
	ExperienceMonths int
	Override         *RateOverride
}

func (s StaffContext) HasQualification(name string) bool { return contains(s.Qualifications, name) }
func (s StaffContext) HasDesignation(name string) bool   { return contains(s.Designations, name) }

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
