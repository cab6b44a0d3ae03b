/*
errors.go - Centralized error types for the award engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every error carries enough context (award, classification, rule, date)
  to be written to the audit trail as-is.

ERROR CATEGORIES:
  1. Configuration errors - missing or ambiguous rate or rule; fatal
  2. Floor errors - an override below the award minimum; surfaced to the approver
  3. Validation errors - malformed input rejected at entry

No error is recovered inside the engine and no fallback rate is ever guessed.
Callers decide about retries (e.g. a batch re-fetching configuration).

USAGE:
  if errors.Is(err, award.ErrBelowAwardFloor) {
      var floorErr *award.BelowAwardFloorError
      errors.As(err, &floorErr)
  }
*/
package award

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is returned when award configuration is missing or
	// ambiguous. Calculations abort; nothing partial is returned.
	ErrConfiguration = errors.New("award configuration error")

	// ErrRateNotFound is returned when no pay rate row covers the requested date.
	ErrRateNotFound = errors.New("pay rate not found")

	// ErrBelowAwardFloor is returned when an override pays less than the award.
	ErrBelowAwardFloor = errors.New("override below award floor")

	// ErrValidation is returned for malformed calculation input.
	ErrValidation = errors.New("invalid calculation input")

	// ErrAwardNotFound is returned when a referenced award doesn't exist.
	ErrAwardNotFound = errors.New("award not found")

	// ErrStaffNotFound is returned when a referenced staff member doesn't exist.
	ErrStaffNotFound = errors.New("staff not found")

	// ErrDuplicateBreakdown is returned when a breakdown id is already recorded.
	ErrDuplicateBreakdown = errors.New("breakdown already recorded")

	ErrBreakdownNotFound = errors.New("breakdown not found")
	ErrRunNotFound       = errors.New("reconciliation run not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports a misconfigured award, classification or rule.
type ConfigurationError struct {
	AwardID          AwardID
	ClassificationID ClassificationID
	RuleID           RuleID
	Date             Date
	Reason           string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason + describe(e.AwardID, e.ClassificationID, e.RuleID, e.Date)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// RateNotFoundError reports a date outside every effective range of a rate series.
type RateNotFoundError struct {
	ClassificationID ClassificationID
	RateType         RateType
	AsOf             Date
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no %s rate for classification %s as of %s", e.RateType, e.ClassificationID, e.AsOf)
}

// Unwrap exposes both the specific and the category sentinel.
func (e *RateNotFoundError) Unwrap() []error { return []error{ErrRateNotFound, ErrConfiguration} }

// BelowAwardFloorError reports an override that would underpay the award.
type BelowAwardFloorError struct {
	OverrideID       OverrideID
	StaffID          StaffID
	ClassificationID ClassificationID
	Date             Date
	Value            decimal.Decimal // Hourly value offered (salary converted to hourly)
	Floor            decimal.Decimal // Award minimum hourly rate on Date
}

func (e *BelowAwardFloorError) Error() string {
	return fmt.Sprintf("override %s for staff %s pays %s/hr, below award floor %s/hr for %s on %s",
		e.OverrideID, e.StaffID, e.Value.StringFixed(RatePlaces), e.Floor.StringFixed(RatePlaces),
		e.ClassificationID, e.Date)
}

func (e *BelowAwardFloorError) Unwrap() error { return ErrBelowAwardFloor }

// ValidationError reports malformed input, e.g. a shift ending before it starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func describe(awardID AwardID, classID ClassificationID, ruleID RuleID, date Date) string {
	var parts []string
	if awardID != "" {
		parts = append(parts, "award="+string(awardID))
	}
	if classID != "" {
		parts = append(parts, "classification="+string(classID))
	}
	if ruleID != "" {
		parts = append(parts, "rule="+string(ruleID))
	}
	if !date.IsZero() {
		parts = append(parts, "date="+date.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, " ") + ")"
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigurationError returns true for missing or ambiguous configuration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrBelowAwardFloor)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAwardNotFound) || errors.Is(err, ErrStaffNotFound) ||
		errors.Is(err, ErrBreakdownNotFound) || errors.Is(err, ErrRunNotFound)
}
