package pay

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// ALLOWANCE EVALUATOR
// =============================================================================

// AppliedAllowance is an allowance that survived stacking resolution.
type AppliedAllowance struct {
	Rule     award.AllowanceRule
	Quantity decimal.Decimal // 1 per shift, paid hours per hour, occurrences per occurrence
	Hours    decimal.Decimal // paid hours for per-hour allowances, otherwise zero
	Amount   decimal.Decimal // 2dp
}

// EvaluateAllowances tests every rule against the whole-shift facts and the
// staff member, then resolves stacking: stackable matches all apply, and
// non-stackable matches keep only the highest priority per exclusion group.
// Output follows the order of rules.
func EvaluateAllowances(facts ShiftFacts, staff award.StaffContext, rules []award.AllowanceRule) ([]AppliedAllowance, error) {
	var matched []award.AllowanceRule
	for _, r := range rules {
		if err := r.Validate(""); err != nil {
			return nil, err
		}
		if !r.AppliesTo(staff.EmploymentType) {
			continue
		}
		ok, err := triggered(r, facts, staff)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r)
		}
	}

	keep := resolveStacking(matched)

	var out []AppliedAllowance
	for _, r := range matched {
		if !keep[r.ID] {
			continue
		}
		qty := quantity(r, facts)
		applied := AppliedAllowance{
			Rule:     r,
			Quantity: qty,
			Amount:   award.RoundMoney(r.Amount.Mul(qty)),
		}
		if r.Frequency == award.PerHour {
			applied.Hours = qty
		}
		out = append(out, applied)
	}
	return out, nil
}

func triggered(r award.AllowanceRule, f ShiftFacts, staff award.StaffContext) (bool, error) {
	switch r.Trigger {
	case award.TriggerEveryShift:
		return true, nil
	case award.TriggerShiftDuration:
		return f.PaidHours.GreaterThanOrEqual(r.Threshold), nil
	case award.TriggerSpreadOfHours:
		return f.SpreadHours.GreaterThanOrEqual(r.Threshold), nil
	case award.TriggerSplitShift:
		need := decimal.Max(r.Threshold, award.One)
		return decimal.NewFromInt(int64(f.Splits)).GreaterThanOrEqual(need), nil
	case award.TriggerOvertimeDuration:
		return f.OvertimeHours.IsPositive() && f.OvertimeHours.GreaterThanOrEqual(r.Threshold), nil
	case award.TriggerQualification:
		return staff.HasQualification(r.Condition), nil
	case award.TriggerDesignation:
		return staff.HasDesignation(r.Condition), nil
	default:
		return false, &award.ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unhandled allowance trigger %q", r.Trigger)}
	}
}

func quantity(r award.AllowanceRule, f ShiftFacts) decimal.Decimal {
	switch r.Frequency {
	case award.PerHour:
		return f.PaidHours
	case award.PerOccurrence:
		if r.Trigger == award.TriggerSplitShift {
			return decimal.NewFromInt(int64(f.Splits))
		}
		return award.One
	default:
		return award.One
	}
}

// resolveStacking sorts non-stackable matches by (group, priority desc, id)
// and keeps the first of each group. Stackable matches are always kept.
func resolveStacking(matched []award.AllowanceRule) map[award.RuleID]bool {
	keep := make(map[award.RuleID]bool, len(matched))

	var exclusive []award.AllowanceRule
	for _, r := range matched {
		if r.Stackable {
			keep[r.ID] = true
			continue
		}
		exclusive = append(exclusive, r)
	}

	sort.SliceStable(exclusive, func(i, j int) bool {
		a, b := exclusive[i], exclusive[j]
		if a.ExclusionGroup != b.ExclusionGroup {
			return a.ExclusionGroup < b.ExclusionGroup
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID < b.ID
	})

	for i, r := range exclusive {
		if i == 0 || r.ExclusionGroup != exclusive[i-1].ExclusionGroup {
			keep[r.ID] = true
		}
	}
	return keep
}
