/*
penalty.go - Penalty resolution for one shift segment

RULES:
  - Rules are filtered by employment type, day type and clock overlap
  - Day-based penalties (saturday, sunday, public holiday) are mutually
    exclusive: at most one applies to a segment
  - Time-based penalties (evening, night, early morning) are an independent
    axis: at most one rule per penalty type, and they combine with the day
  - Among the selected rules, the highest "replace" rule sets the multiplier;
    every selected "compound" rule multiplies on top of it

PRECEDENCE (same axis, or competing replace rules):
  1. Highest multiplier
  2. Highest priority
  3. Most specific window (a window beats none, narrower beats wider)
  4. Lowest rule id

The resolver never splits time. A segment that crosses a window boundary is
a calculator bug; segments are pre-cut at every boundary.
*/
package pay

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// SegmentContext is what the penalty resolver sees of a segment.
type SegmentContext struct {
	DayType        award.DayType
	From           award.TimeOfDay
	To             award.TimeOfDay
	EmploymentType award.EmploymentType
}

// ResolvePenalties returns the penalty rules that apply to a segment: the
// replace winner first (if any), then compound rules in penalty-type order.
func ResolvePenalties(seg SegmentContext, rules []award.PenaltyRule) ([]award.PenaltyRule, error) {
	if !seg.DayType.Valid() {
		return nil, &award.ValidationError{Field: "day_type", Reason: "unknown day type " + string(seg.DayType)}
	}
	if seg.To <= seg.From {
		return nil, &award.ValidationError{Field: "segment", Reason: "segment end must be after start"}
	}

	var dayCandidates []award.PenaltyRule
	timeCandidates := make(map[award.PenaltyType][]award.PenaltyRule)
	for _, r := range rules {
		if err := r.Validate(""); err != nil {
			return nil, err
		}
		if !r.AppliesTo(seg.EmploymentType) || !r.AppliesOn(seg.DayType) {
			continue
		}
		if r.Window != nil && !r.Window.Overlaps(seg.From, seg.To) {
			continue
		}
		if r.Type.DayBased() {
			dayCandidates = append(dayCandidates, r)
		} else {
			timeCandidates[r.Type] = append(timeCandidates[r.Type], r)
		}
	}

	// One winner per axis: the day type, then each clock penalty type.
	var selected []award.PenaltyRule
	if len(dayCandidates) > 0 {
		selected = append(selected, best(dayCandidates))
	}
	for _, pt := range award.PenaltyTypes {
		if c := timeCandidates[pt]; len(c) > 0 {
			selected = append(selected, best(c))
		}
	}

	var (
		replace   []award.PenaltyRule
		compounds []award.PenaltyRule
	)
	for _, r := range selected {
		switch r.Loading {
		case award.LoadingReplace:
			replace = append(replace, r)
		case award.LoadingCompound:
			compounds = append(compounds, r)
		}
	}

	var out []award.PenaltyRule
	if len(replace) > 0 {
		out = append(out, best(replace))
	}
	return append(out, compounds...), nil
}

// best returns the rule that wins precedence among candidates.
func best(candidates []award.PenaltyRule) award.PenaltyRule {
	sorted := append([]award.PenaltyRule(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return outranks(sorted[i], sorted[j]) })
	return sorted[0]
}

func outranks(a, b award.PenaltyRule) bool {
	if c := a.Multiplier.Cmp(b.Multiplier); c != 0 {
		return c > 0
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if sa, sb := specificity(a), specificity(b); sa != sb {
		return sa < sb
	}
	return a.ID < b.ID
}

// specificity is the window length in minutes; no window sorts last.
func specificity(r award.PenaltyRule) int {
	if r.Window == nil {
		return int(award.EndOfDay) + 1
	}
	return r.Window.Length()
}

// EffectiveMultiplier folds resolved penalties into one multiplier of the base:
// the replace multiplier (1.0 when none) times every compound multiplier.
func EffectiveMultiplier(matches []award.PenaltyRule) decimal.Decimal {
	m := award.One
	for _, r := range matches {
		if r.Loading == award.LoadingReplace {
			m = r.Multiplier
			break
		}
	}
	for _, r := range matches {
		if r.Loading == award.LoadingCompound {
			m = m.Mul(r.Multiplier)
		}
	}
	return m
}

// penaltyComponent names the line item for a set of matches.
func penaltyComponent(matches []award.PenaltyRule) string {
	if len(matches) == 0 {
		return ComponentOrdinary
	}
	names := make([]string, len(matches))
	for i, r := range matches {
		names[i] = string(r.Type)
	}
	return penaltyPrefix + strings.Join(names, "_")
}
