/*
overtime.go - Daily and weekly overtime allocation

ALGORITHM (per calendar day, in date order):
  dailyOT   = max(0, prior + worked - daily) - max(0, prior - daily)
  candidate = worked - dailyOT                   ordinary under the daily rule
  weeklyOT  = clamp(week + candidate - weekly, 0, candidate)
  ordinary  = candidate - weeklyOT
  overtime  = worked - ordinary                  daily or weekly, whichever is looser
  week     += ordinary

  Of a day's overtime the first Tier1Hours (less overtime already paid that
  day) are tier 1, the rest tier 2. The weekly counter restarts at zero on
  the configured week-start day.

INVARIANT:
  ordinary + tier1 + tier2 == worked, for every day and every configuration.

Thresholds are parameters. Employment-type variation (e.g. casuals only on
overtime after 10h) lives in OvertimeConfig, never in a code branch here.
*/
package pay

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// DayHours is the input for one calendar day.
type DayHours struct {
	Date          award.Date
	DayType       award.DayType
	Worked        decimal.Decimal // hours in this calculation
	PriorWorked   decimal.Decimal // hours already worked that day
	PriorOvertime decimal.Decimal // of PriorWorked, hours already paid as overtime
}

// DayAllocation is the outcome for one calendar day.
type DayAllocation struct {
	Date     award.Date
	DayType  award.DayType
	Worked   decimal.Decimal
	Ordinary decimal.Decimal
	Tier1    decimal.Decimal
	Tier2    decimal.Decimal
}

func (a DayAllocation) Overtime() decimal.Decimal { return a.Tier1.Add(a.Tier2) }

// AllocateOvertime splits each day's hours into ordinary, tier-1 and tier-2.
// priorWeekOrdinary is the ordinary hours already worked in the week of the
// first day.
func AllocateOvertime(days []DayHours, priorWeekOrdinary decimal.Decimal, t award.OvertimeThresholds) ([]DayAllocation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if priorWeekOrdinary.IsNegative() {
		return nil, &award.ValidationError{Field: "prior_week_ordinary", Reason: "cannot be negative"}
	}

	sorted := append([]DayHours(nil), days...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := make([]DayAllocation, 0, len(sorted))
	if len(sorted) == 0 {
		return out, nil
	}

	week := priorWeekOrdinary
	weekStart := award.WeekStartOf(sorted[0].Date, t.WeekStart)

	for i, d := range sorted {
		if d.Worked.IsNegative() || d.PriorWorked.IsNegative() || d.PriorOvertime.IsNegative() {
			return nil, &award.ValidationError{Field: "hours", Reason: "negative hours on " + d.Date.String()}
		}
		if i > 0 && d.Date.Equal(sorted[i-1].Date) {
			return nil, &award.ValidationError{Field: "hours", Reason: "day listed twice: " + d.Date.String()}
		}
		if ws := award.WeekStartOf(d.Date, t.WeekStart); ws.After(weekStart) {
			weekStart = ws
			week = decimal.Zero
		}

		dailyOT := positive(d.PriorWorked.Add(d.Worked).Sub(t.DailyHours)).
			Sub(positive(d.PriorWorked.Sub(t.DailyHours)))
		candidate := d.Worked.Sub(dailyOT)
		weeklyOT := clamp(week.Add(candidate).Sub(t.WeeklyHours), decimal.Zero, candidate)
		ordinary := candidate.Sub(weeklyOT)
		overtime := d.Worked.Sub(ordinary)
		week = week.Add(ordinary)

		tier1 := decimal.Min(overtime, positive(t.Tier1Hours.Sub(d.PriorOvertime)))
		out = append(out, DayAllocation{
			Date:     d.Date,
			DayType:  d.DayType,
			Worked:   d.Worked,
			Ordinary: ordinary,
			Tier1:    tier1,
			Tier2:    overtime.Sub(tier1),
		})
	}
	return out, nil
}

func positive(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}
