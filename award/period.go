package award

import "time"

// =============================================================================
// PERIOD - Pay period used by reconciliation
// =============================================================================

// Period is an inclusive range of calendar days [Start, End].
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.End.Time.Sub(p.Start.Time).Hours()/24) + 1
}

func (p Period) Valid() bool { return !p.End.Before(p.Start) }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodType defines how pay periods are laid out
type PeriodType string

const (
	PeriodWeekly      PeriodType = "weekly"
	PeriodFortnightly PeriodType = "fortnightly"
	PeriodMonthly     PeriodType = "monthly"
)

// PeriodsPerYear is how many pay periods of each type make up a salary year.
func (t PeriodType) PeriodsPerYear() int {
	switch t {
	case PeriodWeekly:
		return 52
	case PeriodFortnightly:
		return 26
	case PeriodMonthly:
		return 12
	default:
		return 0
	}
}

// PeriodConfig anchors pay periods to a calendar.
type PeriodConfig struct {
	Type PeriodType

	// Weekly and fortnightly periods start on this weekday.
	WeekStart time.Weekday

	// Fortnightly periods are counted from this date (must fall on WeekStart).
	Anchor Date
}

// =============================================================================
// PERIOD CALCULATOR - Determines which pay period a date falls into
// =============================================================================

// PeriodFor returns the pay period that contains the given date
func (pc PeriodConfig) PeriodFor(date Date) Period {
	switch pc.Type {
	case PeriodFortnightly:
		return pc.fortnightFor(date)
	case PeriodMonthly:
		start := NewDate(date.Year(), date.Month(), 1)
		return Period{Start: start, End: start.AddMonths(1).AddDays(-1)}
	default:
		start := WeekStartOf(date, pc.WeekStart)
		return Period{Start: start, End: start.AddDays(6)}
	}
}

func (pc PeriodConfig) fortnightFor(date Date) Period {
	anchor := pc.Anchor
	if anchor.IsZero() {
		anchor = WeekStartOf(NewDate(date.Year(), time.January, 1), pc.WeekStart)
	}
	offset := int(date.Time.Sub(anchor.Time).Hours() / 24)
	fortnights := offset / 14
	if offset < 0 && offset%14 != 0 {
		fortnights--
	}
	start := anchor.AddDays(fortnights * 14)
	return Period{Start: start, End: start.AddDays(13)}
}

// NextPeriod returns the pay period following p
func (pc PeriodConfig) NextPeriod(p Period) Period {
	return pc.PeriodFor(p.End.AddDays(1))
}

// WeekStartOf returns the most recent weekStart on or before date.
func WeekStartOf(date Date, weekStart time.Weekday) Date {
	back := (int(date.Weekday()) - int(weekStart) + 7) % 7
	return date.AddDays(-back)
}
