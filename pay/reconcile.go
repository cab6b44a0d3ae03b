/*
reconcile.go - Salary vs award entitlement reconciliation

PURPOSE:
  An annualised salary is only lawful if it pays at least what the award
  would have paid for the hours actually worked. The Reconciler prices every
  shift in a pay period under the award, sums the entitlement and compares it
  with the salary paid.

FLOW:
  1. Sort the period's shifts chronologically
  2. Price each shift, feeding it the week ordinary hours, same-day hours and
     absorbed overtime of the shifts before it
  3. Entitlement = sum of shift totals
  4. CoveredBySalary = salary paid - overtime differential absorbed
  5. Shortfall = max(0, entitlement - covered)

The report never changes pay. A shortfall is for a human to remediate.
*/
package pay

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// ReconciliationInput is one staff member's pay period.
type ReconciliationInput struct {
	Staff      award.StaffContext
	Period     award.Period
	SalaryPaid decimal.Decimal
	Shifts     []Shift
}

// ShiftResult pairs a shift with its award breakdown.
type ShiftResult struct {
	Shift     Shift        `json:"shift"`
	Breakdown PayBreakdown `json:"breakdown"`
}

// ReconciliationReport is the outcome for one staff member and period.
type ReconciliationReport struct {
	StaffID         award.StaffID   `json:"staff_id"`
	Period          award.Period    `json:"period"`
	SalaryPaid      decimal.Decimal `json:"salary_paid"`
	Entitlement     decimal.Decimal `json:"entitlement"`      // award pay for the hours worked
	Absorbed        decimal.Decimal `json:"absorbed"`         // overtime differential covered by the salary
	CoveredBySalary decimal.Decimal `json:"covered_by_salary"` // salary left to cover entitlement after absorption
	Shortfall       decimal.Decimal `json:"shortfall"`        // entitlement not covered; zero when compliant
	Surplus         decimal.Decimal `json:"surplus"`          // salary in excess of entitlement
	Hours           decimal.Decimal `json:"hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	Details         []ShiftResult   `json:"details"`
}

// Compliant returns true when the salary covers the award entitlement.
func (r ReconciliationReport) Compliant() bool { return !r.Shortfall.IsPositive() }

// Reconciler reconciles pay periods against one award snapshot.
type Reconciler struct {
	Calc *Calculator
}

func NewReconciler(calc *Calculator) *Reconciler {
	return &Reconciler{Calc: calc}
}

// Reconcile prices the period's shifts in order and reports any shortfall.
func (r *Reconciler) Reconcile(input ReconciliationInput) (*ReconciliationReport, error) {
	if !input.Period.Valid() {
		return nil, &award.ValidationError{Field: "period", Reason: "end before start"}
	}
	if input.SalaryPaid.IsNegative() {
		return nil, &award.ValidationError{Field: "salary_paid", Reason: "cannot be negative"}
	}

	shifts := append([]Shift(nil), input.Shifts...)
	sort.SliceStable(shifts, func(i, j int) bool { return shifts[i].Start.Before(shifts[j].Start) })

	weekStart := r.Calc.Snapshot().Overtime().For(input.Staff.EmploymentType).WeekStart
	loc := r.Calc.Snapshot().Location()
	carry := newCarry()

	report := &ReconciliationReport{
		StaffID:     input.Staff.StaffID,
		Period:      input.Period,
		SalaryPaid:  input.SalaryPaid,
		Entitlement: decimal.Zero,
		Absorbed:    decimal.Zero,
		Hours:       decimal.Zero,
	}

	for _, s := range shifts {
		date := award.DateOf(s.Start.In(loc))
		if !input.Period.Contains(date) {
			return nil, &award.ValidationError{Field: "shifts", Reason: "shift on " + date.String() + " is outside period " + input.Period.String()}
		}
		week := award.WeekStartOf(date, weekStart)

		s.Prior = carry.prior(week)
		b, err := r.Calc.CalculateShiftPay(s, input.Staff)
		if err != nil {
			return nil, err
		}
		carry.record(week, b)

		report.Entitlement = report.Entitlement.Add(b.Total)
		report.Absorbed = report.Absorbed.Add(b.Absorbed)
		report.Hours = report.Hours.Add(b.PaidHours)
		report.OvertimeHours = report.OvertimeHours.Add(b.OvertimeHours)
		report.Details = append(report.Details, ShiftResult{Shift: s, Breakdown: b})
	}

	report.CoveredBySalary = input.SalaryPaid.Sub(report.Absorbed)
	report.Shortfall = positive(report.Entitlement.Sub(report.CoveredBySalary))
	report.Surplus = positive(report.CoveredBySalary.Sub(report.Entitlement))
	return report, nil
}

// carry accumulates hours between shifts of one reconciliation.
type carry struct {
	weekOrdinary map[string]decimal.Decimal // by week start
	absorbed     map[string]decimal.Decimal // by week start
	days         map[string]DayPrior        // by date
}

func newCarry() *carry {
	return &carry{
		weekOrdinary: make(map[string]decimal.Decimal),
		absorbed:     make(map[string]decimal.Decimal),
		days:         make(map[string]DayPrior),
	}
}

func (c *carry) prior(week award.Date) PriorHours {
	p := PriorHours{
		WeekOrdinary:     c.weekOrdinary[week.String()],
		AbsorbedOvertime: c.absorbed[week.String()],
	}
	for _, d := range c.days {
		if !d.Date.Before(week) {
			p.Days = append(p.Days, d)
		}
	}
	sort.Slice(p.Days, func(i, j int) bool { return p.Days[i].Date.Before(p.Days[j].Date) })
	return p
}

func (c *carry) record(week award.Date, b PayBreakdown) {
	for _, d := range b.Days {
		key := d.Date.String()
		prev := c.days[key]
		c.days[key] = DayPrior{
			Date:     d.Date,
			Worked:   prev.Worked.Add(d.Worked),
			Overtime: prev.Overtime.Add(d.Overtime),
		}
		// Ordinary hours count toward the week the day falls in.
		wk := week
		if d.Date.After(week.AddDays(6)) {
			wk = week.AddDays(7)
		}
		c.weekOrdinary[wk.String()] = c.weekOrdinary[wk.String()].Add(d.Ordinary)
	}
	c.absorbed[week.String()] = c.absorbed[week.String()].Add(b.AbsorbedHours)
}
