package pay

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// breakdownNamespace seeds deterministic breakdown ids.
var breakdownNamespace = uuid.MustParse("6f1c2a4e-8d3b-4a7e-9c21-4b0f7d3e5a19")

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator prices shifts against one immutable award snapshot. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	snap *award.Snapshot
}

func NewCalculator(snap *award.Snapshot) *Calculator {
	return &Calculator{snap: snap}
}

func (c *Calculator) Snapshot() *award.Snapshot { return c.snap }

// pricedSegment is a segment with its line component and hourly rate.
type pricedSegment struct {
	Segment
	component string
	rate      decimal.Decimal // effective hourly rate, cent-rounded
	base      decimal.Decimal // base rate after any override
	ordinary  decimal.Decimal // base plus casual loading, cent-rounded
	overtime  bool
}

// CalculateShiftPay computes the itemised pay for one shift.
//
// Configuration errors (missing rate, malformed rule) and validation errors
// abort the calculation; no partial breakdown is ever returned.
func (c *Calculator) CalculateShiftPay(shift Shift, staff award.StaffContext) (PayBreakdown, error) {
	if err := validateShift(shift); err != nil {
		return PayBreakdown{}, err
	}
	if err := c.checkStaff(staff); err != nil {
		return PayBreakdown{}, err
	}

	segs, facts := segmentShift(shift, c.snap)
	if len(segs) == 0 {
		return PayBreakdown{}, &award.ValidationError{Field: "breaks", Reason: "shift has no worked time"}
	}

	thresholds := c.snap.Overtime().For(staff.EmploymentType)
	loading := decimal.Zero
	if staff.EmploymentType == award.Casual {
		loading = c.snap.CasualLoading()
	}

	// Price every segment at its ordinary or penalty rate.
	priced := make([]pricedSegment, 0, len(segs))
	for _, s := range segs {
		base, err := c.baseRate(staff, s.Date, thresholds.WeeklyHours)
		if err != nil {
			return PayBreakdown{}, err
		}
		matches, err := ResolvePenalties(SegmentContext{
			DayType:        s.DayType,
			From:           s.From,
			To:             s.To,
			EmploymentType: staff.EmploymentType,
		}, c.snap.Penalties())
		if err != nil {
			return PayBreakdown{}, c.withContext(err, staff, s.Date)
		}
		priced = append(priced, pricedSegment{
			Segment:   s,
			component: penaltyComponent(matches),
			rate:      hourlyRate(base, EffectiveMultiplier(matches), loading),
			base:      base,
			ordinary:  hourlyRate(base, award.One, loading),
		})
	}

	// Overtime by calendar day.
	allocs, err := AllocateOvertime(dayHours(priced, shift.Prior), shift.Prior.WeekOrdinary, thresholds)
	if err != nil {
		return PayBreakdown{}, c.withContext(err, staff, facts.Date)
	}
	otLoading := decimal.Zero
	if c.snap.Overtime().CasualLoadingOnOvertime {
		otLoading = loading
	}
	priced = repriceOvertime(priced, allocs, thresholds, otLoading)

	// Absorption happens after allocation, against the override active on the shift date.
	var active *award.RateOverride
	if staff.Override != nil && staff.Override.ActiveOn(facts.Date) {
		active = staff.Override
	}
	priced, absorbedHours, absorbed := absorbOvertime(priced, absorptionBudget(active, shift.Prior))

	overtimeHours := decimal.Zero
	days := make([]DayTotals, 0, len(allocs))
	for _, a := range allocs {
		overtimeHours = overtimeHours.Add(a.Overtime())
		days = append(days, DayTotals{Date: a.Date, Worked: a.Worked, Ordinary: a.Ordinary, Overtime: a.Overtime()})
	}
	facts.OvertimeHours = overtimeHours

	allowances, err := EvaluateAllowances(facts, staff, c.snap.Allowances())
	if err != nil {
		return PayBreakdown{}, c.withContext(err, staff, facts.Date)
	}

	lb := newLineBuilder()
	for _, p := range priced {
		lb.addTime(p.component, p.Hours, p.rate)
	}
	for _, a := range allowances {
		lb.addAllowance(a)
	}
	lines, total := lb.build()

	a := c.snap.Award()
	b := PayBreakdown{
		AwardID:          a.ID,
		AwardVersion:     a.Version,
		StaffID:          staff.StaffID,
		ClassificationID: staff.ClassificationID,
		EmploymentType:   staff.EmploymentType,
		ShiftID:          shift.ID,
		Start:            shift.Start,
		End:              shift.End,
		PaidHours:        facts.PaidHours,
		OvertimeHours:    overtimeHours,
		AbsorbedHours:    absorbedHours,
		Absorbed:         award.RoundMoney(absorbed),
		Total:            total,
		Days:             days,
		lines:            lines,
	}
	if active != nil {
		b.OverrideID = active.ID
	}
	b.ID = breakdownID(a, shift, staff)
	return b, nil
}

// checkStaff validates the staff context against the classification.
func (c *Calculator) checkStaff(staff award.StaffContext) error {
	if !staff.EmploymentType.Valid() {
		return &award.ValidationError{Field: "employment_type", Reason: fmt.Sprintf("unknown employment type %q", staff.EmploymentType)}
	}
	class, err := c.snap.Classification(staff.ClassificationID)
	if err != nil {
		return err
	}
	if !class.Allows(staff.EmploymentType) {
		return &award.ValidationError{Field: "employment_type", Reason: fmt.Sprintf("classification %s does not engage %s employees", class.ID, staff.EmploymentType)}
	}
	for _, q := range class.Qualifications {
		if !staff.HasQualification(q) {
			return &award.ValidationError{Field: "qualifications", Reason: fmt.Sprintf("classification %s requires %q", class.ID, q)}
		}
	}
	if staff.ExperienceMonths < class.MinExperienceMonths {
		return &award.ValidationError{Field: "experience", Reason: fmt.Sprintf("classification %s requires %d months experience", class.ID, class.MinExperienceMonths)}
	}
	if o := staff.Override; o != nil {
		if o.StaffID != "" && staff.StaffID != "" && o.StaffID != staff.StaffID {
			return &award.ValidationError{Field: "override", Reason: "override belongs to another staff member"}
		}
		if !o.Approved() {
			return &award.ValidationError{Field: "override", Reason: "override " + string(o.ID) + " is not approved"}
		}
	}
	return nil
}

// baseRate resolves the award rate for a day and applies the override.
func (c *Calculator) baseRate(staff award.StaffContext, date award.Date, weeklyHours decimal.Decimal) (decimal.Decimal, error) {
	floor, err := c.snap.Rates().Resolve(staff.ClassificationID, award.RateOrdinary, date)
	if err != nil {
		return decimal.Zero, err
	}
	return ApplyOverride(floor, date, staff.Override, weeklyHours)
}

// withContext attaches award and classification ids to configuration errors
// raised by the pure helpers.
func (c *Calculator) withContext(err error, staff award.StaffContext, date award.Date) error {
	ce, ok := err.(*award.ConfigurationError)
	if !ok {
		return err
	}
	cp := *ce
	if cp.AwardID == "" {
		cp.AwardID = c.snap.Award().ID
	}
	if cp.ClassificationID == "" {
		cp.ClassificationID = staff.ClassificationID
	}
	if cp.Date.IsZero() {
		cp.Date = date
	}
	return &cp
}

// hourlyRate composes base, penalty multiplier and casual loading. The
// loading is a share of the base added beside the multiplier, never
// multiplied by it. The result is rounded to the cent.
func hourlyRate(base, multiplier, loading decimal.Decimal) decimal.Decimal {
	return award.RoundMoney(base.Mul(multiplier).Add(base.Mul(loading)))
}

// =============================================================================
// OVERTIME RE-PRICING
// =============================================================================

// dayHours aggregates priced segments per calendar day.
func dayHours(priced []pricedSegment, prior PriorHours) []DayHours {
	var out []DayHours
	index := make(map[string]int)
	for _, p := range priced {
		key := p.Date.String()
		i, ok := index[key]
		if !ok {
			dp := prior.day(p.Date)
			index[key] = len(out)
			out = append(out, DayHours{
				Date:          p.Date,
				DayType:       p.DayType,
				PriorWorked:   dp.Worked,
				PriorOvertime: dp.Overtime,
			})
			i = len(out) - 1
		}
		out[i].Worked = out[i].Worked.Add(p.Hours)
	}
	return out
}

type tierHours struct{ tier1, tier2 decimal.Decimal }

// repriceOvertime moves the latest hours of each day into overtime lines.
// Walking backwards, the last Tier2 hours go to tier 2 and the Tier1 hours
// before them to tier 1. Segments are split where a tier starts mid-segment.
func repriceOvertime(priced []pricedSegment, allocs []DayAllocation, t award.OvertimeThresholds, loading decimal.Decimal) []pricedSegment {
	remaining := make(map[string]*tierHours, len(allocs))
	for _, a := range allocs {
		remaining[a.Date.String()] = &tierHours{tier1: a.Tier1, tier2: a.Tier2}
	}

	var reversed []pricedSegment
	for i := len(priced) - 1; i >= 0; i-- {
		p := priced[i]
		rem := remaining[p.Date.String()]
		for rem != nil && p.Hours.IsPositive() {
			tier, need := 2, &rem.tier2
			if !need.IsPositive() {
				tier, need = 1, &rem.tier1
			}
			if !need.IsPositive() {
				break
			}

			take := decimal.Min(*need, p.Hours)
			ot := p
			if take.Equal(p.Hours) {
				p.Hours = decimal.Zero
			} else {
				head, tail := splitSegment(p.Segment, take)
				p.Segment = head
				ot.Segment = tail
			}
			ot.overtime = true
			ot.rate = hourlyRate(p.base, t.MultiplierFor(tier, p.DayType), loading)
			ot.component = overtimeComponent(tier, p.DayType, t)
			reversed = append(reversed, ot)
			*need = need.Sub(take)
		}
		if p.Hours.IsPositive() {
			reversed = append(reversed, p)
		}
	}

	out := make([]pricedSegment, len(reversed))
	for i, p := range reversed {
		out[len(reversed)-1-i] = p
	}
	return out
}

func overtimeComponent(tier int, day award.DayType, t award.OvertimeThresholds) string {
	if _, ok := t.DayMultipliers[day]; ok {
		return overtimePrefix + string(day)
	}
	if tier == 1 {
		return ComponentOvertimeTier1
	}
	return ComponentOvertimeTier2
}

// absorbOvertime re-prices the first budget overtime hours of the shift at the
// ordinary rate. It returns the absorbed hours and the differential removed.
func absorbOvertime(priced []pricedSegment, budget decimal.Decimal) ([]pricedSegment, decimal.Decimal, decimal.Decimal) {
	hours, money := decimal.Zero, decimal.Zero
	if !budget.IsPositive() {
		return priced, hours, money
	}

	out := make([]pricedSegment, 0, len(priced)+1)
	for _, p := range priced {
		if !p.overtime || !budget.IsPositive() {
			out = append(out, p)
			continue
		}
		take := decimal.Min(budget, p.Hours)
		partial := take.LessThan(p.Hours)
		absorbed := p
		if partial {
			head, tail := splitSegment(p.Segment, p.Hours.Sub(take))
			absorbed.Segment = head
			p.Segment = tail
		}
		absorbed.component = ComponentOvertimeAbsorbed
		absorbed.rate = p.ordinary
		absorbed.overtime = false
		out = append(out, absorbed)
		if partial {
			// the rest of the segment stays overtime
			out = append(out, p)
		}

		hours = hours.Add(take)
		money = money.Add(take.Mul(p.rate.Sub(p.ordinary)))
		budget = budget.Sub(take)
	}
	return out, hours, money
}

// =============================================================================
// DETERMINISTIC ID
// =============================================================================

func breakdownID(a award.Award, shift Shift, staff award.StaffContext) uuid.UUID {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%d|%s|%s|%s|", a.ID, a.Version, staff.StaffID, staff.ClassificationID, staff.EmploymentType)
	fmt.Fprintf(&sb, "%s|%s|%s|", shift.ID, shift.Start.UTC().Format(time.RFC3339Nano), shift.End.UTC().Format(time.RFC3339Nano))
	for _, b := range sortedBreaks(shift.Breaks) {
		fmt.Fprintf(&sb, "b%s-%s-%t|", b.Start.UTC().Format(time.RFC3339Nano), b.End.UTC().Format(time.RFC3339Nano), b.Paid)
	}
	fmt.Fprintf(&sb, "w%s|a%s|", shift.Prior.WeekOrdinary.String(), shift.Prior.AbsorbedOvertime.String())
	for _, d := range shift.Prior.Days {
		fmt.Fprintf(&sb, "d%s-%s-%s|", d.Date, d.Worked.String(), d.Overtime.String())
	}
	if o := staff.Override; o != nil {
		fmt.Fprintf(&sb, "o%s-%s-%s", o.ID, o.Type, o.Value.String())
	}
	for _, q := range staff.Qualifications {
		fmt.Fprintf(&sb, "|q%s", q)
	}
	for _, d := range staff.Designations {
		fmt.Fprintf(&sb, "|g%s", d)
	}
	return uuid.NewSHA1(breakdownNamespace, []byte(sb.String()))
}
