package pay_test

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/pay"
)

// =============================================================================
// PUBLISHED PAY GUIDE FIGURES
// =============================================================================

func TestCalculateShiftPay_PermanentSunday(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: Level 3.1 full-time, Sunday 8:00-16:00 with a 30 minute unpaid break
	s := shift(loc, sunday14, 8, 0, 16, 0, unpaid(loc, sunday14, 12, 0, 12, 30))

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	// THEN: 7.5h at 175% of $28.73 is $377.10 on one line
	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "penalty_sunday", lines[0].Component)
	assertDecimal(t, "7.5", lines[0].Hours)
	assertDecimal(t, "50.28", lines[0].Rate)
	assertDecimal(t, "377.10", lines[0].Amount)
	assertDecimal(t, "377.10", b.Total)
	assertDecimal(t, "7.5", b.PaidHours)
	assert.True(t, b.OvertimeHours.IsZero())
}

func TestCalculateShiftPay_CasualRates(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	tests := []struct {
		name      string
		shift     pay.Shift
		component string
		rate      string
		total     string
	}{
		{
			name:      "weekday ordinary with 25% loading",
			shift:     shift(loc, monday15, 9, 0, 17, 0),
			component: pay.ComponentOrdinary,
			rate:      "35.91",
			total:     "287.28",
		},
		{
			name:      "sunday at 200% plus loading on base",
			shift:     shift(loc, sunday14, 9, 0, 13, 0),
			component: "penalty_sunday",
			rate:      "64.64",
			total:     "258.56",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calc.CalculateShiftPay(tt.shift, casual(catalog.CSLevel3_1))
			require.NoError(t, err)

			line := requireLine(t, b, tt.component)
			assertDecimal(t, tt.rate, line.Rate)
			assertDecimal(t, tt.total, b.Total)
		})
	}
}

func TestCalculateShiftPay_PublicHoliday(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: Christmas Day falls on a Wednesday
	s := pay.Shift{
		Start: time.Date(2024, time.December, 25, 9, 0, 0, 0, loc),
		End:   time.Date(2024, time.December, 25, 17, 0, 0, 0, loc),
	}

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	// THEN: The holiday beats the weekday, 250% of base
	line := requireLine(t, b, "penalty_public_holiday")
	assertDecimal(t, "71.83", line.Rate)
	assertDecimal(t, "574.64", b.Total)
}

func TestCalculateShiftPay_NightShiftCrossesMidnight(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: Monday 20:00 to Tuesday 04:00
	s := shift(loc, monday15, 20, 0, 4, 0)

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	// THEN: Evening loading until 22:00, night loading on both sides of midnight
	evening := requireLine(t, b, "penalty_evening")
	assertDecimal(t, "2", evening.Hours)
	assertDecimal(t, "31.60", evening.Rate)

	night := requireLine(t, b, "penalty_night")
	assertDecimal(t, "6", night.Hours)
	assertDecimal(t, "33.04", night.Rate)

	assertDecimal(t, "261.44", b.Total)

	// AND: Hours are attributed to the calendar day they fall on
	require.Len(t, b.Days, 2)
	assertDecimal(t, "4", b.Days[0].Worked)
	assertDecimal(t, "4", b.Days[1].Worked)
	assert.Equal(t, "2024-07-16", b.Days[1].Date.String())
}

// =============================================================================
// SPLIT SHIFTS
// =============================================================================

func TestCalculateShiftPay_SplitShift(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	tests := []struct {
		name  string
		shift pay.Shift
		split bool
	}{
		{
			name:  "five hour gap",
			shift: shift(loc, monday15, 7, 0, 18, 0, unpaid(loc, monday15, 10, 0, 15, 0)),
			split: true,
		},
		{
			name:  "ninety minute gap",
			shift: shift(loc, monday15, 7, 0, 14, 30, unpaid(loc, monday15, 10, 0, 11, 30)),
			split: true,
		},
		{
			name:  "gap of exactly one hour is a break",
			shift: shift(loc, monday15, 7, 0, 14, 0, unpaid(loc, monday15, 10, 0, 11, 0)),
			split: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calc.CalculateShiftPay(tt.shift, permanent(catalog.CSLevel3_1))
			require.NoError(t, err)

			// Six worked hours at base either way
			ordinary := requireLine(t, b, pay.ComponentOrdinary)
			assertDecimal(t, "6", ordinary.Hours)
			assertDecimal(t, "172.38", ordinary.Amount)

			count := 0
			for _, l := range b.Lines() {
				if l.Component == "allowance_split-shift" {
					count++
					assertDecimal(t, "3.58", l.Amount)
					assert.Equal(t, pay.LineAllowance, l.Kind)
				}
			}
			if tt.split {
				assert.Equal(t, 1, count)
				assertDecimal(t, "175.96", b.Total)
			} else {
				assert.Zero(t, count)
				assertDecimal(t, "172.38", b.Total)
			}
		})
	}
}

// =============================================================================
// OVERTIME
// =============================================================================

func TestCalculateShiftPay_DailyOvertime(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: An 11 hour weekday for a full-timer (8h ordinary day)
	s := shift(loc, monday15, 8, 0, 19, 0)

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	// THEN: The last hour is tier 2, the two before it tier 1
	lines := b.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, pay.ComponentOrdinary, lines[0].Component)
	assertDecimal(t, "8", lines[0].Hours)
	assert.Equal(t, pay.ComponentOvertimeTier1, lines[1].Component)
	assertDecimal(t, "2", lines[1].Hours)
	assertDecimal(t, "43.10", lines[1].Rate)
	assert.Equal(t, pay.ComponentOvertimeTier2, lines[2].Component)
	assertDecimal(t, "1", lines[2].Hours)
	assertDecimal(t, "57.46", lines[2].Rate)

	// AND: Overtime over an hour earns the meal allowance
	assert.Equal(t, "allowance_meal", lines[3].Component)
	assertDecimal(t, "16.73", lines[3].Amount)

	assertDecimal(t, "3", b.OvertimeHours)
	assertDecimal(t, "390.23", b.Total)
}

func TestCalculateShiftPay_WeeklyOvertimeFromPriorHours(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: 34 ordinary hours already worked this week
	s := shift(loc, friday19, 9, 0, 17, 0)
	s.Prior.WeekOrdinary = d("34")

	// WHEN: Calculating an 8h Friday
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	// THEN: Only 4h fit under 38; the rest is overtime
	assertDecimal(t, "4", requireLine(t, b, pay.ComponentOrdinary).Hours)
	assertDecimal(t, "2", requireLine(t, b, pay.ComponentOvertimeTier1).Hours)
	assertDecimal(t, "2", requireLine(t, b, pay.ComponentOvertimeTier2).Hours)
	require.Len(t, b.Days, 1)
	assertDecimal(t, "4", b.Days[0].Ordinary)
	assertDecimal(t, "4", b.Days[0].Overtime)
}

func TestCalculateShiftPay_SundayOvertimeUsesDayMultiplier(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: A 10 hour Sunday
	s := shift(loc, sunday14, 7, 0, 17, 0)

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	// THEN: The two overtime hours are paid at the Sunday overtime multiplier
	line := requireLine(t, b, "overtime_sunday")
	assertDecimal(t, "2", line.Hours)
	assertDecimal(t, "57.46", line.Rate)
	assertDecimal(t, "8", requireLine(t, b, "penalty_sunday").Hours)
}

func TestCalculateShiftPay_CasualOvertimeThreshold(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: A 10 hour weekday; casuals reach overtime after 10h, not 8h
	s := shift(loc, monday15, 7, 0, 17, 0)

	// WHEN: Calculating for a casual
	b, err := calc.CalculateShiftPay(s, casual(catalog.CSLevel3_1))
	require.NoError(t, err)

	// THEN: No overtime
	assert.True(t, b.OvertimeHours.IsZero())
	assertDecimal(t, "359.10", b.Total)
}

// Ordinary plus overtime always equals paid hours, whatever the shift shape.
func TestCalculateShiftPay_HoursAreConserved(t *testing.T) {
	calc, loc := newChildrensCalculator(t)
	rng := rand.New(rand.NewSource(7))

	salaried := permanent(catalog.CSLevel3_1)
	salaried.Override = approvedOverride(award.OverrideAnnualSalary, "57200")
	for i := 0; i < 450; i++ {
		day := 13 + rng.Intn(7)
		start := clock(loc, day, rng.Intn(24), 15*rng.Intn(4))
		length := time.Duration(1+rng.Intn(56)) * 15 * time.Minute
		if i%2 == 0 {
			// clock punches carry seconds
			start = start.Add(time.Duration(rng.Intn(60)) * time.Second)
			length += time.Duration(rng.Intn(60)) * time.Second
		}
		s := pay.Shift{Start: start, End: start.Add(length)}

		var staff award.StaffContext
		switch i % 3 {
		case 0:
			staff = permanent(catalog.CSLevel3_1)
		case 1:
			staff = casual(catalog.CSLevel2_1)
		default:
			// budgets in quarter hours, often smaller than one overtime segment
			staff = salaried
			override := *salaried.Override
			override.Absorption = &award.Absorption{OvertimeHours: decimal.New(int64(25*(1+rng.Intn(8))), -2)}
			staff.Override = &override
			s.Prior.AbsorbedOvertime = decimal.New(int64(25*rng.Intn(3)), -2)
		}
		if length > 4*time.Hour && rng.Intn(2) == 0 {
			breakStart := start.Add(2 * time.Hour)
			s.Breaks = []pay.Break{{Start: breakStart, End: breakStart.Add(time.Duration(1+rng.Intn(8)) * 15 * time.Minute)}}
			if !s.Breaks[0].End.Before(s.End) {
				s.Breaks = nil
			}
		}
		s.Prior.WeekOrdinary = award.Hours(time.Duration(rng.Intn(40)) * time.Hour)

		b, err := calc.CalculateShiftPay(s, staff)
		require.NoError(t, err, "shift %d: %s - %s", i, s.Start, s.End)

		timeHours := d("0")
		for _, l := range b.Lines() {
			if l.Kind == pay.LineTime {
				timeHours = timeHours.Add(l.Hours)
			}
		}
		assertDecimal(t, b.PaidHours.String(), timeHours, "shift %d", i)

		ordinary, overtime := d("0"), d("0")
		for _, day := range b.Days {
			ordinary = ordinary.Add(day.Ordinary)
			overtime = overtime.Add(day.Overtime)
			assertDecimal(t, day.Worked.String(), day.Ordinary.Add(day.Overtime), "shift %d day %s", i, day.Date)
		}
		assertDecimal(t, b.PaidHours.String(), ordinary.Add(overtime), "shift %d", i)
		assertDecimal(t, b.OvertimeHours.String(), overtime, "shift %d", i)

		// Absorption never costs the employee paid hours
		if absorbed, ok := b.Line(pay.ComponentOvertimeAbsorbed); ok {
			assertDecimal(t, b.AbsorbedHours.String(), absorbed.Hours, "shift %d", i)
			assert.True(t, b.AbsorbedHours.LessThanOrEqual(overtime), "shift %d", i)
		}
	}
}

// A weekday daytime shift is paid exactly hours times the award rate.
func TestCalculateShiftPay_WeekdayOrdinaryIsExact(t *testing.T) {
	calc, loc := newChildrensCalculator(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		start := clock(loc, monday15+rng.Intn(5), 7+rng.Intn(3), 15*rng.Intn(4))
		length := time.Duration(1+rng.Intn(32)) * 15 * time.Minute
		s := pay.Shift{Start: start, End: start.Add(length)}

		b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
		require.NoError(t, err)

		hours := award.Hours(length)
		require.Len(t, b.Lines(), 1, "shift %d", i)
		assertDecimal(t, award.RoundMoney(hours.Mul(d("28.73"))).String(), b.Total, "shift %d", i)
	}
}

func TestCalculateShiftPay_ClockOutWithSeconds(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: A clock-out 20 seconds past the 18:00 evening boundary
	s := shift(loc, monday15, 10, 0, 18, 0)
	s.End = s.End.Add(20 * time.Second)

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))

	// THEN: The 20 second tail is priced, not rejected
	require.NoError(t, err)
	assertDecimal(t, "8.0056", b.PaidHours)
	assertDecimal(t, "8", requireLine(t, b, pay.ComponentOrdinary).Hours)
	assertDecimal(t, "0.0056", requireLine(t, b, pay.ComponentOvertimeTier1).Hours)
	assertDecimal(t, "0.0056", b.OvertimeHours)
}

func TestCalculateShiftPay_SubMinuteShift(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: A shift shorter than a minute, starting mid-minute
	start := clock(loc, monday15, 9, 0).Add(10 * time.Second)
	s := pay.Shift{Start: start, End: start.Add(40 * time.Second)}

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))

	// THEN: It is paid as ordinary time
	require.NoError(t, err)
	assertDecimal(t, "0.0111", requireLine(t, b, pay.ComponentOrdinary).Hours)
}

// =============================================================================
// OVERRIDES
// =============================================================================

func approvedOverride(typ award.OverrideType, value string) *award.RateOverride {
	return &award.RateOverride{
		ID:            "ovr-1",
		StaffID:       "staff-1",
		Type:          typ,
		Value:         d(value),
		EffectiveFrom: award.NewDate(2024, 7, 1),
		ApprovedBy:    "payroll-manager",
		ApprovedAt:    time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestCalculateShiftPay_CustomRateReplacesBase(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: An approved custom rate above the award
	staff := permanent(catalog.CSLevel3_1)
	staff.Override = approvedOverride(award.OverrideCustomRate, "32.00")

	// WHEN: Calculating a Sunday shift
	b, err := calc.CalculateShiftPay(shift(loc, sunday14, 9, 0, 13, 0), staff)
	require.NoError(t, err)

	// THEN: Penalties apply to the custom base
	assertDecimal(t, "56.00", requireLine(t, b, "penalty_sunday").Rate)
	assert.Equal(t, award.OverrideID("ovr-1"), b.OverrideID)
}

func TestCalculateShiftPay_OverrideBelowFloor(t *testing.T) {
	calc, loc := newChildrensCalculator(t)
	rng := rand.New(rand.NewSource(3))

	// Any custom rate below $28.73 is rejected, never clamped
	for i := 0; i < 100; i++ {
		cents := 1 + rng.Intn(2000)
		value := d("28.73").Sub(decimal.New(int64(cents), -2))

		staff := permanent(catalog.CSLevel3_1)
		staff.Override = approvedOverride(award.OverrideCustomRate, value.String())

		_, err := calc.CalculateShiftPay(shift(loc, monday15, 9, 0, 17, 0), staff)
		require.Error(t, err)
		assert.True(t, errors.Is(err, award.ErrBelowAwardFloor))

		var floorErr *award.BelowAwardFloorError
		require.True(t, errors.As(err, &floorErr))
		assertDecimal(t, "28.73", floorErr.Floor)
		assertDecimal(t, value.String(), floorErr.Value)
	}
}

func TestCalculateShiftPay_SalaryBelowFloor(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: $50,000 over 38h weeks is about $25.30/hr
	staff := permanent(catalog.CSLevel3_1)
	staff.Override = approvedOverride(award.OverrideAnnualSalary, "50000")

	// WHEN: Calculating
	_, err := calc.CalculateShiftPay(shift(loc, monday15, 9, 0, 17, 0), staff)

	// THEN: Floor error
	assert.True(t, errors.Is(err, award.ErrBelowAwardFloor))
}

func TestCalculateShiftPay_OvertimeAbsorption(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: A salary that absorbs two hours of overtime a week
	staff := permanent(catalog.CSLevel3_1)
	staff.Override = approvedOverride(award.OverrideAnnualSalary, "70000")
	staff.Override.Absorption = &award.Absorption{OvertimeHours: d("2"), Description: "reasonable additional hours"}

	// WHEN: Working an 11 hour day
	b, err := calc.CalculateShiftPay(shift(loc, monday15, 8, 0, 19, 0), staff)
	require.NoError(t, err)

	// THEN: The first two overtime hours are paid at ordinary rate
	absorbed := requireLine(t, b, pay.ComponentOvertimeAbsorbed)
	assertDecimal(t, "2", absorbed.Hours)
	assertDecimal(t, "28.73", absorbed.Rate)
	_, hasTier1 := b.Line(pay.ComponentOvertimeTier1)
	assert.False(t, hasTier1)
	assertDecimal(t, "1", requireLine(t, b, pay.ComponentOvertimeTier2).Hours)

	// AND: The differential is reported outside the total
	assertDecimal(t, "2", b.AbsorbedHours)
	assertDecimal(t, "28.74", b.Absorbed)
	assertDecimal(t, "361.49", b.Total)
}

func TestCalculateShiftPay_AbsorptionBudgetSmallerThanOvertimeSegment(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	// GIVEN: A salary absorbing one hour, against two hours of tier 1 overtime
	staff := permanent(catalog.CSLevel3_1)
	staff.Override = approvedOverride(award.OverrideAnnualSalary, "70000")
	staff.Override.Absorption = &award.Absorption{OvertimeHours: d("1")}

	// WHEN: Working an 11 hour day
	b, err := calc.CalculateShiftPay(shift(loc, monday15, 8, 0, 19, 0), staff)
	require.NoError(t, err)

	// THEN: One hour is absorbed and the rest of that segment stays tier 1
	assertDecimal(t, "1", requireLine(t, b, pay.ComponentOvertimeAbsorbed).Hours)
	tier1 := requireLine(t, b, pay.ComponentOvertimeTier1)
	assertDecimal(t, "1", tier1.Hours)
	assertDecimal(t, "43.10", tier1.Rate)
	assertDecimal(t, "1", requireLine(t, b, pay.ComponentOvertimeTier2).Hours)

	// AND: All eleven hours are still paid
	timeHours := d("0")
	for _, l := range b.Lines() {
		if l.Kind == pay.LineTime {
			timeHours = timeHours.Add(l.Hours)
		}
	}
	assertDecimal(t, "11", timeHours)
	assertDecimal(t, "1", b.AbsorbedHours)
	assertDecimal(t, "14.37", b.Absorbed)
	assertDecimal(t, "375.86", b.Total)
}

func TestCalculateShiftPay_AbsorptionBudgetSpentEarlierInWeek(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	staff := permanent(catalog.CSLevel3_1)
	staff.Override = approvedOverride(award.OverrideAnnualSalary, "70000")
	staff.Override.Absorption = &award.Absorption{OvertimeHours: d("2")}

	// GIVEN: The weekly budget is already used
	s := shift(loc, monday15, 8, 0, 19, 0)
	s.Prior.AbsorbedOvertime = d("2")

	// WHEN: Calculating
	b, err := calc.CalculateShiftPay(s, staff)
	require.NoError(t, err)

	// THEN: Overtime is paid in full
	assert.True(t, b.AbsorbedHours.IsZero())
	assertDecimal(t, "390.23", b.Total)
}

// =============================================================================
// VALIDATION AND CONFIGURATION ERRORS
// =============================================================================

func TestCalculateShiftPay_Errors(t *testing.T) {
	calc, loc := newChildrensCalculator(t)

	unapproved := approvedOverride(award.OverrideCustomRate, "30.00")
	unapproved.ApprovedBy = ""

	tests := []struct {
		name   string
		shift  pay.Shift
		staff  award.StaffContext
		target error
	}{
		{
			name:   "end before start",
			shift:  pay.Shift{Start: clock(loc, monday15, 17, 0), End: clock(loc, monday15, 9, 0)},
			staff:  permanent(catalog.CSLevel3_1),
			target: award.ErrValidation,
		},
		{
			name:   "break outside shift",
			shift:  shift(loc, monday15, 9, 0, 17, 0, unpaid(loc, monday15, 17, 0, 17, 30)),
			staff:  permanent(catalog.CSLevel3_1),
			target: award.ErrValidation,
		},
		{
			name:   "unpaid break covers the shift",
			shift:  shift(loc, monday15, 9, 0, 10, 0, unpaid(loc, monday15, 9, 0, 10, 0)),
			staff:  permanent(catalog.CSLevel3_1),
			target: award.ErrValidation,
		},
		{
			name:   "unknown classification",
			shift:  shift(loc, monday15, 9, 0, 17, 0),
			staff:  permanent("cs-9.9"),
			target: award.ErrConfiguration,
		},
		{
			name: "date before any rate",
			shift: pay.Shift{
				Start: time.Date(2023, time.June, 30, 9, 0, 0, 0, loc),
				End:   time.Date(2023, time.June, 30, 17, 0, 0, 0, loc),
			},
			staff:  permanent(catalog.CSLevel3_1),
			target: award.ErrRateNotFound,
		},
		{
			name:   "missing required qualification",
			shift:  shift(loc, monday15, 9, 0, 17, 0),
			staff:  permanent(catalog.CSLevel4_1),
			target: award.ErrValidation,
		},
		{
			name:   "casual on a permanent-only classification",
			shift:  shift(loc, monday15, 9, 0, 17, 0),
			staff:  award.StaffContext{StaffID: "s", ClassificationID: catalog.CSLevel5_1, EmploymentType: award.Casual, Qualifications: []string{"diploma_ece"}, ExperienceMonths: 24},
			target: award.ErrValidation,
		},
		{
			name:   "unapproved override",
			shift:  shift(loc, monday15, 9, 0, 17, 0),
			staff:  award.StaffContext{StaffID: "staff-1", ClassificationID: catalog.CSLevel3_1, EmploymentType: award.FullTime, Override: unapproved},
			target: award.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calc.CalculateShiftPay(tt.shift, tt.staff)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Empty(t, b.Lines())
		})
	}
}

// =============================================================================
// DETERMINISM AND EXPORT
// =============================================================================

func TestCalculateShiftPay_Deterministic(t *testing.T) {
	calc, loc := newChildrensCalculator(t)
	s := shift(loc, sunday14, 8, 0, 16, 0, unpaid(loc, sunday14, 12, 0, 12, 30))

	first, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)
	second, err := calc.CalculateShiftPay(s, permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Lines(), second.Lines())

	// A different staff member is a different calculation
	other := permanent(catalog.CSLevel3_1)
	other.StaffID = "staff-9"
	third, err := calc.CalculateShiftPay(s, other)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestPayBreakdown_JSON(t *testing.T) {
	calc, loc := newChildrensCalculator(t)
	b, err := calc.CalculateShiftPay(shift(loc, sunday14, 8, 0, 16, 0, unpaid(loc, sunday14, 12, 0, 12, 30)), permanent(catalog.CSLevel3_1))
	require.NoError(t, err)

	// WHEN: Exporting
	data, err := json.Marshal(b)
	require.NoError(t, err)

	// THEN: Figures are fixed-precision strings
	assert.Contains(t, string(data), `"total":"377.10"`)
	assert.Contains(t, string(data), `"rate":"50.2800"`)
	assert.Contains(t, string(data), `"component":"penalty_sunday"`)

	// AND: Reading it back restores the line items
	var back pay.PayBreakdown
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b.ID, back.ID)
	require.Len(t, back.Lines(), 1)
	assertDecimal(t, "377.10", back.Lines()[0].Amount)
	assertDecimal(t, "377.10", back.Total)
}
