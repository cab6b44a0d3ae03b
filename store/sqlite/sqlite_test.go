package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/pay"
	"github.com/warp/award-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sydney(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	return loc
}

func TestStore_AwardRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN: The children's services preset is saved
	def := catalog.ChildrensServices()
	require.NoError(t, store.SaveAward(ctx, def))

	// WHEN: Loading it back as a library
	lib, err := award.LoadLibrary(ctx, store, def.Award.ID)
	require.NoError(t, err)

	// THEN: The stored version prices exactly like the preset
	snap := lib.Latest()
	assert.Equal(t, def.Award.Name, snap.Award().Name)
	assert.Len(t, snap.Penalties(), len(def.Penalties))
	assert.Len(t, snap.Allowances(), len(def.Allowances))

	loc := snap.Location()
	b, err := pay.NewCalculator(snap).CalculateShiftPay(pay.Shift{
		Start:  time.Date(2024, 7, 14, 8, 0, 0, 0, loc),
		End:    time.Date(2024, 7, 14, 16, 0, 0, 0, loc),
		Breaks: []pay.Break{{Start: time.Date(2024, 7, 14, 12, 0, 0, 0, loc), End: time.Date(2024, 7, 14, 12, 30, 0, 0, loc)}},
	}, award.StaffContext{StaffID: "s", ClassificationID: catalog.CSLevel3_1, EmploymentType: award.FullTime})
	require.NoError(t, err)
	assert.Equal(t, "377.10", b.Total.StringFixed(2))

	awards, err := store.ListAwards(ctx)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.Equal(t, def.Award.ID, awards[0].ID)
}

func TestStore_AwardVersionsShareRateHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN: Version 1 and a later version 2 without its own rates
	v1 := catalog.ChildrensServices()
	v2 := catalog.ChildrensServices()
	v2.Award.Version = 2
	v2.Award.EffectiveFrom = award.NewDate(2025, 1, 1)
	v2.Rates = nil

	require.NoError(t, store.SaveAward(ctx, v1))
	require.NoError(t, store.SaveAward(ctx, v2))

	// WHEN: The FWC review supersedes the Level 3.1 rate
	require.NoError(t, store.SupersedeRate(ctx, v1.Award.ID, award.PayRate{
		ClassificationID: catalog.CSLevel3_1,
		HourlyRate:       decimal.RequireFromString("29.87"),
		EffectiveFrom:    award.NewDate(2025, 7, 1),
	}))

	// THEN: Both versions see the whole history
	versions, err := store.AwardVersions(ctx, v1.Award.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Award.Version)

	lib, err := award.BuildLibrary(versions)
	require.NoError(t, err)
	for _, v := range lib.Versions() {
		old, err := v.Rates().Resolve(catalog.CSLevel3_1, award.RateOrdinary, award.NewDate(2025, 6, 30))
		require.NoError(t, err)
		assert.Equal(t, "28.73", old.HourlyRate.String())
		require.NotNil(t, old.EffectiveTo)
		assert.Equal(t, award.NewDate(2025, 7, 1), *old.EffectiveTo)

		current, err := v.Rates().Resolve(catalog.CSLevel3_1, award.RateOrdinary, award.NewDate(2025, 8, 1))
		require.NoError(t, err)
		assert.Equal(t, "29.87", current.HourlyRate.String())
		assert.Equal(t, 3, current.Version)
	}

	// AND: Rewriting a version is refused
	assert.True(t, errors.Is(store.SaveAward(ctx, v1), award.ErrConfiguration))

	// AND: A supersede that starts before the current row is refused
	err = store.SupersedeRate(ctx, v1.Award.ID, award.PayRate{
		ClassificationID: catalog.CSLevel3_1,
		HourlyRate:       decimal.RequireFromString("30"),
		EffectiveFrom:    award.NewDate(2025, 1, 1),
	})
	assert.True(t, errors.Is(err, award.ErrConfiguration))
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.AwardVersions(ctx, "missing")
	assert.True(t, errors.Is(err, award.ErrAwardNotFound))

	err = store.SupersedeRate(ctx, "missing", award.PayRate{ClassificationID: "x", HourlyRate: decimal.NewFromInt(30), EffectiveFrom: award.NewDate(2025, 7, 1)})
	assert.True(t, errors.Is(err, award.ErrAwardNotFound))

	_, err = store.GetStaff(ctx, "nobody")
	assert.True(t, errors.Is(err, award.ErrStaffNotFound))

	_, err = store.GetBreakdown(ctx, uuid.New())
	assert.True(t, errors.Is(err, award.ErrBreakdownNotFound))

	_, err = store.GetRun(ctx, uuid.New())
	assert.True(t, errors.Is(err, award.ErrRunNotFound))
	assert.True(t, award.IsNotFound(err))
}

func TestStore_StaffAndOverrides(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	staff := award.Staff{
		ID: "s-1", Name: "Alex", AwardID: "childrens-services",
		ClassificationID: catalog.CSLevel3_1, EmploymentType: award.FullTime,
		Designations: []string{"first_aid_officer"},
	}
	require.NoError(t, store.SaveStaff(ctx, staff))

	// WHEN: The staff member is promoted
	staff.ClassificationID = catalog.CSLevel4_1
	staff.Qualifications = []string{"diploma_ece"}
	require.NoError(t, store.SaveStaff(ctx, staff))

	got, err := store.GetStaff(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.CSLevel4_1, got.ClassificationID)
	assert.Equal(t, []string{"diploma_ece"}, got.Qualifications)
	assert.Equal(t, []string{"first_aid_officer"}, got.Designations)

	all, err := store.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Overrides come back by effective date whatever the insert order
	approvedAt := time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC)
	end := award.NewDate(2025, 7, 1)
	salary := award.RateOverride{
		ID: "o-2", StaffID: "s-1", Type: award.OverrideAnnualSalary, Value: decimal.RequireFromString("70000"),
		EffectiveFrom: award.NewDate(2024, 9, 1), EffectiveTo: &end,
		Absorption: &award.Absorption{OvertimeHours: decimal.RequireFromString("2"), Description: "reasonable additional hours"},
		ApprovedBy: "hr", ApprovedAt: approvedAt,
	}
	custom := award.RateOverride{
		ID: "o-1", StaffID: "s-1", Type: award.OverrideCustomRate, Value: decimal.RequireFromString("31.50"),
		EffectiveFrom: award.NewDate(2024, 7, 1), ApprovedBy: "hr",
	}
	require.NoError(t, store.SaveOverride(ctx, salary))
	require.NoError(t, store.SaveOverride(ctx, custom))
	assert.True(t, errors.Is(store.SaveOverride(ctx, custom), award.ErrValidation))

	overrides, err := store.Overrides(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.Equal(t, award.OverrideID("o-1"), overrides[0].ID)
	assert.Nil(t, overrides[0].EffectiveTo)
	assert.Nil(t, overrides[0].Absorption)
	assert.Equal(t, "31.5", overrides[0].Value.String())

	stored := overrides[1]
	require.NotNil(t, stored.EffectiveTo)
	assert.Equal(t, end, *stored.EffectiveTo)
	require.NotNil(t, stored.Absorption)
	assert.Equal(t, "2", stored.Absorption.OvertimeHours.String())
	assert.True(t, approvedAt.Equal(stored.ApprovedAt))
	assert.True(t, stored.Approved())

	sc := got.Context(overrides, award.NewDate(2024, 10, 1))
	require.NotNil(t, sc.Override)
	assert.Equal(t, award.OverrideID("o-2"), sc.Override.ID)
}

func TestStore_Timesheet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	loc := sydney(t)

	at := func(day, hour int) time.Time { return time.Date(2024, 7, day, hour, 0, 0, 0, loc) }
	shifts := []pay.Shift{
		{ID: "wed", Start: at(17, 9), End: at(17, 17)},
		{ID: "mon", Start: at(15, 9), End: at(15, 17), Breaks: []pay.Break{{Start: at(15, 12), End: at(15, 13)}}},
		{ID: "next-week", Start: at(22, 9), End: at(22, 17)},
	}
	for _, s := range shifts {
		require.NoError(t, store.SaveShift(ctx, "s-1", s))
	}

	// WHEN: Monday's shift is corrected
	corrected := shifts[1]
	corrected.End = at(15, 18)
	require.NoError(t, store.SaveShift(ctx, "s-1", corrected))

	got, err := store.ShiftsInRange(ctx, "s-1", award.NewDate(2024, 7, 15), award.NewDate(2024, 7, 21))
	require.NoError(t, err)

	// THEN: One row per shift id, ordered by start, inside the range
	require.Len(t, got, 2)
	assert.Equal(t, "mon", got[0].ID)
	assert.True(t, got[0].End.Equal(at(15, 18)))
	require.Len(t, got[0].Breaks, 1)
	assert.Equal(t, "wed", got[1].ID)

	other, err := store.ShiftsInRange(ctx, "s-2", award.NewDate(2024, 7, 1), award.NewDate(2024, 7, 31))
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.True(t, errors.Is(store.SaveShift(ctx, "s-1", pay.Shift{Start: at(16, 9), End: at(16, 17)}), award.ErrValidation))
}

func calculate(t *testing.T, day int, staffID award.StaffID) pay.PayBreakdown {
	t.Helper()
	snap, err := award.NewSnapshot(catalog.ChildrensServices())
	require.NoError(t, err)
	loc := snap.Location()
	b, err := pay.NewCalculator(snap).CalculateShiftPay(pay.Shift{
		ID:    "shift",
		Start: time.Date(2024, 7, day, 9, 0, 0, 0, loc),
		End:   time.Date(2024, 7, day, 17, 0, 0, 0, loc),
	}, award.StaffContext{StaffID: staffID, ClassificationID: catalog.CSLevel3_1, EmploymentType: award.FullTime})
	require.NoError(t, err)
	return b
}

func TestStore_BreakdownsAreAppendOnly(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	mon := pay.BreakdownRecord{Breakdown: calculate(t, 15, "s-1"), Source: "calculate", RecordedAt: time.Now()}
	tue := pay.BreakdownRecord{Breakdown: calculate(t, 16, "s-1"), Source: "calculate"}
	other := pay.BreakdownRecord{Breakdown: calculate(t, 16, "s-2"), Source: "simulate"}

	require.NoError(t, store.AppendBreakdown(ctx, tue))
	assert.True(t, errors.Is(store.AppendBreakdown(ctx, tue), award.ErrDuplicateBreakdown))

	// WHEN: A batch contains an already recorded breakdown
	err := store.AppendBreakdowns(ctx, []pay.BreakdownRecord{mon, tue})

	// THEN: Nothing from the batch is written
	assert.True(t, errors.Is(err, award.ErrDuplicateBreakdown))
	exists, err := store.BreakdownExists(ctx, mon.Breakdown.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.AppendBreakdowns(ctx, []pay.BreakdownRecord{mon, other}))

	// Records read back exactly as written
	got, err := store.GetBreakdown(ctx, mon.Breakdown.ID)
	require.NoError(t, err)
	assert.Equal(t, "calculate", got.Source)
	assert.Equal(t, mon.Breakdown.Total.StringFixed(2), got.Breakdown.Total.StringFixed(2))
	assert.Equal(t, len(mon.Breakdown.Lines()), len(got.Breakdown.Lines()))

	// Filters and ordering
	all, err := store.ListBreakdowns(ctx, pay.BreakdownFilter{StaffID: "s-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, mon.Breakdown.ID, all[0].Breakdown.ID)

	from := award.NewDate(2024, 7, 16)
	later, err := store.ListBreakdowns(ctx, pay.BreakdownFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, later, 2)

	limited, err := store.ListBreakdowns(ctx, pay.BreakdownFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, mon.Breakdown.ID, limited[0].Breakdown.ID)
}

func TestStore_ReconciliationRuns(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	week := award.Period{Start: award.NewDate(2024, 7, 15), End: award.NewDate(2024, 7, 21)}
	b := calculate(t, 15, "s-1")
	run := pay.RunRecord{
		ID:      uuid.New(),
		AwardID: "childrens-services",
		StaffID: "s-1",
		Period:  week,
		Report: pay.ReconciliationReport{
			StaffID:     "s-1",
			Period:      week,
			SalaryPaid:  decimal.RequireFromString("200"),
			Entitlement: b.Total,
			Shortfall:   b.Total.Sub(decimal.RequireFromString("200")),
			Hours:       b.PaidHours,
			Details:     []pay.ShiftResult{{Shift: pay.Shift{ID: "shift", Start: b.Start, End: b.End}, Breakdown: b}},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SaveRun(ctx, run))
	assert.True(t, errors.Is(store.SaveRun(ctx, run), award.ErrValidation))

	exists, err := store.RunExists(ctx, "s-1", week)
	require.NoError(t, err)
	assert.True(t, exists)

	next := award.Period{Start: week.Start.AddDays(7), End: week.End.AddDays(7)}
	exists, err = store.RunExists(ctx, "s-1", next)
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, week, got.Period)
	assert.True(t, run.Report.Shortfall.Equal(got.Report.Shortfall))
	require.Len(t, got.Report.Details, 1)
	assert.Equal(t, b.ID, got.Report.Details[0].Breakdown.ID)

	runs, err := store.ListRuns(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	none, err := store.ListRuns(ctx, "s-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
