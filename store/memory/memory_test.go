package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/store/memory"
)

func TestMemory_AwardVersionsShareRateHistory(t *testing.T) {
	ctx := context.Background()
	m := memory.NewMemory()

	// GIVEN: Version 1 and a later version 2 of the same award
	v1 := catalog.ChildrensServices()
	v2 := catalog.ChildrensServices()
	v2.Award.Version = 2
	v2.Award.EffectiveFrom = award.NewDate(2025, 1, 1)
	v2.Rates = nil

	require.NoError(t, m.SaveAward(ctx, v2))
	require.NoError(t, m.SaveAward(ctx, v1))

	// WHEN: Superseding the Level 3.1 rate
	require.NoError(t, m.SupersedeRate(ctx, v1.Award.ID, award.PayRate{
		ClassificationID: catalog.CSLevel3_1,
		HourlyRate:       decimal.RequireFromString("29.87"),
		EffectiveFrom:    award.NewDate(2025, 7, 1),
	}))

	// THEN: Versions come back oldest first, each with the full history
	lib, err := award.LoadLibrary(ctx, m, v1.Award.ID)
	require.NoError(t, err)
	versions := lib.Versions()
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Award().Version)

	for _, v := range versions {
		rate, err := v.Rates().Resolve(catalog.CSLevel3_1, award.RateOrdinary, award.NewDate(2025, 8, 1))
		require.NoError(t, err)
		assert.Equal(t, "29.87", rate.HourlyRate.String())
		assert.Equal(t, 3, rate.Version)
	}

	// AND: Rewriting an existing version is refused
	assert.True(t, errors.Is(m.SaveAward(ctx, v1), award.ErrConfiguration))
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := memory.NewMemory()

	_, err := m.AwardVersions(ctx, "missing")
	assert.True(t, errors.Is(err, award.ErrAwardNotFound))

	_, err = m.GetStaff(ctx, "nobody")
	assert.True(t, errors.Is(err, award.ErrStaffNotFound))
	assert.True(t, award.IsNotFound(err))
}

func TestMemory_StaffAndOverrides(t *testing.T) {
	ctx := context.Background()
	m := memory.NewMemory()

	staff := award.Staff{ID: "s-1", Name: "Alex", AwardID: "childrens-services", ClassificationID: catalog.CSLevel3_1, EmploymentType: award.FullTime}
	require.NoError(t, m.SaveStaff(ctx, staff))

	later := award.RateOverride{ID: "o-2", StaffID: "s-1", Type: award.OverrideCustomRate, Value: decimal.RequireFromString("31"), EffectiveFrom: award.NewDate(2024, 9, 1), ApprovedBy: "hr"}
	earlier := award.RateOverride{ID: "o-1", StaffID: "s-1", Type: award.OverrideCustomRate, Value: decimal.RequireFromString("30"), EffectiveFrom: award.NewDate(2024, 7, 1), ApprovedBy: "hr"}
	require.NoError(t, m.SaveOverride(ctx, later))
	require.NoError(t, m.SaveOverride(ctx, earlier))
	assert.True(t, errors.Is(m.SaveOverride(ctx, earlier), award.ErrValidation))

	got, err := m.Overrides(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, award.OverrideID("o-1"), got[0].ID)

	sc := staff.Context(got, award.NewDate(2024, 10, 1))
	require.NotNil(t, sc.Override)
	assert.Equal(t, award.OverrideID("o-2"), sc.Override.ID)
}
