package factory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/pay"
)

const childrensYAML = `
id: childrens-services
name: Children's Services Award
version: 2
effective_from: "2024-07-01"
time_zone: Australia/Sydney
casual_loading: "0.25"
classifications:
  - {id: cs-3.1, level: "3.1", name: Certificate III qualified educator}
  - id: cs-5.1
    level: "5.1"
    name: Room leader
    employment_types: [full_time, part_time]
    qualifications: [diploma_ece]
    min_experience_months: 12
rates:
  - {classification: cs-3.1, hourly_rate: "27.64", effective_from: "2023-07-01", effective_to: "2024-07-01", version: 1}
  - {classification: cs-3.1, hourly_rate: "28.73", effective_from: "2024-07-01", version: 2}
  - {classification: cs-5.1, hourly_rate: "33.45", effective_from: "2024-07-01"}
penalties:
  - {id: cs-sunday, type: sunday, multiplier: "1.75", loading: replace}
  - {id: cs-night, type: night, multiplier: "1.15", loading: compound, window: {start: "22:00", end: "06:00"}}
  - {id: cs-early, type: early_morning, multiplier: "1.1", loading: compound, window: {start: "06:00", end: "07:00"}, days: [weekday]}
allowances:
  - {id: meal, name: Overtime meal allowance, trigger: overtime_duration, threshold: "1", amount: "16.73", frequency: per_shift, stackable: true}
overtime:
  default:
    daily_hours: "8"
    weekly_hours: "38"
    tier1_hours: "2"
    tier1_multiplier: "1.5"
    tier2_multiplier: "2.0"
    day_multipliers: {sunday: "2.0"}
  by_employment_type:
    casual: {daily_hours: "10", weekly_hours: "38", tier1_hours: "2", tier1_multiplier: "1.5", tier2_multiplier: "2.0", week_start: sunday}
  casual_loading_on_overtime: true
holidays:
  - {date: "2024-12-25", name: Christmas Day, recurring: true}
`

func TestAwardFactory_ParseYAML(t *testing.T) {
	f := factory.NewAwardFactory()

	def, err := f.ParseYAML([]byte(childrensYAML))
	require.NoError(t, err)

	assert.Equal(t, award.AwardID("childrens-services"), def.Award.ID)
	assert.Equal(t, 2, def.Award.Version)
	assert.Equal(t, award.NewDate(2024, 7, 1), def.Award.EffectiveFrom)
	assert.Equal(t, "0.25", def.CasualLoading.String())

	require.Len(t, def.Classifications, 2)
	assert.Equal(t, []award.EmploymentType{award.FullTime, award.PartTime}, def.Classifications[1].EmploymentTypes)
	assert.Equal(t, 12, def.Classifications[1].MinExperienceMonths)

	require.Len(t, def.Rates, 3)
	require.NotNil(t, def.Rates[0].EffectiveTo)
	assert.Equal(t, award.NewDate(2024, 7, 1), *def.Rates[0].EffectiveTo)
	assert.Nil(t, def.Rates[1].EffectiveTo)
	assert.Equal(t, award.RateOrdinary, def.Rates[2].RateType)

	night := def.Penalties[1]
	require.NotNil(t, night.Window)
	assert.True(t, night.Window.Wraps())
	assert.Equal(t, []award.DayType{award.DayWeekday}, def.Penalties[2].Days)

	assert.Equal(t, time.Monday, def.Overtime.Default.WeekStart)
	assert.Equal(t, "2", def.Overtime.Default.DayMultipliers[award.DaySunday].String())
	assert.Equal(t, time.Sunday, def.Overtime.For(award.Casual).WeekStart)
	assert.True(t, def.Overtime.CasualLoadingOnOvertime)

	require.Len(t, def.Holidays, 1)
	assert.True(t, def.Holidays.IsHoliday(award.NewDate(2030, 12, 25)))

	// THEN: The parsed definition builds a valid snapshot
	_, err = award.NewSnapshot(def)
	require.NoError(t, err)
}

func TestAwardFactory_ParseJSON(t *testing.T) {
	f := factory.NewAwardFactory()

	def, err := f.ParseFile("retail.json", []byte(`{
		"id": "shop",
		"name": "Shop Award",
		"version": 1,
		"effective_from": "2024-07-01",
		"classifications": [{"id": "l1", "name": "Level 1"}],
		"rates": [{"classification": "l1", "hourly_rate": "26.55", "effective_from": "2024-07-01"}],
		"overtime": {"default": {"daily_hours": "9", "weekly_hours": "38", "tier1_multiplier": "1.5", "tier2_multiplier": "2"}}
	}`))
	require.NoError(t, err)

	assert.Equal(t, award.AwardID("shop"), def.Award.ID)
	assert.True(t, def.Overtime.Default.Tier1Hours.IsZero())
	assert.Zero(t, def.SplitShiftGap)

	snap, err := award.NewSnapshot(def)
	require.NoError(t, err)
	floor, err := snap.Floor("l1", award.NewDate(2024, 8, 1))
	require.NoError(t, err)
	assert.Equal(t, "26.55", floor.String())
}

func TestAwardFactory_RoundTripPreservesPay(t *testing.T) {
	f := factory.NewAwardFactory()
	original := catalog.ChildrensServices()

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			// GIVEN: The preset written out as a document and read back
			var data []byte
			var err error
			if format == "json" {
				data, err = f.ToJSON(original)
			} else {
				data, err = f.ToYAML(original)
			}
			require.NoError(t, err)

			parsed, err := f.ParseFile("award."+format, data)
			require.NoError(t, err)

			// THEN: The document is canonical
			assert.Equal(t, f.ToDocument(original), f.ToDocument(parsed))

			// AND: Both definitions price a shift identically
			want := priceSunday(t, original)
			got := priceSunday(t, parsed)
			assert.True(t, want.Equal(got), "want %s got %s", want, got)
		})
	}
}

func priceSunday(t *testing.T, def award.Definition) decimal.Decimal {
	t.Helper()
	snap, err := award.NewSnapshot(def)
	require.NoError(t, err)
	loc := snap.Location()

	b, err := pay.NewCalculator(snap).CalculateShiftPay(pay.Shift{
		Start: time.Date(2024, 7, 14, 8, 0, 0, 0, loc),
		End:   time.Date(2024, 7, 14, 16, 0, 0, 0, loc),
		Breaks: []pay.Break{{
			Start: time.Date(2024, 7, 14, 12, 0, 0, 0, loc),
			End:   time.Date(2024, 7, 14, 12, 30, 0, 0, loc),
		}},
	}, award.StaffContext{StaffID: "s", ClassificationID: catalog.CSLevel3_1, EmploymentType: award.FullTime})
	require.NoError(t, err)
	return b.Total
}

func TestAwardFactory_Errors(t *testing.T) {
	f := factory.NewAwardFactory()

	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"not yaml", "id: [unclosed", "award document"},
		{"missing id", `{version: 1, effective_from: "2024-07-01"}`, "id"},
		{"bad date", `{id: a, version: 1, effective_from: "01/07/2024"}`, "effective_from"},
		{"bad multiplier", `{id: a, version: 1, effective_from: "2024-07-01", penalties: [{id: p, type: sunday, multiplier: lots, loading: replace}]}`, "penalties[0].multiplier"},
		{"bad clock", `{id: a, version: 1, effective_from: "2024-07-01", penalties: [{id: p, type: night, multiplier: "1.1", loading: compound, window: {start: "25:00", end: "06:00"}}]}`, "penalties[0].window.start"},
		{"bad employment type", `{id: a, version: 1, effective_from: "2024-07-01", classifications: [{id: c, name: C, employment_types: [contractor]}]}`, "classifications[0].employment_types"},
		{"bad weekday", `{id: a, version: 1, effective_from: "2024-07-01", overtime: {default: {daily_hours: "8", weekly_hours: "38", tier1_multiplier: "1.5", tier2_multiplier: "2", week_start: funday}}}`, "overtime.default.week_start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, award.ErrValidation))

			var ve *award.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
