package pay_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/pay"
)

func floorRate() award.PayRate {
	return award.PayRate{
		ClassificationID: catalog.CSLevel3_1,
		RateType:         award.RateOrdinary,
		HourlyRate:       d("28.73"),
		EffectiveFrom:    award.NewDate(2024, 7, 1),
		Version:          2,
	}
}

func TestApplyOverride(t *testing.T) {
	july := award.NewDate(2024, 7, 15)
	ended := award.NewDate(2024, 7, 10)

	expired := approvedOverride(award.OverrideCustomRate, "20.00")
	expired.EffectiveTo = &ended

	tests := []struct {
		name     string
		override *award.RateOverride
		want     string
		target   error
	}{
		{name: "no override", override: nil, want: "28.73"},
		{name: "custom rate above floor", override: approvedOverride(award.OverrideCustomRate, "31.50"), want: "31.50"},
		{name: "custom rate equal to floor", override: approvedOverride(award.OverrideCustomRate, "28.73"), want: "28.73"},
		{name: "custom rate below floor", override: approvedOverride(award.OverrideCustomRate, "28.72"), target: award.ErrBelowAwardFloor},
		{name: "salary keeps the award rate", override: approvedOverride(award.OverrideAnnualSalary, "70000"), want: "28.73"},
		{name: "salary below floor", override: approvedOverride(award.OverrideAnnualSalary, "56000"), target: award.ErrBelowAwardFloor},
		{name: "expired override is ignored", override: expired, want: "28.73"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pay.ApplyOverride(floorRate(), july, tt.override, d("38"))
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), "got %v", err)
				return
			}
			require.NoError(t, err)
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestValidateOverride(t *testing.T) {
	snap, err := award.NewSnapshot(catalog.ChildrensServices())
	require.NoError(t, err)
	staff := permanent(catalog.CSLevel3_1)

	t.Run("valid salary with absorption", func(t *testing.T) {
		o := *approvedOverride(award.OverrideAnnualSalary, "70000")
		o.Absorption = &award.Absorption{OvertimeHours: d("3")}
		assert.NoError(t, pay.ValidateOverride(snap, staff, o))
	})

	t.Run("checked against the rate on its effective date", func(t *testing.T) {
		// $28.00 clears the 2023 rate of $27.64 but not the July 2024 rate
		o := *approvedOverride(award.OverrideCustomRate, "28.00")
		o.EffectiveFrom = award.NewDate(2024, 1, 1)
		assert.NoError(t, pay.ValidateOverride(snap, staff, o))

		o.EffectiveFrom = award.NewDate(2024, 7, 1)
		assert.True(t, errors.Is(pay.ValidateOverride(snap, staff, o), award.ErrBelowAwardFloor))
	})

	invalid := map[string]func(o *award.RateOverride){
		"unknown type":       func(o *award.RateOverride) { o.Type = "bonus" },
		"zero value":         func(o *award.RateOverride) { o.Value = d("0") },
		"end before start":   func(o *award.RateOverride) { end := award.NewDate(2024, 6, 1); o.EffectiveTo = &end },
		"someone else's":     func(o *award.RateOverride) { o.StaffID = "staff-7" },
		"empty absorption":   func(o *award.RateOverride) { o.Absorption = &award.Absorption{} },
		"missing start date": func(o *award.RateOverride) { o.EffectiveFrom = award.Date{} },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			o := *approvedOverride(award.OverrideCustomRate, "30.00")
			mutate(&o)
			assert.True(t, errors.Is(pay.ValidateOverride(snap, staff, o), award.ErrValidation))
		})
	}
}
