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

func applied(list []pay.AppliedAllowance) map[award.RuleID]pay.AppliedAllowance {
	out := make(map[award.RuleID]pay.AppliedAllowance, len(list))
	for _, a := range list {
		out[a.Rule.ID] = a
	}
	return out
}

func TestEvaluateAllowances_ChildrensServices(t *testing.T) {
	rules := catalog.ChildrensServices().Allowances

	tests := []struct {
		name  string
		facts pay.ShiftFacts
		staff award.StaffContext
		want  map[award.RuleID]string // rule -> amount
	}{
		{
			name:  "plain shift earns nothing",
			facts: pay.ShiftFacts{PaidHours: d("8"), SpreadHours: d("8.5")},
			staff: permanent(catalog.CSLevel3_1),
			want:  map[award.RuleID]string{},
		},
		{
			name:  "two splits pay per occurrence",
			facts: pay.ShiftFacts{PaidHours: d("6"), SpreadHours: d("11"), Splits: 2},
			staff: permanent(catalog.CSLevel3_1),
			want:  map[award.RuleID]string{"split-shift": "7.16"},
		},
		{
			name:  "long spread and overtime stack",
			facts: pay.ShiftFacts{PaidHours: d("10"), SpreadHours: d("12.5"), Splits: 1, OvertimeHours: d("2")},
			staff: permanent(catalog.CSLevel3_1),
			want:  map[award.RuleID]string{"split-shift": "3.58", "meal": "16.73", "broken-spread": "6.40"},
		},
		{
			name:  "under an hour of overtime has no meal",
			facts: pay.ShiftFacts{PaidHours: d("8.5"), SpreadHours: d("9"), OvertimeHours: d("0.5")},
			staff: permanent(catalog.CSLevel3_1),
			want:  map[award.RuleID]string{},
		},
		{
			name:  "first aid is paid per hour",
			facts: pay.ShiftFacts{PaidHours: d("7.5"), SpreadHours: d("8")},
			staff: award.StaffContext{StaffID: "s", ClassificationID: catalog.CSLevel3_1, EmploymentType: award.FullTime, Designations: []string{"first_aid_officer"}},
			want:  map[award.RuleID]string{"first-aid": "3.38"},
		},
		{
			name:  "higher qualification excludes the lower one",
			facts: pay.ShiftFacts{PaidHours: d("8"), SpreadHours: d("8")},
			staff: award.StaffContext{StaffID: "s", ClassificationID: catalog.CSLevel4_1, EmploymentType: award.FullTime, Qualifications: []string{"diploma_ece", "bachelor_ece"}},
			want:  map[award.RuleID]string{"qual-degree": "8.96"},
		},
		{
			name:  "single qualification",
			facts: pay.ShiftFacts{PaidHours: d("8"), SpreadHours: d("8")},
			staff: award.StaffContext{StaffID: "s", ClassificationID: catalog.CSLevel4_1, EmploymentType: award.FullTime, Qualifications: []string{"diploma_ece"}},
			want:  map[award.RuleID]string{"qual-diploma": "4.64"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pay.EvaluateAllowances(tt.facts, tt.staff, rules)
			require.NoError(t, err)

			byID := applied(got)
			require.Len(t, byID, len(tt.want))
			for id, amount := range tt.want {
				a, ok := byID[id]
				require.True(t, ok, "missing %s", id)
				assertDecimal(t, amount, a.Amount, "rule %s", id)
			}
		})
	}
}

func TestEvaluateAllowances_EmploymentTypeAndOrder(t *testing.T) {
	rules := []award.AllowanceRule{
		{ID: "tools", Trigger: award.TriggerEveryShift, Amount: d("2.00"), Frequency: award.PerShift, Stackable: true,
			EmploymentTypes: []award.EmploymentType{award.FullTime}},
		{ID: "laundry", Trigger: award.TriggerEveryShift, Amount: d("1.00"), Frequency: award.PerShift, Stackable: true},
		{ID: "long-shift", Trigger: award.TriggerShiftDuration, Threshold: d("10"), Amount: d("5.00"), Frequency: award.PerShift, Stackable: true},
	}
	facts := pay.ShiftFacts{PaidHours: d("10"), SpreadHours: d("10")}

	// GIVEN: A casual
	got, err := pay.EvaluateAllowances(facts, casual(catalog.CSLevel3_1), rules)
	require.NoError(t, err)

	// THEN: Full-time only rules are skipped and rule order is kept
	require.Len(t, got, 2)
	assert.Equal(t, award.RuleID("laundry"), got[0].Rule.ID)
	assert.Equal(t, award.RuleID("long-shift"), got[1].Rule.ID)
}

func TestEvaluateAllowances_ExclusionTieBreaksOnID(t *testing.T) {
	rules := []award.AllowanceRule{
		{ID: "b", Trigger: award.TriggerEveryShift, Amount: d("1"), Frequency: award.PerShift, ExclusionGroup: "g"},
		{ID: "a", Trigger: award.TriggerEveryShift, Amount: d("1"), Frequency: award.PerShift, ExclusionGroup: "g"},
		{ID: "c", Trigger: award.TriggerEveryShift, Amount: d("1"), Frequency: award.PerShift, ExclusionGroup: "other"},
	}

	got, err := pay.EvaluateAllowances(pay.ShiftFacts{PaidHours: d("1")}, permanent(catalog.CSLevel3_1), rules)
	require.NoError(t, err)

	byID := applied(got)
	assert.Len(t, byID, 2)
	assert.Contains(t, byID, award.RuleID("a"))
	assert.Contains(t, byID, award.RuleID("c"))
}

func TestEvaluateAllowances_MalformedRule(t *testing.T) {
	rules := []award.AllowanceRule{{ID: "q", Trigger: award.TriggerQualification, Amount: d("1"), Frequency: award.PerHour}}

	_, err := pay.EvaluateAllowances(pay.ShiftFacts{PaidHours: d("1")}, permanent(catalog.CSLevel3_1), rules)
	assert.True(t, errors.Is(err, award.ErrConfiguration))
}
