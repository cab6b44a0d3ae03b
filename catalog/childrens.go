package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// Children's Services Award classification ids.
const (
	CSLevel1_1 award.ClassificationID = "cs-1.1"
	CSLevel2_1 award.ClassificationID = "cs-2.1"
	CSLevel3_1 award.ClassificationID = "cs-3.1"
	CSLevel4_1 award.ClassificationID = "cs-4.1"
	CSLevel5_1 award.ClassificationID = "cs-5.1"
)

// ChildrensServices returns the Children's Services Award, version 1.
func ChildrensServices() award.Definition {
	const id award.AwardID = "childrens-services"

	var rates []award.PayRate
	rates = append(rates, rateSeries(CSLevel1_1, "23.09", "24.04")...)
	rates = append(rates, rateSeries(CSLevel2_1, "25.04", "26.03")...)
	rates = append(rates, rateSeries(CSLevel3_1, "27.64", "28.73")...)
	rates = append(rates, rateSeries(CSLevel4_1, "29.95", "31.13")...)
	rates = append(rates, rateSeries(CSLevel5_1, "32.18", "33.45")...)

	return award.Definition{
		Award: award.Award{
			ID:            id,
			Name:          "Children's Services Award",
			Industry:      "Early childhood education and care",
			Version:       1,
			EffectiveFrom: award.NewDate(2023, 7, 1),
			TimeZone:      "Australia/Sydney",
		},
		Classifications: []award.Classification{
			{ID: CSLevel1_1, Level: "1.1", Name: "Support worker"},
			{ID: CSLevel2_1, Level: "2.1", Name: "Children's services employee, unqualified"},
			{ID: CSLevel3_1, Level: "3.1", Name: "Certificate III qualified educator"},
			{ID: CSLevel4_1, Level: "4.1", Name: "Diploma qualified educator", Qualifications: []string{"diploma_ece"}},
			{
				ID: CSLevel5_1, Level: "5.1", Name: "Room leader",
				EmploymentTypes:     []award.EmploymentType{award.FullTime, award.PartTime},
				Qualifications:      []string{"diploma_ece"},
				MinExperienceMonths: 12,
			},
		},
		Rates: rates,
		Penalties: []award.PenaltyRule{
			{ID: "cs-saturday", Type: award.PenaltySaturday, Multiplier: dec("1.5"), Loading: award.LoadingReplace},
			{ID: "cs-sunday", Type: award.PenaltySunday, Multiplier: dec("1.75"), Loading: award.LoadingReplace},
			{ID: "cs-sunday-casual", Type: award.PenaltySunday, EmploymentType: award.Casual, Multiplier: dec("2.0"), Loading: award.LoadingReplace},
			{ID: "cs-public-holiday", Type: award.PenaltyPublicHoliday, Multiplier: dec("2.5"), Loading: award.LoadingReplace},
			{ID: "cs-evening", Type: award.PenaltyEvening, Multiplier: dec("1.1"), Loading: award.LoadingCompound, Window: window(at(18), at(22))},
			{ID: "cs-night", Type: award.PenaltyNight, Multiplier: dec("1.15"), Loading: award.LoadingCompound, Window: window(at(22), at(6))},
			{ID: "cs-early-morning", Type: award.PenaltyEarlyMorning, Multiplier: dec("1.1"), Loading: award.LoadingCompound, Window: window(at(6), at(7)),
				Days: []award.DayType{award.DayWeekday}},
		},
		Allowances: []award.AllowanceRule{
			{ID: "split-shift", Name: "Split shift allowance", Trigger: award.TriggerSplitShift, Threshold: dec("1"),
				Amount: dec("3.58"), Frequency: award.PerOccurrence, Stackable: true},
			{ID: "meal", Name: "Overtime meal allowance", Trigger: award.TriggerOvertimeDuration, Threshold: dec("1"),
				Amount: dec("16.73"), Frequency: award.PerShift, Stackable: true},
			{ID: "broken-spread", Name: "Spread of hours allowance", Trigger: award.TriggerSpreadOfHours, Threshold: dec("12"),
				Amount: dec("6.40"), Frequency: award.PerShift, Stackable: true},
			{ID: "first-aid", Name: "First aid allowance", Trigger: award.TriggerDesignation, Condition: "first_aid_officer",
				Amount: dec("0.45"), Frequency: award.PerHour, Stackable: true},
			{ID: "qual-diploma", Name: "Diploma qualification allowance", Trigger: award.TriggerQualification, Condition: "diploma_ece",
				Amount: dec("0.58"), Frequency: award.PerHour, ExclusionGroup: "qualification", Priority: 1},
			{ID: "qual-degree", Name: "Degree qualification allowance", Trigger: award.TriggerQualification, Condition: "bachelor_ece",
				Amount: dec("1.12"), Frequency: award.PerHour, ExclusionGroup: "qualification", Priority: 2},
		},
		Overtime: award.OvertimeConfig{
			Default: childrensOvertime("8"),
			ByEmploymentType: map[award.EmploymentType]award.OvertimeThresholds{
				award.Casual: childrensOvertime("10"),
			},
			CasualLoadingOnOvertime: true,
		},
		Holidays:      nationalHolidays(),
		CasualLoading: dec("0.25"),
		SplitShiftGap: time.Hour,
	}
}

func childrensOvertime(daily string) award.OvertimeThresholds {
	return award.OvertimeThresholds{
		DailyHours:      dec(daily),
		WeeklyHours:     dec("38"),
		Tier1Hours:      dec("2"),
		Tier1Multiplier: dec("1.5"),
		Tier2Multiplier: dec("2.0"),
		DayMultipliers: map[award.DayType]decimal.Decimal{
			award.DaySunday:        dec("2.0"),
			award.DayPublicHoliday: dec("2.5"),
		},
		WeekStart: time.Monday,
	}
}
