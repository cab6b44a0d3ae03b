package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// General Retail Industry Award classification ids.
const (
	RetailLevel1 award.ClassificationID = "retail-1"
	RetailLevel2 award.ClassificationID = "retail-2"
	RetailLevel4 award.ClassificationID = "retail-4"
)

// GeneralRetail returns the General Retail Industry Award, version 1.
func GeneralRetail() award.Definition {
	var rates []award.PayRate
	rates = append(rates, rateSeries(RetailLevel1, "25.65", "26.55")...)
	rates = append(rates, rateSeries(RetailLevel2, "26.26", "27.16")...)
	rates = append(rates, rateSeries(RetailLevel4, "27.22", "28.16")...)

	weekday := []award.DayType{award.DayWeekday}

	return award.Definition{
		Award: award.Award{
			ID:            "general-retail",
			Name:          "General Retail Industry Award",
			Industry:      "Retail",
			Version:       1,
			EffectiveFrom: award.NewDate(2023, 7, 1),
			TimeZone:      "Australia/Sydney",
		},
		Classifications: []award.Classification{
			{ID: RetailLevel1, Level: "1", Name: "Retail employee level 1"},
			{ID: RetailLevel2, Level: "2", Name: "Retail employee level 2"},
			{ID: RetailLevel4, Level: "4", Name: "Retail employee level 4", MinExperienceMonths: 24},
		},
		Rates: rates,
		Penalties: []award.PenaltyRule{
			{ID: "gr-saturday", Type: award.PenaltySaturday, Multiplier: dec("1.25"), Loading: award.LoadingReplace},
			{ID: "gr-sunday", Type: award.PenaltySunday, Multiplier: dec("1.5"), Loading: award.LoadingReplace},
			{ID: "gr-public-holiday", Type: award.PenaltyPublicHoliday, Multiplier: dec("2.25"), Loading: award.LoadingReplace},
			{ID: "gr-evening", Type: award.PenaltyEvening, Multiplier: dec("1.25"), Loading: award.LoadingReplace,
				Window: window(at(18), award.EndOfDay), Days: weekday},
			{ID: "gr-early-morning", Type: award.PenaltyEarlyMorning, Multiplier: dec("1.1"), Loading: award.LoadingCompound,
				Window: window(at(5), at(7)), Days: weekday},
		},
		Allowances: []award.AllowanceRule{
			{ID: "gr-meal", Name: "Overtime meal allowance", Trigger: award.TriggerOvertimeDuration, Threshold: dec("1"),
				Amount: dec("22.51"), Frequency: award.PerShift, Stackable: true},
			{ID: "gr-first-aid", Name: "First aid allowance", Trigger: award.TriggerDesignation, Condition: "first_aid_officer",
				Amount: dec("3.31"), Frequency: award.PerShift, Stackable: true},
			{ID: "gr-cold-work", Name: "Cold work allowance", Trigger: award.TriggerDesignation, Condition: "cold_room",
				Amount: dec("0.36"), Frequency: award.PerHour, ExclusionGroup: "cold", Priority: 1},
			{ID: "gr-freezer", Name: "Freezer work allowance", Trigger: award.TriggerDesignation, Condition: "freezer",
				Amount: dec("0.86"), Frequency: award.PerHour, ExclusionGroup: "cold", Priority: 2},
		},
		Overtime: award.OvertimeConfig{
			Default: award.OvertimeThresholds{
				DailyHours:      dec("9"),
				WeeklyHours:     dec("38"),
				Tier1Hours:      dec("3"),
				Tier1Multiplier: dec("1.5"),
				Tier2Multiplier: dec("2.0"),
				DayMultipliers: map[award.DayType]decimal.Decimal{
					award.DaySunday:        dec("2.0"),
					award.DayPublicHoliday: dec("2.5"),
				},
				WeekStart: time.Monday,
			},
			CasualLoadingOnOvertime: true,
		},
		Holidays:      nationalHolidays(),
		CasualLoading: dec("0.25"),
	}
}
