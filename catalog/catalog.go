/*
Package catalog provides ready-to-use award definitions.

PURPOSE:
  Pre-built award configurations for the industries the service is most
  often deployed in. They are starting points: a real deployment imports
  the current FWC pay guide through an award document (factory package) and
  supersedes rates every July.

AVAILABLE AWARDS:
  ChildrensServices: Children's Services Award
    - Levels 1.1 to 5.1, Level 3.1 at $28.73/hr from 1 July 2024
    - Saturday 150%, Sunday 175% (casual 200%), public holiday 250%
    - Evening, night and early-morning loadings compound on the day rate
    - Split shift, meal, first aid and qualification allowances
  GeneralRetail: General Retail Industry Award
    - Weekday evening work replaces the base at 125%
    - 9 hour ordinary day, three hours of tier-1 overtime

EXAMPLE:
  def := catalog.ChildrensServices()
  snap, err := award.NewSnapshot(def)
  calc := pay.NewCalculator(snap)

SEE ALSO:
  - factory/award.go: JSON/YAML award documents
  - award/snapshot.go: Validation of a definition
*/
package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// Preset is a named, buildable award definition.
type Preset struct {
	Key         string
	Name        string
	Description string
	Build       func() award.Definition
}

var presets = map[string]Preset{
	"childrens-services": {
		Key:         "childrens-services",
		Name:        "Children's Services Award",
		Description: "Early childhood education and care; casual Sunday 200%, split shift allowance",
		Build:       ChildrensServices,
	},
	"general-retail": {
		Key:         "general-retail",
		Name:        "General Retail Industry Award",
		Description: "Retail; weekday evening 125% replace, nine hour ordinary day",
		Build:       GeneralRetail,
	},
}

// Presets returns every preset ordered by key.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Lookup returns a preset by key.
func Lookup(key string) (Preset, bool) {
	p, ok := presets[key]
	return p, ok
}

// =============================================================================
// HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func window(from, to award.TimeOfDay) *award.TimeWindow {
	return &award.TimeWindow{Start: from, End: to}
}

func at(h int) award.TimeOfDay { return award.NewTimeOfDay(h, 0) }

// rateSeries builds a closed row for the previous financial year and an
// open row for the current one.
func rateSeries(id award.ClassificationID, previous, current string) []award.PayRate {
	july2024 := award.NewDate(2024, 7, 1)
	return []award.PayRate{
		{
			ClassificationID: id,
			RateType:         award.RateOrdinary,
			HourlyRate:       dec(previous),
			EffectiveFrom:    award.NewDate(2023, 7, 1),
			EffectiveTo:      &july2024,
			Version:          1,
		},
		{
			ClassificationID: id,
			RateType:         award.RateOrdinary,
			HourlyRate:       dec(current),
			EffectiveFrom:    july2024,
			Version:          2,
		},
	}
}

// nationalHolidays are the public holidays observed in every state.
func nationalHolidays() award.Holidays {
	return award.Holidays{
		{Date: award.NewDate(2024, 1, 1), Name: "New Year's Day", Recurring: true},
		{Date: award.NewDate(2024, 1, 26), Name: "Australia Day", Recurring: true},
		{Date: award.NewDate(2024, 4, 25), Name: "Anzac Day", Recurring: true},
		{Date: award.NewDate(2024, 12, 25), Name: "Christmas Day", Recurring: true},
		{Date: award.NewDate(2024, 12, 26), Name: "Boxing Day", Recurring: true},
		{Date: award.NewDate(2024, 3, 29), Name: "Good Friday"},
		{Date: award.NewDate(2024, 4, 1), Name: "Easter Monday"},
		{Date: award.NewDate(2025, 4, 18), Name: "Good Friday"},
		{Date: award.NewDate(2025, 4, 21), Name: "Easter Monday"},
	}
}
