/*
Package factory provides award document to Go definition conversion.

PURPOSE:
  Converts JSON or YAML award documents into award.Definition values, and
  back. A pay guide published by the FWC is transcribed once into a document
  and imported through the API; no code change is needed to add an award or
  a new version of one.

DOCUMENT SCHEMA (YAML shown, JSON uses the same keys):
  id: childrens-services
  name: Children's Services Award
  version: 2
  effective_from: "2024-07-01"
  time_zone: Australia/Sydney
  casual_loading: "0.25"
  split_shift_gap_minutes: 60
  classifications:
    - {id: cs-3.1, level: "3.1", name: Certificate III qualified educator}
  rates:
    - {classification: cs-3.1, hourly_rate: "28.73", effective_from: "2024-07-01"}
  penalties:
    - {id: cs-sunday, type: sunday, multiplier: "1.75", loading: replace}
    - {id: cs-evening, type: evening, multiplier: "1.1", loading: compound,
       window: {start: "18:00", end: "22:00"}}
  allowances:
    - {id: meal, trigger: overtime_duration, threshold: "1", amount: "16.73",
       frequency: per_shift, stackable: true}
  overtime:
    default: {daily_hours: "8", weekly_hours: "38", tier1_hours: "2",
              tier1_multiplier: "1.5", tier2_multiplier: "2.0", week_start: monday}
  holidays:
    - {date: "2024-12-25", name: Christmas Day, recurring: true}

NUMBERS:
  Every rate, multiplier, amount and threshold is a decimal string. Floats
  never enter the pipeline.

KEY FEATURES:
  - Rejects malformed documents with an award.ValidationError naming the field
  - Leaves semantic checks (overlapping rates, unknown classifications) to
    award.NewSnapshot, which needs the stored rate history to judge them
  - Round-trips: ToDocument(FromDocument(doc)) == doc for canonical documents

USAGE:
  f := factory.NewAwardFactory()
  def, err := f.ParseYAML(data)
  snap, err := award.NewSnapshot(def)

SEE ALSO:
  - award/award.go: Definition types
  - catalog/: Preset definitions
*/
package factory

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// AwardDocument is the serialized form of one award version.
type AwardDocument struct {
	ID                   string              `json:"id" yaml:"id"`
	Name                 string              `json:"name" yaml:"name"`
	Industry             string              `json:"industry,omitempty" yaml:"industry,omitempty"`
	Version              int                 `json:"version" yaml:"version"`
	EffectiveFrom        string              `json:"effective_from" yaml:"effective_from"`
	TimeZone             string              `json:"time_zone,omitempty" yaml:"time_zone,omitempty"`
	CasualLoading        string              `json:"casual_loading,omitempty" yaml:"casual_loading,omitempty"`
	SplitShiftGapMinutes int                 `json:"split_shift_gap_minutes,omitempty" yaml:"split_shift_gap_minutes,omitempty"`
	Classifications      []ClassificationDoc `json:"classifications" yaml:"classifications"`
	Rates                []RateDoc           `json:"rates,omitempty" yaml:"rates,omitempty"`
	Penalties            []PenaltyDoc        `json:"penalties,omitempty" yaml:"penalties,omitempty"`
	Allowances           []AllowanceDoc      `json:"allowances,omitempty" yaml:"allowances,omitempty"`
	Overtime             OvertimeDoc         `json:"overtime" yaml:"overtime"`
	Holidays             []HolidayDoc        `json:"holidays,omitempty" yaml:"holidays,omitempty"`
}

type ClassificationDoc struct {
	ID                  string   `json:"id" yaml:"id"`
	Level               string   `json:"level,omitempty" yaml:"level,omitempty"`
	Name                string   `json:"name" yaml:"name"`
	EmploymentTypes     []string `json:"employment_types,omitempty" yaml:"employment_types,omitempty"`
	Qualifications      []string `json:"qualifications,omitempty" yaml:"qualifications,omitempty"`
	MinExperienceMonths int      `json:"min_experience_months,omitempty" yaml:"min_experience_months,omitempty"`
}

// RateDoc is one row of a rate series. EffectiveTo empty = current.
type RateDoc struct {
	Classification string `json:"classification" yaml:"classification"`
	RateType       string `json:"rate_type,omitempty" yaml:"rate_type,omitempty"`
	HourlyRate     string `json:"hourly_rate" yaml:"hourly_rate"`
	EffectiveFrom  string `json:"effective_from" yaml:"effective_from"`
	EffectiveTo    string `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
	Version        int    `json:"version,omitempty" yaml:"version,omitempty"`
}

type PenaltyDoc struct {
	ID             string     `json:"id" yaml:"id"`
	Type           string     `json:"type" yaml:"type"`
	EmploymentType string     `json:"employment_type,omitempty" yaml:"employment_type,omitempty"`
	Multiplier     string     `json:"multiplier" yaml:"multiplier"`
	Loading        string     `json:"loading" yaml:"loading"`
	Window         *WindowDoc `json:"window,omitempty" yaml:"window,omitempty"`
	Days           []string   `json:"days,omitempty" yaml:"days,omitempty"`
	Priority       int        `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// WindowDoc is a clock window in HH:MM. "24:00" is the end of the day.
type WindowDoc struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type AllowanceDoc struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name,omitempty" yaml:"name,omitempty"`
	Trigger         string   `json:"trigger" yaml:"trigger"`
	Threshold       string   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Condition       string   `json:"condition,omitempty" yaml:"condition,omitempty"`
	Amount          string   `json:"amount" yaml:"amount"`
	Frequency       string   `json:"frequency" yaml:"frequency"`
	Stackable       bool     `json:"stackable,omitempty" yaml:"stackable,omitempty"`
	ExclusionGroup  string   `json:"exclusion_group,omitempty" yaml:"exclusion_group,omitempty"`
	Priority        int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	EmploymentTypes []string `json:"employment_types,omitempty" yaml:"employment_types,omitempty"`
}

type OvertimeDoc struct {
	Default                 ThresholdsDoc            `json:"default" yaml:"default"`
	ByEmploymentType        map[string]ThresholdsDoc `json:"by_employment_type,omitempty" yaml:"by_employment_type,omitempty"`
	CasualLoadingOnOvertime bool                     `json:"casual_loading_on_overtime,omitempty" yaml:"casual_loading_on_overtime,omitempty"`
}

type ThresholdsDoc struct {
	DailyHours      string            `json:"daily_hours" yaml:"daily_hours"`
	WeeklyHours     string            `json:"weekly_hours" yaml:"weekly_hours"`
	Tier1Hours      string            `json:"tier1_hours" yaml:"tier1_hours"`
	Tier1Multiplier string            `json:"tier1_multiplier" yaml:"tier1_multiplier"`
	Tier2Multiplier string            `json:"tier2_multiplier" yaml:"tier2_multiplier"`
	DayMultipliers  map[string]string `json:"day_multipliers,omitempty" yaml:"day_multipliers,omitempty"`
	WeekStart       string            `json:"week_start,omitempty" yaml:"week_start,omitempty"` // Default monday
}

type HolidayDoc struct {
	Date      string `json:"date" yaml:"date"`
	Name      string `json:"name" yaml:"name"`
	Recurring bool   `json:"recurring,omitempty" yaml:"recurring,omitempty"`
}

// =============================================================================
// AWARD FACTORY
// =============================================================================

// AwardFactory converts award documents to definitions.
type AwardFactory struct{}

func NewAwardFactory() *AwardFactory {
	return &AwardFactory{}
}

// ParseJSON parses a JSON award document.
func (f *AwardFactory) ParseJSON(data []byte) (award.Definition, error) {
	var doc AwardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return award.Definition{}, &award.ValidationError{Field: "award document", Reason: "failed to parse JSON: " + err.Error()}
	}
	return f.FromDocument(doc)
}

// ParseYAML parses a YAML award document.
func (f *AwardFactory) ParseYAML(data []byte) (award.Definition, error) {
	var doc AwardDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return award.Definition{}, &award.ValidationError{Field: "award document", Reason: "failed to parse YAML: " + err.Error()}
	}
	return f.FromDocument(doc)
}

// ParseFile picks the format from the file name: .yaml/.yml or JSON otherwise.
func (f *AwardFactory) ParseFile(name string, data []byte) (award.Definition, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return f.ParseYAML(data)
	default:
		return f.ParseJSON(data)
	}
}

// ToJSON serializes a definition as an indented JSON document.
func (f *AwardFactory) ToJSON(def award.Definition) ([]byte, error) {
	return json.MarshalIndent(f.ToDocument(def), "", "  ")
}

// ToYAML serializes a definition as a YAML document.
func (f *AwardFactory) ToYAML(def award.Definition) ([]byte, error) {
	return yaml.Marshal(f.ToDocument(def))
}

// FromDocument converts a document into a definition.
func (f *AwardFactory) FromDocument(doc AwardDocument) (award.Definition, error) {
	p := &parser{}

	def := award.Definition{
		Award: award.Award{
			ID:            award.AwardID(doc.ID),
			Name:          doc.Name,
			Industry:      doc.Industry,
			Version:       doc.Version,
			EffectiveFrom: p.date("effective_from", doc.EffectiveFrom),
			TimeZone:      doc.TimeZone,
		},
		CasualLoading: p.optionalDecimal("casual_loading", doc.CasualLoading),
		SplitShiftGap: time.Duration(doc.SplitShiftGapMinutes) * time.Minute,
	}
	if doc.ID == "" {
		p.fail("id", "required")
	}

	for i, cd := range doc.Classifications {
		field := fmt.Sprintf("classifications[%d]", i)
		def.Classifications = append(def.Classifications, award.Classification{
			ID:                  award.ClassificationID(cd.ID),
			AwardID:             def.Award.ID,
			Level:               cd.Level,
			Name:                cd.Name,
			EmploymentTypes:     p.employmentTypes(field+".employment_types", cd.EmploymentTypes),
			Qualifications:      cd.Qualifications,
			MinExperienceMonths: cd.MinExperienceMonths,
		})
	}

	for i, rd := range doc.Rates {
		field := fmt.Sprintf("rates[%d]", i)
		rate := award.PayRate{
			ClassificationID: award.ClassificationID(rd.Classification),
			RateType:         award.RateType(rd.RateType),
			HourlyRate:       p.decimal(field+".hourly_rate", rd.HourlyRate),
			EffectiveFrom:    p.date(field+".effective_from", rd.EffectiveFrom),
			Version:          rd.Version,
		}
		if rate.RateType == "" {
			rate.RateType = award.RateOrdinary
		}
		if rd.EffectiveTo != "" {
			to := p.date(field+".effective_to", rd.EffectiveTo)
			rate.EffectiveTo = &to
		}
		def.Rates = append(def.Rates, rate)
	}

	for i, pd := range doc.Penalties {
		field := fmt.Sprintf("penalties[%d]", i)
		rule := award.PenaltyRule{
			ID:             award.RuleID(pd.ID),
			Type:           award.PenaltyType(pd.Type),
			EmploymentType: award.EmploymentType(pd.EmploymentType),
			Multiplier:     p.decimal(field+".multiplier", pd.Multiplier),
			Loading:        award.LoadingType(pd.Loading),
			Priority:       pd.Priority,
		}
		if pd.Window != nil {
			rule.Window = &award.TimeWindow{
				Start: p.clock(field+".window.start", pd.Window.Start),
				End:   p.clock(field+".window.end", pd.Window.End),
			}
		}
		for _, day := range pd.Days {
			rule.Days = append(rule.Days, award.DayType(day))
		}
		def.Penalties = append(def.Penalties, rule)
	}

	for i, ad := range doc.Allowances {
		field := fmt.Sprintf("allowances[%d]", i)
		def.Allowances = append(def.Allowances, award.AllowanceRule{
			ID:              award.RuleID(ad.ID),
			Name:            ad.Name,
			Trigger:         award.AllowanceTrigger(ad.Trigger),
			Threshold:       p.optionalDecimal(field+".threshold", ad.Threshold),
			Condition:       ad.Condition,
			Amount:          p.decimal(field+".amount", ad.Amount),
			Frequency:       award.Frequency(ad.Frequency),
			Stackable:       ad.Stackable,
			ExclusionGroup:  ad.ExclusionGroup,
			Priority:        ad.Priority,
			EmploymentTypes: p.employmentTypes(field+".employment_types", ad.EmploymentTypes),
		})
	}

	def.Overtime = award.OvertimeConfig{
		Default:                 p.thresholds("overtime.default", doc.Overtime.Default),
		CasualLoadingOnOvertime: doc.Overtime.CasualLoadingOnOvertime,
	}
	if len(doc.Overtime.ByEmploymentType) > 0 {
		def.Overtime.ByEmploymentType = make(map[award.EmploymentType]award.OvertimeThresholds, len(doc.Overtime.ByEmploymentType))
		for et, td := range doc.Overtime.ByEmploymentType {
			field := "overtime.by_employment_type." + et
			if !award.EmploymentType(et).Valid() {
				p.fail(field, "unknown employment type")
			}
			def.Overtime.ByEmploymentType[award.EmploymentType(et)] = p.thresholds(field, td)
		}
	}

	for i, hd := range doc.Holidays {
		def.Holidays = append(def.Holidays, award.Holiday{
			Date:      p.date(fmt.Sprintf("holidays[%d].date", i), hd.Date),
			Name:      hd.Name,
			Recurring: hd.Recurring,
		})
	}

	if p.err != nil {
		return award.Definition{}, p.err
	}
	return def, nil
}

// ToDocument converts a definition into its canonical document.
func (f *AwardFactory) ToDocument(def award.Definition) AwardDocument {
	doc := AwardDocument{
		ID:                   string(def.Award.ID),
		Name:                 def.Award.Name,
		Industry:             def.Award.Industry,
		Version:              def.Award.Version,
		EffectiveFrom:        def.Award.EffectiveFrom.String(),
		TimeZone:             def.Award.TimeZone,
		SplitShiftGapMinutes: int(def.SplitShiftGap / time.Minute),
	}
	if !def.CasualLoading.IsZero() {
		doc.CasualLoading = def.CasualLoading.String()
	}

	for _, c := range def.Classifications {
		doc.Classifications = append(doc.Classifications, ClassificationDoc{
			ID:                  string(c.ID),
			Level:               c.Level,
			Name:                c.Name,
			EmploymentTypes:     employmentTypeStrings(c.EmploymentTypes),
			Qualifications:      c.Qualifications,
			MinExperienceMonths: c.MinExperienceMonths,
		})
	}

	for _, r := range def.Rates {
		rd := RateDoc{
			Classification: string(r.ClassificationID),
			RateType:       string(r.RateType),
			HourlyRate:     r.HourlyRate.String(),
			EffectiveFrom:  r.EffectiveFrom.String(),
			Version:        r.Version,
		}
		if r.EffectiveTo != nil {
			rd.EffectiveTo = r.EffectiveTo.String()
		}
		doc.Rates = append(doc.Rates, rd)
	}

	for _, r := range def.Penalties {
		pd := PenaltyDoc{
			ID:             string(r.ID),
			Type:           string(r.Type),
			EmploymentType: string(r.EmploymentType),
			Multiplier:     r.Multiplier.String(),
			Loading:        string(r.Loading),
			Priority:       r.Priority,
		}
		if r.Window != nil {
			pd.Window = &WindowDoc{Start: r.Window.Start.String(), End: r.Window.End.String()}
		}
		for _, day := range r.Days {
			pd.Days = append(pd.Days, string(day))
		}
		doc.Penalties = append(doc.Penalties, pd)
	}

	for _, r := range def.Allowances {
		ad := AllowanceDoc{
			ID:              string(r.ID),
			Name:            r.Name,
			Trigger:         string(r.Trigger),
			Condition:       r.Condition,
			Amount:          r.Amount.String(),
			Frequency:       string(r.Frequency),
			Stackable:       r.Stackable,
			ExclusionGroup:  r.ExclusionGroup,
			Priority:        r.Priority,
			EmploymentTypes: employmentTypeStrings(r.EmploymentTypes),
		}
		if !r.Threshold.IsZero() {
			ad.Threshold = r.Threshold.String()
		}
		doc.Allowances = append(doc.Allowances, ad)
	}

	doc.Overtime = OvertimeDoc{
		Default:                 thresholdsDoc(def.Overtime.Default),
		CasualLoadingOnOvertime: def.Overtime.CasualLoadingOnOvertime,
	}
	if len(def.Overtime.ByEmploymentType) > 0 {
		doc.Overtime.ByEmploymentType = make(map[string]ThresholdsDoc, len(def.Overtime.ByEmploymentType))
		for et, t := range def.Overtime.ByEmploymentType {
			doc.Overtime.ByEmploymentType[string(et)] = thresholdsDoc(t)
		}
	}

	for _, h := range def.Holidays {
		doc.Holidays = append(doc.Holidays, HolidayDoc{Date: h.Date.String(), Name: h.Name, Recurring: h.Recurring})
	}
	return doc
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parser keeps the first error so conversion code reads straight through.
type parser struct {
	err error
}

func (p *parser) fail(field, reason string) {
	if p.err == nil {
		p.err = &award.ValidationError{Field: field, Reason: reason}
	}
}

func (p *parser) decimal(field, s string) decimal.Decimal {
	if s == "" {
		p.fail(field, "required")
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		p.fail(field, fmt.Sprintf("%q is not a decimal", s))
		return decimal.Zero
	}
	return v
}

func (p *parser) optionalDecimal(field, s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return p.decimal(field, s)
}

func (p *parser) date(field, s string) award.Date {
	if s == "" {
		p.fail(field, "required")
		return award.Date{}
	}
	d, err := award.ParseDate(s)
	if err != nil {
		p.fail(field, err.Error())
	}
	return d
}

func (p *parser) clock(field, s string) award.TimeOfDay {
	t, err := award.ParseTimeOfDay(s)
	if err != nil {
		p.fail(field, err.Error())
	}
	return t
}

func (p *parser) employmentTypes(field string, in []string) []award.EmploymentType {
	var out []award.EmploymentType
	for _, s := range in {
		et := award.EmploymentType(s)
		if !et.Valid() {
			p.fail(field, fmt.Sprintf("unknown employment type %q", s))
		}
		out = append(out, et)
	}
	return out
}

func (p *parser) thresholds(field string, td ThresholdsDoc) award.OvertimeThresholds {
	t := award.OvertimeThresholds{
		DailyHours:      p.decimal(field+".daily_hours", td.DailyHours),
		WeeklyHours:     p.decimal(field+".weekly_hours", td.WeeklyHours),
		Tier1Hours:      p.optionalDecimal(field+".tier1_hours", td.Tier1Hours),
		Tier1Multiplier: p.decimal(field+".tier1_multiplier", td.Tier1Multiplier),
		Tier2Multiplier: p.decimal(field+".tier2_multiplier", td.Tier2Multiplier),
		WeekStart:       p.weekday(field+".week_start", td.WeekStart),
	}
	if len(td.DayMultipliers) > 0 {
		t.DayMultipliers = make(map[award.DayType]decimal.Decimal, len(td.DayMultipliers))
		for day, m := range td.DayMultipliers {
			t.DayMultipliers[award.DayType(day)] = p.decimal(field+".day_multipliers."+day, m)
		}
	}
	return t
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

func (p *parser) weekday(field, s string) time.Weekday {
	if s == "" {
		return time.Monday
	}
	wd, ok := weekdays[strings.ToLower(s)]
	if !ok {
		p.fail(field, fmt.Sprintf("unknown weekday %q", s))
	}
	return wd
}

func thresholdsDoc(t award.OvertimeThresholds) ThresholdsDoc {
	td := ThresholdsDoc{
		DailyHours:      t.DailyHours.String(),
		WeeklyHours:     t.WeeklyHours.String(),
		Tier1Hours:      t.Tier1Hours.String(),
		Tier1Multiplier: t.Tier1Multiplier.String(),
		Tier2Multiplier: t.Tier2Multiplier.String(),
		WeekStart:       strings.ToLower(t.WeekStart.String()),
	}
	if len(t.DayMultipliers) > 0 {
		td.DayMultipliers = make(map[string]string, len(t.DayMultipliers))
		for day, m := range t.DayMultipliers {
			td.DayMultipliers[string(day)] = m.String()
		}
	}
	return td
}

func employmentTypeStrings(in []award.EmploymentType) []string {
	var out []string
	for _, et := range in {
		out = append(out, string(et))
	}
	return out
}
