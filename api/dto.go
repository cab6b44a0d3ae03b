/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AND HOURS:
  Every decimal crosses the wire as a string ("28.73", "7.5000"). Clients
  must not round-trip money through floating point.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/award.go: AwardDocument, the award import format
*/
package api

import (
	"time"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/pay"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// AWARDS
// =============================================================================

// PresetDTO is a catalog award that can be imported.
type PresetDTO struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AwardDTO is one award version header.
type AwardDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Industry      string `json:"industry,omitempty"`
	Version       int    `json:"version"`
	EffectiveFrom string `json:"effective_from"`
	TimeZone      string `json:"time_zone,omitempty"`
}

func toAwardDTO(a award.Award) AwardDTO {
	return AwardDTO{
		ID:            string(a.ID),
		Name:          a.Name,
		Industry:      a.Industry,
		Version:       a.Version,
		EffectiveFrom: a.EffectiveFrom.String(),
		TimeZone:      a.TimeZone,
	}
}

// RateDTO is one pay rate row.
type RateDTO struct {
	ClassificationID string  `json:"classification_id"`
	RateType         string  `json:"rate_type"`
	HourlyRate       string  `json:"hourly_rate"`
	EffectiveFrom    string  `json:"effective_from"`
	EffectiveTo      *string `json:"effective_to,omitempty"`
	Version          int     `json:"version"`
}

func toRateDTO(r award.PayRate) RateDTO {
	dto := RateDTO{
		ClassificationID: string(r.ClassificationID),
		RateType:         string(r.RateType),
		HourlyRate:       r.HourlyRate.StringFixed(award.MoneyPlaces),
		EffectiveFrom:    r.EffectiveFrom.String(),
		Version:          r.Version,
	}
	if r.EffectiveTo != nil {
		dto.EffectiveTo = strPtr(r.EffectiveTo.String())
	}
	return dto
}

// SupersedeRateRequest starts a new rate for a classification.
type SupersedeRateRequest struct {
	ClassificationID string `json:"classification_id"`
	RateType         string `json:"rate_type,omitempty"`
	HourlyRate       string `json:"hourly_rate"`
	EffectiveFrom    string `json:"effective_from"`
}

// =============================================================================
// STAFF & OVERRIDES
// =============================================================================

// StaffDTO is a staff member's award coverage.
type StaffDTO struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	AwardID          string   `json:"award_id"`
	ClassificationID string   `json:"classification_id"`
	EmploymentType   string   `json:"employment_type"`
	Qualifications   []string `json:"qualifications,omitempty"`
	Designations     []string `json:"designations,omitempty"`
	ExperienceMonths int      `json:"experience_months,omitempty"`
}

func toStaffDTO(s award.Staff) StaffDTO {
	return StaffDTO{
		ID:               string(s.ID),
		Name:             s.Name,
		AwardID:          string(s.AwardID),
		ClassificationID: string(s.ClassificationID),
		EmploymentType:   string(s.EmploymentType),
		Qualifications:   s.Qualifications,
		Designations:     s.Designations,
		ExperienceMonths: s.ExperienceMonths,
	}
}

func (d StaffDTO) toStaff() award.Staff {
	return award.Staff{
		ID:               award.StaffID(d.ID),
		Name:             d.Name,
		AwardID:          award.AwardID(d.AwardID),
		ClassificationID: award.ClassificationID(d.ClassificationID),
		EmploymentType:   award.EmploymentType(d.EmploymentType),
		Qualifications:   d.Qualifications,
		Designations:     d.Designations,
		ExperienceMonths: d.ExperienceMonths,
	}
}

// OverrideDTO is an approved above-award arrangement.
type OverrideDTO struct {
	ID                    string  `json:"id"`
	StaffID               string  `json:"staff_id"`
	Type                  string  `json:"type"`
	Value                 string  `json:"value"`
	EffectiveFrom         string  `json:"effective_from"`
	EffectiveTo           *string `json:"effective_to,omitempty"`
	AbsorbedOvertimeHours string  `json:"absorbed_overtime_hours,omitempty"`
	AbsorptionNote        string  `json:"absorption_note,omitempty"`
	ApprovedBy            string  `json:"approved_by"`
	ApprovedAt            string  `json:"approved_at,omitempty"`
}

func toOverrideDTO(o award.RateOverride) OverrideDTO {
	dto := OverrideDTO{
		ID:            string(o.ID),
		StaffID:       string(o.StaffID),
		Type:          string(o.Type),
		Value:         o.Value.String(),
		EffectiveFrom: o.EffectiveFrom.String(),
		ApprovedBy:    o.ApprovedBy,
	}
	if o.EffectiveTo != nil {
		dto.EffectiveTo = strPtr(o.EffectiveTo.String())
	}
	if o.Absorption != nil {
		dto.AbsorbedOvertimeHours = o.Absorption.OvertimeHours.String()
		dto.AbsorptionNote = o.Absorption.Description
	}
	if !o.ApprovedAt.IsZero() {
		dto.ApprovedAt = o.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// SHIFTS
// =============================================================================

// BreakDTO is a break inside a shift.
type BreakDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Paid  bool      `json:"paid,omitempty"`
}

// ShiftDTO is a worked shift. Times are RFC 3339 with an offset.
type ShiftDTO struct {
	ID     string     `json:"id,omitempty"`
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Breaks []BreakDTO `json:"breaks,omitempty"`
}

func toShiftDTO(s pay.Shift) ShiftDTO {
	dto := ShiftDTO{ID: s.ID, Start: s.Start, End: s.End}
	for _, b := range s.Breaks {
		dto.Breaks = append(dto.Breaks, BreakDTO{Start: b.Start, End: b.End, Paid: b.Paid})
	}
	return dto
}

func (d ShiftDTO) toShift() pay.Shift {
	s := pay.Shift{ID: d.ID, Start: d.Start, End: d.End}
	for _, b := range d.Breaks {
		s.Breaks = append(s.Breaks, pay.Break{Start: b.Start, End: b.End, Paid: b.Paid})
	}
	return s
}

// =============================================================================
// CALCULATION
// =============================================================================

// CalculateRequest prices one shift for a stored staff member.
type CalculateRequest struct {
	StaffID string          `json:"staff_id"`
	Shift   ShiftDTO        `json:"shift"`
	Prior   *pay.PriorHours `json:"prior,omitempty"`
	Record  bool            `json:"record"`
}

// CalculateResponse wraps the breakdown.
type CalculateResponse struct {
	Breakdown pay.PayBreakdown `json:"breakdown"`
	Recorded  bool             `json:"recorded"`
}

// SimulateRequest prices many independent shifts against one award version.
type SimulateRequest struct {
	AwardID string             `json:"award_id"`
	AsOf    string             `json:"as_of,omitempty"` // version date; defaults to the earliest shift
	Jobs    []SimulationJobDTO `json:"jobs"`
	Record  bool               `json:"record"`
}

// SimulationJobDTO names a stored staff member or describes a hypothetical one.
type SimulationJobDTO struct {
	ID               string   `json:"id"`
	StaffID          string   `json:"staff_id,omitempty"`
	ClassificationID string   `json:"classification_id,omitempty"`
	EmploymentType   string   `json:"employment_type,omitempty"`
	Qualifications   []string `json:"qualifications,omitempty"`
	Designations     []string `json:"designations,omitempty"`
	Shift            ShiftDTO `json:"shift"`
}

// SimulationResultDTO is one job's outcome.
type SimulationResultDTO struct {
	JobID     string            `json:"job_id"`
	Breakdown *pay.PayBreakdown `json:"breakdown,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// SimulateResponse is the batch outcome.
type SimulateResponse struct {
	AwardID      string                `json:"award_id"`
	AwardVersion int                   `json:"award_version"`
	Jobs         int                   `json:"jobs"`
	Succeeded    int                   `json:"succeeded"`
	Failed       int                   `json:"failed"`
	Hours        string                `json:"hours"`
	Total        string                `json:"total"`
	Recorded     int                   `json:"recorded"`
	Results      []SimulationResultDTO `json:"results"`
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconcileRequest reconciles a salaried staff member over a pay period.
// Either both period dates, or period_type plus any date in the period
// (period_start), identify the period. salary_paid defaults to the annual
// salary divided over the period type.
type ReconcileRequest struct {
	StaffID     string `json:"staff_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end,omitempty"`
	PeriodType  string `json:"period_type,omitempty"`
	SalaryPaid  string `json:"salary_paid,omitempty"`
}

// RunDTO is a stored reconciliation.
type RunDTO struct {
	ID          string                   `json:"id"`
	AwardID     string                   `json:"award_id"`
	StaffID     string                   `json:"staff_id"`
	PeriodStart string                   `json:"period_start"`
	PeriodEnd   string                   `json:"period_end"`
	Compliant   bool                     `json:"compliant"`
	Shortfall   string                   `json:"shortfall"`
	CreatedAt   string                   `json:"created_at"`
	Report      pay.ReconciliationReport `json:"report"`
}

func toRunDTO(run pay.RunRecord) RunDTO {
	return RunDTO{
		ID:          run.ID.String(),
		AwardID:     string(run.AwardID),
		StaffID:     string(run.StaffID),
		PeriodStart: run.Period.Start.String(),
		PeriodEnd:   run.Period.End.String(),
		Compliant:   run.Report.Compliant(),
		Shortfall:   run.Report.Shortfall.StringFixed(award.MoneyPlaces),
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
		Report:      run.Report,
	}
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// BreakdownRecordDTO is one audit log entry.
type BreakdownRecordDTO struct {
	Source     string           `json:"source"`
	RecordedAt string           `json:"recorded_at"`
	Breakdown  pay.PayBreakdown `json:"breakdown"`
}

func toBreakdownRecordDTO(rec pay.BreakdownRecord) BreakdownRecordDTO {
	return BreakdownRecordDTO{
		Source:     rec.Source,
		RecordedAt: rec.RecordedAt.Format(time.RFC3339),
		Breakdown:  rec.Breakdown,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
