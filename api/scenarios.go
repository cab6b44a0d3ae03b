/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario imports the award it needs,
	creates staff, approves overrides, records a week of shifts and prices
	them, so the audit log and reconciliation runs have something to show.

AVAILABLE SCENARIOS:

	salaried-shortfall:  $57,200 salary vs a 40 hour week; $94.67 short
	salaried-absorption: Same salary with two absorbed overtime hours
	casual-weekend:      Casual educator on Saturday and Sunday
	split-shift:         7-10 and 15-18 on one day; split shift allowance
	above-award-rate:    Custom hourly rate replacing the award base
	retail-evening:      Retail part-timer working weekday evenings

HOW SCENARIOS WORK:
 1. Import the award preset if the store doesn't have it yet
 2. Create the staff member
 3. Approve the override (checked against the award floor)
 4. Record the shifts of the week of 15 July 2024
 5. Reconcile salaried staff, price hourly staff

Records have fixed ids, so loading a scenario twice changes nothing: the
stores are append-only and nothing is ever reset.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "salaried-shortfall"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a scenarioSpec to scenarioSpecs
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/pay"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "salaried-shortfall",
		Name:        "Salaried Shortfall",
		Description: "Level 3.1 educator on $57,200 working 40 hours; overtime leaves the salary $94.67 short",
		Category:    "reconciliation",
	},
	{
		ID:          "salaried-absorption",
		Name:        "Salary With Absorption",
		Description: "Same week under a salary that absorbs two overtime hours",
		Category:    "reconciliation",
	},
	{
		ID:          "casual-weekend",
		Name:        "Casual Weekend",
		Description: "Casual educator: Saturday 150% plus loading, Sunday 200%",
		Category:    "penalties",
	},
	{
		ID:          "split-shift",
		Name:        "Split Shift",
		Description: "7:00-10:00 and 15:00-18:00 on one day attracts the split shift allowance",
		Category:    "allowances",
	},
	{
		ID:          "above-award-rate",
		Name:        "Above-Award Rate",
		Description: "Custom $32.00 hourly rate replaces the award base; penalties apply to it",
		Category:    "overrides",
	},
	{
		ID:          "retail-evening",
		Name:        "Retail Evening",
		Description: "Retail level 1 part-timer on weekday evenings (125% replace)",
		Category:    "penalties",
	},
}

// scenarioSpec is the data a scenario loads.
type scenarioSpec struct {
	preset   string
	staff    award.Staff
	override *award.RateOverride
	shifts   func(loc *time.Location) []pay.Shift
}

var scenarioSpecs = map[string]scenarioSpec{
	"salaried-shortfall": {
		preset:   "childrens-services",
		staff:    scenarioStaff("demo-salaried", "Priya Natarajan", "childrens-services", catalog.CSLevel3_1, award.FullTime),
		override: salaryOverride("demo-salaried", "57200", ""),
		shifts:   fortyHourWeek,
	},
	"salaried-absorption": {
		preset:   "childrens-services",
		staff:    scenarioStaff("demo-absorbed", "Tom Whitfield", "childrens-services", catalog.CSLevel3_1, award.FullTime),
		override: salaryOverride("demo-absorbed", "57200", "2"),
		shifts:   fortyHourWeek,
	},
	"casual-weekend": {
		preset: "childrens-services",
		staff:  scenarioStaff("demo-casual", "Mia Chen", "childrens-services", catalog.CSLevel3_1, award.Casual),
		shifts: func(loc *time.Location) []pay.Shift {
			return []pay.Shift{
				scenarioShift(loc, "sat", 20, 8, 0, 16, 0, 12, 0, 12, 30),
				scenarioShift(loc, "sun", 21, 8, 0, 16, 0, 12, 0, 12, 30),
			}
		},
	},
	"split-shift": {
		preset: "childrens-services",
		staff:  scenarioStaff("demo-split", "Sam O'Brien", "childrens-services", catalog.CSLevel3_1, award.PartTime),
		shifts: func(loc *time.Location) []pay.Shift {
			return []pay.Shift{scenarioShift(loc, "mon", 15, 7, 0, 18, 0, 10, 0, 15, 0)}
		},
	},
	"above-award-rate": {
		preset: "childrens-services",
		staff:  scenarioStaff("demo-custom", "Aisha Rahman", "childrens-services", catalog.CSLevel3_1, award.FullTime),
		override: &award.RateOverride{
			ID: "demo-custom-rate", StaffID: "demo-custom", Type: award.OverrideCustomRate,
			Value: decimal.RequireFromString("32.00"), EffectiveFrom: award.NewDate(2024, 7, 1),
			ApprovedBy: "centre-director", ApprovedAt: time.Date(2024, 6, 24, 9, 0, 0, 0, time.UTC),
		},
		shifts: func(loc *time.Location) []pay.Shift {
			return []pay.Shift{
				scenarioShift(loc, "tue", 16, 9, 0, 17, 30, 13, 0, 13, 30),
				scenarioShift(loc, "sat", 20, 9, 0, 15, 0, 12, 0, 12, 30),
			}
		},
	},
	"retail-evening": {
		preset: "general-retail",
		staff:  scenarioStaff("demo-retail", "Jordan Lee", "general-retail", catalog.RetailLevel1, award.PartTime),
		shifts: func(loc *time.Location) []pay.Shift {
			return []pay.Shift{
				scenarioShift(loc, "wed", 17, 16, 0, 21, 0, 18, 0, 18, 30),
				scenarioShift(loc, "thu", 18, 16, 0, 21, 0, 18, 0, 18, 30),
			}
		},
	},
}

// scenarioWeek is the pay week every scenario records shifts in.
var scenarioWeek = award.Period{Start: award.NewDate(2024, 7, 15), End: award.NewDate(2024, 7, 21)}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	spec, ok := scenarioSpecs[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "Unknown scenario", nil)
		return
	}

	result, err := h.loadScenario(r.Context(), spec)
	if err != nil {
		h.writeDomainError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	result["status"] = "loaded"
	result["scenario"] = req.ScenarioID
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// SCENARIO LOADER
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, spec scenarioSpec) (map[string]any, error) {
	preset, ok := catalog.Lookup(spec.preset)
	if !ok {
		return nil, fmt.Errorf("unknown preset %s", spec.preset)
	}
	lib, err := h.ensureAward(ctx, preset)
	if err != nil {
		return nil, err
	}

	if err := h.Store.SaveStaff(ctx, spec.staff); err != nil {
		return nil, err
	}
	if spec.override != nil {
		if err := h.ensureOverride(ctx, spec.staff, *spec.override); err != nil {
			return nil, err
		}
	}

	shifts := spec.shifts(lib.Latest().Location())
	for i := range shifts {
		shifts[i].ID = string(spec.staff.ID) + "-" + shifts[i].ID
		if err := h.Store.SaveShift(ctx, spec.staff.ID, shifts[i]); err != nil {
			return nil, err
		}
	}

	result := map[string]any{"staff_id": spec.staff.ID, "shifts": len(shifts)}

	if spec.override != nil && spec.override.Type == award.OverrideAnnualSalary {
		done, err := h.Store.RunExists(ctx, spec.staff.ID, scenarioWeek)
		if err != nil {
			return nil, err
		}
		if !done {
			run, err := h.ReconcilePeriod(ctx, spec.staff.ID, scenarioWeek, award.PeriodWeekly, nil)
			if err != nil {
				return nil, err
			}
			result["run_id"] = run.ID.String()
		}
		return result, nil
	}

	// Hourly staff: price each shift into the audit log
	snap, err := lib.ForDate(scenarioWeek.Start)
	if err != nil {
		return nil, err
	}
	overrides, err := h.Store.Overrides(ctx, spec.staff.ID)
	if err != nil {
		return nil, err
	}
	calc := pay.NewCalculator(snap)
	now := time.Now().UTC()
	recs := make([]pay.BreakdownRecord, 0, len(shifts))
	for _, s := range shifts {
		b, err := calc.CalculateShiftPay(s, spec.staff.Context(overrides, localDate(lib, s.Start)))
		if err != nil {
			return nil, err
		}
		recs = append(recs, pay.BreakdownRecord{Breakdown: b, Source: SourceCalculate, RecordedAt: now})
	}
	n, err := h.Audit.RecordNew(ctx, recs)
	if err != nil {
		return nil, err
	}
	result["recorded"] = n
	return result, nil
}

// ensureAward imports a preset unless the award is already stored.
func (h *Handler) ensureAward(ctx context.Context, preset catalog.Preset) (*award.Library, error) {
	def := preset.Build()
	lib, err := h.library(ctx, def.Award.ID)
	if err == nil {
		return lib, nil
	}
	if !errors.Is(err, award.ErrAwardNotFound) {
		return nil, err
	}
	if err := h.saveAward(ctx, def); err != nil {
		return nil, err
	}
	return h.library(ctx, def.Award.ID)
}

// ensureOverride approves an override unless its id is already stored.
func (h *Handler) ensureOverride(ctx context.Context, staff award.Staff, o award.RateOverride) error {
	existing, err := h.Store.Overrides(ctx, staff.ID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID == o.ID {
			return nil
		}
	}
	snap, err := h.snapshotFor(ctx, staff.AwardID, o.EffectiveFrom)
	if err != nil {
		return err
	}
	if err := pay.ValidateOverride(snap, staff.Context(nil, o.EffectiveFrom), o); err != nil {
		return err
	}
	return h.Store.SaveOverride(ctx, o)
}

// =============================================================================
// HELPERS
// =============================================================================

func scenarioStaff(id, name string, awardID award.AwardID, class award.ClassificationID, et award.EmploymentType) award.Staff {
	return award.Staff{ID: award.StaffID(id), Name: name, AwardID: awardID, ClassificationID: class, EmploymentType: et}
}

func salaryOverride(staffID, annual, absorbed string) *award.RateOverride {
	o := &award.RateOverride{
		ID:            award.OverrideID(staffID + "-salary"),
		StaffID:       award.StaffID(staffID),
		Type:          award.OverrideAnnualSalary,
		Value:         decimal.RequireFromString(annual),
		EffectiveFrom: award.NewDate(2024, 7, 1),
		ApprovedBy:    "payroll-manager",
		ApprovedAt:    time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC),
	}
	if absorbed != "" {
		o.Absorption = &award.Absorption{
			OvertimeHours: decimal.RequireFromString(absorbed),
			Description:   "Salary includes up to " + absorbed + " hours of overtime per week",
		}
	}
	return o
}

// scenarioShift is a July 2024 shift with one unpaid break.
func scenarioShift(loc *time.Location, id string, day, fromH, fromM, toH, toM, breakH, breakM, resumeH, resumeM int) pay.Shift {
	at := func(h, m int) time.Time { return time.Date(2024, time.July, day, h, m, 0, 0, loc) }
	return pay.Shift{
		ID:     id,
		Start:  at(fromH, fromM),
		End:    at(toH, toM),
		Breaks: []pay.Break{{Start: at(breakH, breakM), End: at(resumeH, resumeM)}},
	}
}

// fortyHourWeek is Monday to Friday 8:00-16:30 with a 30 minute lunch.
func fortyHourWeek(loc *time.Location) []pay.Shift {
	shifts := make([]pay.Shift, 0, 5)
	for day := 15; day <= 19; day++ {
		shifts = append(shifts, scenarioShift(loc, fmt.Sprintf("2024-07-%02d", day), day, 8, 0, 16, 30, 12, 0, 12, 30))
	}
	return shifts
}
