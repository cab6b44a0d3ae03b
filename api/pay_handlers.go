package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/pay"
	"github.com/warp/award-engine/report"
	"go.uber.org/zap"
)

// Audit log sources.
const (
	SourceCalculate = "calculate"
	SourceSimulate  = "simulate"
	SourceReconcile = "reconcile"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// CALCULATION
// =============================================================================

// Calculate prices one shift for a stored staff member against the award
// version in force on the shift date.
// POST /api/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	shift := req.Shift.toShift()
	if req.Prior != nil {
		shift.Prior = *req.Prior
	}

	staff, err := h.Store.GetStaff(ctx, award.StaffID(req.StaffID))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get staff", err)
		return
	}
	lib, err := h.library(ctx, staff.AwardID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load award", err)
		return
	}
	on := localDate(lib, shift.Start)
	snap, err := lib.ForDate(on)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load award", err)
		return
	}
	overrides, err := h.Store.Overrides(ctx, staff.ID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load overrides", err)
		return
	}

	b, err := pay.NewCalculator(snap).CalculateShiftPay(shift, staff.Context(overrides, on))
	if err != nil {
		h.writeDomainError(w, r, "Calculation failed", err)
		return
	}

	resp := CalculateResponse{Breakdown: b}
	if req.Record {
		n, err := h.Audit.RecordNew(ctx, []pay.BreakdownRecord{{Breakdown: b, Source: SourceCalculate, RecordedAt: time.Now().UTC()}})
		if err != nil {
			h.writeDomainError(w, r, "Failed to record breakdown", err)
			return
		}
		resp.Recorded = n == 1
	}
	writeJSON(w, http.StatusOK, resp)
}

// Simulate prices a batch of independent shifts on a worker pool. The whole
// batch uses the one award version captured before the first job starts.
// POST /api/simulate
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SimulateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	switch {
	case req.AwardID == "":
		h.writeDomainError(w, r, "Invalid simulation", &award.ValidationError{Field: "award_id", Reason: "required"})
		return
	case len(req.Jobs) == 0:
		h.writeDomainError(w, r, "Invalid simulation", &award.ValidationError{Field: "jobs", Reason: "at least one job is required"})
		return
	case h.Simulation.MaxJobs > 0 && len(req.Jobs) > h.Simulation.MaxJobs:
		h.writeDomainError(w, r, "Invalid simulation", &award.ValidationError{Field: "jobs",
			Reason: fmt.Sprintf("%d jobs exceed the limit of %d", len(req.Jobs), h.Simulation.MaxJobs)})
		return
	}

	awardID := award.AwardID(req.AwardID)
	lib, err := h.library(ctx, awardID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load award", err)
		return
	}

	jobs, err := h.simulationJobs(ctx, lib, awardID, req.Jobs)
	if err != nil {
		h.writeDomainError(w, r, "Invalid simulation", err)
		return
	}

	asOf := localDate(lib, jobs[0].Shift.Start)
	for _, j := range jobs[1:] {
		if d := localDate(lib, j.Shift.Start); d.Before(asOf) {
			asOf = d
		}
	}
	if asOf, err = queryDateValue("as_of", req.AsOf, asOf); err != nil {
		h.writeDomainError(w, r, "Invalid simulation", err)
		return
	}
	snap, err := lib.ForDate(asOf)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load award", err)
		return
	}

	started := time.Now()
	results := pay.Simulate(ctx, pay.NewCalculator(snap), jobs, h.Simulation.Workers)
	summary := pay.Summarize(results)

	resp := SimulateResponse{
		AwardID:      req.AwardID,
		AwardVersion: snap.Award().Version,
		Jobs:         summary.Jobs,
		Succeeded:    summary.Succeeded,
		Failed:       summary.Failed,
		Hours:        summary.Hours.StringFixed(award.HourPlaces),
		Total:        summary.Total.StringFixed(award.MoneyPlaces),
		Results:      make([]SimulationResultDTO, 0, len(results)),
	}
	var recs []pay.BreakdownRecord
	now := time.Now().UTC()
	for _, res := range results {
		dto := SimulationResultDTO{JobID: res.JobID}
		if res.Err != nil {
			dto.Error = res.Err.Error()
		} else {
			b := res.Breakdown
			dto.Breakdown = &b
			recs = append(recs, pay.BreakdownRecord{Breakdown: b, Source: SourceSimulate, RecordedAt: now})
		}
		resp.Results = append(resp.Results, dto)
	}

	if req.Record && len(recs) > 0 {
		n, err := h.Audit.RecordNew(ctx, recs)
		if err != nil {
			h.writeDomainError(w, r, "Failed to record breakdowns", err)
			return
		}
		resp.Recorded = n
	}

	h.Log.Info("simulation complete",
		zap.String("award_id", req.AwardID),
		zap.Int("award_version", resp.AwardVersion),
		zap.Int("jobs", summary.Jobs),
		zap.Int("failed", summary.Failed),
		zap.String("total", resp.Total),
		zap.Duration("elapsed", time.Since(started)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// simulationJobs resolves each job's staff context: a stored staff member on
// this award, or a hypothetical one described inline.
func (h *Handler) simulationJobs(ctx context.Context, lib *award.Library, awardID award.AwardID, in []SimulationJobDTO) ([]pay.Job, error) {
	jobs := make([]pay.Job, 0, len(in))
	for i, j := range in {
		shift := j.Shift.toShift()
		id := j.ID
		if id == "" {
			id = strconv.Itoa(i)
		}

		var staff award.StaffContext
		if j.StaffID != "" {
			s, err := h.Store.GetStaff(ctx, award.StaffID(j.StaffID))
			if err != nil {
				return nil, err
			}
			if s.AwardID != awardID {
				return nil, &award.ValidationError{Field: fmt.Sprintf("jobs[%d].staff_id", i),
					Reason: fmt.Sprintf("staff member %s is covered by %s", s.ID, s.AwardID)}
			}
			overrides, err := h.Store.Overrides(ctx, s.ID)
			if err != nil {
				return nil, err
			}
			staff = s.Context(overrides, localDate(lib, shift.Start))
		} else {
			staff = award.StaffContext{
				ClassificationID: award.ClassificationID(j.ClassificationID),
				EmploymentType:   award.EmploymentType(j.EmploymentType),
				Qualifications:   j.Qualifications,
				Designations:     j.Designations,
			}
		}
		jobs = append(jobs, pay.Job{ID: id, Shift: shift, Staff: staff})
	}
	return jobs, nil
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// Reconcile compares a salaried staff member's pay for a period with the
// award entitlement of the shifts in their timesheet, and stores the run.
// POST /api/reconcile
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	periodType := h.Periods.Type
	if req.PeriodType != "" {
		periodType = award.PeriodType(req.PeriodType)
		if periodType.PeriodsPerYear() == 0 {
			h.writeDomainError(w, r, "Invalid period", &award.ValidationError{Field: "period_type", Reason: "use weekly, fortnightly or monthly"})
			return
		}
	}

	start, err := parseDate("period_start", req.PeriodStart)
	if err != nil {
		h.writeDomainError(w, r, "Invalid period", err)
		return
	}
	var period award.Period
	if req.PeriodEnd != "" {
		end, err := parseDate("period_end", req.PeriodEnd)
		if err != nil {
			h.writeDomainError(w, r, "Invalid period", err)
			return
		}
		period = award.Period{Start: start, End: end}
		if !period.Valid() {
			h.writeDomainError(w, r, "Invalid period", &award.ValidationError{Field: "period_end", Reason: "must not be before period_start"})
			return
		}
	} else {
		pc := h.Periods
		pc.Type = periodType
		period = pc.PeriodFor(start)
	}

	var salaryPaid *decimal.Decimal
	if req.SalaryPaid != "" {
		paid, err := parseDecimal("salary_paid", req.SalaryPaid)
		if err != nil {
			h.writeDomainError(w, r, "Invalid salary", err)
			return
		}
		salaryPaid = &paid
	}

	run, err := h.ReconcilePeriod(r.Context(), award.StaffID(req.StaffID), period, periodType, salaryPaid)
	if err != nil {
		h.writeDomainError(w, r, "Reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

// ReconcilePeriod reconciles one staff member over a pay period, stores the
// run and records every shift breakdown in the audit log. salaryPaid nil
// means the annual salary divided over periodType.
func (h *Handler) ReconcilePeriod(ctx context.Context, staffID award.StaffID, period award.Period, periodType award.PeriodType, salaryPaid *decimal.Decimal) (pay.RunRecord, error) {
	staff, err := h.Store.GetStaff(ctx, staffID)
	if err != nil {
		return pay.RunRecord{}, err
	}
	overrides, err := h.Store.Overrides(ctx, staffID)
	if err != nil {
		return pay.RunRecord{}, err
	}
	staffCtx := staff.Context(overrides, period.Start)

	paid := decimal.Zero
	switch {
	case salaryPaid != nil:
		paid = *salaryPaid
	case staffCtx.Override != nil && staffCtx.Override.Type == award.OverrideAnnualSalary:
		paid = award.RoundMoney(award.SalaryFor(*staffCtx.Override, periodType))
	default:
		return pay.RunRecord{}, &award.ValidationError{Field: "salary_paid",
			Reason: fmt.Sprintf("staff member %s has no annualised salary on %s", staffID, period.Start)}
	}

	snap, err := h.snapshotFor(ctx, staff.AwardID, period.Start)
	if err != nil {
		return pay.RunRecord{}, err
	}
	shifts, err := h.Store.ShiftsInRange(ctx, staffID, period.Start, period.End)
	if err != nil {
		return pay.RunRecord{}, err
	}

	rep, err := pay.NewReconciler(pay.NewCalculator(snap)).Reconcile(pay.ReconciliationInput{
		Staff:      staffCtx,
		Period:     period,
		SalaryPaid: paid,
		Shifts:     shifts,
	})
	if err != nil {
		return pay.RunRecord{}, err
	}

	now := time.Now().UTC()
	run := pay.RunRecord{
		ID:        uuid.New(),
		AwardID:   staff.AwardID,
		StaffID:   staffID,
		Period:    period,
		Report:    *rep,
		CreatedAt: now,
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		return pay.RunRecord{}, err
	}

	recs := make([]pay.BreakdownRecord, 0, len(rep.Details))
	for _, d := range rep.Details {
		recs = append(recs, pay.BreakdownRecord{Breakdown: d.Breakdown, Source: SourceReconcile, RecordedAt: now})
	}
	if _, err := h.Audit.RecordNew(ctx, recs); err != nil {
		return pay.RunRecord{}, err
	}

	fields := []zap.Field{
		zap.String("run_id", run.ID.String()),
		zap.String("staff_id", string(staffID)),
		zap.String("period", period.String()),
		zap.String("salary_paid", paid.StringFixed(award.MoneyPlaces)),
		zap.String("entitlement", rep.Entitlement.StringFixed(award.MoneyPlaces)),
	}
	if rep.Compliant() {
		h.Log.Info("reconciliation compliant", fields...)
	} else {
		h.Log.Warn("award shortfall", append(fields, zap.String("shortfall", rep.Shortfall.StringFixed(award.MoneyPlaces)))...)
	}
	return run, nil
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

// ListRuns returns reconciliation runs, optionally for one ?staff_id.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context(), award.StaffID(r.URL.Query().Get("staff_id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetRun returns one reconciliation run with its shift detail.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// ExportRun downloads one run as a workbook.
func (h *Handler) ExportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	h.writeWorkbook(w, r, "reconciliation-"+run.ID.String()+".xlsx", []pay.RunRecord{run})
}

// ExportRuns downloads every run (optionally for one ?staff_id) as a workbook.
func (h *Handler) ExportRuns(w http.ResponseWriter, r *http.Request) {
	staffID := r.URL.Query().Get("staff_id")
	runs, err := h.Store.ListRuns(r.Context(), award.StaffID(staffID))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list runs", err)
		return
	}
	name := "reconciliation.xlsx"
	if staffID != "" {
		name = "reconciliation-" + staffID + ".xlsx"
	}
	h.writeWorkbook(w, r, name, runs)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) (pay.RunRecord, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Invalid run id", &award.ValidationError{Field: "id", Reason: err.Error()})
		return pay.RunRecord{}, false
	}
	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get run", err)
		return pay.RunRecord{}, false
	}
	return run, true
}

func (h *Handler) writeWorkbook(w http.ResponseWriter, r *http.Request, name string, runs []pay.RunRecord) {
	buf, err := report.ReconciliationWorkbook(runs)
	if err != nil {
		h.writeDomainError(w, r, "Failed to build workbook", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// ListBreakdowns returns recorded breakdowns filtered by ?staff_id, ?from,
// ?to (shift start dates, inclusive) and ?limit.
func (h *Handler) ListBreakdowns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := pay.BreakdownFilter{StaffID: award.StaffID(q.Get("staff_id"))}
	if s := q.Get("from"); s != "" {
		from, err := parseDate("from", s)
		if err != nil {
			h.writeDomainError(w, r, "Invalid filter", err)
			return
		}
		filter.From = &from
	}
	if s := q.Get("to"); s != "" {
		to, err := parseDate("to", s)
		if err != nil {
			h.writeDomainError(w, r, "Invalid filter", err)
			return
		}
		filter.To = &to
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			h.writeDomainError(w, r, "Invalid filter", &award.ValidationError{Field: "limit", Reason: "must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	recs, err := h.Audit.History(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list breakdowns", err)
		return
	}
	dtos := make([]BreakdownRecordDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, toBreakdownRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"breakdowns": dtos})
}

// GetBreakdown returns one recorded breakdown.
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Invalid breakdown id", &award.ValidationError{Field: "id", Reason: err.Error()})
		return
	}
	rec, err := h.Store.GetBreakdown(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownRecordDTO(rec))
}

// queryDateValue parses an optional date value, returning def when empty.
func queryDateValue(field, s string, def award.Date) (award.Date, error) {
	if s == "" {
		return def, nil
	}
	return parseDate(field, s)
}
