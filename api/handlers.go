/*
handlers.go - HTTP API handlers for the award engine

PURPOSE:
  Exposes the award engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the award and pay packages.

ENDPOINTS:
  Awards:
    GET    /api/awards                 List awards (latest version header)
    POST   /api/awards                 Import an award document (JSON or YAML)
    GET    /api/awards/presets         List catalog presets
    POST   /api/awards/presets/{key}   Import a catalog preset
    GET    /api/awards/{id}            Every version as an award document
    GET    /api/awards/{id}/rates      Ordinary rates in force on ?as_of
    POST   /api/awards/{id}/rates      Supersede a classification rate

  Staff:
    GET    /api/staff                  List staff
    POST   /api/staff                  Create or update a staff member
    GET    /api/staff/{id}             Get a staff member
    GET    /api/staff/{id}/overrides   List overrides
    POST   /api/staff/{id}/overrides   Approve an override (floor-checked)
    GET    /api/staff/{id}/shifts      Timesheet between ?from and ?to
    POST   /api/staff/{id}/shifts      Record or correct a worked shift

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: persistence (store/sqlite in production)
  - Factory: award document conversion
  - Audit: append-only breakdown log
  - A library cache of validated award versions

SNAPSHOT CACHE:
  Each award's Library is built once and published through an atomic
  pointer. Requests read it without locking. Importing a version or
  superseding a rate builds a new library and swaps it in; a calculation
  already holding a Snapshot keeps using it until it finishes.

ERROR HANDLING:
  Errors are returned as JSON with a status and a machine-readable code:
  - 400 validation_error:    malformed input
  - 404 not_found:           unknown award, staff, run or breakdown
  - 409 duplicate:           breakdown already recorded
  - 422 below_award_floor:   override pays less than the award
  - 422 rate_not_found, configuration_error: award cannot price the request
  - 500 internal_error

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - pay_handlers.go: Calculation, simulation and reconciliation handlers
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/config"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/pay"
	"go.uber.org/zap"
)

// maxDocumentBytes bounds request bodies (award documents are the largest).
const maxDocumentBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is every persistence concern the API needs.
type Store interface {
	award.ConfigStore
	pay.TimesheetStore
	pay.BreakdownStore
	pay.RunStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Factory *factory.AwardFactory
	Audit   *pay.AuditLog
	Log     *zap.Logger

	// Simulation bounds the bulk endpoint
	Simulation config.SimulationConfig

	// Periods lays out pay periods for reconciliation requests that name a
	// period type instead of explicit dates, and divides annual salaries
	Periods award.PeriodConfig

	libraries libraryCache

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:      store,
		Factory:    factory.NewAwardFactory(),
		Audit:      pay.NewAuditLog(store),
		Log:        logger,
		Simulation: config.SimulationConfig{Workers: 8, MaxJobs: 10000},
		Periods:    award.PeriodConfig{Type: award.PeriodWeekly, WeekStart: time.Monday},
	}
}

// LoadAwards builds the library of every stored award into the cache.
func (h *Handler) LoadAwards(ctx context.Context) error {
	awards, err := h.Store.ListAwards(ctx)
	if err != nil {
		return err
	}
	for _, a := range awards {
		if err := h.reloadAward(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// LIBRARY CACHE
// =============================================================================

// libraryCache maps award ids to libraries. Readers load the map without
// locking. Writers read the store and publish a copy of the map under mu,
// so a library is never replaced by one read before it.
type libraryCache struct {
	mu   sync.Mutex
	libs atomic.Pointer[map[award.AwardID]*award.Library]
}

type libraryLoader func() (*award.Library, error)

func (c *libraryCache) get(id award.AwardID) (*award.Library, bool) {
	m := c.libs.Load()
	if m == nil {
		return nil, false
	}
	lib, ok := (*m)[id]
	return lib, ok
}

// load returns the cached library, calling fn when there is none yet.
func (c *libraryCache) load(id award.AwardID, fn libraryLoader) (*award.Library, error) {
	if lib, ok := c.get(id); ok {
		return lib, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have published while we waited.
	if lib, ok := c.get(id); ok {
		return lib, nil
	}
	lib, err := fn()
	if err != nil {
		return nil, err
	}
	c.publishLocked(lib)
	return lib, nil
}

// reload replaces the cached library with a fresh one from fn.
func (c *libraryCache) reload(fn libraryLoader) (*award.Library, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lib, err := fn()
	if err != nil {
		return nil, err
	}
	c.publishLocked(lib)
	return lib, nil
}

func (c *libraryCache) publishLocked(lib *award.Library) {
	next := make(map[award.AwardID]*award.Library)
	if m := c.libs.Load(); m != nil {
		for id, l := range *m {
			next[id] = l
		}
	}
	next[lib.AwardID()] = lib
	c.libs.Store(&next)
}

// library returns the cached library of an award, loading it on first use.
func (h *Handler) library(ctx context.Context, id award.AwardID) (*award.Library, error) {
	return h.libraries.load(id, func() (*award.Library, error) {
		return award.LoadLibrary(ctx, h.Store, id)
	})
}

// reloadAward rebuilds an award's library from the store and publishes it.
func (h *Handler) reloadAward(ctx context.Context, id award.AwardID) error {
	lib, err := h.libraries.reload(func() (*award.Library, error) {
		return award.LoadLibrary(ctx, h.Store, id)
	})
	if err != nil {
		return err
	}
	latest := lib.Latest().Award()
	h.Log.Info("award library loaded",
		zap.String("award_id", string(id)),
		zap.Int("versions", len(lib.Versions())),
		zap.Int("latest_version", latest.Version),
	)
	return nil
}

// snapshotFor returns the award version in force on a date.
func (h *Handler) snapshotFor(ctx context.Context, id award.AwardID, on award.Date) (*award.Snapshot, error) {
	lib, err := h.library(ctx, id)
	if err != nil {
		return nil, err
	}
	return lib.ForDate(on)
}

// localDate is the award calendar day an instant falls on.
func localDate(lib *award.Library, t time.Time) award.Date {
	if loc := lib.Latest().Location(); loc != nil {
		t = t.In(loc)
	}
	return award.DateOf(t)
}

// checkVersion validates a new award version against what is already stored:
// the version must build a snapshot with the shared rate history and slot
// into the library after the existing versions.
func (h *Handler) checkVersion(ctx context.Context, def award.Definition) error {
	lib, err := h.library(ctx, def.Award.ID)
	if errors.Is(err, award.ErrAwardNotFound) {
		_, err := award.NewSnapshot(def)
		return err
	}
	if err != nil {
		return err
	}

	merged, err := award.MergeRateRows(lib.Latest().Rates().Rows(), def.Rates)
	if err != nil {
		return err
	}
	check := def
	check.Rates = award.VersionRates(def, merged)
	snap, err := award.NewSnapshot(check)
	if err != nil {
		return err
	}
	_, err = lib.With(snap)
	return err
}

// saveAward validates and stores a definition, then refreshes the cache.
func (h *Handler) saveAward(ctx context.Context, def award.Definition) error {
	if err := h.checkVersion(ctx, def); err != nil {
		return err
	}
	if err := h.Store.SaveAward(ctx, def); err != nil {
		return err
	}
	return h.reloadAward(ctx, def.Award.ID)
}

// =============================================================================
// AWARD HANDLERS
// =============================================================================

// ListPresets returns the catalog awards that can be imported.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := catalog.Presets()
	dtos := make([]PresetDTO, 0, len(presets))
	for _, p := range presets {
		dtos = append(dtos, PresetDTO{Key: p.Key, Name: p.Name, Description: p.Description})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ImportPreset stores a catalog award.
// POST /api/awards/presets/{key}
func (h *Handler) ImportPreset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	preset, ok := catalog.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Preset not found", nil)
		return
	}

	def := preset.Build()
	if err := h.saveAward(r.Context(), def); err != nil {
		h.writeDomainError(w, r, "Failed to import preset", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAwardDTO(def.Award))
}

// SeedPresets imports the named catalog presets that the store doesn't
// hold yet.
func (h *Handler) SeedPresets(ctx context.Context, keys []string) error {
	for _, key := range keys {
		preset, ok := catalog.Lookup(key)
		if !ok {
			return fmt.Errorf("unknown preset %q", key)
		}
		lib, err := h.ensureAward(ctx, preset)
		if err != nil {
			return fmt.Errorf("failed to seed preset %s: %w", key, err)
		}
		h.Log.Info("preset ready", zap.String("preset", key), zap.Int("version", lib.Latest().Award().Version))
	}
	return nil
}

// ImportAward stores an award version from a JSON or YAML document.
// POST /api/awards
func (h *Handler) ImportAward(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read award document", err)
		return
	}

	var def award.Definition
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		def, err = h.Factory.ParseYAML(data)
	} else {
		def, err = h.Factory.ParseJSON(data)
	}
	if err != nil {
		h.writeDomainError(w, r, "Invalid award document", err)
		return
	}

	if err := h.saveAward(r.Context(), def); err != nil {
		h.writeDomainError(w, r, "Failed to import award", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAwardDTO(def.Award))
}

// ListAwards returns the latest version header of every award.
func (h *Handler) ListAwards(w http.ResponseWriter, r *http.Request) {
	awards, err := h.Store.ListAwards(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list awards", err)
		return
	}
	dtos := make([]AwardDTO, 0, len(awards))
	for _, a := range awards {
		dtos = append(dtos, toAwardDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAward returns every version of an award as award documents.
func (h *Handler) GetAward(w http.ResponseWriter, r *http.Request) {
	id := award.AwardID(chi.URLParam(r, "id"))
	lib, err := h.library(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get award", err)
		return
	}

	versions := lib.Versions()
	docs := make([]factory.AwardDocument, 0, len(versions))
	for _, v := range versions {
		docs = append(docs, h.Factory.ToDocument(v.Definition()))
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "versions": docs})
}

// GetRates returns the ordinary rate of every classification on ?as_of
// (default today).
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	id := award.AwardID(chi.URLParam(r, "id"))
	asOf, err := queryDate(r, "as_of", award.DateOf(time.Now()))
	if err != nil {
		h.writeDomainError(w, r, "Invalid as_of", err)
		return
	}

	snap, err := h.snapshotFor(r.Context(), id, asOf)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get rates", err)
		return
	}

	classes := snap.Definition().Classifications
	dtos := make([]RateDTO, 0, len(classes))
	for _, c := range classes {
		rate, err := snap.Rates().Resolve(c.ID, award.RateOrdinary, asOf)
		if err != nil {
			if errors.Is(err, award.ErrRateNotFound) {
				continue // classification not yet paid on this date
			}
			h.writeDomainError(w, r, "Failed to resolve rate", err)
			return
		}
		dtos = append(dtos, toRateDTO(rate))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"award_id": id,
		"version":  snap.Award().Version,
		"as_of":    asOf.String(),
		"rates":    dtos,
	})
}

// SupersedeRate closes a classification's current rate and starts a new one.
// POST /api/awards/{id}/rates
func (h *Handler) SupersedeRate(w http.ResponseWriter, r *http.Request) {
	id := award.AwardID(chi.URLParam(r, "id"))

	var req SupersedeRateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rate, err := parseDecimal("hourly_rate", req.HourlyRate)
	if err != nil {
		h.writeDomainError(w, r, "Invalid rate", err)
		return
	}
	from, err := parseDate("effective_from", req.EffectiveFrom)
	if err != nil {
		h.writeDomainError(w, r, "Invalid rate", err)
		return
	}
	rateType := award.RateType(req.RateType)
	if rateType == "" {
		rateType = award.RateOrdinary
	}

	next := award.PayRate{
		ClassificationID: award.ClassificationID(req.ClassificationID),
		RateType:         rateType,
		HourlyRate:       rate,
		EffectiveFrom:    from,
	}
	if err := h.Store.SupersedeRate(r.Context(), id, next); err != nil {
		h.writeDomainError(w, r, "Failed to supersede rate", err)
		return
	}
	if err := h.reloadAward(r.Context(), id); err != nil {
		h.writeDomainError(w, r, "Failed to reload award", err)
		return
	}

	h.Log.Info("rate superseded",
		zap.String("award_id", string(id)),
		zap.String("classification_id", req.ClassificationID),
		zap.String("hourly_rate", rate.String()),
		zap.String("effective_from", from.String()),
	)

	lib, err := h.library(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reload award", err)
		return
	}
	if history, ok := lib.Latest().Rates().History(next.ClassificationID, rateType); ok {
		next = history.Current()
	}
	writeJSON(w, http.StatusCreated, toRateDTO(next))
}

// =============================================================================
// STAFF HANDLERS
// =============================================================================

// ListStaff returns all staff.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.ListStaff(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list staff", err)
		return
	}
	dtos := make([]StaffDTO, 0, len(staff))
	for _, s := range staff {
		dtos = append(dtos, toStaffDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStaff returns a single staff member.
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Store.GetStaff(r.Context(), award.StaffID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get staff", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(staff))
}

// SaveStaff creates or updates a staff member. The classification must exist
// in the latest version of the staff member's award.
func (h *Handler) SaveStaff(w http.ResponseWriter, r *http.Request) {
	var req StaffDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	staff := req.toStaff()
	if err := h.checkStaff(r.Context(), staff); err != nil {
		h.writeDomainError(w, r, "Invalid staff member", err)
		return
	}
	if err := h.Store.SaveStaff(r.Context(), staff); err != nil {
		h.writeDomainError(w, r, "Failed to save staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffDTO(staff))
}

func (h *Handler) checkStaff(ctx context.Context, s award.Staff) error {
	switch {
	case s.ID == "":
		return &award.ValidationError{Field: "id", Reason: "required"}
	case s.AwardID == "":
		return &award.ValidationError{Field: "award_id", Reason: "required"}
	case !s.EmploymentType.Valid():
		return &award.ValidationError{Field: "employment_type", Reason: fmt.Sprintf("unknown employment type %q", s.EmploymentType)}
	}
	lib, err := h.library(ctx, s.AwardID)
	if err != nil {
		return err
	}
	class, err := lib.Latest().Classification(s.ClassificationID)
	if err != nil {
		return &award.ValidationError{Field: "classification_id", Reason: err.Error()}
	}
	if !class.Allows(s.EmploymentType) {
		return &award.ValidationError{Field: "employment_type",
			Reason: fmt.Sprintf("classification %s does not engage %s employees", class.ID, s.EmploymentType)}
	}
	return nil
}

// ListOverrides returns a staff member's overrides.
func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	id := award.StaffID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetStaff(r.Context(), id); err != nil {
		h.writeDomainError(w, r, "Failed to get staff", err)
		return
	}
	overrides, err := h.Store.Overrides(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list overrides", err)
		return
	}
	dtos := make([]OverrideDTO, 0, len(overrides))
	for _, o := range overrides {
		dtos = append(dtos, toOverrideDTO(o))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateOverride approves an above-award arrangement. The override is checked
// against the award floor in force on its effective-from date; an override
// below the floor is refused, never clamped.
// POST /api/staff/{id}/overrides
func (h *Handler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	staffID := award.StaffID(chi.URLParam(r, "id"))

	var req OverrideDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := req.toOverride(staffID)
	if err != nil {
		h.writeDomainError(w, r, "Invalid override", err)
		return
	}

	staff, err := h.Store.GetStaff(ctx, staffID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get staff", err)
		return
	}
	snap, err := h.snapshotFor(ctx, staff.AwardID, o.EffectiveFrom)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load award", err)
		return
	}
	if err := pay.ValidateOverride(snap, staff.Context(nil, o.EffectiveFrom), o); err != nil {
		h.writeDomainError(w, r, "Override refused", err)
		return
	}
	if err := h.Store.SaveOverride(ctx, o); err != nil {
		h.writeDomainError(w, r, "Failed to save override", err)
		return
	}

	h.Log.Info("override approved",
		zap.String("staff_id", string(staffID)),
		zap.String("override_id", string(o.ID)),
		zap.String("type", string(o.Type)),
		zap.String("value", o.Value.String()),
		zap.String("approved_by", o.ApprovedBy),
	)
	writeJSON(w, http.StatusCreated, toOverrideDTO(o))
}

func (d OverrideDTO) toOverride(staffID award.StaffID) (award.RateOverride, error) {
	value, err := parseDecimal("value", d.Value)
	if err != nil {
		return award.RateOverride{}, err
	}
	from, err := parseDate("effective_from", d.EffectiveFrom)
	if err != nil {
		return award.RateOverride{}, err
	}
	if d.ApprovedBy == "" {
		return award.RateOverride{}, &award.ValidationError{Field: "approved_by", Reason: "an override must be approved"}
	}

	o := award.RateOverride{
		ID:            award.OverrideID(d.ID),
		StaffID:       staffID,
		Type:          award.OverrideType(d.Type),
		Value:         value,
		EffectiveFrom: from,
		ApprovedBy:    d.ApprovedBy,
		ApprovedAt:    time.Now().UTC(),
	}
	if o.ID == "" {
		o.ID = award.OverrideID(uuid.NewString())
	}
	if d.EffectiveTo != nil {
		to, err := parseDate("effective_to", *d.EffectiveTo)
		if err != nil {
			return award.RateOverride{}, err
		}
		o.EffectiveTo = &to
	}
	if d.AbsorbedOvertimeHours != "" {
		hours, err := parseDecimal("absorbed_overtime_hours", d.AbsorbedOvertimeHours)
		if err != nil {
			return award.RateOverride{}, err
		}
		o.Absorption = &award.Absorption{OvertimeHours: hours, Description: d.AbsorptionNote}
	}
	if d.ApprovedAt != "" {
		at, err := time.Parse(time.RFC3339, d.ApprovedAt)
		if err != nil {
			return award.RateOverride{}, &award.ValidationError{Field: "approved_at", Reason: "use RFC 3339"}
		}
		o.ApprovedAt = at
	}
	return o, nil
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// ListShifts returns the shifts a staff member started between ?from and ?to.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	staffID := award.StaffID(chi.URLParam(r, "id"))
	from, err := parseDate("from", r.URL.Query().Get("from"))
	if err != nil {
		h.writeDomainError(w, r, "Invalid range", err)
		return
	}
	to, err := parseDate("to", r.URL.Query().Get("to"))
	if err != nil {
		h.writeDomainError(w, r, "Invalid range", err)
		return
	}

	shifts, err := h.Store.ShiftsInRange(r.Context(), staffID, from, to)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list shifts", err)
		return
	}
	dtos := make([]ShiftDTO, 0, len(shifts))
	for _, s := range shifts {
		dtos = append(dtos, toShiftDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveShift records a worked shift. Saving a shift with an existing id
// corrects it.
// POST /api/staff/{id}/shifts
func (h *Handler) SaveShift(w http.ResponseWriter, r *http.Request) {
	staffID := award.StaffID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetStaff(r.Context(), staffID); err != nil {
		h.writeDomainError(w, r, "Failed to get staff", err)
		return
	}

	var req ShiftDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	shift := req.toShift()
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if !shift.End.After(shift.Start) {
		h.writeDomainError(w, r, "Invalid shift", &award.ValidationError{Field: "shift.end", Reason: "must be after start"})
		return
	}

	if err := h.Store.SaveShift(r.Context(), staffID, shift); err != nil {
		h.writeDomainError(w, r, "Failed to save shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to a status and code.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error(message, zap.Error(err), zap.String("request_id", middleware.GetReqID(r.Context())))
	}
	writeError(w, status, code, message, err)
}

func classify(err error) (int, string) {
	switch {
	case award.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, award.ErrDuplicateBreakdown):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, award.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, award.ErrBelowAwardFloor):
		return http.StatusUnprocessableEntity, "below_award_floor"
	case errors.Is(err, award.ErrRateNotFound):
		return http.StatusUnprocessableEntity, "rate_not_found"
	case errors.Is(err, award.ErrConfiguration):
		return http.StatusUnprocessableEntity, "configuration_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", err)
		return false
	}
	return true
}

func parseDate(field, s string) (award.Date, error) {
	if s == "" {
		return award.Date{}, &award.ValidationError{Field: field, Reason: "required"}
	}
	d, err := award.ParseDate(s)
	if err != nil {
		return award.Date{}, &award.ValidationError{Field: field, Reason: err.Error()}
	}
	return d, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, &award.ValidationError{Field: field, Reason: "required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &award.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a decimal", s)}
	}
	return d, nil
}

// queryDate reads an optional date query parameter.
func queryDate(r *http.Request, name string, def award.Date) (award.Date, error) {
	return queryDateValue(name, r.URL.Query().Get(name), def)
}

func strPtr(s string) *string {
	return &s
}
