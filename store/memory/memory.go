// Package memory provides in-memory implementations of the award and pay stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/pay"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements award.ConfigStore, pay.BreakdownStore, pay.TimesheetStore
// and pay.RunStore.
type Memory struct {
	mu sync.RWMutex

	awards    map[award.AwardID][]award.Definition // versions, oldest first
	rates     map[award.AwardID][]award.PayRate
	staff     map[award.StaffID]award.Staff
	overrides map[award.StaffID][]award.RateOverride
	shifts    map[award.StaffID]map[string]pay.Shift

	breakdowns []pay.BreakdownRecord
	recorded   map[uuid.UUID]int // index into breakdowns

	runs map[uuid.UUID]pay.RunRecord
}

var (
	_ award.ConfigStore  = (*Memory)(nil)
	_ pay.BreakdownStore = (*Memory)(nil)
	_ pay.TimesheetStore = (*Memory)(nil)
	_ pay.RunStore       = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		awards:    make(map[award.AwardID][]award.Definition),
		rates:     make(map[award.AwardID][]award.PayRate),
		staff:     make(map[award.StaffID]award.Staff),
		overrides: make(map[award.StaffID][]award.RateOverride),
		shifts:    make(map[award.StaffID]map[string]pay.Shift),
		recorded:  make(map[uuid.UUID]int),
		runs:      make(map[uuid.UUID]pay.RunRecord),
	}
}

// =============================================================================
// CONFIG STORE
// =============================================================================

func (m *Memory) SaveAward(_ context.Context, def award.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := def.Award.ID
	versions := m.awards[id]
	for _, v := range versions {
		if v.Award.Version == def.Award.Version {
			return &award.ConfigurationError{AwardID: id, Reason: fmt.Sprintf("version %d already exists", def.Award.Version)}
		}
	}

	rows, err := award.MergeRateRows(m.rates[id], def.Rates)
	if err != nil {
		return err
	}

	stored := def
	stored.Rates = nil
	// Insertion keeps versions ordered by effective date
	i := sort.Search(len(versions), func(i int) bool {
		return versions[i].Award.EffectiveFrom.After(def.Award.EffectiveFrom)
	})
	versions = append(versions, award.Definition{})
	copy(versions[i+1:], versions[i:])
	versions[i] = stored

	m.awards[id] = versions
	m.rates[id] = rows
	return nil
}

func (m *Memory) AwardVersions(_ context.Context, id award.AwardID) ([]award.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions, ok := m.awards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", award.ErrAwardNotFound, id)
	}
	out := make([]award.Definition, len(versions))
	for i, v := range versions {
		v.Rates = award.VersionRates(v, m.rates[id])
		out[i] = v
	}
	return out, nil
}

func (m *Memory) ListAwards(_ context.Context) ([]award.Award, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]award.Award, 0, len(m.awards))
	for _, versions := range m.awards {
		out = append(out, versions[len(versions)-1].Award)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SupersedeRate(_ context.Context, awardID award.AwardID, next award.PayRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.awards[awardID]; !ok {
		return fmt.Errorf("%w: %s", award.ErrAwardNotFound, awardID)
	}
	table, err := award.NewRateTable(m.rates[awardID])
	if err != nil {
		return err
	}
	updated, err := table.Supersede(next)
	if err != nil {
		return err
	}
	m.rates[awardID] = updated.Rows()
	return nil
}

func (m *Memory) SaveStaff(_ context.Context, s award.Staff) error {
	if s.ID == "" {
		return &award.ValidationError{Field: "staff.id", Reason: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[s.ID] = s
	return nil
}

func (m *Memory) GetStaff(_ context.Context, id award.StaffID) (award.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.staff[id]
	if !ok {
		return award.Staff{}, fmt.Errorf("%w: %s", award.ErrStaffNotFound, id)
	}
	return s, nil
}

func (m *Memory) ListStaff(_ context.Context) ([]award.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]award.Staff, 0, len(m.staff))
	for _, s := range m.staff {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveOverride(_ context.Context, o award.RateOverride) error {
	if o.ID == "" {
		return &award.ValidationError{Field: "override.id", Reason: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.overrides[o.StaffID] {
		if existing.ID == o.ID {
			return &award.ValidationError{Field: "override.id", Reason: "override " + string(o.ID) + " already exists"}
		}
	}
	m.overrides[o.StaffID] = append(m.overrides[o.StaffID], o)
	return nil
}

func (m *Memory) Overrides(_ context.Context, staffID award.StaffID) ([]award.RateOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]award.RateOverride(nil), m.overrides[staffID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveFrom.Before(out[j].EffectiveFrom) })
	return out, nil
}

// =============================================================================
// TIMESHEET STORE
// =============================================================================

func (m *Memory) SaveShift(_ context.Context, staffID award.StaffID, shift pay.Shift) error {
	if shift.ID == "" {
		return &award.ValidationError{Field: "shift.id", Reason: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shifts[staffID] == nil {
		m.shifts[staffID] = make(map[string]pay.Shift)
	}
	m.shifts[staffID][shift.ID] = shift
	return nil
}

func (m *Memory) ShiftsInRange(_ context.Context, staffID award.StaffID, from, to award.Date) ([]pay.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []pay.Shift
	for _, s := range m.shifts[staffID] {
		d := award.DateOf(s.Start)
		if !d.Before(from) && !d.After(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// =============================================================================
// BREAKDOWN STORE (append-only)
// =============================================================================

func (m *Memory) AppendBreakdown(_ context.Context, rec pay.BreakdownRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.recorded[rec.Breakdown.ID]; dup {
		return award.ErrDuplicateBreakdown
	}
	m.appendLocked(rec)
	return nil
}

// AppendBreakdowns adds records atomically.
func (m *Memory) AppendBreakdowns(_ context.Context, recs []pay.BreakdownRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check every id first so a failure leaves the log untouched
	batch := make(map[uuid.UUID]bool, len(recs))
	for _, rec := range recs {
		id := rec.Breakdown.ID
		if _, dup := m.recorded[id]; dup || batch[id] {
			return award.ErrDuplicateBreakdown
		}
		batch[id] = true
	}
	for _, rec := range recs {
		m.appendLocked(rec)
	}
	return nil
}

func (m *Memory) appendLocked(rec pay.BreakdownRecord) {
	m.recorded[rec.Breakdown.ID] = len(m.breakdowns)
	m.breakdowns = append(m.breakdowns, rec)
}

func (m *Memory) BreakdownExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.recorded[id]
	return ok, nil
}

func (m *Memory) GetBreakdown(_ context.Context, id uuid.UUID) (pay.BreakdownRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.recorded[id]
	if !ok {
		return pay.BreakdownRecord{}, fmt.Errorf("%w: %s", award.ErrBreakdownNotFound, id)
	}
	return m.breakdowns[i], nil
}

func (m *Memory) ListBreakdowns(_ context.Context, filter pay.BreakdownFilter) ([]pay.BreakdownRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []pay.BreakdownRecord
	for _, rec := range m.breakdowns {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Breakdown.Start.Before(out[j].Breakdown.Start) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// =============================================================================
// RUN STORE
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run pay.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.runs[run.ID]; dup {
		return &award.ValidationError{Field: "run.id", Reason: "run " + run.ID.String() + " already exists"}
	}
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id uuid.UUID) (pay.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return pay.RunRecord{}, fmt.Errorf("%w: %s", award.ErrRunNotFound, id)
	}
	return run, nil
}

func (m *Memory) ListRuns(_ context.Context, staffID award.StaffID) ([]pay.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []pay.RunRecord
	for _, run := range m.runs {
		if staffID == "" || run.StaffID == staffID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Period.Start.Equal(out[j].Period.Start) {
			return out[i].Period.Start.Before(out[j].Period.Start)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) RunExists(_ context.Context, staffID award.StaffID, period award.Period) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, run := range m.runs {
		if run.StaffID == staffID && run.Period.Start.Equal(period.Start) && run.Period.End.Equal(period.End) {
			return true, nil
		}
	}
	return false, nil
}
