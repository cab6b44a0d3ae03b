package award

import (
	"fmt"
	"sort"
	"time"
	_ "time/tzdata" // award time zones must resolve on hosts without zoneinfo

	"github.com/shopspring/decimal"
)

// DefaultSplitShiftGap is the unpaid gap beyond which a shift counts as split.
const DefaultSplitShiftGap = time.Hour

// =============================================================================
// DEFINITION - Everything one award version is made of
// =============================================================================

// Definition is the raw configuration of one award version, as supplied by the
// configuration store or an award document.
type Definition struct {
	Award           Award
	Classifications []Classification
	Rates           []PayRate
	Penalties       []PenaltyRule
	Allowances      []AllowanceRule
	Overtime        OvertimeConfig
	Holidays        Holidays

	// CasualLoading is the fraction of base added for casual employees (0.25 = 25%).
	CasualLoading decimal.Decimal

	// SplitShiftGap is the minimum unpaid gap that splits a shift (default 1h).
	SplitShiftGap time.Duration
}

// =============================================================================
// SNAPSHOT - Immutable configuration used by one calculation batch
// =============================================================================

// Snapshot is a validated, read-only award version. A batch of calculations
// captures one Snapshot and uses it throughout, so a configuration reload
// mid-batch never splits a shift across two rule versions.
type Snapshot struct {
	def             Definition
	classifications map[ClassificationID]Classification
	rates           *RateTable
	location        *time.Location
}

// NewSnapshot validates a definition and freezes it.
func NewSnapshot(def Definition) (*Snapshot, error) {
	a := def.Award
	if a.ID == "" {
		return nil, &ConfigurationError{Reason: "award id is required"}
	}
	if a.Version < 1 {
		return nil, &ConfigurationError{AwardID: a.ID, Reason: "award version must be at least 1"}
	}
	if a.EffectiveFrom.IsZero() {
		return nil, &ConfigurationError{AwardID: a.ID, Reason: "award effective-from date is required"}
	}
	if def.CasualLoading.IsNegative() {
		return nil, &ConfigurationError{AwardID: a.ID, Reason: "casual loading cannot be negative"}
	}
	if def.SplitShiftGap < 0 {
		return nil, &ConfigurationError{AwardID: a.ID, Reason: "split shift gap cannot be negative"}
	}
	if def.SplitShiftGap == 0 {
		def.SplitShiftGap = DefaultSplitShiftGap
	}

	loc := time.UTC
	if a.TimeZone != "" {
		l, err := time.LoadLocation(a.TimeZone)
		if err != nil {
			return nil, &ConfigurationError{AwardID: a.ID, Reason: fmt.Sprintf("unknown time zone %q", a.TimeZone)}
		}
		loc = l
	}

	s := &Snapshot{
		def:             cloneDefinition(def),
		classifications: make(map[ClassificationID]Classification, len(def.Classifications)),
		location:        loc,
	}

	for _, c := range s.def.Classifications {
		if c.ID == "" {
			return nil, &ConfigurationError{AwardID: a.ID, Reason: "classification id is required"}
		}
		if c.AwardID != "" && c.AwardID != a.ID {
			return nil, &ConfigurationError{AwardID: a.ID, ClassificationID: c.ID, Reason: "classification belongs to award " + string(c.AwardID)}
		}
		if _, dup := s.classifications[c.ID]; dup {
			return nil, &ConfigurationError{AwardID: a.ID, ClassificationID: c.ID, Reason: "duplicate classification"}
		}
		for _, et := range c.EmploymentTypes {
			if !et.Valid() {
				return nil, &ConfigurationError{AwardID: a.ID, ClassificationID: c.ID, Reason: fmt.Sprintf("unknown employment type %q", et)}
			}
		}
		c.AwardID = a.ID
		s.classifications[c.ID] = c
	}

	for _, r := range s.def.Rates {
		if _, ok := s.classifications[r.ClassificationID]; !ok {
			return nil, &ConfigurationError{AwardID: a.ID, ClassificationID: r.ClassificationID, Reason: "rate references unknown classification"}
		}
	}
	rates, err := NewRateTable(s.def.Rates)
	if err != nil {
		return nil, withAward(err, a.ID)
	}
	s.rates = rates
	for id := range s.classifications {
		if _, ok := rates.History(id, RateOrdinary); !ok {
			return nil, &ConfigurationError{AwardID: a.ID, ClassificationID: id, Reason: "classification has no ordinary rate"}
		}
	}

	seen := make(map[RuleID]bool)
	for _, p := range s.def.Penalties {
		if err := p.Validate(a.ID); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, &ConfigurationError{AwardID: a.ID, RuleID: p.ID, Reason: "duplicate rule id"}
		}
		seen[p.ID] = true
	}
	for _, al := range s.def.Allowances {
		if err := al.Validate(a.ID); err != nil {
			return nil, err
		}
		if seen[al.ID] {
			return nil, &ConfigurationError{AwardID: a.ID, RuleID: al.ID, Reason: "duplicate rule id"}
		}
		seen[al.ID] = true
	}

	if err := s.def.Overtime.Default.Validate(); err != nil {
		return nil, withAward(err, a.ID)
	}
	for _, t := range s.def.Overtime.ByEmploymentType {
		if err := t.Validate(); err != nil {
			return nil, withAward(err, a.ID)
		}
	}

	return s, nil
}

func withAward(err error, id AwardID) error {
	if ce, ok := err.(*ConfigurationError); ok && ce.AwardID == "" {
		cp := *ce
		cp.AwardID = id
		return &cp
	}
	return err
}

func cloneDefinition(def Definition) Definition {
	out := def
	out.Classifications = append([]Classification(nil), def.Classifications...)
	out.Rates = append([]PayRate(nil), def.Rates...)
	out.Penalties = append([]PenaltyRule(nil), def.Penalties...)
	out.Allowances = append([]AllowanceRule(nil), def.Allowances...)
	out.Holidays = append(Holidays(nil), def.Holidays...)
	if def.Overtime.ByEmploymentType != nil {
		out.Overtime.ByEmploymentType = make(map[EmploymentType]OvertimeThresholds, len(def.Overtime.ByEmploymentType))
		for k, v := range def.Overtime.ByEmploymentType {
			out.Overtime.ByEmploymentType[k] = v
		}
	}
	return out
}

func (s *Snapshot) Award() Award { return s.def.Award }

// Definition returns a copy of the definition the snapshot was built from,
// with the rate rows as currently held by the table.
func (s *Snapshot) Definition() Definition {
	def := cloneDefinition(s.def)
	def.Rates = s.rates.Rows()
	return def
}

// Classification returns a classification or a configuration error.
func (s *Snapshot) Classification(id ClassificationID) (Classification, error) {
	c, ok := s.classifications[id]
	if !ok {
		return Classification{}, &ConfigurationError{AwardID: s.def.Award.ID, ClassificationID: id, Reason: "unknown classification"}
	}
	return c, nil
}

func (s *Snapshot) Rates() *RateTable { return s.rates }

// Floor returns the award minimum hourly rate for a classification on a date.
func (s *Snapshot) Floor(id ClassificationID, asOf Date) (decimal.Decimal, error) {
	rate, err := s.rates.Resolve(id, RateOrdinary, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.HourlyRate, nil
}

// Penalties returns the penalty rules. Callers must not modify the slice.
func (s *Snapshot) Penalties() []PenaltyRule { return s.def.Penalties }

// Allowances returns the allowance rules. Callers must not modify the slice.
func (s *Snapshot) Allowances() []AllowanceRule { return s.def.Allowances }

func (s *Snapshot) Overtime() OvertimeConfig          { return s.def.Overtime }
func (s *Snapshot) CasualLoading() decimal.Decimal    { return s.def.CasualLoading }
func (s *Snapshot) SplitShiftGap() time.Duration      { return s.def.SplitShiftGap }
func (s *Snapshot) Location() *time.Location          { return s.location }
func (s *Snapshot) DayType(d Date) DayType            { return DayTypeOf(d, s.def.Holidays) }
func (s *Snapshot) Holidays() HolidayCalendar         { return s.def.Holidays }
func (s *Snapshot) EffectiveFrom() Date               { return s.def.Award.EffectiveFrom }

// WithRate returns a new snapshot whose rate table has next superseding the
// current row. The receiver is unchanged.
func (s *Snapshot) WithRate(next PayRate) (*Snapshot, error) {
	if _, err := s.Classification(next.ClassificationID); err != nil {
		return nil, err
	}
	rates, err := s.rates.Supersede(next)
	if err != nil {
		return nil, withAward(err, s.def.Award.ID)
	}
	cp := *s
	cp.rates = rates
	return &cp, nil
}

// =============================================================================
// LIBRARY - Every version of one award
// =============================================================================

// Library selects the award version in force on a date.
type Library struct {
	versions []*Snapshot // sorted by EffectiveFrom
}

// NewLibrary builds a library from versions of the same award.
func NewLibrary(versions ...*Snapshot) (*Library, error) {
	if len(versions) == 0 {
		return nil, &ConfigurationError{Reason: "award library needs at least one version"}
	}
	sorted := append([]*Snapshot(nil), versions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom().Before(sorted[j].EffectiveFrom())
	})

	id := sorted[0].Award().ID
	for i, v := range sorted {
		if v.Award().ID != id {
			return nil, &ConfigurationError{AwardID: id, Reason: "library mixes awards " + string(v.Award().ID)}
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if !prev.EffectiveFrom().Before(v.EffectiveFrom()) {
			return nil, &ConfigurationError{AwardID: id, Date: v.EffectiveFrom(), Reason: "two award versions take effect on the same date"}
		}
		if v.Award().Version <= prev.Award().Version {
			return nil, &ConfigurationError{AwardID: id, Date: v.EffectiveFrom(), Reason: "award versions must increase with effective date"}
		}
	}
	return &Library{versions: sorted}, nil
}

// BuildLibrary validates every definition and builds a library from them.
func BuildLibrary(defs []Definition) (*Library, error) {
	snaps := make([]*Snapshot, 0, len(defs))
	for _, def := range defs {
		s, err := NewSnapshot(def)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return NewLibrary(snaps...)
}

func (l *Library) AwardID() AwardID { return l.versions[0].Award().ID }

// ForDate returns the version in force on d.
func (l *Library) ForDate(d Date) (*Snapshot, error) {
	idx := sort.Search(len(l.versions), func(i int) bool {
		return l.versions[i].EffectiveFrom().After(d)
	}) - 1
	if idx < 0 {
		return nil, &ConfigurationError{AwardID: l.AwardID(), Date: d, Reason: "no award version in force"}
	}
	return l.versions[idx], nil
}

// Latest returns the most recent version.
func (l *Library) Latest() *Snapshot { return l.versions[len(l.versions)-1] }

// Versions returns every version, oldest first.
func (l *Library) Versions() []*Snapshot { return append([]*Snapshot(nil), l.versions...) }

// With returns a new library that includes v.
func (l *Library) With(v *Snapshot) (*Library, error) {
	return NewLibrary(append(l.Versions(), v)...)
}
