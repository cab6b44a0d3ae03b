/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the configuration store and the calculation-result stores
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  award.ConfigStore:  Award versions, rate history, staff and overrides
  pay.TimesheetStore: Worked shifts per staff member
  pay.BreakdownStore: Audit log of calculated breakdowns
  pay.RunStore:       Reconciliation runs

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE on breakdowns; a duplicate id is ErrDuplicateBreakdown
  - Award versions are inserted once; re-saving a version is a configuration error
  - Rate rows are only ever closed (effective_to set) and appended
  - Overrides are inserted once; a changed arrangement is a new override

KEY TABLES:
  awards:              One row per award version, definition as a document
  pay_rates:           Rate history shared by every version of an award
  staff:               Staff award coverage
  rate_overrides:      Approved above-award arrangements
  shifts:              Timesheet
  breakdowns:          Immutable log of calculated pay
  reconciliation_runs: Salary vs award reconciliation results

TIMESTAMPS:
  Dates are stored as YYYY-MM-DD. Instants that are ordered in SQL use a
  fixed-width UTC layout so string order equals time order.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/awards.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  lib, err := award.LoadLibrary(ctx, store, "childrens-services")

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - award/store.go, pay/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/pay"
)

// sortableTime keeps lexical order equal to chronological order.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	documents *factory.AwardFactory
}

var (
	_ award.ConfigStore  = (*Store)(nil)
	_ pay.BreakdownStore = (*Store)(nil)
	_ pay.TimesheetStore = (*Store)(nil)
	_ pay.RunStore       = (*Store)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, documents: factory.NewAwardFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Award versions (insert-only)
	CREATE TABLE IF NOT EXISTS awards (
		award_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		effective_from TEXT NOT NULL,
		name TEXT NOT NULL,
		document_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (award_id, version)
	);

	-- Rate history, one series per (classification, rate type)
	CREATE TABLE IF NOT EXISTS pay_rates (
		award_id TEXT NOT NULL,
		classification_id TEXT NOT NULL,
		rate_type TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		hourly_rate TEXT NOT NULL,
		version INTEGER NOT NULL,
		PRIMARY KEY (award_id, classification_id, rate_type, effective_from)
	);

	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		award_id TEXT NOT NULL,
		classification_id TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		qualifications_json TEXT NOT NULL,
		designations_json TEXT NOT NULL,
		experience_months INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_staff_award ON staff(award_id);

	CREATE TABLE IF NOT EXISTS rate_overrides (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		override_type TEXT NOT NULL,
		value TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		absorption_hours TEXT,
		absorption_description TEXT,
		approved_by TEXT,
		approved_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_overrides_staff
		ON rate_overrides(staff_id, effective_from);

	CREATE TABLE IF NOT EXISTS shifts (
		staff_id TEXT NOT NULL,
		id TEXT NOT NULL,
		shift_date TEXT NOT NULL,
		start_at TEXT NOT NULL,
		shift_json TEXT NOT NULL,
		PRIMARY KEY (staff_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_staff_date ON shifts(staff_id, shift_date);

	-- Breakdowns (append-only audit log)
	CREATE TABLE IF NOT EXISTS breakdowns (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		award_id TEXT NOT NULL,
		shift_date TEXT NOT NULL,
		start_at TEXT NOT NULL,
		total TEXT NOT NULL,
		source TEXT NOT NULL,
		breakdown_json TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_breakdowns_staff_date
		ON breakdowns(staff_id, shift_date);
	CREATE INDEX IF NOT EXISTS idx_breakdowns_start ON breakdowns(start_at);

	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		award_id TEXT NOT NULL,
		staff_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		shortfall TEXT NOT NULL,
		report_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_staff_period
		ON reconciliation_runs(staff_id, period_start, period_end);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// AWARDS (award.ConfigStore interface)
// =============================================================================

// SaveAward inserts a new award version and merges its rate rows into the
// award's shared rate history.
func (s *Store) SaveAward(ctx context.Context, def award.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := def.Award.ID
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM awards WHERE award_id = ? AND version = ?`,
		id, def.Award.Version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check award version: %w", err)
	}
	if exists > 0 {
		return &award.ConfigurationError{AwardID: id, Reason: fmt.Sprintf("version %d already exists", def.Award.Version)}
	}

	existing, err := s.loadRates(ctx, tx, id)
	if err != nil {
		return err
	}
	rows, err := award.MergeRateRows(existing, def.Rates)
	if err != nil {
		return err
	}

	stored := def
	stored.Rates = nil
	doc, err := json.Marshal(s.documents.ToDocument(stored))
	if err != nil {
		return fmt.Errorf("failed to encode award document: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO awards (award_id, version, effective_from, name, document_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, def.Award.Version, def.Award.EffectiveFrom.String(), def.Award.Name,
		string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert award: %w", err)
	}

	if err := s.upsertRates(ctx, tx, id, rows); err != nil {
		return err
	}
	return tx.Commit()
}

// AwardVersions returns every version of an award, oldest first.
func (s *Store) AwardVersions(ctx context.Context, id award.AwardID) ([]award.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_json FROM awards
		WHERE award_id = ?
		ORDER BY effective_from ASC, version ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query award versions: %w", err)
	}

	var defs []award.Definition
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		def, err := s.documents.ParseJSON([]byte(doc))
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to decode award %s: %w", id, err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: %s", award.ErrAwardNotFound, id)
	}

	rates, err := s.loadRates(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		defs[i].Rates = award.VersionRates(defs[i], rates)
	}
	return defs, nil
}

// ListAwards returns the latest version header of every award.
func (s *Store) ListAwards(ctx context.Context) ([]award.Award, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT award_id, document_json FROM awards
		ORDER BY award_id ASC, effective_from ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query awards: %w", err)
	}
	defer rows.Close()

	var out []award.Award
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		def, err := s.documents.ParseJSON([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("failed to decode award %s: %w", id, err)
		}
		// Later versions of the same award replace the earlier header
		if n := len(out); n > 0 && out[n-1].ID == def.Award.ID {
			out[n-1] = def.Award
			continue
		}
		out = append(out, def.Award)
	}
	return out, rows.Err()
}

// SupersedeRate closes the current row of the series and appends next.
func (s *Store) SupersedeRate(ctx context.Context, awardID award.AwardID, next award.PayRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var versions int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM awards WHERE award_id = ?`, awardID).Scan(&versions); err != nil {
		return fmt.Errorf("failed to check award: %w", err)
	}
	if versions == 0 {
		return fmt.Errorf("%w: %s", award.ErrAwardNotFound, awardID)
	}

	current, err := s.loadRates(ctx, tx, awardID)
	if err != nil {
		return err
	}
	table, err := award.NewRateTable(current)
	if err != nil {
		return err
	}
	updated, err := table.Supersede(next)
	if err != nil {
		return err
	}

	if err := s.upsertRates(ctx, tx, awardID, updated.Rows()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) loadRates(ctx context.Context, q querier, awardID award.AwardID) ([]award.PayRate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT classification_id, rate_type, effective_from, effective_to, hourly_rate, version
		FROM pay_rates
		WHERE award_id = ?
		ORDER BY classification_id, rate_type, effective_from`, awardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay rates: %w", err)
	}
	defer rows.Close()

	var out []award.PayRate
	for rows.Next() {
		var (
			r        award.PayRate
			from     string
			to       sql.NullString
			rateType string
		)
		if err := rows.Scan(&r.ClassificationID, &rateType, &from, &to, &r.HourlyRate, &r.Version); err != nil {
			return nil, fmt.Errorf("failed to scan pay rate: %w", err)
		}
		r.RateType = award.RateType(rateType)
		if r.EffectiveFrom, err = award.ParseDate(from); err != nil {
			return nil, err
		}
		if r.EffectiveTo, err = parseNullDate(to); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// upsertRates writes rows. Existing rows only ever change by being closed.
func (s *Store) upsertRates(ctx context.Context, q querier, awardID award.AwardID, rows []award.PayRate) error {
	for _, r := range rows {
		rateType := r.RateType
		if rateType == "" {
			rateType = award.RateOrdinary
		}
		var to sql.NullString
		if r.EffectiveTo != nil {
			to = nullString(r.EffectiveTo.String())
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO pay_rates
			(award_id, classification_id, rate_type, effective_from, effective_to, hourly_rate, version)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(award_id, classification_id, rate_type, effective_from)
			DO UPDATE SET effective_to = excluded.effective_to`,
			awardID, r.ClassificationID, rateType, r.EffectiveFrom.String(), to,
			r.HourlyRate.String(), r.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to write pay rate: %w", err)
		}
	}
	return nil
}

// =============================================================================
// STAFF
// =============================================================================

// SaveStaff creates or updates a staff record.
func (s *Store) SaveStaff(ctx context.Context, staff award.Staff) error {
	if staff.ID == "" {
		return &award.ValidationError{Field: "staff.id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	quals, _ := json.Marshal(emptyIfNil(staff.Qualifications))
	desigs, _ := json.Marshal(emptyIfNil(staff.Designations))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff
		(id, name, award_id, classification_id, employment_type,
		 qualifications_json, designations_json, experience_months, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			award_id = excluded.award_id,
			classification_id = excluded.classification_id,
			employment_type = excluded.employment_type,
			qualifications_json = excluded.qualifications_json,
			designations_json = excluded.designations_json,
			experience_months = excluded.experience_months,
			updated_at = excluded.updated_at`,
		staff.ID, staff.Name, staff.AwardID, staff.ClassificationID, staff.EmploymentType,
		string(quals), string(desigs), staff.ExperienceMonths,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save staff: %w", err)
	}
	return nil
}

// GetStaff retrieves a staff record by ID.
func (s *Store) GetStaff(ctx context.Context, id award.StaffID) (award.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, staffSelect+` WHERE id = ?`, id)
	staff, err := scanStaff(row)
	if err == sql.ErrNoRows {
		return award.Staff{}, fmt.Errorf("%w: %s", award.ErrStaffNotFound, id)
	}
	return staff, err
}

// ListStaff returns every staff record ordered by ID.
func (s *Store) ListStaff(ctx context.Context) ([]award.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, staffSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var out []award.Staff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, staff)
	}
	return out, rows.Err()
}

const staffSelect = `
	SELECT id, name, award_id, classification_id, employment_type,
	       qualifications_json, designations_json, experience_months
	FROM staff`

type scanner interface {
	Scan(dest ...any) error
}

func scanStaff(row scanner) (award.Staff, error) {
	var (
		staff         award.Staff
		et            string
		quals, desigs string
	)
	err := row.Scan(&staff.ID, &staff.Name, &staff.AwardID, &staff.ClassificationID, &et,
		&quals, &desigs, &staff.ExperienceMonths)
	if err != nil {
		if err == sql.ErrNoRows {
			return award.Staff{}, err
		}
		return award.Staff{}, fmt.Errorf("failed to scan staff: %w", err)
	}
	staff.EmploymentType = award.EmploymentType(et)
	if err := json.Unmarshal([]byte(quals), &staff.Qualifications); err != nil {
		return award.Staff{}, fmt.Errorf("failed to decode qualifications: %w", err)
	}
	if err := json.Unmarshal([]byte(desigs), &staff.Designations); err != nil {
		return award.Staff{}, fmt.Errorf("failed to decode designations: %w", err)
	}
	return staff, nil
}

// =============================================================================
// RATE OVERRIDES
// =============================================================================

// SaveOverride appends an override. Overrides are never updated.
func (s *Store) SaveOverride(ctx context.Context, o award.RateOverride) error {
	if o.ID == "" {
		return &award.ValidationError{Field: "override.id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var to, hours, desc, approvedAt sql.NullString
	if o.EffectiveTo != nil {
		to = nullString(o.EffectiveTo.String())
	}
	if o.Absorption != nil {
		hours = nullString(o.Absorption.OvertimeHours.String())
		desc = nullString(o.Absorption.Description)
	}
	if !o.ApprovedAt.IsZero() {
		approvedAt = nullString(o.ApprovedAt.UTC().Format(time.RFC3339Nano))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_overrides
		(id, staff_id, override_type, value, effective_from, effective_to,
		 absorption_hours, absorption_description, approved_by, approved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.StaffID, o.Type, o.Value.String(), o.EffectiveFrom.String(), to,
		hours, desc, nullString(o.ApprovedBy), approvedAt,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &award.ValidationError{Field: "override.id", Reason: "override " + string(o.ID) + " already exists"}
		}
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}

// Overrides returns a staff member's overrides ordered by effective date.
func (s *Store) Overrides(ctx context.Context, staffID award.StaffID) ([]award.RateOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_id, override_type, value, effective_from, effective_to,
		       absorption_hours, absorption_description, approved_by, approved_at
		FROM rate_overrides
		WHERE staff_id = ?
		ORDER BY effective_from ASC, created_at ASC`, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var out []award.RateOverride
	for rows.Next() {
		var (
			o                                       award.RateOverride
			typ, from                               string
			to, hours, desc, approvedBy, approvedAt sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.StaffID, &typ, &o.Value, &from, &to,
			&hours, &desc, &approvedBy, &approvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		o.Type = award.OverrideType(typ)
		o.ApprovedBy = approvedBy.String
		if o.EffectiveFrom, err = award.ParseDate(from); err != nil {
			return nil, err
		}
		if o.EffectiveTo, err = parseNullDate(to); err != nil {
			return nil, err
		}
		if hours.Valid {
			h, err := decimal.NewFromString(hours.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse absorption hours: %w", err)
			}
			o.Absorption = &award.Absorption{OvertimeHours: h, Description: desc.String}
		}
		if approvedAt.Valid {
			o.ApprovedAt, _ = time.Parse(time.RFC3339Nano, approvedAt.String)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// =============================================================================
// TIMESHEET (pay.TimesheetStore interface)
// =============================================================================

// SaveShift stores or replaces a shift by its ID.
func (s *Store) SaveShift(ctx context.Context, staffID award.StaffID, shift pay.Shift) error {
	if shift.ID == "" {
		return &award.ValidationError{Field: "shift.id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(shift)
	if err != nil {
		return fmt.Errorf("failed to encode shift: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shifts (staff_id, id, shift_date, start_at, shift_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(staff_id, id) DO UPDATE SET
			shift_date = excluded.shift_date,
			start_at = excluded.start_at,
			shift_json = excluded.shift_json`,
		staffID, shift.ID, award.DateOf(shift.Start).String(),
		shift.Start.UTC().Format(sortableTime), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

// ShiftsInRange returns shifts starting in [from, to], ordered by start.
func (s *Store) ShiftsInRange(ctx context.Context, staffID award.StaffID, from, to award.Date) ([]pay.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT shift_json FROM shifts
		WHERE staff_id = ? AND shift_date >= ? AND shift_date <= ?
		ORDER BY start_at ASC`,
		staffID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var out []pay.Shift
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		var shift pay.Shift
		if err := json.Unmarshal([]byte(data), &shift); err != nil {
			return nil, fmt.Errorf("failed to decode shift: %w", err)
		}
		out = append(out, shift)
	}
	return out, rows.Err()
}

// =============================================================================
// BREAKDOWN STORE (pay.BreakdownStore interface)
// =============================================================================

// AppendBreakdown adds one record to the audit log.
func (s *Store) AppendBreakdown(ctx context.Context, rec pay.BreakdownRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendBreakdown(ctx, s.db, rec)
}

// AppendBreakdowns adds records atomically.
func (s *Store) AppendBreakdowns(ctx context.Context, recs []pay.BreakdownRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := s.appendBreakdown(ctx, tx, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) appendBreakdown(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, rec pay.BreakdownRecord) error {
	b := rec.Breakdown
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}
	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO breakdowns
		(id, staff_id, award_id, shift_date, start_at, total, source, breakdown_json, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.StaffID, b.AwardID, b.Date().String(),
		b.Start.UTC().Format(sortableTime), b.Total.StringFixed(award.MoneyPlaces),
		rec.Source, string(data), recordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return award.ErrDuplicateBreakdown
		}
		return fmt.Errorf("failed to append breakdown: %w", err)
	}
	return nil
}

// BreakdownExists reports whether a breakdown id is recorded.
func (s *Store) BreakdownExists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM breakdowns WHERE id = ?`, id.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check breakdown: %w", err)
	}
	return count > 0, nil
}

// GetBreakdown retrieves one record by breakdown id.
func (s *Store) GetBreakdown(ctx context.Context, id uuid.UUID) (pay.BreakdownRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, breakdownSelect+` WHERE id = ?`, id.String())
	rec, err := scanBreakdown(row)
	if err == sql.ErrNoRows {
		return pay.BreakdownRecord{}, fmt.Errorf("%w: %s", award.ErrBreakdownNotFound, id)
	}
	return rec, err
}

// ListBreakdowns returns matching records ordered by shift start.
func (s *Store) ListBreakdowns(ctx context.Context, filter pay.BreakdownFilter) ([]pay.BreakdownRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.StaffID != "" {
		where = append(where, "staff_id = ?")
		args = append(args, filter.StaffID)
	}
	if filter.From != nil {
		where = append(where, "shift_date >= ?")
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		where = append(where, "shift_date <= ?")
		args = append(args, filter.To.String())
	}

	query := breakdownSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_at ASC, recorded_at ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdowns: %w", err)
	}
	defer rows.Close()

	var out []pay.BreakdownRecord
	for rows.Next() {
		rec, err := scanBreakdown(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const breakdownSelect = `SELECT source, breakdown_json, recorded_at FROM breakdowns`

func scanBreakdown(row scanner) (pay.BreakdownRecord, error) {
	var (
		rec              pay.BreakdownRecord
		data, recordedAt string
	)
	if err := row.Scan(&rec.Source, &data, &recordedAt); err != nil {
		if err == sql.ErrNoRows {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &rec.Breakdown); err != nil {
		return rec, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	rec.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
	return rec, nil
}

// =============================================================================
// RECONCILIATION RUNS (pay.RunStore interface)
// =============================================================================

// SaveRun stores a reconciliation run.
func (s *Store) SaveRun(ctx context.Context, run pay.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to encode reconciliation report: %w", err)
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_runs
		(id, award_id, staff_id, period_start, period_end, shortfall, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.AwardID, run.StaffID,
		run.Period.Start.String(), run.Period.End.String(),
		run.Report.Shortfall.StringFixed(award.MoneyPlaces), string(data),
		createdAt.UTC().Format(sortableTime),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &award.ValidationError{Field: "run.id", Reason: "run " + run.ID.String() + " already exists"}
		}
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (pay.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, runSelect+` WHERE id = ?`, id.String())
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return pay.RunRecord{}, fmt.Errorf("%w: %s", award.ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns runs for a staff member (all staff when empty), oldest
// period first.
func (s *Store) ListRuns(ctx context.Context, staffID award.StaffID) ([]pay.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := runSelect
	var args []any
	if staffID != "" {
		query += ` WHERE staff_id = ?`
		args = append(args, staffID)
	}
	query += ` ORDER BY period_start ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation runs: %w", err)
	}
	defer rows.Close()

	var out []pay.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// RunExists reports whether the staff member's period was already reconciled.
func (s *Store) RunExists(ctx context.Context, staffID award.StaffID, period award.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reconciliation_runs
		WHERE staff_id = ? AND period_start = ? AND period_end = ?`,
		staffID, period.Start.String(), period.End.String(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check reconciliation run: %w", err)
	}
	return count > 0, nil
}

const runSelect = `
	SELECT id, award_id, staff_id, period_start, period_end, report_json, created_at
	FROM reconciliation_runs`

func scanRun(row scanner) (pay.RunRecord, error) {
	var (
		run                             pay.RunRecord
		id, start, end, data, createdAt string
	)
	if err := row.Scan(&id, &run.AwardID, &run.StaffID, &start, &end, &data, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return run, err
		}
		return run, fmt.Errorf("failed to scan reconciliation run: %w", err)
	}

	var err error
	if run.ID, err = uuid.Parse(id); err != nil {
		return run, fmt.Errorf("failed to parse run id: %w", err)
	}
	if run.Period.Start, err = award.ParseDate(start); err != nil {
		return run, err
	}
	if run.Period.End, err = award.ParseDate(end); err != nil {
		return run, err
	}
	if err := json.Unmarshal([]byte(data), &run.Report); err != nil {
		return run, fmt.Errorf("failed to decode reconciliation report: %w", err)
	}
	run.CreatedAt, _ = time.Parse(sortableTime, createdAt)
	return run, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseNullDate(s sql.NullString) (*award.Date, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := award.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
