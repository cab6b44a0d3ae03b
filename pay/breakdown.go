/*
Package pay is the calculation core: it composes an award Snapshot, a shift
and a staff context into an itemised PayBreakdown.

PURPOSE:
  Everything in this package is a pure function of its inputs. Nothing reads
  the clock, touches a store or logs. The same inputs always produce the same
  breakdown, byte for byte, including its ID.

PIPELINE (calculator.go):
  1. Segment the shift at midnight, penalty clock thresholds and allowance
     duration thresholds (segment.go)
  2. Price each segment: base rate, override, penalties, casual loading
     (penalty.go, override.go)
  3. Allocate overtime per calendar day and re-price the latest hours of each
     day (overtime.go)
  4. Absorb overtime covered by an annualised salary (override.go)
  5. Evaluate allowances once per shift (allowance.go)
  6. Merge into line items and total (breakdown.go)

ROUNDING:
  Hours are kept at 4dp. Effective hourly rates are rounded to the cent the
  way a published pay guide shows them; amounts are rounded to the cent once
  per line. Nothing else is rounded.
*/
package pay

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// LINE ITEMS
// =============================================================================

// Component names on line items.
const (
	ComponentOrdinary         = "ordinary"
	ComponentOvertimeTier1    = "overtime_tier1"
	ComponentOvertimeTier2    = "overtime_tier2"
	ComponentOvertimeAbsorbed = "overtime_absorbed"

	penaltyPrefix   = "penalty_"
	overtimePrefix  = "overtime_"
	allowancePrefix = "allowance_"
)

// LineKind separates worked-time lines from allowance lines.
type LineKind string

const (
	LineTime      LineKind = "time"
	LineAllowance LineKind = "allowance"
)

// LineItem is one row of a pay breakdown.
type LineItem struct {
	Component string
	Kind      LineKind
	Hours     decimal.Decimal // 4dp; zero for per-shift and per-occurrence allowances
	Rate      decimal.Decimal // 4dp
	Amount    decimal.Decimal // 2dp
}

type lineJSON struct {
	Component string   `json:"component"`
	Kind      LineKind `json:"kind"`
	Hours     string   `json:"hours"`
	Rate      string   `json:"rate"`
	Amount    string   `json:"amount"`
}

// =============================================================================
// DAY TOTALS - Per-day overtime outcome, carried between shifts
// =============================================================================

// DayTotals is what a shift contributed to one calendar day.
type DayTotals struct {
	Date     award.Date      `json:"date"`
	Worked   decimal.Decimal `json:"worked"`
	Ordinary decimal.Decimal `json:"ordinary"`
	Overtime decimal.Decimal `json:"overtime"`
}

// =============================================================================
// PAY BREAKDOWN
// =============================================================================

// PayBreakdown is the itemised result of one calculation. It is a value:
// line items are only reachable through Lines(), which returns a copy.
type PayBreakdown struct {
	ID               uuid.UUID
	AwardID          award.AwardID
	AwardVersion     int
	StaffID          award.StaffID
	ClassificationID award.ClassificationID
	EmploymentType   award.EmploymentType
	OverrideID       award.OverrideID
	ShiftID          string
	Start            time.Time
	End              time.Time

	PaidHours     decimal.Decimal // 4dp
	OvertimeHours decimal.Decimal // 4dp
	AbsorbedHours decimal.Decimal // 4dp, overtime hours absorbed by an override
	Absorbed      decimal.Decimal // 2dp, overtime differential absorbed; not part of Total
	Total         decimal.Decimal // 2dp

	Days []DayTotals

	lines []LineItem
}

// Lines returns a copy of the line items in output order.
func (b PayBreakdown) Lines() []LineItem {
	out := make([]LineItem, len(b.lines))
	copy(out, b.lines)
	return out
}

// Line returns the first line with the component.
func (b PayBreakdown) Line(component string) (LineItem, bool) {
	for _, l := range b.lines {
		if l.Component == component {
			return l, true
		}
	}
	return LineItem{}, false
}

// Date is the calendar day the shift started on.
func (b PayBreakdown) Date() award.Date { return award.DateOf(b.Start) }

type breakdownJSON struct {
	ID               uuid.UUID              `json:"id"`
	AwardID          award.AwardID          `json:"award_id"`
	AwardVersion     int                    `json:"award_version"`
	StaffID          award.StaffID          `json:"staff_id"`
	ClassificationID award.ClassificationID `json:"classification_id"`
	EmploymentType   award.EmploymentType   `json:"employment_type"`
	OverrideID       award.OverrideID       `json:"override_id,omitempty"`
	ShiftID          string                 `json:"shift_id,omitempty"`
	Start            time.Time              `json:"start"`
	End              time.Time              `json:"end"`
	PaidHours        string                 `json:"paid_hours"`
	OvertimeHours    string                 `json:"overtime_hours"`
	AbsorbedHours    string                 `json:"absorbed_hours"`
	Absorbed         string                 `json:"absorbed"`
	Total            string                 `json:"total"`
	Days             []DayTotals            `json:"days"`
	Lines            []lineJSON             `json:"lines"`
}

// MarshalJSON writes fixed-precision strings so exported figures match the
// breakdown exactly.
func (b PayBreakdown) MarshalJSON() ([]byte, error) {
	out := breakdownJSON{
		ID:               b.ID,
		AwardID:          b.AwardID,
		AwardVersion:     b.AwardVersion,
		StaffID:          b.StaffID,
		ClassificationID: b.ClassificationID,
		EmploymentType:   b.EmploymentType,
		OverrideID:       b.OverrideID,
		ShiftID:          b.ShiftID,
		Start:            b.Start,
		End:              b.End,
		PaidHours:        b.PaidHours.StringFixed(award.HourPlaces),
		OvertimeHours:    b.OvertimeHours.StringFixed(award.HourPlaces),
		AbsorbedHours:    b.AbsorbedHours.StringFixed(award.HourPlaces),
		Absorbed:         b.Absorbed.StringFixed(award.MoneyPlaces),
		Total:            b.Total.StringFixed(award.MoneyPlaces),
		Days:             b.Days,
		Lines:            make([]lineJSON, 0, len(b.lines)),
	}
	for _, l := range b.lines {
		out.Lines = append(out.Lines, lineJSON{
			Component: l.Component,
			Kind:      l.Kind,
			Hours:     l.Hours.StringFixed(award.HourPlaces),
			Rate:      l.Rate.StringFixed(award.RatePlaces),
			Amount:    l.Amount.StringFixed(award.MoneyPlaces),
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a breakdown back from the audit log.
func (b *PayBreakdown) UnmarshalJSON(data []byte) error {
	var in breakdownJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	parse := func(field, s string) (decimal.Decimal, error) {
		if s == "" {
			return decimal.Zero, nil
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, &award.ValidationError{Field: field, Reason: err.Error()}
		}
		return v, nil
	}

	out := PayBreakdown{
		ID:               in.ID,
		AwardID:          in.AwardID,
		AwardVersion:     in.AwardVersion,
		StaffID:          in.StaffID,
		ClassificationID: in.ClassificationID,
		EmploymentType:   in.EmploymentType,
		OverrideID:       in.OverrideID,
		ShiftID:          in.ShiftID,
		Start:            in.Start,
		End:              in.End,
		Days:             in.Days,
	}
	var err error
	if out.PaidHours, err = parse("paid_hours", in.PaidHours); err != nil {
		return err
	}
	if out.OvertimeHours, err = parse("overtime_hours", in.OvertimeHours); err != nil {
		return err
	}
	if out.AbsorbedHours, err = parse("absorbed_hours", in.AbsorbedHours); err != nil {
		return err
	}
	if out.Absorbed, err = parse("absorbed", in.Absorbed); err != nil {
		return err
	}
	if out.Total, err = parse("total", in.Total); err != nil {
		return err
	}
	for _, l := range in.Lines {
		line := LineItem{Component: l.Component, Kind: l.Kind}
		if line.Hours, err = parse("hours", l.Hours); err != nil {
			return err
		}
		if line.Rate, err = parse("rate", l.Rate); err != nil {
			return err
		}
		if line.Amount, err = parse("amount", l.Amount); err != nil {
			return err
		}
		out.lines = append(out.lines, line)
	}
	*b = out
	return nil
}

// =============================================================================
// ASSEMBLY
// =============================================================================

type lineKey struct {
	component string
	rate      string
}

// lineBuilder merges priced hours into line items. Lines with the same
// component and rate become one line; order is first appearance.
type lineBuilder struct {
	index map[lineKey]int
	hours []decimal.Decimal
	lines []LineItem
}

func newLineBuilder() *lineBuilder {
	return &lineBuilder{index: make(map[lineKey]int)}
}

func (lb *lineBuilder) addTime(component string, hours, rate decimal.Decimal) {
	if hours.IsZero() {
		return
	}
	key := lineKey{component, rate.String()}
	if i, ok := lb.index[key]; ok {
		lb.hours[i] = lb.hours[i].Add(hours)
		return
	}
	lb.index[key] = len(lb.lines)
	lb.hours = append(lb.hours, hours)
	lb.lines = append(lb.lines, LineItem{Component: component, Kind: LineTime, Rate: rate})
}

func (lb *lineBuilder) addAllowance(a AppliedAllowance) {
	lb.lines = append(lb.lines, LineItem{
		Component: allowancePrefix + string(a.Rule.ID),
		Kind:      LineAllowance,
		Hours:     a.Hours,
		Rate:      a.Rule.Amount.Round(award.RatePlaces),
		Amount:    a.Amount,
	})
	lb.hours = append(lb.hours, decimal.Zero)
}

// build finalises amounts and returns lines plus their total.
func (lb *lineBuilder) build() ([]LineItem, decimal.Decimal) {
	total := decimal.Zero
	out := make([]LineItem, len(lb.lines))
	for i, l := range lb.lines {
		if l.Kind == LineTime {
			l.Hours = lb.hours[i].Round(award.HourPlaces)
			l.Amount = award.RoundMoney(lb.hours[i].Mul(l.Rate))
		}
		total = total.Add(l.Amount)
		out[i] = l
	}
	return out, total
}
