package pay

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// SHIFT INPUT
// =============================================================================

// Break is a break inside a shift. Unpaid breaks are removed from worked time.
type Break struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Paid  bool      `json:"paid"`
}

// Shift is one rostered or worked shift.
type Shift struct {
	ID     string     `json:"id,omitempty"`
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Breaks []Break    `json:"breaks,omitempty"`
	Prior  PriorHours `json:"prior"`
}

// PriorHours is what the staff member already worked before this shift.
// Overtime thresholds are daily and weekly, so a shift on its own cannot
// know whether its hours are ordinary.
type PriorHours struct {
	// Ordinary hours already worked this week (week of the shift's first day)
	WeekOrdinary decimal.Decimal `json:"week_ordinary"`

	// Hours already worked on calendar days this shift touches
	Days []DayPrior `json:"days,omitempty"`

	// Overtime hours already absorbed by an override this week
	AbsorbedOvertime decimal.Decimal `json:"absorbed_overtime"`
}

// DayPrior is hours already worked on one calendar day.
type DayPrior struct {
	Date     award.Date      `json:"date"`
	Worked   decimal.Decimal `json:"worked"`
	Overtime decimal.Decimal `json:"overtime"`
}

func (p PriorHours) day(date award.Date) DayPrior {
	for _, d := range p.Days {
		if d.Date.Equal(date) {
			return d
		}
	}
	return DayPrior{Date: date}
}

// =============================================================================
// SEGMENTS
// =============================================================================

// Segment is a contiguous piece of worked time sharing one calendar day and
// one penalty bucket.
type Segment struct {
	Start   time.Time
	End     time.Time
	Date    award.Date
	DayType award.DayType
	From    award.TimeOfDay // clock at Start
	To      award.TimeOfDay // clock at End; EndOfDay when End is the next midnight
	Hours   decimal.Decimal
}

// ShiftFacts is the whole-shift context allowances are evaluated against.
type ShiftFacts struct {
	Date          award.Date
	DayType       award.DayType
	PaidHours     decimal.Decimal
	SpreadHours   decimal.Decimal // first start to last finish, breaks included
	Splits        int             // unpaid gaps longer than the split-shift gap
	OvertimeHours decimal.Decimal
}

// validateShift rejects malformed shifts before any pricing.
func validateShift(shift Shift) error {
	if shift.Start.IsZero() || shift.End.IsZero() {
		return &award.ValidationError{Field: "shift", Reason: "start and end are required"}
	}
	if !shift.End.After(shift.Start) {
		return &award.ValidationError{Field: "shift", Reason: "end must be after start"}
	}
	if shift.End.Sub(shift.Start) > 7*24*time.Hour {
		return &award.ValidationError{Field: "shift", Reason: "shift longer than a week"}
	}

	breaks := sortedBreaks(shift.Breaks)
	for i, b := range breaks {
		if !b.End.After(b.Start) {
			return &award.ValidationError{Field: "breaks", Reason: "break end must be after break start"}
		}
		if b.Start.Before(shift.Start) || b.End.After(shift.End) {
			return &award.ValidationError{Field: "breaks", Reason: "break falls outside the shift"}
		}
		if i > 0 && b.Start.Before(breaks[i-1].End) {
			return &award.ValidationError{Field: "breaks", Reason: "breaks overlap"}
		}
	}
	if shift.Prior.WeekOrdinary.IsNegative() || shift.Prior.AbsorbedOvertime.IsNegative() {
		return &award.ValidationError{Field: "prior", Reason: "prior hours cannot be negative"}
	}
	for _, d := range shift.Prior.Days {
		if d.Worked.IsNegative() || d.Overtime.IsNegative() || d.Overtime.GreaterThan(d.Worked) {
			return &award.ValidationError{Field: "prior", Reason: "invalid prior hours for " + d.Date.String()}
		}
	}
	return nil
}

func sortedBreaks(breaks []Break) []Break {
	out := append([]Break(nil), breaks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

type interval struct{ start, end time.Time }

// workedIntervals removes unpaid breaks from the shift and counts split gaps.
func workedIntervals(shift Shift, splitGap time.Duration) ([]interval, int) {
	var (
		out    []interval
		splits int
		cursor = shift.Start
	)
	for _, b := range sortedBreaks(shift.Breaks) {
		if b.Paid {
			continue
		}
		if b.Start.After(cursor) {
			out = append(out, interval{cursor, b.Start})
		}
		if b.End.Sub(b.Start) > splitGap {
			splits++
		}
		cursor = b.End
	}
	if shift.End.After(cursor) {
		out = append(out, interval{cursor, shift.End})
	}
	return out, splits
}

// segmentShift cuts worked time at every midnight, every penalty window
// boundary and every instant where cumulative worked hours cross an allowance
// duration threshold.
func segmentShift(shift Shift, snap *award.Snapshot) ([]Segment, ShiftFacts) {
	loc := snap.Location()
	start, end := shift.Start.In(loc), shift.End.In(loc)
	shift.Start, shift.End = start, end
	breaks := make([]Break, len(shift.Breaks))
	for i, b := range shift.Breaks {
		breaks[i] = Break{Start: b.Start.In(loc), End: b.End.In(loc), Paid: b.Paid}
	}
	shift.Breaks = breaks

	pieces, splits := workedIntervals(shift, snap.SplitShiftGap())

	// Clock thresholds repeated on every calendar day the shift touches.
	var clocks []award.TimeOfDay
	for _, r := range snap.Penalties() {
		if r.Window != nil {
			clocks = append(clocks, r.Window.Start, r.Window.End)
		}
	}
	var cuts []time.Time
	for day := award.DateOf(start); !day.After(award.DateOf(end)); day = day.AddDays(1) {
		cuts = append(cuts, day.In(loc), day.AddDays(1).In(loc))
		for _, c := range clocks {
			cuts = append(cuts, c.On(day, loc))
		}
	}
	cuts = append(cuts, durationCuts(pieces, snap.Allowances())...)
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Before(cuts[j]) })

	var segs []Segment
	for _, p := range pieces {
		from := p.start
		for _, c := range cuts {
			if !c.After(from) || !c.Before(p.end) {
				continue
			}
			segs = append(segs, newSegment(from, c, snap))
			from = c
		}
		segs = append(segs, newSegment(from, p.end, snap))
	}

	paid := decimal.Zero
	for _, s := range segs {
		paid = paid.Add(s.Hours)
	}
	date := award.DateOf(start)
	facts := ShiftFacts{
		Date:        date,
		DayType:     snap.DayType(date),
		PaidHours:   paid,
		SpreadHours: award.Hours(end.Sub(start)),
		Splits:      splits,
	}
	return segs, facts
}

func newSegment(from, to time.Time, snap *award.Snapshot) Segment {
	date := award.DateOf(from)
	clockFrom, clockTo := clockSpan(from, to, date)
	return Segment{
		Start:   from,
		End:     to,
		Date:    date,
		DayType: snap.DayType(date),
		From:    clockFrom,
		To:      clockTo,
		Hours:   award.Hours(to.Sub(from)),
	}
}

// clockSpan is the clock range of [from, to) on date. Clocks are whole
// minutes and every cut falls on a minute, so a piece shorter than a minute
// is priced as the minute it starts in.
func clockSpan(from, to time.Time, date award.Date) (award.TimeOfDay, award.TimeOfDay) {
	start := award.ClockOf(from)
	end := award.ClockOf(to)
	if !award.DateOf(to).Equal(date) {
		end = award.EndOfDay
	}
	if end <= start {
		end = start + 1
	}
	return start, end
}

// durationCuts returns the instants where cumulative worked time reaches a
// shift_duration allowance threshold.
func durationCuts(pieces []interval, rules []award.AllowanceRule) []time.Time {
	var cuts []time.Time
	for _, r := range rules {
		if r.Trigger != award.TriggerShiftDuration || !r.Threshold.IsPositive() {
			continue
		}
		remaining := award.Duration(r.Threshold)
		for _, p := range pieces {
			length := p.end.Sub(p.start)
			if remaining < length {
				cuts = append(cuts, p.start.Add(remaining))
				break
			}
			remaining -= length
		}
	}
	return cuts
}

// splitSegment splits s so that the second part holds tail hours.
func splitSegment(s Segment, tail decimal.Decimal) (Segment, Segment) {
	head := s
	rest := s
	at := s.End.Add(-award.Duration(tail))
	head.End = at
	head.From, head.To = clockSpan(s.Start, at, s.Date)
	head.Hours = s.Hours.Sub(tail)
	rest.Start = at
	rest.From, rest.To = clockSpan(at, s.End, s.Date)
	rest.Hours = tail
	return head, rest
}
