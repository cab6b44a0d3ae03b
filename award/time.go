package award

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day used for effective dating and day types
// =============================================================================

// Date is a calendar day. The wrapped time is always midnight UTC so dates
// compare by value regardless of the zone a shift was recorded in.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Before(o Date) bool        { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool         { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool         { return d.Time.Equal(o.Time) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }
func (d Date) IsZero() bool              { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

func (d Date) Year() int              { return d.Time.Year() }
func (d Date) Month() time.Month      { return d.Time.Month() }
func (d Date) Day() int               { return d.Time.Day() }
func (d Date) Weekday() time.Weekday  { return d.Time.Weekday() }
func (d Date) String() string         { return d.Time.Format("2006-01-02") }

// In returns midnight at the start of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// TIME OF DAY - Clock boundaries used by time-based penalties
// =============================================================================

// TimeOfDay is minutes since midnight. 24:00 (1440) is valid as an end bound.
type TimeOfDay int

const (
	Midnight    TimeOfDay = 0
	EndOfDay    TimeOfDay = 24 * 60
	minutesHour           = 60
)

func NewTimeOfDay(hour, minute int) TimeOfDay { return TimeOfDay(hour*minutesHour + minute) }

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q (use HH:MM): %w", s, err)
	}
	t := NewTimeOfDay(h, m)
	if h < 0 || m < 0 || m >= minutesHour || t > EndOfDay {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) TimeOfDay { return NewTimeOfDay(t.Hour(), t.Minute()) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/minutesHour, int(t)%minutesHour)
}

// On returns the instant of t on date d in loc.
func (t TimeOfDay) On(d Date, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), int(t)/minutesHour, int(t)%minutesHour, 0, 0, loc)
}

// TimeWindow is a clock window [Start, End). Start > End wraps past midnight.
type TimeWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (w TimeWindow) Wraps() bool { return w.Start > w.End }

// Length returns the window length in minutes.
func (w TimeWindow) Length() int {
	if w.Wraps() {
		return int(EndOfDay-w.Start) + int(w.End)
	}
	return int(w.End - w.Start)
}

// Overlaps reports whether [from, to) on one calendar day intersects the window.
func (w TimeWindow) Overlaps(from, to TimeOfDay) bool {
	if w.Wraps() {
		return overlap(from, to, w.Start, EndOfDay) || overlap(from, to, Midnight, w.End)
	}
	return overlap(from, to, w.Start, w.End)
}

func overlap(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

func (w TimeWindow) String() string { return w.Start.String() + "-" + w.End.String() }

// =============================================================================
// DAY TYPE
// =============================================================================

type DayType string

const (
	DayWeekday       DayType = "weekday"
	DaySaturday      DayType = "saturday"
	DaySunday        DayType = "sunday"
	DayPublicHoliday DayType = "public_holiday"
)

func (d DayType) Valid() bool {
	switch d {
	case DayWeekday, DaySaturday, DaySunday, DayPublicHoliday:
		return true
	}
	return false
}

// =============================================================================
// HOLIDAY CALENDAR - Public holidays recognised by an award
// =============================================================================

// Holiday is a gazetted public holiday.
type Holiday struct {
	Date      Date
	Name      string
	Recurring bool // true = same month/day every year
}

// HolidayCalendar answers whether a date is a public holiday.
type HolidayCalendar interface {
	IsHoliday(date Date) bool
}

// Holidays is a fixed holiday list. The zero value has no holidays.
type Holidays []Holiday

func (h Holidays) IsHoliday(date Date) bool {
	for _, hol := range h {
		if hol.Date.Equal(date) {
			return true
		}
		if hol.Recurring && hol.Date.Month() == date.Month() && hol.Date.Day() == date.Day() {
			return true
		}
	}
	return false
}

// DayTypeOf classifies a date. Public holidays take precedence over weekends.
func DayTypeOf(date Date, calendar HolidayCalendar) DayType {
	if calendar != nil && calendar.IsHoliday(date) {
		return DayPublicHoliday
	}
	switch date.Weekday() {
	case time.Saturday:
		return DaySaturday
	case time.Sunday:
		return DaySunday
	default:
		return DayWeekday
	}
}
