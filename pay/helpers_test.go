package pay_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/catalog"
	"github.com/warp/award-engine/pay"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newChildrensCalculator(t *testing.T) (*pay.Calculator, *time.Location) {
	t.Helper()
	snap, err := award.NewSnapshot(catalog.ChildrensServices())
	require.NoError(t, err)
	return pay.NewCalculator(snap), snap.Location()
}

func permanent(class award.ClassificationID) award.StaffContext {
	return award.StaffContext{StaffID: "staff-1", ClassificationID: class, EmploymentType: award.FullTime}
}

func casual(class award.ClassificationID) award.StaffContext {
	return award.StaffContext{StaffID: "staff-2", ClassificationID: class, EmploymentType: award.Casual}
}

// clock returns a wall-clock instant on a July 2024 day in loc.
func clock(loc *time.Location, day, hour, minute int) time.Time {
	return time.Date(2024, time.July, day, hour, minute, 0, 0, loc)
}

func shift(loc *time.Location, day, fromH, fromM, toH, toM int, breaks ...pay.Break) pay.Shift {
	start := clock(loc, day, fromH, fromM)
	end := clock(loc, day, toH, toM)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return pay.Shift{Start: start, End: end, Breaks: breaks}
}

func unpaid(loc *time.Location, day, fromH, fromM, toH, toM int) pay.Break {
	return pay.Break{Start: clock(loc, day, fromH, fromM), End: clock(loc, day, toH, toM)}
}

// July 2024 calendar used throughout.
const (
	saturday13 = 13
	sunday14   = 14
	monday15   = 15
	tuesday16  = 16
	friday19   = 19
)

func requireLine(t *testing.T, b pay.PayBreakdown, component string) pay.LineItem {
	t.Helper()
	line, ok := b.Line(component)
	require.True(t, ok, "expected line %q in %v", component, b.Lines())
	return line
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.True(t, d(want).Equal(got), append([]interface{}{"want %s got %s", want, got.String()}, msgAndArgs...)...)
}
