package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/api"
	"github.com/warp/award-engine/config"
)

func newScheduler(t *testing.T, ts *testServer, now time.Time) *api.ReconciliationScheduler {
	t.Helper()
	rs, err := api.NewReconciliationScheduler(ts.handler, config.SchedulerConfig{
		Enabled:    true,
		Interval:   time.Hour,
		PeriodType: "weekly",
		WeekStart:  "monday",
	})
	require.NoError(t, err)
	rs.Now = func() time.Time { return now }
	return rs
}

func TestScheduler_ClosedPeriod(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: It is Tuesday 23 July 2024
	rs := newScheduler(t, ts, time.Date(2024, 7, 23, 9, 0, 0, 0, time.UTC))

	// THEN: The week that closed is Monday 15 to Sunday 21 July
	p := rs.ClosedPeriod()
	assert.Equal(t, "2024-07-15", p.Start.String())
	assert.Equal(t, "2024-07-21", p.End.String())
}

func TestScheduler_RunNow(t *testing.T) {
	ts := newTestServer(t)
	ts.seedSalariedWeek(t, "salaried", "")
	ts.seedEducator(t, "hourly")
	rs := newScheduler(t, ts, time.Date(2024, 7, 23, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	// WHEN: The check runs
	stats := rs.RunNow(ctx)

	// THEN: Only the salaried educator is reconciled
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)

	runs := decode[struct {
		Runs []api.RunDTO `json:"runs"`
	}](t, ts.do(t, http.MethodGet, "/api/runs", nil))
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "salaried", runs.Runs[0].StaffID)
	assert.Equal(t, "94.67", runs.Runs[0].Shortfall)

	// AND: A second check skips the period already reconciled
	stats = rs.RunNow(ctx)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)

	runs = decode[struct {
		Runs []api.RunDTO `json:"runs"`
	}](t, ts.do(t, http.MethodGet, "/api/runs", nil))
	assert.Len(t, runs.Runs, 1)
}

func TestScheduler_StartStop(t *testing.T) {
	ts := newTestServer(t)
	rs := newScheduler(t, ts, time.Date(2024, 7, 23, 9, 0, 0, 0, time.UTC))

	// Start is idempotent and Stop waits for the loop to exit
	rs.Start()
	rs.Start()
	rs.Stop()
	rs.Stop()

	assert.Equal(t, time.Date(2024, 7, 23, 10, 0, 0, 0, time.UTC), rs.NextRunTime())
}

func TestScheduler_InvalidPeriods(t *testing.T) {
	ts := newTestServer(t)
	_, err := api.NewReconciliationScheduler(ts.handler, config.SchedulerConfig{PeriodType: "daily", WeekStart: "monday"})
	assert.Error(t, err)
}

func TestScheduler_Disabled(t *testing.T) {
	ts := newTestServer(t)
	rs, err := api.NewReconciliationScheduler(ts.handler, config.SchedulerConfig{PeriodType: "weekly", WeekStart: "monday"})
	require.NoError(t, err)

	assert.False(t, rs.Enabled)
	assert.Equal(t, time.Hour, rs.CheckInterval)
	rs.Start()
	rs.Stop()
}
