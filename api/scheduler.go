/*
scheduler.go - Automated salary reconciliation scheduler

PURPOSE:
  Periodically reconciles every salaried staff member over the pay period
  that most recently closed, so an award shortfall surfaces without anyone
  having to ask for it.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The closed period is the one before the period containing today
  - Staff without an annualised salary on the period's first day are ignored
  - Periods already reconciled are skipped (RunExists), so restarts and
    overlapping ticks never produce a second run
  - Runs are stored and their breakdowns recorded like manual ones

CONFIGURATION (config.SchedulerConfig):
  - interval:    How often to check (default: 1 hour)
  - enabled:     Whether the scheduler is active (default: false)
  - period_type, week_start, anchor: Pay period layout

USAGE:
  scheduler, err := NewReconciliationScheduler(handler, cfg.Scheduler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - pay_handlers.go: ReconcilePeriod (shared with POST /api/reconcile)
  - pay/reconcile.go: Reconciler
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/config"
	"go.uber.org/zap"
)

// ReconciliationScheduler handles automated period-end reconciliation.
type ReconciliationScheduler struct {
	Handler       *Handler
	Periods       award.PeriodConfig
	CheckInterval time.Duration
	Enabled       bool
	Log           *zap.Logger

	// Now returns the current time.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// SchedulerStats counts the outcome of one check.
type SchedulerStats struct {
	Period    award.Period
	Processed int
	Skipped   int
	Failed    int
}

// NewReconciliationScheduler creates a scheduler from configuration.
func NewReconciliationScheduler(h *Handler, cfg config.SchedulerConfig) (*ReconciliationScheduler, error) {
	periods, err := cfg.PeriodConfig()
	if err != nil {
		return nil, err
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReconciliationScheduler{
		Handler:       h,
		Periods:       periods,
		CheckInterval: interval,
		Enabled:       cfg.Enabled,
		Log:           h.Log.Named("scheduler"),
		Now:           time.Now,
	}, nil
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs.cancel = cancel
	rs.stop = make(chan struct{})
	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run(ctx)

	rs.Log.Info("scheduler started",
		zap.Duration("interval", rs.CheckInterval),
		zap.String("period_type", string(rs.Periods.Type)),
	)
}

// Stop stops the scheduler, cancelling a check in progress.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	rs.cancel()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.Log.Info("scheduler stopped")
}

func (rs *ReconciliationScheduler) run(ctx context.Context) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow(ctx)

	for {
		select {
		case <-rs.ticker.C:
			rs.RunNow(ctx)
		case <-rs.stop:
			return
		}
	}
}

// ClosedPeriod returns the most recent pay period that ended before today.
func (rs *ReconciliationScheduler) ClosedPeriod() award.Period {
	current := rs.Periods.PeriodFor(award.DateOf(rs.Now()))
	return rs.Periods.PeriodFor(current.Start.AddDays(-1))
}

// RunNow reconciles every salaried staff member over the closed period.
func (rs *ReconciliationScheduler) RunNow(ctx context.Context) SchedulerStats {
	period := rs.ClosedPeriod()
	stats := SchedulerStats{Period: period}
	store := rs.Handler.Store

	staff, err := store.ListStaff(ctx)
	if err != nil {
		rs.Log.Error("failed to list staff", zap.Error(err))
		return stats
	}

	for _, s := range staff {
		if ctx.Err() != nil {
			break
		}
		log := rs.Log.With(zap.String("staff_id", string(s.ID)), zap.String("period", period.String()))

		overrides, err := store.Overrides(ctx, s.ID)
		if err != nil {
			log.Error("failed to load overrides", zap.Error(err))
			stats.Failed++
			continue
		}
		o := award.ActiveOverride(overrides, period.Start)
		if o == nil || o.Type != award.OverrideAnnualSalary {
			continue
		}

		done, err := store.RunExists(ctx, s.ID, period)
		if err != nil {
			log.Error("failed to check reconciliation status", zap.Error(err))
			stats.Failed++
			continue
		}
		if done {
			stats.Skipped++
			continue
		}

		if _, err := rs.Handler.ReconcilePeriod(ctx, s.ID, period, rs.Periods.Type, nil); err != nil {
			log.Error("reconciliation failed", zap.Error(err))
			stats.Failed++
			continue
		}
		stats.Processed++
	}

	if stats.Processed > 0 || stats.Skipped > 0 || stats.Failed > 0 {
		rs.Log.Info("reconciliation check complete",
			zap.String("period", period.String()),
			zap.Int("processed", stats.Processed),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed),
		)
	}
	return stats
}

// NextRunTime returns when the next scheduled check will occur.
func (rs *ReconciliationScheduler) NextRunTime() time.Time {
	return rs.Now().Add(rs.CheckInterval)
}
