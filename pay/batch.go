package pay

import (
	"context"
	"runtime"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// BULK SIMULATION - Independent calculations over a worker pool
// =============================================================================

// Job is one calculation in a simulation batch.
type Job struct {
	ID    string
	Shift Shift
	Staff award.StaffContext
}

// Result is the outcome of one job. Exactly one of Breakdown and Err is set.
type Result struct {
	JobID     string
	Breakdown PayBreakdown
	Err       error
}

// SimulationSummary aggregates a batch.
type SimulationSummary struct {
	Jobs      int
	Succeeded int
	Failed    int
	Hours     decimal.Decimal
	Total     decimal.Decimal
}

// Simulate runs every job against the calculator's snapshot on a pool of
// workers. Results come back in job order. Jobs not started before ctx is
// cancelled carry ctx.Err().
//
// Every worker reads the one snapshot captured by calc, so a configuration
// reload during the batch is never visible to it.
func Simulate(ctx context.Context, calc *Calculator, jobs []Job, workers int) []Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]Result, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				job := jobs[i]
				b, err := calc.CalculateShiftPay(job.Shift, job.Staff)
				results[i] = Result{JobID: job.ID, Breakdown: b, Err: err}
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case indexes <- next:
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		results[i] = Result{JobID: jobs[i].ID, Err: ctx.Err()}
	}
	return results
}

// Summarize totals a batch of results.
func Summarize(results []Result) SimulationSummary {
	s := SimulationSummary{Jobs: len(results), Hours: decimal.Zero, Total: decimal.Zero}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Hours = s.Hours.Add(r.Breakdown.PaidHours)
		s.Total = s.Total.Add(r.Breakdown.Total)
	}
	return s
}
