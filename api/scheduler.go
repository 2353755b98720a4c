/*
scheduler.go - Automated period-end statement generation

PURPOSE:
  Periodically checks whether the most recent reporting period has ended
  for each configured tenant and, if no completed batch run exists yet,
  runs a statement batch over every pair with an active contract.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only processes periods that have fully elapsed
  - Skips periods with a completed batch run on record
  - Statement uniqueness makes a racing manual batch harmless: the second
    run converges on duplicates
  - Records batch runs for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Cadence:       Reporting cadence (monthly, quarterly, halfyear)
  - Tenants:       Tenants to process
  - Enabled:       Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBatchScheduler(store, handler, []royalty.TenantID{"acme"})
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunBatch endpoint (manual batches)
  - royalty/batch.go: BatchOrchestrator
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quill/royalty-engine/royalty"
	"github.com/quill/royalty-engine/store/sqlite"
)

// Cadence names a reporting period shape.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceHalfYear  Cadence = "halfyear"
)

// LatestEndedPeriod returns the most recent period of this cadence that has
// fully elapsed as of now.
func (c Cadence) LatestEndedPeriod(now time.Time) royalty.Period {
	now = now.UTC()
	switch c {
	case CadenceQuarterly:
		quarter := (int(now.Month())-1)/3 + 1
		period := royalty.QuarterlyPeriod(now.Year(), quarter)
		if !period.Ended(now) {
			prev := period.Start.AddDate(0, -3, 0)
			period = royalty.QuarterlyPeriod(prev.Year(), (int(prev.Month())-1)/3+1)
		}
		return period
	case CadenceHalfYear:
		half := 1
		if now.Month() >= time.July {
			half = 2
		}
		period := royalty.HalfYearPeriod(now.Year(), half)
		if !period.Ended(now) {
			if half == 1 {
				period = royalty.HalfYearPeriod(now.Year()-1, 2)
			} else {
				period = royalty.HalfYearPeriod(now.Year(), 1)
			}
		}
		return period
	default:
		period := royalty.MonthlyPeriod(now.Year(), now.Month())
		if !period.Ended(now) {
			prev := period.Start.AddDate(0, -1, 0)
			period = royalty.MonthlyPeriod(prev.Year(), prev.Month())
		}
		return period
	}
}

// BatchScheduler handles automated period-end statement generation.
type BatchScheduler struct {
	Store         *sqlite.Store
	Handler       *Handler
	Tenants       []royalty.TenantID
	Cadence       Cadence
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBatchScheduler creates a new scheduler.
func NewBatchScheduler(store *sqlite.Store, handler *Handler, tenants []royalty.TenantID) *BatchScheduler {
	return &BatchScheduler{
		Store:         store,
		Handler:       handler,
		Tenants:       tenants,
		Cadence:       CadenceMonthly,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BatchScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with cadence %s, check interval %v", bs.Cadence, bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BatchScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.checkAndProcess()

	for {
		select {
		case <-bs.ticker.C:
			bs.checkAndProcess()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BatchScheduler) checkAndProcess() {
	ctx := context.Background()
	now := time.Now()
	period := bs.Cadence.LatestEndedPeriod(now)

	log.Printf("[Scheduler] Checking period %s at %v", period, now)

	for _, tenantID := range bs.Tenants {
		done, err := bs.Store.HasCompletedBatchRun(ctx, tenantID, period)
		if err != nil {
			log.Printf("[Scheduler] Error checking batch runs for %s: %v", tenantID, err)
			continue
		}
		if done {
			continue
		}

		if err := bs.processTenant(ctx, tenantID, period); err != nil {
			log.Printf("[Scheduler] Error processing tenant %s: %v", tenantID, err)
		}
	}
}

func (bs *BatchScheduler) processTenant(ctx context.Context, tenantID royalty.TenantID, period royalty.Period) error {
	pairs, err := bs.Store.ActivePairs(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("listing active contracts: %w", err)
	}
	if len(pairs) == 0 {
		return nil
	}

	startTime := time.Now().UTC()
	run := sqlite.BatchRun{
		ID:          fmt.Sprintf("run-%s", uuid.NewString()),
		TenantID:    string(tenantID),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Status:      "running",
		StartedAt:   &startTime,
		CreatedAt:   startTime,
	}
	if err := bs.Store.SaveBatchRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}

	result, err := bs.Handler.Orchestrator.RunBatch(ctx, tenantID, period, pairs)
	completedTime := time.Now().UTC()
	run.CompletedAt = &completedTime

	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		bs.Store.SaveBatchRun(ctx, run)
		return err
	}

	run.Succeeded = len(result.Succeeded)
	run.Failed = len(result.Failed)
	run.Duplicates = result.Duplicates()
	run.Status = "completed"
	if len(result.Failed) > 0 {
		// Failed pairs retry on the next tick; succeeded ones resolve to
		// duplicates then.
		run.Status = "failed"
		run.Error = fmt.Sprintf("%d of %d pairs failed", len(result.Failed), len(pairs))
	}

	if err := bs.Store.SaveBatchRun(ctx, run); err != nil {
		return fmt.Errorf("failed to update run record: %w", err)
	}

	log.Printf("[Scheduler] Processed %s %s: %d succeeded (%d duplicate), %d failed",
		tenantID, period, run.Succeeded, run.Duplicates, run.Failed)

	return nil
}

// RunNow triggers an immediate check (for testing/admin).
func (bs *BatchScheduler) RunNow() {
	bs.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (bs *BatchScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(bs.CheckInterval)
}
