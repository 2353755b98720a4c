/*
batch.go - Batch statement generation across many author/title pairs

PURPOSE:
  Drives the pipeline for a whole reporting period. Pairs are grouped by
  title so a co-authored title's gross royalty is computed once, then the
  groups run under a bounded worker pool. A failure for one pair is recorded
  and never aborts the rest of the run.

IDEMPOTENT RE-RUNS:
  Re-invoking a batch after partial failure is safe and cheap: pairs whose
  statements already exist resolve to duplicate no-ops via the statement
  uniqueness guard, and only the previously failed pairs do real work.
*/
package royalty

import (
	"context"
	"sync"
)

// DefaultBatchWorkers bounds title-group parallelism when the caller does
// not configure a pool size.
const DefaultBatchWorkers = 4

// =============================================================================
// BATCH TYPES
// =============================================================================

// AuthorTitlePair identifies one unit of statement generation.
type AuthorTitlePair struct {
	AuthorID AuthorID
	TitleID  TitleID
}

// BatchItem is one successfully processed pair. Duplicate marks pairs whose
// statement already existed from an earlier run.
type BatchItem struct {
	AuthorID    AuthorID
	TitleID     TitleID
	StatementID StatementID
	NetPayable  Money
	Duplicate   bool
}

// BatchFailure records why a pair produced no statement.
type BatchFailure struct {
	AuthorID AuthorID
	TitleID  TitleID
	Reason   string
	Err      error
}

// BatchResult is the full outcome of one batch invocation.
type BatchResult struct {
	Succeeded []BatchItem
	Failed    []BatchFailure
}

// =============================================================================
// BATCH ORCHESTRATOR
// =============================================================================

// BatchOrchestrator fans the pipeline out over many pairs with bounded
// parallelism. Pairs sharing a title form one unit of work, which is the
// system's only ordering dependency: title-level gross must exist before any
// author-level split.
type BatchOrchestrator struct {
	Engine  *Engine
	Workers int
}

func NewBatchOrchestrator(engine *Engine, workers int) *BatchOrchestrator {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	return &BatchOrchestrator{Engine: engine, Workers: workers}
}

// RunBatch generates statements for every pair. The returned result
// partitions pairs into succeeded (including duplicates) and failed; the
// error is non-nil only for invocation-level problems (bad period), never
// for per-pair failures.
func (o *BatchOrchestrator) RunBatch(ctx context.Context, tenantID TenantID, period Period, pairs []AuthorTitlePair) (*BatchResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	// Group by title, preserving author request order within each group.
	order := make([]TitleID, 0)
	groups := make(map[TitleID][]AuthorID)
	for _, p := range pairs {
		if _, seen := groups[p.TitleID]; !seen {
			order = append(order, p.TitleID)
		}
		groups[p.TitleID] = append(groups[p.TitleID], p.AuthorID)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = &BatchResult{}
		sem    = make(chan struct{}, o.Workers)
	)

	for _, titleID := range order {
		titleID := titleID
		authors := groups[titleID]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcomes := o.Engine.GenerateForTitle(ctx, tenantID, titleID, period, authors)

			mu.Lock()
			defer mu.Unlock()
			for _, out := range outcomes {
				if out.Err != nil {
					result.Failed = append(result.Failed, BatchFailure{
						AuthorID: out.AuthorID,
						TitleID:  out.TitleID,
						Reason:   out.Err.Error(),
						Err:      out.Err,
					})
					continue
				}
				result.Succeeded = append(result.Succeeded, BatchItem{
					AuthorID:    out.AuthorID,
					TitleID:     out.TitleID,
					StatementID: out.Result.Statement.ID,
					NetPayable:  out.Result.Statement.Calculation.NetPayable,
					Duplicate:   out.Result.Duplicate,
				})
			}
		}()
	}

	wg.Wait()
	return result, nil
}

// Duplicates counts succeeded items that were idempotent no-ops.
func (r *BatchResult) Duplicates() int {
	n := 0
	for _, item := range r.Succeeded {
		if item.Duplicate {
			n++
		}
	}
	return n
}
