/*
engine.go - The statement generation pipeline

PURPOSE:
  Wires the calculation components into the full pipeline:

    ContractResolver -> SalesAggregator -> TierRateCalculator
        -> (SplitAllocator when co-authored) -> AdvanceRecoupmentTracker
        -> StatementAssembler

  Invoked either for a single (author, title, period) or, through the batch
  orchestrator, for many pairs sharing a period.

CO-AUTHORED TITLES:
  The title-level gross royalty is computed ONCE per title (using the lead
  author's contract tiers, lead = largest ownership share) and fanned out
  through the split allocator. Each co-author's recoupment then runs against
  that author's own contract, so advances are tracked independently.

SEE ALSO:
  - batch.go: Bounded-parallelism orchestration across many pairs
*/
package royalty

import (
	"context"
	"fmt"
	"sort"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine drives statement generation. All components are stateless; the
// engine is safe for concurrent use.
type Engine struct {
	Resolver    *ContractResolver
	Aggregator  *SalesAggregator
	Calculator  *TierRateCalculator
	Recoupment  *AdvanceRecoupmentTracker
	Allocator   *SplitAllocator
	Assembler   *StatementAssembler
	Authorships AuthorshipSource
}

// NewEngine assembles an engine from its boundary interfaces.
func NewEngine(contracts ContractSource, sales SalesSource, authorships AuthorshipSource, statements StatementStore) *Engine {
	return &Engine{
		Resolver:    NewContractResolver(contracts),
		Aggregator:  NewSalesAggregator(sales),
		Calculator:  NewTierRateCalculator(),
		Recoupment:  NewAdvanceRecoupmentTracker(),
		Allocator:   NewSplitAllocator(),
		Assembler:   NewStatementAssembler(statements),
		Authorships: authorships,
	}
}

// PairOutcome is the result of the pipeline for one author on one title.
type PairOutcome struct {
	AuthorID AuthorID
	TitleID  TitleID
	Result   *AssembleResult
	Err      error
}

// GenerateStatement runs the full pipeline for a single (author, title,
// period). For co-authored titles the split is still computed against all
// active authorships; only the requested author's statement is persisted.
func (e *Engine) GenerateStatement(ctx context.Context, tenantID TenantID, authorID AuthorID, titleID TitleID, period Period) (*AssembleResult, error) {
	outcomes := e.GenerateForTitle(ctx, tenantID, titleID, period, []AuthorID{authorID})
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("no outcome for author %s on title %s", authorID, titleID)
	}
	return outcomes[0].Result, outcomes[0].Err
}

// GenerateForTitle runs the pipeline for the requested authors of one title,
// computing sales aggregation and title-level gross exactly once. One outcome
// is returned per requested author, in request order.
func (e *Engine) GenerateForTitle(ctx context.Context, tenantID TenantID, titleID TitleID, period Period, authors []AuthorID) []PairOutcome {
	outcomes := make([]PairOutcome, len(authors))
	for i, authorID := range authors {
		outcomes[i] = PairOutcome{AuthorID: authorID, TitleID: titleID}
	}
	fail := func(err error) []PairOutcome {
		for i := range outcomes {
			outcomes[i].Err = err
		}
		return outcomes
	}

	if err := period.Validate(); err != nil {
		return fail(err)
	}

	authorships, err := e.Authorships.Authorships(ctx, tenantID, titleID)
	if err != nil {
		return fail(fmt.Errorf("loading authorships for title %s: %w", titleID, err))
	}
	active := activeAuthorships(authorships)

	// Contracts resolve per author; a missing contract fails only that author.
	contracts := make(map[AuthorID]*Contract, len(authors))
	for i, authorID := range authors {
		contract, err := e.Resolver.Resolve(ctx, tenantID, authorID, titleID)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		contracts[authorID] = contract
	}

	lead := e.leadContract(ctx, tenantID, titleID, active, contracts, outcomes)
	if lead == nil {
		// Every requested author already failed resolution.
		return outcomes
	}

	sales, err := e.Aggregator.Aggregate(ctx, tenantID, titleID, period)
	if err != nil {
		return failRemaining(outcomes, contracts, err)
	}

	formatGross, titleGross, err := e.Calculator.CalculateAll(lead, sales)
	if err != nil {
		return failRemaining(outcomes, contracts, err)
	}

	var splits map[AuthorID]AuthorSplit
	if len(active) > 1 {
		allocated, err := e.Allocator.Allocate(titleGross, active)
		if err != nil {
			return failRemaining(outcomes, contracts, err)
		}
		splits = make(map[AuthorID]AuthorSplit, len(allocated))
		for _, s := range allocated {
			splits[s.AuthorID] = s
		}
	}

	for i := range outcomes {
		if outcomes[i].Err != nil {
			continue
		}
		contract := contracts[outcomes[i].AuthorID]
		in := AssembleInput{
			TenantID:    tenantID,
			AuthorID:    outcomes[i].AuthorID,
			Contract:    contract,
			Period:      period,
			FormatGross: formatGross,
		}

		if splits != nil {
			split, ok := splits[outcomes[i].AuthorID]
			if !ok {
				outcomes[i].Err = fmt.Errorf("author %s has no active authorship on title %s: %w",
					outcomes[i].AuthorID, titleID, ErrInvalidOwnershipSplit)
				continue
			}
			in.GrossTotal = split.SplitAmount
			in.Split = &SplitContext{OwnershipPercent: split.OwnershipPercent, TitleGross: split.TitleGross}
		} else {
			in.GrossTotal = titleGross
		}

		in.Recoupment = e.Recoupment.Recoup(contract, in.GrossTotal)
		outcomes[i].Result, outcomes[i].Err = e.Assembler.Assemble(ctx, in)
	}

	return outcomes
}

// leadContract picks the contract whose tiers price the title-level gross:
// the contract of the active author holding the largest ownership share, ties
// broken by lowest author ID. The lead's contract is resolved even when that
// author is not among the requested ones, so a title prices identically no
// matter which author's statement is generated first. Authorship holders
// whose contract cannot be resolved are skipped down the ranking. Falls back
// to any requested author's contract when no authorship rows exist
// (sole-author titles without explicit rows).
func (e *Engine) leadContract(ctx context.Context, tenantID TenantID, titleID TitleID, active []TitleAuthorship, contracts map[AuthorID]*Contract, outcomes []PairOutcome) *Contract {
	ranked := make([]TitleAuthorship, len(active))
	copy(ranked, active)
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].OwnershipPercent.Equal(ranked[j].OwnershipPercent) {
			return ranked[i].OwnershipPercent.GreaterThan(ranked[j].OwnershipPercent)
		}
		return ranked[i].AuthorID < ranked[j].AuthorID
	})
	for _, auth := range ranked {
		if c, ok := contracts[auth.AuthorID]; ok {
			return c
		}
		if c, err := e.Resolver.Resolve(ctx, tenantID, auth.AuthorID, titleID); err == nil {
			return c
		}
	}
	// No resolvable lead among authorship holders; use the first requested
	// author with a contract.
	for _, o := range outcomes {
		if o.Err == nil {
			if c, ok := contracts[o.AuthorID]; ok {
				return c
			}
		}
	}
	return nil
}

func activeAuthorships(authorships []TitleAuthorship) []TitleAuthorship {
	var active []TitleAuthorship
	for _, a := range authorships {
		if a.Active {
			active = append(active, a)
		}
	}
	return active
}

// failRemaining marks every not-yet-failed outcome with err. Title-level
// failures (sales read, tier gap, split mismatch) apply to all authors that
// survived contract resolution.
func failRemaining(outcomes []PairOutcome, contracts map[AuthorID]*Contract, err error) []PairOutcome {
	for i := range outcomes {
		if outcomes[i].Err == nil {
			if _, ok := contracts[outcomes[i].AuthorID]; ok {
				outcomes[i].Err = err
			}
		}
	}
	return outcomes
}
