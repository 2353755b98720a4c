/*
statement.go - Statement records and idempotent assembly

PURPOSE:
  A Statement is the immutable record of one author's earnings for one
  period, carrying the full calculation trail that produced it. The
  StatementAssembler persists it together with the contract's recoupment
  update in a single transaction, and converts uniqueness conflicts into
  idempotent no-ops.

CALCULATION SNAPSHOT:
  StatementCalculation is a tagged variant: KindSingleAuthor vs
  KindSplitAuthor, discriminated by Kind. Downstream consumers (PDF
  rendering, email, author-facing views) switch on the kind instead of
  probing optional fields; the Split block is present exactly when the kind
  is KindSplitAuthor.

IMMUTABILITY:
  Statements are never financially mutated after creation. Corrections are
  new statements. Only administrative metadata (a void flag, set outside
  this engine) may be added later.

DUPLICATE HANDLING:
  The assembler pre-checks for an existing (tenant, author, period)
  statement and, on either the pre-check or the store's uniqueness
  constraint firing, returns the existing statement with Duplicate=true.
  A retried batch therefore converges on exactly one statement per
  author-period with no error surfaced.

SEE ALSO:
  - store.go: StatementStore transactional contract
  - recoupment.go: The advance breakdown embedded in the snapshot
*/
package royalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CALCULATION SNAPSHOT - Tagged variant
// =============================================================================

type CalculationKind string

const (
	KindSingleAuthor CalculationKind = "single_author"
	KindSplitAuthor  CalculationKind = "split_author"
)

// SplitContext is present on split calculations only: this author's ownership
// share and the title-level total the share was taken from.
type SplitContext struct {
	OwnershipPercent decimal.Decimal `json:"ownership_percent"`
	TitleGross       Money           `json:"title_gross"`
}

// StatementCalculation is the versioned snapshot embedded in a statement.
//
// For KindSingleAuthor, TotalGross is the title-level gross and Split is nil.
// For KindSplitAuthor, TotalGross is this author's allocated share,
// FormatGross still carries the title-level per-format breakdown, and Split
// holds the allocation context.
type StatementCalculation struct {
	Kind        CalculationKind  `json:"kind"`
	FormatGross map[Format]Money `json:"format_gross"`
	TotalGross  Money            `json:"total_gross"`
	Recoupment  RecoupmentResult `json:"recoupment"`
	NetPayable  Money            `json:"net_payable"`
	Split       *SplitContext    `json:"split,omitempty"`
}

// =============================================================================
// STATEMENT
// =============================================================================

// Statement is one author's earnings record for one period. Unique on
// (tenant, author, period start, period end); append-only.
type Statement struct {
	ID          StatementID
	TenantID    TenantID
	AuthorID    AuthorID
	ContractID  ContractID
	TitleID     TitleID
	Period      Period
	Calculation StatementCalculation
	CreatedAt   time.Time
}

// =============================================================================
// STATEMENT ASSEMBLER
// =============================================================================

// AssembleInput carries everything the assembler persists for one author.
type AssembleInput struct {
	TenantID    TenantID
	AuthorID    AuthorID
	Contract    *Contract
	Period      Period
	FormatGross map[Format]Money
	GrossTotal  Money // this author's gross (the split amount when co-authored)
	Recoupment  RecoupmentResult
	Split       *SplitContext // nil for single-author titles
}

// AssembleResult reports the persisted (or pre-existing) statement.
// Duplicate=true means an earlier run already produced the statement; the
// returned record is that earlier statement, untouched.
type AssembleResult struct {
	Statement *Statement
	Duplicate bool
}

// StatementAssembler combines the pipeline's outputs into a persisted
// statement, atomically with the contract's recoupment update.
type StatementAssembler struct {
	Store StatementStore
}

func NewStatementAssembler(store StatementStore) *StatementAssembler {
	return &StatementAssembler{Store: store}
}

// Assemble persists a statement for (tenant, author, period). The in-memory
// duplicate pre-check is an optimization; the store's uniqueness constraint
// is the authoritative guard, so a conflicting concurrent insert is caught
// and resolved to the winner's statement rather than surfacing an error.
func (a *StatementAssembler) Assemble(ctx context.Context, in AssembleInput) (*AssembleResult, error) {
	if err := in.Period.Validate(); err != nil {
		return nil, err
	}

	if existing, err := a.Store.FindStatement(ctx, in.TenantID, in.AuthorID, in.Period); err != nil {
		return nil, fmt.Errorf("checking existing statement: %w", err)
	} else if existing != nil {
		return &AssembleResult{Statement: existing, Duplicate: true}, nil
	}

	kind := KindSingleAuthor
	if in.Split != nil {
		kind = KindSplitAuthor
	}

	stmt := &Statement{
		ID:         StatementID(uuid.NewString()),
		TenantID:   in.TenantID,
		AuthorID:   in.AuthorID,
		ContractID: in.Contract.ID,
		TitleID:    in.Contract.TitleID,
		Period:     in.Period,
		Calculation: StatementCalculation{
			Kind:        kind,
			FormatGross: in.FormatGross,
			TotalGross:  in.GrossTotal.Round(),
			Recoupment:  in.Recoupment,
			NetPayable:  in.Recoupment.NetPayable.Round(),
			Split:       in.Split,
		},
		CreatedAt: time.Now().UTC(),
	}

	err := a.Store.CreateStatement(ctx, stmt, in.Contract.ID, in.Recoupment.NewRecoupedTotal())
	if errors.Is(err, ErrDuplicateStatement) {
		existing, findErr := a.Store.FindStatement(ctx, in.TenantID, in.AuthorID, in.Period)
		if findErr != nil {
			return nil, fmt.Errorf("loading statement after conflict: %w", findErr)
		}
		if existing == nil {
			// The conflicting transaction rolled back between insert and read.
			return nil, err
		}
		return &AssembleResult{Statement: existing, Duplicate: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persisting statement: %w", err)
	}

	return &AssembleResult{Statement: stmt, Duplicate: false}, nil
}
