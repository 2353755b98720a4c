/*
errors.go - Centralized error types for the royalty engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations map database-level failures onto these.

ERROR CATEGORIES:
  1. Configuration errors - fatal to a single author/title pair, not the batch
     (missing contract, tier gap, ownership split mismatch)
  2. Concurrency conflicts - duplicate statement detection; treated as a
     successful no-op referencing the existing record, never a raw failure
  3. Data-access errors - aggregation/read failures; retried by the caller's
     job-retry policy, not by the engine

USAGE:
  result, err := engine.GenerateStatement(ctx, in)
  if errors.Is(err, royalty.ErrContractNotFound) {
      // business-level skip: no active contract, no royalty owed
  }

SEE ALSO:
  - contract.go: ContractResolver returns ContractNotFoundError
  - tiers.go: TierGapError
  - split.go: InvalidOwnershipSplitError
*/
package royalty

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrContractNotFound is returned when no active contract exists for a
	// (tenant, author, title) pair. Callers must treat this as a business-level
	// skip (no royalty owed), not a system error.
	ErrContractNotFound = errors.New("no active contract")

	// ErrTierGap is returned when a sales quantity does not fall into any
	// configured tier band. This is a configuration error; the engine fails
	// loudly rather than silently under-counting.
	ErrTierGap = errors.New("tier configuration gap")

	// ErrInvalidTierConfig is returned when a contract's tier bands overlap,
	// are not contiguous, or carry a rate outside [0, 1].
	ErrInvalidTierConfig = errors.New("invalid tier configuration")

	// ErrInvalidOwnershipSplit is returned when a title's active ownership
	// percentages do not sum to 100 within tolerance.
	ErrInvalidOwnershipSplit = errors.New("invalid ownership split")

	// ErrDuplicateStatement is returned by statement stores when the
	// (tenant, author, period) uniqueness constraint is violated. The
	// assembler converts it into a no-op referencing the existing statement.
	ErrDuplicateStatement = errors.New("duplicate statement for author and period")

	// ErrAggregationFailed wraps data-access failures during sales aggregation.
	// A period with no sales is a valid zero-result, not this error.
	ErrAggregationFailed = errors.New("sales aggregation failed")

	// ErrInvalidPeriod is returned when a period is malformed (end not after start).
	ErrInvalidPeriod = errors.New("invalid period: end must be after start")

	// ErrStatementNotFound is returned when a referenced statement doesn't exist.
	ErrStatementNotFound = errors.New("statement not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ContractNotFoundError identifies the pair that had no active contract.
type ContractNotFoundError struct {
	TenantID TenantID
	AuthorID AuthorID
	TitleID  TitleID
}

func (e *ContractNotFoundError) Error() string {
	return fmt.Sprintf("no active contract for author %s on title %s (tenant %s)",
		e.AuthorID, e.TitleID, e.TenantID)
}

func (e *ContractNotFoundError) Unwrap() error { return ErrContractNotFound }

// TierGapError describes a quantity that escaped every configured band.
type TierGapError struct {
	Format    Format
	Quantity  int64
	CoveredTo int64 // highest exclusive bound reached before the gap
}

func (e *TierGapError) Error() string {
	return fmt.Sprintf("tier gap for format %s: quantity %d exceeds coverage ending at %d",
		e.Format, e.Quantity, e.CoveredTo)
}

func (e *TierGapError) Unwrap() error { return ErrTierGap }

// TierConfigError pinpoints a malformed band within a contract's tiers.
type TierConfigError struct {
	ContractID ContractID
	Format     Format
	BandIndex  int
	Detail     string
}

func (e *TierConfigError) Error() string {
	return fmt.Sprintf("contract %s format %s band %d: %s",
		e.ContractID, e.Format, e.BandIndex, e.Detail)
}

func (e *TierConfigError) Unwrap() error { return ErrInvalidTierConfig }

// InvalidOwnershipSplitError reports the computed sum so the violation can be
// diagnosed. The engine never silently corrects ownership percentages.
type InvalidOwnershipSplitError struct {
	TitleID TitleID
	Sum     decimal.Decimal
}

func (e *InvalidOwnershipSplitError) Error() string {
	return fmt.Sprintf("ownership percentages for title %s sum to %s, expected 100",
		e.TitleID, e.Sum.String())
}

func (e *InvalidOwnershipSplitError) Unwrap() error { return ErrInvalidOwnershipSplit }

// AggregationError wraps an underlying data-access failure.
type AggregationError struct {
	TitleID TitleID
	Err     error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregating sales for title %s: %v", e.TitleID, e.Err)
}

func (e *AggregationError) Unwrap() error { return ErrAggregationFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigurationError reports whether the error is fatal to a single
// author/title pair but not to a batch run.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrTierGap) ||
		errors.Is(err, ErrInvalidTierConfig) ||
		errors.Is(err, ErrInvalidOwnershipSplit)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrStatementNotFound)
}
