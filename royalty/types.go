/*
Package royalty provides the core royalty calculation engine.

PURPOSE:
  This package computes, for each publishing contract period, how much money
  each author (or co-author) earns from title sales, reconciles that amount
  against previously paid advances, and produces an immutable statement
  record. It combines tiered-rate computation, multi-party allocation,
  advance recoupment, and idempotent statement assembly.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-point monetary amount (2 decimal places when expressed)
  - Rate: A royalty rate in [0, 1] with 4 decimal places
  - Format: The sales channel of a title (physical, ebook, audiobook)
  - TitleAuthorship: Ownership percentage linking an author to a title
  - SaleTransaction: A single recorded sale
  - SalesAggregate: Units sold per format within a period

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal everywhere. Converting money to floating
     point at any intermediate step is a correctness bug, not a style choice.
  2. Immutability: Statements are written once; corrections are new statements.
  3. Type Safety: Strong typing for IDs prevents mixing tenant/author/title IDs.
  4. Rounding: Happens exactly once, where a royalty is expressed as money,
     using round-half-up.

SEE ALSO:
  - contract.go: Contract and tier definitions
  - tiers.go: Graduated tier-rate computation
  - statement.go: Statement assembly and the calculation snapshot
*/
package royalty

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point monetary amount
// =============================================================================

// Money is an exact decimal monetary amount. Intermediate computations keep
// full precision; Round() truncates to currency precision (2 dp, half-up).
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value decimal.Decimal) Money {
	return Money{Value: value}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustMoney parses a decimal string, returning zero on failure.
// Intended for literals in configuration and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return Money{Value: d}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// Round expresses the amount at currency precision.
// decimal.Round rounds half away from zero, which is round-half-up for the
// non-negative amounts this engine produces.
func (m Money) Round() Money { return Money{Value: m.Value.Round(2)} }

// String renders at full precision; use Round().String() for currency display.
func (m Money) String() string { return m.Value.String() }

// Money serializes as a bare decimal string so calculation snapshots and API
// payloads carry exact values.
func (m Money) MarshalJSON() ([]byte, error)  { return m.Value.MarshalJSON() }
func (m *Money) UnmarshalJSON(b []byte) error { return m.Value.UnmarshalJSON(b) }

// =============================================================================
// RATE - Royalty rate in [0, 1]
// =============================================================================

// Rate is a royalty rate with 4 decimal places of precision, e.g. 0.1250.
type Rate struct {
	Value decimal.Decimal
}

func NewRate(value decimal.Decimal) Rate { return Rate{Value: value} }

func MustRate(s string) Rate {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}
	}
	return Rate{Value: d}
}

// RateFromString parses a decimal rate string ("0.125"). Range checking is
// left to ValidateTiers so callers see a TierConfigError with band context.
func RateFromString(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return Rate{Value: d}, nil
}

// Valid reports whether the rate lies within [0, 1].
func (r Rate) Valid() bool {
	return !r.Value.IsNegative() && !r.Value.GreaterThan(decimal.NewFromInt(1))
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type AuthorID string
type TitleID string
type ContractID string
type StatementID string

// =============================================================================
// FORMAT - Sales channel of a title
// =============================================================================

type Format string

const (
	FormatPhysical  Format = "physical"
	FormatEbook     Format = "ebook"
	FormatAudiobook Format = "audiobook"
)

// AllFormats returns every known format in stable order. Downstream tier
// calculation relies on aggregates carrying a defined quantity for each.
func AllFormats() []Format {
	return []Format{FormatPhysical, FormatEbook, FormatAudiobook}
}

func (f Format) Valid() bool {
	switch f {
	case FormatPhysical, FormatEbook, FormatAudiobook:
		return true
	}
	return false
}

// =============================================================================
// AUTHORSHIP - Title co-ownership
// =============================================================================

// TitleAuthorship links a credited author to a title with an ownership
// percentage. For any title, active ownership percentages must sum to 100
// within the tolerance enforced by the split allocator.
type TitleAuthorship struct {
	TitleID          TitleID
	AuthorID         AuthorID
	OwnershipPercent decimal.Decimal
	Active           bool
}

// =============================================================================
// SALES
// =============================================================================

// SaleTransaction is a single recorded sale of a title.
type SaleTransaction struct {
	ID       string
	TenantID TenantID
	TitleID  TitleID
	Format   Format
	Quantity int64
	SoldAt   time.Time
}

// SalesAggregate holds total units sold per format for one title and period.
// Every known format has an entry; formats with no sales carry zero.
type SalesAggregate map[Format]int64

// NewSalesAggregate returns an aggregate zero-filled for all formats.
func NewSalesAggregate() SalesAggregate {
	agg := make(SalesAggregate, len(AllFormats()))
	for _, f := range AllFormats() {
		agg[f] = 0
	}
	return agg
}

// Total returns units across all formats.
func (a SalesAggregate) Total() int64 {
	var total int64
	for _, q := range a {
		total += q
	}
	return total
}
