/*
split.go - Co-author royalty allocation

PURPOSE:
  When a title has multiple credited authors, the title-level gross royalty is
  divided proportionally by ownership percentage, producing one allocation per
  author. Each author's advance is then recouped against their own contract.

ROUNDING:
  Splits are rounded independently to currency precision. Any residual cents
  from rounding are assigned to the author with the largest share, so the sum
  of rounded splits exactly equals the rounded title total: no money is
  created or lost. When two authors hold equal largest shares, the residual
  goes to the lowest author ID, keeping re-runs deterministic.

INVARIANT:
  Active ownership percentages must sum to 100 within a 0.01 tolerance.
  A violation fails loudly with the computed sum; the allocator never
  redistributes an incorrect total.
*/
package royalty

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ownershipTolerance is the permitted deviation of the ownership sum from 100.
var ownershipTolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// AUTHOR SPLIT
// =============================================================================

// AuthorSplit is one author's share of a title's gross royalty, with enough
// context to populate the statement's split block.
type AuthorSplit struct {
	AuthorID         AuthorID
	OwnershipPercent decimal.Decimal
	SplitAmount      Money
	TitleGross       Money
}

// SplitAllocator divides title-level gross royalty among credited authors.
// Stateless and pure.
type SplitAllocator struct{}

func NewSplitAllocator() *SplitAllocator {
	return &SplitAllocator{}
}

// Allocate returns one split per active authorship, ordered by author ID.
// The title gross is rounded once; the splits sum to it exactly.
func (a *SplitAllocator) Allocate(titleGross Money, authorships []TitleAuthorship) ([]AuthorSplit, error) {
	active := make([]TitleAuthorship, 0, len(authorships))
	sum := decimal.Zero
	for _, auth := range authorships {
		if !auth.Active {
			continue
		}
		active = append(active, auth)
		sum = sum.Add(auth.OwnershipPercent)
	}

	if len(active) == 0 || sum.Sub(hundred).Abs().GreaterThan(ownershipTolerance) {
		titleID := TitleID("")
		if len(authorships) > 0 {
			titleID = authorships[0].TitleID
		}
		return nil, &InvalidOwnershipSplitError{TitleID: titleID, Sum: sum}
	}

	sort.Slice(active, func(i, j int) bool { return active[i].AuthorID < active[j].AuthorID })

	total := titleGross.Round()
	splits := make([]AuthorSplit, len(active))
	allocated := ZeroMoney()
	largest := 0

	for i, auth := range active {
		raw := total.Value.Mul(auth.OwnershipPercent).Div(hundred)
		amount := Money{Value: raw}.Round()
		splits[i] = AuthorSplit{
			AuthorID:         auth.AuthorID,
			OwnershipPercent: auth.OwnershipPercent,
			SplitAmount:      amount,
			TitleGross:       total,
		}
		allocated = allocated.Add(amount)
		if auth.OwnershipPercent.GreaterThan(active[largest].OwnershipPercent) {
			largest = i
		}
	}

	// Assign the rounding residual to the largest share. Ties resolve to the
	// lowest author ID because the slice is ordered and GreaterThan is strict.
	residual := total.Sub(allocated)
	if !residual.IsZero() {
		splits[largest].SplitAmount = splits[largest].SplitAmount.Add(residual)
	}

	return splits, nil
}
