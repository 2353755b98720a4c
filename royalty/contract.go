/*
contract.go - Contracts, rate tiers, and the contract resolver

PURPOSE:
  A Contract links one author to one title within one tenant and carries the
  advance bookkeeping that recoupment runs against. ContractTiers are the
  graduated rate bands applied to sales volume per format.

INVARIANTS:
  - Exactly one contract per (tenant, author, title); enforced by the store.
  - Within a contract+format, tiers are non-overlapping and contiguous,
    ordered by minimum quantity ascending.
  - At most one tier per contract+format has a nil maximum (unbounded), and
    it must be the highest band.
  - AdvanceRecouped only ever increases; statement generation is the sole
    mutation path and it is scoped to the statement's insert transaction.

SEE ALSO:
  - tiers.go: How bands are applied to quantities
  - recoupment.go: How the advance fields are consumed
*/
package royalty

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// CONTRACT
// =============================================================================

type ContractStatus string

const (
	ContractActive     ContractStatus = "active"
	ContractTerminated ContractStatus = "terminated"
	ContractSuspended  ContractStatus = "suspended"
)

// Contract is the agreement between one author and one title in one tenant.
// All monetary fields are fixed-point; AdvanceRecouped never decreases.
type Contract struct {
	ID       ContractID
	TenantID TenantID
	AuthorID AuthorID
	TitleID  TitleID
	Status   ContractStatus

	AdvanceAmount   Money
	AdvancePaid     Money
	AdvanceRecouped Money

	Tiers []ContractTier

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutstandingAdvance returns the unrecouped advance, floored at zero.
func (c *Contract) OutstandingAdvance() Money {
	outstanding := c.AdvanceAmount.Sub(c.AdvanceRecouped)
	if outstanding.IsNegative() {
		return ZeroMoney()
	}
	return outstanding
}

// TiersForFormat returns the contract's bands for one format, ordered by
// minimum quantity ascending.
func (c *Contract) TiersForFormat(format Format) []ContractTier {
	var tiers []ContractTier
	for _, t := range c.Tiers {
		if t.Format == format {
			tiers = append(tiers, t)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQuantity < tiers[j].MinQuantity })
	return tiers
}

// =============================================================================
// CONTRACT TIER - One graduated rate band
// =============================================================================

// ContractTier is a quantity band [MinQuantity, MaxQuantity) with a royalty
// rate. A nil MaxQuantity means the band is unbounded (treated as +infinity).
type ContractTier struct {
	Format      Format
	MinQuantity int64
	MaxQuantity *int64
	Rate        Rate
}

// Unbounded reports whether the band has no upper limit.
func (t ContractTier) Unbounded() bool { return t.MaxQuantity == nil }

// =============================================================================
// TIER VALIDATION
// =============================================================================

// ValidateTiers checks the band configuration for every format present on the
// contract: ascending, contiguous, non-overlapping, rates in [0, 1], and at
// most one unbounded band which must be last. Contracts are validated when
// stored so that calculation-time gaps only arise from data drift.
func ValidateTiers(contractID ContractID, tiers []ContractTier) error {
	byFormat := make(map[Format][]ContractTier)
	for _, t := range tiers {
		byFormat[t.Format] = append(byFormat[t.Format], t)
	}

	for format, bands := range byFormat {
		sort.Slice(bands, func(i, j int) bool { return bands[i].MinQuantity < bands[j].MinQuantity })

		for i, band := range bands {
			if !band.Format.Valid() {
				return &TierConfigError{ContractID: contractID, Format: format, BandIndex: i,
					Detail: fmt.Sprintf("unknown format %q", band.Format)}
			}
			if !band.Rate.Valid() {
				return &TierConfigError{ContractID: contractID, Format: format, BandIndex: i,
					Detail: fmt.Sprintf("rate %s outside [0, 1]", band.Rate.Value.String())}
			}
			if band.MinQuantity < 0 {
				return &TierConfigError{ContractID: contractID, Format: format, BandIndex: i,
					Detail: "negative minimum quantity"}
			}
			if band.MaxQuantity != nil && *band.MaxQuantity <= band.MinQuantity {
				return &TierConfigError{ContractID: contractID, Format: format, BandIndex: i,
					Detail: "maximum must exceed minimum"}
			}
			if band.MaxQuantity == nil && i != len(bands)-1 {
				return &TierConfigError{ContractID: contractID, Format: format, BandIndex: i,
					Detail: "unbounded band must be the highest"}
			}
			if i > 0 {
				prev := bands[i-1]
				if prev.MaxQuantity == nil {
					return &TierConfigError{ContractID: contractID, Format: format, BandIndex: i,
						Detail: "band follows an unbounded band"}
				}
				// Contiguity: previous exclusive max must equal this inclusive min.
				if *prev.MaxQuantity != band.MinQuantity {
					return &TierConfigError{ContractID: contractID, Format: format, BandIndex: i,
						Detail: fmt.Sprintf("band starts at %d but previous ends at %d",
							band.MinQuantity, *prev.MaxQuantity)}
				}
			}
		}
	}
	return nil
}

// =============================================================================
// CONTRACT RESOLVER
// =============================================================================

// ContractSource provides read access to contract records.
// Implementations return (nil, nil) when no active contract exists.
type ContractSource interface {
	// ActiveContract loads the contract in active status for the pair,
	// with its tiers attached.
	ActiveContract(ctx context.Context, tenantID TenantID, authorID AuthorID, titleID TitleID) (*Contract, error)
}

// ContractResolver loads the active contract and rate tiers for a pair.
// Read-only; no side effects.
type ContractResolver struct {
	Source ContractSource
}

func NewContractResolver(source ContractSource) *ContractResolver {
	return &ContractResolver{Source: source}
}

// Resolve returns the active contract for (tenant, author, title), or
// ContractNotFoundError when none exists. Callers treat the not-found case as
// a business-level skip: no active contract means no royalty owed.
func (r *ContractResolver) Resolve(ctx context.Context, tenantID TenantID, authorID AuthorID, titleID TitleID) (*Contract, error) {
	contract, err := r.Source.ActiveContract(ctx, tenantID, authorID, titleID)
	if err != nil {
		return nil, fmt.Errorf("resolving contract: %w", err)
	}
	if contract == nil || contract.Status != ContractActive {
		return nil, &ContractNotFoundError{TenantID: tenantID, AuthorID: authorID, TitleID: titleID}
	}
	if err := ValidateTiers(contract.ID, contract.Tiers); err != nil {
		return nil, err
	}
	return contract, nil
}
