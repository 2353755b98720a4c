/*
tiers.go - Graduated tier-rate computation

PURPOSE:
  Applies a contract's tiered rate bands to an aggregated sales quantity,
  producing the gross royalty for one format. This is the system's central
  business rule: higher sales volumes earn a higher marginal rate, exactly
  like graduated tax brackets.

BOUNDARY HANDLING:
  Bands are [min, max) - inclusive lower, exclusive upper. A quantity exactly
  equal to a band's max is billed at the NEXT band's rate for the excess unit.
  The final band's nil maximum is treated as positive infinity.

WORKED EXAMPLE:
  Tiers [0, 5000) @ 10%, [5000, inf) @ 15%, quantity 7000:
    5000 * 0.10 = 500.00
    2000 * 0.15 = 300.00
    gross       = 800.00

PRECISION:
  All arithmetic is exact decimal. Rounding to currency precision (2 dp,
  half-up) happens once, when the format's royalty is expressed as money.

SEE ALSO:
  - contract.go: Band configuration and validation
  - statement.go: Where per-format royalties are assembled into a snapshot
*/
package royalty

import "github.com/shopspring/decimal"

// =============================================================================
// TIER RATE CALCULATOR
// =============================================================================

// TierRateCalculator walks ordered rate bands and computes gross royalty:
// each band contributes (units falling in the band) * rate. Stateless and
// pure; safe for concurrent use.
type TierRateCalculator struct{}

func NewTierRateCalculator() *TierRateCalculator {
	return &TierRateCalculator{}
}

// Calculate returns the gross royalty for one format's quantity, rounded to
// currency precision. Zero quantity yields zero royalty. A quantity not
// covered by any band is a TierGapError, never a silent under-count.
func (c *TierRateCalculator) Calculate(tiers []ContractTier, quantity int64, format Format) (Money, error) {
	if quantity == 0 {
		return ZeroMoney(), nil
	}

	bands := orderedBands(tiers, format)
	if len(bands) == 0 {
		return Money{}, &TierGapError{Format: format, Quantity: quantity, CoveredTo: 0}
	}

	gross := ZeroMoney()
	covered := int64(0)

	for _, band := range bands {
		if band.MinQuantity > covered {
			// Contiguity is validated at contract write time; a hole here
			// means the stored configuration drifted.
			return Money{}, &TierGapError{Format: format, Quantity: quantity, CoveredTo: covered}
		}

		upper := quantity
		if !band.Unbounded() && *band.MaxQuantity < quantity {
			upper = *band.MaxQuantity
		}
		if upper <= band.MinQuantity {
			continue
		}

		portion := upper - band.MinQuantity
		gross = gross.Add(bandRoyalty(portion, band.Rate))
		covered = upper

		if covered >= quantity {
			break
		}
	}

	if covered < quantity {
		// No unbounded band absorbed the remainder.
		return Money{}, &TierGapError{Format: format, Quantity: quantity, CoveredTo: covered}
	}

	return gross.Round(), nil
}

// CalculateAll computes gross royalty for every format in the aggregate and
// the title-level total. Formats with zero sales contribute zero without
// requiring bands to be configured for them.
func (c *TierRateCalculator) CalculateAll(contract *Contract, sales SalesAggregate) (map[Format]Money, Money, error) {
	perFormat := make(map[Format]Money, len(sales))
	total := ZeroMoney()

	for _, format := range AllFormats() {
		quantity := sales[format]
		gross, err := c.Calculate(contract.TiersForFormat(format), quantity, format)
		if err != nil {
			return nil, Money{}, err
		}
		perFormat[format] = gross
		total = total.Add(gross)
	}
	return perFormat, total, nil
}

// bandRoyalty computes portion * rate in exact decimal.
func bandRoyalty(portion int64, rate Rate) Money {
	return Money{Value: decimal.NewFromInt(portion).Mul(rate.Value)}
}

func orderedBands(tiers []ContractTier, format Format) []ContractTier {
	var bands []ContractTier
	for _, t := range tiers {
		if t.Format == format {
			bands = append(bands, t)
		}
	}
	// Tiers arrive sorted from Contract.TiersForFormat, but Calculate is also
	// usable standalone, so order is re-established here.
	for i := 1; i < len(bands); i++ {
		for j := i; j > 0 && bands[j].MinQuantity < bands[j-1].MinQuantity; j-- {
			bands[j], bands[j-1] = bands[j-1], bands[j]
		}
	}
	return bands
}
