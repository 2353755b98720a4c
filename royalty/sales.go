package royalty

import "context"

// =============================================================================
// SALES AGGREGATOR - Units sold per format within a period
// =============================================================================

// SalesSource provides read access to sales transactions.
type SalesSource interface {
	// SalesInPeriod returns sale transactions for the title whose sale date
	// falls within [period.Start, period.End).
	SalesInPeriod(ctx context.Context, tenantID TenantID, titleID TitleID, period Period) ([]SaleTransaction, error)
}

// SalesAggregator sums unit sales by format for a title within a reporting
// period. A period with no sales is a valid zero-result, not an error.
type SalesAggregator struct {
	Source SalesSource
}

func NewSalesAggregator(source SalesSource) *SalesAggregator {
	return &SalesAggregator{Source: source}
}

// Aggregate returns units sold per format. Every known format has an entry,
// zero-filled when absent, so downstream tier calculation always has a
// defined input. Underlying read failures surface as AggregationError.
func (a *SalesAggregator) Aggregate(ctx context.Context, tenantID TenantID, titleID TitleID, period Period) (SalesAggregate, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	sales, err := a.Source.SalesInPeriod(ctx, tenantID, titleID, period)
	if err != nil {
		return nil, &AggregationError{TitleID: titleID, Err: err}
	}

	agg := NewSalesAggregate()
	for _, sale := range sales {
		if !period.Contains(sale.SoldAt) {
			// A sale dated exactly at period.End belongs to the next period.
			continue
		}
		agg[sale.Format] += sale.Quantity
	}
	return agg, nil
}
