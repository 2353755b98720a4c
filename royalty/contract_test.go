package royalty_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill/royalty-engine/royalty"
)

// =============================================================================
// TIER CONFIGURATION VALIDATION
// =============================================================================

func TestValidateTiers_AcceptsContiguousBands(t *testing.T) {
	err := royalty.ValidateTiers("c-1", []royalty.ContractTier{
		band(royalty.FormatPhysical, 0, upTo(5000), "0.10"),
		band(royalty.FormatPhysical, 5000, upTo(10000), "0.125"),
		band(royalty.FormatPhysical, 10000, nil, "0.15"),
		band(royalty.FormatEbook, 0, nil, "0.25"),
	})
	assert.NoError(t, err)
}

func TestValidateTiers_RejectsHole(t *testing.T) {
	err := royalty.ValidateTiers("c-1", []royalty.ContractTier{
		band(royalty.FormatPhysical, 0, upTo(1000), "0.10"),
		band(royalty.FormatPhysical, 2000, nil, "0.15"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, royalty.ErrInvalidTierConfig)
}

func TestValidateTiers_RejectsOverlap(t *testing.T) {
	err := royalty.ValidateTiers("c-1", []royalty.ContractTier{
		band(royalty.FormatPhysical, 0, upTo(5000), "0.10"),
		band(royalty.FormatPhysical, 4000, nil, "0.15"),
	})
	assert.ErrorIs(t, err, royalty.ErrInvalidTierConfig)
}

func TestValidateTiers_RejectsUnboundedBandBelowTop(t *testing.T) {
	err := royalty.ValidateTiers("c-1", []royalty.ContractTier{
		band(royalty.FormatPhysical, 0, nil, "0.10"),
		band(royalty.FormatPhysical, 5000, upTo(10000), "0.15"),
	})
	assert.ErrorIs(t, err, royalty.ErrInvalidTierConfig)
}

func TestValidateTiers_RejectsRateOutsideUnitInterval(t *testing.T) {
	err := royalty.ValidateTiers("c-1", []royalty.ContractTier{
		band(royalty.FormatPhysical, 0, nil, "1.5"),
	})
	require.Error(t, err)

	var cfgErr *royalty.TierConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, royalty.ContractID("c-1"), cfgErr.ContractID)
}

func TestValidateTiers_RejectsInvertedBand(t *testing.T) {
	err := royalty.ValidateTiers("c-1", []royalty.ContractTier{
		band(royalty.FormatPhysical, 5000, upTo(5000), "0.10"),
	})
	assert.ErrorIs(t, err, royalty.ErrInvalidTierConfig)
}

// =============================================================================
// OUTSTANDING ADVANCE
// =============================================================================

func TestContract_OutstandingAdvanceFloorsAtZero(t *testing.T) {
	c := contractWithAdvance("1000.00", "1200.00")
	assert.True(t, c.OutstandingAdvance().IsZero())

	c = contractWithAdvance("1000.00", "400.00")
	assert.Equal(t, "600", c.OutstandingAdvance().String())
}

// =============================================================================
// PERIOD SEMANTICS
// =============================================================================

func TestPeriod_HalfOpenContains(t *testing.T) {
	// GIVEN: The January 2025 reporting period
	// THEN: Jan 1 00:00 is inside, Feb 1 00:00 (the End) is not

	period := royalty.MonthlyPeriod(2025, time.January)

	assert.True(t, period.Contains(period.Start))
	assert.True(t, period.Contains(period.End.Add(-time.Second)))
	assert.False(t, period.Contains(period.End))
	assert.False(t, period.Contains(period.Start.Add(-time.Second)))
}

func TestPeriod_ValidateRejectsEmptyAndInverted(t *testing.T) {
	now := time.Now()

	assert.ErrorIs(t, royalty.Period{Start: now, End: now}.Validate(), royalty.ErrInvalidPeriod)
	assert.ErrorIs(t, royalty.Period{Start: now, End: now.Add(-time.Hour)}.Validate(), royalty.ErrInvalidPeriod)
	assert.NoError(t, royalty.Period{Start: now, End: now.Add(time.Hour)}.Validate())
}

func TestPeriod_NextIsContiguous(t *testing.T) {
	jan := royalty.MonthlyPeriod(2025, time.January)
	next := jan.Next()

	assert.Equal(t, jan.End, next.Start)
}

func TestPeriod_HalfYearCadence(t *testing.T) {
	h1 := royalty.HalfYearPeriod(2025, 1)
	h2 := royalty.HalfYearPeriod(2025, 2)

	assert.Equal(t, time.January, h1.Start.Month())
	assert.Equal(t, time.July, h1.End.Month())
	assert.Equal(t, h1.End, h2.Start)
	assert.True(t, h2.Ended(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, h2.Ended(time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)))
}
