package royalty_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill/royalty-engine/royalty"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func authorship(titleID, authorID, percent string, active bool) royalty.TitleAuthorship {
	return royalty.TitleAuthorship{
		TitleID:          royalty.TitleID(titleID),
		AuthorID:         royalty.AuthorID(authorID),
		OwnershipPercent: decimal.RequireFromString(percent),
		Active:           active,
	}
}

func splitSum(splits []royalty.AuthorSplit) royalty.Money {
	sum := royalty.ZeroMoney()
	for _, s := range splits {
		sum = sum.Add(s.SplitAmount)
	}
	return sum
}

// =============================================================================
// PROPORTIONAL ALLOCATION
// =============================================================================

func TestSplitAllocator_SixtyForty(t *testing.T) {
	// GIVEN: Co-authors at 60% and 40%
	// WHEN: Title gross is 1000.00
	// THEN: Splits are 600.00 and 400.00

	alloc := royalty.NewSplitAllocator()
	splits, err := alloc.Allocate(royalty.MustMoney("1000.00"), []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "60", true),
		authorship("title-1", "author-b", "40", true),
	})
	require.NoError(t, err)
	require.Len(t, splits, 2)

	assert.Equal(t, royalty.AuthorID("author-a"), splits[0].AuthorID)
	assert.Equal(t, "600", splits[0].SplitAmount.String())
	assert.Equal(t, "400", splits[1].SplitAmount.String())
	assert.Equal(t, "1000", splits[0].TitleGross.String())
}

func TestSplitAllocator_InactiveAuthorshipsExcluded(t *testing.T) {
	// Inactive rows neither receive money nor count toward the 100% sum.

	alloc := royalty.NewSplitAllocator()
	splits, err := alloc.Allocate(royalty.MustMoney("100.00"), []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "50", true),
		authorship("title-1", "author-b", "50", true),
		authorship("title-1", "author-c", "25", false),
	})
	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.Equal(t, "50", splits[0].SplitAmount.String())
	assert.Equal(t, "50", splits[1].SplitAmount.String())
}

// =============================================================================
// ROUNDING RESIDUAL
// =============================================================================

func TestSplitAllocator_ResidualCentToLargestShare(t *testing.T) {
	// GIVEN: Shares 33.34 / 33.33 / 33.33 and gross 100.00
	// WHEN: Each split rounds to 33.34, 33.33, 33.33
	// THEN: The splits already sum exactly; nothing is redistributed

	alloc := royalty.NewSplitAllocator()
	splits, err := alloc.Allocate(royalty.MustMoney("100.00"), []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "33.34", true),
		authorship("title-1", "author-b", "33.33", true),
		authorship("title-1", "author-c", "33.33", true),
	})
	require.NoError(t, err)
	assert.Equal(t, "100", splitSum(splits).String())
}

func TestSplitAllocator_ResidualTieGoesToLowestAuthorID(t *testing.T) {
	// GIVEN: Three equal 33.33% shares (sum 99.99, inside the 0.01 tolerance)
	// WHEN: Gross 100.00 allocates 33.33 each, leaving a 0.01 residual
	// THEN: The lowest author ID receives the extra cent, deterministically

	alloc := royalty.NewSplitAllocator()
	rows := []royalty.TitleAuthorship{
		authorship("title-1", "author-c", "33.33", true),
		authorship("title-1", "author-a", "33.33", true),
		authorship("title-1", "author-b", "33.33", true),
	}

	splits, err := alloc.Allocate(royalty.MustMoney("100.00"), rows)
	require.NoError(t, err)
	require.Len(t, splits, 3)

	assert.Equal(t, royalty.AuthorID("author-a"), splits[0].AuthorID)
	assert.Equal(t, "33.34", splits[0].SplitAmount.String())
	assert.Equal(t, "33.33", splits[1].SplitAmount.String())
	assert.Equal(t, "33.33", splits[2].SplitAmount.String())
	assert.Equal(t, "100", splitSum(splits).String())

	// Re-running with the same input yields the identical allocation.
	again, err := alloc.Allocate(royalty.MustMoney("100.00"), rows)
	require.NoError(t, err)
	assert.Equal(t, splits, again)
}

func TestSplitAllocator_SumAlwaysEqualsTitleGross(t *testing.T) {
	// Conservation across awkward amounts: no cent created or lost.

	alloc := royalty.NewSplitAllocator()
	rows := []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "57.5", true),
		authorship("title-1", "author-b", "42.5", true),
	}

	for _, gross := range []string{"0.01", "0.05", "99.99", "123.45", "1000.01"} {
		splits, err := alloc.Allocate(royalty.MustMoney(gross), rows)
		require.NoError(t, err)
		assert.True(t, splitSum(splits).Equal(royalty.MustMoney(gross)),
			"splits of %s must sum back to it, got %s", gross, splitSum(splits).String())
	}
}

// =============================================================================
// SPLIT VALIDATION
// =============================================================================

func TestSplitAllocator_SumOutsideToleranceRejected(t *testing.T) {
	// GIVEN: Shares summing to 99.97 (off by more than 0.01)
	// WHEN: Allocating
	// THEN: InvalidOwnershipSplitError reports the computed sum

	alloc := royalty.NewSplitAllocator()
	_, err := alloc.Allocate(royalty.MustMoney("100.00"), []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "50", true),
		authorship("title-1", "author-b", "49.97", true),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, royalty.ErrInvalidOwnershipSplit)

	var splitErr *royalty.InvalidOwnershipSplitError
	require.ErrorAs(t, err, &splitErr)
	assert.Equal(t, "99.97", splitErr.Sum.String())
	assert.Equal(t, royalty.TitleID("title-1"), splitErr.TitleID)
}

func TestSplitAllocator_NoActiveAuthorsRejected(t *testing.T) {
	alloc := royalty.NewSplitAllocator()
	_, err := alloc.Allocate(royalty.MustMoney("100.00"), []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "100", false),
	})
	assert.ErrorIs(t, err, royalty.ErrInvalidOwnershipSplit)
}
