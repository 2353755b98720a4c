package royalty_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill/royalty-engine/royalty"
	"github.com/quill/royalty-engine/royalty/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine() (*royalty.Engine, *store.Memory) {
	mem := store.NewMemory()
	return royalty.NewEngine(mem, mem, mem, mem), mem
}

func jan2025() royalty.Period {
	return royalty.MonthlyPeriod(2025, time.January)
}

// seedContract stores an active contract with the standard physical tiers
// ([0, 5000) @ 10%, [5000, inf) @ 15%) and the given advance.
func seedContract(mem *store.Memory, authorID, titleID, advance string) {
	mem.PutContract(&royalty.Contract{
		ID:              royalty.ContractID("contract-" + authorID + "-" + titleID),
		TenantID:        "tenant-1",
		AuthorID:        royalty.AuthorID(authorID),
		TitleID:         royalty.TitleID(titleID),
		Status:          royalty.ContractActive,
		AdvanceAmount:   royalty.MustMoney(advance),
		AdvancePaid:     royalty.MustMoney(advance),
		AdvanceRecouped: royalty.ZeroMoney(),
		Tiers:           physicalTiers(),
	})
}

func seedSales(mem *store.Memory, titleID string, quantity int64, soldAt time.Time) {
	mem.AddSale(royalty.SaleTransaction{
		ID:       fmt.Sprintf("sale-%s-%d-%d", titleID, quantity, soldAt.Unix()),
		TenantID: "tenant-1",
		TitleID:  royalty.TitleID(titleID),
		Format:   royalty.FormatPhysical,
		Quantity: quantity,
		SoldAt:   soldAt,
	})
}

// =============================================================================
// SINGLE AUTHOR GENERATION
// =============================================================================

func TestEngine_SingleAuthorStatement(t *testing.T) {
	// GIVEN: 7000 physical units in January against graduated tiers and a
	//        5000.00 advance
	// WHEN: Generating the January statement
	// THEN: Gross 800.00 recoups the advance fully; net payable is zero and
	//       the contract's recouped total advances to 800.00

	engine, mem := newTestEngine()
	ctx := context.Background()
	period := jan2025()

	seedContract(mem, "author-1", "title-1", "5000.00")
	seedSales(mem, "title-1", 7000, period.Start.Add(24*time.Hour))

	result, err := engine.GenerateStatement(ctx, "tenant-1", "author-1", "title-1", period)
	require.NoError(t, err)
	require.False(t, result.Duplicate)

	calc := result.Statement.Calculation
	assert.Equal(t, royalty.KindSingleAuthor, calc.Kind)
	assert.Nil(t, calc.Split)
	assert.Equal(t, "800", calc.FormatGross[royalty.FormatPhysical].String())
	assert.Equal(t, "800", calc.TotalGross.String())
	assert.Equal(t, "800", calc.Recoupment.ThisPeriodRecoupment.String())
	assert.Equal(t, "4200", calc.Recoupment.RemainingAdvance.String())
	assert.True(t, calc.NetPayable.IsZero())

	contract := mem.Contract("tenant-1", "author-1", "title-1")
	assert.Equal(t, "800", contract.AdvanceRecouped.String())
}

func TestEngine_NoSalesYieldsZeroStatement(t *testing.T) {
	// A period with no sales is a valid zero statement, not an error.

	engine, mem := newTestEngine()
	seedContract(mem, "author-1", "title-1", "1000.00")

	result, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", jan2025())
	require.NoError(t, err)

	assert.True(t, result.Statement.Calculation.TotalGross.IsZero())
	assert.True(t, result.Statement.Calculation.NetPayable.IsZero())
	assert.Equal(t, "1000", result.Statement.Calculation.Recoupment.RemainingAdvance.String())
}

func TestEngine_SaleOnPeriodEndExcluded(t *testing.T) {
	// GIVEN: One sale inside January and one dated exactly Feb 1 00:00
	// WHEN: Generating the January statement
	// THEN: Only the January sale is billed; the boundary sale belongs to
	//       February

	engine, mem := newTestEngine()
	period := jan2025()

	seedContract(mem, "author-1", "title-1", "0")
	seedSales(mem, "title-1", 100, period.Start)
	seedSales(mem, "title-1", 900, period.End)

	result, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", period)
	require.NoError(t, err)

	// 100 units * 0.10
	assert.Equal(t, "10", result.Statement.Calculation.TotalGross.String())
}

func TestEngine_MissingContract(t *testing.T) {
	engine, mem := newTestEngine()
	seedSales(mem, "title-1", 100, jan2025().Start)

	_, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", jan2025())
	require.Error(t, err)
	assert.ErrorIs(t, err, royalty.ErrContractNotFound)
	assert.True(t, royalty.IsConfigurationError(err))
}

func TestEngine_TerminatedContractNotResolved(t *testing.T) {
	engine, mem := newTestEngine()
	mem.PutContract(&royalty.Contract{
		ID:       "contract-1",
		TenantID: "tenant-1",
		AuthorID: "author-1",
		TitleID:  "title-1",
		Status:   royalty.ContractTerminated,
		Tiers:    physicalTiers(),
	})

	_, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", jan2025())
	assert.ErrorIs(t, err, royalty.ErrContractNotFound)
}

// =============================================================================
// IDEMPOTENT RE-GENERATION
// =============================================================================

func TestEngine_DuplicateGenerationIsNoOp(t *testing.T) {
	// GIVEN: A January statement already generated
	// WHEN: Generating the same (author, period) again
	// THEN: The existing statement comes back with Duplicate=true; no second
	//       statement is written and the advance is not recouped twice

	engine, mem := newTestEngine()
	period := jan2025()

	seedContract(mem, "author-1", "title-1", "5000.00")
	seedSales(mem, "title-1", 7000, period.Start.Add(time.Hour))

	first, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", period)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", period)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Statement.ID, second.Statement.ID)

	assert.Equal(t, 1, mem.StatementCount())
	assert.Equal(t, "800", mem.Contract("tenant-1", "author-1", "title-1").AdvanceRecouped.String())
}

func TestEngine_DistinctPeriodsProduceDistinctStatements(t *testing.T) {
	engine, mem := newTestEngine()
	jan := jan2025()
	feb := jan.Next()

	seedContract(mem, "author-1", "title-1", "100.00")
	seedSales(mem, "title-1", 500, jan.Start.Add(time.Hour))
	seedSales(mem, "title-1", 500, feb.Start.Add(time.Hour))

	first, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", jan)
	require.NoError(t, err)
	second, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-1", "title-1", feb)
	require.NoError(t, err)

	assert.False(t, second.Duplicate)
	assert.NotEqual(t, first.Statement.ID, second.Statement.ID)
	assert.Equal(t, 2, mem.StatementCount())

	// January recouped the full 50.00 gross against the 100.00 advance;
	// February recoups the remaining 50.00.
	assert.Equal(t, "50", first.Statement.Calculation.Recoupment.ThisPeriodRecoupment.String())
	assert.Equal(t, "50", second.Statement.Calculation.Recoupment.ThisPeriodRecoupment.String())
	assert.Equal(t, "100", mem.Contract("tenant-1", "author-1", "title-1").AdvanceRecouped.String())
}

// =============================================================================
// CO-AUTHORED TITLES
// =============================================================================

func TestEngine_CoAuthoredSplitWithIndependentRecoupment(t *testing.T) {
	// GIVEN: A 60/40 co-authored title earning 800.00 title gross, the 60%
	//        author carrying a 500.00 advance and the 40% author a 100.00 one
	// WHEN: Generating both statements for January
	// THEN: Splits are 480.00 / 320.00; each advance recoups against its own
	//       contract only

	engine, mem := newTestEngine()
	period := jan2025()

	seedContract(mem, "author-a", "title-1", "500.00")
	seedContract(mem, "author-b", "title-1", "100.00")
	mem.PutAuthorships("title-1", []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "60", true),
		authorship("title-1", "author-b", "40", true),
	})
	seedSales(mem, "title-1", 7000, period.Start.Add(time.Hour))

	outcomes := engine.GenerateForTitle(context.Background(), "tenant-1", "title-1", period,
		[]royalty.AuthorID{"author-a", "author-b"})
	require.Len(t, outcomes, 2)
	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)

	calcA := outcomes[0].Result.Statement.Calculation
	calcB := outcomes[1].Result.Statement.Calculation

	assert.Equal(t, royalty.KindSplitAuthor, calcA.Kind)
	require.NotNil(t, calcA.Split)
	assert.Equal(t, "800", calcA.Split.TitleGross.String())
	assert.Equal(t, "60", calcA.Split.OwnershipPercent.String())
	assert.Equal(t, "480", calcA.TotalGross.String())
	assert.Equal(t, "320", calcB.TotalGross.String())

	// author-a: 480 gross against 500 advance -> all recouped, 20 remains.
	assert.True(t, calcA.NetPayable.IsZero())
	assert.Equal(t, "20", calcA.Recoupment.RemainingAdvance.String())
	// author-b: 320 gross against 100 advance -> 220 payable.
	assert.Equal(t, "100", calcB.Recoupment.ThisPeriodRecoupment.String())
	assert.Equal(t, "220", calcB.NetPayable.String())

	assert.Equal(t, "480", mem.Contract("tenant-1", "author-a", "title-1").AdvanceRecouped.String())
	assert.Equal(t, "100", mem.Contract("tenant-1", "author-b", "title-1").AdvanceRecouped.String())
}

func TestEngine_NonLeadSingleGenerationPricedOnLeadTiers(t *testing.T) {
	// GIVEN: A 60/40 co-authored title where the lead's tiers pay 10% and the
	//        minority author's own tiers pay a flat 20%
	// WHEN: Only the minority author's statement is generated
	// THEN: Title gross is still priced on the lead's tiers, so the figures
	//       match what generating the full title produces

	engine, mem := newTestEngine()
	period := jan2025()

	seedContract(mem, "author-a", "title-1", "0")
	mem.PutContract(&royalty.Contract{
		ID:            "contract-author-b-title-1",
		TenantID:      "tenant-1",
		AuthorID:      "author-b",
		TitleID:       "title-1",
		Status:        royalty.ContractActive,
		AdvanceAmount: royalty.ZeroMoney(),
		AdvancePaid:   royalty.ZeroMoney(),
		Tiers: []royalty.ContractTier{
			band(royalty.FormatPhysical, 0, nil, "0.20"),
		},
	})
	mem.PutAuthorships("title-1", []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "60", true),
		authorship("title-1", "author-b", "40", true),
	})
	seedSales(mem, "title-1", 1000, period.Start.Add(time.Hour))

	single, err := engine.GenerateStatement(context.Background(), "tenant-1", "author-b", "title-1", period)
	require.NoError(t, err)

	calc := single.Statement.Calculation
	require.NotNil(t, calc.Split)
	// 1000 units on the lead's 10% band: 100.00 title gross, 40% of it.
	assert.Equal(t, "100", calc.Split.TitleGross.String())
	assert.Equal(t, "40", calc.TotalGross.String())

	outcomes := engine.GenerateForTitle(context.Background(), "tenant-1", "title-1", period,
		[]royalty.AuthorID{"author-a", "author-b"})
	require.Len(t, outcomes, 2)
	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	require.True(t, outcomes[1].Result.Duplicate)
	assert.True(t, outcomes[1].Result.Statement.Calculation.TotalGross.Equal(calc.TotalGross))
	assert.Equal(t, "60", outcomes[0].Result.Statement.Calculation.TotalGross.String())
}

func TestEngine_SplitSumMismatchFailsBothAuthors(t *testing.T) {
	// Ownership drift (sum 90) must fail generation for every author on the
	// title, loudly.

	engine, mem := newTestEngine()
	period := jan2025()

	seedContract(mem, "author-a", "title-1", "0")
	seedContract(mem, "author-b", "title-1", "0")
	mem.PutAuthorships("title-1", []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "60", true),
		authorship("title-1", "author-b", "30", true),
	})
	seedSales(mem, "title-1", 100, period.Start.Add(time.Hour))

	outcomes := engine.GenerateForTitle(context.Background(), "tenant-1", "title-1", period,
		[]royalty.AuthorID{"author-a", "author-b"})

	for _, out := range outcomes {
		assert.ErrorIs(t, out.Err, royalty.ErrInvalidOwnershipSplit)
	}
	assert.Equal(t, 0, mem.StatementCount())
}

// =============================================================================
// BATCH ORCHESTRATION
// =============================================================================

func TestBatch_PartialFailureIsolation(t *testing.T) {
	// GIVEN: Three pairs; one author has no contract
	// WHEN: Running the batch
	// THEN: The two configured pairs succeed; the failure is recorded without
	//       aborting the run

	engine, mem := newTestEngine()
	period := jan2025()

	seedContract(mem, "author-a", "title-1", "0")
	seedContract(mem, "author-c", "title-2", "0")
	mem.PutAuthorships("title-1", []royalty.TitleAuthorship{
		authorship("title-1", "author-a", "50", true),
		authorship("title-1", "author-b", "50", true),
	})
	seedSales(mem, "title-1", 1000, period.Start.Add(time.Hour))
	seedSales(mem, "title-2", 2000, period.Start.Add(time.Hour))

	orch := royalty.NewBatchOrchestrator(engine, 2)
	result, err := orch.RunBatch(context.Background(), "tenant-1", period, []royalty.AuthorTitlePair{
		{AuthorID: "author-a", TitleID: "title-1"},
		{AuthorID: "author-b", TitleID: "title-1"}, // no contract
		{AuthorID: "author-c", TitleID: "title-2"},
	})
	require.NoError(t, err)

	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, royalty.AuthorID("author-b"), result.Failed[0].AuthorID)
	assert.ErrorIs(t, result.Failed[0].Err, royalty.ErrContractNotFound)
}

func TestBatch_RerunConvergesOnDuplicates(t *testing.T) {
	// GIVEN: A completed batch
	// WHEN: The same batch is re-run
	// THEN: Every pair resolves to a duplicate no-op; statement count and
	//       recouped totals are unchanged

	engine, mem := newTestEngine()
	period := jan2025()

	seedContract(mem, "author-a", "title-1", "100.00")
	seedContract(mem, "author-c", "title-2", "0")
	seedSales(mem, "title-1", 1000, period.Start.Add(time.Hour))
	seedSales(mem, "title-2", 2000, period.Start.Add(time.Hour))

	pairs := []royalty.AuthorTitlePair{
		{AuthorID: "author-a", TitleID: "title-1"},
		{AuthorID: "author-c", TitleID: "title-2"},
	}

	orch := royalty.NewBatchOrchestrator(engine, 4)
	first, err := orch.RunBatch(context.Background(), "tenant-1", period, pairs)
	require.NoError(t, err)
	require.Len(t, first.Succeeded, 2)
	assert.Equal(t, 0, first.Duplicates())

	recoupedAfterFirst := mem.Contract("tenant-1", "author-a", "title-1").AdvanceRecouped

	second, err := orch.RunBatch(context.Background(), "tenant-1", period, pairs)
	require.NoError(t, err)
	assert.Len(t, second.Succeeded, 2)
	assert.Empty(t, second.Failed)
	assert.Equal(t, 2, second.Duplicates())

	assert.Equal(t, 2, mem.StatementCount())
	assert.True(t, mem.Contract("tenant-1", "author-a", "title-1").AdvanceRecouped.Equal(recoupedAfterFirst))
}

func TestBatch_InvalidPeriodRejectsInvocation(t *testing.T) {
	engine, _ := newTestEngine()
	orch := royalty.NewBatchOrchestrator(engine, 1)

	now := time.Now()
	_, err := orch.RunBatch(context.Background(), "tenant-1",
		royalty.Period{Start: now, End: now}, nil)
	assert.ErrorIs(t, err, royalty.ErrInvalidPeriod)
}
