package royalty

// =============================================================================
// ADVANCE RECOUPMENT - Netting gross royalty against outstanding advance
// =============================================================================

// RecoupmentResult is the advance breakdown for one statement. All figures
// are at currency precision.
type RecoupmentResult struct {
	OriginalAdvance      Money `json:"original_advance"`
	PreviouslyRecouped   Money `json:"previously_recouped"`
	ThisPeriodRecoupment Money `json:"this_period_recoupment"`
	RemainingAdvance     Money `json:"remaining_advance"`
	NetPayable           Money `json:"net_payable"`
}

// AdvanceRecoupmentTracker nets gross royalty against an author's outstanding
// advance. Pure: persisting the contract's updated recouped value is the
// statement assembler's job, within the statement insert transaction.
type AdvanceRecoupmentTracker struct{}

func NewAdvanceRecoupmentTracker() *AdvanceRecoupmentTracker {
	return &AdvanceRecoupmentTracker{}
}

// Recoup computes this period's recoupment and net payable:
//
//	outstanding = max(advance - previouslyRecouped, 0)
//	recoupment  = min(gross, outstanding)
//	netPayable  = gross - recoupment
//
// Never produces negative net payable, and recoupment never exceeds the
// outstanding balance.
func (t *AdvanceRecoupmentTracker) Recoup(contract *Contract, grossRoyalty Money) RecoupmentResult {
	outstanding := contract.OutstandingAdvance()
	recoupment := grossRoyalty.Min(outstanding)
	if recoupment.IsNegative() {
		recoupment = ZeroMoney()
	}

	return RecoupmentResult{
		OriginalAdvance:      contract.AdvanceAmount,
		PreviouslyRecouped:   contract.AdvanceRecouped,
		ThisPeriodRecoupment: recoupment,
		RemainingAdvance:     outstanding.Sub(recoupment),
		NetPayable:           grossRoyalty.Sub(recoupment),
	}
}

// NewRecoupedTotal returns the contract's advance_recouped value after this
// result is applied. Monotonically non-decreasing across periods.
func (r RecoupmentResult) NewRecoupedTotal() Money {
	return r.PreviouslyRecouped.Add(r.ThisPeriodRecoupment)
}
