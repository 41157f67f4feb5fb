package ledger

import (
	"fmt"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocationResult is the outcome of applying one receipt to a customer's
// open periods. UnallocatedAmount is returned to the caller, never
// auto-credited anywhere.
type AllocationResult struct {
	Receipt           *PaymentReceipt
	TouchedPeriods    []*DebtPeriod
	UnallocatedAmount decimal.Decimal
}

// AllocationService executes allocation plans against period and receipt
// aggregates. It owns the invariants that span both: conservation of the
// receipt amount and period balance consistency. Callers provide the
// periods and persist the result; the service never touches storage.
type AllocationService struct{}

// NewAllocationService creates a new allocation domain service
func NewAllocationService() *AllocationService {
	return &AllocationService{}
}

// Allocate plans the distribution with the given strategy, then applies it
// to the receipt and periods in one pass. Every period in the plan is
// debited and the matching allocation line is recorded on the receipt.
func (s *AllocationService) Allocate(
	receipt *PaymentReceipt,
	periods []*DebtPeriod,
	strategy AllocationStrategy,
) (*AllocationResult, error) {
	if receipt == nil {
		return nil, shared.NewValidationError("Receipt is required")
	}
	if !receipt.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot allocate a cancelled receipt")
	}
	if strategy == nil {
		return nil, shared.NewValidationError("Allocation strategy is required")
	}
	for _, p := range periods {
		if p.CustomerCode != receipt.CustomerCode {
			return nil, shared.NewConsistencyError(fmt.Sprintf(
				"Period %s belongs to customer %s, receipt is for %s", p.DebtCode, p.CustomerCode, receipt.CustomerCode))
		}
	}

	plans, unallocated, err := strategy.Plan(receipt.UnallocatedAmount, periods)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]*DebtPeriod, len(periods))
	for _, p := range periods {
		byCode[p.DebtCode] = p
	}

	touched := make([]*DebtPeriod, 0, len(plans))
	for _, plan := range plans {
		period, ok := byCode[plan.DebtCode]
		if !ok {
			return nil, shared.NewConsistencyError("Planned period " + plan.DebtCode + " missing from working set")
		}
		amount := valueobject.NewMoneyVND(plan.Amount)
		if err := period.ApplyPayment(amount); err != nil {
			return nil, err
		}
		if _, err := receipt.AddAllocation(plan.DebtCode, amount, period.RemainAmount); err != nil {
			return nil, err
		}
		touched = append(touched, period)
	}

	if err := receipt.CheckConservation(); err != nil {
		return nil, err
	}
	if !receipt.UnallocatedAmount.Equal(unallocated) {
		return nil, shared.NewConsistencyError(fmt.Sprintf(
			"Unallocated mismatch on receipt %s: plan says %s, receipt says %s",
			receipt.ReceiptNumber, unallocated, receipt.UnallocatedAmount))
	}

	return &AllocationResult{
		Receipt:           receipt,
		TouchedPeriods:    touched,
		UnallocatedAmount: unallocated,
	}, nil
}

// Cancel reverses every allocation of the receipt on its periods and marks
// the receipt cancelled. It fails as a whole, before mutating anything, if
// any touched period is locked.
func (s *AllocationService) Cancel(
	receipt *PaymentReceipt,
	periods []*DebtPeriod,
	cancelledBy string,
	reason string,
) ([]*DebtPeriod, error) {
	if receipt == nil {
		return nil, shared.NewValidationError("Receipt is required")
	}
	if !receipt.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Receipt is already cancelled")
	}

	byCode := make(map[string]*DebtPeriod, len(periods))
	for _, p := range periods {
		byCode[p.DebtCode] = p
	}

	// Lock check up front so a mid-loop failure can never leave the
	// reversal half applied.
	for _, alloc := range receipt.Allocations {
		period, ok := byCode[alloc.DebtCode]
		if !ok {
			return nil, shared.NewConsistencyError("Allocated period " + alloc.DebtCode + " missing from working set")
		}
		if period.IsLocked {
			return nil, shared.NewLockedError(fmt.Sprintf(
				"Cannot cancel receipt %s: period %s is locked", receipt.ReceiptNumber, alloc.DebtCode))
		}
	}

	touched := make([]*DebtPeriod, 0, len(receipt.Allocations))
	for _, alloc := range receipt.Allocations {
		period := byCode[alloc.DebtCode]
		if err := period.ReversePayment(valueobject.NewMoneyVND(alloc.Amount)); err != nil {
			return nil, err
		}
		touched = append(touched, period)
	}

	if err := receipt.MarkCancelled(cancelledBy, reason); err != nil {
		return nil, err
	}

	return touched, nil
}
