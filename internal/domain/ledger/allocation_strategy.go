package ledger

import (
	"sort"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AllocationPlan is one planned debit of a period, produced by a strategy
// before any state is mutated.
type AllocationPlan struct {
	DebtCode string
	Amount   decimal.Decimal
}

// AllocationStrategy turns a receipt amount and a set of open periods into
// an ordered debit plan. Strategies are pure: they never mutate periods.
type AllocationStrategy interface {
	Name() string
	Plan(amount decimal.Decimal, periods []*DebtPeriod) ([]AllocationPlan, decimal.Decimal, error)
}

// FIFOAllocationStrategy pays the oldest open period first. Periods are
// ordered by FromDate ascending, DebtCode ascending on ties, and each one
// is filled up to its remaining amount before moving on.
type FIFOAllocationStrategy struct{}

// NewFIFOAllocationStrategy creates a FIFO allocation strategy
func NewFIFOAllocationStrategy() *FIFOAllocationStrategy {
	return &FIFOAllocationStrategy{}
}

// Name returns the strategy identifier
func (s *FIFOAllocationStrategy) Name() string {
	return "FIFO"
}

// Plan distributes amount across the open periods oldest-first and returns
// the debit plan plus the unallocated remainder.
func (s *FIFOAllocationStrategy) Plan(amount decimal.Decimal, periods []*DebtPeriod) ([]AllocationPlan, decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, shared.NewValidationError("Allocation amount must be positive")
	}

	open := make([]*DebtPeriod, 0, len(periods))
	for _, p := range periods {
		if p.CanReceivePayment() {
			open = append(open, p)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].FromDate.Equal(open[j].FromDate) {
			return open[i].FromDate.Before(open[j].FromDate)
		}
		return open[i].DebtCode < open[j].DebtCode
	})

	plans := make([]AllocationPlan, 0, len(open))
	remaining := amount
	for _, p := range open {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		debit := decimal.Min(remaining, p.RemainAmount)
		plans = append(plans, AllocationPlan{DebtCode: p.DebtCode, Amount: debit})
		remaining = remaining.Sub(debit)
	}

	return plans, remaining, nil
}

// ExplicitAllocationStrategy applies caller-chosen amounts to caller-chosen
// periods. A requested amount above a period's remainder is capped at the
// remainder; anything left over stays unallocated.
type ExplicitAllocationStrategy struct {
	requests []AllocationPlan
}

// NewExplicitAllocationStrategy creates an explicit allocation strategy from
// the caller's requested period debits
func NewExplicitAllocationStrategy(requests []AllocationPlan) *ExplicitAllocationStrategy {
	return &ExplicitAllocationStrategy{requests: requests}
}

// Name returns the strategy identifier
func (s *ExplicitAllocationStrategy) Name() string {
	return "EXPLICIT"
}

// Plan validates the requested debits against the given periods, caps each
// at the period's remainder and returns the remainder of the receipt amount.
func (s *ExplicitAllocationStrategy) Plan(amount decimal.Decimal, periods []*DebtPeriod) ([]AllocationPlan, decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, shared.NewValidationError("Allocation amount must be positive")
	}
	if len(s.requests) == 0 {
		return nil, decimal.Zero, shared.NewValidationError("Explicit allocation requires at least one target period")
	}

	byCode := make(map[string]*DebtPeriod, len(periods))
	for _, p := range periods {
		byCode[p.DebtCode] = p
	}

	seen := make(map[string]bool, len(s.requests))
	plans := make([]AllocationPlan, 0, len(s.requests))
	remaining := amount
	for _, req := range s.requests {
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, decimal.Zero, shared.NewValidationError("Requested allocation amounts must be positive")
		}
		if seen[req.DebtCode] {
			return nil, decimal.Zero, shared.NewValidationError("Duplicate target period " + req.DebtCode)
		}
		seen[req.DebtCode] = true

		p, ok := byCode[req.DebtCode]
		if !ok {
			return nil, decimal.Zero, shared.NewDomainError("NOT_FOUND", "Target period "+req.DebtCode+" not found")
		}
		if p.IsLocked {
			return nil, decimal.Zero, shared.NewLockedError("Target period " + req.DebtCode + " is locked")
		}
		if !p.CanReceivePayment() {
			return nil, decimal.Zero, shared.NewDomainError("INVALID_STATE",
				"Target period "+req.DebtCode+" cannot receive payments in "+p.Status.String()+" status")
		}

		debit := decimal.Min(req.Amount, p.RemainAmount)
		if debit.GreaterThan(remaining) {
			debit = remaining
		}
		if debit.LessThanOrEqual(decimal.Zero) {
			continue
		}
		plans = append(plans, AllocationPlan{DebtCode: req.DebtCode, Amount: debit})
		remaining = remaining.Sub(debit)
	}

	return plans, remaining, nil
}
