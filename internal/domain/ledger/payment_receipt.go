package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptStatus represents the lifecycle state of a payment receipt
type ReceiptStatus string

const (
	ReceiptStatusActive    ReceiptStatus = "ACTIVE"    // Posted and applied to periods
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED" // Reversed; allocations undone
)

// IsValid checks if the status is a valid ReceiptStatus
func (s ReceiptStatus) IsValid() bool {
	return s == ReceiptStatusActive || s == ReceiptStatusCancelled
}

// String returns the string representation of ReceiptStatus
func (s ReceiptStatus) String() string {
	return string(s)
}

// PaymentMethod represents the channel a payment arrived through
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Allocation is the portion of a receipt applied to one debt period.
// RemainAmountAfter snapshots the period's balance right after the debit,
// for the payment-history audit trail.
type Allocation struct {
	ID                uuid.UUID       `json:"id"`
	ReceiptID         uuid.UUID       `json:"receipt_id"`
	DebtCode          string          `json:"debt_code"`
	Amount            decimal.Decimal `json:"amount"`
	RemainAmountAfter decimal.Decimal `json:"remain_amount_after"`
	AllocatedAt       time.Time       `json:"allocated_at"`
}

// Allocations is stored as JSONB inside the receipt row
type Allocations []Allocation

// Value implements driver.Valuer for JSONB storage
func (a Allocations) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *Allocations) Scan(value interface{}) error {
	if value == nil {
		*a = Allocations{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Allocations: unsupported type")
	}

	if len(bytes) == 0 {
		*a = Allocations{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// PaymentReceipt records a single payment received from a customer and the
// trail of period debits it produced. Immutable after creation except for
// cancellation.
type PaymentReceipt struct {
	shared.BaseAggregateRoot
	ReceiptNumber     string          `json:"receipt_number"`
	CustomerCode      string          `json:"customer_code"`
	Amount            decimal.Decimal `json:"amount"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal `json:"unallocated_amount"`
	Method            PaymentMethod   `json:"method"`
	Note              string          `json:"note"`
	CreatedBy         string          `json:"created_by"`
	IdempotencyKey    string          `json:"idempotency_key,omitempty"`
	Status            ReceiptStatus   `json:"status"`
	Allocations       Allocations     `json:"allocations"`
	CancelledAt       *time.Time      `json:"cancelled_at"`
	CancelledBy       string          `json:"cancelled_by,omitempty"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
}

// NewPaymentReceipt creates a new payment receipt with no allocations yet
func NewPaymentReceipt(
	receiptNumber string,
	customerCode string,
	amount valueobject.Money,
	method PaymentMethod,
	note string,
	createdBy string,
) (*PaymentReceipt, error) {
	if receiptNumber == "" {
		return nil, shared.NewValidationError("Receipt number cannot be empty")
	}
	if len(receiptNumber) > 50 {
		return nil, shared.NewValidationError("Receipt number cannot exceed 50 characters")
	}
	if customerCode == "" {
		return nil, shared.NewValidationError("Customer code cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Receipt amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("Payment method is not valid")
	}
	if createdBy == "" {
		return nil, shared.NewValidationError("Receipt creator is required")
	}

	pr := &PaymentReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		CustomerCode:      customerCode,
		Amount:            amount.Amount(),
		AllocatedAmount:   decimal.Zero,
		UnallocatedAmount: amount.Amount(),
		Method:            method,
		Note:              note,
		CreatedBy:         createdBy,
		Status:            ReceiptStatusActive,
		Allocations:       make(Allocations, 0),
	}

	pr.AddDomainEvent(NewPaymentReceiptCreatedEvent(pr))

	return pr, nil
}

// AddAllocation records a debit of one debt period against this receipt.
// Called only by the allocation engine.
func (pr *PaymentReceipt) AddAllocation(debtCode string, amount valueobject.Money, remainAmountAfter decimal.Decimal) (*Allocation, error) {
	if pr.Status != ReceiptStatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot allocate receipt in %s status", pr.Status))
	}
	if debtCode == "" {
		return nil, shared.NewValidationError("Debt code is required")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Allocation amount must be positive")
	}
	if amount.Amount().GreaterThan(pr.UnallocatedAmount) {
		return nil, shared.NewDomainError("EXCEEDS_UNALLOCATED", fmt.Sprintf(
			"Allocation amount %s exceeds unallocated amount %s", amount.Amount(), pr.UnallocatedAmount))
	}
	if remainAmountAfter.IsNegative() {
		return nil, shared.NewConsistencyError("Allocation snapshot would leave a negative period balance")
	}
	for _, alloc := range pr.Allocations {
		if alloc.DebtCode == debtCode {
			return nil, shared.NewDomainError("ALREADY_ALLOCATED", fmt.Sprintf("Receipt already allocated to period %s", debtCode))
		}
	}

	allocation := Allocation{
		ID:                uuid.New(),
		ReceiptID:         pr.ID,
		DebtCode:          debtCode,
		Amount:            amount.Amount(),
		RemainAmountAfter: remainAmountAfter,
		AllocatedAt:       time.Now(),
	}
	pr.Allocations = append(pr.Allocations, allocation)

	pr.AllocatedAmount = pr.AllocatedAmount.Add(amount.Amount())
	pr.UnallocatedAmount = pr.Amount.Sub(pr.AllocatedAmount)
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()

	return &pr.Allocations[len(pr.Allocations)-1], nil
}

// MarkCancelled flips the receipt into its only terminal state. The caller
// must already have reversed every allocation on the touched periods.
func (pr *PaymentReceipt) MarkCancelled(cancelledBy, reason string) error {
	if pr.Status == ReceiptStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Receipt is already cancelled")
	}
	if cancelledBy == "" {
		return shared.NewValidationError("Cancelling user is required")
	}
	if reason == "" {
		return shared.NewValidationError("Cancel reason is required")
	}

	now := time.Now()
	pr.Status = ReceiptStatusCancelled
	pr.CancelledAt = &now
	pr.CancelledBy = cancelledBy
	pr.CancelReason = reason
	pr.UpdatedAt = now
	pr.IncrementVersion()

	pr.AddDomainEvent(NewPaymentReceiptCancelledEvent(pr))

	return nil
}

// CheckConservation verifies that no money was created or lost:
// sum(allocations) + unallocated == receipt amount.
func (pr *PaymentReceipt) CheckConservation() error {
	sum := decimal.Zero
	for _, alloc := range pr.Allocations {
		sum = sum.Add(alloc.Amount)
	}
	if !sum.Add(pr.UnallocatedAmount).Equal(pr.Amount) {
		return shared.NewConsistencyError(fmt.Sprintf(
			"Receipt %s conservation violated: allocated %s + unallocated %s != amount %s",
			pr.ReceiptNumber, sum, pr.UnallocatedAmount, pr.Amount))
	}
	return nil
}

// IsActive returns true if the receipt has not been cancelled
func (pr *PaymentReceipt) IsActive() bool {
	return pr.Status == ReceiptStatusActive
}

// AllocationCount returns the number of period debits on this receipt
func (pr *PaymentReceipt) AllocationCount() int {
	return len(pr.Allocations)
}

// GetAmountMoney returns the receipt amount as Money
func (pr *PaymentReceipt) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(pr.Amount)
}

// GetUnallocatedAmountMoney returns the unallocated remainder as Money
func (pr *PaymentReceipt) GetUnallocatedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(pr.UnallocatedAmount)
}
