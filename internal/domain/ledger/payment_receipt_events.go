package ledger

import (
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentReceiptCreatedEvent is raised when a receipt is posted
type PaymentReceiptCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	CustomerCode  string          `json:"customer_code"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	CreatedBy     string          `json:"created_by"`
}

// EventType returns the event type name
func (e *PaymentReceiptCreatedEvent) EventType() string {
	return "PaymentReceiptCreated"
}

// NewPaymentReceiptCreatedEvent creates a new PaymentReceiptCreatedEvent
func NewPaymentReceiptCreatedEvent(pr *PaymentReceipt) *PaymentReceiptCreatedEvent {
	return &PaymentReceiptCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentReceiptCreated", "PaymentReceipt", pr.ID),
		ReceiptID:       pr.ID,
		ReceiptNumber:   pr.ReceiptNumber,
		CustomerCode:    pr.CustomerCode,
		Amount:          pr.Amount,
		Method:          pr.Method,
		CreatedBy:       pr.CreatedBy,
	}
}

// PaymentReceiptCancelledEvent is raised when a receipt is cancelled and its
// allocations reversed
type PaymentReceiptCancelledEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	CustomerCode  string          `json:"customer_code"`
	Amount        decimal.Decimal `json:"amount"`
	CancelledAt   time.Time       `json:"cancelled_at"`
	CancelledBy   string          `json:"cancelled_by"`
	CancelReason  string          `json:"cancel_reason"`
}

// EventType returns the event type name
func (e *PaymentReceiptCancelledEvent) EventType() string {
	return "PaymentReceiptCancelled"
}

// NewPaymentReceiptCancelledEvent creates a new PaymentReceiptCancelledEvent
func NewPaymentReceiptCancelledEvent(pr *PaymentReceipt) *PaymentReceiptCancelledEvent {
	cancelledAt := time.Now()
	if pr.CancelledAt != nil {
		cancelledAt = *pr.CancelledAt
	}
	return &PaymentReceiptCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentReceiptCancelled", "PaymentReceipt", pr.ID),
		ReceiptID:       pr.ID,
		ReceiptNumber:   pr.ReceiptNumber,
		CustomerCode:    pr.CustomerCode,
		Amount:          pr.Amount,
		CancelledAt:     cancelledAt,
		CancelledBy:     pr.CancelledBy,
		CancelReason:    pr.CancelReason,
	}
}
