package ledger

import (
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtPeriodCreatedEvent is raised when a new debt period is created
type DebtPeriodCreatedEvent struct {
	shared.BaseDomainEvent
	PeriodID     uuid.UUID `json:"period_id"`
	DebtCode     string    `json:"debt_code"`
	CustomerCode string    `json:"customer_code"`
	ManageMonth  string    `json:"manage_month"`
	FromDate     time.Time `json:"from_date"`
	ToDate       time.Time `json:"to_date"`
}

// EventType returns the event type name
func (e *DebtPeriodCreatedEvent) EventType() string {
	return "DebtPeriodCreated"
}

// NewDebtPeriodCreatedEvent creates a new DebtPeriodCreatedEvent
func NewDebtPeriodCreatedEvent(dp *DebtPeriod) *DebtPeriodCreatedEvent {
	return &DebtPeriodCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPeriodCreated", "DebtPeriod", dp.ID),
		PeriodID:        dp.ID,
		DebtCode:        dp.DebtCode,
		CustomerCode:    dp.CustomerCode,
		ManageMonth:     dp.ManageMonth,
		FromDate:        dp.FromDate,
		ToDate:          dp.ToDate,
	}
}

// DebtPeriodChargedEvent is raised when charges are seeded or revised
type DebtPeriodChargedEvent struct {
	shared.BaseDomainEvent
	PeriodID     uuid.UUID       `json:"period_id"`
	DebtCode     string          `json:"debt_code"`
	CustomerCode string          `json:"customer_code"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	RemainAmount decimal.Decimal `json:"remain_amount"`
	Status       PeriodStatus    `json:"status"`
}

// EventType returns the event type name
func (e *DebtPeriodChargedEvent) EventType() string {
	return "DebtPeriodCharged"
}

// NewDebtPeriodChargedEvent creates a new DebtPeriodChargedEvent
func NewDebtPeriodChargedEvent(dp *DebtPeriod) *DebtPeriodChargedEvent {
	return &DebtPeriodChargedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPeriodCharged", "DebtPeriod", dp.ID),
		PeriodID:        dp.ID,
		DebtCode:        dp.DebtCode,
		CustomerCode:    dp.CustomerCode,
		TotalAmount:     dp.TotalAmount,
		RemainAmount:    dp.RemainAmount,
		Status:          dp.Status,
	}
}

// DebtPeriodLockedEvent is raised when a period is locked
type DebtPeriodLockedEvent struct {
	shared.BaseDomainEvent
	PeriodID uuid.UUID `json:"period_id"`
	DebtCode string    `json:"debt_code"`
	Actor    string    `json:"actor"`
	LockedAt time.Time `json:"locked_at"`
}

// EventType returns the event type name
func (e *DebtPeriodLockedEvent) EventType() string {
	return "DebtPeriodLocked"
}

// NewDebtPeriodLockedEvent creates a new DebtPeriodLockedEvent
func NewDebtPeriodLockedEvent(dp *DebtPeriod, actor string) *DebtPeriodLockedEvent {
	lockedAt := time.Now()
	if dp.LockedAt != nil {
		lockedAt = *dp.LockedAt
	}
	return &DebtPeriodLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPeriodLocked", "DebtPeriod", dp.ID),
		PeriodID:        dp.ID,
		DebtCode:        dp.DebtCode,
		Actor:           actor,
		LockedAt:        lockedAt,
	}
}

// DebtPeriodUnlockedEvent is raised when a period is unlocked
type DebtPeriodUnlockedEvent struct {
	shared.BaseDomainEvent
	PeriodID uuid.UUID `json:"period_id"`
	DebtCode string    `json:"debt_code"`
	Actor    string    `json:"actor"`
}

// EventType returns the event type name
func (e *DebtPeriodUnlockedEvent) EventType() string {
	return "DebtPeriodUnlocked"
}

// NewDebtPeriodUnlockedEvent creates a new DebtPeriodUnlockedEvent
func NewDebtPeriodUnlockedEvent(dp *DebtPeriod, actor string) *DebtPeriodUnlockedEvent {
	return &DebtPeriodUnlockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPeriodUnlocked", "DebtPeriod", dp.ID),
		PeriodID:        dp.ID,
		DebtCode:        dp.DebtCode,
		Actor:           actor,
	}
}

// DebtPeriodPaymentAppliedEvent is raised when the allocation engine debits a period
type DebtPeriodPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	PeriodID     uuid.UUID       `json:"period_id"`
	DebtCode     string          `json:"debt_code"`
	CustomerCode string          `json:"customer_code"`
	Amount       decimal.Decimal `json:"amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	RemainAmount decimal.Decimal `json:"remain_amount"`
	Status       PeriodStatus    `json:"status"`
}

// EventType returns the event type name
func (e *DebtPeriodPaymentAppliedEvent) EventType() string {
	return "DebtPeriodPaymentApplied"
}

// NewDebtPeriodPaymentAppliedEvent creates a new DebtPeriodPaymentAppliedEvent
func NewDebtPeriodPaymentAppliedEvent(dp *DebtPeriod, amount decimal.Decimal) *DebtPeriodPaymentAppliedEvent {
	return &DebtPeriodPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPeriodPaymentApplied", "DebtPeriod", dp.ID),
		PeriodID:        dp.ID,
		DebtCode:        dp.DebtCode,
		CustomerCode:    dp.CustomerCode,
		Amount:          amount,
		PaidAmount:      dp.PaidAmount,
		RemainAmount:    dp.RemainAmount,
		Status:          dp.Status,
	}
}

// DebtPeriodPaymentReversedEvent is raised when a cancelled receipt credits a period back
type DebtPeriodPaymentReversedEvent struct {
	shared.BaseDomainEvent
	PeriodID     uuid.UUID       `json:"period_id"`
	DebtCode     string          `json:"debt_code"`
	CustomerCode string          `json:"customer_code"`
	Amount       decimal.Decimal `json:"amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	RemainAmount decimal.Decimal `json:"remain_amount"`
	Status       PeriodStatus    `json:"status"`
}

// EventType returns the event type name
func (e *DebtPeriodPaymentReversedEvent) EventType() string {
	return "DebtPeriodPaymentReversed"
}

// NewDebtPeriodPaymentReversedEvent creates a new DebtPeriodPaymentReversedEvent
func NewDebtPeriodPaymentReversedEvent(dp *DebtPeriod, amount decimal.Decimal) *DebtPeriodPaymentReversedEvent {
	return &DebtPeriodPaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DebtPeriodPaymentReversed", "DebtPeriod", dp.ID),
		PeriodID:        dp.ID,
		DebtCode:        dp.DebtCode,
		CustomerCode:    dp.CustomerCode,
		Amount:          amount,
		PaidAmount:      dp.PaidAmount,
		RemainAmount:    dp.RemainAmount,
		Status:          dp.Status,
	}
}
