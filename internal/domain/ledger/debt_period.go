package ledger

import (
	"fmt"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PeriodStatus represents the collection status of a debt period
type PeriodStatus string

const (
	PeriodStatusNotCharged PeriodStatus = "CHUA_TAO"     // Created, charges not yet seeded
	PeriodStatusUnpaid     PeriodStatus = "CHUA_TRA"     // Charged, nothing collected
	PeriodStatusPartial    PeriodStatus = "TRA_MOT_PHAN" // Partially collected
	PeriodStatusSettled    PeriodStatus = "HOAN_TAT"     // Fully collected
)

// IsValid checks if the status is a valid PeriodStatus
func (s PeriodStatus) IsValid() bool {
	switch s {
	case PeriodStatusNotCharged, PeriodStatusUnpaid, PeriodStatusPartial, PeriodStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of PeriodStatus
func (s PeriodStatus) String() string {
	return string(s)
}

// CanApplyPayment returns true if payments can be applied in this status
func (s PeriodStatus) CanApplyPayment() bool {
	return s == PeriodStatusUnpaid || s == PeriodStatusPartial
}

// TrafficLight is the display classification of a period's collection state
type TrafficLight string

const (
	TrafficLightGreen  TrafficLight = "GREEN"  // Fully collected
	TrafficLightYellow TrafficLight = "YELLOW" // Remainder within 20% of charges
	TrafficLightRed    TrafficLight = "RED"    // Remainder above 20% of charges
)

// yellowThreshold is the remain/total ratio at or below which a period shows yellow.
var yellowThreshold = decimal.NewFromFloat(0.2)

// DeriveStatus computes the period status from the paid/total pair.
// It is the single source of truth; callers must not re-derive it ad hoc.
func DeriveStatus(paidAmount, totalAmount decimal.Decimal) PeriodStatus {
	if totalAmount.IsZero() {
		return PeriodStatusNotCharged
	}
	remain := totalAmount.Sub(paidAmount)
	switch {
	case remain.LessThanOrEqual(decimal.Zero):
		return PeriodStatusSettled
	case remain.Equal(totalAmount):
		return PeriodStatusUnpaid
	default:
		return PeriodStatusPartial
	}
}

// Classify computes the traffic-light classification from the paid/total pair.
func Classify(paidAmount, totalAmount decimal.Decimal) TrafficLight {
	if totalAmount.IsZero() {
		return TrafficLightGreen
	}
	remain := totalAmount.Sub(paidAmount)
	if remain.LessThanOrEqual(decimal.Zero) {
		return TrafficLightGreen
	}
	if remain.Div(totalAmount).LessThanOrEqual(yellowThreshold) {
		return TrafficLightYellow
	}
	return TrafficLightRed
}

// ChargeBreakdown is the charge detail supplied by the trip/billing
// aggregator when a period is charged. The ledger never computes charges.
type ChargeBreakdown struct {
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	CashAmount    decimal.Decimal `json:"cash_amount"`
	OtherAmount   decimal.Decimal `json:"other_amount"`
	TripCount     int             `json:"trip_count"`
}

// DebtPeriod represents one customer's billing cycle with a fixed charge
// total to be collected. It is an aggregate root owned by the period store.
type DebtPeriod struct {
	shared.BaseAggregateRoot
	DebtCode           string          `json:"debt_code"`
	CustomerCode       string          `json:"customer_code"`
	CustomerName       string          `json:"customer_name"`
	ManageMonth        string          `json:"manage_month"`
	FromDate           time.Time       `json:"from_date"`
	ToDate             time.Time       `json:"to_date"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	TotalAmountInvoice decimal.Decimal `json:"total_amount_invoice"`
	TotalAmountCash    decimal.Decimal `json:"total_amount_cash"`
	TotalOther         decimal.Decimal `json:"total_other"`
	VATPercent         decimal.Decimal `json:"vat_percent"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	RemainAmount       decimal.Decimal `json:"remain_amount"`
	TripCount          int             `json:"trip_count"`
	Status             PeriodStatus    `json:"status"`
	IsLocked           bool            `json:"is_locked"`
	LockedAt           *time.Time      `json:"locked_at"`
	LockedBy           string          `json:"locked_by,omitempty"`
	Note               string          `json:"note"`
}

// NewDebtPeriod creates a new debt period in CHUA_TAO status.
// Charges are seeded separately through SetCharges.
func NewDebtPeriod(
	debtCode string,
	customerCode string,
	customerName string,
	manageMonth string,
	fromDate time.Time,
	toDate time.Time,
	vatPercent decimal.Decimal,
	note string,
) (*DebtPeriod, error) {
	if debtCode == "" {
		return nil, shared.NewValidationError("Debt code cannot be empty")
	}
	if len(debtCode) > 50 {
		return nil, shared.NewValidationError("Debt code cannot exceed 50 characters")
	}
	if customerCode == "" {
		return nil, shared.NewValidationError("Customer code cannot be empty")
	}
	if manageMonth == "" {
		return nil, shared.NewValidationError("Manage month cannot be empty")
	}
	if fromDate.IsZero() || toDate.IsZero() {
		return nil, shared.NewValidationError("Period date range is required")
	}
	if fromDate.After(toDate) {
		return nil, shared.NewValidationError("Period start date must not be after end date")
	}
	if vatPercent.IsNegative() || vatPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewValidationError("VAT percent must be between 0 and 100")
	}

	dp := &DebtPeriod{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		DebtCode:           debtCode,
		CustomerCode:       customerCode,
		CustomerName:       customerName,
		ManageMonth:        manageMonth,
		FromDate:           fromDate,
		ToDate:             toDate,
		TotalAmount:        decimal.Zero,
		TotalAmountInvoice: decimal.Zero,
		TotalAmountCash:    decimal.Zero,
		TotalOther:         decimal.Zero,
		VATPercent:         vatPercent,
		PaidAmount:         decimal.Zero,
		RemainAmount:       decimal.Zero,
		Status:             PeriodStatusNotCharged,
	}
	dp.Note = note

	dp.AddDomainEvent(NewDebtPeriodCreatedEvent(dp))

	return dp, nil
}

// Overlaps reports whether the period's date range intersects [fromDate, toDate].
func (dp *DebtPeriod) Overlaps(fromDate, toDate time.Time) bool {
	return !dp.FromDate.After(toDate) && !fromDate.After(dp.ToDate)
}

// SetCharges seeds or revises the charge totals from the billing aggregator.
// VAT applies to the invoiced portion only.
// Returns overcollected=true when the revised charges fall below the amount
// already collected; the period is flagged, never clamped.
func (dp *DebtPeriod) SetCharges(breakdown ChargeBreakdown) (overcollected bool, err error) {
	if dp.IsLocked {
		return false, shared.NewLockedError(fmt.Sprintf("Debt period %s is locked", dp.DebtCode))
	}
	if breakdown.InvoiceAmount.IsNegative() || breakdown.CashAmount.IsNegative() || breakdown.OtherAmount.IsNegative() {
		return false, shared.NewValidationError("Charge amounts cannot be negative")
	}

	invoiceWithVAT := valueobject.NewMoneyVND(breakdown.InvoiceAmount).ApplyVAT(dp.VATPercent).Amount()

	dp.TotalAmountInvoice = breakdown.InvoiceAmount
	dp.TotalAmountCash = breakdown.CashAmount
	dp.TotalOther = breakdown.OtherAmount
	dp.TripCount = breakdown.TripCount
	dp.TotalAmount = invoiceWithVAT.Add(breakdown.CashAmount).Add(breakdown.OtherAmount)
	dp.RemainAmount = dp.TotalAmount.Sub(dp.PaidAmount)
	dp.Status = DeriveStatus(dp.PaidAmount, dp.TotalAmount)
	dp.UpdatedAt = time.Now()
	dp.IncrementVersion()

	dp.AddDomainEvent(NewDebtPeriodChargedEvent(dp))

	return dp.RemainAmount.IsNegative(), nil
}

// UpdateDetails changes the editable fields of an unlocked period.
func (dp *DebtPeriod) UpdateDetails(fromDate, toDate time.Time, vatPercent decimal.Decimal, note string) error {
	if dp.IsLocked {
		return shared.NewLockedError(fmt.Sprintf("Debt period %s is locked", dp.DebtCode))
	}
	if fromDate.IsZero() || toDate.IsZero() {
		return shared.NewValidationError("Period date range is required")
	}
	if fromDate.After(toDate) {
		return shared.NewValidationError("Period start date must not be after end date")
	}
	if vatPercent.IsNegative() || vatPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("VAT percent must be between 0 and 100")
	}

	dp.FromDate = fromDate
	dp.ToDate = toDate
	dp.VATPercent = vatPercent
	dp.Note = note
	dp.UpdatedAt = time.Now()
	dp.IncrementVersion()

	return nil
}

// Lock freezes the period against edits, payment allocation and deletion.
// Locking an already-locked period is a no-op.
func (dp *DebtPeriod) Lock(actor string) {
	if dp.IsLocked {
		return
	}
	now := time.Now()
	dp.IsLocked = true
	dp.LockedAt = &now
	dp.LockedBy = actor
	dp.UpdatedAt = now
	dp.IncrementVersion()

	dp.AddDomainEvent(NewDebtPeriodLockedEvent(dp, actor))
}

// Unlock lifts the freeze. Unlocking an unlocked period is a no-op.
func (dp *DebtPeriod) Unlock(actor string) {
	if !dp.IsLocked {
		return
	}
	now := time.Now()
	dp.IsLocked = false
	dp.LockedAt = nil
	dp.LockedBy = ""
	dp.UpdatedAt = now
	dp.IncrementVersion()

	dp.AddDomainEvent(NewDebtPeriodUnlockedEvent(dp, actor))
}

// ApplyPayment debits the period by the given amount. Called only by the
// allocation engine, which guarantees amount <= RemainAmount.
func (dp *DebtPeriod) ApplyPayment(amount valueobject.Money) error {
	if dp.IsLocked {
		return shared.NewLockedError(fmt.Sprintf("Debt period %s is locked", dp.DebtCode))
	}
	if !dp.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to period in %s status", dp.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(dp.RemainAmount) {
		return shared.NewDomainError("EXCEEDS_REMAIN", fmt.Sprintf(
			"Payment amount %s exceeds remaining amount %s", amount.Amount(), dp.RemainAmount))
	}

	dp.PaidAmount = dp.PaidAmount.Add(amount.Amount())
	dp.RemainAmount = dp.TotalAmount.Sub(dp.PaidAmount)
	dp.Status = DeriveStatus(dp.PaidAmount, dp.TotalAmount)
	dp.UpdatedAt = time.Now()
	dp.IncrementVersion()

	dp.AddDomainEvent(NewDebtPeriodPaymentAppliedEvent(dp, amount.Amount()))

	return nil
}

// ReversePayment credits back a previously applied amount, used when a
// receipt is cancelled. Fails on a locked period: historical totals of a
// locked period must not change.
func (dp *DebtPeriod) ReversePayment(amount valueobject.Money) error {
	if dp.IsLocked {
		return shared.NewLockedError(fmt.Sprintf("Debt period %s is locked", dp.DebtCode))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Reversal amount must be positive")
	}
	if amount.Amount().GreaterThan(dp.PaidAmount) {
		return shared.NewConsistencyError(fmt.Sprintf(
			"Reversal amount %s exceeds paid amount %s on period %s", amount.Amount(), dp.PaidAmount, dp.DebtCode))
	}

	dp.PaidAmount = dp.PaidAmount.Sub(amount.Amount())
	dp.RemainAmount = dp.TotalAmount.Sub(dp.PaidAmount)
	dp.Status = DeriveStatus(dp.PaidAmount, dp.TotalAmount)
	dp.UpdatedAt = time.Now()
	dp.IncrementVersion()

	dp.AddDomainEvent(NewDebtPeriodPaymentReversedEvent(dp, amount.Amount()))

	return nil
}

// CanReceivePayment returns true if the allocation engine may debit this period.
func (dp *DebtPeriod) CanReceivePayment() bool {
	return !dp.IsLocked && dp.Status.CanApplyPayment() && dp.RemainAmount.GreaterThan(decimal.Zero)
}

// Classification returns the traffic-light display state of the period.
func (dp *DebtPeriod) Classification() TrafficLight {
	return Classify(dp.PaidAmount, dp.TotalAmount)
}

// IsSettled returns true if the period is fully collected
func (dp *DebtPeriod) IsSettled() bool {
	return dp.Status == PeriodStatusSettled
}

// IsOvercollected returns true if charges were revised below the collected amount
func (dp *DebtPeriod) IsOvercollected() bool {
	return dp.RemainAmount.IsNegative()
}

// GetRemainAmountMoney returns the remaining amount as Money
func (dp *DebtPeriod) GetRemainAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(dp.RemainAmount)
}

// GetTotalAmountMoney returns the charge total as Money
func (dp *DebtPeriod) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyVND(dp.TotalAmount)
}
