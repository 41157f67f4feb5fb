package models

import (
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// DebtPeriodModel is the persistence model for the DebtPeriod aggregate root.
type DebtPeriodModel struct {
	AggregateModel
	DebtCode           string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerCode       string              `gorm:"type:varchar(50);not null;index"`
	CustomerName       string              `gorm:"type:varchar(200);not null"`
	ManageMonth        string              `gorm:"type:varchar(7);not null;index"`
	FromDate           time.Time           `gorm:"not null;index"`
	ToDate             time.Time           `gorm:"not null"`
	TotalAmount        decimal.Decimal     `gorm:"type:decimal(18,0);not null"`
	TotalAmountInvoice decimal.Decimal     `gorm:"type:decimal(18,0);not null"`
	TotalAmountCash    decimal.Decimal     `gorm:"type:decimal(18,0);not null"`
	TotalOther         decimal.Decimal     `gorm:"type:decimal(18,0);not null"`
	VATPercent         decimal.Decimal     `gorm:"type:decimal(5,2);not null"`
	PaidAmount         decimal.Decimal     `gorm:"type:decimal(18,0);not null"`
	RemainAmount       decimal.Decimal     `gorm:"type:decimal(18,0);not null;index"`
	TripCount          int                 `gorm:"not null;default:0"`
	Status             ledger.PeriodStatus `gorm:"type:varchar(20);not null;default:'CHUA_TAO';index"`
	IsLocked           bool                `gorm:"not null;default:false;index"`
	LockedAt           *time.Time
	LockedBy           string `gorm:"type:varchar(100)"`
	Note               string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DebtPeriodModel) TableName() string {
	return "debt_periods"
}

// ToDomain converts the persistence model to a domain DebtPeriod entity.
func (m *DebtPeriodModel) ToDomain() *ledger.DebtPeriod {
	return &ledger.DebtPeriod{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		DebtCode:           m.DebtCode,
		CustomerCode:       m.CustomerCode,
		CustomerName:       m.CustomerName,
		ManageMonth:        m.ManageMonth,
		FromDate:           m.FromDate,
		ToDate:             m.ToDate,
		TotalAmount:        m.TotalAmount,
		TotalAmountInvoice: m.TotalAmountInvoice,
		TotalAmountCash:    m.TotalAmountCash,
		TotalOther:         m.TotalOther,
		VATPercent:         m.VATPercent,
		PaidAmount:         m.PaidAmount,
		RemainAmount:       m.RemainAmount,
		TripCount:          m.TripCount,
		Status:             m.Status,
		IsLocked:           m.IsLocked,
		LockedAt:           m.LockedAt,
		LockedBy:           m.LockedBy,
		Note:               m.Note,
	}
}

// FromDomain populates the persistence model from a domain DebtPeriod entity.
func (m *DebtPeriodModel) FromDomain(dp *ledger.DebtPeriod) {
	m.FromAggregateRoot(dp.BaseAggregateRoot)
	m.DebtCode = dp.DebtCode
	m.CustomerCode = dp.CustomerCode
	m.CustomerName = dp.CustomerName
	m.ManageMonth = dp.ManageMonth
	m.FromDate = dp.FromDate
	m.ToDate = dp.ToDate
	m.TotalAmount = dp.TotalAmount
	m.TotalAmountInvoice = dp.TotalAmountInvoice
	m.TotalAmountCash = dp.TotalAmountCash
	m.TotalOther = dp.TotalOther
	m.VATPercent = dp.VATPercent
	m.PaidAmount = dp.PaidAmount
	m.RemainAmount = dp.RemainAmount
	m.TripCount = dp.TripCount
	m.Status = dp.Status
	m.IsLocked = dp.IsLocked
	m.LockedAt = dp.LockedAt
	m.LockedBy = dp.LockedBy
	m.Note = dp.Note
}

// DebtPeriodModelFromDomain creates a new persistence model from a domain DebtPeriod.
func DebtPeriodModelFromDomain(dp *ledger.DebtPeriod) *DebtPeriodModel {
	m := &DebtPeriodModel{}
	m.FromDomain(dp)
	return m
}

// PaymentReceiptModel is the persistence model for the PaymentReceipt aggregate root.
type PaymentReceiptModel struct {
	AggregateModel
	ReceiptNumber     string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerCode      string               `gorm:"type:varchar(50);not null;index"`
	Amount            decimal.Decimal      `gorm:"type:decimal(18,0);not null"`
	AllocatedAmount   decimal.Decimal      `gorm:"type:decimal(18,0);not null"`
	UnallocatedAmount decimal.Decimal      `gorm:"type:decimal(18,0);not null"`
	Method            ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	Note              string               `gorm:"type:text"`
	CreatedBy         string               `gorm:"type:varchar(100);not null"`
	IdempotencyKey    string               `gorm:"type:varchar(100);index"`
	Status            ledger.ReceiptStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Allocations       ledger.Allocations   `gorm:"type:jsonb;default:'[]'"`
	CancelledAt       *time.Time
	CancelledBy       string `gorm:"type:varchar(100)"`
	CancelReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentReceiptModel) TableName() string {
	return "payment_receipts"
}

// ToDomain converts the persistence model to a domain PaymentReceipt entity.
func (m *PaymentReceiptModel) ToDomain() *ledger.PaymentReceipt {
	return &ledger.PaymentReceipt{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ReceiptNumber:     m.ReceiptNumber,
		CustomerCode:      m.CustomerCode,
		Amount:            m.Amount,
		AllocatedAmount:   m.AllocatedAmount,
		UnallocatedAmount: m.UnallocatedAmount,
		Method:            m.Method,
		Note:              m.Note,
		CreatedBy:         m.CreatedBy,
		IdempotencyKey:    m.IdempotencyKey,
		Status:            m.Status,
		Allocations:       m.Allocations,
		CancelledAt:       m.CancelledAt,
		CancelledBy:       m.CancelledBy,
		CancelReason:      m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain PaymentReceipt entity.
func (m *PaymentReceiptModel) FromDomain(pr *ledger.PaymentReceipt) {
	m.FromAggregateRoot(pr.BaseAggregateRoot)
	m.ReceiptNumber = pr.ReceiptNumber
	m.CustomerCode = pr.CustomerCode
	m.Amount = pr.Amount
	m.AllocatedAmount = pr.AllocatedAmount
	m.UnallocatedAmount = pr.UnallocatedAmount
	m.Method = pr.Method
	m.Note = pr.Note
	m.CreatedBy = pr.CreatedBy
	m.IdempotencyKey = pr.IdempotencyKey
	m.Status = pr.Status
	m.Allocations = pr.Allocations
	m.CancelledAt = pr.CancelledAt
	m.CancelledBy = pr.CancelledBy
	m.CancelReason = pr.CancelReason
}

// PaymentReceiptModelFromDomain creates a new persistence model from a domain PaymentReceipt.
func PaymentReceiptModelFromDomain(pr *ledger.PaymentReceipt) *PaymentReceiptModel {
	m := &PaymentReceiptModel{}
	m.FromDomain(pr)
	return m
}

// CustomerModel is the persistence model backing the customer directory.
type CustomerModel struct {
	AggregateModel
	CustomerCode string `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerName string `gorm:"type:varchar(200);not null"`
	TaxCode      string `gorm:"type:varchar(50)"`
	Phone        string `gorm:"type:varchar(20)"`
	Address      string `gorm:"type:varchar(500)"`
	IsActive     bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}
