package ledger

import (
	"context"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodFilter narrows debt period queries
type PeriodFilter struct {
	shared.Filter
	CustomerCode string
	ManageMonth  string
	Status       PeriodStatus
	IsLocked     *bool
	FromDate     *time.Time
	ToDate       *time.Time
}

// ReceiptFilter narrows payment receipt queries
type ReceiptFilter struct {
	shared.Filter
	CustomerCode string
	Status       ReceiptStatus
	Method       PaymentMethod
	FromDate     *time.Time
	ToDate       *time.Time
}

// CustomerDebtSummary aggregates one customer's position across periods
type CustomerDebtSummary struct {
	CustomerCode     string          `json:"customer_code"`
	CustomerName     string          `json:"customer_name"`
	PeriodCount      int64           `json:"period_count"`
	OpenPeriodCount  int64           `json:"open_period_count"`
	TotalCharged     decimal.Decimal `json:"total_charged"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Classification   TrafficLight    `json:"classification"`
}

// DebtPeriodRepository persists DebtPeriod aggregates
type DebtPeriodRepository interface {
	Save(ctx context.Context, period *DebtPeriod) error
	Update(ctx context.Context, period *DebtPeriod) error
	FindByID(ctx context.Context, id uuid.UUID) (*DebtPeriod, error)
	FindByDebtCode(ctx context.Context, debtCode string) (*DebtPeriod, error)
	FindByFilter(ctx context.Context, filter PeriodFilter) (*shared.Paginated[*DebtPeriod], error)
	// FindOpenByCustomer returns payable periods ordered by FromDate asc,
	// DebtCode asc, the order the FIFO strategy consumes them in.
	FindOpenByCustomer(ctx context.Context, customerCode string) ([]*DebtPeriod, error)
	FindByDebtCodes(ctx context.Context, debtCodes []string) ([]*DebtPeriod, error)
	// FindOverlapping returns the customer's unlocked periods in the manage
	// month whose date range intersects [fromDate, toDate]. Locked periods
	// are settled history and do not block a new period.
	FindOverlapping(ctx context.Context, customerCode, manageMonth string, fromDate, toDate time.Time) ([]*DebtPeriod, error)
	SummarizeByCustomer(ctx context.Context, customerCode string) (*CustomerDebtSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// GenerateDebtCode issues the next code in the DP-YYYYMM-XXXXX series.
	GenerateDebtCode(ctx context.Context, manageMonth string) (string, error)
}

// PaymentReceiptRepository persists PaymentReceipt aggregates
type PaymentReceiptRepository interface {
	Save(ctx context.Context, receipt *PaymentReceipt) error
	Update(ctx context.Context, receipt *PaymentReceipt) error
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentReceipt, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*PaymentReceipt, error)
	// FindByIdempotencyKey returns the receipt posted under the client's
	// idempotency key.
	FindByIdempotencyKey(ctx context.Context, key string) (*PaymentReceipt, error)
	FindByFilter(ctx context.Context, filter ReceiptFilter) (*shared.Paginated[*PaymentReceipt], error)
	// FindByDebtCode returns receipts that carry an allocation against the period.
	FindByDebtCode(ctx context.Context, debtCode string) ([]*PaymentReceipt, error)
	// GenerateReceiptNumber issues the next number in the PR-YYYYMMDD-XXXXX series.
	GenerateReceiptNumber(ctx context.Context, date time.Time) (string, error)
}

// CustomerDirectory resolves customer codes to display names. Backed by the
// customer master elsewhere in the back office; the ledger only reads it.
type CustomerDirectory interface {
	Lookup(ctx context.Context, customerCode string) (name string, err error)
	Exists(ctx context.Context, customerCode string) (bool, error)
}
