package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func mustVND(t *testing.T, amount int64) valueobject.Money {
	t.Helper()
	return valueobject.NewMoneyVNDFromInt(amount)
}

// =============================================================================
// Mock Repositories
// =============================================================================

type MockDebtPeriodRepository struct {
	mock.Mock
}

func (m *MockDebtPeriodRepository) Save(ctx context.Context, period *ledger.DebtPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

func (m *MockDebtPeriodRepository) Update(ctx context.Context, period *ledger.DebtPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

func (m *MockDebtPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.DebtPeriod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DebtPeriod), args.Error(1)
}

func (m *MockDebtPeriodRepository) FindByDebtCode(ctx context.Context, debtCode string) (*ledger.DebtPeriod, error) {
	args := m.Called(ctx, debtCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DebtPeriod), args.Error(1)
}

func (m *MockDebtPeriodRepository) FindByFilter(ctx context.Context, filter ledger.PeriodFilter) (*shared.Paginated[*ledger.DebtPeriod], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*ledger.DebtPeriod]), args.Error(1)
}

func (m *MockDebtPeriodRepository) FindOpenByCustomer(ctx context.Context, customerCode string) ([]*ledger.DebtPeriod, error) {
	args := m.Called(ctx, customerCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.DebtPeriod), args.Error(1)
}

func (m *MockDebtPeriodRepository) FindByDebtCodes(ctx context.Context, debtCodes []string) ([]*ledger.DebtPeriod, error) {
	args := m.Called(ctx, debtCodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.DebtPeriod), args.Error(1)
}

func (m *MockDebtPeriodRepository) FindOverlapping(ctx context.Context, customerCode, manageMonth string, fromDate, toDate time.Time) ([]*ledger.DebtPeriod, error) {
	args := m.Called(ctx, customerCode, manageMonth, fromDate, toDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.DebtPeriod), args.Error(1)
}

func (m *MockDebtPeriodRepository) SummarizeByCustomer(ctx context.Context, customerCode string) (*ledger.CustomerDebtSummary, error) {
	args := m.Called(ctx, customerCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CustomerDebtSummary), args.Error(1)
}

func (m *MockDebtPeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDebtPeriodRepository) GenerateDebtCode(ctx context.Context, manageMonth string) (string, error) {
	args := m.Called(ctx, manageMonth)
	return args.String(0), args.Error(1)
}

type MockPaymentReceiptRepository struct {
	mock.Mock
}

func (m *MockPaymentReceiptRepository) Save(ctx context.Context, receipt *ledger.PaymentReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockPaymentReceiptRepository) Update(ctx context.Context, receipt *ledger.PaymentReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockPaymentReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentReceipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PaymentReceipt), args.Error(1)
}

func (m *MockPaymentReceiptRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*ledger.PaymentReceipt, error) {
	args := m.Called(ctx, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PaymentReceipt), args.Error(1)
}

func (m *MockPaymentReceiptRepository) FindByIdempotencyKey(ctx context.Context, key string) (*ledger.PaymentReceipt, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PaymentReceipt), args.Error(1)
}

func (m *MockPaymentReceiptRepository) FindByFilter(ctx context.Context, filter ledger.ReceiptFilter) (*shared.Paginated[*ledger.PaymentReceipt], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*ledger.PaymentReceipt]), args.Error(1)
}

func (m *MockPaymentReceiptRepository) FindByDebtCode(ctx context.Context, debtCode string) ([]*ledger.PaymentReceipt, error) {
	args := m.Called(ctx, debtCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.PaymentReceipt), args.Error(1)
}

func (m *MockPaymentReceiptRepository) GenerateReceiptNumber(ctx context.Context, date time.Time) (string, error) {
	args := m.Called(ctx, date)
	return args.String(0), args.Error(1)
}

type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) Lookup(ctx context.Context, customerCode string) (string, error) {
	args := m.Called(ctx, customerCode)
	return args.String(0), args.Error(1)
}

func (m *MockCustomerDirectory) Exists(ctx context.Context, customerCode string) (bool, error) {
	args := m.Called(ctx, customerCode)
	return args.Bool(0), args.Error(1)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
