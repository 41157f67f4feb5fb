package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPeriodService(periods *MockDebtPeriodRepository, customers *MockCustomerDirectory) *PeriodService {
	return NewPeriodService(periods, customers, shared.NopTransactionManager{}, zap.NewNop())
}

func createPeriodRequest() CreatePeriodRequest {
	return CreatePeriodRequest{
		CustomerCode: "KH001",
		ManageMonth:  "2024-03",
		FromDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ToDate:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		VATPercent:   decimal.NewFromInt(10),
	}
}

func chargedTestPeriod(t *testing.T, debtCode, customerCode string, invoiceAmount int64) *ledger.DebtPeriod {
	t.Helper()
	period, err := ledger.NewDebtPeriod(debtCode, customerCode, "Test Customer", "2024-03",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		decimal.Zero, "")
	require.NoError(t, err)
	_, err = period.SetCharges(ledger.ChargeBreakdown{InvoiceAmount: decimal.NewFromInt(invoiceAmount)})
	require.NoError(t, err)
	return period
}

func TestPeriodService_CreatePeriod_Success(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	customers := new(MockCustomerDirectory)
	service := newPeriodService(periods, customers)
	req := createPeriodRequest()

	customers.On("Lookup", ctx, "KH001").Return("Cong ty Van tai ABC", nil)
	periods.On("FindOverlapping", ctx, "KH001", "2024-03", req.FromDate, req.ToDate).Return([]*ledger.DebtPeriod{}, nil)
	periods.On("GenerateDebtCode", ctx, "2024-03").Return("DP-202403-00001", nil)
	periods.On("Save", ctx, mock.AnythingOfType("*ledger.DebtPeriod")).Return(nil)

	period, err := service.CreatePeriod(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, "DP-202403-00001", period.DebtCode)
	assert.Equal(t, "Cong ty Van tai ABC", period.CustomerName)
	assert.Equal(t, ledger.PeriodStatusNotCharged, period.Status)
	periods.AssertExpectations(t)
	customers.AssertExpectations(t)
}

func TestPeriodService_CreatePeriod_Overlap(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	customers := new(MockCustomerDirectory)
	service := newPeriodService(periods, customers)
	req := createPeriodRequest()

	existing := chargedTestPeriod(t, "DP-202403-00001", "KH001", 1000000)
	customers.On("Lookup", ctx, "KH001").Return("Cong ty Van tai ABC", nil)
	periods.On("FindOverlapping", ctx, "KH001", "2024-03", req.FromDate, req.ToDate).Return([]*ledger.DebtPeriod{existing}, nil)

	_, err := service.CreatePeriod(ctx, req)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PERIOD_OVERLAP", domainErr.Code)
	periods.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPeriodService_CreatePeriod_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	customers := new(MockCustomerDirectory)
	service := newPeriodService(periods, customers)

	customers.On("Lookup", ctx, "KH999").Return("", shared.NewDomainError("NOT_FOUND", "Customer KH999 not found"))

	req := createPeriodRequest()
	req.CustomerCode = "KH999"
	_, err := service.CreatePeriod(ctx, req)

	require.Error(t, err)
	periods.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPeriodService_SetCharges_Success(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	customers := new(MockCustomerDirectory)
	service := newPeriodService(periods, customers)

	period, err := ledger.NewDebtPeriod("DP-202403-00001", "KH001", "Test Customer", "2024-03",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(10), "")
	require.NoError(t, err)

	periods.On("FindByDebtCode", ctx, "DP-202403-00001").Return(period, nil)
	periods.On("Update", ctx, period).Return(nil)

	result, err := service.SetCharges(ctx, "DP-202403-00001", ledger.ChargeBreakdown{
		InvoiceAmount: decimal.NewFromInt(1000000),
		CashAmount:    decimal.NewFromInt(200000),
		TripCount:     12,
	})

	require.NoError(t, err)
	assert.False(t, result.Overcollected)
	assert.True(t, result.Period.TotalAmount.Equal(decimal.NewFromInt(1300000)), "VAT applies to the invoiced portion only")
	assert.Equal(t, ledger.PeriodStatusUnpaid, result.Period.Status)
	periods.AssertExpectations(t)
}

func TestPeriodService_SetCharges_OvercollectedFlag(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	customers := new(MockCustomerDirectory)
	service := newPeriodService(periods, customers)

	period := chargedTestPeriod(t, "DP-202403-00001", "KH001", 1000000)
	require.NoError(t, period.ApplyPayment(mustVND(t, 800000)))

	periods.On("FindByDebtCode", ctx, "DP-202403-00001").Return(period, nil)
	periods.On("Update", ctx, period).Return(nil)

	result, err := service.SetCharges(ctx, "DP-202403-00001", ledger.ChargeBreakdown{
		InvoiceAmount: decimal.NewFromInt(500000),
	})

	require.NoError(t, err)
	assert.True(t, result.Overcollected)
	assert.True(t, result.Period.RemainAmount.IsNegative())
}

func TestPeriodService_LockUnlock(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	customers := new(MockCustomerDirectory)
	service := newPeriodService(periods, customers)

	period := chargedTestPeriod(t, "DP-202403-00001", "KH001", 1000000)
	periods.On("FindByDebtCode", ctx, "DP-202403-00001").Return(period, nil)
	periods.On("Update", ctx, period).Return(nil)

	locked, err := service.LockPeriod(ctx, "DP-202403-00001", "ketoan01")
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, "ketoan01", locked.LockedBy)

	unlocked, err := service.UnlockPeriod(ctx, "DP-202403-00001", "ketoan01")
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
}

func TestPeriodService_LockPeriod_Idempotent(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	customers := new(MockCustomerDirectory)
	service := newPeriodService(periods, customers)

	period := chargedTestPeriod(t, "DP-202403-00001", "KH001", 1000000)
	period.Lock("ketoan01")
	periods.On("FindByDebtCode", ctx, "DP-202403-00001").Return(period, nil)

	// Re-locking changes nothing, so no Update call is expected.
	locked, err := service.LockPeriod(ctx, "DP-202403-00001", "ketoan02")
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, "ketoan01", locked.LockedBy)
	periods.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPeriodService_LockPeriod_MissingActor(t *testing.T) {
	service := newPeriodService(new(MockDebtPeriodRepository), new(MockCustomerDirectory))

	_, err := service.LockPeriod(context.Background(), "DP-202403-00001", "")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}

func TestPeriodService_DeletePeriod_RejectsLocked(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	service := newPeriodService(periods, new(MockCustomerDirectory))

	period := chargedTestPeriod(t, "DP-202403-00001", "KH001", 1000000)
	period.Lock("ketoan01")
	periods.On("FindByDebtCode", ctx, "DP-202403-00001").Return(period, nil)

	err := service.DeletePeriod(ctx, "DP-202403-00001")

	require.Error(t, err)
	assert.True(t, shared.IsLockedError(err))
	periods.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPeriodService_DeletePeriod_RejectsPaid(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	service := newPeriodService(periods, new(MockCustomerDirectory))

	period := chargedTestPeriod(t, "DP-202403-00001", "KH001", 1000000)
	require.NoError(t, period.ApplyPayment(mustVND(t, 100000)))
	periods.On("FindByDebtCode", ctx, "DP-202403-00001").Return(period, nil)

	err := service.DeletePeriod(ctx, "DP-202403-00001")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	periods.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPeriodService_DeletePeriod_Success(t *testing.T) {
	ctx := context.Background()
	periods := new(MockDebtPeriodRepository)
	service := newPeriodService(periods, new(MockCustomerDirectory))

	period := chargedTestPeriod(t, "DP-202403-00001", "KH001", 1000000)
	periods.On("FindByDebtCode", ctx, "DP-202403-00001").Return(period, nil)
	periods.On("Delete", ctx, period.ID).Return(nil)

	require.NoError(t, service.DeletePeriod(ctx, "DP-202403-00001"))
	periods.AssertExpectations(t)
}
