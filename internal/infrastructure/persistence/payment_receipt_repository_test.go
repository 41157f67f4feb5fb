package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVND(t *testing.T, amount int64) valueobject.Money {
	t.Helper()
	return valueobject.NewMoneyVNDFromInt(amount)
}

func testReceipt(t *testing.T, number, customerCode string, amount int64) *ledger.PaymentReceipt {
	t.Helper()
	pr, err := ledger.NewPaymentReceipt(number, customerCode, mustVND(t, amount),
		ledger.PaymentMethodBankTransfer, "", "ketoan1")
	require.NoError(t, err)
	return pr
}

func TestGormPaymentReceiptRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentReceiptRepository(db.DB)
	ctx := context.Background()

	pr := testReceipt(t, "PR-20260215-00001", "CUST001", 500000)
	_, err := pr.AddAllocation("DP-202601-00001", mustVND(t, 200000), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pr))

	found, err := repo.FindByReceiptNumber(ctx, "PR-20260215-00001")
	require.NoError(t, err)
	assert.Equal(t, pr.ID, found.ID)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(500000)))
	assert.True(t, found.UnallocatedAmount.Equal(decimal.NewFromInt(300000)))
	require.Len(t, found.Allocations, 1)
	assert.Equal(t, "DP-202601-00001", found.Allocations[0].DebtCode)
	assert.NoError(t, found.CheckConservation())
}

func TestGormPaymentReceiptRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentReceiptRepository(db.DB)
	ctx := context.Background()

	pr := testReceipt(t, "PR-20260215-00001", "CUST001", 500000)
	require.NoError(t, repo.Save(ctx, pr))

	require.NoError(t, pr.MarkCancelled("truongphong", "nhap sai"))
	require.NoError(t, repo.Update(ctx, pr))

	found, err := repo.FindByID(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReceiptStatusCancelled, found.Status)
	assert.Equal(t, "nhap sai", found.CancelReason)

	t.Run("stale version rejected", func(t *testing.T) {
		stale := *found
		stale.Version = 1
		assert.ErrorIs(t, repo.Update(ctx, &stale), shared.ErrConcurrencyConflict)
	})
}

func TestGormPaymentReceiptRepository_FindByIdempotencyKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentReceiptRepository(db.DB)
	ctx := context.Background()

	pr := testReceipt(t, "PR-20260215-00001", "CUST001", 500000)
	pr.IdempotencyKey = "req-7f3a"
	require.NoError(t, repo.Save(ctx, pr))

	found, err := repo.FindByIdempotencyKey(ctx, "req-7f3a")
	require.NoError(t, err)
	assert.Equal(t, pr.ID, found.ID)
	assert.Equal(t, "req-7f3a", found.IdempotencyKey)

	_, err = repo.FindByIdempotencyKey(ctx, "req-unknown")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormPaymentReceiptRepository_FindByFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentReceiptRepository(db.DB)
	ctx := context.Background()

	a := testReceipt(t, "PR-20260215-00001", "CUST001", 100000)
	b := testReceipt(t, "PR-20260215-00002", "CUST001", 200000)
	require.NoError(t, b.MarkCancelled("ketoan1", "sai"))
	c := testReceipt(t, "PR-20260215-00003", "CUST999", 300000)
	for _, pr := range []*ledger.PaymentReceipt{a, b, c} {
		require.NoError(t, repo.Save(ctx, pr))
	}

	t.Run("by customer", func(t *testing.T) {
		page, err := repo.FindByFilter(ctx, ledger.ReceiptFilter{CustomerCode: "CUST001"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("by status", func(t *testing.T) {
		page, err := repo.FindByFilter(ctx, ledger.ReceiptFilter{
			CustomerCode: "CUST001",
			Status:       ledger.ReceiptStatusActive,
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "PR-20260215-00001", page.Items[0].ReceiptNumber)
	})
}

func TestGormPaymentReceiptRepository_GenerateReceiptNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentReceiptRepository(db.DB)
	ctx := context.Background()
	day := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	number, err := repo.GenerateReceiptNumber(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "PR-20260215-00001", number)

	require.NoError(t, repo.Save(ctx, testReceipt(t, number, "CUST001", 100000)))

	number, err = repo.GenerateReceiptNumber(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "PR-20260215-00002", number)
}
