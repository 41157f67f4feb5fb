package ledger

import (
	"encoding/json"
	"testing"

	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReceipt(t *testing.T, amount int64) *PaymentReceipt {
	t.Helper()
	pr, err := NewPaymentReceipt(
		"PR-20260215-00001",
		"CUST001",
		valueobject.NewMoneyVNDFromInt(amount),
		PaymentMethodBankTransfer,
		"thanh toan cuoc thang 1",
		"ketoan1",
	)
	require.NoError(t, err)
	return pr
}

func TestNewPaymentReceipt(t *testing.T) {
	t.Run("starts active and fully unallocated", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		assert.Equal(t, ReceiptStatusActive, pr.Status)
		assert.True(t, pr.UnallocatedAmount.Equal(decimal.NewFromInt(500000)))
		assert.True(t, pr.AllocatedAmount.IsZero())
		assert.Empty(t, pr.Allocations)
		assert.Len(t, pr.GetDomainEvents(), 1)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPaymentReceipt("PR-20260215-00001", "CUST001",
			valueobject.ZeroVND(), PaymentMethodCash, "", "ketoan1")
		assert.Error(t, err)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := NewPaymentReceipt("PR-20260215-00001", "CUST001",
			valueobject.NewMoneyVNDFromInt(100), PaymentMethod("CHEQUE"), "", "ketoan1")
		assert.Error(t, err)
	})

	t.Run("rejects missing creator", func(t *testing.T) {
		_, err := NewPaymentReceipt("PR-20260215-00001", "CUST001",
			valueobject.NewMoneyVNDFromInt(100), PaymentMethodCash, "", "")
		assert.Error(t, err)
	})
}

func TestPaymentReceipt_AddAllocation(t *testing.T) {
	t.Run("tracks allocated and unallocated amounts", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)

		_, err := pr.AddAllocation("DP-202601-00001", valueobject.NewMoneyVNDFromInt(200000), decimal.Zero)
		require.NoError(t, err)
		_, err = pr.AddAllocation("DP-202602-00001", valueobject.NewMoneyVNDFromInt(100000), decimal.NewFromInt(400000))
		require.NoError(t, err)

		assert.True(t, pr.AllocatedAmount.Equal(decimal.NewFromInt(300000)))
		assert.True(t, pr.UnallocatedAmount.Equal(decimal.NewFromInt(200000)))
		assert.Equal(t, 2, pr.AllocationCount())
		assert.NoError(t, pr.CheckConservation())
	})

	t.Run("rejects allocation above unallocated", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		_, err := pr.AddAllocation("DP-202601-00001", valueobject.NewMoneyVNDFromInt(500001), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects second allocation to the same period", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		_, err := pr.AddAllocation("DP-202601-00001", valueobject.NewMoneyVNDFromInt(100000), decimal.Zero)
		require.NoError(t, err)
		_, err = pr.AddAllocation("DP-202601-00001", valueobject.NewMoneyVNDFromInt(100000), decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects allocation on cancelled receipt", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		require.NoError(t, pr.MarkCancelled("ketoan1", "nhap sai so tien"))
		_, err := pr.AddAllocation("DP-202601-00001", valueobject.NewMoneyVNDFromInt(100000), decimal.Zero)
		assert.Error(t, err)
	})
}

func TestPaymentReceipt_MarkCancelled(t *testing.T) {
	t.Run("records who and why", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		require.NoError(t, pr.MarkCancelled("truongphong", "khach chuyen nham"))

		assert.Equal(t, ReceiptStatusCancelled, pr.Status)
		assert.False(t, pr.IsActive())
		assert.NotNil(t, pr.CancelledAt)
		assert.Equal(t, "truongphong", pr.CancelledBy)
		assert.Equal(t, "khach chuyen nham", pr.CancelReason)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		require.NoError(t, pr.MarkCancelled("ketoan1", "sai"))
		assert.Error(t, pr.MarkCancelled("ketoan1", "sai lan nua"))
	})

	t.Run("requires a reason", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		assert.Error(t, pr.MarkCancelled("ketoan1", ""))
	})
}

func TestPaymentReceipt_CheckConservation(t *testing.T) {
	pr := newTestReceipt(t, 500000)
	_, err := pr.AddAllocation("DP-202601-00001", valueobject.NewMoneyVNDFromInt(300000), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, pr.CheckConservation())

	// Corrupt the unallocated remainder directly.
	pr.UnallocatedAmount = decimal.NewFromInt(999)
	assert.Error(t, pr.CheckConservation())
}

func TestAllocations_JSONB(t *testing.T) {
	t.Run("value and scan round trip", func(t *testing.T) {
		pr := newTestReceipt(t, 500000)
		_, err := pr.AddAllocation("DP-202601-00001", valueobject.NewMoneyVNDFromInt(200000), decimal.NewFromInt(300000))
		require.NoError(t, err)

		v, err := pr.Allocations.Value()
		require.NoError(t, err)

		var decoded Allocations
		require.NoError(t, decoded.Scan(v))
		require.Len(t, decoded, 1)
		assert.Equal(t, "DP-202601-00001", decoded[0].DebtCode)
		assert.True(t, decoded[0].Amount.Equal(decimal.NewFromInt(200000)))
		assert.True(t, decoded[0].RemainAmountAfter.Equal(decimal.NewFromInt(300000)))
	})

	t.Run("nil slice stores empty array", func(t *testing.T) {
		var a Allocations
		v, err := a.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
	})

	t.Run("scan nil yields empty slice", func(t *testing.T) {
		var a Allocations
		require.NoError(t, a.Scan(nil))
		assert.Empty(t, a)
	})

	t.Run("scan string payload", func(t *testing.T) {
		raw, err := json.Marshal(Allocations{})
		require.NoError(t, err)
		var a Allocations
		require.NoError(t, a.Scan(string(raw)))
		assert.Empty(t, a)
	})
}
