package ledger

import (
	"testing"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chargedPeriod builds a CHUA_TRA period with a flat cash charge so the
// totals are exactly what the test names say.
func chargedPeriod(t *testing.T, debtCode string, fromDate time.Time, total int64) *DebtPeriod {
	t.Helper()
	dp, err := NewDebtPeriod(debtCode, "CUST001", "Cong ty ABC", fromDate.Format("2006-01"),
		fromDate, fromDate.AddDate(0, 1, -1), decimal.Zero, "")
	require.NoError(t, err)
	_, err = dp.SetCharges(ChargeBreakdown{CashAmount: decimal.NewFromInt(total)})
	require.NoError(t, err)
	return dp
}

func TestFIFOAllocationStrategy_Plan(t *testing.T) {
	strategy := NewFIFOAllocationStrategy()

	t.Run("settles oldest period before touching the next", func(t *testing.T) {
		older := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 200000)
		newer := chargedPeriod(t, "DP-202602-00001", date(2026, 2, 1), 500000)

		plans, leftover, err := strategy.Plan(decimal.NewFromInt(300000), []*DebtPeriod{newer, older})
		require.NoError(t, err)
		require.Len(t, plans, 2)

		assert.Equal(t, "DP-202601-00001", plans[0].DebtCode)
		assert.True(t, plans[0].Amount.Equal(decimal.NewFromInt(200000)))
		assert.Equal(t, "DP-202602-00001", plans[1].DebtCode)
		assert.True(t, plans[1].Amount.Equal(decimal.NewFromInt(100000)))
		assert.True(t, leftover.IsZero())
	})

	t.Run("breaks FromDate ties by debt code", func(t *testing.T) {
		b := chargedPeriod(t, "DP-202601-00002", date(2026, 1, 1), 100000)
		a := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 100000)

		plans, _, err := strategy.Plan(decimal.NewFromInt(150000), []*DebtPeriod{b, a})
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.Equal(t, "DP-202601-00001", plans[0].DebtCode)
		assert.Equal(t, "DP-202601-00002", plans[1].DebtCode)
	})

	t.Run("skips locked and settled periods", func(t *testing.T) {
		locked := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 100000)
		locked.Lock("ketoan1")
		settled := chargedPeriod(t, "DP-202602-00001", date(2026, 2, 1), 100000)
		require.NoError(t, settled.ApplyPayment(valueobject.NewMoneyVNDFromInt(100000)))
		open := chargedPeriod(t, "DP-202603-00001", date(2026, 3, 1), 100000)

		plans, leftover, err := strategy.Plan(decimal.NewFromInt(300000), []*DebtPeriod{locked, settled, open})
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, "DP-202603-00001", plans[0].DebtCode)
		assert.True(t, leftover.Equal(decimal.NewFromInt(200000)))
	})

	t.Run("whole amount left over when nothing is open", func(t *testing.T) {
		plans, leftover, err := strategy.Plan(decimal.NewFromInt(300000), nil)
		require.NoError(t, err)
		assert.Empty(t, plans)
		assert.True(t, leftover.Equal(decimal.NewFromInt(300000)))
	})
}

func TestExplicitAllocationStrategy_Plan(t *testing.T) {
	t.Run("caps requested amount at the period remainder", func(t *testing.T) {
		p := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 200000)
		strategy := NewExplicitAllocationStrategy([]AllocationPlan{
			{DebtCode: "DP-202601-00001", Amount: decimal.NewFromInt(500000)},
		})

		plans, leftover, err := strategy.Plan(decimal.NewFromInt(500000), []*DebtPeriod{p})
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.True(t, plans[0].Amount.Equal(decimal.NewFromInt(200000)))
		assert.True(t, leftover.Equal(decimal.NewFromInt(300000)))
	})

	t.Run("fails on locked target", func(t *testing.T) {
		p := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 200000)
		p.Lock("ketoan1")
		strategy := NewExplicitAllocationStrategy([]AllocationPlan{
			{DebtCode: "DP-202601-00001", Amount: decimal.NewFromInt(100000)},
		})
		_, _, err := strategy.Plan(decimal.NewFromInt(100000), []*DebtPeriod{p})
		assert.True(t, shared.IsLockedError(err))
	})

	t.Run("fails on unknown target", func(t *testing.T) {
		strategy := NewExplicitAllocationStrategy([]AllocationPlan{
			{DebtCode: "DP-999999-00001", Amount: decimal.NewFromInt(100000)},
		})
		_, _, err := strategy.Plan(decimal.NewFromInt(100000), nil)
		assert.Error(t, err)
	})

	t.Run("fails on duplicate targets", func(t *testing.T) {
		p := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 200000)
		strategy := NewExplicitAllocationStrategy([]AllocationPlan{
			{DebtCode: "DP-202601-00001", Amount: decimal.NewFromInt(50000)},
			{DebtCode: "DP-202601-00001", Amount: decimal.NewFromInt(50000)},
		})
		_, _, err := strategy.Plan(decimal.NewFromInt(100000), []*DebtPeriod{p})
		assert.Error(t, err)
	})
}

func TestAllocationService_Allocate(t *testing.T) {
	service := NewAllocationService()

	t.Run("FIFO receipt settles old period and dents the next", func(t *testing.T) {
		older := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 200000)
		newer := chargedPeriod(t, "DP-202602-00001", date(2026, 2, 1), 500000)
		receipt := newTestReceipt(t, 300000)

		result, err := service.Allocate(receipt, []*DebtPeriod{older, newer}, NewFIFOAllocationStrategy())
		require.NoError(t, err)

		assert.Equal(t, PeriodStatusSettled, older.Status)
		assert.Equal(t, PeriodStatusPartial, newer.Status)
		assert.True(t, newer.RemainAmount.Equal(decimal.NewFromInt(400000)))
		assert.True(t, result.UnallocatedAmount.IsZero())
		assert.Equal(t, 2, receipt.AllocationCount())
		assert.True(t, receipt.Allocations[0].RemainAmountAfter.IsZero())
		assert.True(t, receipt.Allocations[1].RemainAmountAfter.Equal(decimal.NewFromInt(400000)))
	})

	t.Run("surplus is returned not credited", func(t *testing.T) {
		p := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 200000)
		receipt := newTestReceipt(t, 500000)

		result, err := service.Allocate(receipt, []*DebtPeriod{p}, NewFIFOAllocationStrategy())
		require.NoError(t, err)

		assert.True(t, result.UnallocatedAmount.Equal(decimal.NewFromInt(300000)))
		assert.True(t, receipt.UnallocatedAmount.Equal(decimal.NewFromInt(300000)))
		assert.Equal(t, PeriodStatusSettled, p.Status)
		assert.False(t, p.IsOvercollected())
	})

	t.Run("rejects periods of another customer", func(t *testing.T) {
		other, err := NewDebtPeriod("DP-202601-00009", "CUST999", "Khach Khac", "2026-01",
			date(2026, 1, 1), date(2026, 1, 31), decimal.Zero, "")
		require.NoError(t, err)
		receipt := newTestReceipt(t, 100000)

		_, err = service.Allocate(receipt, []*DebtPeriod{other}, NewFIFOAllocationStrategy())
		assert.Error(t, err)
	})

	t.Run("rejects cancelled receipt", func(t *testing.T) {
		receipt := newTestReceipt(t, 100000)
		require.NoError(t, receipt.MarkCancelled("ketoan1", "sai"))
		_, err := service.Allocate(receipt, nil, NewFIFOAllocationStrategy())
		assert.Error(t, err)
	})
}

func TestAllocationService_Cancel(t *testing.T) {
	service := NewAllocationService()

	setup := func(t *testing.T) (*PaymentReceipt, []*DebtPeriod) {
		t.Helper()
		older := chargedPeriod(t, "DP-202601-00001", date(2026, 1, 1), 200000)
		newer := chargedPeriod(t, "DP-202602-00001", date(2026, 2, 1), 500000)
		receipt := newTestReceipt(t, 300000)
		_, err := service.Allocate(receipt, []*DebtPeriod{older, newer}, NewFIFOAllocationStrategy())
		require.NoError(t, err)
		return receipt, []*DebtPeriod{older, newer}
	}

	t.Run("reverses every allocation", func(t *testing.T) {
		receipt, periods := setup(t)

		touched, err := service.Cancel(receipt, periods, "truongphong", "khach doi hoan")
		require.NoError(t, err)
		require.Len(t, touched, 2)

		assert.Equal(t, ReceiptStatusCancelled, receipt.Status)
		assert.Equal(t, PeriodStatusUnpaid, periods[0].Status)
		assert.Equal(t, PeriodStatusUnpaid, periods[1].Status)
		assert.True(t, periods[0].RemainAmount.Equal(decimal.NewFromInt(200000)))
		assert.True(t, periods[1].RemainAmount.Equal(decimal.NewFromInt(500000)))
	})

	t.Run("fails wholly when any touched period is locked", func(t *testing.T) {
		receipt, periods := setup(t)
		periods[1].Lock("ketoan1")

		paidBefore := periods[0].PaidAmount
		_, err := service.Cancel(receipt, periods, "truongphong", "khach doi hoan")
		assert.True(t, shared.IsLockedError(err))

		// Nothing moved, the unlocked period included.
		assert.True(t, periods[0].PaidAmount.Equal(paidBefore))
		assert.Equal(t, ReceiptStatusActive, receipt.Status)
	})

	t.Run("fails when an allocated period is missing from the set", func(t *testing.T) {
		receipt, periods := setup(t)
		_, err := service.Cancel(receipt, periods[:1], "truongphong", "thieu ky")
		assert.Error(t, err)
	})
}
