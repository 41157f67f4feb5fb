package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testPeriod(t *testing.T, debtCode, customerCode string, from time.Time) *ledger.DebtPeriod {
	t.Helper()
	dp, err := ledger.NewDebtPeriod(debtCode, customerCode, "Cong ty ABC",
		from.Format("2006-01"), from, from.AddDate(0, 1, -1), decimal.Zero, "")
	require.NoError(t, err)
	_, err = dp.SetCharges(ledger.ChargeBreakdown{CashAmount: decimal.NewFromInt(1000000)})
	require.NoError(t, err)
	return dp
}

func TestGormDebtPeriodRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDebtPeriodRepository(db.DB)
	ctx := context.Background()

	dp := testPeriod(t, "DP-202601-00001", "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, dp))

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, dp.ID)
		require.NoError(t, err)
		assert.Equal(t, "DP-202601-00001", found.DebtCode)
		assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(1000000)))
		assert.Equal(t, ledger.PeriodStatusUnpaid, found.Status)
	})

	t.Run("by debt code", func(t *testing.T) {
		found, err := repo.FindByDebtCode(ctx, "DP-202601-00001")
		require.NoError(t, err)
		assert.Equal(t, dp.ID, found.ID)
	})

	t.Run("missing returns not found", func(t *testing.T) {
		_, err := repo.FindByDebtCode(ctx, "DP-999999-00001")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormDebtPeriodRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDebtPeriodRepository(db.DB)
	ctx := context.Background()

	dp := testPeriod(t, "DP-202601-00001", "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, dp))

	dp.Lock("ketoan1")
	require.NoError(t, repo.Update(ctx, dp))

	found, err := repo.FindByDebtCode(ctx, "DP-202601-00001")
	require.NoError(t, err)
	assert.True(t, found.IsLocked)
	assert.Equal(t, "ketoan1", found.LockedBy)

	t.Run("stale version rejected", func(t *testing.T) {
		stale := *found
		stale.Version = 1
		assert.ErrorIs(t, repo.Update(ctx, &stale), shared.ErrConcurrencyConflict)
	})
}

func TestGormDebtPeriodRepository_FindOpenByCustomer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDebtPeriodRepository(db.DB)
	ctx := context.Background()

	feb := testPeriod(t, "DP-202602-00001", "CUST001", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	jan := testPeriod(t, "DP-202601-00001", "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	locked := testPeriod(t, "DP-202603-00001", "CUST001", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	locked.Lock("ketoan1")
	other := testPeriod(t, "DP-202601-00002", "CUST999", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	for _, dp := range []*ledger.DebtPeriod{feb, jan, locked, other} {
		require.NoError(t, repo.Save(ctx, dp))
	}

	open, err := repo.FindOpenByCustomer(ctx, "CUST001")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "DP-202601-00001", open[0].DebtCode)
	assert.Equal(t, "DP-202602-00001", open[1].DebtCode)
}

func TestGormDebtPeriodRepository_FindOverlapping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDebtPeriodRepository(db.DB)
	ctx := context.Background()

	jan := testPeriod(t, "DP-202601-00001", "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, jan))

	locked := testPeriod(t, "DP-202601-00002", "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	locked.Lock("ketoan1")
	require.NoError(t, repo.Save(ctx, locked))

	overlapping, err := repo.FindOverlapping(ctx, "CUST001", "2026-01",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overlapping, 1, "locked periods do not block a new one")
	assert.Equal(t, "DP-202601-00001", overlapping[0].DebtCode)

	t.Run("other manage month does not collide", func(t *testing.T) {
		overlapping, err := repo.FindOverlapping(ctx, "CUST001", "2026-02",
			time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, overlapping)
	})

	t.Run("disjoint range is clear", func(t *testing.T) {
		overlapping, err := repo.FindOverlapping(ctx, "CUST001", "2026-01",
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, overlapping)
	})
}

func TestGormDebtPeriodRepository_GenerateDebtCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDebtPeriodRepository(db.DB)
	ctx := context.Background()

	code, err := repo.GenerateDebtCode(ctx, "2026-01")
	require.NoError(t, err)
	assert.Equal(t, "DP-202601-00001", code)

	dp := testPeriod(t, code, "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, dp))

	code, err = repo.GenerateDebtCode(ctx, "2026-01")
	require.NoError(t, err)
	assert.Equal(t, "DP-202601-00002", code)

	// Other months have their own series.
	code, err = repo.GenerateDebtCode(ctx, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, "DP-202602-00001", code)
}

func TestGormDebtPeriodRepository_GenerateDebtCode_SeriesSharedAcrossCustomers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDebtPeriodRepository(db.DB)
	ctx := context.Background()

	first, err := repo.GenerateDebtCode(ctx, "2026-01")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, testPeriod(t, first, "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))

	// The month's series advances regardless of which customer took the
	// previous code.
	second, err := repo.GenerateDebtCode(ctx, "2026-01")
	require.NoError(t, err)
	assert.Equal(t, "DP-202601-00002", second)
	assert.NotEqual(t, first, second)
}

func TestGormDebtPeriodRepository_SummarizeByCustomer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDebtPeriodRepository(db.DB)
	ctx := context.Background()

	jan := testPeriod(t, "DP-202601-00001", "CUST001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, jan.ApplyPayment(mustVND(t, 1000000)))
	feb := testPeriod(t, "DP-202602-00001", "CUST001", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, feb.ApplyPayment(mustVND(t, 400000)))

	require.NoError(t, repo.Save(ctx, jan))
	require.NoError(t, repo.Save(ctx, feb))

	summary, err := repo.SummarizeByCustomer(ctx, "CUST001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.PeriodCount)
	assert.Equal(t, int64(1), summary.OpenPeriodCount)
	assert.True(t, summary.TotalCharged.Equal(decimal.NewFromInt(2000000)))
	assert.True(t, summary.TotalPaid.Equal(decimal.NewFromInt(1400000)))
	assert.True(t, summary.TotalOutstanding.Equal(decimal.NewFromInt(600000)))
	assert.Equal(t, ledger.TrafficLightRed, summary.Classification)

	_, err = repo.SummarizeByCustomer(ctx, "CUST999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
