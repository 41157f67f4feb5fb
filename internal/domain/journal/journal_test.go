package journal

import (
	"testing"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, account string, day int, amount int64) *JournalEntry {
	t.Helper()
	je, err := NewJournalEntry(account,
		time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(amount), "", "", "")
	require.NoError(t, err)
	return je
}

func newJournalWith(t *testing.T, opening int64, amounts ...int64) *Journal {
	t.Helper()
	j, err := NewJournal("131-CUST001", decimal.NewFromInt(opening), nil)
	require.NoError(t, err)
	for i, amt := range amounts {
		require.NoError(t, j.Append(entry(t, "131-CUST001", i+1, amt)))
	}
	return j
}

func TestNewJournalEntry(t *testing.T) {
	t.Run("starts pending", func(t *testing.T) {
		je := entry(t, "131-CUST001", 1, 100000)
		assert.Equal(t, EntryStatusPending, je.Status)
		assert.Zero(t, je.Sequence)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewJournalEntry("131-CUST001", time.Now(), decimal.Zero, "", "", "")
		assert.Error(t, err)
	})

	t.Run("negative amounts are credits", func(t *testing.T) {
		je, err := NewJournalEntry("131-CUST001", time.Now(), decimal.NewFromInt(-50000), "", "", "")
		require.NoError(t, err)
		assert.True(t, je.Amount.IsNegative())
	})
}

func TestJournal_Append(t *testing.T) {
	j := newJournalWith(t, 1000000, 500000, -300000)

	require.Len(t, j.Entries, 2)
	assert.Equal(t, int64(1), j.Entries[0].Sequence)
	assert.Equal(t, int64(2), j.Entries[1].Sequence)
	assert.True(t, j.Entries[0].BalanceAfter.Equal(decimal.NewFromInt(1500000)))
	assert.True(t, j.Entries[1].BalanceAfter.Equal(decimal.NewFromInt(1200000)))
	assert.True(t, j.ClosingBalance().Equal(decimal.NewFromInt(1200000)))
	assert.Equal(t, EntryStatusCommitted, j.Entries[0].Status)
	assert.NoError(t, j.Verify())
}

func TestJournal_InsertAfter(t *testing.T) {
	t.Run("back-dated insert shifts and re-balances the suffix", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200, 300)

		// A movement that should have landed between entries 1 and 2.
		require.NoError(t, j.InsertAfter(1, entry(t, "131-CUST001", 2, 50)))

		require.Len(t, j.Entries, 4)
		assert.Equal(t, int64(2), j.Entries[1].Sequence)
		assert.True(t, j.Entries[1].Amount.Equal(decimal.NewFromInt(50)))
		assert.True(t, j.Entries[1].BalanceAfter.Equal(decimal.NewFromInt(150)))
		assert.True(t, j.Entries[2].BalanceAfter.Equal(decimal.NewFromInt(350)))
		assert.True(t, j.Entries[3].BalanceAfter.Equal(decimal.NewFromInt(650)))
		assert.NoError(t, j.Verify())
	})

	t.Run("anchor zero inserts at the head", func(t *testing.T) {
		j := newJournalWith(t, 0, 100)
		require.NoError(t, j.InsertAfter(0, entry(t, "131-CUST001", 1, 25)))

		assert.True(t, j.Entries[0].BalanceAfter.Equal(decimal.NewFromInt(25)))
		assert.True(t, j.Entries[1].BalanceAfter.Equal(decimal.NewFromInt(125)))
		assert.NoError(t, j.Verify())
	})

	t.Run("fails when the shift would move a locked entry", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		require.NoError(t, j.LockThrough(2))

		err := j.InsertAfter(1, entry(t, "131-CUST001", 2, 50))
		assert.True(t, shared.IsLockedError(err))
		assert.Len(t, j.Entries, 2)
	})

	t.Run("rejects out of range anchor", func(t *testing.T) {
		j := newJournalWith(t, 0, 100)
		assert.Error(t, j.InsertAfter(5, entry(t, "131-CUST001", 2, 50)))
	})
}

func TestJournal_Remove(t *testing.T) {
	t.Run("closes the gap and re-balances", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200, 300)
		require.NoError(t, j.Remove(2))

		require.Len(t, j.Entries, 2)
		assert.Equal(t, int64(2), j.Entries[1].Sequence)
		assert.True(t, j.Entries[1].BalanceAfter.Equal(decimal.NewFromInt(400)))
		assert.NoError(t, j.Verify())
	})

	t.Run("fails on locked entry", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		require.NoError(t, j.LockThrough(1))
		assert.True(t, shared.IsLockedError(j.Remove(1)))
	})

	t.Run("fails when a later entry is locked", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		require.NoError(t, j.LockThrough(2))
		assert.True(t, shared.IsLockedError(j.Remove(1)))
	})
}

func TestJournal_Amend(t *testing.T) {
	t.Run("rewrites amount and re-balances the suffix", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200, 300)

		amended := entry(t, "131-CUST001", 1, 150)
		require.NoError(t, j.Amend(1, amended))

		assert.True(t, j.Entries[0].BalanceAfter.Equal(decimal.NewFromInt(150)))
		assert.True(t, j.Entries[2].BalanceAfter.Equal(decimal.NewFromInt(650)))
		assert.NoError(t, j.Verify())
	})

	t.Run("fails when the tail is locked", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		require.NoError(t, j.LockThrough(2))
		assert.True(t, shared.IsLockedError(j.Amend(1, entry(t, "131-CUST001", 1, 150))))
	})
}

func TestJournal_LockThrough(t *testing.T) {
	t.Run("locks the prefix only", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200, 300)
		require.NoError(t, j.LockThrough(2))

		assert.True(t, j.Entries[0].IsLocked())
		assert.True(t, j.Entries[1].IsLocked())
		assert.False(t, j.Entries[2].IsLocked())
	})

	t.Run("locking is idempotent", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		require.NoError(t, j.LockThrough(1))
		require.NoError(t, j.LockThrough(2))
		assert.True(t, j.Entries[0].IsLocked())
		assert.True(t, j.Entries[1].IsLocked())
	})

	t.Run("unknown sequence fails", func(t *testing.T) {
		j := newJournalWith(t, 0, 100)
		assert.Error(t, j.LockThrough(9))
	})
}

func TestJournal_Verify(t *testing.T) {
	t.Run("detects a broken chain", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		j.Entries[1].BalanceAfter = decimal.NewFromInt(999)
		assert.Error(t, j.Verify())
	})

	t.Run("detects a sequence gap", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		j.Entries[1].Sequence = 5
		assert.Error(t, j.Verify())
	})
}

func TestJournal_Recompute(t *testing.T) {
	t.Run("repairs drifted balances", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		j.Entries[0].BalanceAfter = decimal.NewFromInt(999)
		require.NoError(t, j.Recompute())
		assert.NoError(t, j.Verify())
	})

	t.Run("refuses to alter a locked balance", func(t *testing.T) {
		j := newJournalWith(t, 0, 100, 200)
		require.NoError(t, j.LockThrough(1))
		j.OpeningBalance = decimal.NewFromInt(50)
		assert.Error(t, j.Recompute())
	})
}

func TestNewJournal(t *testing.T) {
	t.Run("rejects entries of another account", func(t *testing.T) {
		stray := entry(t, "131-CUST999", 1, 100)
		_, err := NewJournal("131-CUST001", decimal.Zero, []*JournalEntry{stray})
		assert.Error(t, err)
	})

	t.Run("sorts loaded entries by sequence", func(t *testing.T) {
		a := entry(t, "131-CUST001", 1, 100)
		require.NoError(t, a.Commit(2, decimal.NewFromInt(300)))
		b := entry(t, "131-CUST001", 1, 200)
		require.NoError(t, b.Commit(1, decimal.NewFromInt(200)))

		j, err := NewJournal("131-CUST001", decimal.Zero, []*JournalEntry{a, b})
		require.NoError(t, err)
		assert.Equal(t, int64(1), j.Entries[0].Sequence)
		assert.Equal(t, int64(2), j.Entries[1].Sequence)
	})
}
