package journal

import (
	"fmt"
	"sort"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Journal is one account's entry sequence loaded into memory for a rewrite
// pass. All mutations keep two invariants: sequences stay dense starting at
// 1, and BalanceAfter is cumulative from the opening balance. Locked
// entries are immovable; any operation that would shift or re-balance a
// locked entry fails before mutating anything.
type Journal struct {
	AccountCode    string
	OpeningBalance decimal.Decimal
	Entries        []*JournalEntry
}

// NewJournal wraps an account's entries, sorted by sequence, for a rewrite pass
func NewJournal(accountCode string, openingBalance decimal.Decimal, entries []*JournalEntry) (*Journal, error) {
	if accountCode == "" {
		return nil, shared.NewValidationError("Account code cannot be empty")
	}
	for _, e := range entries {
		if e.AccountCode != accountCode {
			return nil, shared.NewConsistencyError(fmt.Sprintf(
				"Entry %d belongs to account %s, journal is for %s", e.Sequence, e.AccountCode, accountCode))
		}
	}
	sorted := make([]*JournalEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	return &Journal{
		AccountCode:    accountCode,
		OpeningBalance: openingBalance,
		Entries:        sorted,
	}, nil
}

// Append plans the entry at the tail of the sequence and commits it with
// the new running balance.
func (j *Journal) Append(entry *JournalEntry) error {
	if entry == nil {
		return shared.NewValidationError("Entry is required")
	}
	if entry.AccountCode != j.AccountCode {
		return shared.NewConsistencyError("Entry account does not match journal account")
	}

	balance := j.ClosingBalance().Add(entry.Amount)
	if err := entry.Commit(int64(len(j.Entries))+1, balance); err != nil {
		return err
	}
	j.Entries = append(j.Entries, entry)
	return nil
}

// ChronologicalAnchor returns the sequence an entry dated entryDate belongs
// after: the last entry dated on or before it. 0 means the head of the
// sequence.
func (j *Journal) ChronologicalAnchor(entryDate time.Time) int64 {
	var anchor int64
	for _, e := range j.Entries {
		if !e.EntryDate.After(entryDate) {
			anchor = e.Sequence
		}
	}
	return anchor
}

// InsertAfter places the entry directly after the anchor sequence, shifting
// every later entry down by one and recomputing their balances. Anchor 0
// inserts at the head. Fails if the shift would move a locked entry.
func (j *Journal) InsertAfter(anchorSequence int64, entry *JournalEntry) error {
	if entry == nil {
		return shared.NewValidationError("Entry is required")
	}
	if entry.AccountCode != j.AccountCode {
		return shared.NewConsistencyError("Entry account does not match journal account")
	}
	if anchorSequence < 0 || anchorSequence > int64(len(j.Entries)) {
		return shared.NewValidationError(fmt.Sprintf("Anchor sequence %d is out of range", anchorSequence))
	}
	for _, e := range j.Entries[anchorSequence:] {
		if e.IsLocked() {
			return shared.NewLockedError(fmt.Sprintf(
				"Cannot insert after entry %d: entry %d is locked", anchorSequence, e.Sequence))
		}
	}

	idx := int(anchorSequence)
	j.Entries = append(j.Entries, nil)
	copy(j.Entries[idx+1:], j.Entries[idx:])
	j.Entries[idx] = entry

	return j.recomputeFrom(idx)
}

// Remove deletes the entry with the given sequence, closing the gap and
// recomputing later balances. Fails if the entry or any later one is locked.
func (j *Journal) Remove(sequence int64) error {
	idx := j.indexOf(sequence)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Entry %d not found on account %s", sequence, j.AccountCode))
	}
	for _, e := range j.Entries[idx:] {
		if e.IsLocked() {
			return shared.NewLockedError(fmt.Sprintf(
				"Cannot remove entry %d: entry %d is locked", sequence, e.Sequence))
		}
	}

	j.Entries = append(j.Entries[:idx], j.Entries[idx+1:]...)
	return j.recomputeFrom(idx)
}

// Amend rewrites an entry's movable fields and recomputes from its position
func (j *Journal) Amend(sequence int64, entry *JournalEntry) error {
	idx := j.indexOf(sequence)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Entry %d not found on account %s", sequence, j.AccountCode))
	}
	for _, e := range j.Entries[idx:] {
		if e.IsLocked() {
			return shared.NewLockedError(fmt.Sprintf(
				"Cannot amend entry %d: entry %d is locked", sequence, e.Sequence))
		}
	}

	target := j.Entries[idx]
	if err := target.UpdateDetails(entry.EntryDate, entry.Amount, entry.Counterparty, entry.RefCode, entry.Note); err != nil {
		return err
	}
	return j.recomputeFrom(idx)
}

// LockThrough freezes every entry up to and including the given sequence.
// Only a prefix can be locked: later balances depend on all earlier entries,
// so a locked entry with an unlocked predecessor would be unverifiable.
func (j *Journal) LockThrough(sequence int64) error {
	idx := j.indexOf(sequence)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Entry %d not found on account %s", sequence, j.AccountCode))
	}
	for _, e := range j.Entries[:idx+1] {
		if e.Status == EntryStatusPending {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf(
				"Cannot lock through entry %d: entry %d is not committed", sequence, e.Sequence))
		}
	}
	for _, e := range j.Entries[:idx+1] {
		if err := e.Lock(); err != nil {
			return err
		}
	}
	return nil
}

// Recompute rewrites every unlocked balance from the opening balance,
// verifying that locked balances still agree.
func (j *Journal) Recompute() error {
	return j.recomputeFrom(0)
}

// Verify walks the whole sequence and reports the first broken invariant:
// a sequence gap or a balance that does not chain.
func (j *Journal) Verify() error {
	balance := j.OpeningBalance
	for i, e := range j.Entries {
		if e.Sequence != int64(i)+1 {
			return shared.NewConsistencyError(fmt.Sprintf(
				"Account %s: expected sequence %d, found %d", j.AccountCode, i+1, e.Sequence))
		}
		balance = balance.Add(e.Amount)
		if !e.BalanceAfter.Equal(balance) {
			return shared.NewConsistencyError(fmt.Sprintf(
				"Account %s entry %d: balance %s does not match computed %s",
				j.AccountCode, e.Sequence, e.BalanceAfter, balance))
		}
	}
	return nil
}

// ClosingBalance returns the running balance after the last entry
func (j *Journal) ClosingBalance() decimal.Decimal {
	if len(j.Entries) == 0 {
		return j.OpeningBalance
	}
	return j.Entries[len(j.Entries)-1].BalanceAfter
}

// recomputeFrom renumbers and re-balances the suffix starting at idx.
func (j *Journal) recomputeFrom(idx int) error {
	balance := j.OpeningBalance
	if idx > 0 {
		balance = j.Entries[idx-1].BalanceAfter
	}
	for i := idx; i < len(j.Entries); i++ {
		e := j.Entries[i]
		balance = balance.Add(e.Amount)
		if e.IsLocked() {
			if !e.BalanceAfter.Equal(balance) || e.Sequence != int64(i)+1 {
				return shared.NewConsistencyError(fmt.Sprintf(
					"Recompute on account %s would alter locked entry %d", j.AccountCode, e.Sequence))
			}
			continue
		}
		if err := e.Commit(int64(i)+1, balance); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) indexOf(sequence int64) int {
	for i, e := range j.Entries {
		if e.Sequence == sequence {
			return i
		}
	}
	return -1
}
