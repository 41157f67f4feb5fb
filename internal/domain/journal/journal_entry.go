package journal

import (
	"fmt"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING_INSERT" // Planned, balance not yet confirmed
	EntryStatusCommitted EntryStatus = "COMMITTED"      // Posted with a confirmed running balance
	EntryStatusLocked    EntryStatus = "LOCKED"         // Frozen; balance and amount immutable
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusCommitted, EntryStatusLocked:
		return true
	}
	return false
}

// String returns the string representation of EntryStatus
func (s EntryStatus) String() string {
	return string(s)
}

// JournalEntry is one signed movement on an account's running-balance
// journal. Entries of one account form a dense sequence; BalanceAfter of
// entry n equals BalanceAfter of entry n-1 plus this entry's Amount.
type JournalEntry struct {
	shared.BaseAggregateRoot
	AccountCode  string          `json:"account_code"`
	Sequence     int64           `json:"sequence"`
	EntryDate    time.Time       `json:"entry_date"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Status       EntryStatus     `json:"status"`
	RefCode      string          `json:"ref_code"`
	Note         string          `json:"note"`
}

// NewJournalEntry creates a pending entry. Sequence and BalanceAfter are
// assigned when the journal commits it.
func NewJournalEntry(accountCode string, entryDate time.Time, amount decimal.Decimal, counterparty, refCode, note string) (*JournalEntry, error) {
	if accountCode == "" {
		return nil, shared.NewValidationError("Account code cannot be empty")
	}
	if entryDate.IsZero() {
		return nil, shared.NewValidationError("Entry date is required")
	}
	if amount.IsZero() {
		return nil, shared.NewValidationError("Entry amount cannot be zero")
	}

	je := &JournalEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountCode:       accountCode,
		EntryDate:         entryDate,
		Counterparty:      counterparty,
		Amount:            amount,
		BalanceAfter:      decimal.Zero,
		Status:            EntryStatusPending,
		RefCode:           refCode,
		Note:              note,
	}

	je.AddDomainEvent(NewJournalEntryCreatedEvent(je))

	return je, nil
}

// Commit assigns the entry its place and confirmed balance in the sequence
func (je *JournalEntry) Commit(sequence int64, balanceAfter decimal.Decimal) error {
	if je.Status == EntryStatusLocked {
		return shared.NewLockedError(fmt.Sprintf("Journal entry %d on account %s is locked", je.Sequence, je.AccountCode))
	}
	if sequence <= 0 {
		return shared.NewValidationError("Sequence must be positive")
	}

	je.Sequence = sequence
	je.BalanceAfter = balanceAfter
	je.Status = EntryStatusCommitted
	je.UpdatedAt = time.Now()
	je.IncrementVersion()

	return nil
}

// UpdateDetails changes the mutable fields of an unlocked entry. Changing
// the amount invalidates every later balance; the caller must recompute.
func (je *JournalEntry) UpdateDetails(entryDate time.Time, amount decimal.Decimal, counterparty, refCode, note string) error {
	if je.Status == EntryStatusLocked {
		return shared.NewLockedError(fmt.Sprintf("Journal entry %d on account %s is locked", je.Sequence, je.AccountCode))
	}
	if entryDate.IsZero() {
		return shared.NewValidationError("Entry date is required")
	}
	if amount.IsZero() {
		return shared.NewValidationError("Entry amount cannot be zero")
	}

	je.EntryDate = entryDate
	je.Amount = amount
	je.Counterparty = counterparty
	je.RefCode = refCode
	je.Note = note
	je.UpdatedAt = time.Now()
	je.IncrementVersion()

	return nil
}

// Lock freezes the entry. Only committed entries can be locked.
func (je *JournalEntry) Lock() error {
	if je.Status == EntryStatusLocked {
		return nil
	}
	if je.Status != EntryStatusCommitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot lock entry in %s status", je.Status))
	}

	je.Status = EntryStatusLocked
	je.UpdatedAt = time.Now()
	je.IncrementVersion()

	je.AddDomainEvent(NewJournalEntryLockedEvent(je))

	return nil
}

// IsLocked returns true if the entry is frozen
func (je *JournalEntry) IsLocked() bool {
	return je.Status == EntryStatusLocked
}

// CanModify returns true if the entry's amount and date may still change
func (je *JournalEntry) CanModify() bool {
	return je.Status != EntryStatusLocked
}
