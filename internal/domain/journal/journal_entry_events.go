package journal

import (
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntryCreatedEvent is raised when an entry is first planned
type JournalEntryCreatedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID       `json:"entry_id"`
	AccountCode string          `json:"account_code"`
	EntryDate   time.Time       `json:"entry_date"`
	Amount      decimal.Decimal `json:"amount"`
	RefCode     string          `json:"ref_code"`
}

// EventType returns the event type name
func (e *JournalEntryCreatedEvent) EventType() string {
	return "JournalEntryCreated"
}

// NewJournalEntryCreatedEvent creates a new JournalEntryCreatedEvent
func NewJournalEntryCreatedEvent(je *JournalEntry) *JournalEntryCreatedEvent {
	return &JournalEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalEntryCreated", "JournalEntry", je.ID),
		EntryID:         je.ID,
		AccountCode:     je.AccountCode,
		EntryDate:       je.EntryDate,
		Amount:          je.Amount,
		RefCode:         je.RefCode,
	}
}

// JournalEntryLockedEvent is raised when an entry is frozen
type JournalEntryLockedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID `json:"entry_id"`
	AccountCode string    `json:"account_code"`
	Sequence    int64     `json:"sequence"`
}

// EventType returns the event type name
func (e *JournalEntryLockedEvent) EventType() string {
	return "JournalEntryLocked"
}

// NewJournalEntryLockedEvent creates a new JournalEntryLockedEvent
func NewJournalEntryLockedEvent(je *JournalEntry) *JournalEntryLockedEvent {
	return &JournalEntryLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalEntryLocked", "JournalEntry", je.ID),
		EntryID:         je.ID,
		AccountCode:     je.AccountCode,
		Sequence:        je.Sequence,
	}
}

// JournalRecomputedEvent is raised when a recompute pass rewrites balances
type JournalRecomputedEvent struct {
	shared.BaseDomainEvent
	AccountCode  string          `json:"account_code"`
	FromSequence int64           `json:"from_sequence"`
	EntryCount   int             `json:"entry_count"`
	FinalBalance decimal.Decimal `json:"final_balance"`
}

// EventType returns the event type name
func (e *JournalRecomputedEvent) EventType() string {
	return "JournalRecomputed"
}

// NewJournalRecomputedEvent creates a new JournalRecomputedEvent
func NewJournalRecomputedEvent(accountCode string, fromSequence int64, entryCount int, finalBalance decimal.Decimal) *JournalRecomputedEvent {
	return &JournalRecomputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalRecomputed", "Journal", uuid.New()),
		AccountCode:     accountCode,
		FromSequence:    fromSequence,
		EntryCount:      entryCount,
		FinalBalance:    finalBalance,
	}
}
