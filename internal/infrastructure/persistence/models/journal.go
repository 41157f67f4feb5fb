package models

import (
	"time"

	"github.com/haulage/backend/internal/domain/journal"
	"github.com/shopspring/decimal"
)

// JournalEntryModel is the persistence model for the JournalEntry aggregate root.
type JournalEntryModel struct {
	AggregateModel
	AccountCode  string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_journal_account_seq,priority:1"`
	Sequence     int64               `gorm:"not null;uniqueIndex:idx_journal_account_seq,priority:2"`
	EntryDate    time.Time           `gorm:"not null;index"`
	Counterparty string              `gorm:"type:varchar(200)"`
	Amount       decimal.Decimal     `gorm:"type:decimal(18,0);not null"`
	BalanceAfter decimal.Decimal     `gorm:"type:decimal(18,0);not null"`
	Status       journal.EntryStatus `gorm:"type:varchar(20);not null;default:'PENDING_INSERT';index"`
	RefCode      string              `gorm:"type:varchar(50);index"`
	Note         string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain JournalEntry entity.
func (m *JournalEntryModel) ToDomain() *journal.JournalEntry {
	return &journal.JournalEntry{
		BaseAggregateRoot: m.ToAggregateRoot(),
		AccountCode:       m.AccountCode,
		Sequence:          m.Sequence,
		EntryDate:         m.EntryDate,
		Counterparty:      m.Counterparty,
		Amount:            m.Amount,
		BalanceAfter:      m.BalanceAfter,
		Status:            m.Status,
		RefCode:           m.RefCode,
		Note:              m.Note,
	}
}

// FromDomain populates the persistence model from a domain JournalEntry entity.
func (m *JournalEntryModel) FromDomain(je *journal.JournalEntry) {
	m.FromAggregateRoot(je.BaseAggregateRoot)
	m.AccountCode = je.AccountCode
	m.Sequence = je.Sequence
	m.EntryDate = je.EntryDate
	m.Counterparty = je.Counterparty
	m.Amount = je.Amount
	m.BalanceAfter = je.BalanceAfter
	m.Status = je.Status
	m.RefCode = je.RefCode
	m.Note = je.Note
}

// JournalEntryModelFromDomain creates a new persistence model from a domain JournalEntry.
func JournalEntryModelFromDomain(je *journal.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{}
	m.FromDomain(je)
	return m
}
