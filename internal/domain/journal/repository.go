package journal

import (
	"context"
	"time"

	"github.com/haulage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryFilter narrows journal entry queries
type EntryFilter struct {
	shared.Filter
	AccountCode  string
	Status       EntryStatus
	RefCode      string
	FromDate     *time.Time
	ToDate       *time.Time
	FromSequence *int64
	ToSequence   *int64
}

// AccountBalance is the current position of one journal account
type AccountBalance struct {
	AccountCode    string          `json:"account_code"`
	EntryCount     int64           `json:"entry_count"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	LastEntryDate  *time.Time      `json:"last_entry_date"`
}

// JournalEntryRepository persists JournalEntry aggregates
type JournalEntryRepository interface {
	Save(ctx context.Context, entry *JournalEntry) error
	SaveAll(ctx context.Context, entries []*JournalEntry) error
	Update(ctx context.Context, entry *JournalEntry) error
	UpdateAll(ctx context.Context, entries []*JournalEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)
	// FindByAccount returns the full sequence of an account ordered by
	// Sequence asc, the shape NewJournal expects.
	FindByAccount(ctx context.Context, accountCode string) ([]*JournalEntry, error)
	FindByFilter(ctx context.Context, filter EntryFilter) (*shared.Paginated[*JournalEntry], error)
	GetAccountBalance(ctx context.Context, accountCode string) (*AccountBalance, error)
	ListAccounts(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByAccount(ctx context.Context, accountCode string) error
}
