package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/haulage/backend/internal/domain/journal"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/infrastructure/lock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// JournalService maintains per-account running-balance journals. Every
// mutation loads the account's full sequence, rewrites it in memory through
// the Journal aggregate and persists the changed suffix in one transaction.
// Mutations on one account are serialized with a keyed mutex.
type JournalService struct {
	entries   journal.JournalEntryRepository
	tx        shared.TransactionManager
	accountMu *lock.KeyedMutex
	logger    *zap.Logger
}

// NewJournalService creates a new JournalService
func NewJournalService(
	entries journal.JournalEntryRepository,
	tx shared.TransactionManager,
	logger *zap.Logger,
) *JournalService {
	return &JournalService{
		entries:   entries,
		tx:        tx,
		accountMu: lock.NewKeyedMutex(),
		logger:    logger.Named("journal_service"),
	}
}

// EntryInput is one movement to record on an account
type EntryInput struct {
	EntryDate    time.Time
	Counterparty string
	Amount       decimal.Decimal
	RefCode      string
	Note         string
}

// AppendEntry records a movement at its chronological position in the
// account's sequence: after the last entry dated on or before it. A
// back-dated movement shifts the later entries down and recomputes their
// balances, the same as an anchored insert.
func (s *JournalService) AppendEntry(ctx context.Context, accountCode string, input EntryInput) (*journal.JournalEntry, error) {
	var entry *journal.JournalEntry
	err := s.accountMu.WithLock(accountCode, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			j, err := s.loadJournal(ctx, accountCode)
			if err != nil {
				return err
			}

			entry, err = journal.NewJournalEntry(accountCode, input.EntryDate, input.Amount, input.Counterparty, input.RefCode, input.Note)
			if err != nil {
				return err
			}

			anchor := j.ChronologicalAnchor(entry.EntryDate)
			if anchor == int64(len(j.Entries)) {
				if err := j.Append(entry); err != nil {
					return err
				}
				return s.entries.Save(ctx, entry)
			}

			if err := j.InsertAfter(anchor, entry); err != nil {
				return err
			}
			// Shifted suffix first so the new entry's sequence slot is free
			// before it is inserted.
			if err := s.entries.UpdateAll(ctx, j.Entries[anchor+1:]); err != nil {
				return err
			}
			return s.entries.Save(ctx, entry)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Journal entry recorded",
		zap.String("account_code", accountCode),
		zap.Int64("sequence", entry.Sequence),
		zap.String("amount", input.Amount.String()))

	return entry, nil
}

// InsertEntry places a movement directly after the anchor sequence, shifting
// every later entry down by one and recomputing their balances. Anchor 0
// inserts at the head of the account.
func (s *JournalService) InsertEntry(ctx context.Context, accountCode string, anchorSequence int64, input EntryInput) (*journal.JournalEntry, error) {
	var entry *journal.JournalEntry
	err := s.accountMu.WithLock(accountCode, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			j, err := s.loadJournal(ctx, accountCode)
			if err != nil {
				return err
			}

			entry, err = journal.NewJournalEntry(accountCode, input.EntryDate, input.Amount, input.Counterparty, input.RefCode, input.Note)
			if err != nil {
				return err
			}
			if err := j.InsertAfter(anchorSequence, entry); err != nil {
				return err
			}

			// Shifted suffix first so the new entry's sequence slot is free
			// before it is inserted.
			idx := int(anchorSequence)
			if err := s.entries.UpdateAll(ctx, j.Entries[idx+1:]); err != nil {
				return err
			}
			return s.entries.Save(ctx, entry)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Journal entry inserted",
		zap.String("account_code", accountCode),
		zap.Int64("anchor", anchorSequence),
		zap.Int64("sequence", entry.Sequence))

	return entry, nil
}

// BulkImport appends a batch of movements (e.g. a bank statement sheet) to
// the account in one transaction with a single balance pass.
func (s *JournalService) BulkImport(ctx context.Context, accountCode string, inputs []EntryInput) ([]*journal.JournalEntry, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("Import batch cannot be empty")
	}

	var imported []*journal.JournalEntry
	err := s.accountMu.WithLock(accountCode, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			j, err := s.loadJournal(ctx, accountCode)
			if err != nil {
				return err
			}

			imported = make([]*journal.JournalEntry, 0, len(inputs))
			for i, input := range inputs {
				entry, err := journal.NewJournalEntry(accountCode, input.EntryDate, input.Amount, input.Counterparty, input.RefCode, input.Note)
				if err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				if err := j.Append(entry); err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				imported = append(imported, entry)
			}
			return s.entries.SaveAll(ctx, imported)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Journal batch imported",
		zap.String("account_code", accountCode),
		zap.Int("entries", len(imported)))

	return imported, nil
}

// AmendEntry rewrites a movement's date, amount, reference or note and
// recomputes every later balance.
func (s *JournalService) AmendEntry(ctx context.Context, accountCode string, sequence int64, input EntryInput) (*journal.JournalEntry, error) {
	var amended *journal.JournalEntry
	err := s.accountMu.WithLock(accountCode, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			j, err := s.loadJournal(ctx, accountCode)
			if err != nil {
				return err
			}

			patch, err := journal.NewJournalEntry(accountCode, input.EntryDate, input.Amount, input.Counterparty, input.RefCode, input.Note)
			if err != nil {
				return err
			}
			if err := j.Amend(sequence, patch); err != nil {
				return err
			}

			idx := int(sequence) - 1
			amended = j.Entries[idx]
			return s.entries.UpdateAll(ctx, j.Entries[idx:])
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Journal entry amended",
		zap.String("account_code", accountCode),
		zap.Int64("sequence", sequence))

	return amended, nil
}

// DeleteEntry removes a movement, closes the sequence gap and recomputes
// every later balance.
func (s *JournalService) DeleteEntry(ctx context.Context, accountCode string, sequence int64) error {
	err := s.accountMu.WithLock(accountCode, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			j, err := s.loadJournal(ctx, accountCode)
			if err != nil {
				return err
			}

			idx := int(sequence) - 1
			if idx < 0 || idx >= len(j.Entries) || j.Entries[idx].Sequence != sequence {
				return shared.NewDomainError("NOT_FOUND", fmt.Sprintf(
					"Entry %d not found on account %s", sequence, accountCode))
			}
			removedID := j.Entries[idx].ID

			if err := j.Remove(sequence); err != nil {
				return err
			}

			// Free the removed row's sequence slot before the suffix moves up.
			if err := s.entries.Delete(ctx, removedID); err != nil {
				return err
			}
			return s.entries.UpdateAll(ctx, j.Entries[idx:])
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("Journal entry deleted",
		zap.String("account_code", accountCode),
		zap.Int64("sequence", sequence))

	return nil
}

// LockRange freezes every movement dated inside [fromDate, toDate]. Later
// balances depend on all earlier entries, so the freeze covers the whole
// prefix up to the last entry in range.
func (s *JournalService) LockRange(ctx context.Context, accountCode string, fromDate, toDate time.Time) (int, error) {
	if fromDate.IsZero() || toDate.IsZero() {
		return 0, shared.NewValidationError("Lock range requires both dates")
	}
	if toDate.Before(fromDate) {
		return 0, shared.NewValidationError("Lock range is inverted")
	}

	locked := 0
	err := s.accountMu.WithLock(accountCode, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			j, err := s.loadJournal(ctx, accountCode)
			if err != nil {
				return err
			}

			var lastInRange int64
			for _, e := range j.Entries {
				if !e.EntryDate.Before(fromDate) && !e.EntryDate.After(toDate) {
					lastInRange = e.Sequence
				}
			}
			if lastInRange == 0 {
				return shared.NewDomainError("NOT_FOUND", fmt.Sprintf(
					"Account %s has no entries in the requested range", accountCode))
			}

			if err := j.LockThrough(lastInRange); err != nil {
				return err
			}

			locked = int(lastInRange)
			return s.entries.UpdateAll(ctx, j.Entries[:lastInRange])
		})
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Journal prefix locked",
		zap.String("account_code", accountCode),
		zap.Int("entries_locked", locked))

	return locked, nil
}

// GetJournal loads the full sequence of one account
func (s *JournalService) GetJournal(ctx context.Context, accountCode string) (*journal.Journal, error) {
	j, err := s.loadJournal(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	if len(j.Entries) == 0 {
		return nil, shared.ErrNotFound
	}
	return j, nil
}

// VerifyAccount checks the account's dense-sequence and balance-chain
// invariants and returns the first violation found.
func (s *JournalService) VerifyAccount(ctx context.Context, accountCode string) error {
	j, err := s.GetJournal(ctx, accountCode)
	if err != nil {
		return err
	}
	return j.Verify()
}

// GetBalance returns the current position of one account
func (s *JournalService) GetBalance(ctx context.Context, accountCode string) (*journal.AccountBalance, error) {
	balance, err := s.entries.GetAccountBalance(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	if balance.EntryCount == 0 {
		return nil, shared.ErrNotFound
	}
	return balance, nil
}

// ListAccounts returns every account code carrying at least one entry
func (s *JournalService) ListAccounts(ctx context.Context) ([]string, error) {
	return s.entries.ListAccounts(ctx)
}

// ListEntries returns a filtered, paginated entry listing across accounts
func (s *JournalService) ListEntries(ctx context.Context, filter journal.EntryFilter) (*shared.Paginated[*journal.JournalEntry], error) {
	return s.entries.FindByFilter(ctx, filter)
}

// Accounts carry their full history, so the running balance always chains
// from zero.
func (s *JournalService) loadJournal(ctx context.Context, accountCode string) (*journal.Journal, error) {
	entries, err := s.entries.FindByAccount(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	return journal.NewJournal(accountCode, decimal.Zero, entries)
}
