package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/haulage/backend/internal/domain/journal"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

// Save creates a journal entry
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *journal.JournalEntry) error {
	model := models.JournalEntryModelFromDomain(entry)
	return conn(ctx, r.db).Create(model).Error
}

// SaveAll creates journal entries in bulk
func (r *GormJournalEntryRepository) SaveAll(ctx context.Context, entries []*journal.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	entryModels := make([]*models.JournalEntryModel, len(entries))
	for i, e := range entries {
		entryModels[i] = models.JournalEntryModelFromDomain(e)
	}
	return conn(ctx, r.db).CreateInBatches(entryModels, 500).Error
}

// Update persists changes to one entry
func (r *GormJournalEntryRepository) Update(ctx context.Context, entry *journal.JournalEntry) error {
	model := models.JournalEntryModelFromDomain(entry)
	result := conn(ctx, r.db).
		Model(&models.JournalEntryModel{}).
		Where("id = ?", entry.ID).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateAll persists a rewritten suffix after a recompute pass. A sequence
// shift can collide with the unique (account, sequence) index mid-write, so
// sequences are parked out of range first and then written back.
func (r *GormJournalEntryRepository) UpdateAll(ctx context.Context, entries []*journal.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := tx.Model(&models.JournalEntryModel{}).
			Where("id IN ?", ids).
			Update("sequence", gorm.Expr("-sequence")).Error; err != nil {
			return err
		}
		for _, e := range entries {
			model := models.JournalEntryModelFromDomain(e)
			result := tx.Model(&models.JournalEntryModel{}).
				Where("id = ?", e.ID).
				Select("*").
				Updates(model)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrNotFound
			}
		}
		return nil
	})
}

// FindByID finds a journal entry by ID
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*journal.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAccount returns an account's full sequence ordered by sequence asc
func (r *GormJournalEntryRepository) FindByAccount(ctx context.Context, accountCode string) ([]*journal.JournalEntry, error) {
	var entryModels []models.JournalEntryModel
	if err := conn(ctx, r.db).
		Where("account_code = ?", accountCode).
		Order("sequence ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*journal.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// FindByFilter returns a filtered, paginated entry listing
func (r *GormJournalEntryRepository) FindByFilter(ctx context.Context, filter journal.EntryFilter) (*shared.Paginated[*journal.JournalEntry], error) {
	query := conn(ctx, r.db).Model(&models.JournalEntryModel{})

	if filter.AccountCode != "" {
		query = query.Where("account_code = ?", filter.AccountCode)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RefCode != "" {
		query = query.Where("ref_code = ?", filter.RefCode)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", *filter.ToDate)
	}
	if filter.FromSequence != nil {
		query = query.Where("sequence >= ?", *filter.FromSequence)
	}
	if filter.ToSequence != nil {
		query = query.Where("sequence <= ?", *filter.ToSequence)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var entryModels []models.JournalEntryModel
	if err := query.
		Order("account_code ASC, sequence ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*journal.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	result := shared.NewPaginated(entries, total, page, pageSize)
	return &result, nil
}

// GetAccountBalance returns the current position of one account
func (r *GormJournalEntryRepository) GetAccountBalance(ctx context.Context, accountCode string) (*journal.AccountBalance, error) {
	var row struct {
		EntryCount     int64
		ClosingBalance decimal.Decimal
		LastEntryDate  *time.Time
	}
	err := conn(ctx, r.db).
		Model(&models.JournalEntryModel{}).
		Select(`COUNT(*) AS entry_count,
			COALESCE(SUM(amount), 0) AS closing_balance,
			MAX(entry_date) AS last_entry_date`).
		Where("account_code = ?", accountCode).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &journal.AccountBalance{
		AccountCode:    accountCode,
		EntryCount:     row.EntryCount,
		ClosingBalance: row.ClosingBalance,
		LastEntryDate:  row.LastEntryDate,
	}, nil
}

// ListAccounts returns every account code with at least one entry
func (r *GormJournalEntryRepository) ListAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := conn(ctx, r.db).
		Model(&models.JournalEntryModel{}).
		Distinct("account_code").
		Order("account_code ASC").
		Pluck("account_code", &accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Delete removes one journal entry
func (r *GormJournalEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.JournalEntryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByAccount removes an account's entire sequence
func (r *GormJournalEntryRepository) DeleteByAccount(ctx context.Context, accountCode string) error {
	return conn(ctx, r.db).
		Delete(&models.JournalEntryModel{}, "account_code = ?", accountCode).Error
}

var _ journal.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
