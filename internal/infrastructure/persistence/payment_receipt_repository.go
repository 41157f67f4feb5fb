package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentReceiptRepository implements PaymentReceiptRepository using GORM
type GormPaymentReceiptRepository struct {
	db *gorm.DB
}

// NewGormPaymentReceiptRepository creates a new GormPaymentReceiptRepository
func NewGormPaymentReceiptRepository(db *gorm.DB) *GormPaymentReceiptRepository {
	return &GormPaymentReceiptRepository{db: db}
}

// Save creates a payment receipt
func (r *GormPaymentReceiptRepository) Save(ctx context.Context, receipt *ledger.PaymentReceipt) error {
	model := models.PaymentReceiptModelFromDomain(receipt)
	return conn(ctx, r.db).Create(model).Error
}

// Update persists changes with an optimistic version check
func (r *GormPaymentReceiptRepository) Update(ctx context.Context, receipt *ledger.PaymentReceipt) error {
	model := models.PaymentReceiptModelFromDomain(receipt)
	result := conn(ctx, r.db).
		Model(&models.PaymentReceiptModel{}).
		Where("id = ? AND version < ?", receipt.ID, receipt.Version).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a payment receipt by ID
func (r *GormPaymentReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentReceipt, error) {
	var model models.PaymentReceiptModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReceiptNumber finds a payment receipt by its business number
func (r *GormPaymentReceiptRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*ledger.PaymentReceipt, error) {
	var model models.PaymentReceiptModel
	if err := conn(ctx, r.db).First(&model, "receipt_number = ?", receiptNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the receipt posted under the client's key
func (r *GormPaymentReceiptRepository) FindByIdempotencyKey(ctx context.Context, key string) (*ledger.PaymentReceipt, error) {
	var model models.PaymentReceiptModel
	if err := conn(ctx, r.db).First(&model, "idempotency_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFilter returns a filtered, paginated receipt listing
func (r *GormPaymentReceiptRepository) FindByFilter(ctx context.Context, filter ledger.ReceiptFilter) (*shared.Paginated[*ledger.PaymentReceipt], error) {
	query := conn(ctx, r.db).Model(&models.PaymentReceiptModel{})

	if filter.CustomerCode != "" {
		query = query.Where("customer_code = ?", filter.CustomerCode)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var receiptModels []models.PaymentReceiptModel
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&receiptModels).Error; err != nil {
		return nil, err
	}

	receipts := make([]*ledger.PaymentReceipt, len(receiptModels))
	for i := range receiptModels {
		receipts[i] = receiptModels[i].ToDomain()
	}
	result := shared.NewPaginated(receipts, total, page, pageSize)
	return &result, nil
}

// FindByDebtCode returns receipts carrying an allocation against the period.
// The allocation trail lives in a JSONB column, so this filters on the
// serialized debt code.
func (r *GormPaymentReceiptRepository) FindByDebtCode(ctx context.Context, debtCode string) ([]*ledger.PaymentReceipt, error) {
	var receiptModels []models.PaymentReceiptModel
	if err := conn(ctx, r.db).
		Where("allocations::text LIKE ?", `%"debt_code":"`+debtCode+`"%`).
		Order("created_at ASC").
		Find(&receiptModels).Error; err != nil {
		return nil, err
	}

	receipts := make([]*ledger.PaymentReceipt, len(receiptModels))
	for i := range receiptModels {
		receipts[i] = receiptModels[i].ToDomain()
	}
	return receipts, nil
}

// GenerateReceiptNumber issues the next number in the PR-YYYYMMDD-XXXXX
// series for the date. The series is shared across customers, so the per-day
// advisory lock serializes concurrent postings until their transactions
// commit.
func (r *GormPaymentReceiptRepository) GenerateReceiptNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := "PR-" + date.Format("20060102") + "-"

	db := conn(ctx, r.db)
	if err := lockSeries(db, "payment_receipts:"+prefix); err != nil {
		return "", err
	}

	var lastNumber string
	err := db.
		Model(&models.PaymentReceiptModel{}).
		Select("receipt_number").
		Where("receipt_number LIKE ?", prefix+"%").
		Order("receipt_number DESC").
		Limit(1).
		Scan(&lastNumber).Error
	if err != nil {
		return "", err
	}

	next := 1
	if lastNumber != "" {
		suffix, err := strconv.Atoi(strings.TrimPrefix(lastNumber, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed receipt number %q: %w", lastNumber, err)
		}
		next = suffix + 1
	}

	return fmt.Sprintf("%s%05d", prefix, next), nil
}

var _ ledger.PaymentReceiptRepository = (*GormPaymentReceiptRepository)(nil)
