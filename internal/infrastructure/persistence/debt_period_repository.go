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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDebtPeriodRepository implements DebtPeriodRepository using GORM
type GormDebtPeriodRepository struct {
	db *gorm.DB
}

// NewGormDebtPeriodRepository creates a new GormDebtPeriodRepository
func NewGormDebtPeriodRepository(db *gorm.DB) *GormDebtPeriodRepository {
	return &GormDebtPeriodRepository{db: db}
}

// Save creates a debt period
func (r *GormDebtPeriodRepository) Save(ctx context.Context, period *ledger.DebtPeriod) error {
	model := models.DebtPeriodModelFromDomain(period)
	return conn(ctx, r.db).Create(model).Error
}

// Update persists changes with an optimistic version check
func (r *GormDebtPeriodRepository) Update(ctx context.Context, period *ledger.DebtPeriod) error {
	model := models.DebtPeriodModelFromDomain(period)
	result := conn(ctx, r.db).
		Model(&models.DebtPeriodModel{}).
		Where("id = ? AND version < ?", period.ID, period.Version).
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

// FindByID finds a debt period by ID
func (r *GormDebtPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.DebtPeriod, error) {
	var model models.DebtPeriodModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDebtCode finds a debt period by its business code
func (r *GormDebtPeriodRepository) FindByDebtCode(ctx context.Context, debtCode string) (*ledger.DebtPeriod, error) {
	var model models.DebtPeriodModel
	if err := conn(ctx, r.db).First(&model, "debt_code = ?", debtCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFilter returns a filtered, paginated period listing
func (r *GormDebtPeriodRepository) FindByFilter(ctx context.Context, filter ledger.PeriodFilter) (*shared.Paginated[*ledger.DebtPeriod], error) {
	query := conn(ctx, r.db).Model(&models.DebtPeriodModel{})

	if filter.CustomerCode != "" {
		query = query.Where("customer_code = ?", filter.CustomerCode)
	}
	if filter.ManageMonth != "" {
		query = query.Where("manage_month = ?", filter.ManageMonth)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsLocked != nil {
		query = query.Where("is_locked = ?", *filter.IsLocked)
	}
	if filter.FromDate != nil {
		query = query.Where("to_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("from_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("debt_code ILIKE ? OR customer_name ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var periodModels []models.DebtPeriodModel
	if err := query.
		Order("from_date ASC, debt_code ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&periodModels).Error; err != nil {
		return nil, err
	}

	periods := make([]*ledger.DebtPeriod, len(periodModels))
	for i := range periodModels {
		periods[i] = periodModels[i].ToDomain()
	}
	result := shared.NewPaginated(periods, total, page, pageSize)
	return &result, nil
}

// FindOpenByCustomer returns payable periods in FIFO consumption order
func (r *GormDebtPeriodRepository) FindOpenByCustomer(ctx context.Context, customerCode string) ([]*ledger.DebtPeriod, error) {
	var periodModels []models.DebtPeriodModel
	if err := conn(ctx, r.db).
		Where("customer_code = ? AND is_locked = ? AND status IN ? AND remain_amount > 0",
			customerCode, false,
			[]ledger.PeriodStatus{ledger.PeriodStatusUnpaid, ledger.PeriodStatusPartial}).
		Order("from_date ASC, debt_code ASC").
		Find(&periodModels).Error; err != nil {
		return nil, err
	}

	periods := make([]*ledger.DebtPeriod, len(periodModels))
	for i := range periodModels {
		periods[i] = periodModels[i].ToDomain()
	}
	return periods, nil
}

// FindByDebtCodes loads periods by their business codes
func (r *GormDebtPeriodRepository) FindByDebtCodes(ctx context.Context, debtCodes []string) ([]*ledger.DebtPeriod, error) {
	if len(debtCodes) == 0 {
		return nil, nil
	}
	var periodModels []models.DebtPeriodModel
	if err := conn(ctx, r.db).
		Where("debt_code IN ?", debtCodes).
		Find(&periodModels).Error; err != nil {
		return nil, err
	}

	periods := make([]*ledger.DebtPeriod, len(periodModels))
	for i := range periodModels {
		periods[i] = periodModels[i].ToDomain()
	}
	return periods, nil
}

// FindOverlapping returns the customer's unlocked periods in the manage
// month intersecting [fromDate, toDate]
func (r *GormDebtPeriodRepository) FindOverlapping(ctx context.Context, customerCode, manageMonth string, fromDate, toDate time.Time) ([]*ledger.DebtPeriod, error) {
	var periodModels []models.DebtPeriodModel
	if err := conn(ctx, r.db).
		Where("customer_code = ? AND manage_month = ? AND is_locked = ? AND from_date <= ? AND to_date >= ?",
			customerCode, manageMonth, false, toDate, fromDate).
		Find(&periodModels).Error; err != nil {
		return nil, err
	}

	periods := make([]*ledger.DebtPeriod, len(periodModels))
	for i := range periodModels {
		periods[i] = periodModels[i].ToDomain()
	}
	return periods, nil
}

// SummarizeByCustomer aggregates a customer's position across all periods
func (r *GormDebtPeriodRepository) SummarizeByCustomer(ctx context.Context, customerCode string) (*ledger.CustomerDebtSummary, error) {
	var row struct {
		CustomerName string
		PeriodCount  int64
		OpenCount    int64
		TotalCharged decimal.Decimal
		TotalPaid    decimal.Decimal
	}
	err := conn(ctx, r.db).
		Model(&models.DebtPeriodModel{}).
		Select(`MAX(customer_name) AS customer_name,
			COUNT(*) AS period_count,
			SUM(CASE WHEN status IN ('CHUA_TRA', 'TRA_MOT_PHAN') THEN 1 ELSE 0 END) AS open_count,
			COALESCE(SUM(total_amount), 0) AS total_charged,
			COALESCE(SUM(paid_amount), 0) AS total_paid`).
		Where("customer_code = ?", customerCode).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.PeriodCount == 0 {
		return nil, shared.ErrNotFound
	}

	return &ledger.CustomerDebtSummary{
		CustomerCode:     customerCode,
		CustomerName:     row.CustomerName,
		PeriodCount:      row.PeriodCount,
		OpenPeriodCount:  row.OpenCount,
		TotalCharged:     row.TotalCharged,
		TotalPaid:        row.TotalPaid,
		TotalOutstanding: row.TotalCharged.Sub(row.TotalPaid),
		Classification:   ledger.Classify(row.TotalPaid, row.TotalCharged),
	}, nil
}

// Delete removes a debt period
func (r *GormDebtPeriodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.DebtPeriodModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GenerateDebtCode issues the next code in the DP-YYYYMM-XXXXX series for
// the manage month. The series is shared across customers, so the per-month
// advisory lock serializes concurrent creations until their transactions
// commit.
func (r *GormDebtPeriodRepository) GenerateDebtCode(ctx context.Context, manageMonth string) (string, error) {
	prefix := "DP-" + strings.ReplaceAll(manageMonth, "-", "") + "-"

	db := conn(ctx, r.db)
	if err := lockSeries(db, "debt_periods:"+prefix); err != nil {
		return "", err
	}

	var lastCode string
	err := db.
		Model(&models.DebtPeriodModel{}).
		Select("debt_code").
		Where("debt_code LIKE ?", prefix+"%").
		Order("debt_code DESC").
		Limit(1).
		Scan(&lastCode).Error
	if err != nil {
		return "", err
	}

	next := 1
	if lastCode != "" {
		suffix, err := strconv.Atoi(strings.TrimPrefix(lastCode, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed debt code %q: %w", lastCode, err)
		}
		next = suffix + 1
	}

	return fmt.Sprintf("%s%05d", prefix, next), nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

var _ ledger.DebtPeriodRepository = (*GormDebtPeriodRepository)(nil)
