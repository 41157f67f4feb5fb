package persistence

import (
	"context"
	"errors"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerDirectory implements the CustomerDirectory read model against
// the customer master table.
type GormCustomerDirectory struct {
	db *gorm.DB
}

// NewGormCustomerDirectory creates a new GormCustomerDirectory
func NewGormCustomerDirectory(db *gorm.DB) *GormCustomerDirectory {
	return &GormCustomerDirectory{db: db}
}

// Lookup resolves a customer code to its display name
func (d *GormCustomerDirectory) Lookup(ctx context.Context, customerCode string) (string, error) {
	var name string
	err := conn(ctx, d.db).
		Model(&models.CustomerModel{}).
		Select("customer_name").
		Where("customer_code = ? AND is_active = ?", customerCode, true).
		First(&name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.NewDomainError("NOT_FOUND", "Customer "+customerCode+" not found")
		}
		return "", err
	}
	return name, nil
}

// Exists reports whether an active customer with the code exists
func (d *GormCustomerDirectory) Exists(ctx context.Context, customerCode string) (bool, error) {
	var count int64
	err := conn(ctx, d.db).
		Model(&models.CustomerModel{}).
		Where("customer_code = ? AND is_active = ?", customerCode, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ ledger.CustomerDirectory = (*GormCustomerDirectory)(nil)
