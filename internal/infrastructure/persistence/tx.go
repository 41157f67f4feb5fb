package persistence

import (
	"context"

	"github.com/haulage/backend/internal/domain/shared"
	"gorm.io/gorm"
)

type txKey struct{}

// TxFromContext returns the transaction carried by the context, or nil
func TxFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// GormTransactionManager implements TransactionManager over a GORM connection
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside a transaction. Repositories pick the
// transaction up from the context, so every call inside fn commits or rolls
// back together.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)

// conn returns the transaction from the context if present, else the base
// connection, with the context attached either way.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// lockSeries takes a transaction-scoped advisory lock on a code series so
// concurrent generators cannot read the same max suffix. Advisory locks are
// postgres-only; on other dialects the unique index on the generated code is
// the backstop.
func lockSeries(db *gorm.DB, series string) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", series).Error
}
