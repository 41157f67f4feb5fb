package shared

import "context"

// TransactionManager runs a function inside a storage transaction. The
// function receives a derived context; repositories called with it join the
// same transaction, and any returned error rolls everything back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTransactionManager runs the function without a transaction, for tests.
type NopTransactionManager struct{}

// WithinTransaction implements TransactionManager
func (NopTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
