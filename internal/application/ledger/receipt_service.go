package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/haulage/backend/internal/domain/shared/valueobject"
	"github.com/haulage/backend/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptService posts and cancels payment receipts. Posting for one
// customer is serialized through a keyed mutex so two concurrent receipts
// cannot both read the same period balances, and the period updates plus the
// receipt insert commit in one transaction.
type ReceiptService struct {
	receipts    ledger.PaymentReceiptRepository
	periods     ledger.DebtPeriodRepository
	customers   ledger.CustomerDirectory
	allocator   *ledger.AllocationService
	tx          shared.TransactionManager
	customerMu  *lock.KeyedMutex
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	receipts ledger.PaymentReceiptRepository,
	periods ledger.DebtPeriodRepository,
	customers ledger.CustomerDirectory,
	allocator *ledger.AllocationService,
	tx shared.TransactionManager,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		receipts:    receipts,
		periods:     periods,
		customers:   customers,
		allocator:   allocator,
		tx:          tx,
		customerMu:  lock.NewKeyedMutex(),
		idempotency: idempotency,
		idemConfig:  idemConfig,
		logger:      logger.Named("receipt_service"),
	}
}

// AllocationRequest is one caller-chosen period debit on an explicit receipt
type AllocationRequest struct {
	DebtCode string
	Amount   decimal.Decimal
}

// CreateReceiptRequest is the input for posting a payment receipt. When
// Allocations is empty the amount is distributed oldest-period-first;
// otherwise only the named periods are debited. IdempotencyKey is optional
// and deduplicates client retries.
type CreateReceiptRequest struct {
	CustomerCode   string
	Amount         decimal.Decimal
	Method         ledger.PaymentMethod
	Note           string
	CreatedBy      string
	Allocations    []AllocationRequest
	IdempotencyKey string
}

// CreateReceiptResult carries the posted receipt, the periods it debited and
// the portion of the amount that found no open period. The unallocated
// remainder is reported back, never credited anywhere on its own. Replayed
// marks a duplicate submission answered with the original receipt; no
// periods are touched on a replay.
type CreateReceiptResult struct {
	Receipt           *ledger.PaymentReceipt
	TouchedPeriods    []*ledger.DebtPeriod
	UnallocatedAmount decimal.Decimal
	Replayed          bool
}

// CreateReceipt posts a payment and applies it to the customer's periods
func (s *ReceiptService) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*CreateReceiptResult, error) {
	exists, err := s.customers.Exists(ctx, req.CustomerCode)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", "Customer "+req.CustomerCode+" not found")
	}

	var result *CreateReceiptResult
	err = s.customerMu.WithLock(req.CustomerCode, func() error {
		replay, err := s.findReplay(ctx, req.IdempotencyKey)
		if err != nil {
			return err
		}
		if replay != nil {
			result = replay
			return nil
		}

		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			receiptNumber, err := s.receipts.GenerateReceiptNumber(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("failed to generate receipt number: %w", err)
			}

			receipt, err := ledger.NewPaymentReceipt(receiptNumber, req.CustomerCode,
				valueobject.NewMoneyVND(req.Amount), req.Method, req.Note, req.CreatedBy)
			if err != nil {
				return err
			}
			receipt.IdempotencyKey = req.IdempotencyKey

			periods, strategy, err := s.resolveTargets(ctx, req)
			if err != nil {
				return err
			}

			allocation, err := s.allocator.Allocate(receipt, periods, strategy)
			if err != nil {
				return err
			}

			if err := s.receipts.Save(ctx, receipt); err != nil {
				return err
			}
			for _, period := range allocation.TouchedPeriods {
				if err := s.periods.Update(ctx, period); err != nil {
					return err
				}
			}

			result = &CreateReceiptResult{
				Receipt:           receipt,
				TouchedPeriods:    allocation.TouchedPeriods,
				UnallocatedAmount: allocation.UnallocatedAmount,
			}
			return nil
		})
		if err != nil {
			return err
		}

		// The key is recorded only after the posting commits. A failed
		// posting leaves it unconsumed so the client can retry with the
		// same key.
		s.recordIdempotency(ctx, req.IdempotencyKey)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		s.logger.Info("Duplicate receipt submission, returning original",
			zap.String("receipt_number", result.Receipt.ReceiptNumber),
			zap.String("idempotency_key", req.IdempotencyKey))
		return result, nil
	}

	s.logger.Info("Payment receipt posted",
		zap.String("receipt_number", result.Receipt.ReceiptNumber),
		zap.String("customer_code", req.CustomerCode),
		zap.String("amount", req.Amount.String()),
		zap.Int("periods_touched", len(result.TouchedPeriods)),
		zap.String("unallocated", result.UnallocatedAmount.String()))

	return result, nil
}

// resolveTargets loads the working set of periods and picks the strategy:
// the customer's open periods for automatic distribution, or exactly the
// requested periods for explicit allocation.
func (s *ReceiptService) resolveTargets(ctx context.Context, req CreateReceiptRequest) ([]*ledger.DebtPeriod, ledger.AllocationStrategy, error) {
	if len(req.Allocations) == 0 {
		periods, err := s.periods.FindOpenByCustomer(ctx, req.CustomerCode)
		if err != nil {
			return nil, nil, err
		}
		return periods, ledger.NewFIFOAllocationStrategy(), nil
	}

	codes := make([]string, len(req.Allocations))
	plans := make([]ledger.AllocationPlan, len(req.Allocations))
	for i, a := range req.Allocations {
		codes[i] = a.DebtCode
		plans[i] = ledger.AllocationPlan{DebtCode: a.DebtCode, Amount: a.Amount}
	}
	periods, err := s.periods.FindByDebtCodes(ctx, codes)
	if err != nil {
		return nil, nil, err
	}
	return periods, ledger.NewExplicitAllocationStrategy(plans), nil
}

// findReplay answers a retried submission with the receipt the key was
// consumed by. A marked key whose receipt cannot be found (the mark outlived
// the data) is treated as fresh.
func (s *ReceiptService) findReplay(ctx context.Context, key string) (*CreateReceiptResult, error) {
	if key == "" || !s.idemConfig.Enabled || s.idempotency == nil {
		return nil, nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		// A dead store must not block payment intake.
		s.logger.Warn("Idempotency store unavailable, accepting request", zap.Error(err))
		return nil, nil
	}
	if !processed {
		return nil, nil
	}

	receipt, err := s.receipts.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &CreateReceiptResult{
		Receipt:           receipt,
		UnallocatedAmount: receipt.UnallocatedAmount,
		Replayed:          true,
	}, nil
}

func (s *ReceiptService) recordIdempotency(ctx context.Context, key string) {
	if key == "" || !s.idemConfig.Enabled || s.idempotency == nil {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL); err != nil {
		s.logger.Warn("Failed to record idempotency key",
			zap.String("idempotency_key", key), zap.Error(err))
	}
}

// CancelReceipt reverses every allocation of the receipt and marks it
// cancelled. It fails as a whole if any touched period is locked.
func (s *ReceiptService) CancelReceipt(ctx context.Context, receiptNumber, cancelledBy, reason string) (*ledger.PaymentReceipt, error) {
	receipt, err := s.receipts.FindByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}

	err = s.customerMu.WithLock(receipt.CustomerCode, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			// Reload inside the lock; the copy fetched outside may be stale.
			receipt, err = s.receipts.FindByReceiptNumber(ctx, receiptNumber)
			if err != nil {
				return err
			}

			codes := make([]string, len(receipt.Allocations))
			for i, alloc := range receipt.Allocations {
				codes[i] = alloc.DebtCode
			}
			periods, err := s.periods.FindByDebtCodes(ctx, codes)
			if err != nil {
				return err
			}

			touched, err := s.allocator.Cancel(receipt, periods, cancelledBy, reason)
			if err != nil {
				return err
			}

			for _, period := range touched {
				if err := s.periods.Update(ctx, period); err != nil {
					return err
				}
			}
			return s.receipts.Update(ctx, receipt)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment receipt cancelled",
		zap.String("receipt_number", receiptNumber),
		zap.String("cancelled_by", cancelledBy),
		zap.String("reason", reason))

	return receipt, nil
}

// GetReceipt returns one receipt by its business number
func (s *ReceiptService) GetReceipt(ctx context.Context, receiptNumber string) (*ledger.PaymentReceipt, error) {
	return s.receipts.FindByReceiptNumber(ctx, receiptNumber)
}

// GetReceiptByID returns one receipt by ID
func (s *ReceiptService) GetReceiptByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentReceipt, error) {
	return s.receipts.FindByID(ctx, id)
}

// ListReceipts returns a filtered, paginated receipt listing
func (s *ReceiptService) ListReceipts(ctx context.Context, filter ledger.ReceiptFilter) (*shared.Paginated[*ledger.PaymentReceipt], error) {
	return s.receipts.FindByFilter(ctx, filter)
}

// ListByPeriod returns the payment history of one debt period
func (s *ReceiptService) ListByPeriod(ctx context.Context, debtCode string) ([]*ledger.PaymentReceipt, error) {
	return s.receipts.FindByDebtCode(ctx, debtCode)
}
