package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/haulage/backend/internal/domain/ledger"
	"github.com/haulage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PeriodService handles the debt period lifecycle: creation, charging,
// locking and queries.
type PeriodService struct {
	periods   ledger.DebtPeriodRepository
	customers ledger.CustomerDirectory
	tx        shared.TransactionManager
	logger    *zap.Logger
}

// NewPeriodService creates a new PeriodService
func NewPeriodService(
	periods ledger.DebtPeriodRepository,
	customers ledger.CustomerDirectory,
	tx shared.TransactionManager,
	logger *zap.Logger,
) *PeriodService {
	return &PeriodService{
		periods:   periods,
		customers: customers,
		tx:        tx,
		logger:    logger.Named("period_service"),
	}
}

// CreatePeriodRequest is the input for opening a new debt period
type CreatePeriodRequest struct {
	CustomerCode string
	ManageMonth  string
	FromDate     time.Time
	ToDate       time.Time
	VATPercent   decimal.Decimal
	Note         string
}

// CreatePeriod opens a new period for a customer. A period whose date range
// overlaps an unlocked period of the same customer and manage month is
// rejected.
func (s *PeriodService) CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*ledger.DebtPeriod, error) {
	customerName, err := s.customers.Lookup(ctx, req.CustomerCode)
	if err != nil {
		return nil, err
	}

	var period *ledger.DebtPeriod
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		overlapping, err := s.periods.FindOverlapping(ctx, req.CustomerCode, req.ManageMonth, req.FromDate, req.ToDate)
		if err != nil {
			return fmt.Errorf("failed to check for overlapping periods: %w", err)
		}
		if len(overlapping) > 0 {
			return shared.NewDomainError("PERIOD_OVERLAP", fmt.Sprintf(
				"Customer %s already has period %s covering part of this date range",
				req.CustomerCode, overlapping[0].DebtCode))
		}

		debtCode, err := s.periods.GenerateDebtCode(ctx, req.ManageMonth)
		if err != nil {
			return fmt.Errorf("failed to generate debt code: %w", err)
		}

		period, err = ledger.NewDebtPeriod(debtCode, req.CustomerCode, customerName,
			req.ManageMonth, req.FromDate, req.ToDate, req.VATPercent, req.Note)
		if err != nil {
			return err
		}

		return s.periods.Save(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Debt period created",
		zap.String("debt_code", period.DebtCode),
		zap.String("customer_code", period.CustomerCode),
		zap.String("manage_month", period.ManageMonth))

	return period, nil
}

// ChargeResult is the outcome of seeding charges into a period
type ChargeResult struct {
	Period        *ledger.DebtPeriod
	Overcollected bool
}

// SetCharges seeds or revises a period's charge totals from the billing
// aggregator figures.
func (s *PeriodService) SetCharges(ctx context.Context, debtCode string, breakdown ledger.ChargeBreakdown) (*ChargeResult, error) {
	var result ChargeResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		period, err := s.periods.FindByDebtCode(ctx, debtCode)
		if err != nil {
			return err
		}

		overcollected, err := period.SetCharges(breakdown)
		if err != nil {
			return err
		}
		if err := s.periods.Update(ctx, period); err != nil {
			return err
		}

		result = ChargeResult{Period: period, Overcollected: overcollected}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Overcollected {
		s.logger.Warn("Period charges revised below collected amount",
			zap.String("debt_code", debtCode),
			zap.String("remain_amount", result.Period.RemainAmount.String()))
	}

	return &result, nil
}

// UpdatePeriodRequest is the input for editing an unlocked period
type UpdatePeriodRequest struct {
	FromDate   time.Time
	ToDate     time.Time
	VATPercent decimal.Decimal
	Note       string
}

// UpdatePeriod edits the mutable fields of an unlocked period
func (s *PeriodService) UpdatePeriod(ctx context.Context, debtCode string, req UpdatePeriodRequest) (*ledger.DebtPeriod, error) {
	var period *ledger.DebtPeriod
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		period, err = s.periods.FindByDebtCode(ctx, debtCode)
		if err != nil {
			return err
		}

		overlapping, err := s.periods.FindOverlapping(ctx, period.CustomerCode, period.ManageMonth, req.FromDate, req.ToDate)
		if err != nil {
			return err
		}
		for _, other := range overlapping {
			if other.DebtCode != debtCode {
				return shared.NewDomainError("PERIOD_OVERLAP", fmt.Sprintf(
					"New date range collides with period %s", other.DebtCode))
			}
		}

		if err := period.UpdateDetails(req.FromDate, req.ToDate, req.VATPercent, req.Note); err != nil {
			return err
		}
		return s.periods.Update(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// LockPeriod freezes a period against edits, payments and deletion
func (s *PeriodService) LockPeriod(ctx context.Context, debtCode, actor string) (*ledger.DebtPeriod, error) {
	return s.setLock(ctx, debtCode, actor, true)
}

// UnlockPeriod lifts the freeze
func (s *PeriodService) UnlockPeriod(ctx context.Context, debtCode, actor string) (*ledger.DebtPeriod, error) {
	return s.setLock(ctx, debtCode, actor, false)
}

func (s *PeriodService) setLock(ctx context.Context, debtCode, actor string, lock bool) (*ledger.DebtPeriod, error) {
	if actor == "" {
		return nil, shared.NewValidationError("Actor is required")
	}

	var period *ledger.DebtPeriod
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		period, err = s.periods.FindByDebtCode(ctx, debtCode)
		if err != nil {
			return err
		}

		versionBefore := period.Version
		if lock {
			period.Lock(actor)
		} else {
			period.Unlock(actor)
		}
		if period.Version == versionBefore {
			// Already in the requested state.
			return nil
		}
		return s.periods.Update(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Period lock state changed",
		zap.String("debt_code", debtCode),
		zap.Bool("locked", period.IsLocked),
		zap.String("actor", actor))

	return period, nil
}

// DeletePeriod removes a period that carries no payments and is not locked
func (s *PeriodService) DeletePeriod(ctx context.Context, debtCode string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		period, err := s.periods.FindByDebtCode(ctx, debtCode)
		if err != nil {
			return err
		}
		if period.IsLocked {
			return shared.NewLockedError(fmt.Sprintf("Debt period %s is locked", debtCode))
		}
		if period.PaidAmount.GreaterThan(decimal.Zero) {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf(
				"Debt period %s has collected payments and cannot be deleted", debtCode))
		}
		return s.periods.Delete(ctx, period.ID)
	})
}

// GetPeriod returns one period by its business code
func (s *PeriodService) GetPeriod(ctx context.Context, debtCode string) (*ledger.DebtPeriod, error) {
	return s.periods.FindByDebtCode(ctx, debtCode)
}

// GetPeriodByID returns one period by ID
func (s *PeriodService) GetPeriodByID(ctx context.Context, id uuid.UUID) (*ledger.DebtPeriod, error) {
	return s.periods.FindByID(ctx, id)
}

// ListPeriods returns a filtered, paginated listing
func (s *PeriodService) ListPeriods(ctx context.Context, filter ledger.PeriodFilter) (*shared.Paginated[*ledger.DebtPeriod], error) {
	return s.periods.FindByFilter(ctx, filter)
}

// GetCustomerSummary aggregates a customer's position across all periods
func (s *PeriodService) GetCustomerSummary(ctx context.Context, customerCode string) (*ledger.CustomerDebtSummary, error) {
	return s.periods.SummarizeByCustomer(ctx, customerCode)
}
