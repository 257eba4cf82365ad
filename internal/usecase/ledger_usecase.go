package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles general-ledger operations.
type LedgerUseCase struct {
	txManager  TransactionManager
	ledgerRepo LedgerRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	clock      Clock
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	ledgerRepo LedgerRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:  txManager,
		ledgerRepo: ledgerRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		clock:      clock,
	}
}

// ConsistencyReport is the result of a ledger-wide balance check.
type ConsistencyReport struct {
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Consistent   bool
}

// CheckConsistency verifies that total posted debits equal total posted
// credits across the whole ledger.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totalDebits, totalCredits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TotalDebits:  totalDebits,
		TotalCredits: totalCredits,
		Consistent:   totalDebits.Equal(totalCredits),
	}

	if !report.Consistent {
		return report, ErrInconsistentLedger
	}

	return report, nil
}

// GetBalance retrieves one account's balance row for a period.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, accountID string, periodStart time.Time) (*domain.LedgerBalance, error) {
	return uc.ledgerRepo.GetBalance(ctx, accountID, PeriodStart(periodStart))
}

// ListBalancesInput represents input for listing a period's balances.
type ListBalancesInput struct {
	PeriodStart time.Time
	Limit       int
	Offset      int
}

// ListBalances lists all account balances for a period.
func (uc *LedgerUseCase) ListBalances(ctx context.Context, input ListBalancesInput) ([]*domain.LedgerBalance, error) {
	limit, offset := clampPagination(input.Limit, input.Offset)
	return uc.ledgerRepo.ListByPeriod(ctx, PeriodStart(input.PeriodStart), limit, offset)
}

// ClosePeriod closes every balance row in a period and rolls each closing
// balance forward as the next period's opening balance. Returns how many
// accounts were closed.
func (uc *LedgerUseCase) ClosePeriod(ctx context.Context, periodStart time.Time, by string) (int, error) {
	now := uc.clock.Now().UTC()
	period := PeriodStart(periodStart)
	next := period.AddDate(0, 1, 0)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	balances, err := uc.ledgerRepo.ListByPeriodForUpdate(ctx, tx, period)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, balance := range balances {
		if balance.Closed {
			continue
		}

		if err := balance.CloseAccount(now); err != nil {
			return 0, err
		}

		if err := uc.ledgerRepo.Save(ctx, tx, balance); err != nil {
			return 0, err
		}

		// The next period may already hold activity from posted entries;
		// only its opening balance changes on roll-forward.
		rolled, err := uc.ledgerRepo.GetBalanceForUpdate(ctx, tx, balance.AccountID, next)
		if err != nil {
			return 0, err
		}

		if rolled == nil {
			rolled, err = balance.NextPeriod(next, now)
			if err != nil {
				return 0, err
			}
		} else if err := rolled.CarryForwardOpening(balance.ClosingBalance, now); err != nil {
			return 0, err
		}

		if err := uc.ledgerRepo.Save(ctx, tx, rolled); err != nil {
			return 0, err
		}

		closed++
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       by,
		Action:       string(domain.AuditActionPeriodClose),
		ResourceType: "ledger",
		ResourceID:   period.Format("2006-01"),
		AfterState:   domain.JSON{"accounts_closed": closed},
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return closed, nil
}
