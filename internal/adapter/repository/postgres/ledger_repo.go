package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const ledgerColumns = `
	account_id, period_start, currency,
	opening_balance, debit_balance, credit_balance, net_balance, closing_balance,
	closed, created_at, updated_at`

// GetBalance retrieves one account balance for a period.
func (r *LedgerRepository) GetBalance(ctx context.Context, accountID string, periodStart time.Time) (*domain.LedgerBalance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_balances
		WHERE account_id = $1 AND period_start = $2`,
		accountID, timeToPgTimestamptz(periodStart),
	)

	balance, err := scanLedgerBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return balance, nil
}

// GetBalanceForUpdate locks and returns the balance row. A missing row is
// (nil, nil): the caller opens the period on first posting.
func (r *LedgerRepository) GetBalanceForUpdate(ctx context.Context, tx usecase.Transaction, accountID string, periodStart time.Time) (*domain.LedgerBalance, error) {
	row := txQuerier(tx).QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_balances
		WHERE account_id = $1 AND period_start = $2
		FOR UPDATE`,
		accountID, timeToPgTimestamptz(periodStart),
	)

	balance, err := scanLedgerBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return balance, nil
}

// Save upserts a balance row keyed by account and period.
func (r *LedgerRepository) Save(ctx context.Context, tx usecase.Transaction, balance *domain.LedgerBalance) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO ledger_balances (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (account_id, period_start) DO UPDATE SET
			currency = EXCLUDED.currency,
			opening_balance = EXCLUDED.opening_balance,
			debit_balance = EXCLUDED.debit_balance,
			credit_balance = EXCLUDED.credit_balance,
			net_balance = EXCLUDED.net_balance,
			closing_balance = EXCLUDED.closing_balance,
			closed = EXCLUDED.closed,
			updated_at = EXCLUDED.updated_at`,
		balance.AccountID,
		timeToPgTimestamptz(balance.PeriodStart),
		string(balance.Currency),
		decimalToNumeric(balance.OpeningBalance.Amount()),
		decimalToNumeric(balance.DebitBalance.Amount()),
		decimalToNumeric(balance.CreditBalance.Amount()),
		decimalToNumeric(balance.NetBalance.Amount()),
		decimalToNumeric(balance.ClosingBalance.Amount()),
		balance.Closed,
		timeToPgTimestamptz(balance.CreatedAt),
		timeToPgTimestamptz(balance.UpdatedAt),
	)

	return err
}

// ListByPeriod lists balances for a period ordered by account.
func (r *LedgerRepository) ListByPeriod(ctx context.Context, periodStart time.Time, limit, offset int) ([]*domain.LedgerBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_balances
		WHERE period_start = $1
		ORDER BY account_id
		LIMIT $2 OFFSET $3`,
		timeToPgTimestamptz(periodStart), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLedgerBalances(rows)
}

// ListByPeriodForUpdate locks and returns all balance rows for a period.
func (r *LedgerRepository) ListByPeriodForUpdate(ctx context.Context, tx usecase.Transaction, periodStart time.Time) ([]*domain.LedgerBalance, error) {
	rows, err := txQuerier(tx).Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_balances
		WHERE period_start = $1
		ORDER BY account_id
		FOR UPDATE`,
		timeToPgTimestamptz(periodStart),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLedgerBalances(rows)
}

// CheckConsistency sums debits and credits across the entire ledger.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var totalDebits, totalCredits pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit_balance), 0), COALESCE(SUM(credit_balance), 0)
		FROM ledger_balances`,
	).Scan(&totalDebits, &totalCredits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(totalDebits), numericToDecimal(totalCredits), nil
}

func collectLedgerBalances(rows pgx.Rows) ([]*domain.LedgerBalance, error) {
	var balances []*domain.LedgerBalance
	for rows.Next() {
		balance, err := scanLedgerBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, balance)
	}
	return balances, rows.Err()
}

func scanLedgerBalance(row pgx.Row) (*domain.LedgerBalance, error) {
	var (
		balance                           domain.LedgerBalance
		currency                          string
		opening, debit, credit            pgtype.Numeric
		net, closing                      pgtype.Numeric
		periodStart, createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&balance.AccountID,
		&periodStart,
		&currency,
		&opening,
		&debit,
		&credit,
		&net,
		&closing,
		&balance.Closed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	balance.Currency = domain.Currency(currency)
	balance.OpeningBalance = moneyFromNumeric(opening, currency)
	balance.DebitBalance = moneyFromNumeric(debit, currency)
	balance.CreditBalance = moneyFromNumeric(credit, currency)
	balance.NetBalance = moneyFromNumeric(net, currency)
	balance.ClosingBalance = moneyFromNumeric(closing, currency)
	balance.PeriodStart = periodStart.Time
	balance.CreatedAt = createdAt.Time
	balance.UpdatedAt = updatedAt.Time

	return &balance, nil
}
