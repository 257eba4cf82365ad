package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `
	id, number, kind, method, status, amount, currency,
	refund_of_id, refund_reason,
	created_by, created_at, processed_at, cancelled_at, updated_at`

// Create inserts a payment and its allocations within a transaction.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		payment.ID,
		payment.Number,
		string(payment.Kind),
		string(payment.Method),
		string(payment.Status),
		decimalToNumeric(payment.Amount.Amount()),
		string(payment.Amount.Currency()),
		payment.RefundOfID,
		payment.RefundReason,
		payment.CreatedBy,
		timeToPgTimestamptz(payment.CreatedAt),
		timePtrToPgTimestamptz(payment.ProcessedAt),
		timePtrToPgTimestamptz(payment.CancelledAt),
		timeToPgTimestamptz(payment.UpdatedAt),
	)
	if err != nil {
		return err
	}

	return r.insertAllocations(ctx, q, payment)
}

// GetByID retrieves a payment with its allocations.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.getByID(ctx, r.pool, id, "")
}

// GetByIDForUpdate retrieves a payment with a FOR UPDATE lock.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	return r.getByID(ctx, txQuerier(tx), id, " FOR UPDATE")
}

// Update rewrites a payment. Allocations are replaced wholesale because
// pending mutations add and remove them freely.
func (r *PaymentRepository) Update(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	q := txQuerier(tx)

	tag, err := q.Exec(ctx, `
		UPDATE payments SET
			status = $2, refund_of_id = $3, refund_reason = $4,
			processed_at = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1`,
		payment.ID,
		string(payment.Status),
		payment.RefundOfID,
		payment.RefundReason,
		timePtrToPgTimestamptz(payment.ProcessedAt),
		timePtrToPgTimestamptz(payment.CancelledAt),
		timeToPgTimestamptz(payment.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM payment_allocations WHERE payment_id = $1`, payment.ID); err != nil {
		return err
	}

	return r.insertAllocations(ctx, q, payment)
}

// List lists payments, newest first.
func (r *PaymentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, payment := range payments {
		if err := r.loadAllocations(ctx, r.pool, payment); err != nil {
			return nil, err
		}
	}

	return payments, nil
}

func (r *PaymentRepository) getByID(ctx context.Context, q querier, id, lock string) (*domain.Payment, error) {
	row := q.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1`+lock,
		id,
	)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	if err := r.loadAllocations(ctx, q, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) insertAllocations(ctx context.Context, q querier, payment *domain.Payment) error {
	for i := range payment.Allocations {
		allocation := &payment.Allocations[i]

		_, err := q.Exec(ctx, `
			INSERT INTO payment_allocations (id, payment_id, target, target_id, amount, currency, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			allocation.ID,
			payment.ID,
			string(allocation.Target),
			allocation.TargetID,
			decimalToNumeric(allocation.Amount.Amount()),
			string(allocation.Amount.Currency()),
			i,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *PaymentRepository) loadAllocations(ctx context.Context, q querier, payment *domain.Payment) error {
	rows, err := q.Query(ctx, `
		SELECT id, target, target_id, amount, currency
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY position`,
		payment.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			allocation domain.PaymentAllocation
			target     string
			amount     pgtype.Numeric
			currency   string
		)

		if err := rows.Scan(&allocation.ID, &target, &allocation.TargetID, &amount, &currency); err != nil {
			return err
		}

		allocation.PaymentID = payment.ID
		allocation.Target = domain.AllocationTarget(target)
		allocation.Amount = moneyFromNumeric(amount, currency)

		payment.Allocations = append(payment.Allocations, allocation)
	}

	return rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		payment                        domain.Payment
		kind, method, status, currency string
		amount                         pgtype.Numeric
		createdAt, updatedAt           pgtype.Timestamptz
		processedAt, cancelledAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&payment.ID,
		&payment.Number,
		&kind,
		&method,
		&status,
		&amount,
		&currency,
		&payment.RefundOfID,
		&payment.RefundReason,
		&payment.CreatedBy,
		&createdAt,
		&processedAt,
		&cancelledAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.Kind = domain.PaymentKind(kind)
	payment.Method = domain.PaymentMethod(method)
	payment.Status = domain.PaymentStatus(status)
	payment.Amount = moneyFromNumeric(amount, currency)
	payment.CreatedAt = createdAt.Time
	payment.ProcessedAt = pgTimestamptzToTimePtr(processedAt)
	payment.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)
	payment.UpdatedAt = updatedAt.Time

	return &payment, nil
}
