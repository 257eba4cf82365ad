package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
)

// DocumentRepository implements usecase.DocumentRepository.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

const documentColumns = `
	id, number, kind, counterparty_id, issue_date, due_date, status, currency,
	subtotal, tax_amount, total, paid_amount, outstanding_amount,
	created_by, created_at, submitted_at, approved_at, paid_at, cancelled_at, updated_at`

// Create inserts a document and its line items within a transaction.
func (r *DocumentRepository) Create(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		doc.ID,
		doc.Number,
		string(doc.Kind),
		doc.CounterpartyID,
		timeToPgTimestamptz(doc.IssueDate),
		timeToPgTimestamptz(doc.DueDate),
		string(doc.Status),
		string(doc.Currency),
		decimalToNumeric(doc.Subtotal.Amount()),
		decimalToNumeric(doc.TaxAmount.Amount()),
		decimalToNumeric(doc.Total.Amount()),
		decimalToNumeric(doc.PaidAmount.Amount()),
		decimalToNumeric(doc.OutstandingAmount.Amount()),
		doc.CreatedBy,
		timeToPgTimestamptz(doc.CreatedAt),
		timePtrToPgTimestamptz(doc.SubmittedAt),
		timePtrToPgTimestamptz(doc.ApprovedAt),
		timePtrToPgTimestamptz(doc.PaidAt),
		timePtrToPgTimestamptz(doc.CancelledAt),
		timeToPgTimestamptz(doc.UpdatedAt),
	)
	if err != nil {
		return err
	}

	return r.insertLines(ctx, q, doc)
}

// GetByID retrieves a document with its line items.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return r.getByID(ctx, r.pool, id, "")
}

// GetByIDForUpdate retrieves a document with a FOR UPDATE lock.
func (r *DocumentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Document, error) {
	return r.getByID(ctx, txQuerier(tx), id, " FOR UPDATE")
}

// Update rewrites a document. Line items are replaced wholesale because
// draft mutations add, change and remove them freely.
func (r *DocumentRepository) Update(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	q := txQuerier(tx)

	tag, err := q.Exec(ctx, `
		UPDATE documents SET
			counterparty_id = $2, issue_date = $3, due_date = $4, status = $5,
			currency = $6, subtotal = $7, tax_amount = $8, total = $9,
			paid_amount = $10, outstanding_amount = $11,
			submitted_at = $12, approved_at = $13, paid_at = $14, cancelled_at = $15,
			updated_at = $16
		WHERE id = $1`,
		doc.ID,
		doc.CounterpartyID,
		timeToPgTimestamptz(doc.IssueDate),
		timeToPgTimestamptz(doc.DueDate),
		string(doc.Status),
		string(doc.Currency),
		decimalToNumeric(doc.Subtotal.Amount()),
		decimalToNumeric(doc.TaxAmount.Amount()),
		decimalToNumeric(doc.Total.Amount()),
		decimalToNumeric(doc.PaidAmount.Amount()),
		decimalToNumeric(doc.OutstandingAmount.Amount()),
		timePtrToPgTimestamptz(doc.SubmittedAt),
		timePtrToPgTimestamptz(doc.ApprovedAt),
		timePtrToPgTimestamptz(doc.PaidAt),
		timePtrToPgTimestamptz(doc.CancelledAt),
		timeToPgTimestamptz(doc.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM line_items WHERE document_id = $1`, doc.ID); err != nil {
		return err
	}

	return r.insertLines(ctx, q, doc)
}

// List lists documents of one kind, newest first.
func (r *DocumentRepository) List(ctx context.Context, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(kind), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if err := r.loadLines(ctx, r.pool, doc); err != nil {
			return nil, err
		}
	}

	return docs, nil
}

// ListDueForOverdue returns approved or partially paid documents whose due
// date has passed, locked for the overdue sweep.
func (r *DocumentRepository) ListDueForOverdue(ctx context.Context, tx usecase.Transaction, asOf time.Time, limit int) ([]*domain.Document, error) {
	q := txQuerier(tx)

	rows, err := q.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE status IN ('approved', 'partially_paid') AND due_date < $1
		ORDER BY due_date
		LIMIT $2
		FOR UPDATE`,
		timeToPgTimestamptz(asOf), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if err := r.loadLines(ctx, q, doc); err != nil {
			return nil, err
		}
	}

	return docs, nil
}

func (r *DocumentRepository) getByID(ctx context.Context, q querier, id, lock string) (*domain.Document, error) {
	row := q.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = $1`+lock,
		id,
	)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}

	if err := r.loadLines(ctx, q, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *DocumentRepository) insertLines(ctx context.Context, q querier, doc *domain.Document) error {
	for i := range doc.Lines {
		line := &doc.Lines[i]

		var taxPercentage *pgtype.Numeric
		if line.TaxRate != nil {
			n := decimalToNumeric(line.TaxRate.Percentage())
			taxPercentage = &n
		}

		_, err := q.Exec(ctx, `
			INSERT INTO line_items (
				id, document_id, description, quantity, unit_price, currency,
				discount_percent, discount_amount, tax_percentage,
				line_total, tax_amount, total_with_tax, position
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			line.ID,
			doc.ID,
			line.Description,
			decimalToNumeric(line.Quantity),
			decimalToNumeric(line.UnitPrice.Amount()),
			string(line.Currency()),
			decimalToNumeric(line.DiscountPercent),
			decimalToNumeric(line.DiscountAmount.Amount()),
			taxPercentage,
			decimalToNumeric(line.LineTotal.Amount()),
			decimalToNumeric(line.TaxAmount.Amount()),
			decimalToNumeric(line.TotalWithTax.Amount()),
			i,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *DocumentRepository) loadLines(ctx context.Context, q querier, doc *domain.Document) error {
	rows, err := q.Query(ctx, `
		SELECT id, description, quantity, unit_price, currency,
		       discount_percent, discount_amount, tax_percentage,
		       line_total, tax_amount, total_with_tax
		FROM line_items
		WHERE document_id = $1
		ORDER BY position`,
		doc.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line                              domain.LineItem
			quantity, unitPrice               pgtype.Numeric
			currency                          string
			discountPercent, discountAmount   pgtype.Numeric
			taxPercentage                     pgtype.Numeric
			lineTotal, taxAmount, totalWithTax pgtype.Numeric
		)

		err := rows.Scan(
			&line.ID,
			&line.Description,
			&quantity,
			&unitPrice,
			&currency,
			&discountPercent,
			&discountAmount,
			&taxPercentage,
			&lineTotal,
			&taxAmount,
			&totalWithTax,
		)
		if err != nil {
			return err
		}

		line.DocumentID = doc.ID
		line.Quantity = numericToDecimal(quantity)
		line.UnitPrice = moneyFromNumeric(unitPrice, currency)
		line.DiscountPercent = numericToDecimal(discountPercent)
		line.DiscountAmount = moneyFromNumeric(discountAmount, currency)
		line.LineTotal = moneyFromNumeric(lineTotal, currency)
		line.TaxAmount = moneyFromNumeric(taxAmount, currency)
		line.TotalWithTax = moneyFromNumeric(totalWithTax, currency)

		if taxPercentage.Valid {
			rate, err := domain.NewTaxRate(numericToDecimal(taxPercentage))
			if err != nil {
				return err
			}
			line.TaxRate = &rate
		}

		doc.Lines = append(doc.Lines, line)
	}

	return rows.Err()
}

func collectDocuments(rows pgx.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var (
		doc                              domain.Document
		kind, status, currency           string
		subtotal, taxAmount, total       pgtype.Numeric
		paidAmount, outstandingAmount    pgtype.Numeric
		issueDate, dueDate, createdAt    pgtype.Timestamptz
		submittedAt, approvedAt          pgtype.Timestamptz
		paidAt, cancelledAt, updatedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&doc.ID,
		&doc.Number,
		&kind,
		&doc.CounterpartyID,
		&issueDate,
		&dueDate,
		&status,
		&currency,
		&subtotal,
		&taxAmount,
		&total,
		&paidAmount,
		&outstandingAmount,
		&doc.CreatedBy,
		&createdAt,
		&submittedAt,
		&approvedAt,
		&paidAt,
		&cancelledAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Kind = domain.DocumentKind(kind)
	doc.Status = domain.DocumentStatus(status)
	doc.Currency = domain.Currency(currency)
	doc.Subtotal = moneyFromNumeric(subtotal, currency)
	doc.TaxAmount = moneyFromNumeric(taxAmount, currency)
	doc.Total = moneyFromNumeric(total, currency)
	doc.PaidAmount = moneyFromNumeric(paidAmount, currency)
	doc.OutstandingAmount = moneyFromNumeric(outstandingAmount, currency)
	doc.IssueDate = issueDate.Time
	doc.DueDate = dueDate.Time
	doc.CreatedAt = createdAt.Time
	doc.SubmittedAt = pgTimestamptzToTimePtr(submittedAt)
	doc.ApprovedAt = pgTimestamptzToTimePtr(approvedAt)
	doc.PaidAt = pgTimestamptzToTimePtr(paidAt)
	doc.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)
	doc.UpdatedAt = updatedAt.Time

	return &doc, nil
}
