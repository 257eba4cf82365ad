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

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

const journalColumns = `
	id, number, description, entry_date, posting_date, status, currency,
	total_debit, total_credit, is_reversed, reversal_id, reversal_of_id,
	created_by, created_at, submitted_by, submitted_at, approved_by, approved_at,
	posted_by, posted_at, cancelled_by, cancelled_at, updated_at`

// Create inserts a journal entry and its lines within a transaction.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO journal_entries (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		entry.ID,
		entry.Number,
		entry.Description,
		timeToPgTimestamptz(entry.EntryDate),
		timePtrToPgTimestamptz(entry.PostingDate),
		entry.Status,
		string(entry.Currency),
		decimalToNumeric(entry.TotalDebit.Amount()),
		decimalToNumeric(entry.TotalCredit.Amount()),
		entry.IsReversed,
		entry.ReversalID,
		entry.ReversalOfID,
		entry.CreatedBy,
		timeToPgTimestamptz(entry.CreatedAt),
		entry.SubmittedBy,
		timePtrToPgTimestamptz(entry.SubmittedAt),
		entry.ApprovedBy,
		timePtrToPgTimestamptz(entry.ApprovedAt),
		entry.PostedBy,
		timePtrToPgTimestamptz(entry.PostedAt),
		entry.CancelledBy,
		timePtrToPgTimestamptz(entry.CancelledAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}

	return r.insertLines(ctx, q, entry)
}

// GetByID retrieves a journal entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return r.getByID(ctx, r.pool, id, "")
}

// GetByIDForUpdate retrieves a journal entry with a FOR UPDATE lock.
func (r *JournalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return r.getByID(ctx, txQuerier(tx), id, " FOR UPDATE")
}

// Update rewrites a journal entry. Lines are replaced wholesale because
// draft mutations add, change and remove them freely.
func (r *JournalRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	q := txQuerier(tx)

	tag, err := q.Exec(ctx, `
		UPDATE journal_entries SET
			description = $2, entry_date = $3, posting_date = $4, status = $5,
			currency = $6, total_debit = $7, total_credit = $8,
			is_reversed = $9, reversal_id = $10, reversal_of_id = $11,
			submitted_by = $12, submitted_at = $13, approved_by = $14, approved_at = $15,
			posted_by = $16, posted_at = $17, cancelled_by = $18, cancelled_at = $19,
			updated_at = $20
		WHERE id = $1`,
		entry.ID,
		entry.Description,
		timeToPgTimestamptz(entry.EntryDate),
		timePtrToPgTimestamptz(entry.PostingDate),
		entry.Status,
		string(entry.Currency),
		decimalToNumeric(entry.TotalDebit.Amount()),
		decimalToNumeric(entry.TotalCredit.Amount()),
		entry.IsReversed,
		entry.ReversalID,
		entry.ReversalOfID,
		entry.SubmittedBy,
		timePtrToPgTimestamptz(entry.SubmittedAt),
		entry.ApprovedBy,
		timePtrToPgTimestamptz(entry.ApprovedAt),
		entry.PostedBy,
		timePtrToPgTimestamptz(entry.PostedAt),
		entry.CancelledBy,
		timePtrToPgTimestamptz(entry.CancelledAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrJournalNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id = $1`, entry.ID); err != nil {
		return err
	}

	return r.insertLines(ctx, q, entry)
}

// List lists journal entries ordered by creation time, newest first.
func (r *JournalRepository) List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		entry, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if err := r.loadLines(ctx, r.pool, entry); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (r *JournalRepository) getByID(ctx context.Context, q querier, id, lock string) (*domain.JournalEntry, error) {
	row := q.QueryRow(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries
		WHERE id = $1`+lock,
		id,
	)

	entry, err := scanJournal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJournalNotFound
		}
		return nil, err
	}

	if err := r.loadLines(ctx, q, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *JournalRepository) insertLines(ctx context.Context, q querier, entry *domain.JournalEntry) error {
	for i := range entry.Lines {
		line := &entry.Lines[i]

		_, err := q.Exec(ctx, `
			INSERT INTO journal_lines (id, journal_id, account_id, description, side, amount, currency, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			line.ID,
			entry.ID,
			line.AccountID,
			line.Description,
			string(line.Amount.Side()),
			decimalToNumeric(line.Amount.Amount()),
			string(line.Amount.Currency()),
			i,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *JournalRepository) loadLines(ctx context.Context, q querier, entry *domain.JournalEntry) error {
	rows, err := q.Query(ctx, `
		SELECT id, account_id, description, side, amount, currency
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY position`,
		entry.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line     domain.JournalLine
			side     string
			amount   pgtype.Numeric
			currency string
		)

		if err := rows.Scan(&line.ID, &line.AccountID, &line.Description, &side, &amount, &currency); err != nil {
			return err
		}

		line.JournalID = entry.ID
		line.Amount, err = domain.NewSignedMoney(numericToDecimal(amount), domain.Currency(currency), domain.Side(side))
		if err != nil {
			return err
		}

		entry.Lines = append(entry.Lines, line)
	}

	return rows.Err()
}

func scanJournal(row pgx.Row) (*domain.JournalEntry, error) {
	var (
		entry                   domain.JournalEntry
		status, currency        string
		totalDebit, totalCredit pgtype.Numeric
		entryDate, createdAt    pgtype.Timestamptz
		updatedAt               pgtype.Timestamptz
		postingDate             pgtype.Timestamptz
		submittedAt, approvedAt pgtype.Timestamptz
		postedAt, cancelledAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.Number,
		&entry.Description,
		&entryDate,
		&postingDate,
		&status,
		&currency,
		&totalDebit,
		&totalCredit,
		&entry.IsReversed,
		&entry.ReversalID,
		&entry.ReversalOfID,
		&entry.CreatedBy,
		&createdAt,
		&entry.SubmittedBy,
		&submittedAt,
		&entry.ApprovedBy,
		&approvedAt,
		&entry.PostedBy,
		&postedAt,
		&entry.CancelledBy,
		&cancelledAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Status = domain.JournalStatus(status)
	entry.Currency = domain.Currency(currency)
	entry.TotalDebit = moneyFromNumeric(totalDebit, currency)
	entry.TotalCredit = moneyFromNumeric(totalCredit, currency)
	entry.EntryDate = entryDate.Time
	entry.PostingDate = pgTimestamptzToTimePtr(postingDate)
	entry.CreatedAt = createdAt.Time
	entry.SubmittedAt = pgTimestamptzToTimePtr(submittedAt)
	entry.ApprovedAt = pgTimestamptzToTimePtr(approvedAt)
	entry.PostedAt = pgTimestamptzToTimePtr(postedAt)
	entry.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)
	entry.UpdatedAt = updatedAt.Time

	return &entry, nil
}
