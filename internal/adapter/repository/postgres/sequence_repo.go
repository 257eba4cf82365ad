package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasbook/kasbook/internal/usecase"
)

// SequenceRepository implements usecase.SequenceRepository on a single
// counters table. The upsert takes a row lock, so concurrent callers
// serialize per sequence and numbers never repeat.
type SequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(pool *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{pool: pool}
}

// Next increments and returns the named counter within the transaction.
func (r *SequenceRepository) Next(ctx context.Context, tx usecase.Transaction, name string) (int64, error) {
	var value int64

	err := txQuerier(tx).QueryRow(ctx, `
		INSERT INTO sequences (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value`,
		name,
	).Scan(&value)
	if err != nil {
		return 0, err
	}

	return value, nil
}
