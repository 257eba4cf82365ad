package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kasbook/kasbook/internal/domain"
)

// nextNumber draws the next value from a named sequence and formats it as
// a document number, e.g. JNL-2026-00042.
func nextNumber(ctx context.Context, tx Transaction, sequences SequenceRepository, sequence, prefix string, now time.Time) (string, error) {
	n, err := sequences.Next(ctx, tx, sequence)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%05d", prefix, now.Year(), n), nil
}

func clampPagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

func eventPayload(v any) map[string]any {
	return map[string]any(domain.MarshalState(v))
}
