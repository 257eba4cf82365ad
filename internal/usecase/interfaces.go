package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
)

// JournalRepository defines data access for journal entries.
type JournalRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error)
}

// DocumentRepository defines data access for invoices and bills.
type DocumentRepository interface {
	Create(ctx context.Context, tx Transaction, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Document, error)
	Update(ctx context.Context, tx Transaction, doc *domain.Document) error
	List(ctx context.Context, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error)
	// ListDueForOverdue returns approved or partially paid documents whose
	// due date has passed as of the given time.
	ListDueForOverdue(ctx context.Context, tx Transaction, asOf time.Time, limit int) ([]*domain.Document, error)
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Payment, error)
	Update(ctx context.Context, tx Transaction, payment *domain.Payment) error
	List(ctx context.Context, limit, offset int) ([]*domain.Payment, error)
}

// LedgerRepository defines data access for period balances and
// ledger-wide checks.
type LedgerRepository interface {
	GetBalance(ctx context.Context, accountID string, periodStart time.Time) (*domain.LedgerBalance, error)
	// GetBalanceForUpdate locks and returns the balance row, or (nil, nil)
	// when no row exists yet for the account and period.
	GetBalanceForUpdate(ctx context.Context, tx Transaction, accountID string, periodStart time.Time) (*domain.LedgerBalance, error)
	Save(ctx context.Context, tx Transaction, balance *domain.LedgerBalance) error
	ListByPeriod(ctx context.Context, periodStart time.Time, limit, offset int) ([]*domain.LedgerBalance, error)
	ListByPeriodForUpdate(ctx context.Context, tx Transaction, periodStart time.Time) ([]*domain.LedgerBalance, error)
	CheckConsistency(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
}

// SequenceRepository hands out monotonically increasing document numbers.
type SequenceRepository interface {
	Next(ctx context.Context, tx Transaction, name string) (int64, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation when it fails with a transient error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time so lifecycle stamps are testable.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
