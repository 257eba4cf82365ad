package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
)

// JournalUseCase handles journal entry business logic.
type JournalUseCase struct {
	txManager    TransactionManager
	journalRepo  JournalRepository
	ledgerRepo   LedgerRepository
	sequenceRepo SequenceRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	clock        Clock
	retrier      Retrier
}

// NewJournalUseCase creates a new JournalUseCase.
func NewJournalUseCase(
	txManager TransactionManager,
	journalRepo JournalRepository,
	ledgerRepo LedgerRepository,
	sequenceRepo SequenceRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	clock Clock,
) *JournalUseCase {
	return &JournalUseCase{
		txManager:    txManager,
		journalRepo:  journalRepo,
		ledgerRepo:   ledgerRepo,
		sequenceRepo: sequenceRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		clock:        clock,
	}
}

// WithRetrier makes the ledger-feeding flows retry on transient database
// conflicts such as deadlocks between concurrent postings.
func (uc *JournalUseCase) WithRetrier(retrier Retrier) *JournalUseCase {
	uc.retrier = retrier
	return uc
}

func (uc *JournalUseCase) withRetry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

// JournalLineInput represents one debit or credit line.
type JournalLineInput struct {
	AccountID   string
	Description string
	Side        domain.Side
	Amount      decimal.Decimal
	Currency    domain.Currency
}

// CreateJournalInput represents input for creating a journal entry.
type CreateJournalInput struct {
	Description string
	EntryDate   time.Time
	Lines       []JournalLineInput
	CreatedBy   string
}

// CreateJournal creates a draft journal entry with its lines.
func (uc *JournalUseCase) CreateJournal(ctx context.Context, input CreateJournalInput) (*domain.JournalEntry, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	number, err := uc.nextNumber(ctx, tx, SequenceJournal, "JNL", now)
	if err != nil {
		return nil, err
	}

	entry, err := domain.NewJournalEntry(uc.idGen.Generate(), number, input.Description, input.EntryDate, input.CreatedBy, now)
	if err != nil {
		return nil, err
	}

	for _, li := range input.Lines {
		line, err := uc.buildLine(li)
		if err != nil {
			return nil, err
		}

		if err := entry.AddLine(line); err != nil {
			return nil, err
		}
	}

	if err := uc.journalRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, input.CreatedBy, domain.AuditActionJournalCreate, entry.ID, nil, entry, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// AddLine appends a line to a draft journal entry.
func (uc *JournalUseCase) AddLine(ctx context.Context, journalID string, input JournalLineInput) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, journalID, func(entry *domain.JournalEntry) error {
		line, err := uc.buildLine(input)
		if err != nil {
			return err
		}

		return entry.AddLine(line)
	})
}

// UpdateLine replaces an existing line on a draft journal entry.
func (uc *JournalUseCase) UpdateLine(ctx context.Context, journalID, lineID string, input JournalLineInput) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, journalID, func(entry *domain.JournalEntry) error {
		line, err := uc.buildLine(input)
		if err != nil {
			return err
		}

		line.ID = lineID

		return entry.UpdateLine(line)
	})
}

// RemoveLine deletes a line from a draft journal entry.
func (uc *JournalUseCase) RemoveLine(ctx context.Context, journalID, lineID string) (*domain.JournalEntry, error) {
	return uc.mutate(ctx, journalID, func(entry *domain.JournalEntry) error {
		return entry.RemoveLine(lineID)
	})
}

// Submit moves a draft journal entry to submitted.
func (uc *JournalUseCase) Submit(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	now := uc.clock.Now().UTC()

	return uc.mutateAudited(ctx, journalID, by, domain.AuditActionJournalSubmit, func(entry *domain.JournalEntry) error {
		return entry.Submit(by, now)
	})
}

// Approve moves a submitted journal entry to approved and immediately
// posts it: an approved entry has passed every check that posting
// requires, so approval and posting are one step at this level.
func (uc *JournalUseCase) Approve(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry

	err := uc.withRetry(ctx, func() error {
		var err error
		entry, err = uc.approve(ctx, journalID, by)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *JournalUseCase) approve(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}

	if err := entry.Approve(by, now); err != nil {
		return nil, err
	}

	if err := uc.postLocked(ctx, tx, entry, by, now); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, by, domain.AuditActionJournalApprove, entry.ID, nil, entry, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// Post posts an approved journal entry and feeds the general ledger.
// Posting an already-posted entry returns it unchanged without feeding
// the ledger a second time.
func (uc *JournalUseCase) Post(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry

	err := uc.withRetry(ctx, func() error {
		var err error
		entry, err = uc.post(ctx, journalID, by)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *JournalUseCase) post(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}

	if entry.Status == domain.JournalStatusPosted {
		return entry, nil
	}

	if err := uc.postLocked(ctx, tx, entry, by, now); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, by, domain.AuditActionJournalPost, entry.ID, nil, entry, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// Reverse creates the posted mirror of a posted journal entry and applies
// it to the ledger, all within one transaction.
func (uc *JournalUseCase) Reverse(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	var mirror *domain.JournalEntry

	err := uc.withRetry(ctx, func() error {
		var err error
		mirror, err = uc.reverse(ctx, journalID, by)
		return err
	})
	if err != nil {
		return nil, err
	}

	return mirror, nil
}

func (uc *JournalUseCase) reverse(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	original, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}

	number, err := uc.nextNumber(ctx, tx, SequenceJournal, "JNL", now)
	if err != nil {
		return nil, err
	}

	mirror, err := original.BuildReversal(uc.idGen.Generate(), number, uc.idGen.Generate, by, now)
	if err != nil {
		return nil, err
	}

	if err := uc.journalRepo.Create(ctx, tx, mirror); err != nil {
		return nil, err
	}

	if err := uc.journalRepo.Update(ctx, tx, original); err != nil {
		return nil, err
	}

	if err := uc.applyToLedger(ctx, tx, mirror, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   mirror.ID,
		AggregateType: domain.AggregateTypeJournal,
		EventType:     domain.EventTypeJournalReversed,
		Payload: eventPayload(domain.JournalReversedEvent{
			ReversalJournalID: mirror.ID,
			OriginalJournalID: original.ID,
			TotalDebit:        mirror.TotalDebit.Amount().String(),
			Currency:          string(mirror.Currency),
		}),
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, by, domain.AuditActionJournalReverse, original.ID, original, mirror, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return mirror, nil
}

// Cancel terminates a draft or submitted journal entry.
func (uc *JournalUseCase) Cancel(ctx context.Context, journalID, by string) (*domain.JournalEntry, error) {
	now := uc.clock.Now().UTC()

	return uc.mutateAudited(ctx, journalID, by, domain.AuditActionJournalCancel, func(entry *domain.JournalEntry) error {
		return entry.Cancel(by, now)
	})
}

// GetJournal retrieves a journal entry by ID.
func (uc *JournalUseCase) GetJournal(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByID(ctx, id)
}

// ListJournalsInput represents input for listing journal entries.
type ListJournalsInput struct {
	Limit  int
	Offset int
}

// ListJournals lists journal entries.
func (uc *JournalUseCase) ListJournals(ctx context.Context, input ListJournalsInput) ([]*domain.JournalEntry, error) {
	limit, offset := clampPagination(input.Limit, input.Offset)
	return uc.journalRepo.List(ctx, limit, offset)
}

// postLocked posts an already-locked approved entry, feeds the ledger and
// writes the outbox event. The caller owns the transaction.
func (uc *JournalUseCase) postLocked(ctx context.Context, tx Transaction, entry *domain.JournalEntry, by string, now time.Time) error {
	if err := entry.Post(by, now); err != nil {
		return err
	}

	if err := uc.journalRepo.Update(ctx, tx, entry); err != nil {
		return err
	}

	if err := uc.applyToLedger(ctx, tx, entry, now); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeJournal,
		EventType:     domain.EventTypeJournalPosted,
		Payload: eventPayload(domain.JournalPostedEvent{
			JournalID:   entry.ID,
			Number:      entry.Number,
			TotalDebit:  entry.TotalDebit.Amount().String(),
			TotalCredit: entry.TotalCredit.Amount().String(),
			Currency:    string(entry.Currency),
			PostedAt:    now.Format(time.RFC3339),
		}),
		CreatedAt: now,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

// applyToLedger feeds every line of a posted entry into its account's
// balance row for the posting period, creating rows on first use.
func (uc *JournalUseCase) applyToLedger(ctx context.Context, tx Transaction, entry *domain.JournalEntry, now time.Time) error {
	period := PeriodStart(now)

	for i := range entry.Lines {
		line := &entry.Lines[i]

		balance, err := uc.ledgerRepo.GetBalanceForUpdate(ctx, tx, line.AccountID, period)
		if err != nil {
			return err
		}

		if balance == nil {
			balance, err = domain.NewLedgerBalance(line.AccountID, period, domain.ZeroMoney(entry.Currency), now)
			if err != nil {
				return err
			}
		}

		if line.Amount.IsDebit() {
			err = balance.AddDebitTransaction(line.Amount.MoneyValue(), now)
		} else {
			err = balance.AddCreditTransaction(line.Amount.MoneyValue(), now)
		}
		if err != nil {
			return err
		}

		if err := uc.ledgerRepo.Save(ctx, tx, balance); err != nil {
			return err
		}
	}

	return nil
}

// mutate loads a journal entry for update, applies fn and persists it.
func (uc *JournalUseCase) mutate(ctx context.Context, journalID string, fn func(*domain.JournalEntry) error) (*domain.JournalEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}

	if err := fn(entry); err != nil {
		return nil, err
	}

	if err := uc.journalRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *JournalUseCase) mutateAudited(ctx context.Context, journalID, by string, action domain.AuditAction, fn func(*domain.JournalEntry) error) (*domain.JournalEntry, error) {
	now := uc.clock.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.journalRepo.GetByIDForUpdate(ctx, tx, journalID)
	if err != nil {
		return nil, err
	}

	if err := fn(entry); err != nil {
		return nil, err
	}

	if err := uc.journalRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, by, action, entry.ID, nil, entry, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *JournalUseCase) audit(ctx context.Context, tx Transaction, userID string, action domain.AuditAction, resourceID string, before, after any, now time.Time) error {
	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeJournal,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	})
}

func (uc *JournalUseCase) buildLine(input JournalLineInput) (domain.JournalLine, error) {
	amount, err := domain.NewSignedMoney(input.Amount, input.Currency, input.Side)
	if err != nil {
		return domain.JournalLine{}, err
	}

	return domain.JournalLine{
		ID:          uc.idGen.Generate(),
		AccountID:   input.AccountID,
		Description: input.Description,
		Amount:      amount,
	}, nil
}

func (uc *JournalUseCase) nextNumber(ctx context.Context, tx Transaction, sequence, prefix string, now time.Time) (string, error) {
	return nextNumber(ctx, tx, uc.sequenceRepo, sequence, prefix, now)
}
