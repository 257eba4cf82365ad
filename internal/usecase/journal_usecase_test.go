package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/kasbook/kasbook/internal/usecase/mocks"
)

var fixedTime = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type journalFixture struct {
	uc      *usecase.JournalUseCase
	journal *mocks.MockJournalRepository
	ledger  *mocks.MockLedgerRepository
	outbox  *mocks.MockOutboxRepository
	audit   *mocks.MockAuditRepository
	clock   *mocks.MockClock
}

func newJournalFixture() *journalFixture {
	f := &journalFixture{
		journal: mocks.NewMockJournalRepository(),
		ledger:  mocks.NewMockLedgerRepository(),
		outbox:  mocks.NewMockOutboxRepository(),
		audit:   mocks.NewMockAuditRepository(),
		clock:   mocks.NewMockClock(fixedTime),
	}

	f.uc = usecase.NewJournalUseCase(
		mocks.NewMockTransactionManager(),
		f.journal,
		f.ledger,
		mocks.NewMockSequenceRepository(),
		f.outbox,
		f.audit,
		mocks.NewMockIDGenerator(),
		f.clock,
	)

	return f
}

func balancedJournalInput(amount int64) usecase.CreateJournalInput {
	return usecase.CreateJournalInput{
		Description: "stock purchase",
		EntryDate:   fixedTime,
		CreatedBy:   "thabo",
		Lines: []usecase.JournalLineInput{
			{AccountID: "acct-stock", Description: "stock in", Side: domain.SideDebit, Amount: decimal.NewFromInt(amount), Currency: domain.CurrencyZAR},
			{AccountID: "acct-bank", Description: "paid from bank", Side: domain.SideCredit, Amount: decimal.NewFromInt(amount), Currency: domain.CurrencyZAR},
		},
	}
}

func postJournal(t *testing.T, f *journalFixture, id string) *domain.JournalEntry {
	t.Helper()

	ctx := context.Background()

	if _, err := f.uc.Submit(ctx, id, "thabo"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	entry, err := f.uc.Approve(ctx, id, "lerato")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	return entry
}

func TestJournalUseCase_CreateJournal(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	entry, err := f.uc.CreateJournal(ctx, balancedJournalInput(100))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	if entry.Number != "JNL-2026-00001" {
		t.Errorf("expected JNL-2026-00001, got %s", entry.Number)
	}

	if entry.Status != domain.JournalStatusDraft {
		t.Errorf("expected draft, got %s", entry.Status)
	}

	if !entry.IsBalanced() {
		t.Error("expected balanced entry")
	}

	second, err := f.uc.CreateJournal(ctx, balancedJournalInput(50))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	if second.Number != "JNL-2026-00002" {
		t.Errorf("expected sequence to advance, got %s", second.Number)
	}

	logs := f.audit.Logs()
	if len(logs) != 2 || logs[0].Action != string(domain.AuditActionJournalCreate) {
		t.Errorf("expected two create audit logs, got %d", len(logs))
	}
}

func TestJournalUseCase_ApprovePostsAndFeedsLedger(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	entry, err := f.uc.CreateJournal(ctx, balancedJournalInput(100))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	posted := postJournal(t, f, entry.ID)

	if posted.Status != domain.JournalStatusPosted {
		t.Fatalf("expected posted after approval, got %s", posted.Status)
	}

	period := usecase.PeriodStart(fixedTime)

	stock, err := f.ledger.GetBalance(ctx, "acct-stock", period)
	if err != nil {
		t.Fatalf("GetBalance(acct-stock): %v", err)
	}

	if !stock.DebitBalance.Amount().Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected stock debit balance 100, got %s", stock.DebitBalance.Amount())
	}

	bank, err := f.ledger.GetBalance(ctx, "acct-bank", period)
	if err != nil {
		t.Fatalf("GetBalance(acct-bank): %v", err)
	}

	if !bank.CreditBalance.Amount().Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected bank credit balance 100, got %s", bank.CreditBalance.Amount())
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeJournalPosted {
		t.Fatalf("expected one journal.posted event, got %d", len(events))
	}
}

func TestJournalUseCase_PostIdempotent(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	entry, err := f.uc.CreateJournal(ctx, balancedJournalInput(100))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	postJournal(t, f, entry.ID)

	again, err := f.uc.Post(ctx, entry.ID, "lerato")
	if err != nil {
		t.Fatalf("Post on posted entry: %v", err)
	}

	if again.Status != domain.JournalStatusPosted {
		t.Errorf("expected posted, got %s", again.Status)
	}

	period := usecase.PeriodStart(fixedTime)

	stock, err := f.ledger.GetBalance(ctx, "acct-stock", period)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if !stock.DebitBalance.Amount().Equal(decimal.NewFromInt(100)) {
		t.Errorf("repeated post must not feed the ledger twice, debit balance %s", stock.DebitBalance.Amount())
	}

	if events := f.outbox.Events(); len(events) != 1 {
		t.Errorf("expected one posted event, got %d", len(events))
	}
}

func TestJournalUseCase_Reverse(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	entry, err := f.uc.CreateJournal(ctx, balancedJournalInput(100))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	postJournal(t, f, entry.ID)

	mirror, err := f.uc.Reverse(ctx, entry.ID, "lerato")
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}

	if mirror.Status != domain.JournalStatusPosted {
		t.Errorf("expected posted mirror, got %s", mirror.Status)
	}

	if mirror.ReversalOfID == nil || *mirror.ReversalOfID != entry.ID {
		t.Error("expected mirror to reference the original")
	}

	original, err := f.uc.GetJournal(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetJournal: %v", err)
	}

	if !original.IsReversed {
		t.Error("expected original to be marked reversed")
	}

	// The mirror cancels the original's ledger effect exactly.
	period := usecase.PeriodStart(fixedTime)

	stock, err := f.ledger.GetBalance(ctx, "acct-stock", period)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if !stock.NetBalance.IsZero() {
		t.Errorf("expected stock net balance 0 after reversal, got %s", stock.NetBalance.Amount())
	}

	if _, err := f.uc.Reverse(ctx, entry.ID, "lerato"); !errors.Is(err, domain.ErrAlreadyReversed) {
		t.Fatalf("expected already reversed, got %v", err)
	}
}

func TestJournalUseCase_SubmitUnbalancedFails(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	input := balancedJournalInput(100)
	input.Lines[1].Amount = decimal.RequireFromString("99.99")

	entry, err := f.uc.CreateJournal(ctx, input)
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	if _, err := f.uc.Submit(ctx, entry.ID, "thabo"); !errors.Is(err, domain.ErrNotBalanced) {
		t.Fatalf("expected not balanced, got %v", err)
	}
}

func TestJournalUseCase_CancelPostedFails(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	entry, err := f.uc.CreateJournal(ctx, balancedJournalInput(100))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	postJournal(t, f, entry.ID)

	if _, err := f.uc.Cancel(ctx, entry.ID, "thabo"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestJournalUseCase_LineMutations(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	entry, err := f.uc.CreateJournal(ctx, balancedJournalInput(100))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	updated, err := f.uc.AddLine(ctx, entry.ID, usecase.JournalLineInput{
		AccountID: "acct-vat",
		Side:      domain.SideDebit,
		Amount:    decimal.NewFromInt(15),
		Currency:  domain.CurrencyZAR,
	})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if len(updated.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(updated.Lines))
	}

	if updated.IsBalanced() {
		t.Error("expected unbalanced entry after extra debit")
	}

	updated, err = f.uc.RemoveLine(ctx, entry.ID, updated.Lines[2].ID)
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}

	if !updated.IsBalanced() {
		t.Error("expected balanced entry after removal")
	}

	if _, err := f.uc.RemoveLine(ctx, entry.ID, "no-such-line"); !errors.Is(err, domain.ErrLineNotFound) {
		t.Fatalf("expected line not found, got %v", err)
	}
}

func TestJournalUseCase_LedgerFlowsRunThroughRetrier(t *testing.T) {
	f := newJournalFixture()
	ctx := context.Background()

	retrier := mocks.NewMockRetrier()
	f.uc.WithRetrier(retrier)

	entry, err := f.uc.CreateJournal(ctx, balancedJournalInput(100))
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}

	posted := postJournal(t, f, entry.ID)

	if retrier.Calls != 1 {
		t.Errorf("expected approve to run through the retrier once, got %d calls", retrier.Calls)
	}

	if _, err := f.uc.Reverse(ctx, posted.ID, "lerato"); err != nil {
		t.Fatalf("Reverse: %v", err)
	}

	if retrier.Calls != 2 {
		t.Errorf("expected reverse to run through the retrier, got %d calls", retrier.Calls)
	}
}
