package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kasbook/kasbook/internal/domain"
	"github.com/kasbook/kasbook/internal/usecase"
	"github.com/shopspring/decimal"
)

// MockJournalRepository is a mock implementation of JournalRepository.
type MockJournalRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.JournalEntry

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error)
}

func NewMockJournalRepository() *MockJournalRepository {
	return &MockJournalRepository{
		entries: make(map[string]*domain.JournalEntry),
	}
}

func (m *MockJournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockJournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, domain.ErrJournalNotFound
}

func (m *MockJournalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockJournalRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrJournalNotFound
	}
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockJournalRepository) List(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.JournalEntry
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	return entries, nil
}

// MockDocumentRepository is a mock implementation of DocumentRepository.
type MockDocumentRepository struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Document, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Document, error)
	UpdateFunc            func(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error
	ListFunc              func(ctx context.Context, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error)
	ListDueForOverdueFunc func(ctx context.Context, tx usecase.Transaction, asOf time.Time, limit int) ([]*domain.Document, error)
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentRepository) Create(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.documents[id]; ok {
		return d, nil
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MockDocumentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Document, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockDocumentRepository) Update(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[doc.ID]; !ok {
		return domain.ErrDocumentNotFound
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentRepository) List(ctx context.Context, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, kind, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var documents []*domain.Document
	for _, d := range m.documents {
		if d.Kind == kind {
			documents = append(documents, d)
		}
	}
	return documents, nil
}

func (m *MockDocumentRepository) ListDueForOverdue(ctx context.Context, tx usecase.Transaction, asOf time.Time, limit int) ([]*domain.Document, error) {
	if m.ListDueForOverdueFunc != nil {
		return m.ListDueForOverdueFunc(ctx, tx, asOf, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var documents []*domain.Document
	for _, d := range m.documents {
		if d.IsOverdue(asOf) && d.Status != domain.DocumentStatusOverdue {
			documents = append(documents, d)
		}
	}
	return documents, nil
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockPaymentRepository) Update(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var payments []*domain.Payment
	for _, p := range m.payments {
		payments = append(payments, p)
	}
	return payments, nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository. The
// default behavior keeps balance rows in memory keyed by account and
// period, so posting flows can be exercised end to end.
type MockLedgerRepository struct {
	mu       sync.RWMutex
	balances map[string]*domain.LedgerBalance

	GetBalanceFunc            func(ctx context.Context, accountID string, periodStart time.Time) (*domain.LedgerBalance, error)
	GetBalanceForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, accountID string, periodStart time.Time) (*domain.LedgerBalance, error)
	SaveFunc                  func(ctx context.Context, tx usecase.Transaction, balance *domain.LedgerBalance) error
	ListByPeriodFunc          func(ctx context.Context, periodStart time.Time, limit, offset int) ([]*domain.LedgerBalance, error)
	ListByPeriodForUpdateFunc func(ctx context.Context, tx usecase.Transaction, periodStart time.Time) ([]*domain.LedgerBalance, error)
	CheckConsistencyFunc      func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		balances: make(map[string]*domain.LedgerBalance),
	}
}

func balanceKey(accountID string, periodStart time.Time) string {
	return accountID + "|" + periodStart.Format("2006-01")
}

func (m *MockLedgerRepository) GetBalance(ctx context.Context, accountID string, periodStart time.Time) (*domain.LedgerBalance, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, accountID, periodStart)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[balanceKey(accountID, periodStart)]; ok {
		return b, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockLedgerRepository) GetBalanceForUpdate(ctx context.Context, tx usecase.Transaction, accountID string, periodStart time.Time) (*domain.LedgerBalance, error) {
	if m.GetBalanceForUpdateFunc != nil {
		return m.GetBalanceForUpdateFunc(ctx, tx, accountID, periodStart)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[balanceKey(accountID, periodStart)], nil
}

func (m *MockLedgerRepository) Save(ctx context.Context, tx usecase.Transaction, balance *domain.LedgerBalance) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, balance)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balanceKey(balance.AccountID, balance.PeriodStart)] = balance
	return nil
}

func (m *MockLedgerRepository) ListByPeriod(ctx context.Context, periodStart time.Time, limit, offset int) ([]*domain.LedgerBalance, error) {
	if m.ListByPeriodFunc != nil {
		return m.ListByPeriodFunc(ctx, periodStart, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var balances []*domain.LedgerBalance
	for _, b := range m.balances {
		if b.PeriodStart.Equal(periodStart) {
			balances = append(balances, b)
		}
	}
	return balances, nil
}

func (m *MockLedgerRepository) ListByPeriodForUpdate(ctx context.Context, tx usecase.Transaction, periodStart time.Time) ([]*domain.LedgerBalance, error) {
	if m.ListByPeriodForUpdateFunc != nil {
		return m.ListByPeriodForUpdateFunc(ctx, tx, periodStart)
	}
	return m.ListByPeriod(ctx, periodStart, 0, 0)
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	for _, b := range m.balances {
		totalDebits = totalDebits.Add(b.DebitBalance.Amount())
		totalCredits = totalCredits.Add(b.CreditBalance.Amount())
	}
	return totalDebits, totalCredits, nil
}

// MockSequenceRepository is a mock implementation of SequenceRepository.
type MockSequenceRepository struct {
	mu       sync.Mutex
	counters map[string]int64

	NextFunc func(ctx context.Context, tx usecase.Transaction, name string) (int64, error)
}

func NewMockSequenceRepository() *MockSequenceRepository {
	return &MockSequenceRepository{
		counters: make(map[string]int64),
	}
}

func (m *MockSequenceRepository) Next(ctx context.Context, tx usecase.Transaction, name string) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
	return m.counters[name], nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregateFunc  func(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything created so far.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]*domain.OutboxEvent, len(m.events))
	copy(events, m.events)
	return events
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	if m.GetByAggregateFunc != nil {
		return m.GetByAggregateFunc(ctx, aggregateType, aggregateID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog

	CreateFunc   func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
	ListFunc     func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

// Logs returns a copy of everything recorded so far.
func (m *MockAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	logs := make([]*domain.AuditLog, len(m.logs))
	copy(logs, m.logs)
	return logs
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return m.Logs(), nil
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var logs []*domain.AuditLog
	for _, l := range m.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier is a mock implementation of Retrier that runs the
// operation once and counts invocations.
type MockRetrier struct {
	mu    sync.Mutex
	Calls int

	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockClock is a mock implementation of Clock, fixed at a set time.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
