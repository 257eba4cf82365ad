package domain

import (
	"fmt"
	"time"
)

// JournalStatus is the lifecycle state of a journal entry.
type JournalStatus string

const (
	JournalStatusDraft     JournalStatus = "draft"
	JournalStatusSubmitted JournalStatus = "submitted"
	JournalStatusApproved  JournalStatus = "approved"
	JournalStatusPosted    JournalStatus = "posted"
	JournalStatusCancelled JournalStatus = "cancelled"
)

// JournalLine is a single debit or credit against a ledger account,
// owned by exactly one journal entry.
type JournalLine struct {
	ID          string
	JournalID   string
	AccountID   string
	Description string
	Amount      SignedMoney
}

// Validate checks the line references an account and carries a valid
// signed amount.
func (l *JournalLine) Validate() error {
	if err := ValidateReference(l.AccountID); err != nil {
		return err
	}

	if !l.Amount.Side().IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSide, l.Amount.Side())
	}

	if !l.Amount.Amount().IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// JournalEntry is the double-entry aggregate root. Lines are mutable only
// while the entry is a draft; totals are always re-derived from the full
// line set. Posting is irreversible except via an explicit reversal, which
// produces a mirror entry that is created already posted.
type JournalEntry struct {
	ID          string
	Number      string
	Description string
	EntryDate   time.Time
	PostingDate *time.Time
	Status      JournalStatus

	Lines       []JournalLine
	Currency    Currency
	TotalDebit  Money
	TotalCredit Money

	IsReversed   bool
	ReversalID   *string
	ReversalOfID *string

	CreatedBy   string
	CreatedAt   time.Time
	SubmittedBy string
	SubmittedAt *time.Time
	ApprovedBy  string
	ApprovedAt  *time.Time
	PostedBy    string
	PostedAt    *time.Time
	CancelledBy string
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

// NewJournalEntry creates a draft journal entry with no lines.
func NewJournalEntry(id, number, description string, entryDate time.Time, createdBy string, now time.Time) (*JournalEntry, error) {
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}

	return &JournalEntry{
		ID:          id,
		Number:      number,
		Description: description,
		EntryDate:   entryDate,
		Status:      JournalStatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddLine appends a line to a draft entry and recomputes totals.
func (j *JournalEntry) AddLine(line JournalLine) error {
	if err := j.ensureDraft("modified"); err != nil {
		return err
	}

	if err := line.Validate(); err != nil {
		return err
	}

	line.JournalID = j.ID

	j.Lines = append(j.Lines, line)
	if err := j.recalculateTotals(); err != nil {
		j.Lines = j.Lines[:len(j.Lines)-1]
		_ = j.recalculateTotals()
		return err
	}

	return nil
}

// UpdateLine replaces the line with the same ID and recomputes totals.
func (j *JournalEntry) UpdateLine(line JournalLine) error {
	if err := j.ensureDraft("modified"); err != nil {
		return err
	}

	if err := line.Validate(); err != nil {
		return err
	}

	idx := j.lineIndex(line.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, line.ID)
	}

	line.JournalID = j.ID

	previous := j.Lines[idx]
	j.Lines[idx] = line
	if err := j.recalculateTotals(); err != nil {
		j.Lines[idx] = previous
		_ = j.recalculateTotals()
		return err
	}

	return nil
}

// RemoveLine deletes a line by ID and recomputes totals. Removing an
// unknown line is an explicit error, not a silent no-op.
func (j *JournalEntry) RemoveLine(lineID string) error {
	if err := j.ensureDraft("modified"); err != nil {
		return err
	}

	idx := j.lineIndex(lineID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}

	j.Lines = append(j.Lines[:idx], j.Lines[idx+1:]...)
	return j.recalculateTotals()
}

// IsBalanced reports whether total debits equal total credits exactly.
func (j *JournalEntry) IsBalanced() bool {
	return len(j.Lines) > 0 && j.TotalDebit.Amount().Equal(j.TotalCredit.Amount())
}

// CanBeReversed reports whether the entry is posted and not yet reversed.
func (j *JournalEntry) CanBeReversed() bool {
	return j.Status == JournalStatusPosted && !j.IsReversed
}

// Submit validates completeness and balance, then moves Draft -> Submitted.
func (j *JournalEntry) Submit(by string, now time.Time) error {
	if j.Status != JournalStatusDraft {
		return fmt.Errorf("%w: only draft journal entries can be submitted, status is %s", ErrInvalidTransition, j.Status)
	}

	if err := j.validateForPosting(); err != nil {
		return err
	}

	j.Status = JournalStatusSubmitted
	j.SubmittedBy = by
	j.SubmittedAt = &now
	j.UpdatedAt = now

	return nil
}

// Approve re-validates balance and moves Submitted -> Approved.
func (j *JournalEntry) Approve(by string, now time.Time) error {
	if j.Status != JournalStatusSubmitted {
		return fmt.Errorf("%w: only submitted journal entries can be approved, status is %s", ErrInvalidTransition, j.Status)
	}

	if err := j.validateForPosting(); err != nil {
		return err
	}

	j.Status = JournalStatusApproved
	j.ApprovedBy = by
	j.ApprovedAt = &now
	j.UpdatedAt = now

	return nil
}

// Post locks the entry. Posting an already-posted entry is a no-op; the
// caller feeds the general ledger only on the actual transition.
func (j *JournalEntry) Post(by string, now time.Time) error {
	if j.Status == JournalStatusPosted {
		return nil
	}

	if j.Status != JournalStatusApproved {
		return fmt.Errorf("%w: journal entry must be approved before posting, status is %s", ErrInvalidTransition, j.Status)
	}

	j.Status = JournalStatusPosted
	j.PostingDate = &now
	j.PostedBy = by
	j.PostedAt = &now
	j.UpdatedAt = now

	return nil
}

// Cancel terminates a draft or submitted entry. Posted entries must be
// reversed instead.
func (j *JournalEntry) Cancel(by string, now time.Time) error {
	if j.Status == JournalStatusPosted {
		return fmt.Errorf("%w: posted journal entries must be reversed, not cancelled", ErrInvalidTransition)
	}

	if j.Status != JournalStatusDraft && j.Status != JournalStatusSubmitted {
		return fmt.Errorf("%w: only draft or submitted journal entries can be cancelled, status is %s", ErrInvalidTransition, j.Status)
	}

	j.Status = JournalStatusCancelled
	j.CancelledBy = by
	j.CancelledAt = &now
	j.UpdatedAt = now

	return nil
}

// BuildReversal creates the posted mirror of a posted entry: every line's
// polarity flipped, description prefixed, both entries linked. The mirror
// skips Submit/Approve; it exists only to cancel the original's ledger
// effect. The original is marked reversed in the same call, so the caller
// must persist both within one transaction.
func (j *JournalEntry) BuildReversal(newID, newNumber string, nextLineID func() string, by string, now time.Time) (*JournalEntry, error) {
	if j.Status != JournalStatusPosted {
		return nil, fmt.Errorf("%w: only posted journal entries can be reversed, status is %s", ErrInvalidTransition, j.Status)
	}

	if j.IsReversed {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyReversed, j.ID)
	}

	mirror := &JournalEntry{
		ID:           newID,
		Number:       newNumber,
		Description:  "Reversal of " + j.Description,
		EntryDate:    now,
		PostingDate:  &now,
		Status:       JournalStatusPosted,
		Currency:     j.Currency,
		TotalDebit:   j.TotalCredit,
		TotalCredit:  j.TotalDebit,
		ReversalOfID: &j.ID,
		CreatedBy:    by,
		CreatedAt:    now,
		PostedBy:     by,
		PostedAt:     &now,
		UpdatedAt:    now,
	}

	mirror.Lines = make([]JournalLine, 0, len(j.Lines))
	for _, line := range j.Lines {
		mirror.Lines = append(mirror.Lines, JournalLine{
			ID:          nextLineID(),
			JournalID:   newID,
			AccountID:   line.AccountID,
			Description: line.Description,
			Amount:      line.Amount.Negate(),
		})
	}

	j.IsReversed = true
	j.ReversalID = &newID
	j.UpdatedAt = now

	return mirror, nil
}

// validateForPosting enforces the balance invariant: at least two lines,
// debits equal to credits exactly, every amount positive, one currency.
func (j *JournalEntry) validateForPosting() error {
	if len(j.Lines) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewLines, len(j.Lines))
	}

	for i := range j.Lines {
		if err := j.Lines[i].Validate(); err != nil {
			return err
		}
	}

	if err := j.recalculateTotals(); err != nil {
		return err
	}

	if !j.TotalDebit.Amount().Equal(j.TotalCredit.Amount()) {
		return fmt.Errorf("%w: debit %s, credit %s", ErrNotBalanced, j.TotalDebit, j.TotalCredit)
	}

	return nil
}

// recalculateTotals derives currency and totals from the full line set.
// The entry's currency is taken from the first line; mixed currencies fail.
func (j *JournalEntry) recalculateTotals() error {
	if len(j.Lines) == 0 {
		j.Currency = ""
		j.TotalDebit = Money{}
		j.TotalCredit = Money{}
		return nil
	}

	currency := j.Lines[0].Amount.Currency()
	totalDebit := ZeroMoney(currency)
	totalCredit := ZeroMoney(currency)

	for i := range j.Lines {
		line := &j.Lines[i]
		if line.Amount.Currency() != currency {
			return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, currency, line.Amount.Currency())
		}

		var err error
		if line.Amount.IsDebit() {
			totalDebit, err = totalDebit.Add(line.Amount.MoneyValue())
		} else {
			totalCredit, err = totalCredit.Add(line.Amount.MoneyValue())
		}
		if err != nil {
			return err
		}
	}

	j.Currency = currency
	j.TotalDebit = totalDebit
	j.TotalCredit = totalCredit

	return nil
}

func (j *JournalEntry) ensureDraft(action string) error {
	if j.Status != JournalStatusDraft {
		return fmt.Errorf("%w: only draft journal entries can be %s, status is %s", ErrInvalidTransition, action, j.Status)
	}
	return nil
}

func (j *JournalEntry) lineIndex(lineID string) int {
	for i := range j.Lines {
		if j.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
