package domain

import (
	"fmt"
	"time"
)

// LedgerBalance is the general-ledger row for one account in one period:
// running debit/credit totals plus opening and closing balances. It is fed
// exclusively by posted journal entries, one call per journal line.
type LedgerBalance struct {
	AccountID   string
	PeriodStart time.Time
	Currency    Currency

	OpeningBalance Money
	DebitBalance   Money
	CreditBalance  Money
	NetBalance     Money
	ClosingBalance Money

	Closed    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLedgerBalance opens a ledger row for an account and period.
func NewLedgerBalance(accountID string, periodStart time.Time, opening Money, now time.Time) (*LedgerBalance, error) {
	if err := ValidateReference(accountID); err != nil {
		return nil, err
	}

	currency := opening.Currency()
	zero := ZeroMoney(currency)

	lb := &LedgerBalance{
		AccountID:      accountID,
		PeriodStart:    periodStart,
		Currency:       currency,
		OpeningBalance: opening,
		DebitBalance:   zero,
		CreditBalance:  zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	lb.calculateNetBalance()
	return lb, nil
}

// AddDebitTransaction accumulates a posted debit and re-derives the net
// and closing balances.
func (lb *LedgerBalance) AddDebitTransaction(amount Money, now time.Time) error {
	return lb.add(amount, now, true)
}

// AddCreditTransaction accumulates a posted credit and re-derives the net
// and closing balances.
func (lb *LedgerBalance) AddCreditTransaction(amount Money, now time.Time) error {
	return lb.add(amount, now, false)
}

func (lb *LedgerBalance) add(amount Money, now time.Time, debit bool) error {
	if lb.Closed {
		return fmt.Errorf("%w: account %s, period %s", ErrPeriodClosed, lb.AccountID, lb.PeriodStart.Format("2006-01"))
	}

	if amount.Currency() != lb.Currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, amount.Currency(), lb.Currency)
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	var err error
	if debit {
		lb.DebitBalance, err = lb.DebitBalance.Add(amount)
	} else {
		lb.CreditBalance, err = lb.CreditBalance.Add(amount)
	}
	if err != nil {
		return err
	}

	lb.calculateNetBalance()
	lb.UpdatedAt = now

	return nil
}

// calculateNetBalance re-derives net = debit - credit and
// closing = opening + net.
func (lb *LedgerBalance) calculateNetBalance() {
	net, _ := lb.DebitBalance.Subtract(lb.CreditBalance)
	closing, _ := lb.OpeningBalance.Add(net)

	lb.NetBalance = net
	lb.ClosingBalance = closing
}

// CloseAccount finalizes the period. The closing balance becomes the next
// period's opening balance via NextPeriod.
func (lb *LedgerBalance) CloseAccount(now time.Time) error {
	if lb.Closed {
		return fmt.Errorf("%w: account %s, period %s", ErrPeriodClosed, lb.AccountID, lb.PeriodStart.Format("2006-01"))
	}

	lb.Closed = true
	lb.UpdatedAt = now

	return nil
}

// CarryForwardOpening replaces the opening balance with the prior
// period's closing balance, keeping any activity already accumulated in
// this period, and re-derives the net and closing balances.
func (lb *LedgerBalance) CarryForwardOpening(opening Money, now time.Time) error {
	if lb.Closed {
		return fmt.Errorf("%w: account %s, period %s", ErrPeriodClosed, lb.AccountID, lb.PeriodStart.Format("2006-01"))
	}

	if opening.Currency() != lb.Currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, opening.Currency(), lb.Currency)
	}

	lb.OpeningBalance = opening
	lb.calculateNetBalance()
	lb.UpdatedAt = now

	return nil
}

// NextPeriod opens the following period's row, carrying the closing
// balance forward as the opening balance.
func (lb *LedgerBalance) NextPeriod(periodStart time.Time, now time.Time) (*LedgerBalance, error) {
	if !lb.Closed {
		return nil, fmt.Errorf("%w: close account %s for period %s before rolling forward", ErrInvalidTransition, lb.AccountID, lb.PeriodStart.Format("2006-01"))
	}

	if !periodStart.After(lb.PeriodStart) {
		return nil, fmt.Errorf("%w: next period must start after %s", ErrInvalidTransition, lb.PeriodStart.Format("2006-01"))
	}

	return NewLedgerBalance(lb.AccountID, periodStart, lb.ClosingBalance, now)
}
