package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestInvoice(t *testing.T) *Document {
	t.Helper()

	inv, err := NewInvoice("inv-1", "INV-2026-00001", "cust-42", testTime, testTime.AddDate(0, 1, 0), CurrencyZAR, "thabo", testTime)
	if err != nil {
		t.Fatalf("NewInvoice: %v", err)
	}

	return inv
}

// addVATLine adds a line with the given quantity and price plus 15% VAT.
func addVATLine(t *testing.T, d *Document, id, quantity, price string) {
	t.Helper()

	li, err := NewLineItem(id, d.ID, "stock delivery", decimal.RequireFromString(quantity), mustMoney(t, price, CurrencyZAR))
	if err != nil {
		t.Fatalf("NewLineItem: %v", err)
	}

	vat := StandardVAT()
	if err := li.SetTaxRate(&vat); err != nil {
		t.Fatalf("SetTaxRate: %v", err)
	}

	if err := d.AddLineItem(*li); err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
}

func approveTestInvoice(t *testing.T, d *Document) {
	t.Helper()

	if err := d.Submit(testTime); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.Approve(testTime); err != nil {
		t.Fatalf("Approve: %v", err)
	}
}

func TestDocument_FullPaymentScenario(t *testing.T) {
	// qty=2, price=50, VAT 15%: subtotal 100, tax 15, total 115.
	inv := newTestInvoice(t)
	addVATLine(t, inv, "line-1", "2", "50")

	if !inv.Subtotal.Amount().Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected subtotal 100, got %s", inv.Subtotal.Amount())
	}
	if !inv.TaxAmount.Amount().Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected tax 15, got %s", inv.TaxAmount.Amount())
	}
	if !inv.Total.Amount().Equal(decimal.NewFromInt(115)) {
		t.Errorf("expected total 115, got %s", inv.Total.Amount())
	}
	if !inv.OutstandingAmount.Amount().Equal(decimal.NewFromInt(115)) {
		t.Errorf("expected outstanding 115, got %s", inv.OutstandingAmount.Amount())
	}

	approveTestInvoice(t, inv)

	if err := inv.RecordPayment(mustMoney(t, "60", CurrencyZAR), testTime); err != nil {
		t.Fatalf("RecordPayment(60): %v", err)
	}

	if !inv.PaidAmount.Amount().Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected paid 60, got %s", inv.PaidAmount.Amount())
	}
	if !inv.OutstandingAmount.Amount().Equal(decimal.NewFromInt(55)) {
		t.Errorf("expected outstanding 55, got %s", inv.OutstandingAmount.Amount())
	}
	if inv.Status != DocumentStatusPartiallyPaid {
		t.Errorf("expected partially paid, got %s", inv.Status)
	}

	if err := inv.RecordPayment(mustMoney(t, "55", CurrencyZAR), testTime); err != nil {
		t.Fatalf("RecordPayment(55): %v", err)
	}

	if !inv.OutstandingAmount.IsZero() {
		t.Errorf("expected outstanding 0, got %s", inv.OutstandingAmount.Amount())
	}
	if inv.Status != DocumentStatusPaid {
		t.Errorf("expected paid, got %s", inv.Status)
	}
	if inv.PaidAt == nil {
		t.Error("expected paid stamp")
	}

	// Paying a settled invoice must fail and leave totals unchanged.
	err := inv.RecordPayment(mustMoney(t, "1", CurrencyZAR), testTime)
	if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrPaymentExceedsOutstanding) {
		t.Fatalf("expected rejection, got %v", err)
	}

	if !inv.PaidAmount.Amount().Equal(decimal.NewFromInt(115)) {
		t.Errorf("paid amount changed to %s", inv.PaidAmount.Amount())
	}
}

func TestDocument_OverpaymentRejectedNotClamped(t *testing.T) {
	inv := newTestInvoice(t)
	addVATLine(t, inv, "line-1", "2", "50")
	approveTestInvoice(t, inv)

	err := inv.RecordPayment(mustMoney(t, "115.01", CurrencyZAR), testTime)
	if !errors.Is(err, ErrPaymentExceedsOutstanding) {
		t.Fatalf("expected payment exceeds outstanding, got %v", err)
	}

	if !inv.PaidAmount.IsZero() {
		t.Errorf("expected paid amount unchanged, got %s", inv.PaidAmount.Amount())
	}
	if !inv.OutstandingAmount.Amount().Equal(decimal.NewFromInt(115)) {
		t.Errorf("expected outstanding unchanged, got %s", inv.OutstandingAmount.Amount())
	}
	if inv.Status != DocumentStatusApproved {
		t.Errorf("expected status unchanged, got %s", inv.Status)
	}
}

func TestDocument_RecordPaymentGuards(t *testing.T) {
	inv := newTestInvoice(t)
	addVATLine(t, inv, "line-1", "2", "50")
	approveTestInvoice(t, inv)

	if err := inv.RecordPayment(mustMoney(t, "0", CurrencyZAR), testTime); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected invalid amount for zero payment, got %v", err)
	}

	if err := inv.RecordPayment(mustMoney(t, "10", CurrencyUSD), testTime); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("expected currency mismatch, got %v", err)
	}
}

func TestDocument_StatusGatedLineMutation(t *testing.T) {
	inv := newTestInvoice(t)
	addVATLine(t, inv, "line-1", "2", "50")

	if err := inv.Submit(testTime); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	li, err := NewLineItem("line-2", inv.ID, "extra delivery", decimal.NewFromInt(1), mustMoney(t, "10", CurrencyZAR))
	if err != nil {
		t.Fatalf("NewLineItem: %v", err)
	}

	if err := inv.AddLineItem(*li); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	if !inv.Subtotal.Amount().Equal(decimal.NewFromInt(100)) {
		t.Errorf("subtotal changed to %s", inv.Subtotal.Amount())
	}
	if !inv.Total.Amount().Equal(decimal.NewFromInt(115)) {
		t.Errorf("total changed to %s", inv.Total.Amount())
	}
}

func TestDocument_SubmitRequiresLines(t *testing.T) {
	inv := newTestInvoice(t)

	if err := inv.Submit(testTime); !errors.Is(err, ErrNoLineItems) {
		t.Fatalf("expected no line items error, got %v", err)
	}
}

func TestDocument_RemoveUnknownLine(t *testing.T) {
	inv := newTestInvoice(t)
	addVATLine(t, inv, "line-1", "1", "10")

	if err := inv.RemoveLineItem("no-such-line"); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected line not found, got %v", err)
	}
}

func TestDocument_MixedCurrencyLineRejected(t *testing.T) {
	inv := newTestInvoice(t)

	li, err := NewLineItem("line-1", inv.ID, "import duty", decimal.NewFromInt(1), mustMoney(t, "10", CurrencyUSD))
	if err != nil {
		t.Fatalf("NewLineItem: %v", err)
	}

	if err := inv.AddLineItem(*li); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestDocument_Overdue(t *testing.T) {
	inv := newTestInvoice(t)
	addVATLine(t, inv, "line-1", "2", "50")
	approveTestInvoice(t, inv)

	afterDue := inv.DueDate.Add(24 * time.Hour)

	if inv.IsOverdue(testTime) {
		t.Error("expected not overdue before due date")
	}

	if !inv.IsOverdue(afterDue) {
		t.Error("expected overdue after due date")
	}

	inv.MarkAsOverdue(afterDue)
	if inv.Status != DocumentStatusOverdue {
		t.Errorf("expected overdue status, got %s", inv.Status)
	}

	// Idempotent: repeated calls do not change anything.
	inv.MarkAsOverdue(afterDue)
	if inv.Status != DocumentStatusOverdue {
		t.Errorf("expected overdue status, got %s", inv.Status)
	}

	// An overdue invoice can still be paid off.
	if err := inv.RecordPayment(mustMoney(t, "115", CurrencyZAR), afterDue); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if inv.Status != DocumentStatusPaid {
		t.Errorf("expected paid, got %s", inv.Status)
	}

	inv.MarkAsOverdue(afterDue.Add(24 * time.Hour))
	if inv.Status != DocumentStatusPaid {
		t.Errorf("expected paid invoice to stay paid, got %s", inv.Status)
	}
}

func TestDocument_Cancel(t *testing.T) {
	t.Run("draft cancels", func(t *testing.T) {
		inv := newTestInvoice(t)
		if err := inv.Cancel(testTime); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if inv.Status != DocumentStatusCancelled {
			t.Errorf("expected cancelled, got %s", inv.Status)
		}
	})

	t.Run("paid cannot cancel", func(t *testing.T) {
		inv := newTestInvoice(t)
		addVATLine(t, inv, "line-1", "2", "50")
		approveTestInvoice(t, inv)
		if err := inv.RecordPayment(mustMoney(t, "115", CurrencyZAR), testTime); err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}

		if err := inv.Cancel(testTime); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected invalid transition, got %v", err)
		}
	})
}

func TestNewBill(t *testing.T) {
	bill, err := NewBill("bil-1", "BIL-2026-00001", "supp-7", testTime, testTime.AddDate(0, 0, 30), CurrencyZAR, "thabo", testTime)
	if err != nil {
		t.Fatalf("NewBill: %v", err)
	}

	if bill.Kind != DocumentKindBill {
		t.Errorf("expected bill kind, got %s", bill.Kind)
	}

	if bill.Status != DocumentStatusDraft {
		t.Errorf("expected draft, got %s", bill.Status)
	}

	if !bill.OutstandingAmount.IsZero() {
		t.Errorf("expected zeroed outstanding, got %s", bill.OutstandingAmount.Amount())
	}
}
