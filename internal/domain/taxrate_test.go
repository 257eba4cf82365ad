package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTaxRate(t *testing.T) {
	tests := []struct {
		name        string
		percentage  string
		expectError bool
	}{
		{name: "standard VAT", percentage: "15"},
		{name: "zero rate", percentage: "0"},
		{name: "full rate", percentage: "100"},
		{name: "negative", percentage: "-1", expectError: true},
		{name: "above hundred", percentage: "100.01", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTaxRate(decimal.RequireFromString(tt.percentage))

			if tt.expectError && !errors.Is(err, ErrInvalidTaxRate) {
				t.Fatalf("expected invalid tax rate error, got %v", err)
			}

			if !tt.expectError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTaxRate_CalculateTax(t *testing.T) {
	tests := []struct {
		name       string
		percentage string
		base       string
		want       string
	}{
		{name: "15 percent of 27", percentage: "15", base: "27", want: "4.05"},
		{name: "15 percent of 100", percentage: "15", base: "100", want: "15"},
		{name: "rounds half away from zero", percentage: "15", base: "0.10", want: "0.02"},
		{name: "zero rate", percentage: "0", base: "100", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := NewTaxRate(decimal.RequireFromString(tt.percentage))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := rate.CalculateTax(mustMoney(t, tt.base, CurrencyZAR))

			if !got.Amount().Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got.Amount())
			}
		})
	}
}

func TestStandardVAT(t *testing.T) {
	if !StandardVAT().Percentage().Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected 15, got %s", StandardVAT().Percentage())
	}
}
