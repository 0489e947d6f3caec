package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/shopspring/decimal"
)

func TestGenerateInstallments_SumsToPrincipal(t *testing.T) {
	due := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		principal string
		count     int
		last      string
	}{
		{"900", 3, "300"},
		{"100", 3, "33.34"},
		{"0.05", 5, "0.01"},
		{"1000.01", 7, "142.91"},
		{"59.99", 12, "5.10"},
	}
	for _, tt := range tests {
		t.Run(tt.principal, func(t *testing.T) {
			p := decimal.RequireFromString(tt.principal)
			items, err := domain.GenerateInstallments(p, due, tt.count)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != tt.count {
				t.Fatalf("expected %d installments, got %d", tt.count, len(items))
			}
			sum := decimal.Zero
			for i, it := range items {
				sum = sum.Add(it.Amount)
				if it.Number != i+1 || it.Status != domain.InstallmentPending {
					t.Errorf("installment %d: number=%d status=%s", i, it.Number, it.Status)
				}
			}
			if !sum.Equal(p) {
				t.Errorf("sum %s != principal %s", sum, p)
			}
			if want := decimal.RequireFromString(tt.last); !items[len(items)-1].Amount.Equal(want) {
				t.Errorf("last installment %s, want %s", items[len(items)-1].Amount, want)
			}
		})
	}
}

func TestGenerateInstallments_MonthlyDueDates(t *testing.T) {
	due := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	items, err := domain.GenerateInstallments(decimal.NewFromInt(300), due, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2025-01-31", "2025-02-28", "2025-03-31"}
	for i, it := range items {
		if got := domain.CivilDate(it.DueDate); got != want[i] {
			t.Errorf("installment %d due %s, want %s", i+1, got, want[i])
		}
	}
}

func TestGenerateInstallments_Rejects(t *testing.T) {
	due := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		principal string
		count     int
		field     string
	}{
		{"zero count", "100", 0, "totalInstallments"},
		{"negative amount", "-1", 2, "amount"},
		{"sub-cent amount", "10.005", 2, "amount"},
		{"share below one cent", "0.02", 3, "totalInstallments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.GenerateInstallments(decimal.RequireFromString(tt.principal), due, tt.count)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestApplyPayments(t *testing.T) {
	due := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	items, err := domain.GenerateInstallments(decimal.NewFromInt(300), due, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if changed := domain.ApplyPayments(items, decimal.NewFromInt(150)); len(changed) != 1 || changed[0] != 0 {
		t.Fatalf("expected only the first installment paid, got %v", changed)
	}
	if changed := domain.ApplyPayments(items, decimal.NewFromInt(150)); len(changed) != 0 {
		t.Errorf("reapplying the same total must change nothing, got %v", changed)
	}
	if changed := domain.ApplyPayments(items, decimal.NewFromInt(300)); len(changed) != 2 {
		t.Errorf("expected the remaining two paid, got %v", changed)
	}
	for _, it := range items {
		if it.Status != domain.InstallmentPaid {
			t.Errorf("installment %d still %s", it.Number, it.Status)
		}
	}
}
