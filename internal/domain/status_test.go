package domain_test

import (
	"testing"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		offset int
		want   domain.VirtualStatus
	}{
		{-30, domain.VirtualOverdue},
		{-1, domain.VirtualOverdue},
		{0, domain.VirtualDueToday},
		{1, domain.VirtualDueSoon},
		{7, domain.VirtualDueSoon},
		{8, ""},
	}
	for _, tt := range tests {
		got, days := domain.Classify(today.AddDate(0, 0, tt.offset), today, 7)
		if got != tt.want || days != tt.offset {
			t.Errorf("offset %d: got (%q, %d), want (%q, %d)", tt.offset, got, days, tt.want, tt.offset)
		}
	}
}

func TestClassify_ZeroThreshold(t *testing.T) {
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	if got, _ := domain.Classify(today.AddDate(0, 0, 1), today, 0); got != "" {
		t.Errorf("expected no status with a zero threshold, got %q", got)
	}
	if got, _ := domain.Classify(today, today, 0); got != domain.VirtualDueToday {
		t.Errorf("today must stay DUE_TODAY, got %q", got)
	}
}

func TestView_OnlyOpenAccountsGetStatus(t *testing.T) {
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	acc := domain.Account{Amount: decimal.NewFromInt(10), DueDate: today.AddDate(0, 0, -3)}

	for _, tt := range []struct {
		status domain.AccountStatus
		want   domain.VirtualStatus
	}{
		{domain.StatusPending, domain.VirtualOverdue},
		{domain.StatusPartiallyPaid, domain.VirtualOverdue},
		{domain.StatusPaid, ""},
		{domain.StatusCancelled, ""},
	} {
		acc.Status = tt.status
		v := domain.View(acc, today, 7)
		if v.VirtualStatus != tt.want {
			t.Errorf("%s: got %q, want %q", tt.status, v.VirtualStatus, tt.want)
		}
		if v.DaysUntilDue != -3 {
			t.Errorf("%s: days until due %d", tt.status, v.DaysUntilDue)
		}
	}
}
